package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	PayPal   PayPalConfig
	Stripe   StripeConfig
	Auth     AuthConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers      []string
	SettledTopic string
	Enabled      bool
}

type PayPalConfig struct {
	APIBase      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
	BrandName    string
	Timeout      time.Duration
}

type StripeConfig struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
}

type AuthConfig struct {
	JWTSecret      string
	TicketQRSecret string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8080"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "afrohub_user"),
			Password:     getEnv("DB_PASSWORD", "afrohub_pass"),
			Database:     getEnv("DB_NAME", "afrohub"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: KafkaConfig{
			Brokers:      []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			SettledTopic: getEnv("KAFKA_TOPIC_SETTLED", "transaction-settled"),
			Enabled:      getEnvBool("KAFKA_ENABLED", true),
		},
		PayPal: PayPalConfig{
			APIBase:      getEnv("PAYPAL_API", "https://api-m.sandbox.paypal.com"),
			ClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
			ClientSecret: getEnv("PAYPAL_SECRET", ""),
			ReturnURL:    getEnv("PAYPAL_RETURN_URL", "http://localhost:8080/api/paypal/complete-order"),
			CancelURL:    getEnv("PAYPAL_CANCEL_URL", "http://localhost:8080/api/paypal/cancel"),
			BrandName:    getEnv("PAYPAL_BRAND_NAME", "Afrohub Tickets"),
			Timeout:      time.Duration(getEnvInt("PAYPAL_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Stripe: StripeConfig{
			SecretKey:  getEnv("STRIPE_SECRET_KEY", ""),
			SuccessURL: getEnv("STRIPE_SUCCESS_URL", "http://localhost:8080/payment-successful?session_id={CHECKOUT_SESSION_ID}"),
			CancelURL:  getEnv("STRIPE_CANCEL_URL", "http://localhost:8080/payment-cancelled"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", ""),
			TicketQRSecret: getEnv("TICKET_QR_SECRET", "afrohub-ticket-secret"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
