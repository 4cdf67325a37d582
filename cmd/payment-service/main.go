package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/olumuyiwaa/afrohub-backend/internal/analytics"
	analytics_api "github.com/olumuyiwaa/afrohub-backend/internal/analytics/api"
	"github.com/olumuyiwaa/afrohub-backend/internal/config"
	"github.com/olumuyiwaa/afrohub-backend/internal/database/migrations"
	"github.com/olumuyiwaa/afrohub-backend/internal/inventory"
	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/payment"
	"github.com/olumuyiwaa/afrohub-backend/internal/payment/api"
	paymentdb "github.com/olumuyiwaa/afrohub-backend/internal/payment/db"
	"github.com/olumuyiwaa/afrohub-backend/internal/payment/kafka"
	redislock "github.com/olumuyiwaa/afrohub-backend/internal/payment/redis"
	"github.com/olumuyiwaa/afrohub-backend/internal/paypal"
	"github.com/olumuyiwaa/afrohub-backend/internal/poller"
	"github.com/olumuyiwaa/afrohub-backend/internal/stripecheckout"
	"github.com/olumuyiwaa/afrohub-backend/internal/tickets/qr"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func connectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Addr))
	return client
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, os.Getenv("MIGRATIONS_DIR"), log)
	if err := runner.Up(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}

	redisClient := connectRedis(ctx, cfg.Redis, log)
	defer redisClient.Close()

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicExists(cfg.Kafka.Brokers, cfg.Kafka.SettledTopic); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.SettledTopic)
		defer producer.Close()
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for topic %s", cfg.Kafka.SettledTopic))
	} else {
		log.Warn("KAFKA", "Kafka disabled, settled events will not be published")
	}

	paypalClient := paypal.NewClient(paypal.Config{
		APIBase:      cfg.PayPal.APIBase,
		ClientID:     cfg.PayPal.ClientID,
		ClientSecret: cfg.PayPal.ClientSecret,
		ReturnURL:    cfg.PayPal.ReturnURL,
		CancelURL:    cfg.PayPal.CancelURL,
		BrandName:    cfg.PayPal.BrandName,
	}, &http.Client{Timeout: cfg.PayPal.Timeout}, log)

	stripeService, err := stripecheckout.NewService(stripecheckout.Config{
		SecretKey:  cfg.Stripe.SecretKey,
		SuccessURL: cfg.Stripe.SuccessURL,
		CancelURL:  cfg.Stripe.CancelURL,
	}, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Stripe client initialization failed: %v", err))
	}

	store := &paymentdb.DB{Bun: bunDB}
	ledger := inventory.NewLedger(&inventory.Store{Bun: bunDB}, log)
	lock := redislock.NewRedis(redisClient)

	service := payment.NewService(store, ledger, paypalClient, stripeService, lock, log)

	sessionPoller := poller.New(service, log)
	service.Poller = sessionPoller
	service.Issuer = qr.NewIssuer(cfg.Auth.TicketQRSecret)
	if producer != nil {
		service.Notifier = producer
	}

	handler := api.NewHandler(service, cfg.Auth.JWTSecret, log)
	handler.Analytics = analytics_api.NewHandler(analytics.NewService(bunDB), log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/api", handler.Routes())
	log.Info("ROUTER", "Payment routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Payment Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	}

	sessionPoller.Stop()
	log.Info("APP", "✅ Payment Service shutdown complete")
}
