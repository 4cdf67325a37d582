package paypal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/olumuyiwaa/afrohub-backend/internal/logger"
	"github.com/olumuyiwaa/afrohub-backend/internal/models"
)

// Config carries the immutable PayPal credentials and endpoint, injected at
// construction instead of read from globals.
type Config struct {
	APIBase      string
	ClientID     string
	ClientSecret string
	ReturnURL    string
	CancelURL    string
	BrandName    string
}

// Client is the order/capture provider adapter. It owns token exchange and
// response-shape translation; it never touches the transaction store.
type Client struct {
	cfg    Config
	client *http.Client
	log    *logger.Logger
}

func NewClient(cfg Config, httpClient *http.Client, log *logger.Logger) *Client {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api-m.sandbox.paypal.com"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{cfg: cfg, client: httpClient, log: log}
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// getAccessToken exchanges the client credentials for a bearer token.
func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	tokenURL := fmt.Sprintf("%s/v1/oauth2/token", c.cfg.APIBase)
	credentials := base64.StdEncoding.EncodeToString([]byte(c.cfg.ClientID + ":" + c.cfg.ClientSecret))

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("paypal token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode paypal token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch PayPal access token: %s", tokenResp.ErrorDescription)
	}

	return tokenResp.AccessToken, nil
}

type orderResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Links   []struct {
		Href string `json:"href"`
		Rel  string `json:"rel"`
	} `json:"links"`
}

// CreateOrder creates a CAPTURE-intent order for the given total and returns
// the order id plus the buyer approval link.
func (c *Client) CreateOrder(ctx context.Context, amount float64, description string) (*models.ProviderResource, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"intent": "CAPTURE",
		"purchase_units": []map[string]any{
			{
				"description": description,
				"amount": map[string]string{
					"currency_code": "USD",
					"value":         fmt.Sprintf("%.2f", amount),
				},
			},
		},
		"application_context": map[string]string{
			"brand_name":   c.cfg.BrandName,
			"landing_page": "LOGIN",
			"user_action":  "PAY_NOW",
			"return_url":   c.cfg.ReturnURL,
			"cancel_url":   c.cfg.CancelURL,
		},
	}

	reqBody, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.APIBase+"/v2/checkout/orders", strings.NewReader(string(reqBody)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal order request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var order orderResponse
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to decode paypal order response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create PayPal order: %s", order.Message)
	}

	approvalURL := ""
	for _, link := range order.Links {
		if link.Rel == "approve" {
			approvalURL = link.Href
			break
		}
	}
	if approvalURL == "" {
		return nil, fmt.Errorf("PayPal order %s has no approval link", order.ID)
	}

	c.log.Info("PAYPAL", fmt.Sprintf("Created order %s for %.2f USD", order.ID, amount))
	return &models.ProviderResource{
		Ref:         order.ID,
		RedirectURL: approvalURL,
		RawStatus:   order.Status,
	}, nil
}

// CaptureOrder captures an approved order. The raw capture payload is
// returned for the transaction's audit trail.
func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*models.ProviderResult, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, err
	}

	captureURL := fmt.Sprintf("%s/v2/checkout/orders/%s/capture", c.cfg.APIBase, orderID)
	req, err := http.NewRequestWithContext(ctx, "POST", captureURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal capture request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var capture orderResponse
	if err := json.Unmarshal(body, &capture); err != nil {
		return nil, fmt.Errorf("failed to decode paypal capture response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to capture PayPal payment: %s", capture.Message)
	}

	c.log.Info("PAYPAL", fmt.Sprintf("Captured order %s with status %s", orderID, capture.Status))
	return &models.ProviderResult{
		RawStatus:  capture.Status,
		RawDetails: json.RawMessage(body),
	}, nil
}
