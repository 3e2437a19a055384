// Package checkout wraps the payment-session collaborator. It creates a
// session for a price identifier and hands back the provider's redirect URL;
// all payment logic stays on the provider's side.
package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Config drives checkout client behaviour.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// SessionRequest identifies what the buyer is purchasing access to.
type SessionRequest struct {
	PriceID    string `json:"priceId"`
	Quantity   int    `json:"quantity"`
	SuccessURL string `json:"successUrl"`
	CancelURL  string `json:"cancelUrl"`
}

// Session is the provider's created payment session.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client performs payment-session creation calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// ErrMissingCredentials is returned when the client cannot authenticate.
var ErrMissingCredentials = errors.New("checkout client missing api key")

// NewClient constructs a checkout client if configuration is valid.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingCredentials
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
	}, nil
}

// CreateSession asks the provider for a new payment session.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	if c == nil {
		return Session{}, errors.New("checkout client is nil")
	}
	if strings.TrimSpace(req.PriceID) == "" {
		return Session{}, errors.New("price id required")
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Session{}, fmt.Errorf("marshal session request: %w", err)
	}

	endpoint := c.baseURL + "/v1/checkout/sessions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// back off briefly and retry once
		select {
		case <-ctx.Done():
			return Session{}, ctx.Err()
		case <-time.After(2 * time.Second):
		}
		resp.Body.Close()
		retryReq, retryErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if retryErr != nil {
			return Session{}, retryErr
		}
		retryReq.Header = httpReq.Header.Clone()
		resp, err = c.httpClient.Do(retryReq)
		if err != nil {
			return Session{}, err
		}
		defer resp.Body.Close()
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Session{}, fmt.Errorf("checkout api status %d", resp.StatusCode)
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return Session{}, fmt.Errorf("decode checkout response: %w", err)
	}
	if session.URL == "" {
		return Session{}, errors.New("checkout response missing redirect url")
	}
	return session, nil
}
