// services/gateway.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// GatewayConfig holds the SMS provider endpoint and credentials. It is
// loaded once at startup and injected into the client, never read from
// the environment at call sites.
type GatewayConfig struct {
	BaseURL  string
	Sender   string
	Username string
	Password string
	Timeout  time.Duration
}

func LoadGatewayConfig() GatewayConfig {
	return GatewayConfig{
		BaseURL:  os.Getenv("SMS_API_URL"),
		Sender:   os.Getenv("SMS_API_SENDER"),
		Username: os.Getenv("SMS_API_USER"),
		Password: os.Getenv("SMS_API_PASSWORD"),
		Timeout:  10 * time.Second,
	}
}

// DeliveryResult is the final outcome of one send attempt.
type DeliveryResult int

const (
	Delivered DeliveryResult = iota
	// TokenRejected means the session token is no longer accepted and
	// the send may be retried with a fresh one.
	TokenRejected
	TransportError
)

func (r DeliveryResult) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case TokenRejected:
		return "token_rejected"
	default:
		return "transport_error"
	}
}

// AuthError means the gateway rejected our credentials or was
// unreachable at login time. A batch cannot proceed without a token.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway authentication failed: %s: %v", e.Reason, e.Err)
	}
	return "gateway authentication failed: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// SMSGateway is what the dispatcher needs from the provider.
type SMSGateway interface {
	Authenticate(ctx context.Context) (string, error)
	Send(ctx context.Context, token, to, text string) (DeliveryResult, error)
}

type GatewayClient struct {
	cfg    GatewayConfig
	client *http.Client
}

func NewGatewayClient(cfg GatewayConfig) *GatewayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GatewayClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
}

type smsResponse struct {
	Result string `json:"result"`
}

// Authenticate logs into the gateway and returns a session token.
func (c *GatewayClient) Authenticate(ctx context.Context) (string, error) {
	reqBody, err := json.Marshal(loginRequest{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
	})
	if err != nil {
		return "", &AuthError{Reason: "encode login request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/login", bytes.NewReader(reqBody))
	if err != nil {
		return "", &AuthError{Reason: "build login request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &AuthError{Reason: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &AuthError{Reason: fmt.Sprintf("unexpected status code: %d body=%q", resp.StatusCode, string(body))}
	}

	var lr loginResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&lr); err != nil {
		return "", &AuthError{Reason: fmt.Sprintf("failed to decode json body=%q", string(body)), Err: err}
	}
	if lr.Token == "" {
		return "", &AuthError{Reason: fmt.Sprintf("missing token in response body=%q", string(body))}
	}

	return lr.Token, nil
}

// Send posts one SMS. The returned error carries detail only for
// TransportError outcomes.
func (c *GatewayClient) Send(ctx context.Context, token, to, text string) (DeliveryResult, error) {
	reqBody, err := json.Marshal(smsRequest{
		From: c.cfg.Sender,
		To:   to,
		Text: text,
	})
	if err != nil {
		return TransportError, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/v1/sms", bytes.NewReader(reqBody))
	if err != nil {
		return TransportError, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.client.Do(req)
	if err != nil {
		return TransportError, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return TransportError, fmt.Errorf("unexpected status code: %d body=%q", resp.StatusCode, string(body))
	}

	var sr smsResponse
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sr); err != nil {
		return TransportError, fmt.Errorf("failed to decode json: %w body=%q", err, string(body))
	}

	switch sr.Result {
	case "OK":
		return Delivered, nil
	case "error":
		return TokenRejected, nil
	default:
		return TransportError, fmt.Errorf("unexpected result %q body=%q", sr.Result, string(body))
	}
}
