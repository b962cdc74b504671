package billingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/config"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

// ErrMissingSession is returned when ctx carries no caller session
var ErrMissingSession = errors.New("billing api: no session in context")

// DefaultTimeout bounds every backend round trip when no timeout is configured
const DefaultTimeout = 15 * time.Second

// APIError is a failure reported by the billing backend, either through the
// {error:{message}} envelope or through an unparseable non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("billing api error (status %d): %s", e.StatusCode, e.Message)
}

// envelopeError reports whether body is an {error:{message}} envelope.
// A bare string under "error" is accepted as the message.
func envelopeError(body []byte) (string, bool) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", false
	}
	raw, ok := envelope["error"]
	if !ok || string(raw) == "null" {
		return "", false
	}

	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &detail); err == nil {
		return detail.Message, true
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}
	return "", true
}

// Client talks JSON to the billing backend on behalf of the session in ctx
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a billing backend client
func NewClient(cfg config.BillingAPIConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// do sends one request and decodes a successful body into out.
// The error envelope decides failure regardless of the HTTP status.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, headers map[string]string, out interface{}) error {
	session, ok := model.SessionFromContext(ctx)
	if !ok || session.Token == "" {
		return ErrMissingSession
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Billing API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return fmt.Errorf("billing api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("Billing API response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	success := resp.StatusCode >= 200 && resp.StatusCode < 300

	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) == 0 && success {
		return nil
	}
	if !json.Valid(trimmed) {
		if !success {
			return &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return fmt.Errorf("failed to parse response: body is not JSON")
	}
	if msg, failed := envelopeError(trimmed); failed {
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
