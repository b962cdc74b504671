package billingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/repository"
)

var _ repository.BillingRepository = (*Client)(nil)

type quoteRequest struct {
	PlanID        string              `json:"planId"`
	BillingPeriod model.BillingPeriod `json:"billingPeriod"`
}

// Quote requests an authoritative proration quote
// POST /billing/proration
func (c *Client) Quote(ctx context.Context, planID string, period model.BillingPeriod) (*model.ProrationQuote, error) {
	var quote model.ProrationQuote
	if err := c.do(ctx, http.MethodPost, "/billing/proration", quoteRequest{PlanID: planID, BillingPeriod: period}, nil, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// ListPaymentMethods returns the account's stored cards
// GET /billing/payment-methods
func (c *Client) ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/billing/payment-methods", nil, nil, &raw); err != nil {
		return nil, err
	}

	methods := []model.PaymentMethod{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return methods, nil
	}
	// Some deployments wrap the list as {"paymentMethods": [...]}
	if trimmed[0] == '{' {
		var wrapped struct {
			PaymentMethods []model.PaymentMethod `json:"paymentMethods"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse payment methods: %w", err)
		}
		if wrapped.PaymentMethods != nil {
			methods = wrapped.PaymentMethods
		}
		return methods, nil
	}
	if err := json.Unmarshal(trimmed, &methods); err != nil {
		return nil, fmt.Errorf("failed to parse payment methods: %w", err)
	}
	return methods, nil
}

// TokenizeCardRequest is the body of POST /billing/cards/tokenize
type TokenizeCardRequest struct {
	Number        string              `json:"number"`
	Name          string              `json:"name"`
	ExpiryMonth   string              `json:"expiryMonth"`
	ExpiryYear    string              `json:"expiryYear"`
	CVV           string              `json:"cvv"`
	PlanID        string              `json:"planId"`
	BillingPeriod model.BillingPeriod `json:"billingPeriod"`
}

// TokenizeCard exchanges raw card data for a payment method id
// POST /billing/cards/tokenize
func (c *Client) TokenizeCard(ctx context.Context, req TokenizeCardRequest) (string, error) {
	var resp struct {
		PaymentMethodID string `json:"paymentMethodId"`
	}
	if err := c.do(ctx, http.MethodPost, "/billing/cards/tokenize", req, nil, &resp); err != nil {
		return "", err
	}
	if resp.PaymentMethodID == "" {
		return "", fmt.Errorf("tokenize response has no paymentMethodId")
	}
	return resp.PaymentMethodID, nil
}

// CreateSubscription activates the plan
// POST /billing/subscriptions
func (c *Client) CreateSubscription(ctx context.Context, req repository.CommitRequest) (*model.Subscription, error) {
	var headers map[string]string
	if req.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": req.IdempotencyKey}
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/billing/subscriptions", req, headers, &raw); err != nil {
		return nil, err
	}

	var wrapped struct {
		Subscription json.RawMessage `json:"subscription"`
	}
	body := []byte(raw)
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Subscription) > 0 {
		body = wrapped.Subscription
	}

	var sub model.Subscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription: %w", err)
	}
	sub.Raw = body

	c.logger.Info("Subscription committed",
		zap.String("subscription_id", sub.ID),
		zap.String("plan_id", req.PlanID),
		zap.String("billing_period", string(req.BillingPeriod)))
	return &sub, nil
}

// CreateSetupIntent returns the client secret of a hosted capture session
// POST /billing/setup-intent
func (c *Client) CreateSetupIntent(ctx context.Context) (string, error) {
	var resp struct {
		ClientSecret string `json:"clientSecret"`
	}
	if err := c.do(ctx, http.MethodPost, "/billing/setup-intent", nil, nil, &resp); err != nil {
		return "", err
	}
	if resp.ClientSecret == "" {
		return "", fmt.Errorf("setup intent response has no clientSecret")
	}
	return resp.ClientSecret, nil
}
