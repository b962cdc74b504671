package repository

import (
	"context"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

// CommitRequest is the body of POST /billing/subscriptions
type CommitRequest struct {
	PlanID          string              `json:"planId"`
	BillingPeriod   model.BillingPeriod `json:"billingPeriod"`
	PaymentMethodID string              `json:"paymentMethodId,omitempty"`
	// IdempotencyKey is sent as a header, not in the body
	IdempotencyKey string `json:"-"`
}

// BillingRepository is the authoritative billing backend. The caller's
// session travels in ctx (see model.ContextWithSession).
type BillingRepository interface {
	// Quote asks the backend to price a plan/period change
	Quote(ctx context.Context, planID string, period model.BillingPeriod) (*model.ProrationQuote, error)

	// ListPaymentMethods returns the cards stored for the session's account
	ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error)

	// CreateSubscription activates the plan with an already obtained payment method
	CreateSubscription(ctx context.Context, req CommitRequest) (*model.Subscription, error)

	// CreateSetupIntent returns a client secret for the hosted capture element
	CreateSetupIntent(ctx context.Context) (string, error)
}
