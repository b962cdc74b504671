package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

// FlowObserver receives in-memory signals about flow activity (metrics).
// Implementations must not block.
type FlowObserver interface {
	FlowOpened()
	FlowClosed()
	StateChanged(state model.SubmissionState)
	QuoteCompleted(outcome string, elapsed time.Duration)
	StaleQuoteDropped()
	CommitCompleted(capture model.CaptureKind, outcome string)
}

// SubscriptionActivated is published after a successful commit
type SubscriptionActivated struct {
	FlowID         string              `json:"flowId"`
	AccountID      string              `json:"accountId"`
	SubscriptionID string              `json:"subscriptionId"`
	PlanID         string              `json:"planId"`
	BillingPeriod  model.BillingPeriod `json:"billingPeriod"`
	ChargedNow     decimal.Decimal     `json:"chargedNow"`
	ActivatedAt    time.Time           `json:"activatedAt"`
}

// EventPublisher tells the rest of the application about billing changes
type EventPublisher interface {
	// PublishInvalidation announces that cached subscription and payment-method data of the account is stale
	PublishInvalidation(ctx context.Context, accountID string) error
	// PublishActivated emits the success notification
	PublishActivated(ctx context.Context, event SubscriptionActivated) error
}

// AuditRecorder accepts flow events without blocking the caller
type AuditRecorder interface {
	Record(event model.FlowEvent)
}

type nopObserver struct{}

func (nopObserver) FlowOpened()                               {}
func (nopObserver) FlowClosed()                               {}
func (nopObserver) StateChanged(model.SubmissionState)        {}
func (nopObserver) QuoteCompleted(string, time.Duration)      {}
func (nopObserver) StaleQuoteDropped()                        {}
func (nopObserver) CommitCompleted(model.CaptureKind, string) {}

type nopPublisher struct{}

func (nopPublisher) PublishInvalidation(context.Context, string) error { return nil }
func (nopPublisher) PublishActivated(context.Context, SubscriptionActivated) error {
	return nil
}

type nopAuditor struct{}

func (nopAuditor) Record(model.FlowEvent) {}
