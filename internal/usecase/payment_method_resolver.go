package usecase

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/repository"
)

// PaymentMethodOptions is the saved-vs-new choice offered to the user
type PaymentMethodOptions struct {
	SavedAvailable bool                  `json:"savedAvailable"`
	DefaultChoice  model.CaptureKind     `json:"defaultChoice"`
	Default        *model.PaymentMethod  `json:"default,omitempty"`
	Methods        []model.PaymentMethod `json:"methods"`
}

// PaymentMethodResolver lists stored cards per account and picks the default
type PaymentMethodResolver struct {
	billing repository.BillingRepository
	cache   *expirable.LRU[string, []model.PaymentMethod]
	logger  *zap.Logger
}

// NewPaymentMethodResolver creates a resolver caching up to size accounts for ttl
func NewPaymentMethodResolver(billing repository.BillingRepository, size int, ttl time.Duration, logger *zap.Logger) *PaymentMethodResolver {
	return &PaymentMethodResolver{
		billing: billing,
		cache:   expirable.NewLRU[string, []model.PaymentMethod](size, nil, ttl),
		logger:  logger,
	}
}

// ListMethods returns the stored payment methods of the session's account
func (r *PaymentMethodResolver) ListMethods(ctx context.Context, accountID string) ([]model.PaymentMethod, error) {
	if cached, ok := r.cache.Get(accountID); ok {
		return cloneMethods(cached), nil
	}

	methods, err := r.billing.ListPaymentMethods(ctx)
	if err != nil {
		r.logger.Warn("Failed to list payment methods",
			zap.String("account_id", accountID),
			zap.Error(err))
		return nil, err
	}

	r.cache.Add(accountID, cloneMethods(methods))
	return methods, nil
}

// Invalidate drops the cached methods of an account
func (r *PaymentMethodResolver) Invalidate(accountID string) {
	if r.cache.Remove(accountID) {
		r.logger.Debug("Payment method cache invalidated", zap.String("account_id", accountID))
	}
}

// ResolveDefault returns the method flagged as default, else the first, else nil
func ResolveDefault(methods []model.PaymentMethod) *model.PaymentMethod {
	for i := range methods {
		if methods[i].IsDefault {
			m := methods[i]
			return &m
		}
	}
	if len(methods) > 0 {
		m := methods[0]
		return &m
	}
	return nil
}

// Options builds the capture choice. With no saved methods the saved-card
// branch is unavailable and new card is the only choice.
func Options(methods []model.PaymentMethod) PaymentMethodOptions {
	opts := PaymentMethodOptions{
		Methods: cloneMethods(methods),
		Default: ResolveDefault(methods),
	}
	if opts.Default == nil {
		opts.DefaultChoice = model.CaptureNewCard
		return opts
	}
	opts.SavedAvailable = true
	opts.DefaultChoice = model.CaptureSavedCard
	return opts
}

func cloneMethods(methods []model.PaymentMethod) []model.PaymentMethod {
	out := make([]model.PaymentMethod, len(methods))
	copy(out, methods)
	return out
}
