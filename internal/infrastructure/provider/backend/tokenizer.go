package backend

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/adapter/billingapi"
	"github.com/alderburg/Teste-sub001/internal/domain/card"
	"github.com/alderburg/Teste-sub001/internal/domain/provider"
)

// cardAPI is the part of the billing client the tokenizer needs
type cardAPI interface {
	TokenizeCard(ctx context.Context, req billingapi.TokenizeCardRequest) (string, error)
}

// Tokenizer sends the card to POST /billing/cards/tokenize
type Tokenizer struct {
	api    cardAPI
	logger *zap.Logger
}

// NewTokenizer creates a tokenizer backed by the billing API
func NewTokenizer(api cardAPI, logger *zap.Logger) *Tokenizer {
	return &Tokenizer{api: api, logger: logger}
}

func (t *Tokenizer) GetProviderName() string {
	return string(provider.ProviderTypeBackend)
}

func (t *Tokenizer) Tokenize(ctx context.Context, req *provider.TokenizeRequest) (*provider.TokenizeResponse, error) {
	digits := card.Digits(req.Card.Number)

	id, err := t.api.TokenizeCard(ctx, billingapi.TokenizeCardRequest{
		Number:        digits,
		Name:          req.Card.HolderName,
		ExpiryMonth:   req.Card.ExpiryMonth,
		ExpiryYear:    req.Card.ExpiryYear,
		CVV:           req.Card.CVV,
		PlanID:        req.PlanID,
		BillingPeriod: req.BillingPeriod,
	})
	if err != nil {
		var apiErr *billingapi.APIError
		if errors.As(err, &apiErr) {
			return nil, &provider.ProviderError{
				Code:    "CARD_REJECTED",
				Message: apiErr.Message,
			}
		}
		return nil, &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Billing API tokenize request failed",
			Details: err.Error(),
		}
	}

	t.logger.Info("Card tokenized",
		zap.String("provider", t.GetProviderName()),
		zap.String("plan_id", req.PlanID))

	return &provider.TokenizeResponse{
		PaymentMethodID: id,
		Brand:           card.Classify(digits).Name,
		Last4:           card.Last4(digits),
	}, nil
}
