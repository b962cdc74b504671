package stripe

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/domain/card"
	"github.com/alderburg/Teste-sub001/internal/domain/provider"
)

// Tokenizer creates Stripe card PaymentMethods. The returned pm_ id is what
// the billing backend receives on commit.
type Tokenizer struct {
	api    *client.API
	logger *zap.Logger
}

// NewTokenizer creates a Stripe tokenizer. apiURL overrides the Stripe
// endpoint and may be empty.
func NewTokenizer(secretKey, apiURL string, httpClient *http.Client, logger *zap.Logger) *Tokenizer {
	backendConfig := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		LeveledLogger:     logger.Sugar(),
		MaxNetworkRetries: stripe.Int64(0),
	}
	if apiURL != "" {
		backendConfig.URL = stripe.String(apiURL)
	}

	backend := stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig)
	backends := &stripe.Backends{API: backend, Connect: backend, Uploads: backend}

	return &Tokenizer{
		api:    client.New(secretKey, backends),
		logger: logger,
	}
}

// GetProviderName returns the provider name
func (s *Tokenizer) GetProviderName() string {
	return string(provider.ProviderTypeStripe)
}

func (s *Tokenizer) Tokenize(ctx context.Context, req *provider.TokenizeRequest) (*provider.TokenizeResponse, error) {
	month, err := strconv.ParseInt(req.Card.ExpiryMonth, 10, 64)
	if err != nil {
		return nil, &provider.ProviderError{Code: "INVALID_EXPIRY", Message: "Invalid expiry month", Details: err.Error()}
	}
	year, err := strconv.ParseInt(req.Card.ExpiryYear, 10, 64)
	if err != nil {
		return nil, &provider.ProviderError{Code: "INVALID_EXPIRY", Message: "Invalid expiry year", Details: err.Error()}
	}
	if year < 100 {
		year += 2000
	}

	params := &stripe.PaymentMethodParams{
		Type: stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Digits(req.Card.Number)),
			ExpMonth: stripe.Int64(month),
			ExpYear:  stripe.Int64(year),
			CVC:      stripe.String(req.Card.CVV),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name: stripe.String(req.Card.HolderName),
		},
	}
	params.Context = ctx
	params.AddMetadata("plan_id", req.PlanID)
	params.AddMetadata("billing_period", string(req.BillingPeriod))

	pm, err := s.api.PaymentMethods.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			s.logger.Warn("StripeTokenizer: card rejected",
				zap.String("code", string(stripeErr.Code)),
				zap.String("request_id", stripeErr.RequestID))
			return nil, &provider.ProviderError{
				Code:    string(stripeErr.Code),
				Message: stripeErr.Msg,
			}
		}
		return nil, &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "Stripe API request failed",
			Details: err.Error(),
		}
	}

	resp := &provider.TokenizeResponse{PaymentMethodID: pm.ID}
	if pm.Card != nil {
		resp.Brand = string(pm.Card.Brand)
		resp.Last4 = pm.Card.Last4
	}

	s.logger.Info("StripeTokenizer: payment method created",
		zap.String("payment_method_id", pm.ID),
		zap.String("brand", resp.Brand))
	return resp, nil
}
