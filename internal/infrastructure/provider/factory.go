package provider

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/adapter/billingapi"
	"github.com/alderburg/Teste-sub001/internal/config"
	"github.com/alderburg/Teste-sub001/internal/domain/provider"
	backendProvider "github.com/alderburg/Teste-sub001/internal/infrastructure/provider/backend"
	stripeProvider "github.com/alderburg/Teste-sub001/internal/infrastructure/provider/stripe"
)

// Factory creates card tokenizers based on the provider type
type Factory struct {
	config  *config.Config
	billing *billingapi.Client
	logger  *zap.Logger
}

// NewFactory creates a new provider factory
func NewFactory(config *config.Config, billing *billingapi.Client, logger *zap.Logger) *Factory {
	return &Factory{
		config:  config,
		billing: billing,
		logger:  logger,
	}
}

// GetTokenizer returns a card tokenizer based on the provider type
func (f *Factory) GetTokenizer(providerType provider.ProviderType) (provider.CardTokenizer, error) {
	switch providerType {
	case provider.ProviderTypeBackend:
		return f.createBackendTokenizer()
	case provider.ProviderTypeStripe:
		return f.createStripeTokenizer()
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

// GetTokenizerFromString returns a card tokenizer from a string type
func (f *Factory) GetTokenizerFromString(providerStr string) (provider.CardTokenizer, error) {
	// Default to the billing backend if not specified
	if providerStr == "" {
		providerStr = string(provider.ProviderTypeBackend)
	}
	return f.GetTokenizer(provider.ProviderType(providerStr))
}

func (f *Factory) createBackendTokenizer() (provider.CardTokenizer, error) {
	if f.billing == nil {
		return nil, fmt.Errorf("billing API client not configured")
	}
	return backendProvider.NewTokenizer(f.billing, f.logger), nil
}

func (f *Factory) createStripeTokenizer() (provider.CardTokenizer, error) {
	if f.config.Stripe.SecretKey == "" {
		return nil, fmt.Errorf("Stripe secret key not configured")
	}
	return stripeProvider.NewTokenizer(
		f.config.Stripe.SecretKey,
		f.config.Stripe.APIURL,
		&http.Client{Timeout: f.config.Billing.Timeout},
		f.logger,
	), nil
}
