package provider

import (
	"context"

	"github.com/alderburg/Teste-sub001/internal/domain/card"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

// CardTokenizer exchanges raw card data for an opaque payment method id.
// Raw card data never leaves the tokenizer call.
type CardTokenizer interface {
	// Tokenize submits the card once; implementations must not retry on their own
	Tokenize(ctx context.Context, req *TokenizeRequest) (*TokenizeResponse, error)

	// GetProviderName returns the provider name
	GetProviderName() string
}

// TokenizeRequest is the card captured in the new-card branch plus the plan it pays for
type TokenizeRequest struct {
	Card          card.Input
	PlanID        string
	BillingPeriod model.BillingPeriod
}

// TokenizeResponse carries the reference usable for the subscription commit
type TokenizeResponse struct {
	PaymentMethodID string `json:"paymentMethodId"`
	Brand           string `json:"brand,omitempty"`
	Last4           string `json:"last4,omitempty"`
}

// ProviderType represents the type of card tokenizer
type ProviderType string

const (
	// ProviderTypeBackend tokenizes through POST /billing/cards/tokenize
	ProviderTypeBackend ProviderType = "backend"
	ProviderTypeStripe  ProviderType = "stripe"
)

// Error types for provider operations
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}
