package errors

import (
	"fmt"
	"strings"
)

// Flow error types
const (
	ErrTypeValidation              = "VALIDATION"
	ErrTypeQuote                   = "QUOTE"
	ErrTypeTokenize                = "TOKENIZE"
	ErrTypeCommit                  = "COMMIT"
	ErrTypeIncompleteConfiguration = "INCOMPLETE_CONFIGURATION"
)

// User-facing messages per failure class
const (
	MessageValidation = "Check the highlighted card fields and try again."
	MessageQuote      = "We could not calculate the price change. Tente novamente."
	MessageTokenize   = "Your card was declined. Please re-enter the card details."
	MessageCommit     = "Payment method accepted, but activating the subscription failed. Retry without re-entering card data."
	MessageConfig     = "This plan is not available right now. Please contact support."
)

// ValidationKind is a single client-side card validation failure
type ValidationKind string

const (
	NumberTooShort  ValidationKind = "NUMBER_TOO_SHORT"
	NameTooShort    ValidationKind = "NAME_TOO_SHORT"
	MonthOutOfRange ValidationKind = "MONTH_OUT_OF_RANGE"
	CardExpired     ValidationKind = "CARD_EXPIRED"
	CVVTooShort     ValidationKind = "CVV_TOO_SHORT"
)

// ValidationError is raised before any network call when card input is malformed
type ValidationError struct {
	Kinds []ValidationKind
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Kinds))
	for i, k := range e.Kinds {
		parts[i] = string(k)
	}
	return "card validation failed: " + strings.Join(parts, ", ")
}

// QuoteError means the backend could not produce a usable proration quote
type QuoteError struct {
	PlanID string
	Period string
	Cause  error
}

func (e *QuoteError) Error() string {
	return fmt.Sprintf("proration quote failed for plan %s (%s): %v", e.PlanID, e.Period, e.Cause)
}

func (e *QuoteError) Unwrap() error {
	return e.Cause
}

// TokenizeError means the payment provider rejected the card
type TokenizeError struct {
	Provider string
	Cause    error
}

func (e *TokenizeError) Error() string {
	return fmt.Sprintf("card tokenization via %s failed: %v", e.Provider, e.Cause)
}

func (e *TokenizeError) Unwrap() error {
	return e.Cause
}

// CommitError means subscription activation failed after a payment method was obtained
type CommitError struct {
	PaymentMethodID string
	Cause           error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("subscription commit with payment method %s failed: %v", e.PaymentMethodID, e.Cause)
}

func (e *CommitError) Unwrap() error {
	return e.Cause
}

// IncompleteConfigurationError is a programmer error: the flow was opened for an unusable plan
type IncompleteConfigurationError struct {
	PlanID string
	Field  string
	Cause  error
}

func (e *IncompleteConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("incomplete plan configuration %q: %s - %v", e.PlanID, e.Field, e.Cause)
	}
	return fmt.Sprintf("incomplete plan configuration %q: %s", e.PlanID, e.Field)
}

func (e *IncompleteConfigurationError) Unwrap() error {
	return e.Cause
}

// NewQuoteError creates a new QuoteError
func NewQuoteError(planID, period string, cause error) *QuoteError {
	return &QuoteError{PlanID: planID, Period: period, Cause: cause}
}

// NewTokenizeError creates a new TokenizeError
func NewTokenizeError(provider string, cause error) *TokenizeError {
	return &TokenizeError{Provider: provider, Cause: cause}
}

// NewCommitError creates a new CommitError
func NewCommitError(paymentMethodID string, cause error) *CommitError {
	return &CommitError{PaymentMethodID: paymentMethodID, Cause: cause}
}
