package errors

import "errors"

var (
	// ErrSubmissionInFlight is returned when a commit is already running for the flow
	ErrSubmissionInFlight = errors.New("a submission is already in progress")

	// ErrQuoteNotReady indicates that no valid proration quote is active
	ErrQuoteNotReady = errors.New("no proration quote is ready for confirmation")

	// ErrSavedCardUnavailable indicates the account has no saved payment method to choose
	ErrSavedCardUnavailable = errors.New("no saved payment method is available")

	// ErrPaymentMethodNotFound indicates the chosen saved method does not belong to the account
	ErrPaymentMethodNotFound = errors.New("payment method not found")

	// ErrNothingToRetry indicates a commit retry was requested without a retained payment method
	ErrNothingToRetry = errors.New("no failed commit to retry")

	// ErrHostedCaptureNotConfirmed indicates the hosted element has not produced a payment method yet
	ErrHostedCaptureNotConfirmed = errors.New("hosted payment capture has not been confirmed")

	// ErrAlreadySubscribed indicates the flow already activated its subscription
	ErrAlreadySubscribed = errors.New("subscription already activated for this flow")

	// ErrCaptureMismatch indicates an action that does not belong to the selected capture strategy
	ErrCaptureMismatch = errors.New("action does not match the selected payment capture strategy")

	// ErrFlowClosed indicates the flow was closed and its state discarded
	ErrFlowClosed = errors.New("flow is closed")

	// ErrPlanNotFound indicates that the plan id is not in the catalog
	ErrPlanNotFound = errors.New("plan not found")

	// ErrFlowNotFound indicates that the specified flow was not found
	ErrFlowNotFound = errors.New("flow not found")
)
