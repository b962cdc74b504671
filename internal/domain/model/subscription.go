package model

import (
	"encoding/json"
	"time"
)

// Subscription is the backend's answer to a successful commit
type Subscription struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	PlanID           string          `json:"planId"`
	BillingPeriod    BillingPeriod   `json:"billingPeriod"`
	CurrentPeriodEnd *time.Time      `json:"currentPeriodEnd,omitempty"`
	Raw              json.RawMessage `json:"-"`
}

// SubmissionState is the lifecycle of one plan-change flow
type SubmissionState string

const (
	StateIdle             SubmissionState = "IDLE"
	StateQuoting          SubmissionState = "QUOTING"
	StateQuoteReady       SubmissionState = "QUOTE_READY"
	StateSubmitting       SubmissionState = "SUBMITTING"
	StateSuccess          SubmissionState = "SUCCESS"
	StateFailedValidation SubmissionState = "FAILED_VALIDATION"
	StateFailedTokenize   SubmissionState = "FAILED_TOKENIZE"
	StateFailedCommit     SubmissionState = "FAILED_COMMIT"
)

// Failed reports whether the state is one of the terminal FAILED_* states
func (s SubmissionState) Failed() bool {
	switch s {
	case StateFailedValidation, StateFailedTokenize, StateFailedCommit:
		return true
	}
	return false
}

// RetryAction names what the user must do to recover from a failure
type RetryAction string

const (
	RetryNone       RetryAction = ""
	RetryFixInput   RetryAction = "fix_input"
	RetryRequote    RetryAction = "requote"
	RetryRetokenize RetryAction = "retokenize"
	RetryRecommit   RetryAction = "recommit"
	// RetryResubmit means the retained payment method was used up and a fresh submit is needed
	RetryResubmit RetryAction = "resubmit"
)
