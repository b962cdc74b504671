package usecase

import (
	"context"
	"time"

	"github.com/alderburg/Teste-sub001/internal/domain/card"
	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/provider"
)

// AcquireFunc obtains the payment method id used by the commit. It runs
// without the flow lock held.
type AcquireFunc func(ctx context.Context) (paymentMethodID string, err error)

// CaptureStrategy is one way of obtaining the payment method of a commit.
// Prepare runs under the flow lock and must not touch the network.
type CaptureStrategy interface {
	Kind() model.CaptureKind
	Prepare(now time.Time, planID string, period model.BillingPeriod) (AcquireFunc, error)
}

// savedCardStrategy charges a card already stored for the account
type savedCardStrategy struct {
	method model.PaymentMethod
}

func (s savedCardStrategy) Kind() model.CaptureKind { return model.CaptureSavedCard }

func (s savedCardStrategy) Prepare(time.Time, string, model.BillingPeriod) (AcquireFunc, error) {
	id := s.method.ID
	return func(context.Context) (string, error) { return id, nil }, nil
}

// newCardStrategy validates the captured draft and tokenizes it
type newCardStrategy struct {
	draft     *card.Draft
	tokenizer provider.CardTokenizer
}

func (s newCardStrategy) Kind() model.CaptureKind { return model.CaptureNewCard }

func (s newCardStrategy) Prepare(now time.Time, planID string, period model.BillingPeriod) (AcquireFunc, error) {
	input := s.draft.Input()
	if err := card.Validate(input, now).Err(); err != nil {
		return nil, err
	}

	tokenizer := s.tokenizer
	return func(ctx context.Context) (string, error) {
		resp, err := tokenizer.Tokenize(ctx, &provider.TokenizeRequest{
			Card:          input,
			PlanID:        planID,
			BillingPeriod: period,
		})
		if err != nil {
			return "", domainErrors.NewTokenizeError(tokenizer.GetProviderName(), err)
		}
		return resp.PaymentMethodID, nil
	}, nil
}

// hostedElementStrategy uses the payment method confirmed by the hosted
// widget against the setup intent client secret
type hostedElementStrategy struct {
	clientSecret    string
	paymentMethodID string
}

func (s hostedElementStrategy) Kind() model.CaptureKind { return model.CaptureHostedElement }

func (s hostedElementStrategy) Prepare(time.Time, string, model.BillingPeriod) (AcquireFunc, error) {
	if s.clientSecret == "" || s.paymentMethodID == "" {
		return nil, domainErrors.ErrHostedCaptureNotConfirmed
	}
	id := s.paymentMethodID
	return func(context.Context) (string, error) { return id, nil }, nil
}
