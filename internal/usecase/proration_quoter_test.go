package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/usecase"
)

func TestProrationQuoter_Quote(t *testing.T) {
	ctx := context.Background()

	t.Run("valid quote is returned untouched", func(t *testing.T) {
		billing := new(MockBillingRepository)
		billing.On("Quote", mock.Anything, "profissional", monthly).Return(upgradeQuote(), nil)
		quoter := usecase.NewProrationQuoter(billing, zap.NewNop())

		quote, err := quoter.Quote(ctx, "profissional", monthly)
		require.NoError(t, err)
		assert.True(t, quote.RealCardCharge.Equal(decimal.RequireFromString("34.90")))
		assert.True(t, quote.ChargesNow())
	})

	t.Run("credit covering the delta charges nothing now", func(t *testing.T) {
		q := upgradeQuote()
		q.AvailableCredit = decimal.RequireFromString("80.00")
		q.RealCardCharge = decimal.Zero
		billing := new(MockBillingRepository)
		billing.On("Quote", mock.Anything, "profissional", monthly).Return(q, nil)
		quoter := usecase.NewProrationQuoter(billing, zap.NewNop())

		quote, err := quoter.Quote(ctx, "profissional", monthly)
		require.NoError(t, err)
		assert.False(t, quote.ChargesNow())
	})

	broken := map[string]func(q *model.ProrationQuote){
		"charge mismatch": func(q *model.ProrationQuote) {
			q.RealCardCharge = decimal.RequireFromString("54.90")
		},
		"immediate downgrade": func(q *model.ProrationQuote) {
			q.OperationType = model.OperationDowngrade
		},
		"day counts do not add up": func(q *model.ProrationQuote) {
			q.DaysUsed = 10
		},
		"zero day cycle": func(q *model.ProrationQuote) {
			q.DaysUsed, q.DaysRemaining, q.DaysTotal = 0, 0, 0
		},
		"negative credit": func(q *model.ProrationQuote) {
			q.AvailableCredit = decimal.RequireFromString("-1")
		},
		"quote for another plan": func(q *model.ProrationQuote) {
			q.NewPlan.ID = "empresarial"
		},
	}
	for name, mutate := range broken {
		t.Run(name, func(t *testing.T) {
			q := upgradeQuote()
			mutate(q)
			billing := new(MockBillingRepository)
			billing.On("Quote", mock.Anything, "profissional", monthly).Return(q, nil)
			quoter := usecase.NewProrationQuoter(billing, zap.NewNop())

			quote, err := quoter.Quote(ctx, "profissional", monthly)
			assert.Nil(t, quote)
			var quoteErr *domainErrors.QuoteError
			require.ErrorAs(t, err, &quoteErr)
			assert.Equal(t, "profissional", quoteErr.PlanID)
		})
	}

	t.Run("backend failure is a quote error", func(t *testing.T) {
		cause := errors.New("connection refused")
		billing := new(MockBillingRepository)
		billing.On("Quote", mock.Anything, "profissional", monthly).Return(nil, cause)
		quoter := usecase.NewProrationQuoter(billing, zap.NewNop())

		_, err := quoter.Quote(ctx, "profissional", monthly)
		var quoteErr *domainErrors.QuoteError
		require.ErrorAs(t, err, &quoteErr)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("invalid target never reaches the backend", func(t *testing.T) {
		billing := new(MockBillingRepository)
		quoter := usecase.NewProrationQuoter(billing, zap.NewNop())

		_, err := quoter.Quote(ctx, "", monthly)
		assert.Error(t, err)
		_, err = quoter.Quote(ctx, "profissional", model.BillingPeriod("weekly"))
		assert.Error(t, err)
		billing.AssertNotCalled(t, "Quote", mock.Anything, mock.Anything, mock.Anything)
	})
}
