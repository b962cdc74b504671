package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/repository"
)

// ProrationQuoter fetches authoritative proration quotes. It does no
// proration math; it only asserts the quote invariants.
type ProrationQuoter struct {
	billing repository.BillingRepository
	logger  *zap.Logger
}

// NewProrationQuoter creates a new proration quoter
func NewProrationQuoter(billing repository.BillingRepository, logger *zap.Logger) *ProrationQuoter {
	return &ProrationQuoter{
		billing: billing,
		logger:  logger,
	}
}

// Quote requests the price change of moving to planID on period.
// Every failure, including an inconsistent quote, is a *QuoteError.
func (q *ProrationQuoter) Quote(ctx context.Context, planID string, period model.BillingPeriod) (*model.ProrationQuote, error) {
	if planID == "" || !period.Valid() {
		return nil, domainErrors.NewQuoteError(planID, string(period),
			fmt.Errorf("invalid quote target"))
	}

	quote, err := q.billing.Quote(ctx, planID, period)
	if err != nil {
		return nil, domainErrors.NewQuoteError(planID, string(period), err)
	}

	if err := quote.Validate(); err != nil {
		q.logger.Error("Billing backend returned an inconsistent quote",
			zap.String("plan_id", planID),
			zap.String("billing_period", string(period)),
			zap.Error(err))
		return nil, domainErrors.NewQuoteError(planID, string(period), err)
	}

	if quote.NewPlan.ID != "" && quote.NewPlan.ID != planID {
		return nil, domainErrors.NewQuoteError(planID, string(period),
			fmt.Errorf("quote is for plan %s", quote.NewPlan.ID))
	}

	return quote, nil
}
