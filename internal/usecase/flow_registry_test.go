package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/usecase"
)

func TestFlowRegistry(t *testing.T) {
	t.Run("flows are scoped to their account", func(t *testing.T) {
		f := newFlowFixture(0)
		flow := f.open(t, savedMethods)

		_, err := f.registry.Get(flow.ID(), "acct_other")
		assert.ErrorIs(t, err, domainErrors.ErrFlowNotFound)
		assert.ErrorIs(t, f.registry.Close(flow.ID(), "acct_other"), domainErrors.ErrFlowNotFound)

		_, err = f.registry.Get(uuid.New(), testSession.AccountID)
		assert.ErrorIs(t, err, domainErrors.ErrFlowNotFound)
	})

	t.Run("close forgets the flow and discards its state", func(t *testing.T) {
		f := newFlowFixture(0)
		flow := f.open(t, []model.PaymentMethod{})
		fillCard(t, flow)

		require.NoError(t, f.registry.Close(flow.ID(), testSession.AccountID))

		view := flow.View()
		assert.True(t, view.Closed)
		assert.Nil(t, view.Quote)
		assert.Nil(t, view.Card)
		assert.Equal(t, model.StateIdle, view.State)
		assert.Equal(t, 0, f.registry.Len())
		assert.Equal(t, 1, f.observer.Closed())

		_, err := flow.Submit(context.Background())
		assert.ErrorIs(t, err, domainErrors.ErrFlowClosed)
	})

	t.Run("least recently used flow is closed at capacity", func(t *testing.T) {
		billing := new(MockBillingRepository)
		plans := new(MockPlanRepository)
		plans.On("GetByID", mock.Anything, "profissional").Return(planProfissional, nil)
		billing.On("ListPaymentMethods", mock.Anything).Return(savedMethods, nil)
		billing.On("Quote", mock.Anything, "profissional", monthly).Return(upgradeQuote(), nil)

		logger := zap.NewNop()
		registry := usecase.NewFlowRegistry(usecase.FlowDependencies{
			Plans:    plans,
			Quoter:   usecase.NewProrationQuoter(billing, logger),
			Resolver: usecase.NewPaymentMethodResolver(billing, 8, time.Minute, logger),
			Billing:  billing,
			Logger:   logger,
		}, usecase.FlowSettings{}, 1, time.Hour)

		first, err := registry.Open(context.Background(), testSession, "profissional", monthly)
		require.NoError(t, err)
		oldest, err := registry.Get(first.ID, testSession.AccountID)
		require.NoError(t, err)

		_, err = registry.Open(context.Background(), testSession, "profissional", monthly)
		require.NoError(t, err)

		assert.Equal(t, 1, registry.Len())
		assert.True(t, oldest.View().Closed)
	})

	t.Run("lookups keep a flow alive past its ttl", func(t *testing.T) {
		billing := new(MockBillingRepository)
		plans := new(MockPlanRepository)
		plans.On("GetByID", mock.Anything, "profissional").Return(planProfissional, nil)
		billing.On("ListPaymentMethods", mock.Anything).Return(savedMethods, nil)
		billing.On("Quote", mock.Anything, "profissional", monthly).Return(upgradeQuote(), nil)

		logger := zap.NewNop()
		ttl := 200 * time.Millisecond
		registry := usecase.NewFlowRegistry(usecase.FlowDependencies{
			Plans:    plans,
			Quoter:   usecase.NewProrationQuoter(billing, logger),
			Resolver: usecase.NewPaymentMethodResolver(billing, 8, time.Minute, logger),
			Billing:  billing,
			Logger:   logger,
		}, usecase.FlowSettings{}, 4, ttl)
		t.Cleanup(registry.CloseAll)

		view, err := registry.Open(context.Background(), testSession, "profissional", monthly)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			time.Sleep(ttl / 2)
			_, err := registry.Get(view.ID, testSession.AccountID)
			require.NoError(t, err, "lookup %d", i)
		}

		assert.Eventually(t, func() bool {
			return registry.Len() == 0
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("close all shuts every flow", func(t *testing.T) {
		f := newFlowFixture(0)
		flow := f.open(t, savedMethods)

		f.registry.CloseAll()
		assert.True(t, flow.View().Closed)
		assert.Equal(t, 0, f.registry.Len())
	})
}
