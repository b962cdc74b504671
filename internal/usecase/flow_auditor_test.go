package usecase_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/usecase"
)

func TestFlowAuditor(t *testing.T) {
	t.Run("writes events in order and flushes on shutdown", func(t *testing.T) {
		repo := new(MockFlowEventRepository)
		var states []string
		repo.On("Create", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				states = append(states, args.Get(1).(*model.FlowEvent).State)
			}).
			Return(nil)

		auditor := usecase.NewFlowAuditor(repo, 8, time.Second, zap.NewNop())
		flowID := uuid.New()
		for _, s := range []model.SubmissionState{model.StateQuoting, model.StateQuoteReady, model.StateSubmitting} {
			auditor.Record(model.FlowEvent{FlowID: flowID, State: string(s)})
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, auditor.Run(ctx))

		assert.Equal(t, []string{"QUOTING", "QUOTE_READY", "SUBMITTING"}, states)
	})

	t.Run("full buffer drops instead of blocking", func(t *testing.T) {
		repo := new(MockFlowEventRepository)
		repo.On("Create", mock.Anything, mock.Anything).Return(nil)
		auditor := usecase.NewFlowAuditor(repo, 1, time.Second, zap.NewNop())

		auditor.Record(model.FlowEvent{State: "QUOTING"})
		auditor.Record(model.FlowEvent{State: "QUOTE_READY"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, auditor.Run(ctx))
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("write errors do not stop the worker", func(t *testing.T) {
		var writes atomic.Int32
		repo := new(MockFlowEventRepository)
		repo.On("Create", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { writes.Add(1) }).
			Return(errors.New("db down")).Once()
		repo.On("Create", mock.Anything, mock.Anything).
			Run(func(mock.Arguments) { writes.Add(1) }).
			Return(nil).Once()
		auditor := usecase.NewFlowAuditor(repo, 4, time.Second, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = auditor.Run(ctx)
		}()

		auditor.Record(model.FlowEvent{State: "QUOTING"})
		auditor.Record(model.FlowEvent{State: "QUOTE_READY"})
		assert.Eventually(t, func() bool {
			return writes.Load() == 2
		}, time.Second, 5*time.Millisecond)

		cancel()
		<-done
	})

	t.Run("nil repository only logs", func(t *testing.T) {
		auditor := usecase.NewFlowAuditor(nil, 4, time.Second, zap.NewNop())
		auditor.Record(model.FlowEvent{State: "QUOTING"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NoError(t, auditor.Run(ctx))
	})
}
