package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/repository"
)

const defaultAuditBuffer = 256

// FlowAuditor persists flow events in order from a single worker. Record
// never blocks; events are dropped with a warning when the buffer is full.
type FlowAuditor struct {
	repo         repository.FlowEventRepository
	events       chan model.FlowEvent
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewFlowAuditor creates an auditor. A nil repo only logs the events.
func NewFlowAuditor(repo repository.FlowEventRepository, buffer int, writeTimeout time.Duration, logger *zap.Logger) *FlowAuditor {
	if buffer <= 0 {
		buffer = defaultAuditBuffer
	}
	return &FlowAuditor{
		repo:         repo,
		events:       make(chan model.FlowEvent, buffer),
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// Record queues an event for persistence
func (a *FlowAuditor) Record(event model.FlowEvent) {
	select {
	case a.events <- event:
	default:
		a.logger.Warn("Audit buffer full, dropping flow event",
			zap.String("flow_id", event.FlowID.String()),
			zap.String("state", event.State))
	}
}

// Run writes queued events until ctx is done, then flushes what is left
func (a *FlowAuditor) Run(ctx context.Context) error {
	for {
		select {
		case event := <-a.events:
			a.write(event)
		case <-ctx.Done():
			a.flush()
			return nil
		}
	}
}

func (a *FlowAuditor) flush() {
	for {
		select {
		case event := <-a.events:
			a.write(event)
		default:
			return
		}
	}
}

func (a *FlowAuditor) write(event model.FlowEvent) {
	if a.repo == nil {
		a.logger.Debug("Flow event",
			zap.String("flow_id", event.FlowID.String()),
			zap.String("state", event.State),
			zap.String("error_kind", event.ErrorKind))
		return
	}

	ctx := context.Background()
	if a.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.writeTimeout)
		defer cancel()
	}
	if err := a.repo.Create(ctx, &event); err != nil {
		a.logger.Error("Failed to persist flow event",
			zap.String("flow_id", event.FlowID.String()),
			zap.String("state", event.State),
			zap.Error(err))
	}
}
