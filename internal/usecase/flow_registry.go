package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
)

// FlowRegistry keeps the open flows. A flow expires ttl after it was last
// looked up and the least recently used flow is closed once size flows are open.
type FlowRegistry struct {
	flows    *expirable.LRU[uuid.UUID, *Orchestrator]
	deps     FlowDependencies
	settings FlowSettings
	logger   *zap.Logger
}

// NewFlowRegistry creates a registry holding up to size flows for ttl each
func NewFlowRegistry(deps FlowDependencies, settings FlowSettings, size int, ttl time.Duration) *FlowRegistry {
	deps.withDefaults()
	r := &FlowRegistry{
		deps:     deps,
		settings: settings,
		logger:   deps.Logger,
	}
	// The callback runs under the LRU lock, so an evicted flow must not call back into the registry
	r.flows = expirable.NewLRU[uuid.UUID, *Orchestrator](size, func(id uuid.UUID, o *Orchestrator) {
		if o.shutdown() {
			r.logger.Debug("Flow evicted", zap.String("flow_id", id.String()))
		}
	}, ttl)
	return r
}

// Open creates a flow for the session, loads saved payment methods and
// quotes the requested plan. A quote failure leaves the flow open with a
// requote action; an unknown or misconfigured plan closes it.
func (r *FlowRegistry) Open(ctx context.Context, session model.Session, planID string, period model.BillingPeriod) (FlowView, error) {
	o := newOrchestrator(session, r.deps, r.settings, r.remove)
	r.flows.Add(o.ID(), o)
	r.deps.Observer.FlowOpened()

	r.logger.Info("Flow opened",
		zap.String("flow_id", o.ID().String()),
		zap.String("account_id", session.AccountID),
		zap.String("plan_id", planID),
		zap.String("billing_period", string(period)))

	view, err := o.Start(ctx, planID, period)
	if err != nil {
		var configErr *domainErrors.IncompleteConfigurationError
		if !errors.As(err, &configErr) {
			o.Close()
			view = o.View()
		}
		return view, err
	}
	return view, nil
}

// Get returns the flow if it exists and belongs to the account
func (r *FlowRegistry) Get(flowID uuid.UUID, accountID string) (*Orchestrator, error) {
	o, ok := r.flows.Get(flowID)
	if !ok || o.AccountID() != accountID {
		return nil, domainErrors.ErrFlowNotFound
	}

	// Re-adding renews the ttl; a flow closed in between must not come back
	r.flows.Add(flowID, o)
	if o.isClosed() {
		r.flows.Remove(flowID)
		return nil, domainErrors.ErrFlowNotFound
	}
	return o, nil
}

// Close closes and forgets a flow of the account
func (r *FlowRegistry) Close(flowID uuid.UUID, accountID string) error {
	o, err := r.Get(flowID, accountID)
	if err != nil {
		return err
	}
	o.Close()
	return nil
}

// Len returns the number of open flows
func (r *FlowRegistry) Len() int {
	return r.flows.Len()
}

// CloseAll closes every open flow
func (r *FlowRegistry) CloseAll() {
	r.flows.Purge()
}

func (r *FlowRegistry) remove(flowID uuid.UUID) {
	r.flows.Remove(flowID)
}
