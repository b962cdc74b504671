package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/provider"
	"github.com/alderburg/Teste-sub001/internal/domain/repository"
	"github.com/alderburg/Teste-sub001/internal/usecase"
)

// MockBillingRepository is a mock implementation of BillingRepository
type MockBillingRepository struct {
	mock.Mock
}

func (m *MockBillingRepository) Quote(ctx context.Context, planID string, period model.BillingPeriod) (*model.ProrationQuote, error) {
	args := m.Called(ctx, planID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProrationQuote), args.Error(1)
}

func (m *MockBillingRepository) ListPaymentMethods(ctx context.Context) ([]model.PaymentMethod, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PaymentMethod), args.Error(1)
}

func (m *MockBillingRepository) CreateSubscription(ctx context.Context, req repository.CommitRequest) (*model.Subscription, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Subscription), args.Error(1)
}

func (m *MockBillingRepository) CreateSetupIntent(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockPlanRepository is a mock implementation of PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetByID(ctx context.Context, planID string) (*model.Plan, error) {
	args := m.Called(ctx, planID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Plan), args.Error(1)
}

func (m *MockPlanRepository) List(ctx context.Context) ([]model.Plan, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Plan), args.Error(1)
}

// MockCardTokenizer is a mock implementation of CardTokenizer
type MockCardTokenizer struct {
	mock.Mock
}

func (m *MockCardTokenizer) Tokenize(ctx context.Context, req *provider.TokenizeRequest) (*provider.TokenizeResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.TokenizeResponse), args.Error(1)
}

func (m *MockCardTokenizer) GetProviderName() string {
	return "mock"
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishInvalidation(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

func (m *MockEventPublisher) PublishActivated(ctx context.Context, event usecase.SubscriptionActivated) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockFlowEventRepository is a mock implementation of FlowEventRepository
type MockFlowEventRepository struct {
	mock.Mock
}

func (m *MockFlowEventRepository) Create(ctx context.Context, event *model.FlowEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockFlowEventRepository) ListByFlow(ctx context.Context, flowID uuid.UUID) ([]*model.FlowEvent, error) {
	args := m.Called(ctx, flowID)
	return args.Get(0).([]*model.FlowEvent), args.Error(1)
}

func (m *MockFlowEventRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]*model.FlowEvent, error) {
	args := m.Called(ctx, accountID, limit)
	return args.Get(0).([]*model.FlowEvent), args.Error(1)
}

// countingObserver records the signals the orchestrator emits
type countingObserver struct {
	mu         sync.Mutex
	opened     int
	closed     int
	staleDrops int
	states     []model.SubmissionState
	commits    []string
}

func (o *countingObserver) FlowOpened() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened++
}

func (o *countingObserver) FlowClosed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed++
}

func (o *countingObserver) StateChanged(state model.SubmissionState) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *countingObserver) QuoteCompleted(string, time.Duration) {}

func (o *countingObserver) StaleQuoteDropped() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staleDrops++
}

func (o *countingObserver) CommitCompleted(capture model.CaptureKind, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.commits = append(o.commits, string(capture)+":"+outcome)
}

func (o *countingObserver) StaleDrops() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.staleDrops
}

func (o *countingObserver) Closed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

var (
	planEssencial = &model.Plan{
		ID:           "essencial",
		Name:         "Essencial",
		MonthlyPrice: decimal.RequireFromString("87.90"),
		AnnualPrice:  decimal.RequireFromString("878.90"),
	}
	planProfissional = &model.Plan{
		ID:           "profissional",
		Name:         "Profissional",
		MonthlyPrice: decimal.RequireFromString("197.90"),
		AnnualPrice:  decimal.RequireFromString("1978.90"),
	}
	planEmpresarial = &model.Plan{
		ID:           "empresarial",
		Name:         "Empresarial",
		MonthlyPrice: decimal.RequireFromString("397.90"),
		AnnualPrice:  decimal.RequireFromString("3978.90"),
	}
)

// upgradeQuote is the Essencial to Profissional change half way through a 30 day cycle
func upgradeQuote() *model.ProrationQuote {
	return &model.ProrationQuote{
		OperationType: model.OperationUpgrade,
		CurrentPlan: model.PlanSnapshot{
			ID: "essencial", Name: "Essencial",
			Value: decimal.RequireFromString("87.90"), Period: model.BillingPeriodMonthly,
		},
		NewPlan: model.PlanSnapshot{
			ID: "profissional", Name: "Profissional",
			Value: decimal.RequireFromString("197.90"), Period: model.BillingPeriodMonthly,
		},
		ExactDelta:      decimal.RequireFromString("54.90"),
		ChargeTiming:    model.ChargeImmediate,
		AvailableCredit: decimal.RequireFromString("20.00"),
		RealCardCharge:  decimal.RequireFromString("34.90"),
		DaysUsed:        15,
		DaysRemaining:   15,
		DaysTotal:       30,
	}
}

func quoteFor(plan *model.Plan) *model.ProrationQuote {
	q := upgradeQuote()
	q.NewPlan.ID = plan.ID
	q.NewPlan.Name = plan.Name
	q.NewPlan.Value = plan.MonthlyPrice
	return q
}
