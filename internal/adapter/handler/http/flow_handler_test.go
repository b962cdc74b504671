package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/adapter/billingapi"
	"github.com/alderburg/Teste-sub001/internal/adapter/repository"
	"github.com/alderburg/Teste-sub001/internal/domain/card"
	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	domainRepo "github.com/alderburg/Teste-sub001/internal/domain/repository"
	"github.com/alderburg/Teste-sub001/internal/middleware/auth"
	"github.com/alderburg/Teste-sub001/internal/usecase"
	apperrors "github.com/alderburg/Teste-sub001/pkg/errors"
	"github.com/alderburg/Teste-sub001/pkg/logger"
)

const (
	testSecret = "handler-secret"
	testPlans  = `
plans:
  - id: essencial
    name: Essencial
    monthly_price: "87.90"
    annual_price: "879.00"
  - id: profissional
    name: Profissional
    monthly_price: "197.90"
    annual_price: "1979.00"
`
)

// fakeBilling answers like a healthy billing backend
type fakeBilling struct {
	mu      sync.Mutex
	methods []model.PaymentMethod
	commits []domainRepo.CommitRequest
}

func (b *fakeBilling) Quote(_ context.Context, planID string, period model.BillingPeriod) (*model.ProrationQuote, error) {
	return &model.ProrationQuote{
		OperationType:   model.OperationUpgrade,
		CurrentPlan:     model.PlanSnapshot{ID: "essencial", Name: "Essencial", Value: decimal.RequireFromString("87.90"), Period: period},
		NewPlan:         model.PlanSnapshot{ID: planID, Name: "Profissional", Value: decimal.RequireFromString("197.90"), Period: period},
		ExactDelta:      decimal.RequireFromString("54.90"),
		ChargeTiming:    model.ChargeImmediate,
		AvailableCredit: decimal.RequireFromString("20.00"),
		RealCardCharge:  decimal.RequireFromString("34.90"),
		DaysUsed:        15,
		DaysRemaining:   15,
		DaysTotal:       30,
	}, nil
}

func (b *fakeBilling) ListPaymentMethods(context.Context) ([]model.PaymentMethod, error) {
	return b.methods, nil
}

func (b *fakeBilling) CreateSubscription(_ context.Context, req domainRepo.CommitRequest) (*model.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.commits = append(b.commits, req)
	return &model.Subscription{ID: "sub_1", Status: "active", PlanID: req.PlanID, BillingPeriod: req.BillingPeriod}, nil
}

func (b *fakeBilling) CreateSetupIntent(context.Context) (string, error) {
	return "", &billingapi.APIError{StatusCode: http.StatusBadGateway, Message: "setup intents disabled"}
}

type testServer struct {
	echo    *echo.Echo
	billing *fakeBilling
}

func newTestServer(t *testing.T, methods []model.PaymentMethod) *testServer {
	t.Helper()
	log := zap.NewNop()

	plans, err := repository.NewPlanCatalog(strings.NewReader(testPlans), log)
	require.NoError(t, err)

	billing := &fakeBilling{methods: methods}
	registry := usecase.NewFlowRegistry(usecase.FlowDependencies{
		Plans:    plans,
		Quoter:   usecase.NewProrationQuoter(billing, log),
		Resolver: usecase.NewPaymentMethodResolver(billing, 16, time.Minute, log),
		Billing:  billing,
		Logger:   log,
	}, usecase.FlowSettings{InputMode: card.ModeHeadless}, 16, time.Hour)
	t.Cleanup(registry.CloseAll)

	e := echo.New()
	logger.WithEchoLogger(e, log)
	api := e.Group("/api/v1", auth.JWTMiddleware(auth.JWTConfig{Secret: testSecret, Logger: log}))
	NewFlowHandler(registry, plans, nil, log).Register(api)

	return &testServer{echo: e, billing: billing}
}

func token(t *testing.T, accountID string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": accountID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, accountID, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if accountID != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token(t, accountID))
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) open(t *testing.T) usecase.FlowView {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/flows", "acct_1", `{"planId":"profissional","billingPeriod":"monthly"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeView(t, rec)
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) usecase.FlowView {
	t.Helper()
	var view usecase.FlowView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.EnvelopeBody {
	t.Helper()
	var env apperrors.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Error
}

func TestFlowHandler_SavedCardCheckout(t *testing.T) {
	s := newTestServer(t, []model.PaymentMethod{{ID: "pm_1", Brand: "visa", Last4: "4242", IsDefault: true}})

	view := s.open(t)
	assert.Equal(t, model.StateQuoteReady, view.State)
	require.NotNil(t, view.Quote)
	assert.True(t, view.Quote.RealCardCharge.Equal(decimal.RequireFromString("34.90")))
	assert.Equal(t, model.CaptureSavedCard, view.Capture)

	rec := s.do(t, http.MethodPost, "/api/v1/flows/"+view.ID.String()+"/submit", "acct_1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decodeView(t, rec)
	assert.Equal(t, model.StateSuccess, view.State)
	require.NotNil(t, view.Subscription)
	assert.Equal(t, "sub_1", view.Subscription.ID)

	require.Len(t, s.billing.commits, 1)
	assert.Equal(t, "pm_1", s.billing.commits[0].PaymentMethodID)

	rec = s.do(t, http.MethodPost, "/api/v1/flows/"+view.ID.String()+"/submit", "acct_1", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, apperrors.ErrConflict, decodeError(t, rec).Code)
}

func TestFlowHandler_NewCardValidationFailure(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.open(t)
	assert.Equal(t, model.CaptureNewCard, view.Capture)

	base := "/api/v1/flows/" + view.ID.String()
	rec := s.do(t, http.MethodPut, base+"/card", "acct_1", `{"number":"4111 1111 1111 1112","name":"Maria Silva","expiryMonth":"12","expiryYear":"30"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/submit", "acct_1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view = decodeView(t, rec)
	assert.Equal(t, model.StateFailedValidation, view.State)
	require.NotNil(t, view.Failure)
	assert.Equal(t, domainErrors.MessageValidation, view.Failure.Message)
	assert.Empty(t, s.billing.commits)
}

func TestFlowHandler_Errors(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.open(t)
	base := "/api/v1/flows/" + view.ID.String()

	tests := []struct {
		name       string
		method     string
		path       string
		accountID  string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"missing token", http.MethodGet, base, "", "", http.StatusUnauthorized, "MISSING_AUTH_HEADER"},
		{"other account", http.MethodGet, base, "acct_2", "", http.StatusNotFound, apperrors.ErrNotFound},
		{"malformed flow id", http.MethodGet, "/api/v1/flows/not-a-uuid", "acct_1", "", http.StatusNotFound, apperrors.ErrNotFound},
		{"unknown plan", http.MethodPost, "/api/v1/flows", "acct_1", `{"planId":"ouro","billingPeriod":"monthly"}`, http.StatusNotFound, apperrors.ErrNotFound},
		{"bad billing period", http.MethodPost, "/api/v1/flows", "acct_1", `{"planId":"profissional","billingPeriod":"weekly"}`, http.StatusBadRequest, apperrors.ErrInvalidArgument},
		{"missing plan id", http.MethodPut, base + "/selection", "acct_1", `{"billingPeriod":"monthly"}`, http.StatusBadRequest, apperrors.ErrInvalidArgument},
		{"unknown capture strategy", http.MethodPut, base + "/capture", "acct_1", `{"strategy":"cash"}`, http.StatusBadRequest, apperrors.ErrInvalidArgument},
		{"saved card without methods", http.MethodPut, base + "/capture", "acct_1", `{"strategy":"saved_card"}`, http.StatusPreconditionFailed, apperrors.ErrFailedPrecondition},
		{"nothing to retry", http.MethodPost, base + "/commit/retry", "acct_1", "", http.StatusPreconditionFailed, apperrors.ErrFailedPrecondition},
		{"events disabled", http.MethodGet, base + "/events", "acct_1", "", http.StatusNotImplemented, apperrors.ErrNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.accountID, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestFlowHandler_HostedSetupUnavailable(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.open(t)
	base := "/api/v1/flows/" + view.ID.String()

	rec := s.do(t, http.MethodPut, base+"/capture", "acct_1", `{"strategy":"hosted_element"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/hosted/prepare", "acct_1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.ErrUnavailable, decodeError(t, rec).Code)
}

func TestFlowHandler_Close(t *testing.T) {
	s := newTestServer(t, nil)
	view := s.open(t)
	path := "/api/v1/flows/" + view.ID.String()

	rec := s.do(t, http.MethodDelete, path, "acct_1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, path, "acct_1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlowHandler_ListPlans(t *testing.T) {
	s := newTestServer(t, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/plans", "acct_1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Plans []model.Plan `json:"plans"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Plans, 2)
}

func TestToAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"wrapped plan not found", fmt.Errorf("plan %q: %w", "x", domainErrors.ErrPlanNotFound), apperrors.ErrNotFound},
		{"in flight", domainErrors.ErrSubmissionInFlight, apperrors.ErrConflict},
		{"cvv locked", card.ErrCVVLocked, apperrors.ErrFailedPrecondition},
		{"incomplete configuration", &domainErrors.IncompleteConfigurationError{PlanID: "legado", Field: "Name"}, apperrors.ErrInternal},
		{"billing api", &billingapi.APIError{StatusCode: 503, Message: "down"}, apperrors.ErrUnavailable},
		{"deadline", fmt.Errorf("setup intent: %w", context.DeadlineExceeded), apperrors.ErrTimeout},
		{"unknown", errors.New("boom"), apperrors.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var appErr *apperrors.AppError
			require.ErrorAs(t, toAppError(tt.err), &appErr)
			assert.Equal(t, tt.wantCode, appErr.Code())
		})
	}

	var appErr *apperrors.AppError
	require.ErrorAs(t, toAppError(&domainErrors.IncompleteConfigurationError{PlanID: "legado", Field: "Name"}), &appErr)
	assert.Equal(t, domainErrors.MessageConfig, appErr.Message())
}
