package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/alderburg/Teste-sub001/internal/adapter/billingapi"
	"github.com/alderburg/Teste-sub001/internal/domain/card"
	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	domainRepo "github.com/alderburg/Teste-sub001/internal/domain/repository"
	"github.com/alderburg/Teste-sub001/internal/middleware/auth"
	"github.com/alderburg/Teste-sub001/internal/usecase"
	apperrors "github.com/alderburg/Teste-sub001/pkg/errors"
)

type selectionRequest struct {
	PlanID        string              `json:"planId" validate:"required"`
	BillingPeriod model.BillingPeriod `json:"billingPeriod" validate:"required"`
}

type captureRequest struct {
	Strategy        model.CaptureKind `json:"strategy" validate:"required"`
	PaymentMethodID string            `json:"paymentMethodId"`
}

type hostedConfirmRequest struct {
	PaymentMethodID string `json:"paymentMethodId" validate:"required"`
}

// FlowHandler exposes plan-change flows over HTTP
type FlowHandler struct {
	registry *usecase.FlowRegistry
	plans    domainRepo.PlanRepository
	events   domainRepo.FlowEventRepository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewFlowHandler creates the handler. events may be nil when the audit
// database is disabled.
func NewFlowHandler(
	registry *usecase.FlowRegistry,
	plans domainRepo.PlanRepository,
	events domainRepo.FlowEventRepository,
	logger *zap.Logger,
) *FlowHandler {
	return &FlowHandler{
		registry: registry,
		plans:    plans,
		events:   events,
		validate: validator.New(),
		logger:   logger,
	}
}

// Register mounts the routes on an authenticated group
func (h *FlowHandler) Register(g *echo.Group) {
	g.GET("/plans", h.ListPlans)

	flows := g.Group("/flows")
	flows.POST("", h.Open)
	flows.GET("/:id", h.Get)
	flows.DELETE("/:id", h.Close)
	flows.PUT("/:id/selection", h.SelectPlan)
	flows.POST("/:id/quote/retry", h.RetryQuote)
	flows.PUT("/:id/capture", h.SelectCapture)
	flows.PUT("/:id/card", h.EditCard)
	flows.POST("/:id/hosted/prepare", h.PrepareHosted)
	flows.POST("/:id/hosted/confirm", h.ConfirmHosted)
	flows.POST("/:id/submit", h.Submit)
	flows.POST("/:id/commit/retry", h.RetryCommit)
	flows.GET("/:id/events", h.Events)
}

func (h *FlowHandler) ListPlans(c echo.Context) error {
	plans, err := h.plans.List(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"plans": plans})
}

func (h *FlowHandler) Open(c echo.Context) error {
	session, err := auth.SessionFromContext(c)
	if err != nil {
		return h.fail(c, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Authentication required", err))
	}

	var req selectionRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}

	view, err := h.registry.Open(c.Request().Context(), session, req.PlanID, req.BillingPeriod)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *FlowHandler) Get(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, flow.View())
}

func (h *FlowHandler) Close(c echo.Context) error {
	session, err := auth.SessionFromContext(c)
	if err != nil {
		return h.fail(c, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Authentication required", err))
	}
	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.fail(c, domainErrors.ErrFlowNotFound)
	}
	if err := h.registry.Close(flowID, session.AccountID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FlowHandler) SelectPlan(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req selectionRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	return h.respond(c, func() (usecase.FlowView, error) {
		return flow.SelectPlan(c.Request().Context(), req.PlanID, req.BillingPeriod)
	})
}

func (h *FlowHandler) RetryQuote(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respond(c, func() (usecase.FlowView, error) {
		return flow.RetryQuote(c.Request().Context())
	})
}

func (h *FlowHandler) SelectCapture(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req captureRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	if !req.Strategy.Valid() {
		return h.fail(c, apperrors.NewAppError(apperrors.ErrInvalidArgument, "Unknown capture strategy", nil))
	}
	return h.respond(c, func() (usecase.FlowView, error) {
		return flow.SelectCapture(req.Strategy, req.PaymentMethodID)
	})
}

func (h *FlowHandler) EditCard(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	var edit usecase.CardEdit
	if err := c.Bind(&edit); err != nil {
		return h.fail(c, apperrors.NewAppError(apperrors.ErrInvalidArgument, "Invalid request body", err))
	}
	return h.respond(c, func() (usecase.FlowView, error) {
		return flow.EditCard(edit)
	})
}

func (h *FlowHandler) PrepareHosted(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respond(c, func() (usecase.FlowView, error) {
		return flow.PrepareHosted(c.Request().Context())
	})
}

func (h *FlowHandler) ConfirmHosted(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req hostedConfirmRequest
	if err := h.bind(c, &req); err != nil {
		return h.fail(c, err)
	}
	return h.respond(c, func() (usecase.FlowView, error) {
		return flow.ConfirmHosted(req.PaymentMethodID)
	})
}

// Submit answers 200 with the flow view for every step outcome; FAILED_*
// states are reported in the view, not as HTTP errors
func (h *FlowHandler) Submit(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respond(c, func() (usecase.FlowView, error) {
		return flow.Submit(c.Request().Context())
	})
}

func (h *FlowHandler) RetryCommit(c echo.Context) error {
	flow, err := h.flow(c)
	if err != nil {
		return h.fail(c, err)
	}
	return h.respond(c, func() (usecase.FlowView, error) {
		return flow.RetryCommit(c.Request().Context())
	})
}

// Events returns the audit trail of a flow, including closed ones
func (h *FlowHandler) Events(c echo.Context) error {
	session, err := auth.SessionFromContext(c)
	if err != nil {
		return h.fail(c, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Authentication required", err))
	}
	if h.events == nil {
		return h.fail(c, apperrors.NewAppError(apperrors.ErrNotImplemented, "Flow audit trail is disabled", nil))
	}
	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return h.fail(c, domainErrors.ErrFlowNotFound)
	}

	events, err := h.events.ListByFlow(c.Request().Context(), flowID)
	if err != nil {
		return h.fail(c, err)
	}
	if len(events) == 0 || events[0].AccountID != session.AccountID {
		return h.fail(c, domainErrors.ErrFlowNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

func (h *FlowHandler) flow(c echo.Context) (*usecase.Orchestrator, error) {
	session, err := auth.SessionFromContext(c)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrUnauthenticated, "Authentication required", err)
	}
	flowID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, domainErrors.ErrFlowNotFound
	}
	return h.registry.Get(flowID, session.AccountID)
}

func (h *FlowHandler) bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Invalid request body", err)
	}
	if err := h.validate.Struct(req); err != nil {
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Missing required fields", err)
	}
	return nil
}

func (h *FlowHandler) respond(c echo.Context, action func() (usecase.FlowView, error)) error {
	view, err := action()
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *FlowHandler) fail(c echo.Context, err error) error {
	appErr := toAppError(err)
	apperrors.LogError(h.logger, err, "Flow request failed",
		zap.String("path", c.Path()),
		zap.String("flow_id", c.Param("id")))
	return apperrors.ToHTTPError(appErr)
}

// toAppError maps domain errors to transport error codes
func toAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var (
		configErr *domainErrors.IncompleteConfigurationError
		quoteErr  *domainErrors.QuoteError
		apiErr    *billingapi.APIError
	)
	switch {
	case errors.Is(err, domainErrors.ErrFlowNotFound),
		errors.Is(err, domainErrors.ErrPlanNotFound),
		errors.Is(err, domainErrors.ErrPaymentMethodNotFound):
		return apperrors.NewAppError(apperrors.ErrNotFound, capitalize(err), err)

	case errors.Is(err, domainErrors.ErrSubmissionInFlight),
		errors.Is(err, domainErrors.ErrAlreadySubscribed),
		errors.Is(err, domainErrors.ErrFlowClosed):
		return apperrors.NewAppError(apperrors.ErrConflict, capitalize(err), err)

	case errors.Is(err, domainErrors.ErrQuoteNotReady),
		errors.Is(err, domainErrors.ErrNothingToRetry),
		errors.Is(err, domainErrors.ErrHostedCaptureNotConfirmed),
		errors.Is(err, domainErrors.ErrSavedCardUnavailable),
		errors.Is(err, domainErrors.ErrCaptureMismatch),
		errors.Is(err, card.ErrFrontIncomplete),
		errors.Is(err, card.ErrCVVLocked):
		return apperrors.NewAppError(apperrors.ErrFailedPrecondition, capitalize(err), err)

	case errors.As(err, &configErr):
		return apperrors.NewAppError(apperrors.ErrInternal, domainErrors.MessageConfig, err)

	case errors.As(err, &quoteErr):
		return apperrors.NewAppError(apperrors.ErrInvalidArgument, "Invalid plan selection", err)

	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewAppError(apperrors.ErrTimeout, "Billing service timed out", err)

	case errors.As(err, &apiErr), errors.Is(err, billingapi.ErrMissingSession):
		return apperrors.NewAppError(apperrors.ErrUnavailable, "Billing service unavailable", err)
	}
	return apperrors.NewAppError(apperrors.ErrInternal, http.StatusText(http.StatusInternalServerError), err)
}

func capitalize(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	if c := msg[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + msg[1:]
	}
	return msg
}
