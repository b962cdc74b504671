package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alderburg/Teste-sub001/internal/domain/card"
	domainErrors "github.com/alderburg/Teste-sub001/internal/domain/errors"
	"github.com/alderburg/Teste-sub001/internal/domain/model"
	"github.com/alderburg/Teste-sub001/internal/domain/provider"
	"github.com/alderburg/Teste-sub001/internal/domain/repository"
)

// FlowDependencies are the collaborators shared by every flow
type FlowDependencies struct {
	Plans     repository.PlanRepository
	Quoter    *ProrationQuoter
	Resolver  *PaymentMethodResolver
	Billing   repository.BillingRepository
	Tokenizer provider.CardTokenizer
	Publisher EventPublisher
	Auditor   AuditRecorder
	Observer  FlowObserver
	Logger    *zap.Logger
	// Now is the clock used for card expiry checks
	Now func() time.Time
}

func (d *FlowDependencies) withDefaults() {
	if d.Publisher == nil {
		d.Publisher = nopPublisher{}
	}
	if d.Auditor == nil {
		d.Auditor = nopAuditor{}
	}
	if d.Observer == nil {
		d.Observer = nopObserver{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
}

// FlowSettings tune a flow's behavior
type FlowSettings struct {
	AutoCloseDelay time.Duration
	InputMode      card.InputMode
}

// FlowFailure explains a failed step and what the user can do about it
type FlowFailure struct {
	Kind             string                        `json:"kind"`
	Message          string                        `json:"message"`
	RetryAction      model.RetryAction             `json:"retryAction"`
	ValidationErrors []domainErrors.ValidationKind `json:"validationErrors,omitempty"`
}

// FlowView is the render-safe snapshot of a flow
type FlowView struct {
	ID                 uuid.UUID             `json:"id"`
	State              model.SubmissionState `json:"state"`
	Plan               model.Plan            `json:"plan"`
	BillingPeriod      model.BillingPeriod   `json:"billingPeriod"`
	Quote              *model.ProrationQuote `json:"quote,omitempty"`
	PaymentMethods     PaymentMethodOptions  `json:"paymentMethods"`
	Capture            model.CaptureKind     `json:"capture"`
	SelectedMethodID   string                `json:"selectedMethodId,omitempty"`
	Card               *card.View            `json:"card,omitempty"`
	HostedClientSecret string                `json:"hostedClientSecret,omitempty"`
	Failure            *FlowFailure          `json:"failure,omitempty"`
	CanRetryCommit     bool                  `json:"canRetryCommit"`
	Submitting         bool                  `json:"submitting"`
	Subscription       *model.Subscription   `json:"subscription,omitempty"`
	Closed             bool                  `json:"closed"`
}

// CardEdit carries the draft fields changed by one request. Nil fields are untouched.
type CardEdit struct {
	Number      *string `json:"number,omitempty"`
	HolderName  *string `json:"name,omitempty"`
	ExpiryMonth *string `json:"expiryMonth,omitempty"`
	ExpiryYear  *string `json:"expiryYear,omitempty"`
	// ExpiryKeys feeds keystrokes to the month then year fields
	ExpiryKeys *string `json:"expiryKeys,omitempty"`
	Flip       bool    `json:"flip,omitempty"`
	CVV        *string `json:"cvv,omitempty"`
}

var planValidator = validator.New()

// Orchestrator drives one plan-change flow. It exclusively owns the
// submission state and the active quote. The mutex is never held across a
// network call; responses are matched against quoteToken and generation
// when they come back.
type Orchestrator struct {
	mu sync.Mutex

	id       uuid.UUID
	session  model.Session
	deps     FlowDependencies
	settings FlowSettings
	onClose  func(uuid.UUID)

	state      model.SubmissionState
	plan       model.Plan
	period     model.BillingPeriod
	quote      *model.ProrationQuote
	quoteToken uint64
	generation uint64
	inFlight   bool

	options          PaymentMethodOptions
	capture          model.CaptureKind
	selectedMethodID string
	draft            *card.Draft
	hostedSecret     string
	hostedMethodID   string

	retainedMethodID string
	commitRetried    bool
	failure          *FlowFailure
	subscription     *model.Subscription

	closed     bool
	closeTimer *time.Timer
}

func newOrchestrator(session model.Session, deps FlowDependencies, settings FlowSettings, onClose func(uuid.UUID)) *Orchestrator {
	deps.withDefaults()
	return &Orchestrator{
		id:       uuid.New(),
		session:  session,
		deps:     deps,
		settings: settings,
		onClose:  onClose,
		state:    model.StateIdle,
		capture:  model.CaptureNewCard,
		draft:    card.NewDraft(settings.InputMode),
	}
}

// ID returns the flow id
func (o *Orchestrator) ID() uuid.UUID {
	return o.id
}

// AccountID returns the account that opened the flow
func (o *Orchestrator) AccountID() string {
	return o.session.AccountID
}

// Start loads the saved payment methods and issues the first quote
func (o *Orchestrator) Start(ctx context.Context, planID string, period model.BillingPeriod) (FlowView, error) {
	var g errgroup.Group
	g.Go(func() error {
		o.loadMethods(ctx)
		return nil
	})
	g.Go(func() error {
		_, err := o.SelectPlan(ctx, planID, period)
		return err
	})
	err := g.Wait()
	return o.View(), err
}

func (o *Orchestrator) loadMethods(ctx context.Context) {
	methods, err := o.deps.Resolver.ListMethods(ctx, o.session.AccountID)
	if err != nil {
		// Without the list we cannot offer a saved card, so new card is forced
		o.deps.Logger.Warn("Saved payment methods unavailable, forcing new card",
			zap.String("flow_id", o.id.String()),
			zap.Error(err))
		methods = nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.applyMethodsLocked(methods)
}

func (o *Orchestrator) applyMethodsLocked(methods []model.PaymentMethod) {
	o.options = Options(methods)
	o.capture = o.options.DefaultChoice
	o.selectedMethodID = ""
	if o.options.Default != nil {
		o.selectedMethodID = o.options.Default.ID
	}
}

// SelectPlan changes the target plan or period and re-quotes. The previous
// quote and submission state are discarded.
func (o *Orchestrator) SelectPlan(ctx context.Context, planID string, period model.BillingPeriod) (FlowView, error) {
	plan, err := o.resolvePlan(ctx, planID, period)
	if err != nil {
		var configErr *domainErrors.IncompleteConfigurationError
		if errors.As(err, &configErr) {
			o.failConfiguration(configErr)
		}
		return o.View(), err
	}
	if !period.Valid() {
		return o.View(), domainErrors.NewQuoteError(planID, string(period), errors.New("invalid billing period"))
	}

	o.mu.Lock()
	if err := o.checkMutableLocked(); err != nil {
		o.mu.Unlock()
		return o.View(), err
	}
	o.plan = *plan
	o.period = period
	o.retainedMethodID = ""
	o.commitRetried = false
	o.mu.Unlock()

	return o.requote(ctx)
}

// RetryQuote re-issues the quote for the current selection
func (o *Orchestrator) RetryQuote(ctx context.Context) (FlowView, error) {
	o.mu.Lock()
	if err := o.checkMutableLocked(); err != nil {
		o.mu.Unlock()
		return o.View(), err
	}
	o.mu.Unlock()
	return o.requote(ctx)
}

// resolvePlan loads the plan and checks it is complete enough to quote. A
// missing price for the requested period counts as incomplete.
func (o *Orchestrator) resolvePlan(ctx context.Context, planID string, period model.BillingPeriod) (*model.Plan, error) {
	if strings.TrimSpace(planID) == "" {
		return nil, &domainErrors.IncompleteConfigurationError{Field: "ID"}
	}
	plan, err := o.deps.Plans.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if err := planValidator.Struct(plan); err != nil {
		field := "plan"
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			field = fieldErrs[0].Field()
		}
		return nil, &domainErrors.IncompleteConfigurationError{PlanID: planID, Field: field, Cause: err}
	}
	if period.Valid() && !plan.PriceFor(period).IsPositive() {
		field := "MonthlyPrice"
		if period == model.BillingPeriodAnnual {
			field = "AnnualPrice"
		}
		return nil, &domainErrors.IncompleteConfigurationError{PlanID: planID, Field: field}
	}
	return plan, nil
}

// failConfiguration surfaces the generic configuration error and closes the flow
func (o *Orchestrator) failConfiguration(err *domainErrors.IncompleteConfigurationError) {
	o.deps.Logger.Error("Flow opened with an incomplete plan configuration",
		zap.String("flow_id", o.id.String()),
		zap.String("plan_id", err.PlanID),
		zap.String("field", err.Field))

	o.mu.Lock()
	o.failure = &FlowFailure{
		Kind:    domainErrors.ErrTypeIncompleteConfiguration,
		Message: domainErrors.MessageConfig,
	}
	o.recordLocked(domainErrors.ErrTypeIncompleteConfiguration, err.Error())
	o.mu.Unlock()

	o.Close()
}

func (o *Orchestrator) requote(ctx context.Context) (FlowView, error) {
	o.mu.Lock()
	o.quoteToken++
	token := o.quoteToken
	gen := o.generation
	planID, period := o.plan.ID, o.period
	o.quote = nil
	o.failure = nil
	o.setStateLocked(model.StateQuoting, "", "")
	o.mu.Unlock()

	start := time.Now()
	quote, err := o.deps.Quoter.Quote(ctx, planID, period)
	elapsed := time.Since(start)

	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation || token != o.quoteToken {
		o.deps.Observer.StaleQuoteDropped()
		o.deps.Logger.Debug("Dropped superseded proration quote",
			zap.String("flow_id", o.id.String()),
			zap.String("plan_id", planID),
			zap.Uint64("token", token),
			zap.Uint64("latest_token", o.quoteToken))
		return o.viewLocked(), nil
	}

	if err != nil {
		o.deps.Observer.QuoteCompleted("error", elapsed)
		o.deps.Logger.Warn("Proration quote failed",
			zap.String("flow_id", o.id.String()),
			zap.String("plan_id", planID),
			zap.Error(err))
		o.failure = &FlowFailure{
			Kind:        domainErrors.ErrTypeQuote,
			Message:     domainErrors.MessageQuote,
			RetryAction: model.RetryRequote,
		}
		o.setStateLocked(model.StateIdle, domainErrors.ErrTypeQuote, err.Error())
		return o.viewLocked(), nil
	}

	o.deps.Observer.QuoteCompleted("ok", elapsed)
	o.quote = quote
	o.setStateLocked(model.StateQuoteReady, "", "")
	return o.viewLocked(), nil
}

// SelectCapture chooses how the payment method is obtained. For saved
// cards an empty methodID picks the default method.
func (o *Orchestrator) SelectCapture(kind model.CaptureKind, methodID string) (FlowView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkMutableLocked(); err != nil {
		return o.viewLocked(), err
	}

	switch kind {
	case model.CaptureSavedCard:
		if !o.options.SavedAvailable {
			return o.viewLocked(), domainErrors.ErrSavedCardUnavailable
		}
		if methodID == "" {
			methodID = o.options.Default.ID
		}
		if _, ok := o.findMethodLocked(methodID); !ok {
			return o.viewLocked(), domainErrors.ErrPaymentMethodNotFound
		}
		o.selectedMethodID = methodID
	case model.CaptureNewCard, model.CaptureHostedElement:
	default:
		return o.viewLocked(), domainErrors.ErrCaptureMismatch
	}

	if o.capture != kind {
		o.forgetRetainedLocked("")
		o.commitRetried = false
		o.clearInputFailureLocked()
	}
	if kind == model.CaptureSavedCard {
		o.forgetRetainedLocked(methodID)
	}
	o.capture = kind
	return o.viewLocked(), nil
}

// EditCard applies draft edits of the new-card branch
func (o *Orchestrator) EditCard(edit CardEdit) (FlowView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkMutableLocked(); err != nil {
		return o.viewLocked(), err
	}
	if o.capture != model.CaptureNewCard {
		return o.viewLocked(), domainErrors.ErrCaptureMismatch
	}

	if edit.Number != nil {
		o.draft.SetNumber(*edit.Number)
	}
	if edit.HolderName != nil {
		o.draft.SetHolderName(*edit.HolderName)
	}
	if edit.ExpiryMonth != nil {
		o.draft.SetMonth(*edit.ExpiryMonth)
	}
	if edit.ExpiryKeys != nil {
		o.draft.TypeExpiry(*edit.ExpiryKeys)
	}
	if edit.ExpiryYear != nil {
		o.draft.SetYear(*edit.ExpiryYear)
	}
	if edit.Flip {
		if err := o.draft.Flip(); err != nil {
			return o.viewLocked(), err
		}
	}
	if edit.CVV != nil {
		if err := o.draft.SetCVV(*edit.CVV); err != nil {
			return o.viewLocked(), err
		}
	}

	// The retained token belongs to the card as it was when the commit failed
	if edit.Number != nil || edit.HolderName != nil || edit.ExpiryMonth != nil ||
		edit.ExpiryKeys != nil || edit.ExpiryYear != nil || edit.CVV != nil {
		o.forgetRetainedLocked("")
	}
	o.clearInputFailureLocked()
	return o.viewLocked(), nil
}

// PrepareHosted requests a setup intent for the hosted capture element
func (o *Orchestrator) PrepareHosted(ctx context.Context) (FlowView, error) {
	o.mu.Lock()
	if err := o.checkMutableLocked(); err != nil {
		o.mu.Unlock()
		return o.View(), err
	}
	gen := o.generation
	o.mu.Unlock()

	secret, err := o.deps.Billing.CreateSetupIntent(ctx)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		return o.viewLocked(), domainErrors.ErrFlowClosed
	}
	if err != nil {
		o.deps.Logger.Warn("Setup intent failed",
			zap.String("flow_id", o.id.String()),
			zap.Error(err))
		return o.viewLocked(), err
	}

	o.forgetRetainedLocked("")
	o.capture = model.CaptureHostedElement
	o.hostedSecret = secret
	o.hostedMethodID = ""
	return o.viewLocked(), nil
}

// ConfirmHosted stores the payment method id produced by the hosted element
func (o *Orchestrator) ConfirmHosted(paymentMethodID string) (FlowView, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkMutableLocked(); err != nil {
		return o.viewLocked(), err
	}
	if o.capture != model.CaptureHostedElement || o.hostedSecret == "" || paymentMethodID == "" {
		return o.viewLocked(), domainErrors.ErrHostedCaptureNotConfirmed
	}
	o.forgetRetainedLocked(paymentMethodID)
	o.hostedMethodID = paymentMethodID
	o.clearInputFailureLocked()
	return o.viewLocked(), nil
}

// Submit runs the capture-then-commit saga. Precondition failures are
// returned as errors; step failures become FAILED_* states on the view.
// A submit while another one is running is a no-op returning ErrSubmissionInFlight.
func (o *Orchestrator) Submit(ctx context.Context) (FlowView, error) {
	o.mu.Lock()
	if err := o.checkSubmittableLocked(); err != nil {
		o.mu.Unlock()
		return o.View(), err
	}

	// A failed commit keeps its payment method; submitting again only recommits
	if o.state == model.StateFailedCommit && o.retainedMethodID != "" {
		o.mu.Unlock()
		return o.RetryCommit(ctx)
	}

	strategy, err := o.strategyLocked()
	if err != nil {
		o.mu.Unlock()
		return o.View(), err
	}

	acquire, err := strategy.Prepare(o.deps.Now(), o.plan.ID, o.period)
	if err != nil {
		defer o.mu.Unlock()
		var validationErr *domainErrors.ValidationError
		if errors.As(err, &validationErr) {
			o.failure = &FlowFailure{
				Kind:             domainErrors.ErrTypeValidation,
				Message:          domainErrors.MessageValidation,
				RetryAction:      model.RetryFixInput,
				ValidationErrors: validationErr.Kinds,
			}
			o.setStateLocked(model.StateFailedValidation, domainErrors.ErrTypeValidation, err.Error())
			return o.viewLocked(), nil
		}
		return o.viewLocked(), err
	}

	o.inFlight = true
	o.failure = nil
	gen := o.generation
	o.setStateLocked(model.StateSubmitting, "", "")
	o.mu.Unlock()

	paymentMethodID, err := acquire(ctx)

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		return o.View(), domainErrors.ErrFlowClosed
	}
	if err != nil {
		defer o.mu.Unlock()
		o.inFlight = false
		// The card is not resubmitted automatically; the user re-enters it
		o.draft.Reset()
		o.failure = &FlowFailure{
			Kind:        domainErrors.ErrTypeTokenize,
			Message:     domainErrors.MessageTokenize,
			RetryAction: model.RetryRetokenize,
		}
		o.deps.Observer.CommitCompleted(strategy.Kind(), "tokenize_failed")
		o.deps.Logger.Warn("Card tokenization failed",
			zap.String("flow_id", o.id.String()),
			zap.Error(err))
		o.setStateLocked(model.StateFailedTokenize, domainErrors.ErrTypeTokenize, err.Error())
		return o.viewLocked(), nil
	}
	o.commitRetried = false
	o.mu.Unlock()

	return o.commit(ctx, gen, paymentMethodID)
}

// RetryCommit recommits with the payment method retained by the last
// failed commit. It never tokenizes again and is allowed once.
func (o *Orchestrator) RetryCommit(ctx context.Context) (FlowView, error) {
	o.mu.Lock()
	if err := o.checkMutableLocked(); err != nil {
		o.mu.Unlock()
		return o.View(), err
	}
	if o.state != model.StateFailedCommit || o.retainedMethodID == "" || o.commitRetried {
		o.mu.Unlock()
		return o.View(), domainErrors.ErrNothingToRetry
	}

	o.inFlight = true
	o.commitRetried = true
	o.failure = nil
	gen := o.generation
	paymentMethodID := o.retainedMethodID
	o.setStateLocked(model.StateSubmitting, "", "")
	o.mu.Unlock()

	return o.commit(ctx, gen, paymentMethodID)
}

func (o *Orchestrator) commit(ctx context.Context, gen uint64, paymentMethodID string) (FlowView, error) {
	o.mu.Lock()
	req := repository.CommitRequest{
		PlanID:          o.plan.ID,
		BillingPeriod:   o.period,
		PaymentMethodID: paymentMethodID,
		IdempotencyKey:  uuid.NewString(),
	}
	capture := o.capture
	o.mu.Unlock()

	sub, err := o.deps.Billing.CreateSubscription(ctx, req)

	o.mu.Lock()
	if gen != o.generation {
		o.mu.Unlock()
		if err == nil {
			// The subscription exists even though nobody will see this flow again
			o.deps.Logger.Warn("Subscription committed after flow was closed",
				zap.String("flow_id", o.id.String()),
				zap.String("subscription_id", sub.ID))
			o.invalidate(ctx, o.id.String())
		}
		return o.View(), domainErrors.ErrFlowClosed
	}
	o.inFlight = false

	if err != nil {
		defer o.mu.Unlock()
		commitErr := domainErrors.NewCommitError(paymentMethodID, err)
		o.failure = &FlowFailure{
			Kind:        domainErrors.ErrTypeCommit,
			Message:     domainErrors.MessageCommit,
			RetryAction: model.RetryRecommit,
		}
		o.retainedMethodID = paymentMethodID
		if o.commitRetried {
			o.retainedMethodID = ""
			o.failure.RetryAction = model.RetryResubmit
		}
		o.deps.Observer.CommitCompleted(capture, "commit_failed")
		o.deps.Logger.Warn("Subscription commit failed",
			zap.String("flow_id", o.id.String()),
			zap.String("plan_id", req.PlanID),
			zap.Bool("retry", o.commitRetried),
			zap.Error(commitErr))
		o.setStateLocked(model.StateFailedCommit, domainErrors.ErrTypeCommit, commitErr.Error())
		return o.viewLocked(), nil
	}

	o.subscription = sub
	o.retainedMethodID = ""
	o.draft.Reset()
	o.deps.Observer.CommitCompleted(capture, "success")
	o.setStateLocked(model.StateSuccess, "", "")
	o.scheduleCloseLocked()

	event := SubscriptionActivated{
		FlowID:         o.id.String(),
		AccountID:      o.session.AccountID,
		SubscriptionID: sub.ID,
		PlanID:         o.plan.ID,
		BillingPeriod:  o.period,
		ActivatedAt:    o.deps.Now(),
	}
	if o.quote != nil && o.quote.ChargesNow() {
		event.ChargedNow = o.quote.RealCardCharge
	}
	view := o.viewLocked()
	o.mu.Unlock()

	o.afterSuccess(ctx, event)
	return view, nil
}

// afterSuccess invalidates cached billing data and emits the notification
func (o *Orchestrator) afterSuccess(ctx context.Context, event SubscriptionActivated) {
	// The request context may end with the response; publishing must not
	ctx = context.WithoutCancel(ctx)
	o.invalidate(ctx, event.FlowID)
	if err := o.deps.Publisher.PublishActivated(ctx, event); err != nil {
		o.deps.Logger.Warn("Failed to publish subscription notification",
			zap.String("flow_id", event.FlowID),
			zap.Error(err))
	}

	o.deps.Logger.Info("Subscription activated",
		zap.String("flow_id", event.FlowID),
		zap.String("account_id", event.AccountID),
		zap.String("subscription_id", event.SubscriptionID),
		zap.String("plan_id", event.PlanID))
}

// invalidate drops the cached payment methods of the account locally and on other instances
func (o *Orchestrator) invalidate(ctx context.Context, flowID string) {
	o.deps.Resolver.Invalidate(o.session.AccountID)
	if err := o.deps.Publisher.PublishInvalidation(context.WithoutCancel(ctx), o.session.AccountID); err != nil {
		o.deps.Logger.Warn("Failed to publish cache invalidation",
			zap.String("flow_id", flowID),
			zap.Error(err))
	}
}

func (o *Orchestrator) scheduleCloseLocked() {
	if o.settings.AutoCloseDelay <= 0 {
		return
	}
	if o.closeTimer != nil {
		o.closeTimer.Stop()
	}
	o.closeTimer = time.AfterFunc(o.settings.AutoCloseDelay, o.Close)
}

// Close discards the draft, the submission state and the active quote.
// Responses to requests issued before Close are ignored.
func (o *Orchestrator) Close() {
	if o.shutdown() && o.onClose != nil {
		o.onClose(o.id)
	}
}

// shutdown closes the flow without notifying the owner. It reports
// whether this call performed the close.
func (o *Orchestrator) shutdown() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	o.closed = true
	o.generation++
	if o.closeTimer != nil {
		o.closeTimer.Stop()
		o.closeTimer = nil
	}

	o.draft.Reset()
	o.quote = nil
	o.inFlight = false
	o.retainedMethodID = ""
	o.hostedSecret = ""
	o.hostedMethodID = ""
	o.state = model.StateIdle
	o.recordLocked("", "closed")
	o.deps.Observer.FlowClosed()
	return true
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// View returns the current snapshot
func (o *Orchestrator) View() FlowView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

func (o *Orchestrator) viewLocked() FlowView {
	view := FlowView{
		ID:               o.id,
		State:            o.state,
		Plan:             o.plan,
		BillingPeriod:    o.period,
		PaymentMethods:   o.options,
		Capture:          o.capture,
		SelectedMethodID: o.selectedMethodID,
		CanRetryCommit:   o.state == model.StateFailedCommit && o.retainedMethodID != "" && !o.commitRetried,
		Submitting:       o.inFlight,
		Subscription:     o.subscription,
		Closed:           o.closed,
	}
	if o.quote != nil {
		q := *o.quote
		view.Quote = &q
	}
	if o.failure != nil {
		f := *o.failure
		view.Failure = &f
	}
	if o.capture == model.CaptureNewCard && !o.closed {
		cv := o.draft.View(o.deps.Now())
		view.Card = &cv
	}
	if o.capture == model.CaptureHostedElement {
		view.HostedClientSecret = o.hostedSecret
	}
	return view
}

// checkMutableLocked rejects changes to a closed, submitting or finished flow
func (o *Orchestrator) checkMutableLocked() error {
	switch {
	case o.closed:
		return domainErrors.ErrFlowClosed
	case o.inFlight:
		return domainErrors.ErrSubmissionInFlight
	case o.state == model.StateSuccess:
		return domainErrors.ErrAlreadySubscribed
	}
	return nil
}

func (o *Orchestrator) checkSubmittableLocked() error {
	if err := o.checkMutableLocked(); err != nil {
		return err
	}
	if o.quote == nil {
		return domainErrors.ErrQuoteNotReady
	}
	switch o.state {
	case model.StateQuoteReady, model.StateFailedValidation, model.StateFailedTokenize, model.StateFailedCommit:
		return nil
	}
	return domainErrors.ErrQuoteNotReady
}

func (o *Orchestrator) strategyLocked() (CaptureStrategy, error) {
	switch o.capture {
	case model.CaptureSavedCard:
		method, ok := o.findMethodLocked(o.selectedMethodID)
		if !ok {
			return nil, domainErrors.ErrSavedCardUnavailable
		}
		return savedCardStrategy{method: method}, nil
	case model.CaptureHostedElement:
		return hostedElementStrategy{clientSecret: o.hostedSecret, paymentMethodID: o.hostedMethodID}, nil
	default:
		return newCardStrategy{draft: o.draft, tokenizer: o.deps.Tokenizer}, nil
	}
}

func (o *Orchestrator) findMethodLocked(id string) (model.PaymentMethod, bool) {
	for _, m := range o.options.Methods {
		if m.ID == id {
			return m, true
		}
	}
	return model.PaymentMethod{}, false
}

// forgetRetainedLocked drops the payment method kept from a failed commit
// unless keep is that same method. The next submit captures again.
func (o *Orchestrator) forgetRetainedLocked(keep string) {
	if o.retainedMethodID == "" || o.retainedMethodID == keep {
		return
	}
	o.retainedMethodID = ""
	o.commitRetried = false
	if o.failure != nil && o.failure.RetryAction == model.RetryRecommit {
		o.failure.RetryAction = model.RetryResubmit
	}
}

// clearInputFailureLocked returns an input failure to QUOTE_READY once the user acts on it
func (o *Orchestrator) clearInputFailureLocked() {
	switch o.state {
	case model.StateFailedValidation, model.StateFailedTokenize:
		o.failure = nil
		if o.quote != nil {
			o.setStateLocked(model.StateQuoteReady, "", "")
		}
	}
}

func (o *Orchestrator) setStateLocked(state model.SubmissionState, errorKind, message string) {
	o.state = state
	o.deps.Observer.StateChanged(state)
	o.recordLocked(errorKind, message)
}

func (o *Orchestrator) recordLocked(errorKind, message string) {
	o.deps.Auditor.Record(model.FlowEvent{
		FlowID:        o.id,
		AccountID:     o.session.AccountID,
		State:         string(o.state),
		PlanID:        o.plan.ID,
		BillingPeriod: string(o.period),
		CaptureKind:   string(o.capture),
		ErrorKind:     errorKind,
		Message:       message,
		CreatedAt:     o.deps.Now(),
	})
}
