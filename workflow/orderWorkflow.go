package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/storefront_backend/config"
	"bitbucket.org/mmdatafocus/storefront_backend/models"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Ledger is the part of the sales ledger the workflow commits into.
type Ledger interface {
	Commit(ctx context.Context, record models.SaleRecord) models.SaveResult
}

// OrderWorkflow turns the cart into a committed sale.
// Only one checkout runs at a time and callers serialize access.
type OrderWorkflow struct {
	cart      *models.Cart
	ledger    Ledger
	validator *models.CustomerValidator
	notifier  SaleNotifier
	logger    *logrus.Logger
	location  *time.Location
	now       func() time.Time

	state       State
	pending     models.CustomerDetails
	lastFailure error
}

type Option func(*OrderWorkflow)

func WithNotifier(n SaleNotifier) Option {
	return func(w *OrderWorkflow) { w.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(w *OrderWorkflow) { w.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(w *OrderWorkflow) { w.location = loc }
}

func NewOrderWorkflow(cart *models.Cart, ledger Ledger, validator *models.CustomerValidator, logger *logrus.Logger, opts ...Option) *OrderWorkflow {
	w := &OrderWorkflow{
		cart:      cart,
		ledger:    ledger,
		validator: validator,
		logger:    logger,
		location:  time.Local,
		now:       time.Now,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.validator == nil {
		w.validator = models.NewCustomerValidator(false, "")
	}
	return w
}

func (w *OrderWorkflow) State() State {
	return w.state
}

// Pending is the last customer input seen in the current checkout, kept for correction.
func (w *OrderWorkflow) Pending() models.CustomerDetails {
	return w.pending
}

// LastFailure is the most recent validation failure of the current checkout.
func (w *OrderWorkflow) LastFailure() error {
	return w.lastFailure
}

func (w *OrderWorkflow) transition(to State) error {
	if !CanTransitionTo(w.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, w.state, to)
	}
	w.state = to
	return nil
}

// Start opens payment and customer details capture. The cart must not be empty.
func (w *OrderWorkflow) Start() error {
	if w.state != StateIdle {
		return ErrCheckoutInProgress
	}
	if w.cart.IsEmpty() {
		return models.ErrCartEmpty
	}
	if err := w.transition(StateCollectingPaymentInfo); err != nil {
		return err
	}
	w.pending = models.CustomerDetails{PaymentMethod: models.PaymentMethodCreditCard}
	w.lastFailure = nil
	return nil
}

// Cancel abandons the checkout. Cart and ledger are untouched.
func (w *OrderWorkflow) Cancel() error {
	if w.state != StateCollectingPaymentInfo {
		return ErrNoCheckoutInProgress
	}
	if err := w.transition(StateCancelled); err != nil {
		return err
	}
	w.reset()
	return w.transition(StateIdle)
}

// Confirm validates details and, when they pass, commits the cart as a sale.
// A validation failure is returned as *models.FieldError and the checkout stays open.
// Once committing starts it runs to completion even if ctx is cancelled; the
// returned SaveResult tells whether the ledger reached storage.
func (w *OrderWorkflow) Confirm(ctx context.Context, details models.CustomerDetails) (models.SaleRecord, models.SaveResult, error) {
	if w.state != StateCollectingPaymentInfo {
		return models.SaleRecord{}, models.SaveResult{}, ErrNoCheckoutInProgress
	}

	ctx, span := otel.Tracer("storefront/workflow").Start(ctx, "OrderWorkflow.Confirm", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	w.pending = details.Normalized()
	if err := w.transition(StateValidating); err != nil {
		return models.SaleRecord{}, models.SaveResult{}, err
	}

	validated, err := w.validator.Validate(details)
	if err != nil {
		w.lastFailure = err
		span.SetStatus(codes.Error, "validation failed")
		if terr := w.transition(StateCollectingPaymentInfo); terr != nil {
			return models.SaleRecord{}, models.SaveResult{}, terr
		}
		return models.SaleRecord{}, models.SaveResult{}, err
	}

	// Items may have been removed while details were being collected.
	if w.cart.IsEmpty() {
		w.lastFailure = models.ErrCartEmpty
		if terr := w.transition(StateCollectingPaymentInfo); terr != nil {
			return models.SaleRecord{}, models.SaveResult{}, terr
		}
		return models.SaleRecord{}, models.SaveResult{}, models.ErrCartEmpty
	}

	if err := w.transition(StateCommitting); err != nil {
		return models.SaleRecord{}, models.SaveResult{}, err
	}
	record, result := w.commit(context.WithoutCancel(ctx), validated)
	span.SetAttributes(
		attribute.String("sale.total", record.Total.StringFixed(2)),
		attribute.Bool("ledger.persisted", result.Persisted),
	)

	w.reset()
	if err := w.transition(StateIdle); err != nil {
		return record, result, err
	}
	return record, result, nil
}

func (w *OrderWorkflow) commit(ctx context.Context, details models.CustomerDetails) (models.SaleRecord, models.SaveResult) {
	record := models.NewSaleRecord(w.cart.Items(), details, w.now(), w.location)
	result := w.ledger.Commit(ctx, record)
	w.cart.Clear()

	if w.notifier != nil {
		if err := w.notifier.NotifySale(ctx, record); err != nil {
			config.LogError(w.logger, "OrderWorkflow", "commit", "NotifySale", record.CommittedAt, err)
		}
	}
	return record, result
}

func (w *OrderWorkflow) reset() {
	w.pending = models.CustomerDetails{}
	w.lastFailure = nil
}
