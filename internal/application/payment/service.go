package payment

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	orderdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

const (
	componentPayment     = "payment_service"
	useCasePaymentCreate = "payment.create"
	spanPrefix           = "UC."
)

type IDGenerator interface {
	NewID() string
}

// Service runs the payment workflow: one Payment per order, amount copied
// from the order total, and a synchronous confirm call back into the order
// ledger.
type Service struct {
	payments domain.Repository
	orders   Orders
	idGen    IDGenerator

	tel          observability.Telemetry
	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(payments domain.Repository, orders Orders, idGen IDGenerator, tel observability.Telemetry) *Service {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		payments:     payments,
		orders:       orders,
		idGen:        idGen,
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", componentPayment)),
		reqCounter:   tel.Counter(observability.MetricUsecaseRequests),
		durHistogram: tel.Histogram(observability.MetricUsecaseDuration),
	}
}

// Create records a payment for a pending order owned by the actor, then
// confirms the order. If the confirm call fails, the payment row stays
// pending with no rollback: the admin status path exists to settle such
// stranded rows by hand.
func (s *Service) Create(ctx context.Context, actor auth.Context, orderID, method string) (_ *domain.Payment, err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCasePaymentCreate),
		observability.F("order_id", orderID),
	)

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"CreatePayment",
		attribute.String("use_case", useCasePaymentCreate),
		attribute.String("order.id", orderID),
	)
	start := time.Now()
	outcome := "success"

	defer func() {
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, apperr.KindOf(err).String())
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.End()

		s.reqCounter.Add(1,
			observability.L("use_case", useCasePaymentCreate),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("use_case", useCasePaymentCreate),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("latency_seconds", time.Since(start).Seconds()),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	parsedMethod, err := domain.ParseMethod(method)
	if err != nil {
		return nil, apperr.Validationf("'%s' is not a valid payment method", method)
	}

	ord, err := s.orders.Find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord.UserID != actor.SubjectID {
		return nil, apperr.Authorizationf("cannot create a payment for another user's order")
	}
	if ord.Status != orderdomain.StatusPending {
		return nil, apperr.Validationf("order already paid or in progress")
	}

	entity, err := domain.New(s.idGen.NewID(), orderID, actor.SubjectID, ord.TotalAmount, parsedMethod)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.payments.Insert(ctx, entity); err != nil {
		return nil, apperr.Upstream(err, "failed to persist payment")
	}

	if _, err := s.orders.ConfirmPayment(ctx, orderID); err != nil {
		logger.Error("order_confirm_failed",
			observability.F("payment_id", entity.ID),
			observability.F("error", err.Error()),
		)
		return nil, err
	}

	if err := entity.MarkSuccess(); err != nil {
		return nil, apperr.Statef("%v", err)
	}
	if err := s.payments.Update(ctx, entity); err != nil {
		return nil, apperr.Upstream(err, "failed to persist payment")
	}

	if err := s.orders.AttachPayment(ctx, orderID, entity.ID); err != nil {
		// The payment itself succeeded; losing the back-reference is
		// recoverable from the payment row.
		logger.Warn("order_payment_link_failed",
			observability.F("payment_id", entity.ID),
			observability.F("error", err.Error()),
		)
	}

	return entity, nil
}

// Get returns a payment for its owner; admins bypass the ownership check.
func (s *Service) Get(ctx context.Context, actor auth.Context, paymentID string) (*domain.Payment, error) {
	entity, err := s.get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin() {
		return entity, nil
	}
	if !actor.Owns(entity.UserID) {
		return nil, apperr.Authorizationf("no access to this payment")
	}
	return entity, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	payments, err := s.payments.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to list payments")
	}
	return payments, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Payment, error) {
	payments, err := s.payments.FindAll(ctx)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to list payments")
	}
	return payments, nil
}

// UpdateStatus is the privileged status change; terminal payments are
// immutable.
func (s *Service) UpdateStatus(ctx context.Context, paymentID, status string) (*domain.Payment, error) {
	target, err := domain.ParseStatus(status)
	if err != nil {
		return nil, apperr.Validationf("'%s' is not a valid payment status", status)
	}

	entity, err := s.get(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := entity.SetStatus(target); err != nil {
		return nil, apperr.Statef("payment with status '%s' cannot be changed", entity.Status)
	}
	if err := s.payments.Update(ctx, entity); err != nil {
		return nil, apperr.Upstream(err, "failed to persist payment")
	}
	return entity, nil
}

// Stats aggregates revenue and method usage across all payments.
type Stats struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalTransactions int             `json:"totalTransactions"`
	Methods           map[string]int  `json:"methods"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	payments, err := s.payments.FindAll(ctx)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to list payments")
	}

	stats := &Stats{
		TotalRevenue: decimal.Zero,
		Methods:      make(map[string]int),
	}
	for _, p := range payments {
		stats.TotalRevenue = stats.TotalRevenue.Add(p.Amount)
		stats.TotalTransactions++
		stats.Methods[string(p.Method)]++
	}
	return stats, nil
}

func (s *Service) get(ctx context.Context, paymentID string) (*domain.Payment, error) {
	entity, err := s.payments.Get(ctx, paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFoundf("payment %s not found", paymentID)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "failed to read payment")
	}
	return entity, nil
}
