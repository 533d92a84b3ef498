package order

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/address"
	cartdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cart"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

const (
	componentOrchestrator = "order_orchestrator"
	useCaseOrderCreate    = "order.create"
	useCaseOrderCancel    = "order.cancel"
	spanPrefix            = "UC."
)

// Service is the Order Orchestrator: it turns a cart into a durable order
// across the cart store, the stock ledger, the address source, and the
// order store, with compensations standing in for the transaction those
// stores cannot share.
type Service struct {
	orders    domain.Repository
	cart      cartdomain.Repository
	ledger    product.Ledger
	addresses AddressSource
	idGen     IDGenerator
	numbers   *domain.NumberGenerator

	tel          observability.Telemetry
	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(
	orders domain.Repository,
	cart cartdomain.Repository,
	ledger product.Ledger,
	addresses AddressSource,
	idGen IDGenerator,
	tel observability.Telemetry,
) *Service {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		orders:       orders,
		cart:         cart,
		ledger:       ledger,
		addresses:    addresses,
		idGen:        idGen,
		numbers:      domain.NewNumberGenerator(),
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", componentOrchestrator)),
		reqCounter:   tel.Counter(observability.MetricUsecaseRequests),
		durHistogram: tel.Histogram(observability.MetricUsecaseDuration),
	}
}

// Create runs the fulfillment sequence: read the cart, validate every line
// against current stock, resolve the shipping address, then a saga of
// decrement stock → persist order → clear cart. Validation happens for all
// lines before any decrement, and a failed step compensates the completed
// ones, so no partial order survives a failure.
func (s *Service) Create(ctx context.Context, actor auth.Context, shippingAddressID string) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseOrderCreate))

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.String("order.user_id", actor.SubjectID),
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
			observability.L("use_case", useCaseOrderCreate),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(time.Since(start).Seconds(),
			observability.L("use_case", useCaseOrderCreate),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("latency_seconds", time.Since(start).Seconds()),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if actor.SubjectID == "" {
		return nil, apperr.Validationf("user id is required")
	}

	lines, err := s.cart.FindByUser(ctx, actor.SubjectID)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to read cart")
	}
	if len(lines) == 0 {
		return nil, apperr.Validationf("cart is empty, cannot create an order")
	}

	// Validate every line against current stock before touching anything.
	// The totals still come from the locked cart prices, not this read.
	items := make([]domain.ItemSnapshot, 0, len(lines))
	for _, line := range lines {
		p, err := s.ledger.Get(ctx, line.ProductID)
		if err != nil {
			return nil, classifyLedgerError(err, line.ProductID)
		}
		if p.Stock < line.Quantity {
			return nil, apperr.Conflictf("insufficient stock for product: %s", p.Name)
		}
		items = append(items, domain.ItemSnapshot{
			ProductID:       line.ProductID,
			ProductName:     p.Name,
			ProductImageURL: p.ImageURL,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
		})
	}

	shippingAddr, err := s.resolveAddress(ctx, actor.SubjectID, shippingAddressID)
	if err != nil {
		return nil, err
	}

	entity, err := domain.New(s.idGen.NewID(), s.numbers.Next(), actor.SubjectID, items, shippingAddr)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}

	var reserved []domain.ItemSnapshot
	steps := []sagaStep{
		{
			name: "reserve_stock",
			run: func(ctx context.Context) error {
				for _, item := range items {
					if _, err := s.ledger.Adjust(ctx, item.ProductID, item.Quantity, product.DirectionDecrease); err != nil {
						// Undo this step's own partial progress; the saga
						// only compensates steps that completed.
						if rerr := s.restoreStock(ctx, logger, reserved); rerr != nil {
							logger.Error("stock_reserve_rollback_failed", observability.F("error", rerr.Error()))
						}
						return classifyLedgerError(err, item.ProductID)
					}
					reserved = append(reserved, item)
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.restoreStock(ctx, logger, reserved)
			},
		},
		{
			name: "persist_order",
			run: func(ctx context.Context) error {
				return s.insertWithNumberRetry(ctx, entity)
			},
			compensate: func(ctx context.Context) error {
				return s.orders.Delete(ctx, entity.ID)
			},
		},
		{
			name: "clear_cart",
			run: func(ctx context.Context) error {
				return s.cart.Clear(ctx, actor.SubjectID)
			},
		},
	}

	if err := runSaga(ctx, logger, steps); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("order.status", string(entity.Status)))
	span.AddEvent("order.created",
		trace.WithAttributes(
			attribute.String("order.id", entity.ID),
			attribute.String("order.number", entity.Number),
		),
	)

	return entity, nil
}

// insertWithNumberRetry retries once with a fresh number when the
// human-readable order number collides.
func (s *Service) insertWithNumberRetry(ctx context.Context, entity *domain.Order) error {
	err := s.orders.Insert(ctx, entity)
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}

	entity.Number = s.numbers.Next()
	if err := s.orders.Insert(ctx, entity); err != nil {
		return apperr.Upstream(err, "failed to persist order")
	}
	return nil
}

func (s *Service) resolveAddress(ctx context.Context, userID, addressID string) (domain.ShippingAddress, error) {
	addrs, err := s.addresses.FetchByUser(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) != apperr.KindUnknown {
			return domain.ShippingAddress{}, err
		}
		return domain.ShippingAddress{}, apperr.Upstream(err, "failed to retrieve user addresses")
	}

	selected, err := address.Resolve(addrs, addressID)
	switch {
	case errors.Is(err, address.ErrNotFound):
		return domain.ShippingAddress{}, apperr.NotFoundf("address %s not found for this user", addressID)
	case errors.Is(err, address.ErrNoneSaved):
		return domain.ShippingAddress{}, apperr.Validationf("no addresses found for the user")
	case errors.Is(err, address.ErrNoDefault):
		return domain.ShippingAddress{}, apperr.Validationf("no default shipping address found for the user")
	case err != nil:
		return domain.ShippingAddress{}, apperr.Upstream(err, "failed to resolve shipping address")
	}

	return domain.ShippingAddress{
		Label:         selected.Label,
		RecipientName: selected.RecipientName,
		PhoneNumber:   selected.PhoneNumber,
		Street:        selected.Street,
		City:          selected.City,
		Province:      selected.Province,
		PostalCode:    selected.PostalCode,
	}, nil
}

// ConfirmPayment moves a pending order into processing. Called by the
// payment service once a payment record exists.
func (s *Service) ConfirmPayment(ctx context.Context, orderID string) (*domain.Order, error) {
	entity, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := entity.ConfirmPayment(); err != nil {
		return nil, apperr.Statef("only orders with 'pending' status can be confirmed, current status: '%s'", entity.Status)
	}
	if err := s.orders.Update(ctx, entity); err != nil {
		return nil, apperr.Upstream(err, "failed to update order")
	}
	return entity, nil
}

// Cancel restores the stock recorded in the order's item snapshots and then
// marks the order cancelled. Restoration is attempted for every item even
// when one fails; on any failure the status is left untouched so a retry
// can run against the ledger's idempotent increase.
func (s *Service) Cancel(ctx context.Context, actor auth.Context, orderID string) (*domain.Order, error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCaseOrderCancel),
		observability.F("order_id", orderID),
	)

	entity, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(entity.UserID) {
		return nil, apperr.NotFoundf("order %s not found", orderID)
	}
	if entity.Status.IsTerminal() {
		return nil, apperr.Statef("order with status '%s' cannot be cancelled", entity.Status)
	}

	if err := s.restoreStock(ctx, logger, entity.Items); err != nil {
		return nil, apperr.Upstream(err, "failed to restore stock, order not cancelled")
	}

	if err := entity.Cancel(); err != nil {
		return nil, apperr.Statef("order with status '%s' cannot be cancelled", entity.Status)
	}
	if err := s.orders.Update(ctx, entity); err != nil {
		return nil, apperr.Upstream(err, "failed to update order")
	}

	logger.Info("order_cancelled", observability.F("order_number", entity.Number))
	return entity, nil
}

// UpdateStatus is the privileged status change. It goes through the same
// state machine as the dedicated transitions; moving into cancelled also
// restores stock, any other target leaves the ledger alone.
func (s *Service) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	target, err := domain.ParseStatus(status)
	if err != nil {
		return nil, apperr.Validationf("'%s' is not a valid status", status)
	}

	entity, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if entity.Status.IsTerminal() {
		return nil, apperr.Statef("order with status '%s' cannot be updated", entity.Status)
	}

	if target == domain.StatusCancelled {
		logger := logctx.FromOr(ctx, s.log).With(observability.F("order_id", orderID))
		if err := s.restoreStock(ctx, logger, entity.Items); err != nil {
			return nil, apperr.Upstream(err, "failed to restore stock, order not cancelled")
		}
	}

	if err := entity.TransitionTo(target); err != nil {
		return nil, apperr.Statef("cannot transition order from '%s' to '%s'", entity.Status, target)
	}
	if err := s.orders.Update(ctx, entity); err != nil {
		return nil, apperr.Upstream(err, "failed to update order")
	}
	return entity, nil
}

// Remove physically deletes an order. Administrative cleanup only: no stock
// or payment side effects, it is meant for orders already in a terminal
// status.
func (s *Service) Remove(ctx context.Context, orderID string) error {
	err := s.orders.Delete(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFoundf("order %s not found", orderID)
	}
	if err != nil {
		return apperr.Upstream(err, "failed to delete order")
	}
	return nil
}

// AttachPayment stamps the settling payment's id onto the order.
func (s *Service) AttachPayment(ctx context.Context, orderID, paymentID string) error {
	entity, err := s.get(ctx, orderID)
	if err != nil {
		return err
	}
	entity.AttachPayment(paymentID)
	if err := s.orders.Update(ctx, entity); err != nil {
		return apperr.Upstream(err, "failed to update order")
	}
	return nil
}

// Find is the unguarded read used by trusted internal callers such as the
// payment workflow, which applies its own ownership rule.
func (s *Service) Find(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.get(ctx, orderID)
}

// Get returns the order when the actor owns it or is an admin.
func (s *Service) Get(ctx context.Context, actor auth.Context, orderID string) (*domain.Order, error) {
	entity, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(entity.UserID) {
		return nil, apperr.NotFoundf("order %s not found", orderID)
	}
	return entity, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*domain.Order, error) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to list orders")
	}
	return orders, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*domain.Order, error) {
	orders, err := s.orders.FindAll(ctx)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to list orders")
	}
	return orders, nil
}

// HasPurchased reports whether the user has a completed order containing
// the product. Used by the product side to gate reviews.
func (s *Service) HasPurchased(ctx context.Context, userID, productID string) (bool, error) {
	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		return false, apperr.Upstream(err, "failed to list orders")
	}
	for _, o := range orders {
		if o.Status != domain.StatusCompleted {
			continue
		}
		for _, item := range o.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// restoreStock re-adds each snapshot quantity to the ledger. Every item is
// attempted regardless of earlier failures; the joined error carries them all.
func (s *Service) restoreStock(ctx context.Context, logger observability.Logger, items []domain.ItemSnapshot) error {
	var errs []error
	for _, item := range items {
		if _, err := s.ledger.Adjust(ctx, item.ProductID, item.Quantity, product.DirectionIncrease); err != nil {
			logger.Error("stock_restore_failed",
				observability.F("product_id", item.ProductID),
				observability.F("quantity", item.Quantity),
				observability.F("error", err.Error()),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Service) get(ctx context.Context, orderID string) (*domain.Order, error) {
	entity, err := s.orders.Get(ctx, orderID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFoundf("order %s not found", orderID)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "failed to read order")
	}
	return entity, nil
}

func classifyLedgerError(err error, productID string) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	switch {
	case errors.Is(err, product.ErrNotFound):
		return apperr.NotFoundf("product %s not found", productID)
	case errors.Is(err, product.ErrInsufficientStock):
		return apperr.Conflictf("insufficient stock for product %s", productID)
	default:
		return apperr.Upstream(err, "stock ledger request failed")
	}
}
