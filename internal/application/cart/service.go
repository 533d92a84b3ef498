package cart

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

type IDGenerator interface {
	NewID() string
}

// Service is the Cart Aggregate: per-user lines with quantities and locked
// unit prices. Every mutation is validated against the Stock Ledger before
// the cart store is touched; the ledger itself is never mutated from here.
type Service struct {
	lines  domain.Repository
	ledger product.Ledger
	idGen  IDGenerator
	log    observability.Logger
}

func NewService(lines domain.Repository, ledger product.Ledger, idGen IDGenerator, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		lines:  lines,
		ledger: ledger,
		idGen:  idGen,
		log:    logger.With(observability.F("component", "cart_service")),
	}
}

// Add puts a product into the user's cart. When a line for the product
// already exists the quantities are merged and the merged total is
// re-validated; the unit price stays locked from the first add.
func (s *Service) Add(ctx context.Context, actor auth.Context, productID string, quantity int) (*domain.Line, error) {
	logger := logctx.FromOr(ctx, s.log)

	if quantity <= 0 {
		return nil, apperr.Validationf("quantity must be greater than zero")
	}

	p, err := s.ledger.Get(ctx, productID)
	if err != nil {
		return nil, classifyLedgerError(err, productID)
	}

	existing, err := s.lines.FindByProduct(ctx, actor.SubjectID, productID)
	switch {
	case err == nil:
		merged := existing.Quantity + quantity
		if p.Stock < merged {
			return nil, apperr.Conflictf("insufficient stock for product %s", p.Name)
		}
		if err := existing.Merge(quantity); err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		if err := s.lines.Save(ctx, existing); err != nil {
			logger.Error("cart_line_save_failed", observability.F("line_id", existing.ID), observability.F("error", err.Error()))
			return nil, apperr.Upstream(err, "failed to save cart line")
		}
		return existing, nil

	case errors.Is(err, domain.ErrNotFound):
		if p.Stock < quantity {
			return nil, apperr.Conflictf("insufficient stock for product %s", p.Name)
		}
		line, err := domain.NewLine(s.idGen.NewID(), actor.SubjectID, productID, quantity, p.Price)
		if err != nil {
			return nil, apperr.Validationf("%v", err)
		}
		if err := s.lines.Save(ctx, line); err != nil {
			logger.Error("cart_line_save_failed", observability.F("line_id", line.ID), observability.F("error", err.Error()))
			return nil, apperr.Upstream(err, "failed to save cart line")
		}
		return line, nil

	default:
		return nil, apperr.Upstream(err, "failed to read cart")
	}
}

// Update changes a line's quantity after re-validating stock for the line's
// product.
func (s *Service) Update(ctx context.Context, actor auth.Context, lineID string, quantity int) (*domain.Line, error) {
	if quantity < 1 {
		return nil, apperr.Validationf("quantity must be at least 1")
	}

	line, err := s.lines.FindOne(ctx, actor.SubjectID, lineID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFoundf("cart line %s not found for this user", lineID)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "failed to read cart")
	}

	p, err := s.ledger.Get(ctx, line.ProductID)
	if err != nil {
		return nil, classifyLedgerError(err, line.ProductID)
	}
	if p.Stock < quantity {
		return nil, apperr.Conflictf("insufficient stock for product %s", p.Name)
	}

	if err := line.SetQuantity(quantity); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.lines.Save(ctx, line); err != nil {
		return nil, apperr.Upstream(err, "failed to save cart line")
	}
	return line, nil
}

// Remove deletes a line owned by the user.
func (s *Service) Remove(ctx context.Context, actor auth.Context, lineID string) error {
	if _, err := s.lines.FindOne(ctx, actor.SubjectID, lineID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperr.NotFoundf("cart line %s not found for this user", lineID)
		}
		return apperr.Upstream(err, "failed to read cart")
	}

	if err := s.lines.Delete(ctx, actor.SubjectID, lineID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return apperr.Upstream(err, "failed to delete cart line")
	}
	return nil
}

func (s *Service) List(ctx context.Context, actor auth.Context) ([]*domain.Line, error) {
	lines, err := s.lines.FindByUser(ctx, actor.SubjectID)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to read cart")
	}
	return lines, nil
}

// Clear bulk-deletes the user's cart. Used by the order orchestrator after
// a successful checkout.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.lines.Clear(ctx, userID); err != nil {
		return apperr.Upstream(err, "failed to clear cart")
	}
	return nil
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
