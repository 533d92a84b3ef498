package wishlist

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/wishlist"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
)

type IDGenerator interface {
	NewID() string
}

// Service keeps per-user product bookmarks. The Stock Ledger is only
// consulted to prove a product exists before saving; wishlist reads and
// removals never touch it, so a delisted product stays visible until the
// user removes it.
type Service struct {
	items  domain.Repository
	ledger product.Ledger
	idGen  IDGenerator
	log    observability.Logger
}

func NewService(items domain.Repository, ledger product.Ledger, idGen IDGenerator, logger observability.Logger) *Service {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Service{
		items:  items,
		ledger: ledger,
		idGen:  idGen,
		log:    logger.With(observability.F("component", "wishlist_service")),
	}
}

// Add saves a product to the user's wishlist. Each product appears at most
// once per user.
func (s *Service) Add(ctx context.Context, actor auth.Context, productID string) (*domain.Item, error) {
	logger := logctx.FromOr(ctx, s.log)

	if productID == "" {
		return nil, apperr.Validationf("product id is required")
	}

	if _, err := s.ledger.Get(ctx, productID); err != nil {
		return nil, classifyLedgerError(err, productID)
	}

	_, err := s.items.FindByProduct(ctx, actor.SubjectID, productID)
	switch {
	case err == nil:
		return nil, apperr.Conflictf("this item is already in the wishlist")
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, apperr.Upstream(err, "failed to read wishlist")
	}

	item, err := domain.NewItem(s.idGen.NewID(), actor.SubjectID, productID)
	if err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if err := s.items.Save(ctx, item); err != nil {
		logger.Error("wishlist_item_save_failed", observability.F("item_id", item.ID), observability.F("error", err.Error()))
		return nil, apperr.Upstream(err, "failed to save wishlist item")
	}
	return item, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Context, itemID string) (*domain.Item, error) {
	item, err := s.items.FindOne(ctx, actor.SubjectID, itemID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFoundf("wishlist item %s not found for this user", itemID)
	}
	if err != nil {
		return nil, apperr.Upstream(err, "failed to read wishlist")
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, actor auth.Context) ([]*domain.Item, error) {
	items, err := s.items.FindByUser(ctx, actor.SubjectID)
	if err != nil {
		return nil, apperr.Upstream(err, "failed to read wishlist")
	}
	return items, nil
}

// Remove deletes an item owned by the user.
func (s *Service) Remove(ctx context.Context, actor auth.Context, itemID string) error {
	err := s.items.Delete(ctx, actor.SubjectID, itemID)
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFoundf("wishlist item %s not found for this user", itemID)
	}
	if err != nil {
		return apperr.Upstream(err, "failed to delete wishlist item")
	}
	return nil
}

func classifyLedgerError(err error, productID string) error {
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	if errors.Is(err, product.ErrNotFound) {
		return apperr.NotFoundf("product %s not found", productID)
	}
	return apperr.Upstream(err, "stock ledger request failed")
}
