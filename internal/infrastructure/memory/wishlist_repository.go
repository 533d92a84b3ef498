package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/wishlist"
)

type WishlistRepository struct {
	mu    sync.RWMutex
	items map[string]map[string]*domain.Item // userID -> itemID -> item
}

func NewWishlistRepository() *WishlistRepository {
	return &WishlistRepository{
		items: make(map[string]map[string]*domain.Item),
	}
}

func (r *WishlistRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	userItems := r.items[userID]
	out := make([]*domain.Item, 0, len(userItems))
	for _, item := range userItems {
		out = append(out, item.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *WishlistRepository) FindOne(ctx context.Context, userID, itemID string) (*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[userID][itemID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return item.Clone(), nil
}

func (r *WishlistRepository) FindByProduct(ctx context.Context, userID, productID string) (*domain.Item, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.items[userID] {
		if item.ProductID == productID {
			return item.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *WishlistRepository) Save(ctx context.Context, item *domain.Item) error {
	_ = ctx
	if item == nil || item.ID == "" {
		return fmt.Errorf("wishlist repository: item id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	userItems, ok := r.items[item.UserID]
	if !ok {
		userItems = make(map[string]*domain.Item)
		r.items[item.UserID] = userItems
	}
	userItems[item.ID] = item.Clone()
	return nil
}

func (r *WishlistRepository) Delete(ctx context.Context, userID, itemID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[userID][itemID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items[userID], itemID)
	return nil
}
