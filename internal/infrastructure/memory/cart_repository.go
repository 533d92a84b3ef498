package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cart"
)

type CartRepository struct {
	mu    sync.RWMutex
	lines map[string]map[string]*domain.Line // userID -> lineID -> line
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		lines: make(map[string]map[string]*domain.Line),
	}
}

func (r *CartRepository) FindByUser(ctx context.Context, userID string) ([]*domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	userLines := r.lines[userID]
	out := make([]*domain.Line, 0, len(userLines))
	for _, line := range userLines {
		out = append(out, line.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *CartRepository) FindOne(ctx context.Context, userID, lineID string) (*domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	line, ok := r.lines[userID][lineID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return line.Clone(), nil
}

func (r *CartRepository) FindByProduct(ctx context.Context, userID, productID string) (*domain.Line, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, line := range r.lines[userID] {
		if line.ProductID == productID {
			return line.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *CartRepository) Save(ctx context.Context, line *domain.Line) error {
	_ = ctx
	if line == nil || line.ID == "" {
		return fmt.Errorf("cart repository: line id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	userLines, ok := r.lines[line.UserID]
	if !ok {
		userLines = make(map[string]*domain.Line)
		r.lines[line.UserID] = userLines
	}
	userLines[line.ID] = line.Clone()
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, userID, lineID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.lines[userID][lineID]; !ok {
		return domain.ErrNotFound
	}
	delete(r.lines[userID], lineID)
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.lines, userID)
	return nil
}
