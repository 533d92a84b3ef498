package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
)

// ProductRepository is an in-memory Stock Ledger. A single mutex spans the
// stock check and the decrement, so Adjust(decrease) is the atomic
// subtract-if-sufficient the ledger contract requires.
type ProductRepository struct {
	mu       sync.Mutex
	products map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[string]*domain.Product),
	}
}

// Seed inserts or replaces a product. Intended for wiring and tests.
func (r *ProductRepository) Seed(p *domain.Product) {
	if p == nil || p.ID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = p.Clone()
}

func (r *ProductRepository) Get(ctx context.Context, productID string) (*domain.Product, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) Adjust(ctx context.Context, productID string, quantity int, direction domain.Direction) (*domain.Product, error) {
	_ = ctx
	if productID == "" {
		return nil, fmt.Errorf("product repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if err := p.Adjust(quantity, direction); err != nil {
		return nil, err
	}
	return p.Clone(), nil
}
