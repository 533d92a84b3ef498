package product

import "context"

// Ledger is the authoritative stock count for products. Adjust with
// DirectionDecrease must be an atomic subtract-if-sufficient: the stock
// check and the decrement are not observable as two separate steps.
type Ledger interface {
	Get(ctx context.Context, productID string) (*Product, error)
	Adjust(ctx context.Context, productID string, quantity int, direction Direction) (*Product, error)
}
