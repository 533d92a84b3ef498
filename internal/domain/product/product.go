package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("product: not found")
	ErrInvalidQuantity   = errors.New("product: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("product: insufficient stock")
	ErrInvalidDirection  = errors.New("product: unknown adjustment direction")
)

// Direction is the stock adjustment type carried on the wire as
// "increase" or "decrease".
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionIncrease, DirectionDecrease:
		return Direction(s), nil
	default:
		return "", ErrInvalidDirection
	}
}

// Product is the ledger's view of a sellable item: current price, display
// data for snapshots, and the authoritative stock count.
type Product struct {
	ID        string
	Name      string
	ImageURL  string
	Price     decimal.Decimal
	Stock     int
	UpdatedAt time.Time
}

func New(id, name, imageURL string, price decimal.Decimal, stock int) (*Product, error) {
	if stock < 0 {
		return nil, ErrInvalidQuantity
	}
	return &Product{
		ID:        id,
		Name:      name,
		ImageURL:  imageURL,
		Price:     price,
		Stock:     stock,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Adjust applies an increase or a floor-checked decrease. Stock never goes
// negative; callers holding the ledger lock get check-and-subtract as one step.
func (p *Product) Adjust(quantity int, direction Direction) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	switch direction {
	case DirectionIncrease:
		p.Stock += quantity
	case DirectionDecrease:
		if quantity > p.Stock {
			return ErrInsufficientStock
		}
		p.Stock -= quantity
	default:
		return ErrInvalidDirection
	}
	p.touch()
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
