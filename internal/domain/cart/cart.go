package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("cart: line not found")
	ErrInvalidQuantity = errors.New("cart: quantity must be greater than zero")
)

// Line is one (user, product) entry in a cart. The unit price is locked at
// the moment the line is first created; later product price changes do not
// flow into existing lines.
type Line struct {
	ID        string
	UserID    string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewLine(id, userID, productID string, quantity int, unitPrice decimal.Decimal) (*Line, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	now := time.Now().UTC()
	return &Line{
		ID:        id,
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Merge folds an additional quantity into the line, keeping the locked price.
func (l *Line) Merge(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	l.Quantity += quantity
	l.touch()
	return nil
}

func (l *Line) SetQuantity(quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	l.Quantity = quantity
	l.touch()
	return nil
}

// Subtotal is quantity times the locked unit price.
func (l *Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (l *Line) touch() {
	l.UpdatedAt = time.Now().UTC()
}

func (l *Line) Clone() *Line {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}
