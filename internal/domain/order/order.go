package order

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: already exists")
	ErrEmptyItems             = errors.New("order: at least one item is required")
	ErrInvalidQuantity        = errors.New("order: item quantity must be greater than zero")
	ErrInvalidStatus          = errors.New("order: unknown status")
	ErrInvalidStateTransition = errors.New("order: invalid status transition")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

// IsTerminal reports whether no further transition may leave the status.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ItemSnapshot is an immutable copy of product and cart data taken at order
// creation. It is never re-derived from the live product record, so price
// and display changes after checkout do not affect the order.
type ItemSnapshot struct {
	ProductID       string
	ProductName     string
	ProductImageURL string
	Quantity        int
	UnitPrice       decimal.Decimal
}

func (i ItemSnapshot) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ShippingAddress is the address copy embedded in the order. It carries no
// identity of its own and is decoupled from the user's address book.
type ShippingAddress struct {
	Label         string
	RecipientName string
	PhoneNumber   string
	Street        string
	City          string
	Province      string
	PostalCode    string
}

type Order struct {
	ID              string
	Number          string
	UserID          string
	Items           []ItemSnapshot
	TotalAmount     decimal.Decimal
	Status          Status
	PaymentID       string
	ShippingAddress ShippingAddress
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// New builds a pending order. The total is computed once here from the
// snapshots' locked prices and never recomputed afterwards.
func New(id, number, userID string, items []ItemSnapshot, addr ShippingAddress) (*Order, error) {
	if len(items) == 0 {
		return nil, ErrEmptyItems
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total = total.Add(item.Subtotal())
	}

	now := time.Now().UTC()
	return &Order{
		ID:              id,
		Number:          number,
		UserID:          userID,
		Items:           append([]ItemSnapshot(nil), items...),
		TotalAmount:     total,
		Status:          StatusPending,
		ShippingAddress: addr,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// ConfirmPayment moves a pending order into processing.
func (o *Order) ConfirmPayment() error {
	return o.transition(stateFor(o.Status).confirmPayment)
}

// Complete closes the order after fulfillment.
func (o *Order) Complete() error {
	return o.transition(stateFor(o.Status).complete)
}

// Cancel moves a non-terminal order into cancelled. Stock restoration is the
// orchestrator's job and runs before this transition is persisted.
func (o *Order) Cancel() error {
	return o.transition(stateFor(o.Status).cancel)
}

// TransitionTo applies the generic (admin) status change through the same
// state machine as the dedicated transitions.
func (o *Order) TransitionTo(target Status) error {
	switch target {
	case StatusProcessing:
		return o.ConfirmPayment()
	case StatusCompleted:
		return o.Complete()
	case StatusCancelled:
		return o.Cancel()
	case StatusPending:
		return ErrInvalidStateTransition
	default:
		return ErrInvalidStatus
	}
}

// AttachPayment records the payment that settled the order.
func (o *Order) AttachPayment(paymentID string) {
	o.PaymentID = paymentID
	o.touch()
}

func (o *Order) transition(step func(*Order) (state, error)) error {
	next, err := step(o)
	if err != nil {
		return err
	}
	o.Status = next.status()
	o.touch()
	return nil
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Items = append([]ItemSnapshot(nil), o.Items...)
	return &clone
}
