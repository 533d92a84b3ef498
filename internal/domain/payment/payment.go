package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("payment: not found")
	ErrInvalidMethod  = errors.New("payment: unknown method")
	ErrInvalidStatus  = errors.New("payment: unknown status")
	ErrTerminalStatus = errors.New("payment: terminal status cannot be changed")
)

type Method string

const (
	MethodBankTransfer Method = "bank_transfer"
	MethodCreditCard   Method = "credit_card"
	MethodEWallet      Method = "e_wallet"
)

func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodBankTransfer, MethodCreditCard, MethodEWallet:
		return Method(s), nil
	default:
		return "", ErrInvalidMethod
	}
}

type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusSuccess, StatusFailed:
		return Status(s), nil
	default:
		return "", ErrInvalidStatus
	}
}

func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// Payment is the one-to-one record of an order's settlement. The amount is
// copied from the order total at creation; once the status is terminal the
// record is immutable.
type Payment struct {
	ID        string
	OrderID   string
	UserID    string
	Amount    decimal.Decimal
	Method    Method
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id, orderID, userID string, amount decimal.Decimal, method Method) (*Payment, error) {
	if _, err := ParseMethod(string(method)); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Payment{
		ID:        id,
		OrderID:   orderID,
		UserID:    userID,
		Amount:    amount,
		Method:    method,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (p *Payment) MarkSuccess() error {
	return p.setStatus(StatusSuccess)
}

func (p *Payment) MarkFailed() error {
	return p.setStatus(StatusFailed)
}

// SetStatus applies the admin status change, guarded against leaving a
// terminal state.
func (p *Payment) SetStatus(target Status) error {
	if _, err := ParseStatus(string(target)); err != nil {
		return err
	}
	return p.setStatus(target)
}

func (p *Payment) setStatus(target Status) error {
	if p.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	p.Status = target
	p.touch()
	return nil
}

func (p *Payment) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
