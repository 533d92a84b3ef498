package payment

import "context"

type Repository interface {
	Insert(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	FindByUser(ctx context.Context, userID string) ([]*Payment, error)
	FindAll(ctx context.Context) ([]*Payment, error)
	Update(ctx context.Context, payment *Payment) error
}
