package cart

import "context"

type Repository interface {
	FindByUser(ctx context.Context, userID string) ([]*Line, error)
	// FindOne returns ErrNotFound when the line does not exist or does not
	// belong to the user.
	FindOne(ctx context.Context, userID, lineID string) (*Line, error)
	// FindByProduct returns ErrNotFound when the user has no line for the product.
	FindByProduct(ctx context.Context, userID, productID string) (*Line, error)
	Save(ctx context.Context, line *Line) error
	Delete(ctx context.Context, userID, lineID string) error
	// Clear removes every line of the user in one bulk delete.
	Clear(ctx context.Context, userID string) error
}
