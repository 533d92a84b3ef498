package wishlist

import "context"

type Repository interface {
	FindByUser(ctx context.Context, userID string) ([]*Item, error)
	// FindOne returns ErrNotFound when the item does not exist or does not
	// belong to the user.
	FindOne(ctx context.Context, userID, itemID string) (*Item, error)
	// FindByProduct returns ErrNotFound when the user has not saved the product.
	FindByProduct(ctx context.Context, userID, productID string) (*Item, error)
	Save(ctx context.Context, item *Item) error
	Delete(ctx context.Context, userID, itemID string) error
}
