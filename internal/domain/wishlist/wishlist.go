package wishlist

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("wishlist: item not found")
	ErrDuplicate = errors.New("wishlist: product already saved")
)

// Item is one (user, product) bookmark. Unlike a cart line it carries no
// quantity and no locked price; the wishlist only remembers that the user
// wants the product.
type Item struct {
	ID        string
	UserID    string
	ProductID string
	CreatedAt time.Time
}

func NewItem(id, userID, productID string) (*Item, error) {
	if productID == "" {
		return nil, errors.New("wishlist: product id is required")
	}
	return &Item{
		ID:        id,
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	return &clone
}
