package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/address"
)

type IDGenerator interface {
	NewID() string
}

// AddressSource provides the one read the orchestrator needs from the user
// service: the full address book, out of which one entry is snapshotted
// into the order.
type AddressSource interface {
	FetchByUser(ctx context.Context, userID string) ([]address.Address, error)
}
