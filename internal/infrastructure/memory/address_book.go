package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/address"
)

// AddressBook is an in-memory stand-in for the user service's address
// endpoint, used in local mode and tests.
type AddressBook struct {
	mu        sync.RWMutex
	addresses map[string][]domain.Address // userID -> addresses
}

func NewAddressBook() *AddressBook {
	return &AddressBook{
		addresses: make(map[string][]domain.Address),
	}
}

func (b *AddressBook) Put(userID string, addr domain.Address) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addresses[userID] = append(b.addresses[userID], addr)
}

func (b *AddressBook) FetchByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	_ = ctx

	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]domain.Address(nil), b.addresses[userID]...), nil
}
