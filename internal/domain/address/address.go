package address

import "errors"

var (
	ErrNotFound  = errors.New("address: not found for user")
	ErrNoneSaved = errors.New("address: no addresses found for user")
	ErrNoDefault = errors.New("address: no default shipping address")
)

// Address is one entry of a user's address book as served by the user
// service. The resolver copies one of these into an order at creation time;
// the source record is never mutated here.
type Address struct {
	ID            string
	Label         string
	RecipientName string
	PhoneNumber   string
	Street        string
	City          string
	Province      string
	PostalCode    string
	IsDefault     bool
}

// Resolve selects the shipping address for an order: the explicit id when
// given, otherwise the entry flagged as default. The returned value is a
// copy; later edits to the address book do not affect it.
func Resolve(addrs []Address, addressID string) (Address, error) {
	if len(addrs) == 0 {
		return Address{}, ErrNoneSaved
	}

	if addressID != "" {
		for _, a := range addrs {
			if a.ID == addressID {
				return a, nil
			}
		}
		return Address{}, ErrNotFound
	}

	for _, a := range addrs {
		if a.IsDefault {
			return a, nil
		}
	}
	return Address{}, ErrNoDefault
}
