package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

// Orders is the outbound port into the order ledger. The payment workflow
// reads the order to check ownership and amount, confirms it after the
// payment row exists, and stamps the payment id back.
type Orders interface {
	Find(ctx context.Context, orderID string) (*order.Order, error)
	ConfirmPayment(ctx context.Context, orderID string) (*order.Order, error)
	AttachPayment(ctx context.Context, orderID, paymentID string) error
}
