package payment

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	appOrder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	addrdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/address"
	cartdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cart"
	orderdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	product "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
)

var (
	buyer = auth.Context{SubjectID: "user-1", Role: auth.RoleCustomer}
	admin = auth.Context{SubjectID: "admin-1", Role: auth.RoleAdmin}
)

type seqIDGen struct{ n int }

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("pid-%d", g.n)
}

type fixture struct {
	svc      *Service
	payments *memory.PaymentRepository
	orders   *appOrder.Service
}

// newFixture wires the payment workflow against a real order orchestrator
// over in-memory stores and returns a pending order ready to be paid.
func newFixture(t *testing.T) (*fixture, *orderdomain.Order) {
	t.Helper()

	products := memory.NewProductRepository()
	products.Seed(&product.Product{ID: "p1", Name: "Keyboard", Price: decimal.RequireFromString("49.90"), Stock: 10})

	book := memory.NewAddressBook()
	book.Put(buyer.SubjectID, addrdomain.Address{ID: "a1", Label: "home", City: "Jakarta", IsDefault: true})

	carts := memory.NewCartRepository()
	line, err := cartdomain.NewLine("l1", buyer.SubjectID, "p1", 2, decimal.RequireFromString("49.90"))
	require.NoError(t, err)
	require.NoError(t, carts.Save(context.Background(), line))

	orderSvc := appOrder.NewService(memory.NewOrderRepository(), carts, products, book, &seqIDGen{}, nil)
	o, err := orderSvc.Create(context.Background(), buyer, "")
	require.NoError(t, err)

	payments := memory.NewPaymentRepository()
	f := &fixture{
		svc:      NewService(payments, orderSvc, &seqIDGen{}, nil),
		payments: payments,
		orders:   orderSvc,
	}
	return f, o
}

func TestCreate_SettlesOrder(t *testing.T) {
	f, o := newFixture(t)

	p, err := f.svc.Create(context.Background(), buyer, o.ID, "bank_transfer")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusSuccess, p.Status)
	assert.True(t, p.Amount.Equal(o.TotalAmount), "amount must be copied from the order total")
	assert.Equal(t, domain.MethodBankTransfer, p.Method)

	settled, err := f.orders.Find(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusProcessing, settled.Status)
	assert.Equal(t, p.ID, settled.PaymentID)
}

func TestCreate_OtherUsersOrderIsRejectedWithoutSideEffects(t *testing.T) {
	f, o := newFixture(t)

	other := auth.Context{SubjectID: "user-2", Role: auth.RoleCustomer}
	_, err := f.svc.Create(context.Background(), other, o.ID, "credit_card")
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))

	all, err := f.payments.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "no payment row may persist for a rejected attempt")

	unchanged, err := f.orders.Find(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPending, unchanged.Status)
}

func TestCreate_NonPendingOrder(t *testing.T) {
	f, o := newFixture(t)

	_, err := f.svc.Create(context.Background(), buyer, o.ID, "e_wallet")
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), buyer, o.ID, "e_wallet")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreate_InvalidInputs(t *testing.T) {
	f, o := newFixture(t)

	_, err := f.svc.Create(context.Background(), buyer, o.ID, "cash")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = f.svc.Create(context.Background(), buyer, "missing", "bank_transfer")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGet_OwnershipRules(t *testing.T) {
	f, o := newFixture(t)

	p, err := f.svc.Create(context.Background(), buyer, o.ID, "bank_transfer")
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), buyer, p.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(context.Background(), admin, p.ID)
	assert.NoError(t, err)

	other := auth.Context{SubjectID: "user-2", Role: auth.RoleCustomer}
	_, err = f.svc.Get(context.Background(), other, p.ID)
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestUpdateStatus_TerminalGuard(t *testing.T) {
	f, o := newFixture(t)

	p, err := f.svc.Create(context.Background(), buyer, o.ID, "bank_transfer")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), p.ID, "failed")
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))

	_, err = f.svc.UpdateStatus(context.Background(), p.ID, "refunded")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestStats(t *testing.T) {
	f, o := newFixture(t)

	p, err := f.svc.Create(context.Background(), buyer, o.ID, "bank_transfer")
	require.NoError(t, err)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.TotalTransactions)
	assert.True(t, stats.TotalRevenue.Equal(p.Amount))
	assert.Equal(t, 1, stats.Methods["bank_transfer"])
}
