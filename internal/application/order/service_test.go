package order

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	addrdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/address"
	cartdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cart"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
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
	return fmt.Sprintf("id-%d", g.n)
}

// flakyOrderRepo injects scripted Insert errors before delegating to the
// real in-memory repository.
type flakyOrderRepo struct {
	*memory.OrderRepository
	insertErrs []error
}

func (r *flakyOrderRepo) Insert(ctx context.Context, o *domain.Order) error {
	if len(r.insertErrs) > 0 {
		err := r.insertErrs[0]
		r.insertErrs = r.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	return r.OrderRepository.Insert(ctx, o)
}

// failingLedger fails adjustments of one direction for one product, leaving
// everything else to the real in-memory ledger.
type failingLedger struct {
	*memory.ProductRepository
	failDecreaseFor string
	failIncreaseFor string
}

func (l *failingLedger) Adjust(ctx context.Context, productID string, quantity int, direction product.Direction) (*product.Product, error) {
	if direction == product.DirectionDecrease && productID == l.failDecreaseFor {
		return nil, errors.New("ledger unavailable")
	}
	if direction == product.DirectionIncrease && productID == l.failIncreaseFor {
		return nil, errors.New("ledger unavailable")
	}
	return l.ProductRepository.Adjust(ctx, productID, quantity, direction)
}

type fixture struct {
	svc      *Service
	orders   *memory.OrderRepository
	carts    *memory.CartRepository
	products *memory.ProductRepository
	book     *memory.AddressBook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:   memory.NewOrderRepository(),
		carts:    memory.NewCartRepository(),
		products: memory.NewProductRepository(),
		book:     memory.NewAddressBook(),
	}
	f.products.Seed(&product.Product{ID: "p1", Name: "Keyboard", Price: decimal.RequireFromString("49.90"), Stock: 10})
	f.products.Seed(&product.Product{ID: "p2", Name: "Mouse", Price: decimal.RequireFromString("19.50"), Stock: 5})

	f.book.Put(buyer.SubjectID, addrdomain.Address{ID: "a1", Label: "home", RecipientName: "Ayu", City: "Jakarta", IsDefault: true})
	f.book.Put(buyer.SubjectID, addrdomain.Address{ID: "a2", Label: "office", RecipientName: "Ayu", City: "Bandung"})

	f.svc = NewService(f.orders, f.carts, f.products, f.book, &seqIDGen{}, nil)
	return f
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	// Locked price differs from the current product price on purpose.
	l1, err := cartdomain.NewLine("l1", buyer.SubjectID, "p1", 2, decimal.RequireFromString("45.00"))
	require.NoError(t, err)
	l2, err := cartdomain.NewLine("l2", buyer.SubjectID, "p2", 1, decimal.RequireFromString("19.50"))
	require.NoError(t, err)
	require.NoError(t, f.carts.Save(context.Background(), l1))
	require.NoError(t, f.carts.Save(context.Background(), l2))
}

func (f *fixture) stock(t *testing.T, productID string) int {
	t.Helper()
	p, err := f.products.Get(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func TestCreate_HappyPath(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.RequireFromString("109.50")),
		"total must come from locked cart prices, got %s", o.TotalAmount)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-Z]{4}$`, o.Number)
	assert.Equal(t, "Jakarta", o.ShippingAddress.City, "default address must be snapshotted")

	require.Len(t, o.Items, 2)
	for _, item := range o.Items {
		if item.ProductID == "p1" {
			assert.Equal(t, "Keyboard", item.ProductName)
			assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("45.00")))
		}
	}

	assert.Equal(t, 8, f.stock(t, "p1"))
	assert.Equal(t, 4, f.stock(t, "p2"))

	lines, err := f.carts.FindByUser(context.Background(), buyer.SubjectID)
	require.NoError(t, err)
	assert.Empty(t, lines, "cart must be cleared after checkout")

	persisted, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number, persisted.Number)
}

func TestCreate_ExplicitAddress(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "a2")
	require.NoError(t, err)
	assert.Equal(t, "Bandung", o.ShippingAddress.City)
}

func TestCreate_UnknownAddress(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	_, err := f.svc.Create(context.Background(), buyer, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, 10, f.stock(t, "p1"), "nothing may be reserved when the address fails to resolve")
}

func TestCreate_NoSavedAddresses(t *testing.T) {
	f := newFixture(t)
	stranger := auth.Context{SubjectID: "user-9", Role: auth.RoleCustomer}
	line, err := cartdomain.NewLine("l9", stranger.SubjectID, "p1", 1, decimal.RequireFromString("45.00"))
	require.NoError(t, err)
	require.NoError(t, f.carts.Save(context.Background(), line))

	_, err = f.svc.Create(context.Background(), stranger, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreate_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), buyer, "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestCreate_InsufficientStockFailsBeforeReserving(t *testing.T) {
	f := newFixture(t)
	line, err := cartdomain.NewLine("l1", buyer.SubjectID, "p2", 6, decimal.RequireFromString("19.50"))
	require.NoError(t, err)
	require.NoError(t, f.carts.Save(context.Background(), line))

	_, err = f.svc.Create(context.Background(), buyer, "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	assert.Equal(t, 5, f.stock(t, "p2"))
	lines, err := f.carts.FindByUser(context.Background(), buyer.SubjectID)
	require.NoError(t, err)
	assert.Len(t, lines, 1, "cart must survive a failed checkout")

	all, err := f.orders.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_ReserveFailureRestoresEarlierReservations(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	f.svc.ledger = &failingLedger{ProductRepository: f.products, failDecreaseFor: "p2"}

	_, err := f.svc.Create(context.Background(), buyer, "")
	require.Error(t, err)

	assert.Equal(t, 10, f.stock(t, "p1"), "the first reservation must be rolled back")
	assert.Equal(t, 5, f.stock(t, "p2"))

	all, err := f.orders.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_PersistFailureCompensatesStock(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	f.svc.orders = &flakyOrderRepo{OrderRepository: f.orders, insertErrs: []error{errors.New("store down")}}

	_, err := f.svc.Create(context.Background(), buyer, "")
	require.Error(t, err)

	assert.Equal(t, 10, f.stock(t, "p1"))
	assert.Equal(t, 5, f.stock(t, "p2"))

	lines, err := f.carts.FindByUser(context.Background(), buyer.SubjectID)
	require.NoError(t, err)
	assert.Len(t, lines, 2, "cart must not be cleared when the order never persisted")
}

func TestCreate_RetriesOnceOnNumberConflict(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	f.svc.orders = &flakyOrderRepo{OrderRepository: f.orders, insertErrs: []error{domain.ErrConflict}}

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)

	persisted, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, persisted.Status)
}

func TestCancel_RestoresStock(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)
	require.Equal(t, 8, f.stock(t, "p1"))

	cancelled, err := f.svc.Cancel(context.Background(), buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.stock(t, "p1"))
	assert.Equal(t, 5, f.stock(t, "p2"))

	_, err = f.svc.Cancel(context.Background(), buyer, o.ID)
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))
	assert.Equal(t, 10, f.stock(t, "p1"), "a rejected cancel must not restore stock twice")
}

func TestCancel_PartialRestoreFailureLeavesOrderPending(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)
	require.Equal(t, 8, f.stock(t, "p1"))
	require.Equal(t, 4, f.stock(t, "p2"))

	f.svc.ledger = &failingLedger{ProductRepository: f.products, failIncreaseFor: "p1"}

	_, err = f.svc.Cancel(context.Background(), buyer, o.ID)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))

	persisted, err := f.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, persisted.Status, "a failed restore must not transition the order")

	assert.Equal(t, 8, f.stock(t, "p1"))
	assert.Equal(t, 5, f.stock(t, "p2"), "the healthy item must still be restored")

	// With the ledger healthy again the retry goes through.
	f.svc.ledger = f.products
	cancelled, err := f.svc.Cancel(context.Background(), buyer, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
	assert.Equal(t, 10, f.stock(t, "p1"))
}

func TestCancel_OtherUsersOrderIsNotFound(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)

	other := auth.Context{SubjectID: "user-2", Role: auth.RoleCustomer}
	_, err = f.svc.Cancel(context.Background(), other, o.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	cancelled, err := f.svc.Cancel(context.Background(), admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, cancelled.Status)
}

func TestConfirmPayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmPayment(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, confirmed.Status)

	_, err = f.svc.ConfirmPayment(context.Background(), o.ID)
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, "shipped")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	updated, err := f.svc.UpdateStatus(context.Background(), o.ID, "cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, updated.Status)
	assert.Equal(t, 10, f.stock(t, "p1"), "admin cancellation must restore stock")

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, "processing")
	assert.Equal(t, apperr.KindState, apperr.KindOf(err))
}

func TestHasPurchased(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)

	got, err := f.svc.HasPurchased(context.Background(), buyer.SubjectID, "p1")
	require.NoError(t, err)
	assert.False(t, got, "a pending order is not a purchase")

	_, err = f.svc.UpdateStatus(context.Background(), o.ID, "completed")
	require.NoError(t, err)

	got, err = f.svc.HasPurchased(context.Background(), buyer.SubjectID, "p1")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = f.svc.HasPurchased(context.Background(), buyer.SubjectID, "p9")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestGet_OwnershipRules(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)

	o, err := f.svc.Create(context.Background(), buyer, "")
	require.NoError(t, err)

	_, err = f.svc.Get(context.Background(), buyer, o.ID)
	assert.NoError(t, err)

	_, err = f.svc.Get(context.Background(), admin, o.ID)
	assert.NoError(t, err)

	other := auth.Context{SubjectID: "user-2", Role: auth.RoleCustomer}
	_, err = f.svc.Get(context.Background(), other, o.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
