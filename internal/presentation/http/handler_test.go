package httppresentation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appCart "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/cart"
	appOrder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	appPayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	appWishlist "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/wishlist"
	addrdomain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/address"
	product "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
)

const testSecret = "test-secret"

type seqIDGen struct{ n int }

func (g *seqIDGen) NewID() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	products := memory.NewProductRepository()
	products.Seed(&product.Product{ID: "p1", Name: "Keyboard", Price: decimal.RequireFromString("49.90"), Stock: 10})

	book := memory.NewAddressBook()
	book.Put("user-1", addrdomain.Address{ID: "a1", Label: "home", RecipientName: "Ayu", City: "Jakarta", IsDefault: true})

	carts := memory.NewCartRepository()
	orders := memory.NewOrderRepository()
	payments := memory.NewPaymentRepository()
	idGen := &seqIDGen{}

	cartSvc := appCart.NewService(carts, products, idGen, nil)
	orderSvc := appOrder.NewService(orders, carts, products, book, idGen, nil)
	paymentSvc := appPayment.NewService(payments, orderSvc, idGen, nil)
	wishlistSvc := appWishlist.NewService(memory.NewWishlistRepository(), products, idGen, nil)

	return NewHandler(cartSvc, orderSvc, paymentSvc, wishlistSvc, testSecret, nil, nil).Router()
}

type header struct{ key, value string }

func asUser(id string) []header {
	return []header{{"X-User-ID", id}, {"X-User-Role", "customer"}}
}

func asAdmin() []header {
	return []header{{"X-User-ID", "admin-1"}, {"X-User-Role", "admin"}}
}

func do(t *testing.T, router http.Handler, method, path string, body any, headers ...header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		req.Header.Set(h.key, h.value)
	}

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rr.Body).Decode(dst))
}

func TestCheckoutFlow(t *testing.T) {
	router := newRouter(t)
	user := asUser("user-1")

	rr := do(t, router, http.MethodPost, "/cart", map[string]any{"productId": "p1", "quantity": 2}, user...)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = do(t, router, http.MethodGet, "/cart", nil, user...)
	require.Equal(t, http.StatusOK, rr.Code)
	var lines []map[string]any
	decode(t, rr, &lines)
	require.Len(t, lines, 1)

	rr = do(t, router, http.MethodPost, "/orders", map[string]any{"shippingAddressId": ""}, user...)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Number string `json:"orderNumber"`
	}
	decode(t, rr, &created)
	assert.Equal(t, "pending", created.Status)
	assert.Regexp(t, `^ORD-\d{8}-[0-9A-Z]{4}$`, created.Number)

	rr = do(t, router, http.MethodGet, "/cart", nil, user...)
	require.Equal(t, http.StatusOK, rr.Code)
	lines = nil
	decode(t, rr, &lines)
	assert.Empty(t, lines, "checkout must clear the cart")

	rr = do(t, router, http.MethodPost, "/payments",
		map[string]any{"orderId": created.ID, "paymentMethod": "bank_transfer"}, user...)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var paid struct {
		Status string `json:"status"`
		Amount string `json:"amount"`
	}
	decode(t, rr, &paid)
	assert.Equal(t, "success", paid.Status)
	amount, err := decimal.NewFromString(paid.Amount)
	require.NoError(t, err)
	assert.True(t, amount.Equal(decimal.RequireFromString("99.80")), "amount %s", paid.Amount)

	rr = do(t, router, http.MethodGet, "/orders/"+created.ID, nil, user...)
	require.Equal(t, http.StatusOK, rr.Code)
	var fetched struct {
		Status    string `json:"status"`
		PaymentID string `json:"paymentId"`
	}
	decode(t, rr, &fetched)
	assert.Equal(t, "processing", fetched.Status)
	assert.NotEmpty(t, fetched.PaymentID)
}

func TestIdentityRequired(t *testing.T) {
	router := newRouter(t)

	rr := do(t, router, http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestInternalSecretGuard(t *testing.T) {
	router := newRouter(t)
	user := asUser("user-1")

	do(t, router, http.MethodPost, "/cart", map[string]any{"productId": "p1", "quantity": 1}, user...)
	rr := do(t, router, http.MethodPost, "/orders", map[string]any{}, user...)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rr, &created)

	rr = do(t, router, http.MethodPut, "/orders/"+created.ID+"/confirm-payment", nil, user...)
	assert.Equal(t, http.StatusForbidden, rr.Code, "missing secret must be rejected")

	rr = do(t, router, http.MethodPut, "/orders/"+created.ID+"/confirm-payment", nil,
		header{"X-Internal-Secret", testSecret})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var confirmed struct {
		Status string `json:"status"`
	}
	decode(t, rr, &confirmed)
	assert.Equal(t, "processing", confirmed.Status)
}

func TestAdminGuard(t *testing.T) {
	router := newRouter(t)
	user := asUser("user-1")

	do(t, router, http.MethodPost, "/cart", map[string]any{"productId": "p1", "quantity": 1}, user...)
	rr := do(t, router, http.MethodPost, "/orders", map[string]any{}, user...)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rr, &created)

	rr = do(t, router, http.MethodPatch, "/orders/"+created.ID+"/status",
		map[string]any{"status": "completed"}, user...)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = do(t, router, http.MethodPatch, "/orders/"+created.ID+"/status",
		map[string]any{"status": "completed"}, asAdmin()...)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var updated struct {
		Status string `json:"status"`
	}
	decode(t, rr, &updated)
	assert.Equal(t, "completed", updated.Status)
}

func TestErrorMapping(t *testing.T) {
	router := newRouter(t)
	user := asUser("user-1")

	rr := do(t, router, http.MethodGet, "/orders/missing", nil, user...)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodPost, "/orders", map[string]any{}, user...)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "empty cart must map to 400")

	rr = do(t, router, http.MethodPost, "/cart", map[string]any{"productId": "p1", "quantity": 99}, user...)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "insufficient stock must map to 400")

	other := asUser("user-2")
	do(t, router, http.MethodPost, "/cart", map[string]any{"productId": "p1", "quantity": 1}, user...)
	rr = do(t, router, http.MethodPost, "/orders", map[string]any{}, user...)
	require.Equal(t, http.StatusCreated, rr.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, rr, &created)

	rr = do(t, router, http.MethodPost, "/payments",
		map[string]any{"orderId": created.ID, "paymentMethod": "bank_transfer"}, other...)
	assert.Equal(t, http.StatusForbidden, rr.Code, "paying another user's order must map to 403")

	rr = do(t, router, http.MethodGet, "/orders/"+created.ID, nil, other...)
	assert.Equal(t, http.StatusNotFound, rr.Code, "other user's order reads as missing")
}

func TestWishlistFlow(t *testing.T) {
	router := newRouter(t)
	user := asUser("user-1")

	rr := do(t, router, http.MethodPost, "/wishlists", map[string]any{"productId": "p1"}, user...)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created struct {
		ID        string `json:"id"`
		ProductID string `json:"productId"`
	}
	decode(t, rr, &created)
	assert.Equal(t, "p1", created.ProductID)

	rr = do(t, router, http.MethodPost, "/wishlists", map[string]any{"productId": "p1"}, user...)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "duplicate product must be rejected")

	rr = do(t, router, http.MethodPost, "/wishlists", map[string]any{"productId": "p9"}, user...)
	assert.Equal(t, http.StatusNotFound, rr.Code, "unknown product must map to 404")

	rr = do(t, router, http.MethodGet, "/wishlists", nil, user...)
	require.Equal(t, http.StatusOK, rr.Code)
	var items []map[string]any
	decode(t, rr, &items)
	require.Len(t, items, 1)

	other := asUser("user-2")
	rr = do(t, router, http.MethodGet, "/wishlists/"+created.ID, nil, other...)
	assert.Equal(t, http.StatusNotFound, rr.Code, "another user's item reads as missing")

	rr = do(t, router, http.MethodDelete, "/wishlists/"+created.ID, nil, user...)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(t, router, http.MethodGet, "/wishlists", nil, user...)
	require.Equal(t, http.StatusOK, rr.Code)
	items = nil
	decode(t, rr, &items)
	assert.Empty(t, items)
}

func TestHealth(t *testing.T) {
	router := newRouter(t)
	rr := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}
