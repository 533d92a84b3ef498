package httppresentation

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	appCart "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/cart"
	appOrder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	appPayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	appWishlist "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/wishlist"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	headerUserID         = "X-User-ID"
	headerUserEmail      = "X-User-Email"
	headerUserRole       = "X-User-Role"
	headerInternalSecret = "X-Internal-Secret"
)

type Handler struct {
	cartService     *appCart.Service
	orderService    *appOrder.Service
	paymentService  *appPayment.Service
	wishlistService *appWishlist.Service

	internalSecret string
	metrics        http.Handler

	log observability.Logger
	tel observability.Telemetry
}

func NewHandler(
	cartSvc *appCart.Service,
	orderSvc *appOrder.Service,
	paymentSvc *appPayment.Service,
	wishlistSvc *appWishlist.Service,
	internalSecret string,
	metrics http.Handler,
	tel observability.Telemetry,
) *Handler {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Handler{
		cartService:     cartSvc,
		orderService:    orderSvc,
		paymentService:  paymentSvc,
		wishlistService: wishlistSvc,
		internalSecret:  internalSecret,
		metrics:         metrics,
		log:             tel.Logger().With(observability.F("component", componentHTTPHandler)),
		tel:             tel,
	}
}

// Router wires every route behind the same middleware chain:
// Trace → request logger → HTTP metrics → access log → identity → handler.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(h.withTrace)
	r.Use(h.withRequestLogger)
	r.Use(h.withHTTPMetrics)
	r.Use(h.withAccessLog)
	r.Use(h.withIdentity)

	r.Get("/health", h.handleHealth)
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics)
	}

	r.Route("/cart", func(r chi.Router) {
		r.Use(h.requireUser)
		r.Post("/", h.handleCartAdd)
		r.Get("/", h.handleCartList)
		r.Patch("/{id}", h.handleCartUpdate)
		r.Delete("/{id}", h.handleCartRemove)
	})

	r.Route("/orders", func(r chi.Router) {
		r.Put("/{id}/confirm-payment", h.requireInternal(h.handleOrderConfirmPayment))

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)
			r.Post("/", h.handleOrderCreate)
			r.Get("/", h.handleOrderList)
			r.Get("/check-purchase", h.handleOrderCheckPurchase)
			r.Get("/{id}", h.handleOrderGet)
			r.Post("/{id}/cancel", h.handleOrderCancel)
			r.Patch("/{id}/status", h.requireAdmin(h.handleOrderUpdateStatus))
			r.Delete("/{id}", h.requireAdmin(h.handleOrderRemove))
		})
	})

	r.Route("/payments", func(r chi.Router) {
		r.Use(h.requireUser)
		r.Post("/", h.handlePaymentCreate)
		r.Get("/", h.handlePaymentList)
		r.Get("/stats", h.requireAdmin(h.handlePaymentStats))
		r.Get("/{id}", h.handlePaymentGet)
		r.Patch("/{id}/status", h.requireAdmin(h.handlePaymentUpdateStatus))
	})

	r.Route("/wishlists", func(r chi.Router) {
		r.Use(h.requireUser)
		r.Post("/", h.handleWishlistAdd)
		r.Get("/", h.handleWishlistList)
		r.Get("/{id}", h.handleWishlistGet)
		r.Delete("/{id}", h.handleWishlistRemove)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps the error taxonomy onto HTTP statuses. Unknown errors
// never leak their internals to the client.
func writeAppError(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation, apperr.KindConflict, apperr.KindState:
		writeError(w, http.StatusBadRequest, apperr.Message(err, "bad request"))
	case apperr.KindNotFound:
		writeError(w, http.StatusNotFound, apperr.Message(err, "not found"))
	case apperr.KindAuthorization:
		writeError(w, http.StatusForbidden, apperr.Message(err, "forbidden"))
	case apperr.KindUpstream:
		writeError(w, http.StatusBadGateway, apperr.Message(err, "upstream failure"))
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
