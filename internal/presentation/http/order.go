package httppresentation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	domainOrder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

type orderItemResponse struct {
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductImageURL string          `json:"productImageUrl"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type shippingAddressResponse struct {
	Label         string `json:"label"`
	RecipientName string `json:"recipientName"`
	PhoneNumber   string `json:"phoneNumber"`
	Street        string `json:"street"`
	City          string `json:"city"`
	Province      string `json:"province"`
	PostalCode    string `json:"postalCode"`
}

type orderResponse struct {
	ID              string                  `json:"id"`
	Number          string                  `json:"orderNumber"`
	UserID          string                  `json:"userId"`
	Items           []orderItemResponse     `json:"items"`
	TotalAmount     decimal.Decimal         `json:"totalAmount"`
	Status          domainOrder.Status      `json:"status"`
	PaymentID       string                  `json:"paymentId,omitempty"`
	ShippingAddress shippingAddressResponse `json:"shippingAddress"`
	CreatedAt       time.Time               `json:"createdAt"`
	UpdatedAt       time.Time               `json:"updatedAt"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			ProductImageURL: item.ProductImageURL,
			Quantity:        item.Quantity,
			UnitPrice:       item.UnitPrice,
			Subtotal:        item.Subtotal(),
		})
	}
	return orderResponse{
		ID:          o.ID,
		Number:      o.Number,
		UserID:      o.UserID,
		Items:       items,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		PaymentID:   o.PaymentID,
		ShippingAddress: shippingAddressResponse{
			Label:         o.ShippingAddress.Label,
			RecipientName: o.ShippingAddress.RecipientName,
			PhoneNumber:   o.ShippingAddress.PhoneNumber,
			Street:        o.ShippingAddress.Street,
			City:          o.ShippingAddress.City,
			Province:      o.ShippingAddress.Province,
			PostalCode:    o.ShippingAddress.PostalCode,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func toOrderResponses(orders []*domainOrder.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	return resp
}

type createOrderRequest struct {
	ShippingAddressID string `json:"shippingAddressId"`
}

func (h *Handler) handleOrderCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orderService.Create(r.Context(), auth.FromContext(r.Context()), req.ShippingAddressID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) handleOrderList(w http.ResponseWriter, r *http.Request) {
	actor := auth.FromContext(r.Context())

	var (
		orders []*domainOrder.Order
		err    error
	)
	if actor.IsAdmin() {
		orders, err = h.orderService.ListAll(r.Context())
	} else {
		orders, err = h.orderService.ListByUser(r.Context(), actor.SubjectID)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponses(orders))
}

func (h *Handler) handleOrderGet(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderService.Get(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleOrderCheckPurchase(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")
	if productID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	purchased, err := h.orderService.HasPurchased(r.Context(), auth.FromContext(r.Context()).SubjectID, productID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"hasPurchased": purchased})
}

func (h *Handler) handleOrderCancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderService.Cancel(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleOrderConfirmPayment(w http.ResponseWriter, r *http.Request) {
	o, err := h.orderService.ConfirmPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleOrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateOrderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.orderService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) handleOrderRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.orderService.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
