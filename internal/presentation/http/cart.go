package httppresentation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	domainCart "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/cart"
)

type cartLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func toCartLineResponse(line *domainCart.Line) cartLineResponse {
	return cartLineResponse{
		ID:        line.ID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		Subtotal:  line.Subtotal(),
		CreatedAt: line.CreatedAt,
		UpdatedAt: line.UpdatedAt,
	}
}

type addCartLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	var req addCartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.cartService.Add(r.Context(), auth.FromContext(r.Context()), req.ProductID, req.Quantity)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartLineResponse(line))
}

func (h *Handler) handleCartList(w http.ResponseWriter, r *http.Request) {
	lines, err := h.cartService.List(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	resp := make([]cartLineResponse, 0, len(lines))
	for _, line := range lines {
		resp = append(resp, toCartLineResponse(line))
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateCartLineRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateCartLineRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	line, err := h.cartService.Update(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"), req.Quantity)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartLineResponse(line))
}

func (h *Handler) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.cartService.Remove(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
