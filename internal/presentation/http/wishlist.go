package httppresentation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	domainWishlist "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/wishlist"
)

type wishlistItemResponse struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

func toWishlistItemResponse(item *domainWishlist.Item) wishlistItemResponse {
	return wishlistItemResponse{
		ID:        item.ID,
		ProductID: item.ProductID,
		CreatedAt: item.CreatedAt,
	}
}

type addWishlistItemRequest struct {
	ProductID string `json:"productId"`
}

func (h *Handler) handleWishlistAdd(w http.ResponseWriter, r *http.Request) {
	var req addWishlistItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.wishlistService.Add(r.Context(), auth.FromContext(r.Context()), req.ProductID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWishlistItemResponse(item))
}

func (h *Handler) handleWishlistList(w http.ResponseWriter, r *http.Request) {
	items, err := h.wishlistService.List(r.Context(), auth.FromContext(r.Context()))
	if err != nil {
		writeAppError(w, err)
		return
	}

	resp := make([]wishlistItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toWishlistItemResponse(item))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleWishlistGet(w http.ResponseWriter, r *http.Request) {
	item, err := h.wishlistService.Get(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWishlistItemResponse(item))
}

func (h *Handler) handleWishlistRemove(w http.ResponseWriter, r *http.Request) {
	if err := h.wishlistService.Remove(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
