package httppresentation

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/auth"
	domainPayment "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
)

type paymentResponse struct {
	ID        string               `json:"id"`
	OrderID   string               `json:"orderId"`
	UserID    string               `json:"userId"`
	Amount    decimal.Decimal      `json:"amount"`
	Method    domainPayment.Method `json:"paymentMethod"`
	Status    domainPayment.Status `json:"status"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

func toPaymentResponse(p *domainPayment.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		UserID:    p.UserID,
		Amount:    p.Amount,
		Method:    p.Method,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

type createPaymentRequest struct {
	OrderID string `json:"orderId"`
	Method  string `json:"paymentMethod"`
}

func (h *Handler) handlePaymentCreate(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.paymentService.Create(r.Context(), auth.FromContext(r.Context()), req.OrderID, req.Method)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (h *Handler) handlePaymentList(w http.ResponseWriter, r *http.Request) {
	actor := auth.FromContext(r.Context())

	var (
		payments []*domainPayment.Payment
		err      error
	)
	if actor.IsAdmin() {
		payments, err = h.paymentService.ListAll(r.Context())
	} else {
		payments, err = h.paymentService.ListByUser(r.Context(), actor.SubjectID)
	}
	if err != nil {
		writeAppError(w, err)
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		resp = append(resp, toPaymentResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePaymentGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.paymentService.Get(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

type updatePaymentStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handlePaymentUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updatePaymentStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.paymentService.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (h *Handler) handlePaymentStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.paymentService.Stats(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
