package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

type OrdersHandler struct {
	tracker OrderTracker
	timeout time.Duration
}

func NewOrdersHandler(tracker OrderTracker, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{tracker: tracker, timeout: timeout}
}

// GET /orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	tracked, err := h.tracker.MyOrders(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tracked)
}

// GET /orders/{id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order id is required")
		return
	}

	tracked, err := h.tracker.Order(ctx, id)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tracked)
}
