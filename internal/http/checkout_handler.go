package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

type CheckoutHandler struct {
	checkout CheckoutService
	cart     CartService
	timeout  time.Duration
}

func NewCheckoutHandler(co CheckoutService, c CartService, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{checkout: co, cart: c, timeout: timeout}
}

type PlaceOrderRequestDTO struct {
	ShippingInfo  domain.ShippingInfo  `json:"shippingInfo"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

type CheckoutViewDTO struct {
	Lines []domain.CartLine `json:"lines"`
	Quote checkout.Quote    `json:"quote"`
}

// GET /checkout
func (h *CheckoutHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	lines := h.cart.Snapshot().Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	respondJSON(w, http.StatusOK, CheckoutViewDTO{Lines: lines, Quote: h.checkout.Quote()})
}

// POST /checkout
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PlaceOrderRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = domain.PaymentMethodCashOnDelivery
	}

	order, err := h.checkout.PlaceOrder(ctx, req.ShippingInfo, req.PaymentMethod)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, order)
}
