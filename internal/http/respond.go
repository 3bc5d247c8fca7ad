package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins, so narrower errors come before the
// broad client.ErrRemoteCall.
var errorMappings = []errorMapping{
	{cart.ErrOutOfStock, http.StatusConflict, "out_of_stock"},
	{cart.ErrStockLimitExceeded, http.StatusConflict, "stock_limit_exceeded"},
	{cart.ErrInvalidItem, http.StatusBadRequest, "invalid_item"},
	{orders.ErrIllegalTransition, http.StatusConflict, "illegal_transition"},
	{orders.ErrUpdateInFlight, http.StatusConflict, "update_in_progress"},
	{catalog.ErrProductNotFound, http.StatusNotFound, "product_not_found"},
	{orders.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
	{checkout.ErrEmptyCart, http.StatusBadRequest, "empty_cart"},
	{checkout.ErrInvalidShipping, http.StatusBadRequest, "invalid_shipping"},
	{checkout.ErrInvalidPaymentMethod, http.StatusBadRequest, "invalid_payment_method"},
	{client.ErrInvalidProductForm, http.StatusBadRequest, "invalid_product"},
	{domain.ErrUnknownStatus, http.StatusBadRequest, "unknown_status"},
	{session.ErrInvalidCredential, http.StatusUnauthorized, "invalid_credential"},
	{session.ErrInvalidEmail, http.StatusBadRequest, "invalid_email"},
	{session.ErrSessionExpired, http.StatusUnauthorized, "session_expired"},
	{orders.ErrNotSignedIn, http.StatusUnauthorized, "unauthenticated"},
	{checkout.ErrNotSignedIn, http.StatusUnauthorized, "unauthenticated"},
	{client.ErrUnauthorized, http.StatusUnauthorized, "unauthenticated"},
	{client.ErrNotFound, http.StatusNotFound, "not_found"},
	{client.ErrInvalidPayload, http.StatusBadGateway, "invalid_upstream_payload"},
	{client.ErrUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
	{client.ErrRemoteCall, http.StatusBadGateway, "upstream_error"},
}

// handleError converts a service error into an ErrorResponse.
func handleError(w http.ResponseWriter, err error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			msg := client.Message(err)
			if msg == "" {
				msg = err.Error()
			}
			respondError(w, m.status, m.code, msg)
			return
		}
	}
	slog.Error("unhandled error", "error", err)
	respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}
