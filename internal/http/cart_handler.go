package http

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CartHandler struct {
	cart    CartService
	catalog CatalogService
	timeout time.Duration
}

func NewCartHandler(c CartService, catalog CatalogService, timeout time.Duration) *CartHandler {
	return &CartHandler{cart: c, catalog: catalog, timeout: timeout}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Lines      []domain.CartLine `json:"lines"`
	TotalItems int               `json:"total_items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
}

func cartResponse(c domain.Cart) CartResponseDTO {
	lines := c.Lines
	if lines == nil {
		lines = []domain.CartLine{}
	}
	return CartResponseDTO{
		Lines:      lines,
		TotalItems: c.TotalItems(),
		TotalPrice: c.TotalPrice(),
	}
}

// GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.cart.Snapshot()))
}

// POST /cart/items
// The product is re-read from the catalogue so the stock ceiling reflects
// current inventory rather than whatever the caller sent.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	p, err := h.catalog.Get(ctx, req.ProductID)
	if err != nil {
		handleError(w, err)
		return
	}

	c, err := h.cart.AddItem(ctx, cart.ItemFromProduct(p))
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(c))
}

// PUT /cart/items/{product_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := h.cart.UpdateQuantity(r.Context(), productID, req.Quantity)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(c))
}

// DELETE /cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(h.cart.RemoveItem(r.Context(), productID)))
}

// DELETE /cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, cartResponse(h.cart.Clear(r.Context())))
}
