package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/go-chi/chi/v5"
)

const relatedLimit = 4

type ProductHandler struct {
	catalog CatalogService
	timeout time.Duration
}

func NewProductHandler(c CatalogService, timeout time.Duration) *ProductHandler {
	return &ProductHandler{catalog: c, timeout: timeout}
}

type ProductDetailDTO struct {
	Product domain.Product   `json:"product"`
	Related []domain.Product `json:"related"`
}

// GET /products?category=&q=&limit=&in_stock=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()
	f := catalog.Filter{
		Category: domain.Category(q.Get("category")),
		Search:   q.Get("q"),
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		f.Limit = limit
	}
	if v := q.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_in_stock", "in_stock must be a boolean")
			return
		}
		f.InStockOnly = inStock
	}

	products, err := h.catalog.List(ctx, f)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, products)
}

// GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	p, err := h.catalog.Get(ctx, id)
	if err != nil {
		handleError(w, err)
		return
	}

	related, err := h.catalog.Related(ctx, p, relatedLimit)
	if err != nil {
		// the product itself loaded; an empty strip is good enough
		related = []domain.Product{}
	}
	respondJSON(w, http.StatusOK, ProductDetailDTO{Product: p, Related: related})
}
