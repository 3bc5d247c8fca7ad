package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/export"
	"github.com/fjod/go_cart/storefront/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

const maxImageMemory = 8 << 20

type AdminHandler struct {
	board    OrderBoard
	catalog  CatalogService
	products ProductAdmin
	session  SessionService
	timeout  time.Duration
	log      *slog.Logger
}

func NewAdminHandler(board OrderBoard, c CatalogService, products ProductAdmin, session SessionService, timeout time.Duration, log *slog.Logger) *AdminHandler {
	return &AdminHandler{
		board:    board,
		catalog:  c,
		products: products,
		session:  session,
		timeout:  timeout,
		log:      log,
	}
}

type UpdateStatusRequestDTO struct {
	Status string `json:"status"`
}

type TransitionsDTO struct {
	OrderID  string               `json:"order_id"`
	Status   domain.OrderStatus   `json:"status"`
	Next     []domain.OrderStatus `json:"next"`
	Terminal bool                 `json:"terminal"`
	Progress *int                 `json:"progress,omitempty"`
}

// GET /admin/orders?status=&q=
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var f orders.Filter
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ParseOrderStatus(s)
		if err != nil {
			handleError(w, err)
			return
		}
		f.Status = status
	}
	f.Search = r.URL.Query().Get("q")

	if _, err := h.board.Refresh(ctx); err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.board.Orders(f))
}

// loadedOrder returns the order from the board, refreshing once when the
// board has not seen it yet.
func (h *AdminHandler) loadedOrder(ctx context.Context, id string) (domain.Order, error) {
	if o, ok := h.board.Order(id); ok {
		return o, nil
	}
	if _, err := h.board.Refresh(ctx); err != nil {
		return domain.Order{}, err
	}
	if o, ok := h.board.Order(id); ok {
		return o, nil
	}
	return domain.Order{}, fmt.Errorf("%w: %s", orders.ErrOrderNotFound, id)
}

// GET /admin/orders/{id}/transitions
func (h *AdminHandler) Transitions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	o, err := h.loadedOrder(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return
	}

	dto := TransitionsDTO{
		OrderID:  o.ID,
		Status:   o.Status,
		Next:     domain.LegalNextStatuses(o.Status),
		Terminal: o.Status.IsTerminal(),
	}
	if p, ok := o.Status.Progress(); ok {
		dto.Progress = &p
	}
	respondJSON(w, http.StatusOK, dto)
}

// PATCH /admin/orders/{id}/status
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req UpdateStatusRequestDTO
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	target, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		handleError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := h.loadedOrder(ctx, id); err != nil {
		handleError(w, err)
		return
	}

	o, err := h.board.UpdateStatus(ctx, id, target)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, o)
}

// GET /admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	stats, err := h.board.Stats(ctx)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func attachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Header().Set("Content-Type", export.ContentType)
}

// GET /admin/products/export
func (h *AdminHandler) ExportProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.catalog.List(ctx, catalog.Filter{})
	if err != nil {
		handleError(w, err)
		return
	}

	attachment(w, "products.xlsx")
	if err := export.WriteProducts(w, products); err != nil {
		h.log.ErrorContext(ctx, "product export failed", "error", err)
	}
}

// GET /admin/orders/export
func (h *AdminHandler) ExportOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	all, err := h.board.Refresh(ctx)
	if err != nil {
		handleError(w, err)
		return
	}

	attachment(w, "orders.xlsx")
	if err := export.WriteOrders(w, all); err != nil {
		h.log.ErrorContext(ctx, "order export failed", "error", err)
	}
}

// POST /admin/products
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form, cleanup, err := parseProductForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return
	}
	defer cleanup()

	p, err := h.products.CreateProduct(ctx, h.session.Token(), form)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

// PUT /admin/products/{id}
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	form, cleanup, err := parseProductForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product", err.Error())
		return
	}
	defer cleanup()

	p, err := h.products.UpdateProduct(ctx, h.session.Token(), chi.URLParam(r, "id"), form)
	if err != nil {
		handleError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// DELETE /admin/products/{id}
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.products.DeleteProduct(ctx, h.session.Token(), chi.URLParam(r, "id")); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseProductForm reads the multipart product form. The returned cleanup
// closes the uploaded files and must be called once the form is sent.
func parseProductForm(r *http.Request) (client.ProductForm, func(), error) {
	noop := func() {}
	if err := r.ParseMultipartForm(maxImageMemory); err != nil {
		return client.ProductForm{}, noop, fmt.Errorf("invalid multipart form: %w", err)
	}

	form := client.ProductForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Category:    domain.Category(r.FormValue("category")),
		Description: r.FormValue("description"),
		Origin:      r.FormValue("origin"),
		Quality:     r.FormValue("quality"),
		Storage:     r.FormValue("storage"),
		Packaging:   r.FormValue("packaging"),
		Weight:      r.FormValue("weight"),
	}

	var err error
	if v := r.FormValue("price"); v != "" {
		if form.Price, err = decimal.NewFromString(strings.TrimSpace(v)); err != nil {
			return client.ProductForm{}, noop, errors.New("price must be a number")
		}
	}
	if v := r.FormValue("stock"); v != "" {
		if form.Stock, err = strconv.Atoi(strings.TrimSpace(v)); err != nil {
			return client.ProductForm{}, noop, errors.New("stock must be an integer")
		}
	}

	var opened []multipart.File
	cleanup := func() {
		for _, f := range opened {
			f.Close()
		}
	}
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return client.ProductForm{}, noop, fmt.Errorf("open image %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		form.Images = append(form.Images, client.Image{Filename: fh.Filename, Content: f})
	}
	return form, cleanup, nil
}
