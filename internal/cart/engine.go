// Package cart is the shopper's cart: one line per product, quantities
// bounded by stock, persisted to local storage after every change.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrStockLimitExceeded = errors.New("stock limit exceeded")
	ErrInvalidItem        = errors.New("invalid cart item")
)

// Item is what a view hands to AddItem: the product as currently listed.
type Item struct {
	ProductID string
	Title     string
	ImageURL  string
	UnitPrice decimal.Decimal
	Stock     int
}

func ItemFromProduct(p domain.Product) Item {
	return Item{
		ProductID: p.ID,
		Title:     p.Title,
		ImageURL:  p.PrimaryImage(),
		UnitPrice: p.Price,
		Stock:     p.Stock,
	}
}

type Engine struct {
	mu   sync.Mutex
	cart domain.Cart

	store    storage.Store
	notifier notify.Notifier
	log      *slog.Logger
}

func NewEngine(store storage.Store, notifier notify.Notifier, log *slog.Logger) *Engine {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Engine{
		cart:     domain.Cart{Lines: []domain.CartLine{}},
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

// Restore loads the persisted cart. Unreadable or inconsistent content
// leaves the cart empty and is only logged.
func (e *Engine) Restore(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cart = domain.Cart{Lines: []domain.CartLine{}}

	var lines []domain.CartLine
	err := storage.LoadJSON(ctx, e.store, storage.KeyCart, &lines)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return
	case err != nil:
		e.log.WarnContext(ctx, "cart snapshot unreadable, starting empty", "error", err)
		return
	}

	if err := validate(lines); err != nil {
		e.log.WarnContext(ctx, "cart snapshot inconsistent, starting empty",
			"error", fmt.Errorf("%w: %w", storage.ErrMalformedState, err))
		return
	}
	if len(lines) > 0 {
		e.cart.Lines = lines
	}
	e.log.DebugContext(ctx, "cart restored", "lines", len(lines))
}

func validate(lines []domain.CartLine) error {
	seen := make(map[string]struct{}, len(lines))
	for i, l := range lines {
		if !l.Valid() {
			return fmt.Errorf("line %d (%q) violates quantity bounds", i, l.ProductID)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("duplicate line for %q", l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

// AddItem adds one unit of item, merging into an existing line for the
// same product. The line's stock ceiling follows the latest known stock.
func (e *Engine) AddItem(ctx context.Context, item Item) (domain.Cart, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if item.ProductID == "" || item.UnitPrice.IsNegative() {
		return e.snapshot(), ErrInvalidItem
	}

	idx := e.cart.Find(item.ProductID)
	if idx < 0 {
		if item.Stock < 1 {
			e.notify("Out of stock", fmt.Sprintf("%s is currently out of stock", item.Title), notify.SeverityDestructive)
			return e.snapshot(), fmt.Errorf("%w: %s", ErrOutOfStock, item.ProductID)
		}
		e.cart.Lines = append(e.cart.Lines, domain.CartLine{
			ProductID:    item.ProductID,
			Title:        item.Title,
			ImageURL:     item.ImageURL,
			UnitPrice:    item.UnitPrice,
			Quantity:     1,
			StockCeiling: item.Stock,
		})
		e.persist(ctx)
		e.notify("Added to cart", fmt.Sprintf("%s added to your cart", item.Title), notify.SeveritySuccess)
		return e.snapshot(), nil
	}

	line := &e.cart.Lines[idx]
	if line.Quantity+1 > item.Stock {
		e.notify("Stock limit reached", stockMessage(line.Title, item.Stock), notify.SeverityDestructive)
		return e.snapshot(), fmt.Errorf("%w: %s has %d in stock", ErrStockLimitExceeded, item.ProductID, item.Stock)
	}
	line.Quantity++
	line.StockCeiling = item.Stock
	e.persist(ctx)
	e.notify("Item already in cart", fmt.Sprintf("Increased quantity of %s", line.Title), notify.SeverityInfo)
	return e.snapshot(), nil
}

// RemoveItem drops the line for productID; a missing line is not an error.
func (e *Engine) RemoveItem(ctx context.Context, productID string) domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.cart.Find(productID)
	if idx < 0 {
		return e.snapshot()
	}
	title := e.cart.Lines[idx].Title
	e.cart.Lines = append(e.cart.Lines[:idx], e.cart.Lines[idx+1:]...)
	e.persist(ctx)
	e.notify("Removed from cart", fmt.Sprintf("%s removed from your cart", title), notify.SeverityInfo)
	return e.snapshot()
}

// UpdateQuantity sets the quantity of an existing line. Quantities below
// one and unknown products are ignored.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, quantity int) (domain.Cart, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if quantity < 1 {
		return e.snapshot(), nil
	}
	idx := e.cart.Find(productID)
	if idx < 0 {
		return e.snapshot(), nil
	}

	line := &e.cart.Lines[idx]
	if quantity > line.StockCeiling {
		e.notify("Stock limit reached", stockMessage(line.Title, line.StockCeiling), notify.SeverityDestructive)
		return e.snapshot(), fmt.Errorf("%w: %s has %d in stock", ErrStockLimitExceeded, productID, line.StockCeiling)
	}
	if line.Quantity == quantity {
		return e.snapshot(), nil
	}
	line.Quantity = quantity
	e.persist(ctx)
	return e.snapshot(), nil
}

func (e *Engine) Clear(ctx context.Context) domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cart.Lines = []domain.CartLine{}
	e.persist(ctx)
	e.notify("Cart cleared", "All items have been removed from your cart", notify.SeverityInfo)
	return e.snapshot()
}

// RemoveOrdered takes the ordered lines out of the cart after checkout.
// Lines added while the order was being placed stay, and a line whose
// quantity grew meanwhile keeps the difference. No toast is sent.
func (e *Engine) RemoveOrdered(ctx context.Context, ordered []domain.CartLine) domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed := false
	for _, o := range ordered {
		idx := e.cart.Find(o.ProductID)
		if idx < 0 {
			continue
		}
		changed = true
		line := &e.cart.Lines[idx]
		if line.Quantity > o.Quantity {
			line.Quantity -= o.Quantity
			continue
		}
		e.cart.Lines = append(e.cart.Lines[:idx], e.cart.Lines[idx+1:]...)
	}
	if changed {
		e.persist(ctx)
	}
	return e.snapshot()
}

func (e *Engine) TotalPrice() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.TotalPrice()
}

func (e *Engine) TotalItems() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cart.TotalItems()
}

// Lines returns a copy of the lines in display order.
func (e *Engine) Lines() []domain.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot().Lines
}

func (e *Engine) Snapshot() domain.Cart {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

func (e *Engine) snapshot() domain.Cart {
	lines := make([]domain.CartLine, len(e.cart.Lines))
	copy(lines, e.cart.Lines)
	return domain.Cart{Lines: lines}
}

// persist writes the whole cart; the in-memory cart stays authoritative
// when the write fails.
func (e *Engine) persist(ctx context.Context) {
	if err := storage.SaveJSON(ctx, e.store, storage.KeyCart, e.cart.Lines); err != nil {
		e.log.ErrorContext(ctx, "cart persist failed", "error", err)
	}
}

func (e *Engine) notify(title, description string, severity notify.Severity) {
	e.notifier.Notify(notify.Toast{Title: title, Description: description, Severity: severity})
}

func stockMessage(title string, stock int) string {
	return fmt.Sprintf("Only %d of %s available", stock, title)
}
