package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
)

// Board is the admin view of every order.
type Board struct {
	mu     sync.Mutex
	orders []domain.Order
	loaded bool
	// pending holds ids whose status update has not been answered yet.
	pending map[string]bool

	remote   Remote
	session  Session
	notifier notify.Notifier
	log      *slog.Logger
}

func NewBoard(remote Remote, session Session, notifier notify.Notifier, log *slog.Logger) *Board {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Board{remote: remote, session: session, notifier: notifier, log: log, pending: make(map[string]bool)}
}

// Refresh reloads every order from the remote, newest first.
func (b *Board) Refresh(ctx context.Context) ([]domain.Order, error) {
	token := b.session.Token()
	if token == "" {
		return nil, ErrNotSignedIn
	}

	orders, err := b.remote.ListAllOrders(ctx, token)
	if err != nil {
		checkAuth(ctx, b.session, err)
		return nil, fmt.Errorf("load orders: %w", err)
	}
	sortNewestFirst(orders)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = orders
	b.loaded = true
	return copyOrders(b.orders), nil
}

type Filter struct {
	Status domain.OrderStatus
	// Search matches the order id or the customer's name, case-insensitively.
	Search string
}

func (f Filter) match(o domain.Order) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	name := strings.ToLower(o.ShippingInfo.FirstName + " " + o.ShippingInfo.LastName)
	return strings.Contains(strings.ToLower(o.ID), q) || strings.Contains(name, q)
}

// Orders returns the loaded orders that match f.
func (b *Board) Orders(f Filter) []domain.Order {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]domain.Order, 0, len(b.orders))
	for _, o := range b.orders {
		if f.match(o) {
			out = append(out, o)
		}
	}
	return out
}

func (b *Board) Order(id string) (domain.Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i := b.find(id); i >= 0 {
		return b.orders[i], true
	}
	return domain.Order{}, false
}

// UpdateStatus moves a loaded order to target. Illegal moves, and moves on
// an order whose previous update is still unanswered, are refused before any
// network call. A legal move is shown immediately, then replaced by the
// server's copy on success or rolled back on failure.
func (b *Board) UpdateStatus(ctx context.Context, id string, target domain.OrderStatus) (domain.Order, error) {
	token := b.session.Token()
	if token == "" {
		return domain.Order{}, ErrNotSignedIn
	}

	b.mu.Lock()
	i := b.find(id)
	if i < 0 {
		b.mu.Unlock()
		return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if b.pending[id] {
		b.mu.Unlock()
		return b.orders[i], fmt.Errorf("%w: %s", ErrUpdateInFlight, id)
	}
	previous := b.orders[i]
	if !previous.Status.CanTransitionTo(target) {
		b.mu.Unlock()
		b.notifier.Notify(notify.Toast{
			Title:       "Status not changed",
			Description: fmt.Sprintf("Order %s cannot move from %s to %s", id, previous.Status.Label(), target.Label()),
			Severity:    notify.SeverityDestructive,
		})
		return previous, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, previous.Status, target)
	}
	optimistic := previous
	optimistic.Status = target
	b.orders[i] = optimistic
	b.pending[id] = true
	b.mu.Unlock()

	server, ok, err := b.remote.UpdateOrderStatus(ctx, token, id, target)

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.pending, id)
	// The board may have been refreshed while the call was in flight.
	i = b.find(id)

	if err != nil {
		if i >= 0 && b.orders[i].Status == target {
			b.orders[i] = previous
		}
		b.log.WarnContext(ctx, "order status update rejected", "order_id", id, "target", target, "error", err)
		desc := client.Message(err)
		if desc == "" {
			desc = "Failed to update order status"
		}
		b.notifier.Notify(notify.Toast{Title: "Update failed", Description: desc, Severity: notify.SeverityDestructive})
		checkAuth(ctx, b.session, err)
		return previous, fmt.Errorf("update order %s: %w", id, err)
	}

	result := optimistic
	if ok {
		result = server
		if result.CreatedAt.IsZero() {
			result.CreatedAt = previous.CreatedAt
		}
		if len(result.Items) == 0 {
			result.Items = previous.Items
		}
	}
	if i >= 0 {
		b.orders[i] = result
	}
	b.log.InfoContext(ctx, "order status updated", "order_id", id, "from", previous.Status, "to", result.Status)
	b.notifier.Notify(notify.Toast{
		Title:       "Order updated",
		Description: fmt.Sprintf("Order %s is now %s", id, result.Status.Label()),
		Severity:    notify.SeveritySuccess,
	})
	return result, nil
}

// Stats returns the dashboard figures. When the remote has no stats
// endpoint they are derived from the loaded orders.
func (b *Board) Stats(ctx context.Context) (domain.DashboardStats, error) {
	token := b.session.Token()
	if token == "" {
		return domain.DashboardStats{}, ErrNotSignedIn
	}

	stats, err := b.remote.DashboardStats(ctx, token)
	if err == nil {
		return stats, nil
	}
	if !errors.Is(err, client.ErrNotFound) {
		checkAuth(ctx, b.session, err)
		return domain.DashboardStats{}, fmt.Errorf("load stats: %w", err)
	}

	b.log.DebugContext(ctx, "stats endpoint missing, deriving from orders")
	b.mu.Lock()
	loaded := b.loaded
	b.mu.Unlock()
	if !loaded {
		if _, err := b.Refresh(ctx); err != nil {
			return domain.DashboardStats{}, err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return domain.StatsFromOrders(b.orders), nil
}

func (b *Board) find(id string) int {
	for i := range b.orders {
		if b.orders[i].ID == id {
			return i
		}
	}
	return -1
}

func sortNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}

func copyOrders(orders []domain.Order) []domain.Order {
	out := make([]domain.Order, len(orders))
	copy(out, orders)
	return out
}
