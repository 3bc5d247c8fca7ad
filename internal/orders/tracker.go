package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Step is one stage of the shopper-facing progress tracker.
type Step struct {
	Status  domain.OrderStatus `json:"status"`
	Label   string             `json:"label"`
	Reached bool               `json:"reached"`
}

// Tracked is an order as the shopper sees it.
type Tracked struct {
	domain.Order
	Progress  int    `json:"progress"`
	Cancelled bool   `json:"cancelled"`
	Steps     []Step `json:"steps"`
}

var trackerStages = []domain.OrderStatus{
	domain.OrderStatusPending,
	domain.OrderStatusProcessing,
	domain.OrderStatusShipped,
	domain.OrderStatusDelivered,
}

// Track projects an order onto the progress tracker. Cancelled orders have
// no position and report every step as unreached.
func Track(o domain.Order) Tracked {
	t := Tracked{Order: o, Cancelled: o.Status == domain.OrderStatusCancelled}
	current, onTracker := o.Status.Progress()
	if onTracker {
		t.Progress = current
	}
	t.Steps = make([]Step, 0, len(trackerStages))
	for _, s := range trackerStages {
		p, _ := s.Progress()
		t.Steps = append(t.Steps, Step{
			Status:  s,
			Label:   s.Label(),
			Reached: onTracker && p <= current,
		})
	}
	return t
}

// Tracker serves the signed-in shopper's own orders.
type Tracker struct {
	remote  Remote
	session Session
	log     *slog.Logger
}

func NewTracker(remote Remote, session Session, log *slog.Logger) *Tracker {
	return &Tracker{remote: remote, session: session, log: log}
}

func (t *Tracker) MyOrders(ctx context.Context) ([]Tracked, error) {
	token := t.session.Token()
	identity := t.session.Identity()
	if token == "" || identity.ID == "" {
		return nil, ErrNotSignedIn
	}

	orders, err := t.remote.ListMyOrders(ctx, token, identity.ID)
	if err != nil {
		checkAuth(ctx, t.session, err)
		return nil, fmt.Errorf("load my orders: %w", err)
	}
	sortNewestFirst(orders)

	out := make([]Tracked, 0, len(orders))
	for _, o := range orders {
		out = append(out, Track(o))
	}
	return out, nil
}

func (t *Tracker) Order(ctx context.Context, id string) (Tracked, error) {
	token := t.session.Token()
	if token == "" {
		return Tracked{}, ErrNotSignedIn
	}

	o, err := t.remote.GetOrder(ctx, token, id)
	if errors.Is(err, client.ErrNotFound) {
		return Tracked{}, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	if err != nil {
		checkAuth(ctx, t.session, err)
		return Tracked{}, fmt.Errorf("load order %s: %w", id, err)
	}
	return Track(o), nil
}
