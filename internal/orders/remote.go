// Package orders covers the back-office order board and the shopper's
// order tracking.
package orders

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Remote is the order side of the API client.
type Remote interface {
	ListAllOrders(ctx context.Context, token string) ([]domain.Order, error)
	ListMyOrders(ctx context.Context, token, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, token, id string) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) (domain.Order, bool, error)
	DashboardStats(ctx context.Context, token string) (domain.DashboardStats, error)
}

// Session supplies the bearer token and is told when the remote rejects it.
type Session interface {
	Token() string
	Identity() domain.Identity
	Expire(ctx context.Context)
}

// checkAuth expires the session when the remote rejected its token.
func checkAuth(ctx context.Context, s Session, err error) {
	if errors.Is(err, client.ErrUnauthorized) {
		s.Expire(ctx)
	}
}
