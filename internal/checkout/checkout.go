// Package checkout turns the cart into a remote order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrInvalidShipping      = errors.New("invalid shipping information")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrNotSignedIn          = errors.New("not signed in")
)

type Cart interface {
	Snapshot() domain.Cart
	RemoveOrdered(ctx context.Context, ordered []domain.CartLine) domain.Cart
}

type Remote interface {
	CreateOrder(ctx context.Context, token string, r domain.NewOrderRequest) (domain.Order, error)
}

type Session interface {
	Token() string
	Expire(ctx context.Context)
}

// Quote is the price breakdown shown before the order is placed.
type Quote struct {
	Items       int             `json:"items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// QuoteFor prices c. The delivery fee applies only to a non-empty subtotal.
func QuoteFor(c domain.Cart, fee decimal.Decimal) Quote {
	q := Quote{
		Items:       c.TotalItems(),
		Subtotal:    c.TotalPrice(),
		DeliveryFee: decimal.Zero,
	}
	if q.Subtotal.IsPositive() {
		q.DeliveryFee = fee
	}
	q.Total = q.Subtotal.Add(q.DeliveryFee)
	return q
}

type Service struct {
	mu sync.Mutex // one order at a time

	cart        Cart
	remote      Remote
	session     Session
	deliveryFee decimal.Decimal
	notifier    notify.Notifier
	log         *slog.Logger
	newID       func() string
}

func NewService(cart Cart, remote Remote, session Session, deliveryFee decimal.Decimal, notifier notify.Notifier, log *slog.Logger) *Service {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Service{
		cart:        cart,
		remote:      remote,
		session:     session,
		deliveryFee: deliveryFee,
		notifier:    notifier,
		log:         log,
		newID:       uuid.NewString,
	}
}

func (s *Service) Quote() Quote {
	return QuoteFor(s.cart.Snapshot(), s.deliveryFee)
}

// PlaceOrder submits the current cart. Only after the remote accepted the
// order are the ordered lines taken out of the cart; anything added while
// the order was in flight stays.
func (s *Service) PlaceOrder(ctx context.Context, shipping domain.ShippingInfo, method domain.PaymentMethod) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.cart.Snapshot()
	if snapshot.IsEmpty() {
		return domain.Order{}, ErrEmptyCart
	}

	shipping = trimShipping(shipping)
	if missing := shipping.Missing(); len(missing) > 0 {
		s.notifier.Notify(notify.Toast{
			Title:       "Missing information",
			Description: "Please fill in all required fields",
			Severity:    notify.SeverityDestructive,
		})
		return domain.Order{}, fmt.Errorf("%w: missing %s", ErrInvalidShipping, strings.Join(missing, ", "))
	}
	if !method.Valid() {
		return domain.Order{}, fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, method)
	}

	token := s.session.Token()
	if token == "" {
		return domain.Order{}, ErrNotSignedIn
	}

	quote := QuoteFor(snapshot, s.deliveryFee)
	req := domain.NewOrderRequest{
		ID:            s.newID(),
		Items:         orderItems(snapshot),
		ShippingInfo:  shipping,
		TotalAmount:   quote.Total,
		DeliveryFee:   quote.DeliveryFee,
		PaymentMethod: method,
	}

	order, err := s.remote.CreateOrder(ctx, token, req)
	if err != nil {
		s.log.WarnContext(ctx, "order placement failed", "order_id", req.ID, "error", err)
		desc := client.Message(err)
		if desc == "" {
			desc = "Failed to place order. Please try again."
		}
		s.notifier.Notify(notify.Toast{Title: "Order failed", Description: desc, Severity: notify.SeverityDestructive})
		if errors.Is(err, client.ErrUnauthorized) {
			s.session.Expire(ctx)
		}
		return domain.Order{}, fmt.Errorf("place order: %w", err)
	}

	s.cart.RemoveOrdered(ctx, snapshot.Lines)
	s.log.InfoContext(ctx, "order placed", "order_id", order.ID, "total", quote.Total.String())
	s.notifier.Notify(notify.Toast{
		Title:       "Order placed",
		Description: fmt.Sprintf("Your order %s has been placed successfully", order.ID),
		Severity:    notify.SeveritySuccess,
	})
	return order, nil
}

func orderItems(c domain.Cart) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		items = append(items, domain.OrderItem{
			ProductID: l.ProductID,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			ImageURL:  l.ImageURL,
		})
	}
	return items
}

func trimShipping(s domain.ShippingInfo) domain.ShippingInfo {
	return domain.ShippingInfo{
		FirstName: strings.TrimSpace(s.FirstName),
		LastName:  strings.TrimSpace(s.LastName),
		Address:   strings.TrimSpace(s.Address),
		City:      strings.TrimSpace(s.City),
		ZipCode:   strings.TrimSpace(s.ZipCode),
		Phone:     strings.TrimSpace(s.Phone),
	}
}
