package http

import (
	"context"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/orders"
)

// The views depend on these narrow interfaces rather than on the concrete
// services so each handler can be tested with a small fake.

type SessionService interface {
	SignIn(ctx context.Context, email, password string) error
	Login(ctx context.Context, token string, identity domain.Identity) error
	Logout(ctx context.Context)
	ForgotPassword(ctx context.Context, email string) error
	IsAuthenticated() bool
	Token() string
	Identity() domain.Identity
}

type CatalogService interface {
	List(ctx context.Context, f catalog.Filter) ([]domain.Product, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	Related(ctx context.Context, p domain.Product, limit int) ([]domain.Product, error)
}

type CartService interface {
	AddItem(ctx context.Context, item cart.Item) (domain.Cart, error)
	RemoveItem(ctx context.Context, productID string) domain.Cart
	UpdateQuantity(ctx context.Context, productID string, quantity int) (domain.Cart, error)
	Clear(ctx context.Context) domain.Cart
	Snapshot() domain.Cart
}

type CheckoutService interface {
	Quote() checkout.Quote
	PlaceOrder(ctx context.Context, shipping domain.ShippingInfo, method domain.PaymentMethod) (domain.Order, error)
}

type OrderTracker interface {
	MyOrders(ctx context.Context) ([]orders.Tracked, error)
	Order(ctx context.Context, id string) (orders.Tracked, error)
}

type OrderBoard interface {
	Refresh(ctx context.Context) ([]domain.Order, error)
	Orders(f orders.Filter) []domain.Order
	Order(id string) (domain.Order, bool)
	UpdateStatus(ctx context.Context, id string, target domain.OrderStatus) (domain.Order, error)
	Stats(ctx context.Context) (domain.DashboardStats, error)
}

type ProductAdmin interface {
	CreateProduct(ctx context.Context, token string, form client.ProductForm) (domain.Product, error)
	UpdateProduct(ctx context.Context, token, id string, form client.ProductForm) (domain.Product, error)
	DeleteProduct(ctx context.Context, token, id string) error
}

type ToastFeed interface {
	Drain() []notify.Toast
}
