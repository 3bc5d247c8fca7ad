package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/go_cart/storefront/internal/gate"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Services struct {
	Session  SessionService
	Catalog  CatalogService
	Cart     CartService
	Checkout CheckoutService
	Tracker  OrderTracker
	Board    OrderBoard
	Products ProductAdmin
	Toasts   ToastFeed
	Gate     *gate.Gate
}

type RouterOptions struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	// MaxUploadSize bounds multipart product uploads.
	MaxUploadSize int64
	Log           *slog.Logger
}

// NewRouter wires every view behind the shared middleware stack and the
// route gate.
func NewRouter(s Services, opts RouterOptions) http.Handler {
	if opts.MaxUploadSize == 0 {
		opts.MaxUploadSize = 10 * opts.MaxRequestBodySize
	}

	sessionHandler := NewSessionHandler(s.Session, opts.RequestTimeout)
	productHandler := NewProductHandler(s.Catalog, opts.RequestTimeout)
	cartHandler := NewCartHandler(s.Cart, s.Catalog, opts.RequestTimeout)
	checkoutHandler := NewCheckoutHandler(s.Checkout, s.Cart, opts.RequestTimeout)
	ordersHandler := NewOrdersHandler(s.Tracker, opts.RequestTimeout)
	adminHandler := NewAdminHandler(s.Board, s.Catalog, s.Products, s.Session, opts.RequestTimeout, opts.Log)
	notificationsHandler := NewNotificationsHandler(s.Toasts)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(s.Gate.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(LimitBody(opts.MaxRequestBodySize))

		r.Get("/session", sessionHandler.GetSession)
		r.Get("/login", sessionHandler.LoginView)
		r.Post("/login", sessionHandler.Login)
		r.Post("/logout", sessionHandler.Logout)
		r.Post("/forgot-password", sessionHandler.ForgotPassword)
		r.Get("/notifications", notificationsHandler.Drain)

		r.Get("/products", productHandler.ListProducts)
		r.Get("/products/{id}", productHandler.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", checkoutHandler.GetCheckout)
			r.Post("/", checkoutHandler.PlaceOrder)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Get("/{id}", ordersHandler.GetOrder)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		limited := r.With(LimitBody(opts.MaxRequestBodySize))
		limited.Get("/stats", adminHandler.Stats)
		limited.Get("/orders", adminHandler.ListOrders)
		limited.Get("/orders/export", adminHandler.ExportOrders)
		limited.Get("/orders/{id}/transitions", adminHandler.Transitions)
		limited.Patch("/orders/{id}/status", adminHandler.UpdateStatus)
		limited.Get("/products/export", adminHandler.ExportProducts)
		limited.Delete("/products/{id}", adminHandler.DeleteProduct)

		uploads := r.With(LimitBody(opts.MaxUploadSize))
		uploads.Post("/products", adminHandler.CreateProduct)
		uploads.Put("/products/{id}", adminHandler.UpdateProduct)
	})

	return otelhttp.NewHandler(r, "storefront")
}
