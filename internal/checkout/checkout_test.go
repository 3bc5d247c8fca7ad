package checkout

import (
	"context"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/fjod/go_cart/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	calls int
	got   domain.NewOrderRequest
	token string
	err   error
	// during runs while the order is being created.
	during func()
}

func (m *mockRemote) CreateOrder(_ context.Context, token string, r domain.NewOrderRequest) (domain.Order, error) {
	m.calls++
	m.got = r
	m.token = token
	if m.during != nil {
		m.during()
	}
	if m.err != nil {
		return domain.Order{}, m.err
	}
	return domain.Order{ID: r.ID, Items: r.Items, TotalAmount: r.TotalAmount, Status: domain.OrderStatusPending}, nil
}

type mockSession struct {
	token   string
	expired bool
}

func (s *mockSession) Token() string { return s.token }

func (s *mockSession) Expire(context.Context) { s.expired = true }

var shipping = domain.ShippingInfo{
	FirstName: "Ayesha",
	LastName:  "Khan",
	Address:   "12 Mall Road",
	City:      "Lahore",
	ZipCode:   "54000",
	Phone:     "0300-1234567",
}

func newService(t *testing.T, remote *mockRemote, sess *mockSession) (*Service, *cart.Engine, *notify.Recorder) {
	t.Helper()
	rec := &notify.Recorder{}
	engine := cart.NewEngine(storage.NewMemoryStore(), nil, logger.Discard())
	s := NewService(engine, remote, sess, decimal.NewFromInt(50), rec, logger.Discard())
	s.newID = func() string { return "order-1" }
	return s, engine, rec
}

func fill(t *testing.T, e *cart.Engine) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := e.AddItem(ctx, cart.Item{ProductID: "p1", Title: "Mango", UnitPrice: decimal.NewFromInt(100), Stock: 5})
		require.NoError(t, err)
	}
	_, err := e.AddItem(ctx, cart.Item{ProductID: "p2", Title: "Bread", UnitPrice: decimal.RequireFromString("18.50"), Stock: 1})
	require.NoError(t, err)
}

func TestQuoteFor(t *testing.T) {
	fee := decimal.NewFromInt(50)

	empty := QuoteFor(domain.Cart{}, fee)
	assert.True(t, empty.DeliveryFee.IsZero())
	assert.True(t, empty.Total.IsZero())

	c := domain.Cart{Lines: []domain.CartLine{{ProductID: "p", UnitPrice: decimal.NewFromInt(100), Quantity: 2, StockCeiling: 5}}}
	q := QuoteFor(c, fee)
	assert.Equal(t, 2, q.Items)
	assert.Equal(t, "200", q.Subtotal.String())
	assert.Equal(t, "50", q.DeliveryFee.String())
	assert.Equal(t, "250", q.Total.String())

	free := domain.Cart{Lines: []domain.CartLine{{ProductID: "p", UnitPrice: decimal.Zero, Quantity: 1, StockCeiling: 1}}}
	assert.True(t, QuoteFor(free, fee).DeliveryFee.IsZero(), "no fee on a zero subtotal")
}

func TestPlaceOrder(t *testing.T) {
	remote := &mockRemote{}
	s, engine, rec := newService(t, remote, &mockSession{token: "tok"})
	fill(t, engine)

	order, err := s.PlaceOrder(context.Background(), shipping, domain.PaymentMethodCashOnDelivery)

	require.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Equal(t, "tok", remote.token)
	assert.Equal(t, "268.5", remote.got.TotalAmount.String())
	assert.Equal(t, "50", remote.got.DeliveryFee.String())
	require.Len(t, remote.got.Items, 2)
	assert.Equal(t, 2, remote.got.Items[0].Quantity)
	assert.True(t, engine.Snapshot().IsEmpty(), "cart is cleared after success")
	toast, _ := rec.Last()
	assert.Equal(t, "Order placed", toast.Title)
}

func TestPlaceOrder_KeepsItemsAddedDuringPlacement(t *testing.T) {
	remote := &mockRemote{}
	s, engine, rec := newService(t, remote, &mockSession{token: "tok"})
	fill(t, engine)
	remote.during = func() {
		_, err := engine.AddItem(context.Background(), cart.Item{ProductID: "p3", Title: "Milk", UnitPrice: decimal.NewFromInt(40), Stock: 3})
		require.NoError(t, err)
		_, err = engine.AddItem(context.Background(), cart.Item{ProductID: "p1", Title: "Mango", UnitPrice: decimal.NewFromInt(100), Stock: 5})
		require.NoError(t, err)
	}

	_, err := s.PlaceOrder(context.Background(), shipping, domain.PaymentMethodCard)

	require.NoError(t, err)
	require.Len(t, remote.got.Items, 2)
	lines := engine.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "p1", lines[0].ProductID)
	assert.Equal(t, 1, lines[0].Quantity)
	assert.Equal(t, "p3", lines[1].ProductID)
	assert.Equal(t, 1, rec.Len(), "only the order toast is sent")
}

func TestPlaceOrder_SingleToastOnSuccess(t *testing.T) {
	rec := &notify.Recorder{}
	engine := cart.NewEngine(storage.NewMemoryStore(), rec, logger.Discard())
	s := NewService(engine, &mockRemote{}, &mockSession{token: "tok"}, decimal.NewFromInt(50), rec, logger.Discard())
	fill(t, engine)
	before := rec.Len()

	_, err := s.PlaceOrder(context.Background(), shipping, domain.PaymentMethodCashOnDelivery)

	require.NoError(t, err)
	assert.Equal(t, before+1, rec.Len())
	toast, _ := rec.Last()
	assert.Equal(t, "Order placed", toast.Title)
	assert.True(t, engine.Snapshot().IsEmpty())
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	remote := &mockRemote{}
	s, _, _ := newService(t, remote, &mockSession{token: "tok"})

	_, err := s.PlaceOrder(context.Background(), shipping, domain.PaymentMethodCard)

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 0, remote.calls)
}

func TestPlaceOrder_Validation(t *testing.T) {
	remote := &mockRemote{}
	s, engine, _ := newService(t, remote, &mockSession{token: "tok"})
	fill(t, engine)

	partial := shipping
	partial.Phone = "   "
	_, err := s.PlaceOrder(context.Background(), partial, domain.PaymentMethodCard)
	assert.ErrorIs(t, err, ErrInvalidShipping)
	assert.Contains(t, err.Error(), "phone")

	_, err = s.PlaceOrder(context.Background(), shipping, domain.PaymentMethod("bitcoin"))
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	assert.Equal(t, 0, remote.calls)
	assert.Equal(t, 3, engine.TotalItems())
}

func TestPlaceOrder_RemoteFailureKeepsCart(t *testing.T) {
	remote := &mockRemote{err: &client.Error{StatusCode: 500, Message: "database down"}}
	s, engine, rec := newService(t, remote, &mockSession{token: "tok"})
	fill(t, engine)

	_, err := s.PlaceOrder(context.Background(), shipping, domain.PaymentMethodCashOnDelivery)

	assert.ErrorIs(t, err, client.ErrRemoteCall)
	assert.Equal(t, 3, engine.TotalItems())
	toast, _ := rec.Last()
	assert.Equal(t, "database down", toast.Description)
}

func TestPlaceOrder_UnauthorizedExpiresSession(t *testing.T) {
	sess := &mockSession{token: "tok"}
	remote := &mockRemote{err: &client.Error{StatusCode: 401}}
	s, engine, _ := newService(t, remote, sess)
	fill(t, engine)

	_, err := s.PlaceOrder(context.Background(), shipping, domain.PaymentMethodCard)

	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.True(t, sess.expired)
}

func TestPlaceOrder_RequiresToken(t *testing.T) {
	s, engine, _ := newService(t, &mockRemote{}, &mockSession{})
	fill(t, engine)

	_, err := s.PlaceOrder(context.Background(), shipping, domain.PaymentMethodCard)

	assert.ErrorIs(t, err, ErrNotSignedIn)
}
