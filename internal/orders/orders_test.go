package orders

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/notify"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRemote struct {
	orders      []domain.Order
	listErr     error
	updateCalls int
	updateErr   error
	// updateReply overrides the order returned by UpdateOrderStatus.
	updateReply *domain.Order
	statsErr    error
	stats       domain.DashboardStats
}

func (m *mockRemote) ListAllOrders(context.Context, string) ([]domain.Order, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return copyOrders(m.orders), nil
}

func (m *mockRemote) ListMyOrders(_ context.Context, _, userID string) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, m.listErr
}

func (m *mockRemote) GetOrder(_ context.Context, _, id string) (domain.Order, error) {
	for _, o := range m.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, &client.Error{StatusCode: 404, Message: "Order not found"}
}

func (m *mockRemote) UpdateOrderStatus(_ context.Context, _, id string, status domain.OrderStatus) (domain.Order, bool, error) {
	m.updateCalls++
	if m.updateErr != nil {
		return domain.Order{}, false, m.updateErr
	}
	if m.updateReply != nil {
		return *m.updateReply, true, nil
	}
	return domain.Order{ID: id, Status: status}, true, nil
}

func (m *mockRemote) DashboardStats(context.Context, string) (domain.DashboardStats, error) {
	return m.stats, m.statsErr
}

type mockSession struct {
	token    string
	identity domain.Identity
	expired  int
}

func (s *mockSession) Token() string {
	return s.token
}

func (s *mockSession) Identity() domain.Identity {
	return s.identity
}

func (s *mockSession) Expire(context.Context) {
	s.expired++
	s.token = ""
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sampleOrders() []domain.Order {
	return []domain.Order{
		{ID: "o-old", UserID: "u1", Status: domain.OrderStatusDelivered, TotalAmount: decimal.NewFromInt(300), CreatedAt: t0.Add(-48 * time.Hour),
			ShippingInfo: domain.ShippingInfo{FirstName: "Ayesha", LastName: "Khan"},
			Items:        []domain.OrderItem{{ProductID: "p1", Quantity: 1}}},
		{ID: "o-new", UserID: "u2", Status: domain.OrderStatusPending, TotalAmount: decimal.NewFromInt(150), CreatedAt: t0,
			ShippingInfo: domain.ShippingInfo{FirstName: "Bilal", LastName: "Ahmed"},
			Items:        []domain.OrderItem{{ProductID: "p2", Quantity: 2}}},
		{ID: "o-ship", UserID: "u1", Status: domain.OrderStatusShipped, TotalAmount: decimal.NewFromInt(90), CreatedAt: t0.Add(-time.Hour),
			Items: []domain.OrderItem{{ProductID: "p1", Quantity: 1}}},
	}
}

func newBoard(t *testing.T, remote *mockRemote) (*Board, *mockSession, *notify.Recorder) {
	t.Helper()
	sess := &mockSession{token: "tok", identity: domain.Identity{ID: "admin"}}
	rec := &notify.Recorder{}
	b := NewBoard(remote, sess, rec, logger.Discard())
	_, err := b.Refresh(context.Background())
	require.NoError(t, err)
	return b, sess, rec
}

func orderIDs(orders []domain.Order) []string {
	out := make([]string, len(orders))
	for i, o := range orders {
		out[i] = o.ID
	}
	return out
}

func TestRefresh_NewestFirst(t *testing.T) {
	b, _, _ := newBoard(t, &mockRemote{orders: sampleOrders()})

	assert.Equal(t, []string{"o-new", "o-ship", "o-old"}, orderIDs(b.Orders(Filter{})))
}

func TestOrders_Filter(t *testing.T) {
	b, _, _ := newBoard(t, &mockRemote{orders: sampleOrders()})

	assert.Equal(t, []string{"o-ship"}, orderIDs(b.Orders(Filter{Status: domain.OrderStatusShipped})))
	assert.Equal(t, []string{"o-new"}, orderIDs(b.Orders(Filter{Search: "bilal"})))
	assert.Equal(t, []string{"o-old"}, orderIDs(b.Orders(Filter{Search: "OLD"})))
}

func TestUpdateStatus_IllegalIsRefusedLocally(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders()}
	b, _, rec := newBoard(t, remote)

	_, err := b.UpdateStatus(context.Background(), "o-new", domain.OrderStatusDelivered)

	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 0, remote.updateCalls)
	o, _ := b.Order("o-new")
	assert.Equal(t, domain.OrderStatusPending, o.Status)
	toast, _ := rec.Last()
	assert.Equal(t, notify.SeverityDestructive, toast.Severity)
}

func TestUpdateStatus_TerminalIsRefused(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders()}
	b, _, _ := newBoard(t, remote)

	_, err := b.UpdateStatus(context.Background(), "o-old", domain.OrderStatusCancelled)

	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 0, remote.updateCalls)
}

func TestUpdateStatus_UnknownOrder(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders()}
	b, _, _ := newBoard(t, remote)

	_, err := b.UpdateStatus(context.Background(), "missing", domain.OrderStatusProcessing)

	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 0, remote.updateCalls)
}

func TestUpdateStatus_ReconcilesToServer(t *testing.T) {
	reply := domain.Order{ID: "o-new", Status: domain.OrderStatusProcessing, TotalAmount: decimal.NewFromInt(155)}
	remote := &mockRemote{orders: sampleOrders(), updateReply: &reply}
	b, _, _ := newBoard(t, remote)

	got, err := b.UpdateStatus(context.Background(), "o-new", domain.OrderStatusProcessing)

	require.NoError(t, err)
	assert.Equal(t, 1, remote.updateCalls)
	assert.Equal(t, "155", got.TotalAmount.String())
	assert.Equal(t, t0, got.CreatedAt, "fields the server omitted are kept")
	o, _ := b.Order("o-new")
	assert.Equal(t, domain.OrderStatusProcessing, o.Status)
	assert.Equal(t, "155", o.TotalAmount.String())
}

func TestUpdateStatus_RevertsOnRejection(t *testing.T) {
	remote := &mockRemote{
		orders:    sampleOrders(),
		updateErr: &client.Error{StatusCode: 400, Message: "Invalid status transition"},
	}
	b, _, rec := newBoard(t, remote)

	_, err := b.UpdateStatus(context.Background(), "o-ship", domain.OrderStatusDelivered)

	assert.ErrorIs(t, err, client.ErrRemoteCall)
	o, _ := b.Order("o-ship")
	assert.Equal(t, domain.OrderStatusShipped, o.Status)
	toast, _ := rec.Last()
	assert.Equal(t, "Invalid status transition", toast.Description)
}

func TestUpdateStatus_UnauthorizedExpiresSession(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders(), updateErr: &client.Error{StatusCode: 401}}
	b, sess, _ := newBoard(t, remote)

	_, err := b.UpdateStatus(context.Background(), "o-new", domain.OrderStatusCancelled)

	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, 1, sess.expired)
}

func TestStats_Remote(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders(), stats: domain.DashboardStats{TotalOrders: 42}}
	b, _, _ := newBoard(t, remote)

	stats, err := b.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 42, stats.TotalOrders)
}

func TestStats_FallbackWhenEndpointMissing(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders(), statsErr: &client.Error{StatusCode: 404}}
	sess := &mockSession{token: "tok"}
	b := NewBoard(remote, sess, nil, logger.Discard())

	stats, err := b.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, "540", stats.TotalRevenue.String())
	assert.Equal(t, 2, stats.TotalCustomers)
}

func TestStats_OtherErrorsPropagate(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders(), statsErr: client.ErrUnavailable}
	b, _, _ := newBoard(t, remote)

	_, err := b.Stats(context.Background())

	assert.ErrorIs(t, err, client.ErrUnavailable)
}

func TestBoard_RequiresToken(t *testing.T) {
	b := NewBoard(&mockRemote{}, &mockSession{}, nil, logger.Discard())

	_, err := b.Refresh(context.Background())

	assert.True(t, errors.Is(err, ErrNotSignedIn))
}

func TestTrack(t *testing.T) {
	tests := []struct {
		status    domain.OrderStatus
		progress  int
		reached   int
		cancelled bool
	}{
		{domain.OrderStatusPending, 0, 1, false},
		{domain.OrderStatusProcessing, 25, 2, false},
		{domain.OrderStatusShipped, 75, 3, false},
		{domain.OrderStatusDelivered, 100, 4, false},
		{domain.OrderStatusCancelled, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			tracked := Track(domain.Order{ID: "o", Status: tt.status})

			assert.Equal(t, tt.progress, tracked.Progress)
			assert.Equal(t, tt.cancelled, tracked.Cancelled)
			reached := 0
			for _, s := range tracked.Steps {
				if s.Reached {
					reached++
				}
			}
			assert.Equal(t, tt.reached, reached)
			assert.Len(t, tracked.Steps, 4)
		})
	}
}

func TestTracker_MyOrders(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders()}
	tr := NewTracker(remote, &mockSession{token: "tok", identity: domain.Identity{ID: "u1"}}, logger.Discard())

	got, err := tr.MyOrders(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "o-ship", got[0].ID)
	assert.Equal(t, 75, got[0].Progress)
}

func TestTracker_Order(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders()}
	tr := NewTracker(remote, &mockSession{token: "tok", identity: domain.Identity{ID: "u1"}}, logger.Discard())

	got, err := tr.Order(context.Background(), "o-old")
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)

	_, err = tr.Order(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestTracker_RequiresSignIn(t *testing.T) {
	tr := NewTracker(&mockRemote{}, &mockSession{}, logger.Discard())

	_, err := tr.MyOrders(context.Background())

	assert.ErrorIs(t, err, ErrNotSignedIn)
}

// blockingRemote holds every status update until release is closed.
type blockingRemote struct {
	*mockRemote
	entered chan struct{}
	release chan struct{}
	calls   atomic.Int32
	err     error
}

func (r *blockingRemote) UpdateOrderStatus(ctx context.Context, _, id string, status domain.OrderStatus) (domain.Order, bool, error) {
	r.calls.Add(1)
	r.entered <- struct{}{}
	<-r.release
	if r.err != nil {
		return domain.Order{}, false, r.err
	}
	return domain.Order{ID: id, Status: status}, true, nil
}

func TestUpdateStatus_RefusesSecondUpdateWhileInFlight(t *testing.T) {
	remote := &blockingRemote{
		mockRemote: &mockRemote{orders: sampleOrders()},
		entered:    make(chan struct{}, 1),
		release:    make(chan struct{}),
		err:        &client.Error{StatusCode: 500, Message: "boom"},
	}
	sess := &mockSession{token: "tok", identity: domain.Identity{ID: "admin"}}
	b := NewBoard(remote, sess, &notify.Recorder{}, logger.Discard())
	_, err := b.Refresh(context.Background())
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := b.UpdateStatus(context.Background(), "o-new", domain.OrderStatusProcessing)
		done <- err
	}()
	<-remote.entered

	shown, _ := b.Order("o-new")
	assert.Equal(t, domain.OrderStatusProcessing, shown.Status)

	_, err = b.UpdateStatus(context.Background(), "o-new", domain.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrUpdateInFlight)
	assert.Equal(t, int32(1), remote.calls.Load())

	close(remote.release)
	require.Error(t, <-done)

	o, ok := b.Order("o-new")
	require.True(t, ok)
	assert.Equal(t, domain.OrderStatusPending, o.Status)
}

func TestUpdateStatus_AllowsNextUpdateOnceAnswered(t *testing.T) {
	remote := &mockRemote{orders: sampleOrders()}
	b, _, _ := newBoard(t, remote)

	_, err := b.UpdateStatus(context.Background(), "o-new", domain.OrderStatusProcessing)
	require.NoError(t, err)
	o, err := b.UpdateStatus(context.Background(), "o-new", domain.OrderStatusShipped)

	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, o.Status)
	assert.Equal(t, 2, remote.updateCalls)
}
