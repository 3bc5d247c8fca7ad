package catalog

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockSource struct {
	products  []domain.Product
	err       error
	listCalls atomic.Int32
	release   chan struct{}
	// fetchErr receives the fetch context's error once released.
	fetchErr chan error
}

func (m *mockSource) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.listCalls.Add(1)
	if m.release != nil {
		<-m.release
	}
	if m.fetchErr != nil {
		m.fetchErr <- ctx.Err()
	}
	return m.products, m.err
}

func (m *mockSource) GetProduct(_ context.Context, id string) (domain.Product, error) {
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, &client.Error{StatusCode: 404}
}

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func product(id string, cat domain.Category, stock int, age time.Duration) domain.Product {
	return domain.Product{
		ID:        id,
		Title:     "Product " + id,
		Price:     decimal.NewFromInt(100),
		Stock:     stock,
		Category:  cat,
		CreatedAt: base.Add(-age),
	}
}

func testProducts() []domain.Product {
	return []domain.Product{
		product("old", domain.CategoryFruits, 3, 72*time.Hour),
		product("new", domain.CategoryFruits, 0, time.Hour),
		product("bread", domain.CategoryBakery, 5, 24*time.Hour),
	}
}

func ids(ps []domain.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestList_NewestFirst(t *testing.T) {
	c := New(&mockSource{products: testProducts()}, logger.Discard())

	got, err := c.List(context.Background(), Filter{})

	require.NoError(t, err)
	assert.Equal(t, []string{"new", "bread", "old"}, ids(got))
}

func TestList_Filters(t *testing.T) {
	c := New(&mockSource{products: testProducts()}, logger.Discard())
	ctx := context.Background()

	got, err := c.List(ctx, Filter{Category: "fruits"})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "old"}, ids(got))

	got, err = c.List(ctx, Filter{Category: domain.CategoryFruits, InStockOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, ids(got))

	got, err = c.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids(got))

	got, err = c.List(ctx, Filter{Search: "BREAD"})
	require.NoError(t, err)
	assert.Equal(t, []string{"bread"}, ids(got))
}

func TestList_PropagatesError(t *testing.T) {
	c := New(&mockSource{err: client.ErrUnavailable}, logger.Discard())

	_, err := c.List(context.Background(), Filter{})

	assert.ErrorIs(t, err, client.ErrUnavailable)
}

func TestList_CollapsesConcurrentFetches(t *testing.T) {
	src := &mockSource{products: testProducts(), release: make(chan struct{})}
	c := New(src, logger.Discard())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.List(context.Background(), Filter{})
			assert.NoError(t, err)
			assert.Len(t, got, 3)
		}()
	}

	require.Eventually(t, func() bool { return src.listCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Less(t, src.listCalls.Load(), int32(5), "waiting callers share the in-flight fetch")
}

func TestList_CallerCancelDoesNotFailSharedFetch(t *testing.T) {
	src := &mockSource{products: testProducts(), release: make(chan struct{}), fetchErr: make(chan error, 1)}
	c := New(src, logger.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.List(ctx, Filter{})
		first <- err
	}()
	require.Eventually(t, func() bool { return src.listCalls.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan []domain.Product, 1)
	go func() {
		got, err := c.List(context.Background(), Filter{})
		assert.NoError(t, err)
		second <- got
	}()

	cancel()
	assert.ErrorIs(t, <-first, context.Canceled)

	close(src.release)
	assert.NoError(t, <-src.fetchErr, "the shared fetch outlives the caller that started it")
	assert.Len(t, <-second, 3)
}

func TestGet(t *testing.T) {
	c := New(&mockSource{products: testProducts()}, logger.Discard())

	p, err := c.Get(context.Background(), "bread")
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryBakery, p.Category)

	_, err = c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRelated(t *testing.T) {
	c := New(&mockSource{products: testProducts()}, logger.Discard())
	p := testProducts()[0]

	got, err := c.Related(context.Background(), p, 4)

	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids(got))
}
