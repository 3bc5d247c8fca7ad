// Package catalog reads products from the remote API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/client"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"golang.org/x/sync/singleflight"
)

var ErrProductNotFound = errors.New("product not found")

// Source is the remote product listing.
type Source interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

type Filter struct {
	// Category keeps only products of this category, case-insensitively.
	Category domain.Category
	// Search keeps products whose title contains it, case-insensitively.
	Search string
	// Limit caps the result; zero means no cap.
	Limit int
	// InStockOnly drops products with no stock.
	InStockOnly bool
}

// fetchTimeout bounds a shared fetch, which outlives any single caller.
const fetchTimeout = 30 * time.Second

type Catalog struct {
	source       Source
	sfg          singleflight.Group // collapses identical concurrent fetches
	fetchTimeout time.Duration
	log          *slog.Logger
}

func New(source Source, log *slog.Logger) *Catalog {
	return &Catalog{source: source, fetchTimeout: fetchTimeout, log: log}
}

// shared runs fetch once for all concurrent callers of key. The fetch is
// detached from the caller that started it, so one caller going away does
// not fail the others; each caller still stops waiting when its own ctx ends.
func (c *Catalog) shared(ctx context.Context, key string, fetch func(context.Context) (interface{}, error)) (interface{}, bool, error) {
	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return fetch(fetchCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Shared, res.Err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

// List returns products newest first after applying f.
func (c *Catalog) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	v, shared, err := c.shared(ctx, "all", func(ctx context.Context) (interface{}, error) {
		return c.source.ListProducts(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if shared {
		c.log.DebugContext(ctx, "product list fetch shared")
	}

	all := v.([]domain.Product)
	out := make([]domain.Product, 0, len(all))
	search := strings.ToLower(strings.TrimSpace(f.Search))
	for _, p := range all {
		if f.Category != "" && !strings.EqualFold(string(p.Category), string(f.Category)) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		if f.InStockOnly && !p.InStock() {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (c *Catalog) Get(ctx context.Context, id string) (domain.Product, error) {
	v, _, err := c.shared(ctx, "product:"+id, func(ctx context.Context) (interface{}, error) {
		return c.source.GetProduct(ctx, id)
	})
	if errors.Is(err, client.ErrNotFound) {
		return domain.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("get product %s: %w", id, err)
	}
	return v.(domain.Product), nil
}

// Related returns up to limit other products from the same category.
func (c *Catalog) Related(ctx context.Context, p domain.Product, limit int) ([]domain.Product, error) {
	same, err := c.List(ctx, Filter{Category: p.Category})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, limit)
	for _, other := range same {
		if other.ID == p.ID {
			continue
		}
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, other)
	}
	return out, nil
}
