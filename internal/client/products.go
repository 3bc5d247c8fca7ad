package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrInvalidProductForm = errors.New("invalid product form")

// ListProducts returns every product the remote accepts as valid. Records
// that fail validation are dropped and logged.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var ws []wireProduct
	if err := c.do(ctx, request{method: http.MethodGet, path: "/product/all"}, &ws); err != nil {
		return nil, err
	}

	products := make([]domain.Product, 0, len(ws))
	var dropped []error
	for _, w := range ws {
		p, err := w.toDomain()
		if err != nil {
			dropped = append(dropped, err)
			continue
		}
		products = append(products, p)
	}
	if err := joinDropped(dropped); err != nil {
		c.log.WarnContext(ctx, "dropped invalid products", "count", len(dropped), "error", err)
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	var w wireProduct
	if err := c.do(ctx, request{method: http.MethodGet, path: "/product/" + url.PathEscape(id)}, &w); err != nil {
		return domain.Product{}, err
	}
	p, err := w.toDomain()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}
	return p, nil
}

// Image is one uploaded product picture.
type Image struct {
	Filename string
	Content  io.Reader
}

// ProductForm mirrors the back-office product form.
type ProductForm struct {
	Title       string
	Category    domain.Category
	Price       decimal.Decimal
	Stock       int
	Description string
	Origin      string
	Quality     string
	Storage     string
	Packaging   string
	Weight      string
	Images      []Image
}

// Validate checks the required fields. Images are only required when
// creating a product.
func (f ProductForm) Validate(requireImage bool) error {
	var problems []string
	if strings.TrimSpace(f.Title) == "" {
		problems = append(problems, "title is required")
	}
	if f.Category == "" {
		problems = append(problems, "category is required")
	}
	if f.Price.IsNegative() || f.Price.IsZero() {
		problems = append(problems, "price must be positive")
	}
	if f.Stock < 0 {
		problems = append(problems, "stock must not be negative")
	}
	if strings.TrimSpace(f.Description) == "" {
		problems = append(problems, "description is required")
	}
	if requireImage && len(f.Images) == 0 {
		problems = append(problems, "at least one image is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidProductForm, strings.Join(problems, "; "))
	}
	return nil
}

func (f ProductForm) encode() (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := []struct{ name, value string }{
		{"title", f.Title},
		{"category", string(f.Category)},
		{"price", f.Price.StringFixed(2)},
		{"stock", strconv.Itoa(f.Stock)},
		{"description", f.Description},
		{"origin", f.Origin},
		{"quality", f.Quality},
		{"storage", f.Storage},
		{"packaging", f.Packaging},
		{"weight", f.Weight},
	}
	for _, field := range fields {
		if err := mw.WriteField(field.name, field.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", field.name, err)
		}
	}
	for _, img := range f.Images {
		part, err := mw.CreateFormFile("images", img.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create image part: %w", err)
		}
		if _, err := io.Copy(part, img.Content); err != nil {
			return nil, "", fmt.Errorf("copy image %s: %w", img.Filename, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func (c *Client) CreateProduct(ctx context.Context, token string, form ProductForm) (domain.Product, error) {
	if err := form.Validate(true); err != nil {
		return domain.Product{}, err
	}
	return c.sendProductForm(ctx, http.MethodPost, "/product/add", token, form)
}

func (c *Client) UpdateProduct(ctx context.Context, token, id string, form ProductForm) (domain.Product, error) {
	if err := form.Validate(false); err != nil {
		return domain.Product{}, err
	}
	return c.sendProductForm(ctx, http.MethodPut, "/product/update/"+url.PathEscape(id), token, form)
}

func (c *Client) sendProductForm(ctx context.Context, method, path, token string, form ProductForm) (domain.Product, error) {
	body, contentType, err := form.encode()
	if err != nil {
		return domain.Product{}, err
	}

	var w wireProduct
	err = c.do(ctx, request{
		method:      method,
		path:        path,
		token:       token,
		body:        body,
		contentType: contentType,
	}, &w)
	if err != nil {
		return domain.Product{}, err
	}
	p, err := w.toDomain()
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}
	return p, nil
}

func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   "/product/" + url.PathEscape(id),
		token:  token,
	}, nil)
}
