package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or a numeric string.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(s)))
	if err != nil {
		return fmt.Errorf("expected integer, got %q", string(s))
	}
	*f = flexInt(n)
	return nil
}

var nonNumeric = regexp.MustCompile(`[^0-9.\-]`)

// flexMoney accepts 218, "218.00" or a display string like "PKR 218.00".
// This is the only place a price string is parsed; everything past the
// boundary carries decimal.Decimal.
type flexMoney struct {
	decimal.Decimal
	set bool
}

func (f *flexMoney) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	cleaned := nonNumeric.ReplaceAllString(string(s), "")
	cleaned = strings.Trim(cleaned, ".")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return fmt.Errorf("invalid amount %q", string(s))
	}
	f.Decimal = d
	f.set = true
	return nil
}

func (f flexMoney) value() decimal.Decimal {
	if !f.set {
		return decimal.Zero
	}
	return f.Decimal
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(values ...flexString) string {
	for _, v := range values {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

type wireProduct struct {
	ID          flexString `json:"id"`
	MongoID     flexString `json:"_id"`
	Title       string     `json:"title"`
	Price       flexMoney  `json:"price"`
	Stock       flexInt    `json:"stock"`
	ImageURLs   []string   `json:"imageUrls"`
	ImageURL    string     `json:"imageUrl"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	Origin      string     `json:"origin"`
	Quality     string     `json:"quality"`
	Storage     string     `json:"storage"`
	Packaging   string     `json:"packaging"`
	Weight      string     `json:"weight"`
	CreatedAt   string     `json:"createdAt"`
	CreatedAtDB string     `json:"created_at"`
	UpdatedAt   string     `json:"updatedAt"`
}

func (w wireProduct) toDomain() (domain.Product, error) {
	p := domain.Product{
		ID:          firstNonEmpty(w.ID, w.MongoID),
		Title:       strings.TrimSpace(w.Title),
		Price:       w.Price.value(),
		Stock:       int(w.Stock),
		ImageURLs:   w.ImageURLs,
		Category:    domain.Category(w.Category),
		Description: w.Description,
		Origin:      w.Origin,
		Quality:     w.Quality,
		Storage:     w.Storage,
		Packaging:   w.Packaging,
		Weight:      w.Weight,
		CreatedAt:   parseTime(firstNonEmpty(flexString(w.CreatedAt), flexString(w.CreatedAtDB))),
		UpdatedAt:   parseTime(w.UpdatedAt),
	}
	if len(p.ImageURLs) == 0 && w.ImageURL != "" {
		p.ImageURLs = []string{w.ImageURL}
	}

	var problems []string
	if p.ID == "" {
		problems = append(problems, "missing id")
	}
	if p.Title == "" {
		problems = append(problems, "missing title")
	}
	if !w.Price.set {
		problems = append(problems, "missing price")
	} else if p.Price.IsNegative() {
		problems = append(problems, "negative price")
	}
	if p.Stock < 0 {
		problems = append(problems, "negative stock")
	}
	if len(problems) > 0 {
		return domain.Product{}, fmt.Errorf("%w: product %q: %s", ErrInvalidPayload, p.ID, strings.Join(problems, ", "))
	}
	return p, nil
}

type wireIdentity struct {
	ID      flexString `json:"id"`
	MongoID flexString `json:"_id"`
	Name    string     `json:"name"`
	Email   string     `json:"email"`
}

func (w wireIdentity) toDomain() (domain.Identity, error) {
	id := domain.Identity{
		ID:    firstNonEmpty(w.ID, w.MongoID),
		Name:  w.Name,
		Email: w.Email,
	}
	if id.ID == "" {
		return domain.Identity{}, fmt.Errorf("%w: user without id", ErrInvalidPayload)
	}
	return id, nil
}

type wireOrderItem struct {
	ProductID   flexString `json:"productId"`
	ProductIDDB flexString `json:"product_id"`
	Title       string     `json:"title"`
	Quantity    flexInt    `json:"quantity"`
	Price       flexMoney  `json:"price"`
	ImageURL    string     `json:"imageUrl"`
}

type wireOrder struct {
	ID            flexString          `json:"id"`
	MongoID       flexString          `json:"_id"`
	UserID        flexString          `json:"userId"`
	UserIDDB      flexString          `json:"user_id"`
	Items         []wireOrderItem     `json:"items"`
	ShippingInfo  domain.ShippingInfo `json:"shippingInfo"`
	TotalAmount   flexMoney           `json:"totalAmount"`
	Total         flexMoney           `json:"total"`
	DeliveryFee   flexMoney           `json:"deliveryFee"`
	PaymentMethod string              `json:"paymentMethod"`
	Status        string              `json:"status"`
	CreatedAt     string              `json:"createdAt"`
	CreatedAtDB   string              `json:"created_at"`
}

func (w wireOrder) toDomain() (domain.Order, error) {
	o := domain.Order{
		ID:            firstNonEmpty(w.ID, w.MongoID),
		UserID:        firstNonEmpty(w.UserID, w.UserIDDB),
		ShippingInfo:  w.ShippingInfo,
		TotalAmount:   w.TotalAmount.value(),
		DeliveryFee:   w.DeliveryFee.value(),
		PaymentMethod: domain.PaymentMethod(w.PaymentMethod),
		CreatedAt:     parseTime(firstNonEmpty(flexString(w.CreatedAt), flexString(w.CreatedAtDB))),
	}
	if !w.TotalAmount.set {
		o.TotalAmount = w.Total.value()
	}
	if o.ID == "" {
		return domain.Order{}, fmt.Errorf("%w: order without id", ErrInvalidPayload)
	}

	status, err := domain.ParseOrderStatus(w.Status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: order %q: %w", ErrInvalidPayload, o.ID, err)
	}
	o.Status = status

	o.Items = make([]domain.OrderItem, 0, len(w.Items))
	for _, it := range w.Items {
		item := domain.OrderItem{
			ProductID: firstNonEmpty(it.ProductID, it.ProductIDDB),
			Title:     it.Title,
			Quantity:  int(it.Quantity),
			UnitPrice: it.Price.value(),
			ImageURL:  it.ImageURL,
		}
		if item.ProductID == "" || item.Quantity < 1 {
			return domain.Order{}, fmt.Errorf("%w: order %q has an invalid item", ErrInvalidPayload, o.ID)
		}
		o.Items = append(o.Items, item)
	}
	return o, nil
}

func convertOrders(ws []wireOrder) ([]domain.Order, []error) {
	orders := make([]domain.Order, 0, len(ws))
	var errs []error
	for _, w := range ws {
		o, err := w.toDomain()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		orders = append(orders, o)
	}
	return orders, errs
}

type wireStats struct {
	TotalOrders    flexInt            `json:"totalOrders"`
	TotalRevenue   flexMoney          `json:"totalRevenue"`
	TotalProducts  flexInt            `json:"totalProducts"`
	TotalCustomers flexInt            `json:"totalCustomers"`
	OrdersByStatus map[string]flexInt `json:"ordersByStatus"`
}

func (w wireStats) toDomain() domain.DashboardStats {
	stats := domain.DashboardStats{
		TotalOrders:    int(w.TotalOrders),
		TotalRevenue:   w.TotalRevenue.value(),
		TotalProducts:  int(w.TotalProducts),
		TotalCustomers: int(w.TotalCustomers),
		ByStatus:       make(map[domain.OrderStatus]int, len(w.OrdersByStatus)),
	}
	for k, v := range w.OrdersByStatus {
		if s, err := domain.ParseOrderStatus(k); err == nil {
			stats.ByStatus[s] += int(v)
		}
	}
	return stats
}

// joinDropped reports records that were skipped while decoding a list.
func joinDropped(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
