package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodCard           PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCashOnDelivery || m == PaymentMethodCard
}

type ShippingInfo struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	City      string `json:"city"`
	ZipCode   string `json:"zipCode"`
	Phone     string `json:"phone"`
}

// Missing returns the names of the required fields that are blank.
func (s ShippingInfo) Missing() []string {
	var missing []string
	fields := []struct {
		name  string
		value string
	}{
		{"firstName", s.FirstName},
		{"lastName", s.LastName},
		{"address", s.Address},
		{"city", s.City},
		{"zipCode", s.ZipCode},
		{"phone", s.Phone},
	}
	for _, f := range fields {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"price"`
	ImageURL  string          `json:"imageUrl"`
}

type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId,omitempty"`
	Items         []OrderItem     `json:"items"`
	ShippingInfo  ShippingInfo    `json:"shippingInfo"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// NewOrderRequest is the payload sent to the order-creation endpoint.
type NewOrderRequest struct {
	ID            string          `json:"id"`
	Items         []OrderItem     `json:"items"`
	ShippingInfo  ShippingInfo    `json:"shippingInfo"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	DeliveryFee   decimal.Decimal `json:"deliveryFee"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
}

type DashboardStats struct {
	TotalOrders    int                 `json:"total_orders"`
	TotalRevenue   decimal.Decimal     `json:"total_revenue"`
	TotalProducts  int                 `json:"total_products"`
	TotalCustomers int                 `json:"total_customers"`
	ByStatus       map[OrderStatus]int `json:"by_status"`
}

// StatsFromOrders derives dashboard figures from a list of orders. Revenue
// excludes cancelled orders.
func StatsFromOrders(orders []Order) DashboardStats {
	stats := DashboardStats{
		TotalRevenue: decimal.Zero,
		ByStatus:     make(map[OrderStatus]int, len(AllOrderStatuses)),
	}
	customers := make(map[string]struct{})
	products := make(map[string]struct{})
	for _, o := range orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		if o.Status != OrderStatusCancelled {
			stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalAmount)
		}
		if o.UserID != "" {
			customers[o.UserID] = struct{}{}
		}
		for _, it := range o.Items {
			products[it.ProductID] = struct{}{}
		}
	}
	stats.TotalCustomers = len(customers)
	stats.TotalProducts = len(products)
	return stats
}
