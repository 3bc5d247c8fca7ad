package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

type wireNewOrderItem struct {
	ProductID string      `json:"productId"`
	Title     string      `json:"title"`
	Price     json.Number `json:"price"`
	Quantity  int         `json:"quantity"`
	ImageURL  string      `json:"imageUrl"`
}

type wireNewOrder struct {
	ID            string              `json:"id"`
	Items         []wireNewOrderItem  `json:"items"`
	ShippingInfo  domain.ShippingInfo `json:"shippingInfo"`
	TotalAmount   json.Number         `json:"totalAmount"`
	DeliveryFee   json.Number         `json:"deliveryFee"`
	PaymentMethod string              `json:"paymentMethod"`
}

// newOrderPayload sends amounts as JSON numbers, which is what the
// order-creation endpoint expects.
func newOrderPayload(r domain.NewOrderRequest) wireNewOrder {
	items := make([]wireNewOrderItem, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, wireNewOrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     json.Number(it.UnitPrice.String()),
			Quantity:  it.Quantity,
			ImageURL:  it.ImageURL,
		})
	}
	return wireNewOrder{
		ID:            r.ID,
		Items:         items,
		ShippingInfo:  r.ShippingInfo,
		TotalAmount:   json.Number(r.TotalAmount.String()),
		DeliveryFee:   json.Number(r.DeliveryFee.String()),
		PaymentMethod: string(r.PaymentMethod),
	}
}

// CreateOrder submits a new order. When the remote echoes the stored order
// it is returned; a bare acknowledgement yields an Order built from the request.
func (c *Client) CreateOrder(ctx context.Context, token string, r domain.NewOrderRequest) (domain.Order, error) {
	req, err := jsonRequest(http.MethodPost, "/order", token, newOrderPayload(r))
	if err != nil {
		return domain.Order{}, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return domain.Order{}, err
	}

	if o, ok := orderFromRaw(raw); ok {
		return o, nil
	}
	return domain.Order{
		ID:            r.ID,
		Items:         r.Items,
		ShippingInfo:  r.ShippingInfo,
		TotalAmount:   r.TotalAmount,
		DeliveryFee:   r.DeliveryFee,
		PaymentMethod: r.PaymentMethod,
		Status:        domain.OrderStatusPending,
	}, nil
}

func (c *Client) listOrders(ctx context.Context, token, path string) ([]domain.Order, error) {
	var ws []wireOrder
	if err := c.do(ctx, request{method: http.MethodGet, path: path, token: token}, &ws); err != nil {
		return nil, err
	}
	orders, dropped := convertOrders(ws)
	if err := joinDropped(dropped); err != nil {
		c.log.WarnContext(ctx, "dropped invalid orders", "path", path, "count", len(dropped), "error", err)
	}
	return orders, nil
}

// ListAllOrders is the admin listing.
func (c *Client) ListAllOrders(ctx context.Context, token string) ([]domain.Order, error) {
	return c.listOrders(ctx, token, "/order/all")
}

func (c *Client) ListMyOrders(ctx context.Context, token, userID string) ([]domain.Order, error) {
	return c.listOrders(ctx, token, "/order/my-orders?id="+url.QueryEscape(userID))
}

func (c *Client) GetOrder(ctx context.Context, token, id string) (domain.Order, error) {
	var w wireOrder
	if err := c.do(ctx, request{method: http.MethodGet, path: "/order/" + url.PathEscape(id), token: token}, &w); err != nil {
		return domain.Order{}, err
	}
	o, err := w.toDomain()
	if err != nil {
		return domain.Order{}, fmt.Errorf("%w: %w", ErrRemoteCall, err)
	}
	return o, nil
}

type statusUpdate struct {
	Status domain.OrderStatus `json:"status"`
}

// UpdateOrderStatus asks the remote to move order id to status and returns
// the order as the server now holds it. The boolean is false when the
// response carried no usable order.
func (c *Client) UpdateOrderStatus(ctx context.Context, token, id string, status domain.OrderStatus) (domain.Order, bool, error) {
	req, err := jsonRequest(http.MethodPatch, "/order/"+url.PathEscape(id)+"/status", token, statusUpdate{Status: status})
	if err != nil {
		return domain.Order{}, false, err
	}

	var raw json.RawMessage
	if err := c.do(ctx, req, &raw); err != nil {
		return domain.Order{}, false, err
	}

	o, ok := orderFromRaw(raw)
	return o, ok, nil
}

// orderFromRaw accepts a bare order or one nested under "order".
func orderFromRaw(raw json.RawMessage) (domain.Order, bool) {
	if len(raw) == 0 {
		return domain.Order{}, false
	}
	var nested struct {
		Order *wireOrder `json:"order"`
	}
	if json.Unmarshal(raw, &nested) == nil && nested.Order != nil {
		if o, err := nested.Order.toDomain(); err == nil {
			return o, true
		}
	}
	var w wireOrder
	if json.Unmarshal(raw, &w) != nil {
		return domain.Order{}, false
	}
	o, err := w.toDomain()
	if err != nil {
		return domain.Order{}, false
	}
	return o, true
}

func (c *Client) DashboardStats(ctx context.Context, token string) (domain.DashboardStats, error) {
	var w wireStats
	if err := c.do(ctx, request{method: http.MethodGet, path: "/order/stats", token: token}, &w); err != nil {
		return domain.DashboardStats{}, err
	}
	return w.toDomain(), nil
}
