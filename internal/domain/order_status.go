package domain

import (
	"errors"
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

var ErrUnknownStatus = errors.New("unknown order status")

// AllOrderStatuses lists the vocabulary in lifecycle order.
var AllOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusProcessing,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {},
	OrderStatusCancelled:  {},
}

var progress = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 25,
	OrderStatusShipped:    75,
	OrderStatusDelivered:  100,
}

// ParseOrderStatus accepts any letter case ("Shipped", "SHIPPED") and the
// "canceled" spelling.
func ParseOrderStatus(s string) (OrderStatus, error) {
	v := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if v == "canceled" {
		v = OrderStatusCancelled
	}
	if _, ok := transitions[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return v, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// LegalNextStatuses returns the statuses reachable from s in one step.
// Terminal and unknown statuses yield an empty slice.
func LegalNextStatuses(s OrderStatus) []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, n := range transitions[s] {
		if n == target {
			return true
		}
	}
	return false
}

// Progress maps the status onto the four-stage tracker. Cancelled has no
// position on the tracker and reports ok=false.
func (s OrderStatus) Progress() (percent int, ok bool) {
	percent, ok = progress[s]
	return percent, ok
}

// Label is the capitalised form shown on the back-office.
func (s OrderStatus) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

func (s OrderStatus) String() string {
	return string(s)
}
