package orders

import "errors"

var (
	ErrIllegalTransition = errors.New("illegal transition of order status")
	ErrOrderNotFound     = errors.New("order not found")
	ErrNotSignedIn       = errors.New("not signed in")
	ErrUpdateInFlight    = errors.New("order status update already in progress")
)
