package models

import "time"

const (
	EventCheckoutCreated    = "order.checkout_created"
	EventOrderPaid          = "order.paid"
	EventOrderStatusChanged = "order.status_changed"
)

// OrderEvent is published after every applied order state change.
// TotalAmount is the quoted charge on checkout_created and the amount the
// gateway collected on paid.
type OrderEvent struct {
	Type         string      `json:"type"`
	OrderID      string      `json:"order_id"`
	RestaurantID string      `json:"restaurant_id"`
	UserID       string      `json:"user_id"`
	Status       OrderStatus `json:"status"`
	Previous     OrderStatus `json:"previous_status,omitempty"`
	TotalAmount  *int64      `json:"total_amount,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}
