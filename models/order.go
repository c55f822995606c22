package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "placed"
	StatusPaid           OrderStatus = "paid"
	StatusInProgress     OrderStatus = "in_progress"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// ParseOrderStatus accepts only known statuses.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(s); st {
	case StatusPlaced, StatusPaid, StatusInProgress, StatusOutForDelivery, StatusDelivered, StatusCancelled:
		return st, true
	}
	return "", false
}

// IsTerminal reports whether no further transition is possible.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DeliveryDetails is stored inline on the orders table.
type DeliveryDetails struct {
	Name         string `gorm:"column:delivery_name;not null" json:"name" binding:"required"`
	Email        string `gorm:"column:delivery_email;not null" json:"email" binding:"required,email"`
	AddressLine1 string `gorm:"column:delivery_address_line1;not null" json:"addressLine1" binding:"required"`
	City         string `gorm:"column:delivery_city;not null" json:"city" binding:"required"`
	Country      string `gorm:"column:delivery_country;not null" json:"country" binding:"required"`
}

type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	RestaurantID      string          `gorm:"type:varchar(64);not null;index" json:"restaurantId"`
	UserID            string          `gorm:"type:varchar(64);not null;index" json:"userId"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;default:'placed'" json:"status"`
	TotalAmount       *int64          `json:"totalAmount,omitempty"`
	CheckoutSessionID string          `gorm:"type:varchar(255);index" json:"-"`
	DeliveryDetails   DeliveryDetails `gorm:"embedded" json:"deliveryDetails"`
	CartItems         []CartItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"cartItems"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// CartItem is a snapshot of one cart line at checkout time.
type CartItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Position   int       `gorm:"not null" json:"-"`
	MenuItemID string    `gorm:"type:varchar(64);not null;index" json:"menuItemId"`
	Name       string    `gorm:"not null" json:"name"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	UnitPrice  int64     `gorm:"not null" json:"unitPrice"`
}

// OrderView is an order with its restaurant and customer resolved.
type OrderView struct {
	Order
	Restaurant *Restaurant `json:"restaurant,omitempty"`
	User       *User       `json:"user,omitempty"`
}

// Quantity accepts a JSON number or a numeric string.
type Quantity int64

func (q *Quantity) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return fmt.Errorf("quantity is required")
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		raw = strings.TrimSpace(s)
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("quantity must be an integer: %q", raw)
	}
	*q = Quantity(n)
	return nil
}

type CheckoutCartItem struct {
	MenuItemID string   `json:"menuItemId" binding:"required"`
	Name       string   `json:"name"`
	Quantity   Quantity `json:"quantity" binding:"required,gt=0"`
}

type CheckoutSessionRequest struct {
	CartItems       []CheckoutCartItem `json:"cartItems" binding:"required,min=1,dive"`
	RestaurantID    string             `json:"restaurantId" binding:"required"`
	DeliveryDetails DeliveryDetails    `json:"deliveryDetails" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
