package orders

import (
	"time"

	"github.com/ariefcatur/go-restaurant-orders/internal/money"
)

// LineItem is the immutable snapshot stored with an order.
type LineItem struct {
	MenuItemID string      `json:"id"`
	Name       string      `json:"name"`
	PriceCents money.Cents `json:"price_cents"`
	Quantity   int         `json:"quantity"`
}

func (l LineItem) Total() money.Cents { return l.PriceCents.Mul(l.Quantity) }

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"order_number"`
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	Items           []LineItem    `json:"items"`
	TotalCents      money.Cents   `json:"total_cents"`
	Status          Status        `json:"status"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	UserID          string        `json:"user_id,omitempty"`
	DeliveryAddress string        `json:"delivery_address,omitempty"`
	Location        *Location     `json:"location,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// NewOrder is the creation payload built at checkout.
type NewOrder struct {
	ID              string
	OrderNumber     string
	CustomerName    string
	CustomerPhone   string
	Items           []LineItem
	TotalCents      money.Cents
	Status          Status
	PaymentStatus   PaymentStatus
	UserID          string
	DeliveryAddress string
	Location        *Location
}

// Tracking is the public view served by order number.
type Tracking struct {
	OrderNumber   string        `json:"order_number"`
	Status        Status        `json:"status"`
	Step          int           `json:"step"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}
