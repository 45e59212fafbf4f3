package models

import (
	"encoding/json"
	"time"
)

// Order represents an incoming customer order as tracked by the order desk.
// Items and payment details are carried as an opaque payload; the desk only
// acts on the status field.
type Order struct {
	ID            string          `db:"id" json:"id"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	Total         float64         `db:"total" json:"total"`
	Status        OrderStatus     `db:"status" json:"status"`
	PaymentMethod string          `db:"payment_method" json:"payment_method"`
	Items         json.RawMessage `db:"items" json:"items,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// NewOrder creates a new order awaiting a staff decision
func NewOrder(customerName string, total float64, paymentMethod string, items json.RawMessage) *Order {
	now := GetCurrentTime()

	return &Order{
		ID:            GenerateID("ord"),
		CustomerName:  customerName,
		Total:         total,
		Status:        OrderStatusNew,
		PaymentMethod: paymentMethod,
		Items:         items,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
