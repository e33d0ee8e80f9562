package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusConfirmed OrderStatus = "CONFIRMED"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// validTransitions defines the allowed status state machine. PENDING is the
// sole initial state; CANCELLED and COMPLETED are terminal.
var validTransitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransition reports whether moving from one status to another is legal.
// Re-sending the current status is a no-op, not a violation, so client
// retries stay idempotent.
func CanTransition(from, to OrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Order is a customer's order with its line items. TotalAmount and Items are
// immutable after creation.
type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"user_id"`
	OrderNumber     string          `json:"order_number"`
	Status          OrderStatus     `json:"status"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	CartID          *uuid.UUID      `json:"cart_id,omitempty"`
	TrackingNumber  string          `json:"tracking_number,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Items           []*OrderItem    `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// OrderItem is a single line item. Price is snapshotted at order creation and
// never recomputed, even if the product's price changes later.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

// Subtotal is the line's contribution to the order total.
func (i *OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LineItem is what a caller asks for; price comes from the catalog.
type LineItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is the payload for placing a new order.
type CreateOrderRequest struct {
	ShippingAddress string     `json:"shipping_address"`
	Items           []LineItem `json:"items"`
}

// UpdateOrderRequest is a partial update; items and totals cannot be touched.
type UpdateOrderRequest struct {
	Status         *OrderStatus `json:"status,omitempty"`
	TrackingNumber *string      `json:"tracking_number,omitempty"`
	Notes          *string      `json:"notes,omitempty"`
}

// Query filters order listings.
type Query struct {
	Status OrderStatus
	Page   int
	Limit  int
}

// generateOrderNumber builds a unique human-readable order number. The UUID
// suffix is what guarantees uniqueness; a UNIQUE constraint backs it up.
func generateOrderNumber() string {
	date := time.Now().UTC().Format("20060102")
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("ORD-%s-%s", date, suffix)
}
