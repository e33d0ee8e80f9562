package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound covers both truly absent orders and orders owned by a
	// different user: callers cannot tell the two apart.
	ErrNotFound = errors.New("order not found")

	// ErrNotCancellable is returned when cancelling an order that is no
	// longer PENDING.
	ErrNotCancellable = errors.New("only PENDING orders can be cancelled")

	// ErrInvalidTransition is returned for status updates the state machine
	// does not allow.
	ErrInvalidTransition = errors.New("illegal order status transition")
)

// Repository defines data access for orders. An owner of nil means no
// ownership filtering (admin access).
type Repository interface {
	// CreateOrder persists the order, its items, and every stock
	// reservation in a single transaction. If any reservation fails the
	// whole order is rolled back.
	CreateOrder(ctx context.Context, o *Order) error

	GetOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Order, error)

	ListOrders(ctx context.Context, owner *uuid.UUID, q Query) ([]*Order, error)

	// UpdateOrder applies a partial update. When the patch changes status,
	// expected carries the status the caller validated against and the
	// update is conditional on it, so a concurrent transition loses cleanly.
	UpdateOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID, patch UpdateOrderRequest, expected *OrderStatus) (*Order, error)

	// CancelOrder transitions a PENDING order to CANCELLED and releases
	// every line item's stock, all in one transaction. The PENDING check is
	// consumed atomically with the transition.
	CancelOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Order, error)
}
