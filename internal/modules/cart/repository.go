package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("cart not found")

// Execer is satisfied by *sql.DB and *sql.Tx so the checkout flip can join
// another component's transaction.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Repository defines data access for carts.
type Repository interface {
	Create(ctx context.Context, c *Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*Cart, error)

	// LatestActiveByUser returns the user's most recent non-checked-out cart,
	// or ErrNotFound when none exists.
	LatestActiveByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)

	// MarkCheckedOut flips the checkout flag inside the caller's transaction.
	MarkCheckedOut(ctx context.Context, q Execer, id uuid.UUID) error
}
