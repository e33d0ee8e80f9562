package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInsufficientStock is returned when a reservation asks for more units than
// the product currently has. It is a normal business rejection, not a fault.
var ErrInsufficientStock = errors.New("insufficient stock")

// Execer is the subset of database/sql needed by the ledger. Both *sql.DB and
// *sql.Tx satisfy it, so callers can run ledger operations inside their own
// transactions.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Ledger mutates product stock through conditional decrements and increments.
// Stock is never read-then-written: the WHERE clause on Reserve is what keeps
// concurrent reservations from overselling.
type Ledger struct{}

func NewLedger() *Ledger { return &Ledger{} }

// Reserve decrements stock by qty only if at least qty units are available.
// The check and the decrement are a single UPDATE; zero rows affected means
// another reservation won the race or stock was already too low.
func (l *Ledger) Reserve(ctx context.Context, q Execer, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve quantity must be positive, got %d", qty)
	}
	res, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return fmt.Errorf("reserve stock for product %s: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s: %w", productID, ErrInsufficientStock)
	}
	return nil
}

// Release returns qty units to a product's stock. There is no upper bound
// check: callers release only quantities they previously reserved.
func (l *Ledger) Release(ctx context.Context, q Execer, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("release quantity must be positive, got %d", qty)
	}
	res, err := q.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1`, productID, qty)
	if err != nil {
		return fmt.Errorf("release stock for product %s: %w", productID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("product %s not found", productID)
	}
	return nil
}
