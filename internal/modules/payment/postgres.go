package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kartik7310/ProductHub/internal/modules/cart"
)

type postgresRepo struct {
	db    *sql.DB
	carts cart.Repository
}

// NewPostgresRepository creates a new PostgreSQL payment repository. The cart
// repository performs the checkout flip inside this repository's settle
// transaction.
func NewPostgresRepository(db *sql.DB, carts cart.Repository) Repository {
	return &postgresRepo{db: db, carts: carts}
}

const paymentColumns = `id, order_id, user_id, amount, currency, status, payment_method, transaction_id, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *Payment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, order_id, user_id, amount, currency, status, payment_method, transaction_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.OrderID, p.UserID, p.Amount, p.Currency, p.Status, p.PaymentMethod, p.TransactionID)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	args := []interface{}{id}
	if owner != nil {
		query += ` AND user_id = $2`
		args = append(args, *owner)
	}
	return scanPayment(r.db.QueryRowContext(ctx, query, args...))
}

func (r *postgresRepo) GetByOrder(ctx context.Context, orderID uuid.UUID, owner *uuid.UUID) (*Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`
	args := []interface{}{orderID}
	if owner != nil {
		query += ` AND user_id = $2`
		args = append(args, *owner)
	}
	query += ` ORDER BY created_at DESC LIMIT 1`
	return scanPayment(r.db.QueryRowContext(ctx, query, args...))
}

func (r *postgresRepo) GetCompletedByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE order_id = $1 AND status = $2`, orderID, StatusCompleted))
}

func (r *postgresRepo) GetByTransaction(ctx context.Context, userID, orderID uuid.UUID, transactionID string) (*Payment, error) {
	return scanPayment(r.db.QueryRowContext(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE user_id = $1 AND order_id = $2 AND transaction_id = $3`,
		userID, orderID, transactionID))
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *postgresRepo) MarkCompleted(ctx context.Context, paymentID uuid.UUID, cartID *uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// At most one COMPLETED payment per order: the NOT EXISTS clause stops a
	// sibling PENDING row from settling after a retry already did, and the
	// partial unique index on payments(order_id) is the backstop.
	res, err := tx.ExecContext(ctx, `
		UPDATE payments p SET status = $2, updated_at = NOW()
		WHERE p.id = $1 AND p.status <> $2
		  AND NOT EXISTS (
			SELECT 1 FROM payments q
			WHERE q.order_id = p.order_id AND q.status = $2
		  )`, paymentID, StatusCompleted)
	if err != nil {
		return fmt.Errorf("complete payment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrAlreadyPaid
	}

	if cartID != nil {
		if err := r.carts.MarkCheckedOut(ctx, tx, *cartID); err != nil {
			return fmt.Errorf("mark cart checked out: %w", err)
		}
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*Payment, error) {
	p := &Payment{}
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Amount, &p.Currency,
		&p.Status, &p.PaymentMethod, &p.TransactionID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return p, nil
}
