package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kartik7310/ProductHub/internal/modules/inventory"
)

type postgresRepo struct {
	db     *sql.DB
	ledger *inventory.Ledger
}

// NewPostgresRepository creates a new PostgreSQL order repository. The ledger
// runs stock reservations and releases inside this repository's transactions.
func NewPostgresRepository(db *sql.DB, ledger *inventory.Ledger) Repository {
	return &postgresRepo{db: db, ledger: ledger}
}

const orderColumns = `id, user_id, order_number, status, total_amount, shipping_address,
	cart_id, tracking_number, notes, created_at, updated_at`

func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Reservations first: a conditional decrement that affects zero rows
	// aborts the whole order before anything is written.
	for _, item := range o.Items {
		if err := r.ledger.Reserve(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders
		  (id, user_id, order_number, status, total_amount, shipping_address, cart_id, tracking_number, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		o.ID, o.UserID, o.OrderNumber, o.Status, o.TotalAmount,
		o.ShippingAddress, o.CartID, o.TrackingNumber, o.Notes); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, item := range o.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price)
			VALUES ($1,$2,$3,$4,$5)`,
			item.ID, o.ID, item.ProductID, item.Quantity, item.Price); err != nil {
			return fmt.Errorf("insert order_item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *postgresRepo) GetOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	args := []interface{}{id}
	if owner != nil {
		query += ` AND user_id = $2`
		args = append(args, *owner)
	}
	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, r.db, o.ID)
	return o, err
}

func (r *postgresRepo) ListOrders(ctx context.Context, owner *uuid.UUID, q Query) ([]*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var clauses []string
	var args []interface{}
	if owner != nil {
		args = append(args, *owner)
		clauses = append(clauses, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if o.Items, err = r.listItems(ctx, r.db, o.ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *postgresRepo) UpdateOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID, patch UpdateOrderRequest, expected *OrderStatus) (*Order, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.TrackingNumber != nil {
		add("tracking_number", *patch.TrackingNumber)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}

	query := `UPDATE orders SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	if owner != nil {
		args = append(args, *owner)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if expected != nil {
		args = append(args, *expected)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += ` RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, ErrNotFound) && expected != nil {
		// The order may exist but have moved status under us.
		if _, probeErr := r.GetOrder(ctx, id, owner); probeErr == nil {
			return nil, ErrInvalidTransition
		}
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.Items, err = r.listItems(ctx, r.db, o.ID)
	return o, err
}

func (r *postgresRepo) CancelOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// The PENDING precondition is checked and consumed by the same UPDATE,
	// so two concurrent cancellations cannot both release stock.
	query := `
		UPDATE orders SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3`
	args := []interface{}{id, StatusCancelled, StatusPending}
	if owner != nil {
		args = append(args, *owner)
		query += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	query += ` RETURNING ` + orderColumns

	o, err := scanOrder(tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, ErrNotFound) {
		return nil, r.classifyCancelFailure(ctx, id, owner)
	}
	if err != nil {
		return nil, err
	}

	if o.Items, err = r.listItems(ctx, tx, o.ID); err != nil {
		return nil, err
	}
	for _, item := range o.Items {
		if err := r.ledger.Release(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return o, nil
}

// classifyCancelFailure distinguishes a missing (or foreign) order from one
// that exists but is no longer PENDING.
func (r *postgresRepo) classifyCancelFailure(ctx context.Context, id uuid.UUID, owner *uuid.UUID) error {
	query := `SELECT status FROM orders WHERE id = $1`
	args := []interface{}{id}
	if owner != nil {
		query += ` AND user_id = $2`
		args = append(args, *owner)
	}
	var status OrderStatus
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("order is %s: %w", status, ErrNotCancellable)
}

// ---- helpers ----

type rowScanner interface {
	Scan(dest ...interface{}) error
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

func scanOrder(row rowScanner) (*Order, error) {
	o := &Order{}
	var cartID sql.NullString
	var tracking, notes sql.NullString
	err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &o.Status, &o.TotalAmount,
		&o.ShippingAddress, &cartID, &tracking, &notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if cartID.Valid {
		cid, _ := uuid.Parse(cartID.String)
		o.CartID = &cid
	}
	o.TrackingNumber = tracking.String
	o.Notes = notes.String
	return o, nil
}

func (r *postgresRepo) listItems(ctx context.Context, q querier, orderID uuid.UUID) ([]*OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, quantity, price, created_at
		FROM order_items WHERE order_id = $1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*OrderItem
	for rows.Next() {
		item := &OrderItem{}
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID,
			&item.Quantity, &item.Price, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
