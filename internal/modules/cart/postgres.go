package cart

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL cart repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, c *Cart) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, user_id, checkout)
		VALUES ($1, $2, $3)`, c.ID, c.UserID, c.Checkout)
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Cart, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, checkout, created_at, updated_at
		FROM carts WHERE id = $1`, id))
}

func (r *postgresRepo) LatestActiveByUser(ctx context.Context, userID uuid.UUID) (*Cart, error) {
	return r.scan(r.db.QueryRowContext(ctx, `
		SELECT id, user_id, checkout, created_at, updated_at
		FROM carts
		WHERE user_id = $1 AND checkout = FALSE
		ORDER BY created_at DESC
		LIMIT 1`, userID))
}

func (r *postgresRepo) MarkCheckedOut(ctx context.Context, q Execer, id uuid.UUID) error {
	res, err := q.ExecContext(ctx, `
		UPDATE carts SET checkout = TRUE, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scan(row *sql.Row) (*Cart, error) {
	c := &Cart{}
	err := row.Scan(&c.ID, &c.UserID, &c.Checkout, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
