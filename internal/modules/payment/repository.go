package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("payment not found")

	// ErrAlreadyPaid guards settled state: a COMPLETED payment is never
	// reprocessed and never gets a second intent stacked on top of it.
	ErrAlreadyPaid = errors.New("payment already completed")

	// ErrPaymentNotCompleted means the gateway has not confirmed settlement
	// yet. Local state is left untouched; the caller may retry later.
	ErrPaymentNotCompleted = errors.New("payment not completed")
)

// Repository defines data access for payments.
type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Payment, error)

	// GetByOrder returns any payment for the order, regardless of status.
	GetByOrder(ctx context.Context, orderID uuid.UUID, owner *uuid.UUID) (*Payment, error)

	// GetCompletedByOrder returns the order's COMPLETED payment, or ErrNotFound
	// when the order has never settled. Retries leave multiple PENDING rows per
	// order, so checking the newest row is not enough to detect settlement.
	GetCompletedByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error)

	// GetByTransaction locates the payment matching the exact
	// (user, order, gateway intent) triple used during verification.
	GetByTransaction(ctx context.Context, userID, orderID uuid.UUID, transactionID string) (*Payment, error)

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Payment, error)

	// MarkCompleted flips the payment to COMPLETED and, when cartID is set,
	// flips that cart's checkout flag — both in one transaction. The status
	// flip is conditional; losing a settle race yields ErrAlreadyPaid.
	MarkCompleted(ctx context.Context, paymentID uuid.UUID, cartID *uuid.UUID) error
}
