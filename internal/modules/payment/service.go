package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kartik7310/ProductHub/internal/modules/order"
)

// OrderReader is the slice of the order store the reconciliation service
// needs: ownership-checked lookups.
type OrderReader interface {
	GetOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*order.Order, error)
}

// Service reconciles local payment state with the external gateway. The
// gateway's status is the single source of truth for settlement; a local
// PENDING payment is never promoted without asking the gateway first.
type Service interface {
	CreateIntent(ctx context.Context, userID uuid.UUID, req CreateIntentRequest) (*CreateIntentResponse, error)
	Verify(ctx context.Context, userID uuid.UUID, req VerifyRequest) (*Payment, error)
	GetPayment(ctx context.Context, userID, id uuid.UUID) (*Payment, error)
	GetPaymentByOrder(ctx context.Context, userID, orderID uuid.UUID) (*Payment, error)
	ListPayments(ctx context.Context, userID uuid.UUID) ([]*Payment, error)
}

type service struct {
	repo    Repository
	orders  OrderReader
	gateway Gateway
	log     *zap.Logger
}

// NewService creates the payment reconciliation service.
func NewService(repo Repository, orders OrderReader, gateway Gateway, log *zap.Logger) Service {
	return &service{repo: repo, orders: orders, gateway: gateway, log: log}
}

func (s *service) CreateIntent(ctx context.Context, userID uuid.UUID, req CreateIntentRequest) (*CreateIntentResponse, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order_id: %w", err)
	}
	if req.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be greater than 0")
	}
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	// Ownership check: an order belonging to someone else looks absent.
	o, err := s.orders.GetOrder(ctx, orderID, &userID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// Retries stack PENDING rows on the same order, so the guard asks for a
	// COMPLETED payment directly rather than inspecting the newest row.
	if _, err := s.repo.GetCompletedByOrder(ctx, orderID); err == nil {
		return nil, ErrAlreadyPaid
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	// Minor units only; decimals never reach the wire.
	amountMinor := req.Amount.Shift(2).Round(0).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, amountMinor, currency, map[string]string{
		"orderId": o.ID.String(),
		"userId":  userID.String(),
	})
	if err != nil {
		return nil, err
	}

	p := &Payment{
		ID:            uuid.New(),
		OrderID:       orderID,
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      currency,
		Status:        StatusPending,
		PaymentMethod: "STRIPE",
		TransactionID: intent.ID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.log.Info("payment intent created",
		zap.String("payment_id", p.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("intent_id", intent.ID))
	return &CreateIntentResponse{ClientSecret: intent.ClientSecret, PaymentID: p.ID}, nil
}

func (s *service) Verify(ctx context.Context, userID uuid.UUID, req VerifyRequest) (*Payment, error) {
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, fmt.Errorf("invalid order_id: %w", err)
	}
	if req.PaymentIntentID == "" {
		return nil, fmt.Errorf("payment_intent_id is required")
	}

	p, err := s.repo.GetByTransaction(ctx, userID, orderID, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusCompleted {
		// Idempotent guard: a settled payment is never reprocessed.
		return nil, ErrAlreadyPaid
	}

	status, err := s.gateway.GetIntentStatus(ctx, req.PaymentIntentID)
	if err != nil {
		return nil, err
	}
	if status != IntentSucceeded {
		return nil, fmt.Errorf("gateway reports %s: %w", status, ErrPaymentNotCompleted)
	}

	// This read happens outside the settle transaction; that is sound only
	// because an order's cart_id is written once at creation and no update
	// path touches it afterwards.
	o, err := s.orders.GetOrder(ctx, orderID, &userID)
	if err != nil {
		return nil, err
	}

	// One transaction: payment -> COMPLETED and, if the order came from a
	// cart, cart.checkout -> true. Order.status is deliberately untouched.
	if err := s.repo.MarkCompleted(ctx, p.ID, o.CartID); err != nil {
		return nil, err
	}

	p.Status = StatusCompleted
	s.log.Info("payment settled",
		zap.String("payment_id", p.ID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("intent_id", req.PaymentIntentID))
	return p, nil
}

func (s *service) GetPayment(ctx context.Context, userID, id uuid.UUID) (*Payment, error) {
	return s.repo.GetByID(ctx, id, &userID)
}

func (s *service) GetPaymentByOrder(ctx context.Context, userID, orderID uuid.UUID) (*Payment, error) {
	return s.repo.GetByOrder(ctx, orderID, &userID)
}

func (s *service) ListPayments(ctx context.Context, userID uuid.UUID) ([]*Payment, error) {
	return s.repo.ListByUser(ctx, userID)
}
