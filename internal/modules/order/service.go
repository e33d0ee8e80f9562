package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kartik7310/ProductHub/internal/modules/cart"
	"github.com/kartik7310/ProductHub/internal/modules/catalog"
)

// ProductReader is the slice of the catalog the orchestrator needs: price and
// existence at order-creation time.
type ProductReader interface {
	GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]*catalog.Product, error)
}

// CartFinder locates the caller's latest active cart so the order can
// reference it.
type CartFinder interface {
	LatestActiveByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error)
}

// Service is the order orchestrator. Owner filtering is threaded through
// every call: a nil owner means admin access.
type Service interface {
	CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*Order, error)
	GetOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Order, error)
	ListOrders(ctx context.Context, owner *uuid.UUID, q Query) ([]*Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID, patch UpdateOrderRequest) (*Order, error)
	CancelOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Order, error)
}

type service struct {
	repo     Repository
	products ProductReader
	carts    CartFinder
	log      *zap.Logger
}

// NewService creates the order orchestrator.
func NewService(repo Repository, products ProductReader, carts CartFinder, log *zap.Logger) Service {
	return &service{repo: repo, products: products, carts: carts, log: log}
}

func (s *service) CreateOrder(ctx context.Context, userID uuid.UUID, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	productIDs := make([]uuid.UUID, 0, len(req.Items))
	for _, li := range req.Items {
		if li.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be > 0 for product %s", li.ProductID)
		}
		pid, err := uuid.Parse(li.ProductID)
		if err != nil {
			return nil, fmt.Errorf("invalid product_id %q: %w", li.ProductID, err)
		}
		productIDs = append(productIDs, pid)
	}

	products, err := s.products.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	productMap := make(map[uuid.UUID]*catalog.Product, len(products))
	for _, p := range products {
		productMap[p.ID] = p
	}

	orderID := uuid.New()
	total := decimal.Zero
	items := make([]*OrderItem, 0, len(req.Items))
	for i, li := range req.Items {
		p, ok := productMap[productIDs[i]]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", li.ProductID, catalog.ErrNotFound)
		}
		if !p.IsActive {
			return nil, fmt.Errorf("product %s is not available", li.ProductID)
		}
		items = append(items, &OrderItem{
			ID:        uuid.New(),
			OrderID:   orderID,
			ProductID: p.ID,
			Quantity:  li.Quantity,
			Price:     p.Price, // snapshot, never recomputed
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(li.Quantity))))
	}

	o := &Order{
		ID:              orderID,
		UserID:          userID,
		OrderNumber:     generateOrderNumber(),
		Status:          StatusPending,
		TotalAmount:     total,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
	}

	// The order remembers which cart it came from; the cart's checkout flag
	// stays false until the payment settles.
	if c, err := s.carts.LatestActiveByUser(ctx, userID); err == nil {
		o.CartID = &c.ID
	} else if !errors.Is(err, cart.ErrNotFound) {
		return nil, fmt.Errorf("find cart: %w", err)
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	s.log.Info("order created",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", o.TotalAmount.String()))
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Order, error) {
	return s.repo.GetOrder(ctx, id, owner)
}

func (s *service) ListOrders(ctx context.Context, owner *uuid.UUID, q Query) ([]*Order, error) {
	return s.repo.ListOrders(ctx, owner, q)
}

func (s *service) UpdateOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID, patch UpdateOrderRequest) (*Order, error) {
	var expected *OrderStatus
	if patch.Status != nil {
		current, err := s.repo.GetOrder(ctx, id, owner)
		if err != nil {
			return nil, err
		}
		if !CanTransition(current.Status, *patch.Status) {
			return nil, fmt.Errorf("cannot move order from %s to %s: %w",
				current.Status, *patch.Status, ErrInvalidTransition)
		}
		expected = &current.Status
	}
	return s.repo.UpdateOrder(ctx, id, owner, patch, expected)
}

func (s *service) CancelOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Order, error) {
	o, err := s.repo.CancelOrder(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	s.log.Info("order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber))
	return o, nil
}
