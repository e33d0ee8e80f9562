package payment

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kartik7310/ProductHub/internal/modules/order"
)

//
// ---------- STUBS & FAKES ----------
//

type stubOrders struct{ orders map[uuid.UUID]*order.Order }

func (s *stubOrders) GetOrder(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*order.Order, error) {
	o, ok := s.orders[id]
	if !ok || (owner != nil && o.UserID != *owner) {
		return nil, order.ErrNotFound
	}
	return o, nil
}

type stubGateway struct {
	status      IntentStatus
	statusErr   error
	createCalls int
	statusCalls int
	lastAmount  int64
	lastCurr    string
	lastMeta    map[string]string
}

func (g *stubGateway) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*Intent, error) {
	g.createCalls++
	g.lastAmount = amountMinor
	g.lastCurr = currency
	g.lastMeta = metadata
	return &Intent{ID: "pi_" + uuid.New().String()[:8], ClientSecret: "secret"}, nil
}

func (g *stubGateway) GetIntentStatus(ctx context.Context, intentID string) (IntentStatus, error) {
	g.statusCalls++
	if g.statusErr != nil {
		return IntentUnknown, g.statusErr
	}
	return g.status, nil
}

type memPaymentRepo struct {
	mu             sync.Mutex
	payments       map[uuid.UUID]*Payment
	cartsFlipped   []uuid.UUID
	completedCalls int
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]*Payment)}
}

func (r *memPaymentRepo) Create(ctx context.Context, p *Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.payments[p.ID] = &cp
	return nil
}

func (r *memPaymentRepo) GetByID(ctx context.Context, id uuid.UUID, owner *uuid.UUID) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok || (owner != nil && p.UserID != *owner) {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPaymentRepo) GetByOrder(ctx context.Context, orderID uuid.UUID, owner *uuid.UUID) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID && (owner == nil || p.UserID == *owner) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memPaymentRepo) GetCompletedByOrder(ctx context.Context, orderID uuid.UUID) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID && p.Status == StatusCompleted {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memPaymentRepo) GetByTransaction(ctx context.Context, userID, orderID uuid.UUID, transactionID string) (*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.UserID == userID && p.OrderID == orderID && p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memPaymentRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Payment
	for _, p := range r.payments {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPaymentRepo) MarkCompleted(ctx context.Context, paymentID uuid.UUID, cartID *uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completedCalls++
	p, ok := r.payments[paymentID]
	if !ok {
		return ErrNotFound
	}
	if p.Status == StatusCompleted {
		return ErrAlreadyPaid
	}
	for _, q := range r.payments {
		if q.OrderID == p.OrderID && q.Status == StatusCompleted {
			return ErrAlreadyPaid
		}
	}
	p.Status = StatusCompleted
	if cartID != nil {
		r.cartsFlipped = append(r.cartsFlipped, *cartID)
	}
	return nil
}

type fixture struct {
	svc     Service
	repo    *memPaymentRepo
	gateway *stubGateway
	orders  *stubOrders
	userID  uuid.UUID
	orderID uuid.UUID
	cartID  uuid.UUID
}

func newFixture(withCart bool) *fixture {
	userID := uuid.New()
	orderID := uuid.New()
	cartID := uuid.New()

	o := &order.Order{ID: orderID, UserID: userID, Status: order.StatusPending}
	if withCart {
		o.CartID = &cartID
	}
	orders := &stubOrders{orders: map[uuid.UUID]*order.Order{orderID: o}}
	repo := newMemPaymentRepo()
	gateway := &stubGateway{status: IntentSucceeded}
	return &fixture{
		svc:     NewService(repo, orders, gateway, zap.NewNop()),
		repo:    repo,
		gateway: gateway,
		orders:  orders,
		userID:  userID,
		orderID: orderID,
		cartID:  cartID,
	}
}

//
// ---------- TESTS ----------
//

func TestCreateIntent_SendsMinorUnits(t *testing.T) {
	f := newFixture(true)

	resp, err := f.svc.CreateIntent(context.Background(), f.userID, CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("99.99"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if resp.ClientSecret == "" {
		t.Error("Expected a client secret")
	}
	if f.gateway.lastAmount != 9999 {
		t.Errorf("Expected 9999 minor units, got %d", f.gateway.lastAmount)
	}
	if f.gateway.lastMeta["orderId"] != f.orderID.String() {
		t.Errorf("Expected orderId metadata, got %v", f.gateway.lastMeta)
	}

	p, err := f.repo.GetByID(context.Background(), resp.PaymentID, nil)
	if err != nil {
		t.Fatalf("Expected payment row, got: %v", err)
	}
	if p.Status != StatusPending {
		t.Errorf("Expected PENDING payment, got %s", p.Status)
	}
	if p.TransactionID == "" {
		t.Error("Expected transaction id linked to the gateway intent")
	}
}

func TestCreateIntent_RejectsSettledOrderBeforeGatewayCall(t *testing.T) {
	f := newFixture(true)
	f.repo.Create(context.Background(), &Payment{
		ID: uuid.New(), OrderID: f.orderID, UserID: f.userID,
		Status: StatusCompleted, TransactionID: "pi_done",
	})

	_, err := f.svc.CreateIntent(context.Background(), f.userID, CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("Expected ErrAlreadyPaid, got: %v", err)
	}
	if f.gateway.createCalls != 0 {
		t.Error("No gateway intent may be created on top of settled state")
	}
}

func TestCreateIntent_ForeignOrderLooksAbsent(t *testing.T) {
	f := newFixture(true)

	_, err := f.svc.CreateIntent(context.Background(), uuid.New(), CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("10.00"),
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got: %v", err)
	}
}

func TestVerify_SettlesAndFlipsCartOnce(t *testing.T) {
	f := newFixture(true)
	resp, err := f.svc.CreateIntent(context.Background(), f.userID, CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("50.00"),
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	created, _ := f.repo.GetByID(context.Background(), resp.PaymentID, nil)

	p, err := f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: created.TransactionID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.Status != StatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", p.Status)
	}
	if len(f.repo.cartsFlipped) != 1 || f.repo.cartsFlipped[0] != f.cartID {
		t.Errorf("Expected cart %s flipped exactly once, got %v", f.cartID, f.repo.cartsFlipped)
	}

	// Second verification with the gateway still reporting succeeded: the
	// idempotent guard rejects it before any further mutation.
	_, err = f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: created.TransactionID,
	})
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("Expected ErrAlreadyPaid on second verify, got: %v", err)
	}
	if len(f.repo.cartsFlipped) != 1 {
		t.Errorf("Cart flipped more than once: %v", f.repo.cartsFlipped)
	}
	if f.gateway.statusCalls != 1 {
		t.Errorf("Completed payment must not be re-checked at the gateway, got %d calls", f.gateway.statusCalls)
	}
	if f.repo.completedCalls != 1 {
		t.Errorf("Expected exactly one settle attempt, got %d", f.repo.completedCalls)
	}
}

func TestCreateIntent_RejectedAfterRetryThenSettle(t *testing.T) {
	f := newFixture(true)
	req := CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("25.00"),
	}

	// Two intents for the same order: a retry while the first is PENDING is
	// legitimate and leaves two PENDING rows behind.
	first, err := f.svc.CreateIntent(context.Background(), f.userID, req)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if _, err := f.svc.CreateIntent(context.Background(), f.userID, req); err != nil {
		t.Fatalf("Expected retry to pass while unsettled, got: %v", err)
	}

	p1, _ := f.repo.GetByID(context.Background(), first.PaymentID, nil)
	if _, err := f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: p1.TransactionID,
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// The settled row is not the newest one; the guard must still find it.
	_, err = f.svc.CreateIntent(context.Background(), f.userID, req)
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("Expected ErrAlreadyPaid after settlement, got: %v", err)
	}
	if f.gateway.createCalls != 2 {
		t.Errorf("No gateway intent may be created on a settled order, got %d calls", f.gateway.createCalls)
	}
}

func TestVerify_LeftoverRetryCannotSettleTwice(t *testing.T) {
	f := newFixture(true)
	req := CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("25.00"),
	}
	first, _ := f.svc.CreateIntent(context.Background(), f.userID, req)
	second, _ := f.svc.CreateIntent(context.Background(), f.userID, req)
	p1, _ := f.repo.GetByID(context.Background(), first.PaymentID, nil)
	p2, _ := f.repo.GetByID(context.Background(), second.PaymentID, nil)

	if _, err := f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: p1.TransactionID,
	}); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	// The gateway reports succeeded for the retry's intent too; the order is
	// already settled, so the second row must not complete.
	_, err := f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: p2.TransactionID,
	})
	if !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("Expected ErrAlreadyPaid, got: %v", err)
	}

	completed := 0
	for _, id := range []uuid.UUID{first.PaymentID, second.PaymentID} {
		p, _ := f.repo.GetByID(context.Background(), id, nil)
		if p.Status == StatusCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("Expected exactly one COMPLETED payment for the order, got %d", completed)
	}
	if len(f.repo.cartsFlipped) != 1 {
		t.Errorf("Expected exactly one cart flip, got %v", f.repo.cartsFlipped)
	}
}

func TestVerify_GatewayPendingLeavesStateUntouched(t *testing.T) {
	f := newFixture(true)
	f.gateway.status = IntentPending
	resp, _ := f.svc.CreateIntent(context.Background(), f.userID, CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("50.00"),
	})
	created, _ := f.repo.GetByID(context.Background(), resp.PaymentID, nil)

	_, err := f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: created.TransactionID,
	})
	if !errors.Is(err, ErrPaymentNotCompleted) {
		t.Fatalf("Expected ErrPaymentNotCompleted, got: %v", err)
	}

	p, _ := f.repo.GetByID(context.Background(), resp.PaymentID, nil)
	if p.Status != StatusPending {
		t.Errorf("Local payment must stay PENDING, got %s", p.Status)
	}
	if len(f.repo.cartsFlipped) != 0 {
		t.Error("Cart must not flip before settlement")
	}
}

func TestVerify_GatewayFailureIsRetryable(t *testing.T) {
	f := newFixture(true)
	f.gateway.statusErr = ErrGatewayUnavailable
	resp, _ := f.svc.CreateIntent(context.Background(), f.userID, CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("50.00"),
	})
	created, _ := f.repo.GetByID(context.Background(), resp.PaymentID, nil)

	_, err := f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: created.TransactionID,
	})
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("Expected ErrGatewayUnavailable, got: %v", err)
	}
	if errors.Is(err, ErrPaymentNotCompleted) {
		t.Error("Infrastructure failures must not be conflated with business rejection")
	}

	p, _ := f.repo.GetByID(context.Background(), resp.PaymentID, nil)
	if p.Status != StatusPending {
		t.Errorf("Local payment must stay PENDING, got %s", p.Status)
	}
}

func TestVerify_UnknownTransaction(t *testing.T) {
	f := newFixture(true)

	_, err := f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: "pi_never_created",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got: %v", err)
	}
}

func TestVerify_OrderWithoutCart(t *testing.T) {
	f := newFixture(false)
	resp, _ := f.svc.CreateIntent(context.Background(), f.userID, CreateIntentRequest{
		OrderID: f.orderID.String(),
		Amount:  decimal.RequireFromString("50.00"),
	})
	created, _ := f.repo.GetByID(context.Background(), resp.PaymentID, nil)

	p, err := f.svc.Verify(context.Background(), f.userID, VerifyRequest{
		OrderID:         f.orderID.String(),
		PaymentIntentID: created.TransactionID,
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if p.Status != StatusCompleted {
		t.Errorf("Expected COMPLETED, got %s", p.Status)
	}
	if len(f.repo.cartsFlipped) != 0 {
		t.Error("No cart to flip for a cartless order")
	}
}
