package inventory

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type fakeResult struct{ rows int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, nil }

// fakeExecer records the last statement and returns a canned row count.
type fakeExecer struct {
	rows  int64
	query string
	args  []interface{}
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	f.query = query
	f.args = args
	return fakeResult{rows: f.rows}, nil
}

func TestLedger_ReserveConditionalDecrement(t *testing.T) {
	ledger := NewLedger()
	exec := &fakeExecer{rows: 1}
	productID := uuid.New()

	if err := ledger.Reserve(context.Background(), exec, productID, 3); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if !strings.Contains(exec.query, "stock >= $2") {
		t.Errorf("Reserve must gate the decrement on available stock, got query: %s", exec.query)
	}
	if !strings.Contains(exec.query, "stock = stock - $2") {
		t.Errorf("Reserve must decrement in the same statement, got query: %s", exec.query)
	}
	if exec.args[0] != productID || exec.args[1] != 3 {
		t.Errorf("Unexpected args: %v", exec.args)
	}
}

func TestLedger_ReserveInsufficientStock(t *testing.T) {
	ledger := NewLedger()
	exec := &fakeExecer{rows: 0}

	err := ledger.Reserve(context.Background(), exec, uuid.New(), 5)
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("Expected ErrInsufficientStock, got: %v", err)
	}
}

func TestLedger_ReserveRejectsNonPositiveQuantity(t *testing.T) {
	ledger := NewLedger()
	exec := &fakeExecer{rows: 1}

	for _, qty := range []int{0, -1} {
		if err := ledger.Reserve(context.Background(), exec, uuid.New(), qty); err == nil {
			t.Errorf("Expected error for quantity %d", qty)
		}
	}
	if exec.query != "" {
		t.Error("Validation failures must not reach the database")
	}
}

func TestLedger_ReleaseIncrements(t *testing.T) {
	ledger := NewLedger()
	exec := &fakeExecer{rows: 1}
	productID := uuid.New()

	if err := ledger.Release(context.Background(), exec, productID, 2); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if !strings.Contains(exec.query, "stock = stock + $2") {
		t.Errorf("Release must increment stock, got query: %s", exec.query)
	}
}

func TestLedger_ReleaseUnknownProduct(t *testing.T) {
	ledger := NewLedger()
	exec := &fakeExecer{rows: 0}

	if err := ledger.Release(context.Background(), exec, uuid.New(), 2); err == nil {
		t.Fatal("Expected error for unknown product")
	}
}
