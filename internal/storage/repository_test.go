package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetbook/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTransaction(id string) core.Transaction {
	return core.Transaction{
		ID:       id,
		Date:     core.NewDate(2025, 3, 10),
		Type:     core.Expenses,
		Category: "groceries",
		Amount:   core.Money{Cents: 4250},
	}
}

func TestInsertAndGetTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	want := testTransaction("tx-1")
	if err := repo.InsertTransaction(ctx, want); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != want.ID || got.Type != want.Type || got.Category != want.Category {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Amount.Cents != 4250 {
		t.Errorf("Amount = %d, want 4250", got.Amount.Cents)
	}
	if got.Date.Year() != 2025 || got.Date.Month() != 3 || got.Date.Day() != 10 {
		t.Errorf("Date = %v", got.Date)
	}

	if _, err := repo.GetTransaction(ctx, "missing"); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("expected ErrRowNotFound, got %v", err)
	}
}

func TestUpdateTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := testTransaction("tx-1")
	if err := repo.InsertTransaction(ctx, tx); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.MarkSynced(ctx, "tx-1"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}

	tx.Category = "restaurants"
	tx.Amount = core.Money{Cents: 9900}
	if err := repo.UpdateTransaction(ctx, tx); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := repo.GetTransaction(ctx, "tx-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Category != "restaurants" || got.Amount.Cents != 9900 {
		t.Errorf("update not applied: %+v", got)
	}

	// An update re-queues the row for export.
	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "tx-1" {
		t.Errorf("pending = %+v, want tx-1", pending)
	}

	if err := repo.UpdateTransaction(ctx, testTransaction("missing")); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("expected ErrRowNotFound, got %v", err)
	}
}

func TestDeleteTransactionIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.InsertTransaction(ctx, testTransaction("tx-1")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.DeleteTransaction(ctx, "tx-1"); err != nil {
			t.Fatalf("delete attempt %d: %v", i+1, err)
		}
	}

	if _, err := repo.GetTransaction(ctx, "tx-1"); !errors.Is(err, ErrRowNotFound) {
		t.Errorf("expected ErrRowNotFound after delete, got %v", err)
	}
}

func TestListTransactionsInsertionOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("empty table should list to empty slice, got %v", empty)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.InsertTransaction(ctx, testTransaction(id)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	got, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Errorf("order wrong: %+v", got)
	}
}

func TestInsertRejectsDuplicateID(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.InsertTransaction(ctx, testTransaction("dup")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := repo.InsertTransaction(ctx, testTransaction("dup")); err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestSyncStatusLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b"} {
		if err := repo.InsertTransaction(ctx, testTransaction(id)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending len = %d, want 2", len(pending))
	}

	if err := repo.MarkSynced(ctx, "a"); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	if err := repo.MarkSyncError(ctx, "b"); err != nil {
		t.Fatalf("mark error: %v", err)
	}

	pending, err = repo.GetPendingSyncTransactions(ctx, 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after marks = %+v, want none", pending)
	}
}

func TestGetPendingSyncRespectsLimit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := repo.InsertTransaction(ctx, testTransaction(id)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}

	pending, err := repo.GetPendingSyncTransactions(ctx, 2)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "b" {
		t.Errorf("pending = %+v, want oldest two", pending)
	}
}
