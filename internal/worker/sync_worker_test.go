package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/storage"
)

type fakeExporter struct {
	appended []string
	removed  []string
	fail     bool
}

func (f *fakeExporter) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if f.fail {
		return "", errors.New("export unavailable")
	}
	f.appended = append(f.appended, tx.ID)
	return "sheet:A1", nil
}

func (f *fakeExporter) Remove(ctx context.Context, id string) error {
	if f.fail {
		return errors.New("export unavailable")
	}
	f.removed = append(f.removed, id)
	return nil
}

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func insertTransaction(t *testing.T, repo *storage.SQLiteRepository, id string) {
	t.Helper()
	err := repo.InsertTransaction(context.Background(), core.Transaction{
		ID:       id,
		Date:     core.NewDate(2025, 3, 10),
		Type:     core.Expenses,
		Category: "groceries",
		Amount:   core.Money{Cents: 4250},
	})
	if err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
}

func pendingIDs(t *testing.T, repo *storage.SQLiteRepository) []string {
	t.Helper()
	pending, err := repo.GetPendingSyncTransactions(context.Background(), 100)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	out := make([]string, len(pending))
	for i, p := range pending {
		out[i] = p.ID
	}
	return out
}

func TestHandleSyncMessage_Export(t *testing.T) {
	repo := newTestRepo(t)
	exporter := &fakeExporter{}
	w := NewSyncWorker(repo, exporter, exporter, 10)

	insertTransaction(t, repo, "tx-1")

	msg := amqp.NewTransactionSyncMessage("tx-1", amqp.OpCreated)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(exporter.appended) != 1 || exporter.appended[0] != "tx-1" {
		t.Errorf("appended = %v, want [tx-1]", exporter.appended)
	}
	if got := pendingIDs(t, repo); len(got) != 0 {
		t.Errorf("pending after export = %v, want none", got)
	}
}

func TestHandleSyncMessage_RowGone(t *testing.T) {
	repo := newTestRepo(t)
	exporter := &fakeExporter{}
	w := NewSyncWorker(repo, exporter, exporter, 10)

	// The row was deleted between publish and consume; not an error.
	msg := amqp.NewTransactionSyncMessage("vanished", amqp.OpCreated)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(exporter.appended) != 0 {
		t.Errorf("appended = %v, want none", exporter.appended)
	}
}

func TestHandleSyncMessage_ExportFailureMarksError(t *testing.T) {
	repo := newTestRepo(t)
	exporter := &fakeExporter{fail: true}
	w := NewSyncWorker(repo, exporter, exporter, 10)

	insertTransaction(t, repo, "tx-1")

	msg := amqp.NewTransactionSyncMessage("tx-1", amqp.OpCreated)
	if err := w.HandleSyncMessage(context.Background(), msg); err == nil {
		t.Fatal("expected export error")
	}

	// The row left the pending queue and is marked as errored.
	if got := pendingIDs(t, repo); len(got) != 0 {
		t.Errorf("pending after failure = %v, want none", got)
	}
}

func TestHandleSyncMessage_Delete(t *testing.T) {
	repo := newTestRepo(t)
	exporter := &fakeExporter{}
	w := NewSyncWorker(repo, exporter, exporter, 10)

	msg := amqp.NewTransactionSyncMessage("tx-1", amqp.OpDeleted)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(exporter.removed) != 1 || exporter.removed[0] != "tx-1" {
		t.Errorf("removed = %v, want [tx-1]", exporter.removed)
	}
}

func TestHandleSyncMessage_DeleteWithoutRemover(t *testing.T) {
	repo := newTestRepo(t)
	w := NewSyncWorker(repo, &fakeExporter{}, nil, 10)

	msg := amqp.NewTransactionSyncMessage("tx-1", amqp.OpDeleted)
	if err := w.HandleSyncMessage(context.Background(), msg); err != nil {
		t.Fatalf("handle without remover: %v", err)
	}
}

func TestProcessPendingTransactions(t *testing.T) {
	repo := newTestRepo(t)
	exporter := &fakeExporter{}
	w := NewSyncWorker(repo, exporter, exporter, 2)

	for _, id := range []string{"a", "b", "c"} {
		insertTransaction(t, repo, id)
	}

	// Batch size caps each sweep.
	if err := w.ProcessPendingTransactions(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(exporter.appended) != 2 {
		t.Fatalf("appended = %v, want first two", exporter.appended)
	}

	if err := w.ProcessPendingTransactions(context.Background()); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(exporter.appended) != 3 {
		t.Fatalf("appended = %v, want all three", exporter.appended)
	}

	// Nothing left to do.
	if err := w.ProcessPendingTransactions(context.Background()); err != nil {
		t.Fatalf("empty sweep: %v", err)
	}
}

func TestStartupSyncCheck(t *testing.T) {
	repo := newTestRepo(t)
	exporter := &fakeExporter{}
	w := NewSyncWorker(repo, exporter, exporter, 1)

	for _, id := range []string{"a", "b", "c"} {
		insertTransaction(t, repo, id)
	}

	// Startup check uses a widened batch (batchSize*5), draining everything.
	if err := w.StartupSyncCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if len(exporter.appended) != 3 {
		t.Errorf("appended = %v, want all three", exporter.appended)
	}
	if got := pendingIDs(t, repo); len(got) != 0 {
		t.Errorf("pending after startup = %v, want none", got)
	}
}
