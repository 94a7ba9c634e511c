package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetbook/internal/amqp"
	"budgetbook/internal/export"
	"budgetbook/internal/storage"
)

// SyncWorker handles synchronization of ledger transactions from SQLite to
// the export destination (Google Sheets).
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    export.TransactionWriter
	remover   export.TransactionRemover
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer export.TransactionWriter, remover export.TransactionRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"id", msg.ID,
		"op", msg.Op)

	if msg.Op == amqp.OpDeleted {
		return w.removeExported(ctx, msg.ID)
	}

	return w.exportTransaction(ctx, msg.ID)
}

// exportTransaction fetches the persisted row and appends it to the export
// destination, then records the sync outcome.
func (w *SyncWorker) exportTransaction(ctx context.Context, id string) error {
	tx, err := w.storage.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrRowNotFound) {
		// The row was deleted before this message was consumed.
		slog.WarnContext(ctx, "Transaction gone before export, skipping", "id", id)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.writer.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", id, "error", markErr)
		}
		return fmt.Errorf("export transaction: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction exported",
		"id", id,
		"row_ref", ref)
	return nil
}

// removeExported clears the exported row for a deleted transaction.
func (w *SyncWorker) removeExported(ctx context.Context, id string) error {
	if w.remover == nil {
		slog.WarnContext(ctx, "No remover configured, skipping export removal", "id", id)
		return nil
	}

	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove exported transaction: %w", err)
	}

	slog.InfoContext(ctx, "Exported transaction removed", "id", id)
	return nil
}

// ProcessPendingTransactions exports any rows still marked pending.
// This is a backup mechanism in case AMQP messages are lost.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	for _, p := range pending {
		if err := w.exportTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending transaction", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupSyncCheck drains the pending backlog at worker startup. This
// recovers from missed AMQP messages or worker downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}

	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	successCount := 0
	errorCount := 0

	for _, p := range pending {
		if err := w.exportTransaction(ctx, p.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"id", p.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}
