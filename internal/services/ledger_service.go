package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetbook/internal/amqp"
	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/storage"
)

// LedgerService orchestrates ledger mutations across the in-memory store,
// SQLite persistence and AMQP sync events. The store is authoritative for
// reads; sqlite is the write-through record that restores the session, and
// sync events feed the export worker. Both collaborators are optional: a
// memory-only session runs with nil repo and nil amqp.
type LedgerService struct {
	store      *ledger.Store
	repo       *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewLedgerService(store *ledger.Store, repo *storage.SQLiteRepository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		repo:       repo,
		amqpClient: amqpClient,
	}
}

// Restore bulk-loads the persisted transaction set into the store at session
// start. Without a repository the session simply starts empty.
func (s *LedgerService) Restore(ctx context.Context) (int, error) {
	if s.repo == nil {
		return 0, nil
	}
	txs, err := s.repo.ListTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("load persisted transactions: %w", err)
	}
	if err := s.store.Restore(txs); err != nil {
		return 0, fmt.Errorf("restore ledger: %w", err)
	}

	slog.InfoContext(ctx, "Ledger restored from SQLite", "count", len(txs))
	return len(txs), nil
}

// AddTransaction validates and commits a new transaction, persists it and
// publishes a sync event. Validation failure leaves every layer untouched.
func (s *LedgerService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	committed, err := s.store.Apply(ledger.Action{Op: ledger.OpAdd, Transaction: tx})
	if err != nil {
		return core.Transaction{}, err
	}

	if s.repo != nil {
		if err := s.repo.InsertTransaction(ctx, committed); err != nil {
			slog.ErrorContext(ctx, "Failed to persist transaction",
				"id", committed.ID, "error", err)
			// The in-memory commit stands; persistence catches up on the next write.
		}
	}
	s.publishSync(ctx, committed.ID, amqp.OpCreated)

	return committed, nil
}

// EditTransaction replaces all editable fields of an existing transaction.
// An unknown id returns ledger.ErrNotFound with no state change.
func (s *LedgerService) EditTransaction(ctx context.Context, id string, fields core.Transaction) (core.Transaction, error) {
	committed, err := s.store.Apply(ledger.Action{Op: ledger.OpEdit, ID: id, Transaction: fields})
	if err != nil {
		return core.Transaction{}, err
	}

	if s.repo != nil {
		if err := s.repo.UpdateTransaction(ctx, committed); err != nil && !errors.Is(err, storage.ErrRowNotFound) {
			slog.ErrorContext(ctx, "Failed to persist transaction edit",
				"id", committed.ID, "error", err)
		}
	}
	s.publishSync(ctx, committed.ID, amqp.OpUpdated)

	return committed, nil
}

// DeleteTransaction removes a transaction. Deleting an absent id is a no-op.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := s.store.Apply(ledger.Action{Op: ledger.OpDelete, ID: id}); err != nil {
		return err
	}

	if s.repo != nil {
		if err := s.repo.DeleteTransaction(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to persist transaction delete",
				"id", id, "error", err)
		}
	}
	s.publishSync(ctx, id, amqp.OpDeleted)

	return nil
}

// SetFilter updates the active filter spec for the displayed view.
func (s *LedgerService) SetFilter(spec core.FilterSpec) error {
	return s.store.SetFilter(spec)
}

// Displayed returns the filtered/sorted view of the ledger.
func (s *LedgerService) Displayed() []core.Transaction {
	return s.store.Displayed()
}

// Transactions returns the full ledger in insertion order.
func (s *LedgerService) Transactions() []core.Transaction {
	return s.store.Transactions()
}

// Breakdown aggregates the full ledger for budget totals and charts.
func (s *LedgerService) Breakdown() core.Breakdown {
	return s.store.Aggregate()
}

func (s *LedgerService) publishSync(ctx context.Context, id, op string) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTransactionSync(ctx, id, op); err != nil {
		// Sync is best-effort; the periodic sweep re-queues pending rows.
		slog.WarnContext(ctx, "Failed to publish sync message",
			"id", id, "op", op, "error", err)
	}
}

// Close closes storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
