package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetbook/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the persistence collaborator for the in-memory ledger:
// a pass-through that records every committed mutation and restores the full
// transaction set at session start.
type SQLiteRepository struct {
	db *sql.DB
}

// PendingSyncTransaction is the minimal row data queued for export.
type PendingSyncTransaction struct {
	ID        string
	CreatedAt time.Time
}

var ErrRowNotFound = errors.New("transaction row not found")

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// Single connection avoids SQLite locking issues
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// InsertTransaction records a newly added transaction as pending sync.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (id, tx_date, tx_type, category, amount_cents)
		 VALUES (?, ?, ?, ?, ?)`,
		tx.ID, tx.Date.Format("2006-01-02"), string(tx.Type), tx.Category, tx.Amount.Cents)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"type", tx.Type,
		"category", tx.Category,
		"amount_cents", tx.Amount.Cents)

	return nil
}

// UpdateTransaction replaces the editable fields of an existing row and
// re-queues it for sync.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET tx_date = ?, tx_type = ?, category = ?, amount_cents = ?,
		     updated_at = CURRENT_TIMESTAMP, sync_status = 'pending', synced_at = NULL
		 WHERE id = ?`,
		tx.Date.Format("2006-01-02"), string(tx.Type), tx.Category, tx.Amount.Cents, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRowNotFound
	}
	return nil
}

// DeleteTransaction removes a row. Deleting an absent id is not an error,
// matching the ledger's idempotent delete.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// ListTransactions returns every stored transaction in insertion order, for
// the ledger's bulk restore at session start. An empty table yields an empty
// slice, not an error.
func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, tx_date, tx_type, category, amount_cents FROM transactions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// GetTransaction retrieves a single stored transaction by id.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, tx_date, tx_type, category, amount_cents FROM transactions WHERE id = ?`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrRowNotFound
	}
	return tx, err
}

// GetPendingSyncTransactions returns rows waiting for export, oldest first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at FROM transactions WHERE sync_status = 'pending' ORDER BY seq LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync row: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced marks a transaction as successfully exported.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}

	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError marks a transaction as having export errors.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = 'error' WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}

	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanTransaction maps a row onto the domain type. A date or amount that no
// longer parses is coerced (zero date stays zero, amount falls back to 0)
// instead of aborting the whole load; the ledger logs and carries on.
func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		dateStr string
		typeStr string
		cents   sql.NullInt64
	)
	if err := row.Scan(&tx.ID, &dateStr, &typeStr, &tx.Category, &cents); err != nil {
		return core.Transaction{}, err
	}
	date, err := core.ParseDate(dateStr)
	if err != nil {
		slog.Warn("Unparsable stored date, keeping zero date", "id", tx.ID, "date", dateStr)
	}
	tx.Date = date
	tx.Type = core.TransactionType(typeStr)
	if cents.Valid {
		tx.Amount = core.Money{Cents: cents.Int64}.Abs()
	} else {
		slog.Warn("Missing stored amount, coerced to zero", "id", tx.ID)
	}
	return tx, nil
}
