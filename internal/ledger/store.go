// Package ledger holds the in-memory transaction store and its mutation
// protocol. The store is the single source of truth for a session: the full
// transaction set plus the cached displayed projection derived from the
// active filter. All writes go through Apply; nothing else mutates state.
package ledger

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"budgetbook/internal/core"
)

const (
	OpAdd    Op = "add"
	OpEdit   Op = "edit"
	OpDelete Op = "delete"
)

type (
	Op string

	// Action is a single state transition request. Transaction carries the
	// new field values for add/edit; ID addresses an existing record for
	// edit/delete.
	Action struct {
		Op          Op
		ID          string
		Transaction core.Transaction
	}
)

var (
	// ErrNotFound signals an edit against an id that is no longer in the
	// store. Callers treat it as a soft condition, not a hard failure.
	ErrNotFound = errors.New("transaction not found")

	ErrDuplicateID = errors.New("duplicate transaction id")
	ErrUnknownOp   = errors.New("unknown action op")
)

// Store owns the ordered transaction set and the displayed projection.
// Insertion order is entry order, not date order. The projection is
// recomputed lazily after a mutation or filter change, so a read always
// reflects the last committed (transactions, filter) pair.
type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	filter       core.FilterSpec
	displayed    []core.Transaction
	stale        bool
}

func NewStore() *Store {
	return &Store{
		filter: core.FilterSpec{Type: core.TypeAll},
		stale:  true,
	}
}

// Apply is the sole mutation path. A successful apply returns the committed
// transaction (with its assigned id for adds) and invalidates the displayed
// projection. Invalid input leaves the store untouched.
func (s *Store) Apply(a Action) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch a.Op {
	case OpAdd:
		return s.add(a.Transaction)
	case OpEdit:
		return s.edit(a.ID, a.Transaction)
	case OpDelete:
		return s.delete(a.ID)
	default:
		return core.Transaction{}, ErrUnknownOp
	}
}

func (s *Store) add(tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	// Fresh ids are never reused, even after a delete.
	tx.ID = uuid.NewString()
	s.transactions = append(s.transactions, tx)
	s.stale = true
	return tx, nil
}

func (s *Store) edit(id string, fields core.Transaction) (core.Transaction, error) {
	if err := fields.Validate(); err != nil {
		return core.Transaction{}, err
	}
	for i, tx := range s.transactions {
		if tx.ID == id {
			// Full-field replace; the id itself is immutable.
			fields.ID = tx.ID
			s.transactions[i] = fields
			s.stale = true
			return fields, nil
		}
	}
	return core.Transaction{}, ErrNotFound
}

func (s *Store) delete(id string) (core.Transaction, error) {
	for i, tx := range s.transactions {
		if tx.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			s.stale = true
			return tx, nil
		}
	}
	// Absent id is a no-op: deleting twice equals deleting once.
	return core.Transaction{}, nil
}

// SetFilter replaces the active filter spec and invalidates the projection.
func (s *Store) SetFilter(spec core.FilterSpec) error {
	if spec.Type == "" {
		spec.Type = core.TypeAll
	}
	if err := spec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if spec != s.filter {
		s.filter = spec
		s.stale = true
	}
	return nil
}

// Filter returns the active filter spec.
func (s *Store) Filter() core.FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Displayed returns the current projection, recomputing it first if a
// mutation or filter change happened since the last read. The returned
// slice is a copy.
func (s *Store) Displayed() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale || s.displayed == nil {
		s.displayed = core.Project(s.transactions, s.filter)
		s.stale = false
	}
	out := make([]core.Transaction, len(s.displayed))
	copy(out, s.displayed)
	return out
}

// Transactions returns a copy of the authoritative set in insertion order.
func (s *Store) Transactions() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(s.transactions))
	copy(out, s.transactions)
	return out
}

// Len returns the number of stored transactions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

// Aggregate reduces the full transaction set into the monthly per-category
// breakdown used for budget totals and chart series.
func (s *Store) Aggregate() core.Breakdown {
	return core.Aggregate(s.Transactions())
}

// Restore bulk-loads transaction records from persistence at session start.
// An empty sequence is fine. Records keep their stored ids; a record without
// one gets a fresh id, and a duplicate id rejects the whole load so the
// uniqueness invariant can never be violated half-way.
func (s *Store) Restore(txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(txs)+len(s.transactions))
	for _, tx := range s.transactions {
		seen[tx.ID] = struct{}{}
	}
	restored := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		if tx.Amount.Cents < 0 {
			// A corrupt backup must not abort the session.
			slog.Warn("Restored transaction has an invalid amount, coercing to zero",
				"id", tx.ID, "amount_cents", tx.Amount.Cents)
			tx.Amount = core.Money{}
		}
		if _, dup := seen[tx.ID]; dup {
			return ErrDuplicateID
		}
		seen[tx.ID] = struct{}{}
		restored = append(restored, tx)
	}
	s.transactions = append(s.transactions, restored...)
	s.stale = true
	return nil
}
