package ledger

import (
	"errors"
	"testing"

	"budgetbook/internal/core"
)

func expense(month, day int, category string, cents int64) core.Transaction {
	return core.Transaction{
		Date:     core.NewDate(2025, month, day),
		Type:     core.Expenses,
		Category: category,
		Amount:   core.Money{Cents: cents},
	}
}

func income(month, day int, category string, cents int64) core.Transaction {
	return core.Transaction{
		Date:     core.NewDate(2025, month, day),
		Type:     core.Income,
		Category: category,
		Amount:   core.Money{Cents: cents},
	}
}

func mustAdd(t *testing.T, s *Store, tx core.Transaction) core.Transaction {
	t.Helper()
	committed, err := s.Apply(Action{Op: OpAdd, Transaction: tx})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	return committed
}

func TestApplyAdd(t *testing.T) {
	s := NewStore()

	first := mustAdd(t, s, expense(1, 5, "rent", 80000))
	second := mustAdd(t, s, income(1, 10, "salary", 200000))

	if first.ID == "" || second.ID == "" {
		t.Fatal("adds must assign ids")
	}
	if first.ID == second.ID {
		t.Fatal("ids must be unique")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	// Insertion order is preserved.
	txs := s.Transactions()
	if txs[0].ID != first.ID || txs[1].ID != second.ID {
		t.Fatal("insertion order not preserved")
	}
}

func TestApplyAddRejectsInvalid(t *testing.T) {
	s := NewStore()

	_, err := s.Apply(Action{Op: OpAdd, Transaction: core.Transaction{
		Date:     core.NewDate(2025, 1, 1),
		Type:     "loans",
		Category: "x",
		Amount:   core.Money{Cents: 100},
	}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if s.Len() != 0 {
		t.Fatal("failed add must not change state")
	}
}

func TestApplyEdit(t *testing.T) {
	s := NewStore()
	orig := mustAdd(t, s, expense(1, 5, "rent", 80000))
	other := mustAdd(t, s, expense(2, 1, "groceries", 5000))

	edited, err := s.Apply(Action{Op: OpEdit, ID: orig.ID, Transaction: income(3, 12, "salary", 150000)})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.ID != orig.ID {
		t.Fatalf("edit changed id: %q -> %q", orig.ID, edited.ID)
	}
	if edited.Type != core.Income || edited.Category != "salary" || edited.Amount.Cents != 150000 {
		t.Fatalf("edit not applied: %+v", edited)
	}

	// The edited record stays in its original position; the other record is untouched.
	txs := s.Transactions()
	if txs[0].ID != orig.ID || txs[0].Category != "salary" {
		t.Fatalf("record 0 = %+v", txs[0])
	}
	if txs[1].ID != other.ID || txs[1].Category != "groceries" {
		t.Fatalf("record 1 = %+v", txs[1])
	}
}

func TestApplyEditMissingID(t *testing.T) {
	s := NewStore()
	mustAdd(t, s, expense(1, 5, "rent", 80000))

	_, err := s.Apply(Action{Op: OpEdit, ID: "no-such-id", Transaction: expense(1, 6, "rent", 90000)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if s.Transactions()[0].Amount.Cents != 80000 {
		t.Fatal("missed edit must not change state")
	}
}

func TestApplyEditRejectsInvalidFields(t *testing.T) {
	s := NewStore()
	orig := mustAdd(t, s, expense(1, 5, "rent", 80000))

	_, err := s.Apply(Action{Op: OpEdit, ID: orig.ID, Transaction: expense(1, 5, "  ", 80000)})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if s.Transactions()[0].Category != "rent" {
		t.Fatal("failed edit must not change state")
	}
}

func TestApplyDeleteIsIdempotent(t *testing.T) {
	s := NewStore()
	tx := mustAdd(t, s, expense(1, 5, "rent", 80000))

	if _, err := s.Apply(Action{Op: OpDelete, ID: tx.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d, want 0", s.Len())
	}

	// Deleting the same id again succeeds with no effect.
	if _, err := s.Apply(Action{Op: OpDelete, ID: tx.ID}); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := s.Apply(Action{Op: OpDelete, ID: "never-existed"}); err != nil {
		t.Fatalf("delete of unknown id: %v", err)
	}
}

func TestApplyUnknownOp(t *testing.T) {
	s := NewStore()
	if _, err := s.Apply(Action{Op: "upsert"}); !errors.Is(err, ErrUnknownOp) {
		t.Fatalf("expected ErrUnknownOp, got %v", err)
	}
}

func TestSetFilterAndDisplayed(t *testing.T) {
	s := NewStore()
	mustAdd(t, s, income(1, 5, "salary", 200000))
	mustAdd(t, s, expense(1, 12, "rent", 80000))
	mustAdd(t, s, expense(2, 7, "groceries", 12030))

	if got := s.Displayed(); len(got) != 3 {
		t.Fatalf("default view len = %d, want 3", len(got))
	}

	if err := s.SetFilter(core.FilterSpec{Type: core.TypeExpenses}); err != nil {
		t.Fatalf("set filter: %v", err)
	}
	got := s.Displayed()
	if len(got) != 2 || got[0].Category != "rent" || got[1].Category != "groceries" {
		t.Fatalf("expenses view = %+v", got)
	}

	// Empty type falls back to all.
	if err := s.SetFilter(core.FilterSpec{Month: 2}); err != nil {
		t.Fatalf("set month filter: %v", err)
	}
	if got := s.Displayed(); len(got) != 1 || got[0].Category != "groceries" {
		t.Fatalf("february view = %+v", got)
	}
	if s.Filter().Type != core.TypeAll {
		t.Fatalf("Filter().Type = %q, want all", s.Filter().Type)
	}
}

func TestSetFilterRejectsInvalid(t *testing.T) {
	s := NewStore()
	if err := s.SetFilter(core.FilterSpec{Type: "loans"}); err == nil {
		t.Fatal("expected error for bad type")
	}
	if err := s.SetFilter(core.FilterSpec{Month: 13}); err == nil {
		t.Fatal("expected error for bad month")
	}
	if got := s.Filter(); got.Type != core.TypeAll || got.Month != 0 {
		t.Fatalf("failed SetFilter changed spec: %+v", got)
	}
}

func TestDisplayedReflectsMutations(t *testing.T) {
	s := NewStore()
	tx := mustAdd(t, s, expense(1, 5, "rent", 80000))

	if got := s.Displayed(); len(got) != 1 {
		t.Fatalf("view len = %d, want 1", len(got))
	}

	if _, err := s.Apply(Action{Op: OpDelete, ID: tx.ID}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.Displayed(); len(got) != 0 {
		t.Fatalf("view after delete = %+v, want empty", got)
	}
}

func TestDisplayedReturnsCopy(t *testing.T) {
	s := NewStore()
	mustAdd(t, s, expense(1, 5, "rent", 80000))

	view := s.Displayed()
	view[0].Category = "tampered"

	if s.Displayed()[0].Category != "rent" {
		t.Fatal("mutation of returned slice leaked into store")
	}
}

func TestRestore(t *testing.T) {
	s := NewStore()

	err := s.Restore([]core.Transaction{
		{ID: "keep-1", Date: core.NewDate(2025, 1, 5), Type: core.Income, Category: "salary", Amount: core.Money{Cents: 200000}},
		{Date: core.NewDate(2025, 1, 12), Type: core.Expenses, Category: "rent", Amount: core.Money{Cents: 80000}},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	txs := s.Transactions()
	if len(txs) != 2 {
		t.Fatalf("len = %d, want 2", len(txs))
	}
	if txs[0].ID != "keep-1" {
		t.Fatalf("stored id not preserved: %q", txs[0].ID)
	}
	if txs[1].ID == "" {
		t.Fatal("missing id not assigned")
	}
}

func TestRestoreCoercesNegativeAmount(t *testing.T) {
	s := NewStore()

	err := s.Restore([]core.Transaction{
		{ID: "bad-1", Date: core.NewDate(2025, 2, 1), Type: core.Expenses, Category: "rent", Amount: core.Money{Cents: -500}},
	})
	if err != nil {
		t.Fatalf("restore: %v", err)
	}

	txs := s.Transactions()
	if len(txs) != 1 {
		t.Fatalf("len = %d, want 1", len(txs))
	}
	if txs[0].Amount.Cents != 0 {
		t.Fatalf("amount = %d, want 0", txs[0].Amount.Cents)
	}
}

func TestRestoreRejectsDuplicateIDs(t *testing.T) {
	s := NewStore()

	err := s.Restore([]core.Transaction{
		{ID: "dup", Date: core.NewDate(2025, 1, 5), Type: core.Income, Category: "salary", Amount: core.Money{Cents: 1}},
		{ID: "dup", Date: core.NewDate(2025, 1, 6), Type: core.Income, Category: "salary", Amount: core.Money{Cents: 2}},
	})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatal("failed restore must not commit partially")
	}
}

func TestAggregate(t *testing.T) {
	s := NewStore()
	mustAdd(t, s, income(1, 5, "salary", 200000))
	mustAdd(t, s, expense(1, 12, "rent", 80000))

	b := s.Aggregate()
	if b.Net() != 120000 {
		t.Fatalf("net = %d, want 120000", b.Net())
	}
}
