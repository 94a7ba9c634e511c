package core

import "sort"

const (
	TypeAll      TypeFilter = "all"
	TypeIncome   TypeFilter = "income"
	TypeExpenses TypeFilter = "expenses"

	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

type (
	TypeFilter string
	SortOrder  string

	// FilterSpec is the active combination of type filter, month filter and
	// amount sort applied to produce a displayed view. A zero Month means no
	// month filter; SortNone preserves the post-filter order.
	FilterSpec struct {
		Type  TypeFilter
		Month int
		Sort  SortOrder
	}
)

func (f TypeFilter) Validate() error {
	switch f {
	case TypeAll, TypeIncome, TypeExpenses:
		return nil
	default:
		return ErrUnknownType
	}
}

func (o SortOrder) Validate() error {
	switch o {
	case SortNone, SortAsc, SortDesc:
		return nil
	default:
		return ErrInvalidSort
	}
}

func (s FilterSpec) Validate() error {
	if err := s.Type.Validate(); err != nil {
		return err
	}
	if s.Month < 0 || s.Month > 12 {
		return ErrInvalidMonth
	}
	return s.Sort.Validate()
}

// matches reports whether a transaction passes the type and month filters.
func (s FilterSpec) matches(tx Transaction) bool {
	if s.Type != TypeAll && s.Type != "" && string(tx.Type) != string(s.Type) {
		return false
	}
	if s.Month != 0 && tx.Date.Month() != s.Month {
		return false
	}
	return true
}

// Project derives the displayed view from the full transaction set. Filtering
// is order-preserving; the amount sort, when requested, is stable so equal
// amounts keep their insertion order. The result is always non-nil, so an
// empty view is distinguishable from a projection that was never computed.
func Project(txs []Transaction, spec FilterSpec) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, tx := range txs {
		if spec.matches(tx) {
			out = append(out, tx)
		}
	}
	switch spec.Sort {
	case SortAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents < out[j].Amount.Cents })
	case SortDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Amount.Cents > out[j].Amount.Cents })
	}
	return out
}
