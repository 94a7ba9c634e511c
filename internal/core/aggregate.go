package core

import "strings"

// MonthLabels are the fixed chart axis labels. Every series emits exactly
// twelve data points aligned with this slice.
var MonthLabels = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

type (
	// CategorySums maps a category name to its accumulated amount in cents.
	CategorySums map[string]int64

	// TypeBreakdown holds one category bucket per calendar month. Index 0 is
	// January. All twelve buckets exist even when no transaction fell in them.
	TypeBreakdown struct {
		Months [12]CategorySums
		// categories in first-seen order, for a stable chart series axis
		categories []string
	}

	// Breakdown is the full aggregation of a transaction set, split by type.
	Breakdown struct {
		Income   TypeBreakdown
		Expenses TypeBreakdown
	}

	// MonthTotal is the income/expense/net split for one month.
	MonthTotal struct {
		Month    int   `json:"month"`
		Income   int64 `json:"income_cents"`
		Expenses int64 `json:"expenses_cents"`
		Net      int64 `json:"net_cents"`
	}

	// ChartDataset is one category series, shaped for chart rendering.
	ChartDataset struct {
		Label string    `json:"label"`
		Data  []float64 `json:"data"`
	}

	// ChartData is a chart.js-style dataset bundle. Labels always has twelve
	// entries and every dataset's Data aligns with it index by index.
	ChartData struct {
		Labels   []string       `json:"labels"`
		Datasets []ChartDataset `json:"datasets"`
	}
)

func newTypeBreakdown() TypeBreakdown {
	var tb TypeBreakdown
	for i := range tb.Months {
		tb.Months[i] = make(CategorySums)
	}
	return tb
}

func (tb *TypeBreakdown) add(month int, category string, cents int64) {
	sums := tb.Months[month-1]
	if _, seen := sums[category]; !seen {
		if !tb.hasCategory(category) {
			tb.categories = append(tb.categories, category)
		}
	}
	sums[category] += cents
}

func (tb *TypeBreakdown) hasCategory(name string) bool {
	for _, c := range tb.categories {
		if c == name {
			return true
		}
	}
	return false
}

// Categories returns the distinct categories observed for this type, in
// first-seen order. The set is discovered from the data on every aggregation
// run; nothing is hardcoded.
func (tb TypeBreakdown) Categories() []string {
	return append([]string(nil), tb.categories...)
}

// MonthSum returns the total cents recorded in the given month (1-12)
// across all categories.
func (tb TypeBreakdown) MonthSum(month int) int64 {
	var total int64
	for _, cents := range tb.Months[month-1] {
		total += cents
	}
	return total
}

// Sum returns the total cents across all months and categories.
func (tb TypeBreakdown) Sum() int64 {
	var total int64
	for m := 1; m <= 12; m++ {
		total += tb.MonthSum(m)
	}
	return total
}

// Aggregate reduces a transaction set into per-month, per-category sums split
// by type. Amounts accumulate as absolute magnitudes so category totals are
// always non-negative; whether they count for or against the budget is
// carried by the type split. The twelve month buckets are always present,
// including on empty input.
func Aggregate(txs []Transaction) Breakdown {
	b := Breakdown{
		Income:   newTypeBreakdown(),
		Expenses: newTypeBreakdown(),
	}
	for _, tx := range txs {
		month := tx.Date.Month()
		if month < 1 || month > 12 {
			continue
		}
		cents := tx.Amount.Abs().Cents
		switch tx.Type {
		case Income:
			b.Income.add(month, tx.Category, cents)
		case Expenses:
			b.Expenses.add(month, tx.Category, cents)
		}
	}
	return b
}

// Net returns total income minus total expenses, in cents.
func (b Breakdown) Net() int64 {
	return b.Income.Sum() - b.Expenses.Sum()
}

// MonthTotals returns the income/expense/net split for each of the twelve
// months, in calendar order.
func (b Breakdown) MonthTotals() []MonthTotal {
	out := make([]MonthTotal, 12)
	for m := 1; m <= 12; m++ {
		in := b.Income.MonthSum(m)
		ex := b.Expenses.MonthSum(m)
		out[m-1] = MonthTotal{Month: m, Income: in, Expenses: ex, Net: in - ex}
	}
	return out
}

// ChartData builds the chart series for one transaction type. Each observed
// category becomes a dataset with a euro value for every month, substituting
// 0 where no transactions exist for that category/month pair.
func (b Breakdown) ChartData(t TransactionType) ChartData {
	tb := b.Income
	if t == Expenses {
		tb = b.Expenses
	}
	data := ChartData{
		Labels:   append([]string(nil), MonthLabels...),
		Datasets: make([]ChartDataset, 0, len(tb.categories)),
	}
	for _, cat := range tb.categories {
		ds := ChartDataset{
			Label: capitalize(cat),
			Data:  make([]float64, 12),
		}
		for m := 1; m <= 12; m++ {
			ds.Data[m-1] = Money{Cents: tb.Months[m-1][cat]}.Euros()
		}
		data.Datasets = append(data.Datasets, ds)
	}
	return data
}

// capitalize upper-cases the first rune only; categories are stored with
// their case preserved and normalized for display alone.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
