package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"budgetbook/internal/core"
)

const dateLayout = "2006-01-02"

// transactionPayload is the wire shape of a transaction write request.
// Amount is a JSON number in euros; it is converted to cents internally.
type transactionPayload struct {
	Date     string      `json:"date"`
	Type     string      `json:"type"`
	Category string      `json:"category"`
	Amount   json.Number `json:"amount"`
}

// transactionView is the wire shape of a transaction in responses.
type transactionView struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Type     string  `json:"type"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
}

type budgetResponse struct {
	TotalIncomeCents   int64             `json:"total_income_cents"`
	TotalExpensesCents int64             `json:"total_expenses_cents"`
	NetCents           int64             `json:"net_cents"`
	Months             []core.MonthTotal `json:"months"`
}

// toTransaction converts a payload into a validated domain transaction.
func (p transactionPayload) toTransaction() (core.Transaction, error) {
	date, err := core.ParseDate(strings.TrimSpace(p.Date))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("date: %w", err)
	}

	txType, err := core.ParseType(strings.TrimSpace(p.Type))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("type: %w", err)
	}

	cents, err := core.ParseDecimalToCents(p.Amount.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount: %w", err)
	}

	tx := core.Transaction{
		Date:     date,
		Type:     txType,
		Category: sanitizeInput(p.Category),
		Amount:   core.Money{Cents: cents},
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func viewOf(tx core.Transaction) transactionView {
	return transactionView{
		ID:       tx.ID,
		Date:     tx.Date.Format(dateLayout),
		Type:     string(tx.Type),
		Category: tx.Category,
		Amount:   tx.Amount.Euros(),
	}
}

func viewsOf(txs []core.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, viewOf(tx))
	}
	return views
}

// parseFilterSpec reads type/month/sort query parameters. Absent parameters
// keep their zero values, which select the unfiltered view.
func parseFilterSpec(r *http.Request) (core.FilterSpec, error) {
	spec := core.FilterSpec{Type: core.TypeAll}

	if v := strings.TrimSpace(r.URL.Query().Get("type")); v != "" {
		spec.Type = core.TypeFilter(v)
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.FilterSpec{}, fmt.Errorf("month: %w", core.ErrInvalidMonth)
		}
		spec.Month = m
	}
	if v := strings.TrimSpace(r.URL.Query().Get("sort")); v != "" {
		spec.Sort = core.SortOrder(v)
	}

	if err := spec.Validate(); err != nil {
		return core.FilterSpec{}, err
	}
	return spec, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
