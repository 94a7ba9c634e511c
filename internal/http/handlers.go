package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
)

const budgetCacheKey = "budget"

// handleListTransactions applies the requested filter spec and returns the
// displayed view. It answers from the live store, never from cache, so a
// just-committed mutation is always visible.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if err := s.service.SetFilter(spec); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": viewsOf(s.service.Displayed()),
	})
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	tx, err := payload.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	committed, err := s.service.AddTransaction(r.Context(), tx)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to add transaction", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to add transaction"))
		return
	}

	s.invalidateAggregates()
	writeJSON(w, http.StatusCreated, viewOf(committed))
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return
	}

	fields, err := payload.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	committed, err := s.service.EditTransaction(r.Context(), id, fields)
	if errors.Is(err, ledger.ErrNotFound) {
		// Editing an unknown id is not a failure; the caller learns the edit
		// found nothing to change.
		writeJSON(w, http.StatusOK, map[string]any{"updated": false})
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to edit transaction", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to edit transaction"))
		return
	}

	s.invalidateAggregates()
	writeJSON(w, http.StatusOK, map[string]any{
		"updated":     true,
		"transaction": viewOf(committed),
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.service.DeleteTransaction(r.Context(), id); err != nil {
		slog.ErrorContext(r.Context(), "Failed to delete transaction", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("failed to delete transaction"))
		return
	}

	s.invalidateAggregates()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	if resp, found := s.budgetCache.Get(budgetCacheKey); found {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	breakdown := s.service.Breakdown()
	resp := budgetResponse{
		TotalIncomeCents:   breakdown.Income.Sum(),
		TotalExpensesCents: breakdown.Expenses.Sum(),
		NetCents:           breakdown.Net(),
		Months:             breakdown.MonthTotals(),
	}

	s.budgetCache.Set(budgetCacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

// handleChart serves the chart series for one transaction type.
func (s *Server) handleChart(t core.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := string(t)
		if data, found := s.chartCache.Get(key); found {
			writeJSON(w, http.StatusOK, data)
			return
		}

		data := s.service.Breakdown().ChartData(t)

		s.chartCache.Set(key, data)
		writeJSON(w, http.StatusOK, data)
	}
}
