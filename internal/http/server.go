package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"budgetbook/internal/cache"
	"budgetbook/internal/core"
	"budgetbook/internal/services"
)

type Server struct {
	http.Server
	service       *services.LedgerService
	allowedOrigin string
	rateLimiter   *rateLimiter

	// Aggregate responses are cached and purged on every committed mutation.
	budgetCache *cache.LRUCache[budgetResponse]
	chartCache  *cache.LRUCache[core.ChartData]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, service *services.LedgerService, allowedOrigin string) *Server {
	s := &Server{
		service:          service,
		allowedOrigin:    allowedOrigin,
		rateLimiter:      newRateLimiter(),
		budgetCache:      cache.NewLRUCache[budgetResponse](16, 5*time.Minute),
		chartCache:       cache.NewLRUCache[core.ChartData](16, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.withRequestLogging)
	r.Use(s.enableCORS)
	r.Use(s.withSecurityHeaders)
	r.Use(s.withRateLimit)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleAddTransaction)
		r.Put("/transactions/{id}", s.handleEditTransaction)
		r.Delete("/transactions/{id}", s.handleDeleteTransaction)

		r.Get("/budget", s.handleBudget)
		r.Get("/charts/income", s.handleChart(core.Income))
		r.Get("/charts/expenses", s.handleChart(core.Expenses))
	})

	s.Server = http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go s.startCacheCleanup()

	return s
}

// invalidateAggregates drops every cached aggregate view. Called after each
// committed mutation so reads never serve stale totals.
func (s *Server) invalidateAggregates() {
	s.budgetCache.Purge()
	s.chartCache.Purge()
}

// startCacheCleanup runs periodic cleanup for the aggregate caches
func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			budgetCleaned := s.budgetCache.CleanExpired()
			chartCleaned := s.chartCache.CleanExpired()
			if budgetCleaned > 0 || chartCleaned > 0 {
				slog.Debug("Cache cleanup completed",
					"budget_entries_removed", budgetCleaned,
					"chart_entries_removed", chartCleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}

		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}

		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
