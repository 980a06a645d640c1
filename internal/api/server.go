// Package api provides the HTTP server for reloop.
// It exposes the purchase endpoint, certificate and proof ledger reads,
// and the usual health/metrics plumbing. Presentation (HTML, PDFs,
// uploads) lives outside this service.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reloop-exchange/reloop/internal/app/purchase"
	"github.com/reloop-exchange/reloop/internal/domain"
)

// Version is the reported service version.
const Version = "0.1.0"

// Server is the reloop HTTP API server.
type Server struct {
	coordinator    *purchase.Coordinator
	assembler      *purchase.Assembler
	inventory      domain.InventoryStore
	proofs         domain.ProofLedger
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(c *purchase.Coordinator, a *purchase.Assembler, inv domain.InventoryStore, proofs domain.ProofLedger) *Server {
	return &Server{coordinator: c, assembler: a, inventory: inv, proofs: proofs}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "reloop is running",
		})
	})

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/purchases", s.handlePurchase)
		r.Get("/certificates/{transactionID}", s.handleCertificate)
		r.Get("/materials", s.handleListMaterials)
		r.Get("/ledger", s.handleLedger)
		r.Get("/ledger/verify", s.handleLedgerVerify)
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
