// Package api implements the ashaboard REST API.
// It exposes the leaderboard, the dashboard summary and the case, water
// source and worker registries.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashaboard/ashaboard/internal/leaderboard"
	"github.com/ashaboard/ashaboard/internal/observability"
	"github.com/ashaboard/ashaboard/internal/registry"
	"github.com/ashaboard/ashaboard/internal/seed"
)

// maxBodyBytes bounds JSON request bodies. Imports get importMaxBytes.
const maxBodyBytes = 1 << 20

// Handler is the top-level API handler for ashaboardd.
type Handler struct {
	reg     *registry.Registry
	board   *leaderboard.Service
	loader  seed.Loader
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewHandler creates a new API handler. loader backs the reload endpoint and
// may be nil, in which case reload is rejected. metrics may be nil.
func NewHandler(reg *registry.Registry, board *leaderboard.Service, loader seed.Loader, metrics *observability.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		reg:     reg,
		board:   board,
		loader:  loader,
		metrics: metrics,
		logger:  logger.With("component", "api"),
	}
}

// RegisterRoutes registers all API routes on the given ServeMux. Mutating
// routes are guarded by APIKeyAuth(apiKey).
func (h *Handler) RegisterRoutes(mux *http.ServeMux, apiKey string) {
	auth := APIKeyAuth(apiKey)
	read := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, h.metrics.WrapHandler(pattern, fn))
	}
	write := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, h.metrics.WrapHandler(pattern, auth(fn)))
	}

	// Read endpoints
	read("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", h.metrics.Handler())
	read("GET /api/leaderboard", h.handleLeaderboard)
	read("GET /api/summary", h.handleSummary)
	read("GET /api/villages/{village}", h.handleVillage)
	read("GET /api/workers", h.handleListWorkers)
	read("GET /api/cases", h.handleListCases)
	read("GET /api/cases/{caseID}", h.handleGetCase)
	read("GET /api/sources", h.handleListSources)
	read("GET /api/sources/{sourceID}", h.handleGetSource)
	read("POST /api/water/classify", h.handleClassify)

	// Write endpoints (auth-protected)
	write("POST /api/workers", h.handleCreateWorker)
	write("PATCH /api/workers/{workerID}", h.handleUpdateWorker)
	write("POST /api/cases", h.handleCreateCase)
	write("PATCH /api/cases/{caseID}", h.handleUpdateCase)
	write("DELETE /api/cases/{caseID}", h.handleDeleteCase)
	write("POST /api/sources", h.handleCreateSource)
	write("PATCH /api/sources/{sourceID}", h.handleUpdateSource)
	write("DELETE /api/sources/{sourceID}", h.handleDeleteSource)
	write("POST /api/sources/{sourceID}/readings", h.handleRecordReading)
	write("POST /api/admin/reload", h.handleReload)
	write("POST /api/admin/import", h.handleImport)
}

// Routes returns the full API wrapped in CORS handling.
func (h *Handler) Routes(apiKey string, corsOrigins []string) http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux, apiKey)
	return CORS(corsOrigins)(mux)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeRegistryError maps registry sentinel errors onto HTTP statuses.
func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, registry.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, registry.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
