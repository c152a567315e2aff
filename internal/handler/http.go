package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/startgg-sync/internal/domain"
	"github.com/startgg-sync/internal/postgres"
	"github.com/startgg-sync/internal/redis"
	"github.com/startgg-sync/internal/startgg"
	syncsvc "github.com/startgg-sync/internal/sync"
	"github.com/startgg-sync/internal/websocket"
)

// Handler provides the HTTP surface: sync triggers for admins and
// schedulers, read-only listings for presentation layers, and status.
// Authenticating trigger callers is a gateway concern outside this service.
type Handler struct {
	service *syncsvc.Service
	repo    *postgres.Repository
	status  *redis.StatusStore
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	service *syncsvc.Service,
	repo *postgres.Repository,
	status *redis.StatusStore,
	hub *websocket.Hub,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service: service,
		repo:    repo,
		status:  status,
		hub:     hub,
		logger:  logger,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Sync triggers
		r.Route("/sync", func(r chi.Router) {
			r.Post("/tournaments", h.SyncTournaments)
			r.Post("/tournaments/atomic", h.SyncTournamentsAtomic)
			r.Post("/tournaments/{tournamentID}/events", h.SyncTournamentEvents)
			r.Post("/events/{eventID}/seeds", h.SyncEventSeeds)
			r.Get("/status", h.SyncStatus)
		})

		// Read-only listings for presentation layers
		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", h.ListTournaments)
			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", h.GetTournament)
				r.Get("/events", h.ListTournamentEvents)
			})
		})
		r.Get("/events/{eventID}/seeds", h.ListEventSeeds)
	})

	return r
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeSyncError maps a failed sync run to an HTTP status. Upstream API
// failures surface as 502 with the failure detail; anything else is a 500.
func (h *Handler) writeSyncError(w http.ResponseWriter, err error) {
	var statusErr *startgg.StatusError
	var formatErr *startgg.FormatError
	var apiErr *startgg.APIError

	switch {
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrMissingAPIToken):
		h.writeError(w, http.StatusInternalServerError, err)
	case errors.As(err, &statusErr), errors.As(err, &formatErr), errors.As(err, &apiErr):
		h.writeError(w, http.StatusBadGateway, err)
	default:
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// SyncTournaments triggers the tournament listing sync
func (h *Handler) SyncTournaments(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.SyncTournaments(r.Context())
	if err != nil {
		h.logger.Error("tournament sync failed", "error", err)
		h.writeSyncError(w, err)
		return
	}
	h.writeSuccess(w, map[string]int{"created": created})
}

// SyncTournamentsAtomic triggers the atomic tournaments+events sync
func (h *Handler) SyncTournamentsAtomic(w http.ResponseWriter, r *http.Request) {
	created, err := h.service.SyncTournamentsWithEvents(r.Context())
	if err != nil {
		h.logger.Error("atomic tournament sync failed", "error", err)
		h.writeSyncError(w, err)
		return
	}
	h.writeSuccess(w, map[string]int{"created": created})
}

// SyncTournamentEvents triggers the events sync for one tournament
func (h *Handler) SyncTournamentEvents(w http.ResponseWriter, r *http.Request) {
	tournament, ok := h.loadTournament(w, r)
	if !ok {
		return
	}

	created, err := h.service.SyncTournamentEvents(r.Context(), *tournament)
	if err != nil {
		h.logger.Error("event sync failed", "tournament", tournament.Slug, "error", err)
		h.writeSyncError(w, err)
		return
	}
	h.writeSuccess(w, map[string]int{"created": created})
}

// SyncEventSeeds triggers the seed sync for one event
func (h *Handler) SyncEventSeeds(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	event, err := h.repo.GetEventByID(r.Context(), eventID)
	if err != nil {
		h.lookupError(w, err)
		return
	}
	tournament, err := h.repo.GetTournamentByID(r.Context(), event.TournamentID)
	if err != nil {
		h.lookupError(w, err)
		return
	}

	created, err := h.service.SyncEventSeeds(r.Context(), *tournament, *event)
	if err != nil {
		h.logger.Error("seed sync failed", "event", event.Slug, "error", err)
		h.writeSyncError(w, err)
		return
	}
	h.writeSuccess(w, map[string]int{"created": created})
}

// SyncStatus returns the last run report per sync operation
func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	runs, err := h.status.LastRuns(r.Context())
	if err != nil {
		h.logger.Error("failed to read sync status", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, runs)
}

// ListTournaments returns all synced tournaments
func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.repo.ListTournaments(r.Context())
	if err != nil {
		h.logger.Error("failed to list tournaments", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, tournaments)
}

// GetTournament returns one tournament by local id
func (h *Handler) GetTournament(w http.ResponseWriter, r *http.Request) {
	tournament, ok := h.loadTournament(w, r)
	if !ok {
		return
	}
	h.writeSuccess(w, tournament)
}

// ListTournamentEvents returns the events of one tournament
func (h *Handler) ListTournamentEvents(w http.ResponseWriter, r *http.Request) {
	tournament, ok := h.loadTournament(w, r)
	if !ok {
		return
	}

	events, err := h.repo.ListEventsByTournament(r.Context(), tournament.ID)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, events)
}

// ListEventSeeds returns the seeds of one event
func (h *Handler) ListEventSeeds(w http.ResponseWriter, r *http.Request) {
	eventID, err := parseID(chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	seeds, err := h.repo.ListSeedsByEvent(r.Context(), eventID)
	if err != nil {
		h.logger.Error("failed to list seeds", "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
		return
	}
	h.writeSuccess(w, seeds)
}

// loadTournament resolves the tournamentID URL parameter
func (h *Handler) loadTournament(w http.ResponseWriter, r *http.Request) (*domain.Tournament, bool) {
	id, err := parseID(chi.URLParam(r, "tournamentID"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return nil, false
	}

	tournament, err := h.repo.GetTournamentByID(r.Context(), id)
	if err != nil {
		h.lookupError(w, err)
		return nil, false
	}
	return tournament, true
}

// lookupError writes the response for a failed store lookup
func (h *Handler) lookupError(w http.ResponseWriter, err error) {
	if domain.IsNotFoundError(err) {
		h.writeError(w, http.StatusNotFound, err)
		return
	}
	h.logger.Error("store lookup failed", "error", err)
	h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
}

func parseID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}
