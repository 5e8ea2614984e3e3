package display

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Handler serves the display HTTP routes.
type Handler struct {
	hub      *Hub
	registry *Registry
	gatherer prometheus.Gatherer
}

// NewHandler creates a Handler. A nil gatherer serves the default registry.
func NewHandler(hub *Hub, registry *Registry, gatherer prometheus.Gatherer) *Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{hub: hub, registry: registry, gatherer: gatherer}
}

// RegisterRoutes registers display routes with mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/game/{gameID}", h.HandleGameConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
	mux.HandleFunc("GET /api/games/{gameID}/view", h.HandleView)
	mux.HandleFunc("POST /api/games/{gameID}/dismiss", h.HandleDismiss)
	mux.HandleFunc("POST /api/games/{gameID}/refresh", h.HandleRefresh)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}

// HandleGameConnection upgrades a screen's connection for a registered game.
func (h *Handler) HandleGameConnection(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("gameID")
	if _, ok := h.registry.Lookup(gameID); !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}

	// Upgrade writes its own error response.
	if err := h.hub.Upgrade(w, r, gameID); err != nil {
		log.Warn().Err(err).Str("game_id", gameID).Msg("failed to upgrade screen connection")
	}
}

func (h *Handler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Stats())
}

func (h *Handler) HandleView(w http.ResponseWriter, r *http.Request) {
	c, ok := h.registry.Lookup(r.PathValue("gameID"))
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c.View())
}

func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	c, ok := h.registry.Lookup(r.PathValue("gameID"))
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"dismissed": c.Dismiss()})
}

// HandleRefresh requests an immediate poll. Requests inside the refresh
// window are answered with 429.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	c, ok := h.registry.Lookup(r.PathValue("gameID"))
	if !ok {
		http.Error(w, "unknown game", http.StatusNotFound)
		return
	}
	if !c.Refresh() {
		writeJSON(w, http.StatusTooManyRequests, map[string]bool{"refreshed": false})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"refreshed": true})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("failed to write response")
	}
}
