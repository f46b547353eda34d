// Package rest exposes the library and mix session over HTTP.
package rest

import (
	"encoding/json"
	"net/http"

	"github.com/ewilliams-labs/segue/internal/core/services"
	"github.com/ewilliams-labs/segue/internal/worker"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	library *services.Library
	dj      *services.Conductor
	pool    *worker.Pool
	events  http.Handler // WebSocket upgrade endpoint, nil when disabled
	router  *http.ServeMux
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(library *services.Library, dj *services.Conductor, pool *worker.Pool, events http.Handler) *Handler {
	h := &Handler{
		library: library,
		dj:      dj,
		pool:    pool,
		events:  events,
		router:  http.NewServeMux(),
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
// It acts as a proxy, passing the request to our internal router.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

// routes defines the mapping between URLs and methods.
func (h *Handler) routes() {
	// Health Check
	h.router.HandleFunc("GET /health", h.HealthCheck)
	// Library
	h.router.HandleFunc("POST /tracks", h.AddTrack)
	h.router.HandleFunc("GET /tracks", h.ListTracks)
	h.router.HandleFunc("GET /tracks/{id}", h.GetTrack)
	// Mix Session
	h.router.HandleFunc("POST /session/arrange", h.ArrangeSession)
	h.router.HandleFunc("POST /session/start", h.StartSession)
	h.router.HandleFunc("POST /session/stop", h.StopSession)
	h.router.HandleFunc("GET /session/status", h.SessionStatus)
	if h.events != nil {
		h.router.Handle("GET /session/events", h.events)
	}
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "Segue is live 🎧"})
}
