package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/worker"
)

// addTrackRequest defines what the client sends us
type addTrackRequest struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Source string `json:"source"`
}

// AddTrack handles POST /tracks
func (h *Handler) AddTrack(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	// 1. Decode the Request Body
	var req addTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// 2. Validate Input
	if req.Title == "" || req.Source == "" {
		writeError(w, http.StatusBadRequest, "title and source are required")
		return
	}

	// 3. Call the Service (The Core Logic)
	track, err := h.library.RegisterTrack(r.Context(), req.Title, req.Artist, req.Source)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// 4. Queue background feature analysis, then respond
	if h.pool != nil {
		h.pool.Submit(worker.Job{TrackID: track.ID, Source: track.Source})
	}

	w.Header().Set("Location", "/tracks/"+track.ID)
	writeJSON(w, http.StatusCreated, track)
}

// ListTracks handles GET /tracks
func (h *Handler) ListTracks(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.library.ListTracks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if tracks == nil {
		tracks = []domain.Track{}
	}
	writeJSON(w, http.StatusOK, tracks)
}

// GetTrack handles GET /tracks/{id}
func (h *Handler) GetTrack(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "track id is required")
		return
	}

	track, err := h.library.GetTrack(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "track not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, track)
}
