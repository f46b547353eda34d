package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

const (
	errCodeEmptyQueue    = "EMPTY_QUEUE"
	errCodeSessionActive = "SESSION_ACTIVE"
)

type startSessionRequest struct {
	TrackIDs []string `json:"track_ids"`
	Mode     string   `json:"mode"`
	ArcLabel string   `json:"arc_label"`
}

type startSessionResponse struct {
	Mode        domain.Mode `json:"mode"`
	QueueLength int         `json:"queue_length"`
}

// StartSession handles POST /session/start
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.TrackIDs) == 0 {
		writeError(w, http.StatusBadRequest, "track_ids is required")
		return
	}

	tracks, err := h.library.ResolveTracks(r.Context(), req.TrackIDs)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The session outlives this request, so the poll loop cannot inherit
	// the request context.
	if err := h.dj.Start(context.Background(), tracks, req.ArcLabel, domain.Mode(req.Mode)); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyQueue):
			writeErrorWithCode(w, http.StatusBadRequest, err.Error(), errCodeEmptyQueue)
		case errors.Is(err, domain.ErrSessionActive):
			writeErrorWithCode(w, http.StatusConflict, err.Error(), errCodeSessionActive)
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, startSessionResponse{
		Mode:        h.dj.Mode(),
		QueueLength: len(tracks),
	})
}

// StopSession handles POST /session/stop
func (h *Handler) StopSession(w http.ResponseWriter, r *http.Request) {
	h.dj.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"stopped": true})
}

// SessionStatus handles GET /session/status
func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dj.Status())
}

type arrangeSessionRequest struct {
	TrackIDs []string `json:"track_ids"`
	Template string   `json:"template"`
}

type arrangeSessionResponse struct {
	Tracks   []domain.Track `json:"tracks"`
	ArcLabel string         `json:"arc_label"`
}

// ArrangeSession handles POST /session/arrange. It asks the AI arranger to
// order the given tracks into a narrative arc but does not start playback;
// the client passes the result to /session/start when satisfied.
func (h *Handler) ArrangeSession(w http.ResponseWriter, r *http.Request) {
	if !isJSONContentType(r) {
		writeError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var req arrangeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.TrackIDs) == 0 {
		writeError(w, http.StatusBadRequest, "track_ids is required")
		return
	}

	tracks, arcLabel, err := h.library.Arrange(r.Context(), req.TrackIDs, req.Template)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, arrangeSessionResponse{Tracks: tracks, ArcLabel: arcLabel})
}
