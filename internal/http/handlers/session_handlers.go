package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"chargehub/internal/http/middleware"
	"chargehub/internal/models"
	"chargehub/internal/service"
)

// SessionHandlers exposes the charge/queue flow to drivers.
type SessionHandlers struct {
	admission *service.AdmissionService
	sessions  service.SessionStore
	logger    *zap.Logger
}

// NewSessionHandlers returns handler.
func NewSessionHandlers(admission *service.AdmissionService, sessions service.SessionStore, logger *zap.Logger) *SessionHandlers {
	return &SessionHandlers{admission: admission, sessions: sessions, logger: logger}
}

type startSessionRequest struct {
	StationID int64   `json:"station_id"`
	Units     float64 `json:"units"`
}

// Start handles POST /sessions/start: admit immediately or join the queue.
func (h *SessionHandlers) Start(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.StationID == 0 || req.Units <= 0 {
		writeError(w, http.StatusBadRequest, "station_id and positive units are required")
		return
	}

	result, err := h.admission.RequestAdmission(r.Context(), userID, req.StationID, req.Units)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if result.Admitted {
		writeJSON(w, http.StatusCreated, result)
		return
	}
	writeJSON(w, http.StatusAccepted, result)
}

// QueueStatus handles GET /queue/status?station_id=: the polling endpoint
// queued drivers call until can_proceed turns true.
func (h *SessionHandlers) QueueStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stationID, err := strconv.ParseInt(r.URL.Query().Get("station_id"), 10, 64)
	if err != nil || stationID == 0 {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	status, err := h.admission.QueryPosition(r.Context(), userID, stationID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type stopSessionRequest struct {
	SessionID int64 `json:"session_id"`
}

// Stop handles POST /sessions/stop: a driver completing their own session.
func (h *SessionHandlers) Stop(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req stopSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.admission.EndSession(r.Context(), req.SessionID,
		service.Actor{UserID: userID, Role: models.RoleUser}, models.SessionStatusCompleted)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// History handles GET /sessions/me.
func (h *SessionHandlers) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.sessions.HistoryForUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("failed to load session history", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
