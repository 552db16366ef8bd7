package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"chargehub/internal/http/middleware"
	"chargehub/internal/models"
	"chargehub/internal/service"
)

// OwnerHandlers exposes station management to owners.
type OwnerHandlers struct {
	stations  *service.StationService
	sessions  service.SessionStore
	admission *service.AdmissionService
	logger    *zap.Logger
}

// NewOwnerHandlers returns handler.
func NewOwnerHandlers(
	stations *service.StationService,
	sessions service.SessionStore,
	admission *service.AdmissionService,
	logger *zap.Logger,
) *OwnerHandlers {
	return &OwnerHandlers{stations: stations, sessions: sessions, admission: admission, logger: logger}
}

type createStationRequest struct {
	Name        string  `json:"name"`
	Location    string  `json:"location"`
	Chargers    int     `json:"chargers"`
	PricePerKWh float64 `json:"price_per_kwh"`
	GreenScore  int     `json:"green_score"`
}

// CreateStation handles POST /owner/stations.
func (h *OwnerHandlers) CreateStation(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createStationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	station, err := h.stations.Create(r.Context(), ownerID, service.CreateStationInput{
		Name:        req.Name,
		Location:    req.Location,
		Chargers:    req.Chargers,
		PricePerKWh: req.PricePerKWh,
		GreenScore:  req.GreenScore,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

// ListStations handles GET /owner/stations.
func (h *OwnerHandlers) ListStations(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stations, err := h.stations.ListByOwner(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list owner stations", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// ActiveSessions handles GET /owner/sessions/active.
func (h *OwnerHandlers) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	views, err := h.sessions.ActiveForOwner(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("failed to list active sessions", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

type ownerEndSessionRequest struct {
	SessionID int64 `json:"session_id"`
}

// CompleteSession handles POST /owner/sessions/complete.
func (h *OwnerHandlers) CompleteSession(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r, models.SessionStatusCompleted)
}

// CancelSession handles POST /owner/sessions/cancel.
func (h *OwnerHandlers) CancelSession(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r, models.SessionStatusCancelled)
}

func (h *OwnerHandlers) endSession(w http.ResponseWriter, r *http.Request, outcome string) {
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ownerEndSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, err := h.admission.EndSession(r.Context(), req.SessionID,
		service.Actor{UserID: ownerID, Role: models.RoleOwner}, outcome)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}
