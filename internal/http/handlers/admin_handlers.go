package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"chargehub/internal/service"
)

// AdminHandlers exposes the platform-wide admin surface.
type AdminHandlers struct {
	admin    *service.AdminService
	stations *service.StationService
	sessions service.SessionStore
	logger   *zap.Logger
}

// NewAdminHandlers returns handler.
func NewAdminHandlers(admin *service.AdminService, stations *service.StationService, sessions service.SessionStore, logger *zap.Logger) *AdminHandlers {
	return &AdminHandlers{admin: admin, stations: stations, sessions: sessions, logger: logger}
}

// Dashboard handles GET /admin/dashboard.
func (h *AdminHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	totals, err := h.admin.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("failed to load dashboard totals", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// Users handles GET /admin/users.
func (h *AdminHandlers) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.admin.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type blacklistRequest struct {
	UserID      int64 `json:"user_id"`
	Blacklisted bool  `json:"blacklisted"`
}

// Blacklist handles POST /admin/users/blacklist.
func (h *AdminHandlers) Blacklist(w http.ResponseWriter, r *http.Request) {
	var req blacklistRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if err := h.admin.SetBlacklist(r.Context(), req.UserID, req.Blacklisted); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type updateUserRequest struct {
	UserID      int64  `json:"user_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Blacklisted bool   `json:"blacklisted"`
}

// UpdateUser handles POST /admin/users/update.
func (h *AdminHandlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	user, err := h.admin.UpdateUser(r.Context(), req.UserID, service.UpdateUserInput{
		Name:        req.Name,
		Email:       req.Email,
		Role:        req.Role,
		Blacklisted: req.Blacklisted,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Stations handles GET /admin/stations (all stations, approved or not).
func (h *AdminHandlers) Stations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list stations", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

type approveStationRequest struct {
	StationID int64 `json:"station_id"`
}

// ApproveStation handles POST /admin/stations/approve.
func (h *AdminHandlers) ApproveStation(w http.ResponseWriter, r *http.Request) {
	var req approveStationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.StationID == 0 {
		writeError(w, http.StatusBadRequest, "station_id is required")
		return
	}

	if err := h.stations.Approve(r.Context(), req.StationID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ActiveSessions handles GET /admin/sessions/active.
func (h *AdminHandlers) ActiveSessions(w http.ResponseWriter, r *http.Request) {
	views, err := h.sessions.ActiveAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list active sessions", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// Queue handles GET /admin/queue.
func (h *AdminHandlers) Queue(w http.ResponseWriter, r *http.Request) {
	entries, err := h.admin.QueueOverview(r.Context())
	if err != nil {
		h.logger.Error("failed to load queue overview", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
