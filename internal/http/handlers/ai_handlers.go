package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"chargehub/internal/ai"
	"chargehub/internal/http/middleware"
	"chargehub/internal/service"
)

// AIHandlers exposes the assistant-backed conveniences: chat, recommendation,
// natural-language search and personal insights.
type AIHandlers struct {
	assistant *ai.Assistant
	stations  *service.StationService
	insights  *service.InsightsService
	logger    *zap.Logger
}

// NewAIHandlers returns handler.
func NewAIHandlers(
	assistant *ai.Assistant,
	stations *service.StationService,
	insights *service.InsightsService,
	logger *zap.Logger,
) *AIHandlers {
	return &AIHandlers{assistant: assistant, stations: stations, insights: insights, logger: logger}
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply    string `json:"reply"`
	Fallback bool   `json:"fallback"`
}

// Chat handles POST /ai/chat.
func (h *AIHandlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if !decodeBody(w, r, &req) {
		return
	}

	reply, fallback := h.assistant.Chat(r.Context(), req.Message)
	writeJSON(w, http.StatusOK, chatResponse{Reply: reply, Fallback: fallback})
}

type recommendRequest struct {
	BatteryPercent int `json:"battery_percent"`
	DistanceKm     int `json:"distance_km"`
}

// Recommend handles POST /ai/recommend.
func (h *AIHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.BatteryPercent < 0 || req.BatteryPercent > 100 || req.DistanceKm < 0 {
		writeError(w, http.StatusBadRequest, "battery_percent must be 0-100 and distance_km non-negative")
		return
	}

	stations, err := h.stations.ListApproved(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	recommendation, err := h.assistant.Recommend(r.Context(), req.BatteryPercent, req.DistanceKm, stations)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recommendation)
}

type searchRequest struct {
	Query string `json:"query"`
}

// Search handles POST /ai/search.
func (h *AIHandlers) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	stations, err := h.stations.ListApproved(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.assistant.SearchStations(r.Context(), req.Query, stations))
}

// Insights handles GET /me/insights.
func (h *AIHandlers) Insights(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	totals, err := h.insights.UserInsights(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to load user insights", zap.Error(err))
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}
