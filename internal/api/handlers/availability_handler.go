package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/schedulo/schedulo/internal/application/services"
)

// AvailabilityService defines the interface for availability queries
type AvailabilityService interface {
	GetAvailability(ctx context.Context, staffID, meetingTypeID, fromDate, toDate string, durationMinutes int) ([]services.DayAvailability, error)
}

// AvailabilityHandler handles availability requests
type AvailabilityHandler struct {
	service AvailabilityService
}

// NewAvailabilityHandler creates a new availability handler
func NewAvailabilityHandler(service AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
	}
}

// GetAvailability handles GET /api/staff/{id}/availability
//
// Query parameters: from and to (local dates, "2006-01-02"), and either
// meeting_type or duration (minutes).
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	staffID := r.PathValue("id")
	if staffID == "" {
		respondWithError(w, http.StatusBadRequest, "staff ID is required")
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		respondWithError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	meetingTypeID := r.URL.Query().Get("meeting_type")
	duration := 0
	if durationStr := r.URL.Query().Get("duration"); durationStr != "" {
		parsed, err := strconv.Atoi(durationStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid duration")
			return
		}
		duration = parsed
	}
	if meetingTypeID == "" && duration == 0 {
		respondWithError(w, http.StatusBadRequest, "meeting_type or duration is required")
		return
	}

	days, err := h.service.GetAvailability(r.Context(), staffID, meetingTypeID, from, to, duration)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if days == nil {
		days = []services.DayAvailability{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"days": days,
	})
}
