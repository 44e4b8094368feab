package handlers

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/schedulo/schedulo/pkg/errors"

	"github.com/schedulo/schedulo/internal/domain/repositories"
)

// StaffHandler handles public staff profile requests
type StaffHandler struct {
	staffRepo       repositories.StaffRepository
	meetingTypeRepo repositories.MeetingTypeRepository
}

// NewStaffHandler creates a new staff handler
func NewStaffHandler(staffRepo repositories.StaffRepository, meetingTypeRepo repositories.MeetingTypeRepository) *StaffHandler {
	return &StaffHandler{
		staffRepo:       staffRepo,
		meetingTypeRepo: meetingTypeRepo,
	}
}

// GetStaff handles GET /api/staff/{id}
func (h *StaffHandler) GetStaff(w http.ResponseWriter, r *http.Request) {
	staffID := r.PathValue("id")
	if staffID == "" {
		respondWithError(w, http.StatusBadRequest, "staff ID is required")
		return
	}

	staff, err := h.staffRepo.GetByID(r.Context(), staffID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":       staff.ID,
		"name":     staff.Name,
		"timezone": staff.Timezone,
	})
}

// ListMeetingTypes handles GET /api/staff/{id}/meeting-types
func (h *StaffHandler) ListMeetingTypes(w http.ResponseWriter, r *http.Request) {
	staffID := r.PathValue("id")
	if staffID == "" {
		respondWithError(w, http.StatusBadRequest, "staff ID is required")
		return
	}

	if _, err := h.staffRepo.GetByID(r.Context(), staffID); err != nil {
		respondWithAppError(w, err)
		return
	}

	meetingTypes, err := h.meetingTypeRepo.ListByStaff(r.Context(), staffID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"meeting_types": meetingTypes,
		"count":         len(meetingTypes),
	})
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps typed application errors onto HTTP statuses.
func respondWithAppError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeValidation:
			respondWithError(w, http.StatusBadRequest, appErr.Message)
		case apperrors.ErrorTypeNotFound:
			respondWithError(w, http.StatusNotFound, appErr.Message)
		case apperrors.ErrorTypeConflict:
			respondWithError(w, http.StatusConflict, appErr.Message)
		case apperrors.ErrorTypeUnauthorized:
			respondWithError(w, http.StatusNotFound, "booking not found")
		case apperrors.ErrorTypeExternal:
			respondWithError(w, http.StatusBadGateway, appErr.Message)
		default:
			respondWithError(w, http.StatusInternalServerError, appErr.Message)
		}
		return
	}
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}
