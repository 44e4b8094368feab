package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/schedulo/schedulo/internal/application/services"
	"github.com/schedulo/schedulo/internal/domain/entities"
)

// BookingService defines the interface for booking lifecycle operations
type BookingService interface {
	Create(ctx context.Context, req *services.CreateBookingRequest) (*services.BookingResult, error)
	Reschedule(ctx context.Context, token, newDate, newTime string) (*services.BookingResult, error)
	Cancel(ctx context.Context, token string) (*services.CancelResult, error)
	GetByToken(ctx context.Context, token string) (*entities.Booking, error)
}

// BookingHandler handles booking lifecycle requests
type BookingHandler struct {
	service BookingService
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(service BookingService) *BookingHandler {
	return &BookingHandler{
		service: service,
	}
}

// CreateBooking handles POST /api/bookings
func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req services.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.service.Create(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	payload := map[string]interface{}{
		"booking_id":   result.Booking.ID,
		"access_token": result.AccessToken,
		"start_time":   result.Booking.StartTime,
		"end_time":     result.Booking.EndTime,
	}
	if result.Booking.MeetingLink != nil {
		payload["meeting_link"] = *result.Booking.MeetingLink
	}
	if len(result.Warnings) > 0 {
		payload["warnings"] = result.Warnings
	}

	respondWithJSON(w, http.StatusCreated, payload)
}

// GetBooking handles GET /api/bookings/{token}
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "access token is required")
		return
	}

	booking, err := h.service.GetByToken(r.Context(), token)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, booking)
}

// RescheduleBooking handles PATCH /api/bookings/{token}
func (h *BookingHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "access token is required")
		return
	}

	var req struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.service.Reschedule(r.Context(), token, req.Date, req.Time)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	payload := map[string]interface{}{
		"booking_id":   result.Booking.ID,
		"access_token": result.AccessToken,
		"start_time":   result.Booking.StartTime,
		"end_time":     result.Booking.EndTime,
	}
	if len(result.Warnings) > 0 {
		payload["warnings"] = result.Warnings
	}

	respondWithJSON(w, http.StatusOK, payload)
}

// CancelBooking handles DELETE /api/bookings/{token}
func (h *BookingHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "access token is required")
		return
	}

	result, err := h.service.Cancel(r.Context(), token)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	payload := map[string]interface{}{
		"success":           true,
		"already_cancelled": result.AlreadyCancelled,
	}
	if len(result.Warnings) > 0 {
		payload["warnings"] = result.Warnings
	}

	respondWithJSON(w, http.StatusOK, payload)
}
