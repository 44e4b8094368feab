package routes

import (
	"net/http"

	"github.com/schedulo/schedulo/internal/api/handlers"
	"github.com/schedulo/schedulo/internal/api/middleware"
	"github.com/schedulo/schedulo/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	staffHandler        *handlers.StaffHandler
	availabilityHandler *handlers.AvailabilityHandler
	bookingHandler      *handlers.BookingHandler
	eventsHandler       *handlers.EventsHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router. The events handler may be nil when no
// event bus is configured; the stream routes are skipped.
func NewRouter(
	staffHandler *handlers.StaffHandler,
	availabilityHandler *handlers.AvailabilityHandler,
	bookingHandler *handlers.BookingHandler,
	eventsHandler *handlers.EventsHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		staffHandler:        staffHandler,
		availabilityHandler: availabilityHandler,
		bookingHandler:      bookingHandler,
		eventsHandler:       eventsHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)

		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Staff endpoints
	r.mux.HandleFunc("GET /api/staff/{id}", r.staffHandler.GetStaff)
	r.mux.HandleFunc("GET /api/staff/{id}/meeting-types", r.staffHandler.ListMeetingTypes)
	r.mux.HandleFunc("GET /api/staff/{id}/availability", r.availabilityHandler.GetAvailability)

	// Booking endpoints
	r.mux.HandleFunc("POST /api/bookings", r.bookingHandler.CreateBooking)
	r.mux.HandleFunc("GET /api/bookings/{token}", r.bookingHandler.GetBooking)
	r.mux.HandleFunc("PATCH /api/bookings/{token}", r.bookingHandler.RescheduleBooking)
	r.mux.HandleFunc("DELETE /api/bookings/{token}", r.bookingHandler.CancelBooking)

	// Live booking event streams
	if r.eventsHandler != nil {
		r.mux.HandleFunc("GET /api/staff/{id}/events", r.eventsHandler.StreamStaffBookings)
		r.mux.HandleFunc("GET /api/bookings/events", r.eventsHandler.StreamBookingUpdates)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)

	// CORS wraps everything so preflight requests short-circuit early
	handler = middleware.CORSMiddleware(handler)

	return handler
}
