package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
)

const sseHeartbeatInterval = 30 * time.Second

// EventsHandler streams booking lifecycle events over Server-Sent Events,
// fed by the event bus the booking service publishes to. Staff dashboards
// subscribe here to refresh their schedule view without polling.
type EventsHandler struct {
	eventBus providers.EventBus
	clients  map[string]map[chan *entities.BookingEvent]bool // channel -> clients
	mu       sync.RWMutex
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(eventBus providers.EventBus) *EventsHandler {
	return &EventsHandler{
		eventBus: eventBus,
		clients:  make(map[string]map[chan *entities.BookingEvent]bool),
	}
}

// StreamStaffBookings handles SSE connections for one staff member's
// booking events.
// GET /api/staff/{id}/events
func (h *EventsHandler) StreamStaffBookings(w http.ResponseWriter, r *http.Request) {
	staffID := r.PathValue("id")
	if staffID == "" {
		respondWithError(w, http.StatusBadRequest, "staff ID is required")
		return
	}
	h.stream(w, r, providers.GetStaffChannel(staffID), map[string]interface{}{
		"staff_id":  staffID,
		"timestamp": time.Now(),
	})
}

// StreamBookingUpdates handles SSE connections for all booking events.
// GET /api/bookings/events
func (h *EventsHandler) StreamBookingUpdates(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, providers.EventChannelBookingUpdates, map[string]interface{}{
		"timestamp": time.Now(),
	})
}

func (h *EventsHandler) stream(w http.ResponseWriter, r *http.Request, channel string, connectedPayload map[string]interface{}) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan *entities.BookingEvent, 10)
	h.registerClient(channel, clientChan)
	defer h.unregisterClient(channel, clientChan)

	eventChan, err := h.eventBus.Subscribe(r.Context(), channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("failed to subscribe to booking events")
		return
	}

	h.sendEvent(w, "connected", connectedPayload)
	flusher.Flush()

	go h.forwardEvents(r.Context(), eventChan, clientChan)

	ticker := time.NewTicker(sseHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			log.Debug().Str("channel", channel).Msg("SSE client disconnected")
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case event := <-clientChan:
			if event == nil {
				continue
			}
			h.sendEvent(w, string(event.Type), event)
			flusher.Flush()
		}
	}
}

// forwardEvents forwards events from the event bus to a client channel
func (h *EventsHandler) forwardEvents(ctx context.Context, eventChan <-chan *entities.BookingEvent, clientChan chan<- *entities.BookingEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			select {
			case clientChan <- event:
			default:
				// Client channel full, skip event
			}
		}
	}
}

func (h *EventsHandler) registerClient(channel string, clientChan chan *entities.BookingEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[channel] == nil {
		h.clients[channel] = make(map[chan *entities.BookingEvent]bool)
	}
	h.clients[channel][clientChan] = true
}

func (h *EventsHandler) unregisterClient(channel string, clientChan chan *entities.BookingEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.clients[channel]; exists {
		delete(clients, clientChan)
		if len(clients) == 0 {
			delete(h.clients, channel)
		}
	}
}

// sendEvent writes one SSE frame
func (h *EventsHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal SSE event")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// ClientCount returns the number of connected stream clients
func (h *EventsHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, clients := range h.clients {
		count += len(clients)
	}
	return count
}
