package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
)

// MockAdapter is an in-memory calendar for local development. Events it
// creates show up in its own busy intervals, so availability behaves
// plausibly without a real calendar account.
type MockAdapter struct {
	mu     sync.Mutex
	events map[string]entities.Interval
	seq    int
}

// NewMockAdapter creates a mock calendar provider.
func NewMockAdapter() providers.CalendarProvider {
	return &MockAdapter{
		events: make(map[string]entities.Interval),
	}
}

// CreateEvent records an event in memory and returns a mock meeting link.
func (m *MockAdapter) CreateEvent(ctx context.Context, staff *entities.StaffMember, interval entities.Interval, invitee providers.EventInvitee) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := fmt.Sprintf("mock-event-%d", m.seq)
	m.events[id] = interval
	return id, fmt.Sprintf("https://meet.example.com/%s", id), nil
}

// UpdateEventTime moves a recorded event.
func (m *MockAdapter) UpdateEventTime(ctx context.Context, staff *entities.StaffMember, eventID string, interval entities.Interval) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[eventID]; !ok {
		return fmt.Errorf("event not found: %s", eventID)
	}
	m.events[eventID] = interval
	return nil
}

// DeleteEvent removes a recorded event. Deleting an unknown event is a no-op.
func (m *MockAdapter) DeleteEvent(ctx context.Context, staff *entities.StaffMember, eventID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.events, eventID)
	return nil
}

// ListBusyIntervals returns intervals for events created through this adapter
// that fall within [from, to).
func (m *MockAdapter) ListBusyIntervals(ctx context.Context, staff *entities.StaffMember, from, to time.Time) ([]entities.Interval, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("invalid time range")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var busy []entities.Interval
	for _, interval := range m.events {
		if interval.Start.Before(to) && from.Before(interval.End) {
			busy = append(busy, interval)
		}
	}
	return busy, nil
}
