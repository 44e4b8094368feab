package providers

import (
	"context"
	"time"

	"github.com/schedulo/schedulo/internal/domain/entities"
)

// EventInvitee is the visitor attached to a calendar event.
type EventInvitee struct {
	Name  string
	Email string
}

// CalendarProvider defines the interface for external calendar/conferencing
// services (Google Calendar, Cal.com, etc.).
//
// All calls are treated as unreliable. Mutations (create/update/delete) are
// best-effort from the booking engine's point of view; ListBusyIntervals is
// the exception — its failure must abort the availability read, because a
// silently missing busy interval would let a conflicting slot through.
type CalendarProvider interface {
	// CreateEvent creates an event on the staff member's calendar with the
	// invitee attached and a conference link requested. Returns the provider
	// event id and the conference link (either may be empty).
	CreateEvent(ctx context.Context, staff *entities.StaffMember, interval entities.Interval, invitee EventInvitee) (eventID string, meetingLink string, err error)

	// UpdateEventTime moves an existing event to a new interval
	UpdateEventTime(ctx context.Context, staff *entities.StaffMember, eventID string, interval entities.Interval) error

	// DeleteEvent removes an event from the staff member's calendar
	DeleteEvent(ctx context.Context, staff *entities.StaffMember, eventID string) error

	// ListBusyIntervals returns externally-held busy time on the staff
	// member's calendar within [from, to).
	ListBusyIntervals(ctx context.Context, staff *entities.StaffMember, from, to time.Time) ([]entities.Interval, error)
}
