package repositories

import (
	"context"
	"time"

	"github.com/schedulo/schedulo/internal/domain/entities"
)

// BookingRepository defines the interface for booking persistence.
//
// CreateIfSlotFree and RescheduleIfSlotFree carry the engine's core
// atomicity contract: the overlap check against confirmed bookings for the
// same staff member and the write happen as one serialized operation, so two
// racing calls for overlapping intervals can never both succeed.
type BookingRepository interface {
	// CreateIfSlotFree inserts the booking unless a confirmed booking for the
	// same staff member overlaps [StartTime, EndTime). Returns a Conflict
	// error when the slot is taken.
	CreateIfSlotFree(ctx context.Context, booking *entities.Booking) error

	// RescheduleIfSlotFree moves the booking to a new interval and replaces
	// its access token, unless another confirmed booking for the same staff
	// member overlaps the new interval. Resets the reminder flag.
	RescheduleIfSlotFree(ctx context.Context, id string, start, end time.Time, newToken string) error

	// GetByID retrieves a booking by ID
	GetByID(ctx context.Context, id string) (*entities.Booking, error)

	// GetByToken retrieves a booking by its current access token
	GetByToken(ctx context.Context, token string) (*entities.Booking, error)

	// Cancel flips the booking's status to cancelled. The row is kept.
	Cancel(ctx context.Context, id string) error

	// UpdateCalendarRef records the external calendar event id and meeting
	// link after a successful (or late) calendar sync.
	UpdateCalendarRef(ctx context.Context, id string, eventID, meetingLink *string) error

	// ListConfirmedInRange retrieves confirmed bookings for a staff member
	// whose intervals overlap [from, to).
	ListConfirmedInRange(ctx context.Context, staffID string, from, to time.Time) ([]*entities.Booking, error)

	// ListDueReminders retrieves confirmed bookings starting within
	// [now, until) whose reminder has not been sent.
	ListDueReminders(ctx context.Context, now, until time.Time) ([]*entities.Booking, error)

	// MarkReminderSent sets the reminder flag
	MarkReminderSent(ctx context.Context, id string) error
}
