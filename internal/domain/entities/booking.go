package entities

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is the central entity: a confirmed meeting between a visitor and a
// staff member. Rows are never deleted; cancellation flips the status.
type Booking struct {
	ID              string        `json:"id" db:"id"`
	StaffID         string        `json:"staff_id" db:"staff_id"`
	MeetingTypeID   string        `json:"meeting_type_id" db:"meeting_type_id"`
	FirstName       string        `json:"first_name" db:"first_name"`
	LastName        string        `json:"last_name" db:"last_name"`
	Email           string        `json:"email" db:"email"`
	Phone           string        `json:"phone,omitempty" db:"phone"`
	Notes           string        `json:"notes,omitempty" db:"notes"`
	StartTime       time.Time     `json:"start_time" db:"start_time"`
	EndTime         time.Time     `json:"end_time" db:"end_time"`
	DurationMinutes int           `json:"duration_minutes" db:"duration_minutes"`
	Status          BookingStatus `json:"status" db:"status"`
	CalendarEventID *string       `json:"calendar_event_id,omitempty" db:"calendar_event_id"`
	MeetingLink     *string       `json:"meeting_link,omitempty" db:"meeting_link"`
	AccessToken     string        `json:"-" db:"access_token"`
	ReminderSent    bool          `json:"reminder_sent" db:"reminder_sent"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// BookerName returns the visitor's full name.
func (b *Booking) BookerName() string {
	if b.LastName == "" {
		return b.FirstName
	}
	return b.FirstName + " " + b.LastName
}

// Interval returns the booking's occupied time window.
func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// Interval is a half-open [Start, End) time window. Busy intervals from the
// calendar gateway use the same shape; they are never persisted.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether two half-open intervals intersect:
// [a,b) and [c,d) intersect iff a < d && c < b.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Valid reports whether the interval is non-empty.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}
