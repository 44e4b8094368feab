package entities

import "time"

// BookingEventType identifies booking lifecycle events on the event bus
type BookingEventType string

const (
	BookingEventCreated     BookingEventType = "booking.created"
	BookingEventRescheduled BookingEventType = "booking.rescheduled"
	BookingEventCancelled   BookingEventType = "booking.cancelled"
)

// BookingEvent is published on the event bus after each successful booking
// mutation. Consumers (admin dashboards, cache invalidation) are best-effort.
type BookingEvent struct {
	ID            string           `json:"id"`
	Type          BookingEventType `json:"type"`
	BookingID     string           `json:"booking_id"`
	StaffID       string           `json:"staff_id"`
	StartTime     time.Time        `json:"start_time"`
	EndTime       time.Time        `json:"end_time"`
	PreviousStart *time.Time       `json:"previous_start,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}
