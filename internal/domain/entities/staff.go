package entities

import (
	"fmt"
	"time"
)

// DayWindow is a single weekday's working hours, as wall-clock times in the
// staff member's timezone.
type DayWindow struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"` // "09:00"
	End     string `json:"end"`   // "17:00"
}

// WorkingSchedule maps weekdays to working hours. Keyed by time.Weekday
// (0 = Sunday). Stored as a JSON column on the staff row.
type WorkingSchedule map[time.Weekday]DayWindow

// WindowFor returns the window for a weekday and whether that day is bookable.
func (s WorkingSchedule) WindowFor(day time.Weekday) (DayWindow, bool) {
	w, ok := s[day]
	if !ok || !w.Enabled {
		return DayWindow{}, false
	}
	return w, true
}

// StaffMember is an identity visitors can book against. Managed elsewhere;
// read-only to the booking engine.
type StaffMember struct {
	ID         string          `json:"id" db:"id"`
	Name       string          `json:"name" db:"name"`
	Email      string          `json:"email" db:"email"`
	Timezone   string          `json:"timezone" db:"timezone"`
	CalendarID string          `json:"calendar_id,omitempty" db:"calendar_id"`
	Schedule   WorkingSchedule `json:"schedule" db:"-"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Location resolves the staff member's IANA timezone.
func (s *StaffMember) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q for staff %s: %w", s.Timezone, s.ID, err)
	}
	return loc, nil
}

// MeetingType is a bookable offering owned by one staff member. Its duration
// is copied onto each booking at creation so later edits never rewrite
// history.
type MeetingType struct {
	ID              string    `json:"id" db:"id"`
	StaffID         string    `json:"staff_id" db:"staff_id"`
	Name            string    `json:"name" db:"name"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	Active          bool      `json:"active" db:"active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Duration returns the meeting length as a time.Duration.
func (m *MeetingType) Duration() time.Duration {
	return time.Duration(m.DurationMinutes) * time.Minute
}
