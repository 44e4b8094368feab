package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
	"github.com/schedulo/schedulo/internal/domain/repositories"
	"github.com/schedulo/schedulo/pkg/errors"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	// maxAvailabilityRangeDays bounds a single availability query
	maxAvailabilityRangeDays = 62
)

// DayAvailability is one local calendar day's bookable start times.
type DayAvailability struct {
	Date  string   `json:"date"`
	Times []string `json:"times"`
}

// AvailabilityService computes bookable start times from working hours,
// external busy intervals, and confirmed bookings.
type AvailabilityService struct {
	staffRepo       repositories.StaffRepository
	meetingTypeRepo repositories.MeetingTypeRepository
	bookingRepo     repositories.BookingRepository
	calendar        providers.CalendarProvider
	clock           providers.Clock
	slotStep        time.Duration
	minNotice       time.Duration
}

// NewAvailabilityService creates a new availability service
func NewAvailabilityService(
	staffRepo repositories.StaffRepository,
	meetingTypeRepo repositories.MeetingTypeRepository,
	bookingRepo repositories.BookingRepository,
	calendar providers.CalendarProvider,
	clock providers.Clock,
	slotStepMinutes int,
	minNoticeMinutes int,
) *AvailabilityService {
	if slotStepMinutes <= 0 {
		slotStepMinutes = 30
	}
	return &AvailabilityService{
		staffRepo:       staffRepo,
		meetingTypeRepo: meetingTypeRepo,
		bookingRepo:     bookingRepo,
		calendar:        calendar,
		clock:           clock,
		slotStep:        time.Duration(slotStepMinutes) * time.Minute,
		minNotice:       time.Duration(minNoticeMinutes) * time.Minute,
	}
}

// GetAvailability returns bookable start times for a staff member between two
// local dates (inclusive), grouped by day in ascending order. Either a
// meeting type id or a raw duration selects the slot length; the meeting type
// wins when both are present.
//
// A calendar gateway failure aborts the whole read. Returning slots that
// might collide with an unseen busy interval is worse than returning an
// error.
func (s *AvailabilityService) GetAvailability(ctx context.Context, staffID, meetingTypeID, fromDate, toDate string, durationMinutes int) ([]DayAvailability, error) {
	staff, err := s.staffRepo.GetByID(ctx, staffID)
	if err != nil {
		return nil, err
	}

	loc, err := staff.Location()
	if err != nil {
		return nil, errors.NewInternalError("failed to resolve staff timezone", err)
	}

	duration, err := s.resolveDuration(ctx, staff.ID, meetingTypeID, durationMinutes)
	if err != nil {
		return nil, err
	}

	from, err := time.ParseInLocation(dateLayout, fromDate, loc)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid from date: %s", fromDate))
	}
	to, err := time.ParseInLocation(dateLayout, toDate, loc)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("invalid to date: %s", toDate))
	}
	if to.Before(from) {
		return nil, errors.NewValidationError("date range is inverted")
	}
	if to.Sub(from) > maxAvailabilityRangeDays*24*time.Hour {
		return nil, errors.NewValidationError(fmt.Sprintf("date range exceeds %d days", maxAvailabilityRangeDays))
	}

	// Absolute bounds for the whole range: midnight of the first day to
	// midnight after the last day, in the staff timezone.
	rangeStart := from
	rangeEnd := to.AddDate(0, 0, 1)

	busy, err := s.calendar.ListBusyIntervals(ctx, staff, rangeStart, rangeEnd)
	if err != nil {
		log.Error().Err(err).Str("staff_id", staff.ID).Msg("calendar busy lookup failed")
		return nil, errors.NewExternalError("calendar is unavailable, please try again", err)
	}

	bookings, err := s.bookingRepo.ListConfirmedInRange(ctx, staff.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, err
	}

	blocked := make([]entities.Interval, 0, len(busy)+len(bookings))
	blocked = append(blocked, busy...)
	for _, b := range bookings {
		blocked = append(blocked, b.Interval())
	}

	notBefore := s.clock.Now().Add(s.minNotice)

	var days []DayAvailability
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		window, ok := staff.Schedule.WindowFor(day.Weekday())
		if !ok {
			continue
		}

		times := s.dayCandidates(day, loc, window, duration, blocked, notBefore)
		if len(times) == 0 {
			continue
		}

		days = append(days, DayAvailability{
			Date:  day.Format(dateLayout),
			Times: times,
		})
	}

	return days, nil
}

// dayCandidates generates candidate start times for one day as wall-clock
// times in the staff timezone and filters them against blocked intervals.
// Constructing each candidate with time.Date keeps the wall clock honest
// across daylight-saving transitions.
func (s *AvailabilityService) dayCandidates(day time.Time, loc *time.Location, window entities.DayWindow, duration time.Duration, blocked []entities.Interval, notBefore time.Time) []string {
	startMin, err := parseWallClock(window.Start)
	if err != nil {
		log.Warn().Err(err).Str("window_start", window.Start).Msg("skipping malformed working window")
		return nil
	}
	endMin, err := parseWallClock(window.End)
	if err != nil {
		log.Warn().Err(err).Str("window_end", window.End).Msg("skipping malformed working window")
		return nil
	}

	durationMin := int(duration / time.Minute)
	stepMin := int(s.slotStep / time.Minute)
	lastStart := endMin - durationMin

	var times []string
	for m := startMin; m <= lastStart; m += stepMin {
		start := time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, loc)
		candidate := entities.Interval{Start: start, End: start.Add(duration)}

		// Create rejects starts at or before now, so never emit one: every
		// returned slot must be bookable as-is.
		if !candidate.Start.After(notBefore) {
			continue
		}

		conflict := false
		for _, b := range blocked {
			if candidate.Overlaps(b) {
				conflict = true
				break
			}
		}
		if conflict {
			continue
		}

		times = append(times, start.Format(timeLayout))
	}

	return times
}

// resolveDuration picks the slot length: the meeting type when given,
// otherwise the raw duration.
func (s *AvailabilityService) resolveDuration(ctx context.Context, staffID, meetingTypeID string, durationMinutes int) (time.Duration, error) {
	if meetingTypeID != "" {
		mt, err := s.meetingTypeRepo.GetByID(ctx, meetingTypeID)
		if err != nil {
			return 0, err
		}
		if mt.StaffID != staffID {
			return 0, errors.NewNotFoundError("meeting type not found for this staff member")
		}
		if !mt.Active {
			return 0, errors.NewNotFoundError("meeting type is no longer offered")
		}
		return mt.Duration(), nil
	}

	if durationMinutes <= 0 {
		return 0, errors.NewValidationError("duration must be positive")
	}
	return time.Duration(durationMinutes) * time.Minute, nil
}

// parseWallClock parses "15:04" into minutes since midnight.
func parseWallClock(v string) (int, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return 0, fmt.Errorf("invalid wall-clock time %q: %w", v, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
