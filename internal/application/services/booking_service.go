package services

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
	"github.com/schedulo/schedulo/internal/domain/repositories"
	"github.com/schedulo/schedulo/internal/infrastructure/observability"
	"github.com/schedulo/schedulo/pkg/errors"
)

// bestEffortTimeout bounds the calendar and notification side effects that
// run after the durable write. The write path never waits on them longer
// than this.
const bestEffortTimeout = 10 * time.Second

// BookingNotifier is the notification boundary the lifecycle depends on.
type BookingNotifier interface {
	SendBookingConfirmation(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error
	SendRescheduleNotice(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType, previousStart time.Time) error
	SendCancellationNotice(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error
}

// BookerInfo is the visitor's contact details on a create request.
type BookerInfo struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// CreateBookingRequest carries everything needed to create a booking. The
// end time is always re-derived from the meeting type's duration; clients
// never supply one.
type CreateBookingRequest struct {
	StaffID       string     `json:"staff_id"`
	MeetingTypeID string     `json:"meeting_type_id"`
	Date          string     `json:"date"` // "2006-01-02" in the staff timezone
	Time          string     `json:"time"` // "15:04" in the staff timezone
	Booker        BookerInfo `json:"booker"`
}

// BookingResult is the outcome of a successful create or reschedule.
// Warnings carry the best-effort failures (calendar sync, notifications)
// that were absorbed; the booking itself is durable regardless.
type BookingResult struct {
	Booking     *entities.Booking
	AccessToken string
	Warnings    []string
}

// CancelResult reports a cancel outcome. AlreadyCancelled means the booking
// was cancelled before this call and no side effects ran.
type CancelResult struct {
	AlreadyCancelled bool
	Warnings         []string
}

// BookingService drives the booking lifecycle: create, reschedule, cancel.
//
// The durable write is the authoritative step of every mutation. Calendar
// sync, notifications, and event publishing run after it and are allowed to
// fail; their errors are logged and reported as warnings, never as operation
// failure.
type BookingService struct {
	staffRepo       repositories.StaffRepository
	meetingTypeRepo repositories.MeetingTypeRepository
	bookingRepo     repositories.BookingRepository
	tokens          *TokenService
	calendar        providers.CalendarProvider
	notifier        BookingNotifier
	eventBus        providers.EventBus
	clock           providers.Clock
	metrics         *observability.Metrics
}

// NewBookingService creates a new booking service. The notifier, event bus,
// and metrics may be nil; the corresponding side effects are skipped.
func NewBookingService(
	staffRepo repositories.StaffRepository,
	meetingTypeRepo repositories.MeetingTypeRepository,
	bookingRepo repositories.BookingRepository,
	tokens *TokenService,
	calendar providers.CalendarProvider,
	notifier BookingNotifier,
	eventBus providers.EventBus,
	clock providers.Clock,
	metrics *observability.Metrics,
) *BookingService {
	return &BookingService{
		staffRepo:       staffRepo,
		meetingTypeRepo: meetingTypeRepo,
		bookingRepo:     bookingRepo,
		tokens:          tokens,
		calendar:        calendar,
		notifier:        notifier,
		eventBus:        eventBus,
		clock:           clock,
		metrics:         metrics,
	}
}

// Create books a slot. The overlap check and the insert run as one atomic
// operation in the repository; a lost race surfaces as a Conflict error and
// the caller re-fetches availability.
func (s *BookingService) Create(ctx context.Context, req *CreateBookingRequest) (*BookingResult, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	staff, err := s.staffRepo.GetByID(ctx, req.StaffID)
	if err != nil {
		return nil, err
	}

	meetingType, err := s.meetingTypeRepo.GetByID(ctx, req.MeetingTypeID)
	if err != nil {
		return nil, err
	}
	if meetingType.StaffID != staff.ID {
		return nil, errors.NewNotFoundError("meeting type not found for this staff member")
	}
	if !meetingType.Active {
		return nil, errors.NewNotFoundError("meeting type is no longer offered")
	}

	start, err := s.parseLocalStart(staff, req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !start.After(now) {
		return nil, errors.NewValidationError("start time is in the past")
	}

	token, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}

	booking := &entities.Booking{
		ID:              uuid.New().String(),
		StaffID:         staff.ID,
		MeetingTypeID:   meetingType.ID,
		FirstName:       req.Booker.FirstName,
		LastName:        req.Booker.LastName,
		Email:           req.Booker.Email,
		Phone:           req.Booker.Phone,
		Notes:           req.Booker.Notes,
		StartTime:       start,
		EndTime:         start.Add(meetingType.Duration()),
		DurationMinutes: meetingType.DurationMinutes,
		Status:          entities.BookingStatusConfirmed,
		AccessToken:     token,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.bookingRepo.CreateIfSlotFree(ctx, booking); err != nil {
		if errors.IsType(err, errors.ErrorTypeConflict) {
			observability.RecordBookingConflict(ctx, s.metrics, staff.ID)
		}
		observability.RecordBookingMetric(ctx, s.metrics, "create", false)
		return nil, err
	}

	result := &BookingResult{Booking: booking, AccessToken: token}

	// The booking is durable from here on. Everything below is best-effort.
	s.syncCalendarCreate(ctx, booking, staff, result)
	s.notify(ctx, result, func(ctx context.Context) error {
		return s.notifier.SendBookingConfirmation(ctx, booking, staff, meetingType)
	})
	s.publishEvent(ctx, entities.BookingEventCreated, booking, nil)

	observability.RecordBookingMetric(ctx, s.metrics, "create", true)
	return result, nil
}

// Reschedule moves a booking to a new slot. The booking's captured duration
// is reused; the access token is rotated, invalidating the old one.
func (s *BookingService) Reschedule(ctx context.Context, token, newDate, newTime string) (*BookingResult, error) {
	if newDate == "" || newTime == "" {
		return nil, errors.NewValidationError("new date and time are required")
	}

	booking, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	if booking.Status == entities.BookingStatusCancelled {
		return nil, errors.NewValidationError("cannot reschedule a cancelled booking")
	}

	staff, err := s.staffRepo.GetByID(ctx, booking.StaffID)
	if err != nil {
		return nil, err
	}

	start, err := s.parseLocalStart(staff, newDate, newTime)
	if err != nil {
		return nil, err
	}
	if !start.After(s.clock.Now()) {
		return nil, errors.NewValidationError("start time is in the past")
	}

	end := start.Add(time.Duration(booking.DurationMinutes) * time.Minute)
	previousStart := booking.StartTime

	newToken, err := s.tokens.Issue()
	if err != nil {
		return nil, err
	}

	if err := s.bookingRepo.RescheduleIfSlotFree(ctx, booking.ID, start, end, newToken); err != nil {
		if errors.IsType(err, errors.ErrorTypeConflict) {
			observability.RecordBookingConflict(ctx, s.metrics, booking.StaffID)
		}
		observability.RecordBookingMetric(ctx, s.metrics, "reschedule", false)
		return nil, err
	}

	booking.StartTime = start
	booking.EndTime = end
	booking.AccessToken = newToken
	booking.ReminderSent = false
	booking.UpdatedAt = s.clock.Now()

	result := &BookingResult{Booking: booking, AccessToken: newToken}

	s.syncCalendarUpdate(ctx, booking, staff, result)
	meetingType := s.lookupMeetingType(ctx, booking.MeetingTypeID)
	s.notify(ctx, result, func(ctx context.Context) error {
		return s.notifier.SendRescheduleNotice(ctx, booking, staff, meetingType, previousStart)
	})
	s.publishEvent(ctx, entities.BookingEventRescheduled, booking, &previousStart)

	observability.RecordBookingMetric(ctx, s.metrics, "reschedule", true)
	return result, nil
}

// Cancel cancels a booking. Cancelling an already-cancelled booking succeeds
// with AlreadyCancelled set and runs no side effects.
func (s *BookingService) Cancel(ctx context.Context, token string) (*CancelResult, error) {
	booking, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}

	if booking.Status == entities.BookingStatusCancelled {
		return &CancelResult{AlreadyCancelled: true}, nil
	}

	if err := s.bookingRepo.Cancel(ctx, booking.ID); err != nil {
		observability.RecordBookingMetric(ctx, s.metrics, "cancel", false)
		return nil, err
	}
	booking.Status = entities.BookingStatusCancelled

	result := &CancelResult{}

	staff, err := s.staffRepo.GetByID(ctx, booking.StaffID)
	if err != nil {
		log.Error().Err(err).Str("booking_id", booking.ID).Msg("staff lookup failed after cancel, skipping side effects")
		result.Warnings = append(result.Warnings, "cleanup incomplete")
		observability.RecordBookingMetric(ctx, s.metrics, "cancel", true)
		return result, nil
	}

	if booking.CalendarEventID != nil && *booking.CalendarEventID != "" {
		bctx, cancel := bestEffortContext(ctx)
		defer cancel()
		if err := s.calendar.DeleteEvent(bctx, staff, *booking.CalendarEventID); err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("calendar event delete failed")
			observability.RecordCalendarSyncFailure(ctx, s.metrics, "delete")
			result.Warnings = append(result.Warnings, "calendar sync failed")
		}
	}

	meetingType := s.lookupMeetingType(ctx, booking.MeetingTypeID)
	if s.notifier != nil {
		bctx, cancel := bestEffortContext(ctx)
		defer cancel()
		if err := s.notifier.SendCancellationNotice(bctx, booking, staff, meetingType); err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("cancellation notification failed")
			result.Warnings = append(result.Warnings, "notification failed")
		}
	}
	s.publishEvent(ctx, entities.BookingEventCancelled, booking, nil)

	observability.RecordBookingMetric(ctx, s.metrics, "cancel", true)
	return result, nil
}

// GetByToken returns the booking a token resolves to, for the manage page.
func (s *BookingService) GetByToken(ctx context.Context, token string) (*entities.Booking, error) {
	return s.tokens.Resolve(ctx, token)
}

func (s *BookingService) syncCalendarCreate(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, result *BookingResult) {
	bctx, cancel := bestEffortContext(ctx)
	defer cancel()

	eventID, meetingLink, err := s.calendar.CreateEvent(bctx, staff, booking.Interval(), providers.EventInvitee{
		Name:  booking.BookerName(),
		Email: booking.Email,
	})
	if err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("calendar event create failed, booking kept")
		observability.RecordCalendarSyncFailure(ctx, s.metrics, "create")
		result.Warnings = append(result.Warnings, "calendar sync failed")
		return
	}

	var eventRef, link *string
	if eventID != "" {
		eventRef = &eventID
		booking.CalendarEventID = eventRef
	}
	if meetingLink != "" {
		link = &meetingLink
		booking.MeetingLink = link
	}
	if eventRef == nil && link == nil {
		return
	}

	if err := s.bookingRepo.UpdateCalendarRef(ctx, booking.ID, eventRef, link); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to store calendar event reference")
		result.Warnings = append(result.Warnings, "calendar sync failed")
	}
}

func (s *BookingService) syncCalendarUpdate(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, result *BookingResult) {
	if booking.CalendarEventID == nil || *booking.CalendarEventID == "" {
		return
	}

	bctx, cancel := bestEffortContext(ctx)
	defer cancel()

	if err := s.calendar.UpdateEventTime(bctx, staff, *booking.CalendarEventID, booking.Interval()); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("calendar event update failed")
		observability.RecordCalendarSyncFailure(ctx, s.metrics, "update")
		result.Warnings = append(result.Warnings, "calendar sync failed")
	}
}

func (s *BookingService) notify(ctx context.Context, result *BookingResult, fn func(context.Context) error) {
	if s.notifier == nil {
		return
	}

	bctx, cancel := bestEffortContext(ctx)
	defer cancel()

	if err := fn(bctx); err != nil {
		log.Warn().Err(err).Str("booking_id", result.Booking.ID).Msg("notification dispatch failed")
		result.Warnings = append(result.Warnings, "notification failed")
	}
}

func (s *BookingService) publishEvent(ctx context.Context, eventType entities.BookingEventType, booking *entities.Booking, previousStart *time.Time) {
	if s.eventBus == nil {
		return
	}

	event := &entities.BookingEvent{
		ID:            uuid.New().String(),
		Type:          eventType,
		BookingID:     booking.ID,
		StaffID:       booking.StaffID,
		StartTime:     booking.StartTime,
		EndTime:       booking.EndTime,
		PreviousStart: previousStart,
		OccurredAt:    s.clock.Now(),
	}

	bctx, cancel := bestEffortContext(ctx)
	defer cancel()

	if err := s.eventBus.Publish(bctx, providers.EventChannelBookingUpdates, event); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to publish booking event")
		return
	}
	if err := s.eventBus.Publish(bctx, providers.GetStaffChannel(booking.StaffID), event); err != nil {
		log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to publish staff booking event")
	}
}

// lookupMeetingType fetches the meeting type for notification rendering.
// Missing is fine; the notifier falls back to a generic name.
func (s *BookingService) lookupMeetingType(ctx context.Context, id string) *entities.MeetingType {
	mt, err := s.meetingTypeRepo.GetByID(ctx, id)
	if err != nil {
		log.Debug().Err(err).Str("meeting_type_id", id).Msg("meeting type lookup failed for notification")
		return nil
	}
	return mt
}

func (s *BookingService) parseLocalStart(staff *entities.StaffMember, date, clock string) (time.Time, error) {
	loc, err := staff.Location()
	if err != nil {
		return time.Time{}, errors.NewInternalError("failed to resolve staff timezone", err)
	}

	start, err := time.ParseInLocation(dateLayout+" "+timeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, errors.NewValidationError("invalid date or time")
	}
	return start, nil
}

// bestEffortContext detaches from the caller's cancellation but keeps a
// bound, so a slow provider cannot hold the request open.
func bestEffortContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), bestEffortTimeout)
}

func validateCreateRequest(req *CreateBookingRequest) error {
	switch {
	case req == nil:
		return errors.NewValidationError("request body is required")
	case req.StaffID == "":
		return errors.NewValidationError("staff_id is required")
	case req.MeetingTypeID == "":
		return errors.NewValidationError("meeting_type_id is required")
	case req.Date == "":
		return errors.NewValidationError("date is required")
	case req.Time == "":
		return errors.NewValidationError("time is required")
	case req.Booker.FirstName == "":
		return errors.NewValidationError("booker first name is required")
	case req.Booker.Email == "":
		return errors.NewValidationError("booker email is required")
	}

	if _, err := mail.ParseAddress(req.Booker.Email); err != nil {
		return errors.NewValidationError("booker email is invalid")
	}
	return nil
}
