package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
	"github.com/schedulo/schedulo/internal/domain/repositories"
)

// ReminderNotifier is the slice of the notification boundary the reminder
// loop needs.
type ReminderNotifier interface {
	SendReminder(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error
}

// ReminderService finds confirmed bookings that start within the reminder
// window and dispatches one reminder per booking. The sent flag is only set
// after a successful dispatch, so a failed send is retried on the next tick.
type ReminderService struct {
	bookingRepo     repositories.BookingRepository
	staffRepo       repositories.StaffRepository
	meetingTypeRepo repositories.MeetingTypeRepository
	notifier        ReminderNotifier
	clock           providers.Clock
	lead            time.Duration
}

// NewReminderService creates a new reminder service
func NewReminderService(
	bookingRepo repositories.BookingRepository,
	staffRepo repositories.StaffRepository,
	meetingTypeRepo repositories.MeetingTypeRepository,
	notifier ReminderNotifier,
	clock providers.Clock,
	leadHours int,
) *ReminderService {
	if leadHours <= 0 {
		leadHours = 24
	}
	return &ReminderService{
		bookingRepo:     bookingRepo,
		staffRepo:       staffRepo,
		meetingTypeRepo: meetingTypeRepo,
		notifier:        notifier,
		clock:           clock,
		lead:            time.Duration(leadHours) * time.Hour,
	}
}

// ProcessDue dispatches reminders for all bookings due in the window and
// returns how many were sent.
func (s *ReminderService) ProcessDue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	due, err := s.bookingRepo.ListDueReminders(ctx, now, now.Add(s.lead))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, booking := range due {
		if err := s.remind(ctx, booking); err != nil {
			log.Warn().Err(err).Str("booking_id", booking.ID).Msg("reminder dispatch failed")
			continue
		}
		sent++
	}

	if len(due) > 0 {
		log.Info().Int("due", len(due)).Int("sent", sent).Msg("processed due reminders")
	}
	return sent, nil
}

func (s *ReminderService) remind(ctx context.Context, booking *entities.Booking) error {
	staff, err := s.staffRepo.GetByID(ctx, booking.StaffID)
	if err != nil {
		return err
	}

	var meetingType *entities.MeetingType
	if mt, err := s.meetingTypeRepo.GetByID(ctx, booking.MeetingTypeID); err == nil {
		meetingType = mt
	}

	if err := s.notifier.SendReminder(ctx, booking, staff, meetingType); err != nil {
		return err
	}

	return s.bookingRepo.MarkReminderSent(ctx, booking.ID)
}
