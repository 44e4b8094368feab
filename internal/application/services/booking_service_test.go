package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/schedulo/schedulo/internal/application/services"
	"github.com/schedulo/schedulo/internal/domain/entities"
	apperrors "github.com/schedulo/schedulo/pkg/errors"
)

type bookingFixture struct {
	staffRepo       *MockStaffRepository
	meetingTypeRepo *MockMeetingTypeRepository
	bookingRepo     *MockBookingRepository
	calendar        *MockCalendarProvider
	notifier        *MockNotifier
	service         *services.BookingService
}

func newBookingFixture(clock fixedClock) *bookingFixture {
	f := &bookingFixture{
		staffRepo:       new(MockStaffRepository),
		meetingTypeRepo: new(MockMeetingTypeRepository),
		bookingRepo:     new(MockBookingRepository),
		calendar:        new(MockCalendarProvider),
		notifier:        new(MockNotifier),
	}
	f.service = services.NewBookingService(
		f.staffRepo,
		f.meetingTypeRepo,
		f.bookingRepo,
		services.NewTokenService(f.bookingRepo),
		f.calendar,
		f.notifier,
		nil,
		clock,
		nil,
	)
	return f
}

func validCreateRequest() *services.CreateBookingRequest {
	return &services.CreateBookingRequest{
		StaffID:       "staff-1",
		MeetingTypeID: "mt-1",
		Date:          "2025-06-02",
		Time:          "10:00",
		Booker: services.BookerInfo{
			FirstName: "Dana",
			LastName:  "Okafor",
			Email:     "dana@example.com",
		},
	}
}

func fixtureMeetingType() *entities.MeetingType {
	return &entities.MeetingType{
		ID:              "mt-1",
		StaffID:         "staff-1",
		Name:            "Consultation",
		DurationMinutes: 30,
		Active:          true,
	}
}

func TestBookingService_Create(t *testing.T) {
	clock := fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	t.Run("creates booking with calendar event and notifications", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()

		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		f.bookingRepo.On("CreateIfSlotFree", mock.Anything, mock.MatchedBy(func(b *entities.Booking) bool {
			return b.Status == entities.BookingStatusConfirmed &&
				b.StartTime.Equal(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)) &&
				b.EndTime.Equal(time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC)) &&
				b.DurationMinutes == 30 &&
				b.AccessToken != ""
		})).Return(nil)
		f.calendar.On("CreateEvent", mock.Anything, staff, mock.Anything, mock.Anything).Return("ev-1", "https://meet.example.com/ev-1", nil)
		f.bookingRepo.On("UpdateCalendarRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("SendBookingConfirmation", mock.Anything, mock.Anything, staff, mock.Anything).Return(nil)

		result, err := f.service.Create(context.Background(), validCreateRequest())

		assert.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.Empty(t, result.Warnings)
		assert.Equal(t, "ev-1", *result.Booking.CalendarEventID)
		assert.Equal(t, "https://meet.example.com/ev-1", *result.Booking.MeetingLink)
		f.bookingRepo.AssertExpectations(t)
		f.calendar.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("slot conflict surfaces as conflict error", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()

		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		f.bookingRepo.On("CreateIfSlotFree", mock.Anything, mock.Anything).Return(apperrors.NewConflictError("slot is no longer available"))

		result, err := f.service.Create(context.Background(), validCreateRequest())

		assert.Nil(t, result)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		f.calendar.AssertNotCalled(t, "CreateEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("calendar failure degrades instead of failing the booking", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()

		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		f.bookingRepo.On("CreateIfSlotFree", mock.Anything, mock.Anything).Return(nil)
		f.calendar.On("CreateEvent", mock.Anything, staff, mock.Anything, mock.Anything).Return("", "", errors.New("calendar down"))
		f.notifier.On("SendBookingConfirmation", mock.Anything, mock.Anything, staff, mock.Anything).Return(nil)

		result, err := f.service.Create(context.Background(), validCreateRequest())

		assert.NoError(t, err)
		assert.Contains(t, result.Warnings, "calendar sync failed")
		assert.Nil(t, result.Booking.CalendarEventID)
		f.bookingRepo.AssertNotCalled(t, "UpdateCalendarRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("notification failure degrades instead of failing the booking", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()

		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		f.bookingRepo.On("CreateIfSlotFree", mock.Anything, mock.Anything).Return(nil)
		f.calendar.On("CreateEvent", mock.Anything, staff, mock.Anything, mock.Anything).Return("ev-1", "", nil)
		f.bookingRepo.On("UpdateCalendarRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("SendBookingConfirmation", mock.Anything, mock.Anything, staff, mock.Anything).Return(errors.New("mail api down"))

		result, err := f.service.Create(context.Background(), validCreateRequest())

		assert.NoError(t, err)
		assert.Contains(t, result.Warnings, "notification failed")
	})

	t.Run("rejects malformed input before any repository call", func(t *testing.T) {
		f := newBookingFixture(clock)

		req := validCreateRequest()
		req.Booker.Email = "not-an-email"

		result, err := f.service.Create(context.Background(), req)

		assert.Nil(t, result)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		f.staffRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.bookingRepo.AssertNotCalled(t, "CreateIfSlotFree", mock.Anything, mock.Anything)
	})

	t.Run("rejects start times in the past", func(t *testing.T) {
		f := newBookingFixture(fixedClock{now: time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)})
		staff := utcStaff()

		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)

		result, err := f.service.Create(context.Background(), validCreateRequest())

		assert.Nil(t, result)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("earliest offered slot is always bookable", func(t *testing.T) {
		midDay := fixedClock{now: time.Date(2025, 6, 2, 12, 10, 0, 0, time.UTC)}
		f := newBookingFixture(midDay)
		staff := utcStaff()

		availability := services.NewAvailabilityService(
			f.staffRepo, f.meetingTypeRepo, f.bookingRepo, f.calendar, midDay, 30, 0)

		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		f.calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return([]entities.Interval{}, nil)
		f.bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{}, nil)
		f.bookingRepo.On("CreateIfSlotFree", mock.Anything, mock.Anything).Return(nil)
		f.calendar.On("CreateEvent", mock.Anything, staff, mock.Anything, mock.Anything).Return("ev-1", "", nil)
		f.bookingRepo.On("UpdateCalendarRef", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.notifier.On("SendBookingConfirmation", mock.Anything, mock.Anything, staff, mock.Anything).Return(nil)

		days, err := availability.GetAvailability(context.Background(), "staff-1", "mt-1", "2025-06-02", "2025-06-02", 0)
		require.NoError(t, err)
		require.NotEmpty(t, days)
		require.NotEmpty(t, days[0].Times)

		req := validCreateRequest()
		req.Date = days[0].Date
		req.Time = days[0].Times[0]

		result, err := f.service.Create(context.Background(), req)

		assert.NoError(t, err)
		assert.NotNil(t, result)
	})

	t.Run("rejects inactive meeting type", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()

		inactive := fixtureMeetingType()
		inactive.Active = false

		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(inactive, nil)

		_, err := f.service.Create(context.Background(), validCreateRequest())

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestBookingService_Reschedule(t *testing.T) {
	clock := fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	confirmedBooking := func() *entities.Booking {
		eventID := "ev-1"
		return &entities.Booking{
			ID:              "bk-1",
			StaffID:         "staff-1",
			MeetingTypeID:   "mt-1",
			FirstName:       "Dana",
			Email:           "dana@example.com",
			StartTime:       time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
			EndTime:         time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC),
			DurationMinutes: 30,
			Status:          entities.BookingStatusConfirmed,
			CalendarEventID: &eventID,
			AccessToken:     "old-token",
		}
	}

	t.Run("moves booking and rotates the token", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()
		booking := confirmedBooking()

		f.bookingRepo.On("GetByToken", mock.Anything, "old-token").Return(booking, nil)
		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)

		newStart := time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC)
		newEnd := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC)
		f.bookingRepo.On("RescheduleIfSlotFree", mock.Anything, "bk-1", newStart, newEnd, mock.MatchedBy(func(token string) bool {
			return token != "" && token != "old-token"
		})).Return(nil)
		f.calendar.On("UpdateEventTime", mock.Anything, staff, "ev-1", mock.Anything).Return(nil)
		f.notifier.On("SendRescheduleNotice", mock.Anything, mock.Anything, staff, mock.Anything,
			time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)).Return(nil)

		result, err := f.service.Reschedule(context.Background(), "old-token", "2025-06-03", "14:00")

		assert.NoError(t, err)
		assert.NotEqual(t, "old-token", result.AccessToken)
		assert.True(t, result.Booking.StartTime.Equal(newStart))
		assert.False(t, result.Booking.ReminderSent)
		f.bookingRepo.AssertExpectations(t)
		f.calendar.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("cancelled booking cannot be rescheduled", func(t *testing.T) {
		f := newBookingFixture(clock)
		booking := confirmedBooking()
		booking.Status = entities.BookingStatusCancelled

		f.bookingRepo.On("GetByToken", mock.Anything, "old-token").Return(booking, nil)

		result, err := f.service.Reschedule(context.Background(), "old-token", "2025-06-03", "14:00")

		assert.Nil(t, result)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		f.bookingRepo.AssertNotCalled(t, "RescheduleIfSlotFree", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown token is unauthorized", func(t *testing.T) {
		f := newBookingFixture(clock)

		f.bookingRepo.On("GetByToken", mock.Anything, "bogus").Return(nil, apperrors.NewNotFoundError("booking not found"))

		_, err := f.service.Reschedule(context.Background(), "bogus", "2025-06-03", "14:00")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeUnauthorized))
	})

	t.Run("conflicting target slot keeps the old token valid", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()
		booking := confirmedBooking()

		f.bookingRepo.On("GetByToken", mock.Anything, "old-token").Return(booking, nil)
		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.bookingRepo.On("RescheduleIfSlotFree", mock.Anything, "bk-1", mock.Anything, mock.Anything, mock.Anything).
			Return(apperrors.NewConflictError("slot is no longer available"))

		result, err := f.service.Reschedule(context.Background(), "old-token", "2025-06-03", "14:00")

		assert.Nil(t, result)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeConflict))
		f.calendar.AssertNotCalled(t, "UpdateEventTime", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBookingService_Cancel(t *testing.T) {
	clock := fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	t.Run("cancels booking with calendar cleanup and notices", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()
		eventID := "ev-1"
		booking := &entities.Booking{
			ID:              "bk-1",
			StaffID:         "staff-1",
			MeetingTypeID:   "mt-1",
			Status:          entities.BookingStatusConfirmed,
			CalendarEventID: &eventID,
			AccessToken:     "tok",
		}

		f.bookingRepo.On("GetByToken", mock.Anything, "tok").Return(booking, nil)
		f.bookingRepo.On("Cancel", mock.Anything, "bk-1").Return(nil)
		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		f.calendar.On("DeleteEvent", mock.Anything, staff, "ev-1").Return(nil)
		f.notifier.On("SendCancellationNotice", mock.Anything, booking, staff, mock.Anything).Return(nil)

		result, err := f.service.Cancel(context.Background(), "tok")

		assert.NoError(t, err)
		assert.False(t, result.AlreadyCancelled)
		assert.Empty(t, result.Warnings)
		f.bookingRepo.AssertExpectations(t)
		f.calendar.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
	})

	t.Run("cancel is idempotent with no side effects", func(t *testing.T) {
		f := newBookingFixture(clock)
		booking := &entities.Booking{
			ID:          "bk-1",
			StaffID:     "staff-1",
			Status:      entities.BookingStatusCancelled,
			AccessToken: "tok",
		}

		f.bookingRepo.On("GetByToken", mock.Anything, "tok").Return(booking, nil)

		result, err := f.service.Cancel(context.Background(), "tok")

		assert.NoError(t, err)
		assert.True(t, result.AlreadyCancelled)
		f.bookingRepo.AssertNotCalled(t, "Cancel", mock.Anything, mock.Anything)
		f.calendar.AssertNotCalled(t, "DeleteEvent", mock.Anything, mock.Anything, mock.Anything)
		f.notifier.AssertNotCalled(t, "SendCancellationNotice", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("calendar delete failure is absorbed as warning", func(t *testing.T) {
		f := newBookingFixture(clock)
		staff := utcStaff()
		eventID := "ev-1"
		booking := &entities.Booking{
			ID:              "bk-1",
			StaffID:         "staff-1",
			MeetingTypeID:   "mt-1",
			Status:          entities.BookingStatusConfirmed,
			CalendarEventID: &eventID,
			AccessToken:     "tok",
		}

		f.bookingRepo.On("GetByToken", mock.Anything, "tok").Return(booking, nil)
		f.bookingRepo.On("Cancel", mock.Anything, "bk-1").Return(nil)
		f.staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		f.meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		f.calendar.On("DeleteEvent", mock.Anything, staff, "ev-1").Return(errors.New("gone wrong"))
		f.notifier.On("SendCancellationNotice", mock.Anything, booking, staff, mock.Anything).Return(nil)

		result, err := f.service.Cancel(context.Background(), "tok")

		assert.NoError(t, err)
		assert.Contains(t, result.Warnings, "calendar sync failed")
	})
}
