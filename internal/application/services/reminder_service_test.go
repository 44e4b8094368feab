package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/schedulo/schedulo/internal/application/services"
	"github.com/schedulo/schedulo/internal/domain/entities"
)

func TestReminderService_ProcessDue(t *testing.T) {
	now := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	clock := fixedClock{now: now}

	dueBooking := func(id string) *entities.Booking {
		return &entities.Booking{
			ID:            id,
			StaffID:       "staff-1",
			MeetingTypeID: "mt-1",
			StartTime:     now.Add(3 * time.Hour),
			Status:        entities.BookingStatusConfirmed,
		}
	}

	t.Run("sends reminders and marks them sent", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		staffRepo := new(MockStaffRepository)
		meetingTypeRepo := new(MockMeetingTypeRepository)
		notifier := new(MockNotifier)
		service := services.NewReminderService(bookingRepo, staffRepo, meetingTypeRepo, notifier, clock, 24)

		staff := utcStaff()
		due := []*entities.Booking{dueBooking("bk-1"), dueBooking("bk-2")}

		bookingRepo.On("ListDueReminders", mock.Anything, now, now.Add(24*time.Hour)).Return(due, nil)
		staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		notifier.On("SendReminder", mock.Anything, mock.Anything, staff, mock.Anything).Return(nil)
		bookingRepo.On("MarkReminderSent", mock.Anything, "bk-1").Return(nil)
		bookingRepo.On("MarkReminderSent", mock.Anything, "bk-2").Return(nil)

		sent, err := service.ProcessDue(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 2, sent)
		bookingRepo.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("failed dispatch is not marked sent", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		staffRepo := new(MockStaffRepository)
		meetingTypeRepo := new(MockMeetingTypeRepository)
		notifier := new(MockNotifier)
		service := services.NewReminderService(bookingRepo, staffRepo, meetingTypeRepo, notifier, clock, 24)

		staff := utcStaff()
		due := []*entities.Booking{dueBooking("bk-1")}

		bookingRepo.On("ListDueReminders", mock.Anything, now, now.Add(24*time.Hour)).Return(due, nil)
		staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(fixtureMeetingType(), nil)
		notifier.On("SendReminder", mock.Anything, mock.Anything, staff, mock.Anything).Return(errors.New("mail api down"))

		sent, err := service.ProcessDue(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 0, sent)
		bookingRepo.AssertNotCalled(t, "MarkReminderSent", mock.Anything, mock.Anything)
	})

	t.Run("missing meeting type does not block the reminder", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		staffRepo := new(MockStaffRepository)
		meetingTypeRepo := new(MockMeetingTypeRepository)
		notifier := new(MockNotifier)
		service := services.NewReminderService(bookingRepo, staffRepo, meetingTypeRepo, notifier, clock, 24)

		staff := utcStaff()
		due := []*entities.Booking{dueBooking("bk-1")}

		bookingRepo.On("ListDueReminders", mock.Anything, now, now.Add(24*time.Hour)).Return(due, nil)
		staffRepo.On("GetByID", mock.Anything, "staff-1").Return(staff, nil)
		meetingTypeRepo.On("GetByID", mock.Anything, "mt-1").Return(nil, errors.New("gone"))
		notifier.On("SendReminder", mock.Anything, mock.Anything, staff, (*entities.MeetingType)(nil)).Return(nil)
		bookingRepo.On("MarkReminderSent", mock.Anything, "bk-1").Return(nil)

		sent, err := service.ProcessDue(context.Background())

		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
		notifier.AssertExpectations(t)
	})

	t.Run("listing failure aborts the pass", func(t *testing.T) {
		bookingRepo := new(MockBookingRepository)
		service := services.NewReminderService(bookingRepo, new(MockStaffRepository), new(MockMeetingTypeRepository), new(MockNotifier), clock, 24)

		bookingRepo.On("ListDueReminders", mock.Anything, now, now.Add(24*time.Hour)).Return(nil, errors.New("db down"))

		sent, err := service.ProcessDue(context.Background())

		assert.Error(t, err)
		assert.Zero(t, sent)
	})
}
