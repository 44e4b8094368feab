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
	apperrors "github.com/schedulo/schedulo/pkg/errors"
)

func weekdaySchedule(start, end string) entities.WorkingSchedule {
	return entities.WorkingSchedule{
		time.Monday:    {Enabled: true, Start: start, End: end},
		time.Tuesday:   {Enabled: true, Start: start, End: end},
		time.Wednesday: {Enabled: true, Start: start, End: end},
		time.Thursday:  {Enabled: true, Start: start, End: end},
		time.Friday:    {Enabled: true, Start: start, End: end},
	}
}

func utcStaff() *entities.StaffMember {
	return &entities.StaffMember{
		ID:       "staff-1",
		Name:     "Amina Bello",
		Email:    "amina@example.com",
		Timezone: "UTC",
		Schedule: weekdaySchedule("09:00", "17:00"),
	}
}

func newAvailabilityFixture(t *testing.T, staff *entities.StaffMember, clock fixedClock) (*services.AvailabilityService, *MockBookingRepository, *MockCalendarProvider) {
	t.Helper()

	staffRepo := new(MockStaffRepository)
	meetingTypeRepo := new(MockMeetingTypeRepository)
	bookingRepo := new(MockBookingRepository)
	calendar := new(MockCalendarProvider)

	staffRepo.On("GetByID", mock.Anything, staff.ID).Return(staff, nil)

	service := services.NewAvailabilityService(staffRepo, meetingTypeRepo, bookingRepo, calendar, clock, 30, 0)
	return service, bookingRepo, calendar
}

func TestAvailabilityService_GetAvailability(t *testing.T) {
	// 2025-06-02 is a Monday.
	clock := fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	t.Run("free monday yields sixteen half-hour slots", func(t *testing.T) {
		staff := utcStaff()
		service, bookingRepo, calendar := newAvailabilityFixture(t, staff, clock)

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return([]entities.Interval{}, nil)
		bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{}, nil)

		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-02", "2025-06-02", 30)

		assert.NoError(t, err)
		assert.Len(t, days, 1)
		assert.Equal(t, "2025-06-02", days[0].Date)
		assert.Len(t, days[0].Times, 16)
		assert.Equal(t, "09:00", days[0].Times[0])
		assert.Equal(t, "16:30", days[0].Times[15])
	})

	t.Run("confirmed booking removes its slot", func(t *testing.T) {
		staff := utcStaff()
		service, bookingRepo, calendar := newAvailabilityFixture(t, staff, clock)

		booked := &entities.Booking{
			StartTime: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC),
		}

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return([]entities.Interval{}, nil)
		bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{booked}, nil)

		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-02", "2025-06-02", 30)

		assert.NoError(t, err)
		assert.Len(t, days[0].Times, 15)
		assert.NotContains(t, days[0].Times, "10:00")
	})

	t.Run("busy interval removes every overlapping candidate", func(t *testing.T) {
		staff := utcStaff()
		service, bookingRepo, calendar := newAvailabilityFixture(t, staff, clock)

		// 10:15-11:15 knocks out 10:00, 10:30, and 11:00.
		busy := []entities.Interval{{
			Start: time.Date(2025, 6, 2, 10, 15, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 2, 11, 15, 0, 0, time.UTC),
		}}

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return(busy, nil)
		bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{}, nil)

		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-02", "2025-06-02", 30)

		assert.NoError(t, err)
		assert.Len(t, days[0].Times, 13)
		assert.NotContains(t, days[0].Times, "10:00")
		assert.NotContains(t, days[0].Times, "10:30")
		assert.NotContains(t, days[0].Times, "11:00")
		assert.Contains(t, days[0].Times, "09:30")
		assert.Contains(t, days[0].Times, "11:30")
	})

	t.Run("adjacent busy interval does not block touching slots", func(t *testing.T) {
		staff := utcStaff()
		service, bookingRepo, calendar := newAvailabilityFixture(t, staff, clock)

		busy := []entities.Interval{{
			Start: time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 6, 2, 10, 30, 0, 0, time.UTC),
		}}

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return(busy, nil)
		bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{}, nil)

		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-02", "2025-06-02", 30)

		assert.NoError(t, err)
		assert.Contains(t, days[0].Times, "09:30")
		assert.Contains(t, days[0].Times, "10:30")
		assert.NotContains(t, days[0].Times, "10:00")
	})

	t.Run("calendar failure aborts the read", func(t *testing.T) {
		staff := utcStaff()
		service, _, calendar := newAvailabilityFixture(t, staff, clock)

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return(nil, errors.New("upstream down"))

		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-02", "2025-06-02", 30)

		assert.Nil(t, days)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeExternal))
	})

	t.Run("disabled weekday yields no slots", func(t *testing.T) {
		staff := utcStaff()
		service, bookingRepo, calendar := newAvailabilityFixture(t, staff, clock)

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return([]entities.Interval{}, nil)
		bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{}, nil)

		// 2025-06-01 is a Sunday, absent from the schedule.
		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-01", "2025-06-01", 30)

		assert.NoError(t, err)
		assert.Empty(t, days)
	})

	t.Run("slots that already started are filtered out", func(t *testing.T) {
		staff := utcStaff()
		midDay := fixedClock{now: time.Date(2025, 6, 2, 12, 10, 0, 0, time.UTC)}
		service, bookingRepo, calendar := newAvailabilityFixture(t, staff, midDay)

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return([]entities.Interval{}, nil)
		bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{}, nil)

		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-02", "2025-06-02", 30)

		assert.NoError(t, err)
		assert.NotContains(t, days[0].Times, "11:00")
		// 12:00 has begun at 12:10; creating it would be rejected, so it
		// must not be offered. 12:30 is the first bookable start.
		assert.NotContains(t, days[0].Times, "12:00")
		assert.Equal(t, "12:30", days[0].Times[0])
		assert.Len(t, days[0].Times, 9)
	})

	t.Run("duration longer than window yields nothing", func(t *testing.T) {
		staff := utcStaff()
		staff.Schedule = weekdaySchedule("09:00", "10:00")
		service, bookingRepo, calendar := newAvailabilityFixture(t, staff, clock)

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return([]entities.Interval{}, nil)
		bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{}, nil)

		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-02", "2025-06-02", 90)

		assert.NoError(t, err)
		assert.Empty(t, days)
	})

	t.Run("wall clock times survive a DST transition", func(t *testing.T) {
		staff := utcStaff()
		staff.Timezone = "America/New_York"
		staff.Schedule = weekdaySchedule("09:00", "12:00")
		staff.Schedule[time.Sunday] = entities.DayWindow{Enabled: true, Start: "09:00", End: "12:00"}

		early := fixedClock{now: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}
		service, bookingRepo, calendar := newAvailabilityFixture(t, staff, early)

		calendar.On("ListBusyIntervals", mock.Anything, staff, mock.Anything, mock.Anything).Return([]entities.Interval{}, nil)
		bookingRepo.On("ListConfirmedInRange", mock.Anything, staff.ID, mock.Anything, mock.Anything).Return([]*entities.Booking{}, nil)

		// 2025-03-09 is the US spring-forward Sunday.
		days, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-03-09", "2025-03-09", 30)

		assert.NoError(t, err)
		assert.Len(t, days, 1)
		assert.Len(t, days[0].Times, 6)
		assert.Equal(t, "09:00", days[0].Times[0])
		assert.Equal(t, "11:30", days[0].Times[5])
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		staff := utcStaff()
		service, _, _ := newAvailabilityFixture(t, staff, clock)

		_, err := service.GetAvailability(context.Background(), staff.ID, "", "2025-06-09", "2025-06-02", 30)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	})

	t.Run("meeting type from another staff member is rejected", func(t *testing.T) {
		staff := utcStaff()
		staffRepo := new(MockStaffRepository)
		meetingTypeRepo := new(MockMeetingTypeRepository)
		bookingRepo := new(MockBookingRepository)
		calendar := new(MockCalendarProvider)

		staffRepo.On("GetByID", mock.Anything, staff.ID).Return(staff, nil)
		meetingTypeRepo.On("GetByID", mock.Anything, "mt-other").Return(&entities.MeetingType{
			ID:              "mt-other",
			StaffID:         "staff-2",
			DurationMinutes: 30,
			Active:          true,
		}, nil)

		service := services.NewAvailabilityService(staffRepo, meetingTypeRepo, bookingRepo, calendar, clock, 30, 0)

		_, err := service.GetAvailability(context.Background(), staff.ID, "mt-other", "2025-06-02", "2025-06-02", 0)

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}
