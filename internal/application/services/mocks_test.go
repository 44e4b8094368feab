package services_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
)

// Mocks shared by the service tests.

type MockStaffRepository struct {
	mock.Mock
}

func (m *MockStaffRepository) GetByID(ctx context.Context, id string) (*entities.StaffMember, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.StaffMember), args.Error(1)
}

func (m *MockStaffRepository) List(ctx context.Context) ([]*entities.StaffMember, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.StaffMember), args.Error(1)
}

type MockMeetingTypeRepository struct {
	mock.Mock
}

func (m *MockMeetingTypeRepository) GetByID(ctx context.Context, id string) (*entities.MeetingType, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MeetingType), args.Error(1)
}

func (m *MockMeetingTypeRepository) ListByStaff(ctx context.Context, staffID string) ([]*entities.MeetingType, error) {
	args := m.Called(ctx, staffID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MeetingType), args.Error(1)
}

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) CreateIfSlotFree(ctx context.Context, booking *entities.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) RescheduleIfSlotFree(ctx context.Context, id string, start, end time.Time, newToken string) error {
	args := m.Called(ctx, id, start, end, newToken)
	return args.Error(0)
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByToken(ctx context.Context, token string) (*entities.Booking, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingRepository) UpdateCalendarRef(ctx context.Context, id string, eventID, meetingLink *string) error {
	args := m.Called(ctx, id, eventID, meetingLink)
	return args.Error(0)
}

func (m *MockBookingRepository) ListConfirmedInRange(ctx context.Context, staffID string, from, to time.Time) ([]*entities.Booking, error) {
	args := m.Called(ctx, staffID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) ListDueReminders(ctx context.Context, now, until time.Time) ([]*entities.Booking, error) {
	args := m.Called(ctx, now, until)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Booking), args.Error(1)
}

func (m *MockBookingRepository) MarkReminderSent(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockCalendarProvider struct {
	mock.Mock
}

func (m *MockCalendarProvider) CreateEvent(ctx context.Context, staff *entities.StaffMember, interval entities.Interval, invitee providers.EventInvitee) (string, string, error) {
	args := m.Called(ctx, staff, interval, invitee)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockCalendarProvider) UpdateEventTime(ctx context.Context, staff *entities.StaffMember, eventID string, interval entities.Interval) error {
	args := m.Called(ctx, staff, eventID, interval)
	return args.Error(0)
}

func (m *MockCalendarProvider) DeleteEvent(ctx context.Context, staff *entities.StaffMember, eventID string) error {
	args := m.Called(ctx, staff, eventID)
	return args.Error(0)
}

func (m *MockCalendarProvider) ListBusyIntervals(ctx context.Context, staff *entities.StaffMember, from, to time.Time) ([]entities.Interval, error) {
	args := m.Called(ctx, staff, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Interval), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendBookingConfirmation(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error {
	args := m.Called(ctx, booking, staff, meetingType)
	return args.Error(0)
}

func (m *MockNotifier) SendRescheduleNotice(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType, previousStart time.Time) error {
	args := m.Called(ctx, booking, staff, meetingType, previousStart)
	return args.Error(0)
}

func (m *MockNotifier) SendCancellationNotice(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error {
	args := m.Called(ctx, booking, staff, meetingType)
	return args.Error(0)
}

func (m *MockNotifier) SendReminder(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error {
	args := m.Called(ctx, booking, staff, meetingType)
	return args.Error(0)
}

// fixedClock pins "now" for deterministic availability and lifecycle tests.
type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}
