package entities

import "time"

// NotificationChannel represents the delivery channel
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
)

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationBookingConfirmation NotificationType = "booking_confirmation"
	NotificationRescheduled         NotificationType = "rescheduled"
	NotificationCancellation        NotificationType = "cancellation"
	NotificationReminder            NotificationType = "reminder"
)

// NotificationStatus represents the delivery status
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// NotificationTemplate is a stored message template. Bodies use
// {{placeholder}} substitution.
type NotificationTemplate struct {
	ID           string              `json:"id" db:"id"`
	Channel      NotificationChannel `json:"channel" db:"channel"`
	TemplateType NotificationType    `json:"template_type" db:"template_type"`
	Subject      string              `json:"subject" db:"subject"`
	Body         string              `json:"body" db:"body"`
	IsActive     bool                `json:"is_active" db:"is_active"`
	CreatedAt    time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at" db:"updated_at"`
}

// BookingNotification tracks each dispatch attempt. Failures are recorded
// here and logged; they never affect the booking itself.
type BookingNotification struct {
	ID               string              `json:"id" db:"id"`
	BookingID        string              `json:"booking_id" db:"booking_id"`
	NotificationType NotificationType    `json:"notification_type" db:"notification_type"`
	Channel          NotificationChannel `json:"channel" db:"channel"`
	Recipient        string              `json:"recipient" db:"recipient"`
	Status           NotificationStatus  `json:"status" db:"status"`
	MessageID        *string             `json:"message_id,omitempty" db:"message_id"`
	SentAt           *time.Time          `json:"sent_at,omitempty" db:"sent_at"`
	FailedAt         *time.Time          `json:"failed_at,omitempty" db:"failed_at"`
	ErrorMessage     *string             `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}
