package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/providers"
)

// NotificationService renders and dispatches booking emails. Every method is
// best-effort from the caller's point of view: errors are returned so callers
// can log them, but no caller treats them as a booking failure. Each attempt
// leaves a delivery row behind.
type NotificationService struct {
	db   *sqlx.DB
	mail providers.MailProvider
}

// NewNotificationService creates a new notification service
func NewNotificationService(db *sqlx.DB, mail providers.MailProvider) *NotificationService {
	return &NotificationService{
		db:   db,
		mail: mail,
	}
}

// NotificationContext contains all data needed for template rendering
type NotificationContext struct {
	BookingID     string
	BookerName    string
	BookerEmail   string
	StaffName     string
	StaffEmail    string
	MeetingName   string
	ScheduledDate string
	ScheduledTime string
	PreviousDate  string
	PreviousTime  string
	Timezone      string
	MeetingLink   *string
	Notes         string
}

// SendBookingConfirmation notifies both parties of a new booking
func (n *NotificationService) SendBookingConfirmation(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error {
	notifCtx := n.buildContext(booking, staff, meetingType)
	return n.sendToBothParties(ctx, entities.NotificationBookingConfirmation, notifCtx)
}

// SendRescheduleNotice notifies both parties of a reschedule, including the
// previous time so the change is unambiguous.
func (n *NotificationService) SendRescheduleNotice(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType, previousStart time.Time) error {
	notifCtx := n.buildContext(booking, staff, meetingType)
	if loc, err := staff.Location(); err == nil {
		previousStart = previousStart.In(loc)
	}
	notifCtx.PreviousDate = previousStart.Format("Monday, January 2, 2006")
	notifCtx.PreviousTime = previousStart.Format("3:04 PM")
	return n.sendToBothParties(ctx, entities.NotificationRescheduled, notifCtx)
}

// SendCancellationNotice notifies both parties of a cancellation
func (n *NotificationService) SendCancellationNotice(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error {
	notifCtx := n.buildContext(booking, staff, meetingType)
	return n.sendToBothParties(ctx, entities.NotificationCancellation, notifCtx)
}

// SendReminder notifies both parties ahead of the meeting
func (n *NotificationService) SendReminder(ctx context.Context, booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) error {
	notifCtx := n.buildContext(booking, staff, meetingType)
	return n.sendToBothParties(ctx, entities.NotificationReminder, notifCtx)
}

func (n *NotificationService) buildContext(booking *entities.Booking, staff *entities.StaffMember, meetingType *entities.MeetingType) *NotificationContext {
	start := booking.StartTime
	if loc, err := staff.Location(); err == nil {
		start = start.In(loc)
	}

	meetingName := "Meeting"
	if meetingType != nil {
		meetingName = meetingType.Name
	}

	return &NotificationContext{
		BookingID:     booking.ID,
		BookerName:    booking.BookerName(),
		BookerEmail:   booking.Email,
		StaffName:     staff.Name,
		StaffEmail:    staff.Email,
		MeetingName:   meetingName,
		ScheduledDate: start.Format("Monday, January 2, 2006"),
		ScheduledTime: start.Format("3:04 PM"),
		Timezone:      staff.Timezone,
		MeetingLink:   booking.MeetingLink,
		Notes:         booking.Notes,
	}
}

func (n *NotificationService) sendToBothParties(ctx context.Context, notifType entities.NotificationType, notifCtx *NotificationContext) error {
	var firstErr error
	if err := n.dispatch(ctx, notifType, notifCtx.BookerName, notifCtx.BookerEmail, notifCtx); err != nil {
		firstErr = err
	}
	if err := n.dispatch(ctx, notifType, notifCtx.StaffName, notifCtx.StaffEmail, notifCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// dispatch renders one message, records the attempt, and sends it.
func (n *NotificationService) dispatch(ctx context.Context, notifType entities.NotificationType, recipientName, recipientAddr string, notifCtx *NotificationContext) error {
	subject, body := n.resolveTemplate(ctx, notifType)
	subject = n.renderTemplate(subject, notifCtx)
	body = n.renderTemplate(body, notifCtx)

	notification := &entities.BookingNotification{
		ID:               uuid.New().String(),
		BookingID:        notifCtx.BookingID,
		NotificationType: notifType,
		Channel:          entities.ChannelEmail,
		Recipient:        recipientAddr,
		Status:           entities.NotificationStatusPending,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	if err := n.createNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}

	messageID, sendErr := n.mail.Send(ctx, providers.OutboundEmail{
		ToName:    recipientName,
		ToAddress: recipientAddr,
		Subject:   subject,
		Body:      body,
	})

	now := time.Now()
	if sendErr != nil {
		errMsg := sendErr.Error()
		notification.Status = entities.NotificationStatusFailed
		notification.FailedAt = &now
		notification.ErrorMessage = &errMsg
	} else {
		notification.Status = entities.NotificationStatusSent
		notification.MessageID = &messageID
		notification.SentAt = &now
	}
	notification.UpdatedAt = now

	if err := n.updateNotification(ctx, notification); err != nil {
		log.Warn().Err(err).Str("notification_id", notification.ID).Msg("failed to update notification record")
	}

	return sendErr
}

// resolveTemplate loads the active stored template for the type, falling
// back to the built-in default when none exists.
func (n *NotificationService) resolveTemplate(ctx context.Context, notifType entities.NotificationType) (subject, body string) {
	template, err := n.getTemplate(ctx, entities.ChannelEmail, notifType)
	if err == nil {
		return template.Subject, template.Body
	}

	def, ok := defaultTemplates[notifType]
	if !ok {
		return "Booking update", "Your booking for {{meeting_name}} with {{staff_name}} has been updated."
	}
	return def.subject, def.body
}

var defaultTemplates = map[entities.NotificationType]struct {
	subject string
	body    string
}{
	entities.NotificationBookingConfirmation: {
		subject: "Confirmed: {{meeting_name}} with {{staff_name}}",
		body: "Hi {{booker_name}},\n\nYour {{meeting_name}} with {{staff_name}} is confirmed for " +
			"{{scheduled_date}} at {{scheduled_time}} ({{timezone}}).\n" +
			"{{#if meeting_link}}Join here: {{meeting_link}}\n{{/if}}",
	},
	entities.NotificationRescheduled: {
		subject: "Rescheduled: {{meeting_name}} with {{staff_name}}",
		body: "Hi {{booker_name}},\n\nYour {{meeting_name}} with {{staff_name}} has moved from " +
			"{{previous_date}} at {{previous_time}} to {{scheduled_date}} at {{scheduled_time}} ({{timezone}}).\n" +
			"{{#if meeting_link}}Join here: {{meeting_link}}\n{{/if}}",
	},
	entities.NotificationCancellation: {
		subject: "Cancelled: {{meeting_name}} with {{staff_name}}",
		body: "Hi {{booker_name}},\n\nYour {{meeting_name}} with {{staff_name}} on " +
			"{{scheduled_date}} at {{scheduled_time}} ({{timezone}}) has been cancelled.\n",
	},
	entities.NotificationReminder: {
		subject: "Reminder: {{meeting_name}} with {{staff_name}}",
		body: "Hi {{booker_name}},\n\nThis is a reminder of your {{meeting_name}} with {{staff_name}} on " +
			"{{scheduled_date}} at {{scheduled_time}} ({{timezone}}).\n" +
			"{{#if meeting_link}}Join here: {{meeting_link}}\n{{/if}}",
	},
}

// renderTemplate replaces placeholders in template
func (n *NotificationService) renderTemplate(template string, ctx *NotificationContext) string {
	replacements := map[string]string{
		"{{booker_name}}":    ctx.BookerName,
		"{{staff_name}}":     ctx.StaffName,
		"{{meeting_name}}":   ctx.MeetingName,
		"{{scheduled_date}}": ctx.ScheduledDate,
		"{{scheduled_time}}": ctx.ScheduledTime,
		"{{previous_date}}":  ctx.PreviousDate,
		"{{previous_time}}":  ctx.PreviousTime,
		"{{timezone}}":       ctx.Timezone,
		"{{notes}}":          ctx.Notes,
	}

	// Handle meeting link conditionally
	if ctx.MeetingLink != nil && *ctx.MeetingLink != "" {
		replacements["{{meeting_link}}"] = *ctx.MeetingLink
		template = strings.ReplaceAll(template, "{{#if meeting_link}}", "")
		template = strings.ReplaceAll(template, "{{/if}}", "")
	} else {
		// Remove conditional section
		start := strings.Index(template, "{{#if meeting_link}}")
		if start >= 0 {
			end := strings.Index(template[start:], "{{/if}}")
			if end >= 0 {
				template = template[:start] + template[start+end+7:]
			}
		}
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	return result
}

// Database operations
func (n *NotificationService) getTemplate(ctx context.Context, channel entities.NotificationChannel, notifType entities.NotificationType) (*entities.NotificationTemplate, error) {
	var template entities.NotificationTemplate
	query := `SELECT * FROM notification_templates WHERE channel = $1 AND template_type = $2 AND is_active = true LIMIT 1`
	err := n.db.GetContext(ctx, &template, query, string(channel), string(notifType))
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (n *NotificationService) createNotification(ctx context.Context, notification *entities.BookingNotification) error {
	query := `
		INSERT INTO booking_notifications
		(id, booking_id, notification_type, channel, recipient, status, message_id,
		 sent_at, failed_at, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.ID, notification.BookingID, notification.NotificationType, notification.Channel,
		notification.Recipient, notification.Status, notification.MessageID, notification.SentAt,
		notification.FailedAt, notification.ErrorMessage, notification.CreatedAt, notification.UpdatedAt,
	)
	return err
}

func (n *NotificationService) updateNotification(ctx context.Context, notification *entities.BookingNotification) error {
	query := `
		UPDATE booking_notifications
		SET status = $1, message_id = $2, sent_at = $3, failed_at = $4,
		    error_message = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.Status, notification.MessageID, notification.SentAt, notification.FailedAt,
		notification.ErrorMessage, notification.UpdatedAt, notification.ID,
	)
	return err
}
