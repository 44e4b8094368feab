package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/repositories"
	"github.com/schedulo/schedulo/internal/infrastructure/clients/postgres"
	apperrors "github.com/schedulo/schedulo/pkg/errors"
)

const pqUniqueViolation = "23505"

var bookingColumns = []any{
	"id", "staff_id", "meeting_type_id", "first_name", "last_name",
	"email", "phone", "notes", "start_time", "end_time",
	"duration_minutes", "status", "calendar_event_id", "meeting_link",
	"access_token", "reminder_sent", "created_at", "updated_at",
}

// BookingAdapter implements the BookingRepository interface.
//
// The overlap check and the write for CreateIfSlotFree and
// RescheduleIfSlotFree run in one transaction under a per-staff advisory
// lock, so concurrent attempts on the same staff member serialize. A partial
// unique index on (staff_id, start_time) WHERE status = 'confirmed' backstops
// exact-duplicate races.
type BookingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// CreateIfSlotFree inserts the booking unless the slot is already taken.
func (a *BookingAdapter) CreateIfSlotFree(ctx context.Context, booking *entities.Booking) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := lockStaff(ctx, tx, booking.StaffID); err != nil {
		return err
	}

	taken, err := overlapExists(ctx, tx, booking.StaffID, booking.StartTime, booking.EndTime, "")
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflictError("slot is no longer available")
	}

	record := goqu.Record{
		"id":                booking.ID,
		"staff_id":          booking.StaffID,
		"meeting_type_id":   booking.MeetingTypeID,
		"first_name":        booking.FirstName,
		"last_name":         booking.LastName,
		"email":             booking.Email,
		"phone":             booking.Phone,
		"notes":             booking.Notes,
		"start_time":        booking.StartTime,
		"end_time":          booking.EndTime,
		"duration_minutes":  booking.DurationMinutes,
		"status":            booking.Status,
		"calendar_event_id": booking.CalendarEventID,
		"meeting_link":      booking.MeetingLink,
		"access_token":      booking.AccessToken,
		"reminder_sent":     booking.ReminderSent,
		"created_at":        booking.CreatedAt,
		"updated_at":        booking.UpdatedAt,
	}

	query, args, err := a.db.Insert("bookings").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperrors.NewConflictError("slot is no longer available")
		}
		return apperrors.NewInternalError("failed to create booking", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit booking", err)
	}
	return nil
}

// RescheduleIfSlotFree moves a confirmed booking to a new interval and
// replaces its access token.
func (a *BookingAdapter) RescheduleIfSlotFree(ctx context.Context, id string, start, end time.Time, newToken string) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var staffID string
	if err := tx.QueryRowContext(ctx,
		`SELECT staff_id FROM bookings WHERE id = $1`, id,
	).Scan(&staffID); err != nil {
		if err == sql.ErrNoRows {
			return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
		}
		return apperrors.NewInternalError("failed to load booking", err)
	}

	if err := lockStaff(ctx, tx, staffID); err != nil {
		return err
	}

	taken, err := overlapExists(ctx, tx, staffID, start, end, id)
	if err != nil {
		return err
	}
	if taken {
		return apperrors.NewConflictError("slot is no longer available")
	}

	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{
			"start_time":    start,
			"end_time":      end,
			"access_token":  newToken,
			"reminder_sent": false,
			"updated_at":    time.Now(),
		}).
		Where(goqu.Ex{"id": id, "status": entities.BookingStatusConfirmed}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to reschedule booking", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("confirmed booking with id %s not found", id))
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit reschedule", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	return a.getOne(ctx, goqu.Ex{"id": id}, fmt.Sprintf("booking with id %s not found", id))
}

// GetByToken retrieves a booking by its current access token
func (a *BookingAdapter) GetByToken(ctx context.Context, token string) (*entities.Booking, error) {
	return a.getOne(ctx, goqu.Ex{"access_token": token}, "booking not found")
}

// Cancel flips the booking's status to cancelled
func (a *BookingAdapter) Cancel(ctx context.Context, id string) error {
	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{
			"status":     entities.BookingStatusCancelled,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build cancel query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to cancel booking", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	return nil
}

// UpdateCalendarRef records the external calendar event id and meeting link
func (a *BookingAdapter) UpdateCalendarRef(ctx context.Context, id string, eventID, meetingLink *string) error {
	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{
			"calendar_event_id": eventID,
			"meeting_link":      meetingLink,
			"updated_at":        time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to update calendar reference", err)
	}
	return nil
}

// ListConfirmedInRange retrieves confirmed bookings overlapping [from, to)
func (a *BookingAdapter) ListConfirmedInRange(ctx context.Context, staffID string, from, to time.Time) ([]*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).
		From("bookings").
		Where(
			goqu.Ex{"staff_id": staffID, "status": entities.BookingStatusConfirmed},
			goqu.C("start_time").Lt(to),
			goqu.C("end_time").Gt(from),
		).
		Order(goqu.I("start_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	return a.list(ctx, query, args)
}

// ListDueReminders retrieves confirmed bookings starting within [now, until)
// whose reminder has not been sent
func (a *BookingAdapter) ListDueReminders(ctx context.Context, now, until time.Time) ([]*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).
		From("bookings").
		Where(
			goqu.Ex{"status": entities.BookingStatusConfirmed, "reminder_sent": false},
			goqu.C("start_time").Gte(now),
			goqu.C("start_time").Lt(until),
		).
		Order(goqu.I("start_time").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build reminder query", err)
	}

	return a.list(ctx, query, args)
}

// MarkReminderSent sets the reminder flag
func (a *BookingAdapter) MarkReminderSent(ctx context.Context, id string) error {
	query, args, err := a.db.Update("bookings").
		Set(goqu.Record{"reminder_sent": true, "updated_at": time.Now()}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		return apperrors.NewInternalError("failed to mark reminder sent", err)
	}
	return nil
}

func (a *BookingAdapter) getOne(ctx context.Context, where goqu.Ex, notFoundMsg string) (*entities.Booking, error) {
	query, args, err := a.db.Select(bookingColumns...).
		From("bookings").
		Where(where).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := a.client.DB().QueryRowContext(ctx, query, args...)
	booking, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(notFoundMsg)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}
	return booking, nil
}

func (a *BookingAdapter) list(ctx context.Context, query string, args []interface{}) ([]*entities.Booking, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	defer rows.Close()

	var bookings []*entities.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*entities.Booking, error) {
	booking := &entities.Booking{}
	var phone, notes sql.NullString
	var calendarEventID, meetingLink sql.NullString

	err := row.Scan(
		&booking.ID,
		&booking.StaffID,
		&booking.MeetingTypeID,
		&booking.FirstName,
		&booking.LastName,
		&booking.Email,
		&phone,
		&notes,
		&booking.StartTime,
		&booking.EndTime,
		&booking.DurationMinutes,
		&booking.Status,
		&calendarEventID,
		&meetingLink,
		&booking.AccessToken,
		&booking.ReminderSent,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Phone = phone.String
	booking.Notes = notes.String
	if calendarEventID.Valid {
		booking.CalendarEventID = &calendarEventID.String
	}
	if meetingLink.Valid {
		booking.MeetingLink = &meetingLink.String
	}
	return booking, nil
}

// lockStaff takes the transaction-scoped advisory lock that serializes
// check-and-write for one staff member's calendar.
func lockStaff(ctx context.Context, tx *sql.Tx, staffID string) error {
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, staffID); err != nil {
		return apperrors.NewInternalError("failed to acquire staff lock", err)
	}
	return nil
}

func overlapExists(ctx context.Context, tx *sql.Tx, staffID string, start, end time.Time, excludeID string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE staff_id = $1
			  AND status = 'confirmed'
			  AND start_time < $3
			  AND end_time > $2
			  AND ($4 = '' OR id <> $4)
		)`, staffID, start, end, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewInternalError("failed to check slot availability", err)
	}
	return exists, nil
}
