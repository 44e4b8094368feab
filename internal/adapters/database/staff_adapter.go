package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/repositories"
	"github.com/schedulo/schedulo/internal/infrastructure/clients/postgres"
	apperrors "github.com/schedulo/schedulo/pkg/errors"
)

// StaffAdapter implements the StaffRepository interface
type StaffAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewStaffAdapter creates a new staff adapter
func NewStaffAdapter(client *postgres.Client) repositories.StaffRepository {
	return &StaffAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a staff member with their working schedule
func (a *StaffAdapter) GetByID(ctx context.Context, id string) (*entities.StaffMember, error) {
	query, args, err := a.db.Select(
		"id", "name", "email", "timezone", "calendar_id", "schedule",
		"created_at", "updated_at",
	).From("staff_members").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	staff, err := scanStaff(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("staff member with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get staff member", err)
	}
	return staff, nil
}

// List retrieves all bookable staff members
func (a *StaffAdapter) List(ctx context.Context) ([]*entities.StaffMember, error) {
	query, args, err := a.db.Select(
		"id", "name", "email", "timezone", "calendar_id", "schedule",
		"created_at", "updated_at",
	).From("staff_members").
		Order(goqu.I("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list staff members", err)
	}
	defer rows.Close()

	var members []*entities.StaffMember
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan staff member", err)
		}
		members = append(members, staff)
	}
	return members, rows.Err()
}

func scanStaff(row rowScanner) (*entities.StaffMember, error) {
	staff := &entities.StaffMember{}
	var calendarID sql.NullString
	var scheduleRaw []byte

	err := row.Scan(
		&staff.ID,
		&staff.Name,
		&staff.Email,
		&staff.Timezone,
		&calendarID,
		&scheduleRaw,
		&staff.CreatedAt,
		&staff.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	staff.CalendarID = calendarID.String
	if len(scheduleRaw) > 0 {
		if err := json.Unmarshal(scheduleRaw, &staff.Schedule); err != nil {
			return nil, fmt.Errorf("invalid schedule for staff %s: %w", staff.ID, err)
		}
	}
	return staff, nil
}
