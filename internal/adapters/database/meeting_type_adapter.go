package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/schedulo/schedulo/internal/domain/entities"
	"github.com/schedulo/schedulo/internal/domain/repositories"
	"github.com/schedulo/schedulo/internal/infrastructure/clients/postgres"
	apperrors "github.com/schedulo/schedulo/pkg/errors"
)

// MeetingTypeAdapter implements the MeetingTypeRepository interface
type MeetingTypeAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMeetingTypeAdapter creates a new meeting type adapter
func NewMeetingTypeAdapter(client *postgres.Client) repositories.MeetingTypeRepository {
	return &MeetingTypeAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByID retrieves a meeting type by ID
func (a *MeetingTypeAdapter) GetByID(ctx context.Context, id string) (*entities.MeetingType, error) {
	query, args, err := a.db.Select(
		"id", "staff_id", "name", "duration_minutes", "active",
		"created_at", "updated_at",
	).From("meeting_types").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	mt := &entities.MeetingType{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&mt.ID,
		&mt.StaffID,
		&mt.Name,
		&mt.DurationMinutes,
		&mt.Active,
		&mt.CreatedAt,
		&mt.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("meeting type with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get meeting type", err)
	}
	return mt, nil
}

// ListByStaff retrieves the active meeting types for a staff member
func (a *MeetingTypeAdapter) ListByStaff(ctx context.Context, staffID string) ([]*entities.MeetingType, error) {
	query, args, err := a.db.Select(
		"id", "staff_id", "name", "duration_minutes", "active",
		"created_at", "updated_at",
	).From("meeting_types").
		Where(goqu.Ex{"staff_id": staffID, "active": true}).
		Order(goqu.I("duration_minutes").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list meeting types", err)
	}
	defer rows.Close()

	var meetingTypes []*entities.MeetingType
	for rows.Next() {
		mt := &entities.MeetingType{}
		err := rows.Scan(
			&mt.ID,
			&mt.StaffID,
			&mt.Name,
			&mt.DurationMinutes,
			&mt.Active,
			&mt.CreatedAt,
			&mt.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan meeting type", err)
		}
		meetingTypes = append(meetingTypes, mt)
	}
	return meetingTypes, rows.Err()
}
