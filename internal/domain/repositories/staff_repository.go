package repositories

import (
	"context"

	"github.com/schedulo/schedulo/internal/domain/entities"
)

// StaffRepository defines read access to staff members. Staff administration
// lives in another system; the booking engine only reads.
type StaffRepository interface {
	// GetByID retrieves a staff member with their working schedule
	GetByID(ctx context.Context, id string) (*entities.StaffMember, error)

	// List retrieves all bookable staff members
	List(ctx context.Context) ([]*entities.StaffMember, error)
}

// MeetingTypeRepository defines read access to bookable offerings
type MeetingTypeRepository interface {
	// GetByID retrieves a meeting type by ID
	GetByID(ctx context.Context, id string) (*entities.MeetingType, error)

	// ListByStaff retrieves the active meeting types for a staff member
	ListByStaff(ctx context.Context, staffID string) ([]*entities.MeetingType, error)
}
