package repository

import (
	"context"

	"github.com/sangkips/mesa-api/internal/domain/entity"
)

// StaffRepository defines the interface for staff data operations
type StaffRepository interface {
	Create(ctx context.Context, staff *entity.Staff) error
	GetByID(ctx context.Context, id string) (*entity.Staff, error)
	// GetByName looks a staff member up by normalized name.
	GetByName(ctx context.Context, normalizedName string) (*entity.Staff, error)
	List(ctx context.Context) ([]entity.Staff, error)
	Update(ctx context.Context, staff *entity.Staff) error
}
