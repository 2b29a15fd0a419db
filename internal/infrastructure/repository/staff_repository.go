package repository

import (
	"context"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	domainRepo "github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

type staffRepository struct {
	docs documents[entity.Staff]
}

// NewStaffRepository creates a new staff repository
func NewStaffRepository(store docstore.Store) domainRepo.StaffRepository {
	return &staffRepository{docs: documents[entity.Staff]{store: store, collection: CollectionStaff}}
}

func (r *staffRepository) Create(ctx context.Context, staff *entity.Staff) error {
	return r.docs.set(ctx, staff.ID, staff)
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*entity.Staff, error) {
	return r.docs.get(ctx, id)
}

func (r *staffRepository) GetByName(ctx context.Context, normalizedName string) (*entity.Staff, error) {
	all, err := r.docs.list(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].NormalizedName == normalizedName {
			return &all[i], nil
		}
	}
	return nil, nil
}

func (r *staffRepository) List(ctx context.Context) ([]entity.Staff, error) {
	return r.docs.list(ctx)
}

func (r *staffRepository) Update(ctx context.Context, staff *entity.Staff) error {
	return r.docs.set(ctx, staff.ID, staff)
}
