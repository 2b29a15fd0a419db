package repository

import (
	"context"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

// TableRepository defines the interface for table data operations
type TableRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Table, error)
	List(ctx context.Context) ([]entity.Table, error)
	StageSave(b *docstore.Batch, table *entity.Table)
	StageUpdate(b *docstore.Batch, id string, fields map[string]interface{})
	StageDelete(b *docstore.Batch, id string)
	// StageRequireStatus fails the commit unless the table exists with the given status.
	StageRequireStatus(b *docstore.Batch, id string, status enum.TableStatus)
	// StageRequirePaid fails the commit unless the table's amount paid is still amount.
	StageRequirePaid(b *docstore.Batch, id string, amount float64)
	// StageClaimClient reserves a client name for an open table. The commit
	// fails if another open table holds it.
	StageClaimClient(b *docstore.Batch, clientName, tableID string)
	StageReleaseClient(b *docstore.Batch, clientName string)
	// IsClientClaim reports whether a failed guard was a client name claim.
	IsClientClaim(err error) bool
}

// MergedTableRepository stores the records that let a merge be undone
type MergedTableRepository interface {
	GetBySurvivor(ctx context.Context, survivorID string) (*entity.MergedTableRecord, error)
	List(ctx context.Context) ([]entity.MergedTableRecord, error)
	StageSave(b *docstore.Batch, record *entity.MergedTableRecord)
	StageDelete(b *docstore.Batch, survivorID string)
}
