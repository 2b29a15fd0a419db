package repository

import (
	"context"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/pkg/docstore"
)

// HistoryRepository defines the interface for closed bill operations
type HistoryRepository interface {
	GetByID(ctx context.Context, id string) (*entity.HistoryEntry, error)
	// List returns every entry, newest first.
	List(ctx context.Context) ([]entity.HistoryEntry, error)
	StageSave(b *docstore.Batch, entry *entity.HistoryEntry)
	Delete(ctx context.Context, id string) error
}

// CashRepository defines the interface for cash-flow ledger operations
type CashRepository interface {
	// List returns every movement, newest first.
	List(ctx context.Context) ([]entity.CashMovement, error)
	StageSave(b *docstore.Batch, movement *entity.CashMovement)
}
