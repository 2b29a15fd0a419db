package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/sangkips/mesa-api/internal/domain/entity"
	"github.com/sangkips/mesa-api/internal/domain/enum"
	domainRepo "github.com/sangkips/mesa-api/internal/domain/repository"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"github.com/sangkips/mesa-api/pkg/utils"
)

type tableRepository struct {
	docs documents[entity.Table]
}

// NewTableRepository creates a new table repository
func NewTableRepository(store docstore.Store) domainRepo.TableRepository {
	return &tableRepository{docs: documents[entity.Table]{store: store, collection: CollectionTables}}
}

func (r *tableRepository) GetByID(ctx context.Context, id string) (*entity.Table, error) {
	return r.docs.get(ctx, id)
}

func (r *tableRepository) List(ctx context.Context) ([]entity.Table, error) {
	tables, err := r.docs.list(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(tables, func(i, j int) bool {
		return tables[i].CreatedAt.Before(tables[j].CreatedAt)
	})
	return tables, nil
}

func (r *tableRepository) StageSave(b *docstore.Batch, table *entity.Table) {
	b.Set(r.docs.path(table.ID), table)
}

func (r *tableRepository) StageUpdate(b *docstore.Batch, id string, fields map[string]interface{}) {
	b.Merge(r.docs.path(id), fields)
}

func (r *tableRepository) StageDelete(b *docstore.Batch, id string) {
	b.Delete(r.docs.path(id))
}

func (r *tableRepository) StageRequireStatus(b *docstore.Batch, id string, status enum.TableStatus) {
	b.RequireEqual(r.docs.path(id), "status", status.String())
}

func (r *tableRepository) StageRequirePaid(b *docstore.Batch, id string, amount float64) {
	b.RequireEqual(r.docs.path(id), "amount_paid", amount)
}

// Open client names are claimed by a marker document per name, so two
// devices opening the same client race on one path.
func clientPath(clientName string) string {
	return docstore.Join(CollectionOpenClients, utils.DocumentKey(clientName))
}

func (r *tableRepository) StageClaimClient(b *docstore.Batch, clientName, tableID string) {
	path := clientPath(clientName)
	b.RequireMissing(path)
	b.Set(path, map[string]interface{}{"client_name": clientName, "table_id": tableID})
}

func (r *tableRepository) StageReleaseClient(b *docstore.Batch, clientName string) {
	b.Delete(clientPath(clientName))
}

func (r *tableRepository) IsClientClaim(err error) bool {
	var pre *docstore.PreconditionError
	return errors.As(err, &pre) && pre.Guard.Kind == docstore.GuardMissing &&
		docstore.CollectionOf(pre.Guard.Path) == CollectionOpenClients
}

type mergedTableRepository struct {
	docs documents[entity.MergedTableRecord]
}

// NewMergedTableRepository creates a new merged table repository
func NewMergedTableRepository(store docstore.Store) domainRepo.MergedTableRepository {
	return &mergedTableRepository{docs: documents[entity.MergedTableRecord]{store: store, collection: CollectionMergedTables}}
}

func (r *mergedTableRepository) GetBySurvivor(ctx context.Context, survivorID string) (*entity.MergedTableRecord, error) {
	return r.docs.get(ctx, survivorID)
}

func (r *mergedTableRepository) List(ctx context.Context) ([]entity.MergedTableRecord, error) {
	return r.docs.list(ctx)
}

func (r *mergedTableRepository) StageSave(b *docstore.Batch, record *entity.MergedTableRecord) {
	b.Set(r.docs.path(record.SurvivorID), record)
}

func (r *mergedTableRepository) StageDelete(b *docstore.Batch, survivorID string) {
	b.Delete(r.docs.path(survivorID))
}
