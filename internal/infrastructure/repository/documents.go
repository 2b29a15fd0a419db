package repository

import (
	"context"
	"errors"

	"github.com/sangkips/mesa-api/pkg/docstore"
)

// Collections of the shared store.
const (
	CollectionTables       = "mesas"
	CollectionOpenClients  = "mesasAbertas"
	CollectionOrders       = "pedidos"
	CollectionStock        = "estoque"
	CollectionMenu         = "cardapio"
	CollectionMergedTables = "mesasJuntadas"
	CollectionHistory      = "historicoPedidos"
	CollectionCash         = "caixa"
	CollectionStaff        = "equipe"
	CollectionIdempotency  = "idempotencia"
)

// documents is the typed access every repository shares.
type documents[T any] struct {
	store      docstore.Store
	collection string
}

func (d documents[T]) path(id string) string {
	return docstore.Join(d.collection, id)
}

// get returns nil, nil when the document does not exist.
func (d documents[T]) get(ctx context.Context, id string) (*T, error) {
	var v T
	err := docstore.GetInto(ctx, d.store, d.path(id), &v)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (d documents[T]) list(ctx context.Context) ([]T, error) {
	docs, err := d.store.List(ctx, d.collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := doc.DataTo(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (d documents[T]) set(ctx context.Context, id string, v *T) error {
	return docstore.Set(ctx, d.store, d.path(id), v)
}

func (d documents[T]) delete(ctx context.Context, id string) error {
	return d.store.Commit(ctx, docstore.NewBatch().Delete(d.path(id)))
}
