// Package firestore keeps the shared documents in Cloud Firestore, the
// real-time store the staff devices already sync against.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"github.com/sangkips/mesa-api/pkg/docstore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store implements docstore.Store on a Firestore client.
type Store struct {
	client *firestore.Client
}

// NewStore connects to the project. An empty credentials file falls back to
// application default credentials.
func NewStore(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to firestore: %w", err)
	}
	log.Printf("Connected to Firestore project %s", projectID)
	return &Store{client: client}, nil
}

func (s *Store) Get(ctx context.Context, path string) (*docstore.Document, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, docstore.ErrNotFound
		}
		return nil, err
	}
	return &docstore.Document{Path: path, Data: snap.Data()}, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	var docs []docstore.Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		docs = append(docs, docstore.Document{Path: docstore.Join(collection, snap.Ref.ID), Data: snap.Data()})
	}
	return docs, nil
}

// Commit runs the batch in a Firestore transaction. Every touched document is
// read first, guards and increment targets are checked against that snapshot,
// and increments are sent as server-side transforms. Firestore retries the
// function when another device commits a conflicting write.
func (s *Store) Commit(ctx context.Context, b *docstore.Batch) error {
	if err := b.Err(); err != nil {
		return err
	}
	if b.Len() == 0 {
		return nil
	}

	return s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current := make(map[string]map[string]interface{})
		for _, path := range b.Paths() {
			snap, err := tx.Get(s.client.Doc(path))
			if err != nil {
				if status.Code(err) == codes.NotFound {
					continue
				}
				return err
			}
			current[path] = snap.Data()
		}

		if _, err := docstore.Apply(b, func(path string) (map[string]interface{}, bool) {
			data, ok := current[path]
			return data, ok
		}); err != nil {
			return err
		}

		for _, op := range b.Ops() {
			ref := s.client.Doc(op.Path)
			var err error
			switch op.Kind {
			case docstore.OpSet:
				err = tx.Set(ref, op.Data)
			case docstore.OpMerge:
				err = tx.Set(ref, op.Data, firestore.MergeAll)
			case docstore.OpDelete:
				err = tx.Delete(ref)
			case docstore.OpIncrement:
				err = tx.Update(ref, []firestore.Update{{Path: op.Field, Value: firestore.Increment(op.Delta)}})
			}
			if err != nil {
				return fmt.Errorf("%s %s: %w", op.Kind, op.Path, err)
			}
		}
		return nil
	})
}

// Subscribe listens to the collection's snapshot stream. The initial snapshot
// is skipped so only changes after the call are delivered.
func (s *Store) Subscribe(collection string, fn func(docstore.Change)) func() {
	ctx, cancel := context.WithCancel(context.Background())
	iter := s.client.Collection(collection).Snapshots(ctx)

	go func() {
		defer iter.Stop()
		first := true
		for {
			snap, err := iter.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled && !errors.Is(err, context.Canceled) {
					log.Printf("Warning: subscription to %s stopped: %v", collection, err)
				}
				return
			}
			if first {
				first = false
				continue
			}
			for _, ch := range snap.Changes {
				path := docstore.Join(collection, ch.Doc.Ref.ID)
				if ch.Kind == firestore.DocumentRemoved {
					fn(docstore.Change{Kind: docstore.ChangeRemoved, Path: path})
					continue
				}
				fn(docstore.Change{Kind: docstore.ChangeSet, Path: path, Data: ch.Doc.Data()})
			}
		}
	}()

	return cancel
}

func (s *Store) Ping(ctx context.Context) error {
	iter := s.client.Collections(ctx)
	_, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return nil
	}
	return err
}

func (s *Store) Close() error {
	return s.client.Close()
}
