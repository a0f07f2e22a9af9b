package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/bulktextextractor/internal/gcp"
	"github.com/Lllllllleong/bulktextextractor/internal/models"
)

// Recorder keeps a record of each batch's lifecycle.
type Recorder interface {
	Start(ctx context.Context, batch *models.Batch) error
	Complete(ctx context.Context, batchID string, result *BatchResult) error
	Fail(ctx context.Context, batchID string, cause error) error
}

// NoopRecorder is used when bookkeeping is not configured.
type NoopRecorder struct{}

func (NoopRecorder) Start(context.Context, *models.Batch) error           { return nil }
func (NoopRecorder) Complete(context.Context, string, *BatchResult) error { return nil }
func (NoopRecorder) Fail(context.Context, string, error) error            { return nil }

var _ Recorder = (*FirestoreRecorder)(nil)

// batchStore is the subset of a Firestore collection the recorder writes through.
type batchStore interface {
	Set(ctx context.Context, batchID string, batch *models.Batch) error
	Update(ctx context.Context, batchID string, updates []firestore.Update) error
	Close() error
}

type firestoreStore struct {
	firestoreClient *firestore.Client
	collection      string
}

func (s *firestoreStore) Set(ctx context.Context, batchID string, batch *models.Batch) error {
	_, err := s.firestoreClient.Collection(s.collection).Doc(batchID).Set(ctx, batch)
	return err
}

func (s *firestoreStore) Update(ctx context.Context, batchID string, updates []firestore.Update) error {
	_, err := s.firestoreClient.Collection(s.collection).Doc(batchID).Update(ctx, updates)
	return err
}

func (s *firestoreStore) Close() error {
	return s.firestoreClient.Close()
}

// FirestoreRecorder writes models.Batch documents keyed by batch id.
type FirestoreRecorder struct {
	store batchStore
}

func NewFirestoreRecorder(ctx context.Context, projectID, collection string) (*FirestoreRecorder, error) {
	if collection == "" {
		return nil, errors.New("BATCH_COLLECTION environment variable must be set")
	}

	client, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreRecorder{
		store: &firestoreStore{
			firestoreClient: client,
			collection:      collection,
		},
	}, nil
}

func (r *FirestoreRecorder) Start(ctx context.Context, batch *models.Batch) error {
	if err := r.store.Set(ctx, batch.BatchID, batch); err != nil {
		return fmt.Errorf("failed to create batch document: %w", err)
	}
	return nil
}

func (r *FirestoreRecorder) Complete(ctx context.Context, batchID string, result *BatchResult) error {
	updates := []firestore.Update{
		{Path: "status", Value: models.BatchStatusCompleted},
		{Path: "documentCount", Value: len(result.Documents)},
		{Path: "archivePath", Value: result.ArchivePath},
		{Path: "completedAt", Value: time.Now()},
	}
	if result.ArchiveGCSUri != "" {
		updates = append(updates, firestore.Update{Path: "archiveGcsUri", Value: result.ArchiveGCSUri})
	}
	return r.update(ctx, batchID, updates)
}

func (r *FirestoreRecorder) Fail(ctx context.Context, batchID string, cause error) error {
	return r.update(ctx, batchID, []firestore.Update{
		{Path: "status", Value: models.BatchStatusFailed},
		{Path: "errorDetails", Value: cause.Error()},
		{Path: "completedAt", Value: time.Now()},
	})
}

func (r *FirestoreRecorder) update(ctx context.Context, batchID string, updates []firestore.Update) error {
	if err := r.store.Update(ctx, batchID, updates); err != nil {
		return fmt.Errorf("failed to update batch document %s: %w", batchID, err)
	}
	return nil
}

func (r *FirestoreRecorder) Close() error {
	return r.store.Close()
}
