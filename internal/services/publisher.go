package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"time"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"
	"github.com/Lllllllleong/bulktextextractor/internal/gcp"
	"github.com/Lllllllleong/bulktextextractor/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	maxUploadAttempts  = 4
	uploadTimeout      = 50 * time.Second
	maxParallelUploads = 10
)

// Publisher copies a finished batch somewhere durable and returns the archive's location.
type Publisher interface {
	Publish(ctx context.Context, result *BatchResult) (string, error)
}

type PublisherConfig struct {
	ProjectID        string
	ArchiveBucket    string
	WorkflowID       string
	WorkflowLocation string
}

var _ Publisher = (*GCSPublisher)(nil)

// GCSPublisher uploads batches to Cloud Storage and optionally hands them to a Cloud Workflow.
type GCSPublisher struct {
	storageClient    *storage.Client
	executionsClient *executions.Client
	config           PublisherConfig

	backoff time.Duration

	upload  func(ctx context.Context, object, localPath string) error
	execute func(ctx context.Context, req *executionspb.CreateExecutionRequest) error
}

func NewGCSPublisher(ctx context.Context, config PublisherConfig) (*GCSPublisher, error) {
	if config.ArchiveBucket == "" {
		return nil, errors.New("ARCHIVE_BUCKET environment variable must be set")
	}
	if config.WorkflowID != "" && config.ProjectID == "" {
		return nil, errors.New("PROJECT_ID environment variable must be set to trigger a workflow")
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	bucket := storageClient.Bucket(config.ArchiveBucket)

	p := &GCSPublisher{
		storageClient: storageClient,
		config:        config,
		backoff:       1 * time.Second,

		upload: func(ctx context.Context, object, localPath string) error {
			return gcp.SaveFileToGCSAtomically(ctx, bucket, object, localPath)
		},
	}

	if config.WorkflowID != "" {
		executionsClient, err := executions.NewClient(ctx)
		if err != nil {
			storageClient.Close()
			return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
		}
		p.executionsClient = executionsClient
		p.execute = func(ctx context.Context, req *executionspb.CreateExecutionRequest) error {
			_, err := executionsClient.CreateExecution(ctx, req)
			return err
		}
	}

	return p, nil
}

// Publish uploads every output file and the archive under <batchId>/ and returns the archive's gs:// URI.
func (p *GCSPublisher) Publish(ctx context.Context, result *BatchResult) (string, error) {
	logCtx := slog.With("batchId", result.BatchID, "bucket", p.config.ArchiveBucket)

	uploads := batchObjects(result)
	logCtx.Info("Starting concurrent upload of batch files.", "fileCount", len(uploads))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelUploads)

	for localPath, object := range uploads {
		eg.Go(func() error {
			return retry(gctx, object, maxUploadAttempts, p.backoff, func(ctx context.Context) error {
				writeCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
				defer cancel()
				return p.upload(writeCtx, object, localPath)
			})
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("One or more batch files failed to upload", "error", err)
		return "", fmt.Errorf("failed to upload batch files: %w", err)
	}

	uri := gcp.GCSUri(p.config.ArchiveBucket, objectName(result.BatchID, result.ArchivePath))
	logCtx.Info("All batch files uploaded successfully.", "archiveGcsUri", uri)

	if p.execute == nil {
		return uri, nil
	}

	if err := p.triggerWorkflow(ctx, logCtx, result, uri); err != nil {
		return "", err
	}
	return uri, nil
}

func (p *GCSPublisher) triggerWorkflow(ctx context.Context, logCtx *slog.Logger, result *BatchResult, archiveURI string) error {
	logCtx.Info("Triggering workflow.", "workflowId", p.config.WorkflowID)

	argument, err := workflowArgument(result, archiveURI)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow payload: %w", err)
	}

	req := &executionspb.CreateExecutionRequest{
		Parent: fmt.Sprintf("projects/%s/locations/%s/workflows/%s", p.config.ProjectID, p.config.WorkflowLocation, p.config.WorkflowID),
		Execution: &executionspb.Execution{
			Argument: argument,
		},
	}
	if err := p.execute(ctx, req); err != nil {
		logCtx.Error("Failed to trigger workflow execution", "error", err)
		return fmt.Errorf("failed to trigger workflow execution: %w", err)
	}
	return nil
}

func (p *GCSPublisher) Close() error {
	var errs []error
	if p.storageClient != nil {
		if err := p.storageClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.executionsClient != nil {
		if err := p.executionsClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// batchObjects maps each local batch file to its object name.
func batchObjects(result *BatchResult) map[string]string {
	objects := make(map[string]string, len(result.Files)+1)
	for _, file := range result.Files {
		objects[file] = objectName(result.BatchID, file)
	}
	if result.ArchivePath != "" {
		objects[result.ArchivePath] = objectName(result.BatchID, result.ArchivePath)
	}
	return objects
}

func objectName(batchID, localPath string) string {
	return path.Join(batchID, filepath.Base(localPath))
}

func workflowArgument(result *BatchResult, archiveURI string) (string, error) {
	payload, err := json.Marshal(models.WorkflowHandoff{
		BatchID:       result.BatchID,
		ArchiveGCSUri: archiveURI,
		DocumentCount: len(result.Documents),
	})
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// retry calls fn up to attempts times, doubling the wait between attempts.
func retry(ctx context.Context, name string, attempts int, backoff time.Duration, fn func(context.Context) error) error {
	var lastErr error

	for i := 0; i < attempts; i++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if i == attempts-1 {
			break
		}

		slog.Warn(
			"Upload failed, will retry.",
			"gcsObject", name,
			"attempt", i+1,
			"maxRetries", attempts,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "gcsObject", name, "error", ctx.Err())
			return ctx.Err()
		}
	}

	slog.Error("Upload failed after all retries.", "gcsObject", name, "error", lastErr)
	return fmt.Errorf("upload for %s failed after all retries: %w", name, lastErr)
}
