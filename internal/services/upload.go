package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/bulktextextractor/internal/gcp"
	"github.com/Lllllllleong/bulktextextractor/internal/ocr"
	"github.com/Lllllllleong/bulktextextractor/internal/output"
)

// GCSEvent is the payload of a GCS object finalized event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

type UploadConfig struct {
	Format        string
	ArchiveBucket string
}

type batchProcessor interface {
	Process(ctx context.Context, images []ocr.Input, format string) (*BatchResult, error)
}

// UploadFunction runs a one-image batch for every image uploaded to a watched bucket.
type UploadFunction struct {
	extractor batchProcessor
	config    UploadConfig

	fetch func(ctx context.Context, bucket, object string) ([]byte, error)

	closers []io.Closer
}

// NewUploadTrigger creates an UploadFunction backed by an environment-configured extractor.
// Publication must be configured, otherwise the batch output would only exist on the function's disk.
func NewUploadTrigger(ctx context.Context) (*UploadFunction, error) {
	config, err := LoadExtractorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if config.ArchiveBucket == "" {
		return nil, errors.New("ARCHIVE_BUCKET environment variable must be set")
	}

	uploadConfig := UploadConfig{
		Format:        gcp.GetEnv("UPLOAD_OUTPUT_FORMAT", output.FormatText.String()),
		ArchiveBucket: config.ArchiveBucket,
	}
	if _, err := output.ParseFormat(uploadConfig.Format); err != nil {
		return nil, fmt.Errorf("UPLOAD_OUTPUT_FORMAT %q: %w", uploadConfig.Format, err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	extractor, err := NewExtractorFromConfig(ctx, config)
	if err != nil {
		storageClient.Close()
		return nil, err
	}

	f := newUploadFunction(extractor, uploadConfig, func(ctx context.Context, bucket, object string) ([]byte, error) {
		return readGCSObject(ctx, storageClient, bucket, object)
	})
	f.closers = []io.Closer{storageClient, extractor}
	slog.Info("Upload trigger initialized.", "format", uploadConfig.Format, "archiveBucket", uploadConfig.ArchiveBucket)
	return f, nil
}

func newUploadFunction(extractor batchProcessor, config UploadConfig, fetch func(ctx context.Context, bucket, object string) ([]byte, error)) *UploadFunction {
	return &UploadFunction{
		extractor: extractor,
		config:    config,
		fetch:     fetch,
	}
}

// Close releases the Storage client and the extractor's GCP clients.
func (f *UploadFunction) Close() error {
	return closeAll(f.closers)
}

// Process downloads the uploaded image and runs it through the pipeline.
// Non-image objects and every object in the archive bucket are skipped.
func (f *UploadFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	logCtx.Info("Processing new GCS object.")

	// The whole archive bucket is ignored, not just batch prefixes, so published output never re-triggers.
	if e.Bucket == f.config.ArchiveBucket {
		logCtx.Info("Object belongs to the archive bucket. Skipping.")
		return nil
	}
	if !ocr.IsImage(e.Name, e.ContentType) {
		logCtx.Info("Object is not a supported image. Skipping.", "contentType", e.ContentType)
		return nil
	}

	content, err := f.fetch(ctx, e.Bucket, e.Name)
	if err != nil {
		logCtx.Error("Failed to download source image", "error", err)
		return err
	}

	input := ocr.NewInput(path.Base(e.Name), content, e.ContentType)

	result, err := f.extractor.Process(ctx, []ocr.Input{input}, f.config.Format)
	if err != nil {
		// Process logs with batch context.
		return err
	}

	logCtx.Info("Upload processed.", "batchId", result.BatchID, "archiveGcsUri", result.ArchiveGCSUri)
	return nil
}

func readGCSObject(ctx context.Context, client *storage.Client, bucket, object string) ([]byte, error) {
	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get GCS object reader for %s: %w", gcp.GCSUri(bucket, object), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read GCS object: %w", err)
	}
	return data, nil
}
