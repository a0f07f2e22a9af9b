package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lllllllleong/bulktextextractor/internal/corrector"
	"github.com/Lllllllleong/bulktextextractor/internal/gcp"
	"github.com/Lllllllleong/bulktextextractor/internal/limiter"
	"github.com/Lllllllleong/bulktextextractor/internal/models"
	"github.com/Lllllllleong/bulktextextractor/internal/ocr"
	"github.com/Lllllllleong/bulktextextractor/internal/ocr/azure"
	"github.com/Lllllllleong/bulktextextractor/internal/ocr/gemini"
	"github.com/Lllllllleong/bulktextextractor/internal/ocr/tesseract"
	"github.com/Lllllllleong/bulktextextractor/internal/output"
	"github.com/google/uuid"
)

// ExtractorConfig holds configuration for the batch extraction pipeline.
type ExtractorConfig struct {
	OutputDir string

	OCREngine     string
	OCRLanguages  []string
	AzureEndpoint string
	AzureKey      string
	GeminiAPIKey  string

	Corrector      string
	OpenAIAPIKey   string
	ProjectID      string
	VertexAIRegion string

	BatchCollection  string
	ArchiveBucket    string
	WorkflowID       string
	WorkflowLocation string

	OCRRateLimit        float64
	CorrectionRateLimit float64
}

// LoadExtractorConfig reads the pipeline configuration from the environment.
func LoadExtractorConfig() (ExtractorConfig, error) {
	ocrRate, err := gcp.GetEnvFloat("OCR_RATE_LIMIT", 0)
	if err != nil {
		return ExtractorConfig{}, err
	}
	correctionRate, err := gcp.GetEnvFloat("CORRECTION_RATE_LIMIT", 0)
	if err != nil {
		return ExtractorConfig{}, err
	}

	azureEndpoint := gcp.GetEnv("AZURE_DOCINTEL_ENDPOINT", "")
	geminiAPIKey := gcp.GetEnv("GEMINI_API_KEY", "")

	return ExtractorConfig{
		OutputDir: gcp.GetEnv("OUTPUT_DIR", "."),

		OCREngine:     gcp.GetEnv("OCR_ENGINE", defaultEngine(azureEndpoint, geminiAPIKey)),
		OCRLanguages:  splitLanguages(gcp.GetEnv("OCR_LANGUAGES", "eng")),
		AzureEndpoint: azureEndpoint,
		AzureKey:      gcp.GetEnv("AZURE_DOCINTEL_KEY", ""),
		GeminiAPIKey:  geminiAPIKey,

		Corrector:      gcp.GetEnv("CORRECTOR", "openai"),
		OpenAIAPIKey:   gcp.GetEnv("OPENAI_API_KEY", ""),
		ProjectID:      gcp.GetEnv("PROJECT_ID", ""),
		VertexAIRegion: gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),

		BatchCollection:  gcp.GetEnv("BATCH_COLLECTION", ""),
		ArchiveBucket:    gcp.GetEnv("ARCHIVE_BUCKET", ""),
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", ""),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),

		OCRRateLimit:        ocrRate,
		CorrectionRateLimit: correctionRate,
	}, nil
}

// defaultEngine picks local Tesseract when it is linked, otherwise a hosted engine that has credentials.
func defaultEngine(azureEndpoint, geminiAPIKey string) string {
	switch {
	case tesseract.Enabled:
		return "tesseract"
	case geminiAPIKey != "":
		return "gemini"
	case azureEndpoint != "":
		return "azure"
	}
	return "tesseract"
}

// splitLanguages accepts Tesseract's "eng+deu" form as well as comma separated lists.
func splitLanguages(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == '+' || r == ',' || r == ' '
	})
}

// BatchResult is everything a caller needs after a successful batch.
type BatchResult struct {
	BatchID string
	Dir     string

	// Text is the combined display text, one "Document N:" section per image.
	Text string

	Documents []string
	Files     []string

	ArchivePath   string
	ArchiveGCSUri string
}

// BatchExtractor runs OCR, correction and serialization over a batch of images.
type BatchExtractor struct {
	engine    ocr.Engine
	corrector corrector.Corrector
	recorder  Recorder
	publisher Publisher
	config    ExtractorConfig

	closers []io.Closer
}

// NewExtractor creates a BatchExtractor configured from the environment.
func NewExtractor(ctx context.Context) (*BatchExtractor, error) {
	config, err := LoadExtractorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return NewExtractorFromConfig(ctx, config)
}

// NewExtractorFromConfig builds the engine, corrector and optional GCP collaborators named by config.
func NewExtractorFromConfig(ctx context.Context, config ExtractorConfig) (*BatchExtractor, error) {
	engine, err := newEngine(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR engine %q: %w", config.OCREngine, err)
	}

	var closers []io.Closer

	c, closer, err := newCorrector(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create corrector %q: %w", config.Corrector, err)
	}
	if closer != nil {
		closers = append(closers, closer)
	}

	var recorder Recorder
	if config.BatchCollection != "" {
		r, err := NewFirestoreRecorder(ctx, config.ProjectID, config.BatchCollection)
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		recorder = r
		closers = append(closers, r)
	}

	var publisher Publisher
	if config.ArchiveBucket != "" {
		p, err := NewGCSPublisher(ctx, PublisherConfig{
			ProjectID:        config.ProjectID,
			ArchiveBucket:    config.ArchiveBucket,
			WorkflowID:       config.WorkflowID,
			WorkflowLocation: config.WorkflowLocation,
		})
		if err != nil {
			closeAll(closers)
			return nil, err
		}
		publisher = p
		closers = append(closers, p)
	}

	f := NewBatchExtractor(config, engine, c, recorder, publisher)
	f.closers = closers

	slog.Info("Batch extractor initialized.",
		"ocrEngine", engine.Name(),
		"corrector", config.Corrector,
		"outputDir", config.OutputDir,
		"bookkeeping", recorder != nil,
		"publication", publisher != nil,
	)
	return f, nil
}

// NewBatchExtractor wires an extractor from ready collaborators. Recorder and publisher may be nil.
func NewBatchExtractor(config ExtractorConfig, engine ocr.Engine, c corrector.Corrector, recorder Recorder, publisher Publisher) *BatchExtractor {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if recorder == nil {
		recorder = NoopRecorder{}
	}

	return &BatchExtractor{
		engine:    engine,
		corrector: c,
		recorder:  recorder,
		publisher: publisher,
		config:    config,
	}
}

// OutputDir is the parent directory of every batch directory.
func (f *BatchExtractor) OutputDir() string {
	return f.config.OutputDir
}

// Publishes reports whether finished batches are uploaded to Cloud Storage.
func (f *BatchExtractor) Publishes() bool {
	return f.publisher != nil
}

// Close releases the GCP clients held by the extractor.
func (f *BatchExtractor) Close() error {
	return closeAll(f.closers)
}

// Process runs the batch: one output file per image in the selected format, then a zip of all of them.
// The format is checked before any work is done. Any later error aborts the batch and leaves written files on disk.
func (f *BatchExtractor) Process(ctx context.Context, images []ocr.Input, format string) (*BatchResult, error) {
	outputFormat, err := output.ParseFormat(format)
	if err != nil {
		slog.Warn("Rejected batch with unsupported output format.", "format", format, "imageCount", len(images))
		return nil, err
	}

	batchID := uuid.NewString()
	logCtx := slog.With("batchId", batchID, "format", format)
	logCtx.Info("Starting batch.", "imageCount", len(images))

	dir := filepath.Join(f.config.OutputDir, batchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logCtx.Error("Failed to create batch directory", "error", err, "path", dir)
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}

	batch := &models.Batch{
		BatchID:    batchID,
		Format:     format,
		ImageCount: len(images),
		Status:     models.BatchStatusProcessing,
		CreatedAt:  time.Now(),
	}
	if err := f.recorder.Start(ctx, batch); err != nil {
		logCtx.Error("Failed to record batch start", "error", err)
		return nil, fmt.Errorf("failed to record batch start: %w", err)
	}

	result := &BatchResult{
		BatchID: batchID,
		Dir:     dir,
	}

	if err := f.run(ctx, logCtx, images, outputFormat, result); err != nil {
		logCtx.Error("Batch failed.", "error", err, "filesWritten", len(result.Files))
		if recErr := f.recorder.Fail(ctx, batchID, err); recErr != nil {
			logCtx.Error("CRITICAL: Failed to record batch failure.", "updateError", recErr)
		}
		return nil, err
	}

	if err := f.recorder.Complete(ctx, batchID, result); err != nil {
		logCtx.Error("CRITICAL: Failed to record batch completion.", "updateError", err)
	}

	logCtx.Info("Batch complete.", "documentCount", len(result.Documents), "archive", result.ArchivePath)
	return result, nil
}

func (f *BatchExtractor) run(ctx context.Context, logCtx *slog.Logger, images []ocr.Input, format output.Format, result *BatchResult) error {
	for i, image := range images {
		index := i + 1
		imgCtx := logCtx.With("image", index, "name", image.Name)

		text, err := f.correctImage(ctx, imgCtx, image)
		if err != nil {
			return fmt.Errorf("image %d: %w", index, err)
		}

		path, err := output.Write(result.Dir, format, text)
		if err != nil {
			return fmt.Errorf("image %d: %w", index, err)
		}
		imgCtx.Info("Wrote corrected document.", "path", path)

		result.Documents = append(result.Documents, text)
		result.Files = append(result.Files, path)
	}

	archivePath := filepath.Join(result.Dir, output.ArchiveName(result.BatchID))
	if err := output.CreateArchive(archivePath, result.Files); err != nil {
		return err
	}
	result.ArchivePath = archivePath
	result.Text = DisplayText(result.Documents)

	if f.publisher == nil {
		return nil
	}

	uri, err := f.publisher.Publish(ctx, result)
	if err != nil {
		return fmt.Errorf("failed to publish batch: %w", err)
	}
	result.ArchiveGCSUri = uri
	return nil
}

func (f *BatchExtractor) correctImage(ctx context.Context, logCtx *slog.Logger, image ocr.Input) (string, error) {
	recognized, err := f.engine.Recognize(ctx, image)
	if err != nil {
		return "", fmt.Errorf("failed to run OCR: %w", err)
	}

	raw := recognized.Text()
	logCtx.Debug("OCR complete.", "lines", len(recognized.Texts()))

	corrected, err := f.corrector.Correct(ctx, corrector.NewRequest(raw))
	if err != nil {
		return "", fmt.Errorf("failed to correct text: %w", err)
	}

	if corrector.LooksLikeRefusal(corrected) {
		logCtx.Warn("Correction response looks like a refusal. Writing it unchanged.")
	}
	return corrected, nil
}

// DisplayText labels each document by its 1-based position, each section followed by a blank line.
func DisplayText(documents []string) string {
	var b strings.Builder
	for i, doc := range documents {
		fmt.Fprintf(&b, "Document %d:\n%s\n\n", i+1, doc)
	}
	return b.String()
}

func newEngine(ctx context.Context, config ExtractorConfig) (ocr.Engine, error) {
	var engine ocr.Engine

	switch config.OCREngine {
	case "", "tesseract":
		e, err := tesseract.New(tesseract.WithLanguages(config.OCRLanguages...))
		if errors.Is(err, ocr.ErrNotEnabled) {
			return nil, fmt.Errorf("%w: build with -tags ocr or set OCR_ENGINE=azure|gemini", err)
		}
		if err != nil {
			return nil, err
		}
		engine = e
	case "azure":
		e, err := azure.New(config.AzureEndpoint, azure.WithToken(config.AzureKey))
		if err != nil {
			return nil, err
		}
		engine = e
	case "gemini":
		e, err := gemini.New(ctx, config.GeminiAPIKey)
		if err != nil {
			return nil, err
		}
		engine = e
	default:
		return nil, errors.New("unknown OCR engine")
	}

	return limiter.NewEngine(limiter.New(config.OCRRateLimit), engine), nil
}

func newCorrector(ctx context.Context, config ExtractorConfig) (corrector.Corrector, io.Closer, error) {
	var c corrector.Corrector
	var closer io.Closer

	switch config.Corrector {
	case "", "openai":
		oc, err := corrector.NewOpenAI(config.OpenAIAPIKey)
		if err != nil {
			return nil, nil, err
		}
		c = oc
	case "vertex":
		if config.ProjectID == "" {
			return nil, nil, errors.New("PROJECT_ID environment variable must be set")
		}
		vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create vertex client: %w", err)
		}
		c = corrector.NewVertex(vertexClient)
		closer = vertexClient
	default:
		return nil, nil, errors.New("unknown corrector")
	}

	return limiter.NewCorrector(limiter.New(config.CorrectionRateLimit), c), closer, nil
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
