package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/bulktextextractor/internal/gcp"
	"github.com/Lllllllleong/bulktextextractor/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	uploadInstance *services.UploadFunction
	once           sync.Once
	initErr        error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ExtractOnUpload", extractOnUpload)
}

func main() {
	port := gcp.GetEnv("PORT", "8080")
	if err := funcframework.Start(port); err != nil {
		slog.Error("funcframework.Start failed", "error", err)
		os.Exit(1)
	}
}

// extractOnUpload runs a one-image batch for a finalized GCS object.
func extractOnUpload(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		uploadInstance, initErr = services.NewUploadTrigger(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Errors are logged with context inside Process. Returning one marks the invocation as failed.
	return uploadInstance.Process(ctx, gcsEvent)
}
