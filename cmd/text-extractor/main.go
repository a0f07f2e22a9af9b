package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/bulktextextractor/internal/gcp"
	"github.com/Lllllllleong/bulktextextractor/internal/services"
	"github.com/Lllllllleong/bulktextextractor/internal/web"
)

var (
	handler *web.Handler
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// "BulkTextExtractor" is the entry point name configured in GCP.
	functions.HTTP("BulkTextExtractor", bulkTextExtractor)
}

func main() {
	port := gcp.GetEnv("PORT", "8080")
	slog.Info("Serving locally.", "port", port)

	if err := funcframework.Start(port); err != nil {
		slog.Error("funcframework.Start failed", "error", err)
		os.Exit(1)
	}
}

func bulkTextExtractor(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		var extractor *services.BatchExtractor
		extractor, initErr = services.NewExtractor(context.Background())
		if initErr == nil {
			handler = web.New(extractor)
		}
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	handler.ServeHTTP(w, r)
}
