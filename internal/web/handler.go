// Package web serves the upload form, runs batches submitted through it and streams finished archives.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/bulktextextractor/internal/models"
	"github.com/Lllllllleong/bulktextextractor/internal/ocr"
	"github.com/Lllllllleong/bulktextextractor/internal/output"
	"github.com/Lllllllleong/bulktextextractor/internal/services"
	"github.com/google/uuid"
)

const maxMemory = 32 << 20

//go:embed templates/*.html
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// Extractor is the part of services.BatchExtractor the handler needs.
type Extractor interface {
	Process(ctx context.Context, images []ocr.Input, format string) (*services.BatchResult, error)
	OutputDir() string
}

// Handler routes by method and query only, so it works under any mount path.
type Handler struct {
	extractor Extractor
}

func New(extractor Extractor) *Handler {
	return &Handler{
		extractor: extractor,
	}
}

type pageData struct {
	Accept   string
	Formats  []output.Format
	Selected output.Format

	Message string

	BatchID     string
	ArchiveName string
	Text        string
	Preview     template.HTML
}

func newPageData(selected output.Format) pageData {
	if selected == "" {
		selected = output.FormatText
	}

	return pageData{
		Accept:   strings.Join(ocr.ImageContentTypes(), ","),
		Formats:  output.Formats(),
		Selected: selected,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		if batch := r.URL.Query().Get("batch"); batch != "" {
			h.handleDownload(w, r, batch)
			return
		}
		h.render(w, http.StatusOK, newPageData(""))
	case http.MethodPost:
		h.handleExtract(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	wantsJSON := acceptsJSON(r)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		slog.Error("Could not parse multipart form", "error", err)
		http.Error(w, "Bad Request: could not parse multipart form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	format := r.FormValue("format")

	images, err := readImages(r)
	if err != nil {
		slog.Error("Could not read uploaded images", "error", err)
		http.Error(w, "Bad Request: could not read uploaded images", http.StatusBadRequest)
		return
	}

	result, err := h.extractor.Process(r.Context(), images, format)

	if errors.Is(err, output.ErrInvalidFormat) {
		if wantsJSON {
			writeJSON(w, http.StatusBadRequest, &models.ExtractTextResponse{
				Status: "error",
				Text:   output.InvalidFormatMessage,
				Error:  output.InvalidFormatMessage,
			})
			return
		}

		data := newPageData("")
		data.Message = output.InvalidFormatMessage
		h.render(w, http.StatusBadRequest, data)
		return
	}

	if err != nil {
		// Process logs with batch context.
		if wantsJSON {
			writeJSON(w, http.StatusInternalServerError, &models.ExtractTextResponse{
				Status: "error",
				Error:  "processing failed",
			})
			return
		}
		http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		return
	}

	if wantsJSON {
		archive := result.ArchivePath
		writeJSON(w, http.StatusOK, &models.ExtractTextResponse{
			Status:        "success",
			BatchID:       result.BatchID,
			Text:          result.Text,
			Archive:       &archive,
			ArchiveGCSUri: result.ArchiveGCSUri,
		})
		return
	}

	preview, err := output.RenderMarkdown(result.Text)
	if err != nil {
		slog.Warn("Could not render markdown preview", "error", err, "batchId", result.BatchID)
	}

	data := newPageData(output.Format(format))
	data.BatchID = result.BatchID
	data.ArchiveName = filepath.Base(result.ArchivePath)
	data.Text = result.Text
	data.Preview = preview
	h.render(w, http.StatusOK, data)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request, batch string) {
	id, err := uuid.Parse(batch)
	if err != nil {
		http.Error(w, "Bad Request: invalid batch id", http.StatusBadRequest)
		return
	}
	batchID := id.String()
	name := output.ArchiveName(batchID)

	f, err := os.Open(filepath.Join(h.extractor.OutputDir(), batchID, name))
	if errors.Is(err, os.ErrNotExist) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		slog.Error("Could not open archive", "error", err, "batchId", batchID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("Could not stat archive", "error", err, "batchId", batchID)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

func readImages(r *http.Request) ([]ocr.Input, error) {
	var images []ocr.Input

	for _, fh := range r.MultipartForm.File["images"] {
		file, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}

		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}

		images = append(images, ocr.NewInput(filepath.Base(fh.Filename), content, fh.Header.Get("Content-Type")))
	}

	return images, nil
}

func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := page.Execute(w, data); err != nil {
		slog.Error("Failed to render page", "error", err)
	}
}

func acceptsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
