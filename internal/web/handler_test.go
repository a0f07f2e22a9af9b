package web_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lllllllleong/bulktextextractor/internal/models"
	"github.com/Lllllllleong/bulktextextractor/internal/ocr"
	"github.com/Lllllllleong/bulktextextractor/internal/output"
	"github.com/Lllllllleong/bulktextextractor/internal/services"
	"github.com/Lllllllleong/bulktextextractor/internal/web"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeExtractor struct {
	dir string
	err error

	images []ocr.Input
	format string
}

func (e *fakeExtractor) OutputDir() string { return e.dir }

func (e *fakeExtractor) Process(ctx context.Context, images []ocr.Input, format string) (*services.BatchResult, error) {
	e.images = images
	e.format = format

	if _, err := output.ParseFormat(format); err != nil {
		return nil, err
	}
	if e.err != nil {
		return nil, e.err
	}

	batchID := uuid.NewString()
	dir := filepath.Join(e.dir, batchID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var documents []string
	for _, image := range images {
		documents = append(documents, "# "+image.Name+"\n\n| Item | Done |\n|---|---|\n| Milk | x |")
	}

	archive := filepath.Join(dir, output.ArchiveName(batchID))
	if err := output.CreateArchive(archive, nil); err != nil {
		return nil, err
	}

	return &services.BatchResult{
		BatchID:     batchID,
		Dir:         dir,
		Text:        services.DisplayText(documents),
		Documents:   documents,
		ArchivePath: archive,
	}, nil
}

func newUpload(t *testing.T, format string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for name, content := range files {
		fw, err := mw.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("format", format))
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func postUpload(t *testing.T, h http.Handler, format string, files map[string]string, accept string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := newUpload(t, format, files)

	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", contentType)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestForm(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")

	body := rec.Body.String()
	require.Contains(t, body, "<h1>Bulk Text Extractor</h1>")
	require.Contains(t, body, `name="images"`)
	require.Contains(t, body, `value=".txt" checked`)
	require.Contains(t, body, `value=".docx"`)
	require.Contains(t, body, `value=".json"`)
	require.Contains(t, body, "Extract Text")
}

func TestExtractJSON(t *testing.T) {
	extractor := &fakeExtractor{dir: t.TempDir()}
	h := web.New(extractor)

	rec := postUpload(t, h, ".json", map[string]string{"scan.png": "png bytes"}, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.ExtractTextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	require.Equal(t, "success", res.Status)
	require.NotEmpty(t, res.BatchID)
	require.Contains(t, res.Text, "Document 1:\n# scan.png")
	require.NotNil(t, res.Archive)
	require.FileExists(t, *res.Archive)

	require.Equal(t, ".json", extractor.format)
	require.Len(t, extractor.images, 1)
	require.Equal(t, "scan.png", extractor.images[0].Name)
	require.Equal(t, "image/png", extractor.images[0].ContentType)
	require.Equal(t, []byte("png bytes"), extractor.images[0].Content)
}

func TestExtractInvalidFormatJSON(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir()})

	rec := postUpload(t, h, ".pdf", map[string]string{"scan.png": "png"}, "application/json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), `"archive":null`)

	var res models.ExtractTextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, output.InvalidFormatMessage, res.Text)
	require.Nil(t, res.Archive)
}

func TestExtractInvalidFormatPage(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir()})

	rec := postUpload(t, h, "", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), output.InvalidFormatMessage)
	require.NotContains(t, rec.Body.String(), "?batch=")
}

func TestExtractPage(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir()})

	rec := postUpload(t, h, ".docx", map[string]string{"a.jpg": "jpg"}, "text/html")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	require.Contains(t, body, "Document 1:")
	require.Contains(t, body, "<h1>a.jpg</h1>")
	require.Contains(t, body, "<td>Milk</td>")
	require.Contains(t, body, "?batch=")
	require.Contains(t, body, `value=".docx" checked`)
}

func TestExtractFailure(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir(), err: errors.New("ocr failed")})

	rec := postUpload(t, h, ".txt", map[string]string{"a.png": "png"}, "application/json")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var res models.ExtractTextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Equal(t, "error", res.Status)
	require.Nil(t, res.Archive)

	rec = postUpload(t, h, ".txt", map[string]string{"a.png": "png"}, "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestExtractRejectsNonMultipart(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir()})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString("format=.txt"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir()})

	rec := postUpload(t, h, ".txt", map[string]string{"a.png": "png"}, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.ExtractTextResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?batch="+res.BatchID, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), output.ArchiveName(res.BatchID))

	_, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
	require.NoError(t, err)
}

func TestDownloadRejectsBadIDs(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?batch=../../etc", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?batch="+uuid.NewString(), nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h := web.New(&fakeExtractor{dir: t.TempDir()})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
