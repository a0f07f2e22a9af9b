// Package ocr defines the engine abstraction the extraction pipeline runs images through.
// Engines are black boxes: they may be local libraries or remote APIs, and only the
// ordered line texts of a Result are consumed downstream.
package ocr

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

var (
	ErrUnsupported = errors.New("unsupported image type")
	ErrNotEnabled  = errors.New("ocr engine not enabled in this build")
)

// Engine recognizes text in a single image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (*Result, error)
}

// Input is one uploaded image.
type Input struct {
	Name string

	Content     []byte
	ContentType string
}

// Result holds the recognized lines of one image in reading order.
type Result struct {
	Lines []Line
}

// Line is a recognized text line. Confidence is in [0, 1]; zero means the engine did not report one.
type Line struct {
	Text string

	Confidence float64
	Polygon    [][2]float64 // [[x1, y1], [x2, y2], ...]
}

// Texts flattens the result to its line strings, keeping order and duplicates.
func (r *Result) Texts() []string {
	if r == nil {
		return nil
	}

	texts := make([]string, 0, len(r.Lines))
	for _, l := range r.Lines {
		texts = append(texts, l.Text)
	}
	return texts
}

// Text joins the recognized lines with newlines.
func (r *Result) Text() string {
	return strings.Join(r.Texts(), "\n")
}

var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".bmp":  "image/bmp",
	".gif":  "image/gif",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
}

// DetectContentType resolves the image MIME type from the file name, falling back to content sniffing.
func DetectContentType(name string, content []byte) string {
	if ct, ok := imageTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}

	if len(content) == 0 {
		return ""
	}

	ct := http.DetectContentType(content)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// IsImage reports whether the name or content type denotes an image the engines accept.
func IsImage(name, contentType string) bool {
	if _, ok := imageTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return true
	}

	return slices.Contains(ImageContentTypes(), contentType)
}

// ImageContentTypes lists the MIME types of supported images.
func ImageContentTypes() []string {
	var types []string
	for _, ct := range imageTypes {
		if !slices.Contains(types, ct) {
			types = append(types, ct)
		}
	}
	slices.Sort(types)
	return types
}

// NewInput builds an Input, detecting the content type when it is not given.
func NewInput(name string, content []byte, contentType string) Input {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = DetectContentType(name, content)
	}

	return Input{
		Name: name,

		Content:     content,
		ContentType: contentType,
	}
}
