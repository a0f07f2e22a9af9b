//go:build ocr

// Package tesseract runs OCR locally through libtesseract.
//
// It requires Tesseract and its development headers to be installed and the
// "ocr" build tag:
//
//	go build -tags ocr ./...
package tesseract

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Lllllllleong/bulktextextractor/internal/ocr"

	"github.com/otiai10/gosseract/v2"
)

// Enabled reports whether this build links libtesseract.
const Enabled = true

var _ ocr.Engine = (*Engine)(nil)

// Engine recognizes text lines with a fresh gosseract client per image.
type Engine struct {
	config

	clientFactory func() *gosseract.Client
}

func New(options ...Option) (*Engine, error) {
	e := &Engine{
		config: config{
			languages: []string{"eng"},
		},

		clientFactory: gosseract.NewClient,
	}

	for _, option := range options {
		option(&e.config)
	}

	return e, nil
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, input ocr.Input) (*ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if input.ContentType != "" && !slices.Contains(SupportedMimeTypes, input.ContentType) {
		return nil, ocr.ErrUnsupported
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(input.Content); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	if len(e.languages) > 0 {
		if err := c.SetLanguage(e.languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize lines: %w", err)
	}

	result := &ocr.Result{
		Lines: make([]ocr.Line, 0, len(boxes)),
	}

	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}

		result.Lines = append(result.Lines, ocr.Line{
			Text: text,

			Confidence: b.Confidence / 100.0,
			Polygon: [][2]float64{
				{float64(b.Box.Min.X), float64(b.Box.Min.Y)},
				{float64(b.Box.Max.X), float64(b.Box.Min.Y)},
				{float64(b.Box.Max.X), float64(b.Box.Max.Y)},
				{float64(b.Box.Min.X), float64(b.Box.Max.Y)},
			},
		})
	}

	return result, nil
}
