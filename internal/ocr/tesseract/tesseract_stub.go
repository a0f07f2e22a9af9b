//go:build !ocr

// Package tesseract runs OCR locally through libtesseract.
//
// This build was made without the "ocr" tag, so New always fails with
// ocr.ErrNotEnabled. Rebuild with:
//
//	go build -tags ocr ./...
package tesseract

import (
	"context"

	"github.com/Lllllllleong/bulktextextractor/internal/ocr"
)

// Enabled reports whether this build links libtesseract.
const Enabled = false

var _ ocr.Engine = (*Engine)(nil)

type Engine struct{}

func New(options ...Option) (*Engine, error) {
	return nil, ocr.ErrNotEnabled
}

func (e *Engine) Name() string { return "tesseract" }

func (e *Engine) Recognize(ctx context.Context, input ocr.Input) (*ocr.Result, error) {
	return nil, ocr.ErrNotEnabled
}
