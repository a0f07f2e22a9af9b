package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Document is the JSON representation of one corrected document.
type Document struct {
	CorrectedText string `json:"corrected_text"`
}

// FileName returns a fresh output file name for the format.
func FileName(format Format) string {
	return "corrected_text_" + uuid.NewString() + format.String()
}

// Write serializes text into a new uniquely named file in dir and returns its path.
func Write(dir string, format Format, text string) (string, error) {
	path := filepath.Join(dir, FileName(format))

	var data []byte
	var err error

	switch format {
	case FormatText:
		data = []byte(text)
	case FormatDocx:
		data, err = Docx(text)
	case FormatJSON:
		data, err = JSON(text)
	default:
		return "", ErrInvalidFormat
	}
	if err != nil {
		return "", fmt.Errorf("failed to encode %s document: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write output file: %w", err)
	}
	return path, nil
}

// JSON encodes text as {"corrected_text": ...} with four-space indentation and no HTML escaping.
func JSON(text string) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")

	if err := enc.Encode(Document{CorrectedText: text}); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
