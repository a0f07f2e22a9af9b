// Package output serializes corrected documents and bundles them for download.
package output

import (
	"errors"
	"slices"
)

// Format is the file extension selected for a batch's output files.
type Format string

const (
	FormatText Format = ".txt"
	FormatDocx Format = ".docx"
	FormatJSON Format = ".json"
)

// InvalidFormatMessage is shown to users who select an unsupported format.
const InvalidFormatMessage = "Invalid output format selected."

var ErrInvalidFormat = errors.New("invalid output format")

// Formats lists the supported formats in the order they are offered to users.
func Formats() []Format {
	return []Format{FormatText, FormatDocx, FormatJSON}
}

// ParseFormat accepts exactly one of the supported literals.
func ParseFormat(value string) (Format, error) {
	f := Format(value)
	if !slices.Contains(Formats(), f) {
		return "", ErrInvalidFormat
	}
	return f, nil
}

func (f Format) String() string {
	return string(f)
}
