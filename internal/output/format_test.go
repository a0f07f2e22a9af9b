package output_test

import (
	"testing"

	"github.com/Lllllllleong/bulktextextractor/internal/output"

	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	for _, value := range []string{".txt", ".docx", ".json"} {
		f, err := output.ParseFormat(value)
		require.NoError(t, err)
		require.Equal(t, value, f.String())
	}

	for _, value := range []string{"pdf", ".pdf", "txt", ".TXT", "", " .txt"} {
		_, err := output.ParseFormat(value)
		require.ErrorIs(t, err, output.ErrInvalidFormat, value)
	}
}

func TestFormats(t *testing.T) {
	require.Equal(t, []output.Format{output.FormatText, output.FormatDocx, output.FormatJSON}, output.Formats())
}
