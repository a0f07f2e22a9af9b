package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Lllllllleong/bulktextextractor/internal/ocr"

	"github.com/stretchr/testify/require"
)

func TestParseLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"plain", "Helo Wrld\nSecond line", []string{"Helo Wrld", "Second line"}},
		{"blank lines dropped", "a\n\n  \nb\r\n", []string{"a", "b"}},
		{"code fence", "```text\nfirst\nsecond\n```", []string{"first", "second"}},
		{"empty", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, l := range parseLines(tt.in) {
				got = append(got, l.Text)
			}
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRecognize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "gemini-2.5-flash:generateContent"), r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.NotEmpty(t, body["contents"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates": [{"content": {"role": "model", "parts": [{"text": "Helo Wrld\nSecond line\n"}]}}]}`))
	}))
	defer server.Close()

	c, err := New(context.Background(), "test-key", WithURL(server.URL))
	require.NoError(t, err)

	result, err := c.Recognize(context.Background(), ocr.Input{
		Name:        "scan.png",
		Content:     []byte("png"),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	require.Equal(t, "Helo Wrld\nSecond line", result.Text())
}

func TestRecognizeUnsupported(t *testing.T) {
	c, err := New(context.Background(), "test-key")
	require.NoError(t, err)

	_, err = c.Recognize(context.Background(), ocr.Input{ContentType: "image/tiff"})
	require.ErrorIs(t, err, ocr.ErrUnsupported)
}

func TestNewRequiresToken(t *testing.T) {
	_, err := New(context.Background(), "")
	require.Error(t, err)
}
