package corrector_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lllllllleong/bulktextextractor/internal/corrector"

	"github.com/stretchr/testify/require"
)

const completionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o",
  "choices": [
    {"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hello World"}},
    {"index": 1, "finish_reason": "stop", "message": {"role": "assistant", "content": "Hallo Welt"}}
  ]
}`

type chatRequest struct {
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func TestOpenAICorrect(t *testing.T) {
	var got chatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionJSON))
	}))
	defer server.Close()

	c, err := corrector.NewOpenAI("test-key", corrector.WithURL(server.URL))
	require.NoError(t, err)

	request := corrector.NewRequest("Helo Wrld")

	text, err := c.Correct(context.Background(), request)
	require.NoError(t, err)
	require.Equal(t, "Hello World", text)

	require.Equal(t, corrector.OpenAIModel, got.Model)
	require.Equal(t, corrector.OpenAITemperature, got.Temperature)
	require.Len(t, got.Messages, 1)
	require.Equal(t, "user", got.Messages[0].Role)
	require.Equal(t, request, got.Messages[0].Content)
}

func TestOpenAICorrectNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "chatcmpl-2", "object": "chat.completion", "created": 1700000000, "model": "gpt-4o", "choices": []}`))
	}))
	defer server.Close()

	c, err := corrector.NewOpenAI("test-key", corrector.WithURL(server.URL))
	require.NoError(t, err)

	_, err = c.Correct(context.Background(), "x")
	require.ErrorIs(t, err, corrector.ErrEmptyCompletion)
}

func TestOpenAICorrectError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "bad request", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	c, err := corrector.NewOpenAI("test-key", corrector.WithURL(server.URL))
	require.NoError(t, err)

	_, err = c.Correct(context.Background(), "x")
	require.Error(t, err)
}

func TestNewOpenAIRequiresToken(t *testing.T) {
	_, err := corrector.NewOpenAI("")
	require.Error(t, err)
}
