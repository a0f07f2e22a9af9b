package corrector

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/bulktextextractor/internal/gcp"
)

var _ Corrector = (*Vertex)(nil)

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Vertex corrects text with the pre-configured Gemini model on Vertex AI.
type Vertex struct {
	model generator
}

func NewVertex(client *gcp.VertexClient) *Vertex {
	return &Vertex{model: client.CorrectorModel}
}

func (c *Vertex) Correct(ctx context.Context, request string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(request))
	if err != nil {
		return "", fmt.Errorf("failed to generate corrected content from gemini: %w", err)
	}

	text, ok := candidateText(resp)
	if !ok {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

// candidateText concatenates the text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			builder.WriteString(string(txt))
		}
	}
	return builder.String(), true
}
