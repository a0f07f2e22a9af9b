package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// CorrectorModelName is the Gemini model used when corrections run on Vertex AI.
const CorrectorModelName = "gemini-1.5-pro"

// CorrectorTemperature matches the sampling temperature of the default OpenAI corrector.
const CorrectorTemperature float32 = 0.5

// VertexClient holds the pre-configured generative model used for OCR correction.
type VertexClient struct {
	CorrectorModel *genai.GenerativeModel
	baseClient     *genai.Client
}

// NewVertexClient creates a new client holding the corrector model.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	correctorModel := baseClient.GenerativeModel(CorrectorModelName)
	correctorModel.SetTemperature(CorrectorTemperature)
	correctorModel.SetCandidateCount(1)

	return &VertexClient{
		CorrectorModel: correctorModel,
		baseClient:     baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
