package corrector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	OpenAIModel       = "gpt-4o"
	OpenAITemperature = 0.5
)

var _ Corrector = (*OpenAI)(nil)

// OpenAI corrects text with the chat completions API.
type OpenAI struct {
	url   string
	token string

	client *http.Client

	completions openai.ChatCompletionService
}

type OpenAIOption func(*OpenAI)

func WithURL(url string) OpenAIOption {
	return func(c *OpenAI) {
		c.url = url
	}
}

func WithClient(client *http.Client) OpenAIOption {
	return func(c *OpenAI) {
		c.client = client
	}
}

func NewOpenAI(token string, options ...OpenAIOption) (*OpenAI, error) {
	if token == "" {
		return nil, errors.New("missing OPENAI_API_KEY")
	}

	c := &OpenAI{
		url:   "https://api.openai.com/v1/",
		token: token,

		client: http.DefaultClient,
	}

	for _, option := range options {
		option(c)
	}

	c.completions = openai.NewChatCompletionService(
		option.WithBaseURL(strings.TrimRight(c.url, "/")+"/"),
		option.WithHTTPClient(c.client),
		option.WithAPIKey(c.token),
	)

	return c, nil
}

func (c *OpenAI) Correct(ctx context.Context, request string) (string, error) {
	completion, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Model: OpenAIModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(request),
		},
		Temperature: openai.Float(OpenAITemperature),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return completion.Choices[0].Message.Content, nil
}
