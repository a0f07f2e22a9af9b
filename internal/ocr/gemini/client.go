package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/Lllllllleong/bulktextextractor/internal/ocr"

	"google.golang.org/genai"
)

var _ ocr.Engine = (*Client)(nil)

const transcribePrompt = `Transcribe every line of text visible in this image exactly as written.
Return one line of output per line of text, top to bottom.
Do not correct spelling, do not translate, do not add commentary or code fences.
If the image contains no text, return nothing.`

// Client uses a Gemini vision model as an OCR engine.
type Client struct {
	client *http.Client

	url   string
	token string
	model string

	genai *genai.Client
}

func New(ctx context.Context, token string, options ...Option) (*Client, error) {
	if token == "" {
		return nil, errors.New("missing GEMINI_API_KEY")
	}

	c := &Client{
		client: http.DefaultClient,

		token: token,
		model: "gemini-2.5-flash",
	}

	for _, option := range options {
		option(c)
	}

	cfg := &genai.ClientConfig{
		APIKey:     c.token,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.client,
	}

	if c.url != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.url}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	c.genai = client
	return c, nil
}

func (c *Client) Name() string { return "gemini" }

func (c *Client) Recognize(ctx context.Context, input ocr.Input) (*ocr.Result, error) {
	if !slices.Contains(SupportedMimeTypes, input.ContentType) {
		return nil, ocr.ErrUnsupported
	}

	content := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: transcribePrompt},
			{InlineData: &genai.Blob{MIMEType: input.ContentType, Data: input.Content}},
		},
	}

	var temperature float32

	res, err := c.genai.Models.GenerateContent(ctx, c.model, []*genai.Content{content}, &genai.GenerateContentConfig{
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return &ocr.Result{
		Lines: parseLines(res.Text()),
	}, nil
}

func parseLines(text string) []ocr.Line {
	text = stripCodeFences(text)

	lines := []ocr.Line{}

	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimRight(l, " \t\r")
		if strings.TrimSpace(l) == "" {
			continue
		}

		lines = append(lines, ocr.Line{Text: l})
	}

	return lines
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i != -1 {
			s = s[i+1:]
		} else {
			s = ""
		}
	}

	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}
