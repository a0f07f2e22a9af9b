package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/Lllllllleong/bulktextextractor/internal/ocr"
)

var _ ocr.Engine = (*Client)(nil)

// Client recognizes text with the Azure AI Document Intelligence read model.
type Client struct {
	client *http.Client

	url   string
	token string

	interval time.Duration
}

func New(url string, options ...Option) (*Client, error) {
	if url == "" {
		return nil, errors.New("invalid url")
	}

	c := &Client{
		client: http.DefaultClient,

		url: url,

		interval: 2 * time.Second,
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

func (c *Client) Name() string { return "azure" }

func (c *Client) Recognize(ctx context.Context, input ocr.Input) (*ocr.Result, error) {
	if !slices.Contains(SupportedMimeTypes, input.ContentType) {
		return nil, ocr.ErrUnsupported
	}

	u, _ := url.Parse(strings.TrimRight(c.url, "/") + "/documentintelligence/documentModels/prebuilt-read:analyze")

	query := u.Query()
	query.Set("api-version", "2024-11-30")

	u.RawQuery = query.Encode()

	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(input.Content))
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.token)

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		return nil, convertError(resp)
	}

	operationURL := resp.Header.Get("Operation-Location")

	if operationURL == "" {
		return nil, errors.New("missing operation location")
	}

	for {
		operation, err := c.poll(ctx, operationURL)

		if err != nil {
			return nil, err
		}

		if operation.Status == OperationStatusRunning || operation.Status == OperationStatusNotStarted {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.interval):
			}

			continue
		}

		if operation.Status != OperationStatusSucceeded {
			return nil, errors.New("operation " + string(operation.Status))
		}

		return convertResult(&operation.Result), nil
	}
}

func (c *Client) poll(ctx context.Context, operationURL string) (*AnalyzeOperation, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, nil)
	req.Header.Set("Ocp-Apim-Subscription-Key", c.token)

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	var operation AnalyzeOperation

	if err := json.NewDecoder(resp.Body).Decode(&operation); err != nil {
		return nil, err
	}

	return &operation, nil
}

func convertResult(result *AnalyzeResult) *ocr.Result {
	out := &ocr.Result{
		Lines: []ocr.Line{},
	}

	for _, page := range result.Pages {
		for _, line := range page.Lines {
			out.Lines = append(out.Lines, ocr.Line{
				Text: line.Content,

				Confidence: lineConfidence(line, page.Words),
				Polygon:    convertPolygon(line.Polygon),
			})
		}
	}

	return out
}

// lineConfidence averages the confidence of the words covered by the line's spans.
func lineConfidence(line Line, words []Word) float64 {
	var sum float64
	var count int

	for _, w := range words {
		for _, s := range line.Spans {
			if s.contains(w.Span) {
				sum += w.Confidence
				count++
				break
			}
		}
	}

	if count == 0 {
		return 0
	}

	return sum / float64(count)
}

func convertPolygon(polygon []float64) [][2]float64 {
	if len(polygon)%2 != 0 {
		return nil
	}

	result := make([][2]float64, 0, len(polygon)/2)

	for i := 0; i < len(polygon); i += 2 {
		result = append(result, [2]float64{
			polygon[i],
			polygon[i+1],
		})
	}

	return result
}

func convertError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	if len(data) == 0 {
		return errors.New(http.StatusText(resp.StatusCode))
	}

	return errors.New(string(data))
}
