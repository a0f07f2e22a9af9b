package gemini

import "net/http"

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithURL overrides the Gemini API base URL.
func WithURL(url string) Option {
	return func(c *Client) {
		c.url = url
	}
}

func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

var SupportedMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/webp",
	"image/heic",
	"image/heif",
}
