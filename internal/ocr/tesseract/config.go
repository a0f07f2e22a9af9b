package tesseract

type config struct {
	languages []string
}

type Option func(*config)

// WithLanguages sets the Tesseract trained-data languages (e.g. "eng", "deu").
func WithLanguages(languages ...string) Option {
	return func(c *config) {
		c.languages = append([]string(nil), languages...)
	}
}

var SupportedMimeTypes = []string{
	"image/png",
	"image/jpeg",
	"image/bmp",
	"image/gif",
	"image/tiff",
	"image/webp",
}
