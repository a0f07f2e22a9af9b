package output

import (
	"bytes"
	"strings"

	"github.com/fumiama/go-docx"
)

// Docx builds a word-processing document holding text in a single paragraph.
// Line breaks and tabs inside the text become w:br and w:tab elements of the paragraph.
func Docx(text string) ([]byte, error) {
	doc := docx.New().WithDefaultTheme()
	para := doc.AddParagraph()

	text = strings.ReplaceAll(text, "\r\n", "\n")

	var run *docx.Run
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			run.Children = append(run.Children, &docx.BarterRabbet{})
		}

		segments := strings.Split(line, "\t")
		for j, segment := range segments {
			run = para.AddText(segment)
			if j < len(segments)-1 {
				run.AddTab()
			}
		}
	}

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
