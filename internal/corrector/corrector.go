// Package corrector turns raw OCR text into cleaned, Markdown-formatted text using a language model.
package corrector

import (
	"context"
	"errors"
	"strings"
)

var ErrEmptyCompletion = errors.New("correction service returned no completion")

// Corrector submits one correction request and returns the first completion's text verbatim.
type Corrector interface {
	Correct(ctx context.Context, request string) (string, error)
}

// Instruction is prepended to the recognized text of every image.
const Instruction = `
Correct OCR-induced errors in the text, ensuring it flows coherently with the previous context. Follow these guidelines:
1. Fix OCR-induced typos and errors:
- Correct words split across line breaks
- Fix common OCR errors (e.g., 'rn' misread as 'm', 'e' as 'c', 'h' as 'li', and 'f' as 'r')
- Use context and common sense to correct errors
- Only fix clear errors, don't alter the content unnecessarily
- Do not add extra periods or any unnecessary punctuation
2. Maintain original structure:
- Keep all headings and subheadings intact
3. Maintain coherence:
- Ensure the content connects smoothly with the previous context
- Handle text that starts or ends mid-sentence appropriately
After you correct the mistakes, format the text in markdown.
When appropriate, place content in tables (e.g., when a word is followed by x, consider this a check and place this x and the value both in a table).
Don't add any new text at the beginning or at the end, such as 'Document 1:'.
Text to correct:
`

// NewRequest builds the correction request for a block of recognized text.
func NewRequest(raw string) string {
	return Instruction + raw
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// LooksLikeRefusal reports whether a completion reads like the model declined the request.
func LooksLikeRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
