package services

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"docqa-platform/models"
)

// TextExtractor handles plain-text uploads
type TextExtractor struct{}

// NewTextExtractor creates a new plain-text extractor
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ExtractText validates the content as UTF-8 and strips a leading BOM.
// Invalid byte sequences are replaced rather than rejected so that
// almost-clean files still make it through.
func (e *TextExtractor) ExtractText(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	var text string
	if utf8.Valid(content) {
		text = string(content)
	} else {
		text = strings.ToValidUTF8(string(content), string(utf8.RuneError))
	}

	return &ExtractionResult{
		Text:         text,
		Pages:        1,
		Method:       models.ExtractionMethodPlain,
		QualityScore: evaluateTextQuality(text),
	}, nil
}
