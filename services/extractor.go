package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"docqa-platform/internal/config"
	"docqa-platform/models"
)

// ExtractionResult contains the result of text extraction
type ExtractionResult struct {
	Text           string
	Pages          int
	Method         string
	QualityScore   float64
	ProcessingTime time.Duration
	WordCount      int
	CharacterCount int
}

// Extractor dispatches uploads to the right format-specific extractor
type Extractor struct {
	pdf  *PDFExtractor
	docx *DOCXExtractor
	text *TextExtractor
}

// NewExtractor creates the extraction dispatcher. ocr may be nil when no
// OCR sidecar is configured.
func NewExtractor(cfg *config.Config, ocr *OCRClient) *Extractor {
	return &Extractor{
		pdf:  NewPDFExtractor(cfg, ocr),
		docx: NewDOCXExtractor(),
		text: NewTextExtractor(),
	}
}

// DetectFormat sniffs the document format from magic bytes, falling back to
// the filename extension. Returns "" when the content is not a supported
// format.
func DetectFormat(content []byte, filename string) string {
	if bytes.HasPrefix(content, []byte("%PDF-")) {
		return models.FormatPDF
	}
	if bytes.HasPrefix(content, []byte("PK\x03\x04")) {
		// Any OOXML container; trust the extension to distinguish
		if strings.HasSuffix(strings.ToLower(filename), ".docx") {
			return models.FormatDOCX
		}
		return ""
	}
	if looksLikeText(content) {
		return models.FormatTXT
	}
	return ""
}

// Extract runs the extractor for the given format and fills in timing,
// word and character counts.
func (e *Extractor) Extract(ctx context.Context, content []byte, format string) (*ExtractionResult, error) {
	start := time.Now()

	var (
		result *ExtractionResult
		err    error
	)

	switch format {
	case models.FormatPDF:
		result, err = e.pdf.ExtractText(ctx, content)
	case models.FormatDOCX:
		result, err = e.docx.ExtractText(ctx, content)
	case models.FormatTXT:
		result, err = e.text.ExtractText(ctx, content)
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}

	if err != nil {
		return nil, err
	}

	result.ProcessingTime = time.Since(start)
	words := strings.Fields(result.Text)
	result.WordCount = len(words)
	result.CharacterCount = len(result.Text)

	return result, nil
}

// looksLikeText reports whether content is plausibly a plain-text document:
// valid UTF-8 in its first kilobytes with no NUL bytes.
func looksLikeText(content []byte) bool {
	if len(content) == 0 {
		return true
	}

	sample := content
	if len(sample) > 4096 {
		sample = sample[:4096]
		// Trim at most one split trailing rune
		for i := 0; i < 3 && len(sample) > 0 && !utf8.Valid(sample); i++ {
			sample = sample[:len(sample)-1]
		}
	}

	if bytes.IndexByte(sample, 0x00) >= 0 {
		return false
	}
	return utf8.Valid(sample)
}
