package services

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/internal/logger"
	"docqa-platform/models"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor handles robust PDF text extraction
type PDFExtractor struct {
	config *config.Config
	ocr    *OCRClient
}

// NewPDFExtractor creates a new PDF extractor. ocr may be nil.
func NewPDFExtractor(cfg *config.Config, ocr *OCRClient) *PDFExtractor {
	return &PDFExtractor{
		config: cfg,
		ocr:    ocr,
	}
}

// ExtractText extracts text from PDF content using multiple methods with
// fallbacks. Native extraction runs first; the OCR sidecar is the last
// resort for scanned documents.
func (e *PDFExtractor) ExtractText(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return nil, fmt.Errorf("context deadline exceeded before extraction")
		}
	}

	methods := []struct {
		name    string
		extract func(context.Context, []byte) (*ExtractionResult, error)
	}{
		{models.ExtractionMethodPDF, e.extractNative},
		{"poppler", e.extractWithPoppler},
		{models.ExtractionMethodOCR, e.extractWithOCR},
	}

	var lastErr error
	var bestResult *ExtractionResult

	for _, method := range methods {
		result, err := method.extract(ctx, content)
		if err != nil {
			logger.Debug("pdf extraction method failed", "method", method.name, "error", err)
			lastErr = err
			continue
		}

		result.Method = method.name
		result.QualityScore = evaluateTextQuality(result.Text)

		logger.Debug("pdf extraction method finished",
			"method", method.name,
			"chars", len(result.Text),
			"quality", result.QualityScore,
		)

		if result.QualityScore >= 0.7 {
			return result, nil
		}

		if bestResult == nil || result.QualityScore > bestResult.QualityScore {
			bestResult = result
		}
	}

	// A parsed document with poor or empty text still beats an error: the
	// caller records the quality score and empty text has its own handling.
	if bestResult != nil {
		logger.Debug("using best available extraction", "method", bestResult.Method, "quality", bestResult.QualityScore)
		return bestResult, nil
	}

	return nil, fmt.Errorf("all extraction methods failed: %v", lastErr)
}

// extractNative uses the pure-Go PDF library
func (e *PDFExtractor) extractNative(ctx context.Context, content []byte) (*ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF reader: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Debug("page text extraction failed", "page", i, "error", err)
			continue
		}

		if textBuilder.Len() > 0 {
			textBuilder.WriteString("\n\n")
		}
		textBuilder.WriteString(text)
	}

	// Empty text is not an error: the document may be a scan with no text
	// layer, which the OCR fallback or the empty-text upload path handles.
	return &ExtractionResult{
		Text:  textBuilder.String(),
		Pages: pages,
	}, nil
}

// extractWithPoppler uses poppler-utils (pdftotext) for extraction
func (e *PDFExtractor) extractWithPoppler(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if !hasBinary("pdftotext") {
		return nil, fmt.Errorf("pdftotext not available")
	}

	extractCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(extractCtx, "pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftotext failed: %v, stderr: %s", err, stderr.String())
	}

	extractedText := stdout.String()

	return &ExtractionResult{
		Text:  extractedText,
		Pages: strings.Count(extractedText, "\f") + 1,
	}, nil
}

// extractWithOCR sends the document to the OCR sidecar, if one is configured
func (e *PDFExtractor) extractWithOCR(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if e.ocr == nil || !e.ocr.Enabled() {
		return nil, fmt.Errorf("OCR service not configured")
	}
	return e.ocr.ExtractText(ctx, content, "document.pdf")
}

// evaluateTextQuality assesses the quality of extracted text on a 0..1 scale
func evaluateTextQuality(text string) float64 {
	if len(text) == 0 {
		return 0.0
	}

	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int

	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == ' ' || r == '\n' || r == '\t':
			printable++
		case r == '.' || r == ',' || r == ';' || r == ':' || r == '!' || r == '?' || r == '-' || r == '_':
			printable++
		case r == '�':
			corrupted++
		case r >= 32 && r <= 126:
			printable++
		default:
			if r > 127 && !isCommonUnicodeChar(r) {
				corrupted++
			} else {
				printable++
			}
		}
	}

	total := len([]rune(text))
	if total == 0 {
		return 0.0
	}

	alphanumericRatio := float64(alphanumeric) / float64(total)
	printableRatio := float64(printable) / float64(total)
	corruptedRatio := float64(corrupted) / float64(total)

	score := 0.0

	score += printableRatio * 0.4

	if alphanumericRatio >= 0.3 {
		score += 0.3
	} else {
		score += alphanumericRatio
	}

	score -= corruptedRatio * 2.0

	if len(text) > 100 {
		score += 0.1
	}

	if hasGoodPatterns(text) {
		score += 0.2
	}

	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	return score
}

// isCommonUnicodeChar checks if a character is a common Unicode character
func isCommonUnicodeChar(r rune) bool {
	common := []rune{'—', '"', '"', '‘', '’', '…', '€', '£', '¥', '©', '®', '™'}
	for _, c := range common {
		if r == c {
			return true
		}
	}
	return false
}

// hasGoodPatterns checks for patterns that indicate good text extraction
func hasGoodPatterns(text string) bool {
	patterns := []string{
		`\b[A-Z][a-z]+\b`,       // Capitalized words
		`\b\d{1,3}[,.]?\d{3}\b`, // Numbers with separators
		`[.!?]\s+[A-Z]`,         // Sentence boundaries
		`\b(the|and|or|of|to|in|for|with|on|at|by|from)\b`, // Common words
	}

	goodPatterns := 0
	for _, pattern := range patterns {
		if matched, _ := regexp.MatchString(pattern, text); matched {
			goodPatterns++
		}
	}

	return goodPatterns >= 3
}

// hasBinary checks if a binary executable exists in PATH
func hasBinary(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
