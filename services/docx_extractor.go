package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"docqa-platform/models"
)

// DOCXExtractor extracts text from Word documents. A .docx file is a ZIP
// container; the document body lives in word/document.xml.
type DOCXExtractor struct{}

// NewDOCXExtractor creates a new DOCX extractor
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// ExtractText extracts the document body text
func (e *DOCXExtractor) ExtractText(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("not a valid docx container: %w", err)
	}

	text, err := extractDocumentXML(reader)
	if err != nil {
		return nil, err
	}

	return &ExtractionResult{
		Text:         text,
		Pages:        1,
		Method:       models.ExtractionMethodDOCX,
		QualityScore: evaluateTextQuality(text),
	}, nil
}

func extractDocumentXML(reader *zip.Reader) (string, error) {
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document.xml: %w", err)
		}

		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read document.xml: %w", err)
		}

		return parseDocumentXML(raw)
	}
	return "", fmt.Errorf("docx container has no word/document.xml")
}

// documentXML mirrors the parts of word/document.xml we care about:
// paragraphs containing runs containing text elements.
type documentXML struct {
	Body struct {
		Paragraphs []docParagraph `xml:"p"`
	} `xml:"body"`
}

type docParagraph struct {
	Runs []docRun `xml:"r"`
}

type docRun struct {
	Text []docText `xml:"t"`
}

type docText struct {
	Content string `xml:",chardata"`
}

func parseDocumentXML(raw []byte) (string, error) {
	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var result strings.Builder
	for i, para := range doc.Body.Paragraphs {
		if i > 0 {
			result.WriteString("\n")
		}
		for _, run := range para.Runs {
			for _, t := range run.Text {
				result.WriteString(t.Content)
			}
		}
	}

	return strings.TrimSpace(result.String()), nil
}
