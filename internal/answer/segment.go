package answer

import (
	"regexp"
	"strings"
)

// Segmenter splits document text into ordered candidate answer units.
type Segmenter struct {
	boundaryRegex *regexp.Regexp
}

// NewSegmenter creates a segmenter with the splitting rules compiled.
func NewSegmenter() *Segmenter {
	return &Segmenter{
		// Sentence-terminal punctuation followed by whitespace, or a run
		// of newlines. No abbreviation or decimal special-casing.
		boundaryRegex: regexp.MustCompile(`[.!?]\s+|\n+`),
	}
}

// Segment turns raw text into ordered units. Line endings are normalized
// first; each piece has its whitespace runs collapsed to single spaces
// and is trimmed, and empty pieces are dropped. When no boundary matches
// anywhere, or every piece collapses to nothing, a single fallback unit
// carries the first FallbackMaxChars characters of the normalized text
// verbatim, so downstream stages always have at least one candidate.
func (s *Segmenter) Segment(text string) []Unit {
	normalized := normalizeNewlines(text)

	var units []Unit
	start := 0
	for _, loc := range s.boundaryRegex.FindAllStringIndex(normalized, -1) {
		end := loc[0]
		// The terminal punctuation stays with its sentence.
		if isTerminal(normalized[end]) {
			end++
		}
		if piece := cleanPiece(normalized[start:end]); piece != "" {
			units = append(units, Unit{Index: len(units), Text: piece})
		}
		start = loc[1]
	}
	if start > 0 {
		if piece := cleanPiece(normalized[start:]); piece != "" {
			units = append(units, Unit{Index: len(units), Text: piece})
		}
	}

	if len(units) == 0 {
		fallback := truncateRunes(normalized, FallbackMaxChars)
		if fallback == "" {
			return nil
		}
		units = append(units, Unit{Index: 0, Text: fallback})
	}
	return units
}

// cleanPiece collapses whitespace runs to single spaces and trims.
func cleanPiece(piece string) string {
	return strings.Join(strings.Fields(piece), " ")
}

func isTerminal(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
