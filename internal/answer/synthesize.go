package answer

import (
	"strings"
)

// synthesizeAnswer joins the matched units into one bounded answer
// string. Matches are taken in score order; units whose trimmed text is
// empty or exactly equal to an already accepted text are skipped.
// Returns "" when nothing usable remains.
func synthesizeAnswer(matches []ScoredUnit) string {
	used := make(map[string]bool, len(matches))
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		text := strings.TrimSpace(m.Unit.Text)
		if text == "" || used[text] {
			continue
		}
		used[text] = true
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return ""
	}
	return truncateRunes(strings.Join(parts, " "), AnswerMaxChars)
}
