package answer

import (
	"strings"
	"testing"
)

func TestSynthesizeDeduplicatesAndJoins(t *testing.T) {
	matches := []ScoredUnit{
		{Unit: Unit{Index: 0, Text: "The sky is blue."}, Score: 0.9},
		{Unit: Unit{Index: 1, Text: "The sky is blue."}, Score: 0.8},
		{Unit: Unit{Index: 2, Text: "Water is wet."}, Score: 0.5},
	}
	got := synthesizeAnswer(matches)
	want := "The sky is blue. Water is wet."
	if got != want {
		t.Fatalf("answer = %q, want %q", got, want)
	}
}

func TestSynthesizeDedupIsCaseSensitive(t *testing.T) {
	matches := []ScoredUnit{
		{Unit: Unit{Index: 0, Text: "Sky."}, Score: 0.9},
		{Unit: Unit{Index: 1, Text: "sky."}, Score: 0.8},
	}
	if got := synthesizeAnswer(matches); got != "Sky. sky." {
		t.Fatalf("answer = %q, want %q", got, "Sky. sky.")
	}
}

func TestSynthesizeSkipsEmptyUnits(t *testing.T) {
	matches := []ScoredUnit{
		{Unit: Unit{Index: 0, Text: "   "}, Score: 0.9},
		{Unit: Unit{Index: 1, Text: "kept"}, Score: 0.5},
	}
	if got := synthesizeAnswer(matches); got != "kept" {
		t.Fatalf("answer = %q, want %q", got, "kept")
	}

	onlyEmpty := []ScoredUnit{{Unit: Unit{Index: 0, Text: " \t"}, Score: 0.9}}
	if got := synthesizeAnswer(onlyEmpty); got != "" {
		t.Fatalf("answer = %q, want empty", got)
	}
}

func TestSynthesizeLengthCap(t *testing.T) {
	long := strings.Repeat("w", 900)
	matches := []ScoredUnit{
		{Unit: Unit{Index: 0, Text: long}, Score: 0.9},
		{Unit: Unit{Index: 1, Text: long + "x"}, Score: 0.8},
	}
	got := synthesizeAnswer(matches)
	if n := len([]rune(got)); n != AnswerMaxChars {
		t.Fatalf("answer length = %d, want %d", n, AnswerMaxChars)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes(strings.Repeat("é", 10), 4); got != "éééé" {
		t.Errorf("got %q, want %q", got, "éééé")
	}
	if got := truncateRunes("ab", 5); got != "ab" {
		t.Errorf("got %q, want %q", got, "ab")
	}
	if got := truncateRunes("ab", 0); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
