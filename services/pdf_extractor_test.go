package services

import (
	"strings"
	"testing"
)

const cleanProse = "The committee approved the budget for the next fiscal year. " +
	"The funds will be allocated to the new research program, and the " +
	"staff will report progress in March."

func TestEvaluateTextQuality(t *testing.T) {
	tests := []struct {
		name string
		text string
		min  float64
		max  float64
	}{
		{"empty", "", 0, 0},
		{"whitespace only", "   \n\t", 0.1, 0.1},
		{"too short", "hi there", 0.1, 0.1},
		{"clean prose", cleanProse, 0.7, 1.0},
		{"replacement characters", strings.Repeat("�", 40), 0, 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := evaluateTextQuality(tt.text)
			if got < tt.min || got > tt.max {
				t.Errorf("evaluateTextQuality = %.3f, want in [%.2f, %.2f]", got, tt.min, tt.max)
			}
		})
	}
}

func TestQualityPrefersProseOverGarbage(t *testing.T) {
	prose := evaluateTextQuality(cleanProse)
	garbage := evaluateTextQuality(strings.Repeat("�#�", 40))

	if prose <= garbage {
		t.Errorf("prose scored %.3f, garbage %.3f", prose, garbage)
	}
}

func TestHasGoodPatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"english sentences", "The committee approved the budget. It will fund the new lab.", true},
		{"consonant noise", "zzzz qqqq xxxx wwww", false},
		{"single word", "Report", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hasGoodPatterns(tt.text); got != tt.want {
				t.Errorf("hasGoodPatterns(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsCommonUnicodeChar(t *testing.T) {
	for _, r := range []rune{'€', '©', '™', '…'} {
		if !isCommonUnicodeChar(r) {
			t.Errorf("isCommonUnicodeChar(%q) = false, want true", r)
		}
	}
	for _, r := range []rune{'Ω', '�', ''} {
		if isCommonUnicodeChar(r) {
			t.Errorf("isCommonUnicodeChar(%q) = true, want false", r)
		}
	}
}
