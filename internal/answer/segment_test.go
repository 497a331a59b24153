package answer

import (
	"strings"
	"testing"
)

func TestSegmentBoundaries(t *testing.T) {
	s := NewSegmenter()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "sentence punctuation",
			text: "The sky is blue. Water is wet.",
			want: []string{"The sky is blue.", "Water is wet."},
		},
		{
			name: "question and exclamation marks",
			text: "Is it ready? Yes! Ship it.",
			want: []string{"Is it ready?", "Yes!", "Ship it."},
		},
		{
			name: "newline boundaries without punctuation",
			text: "first line\nsecond line\n\nthird line",
			want: []string{"first line", "second line", "third line"},
		},
		{
			name: "carriage returns normalized",
			text: "one\r\ntwo\rthree",
			want: []string{"one", "two", "three"},
		},
		{
			name: "internal whitespace collapsed",
			text: "spaced   out\twords. next",
			want: []string{"spaced out words.", "next"},
		},
		{
			name: "decimal point not treated as boundary",
			text: "pi is 3.14 exactly\nnew unit",
			want: []string{"pi is 3.14 exactly", "new unit"},
		},
		{
			name: "abbreviation splits like any sentence end",
			text: "Dr. Smith arrived late.",
			want: []string{"Dr.", "Smith arrived late."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := s.Segment(tt.text)
			if len(units) != len(tt.want) {
				t.Fatalf("got %d units %v, want %d", len(units), units, len(tt.want))
			}
			for i, u := range units {
				if u.Text != tt.want[i] {
					t.Errorf("unit %d = %q, want %q", i, u.Text, tt.want[i])
				}
				if u.Index != i {
					t.Errorf("unit %d carries index %d", i, u.Index)
				}
			}
		})
	}
}

func TestSegmentFallbackLongRunOn(t *testing.T) {
	s := NewSegmenter()
	text := strings.Repeat("abcd ", 600)

	units := s.Segment(text)
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if got := len(units[0].Text); got != FallbackMaxChars {
		t.Fatalf("fallback unit length = %d, want %d", got, FallbackMaxChars)
	}
}

func TestSegmentFallbackShortText(t *testing.T) {
	s := NewSegmenter()
	units := s.Segment("no boundary here")
	if len(units) != 1 || units[0].Text != "no boundary here" {
		t.Fatalf("units = %v", units)
	}
}

func TestSegmentAlwaysYieldsUnit(t *testing.T) {
	s := NewSegmenter()
	inputs := []string{
		"x",
		"   ",
		"\n\n\n",
		"...",
		"?!",
		"a.b",
		strings.Repeat("\n", 50) + "tail",
	}
	for _, text := range inputs {
		if units := s.Segment(text); len(units) == 0 {
			t.Errorf("Segment(%q) yielded no units", text)
		}
	}
}

func TestSegmentEmptyInput(t *testing.T) {
	if units := NewSegmenter().Segment(""); units != nil {
		t.Fatalf("expected no units, got %v", units)
	}
}
