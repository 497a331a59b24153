package answer

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestTermsUnigramsAndBigrams(t *testing.T) {
	v := NewVectorizer()
	tests := []struct {
		text string
		want []string
	}{
		{"The sky is blue", []string{"sky", "blue", "sky blue"}},
		// Bigrams bridge removed stop words.
		{"color of the sky", []string{"color", "sky", "color sky"}},
		// Single-character tokens never enter the vocabulary.
		{"x y go12 z", []string{"go12"}},
		{"it's the user's choice", []string{"user", "choice", "user choice"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := v.terms(tt.text)
		if len(got) == 0 && len(tt.want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("terms(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestBuildSmoothedIDFWeights(t *testing.T) {
	v := NewVectorizer()
	units := []Unit{
		{Index: 0, Text: "The sky is blue."},
		{Index: 1, Text: "Water is wet."},
	}
	space, err := v.Build(units, "what color is the sky")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Corpus holds 3 texts. "sky" appears in two of them, "blue" in one:
	// idf = ln((1+n)/(1+df)) + 1.
	wantSky := math.Log(4.0/3.0) + 1
	wantBlue := math.Log(2.0) + 1

	if got := space.Units[0].Vector["sky"]; math.Abs(got-wantSky) > 1e-12 {
		t.Errorf("sky weight = %v, want %v", got, wantSky)
	}
	if got := space.Units[0].Vector["blue"]; math.Abs(got-wantBlue) > 1e-12 {
		t.Errorf("blue weight = %v, want %v", got, wantBlue)
	}
	if got := space.Query["sky"]; math.Abs(got-wantSky) > 1e-12 {
		t.Errorf("query sky weight = %v, want %v", got, wantSky)
	}
	if _, ok := space.Units[1].Vector["sky"]; ok {
		t.Errorf("unrelated unit gained a sky term")
	}
}

func TestBuildQueryCountsTowardDocumentFrequency(t *testing.T) {
	v := NewVectorizer()
	units := []Unit{{Index: 0, Text: "orbit decay rates"}}

	withMatch, err := v.Build(units, "orbit decay")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	withoutMatch, err := v.Build(units, "unrelated words")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// The query participates in document frequency, so a unit term the
	// query also contains weighs less than the same term would against
	// an unrelated query.
	if withMatch.Units[0].Vector["orbit"] >= withoutMatch.Units[0].Vector["orbit"] {
		t.Errorf("orbit weight %v with matching query, %v without; want the first lower",
			withMatch.Units[0].Vector["orbit"], withoutMatch.Units[0].Vector["orbit"])
	}
}

func TestBuildRawTermFrequency(t *testing.T) {
	v := NewVectorizer()
	units := []Unit{
		{Index: 0, Text: "tide tide tide"},
		{Index: 1, Text: "tide"},
	}
	space, err := v.Build(units, "moon")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	w1 := space.Units[0].Vector["tide"]
	w2 := space.Units[1].Vector["tide"]
	if math.Abs(w1-3*w2) > 1e-12 {
		t.Errorf("tide weights %v and %v, want a 3x ratio", w1, w2)
	}
}

func TestBuildEmptyVocabulary(t *testing.T) {
	v := NewVectorizer()
	units := []Unit{{Index: 0, Text: "the of and"}}
	_, err := v.Build(units, "a an")
	if !errors.Is(err, ErrEmptyVocabulary) {
		t.Fatalf("err = %v, want ErrEmptyVocabulary", err)
	}
}
