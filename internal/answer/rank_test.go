package answer

import (
	"math"
	"testing"
)

func TestCosineSimilarityBounds(t *testing.T) {
	a := TermVector{"sky": 1.2, "blue": 1.7}

	sim := cosineSimilarity(a, TermVector{"sky": 0.9})
	if sim <= 0 || sim > 1 {
		t.Fatalf("sim = %v, want within (0, 1]", sim)
	}
	if got := cosineSimilarity(a, TermVector{}); got != 0 {
		t.Fatalf("zero-norm sim = %v, want 0", got)
	}
	if got := cosineSimilarity(a, TermVector{"moss": 2.0}); got != 0 {
		t.Fatalf("disjoint sim = %v, want 0", got)
	}
}

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	v := TermVector{"sky": 1.3, "blue": 0.4, "sky blue": 2.2}
	sim := cosineSimilarity(v, v)
	if math.Abs(sim-1) > 1e-9 {
		t.Fatalf("self similarity = %v, want 1", sim)
	}
}

func TestRankUnitsStableTieBreak(t *testing.T) {
	// Identical units tie exactly; the earlier one must stay first.
	units := []Unit{
		{Index: 0, Text: "solar panels degrade slowly"},
		{Index: 1, Text: "solar panels degrade slowly"},
		{Index: 2, Text: "unrelated filler text"},
	}
	space, err := NewVectorizer().Build(units, "solar panels")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	scored := rankUnits(space)
	if len(scored) != 3 {
		t.Fatalf("got %d scored units, want 3", len(scored))
	}
	if scored[0].Unit.Index != 0 || scored[1].Unit.Index != 1 {
		t.Fatalf("tie-break order = %d, %d, want 0, 1",
			scored[0].Unit.Index, scored[1].Unit.Index)
	}
	if scored[0].Score != scored[1].Score {
		t.Fatalf("identical units scored %v and %v", scored[0].Score, scored[1].Score)
	}
	if scored[2].Unit.Index != 2 || scored[2].Score != 0 {
		t.Fatalf("unrelated unit = %+v, want last with score 0", scored[2])
	}
}

func TestSelectMatchesGateAndFilter(t *testing.T) {
	mk := func(scores ...float64) []ScoredUnit {
		out := make([]ScoredUnit, len(scores))
		for i, s := range scores {
			out[i] = ScoredUnit{Unit: Unit{Index: i, Text: "u"}, Score: s}
		}
		return out
	}

	if m := selectMatches(nil); m != nil {
		t.Errorf("empty input gave %v, want nil", m)
	}
	if m := selectMatches(mk(0.19, 0.1)); m != nil {
		t.Errorf("below-gate input gave %v, want nil", m)
	}
	// Exactly at the threshold passes.
	if m := selectMatches(mk(0.20)); len(m) != 1 {
		t.Errorf("at-threshold input gave %d matches, want 1", len(m))
	}
	// The per-entry filter drops low scores inside the top set.
	if m := selectMatches(mk(0.9, 0.5, 0.1, 0.05)); len(m) != 2 {
		t.Errorf("mixed input gave %d matches, want 2", len(m))
	}
	// Never more than TopK entries.
	if m := selectMatches(mk(0.9, 0.8, 0.7, 0.6)); len(m) != TopK {
		t.Errorf("high input gave %d matches, want %d", len(m), TopK)
	}
}
