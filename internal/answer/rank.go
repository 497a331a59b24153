package answer

import (
	"math"
	"sort"
)

// rankUnits scores every unit vector against the query vector and
// returns all units in score-descending order. The sort is stable, so
// equal scores keep original document order and the earlier unit wins.
func rankUnits(space *VectorSpace) []ScoredUnit {
	scored := make([]ScoredUnit, 0, len(space.Units))
	for _, uv := range space.Units {
		scored = append(scored, ScoredUnit{
			Unit:  uv.Unit,
			Score: cosineSimilarity(uv.Vector, space.Query),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored
}

// selectMatches takes the top TopK scored units and applies the
// confidence gate: an empty candidate set, or a best score under
// ScoreThreshold, yields no matches. Entries below the threshold are
// dropped even when the gate passes, so fewer than TopK may remain.
func selectMatches(scored []ScoredUnit) []ScoredUnit {
	if len(scored) == 0 {
		return nil
	}
	top := scored
	if len(top) > TopK {
		top = top[:TopK]
	}
	if top[0].Score < ScoreThreshold {
		return nil
	}

	matches := make([]ScoredUnit, 0, len(top))
	for _, su := range top {
		if su.Score >= ScoreThreshold {
			matches = append(matches, su)
		}
	}
	return matches
}

// cosineSimilarity computes dot(a, b) / (||a||·||b||), defined as 0 when
// either vector has zero norm and clamped to 1 against rounding. Terms
// are accumulated in sorted order so equal inputs always produce
// identical floating-point results.
func cosineSimilarity(a, b TermVector) float64 {
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	var dot float64
	for _, term := range sortedTerms(small) {
		if w, ok := large[term]; ok {
			dot += small[term] * w
		}
	}
	if dot == 0 {
		return 0
	}

	normA, normB := vectorNorm(a), vectorNorm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (normA * normB)
	if sim > 1 {
		return 1
	}
	return sim
}

func vectorNorm(v TermVector) float64 {
	var sum float64
	for _, term := range sortedTerms(v) {
		weight := v[term]
		sum += weight * weight
	}
	return math.Sqrt(sum)
}

func sortedTerms(v TermVector) []string {
	terms := make([]string, 0, len(v))
	for term := range v {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
