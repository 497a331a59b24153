// Package answer implements the retrieval pipeline that turns one
// document's text and a free-text question into an extractive answer:
// segmentation into candidate units, tf-idf vectorization of units and
// query in a shared space, cosine ranking behind a confidence gate, and
// synthesis of the top matches into a bounded answer string.
package answer

const (
	// TopK is the number of highest-ranked units considered for an answer.
	TopK = 3

	// ScoreThreshold is the minimum cosine similarity required both from
	// the best match (confidence gate) and from every retained match.
	ScoreThreshold = 0.20

	// AnswerMaxChars caps the synthesized answer length in characters.
	AnswerMaxChars = 1200

	// FallbackMaxChars bounds the single fallback unit emitted when
	// segmentation finds no usable boundary.
	FallbackMaxChars = 2000
)

// Unit is one candidate answer span: a whitespace-normalized piece of the
// document text. Index is the unit's position in source order; ranking
// keeps that order for equal scores, so the earlier unit wins ties.
type Unit struct {
	Index int
	Text  string
}

// ScoredUnit pairs a unit with its cosine similarity against the query.
type ScoredUnit struct {
	Unit  Unit
	Score float64
}

// Kind classifies the outcome of one pipeline invocation.
type Kind string

const (
	KindAnswered         Kind = "answered"
	KindNoConfidentMatch Kind = "no_confident_match"
	KindNoDocument       Kind = "no_document"
)

// Result is the outcome of answering one question against one document.
// Text carries the synthesized answer only when Kind is KindAnswered.
// Matches holds the threshold-passing units behind the answer, best
// first. EmptyVocabulary marks no-confident-match results caused by a
// degenerate vocabulary rather than by low similarity.
type Result struct {
	Kind            Kind
	Text            string
	Matches         []ScoredUnit
	BestScore       float64
	EmptyVocabulary bool
}

// truncateRunes cuts s after at most n runes, never splitting a UTF-8
// sequence.
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
