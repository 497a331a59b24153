package answer

import (
	"errors"
	"math"
	"regexp"
	"strings"
)

// ErrEmptyVocabulary signals that the combined corpus produced no usable
// terms, so no similarity is computable for this invocation.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// TermVector is a sparse mapping from vocabulary term to non-negative
// tf-idf weight.
type TermVector map[string]float64

// UnitVector keeps a unit and its vector together so ranking can never
// pair a score with the wrong unit.
type UnitVector struct {
	Unit   Unit
	Vector TermVector
}

// VectorSpace is the ephemeral per-invocation weighting model: one
// vector per unit plus the query vector, all in the same coordinate
// space. It is discarded after scoring.
type VectorSpace struct {
	Units []UnitVector
	Query TermVector
}

// Vectorizer builds tf-idf vector spaces over units and a query.
type Vectorizer struct {
	tokenRegex *regexp.Regexp
}

// NewVectorizer creates a vectorizer with the tokenizer compiled.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{
		// Tokens are maximal runs of two or more word characters;
		// single-character tokens are dropped.
		tokenRegex: regexp.MustCompile(`[\p{L}\p{N}_]{2,}`),
	}
}

// Build derives the vector space for one invocation. The query joins the
// units in the document-frequency corpus, so both sides of the later
// similarity share a single weighting. Returns ErrEmptyVocabulary when
// the corpus yields no terms at all.
func (v *Vectorizer) Build(units []Unit, query string) (*VectorSpace, error) {
	docs := make([][]string, 0, len(units)+1)
	for _, u := range units {
		docs = append(docs, v.terms(u.Text))
	}
	docs = append(docs, v.terms(query))

	// Document frequency: in how many corpus texts each term appears.
	df := make(map[string]int)
	for _, terms := range docs {
		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	// Smoothed inverse document frequency.
	n := float64(len(docs))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((1+n)/(1+float64(count))) + 1
	}

	space := &VectorSpace{Units: make([]UnitVector, 0, len(units))}
	for i, u := range units {
		space.Units = append(space.Units, UnitVector{Unit: u, Vector: weigh(docs[i], idf)})
	}
	space.Query = weigh(docs[len(docs)-1], idf)
	return space, nil
}

// terms emits the vocabulary terms of one text: unigrams and bigrams over
// the lower-cased token stream, stop words removed before the bigram
// window forms.
func (v *Vectorizer) terms(text string) []string {
	tokens := v.tokenRegex.FindAllString(strings.ToLower(text), -1)

	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !englishStopWords[token] {
			filtered = append(filtered, token)
		}
	}

	terms := make([]string, 0, len(filtered)*2)
	terms = append(terms, filtered...)
	for i := 0; i+1 < len(filtered); i++ {
		terms = append(terms, filtered[i]+" "+filtered[i+1])
	}
	return terms
}

// weigh builds the sparse tf-idf vector for one term sequence: each
// occurrence of a term adds its idf weight, so the entry ends up as raw
// term frequency times idf.
func weigh(terms []string, idf map[string]float64) TermVector {
	vector := make(TermVector, len(terms))
	for _, term := range terms {
		vector[term] += idf[term]
	}
	return vector
}
