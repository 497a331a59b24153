package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa-platform/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("docqa-platform/internal/answer")

// Engine runs the retrieval pipeline end to end: segment, vectorize,
// rank, synthesize. Construct one at startup and share it freely; every
// invocation builds its own vector space, so the engine carries no
// per-question state and needs no locking.
type Engine struct {
	segmenter  *Segmenter
	vectorizer *Vectorizer
}

// NewEngine creates the pipeline with its stage dependencies.
func NewEngine() *Engine {
	return &Engine{
		segmenter:  NewSegmenter(),
		vectorizer: NewVectorizer(),
	}
}

// Answer runs the pipeline for one question against one document text.
// Every expected outcome, including "no confident match", arrives as a
// Result; a non-nil error marks an unexpected computation failure whose
// message is safe to surface as a diagnostic.
func (e *Engine) Answer(ctx context.Context, documentText, question string) (result Result, err error) {
	ctx, span := tracer.Start(ctx, "answer.pipeline")
	defer span.End()

	// Retrieval over arbitrary uploaded text must degrade gracefully,
	// never crash the request.
	defer func() {
		if r := recover(); r != nil {
			result = Result{}
			err = fmt.Errorf("answer pipeline panic: %v", r)
			span.RecordError(err)
		}
	}()

	if strings.TrimSpace(documentText) == "" {
		result.Kind = KindNoDocument
		span.SetAttributes(attribute.String("answer.kind", string(result.Kind)))
		return result, nil
	}
	question = strings.TrimSpace(question)

	_, segSpan := tracer.Start(ctx, "answer.segment")
	units := e.segmenter.Segment(documentText)
	segSpan.SetAttributes(attribute.Int("answer.units", len(units)))
	segSpan.End()

	_, vecSpan := tracer.Start(ctx, "answer.vectorize")
	space, err := e.vectorizer.Build(units, question)
	vecSpan.End()
	if err != nil {
		if errors.Is(err, ErrEmptyVocabulary) {
			logger.Debug("empty vocabulary, no similarity computable",
				"units", len(units))
			result = Result{Kind: KindNoConfidentMatch, EmptyVocabulary: true}
			span.SetAttributes(attribute.String("answer.kind", string(result.Kind)))
			return result, nil
		}
		return Result{}, err
	}

	_, rankSpan := tracer.Start(ctx, "answer.rank")
	scored := rankUnits(space)
	matches := selectMatches(scored)
	var best float64
	if len(scored) > 0 {
		best = scored[0].Score
	}
	rankSpan.SetAttributes(
		attribute.Float64("answer.best_score", best),
		attribute.Int("answer.matches", len(matches)),
	)
	rankSpan.End()

	result = Result{
		Kind:      KindNoConfidentMatch,
		Matches:   matches,
		BestScore: best,
	}
	if len(matches) > 0 {
		if text := synthesizeAnswer(matches); text != "" {
			result.Kind = KindAnswered
			result.Text = text
		}
	}

	span.SetAttributes(
		attribute.String("answer.kind", string(result.Kind)),
		attribute.Float64("answer.best_score", best),
	)
	logger.Debug("answer pipeline finished",
		"kind", string(result.Kind),
		"units", len(units),
		"matches", len(matches),
		"best_score", best)
	return result, nil
}
