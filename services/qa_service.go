package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docqa-platform/internal/answer"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/telemetry"
	"docqa-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Answer wordings returned to clients. Tests assert these verbatim; they
// are part of the API contract.
const (
	AnswerEmptyQuestion = "Ask a non-empty question"
	AnswerNoDocument    = "No document uploaded yet. Please upload first."
	AnswerNoConfident   = "I couldn't find a confident answer in the uploaded document."
	AnswerErrorPrefix   = "Could not compute answer: "
)

// Ask rejections the route maps to 4xx instead of an in-band answer.
var (
	ErrInvalidDocumentID = errors.New("invalid document id")
	ErrDocumentNotReady  = errors.New("document is still processing")
)

// QAService answers questions against a user's documents: resolves the
// target document, consults the cache, runs the retrieval engine, persists
// the exchange, and maps outcomes to their fixed answer strings.
type QAService struct {
	engine  *answer.Engine
	store   *DocumentStore
	history *QAStore
	cache   *AnswerCache
	metrics *telemetry.Metrics
}

// NewQAService creates a new question answering service
func NewQAService(engine *answer.Engine, store *DocumentStore, history *QAStore, cache *AnswerCache, metrics *telemetry.Metrics) *QAService {
	return &QAService{
		engine:  engine,
		store:   store,
		history: history,
		cache:   cache,
		metrics: metrics,
	}
}

// Ask answers one question. Every pipeline outcome, including computation
// failures, comes back as an AskResponse; errors are reserved for request
// problems (unknown document, document still processing) and storage
// failures.
func (qa *QAService) Ask(ctx context.Context, userID primitive.ObjectID, req *models.AskRequest) (*models.AskResponse, error) {
	start := time.Now()
	question := strings.TrimSpace(req.Question)

	var doc *models.Document
	if req.DocumentID != "" {
		docID, err := primitive.ObjectIDFromHex(req.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocumentID, err)
		}
		doc, err = qa.store.GetWithText(ctx, userID, docID)
		if err != nil {
			return nil, err
		}
		if doc.Status != models.StatusCompleted {
			return nil, ErrDocumentNotReady
		}
	} else {
		var err error
		doc, err = qa.store.LatestCompleted(ctx, userID)
		if err == mongo.ErrNoDocuments {
			// Nothing to ask against yet; the upload-first flow answers
			// this in-band rather than failing the request.
			return qa.finish(ctx, userID, primitive.NilObjectID, question, models.KindNoDocument, AnswerNoDocument, 0, nil, false, start), nil
		}
		if err != nil {
			return nil, err
		}
	}

	if entry, ok := qa.cache.Get(ctx, userID.Hex(), doc.TextHash, question); ok {
		return qa.finish(ctx, userID, doc.ID, question, entry.Kind, entry.Answer, entry.BestScore, entry.Matches, true, start), nil
	}

	result, err := qa.engine.Answer(ctx, doc.Text, question)
	if err != nil {
		// A failed computation still produces a well-formed answer
		logger.Error("answer computation failed", "document_id", doc.ID.Hex(), "error", err)
		return qa.finish(ctx, userID, doc.ID, question, models.KindError, AnswerErrorPrefix+err.Error(), 0, nil, false, start), nil
	}

	kind, text := presentResult(result)
	matches := toMatchInfo(result.Matches)

	qa.cache.Put(ctx, userID.Hex(), doc.TextHash, question, &CachedAnswer{
		Kind:      kind,
		Answer:    text,
		BestScore: result.BestScore,
		Matches:   matches,
	})

	return qa.finish(ctx, userID, doc.ID, question, kind, text, result.BestScore, matches, false, start), nil
}

// History returns the user's recent exchanges, optionally restricted to
// one document.
func (qa *QAService) History(ctx context.Context, userID primitive.ObjectID, documentID string, limit int64) ([]models.QAExchange, error) {
	var docFilter *primitive.ObjectID
	if documentID != "" {
		id, err := primitive.ObjectIDFromHex(documentID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocumentID, err)
		}
		docFilter = &id
	}
	return qa.history.ListByUser(ctx, userID, docFilter, limit)
}

// finish persists the exchange, records metrics, and shapes the response
func (qa *QAService) finish(ctx context.Context, userID, docID primitive.ObjectID, question, kind, answerText string, bestScore float64, matches []models.MatchInfo, cached bool, start time.Time) *models.AskResponse {
	duration := time.Since(start)

	exchange := &models.QAExchange{
		UserID:     userID,
		DocumentID: docID,
		Question:   question,
		Answer:     answerText,
		Kind:       kind,
		BestScore:  bestScore,
		MatchCount: len(matches),
		Cached:     cached,
		DurationMs: duration.Milliseconds(),
	}
	if err := qa.history.Save(ctx, exchange); err != nil {
		// History is best effort; the answer still goes out
		logger.Warn("failed to record exchange", "user_id", userID.Hex(), "error", err)
	}

	if qa.metrics != nil {
		qa.metrics.RecordQuestion(kind, cached, bestScore, duration.Seconds())
	}

	resp := &models.AskResponse{
		Kind:      kind,
		Answer:    answerText,
		Matches:   matches,
		Cached:    cached,
		Timestamp: time.Now(),
	}
	if !docID.IsZero() {
		resp.DocumentID = docID.Hex()
	}
	return resp
}

// presentResult maps an engine outcome to its persisted kind and the fixed
// answer wording.
func presentResult(result answer.Result) (string, string) {
	switch result.Kind {
	case answer.KindAnswered:
		return models.KindAnswered, result.Text
	case answer.KindNoDocument:
		return models.KindNoDocument, AnswerNoDocument
	default:
		return models.KindNoConfidentMatch, AnswerNoConfident
	}
}

func toMatchInfo(matches []answer.ScoredUnit) []models.MatchInfo {
	if len(matches) == 0 {
		return nil
	}
	infos := make([]models.MatchInfo, 0, len(matches))
	for _, m := range matches {
		infos = append(infos, models.MatchInfo{Text: m.Unit.Text, Score: m.Score})
	}
	return infos
}
