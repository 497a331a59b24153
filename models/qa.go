package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QAExchange records one question/answer round against a document.
type QAExchange struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	DocumentID primitive.ObjectID `bson:"document_id" json:"document_id"`
	Question   string             `bson:"question" json:"question"`
	Answer     string             `bson:"answer" json:"answer"`
	Kind       string             `bson:"kind" json:"kind"` // answered, no_confident_match, no_document, error
	BestScore  float64            `bson:"best_score" json:"best_score"`
	MatchCount int                `bson:"match_count" json:"match_count"`
	Cached     bool               `bson:"cached" json:"cached"`
	DurationMs int64              `bson:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}

// Result kinds persisted with each exchange
const (
	KindAnswered         = "answered"
	KindNoConfidentMatch = "no_confident_match"
	KindNoDocument       = "no_document"
	KindError            = "error"
)

type AskRequest struct {
	Question   string `json:"question" binding:"max=2000"`
	DocumentID string `json:"document_id,omitempty" binding:"omitempty,hexadecimal,len=24"`
}

type AskResponse struct {
	Kind       string      `json:"kind"`
	Answer     string      `json:"answer"`
	DocumentID string      `json:"document_id,omitempty"`
	Matches    []MatchInfo `json:"matches,omitempty"`
	Cached     bool        `json:"cached"`
	Timestamp  time.Time   `json:"timestamp"`
}

// MatchInfo is one retrieved passage with its similarity score.
type MatchInfo struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}
