package services

import (
	"context"
	"fmt"
	"time"

	"docqa-platform/internal/telemetry"
	"docqa-platform/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QAStore persists question/answer exchanges for history and export
type QAStore struct {
	collection *mongo.Collection
	metrics    *telemetry.Metrics
}

// NewQAStore creates a QA store backed by the qa_exchanges collection
func NewQAStore(db *mongo.Database, metrics *telemetry.Metrics) *QAStore {
	return &QAStore{
		collection: db.Collection("qa_exchanges"),
		metrics:    metrics,
	}
}

func (qs *QAStore) record(operation string, err error) {
	if qs.metrics != nil {
		qs.metrics.RecordDatabaseOperation(operation, "qa_exchanges", err == nil)
	}
}

// Save inserts one exchange
func (qs *QAStore) Save(ctx context.Context, exchange *models.QAExchange) error {
	if exchange.ID.IsZero() {
		exchange.ID = primitive.NewObjectID()
	}
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = time.Now()
	}

	_, err := qs.collection.InsertOne(ctx, exchange)
	qs.record("insert", err)
	if err != nil {
		return fmt.Errorf("failed to insert exchange: %w", err)
	}
	return nil
}

// ListByUser returns the user's recent exchanges newest first, optionally
// restricted to one document.
func (qs *QAStore) ListByUser(ctx context.Context, userID primitive.ObjectID, documentID *primitive.ObjectID, limit int64) ([]models.QAExchange, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	filter := bson.M{"user_id": userID}
	if documentID != nil {
		filter["document_id"] = *documentID
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := qs.collection.Find(ctx, filter, opts)
	qs.record("find", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges: %w", err)
	}
	defer cursor.Close(ctx)

	exchanges := make([]models.QAExchange, 0)
	if err := cursor.All(ctx, &exchanges); err != nil {
		return nil, fmt.Errorf("failed to decode exchanges: %w", err)
	}
	return exchanges, nil
}

// ListRange returns the user's exchanges within a date window, oldest first,
// for export. Zero times leave that side of the window open.
func (qs *QAStore) ListRange(ctx context.Context, userID primitive.ObjectID, from, to time.Time, limit int64) ([]models.QAExchange, error) {
	if limit <= 0 || limit > 10000 {
		limit = 10000
	}

	filter := bson.M{"user_id": userID}
	dateFilter := bson.M{}
	if !from.IsZero() {
		dateFilter["$gte"] = from
	}
	if !to.IsZero() {
		dateFilter["$lte"] = to
	}
	if len(dateFilter) > 0 {
		filter["created_at"] = dateFilter
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)

	cursor, err := qs.collection.Find(ctx, filter, opts)
	qs.record("find", err)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer cursor.Close(ctx)

	exchanges := make([]models.QAExchange, 0)
	if err := cursor.All(ctx, &exchanges); err != nil {
		return nil, fmt.Errorf("failed to decode exchanges: %w", err)
	}
	return exchanges, nil
}

// CountByKind aggregates exchange counts per result kind
func (qs *QAStore) CountByKind(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$kind", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := qs.collection.Aggregate(ctx, pipeline)
	qs.record("aggregate", err)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate exchange counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Kind  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode exchange counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Kind] = row.Count
	}
	return counts, nil
}

// DeleteByDocumentIDs removes all exchanges tied to the given documents.
// Used by the retention sweep when expired documents go away.
func (qs *QAStore) DeleteByDocumentIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := qs.collection.DeleteMany(ctx, bson.M{"document_id": bson.M{"$in": ids}})
	qs.record("delete", err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete exchanges: %w", err)
	}
	return result.DeletedCount, nil
}
