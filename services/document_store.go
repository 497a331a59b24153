package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"docqa-platform/internal/telemetry"
	"docqa-platform/models"
	"docqa-platform/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DocumentStore persists document records. Extracted text is stored
// compressed in text_data and inflated on read; list and metadata reads
// project it away so only the ask path pays the decompression cost.
type DocumentStore struct {
	collection *mongo.Collection
	metrics    *telemetry.Metrics
}

// NewDocumentStore creates a document store backed by the documents collection
func NewDocumentStore(db *mongo.Database, metrics *telemetry.Metrics) *DocumentStore {
	return &DocumentStore{
		collection: db.Collection("documents"),
		metrics:    metrics,
	}
}

func (ds *DocumentStore) record(operation string, err error) {
	if ds.metrics != nil {
		ds.metrics.RecordDatabaseOperation(operation, "documents", err == nil)
	}
}

// Create inserts a new document record
func (ds *DocumentStore) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID.IsZero() {
		doc.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now

	_, err := ds.collection.InsertOne(ctx, doc)
	ds.record("insert", err)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID returns a user's document without its stored text. Callers check
// mongo.ErrNoDocuments for missing or foreign documents.
func (ds *DocumentStore) GetByID(ctx context.Context, userID, docID primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	opts := options.FindOne().SetProjection(bson.M{"text_data": 0})
	err := ds.collection.FindOne(ctx, bson.M{"_id": docID, "user_id": userID}, opts).Decode(&doc)
	ds.record("find", err)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetWithText returns a user's document with its text decompressed
func (ds *DocumentStore) GetWithText(ctx context.Context, userID, docID primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	err := ds.collection.FindOne(ctx, bson.M{"_id": docID, "user_id": userID}).Decode(&doc)
	ds.record("find", err)
	if err != nil {
		return nil, err
	}
	if err := ds.inflate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LatestCompleted returns the user's most recently processed completed
// document with its text. This is the default target when an ask request
// names no document.
func (ds *DocumentStore) LatestCompleted(ctx context.Context, userID primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	opts := options.FindOne().SetSort(bson.D{{Key: "processed_at", Value: -1}})
	err := ds.collection.FindOne(ctx, bson.M{
		"user_id": userID,
		"status":  models.StatusCompleted,
	}, opts).Decode(&doc)
	ds.record("find", err)
	if err != nil {
		return nil, err
	}
	if err := ds.inflate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListByUser returns the user's documents newest first, without text
func (ds *DocumentStore) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]models.Document, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	opts := options.Find().
		SetProjection(bson.M{"text_data": 0}).
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := ds.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	ds.record("find", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer cursor.Close(ctx)

	documents := make([]models.Document, 0)
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return documents, nil
}

// FindByUserAndHash reports whether the user already has a live document
// with the same content hash. Returns nil, nil when there is no duplicate.
func (ds *DocumentStore) FindByUserAndHash(ctx context.Context, userID primitive.ObjectID, fileHash string) (*models.Document, error) {
	var doc models.Document
	opts := options.FindOne().SetProjection(bson.M{"text_data": 0})
	err := ds.collection.FindOne(ctx, bson.M{
		"user_id":   userID,
		"file_hash": fileHash,
		"status":    bson.M{"$in": []string{models.StatusPending, models.StatusProcessing, models.StatusCompleted}},
	}, opts).Decode(&doc)
	ds.record("find", err)

	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// UpdateStatus moves a document through the processing lifecycle
func (ds *DocumentStore) UpdateStatus(ctx context.Context, docID primitive.ObjectID, status, errorMessage string) error {
	set := bson.M{
		"status":     status,
		"updated_at": time.Now(),
	}
	if errorMessage != "" {
		set["error_message"] = errorMessage
	}
	if status == models.StatusCompleted || status == models.StatusFailed {
		set["processed_at"] = time.Now()
	}

	_, err := ds.collection.UpdateOne(ctx, bson.M{"_id": docID}, bson.M{"$set": set})
	ds.record("update", err)
	if err != nil {
		return fmt.Errorf("failed to update document status: %w", err)
	}
	return nil
}

// FinishExtraction stores the extracted text compressed, stamps the
// extraction metadata, and marks the document completed. The raw upload is
// removed after this point, so file_path is cleared along with any error
// left over from a retried attempt.
func (ds *DocumentStore) FinishExtraction(ctx context.Context, docID primitive.ObjectID, text string, metadata models.DocumentMetadata) error {
	compressed, algorithm, err := utils.CompressText(text)
	if err != nil {
		return fmt.Errorf("failed to compress document text: %w", err)
	}

	textHash := sha256.Sum256([]byte(text))
	now := time.Now()

	update := bson.M{
		"$set": bson.M{
			"text_data":     compressed,
			"text_encoding": string(algorithm),
			"text_hash":     hex.EncodeToString(textHash[:]),
			"metadata":      metadata,
			"status":        models.StatusCompleted,
			"processed_at":  now,
			"updated_at":    now,
		},
		"$unset": bson.M{
			"file_path":     "",
			"error_message": "",
		},
	}

	_, err = ds.collection.UpdateOne(ctx, bson.M{"_id": docID}, update)
	ds.record("update", err)
	if err != nil {
		return fmt.Errorf("failed to store extracted text: %w", err)
	}
	return nil
}

// Delete removes a user's document record and returns it so the caller can
// clean up any leftover file on disk.
func (ds *DocumentStore) Delete(ctx context.Context, userID, docID primitive.ObjectID) (*models.Document, error) {
	var doc models.Document
	opts := options.FindOneAndDelete().SetProjection(bson.M{"text_data": 0})
	err := ds.collection.FindOneAndDelete(ctx, bson.M{"_id": docID, "user_id": userID}, opts).Decode(&doc)
	ds.record("delete", err)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// CountByStatus aggregates document counts per status
func (ds *DocumentStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := ds.collection.Aggregate(ctx, pipeline)
	ds.record("aggregate", err)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate document counts: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode document counts: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// MarkStaleProcessing fails documents stuck in processing longer than
// maxAge, so a crashed worker cannot strand them. Returns how many flipped.
func (ds *DocumentStore) MarkStaleProcessing(ctx context.Context, maxAge time.Duration) (int64, error) {
	now := time.Now()
	result, err := ds.collection.UpdateMany(ctx,
		bson.M{
			"status":     models.StatusProcessing,
			"updated_at": bson.M{"$lt": now.Add(-maxAge)},
		},
		bson.M{"$set": bson.M{
			"status":        models.StatusFailed,
			"error_message": "processing timed out",
			"processed_at":  now,
			"updated_at":    now,
		}},
	)
	ds.record("update", err)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale documents: %w", err)
	}
	return result.ModifiedCount, nil
}

// DeleteOlderThan removes documents uploaded before cutoff and returns the
// deleted records (id and file path only) so the caller can purge their
// history and leftover files.
func (ds *DocumentStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]models.Document, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1, "file_path": 1})
	cursor, err := ds.collection.Find(ctx, bson.M{"uploaded_at": bson.M{"$lt": cutoff}}, opts)
	ds.record("find", err)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired documents: %w", err)
	}

	var expired []models.Document
	if err := cursor.All(ctx, &expired); err != nil {
		return nil, fmt.Errorf("failed to decode expired documents: %w", err)
	}
	if len(expired) == 0 {
		return nil, nil
	}

	ids := make([]primitive.ObjectID, 0, len(expired))
	for _, doc := range expired {
		ids = append(ids, doc.ID)
	}

	_, err = ds.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	ds.record("delete", err)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired documents: %w", err)
	}
	return expired, nil
}

// ReferencedFilePaths returns the set of file paths still attached to
// document records, for the orphan pruning sweep.
func (ds *DocumentStore) ReferencedFilePaths(ctx context.Context) (map[string]bool, error) {
	values, err := ds.collection.Distinct(ctx, "file_path", bson.M{
		"file_path": bson.M{"$exists": true, "$ne": ""},
	})
	ds.record("distinct", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list referenced file paths: %w", err)
	}

	paths := make(map[string]bool, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			paths[s] = true
		}
	}
	return paths, nil
}

// inflate decodes the stored compressed text into doc.Text
func (ds *DocumentStore) inflate(doc *models.Document) error {
	if len(doc.TextData) == 0 {
		return nil
	}
	text, err := utils.DecompressText(doc.TextData, utils.CompressionAlgorithm(doc.TextEncoding))
	if err != nil {
		return fmt.Errorf("failed to decompress document text: %w", err)
	}
	doc.Text = text
	return nil
}
