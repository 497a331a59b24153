package database

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes every deployment needs. CreateMany is
// idempotent, so this is safe to run on every startup and from the migrate
// command.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	usersCollection := db.Collection("users")
	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := usersCollection.Indexes().CreateMany(ctx, userIndexes); err != nil {
		return err
	}

	documentsCollection := db.Collection("documents")
	documentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "status", Value: 1}, {Key: "uploaded_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "file_hash", Value: 1}},
		},
	}
	if _, err := documentsCollection.Indexes().CreateMany(ctx, documentIndexes); err != nil {
		return err
	}

	exchangesCollection := db.Collection("qa_exchanges")
	exchangeIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "document_id", Value: 1}},
		},
	}
	if _, err := exchangesCollection.Indexes().CreateMany(ctx, exchangeIndexes); err != nil {
		return err
	}

	return nil
}
