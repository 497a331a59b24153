package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"docqa-platform/internal/config"
	"docqa-platform/internal/database"
	"docqa-platform/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: migrate <command>")
		fmt.Println("Commands:")
		fmt.Println("  ensure-indexes  - Create the indexes the platform depends on")
		fmt.Println("  verify          - List the indexes present on each collection")
		os.Exit(1)
	}

	command := os.Args[1]

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to MongoDB
	ctx, cancel := utils.WithLongTimeout(context.Background())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)

	switch command {
	case "ensure-indexes":
		if err := database.EnsureIndexes(ctx, db); err != nil {
			log.Fatalf("Index creation failed: %v", err)
		}
		fmt.Println("Indexes created successfully!")

	case "verify":
		if err := verifyIndexes(ctx, db); err != nil {
			log.Fatalf("Verification failed: %v", err)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func verifyIndexes(ctx context.Context, db *mongo.Database) error {
	collections := []string{"users", "documents", "qa_exchanges"}

	for _, name := range collections {
		fmt.Printf("%s:\n", name)

		cursor, err := db.Collection(name).Indexes().List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list indexes for %s: %v", name, err)
		}

		var indexes []bson.M
		if err := cursor.All(ctx, &indexes); err != nil {
			return fmt.Errorf("failed to read indexes for %s: %v", name, err)
		}

		for _, idx := range indexes {
			fmt.Printf("  %v: %v\n", idx["name"], idx["key"])
		}
	}

	return nil
}
