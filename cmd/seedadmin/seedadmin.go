package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/models"
	"docqa-platform/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)
	usersCollection := db.Collection("users")

	// Get admin credentials from environment or use defaults
	adminUsername := os.Getenv("ADMIN_USERNAME")
	if adminUsername == "" {
		adminUsername = "admin"
	}

	// Check if the admin already exists
	var existing models.User
	err = usersCollection.FindOne(context.Background(), bson.M{"username": adminUsername, "role": models.RoleAdmin}).Decode(&existing)
	if err == nil {
		fmt.Println("Admin user already exists")
		fmt.Printf("  Username: %s\n", existing.Username)
		os.Exit(0)
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "ChangeMe123!"
		fmt.Println("WARNING: Using default password. Set ADMIN_PASSWORD environment variable!")
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")

	// Hash password
	hashedPassword, err := utils.HashPassword(adminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	adminUser := models.User{
		Username:     adminUsername,
		Name:         "Administrator",
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	result, err := usersCollection.InsertOne(context.Background(), adminUser)
	if err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	fmt.Println("Admin user created successfully")
	fmt.Printf("  Username: %s\n", adminUsername)
	fmt.Printf("  User ID: %s\n", result.InsertedID.(primitive.ObjectID).Hex())
	fmt.Println("\nChange the password after first login.")
	fmt.Println("Login at POST /api/auth/login to get a token pair.")
}
