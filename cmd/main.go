package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docqa-platform/internal/answer"
	"docqa-platform/internal/config"
	"docqa-platform/internal/database"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/queue"
	"docqa-platform/internal/telemetry"
	"docqa-platform/middleware"
	"docqa-platform/routes"
	"docqa-platform/services"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	stopTracing, err := telemetry.InitTracer(cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("Failed to initialize tracing:", err)
	}
	defer stopTracing()

	stopMeter, err := telemetry.InitMeter(cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("Failed to initialize metrics export:", err)
	}
	defer stopMeter()

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		log.Fatal("Failed to initialize metrics:", err)
	}

	// Connect to MongoDB
	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mongoClient.Disconnect(ctx)
	}()

	db := mongoClient.Database(cfg.DBName)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.EnsureIndexes(ctx, db)
		cancel()
		if err != nil {
			log.Fatal("Failed to ensure indexes:", err)
		}
	}

	// Connect to Redis
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	redisOpt, err := queue.RedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to configure task queue:", err)
	}
	queueClient := asynq.NewClient(redisOpt)
	defer queueClient.Close()

	// Build services
	engine := answer.NewEngine()
	storage := services.NewFileStorageManager(cfg)
	ocr := services.NewOCRClient(cfg, metrics)
	extractor := services.NewExtractor(cfg, ocr)
	docStore := services.NewDocumentStore(db, metrics)
	qaStore := services.NewQAStore(db, metrics)
	docService := services.NewDocumentService(cfg, docStore, storage, extractor, queueClient, metrics)
	answerCache := services.NewAnswerCache(rdb, cfg)
	qaService := services.NewQAService(engine, docStore, qaStore, answerCache, metrics)
	exportService := services.NewExportService(qaStore)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware())
	router.Use(middleware.EnrichTrace())
	router.Use(middleware.MetricsMiddleware(metrics))
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	// Multipart encoding adds overhead on top of the file itself
	router.Use(middleware.RequestSizeLimit(cfg.MaxFileSize + 1<<20))
	router.Use(middleware.RateLimitMiddleware(rdb, cfg))

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg, rdb)
	roleMiddleware := middleware.NewRoleMiddleware()

	// Setup routes
	routes.SetupHealthRoutes(router, mongoClient, rdb)
	routes.SetupAuthRoutes(router, cfg, db, rdb, authMiddleware)
	routes.SetupDocumentRoutes(router, cfg, docService, docStore, authMiddleware)
	routes.SetupQARoutes(router, cfg, qaService, exportService, rdb, authMiddleware)
	routes.SetupAdminRoutes(router, db, docStore, qaStore, authMiddleware, roleMiddleware)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("server exited")
}
