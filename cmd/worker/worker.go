package main

import (
	"context"
	"log"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/internal/database"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/queue"
	"docqa-platform/internal/telemetry"
	"docqa-platform/services"

	"github.com/hibiken/asynq"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	stopTracing, err := telemetry.InitTracer(cfg.ServiceName+"-worker", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("Failed to initialize tracing:", err)
	}
	defer stopTracing()

	stopMeter, err := telemetry.InitMeter(cfg.ServiceName+"-worker", cfg.OTLPEndpoint)
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

	// Build the processing stack
	storage := services.NewFileStorageManager(cfg)
	ocr := services.NewOCRClient(cfg, metrics)
	extractor := services.NewExtractor(cfg, ocr)
	docStore := services.NewDocumentStore(db, metrics)
	qaStore := services.NewQAStore(db, metrics)

	processor := services.NewTaskProcessor(cfg, docStore, storage, extractor, metrics)

	// Housekeeping runs alongside the task loop
	maintenance := services.NewMaintenanceService(cfg, docStore, qaStore, storage)
	if err := maintenance.Start(); err != nil {
		log.Fatal("Failed to start maintenance scheduler:", err)
	}
	defer maintenance.Stop()

	// Redis options for Asynq
	redisOpt, err := queue.RedisOpt(cfg)
	if err != nil {
		log.Fatal("Failed to configure task queue:", err)
	}

	// Create Asynq server
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			StrictPriority: true,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed", "type", task.Type(), "error", err)
			}),
		},
	)

	// Create mux and register handlers
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskExtractDocument, processor.HandleExtractTask)
	mux.HandleFunc(queue.TaskCrawlDocument, processor.HandleCrawlTask)

	logger.Info("worker starting",
		"concurrency", cfg.WorkerConcurrency,
		"redis", cfg.RedisURL,
	)

	// Run blocks until SIGTERM/SIGINT and drains in-flight tasks
	if err := server.Run(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}
}
