package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/internal/crawler"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/queue"
	"docqa-platform/internal/telemetry"
	"docqa-platform/models"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// TaskProcessor executes queued ingestion work: extracting text from
// uploads too large for in-request processing and crawling URL-backed
// documents. Handlers are registered on the asynq mux in cmd/worker.
type TaskProcessor struct {
	config    *config.Config
	store     *DocumentStore
	storage   *FileStorageManager
	extractor *Extractor
	metrics   *telemetry.Metrics
}

// NewTaskProcessor creates a new background task processor
func NewTaskProcessor(cfg *config.Config, store *DocumentStore, storage *FileStorageManager, extractor *Extractor, metrics *telemetry.Metrics) *TaskProcessor {
	return &TaskProcessor{
		config:    cfg,
		store:     store,
		storage:   storage,
		extractor: extractor,
		metrics:   metrics,
	}
}

// HandleExtractTask extracts text from a stored upload. Extraction errors
// are retryable; a payload that cannot be decoded or a file that no longer
// exists is not.
func (p *TaskProcessor) HandleExtractTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ExtractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	docID, err := primitive.ObjectIDFromHex(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("bad document id %q: %w", payload.DocumentID, asynq.SkipRetry)
	}

	logger.Info("extracting document", "document_id", payload.DocumentID, "format", payload.Format)

	if err := p.store.UpdateStatus(ctx, docID, models.StatusProcessing, ""); err != nil {
		return err
	}

	content, err := p.storage.ReadStoredFile(payload.FilePath)
	if err != nil {
		p.store.UpdateStatus(ctx, docID, models.StatusFailed, "stored file unreadable")
		return fmt.Errorf("stored file unreadable: %w", asynq.SkipRetry)
	}

	start := time.Now()
	result, err := p.extractor.Extract(ctx, content, payload.Format)
	if p.metrics != nil {
		status := "success"
		method := payload.Format
		if err != nil {
			status = "error"
		} else {
			method = result.Method
		}
		p.metrics.RecordExtraction(method, status, time.Since(start).Seconds())
	}
	if err != nil {
		p.store.UpdateStatus(ctx, docID, models.StatusFailed, err.Error())
		return fmt.Errorf("text extraction failed: %w", err)
	}

	metadata := models.DocumentMetadata{
		Pages:            result.Pages,
		ProcessingTime:   result.ProcessingTime,
		ExtractionMethod: result.Method,
		QualityScore:     result.QualityScore,
		WordCount:        result.WordCount,
		CharacterCount:   result.CharacterCount,
	}

	if err := p.store.FinishExtraction(ctx, docID, result.Text, metadata); err != nil {
		p.store.UpdateStatus(ctx, docID, models.StatusFailed, "failed to persist extracted text")
		return err
	}
	p.storage.Cleanup(payload.FilePath)

	logger.Info("document extracted",
		"document_id", payload.DocumentID,
		"method", result.Method,
		"words", result.WordCount,
		"quality", result.QualityScore)

	return nil
}

// HandleCrawlTask crawls a URL-backed document and stores the combined
// page text.
func (p *TaskProcessor) HandleCrawlTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.CrawlPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %w", asynq.SkipRetry)
	}

	docID, err := primitive.ObjectIDFromHex(payload.DocumentID)
	if err != nil {
		return fmt.Errorf("bad document id %q: %w", payload.DocumentID, asynq.SkipRetry)
	}

	ctx, span := otel.Tracer("docqa-platform/worker").Start(ctx, "crawl.job")
	defer span.End()
	span.SetAttributes(
		attribute.String("crawl.url", payload.URL),
		attribute.Int("crawl.max_pages", payload.MaxPages),
		attribute.Bool("crawl.render_js", payload.RenderJS),
	)

	logger.Info("crawling document source",
		"document_id", payload.DocumentID,
		"url", payload.URL,
		"max_pages", payload.MaxPages)

	if err := p.store.UpdateStatus(ctx, docID, models.StatusProcessing, ""); err != nil {
		return err
	}

	crawlCfg := crawler.Config{
		URL:         payload.URL,
		MaxPages:    payload.MaxPages,
		FollowLinks: payload.MaxPages > 1,
		Timeout:     time.Duration(p.config.CrawlTimeout) * time.Second,
		RenderJS:    payload.RenderJS,
	}

	start := time.Now()
	crawlResult, err := crawler.CrawlURL(crawlCfg)
	if p.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		p.metrics.RecordExtraction(models.ExtractionMethodCrawl, status, time.Since(start).Seconds())
	}
	if err != nil {
		span.RecordError(err)
		p.store.UpdateStatus(ctx, docID, models.StatusFailed, err.Error())
		return fmt.Errorf("crawl failed: %w", err)
	}

	text := stitchPages(crawlResult.Pages)

	metadata := models.DocumentMetadata{
		PagesCrawled:     crawlResult.PagesCrawled,
		ProcessingTime:   time.Since(start),
		ExtractionMethod: models.ExtractionMethodCrawl,
		QualityScore:     evaluateTextQuality(text),
		WordCount:        len(strings.Fields(text)),
		CharacterCount:   len(text),
	}

	if err := p.store.FinishExtraction(ctx, docID, text, metadata); err != nil {
		p.store.UpdateStatus(ctx, docID, models.StatusFailed, "failed to persist crawled text")
		return err
	}

	span.SetAttributes(attribute.Int("crawl.pages_crawled", crawlResult.PagesCrawled))
	logger.Info("crawl finished",
		"document_id", payload.DocumentID,
		"pages", crawlResult.PagesCrawled,
		"words", metadata.WordCount)

	return nil
}

// stitchPages joins crawled pages into one document text, titles first,
// in crawl order.
func stitchPages(pages []crawler.Page) string {
	var sb strings.Builder
	for _, page := range pages {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		if page.Title != "" {
			sb.WriteString(page.Title)
			sb.WriteString("\n")
		}
		sb.WriteString(page.Content)
	}
	return sb.String()
}
