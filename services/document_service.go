package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/queue"
	"docqa-platform/internal/telemetry"
	"docqa-platform/models"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Messages returned by the ingestion flow. The processed wordings are part
// of the API contract and tests assert them verbatim.
const (
	MsgUploadProcessed = "File uploaded and processed successfully"
	MsgUploadNoText    = "Uploaded but no text extracted"
	MsgUploadQueued    = "File uploaded and queued for processing"
	MsgDuplicateUpload = "Document already uploaded"
	MsgCrawlQueued     = "URL accepted, crawl queued"
)

// Upload rejections the client can correct. Routes map these to 4xx.
var (
	ErrInvalidFile       = errors.New("invalid file")
	ErrUnsupportedFormat = errors.New("unsupported or unrecognized file format")
	ErrExtractionFailed  = errors.New("text extraction failed")
)

// DocumentService orchestrates ingestion: validating uploads, storing the
// raw file, extracting text in-request for small files, and queueing
// background work for everything else.
type DocumentService struct {
	config    *config.Config
	store     *DocumentStore
	storage   *FileStorageManager
	extractor *Extractor
	queue     *asynq.Client
	metrics   *telemetry.Metrics
}

// NewDocumentService creates a new document ingestion service
func NewDocumentService(cfg *config.Config, store *DocumentStore, storage *FileStorageManager, extractor *Extractor, queueClient *asynq.Client, metrics *telemetry.Metrics) *DocumentService {
	return &DocumentService{
		config:    cfg,
		store:     store,
		storage:   storage,
		extractor: extractor,
		queue:     queueClient,
		metrics:   metrics,
	}
}

// UploadRequest carries a multipart upload through ingestion
type UploadRequest struct {
	File   multipart.File
	Header *multipart.FileHeader
	UserID primitive.ObjectID
}

// UploadResult is the outcome the upload endpoint reports
type UploadResult struct {
	Document  *models.Document
	Message   string
	TaskID    string
	Duplicate bool
}

// ValidateAndProcessUpload validates and processes a document upload.
// Files at or under SyncProcessingLimit extract in-request, so the caller
// sees the final document state; larger files come back pending with a
// task id.
func (s *DocumentService) ValidateAndProcessUpload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	// Step 1: Validate size, filename and extension
	if err := s.ValidateUpload(req.Header); err != nil {
		return nil, err
	}

	// Step 2: Stream the raw bytes to storage
	fileInfo, err := s.storage.SecureStore(req.File, req.Header, req.UserID.Hex())
	if err != nil {
		return nil, fmt.Errorf("file storage failed: %w", err)
	}

	// Step 3: Sniff the real format from the stored bytes. The extension
	// already passed, but content decides.
	head, err := s.storage.ReadHead(fileInfo.Path, 4096)
	if err != nil {
		s.storage.Cleanup(fileInfo.Path)
		return nil, err
	}
	format := DetectFormat(head, req.Header.Filename)
	if format == "" {
		s.storage.Cleanup(fileInfo.Path)
		return nil, ErrUnsupportedFormat
	}
	if format == models.FormatPDF {
		if err := s.storage.ValidatePDF(fileInfo.Path); err != nil {
			s.storage.Cleanup(fileInfo.Path)
			return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
		}
	}

	// Step 4: Check for duplicates
	existing, err := s.store.FindByUserAndHash(ctx, req.UserID, fileInfo.Hash)
	if err != nil {
		s.storage.Cleanup(fileInfo.Path)
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if existing != nil {
		s.storage.Cleanup(fileInfo.Path)
		return &UploadResult{Document: existing, Message: MsgDuplicateUpload, Duplicate: true}, nil
	}

	// Step 5: Create the document record
	doc := &models.Document{
		UserID:       req.UserID,
		Filename:     fileInfo.SecureName,
		OriginalName: req.Header.Filename,
		FilePath:     fileInfo.Path,
		FileHash:     fileInfo.Hash,
		SourceType:   models.SourceUpload,
		Format:       format,
		Size:         fileInfo.Size,
		Status:       models.StatusPending,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		s.storage.Cleanup(fileInfo.Path)
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordIngestion(models.SourceUpload, format, fileInfo.Size)
	}

	// Step 6: Extract now or hand off to the worker
	if fileInfo.Size <= s.config.SyncProcessingLimit {
		return s.processSync(ctx, doc)
	}
	return s.enqueueExtraction(ctx, doc)
}

// ValidateUpload runs the checks that need nothing but the header
func (s *DocumentService) ValidateUpload(header *multipart.FileHeader) error {
	if header.Size > s.config.MaxFileSize {
		return fmt.Errorf("%w: file size %d exceeds maximum allowed size %d", ErrInvalidFile, header.Size, s.config.MaxFileSize)
	}
	if header.Size == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidFile)
	}

	filename := header.Filename
	if filename == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidFile)
	}
	if len(filename) > 255 {
		return fmt.Errorf("%w: filename too long (max 255 characters)", ErrInvalidFile)
	}

	// Check for dangerous characters
	dangerous := []string{"../", "..\\", "<", ">", ":", "\"", "|", "?", "*", "\x00"}
	for _, char := range dangerous {
		if strings.Contains(filename, char) {
			return fmt.Errorf("%w: filename contains invalid or dangerous characters", ErrInvalidFile)
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range s.config.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimSpace(allowed)) {
			return nil
		}
	}
	return fmt.Errorf("%w: extension %q is not allowed", ErrInvalidFile, ext)
}

// processSync extracts in-request so the upload response carries the final
// document state.
func (s *DocumentService) processSync(ctx context.Context, doc *models.Document) (*UploadResult, error) {
	if err := s.store.UpdateStatus(ctx, doc.ID, models.StatusProcessing, ""); err != nil {
		return nil, err
	}

	content, err := s.storage.ReadStoredFile(doc.FilePath)
	if err != nil {
		s.store.UpdateStatus(ctx, doc.ID, models.StatusFailed, "stored file unreadable")
		return nil, err
	}

	start := time.Now()
	result, err := s.extractor.Extract(ctx, content, doc.Format)
	if s.metrics != nil {
		status := "success"
		method := doc.Format
		if err != nil {
			status = "error"
		} else {
			method = result.Method
		}
		s.metrics.RecordExtraction(method, status, time.Since(start).Seconds())
	}
	if err != nil {
		s.store.UpdateStatus(ctx, doc.ID, models.StatusFailed, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	metadata := models.DocumentMetadata{
		Pages:            result.Pages,
		ProcessingTime:   result.ProcessingTime,
		ExtractionMethod: result.Method,
		QualityScore:     result.QualityScore,
		WordCount:        result.WordCount,
		CharacterCount:   result.CharacterCount,
	}

	if err := s.store.FinishExtraction(ctx, doc.ID, result.Text, metadata); err != nil {
		s.store.UpdateStatus(ctx, doc.ID, models.StatusFailed, "failed to persist extracted text")
		return nil, err
	}
	s.storage.Cleanup(doc.FilePath)

	doc.Status = models.StatusCompleted
	doc.Text = result.Text
	doc.Metadata = metadata
	doc.FilePath = ""

	// An empty extraction is still a completed document; asking against it
	// gets the no-document answer.
	message := MsgUploadProcessed
	if strings.TrimSpace(result.Text) == "" {
		message = MsgUploadNoText
	}

	logger.Info("document processed",
		"document_id", doc.ID.Hex(),
		"format", doc.Format,
		"method", result.Method,
		"quality", result.QualityScore,
		"words", result.WordCount)

	return &UploadResult{Document: doc, Message: message}, nil
}

// enqueueExtraction hands a stored file to the background worker
func (s *DocumentService) enqueueExtraction(ctx context.Context, doc *models.Document) (*UploadResult, error) {
	task, err := queue.NewExtractTask(doc.ID.Hex(), doc.UserID.Hex(), doc.FilePath, doc.Format)
	if err != nil {
		s.store.UpdateStatus(ctx, doc.ID, models.StatusFailed, "failed to create extraction task")
		return nil, fmt.Errorf("failed to create extraction task: %w", err)
	}

	info, err := s.queue.EnqueueContext(ctx, task)
	if err != nil {
		s.store.UpdateStatus(ctx, doc.ID, models.StatusFailed, "failed to enqueue extraction")
		return nil, fmt.Errorf("failed to enqueue extraction: %w", err)
	}

	logger.Info("extraction queued",
		"document_id", doc.ID.Hex(),
		"task_id", info.ID,
		"size", doc.Size)

	return &UploadResult{Document: doc, Message: MsgUploadQueued, TaskID: info.ID}, nil
}

// IngestURL creates a URL-backed document and queues its crawl
func (s *DocumentService) IngestURL(ctx context.Context, userID primitive.ObjectID, req *models.IngestURLRequest) (*UploadResult, error) {
	maxPages := req.MaxPages
	if maxPages <= 0 || maxPages > s.config.CrawlMaxPages {
		maxPages = s.config.CrawlMaxPages
	}
	// JS rendering needs a Chrome on the worker host, so config has the veto
	renderJS := req.RenderJS && s.config.CrawlJSRender

	doc := &models.Document{
		UserID:     userID,
		Filename:   req.URL,
		SourceType: models.SourceURL,
		SourceURL:  req.URL,
		Format:     models.FormatHTML,
		Status:     models.StatusPending,
	}
	if err := s.store.Create(ctx, doc); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordIngestion(models.SourceURL, models.FormatHTML, 0)
	}

	task, err := queue.NewCrawlTask(doc.ID.Hex(), userID.Hex(), req.URL, maxPages, renderJS)
	if err != nil {
		s.store.UpdateStatus(ctx, doc.ID, models.StatusFailed, "failed to create crawl task")
		return nil, fmt.Errorf("failed to create crawl task: %w", err)
	}

	info, err := s.queue.EnqueueContext(ctx, task)
	if err != nil {
		s.store.UpdateStatus(ctx, doc.ID, models.StatusFailed, "failed to enqueue crawl")
		return nil, fmt.Errorf("failed to enqueue crawl: %w", err)
	}

	logger.Info("crawl queued",
		"document_id", doc.ID.Hex(),
		"task_id", info.ID,
		"url", req.URL,
		"max_pages", maxPages,
		"render_js", renderJS)

	return &UploadResult{Document: doc, Message: MsgCrawlQueued, TaskID: info.ID}, nil
}

// DeleteDocument removes the record and any raw file still on disk
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, docID primitive.ObjectID) error {
	doc, err := s.store.Delete(ctx, userID, docID)
	if err != nil {
		return err
	}
	if doc.FilePath != "" {
		s.storage.Cleanup(doc.FilePath)
	}
	return nil
}
