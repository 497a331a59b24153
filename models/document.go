package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Document is the unified model for ingested content, whether it arrived as
// an uploaded file or a crawled URL. Extracted text is persisted compressed
// in TextData; Text holds the decoded form and never goes to the database.
// The raw file is removed once extraction succeeds.
type Document struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"user_id" json:"user_id"`
	Filename     string             `bson:"filename" json:"filename"`
	OriginalName string             `bson:"original_name,omitempty" json:"original_name,omitempty"`
	FilePath     string             `bson:"file_path,omitempty" json:"-"`
	FileHash     string             `bson:"file_hash,omitempty" json:"file_hash,omitempty"`
	SourceType   string             `bson:"source_type" json:"source_type"` // upload, url
	SourceURL    string             `bson:"source_url,omitempty" json:"source_url,omitempty"`
	Format       string             `bson:"format" json:"format"` // pdf, docx, txt, html
	Size         int64              `bson:"size" json:"size"`
	Text         string             `bson:"-" json:"-"`
	TextData     []byte             `bson:"text_data,omitempty" json:"-"`
	TextEncoding string             `bson:"text_encoding,omitempty" json:"-"`
	TextHash     string             `bson:"text_hash,omitempty" json:"-"`
	Status       string             `bson:"status" json:"status"` // pending, processing, completed, failed
	ErrorMessage string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	UploadedAt   time.Time          `bson:"uploaded_at" json:"uploaded_at"`
	ProcessedAt  *time.Time         `bson:"processed_at,omitempty" json:"processed_at,omitempty"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
	Metadata     DocumentMetadata   `bson:"metadata" json:"metadata"`
}

// DocumentMetadata contains extraction metadata
type DocumentMetadata struct {
	Pages            int           `bson:"pages,omitempty" json:"pages,omitempty"`
	PagesCrawled     int           `bson:"pages_crawled,omitempty" json:"pages_crawled,omitempty"`
	ProcessingTime   time.Duration `bson:"processing_time" json:"processing_time"`
	ExtractionMethod string        `bson:"extraction_method" json:"extraction_method"`
	QualityScore     float64       `bson:"quality_score" json:"quality_score"`
	WordCount        int           `bson:"word_count" json:"word_count"`
	CharacterCount   int           `bson:"character_count" json:"character_count"`
}

// UploadResponse represents the response after a successful upload
type UploadResponse struct {
	ID       string           `json:"id"`
	Filename string           `json:"filename"`
	Status   string           `json:"status"`
	Metadata DocumentMetadata `json:"metadata"`
	Message  string           `json:"message"`
	TaskID   string           `json:"task_id,omitempty"` // For async processing
}

// IngestURLRequest starts a crawl-backed ingestion
type IngestURLRequest struct {
	URL      string `json:"url" binding:"required,url"`
	MaxPages int    `json:"max_pages,omitempty" binding:"omitempty,min=1,max=50"`
	RenderJS bool   `json:"render_js,omitempty"`
}

// Document processing status constants
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusCancelled  = "cancelled"
)

// Document source types
const (
	SourceUpload = "upload"
	SourceURL    = "url"
)

// Document formats
const (
	FormatPDF  = "pdf"
	FormatDOCX = "docx"
	FormatTXT  = "txt"
	FormatHTML = "html"
)

// Extraction methods
const (
	ExtractionMethodPDF   = "pdf-native"
	ExtractionMethodOCR   = "ocr"
	ExtractionMethodDOCX  = "docx"
	ExtractionMethodPlain = "plain-text"
	ExtractionMethodCrawl = "crawl"
)
