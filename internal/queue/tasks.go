package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TaskExtractDocument = "document:extract"
	TaskCrawlDocument   = "document:crawl"
)

// ExtractPayload identifies an uploaded file waiting for text extraction.
// The raw file stays in file storage until the worker has processed it.
type ExtractPayload struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	FilePath   string `json:"file_path"`
	Format     string `json:"format"`
}

// CrawlPayload identifies a URL-backed document waiting to be crawled.
type CrawlPayload struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	URL        string `json:"url"`
	MaxPages   int    `json:"max_pages"`
	RenderJS   bool   `json:"render_js"`
}

// Task creators
func NewExtractTask(documentID, userID, filePath, format string) (*asynq.Task, error) {
	payload, err := json.Marshal(ExtractPayload{
		DocumentID: documentID,
		UserID:     userID,
		FilePath:   filePath,
		Format:     format,
	})
	if err != nil {
		return nil, err
	}

	// Uploads run on the critical queue: the owner is usually polling the
	// document status right after the request returns.
	return asynq.NewTask(
		TaskExtractDocument,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(5*time.Minute),
		asynq.Queue("critical"),
	), nil
}

func NewCrawlTask(documentID, userID, url string, maxPages int, renderJS bool) (*asynq.Task, error) {
	payload, err := json.Marshal(CrawlPayload{
		DocumentID: documentID,
		UserID:     userID,
		URL:        url,
		MaxPages:   maxPages,
		RenderJS:   renderJS,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskCrawlDocument,
		payload,
		asynq.MaxRetry(2),
		asynq.Timeout(10*time.Minute),
		asynq.Queue("default"),
	), nil
}
