package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"docqa-platform/internal/config"
	"docqa-platform/internal/logger"
	"docqa-platform/internal/telemetry"
	"docqa-platform/models"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// OCRClient talks to the OCR sidecar service used as a fallback for
// scanned PDFs. Calls run through a circuit breaker and a client-side
// rate limiter so a struggling sidecar cannot take the upload path down
// with it.
type OCRClient struct {
	config     *config.Config
	httpClient *http.Client
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	metrics    *telemetry.Metrics
}

// OCRResponse is the sidecar's extraction response
type OCRResponse struct {
	Success        bool    `json:"success"`
	Text           string  `json:"text"`
	Pages          int     `json:"pages"`
	ProcessingTime float64 `json:"processing_time"`
	QualityScore   float64 `json:"quality_score"`
	WordCount      int     `json:"word_count"`
	CharacterCount int     `json:"character_count"`
	Error          string  `json:"error,omitempty"`
}

// OCRHealthResponse is the sidecar's health check response
type OCRHealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
	Device      string `json:"device"`
	Version     string `json:"version"`
}

// NewOCRClient creates a new OCR client. metrics may be nil.
func NewOCRClient(cfg *config.Config, metrics *telemetry.Metrics) *OCRClient {
	timeout := time.Duration(cfg.OCRTimeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "OCRService",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			if metrics != nil {
				metrics.RecordCircuitBreakerState("ocr", to.String())
			}
		},
	})

	rpm := cfg.OCRRequestsPerMin
	if rpm <= 0 {
		rpm = 30
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst)

	return &OCRClient{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.OCRServiceURL,
		breaker:    breaker,
		limiter:    limiter,
		metrics:    metrics,
	}
}

// Enabled reports whether the sidecar is configured for use
func (c *OCRClient) Enabled() bool {
	return c.config.OCRServiceEnabled && c.baseURL != ""
}

// IsHealthy checks if the OCR service is healthy
func (c *OCRClient) IsHealthy(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("OCR service unhealthy: status %d", resp.StatusCode)
	}

	var healthResp OCRHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&healthResp); err != nil {
		return false, fmt.Errorf("failed to decode health response: %w", err)
	}

	return healthResp.Status == "healthy" && healthResp.ModelLoaded, nil
}

// ExtractText extracts text from document content via the OCR sidecar
func (c *OCRClient) ExtractText(ctx context.Context, content []byte, filename string) (*ExtractionResult, error) {
	tracer := otel.Tracer("docqa-platform/services")
	ctx, span := tracer.Start(ctx, "ocr.extract")
	defer span.End()

	span.SetAttributes(
		attribute.Int("ocr.content_bytes", len(content)),
		attribute.String("ocr.filename", filename),
	)

	if err := c.limiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("ocr.rate_limited", true))
		return nil, err
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doExtract(ctx, content, filename)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			span.SetAttributes(attribute.Bool("ocr.circuit_open", true))
			return nil, fmt.Errorf("OCR service unavailable (circuit open)")
		}
		span.RecordError(err)
		return nil, err
	}

	ocrResp := result.(*OCRResponse)
	span.SetAttributes(
		attribute.Float64("ocr.quality_score", ocrResp.QualityScore),
		attribute.Int("ocr.chars", len(ocrResp.Text)),
	)

	return &ExtractionResult{
		Text:           ocrResp.Text,
		Pages:          ocrResp.Pages,
		Method:         models.ExtractionMethodOCR,
		QualityScore:   ocrResp.QualityScore,
		ProcessingTime: time.Duration(ocrResp.ProcessingTime * float64(time.Second)),
		WordCount:      ocrResp.WordCount,
		CharacterCount: ocrResp.CharacterCount,
	}, nil
}

// doExtract performs the actual multipart request
func (c *OCRClient) doExtract(ctx context.Context, content []byte, filename string) (*OCRResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := fileWriter.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}

	writer.Close()

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/ocr/extract", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR request: %w", err)
	}

	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("OCR request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ocrResp OCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}

	if !ocrResp.Success {
		return nil, fmt.Errorf("OCR processing failed: %s", ocrResp.Error)
	}

	return &ocrResp, nil
}
