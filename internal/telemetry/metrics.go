package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter      metric.Int64Counter
	RequestDuration     metric.Float64Histogram
	QuestionsAsked      metric.Int64Counter
	AnswerBestScore     metric.Float64Histogram
	AnswerDuration      metric.Float64Histogram
	DocumentsIngested   metric.Int64Counter
	UploadBytes         metric.Int64Histogram
	ExtractionDuration  metric.Float64Histogram
	CircuitBreakerState metric.Int64Counter
	DatabaseOperations  metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("docqa-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	questionsAsked, err := meter.Int64Counter(
		"qa.questions.total",
		metric.WithDescription("Questions processed, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	answerBestScore, err := meter.Float64Histogram(
		"qa.answer.best_score",
		metric.WithDescription("Best similarity score per question"),
	)
	if err != nil {
		return nil, err
	}

	answerDuration, err := meter.Float64Histogram(
		"qa.answer.duration",
		metric.WithDescription("Answer pipeline duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	documentsIngested, err := meter.Int64Counter(
		"documents.ingested.total",
		metric.WithDescription("Documents accepted for ingestion"),
	)
	if err != nil {
		return nil, err
	}

	uploadBytes, err := meter.Int64Histogram(
		"upload.size.bytes",
		metric.WithDescription("Uploaded file sizes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	extractionDuration, err := meter.Float64Histogram(
		"extraction.duration",
		metric.WithDescription("Text extraction duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	circuitBreakerState, err := meter.Int64Counter(
		"circuit_breaker.state_changes",
		metric.WithDescription("Circuit breaker state changes"),
	)
	if err != nil {
		return nil, err
	}

	databaseOperations, err := meter.Int64Counter(
		"database.operations.total",
		metric.WithDescription("Total database operations"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:      requestCounter,
		RequestDuration:     requestDuration,
		QuestionsAsked:      questionsAsked,
		AnswerBestScore:     answerBestScore,
		AnswerDuration:      answerDuration,
		DocumentsIngested:   documentsIngested,
		UploadBytes:         uploadBytes,
		ExtractionDuration:  extractionDuration,
		CircuitBreakerState: circuitBreakerState,
		DatabaseOperations:  databaseOperations,
	}, nil
}

// RecordRequest records HTTP request metrics
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordQuestion records one answered question: its outcome, whether it
// came from the cache, the best similarity score, and pipeline duration.
func (m *Metrics) RecordQuestion(kind string, cached bool, bestScore, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("qa.kind", kind),
		attribute.Bool("qa.cached", cached),
	}

	m.QuestionsAsked.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.AnswerBestScore.Record(context.Background(), bestScore, metric.WithAttributes(attrs...))
	m.AnswerDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordIngestion records an accepted document and its size
func (m *Metrics) RecordIngestion(source, format string, sizeBytes int64) {
	attrs := []attribute.KeyValue{
		attribute.String("document.source", source),
		attribute.String("document.format", format),
	}

	m.DocumentsIngested.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.UploadBytes.Record(context.Background(), sizeBytes, metric.WithAttributes(attrs...))
}

// RecordExtraction records text extraction metrics
func (m *Metrics) RecordExtraction(method, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("extraction.method", method),
		attribute.String("extraction.status", status),
	}

	m.ExtractionDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordCircuitBreakerState records circuit breaker state changes
func (m *Metrics) RecordCircuitBreakerState(service, state string) {
	attrs := []attribute.KeyValue{
		attribute.String("service", service),
		attribute.String("state", state),
	}

	m.CircuitBreakerState.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}

// RecordDatabaseOperation records database operation metrics
func (m *Metrics) RecordDatabaseOperation(operation, collection string, success bool) {
	attrs := []attribute.KeyValue{
		attribute.String("db.operation", operation),
		attribute.String("db.collection", collection),
		attribute.Bool("db.success", success),
	}

	m.DatabaseOperations.Add(context.Background(), 1, metric.WithAttributes(attrs...))
}
