package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docqa-platform/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ExportRequest represents the request parameters for history export
type ExportRequest struct {
	Format   string    `form:"format" binding:"omitempty,oneof=excel json bundle"`
	DateFrom time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo   time.Time `form:"date_to" time_format:"2006-01-02"`
	Limit    int64     `form:"limit" binding:"omitempty,min=1,max=10000"`
}

// HistoryExportData represents the structured data for export
type HistoryExportData struct {
	ExportInfo ExportInfo       `json:"export_info"`
	Exchanges  []ExchangeExport `json:"exchanges"`
	Summary    ExportSummary    `json:"summary"`
}

type ExportInfo struct {
	ExportDate   time.Time `json:"export_date"`
	TotalRecords int       `json:"total_records"`
	DateRange    string    `json:"date_range,omitempty"`
	Format       string    `json:"format"`
}

type ExchangeExport struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id,omitempty"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Kind       string    `json:"kind"`
	BestScore  float64   `json:"best_score"`
	MatchCount int       `json:"match_count"`
	Cached     bool      `json:"cached"`
	DurationMs int64     `json:"duration_ms"`
	AskedAt    time.Time `json:"asked_at"`
}

type ExportSummary struct {
	TotalQuestions  int            `json:"total_questions"`
	KindBreakdown   map[string]int `json:"kind_breakdown"`
	AverageScore    float64        `json:"average_best_score"`
	CacheHits       int            `json:"cache_hits"`
	UniqueDocuments int            `json:"unique_documents"`
	DateRange       string         `json:"date_range,omitempty"`
}

// ExportService builds downloadable QA history exports
type ExportService struct {
	history *QAStore
}

// NewExportService creates a new export service
func NewExportService(history *QAStore) *ExportService {
	return &ExportService{history: history}
}

// BuildExport fetches the user's exchanges and assembles the export data
func (es *ExportService) BuildExport(ctx context.Context, userID primitive.ObjectID, req *ExportRequest) (*HistoryExportData, error) {
	exchanges, err := es.history.ListRange(ctx, userID, req.DateFrom, req.DateTo, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exchanges: %w", err)
	}

	format := req.Format
	if format == "" {
		format = "excel"
	}
	dateRange := formatDateRange(req.DateFrom, req.DateTo)

	data := &HistoryExportData{
		ExportInfo: ExportInfo{
			ExportDate:   time.Now(),
			TotalRecords: len(exchanges),
			DateRange:    dateRange,
			Format:       format,
		},
		Exchanges: make([]ExchangeExport, 0, len(exchanges)),
	}

	kindCounts := make(map[string]int)
	uniqueDocs := make(map[string]bool)
	cacheHits := 0
	scoreSum := 0.0
	answered := 0

	for _, ex := range exchanges {
		row := ExchangeExport{
			ID:         ex.ID.Hex(),
			Question:   ex.Question,
			Answer:     ex.Answer,
			Kind:       ex.Kind,
			BestScore:  ex.BestScore,
			MatchCount: ex.MatchCount,
			Cached:     ex.Cached,
			DurationMs: ex.DurationMs,
			AskedAt:    ex.CreatedAt,
		}
		if !ex.DocumentID.IsZero() {
			row.DocumentID = ex.DocumentID.Hex()
			uniqueDocs[row.DocumentID] = true
		}
		data.Exchanges = append(data.Exchanges, row)

		kindCounts[ex.Kind]++
		if ex.Cached {
			cacheHits++
		}
		if ex.Kind == models.KindAnswered {
			scoreSum += ex.BestScore
			answered++
		}
	}

	avgScore := 0.0
	if answered > 0 {
		avgScore = scoreSum / float64(answered)
	}

	data.Summary = ExportSummary{
		TotalQuestions:  len(exchanges),
		KindBreakdown:   kindCounts,
		AverageScore:    avgScore,
		CacheHits:       cacheHits,
		UniqueDocuments: len(uniqueDocs),
		DateRange:       dateRange,
	}

	return data, nil
}

// StreamExport streams the export directly to the HTTP response
func (es *ExportService) StreamExport(c *gin.Context, data *HistoryExportData) error {
	switch data.ExportInfo.Format {
	case "json":
		jsonData, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}

		c.Header("Content-Disposition", "attachment; filename=qa_history.json")
		c.Header("Content-Length", strconv.Itoa(len(jsonData)))
		c.Data(http.StatusOK, "application/json", jsonData)

	case "excel":
		f, err := es.buildWorkbook(data)
		if err != nil {
			return err
		}
		defer f.Close()

		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return fmt.Errorf("failed to write Excel file: %w", err)
		}

		c.Header("Content-Disposition", "attachment; filename=qa_history.xlsx")
		c.Header("Content-Length", strconv.Itoa(buf.Len()))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())

	case "bundle":
		buf, err := es.buildBundle(data)
		if err != nil {
			return err
		}

		c.Header("Content-Disposition", "attachment; filename=qa_history.zip")
		c.Header("Content-Length", strconv.Itoa(buf.Len()))
		c.Data(http.StatusOK, "application/zip", buf.Bytes())

	default:
		return fmt.Errorf("unsupported format: %s", data.ExportInfo.Format)
	}

	return nil
}

// buildWorkbook renders the export into an xlsx workbook with a data sheet
// and a summary sheet.
func (es *ExportService) buildWorkbook(data *HistoryExportData) (*excelize.File, error) {
	f := excelize.NewFile()

	sheetName := "QA History"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{
		"Asked At", "Document ID", "Question", "Answer", "Kind",
		"Best Score", "Matches", "Cached", "Duration (ms)",
	}

	// Write headers
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	// Bold header row with a light fill
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%c1", 'A'+len(headers)-1), headerStyle)
	}

	// Write data rows
	for rowIdx, ex := range data.Exchanges {
		row := rowIdx + 2 // Start from row 2 (after headers)

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), ex.AskedAt.Format("2006-01-02 15:04:05"))
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), ex.DocumentID)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), ex.Question)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), ex.Answer)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), ex.Kind)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), ex.BestScore)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), ex.MatchCount)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), ex.Cached)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), ex.DurationMs)
	}

	// Size columns to their content class
	widths := []float64{20, 26, 40, 60, 18, 12, 10, 10, 14}
	for i, width := range widths {
		col := fmt.Sprintf("%c", 'A'+i)
		f.SetColWidth(sheetName, col, col, width)
	}

	// Create summary sheet
	summarySheetName := "Summary"
	if _, err := f.NewSheet(summarySheetName); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}

	summaryData := [][]interface{}{
		{"Export Information", ""},
		{"Export Date", data.ExportInfo.ExportDate.Format("2006-01-02 15:04:05")},
		{"Total Records", data.ExportInfo.TotalRecords},
		{"Date Range", data.ExportInfo.DateRange},
		{"", ""},
		{"Summary Statistics", ""},
		{"Total Questions", data.Summary.TotalQuestions},
		{"Answered", data.Summary.KindBreakdown[models.KindAnswered]},
		{"No Confident Match", data.Summary.KindBreakdown[models.KindNoConfidentMatch]},
		{"No Document", data.Summary.KindBreakdown[models.KindNoDocument]},
		{"Errors", data.Summary.KindBreakdown[models.KindError]},
		{"Average Best Score", fmt.Sprintf("%.4f", data.Summary.AverageScore)},
		{"Cache Hits", data.Summary.CacheHits},
		{"Unique Documents", data.Summary.UniqueDocuments},
	}

	for i, row := range summaryData {
		for j, cell := range row {
			cellRef := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(summarySheetName, cellRef, cell)
		}
	}
	f.SetColWidth(summarySheetName, "A", "A", 24)
	f.SetColWidth(summarySheetName, "B", "B", 24)

	return f, nil
}

// buildBundle packs the workbook and a plain-text transcript into a ZIP
func (es *ExportService) buildBundle(data *HistoryExportData) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	zipWriter := zip.NewWriter(&buf)

	f, err := es.buildWorkbook(data)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var excelBuf bytes.Buffer
	if err := f.Write(&excelBuf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	excelFile, err := zipWriter.Create("qa_history.xlsx")
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel file in ZIP: %w", err)
	}
	if _, err := excelFile.Write(excelBuf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write Excel data to ZIP: %w", err)
	}

	transcriptFile, err := zipWriter.Create("transcript.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript in ZIP: %w", err)
	}
	if _, err := transcriptFile.Write([]byte(buildTranscript(data))); err != nil {
		return nil, fmt.Errorf("failed to write transcript data: %w", err)
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close ZIP writer: %w", err)
	}

	return &buf, nil
}

// buildTranscript renders the exchanges as a readable question/answer log
func buildTranscript(data *HistoryExportData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("QA history export, %s\n", data.ExportInfo.ExportDate.Format("2006-01-02 15:04:05")))
	if data.ExportInfo.DateRange != "" {
		sb.WriteString(fmt.Sprintf("Range: %s\n", data.ExportInfo.DateRange))
	}
	sb.WriteString(fmt.Sprintf("%d exchanges\n\n", data.ExportInfo.TotalRecords))

	for _, ex := range data.Exchanges {
		sb.WriteString(fmt.Sprintf("[%s] Q: %s\n", ex.AskedAt.Format("2006-01-02 15:04"), ex.Question))
		sb.WriteString(fmt.Sprintf("A: %s\n", ex.Answer))
		sb.WriteString(fmt.Sprintf("(%s, score %.3f)\n\n", ex.Kind, ex.BestScore))
	}

	return sb.String()
}

// formatDateRange describes the requested window for the summary header
func formatDateRange(from, to time.Time) string {
	switch {
	case !from.IsZero() && !to.IsZero():
		return fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	case !from.IsZero():
		return fmt.Sprintf("From %s", from.Format("2006-01-02"))
	case !to.IsZero():
		return fmt.Sprintf("Until %s", to.Format("2006-01-02"))
	default:
		return ""
	}
}
