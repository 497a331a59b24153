package services

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"docqa-platform/models"
)

func exportDataForTest() *HistoryExportData {
	asked := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)

	return &HistoryExportData{
		ExportInfo: ExportInfo{
			ExportDate:   time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			TotalRecords: 2,
			DateRange:    "2026-03-01 to 2026-03-02",
			Format:       "excel",
		},
		Exchanges: []ExchangeExport{
			{
				ID:         "aaaaaaaaaaaaaaaaaaaaaaaa",
				DocumentID: "bbbbbbbbbbbbbbbbbbbbbbbb",
				Question:   "When is the deadline?",
				Answer:     "The deadline is March 3.",
				Kind:       models.KindAnswered,
				BestScore:  0.61,
				MatchCount: 2,
				Cached:     false,
				DurationMs: 14,
				AskedAt:    asked,
			},
			{
				ID:       "cccccccccccccccccccccccc",
				Question: "What about quantum physics?",
				Answer:   "I couldn't find a confident answer in the uploaded document.",
				Kind:     models.KindNoConfidentMatch,
				AskedAt:  asked.Add(5 * time.Minute),
			},
		},
		Summary: ExportSummary{
			TotalQuestions: 2,
			KindBreakdown: map[string]int{
				models.KindAnswered:         1,
				models.KindNoConfidentMatch: 1,
			},
			AverageScore:    0.61,
			CacheHits:       0,
			UniqueDocuments: 1,
			DateRange:       "2026-03-01 to 2026-03-02",
		},
	}
}

func TestFormatDateRange(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want string
	}{
		{"both bounds", from, to, "2026-03-01 to 2026-03-15"},
		{"from only", from, time.Time{}, "From 2026-03-01"},
		{"to only", time.Time{}, to, "Until 2026-03-15"},
		{"unbounded", time.Time{}, time.Time{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatDateRange(tt.from, tt.to); got != tt.want {
				t.Errorf("formatDateRange = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildTranscript(t *testing.T) {
	text := buildTranscript(exportDataForTest())

	for _, want := range []string{
		"2 exchanges",
		"Range: 2026-03-01 to 2026-03-02",
		"Q: When is the deadline?",
		"A: The deadline is March 3.",
		"(answered, score 0.610)",
		"Q: What about quantum physics?",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("transcript missing %q:\n%s", want, text)
		}
	}
}

func TestBuildWorkbook(t *testing.T) {
	es := NewExportService(nil)

	f, err := es.buildWorkbook(exportDataForTest())
	if err != nil {
		t.Fatalf("buildWorkbook: %v", err)
	}
	defer f.Close()

	cell := func(sheet, ref string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, ref)
		if err != nil {
			t.Fatalf("GetCellValue(%s, %s): %v", sheet, ref, err)
		}
		return v
	}

	if got := cell("QA History", "A1"); got != "Asked At" {
		t.Errorf("header A1 = %q", got)
	}
	if got := cell("QA History", "I1"); got != "Duration (ms)" {
		t.Errorf("header I1 = %q", got)
	}
	if got := cell("QA History", "C2"); got != "When is the deadline?" {
		t.Errorf("question cell = %q", got)
	}
	if got := cell("QA History", "E3"); got != models.KindNoConfidentMatch {
		t.Errorf("kind cell = %q", got)
	}

	if got := cell("Summary", "A7"); got != "Total Questions" {
		t.Errorf("summary label = %q", got)
	}
	if got := cell("Summary", "B7"); got != "2" {
		t.Errorf("summary total = %q", got)
	}
}

func TestBuildBundle(t *testing.T) {
	es := NewExportService(nil)

	buf, err := es.buildBundle(exportDataForTest())
	if err != nil {
		t.Fatalf("buildBundle: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("bundle is not a readable zip: %v", err)
	}

	names := make(map[string]bool)
	for _, file := range reader.File {
		names[file.Name] = true
	}
	if !names["qa_history.xlsx"] {
		t.Error("bundle missing qa_history.xlsx")
	}
	if !names["transcript.txt"] {
		t.Error("bundle missing transcript.txt")
	}

	for _, file := range reader.File {
		if file.Name != "transcript.txt" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			t.Fatalf("open transcript: %v", err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read transcript: %v", err)
		}
		if !strings.Contains(string(content), "Q: When is the deadline?") {
			t.Error("transcript content missing from bundle")
		}
	}
}
