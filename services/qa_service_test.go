package services

import (
	"testing"

	"docqa-platform/internal/answer"
	"docqa-platform/models"
)

func TestPresentResult(t *testing.T) {
	tests := []struct {
		name     string
		result   answer.Result
		wantKind string
		wantText string
	}{
		{
			name:     "answered keeps the engine text",
			result:   answer.Result{Kind: answer.KindAnswered, Text: "Paris is the capital of France."},
			wantKind: models.KindAnswered,
			wantText: "Paris is the capital of France.",
		},
		{
			name:     "no document",
			result:   answer.Result{Kind: answer.KindNoDocument},
			wantKind: models.KindNoDocument,
			wantText: AnswerNoDocument,
		},
		{
			name:     "no confident match",
			result:   answer.Result{Kind: answer.KindNoConfidentMatch, BestScore: 0.05},
			wantKind: models.KindNoConfidentMatch,
			wantText: AnswerNoConfident,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, text := presentResult(tt.result)
			if kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
			if text != tt.wantText {
				t.Errorf("text = %q, want %q", text, tt.wantText)
			}
		})
	}
}

func TestToMatchInfo(t *testing.T) {
	if got := toMatchInfo(nil); got != nil {
		t.Errorf("no matches should map to nil, got %v", got)
	}
	if got := toMatchInfo([]answer.ScoredUnit{}); got != nil {
		t.Errorf("empty matches should map to nil, got %v", got)
	}

	matches := []answer.ScoredUnit{
		{Unit: answer.Unit{Index: 0, Text: "first passage"}, Score: 0.9},
		{Unit: answer.Unit{Index: 4, Text: "second passage"}, Score: 0.5},
	}

	infos := toMatchInfo(matches)
	if len(infos) != 2 {
		t.Fatalf("len = %d, want 2", len(infos))
	}
	if infos[0].Text != "first passage" || infos[0].Score != 0.9 {
		t.Errorf("first match mangled: %+v", infos[0])
	}
	if infos[1].Text != "second passage" || infos[1].Score != 0.5 {
		t.Errorf("second match mangled: %+v", infos[1])
	}
}
