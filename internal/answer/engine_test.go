package answer

import (
	"context"
	"reflect"
	"strings"
	"testing"
)

func TestAnswerMatchesRelevantSentence(t *testing.T) {
	e := NewEngine()
	res, err := e.Answer(context.Background(), "The sky is blue. Water is wet.", "what color is the sky")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Kind != KindAnswered {
		t.Fatalf("kind = %s, want %s", res.Kind, KindAnswered)
	}
	if !strings.Contains(res.Text, "The sky is blue.") {
		t.Errorf("answer %q does not contain the matched sentence", res.Text)
	}
	if strings.Contains(res.Text, "Water is wet.") {
		t.Errorf("answer %q contains an unrelated sentence", res.Text)
	}
	if res.BestScore < ScoreThreshold || res.BestScore > 1 {
		t.Errorf("best score = %v, want a confident value in [%v, 1]", res.BestScore, ScoreThreshold)
	}
	if len(res.Matches) == 0 {
		t.Errorf("answered result carries no matches")
	}
}

func TestAnswerUnrelatedQuestion(t *testing.T) {
	e := NewEngine()
	res, err := e.Answer(context.Background(), "Lorem ipsum dolor sit amet.", "quantum entanglement")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Kind != KindNoConfidentMatch {
		t.Fatalf("kind = %s, want %s", res.Kind, KindNoConfidentMatch)
	}
	if res.Text != "" {
		t.Errorf("unanswered result carries text %q", res.Text)
	}
}

func TestAnswerNoDocument(t *testing.T) {
	e := NewEngine()
	for _, doc := range []string{"", "   \n\t"} {
		res, err := e.Answer(context.Background(), doc, "anything")
		if err != nil {
			t.Fatalf("answer(%q): %v", doc, err)
		}
		if res.Kind != KindNoDocument {
			t.Errorf("answer(%q) kind = %s, want %s", doc, res.Kind, KindNoDocument)
		}
	}
}

func TestAnswerRunOnDocumentFallback(t *testing.T) {
	e := NewEngine()
	doc := strings.Repeat("gravity pulls objects together without pause ", 60)

	res, err := e.Answer(context.Background(), doc, "gravity pulls objects together")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Kind != KindAnswered {
		t.Fatalf("kind = %s, want %s", res.Kind, KindAnswered)
	}
	if len(res.Matches) != 1 {
		t.Fatalf("got %d matches, want the single fallback unit", len(res.Matches))
	}
	if got := len(res.Matches[0].Unit.Text); got != FallbackMaxChars {
		t.Errorf("fallback unit length = %d, want %d", got, FallbackMaxChars)
	}
	if got := len([]rune(res.Text)); got != AnswerMaxChars {
		t.Errorf("answer length = %d, want the %d cap", got, AnswerMaxChars)
	}
}

func TestAnswerIdenticalSentenceScoresHighest(t *testing.T) {
	e := NewEngine()
	doc := "Photosynthesis converts sunlight into chemical energy. Rocks erode over centuries."

	res, err := e.Answer(context.Background(), doc, "photosynthesis converts sunlight into chemical energy")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Kind != KindAnswered {
		t.Fatalf("kind = %s, want %s", res.Kind, KindAnswered)
	}
	if res.Text != "Photosynthesis converts sunlight into chemical energy." {
		t.Errorf("answer = %q", res.Text)
	}
	if res.BestScore < 0.99 || res.BestScore > 1 {
		t.Errorf("best score = %v, want close to 1", res.BestScore)
	}
}

func TestAnswerEmptyVocabulary(t *testing.T) {
	e := NewEngine()
	res, err := e.Answer(context.Background(), "the and of", "a an the")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Kind != KindNoConfidentMatch {
		t.Fatalf("kind = %s, want %s", res.Kind, KindNoConfidentMatch)
	}
	if !res.EmptyVocabulary {
		t.Errorf("expected the empty-vocabulary marker on the result")
	}
}

func TestAnswerBlankQuestion(t *testing.T) {
	e := NewEngine()
	res, err := e.Answer(context.Background(), "Facts exist. Evidence matters.", "   ")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if res.Kind != KindNoConfidentMatch {
		t.Fatalf("kind = %s, want %s", res.Kind, KindNoConfidentMatch)
	}
}

func TestAnswerDeterministic(t *testing.T) {
	e := NewEngine()
	doc := "Tides rise because the moon pulls the ocean. Wind moves the waves. Salt stays dissolved in seawater."
	question := "why do tides rise"

	first, err := e.Answer(context.Background(), doc, question)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if first.Kind != KindAnswered {
		t.Fatalf("kind = %s, want %s", first.Kind, KindAnswered)
	}
	for i := 0; i < 5; i++ {
		again, err := e.Answer(context.Background(), doc, question)
		if err != nil {
			t.Fatalf("answer: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("result changed between runs: %+v then %+v", first, again)
		}
	}
}

func TestAnswerRecoversPanic(t *testing.T) {
	// Nil stages force a fault inside the pipeline.
	e := &Engine{}
	res, err := e.Answer(context.Background(), "Some document text.", "query")
	if err == nil {
		t.Fatalf("expected an error from the recovered panic, got %+v", res)
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Errorf("err = %v, want a panic diagnostic", err)
	}
	if res.Kind != "" {
		t.Errorf("failed pipeline returned kind %s", res.Kind)
	}
}
