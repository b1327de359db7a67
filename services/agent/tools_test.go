package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/services/knowledge"
)

type fakeRetriever struct {
	matches    []knowledge.Match
	err        error
	lastQuery  string
	lastN      int
	lastFilter map[string]string
}

func (f *fakeRetriever) Search(ctx context.Context, queryText string, n int, filter map[string]string) ([]knowledge.Match, error) {
	f.lastQuery = queryText
	f.lastN = n
	f.lastFilter = filter
	return f.matches, f.err
}

type fakeTracker struct {
	record    *models.ProgressRecord
	err       error
	lastScore float64
	lastTopic string
}

func (f *fakeTracker) CheckProgress(ctx context.Context, studentID, topic string) (*models.ProgressRecord, error) {
	f.lastTopic = topic
	return f.record, f.err
}

func (f *fakeTracker) RecordScore(ctx context.Context, studentID, topic string, score float64) (*models.ProgressRecord, error) {
	f.lastTopic = topic
	f.lastScore = score
	return f.record, f.err
}

func TestRetrieveContentToolFormatsResults(t *testing.T) {
	retriever := &fakeRetriever{
		matches: []knowledge.Match{
			{
				Text:     "A neural network is a layered function approximator.",
				Metadata: map[string]any{"source_file": "ml_basics.pdf", "start_page": float64(12)},
			},
			{
				Text:     "Backpropagation computes gradients layer by layer.",
				Metadata: map[string]any{"source_file": "ml_basics.pdf", "start_page": float64(13)},
			},
		},
	}
	tool := NewRetrieveContentTool(retriever)

	out, err := tool.Call(context.Background(), `{"topic":"Neural Networks","content_type":"explanation","difficulty":"beginner"}`)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}

	if !strings.Contains(out, "[Result 1 | Source: ml_basics.pdf, Page 12]") {
		t.Errorf("missing first result header: %q", out)
	}
	if !strings.Contains(out, "[Result 2 | Source: ml_basics.pdf, Page 13]") {
		t.Errorf("missing second result header: %q", out)
	}
	if !strings.Contains(out, "\n\n---\n\n") {
		t.Errorf("results should be separated: %q", out)
	}

	if retriever.lastFilter["topic"] != "neural_networks" {
		t.Errorf("topic should be normalized in filter, got %q", retriever.lastFilter["topic"])
	}
	if retriever.lastFilter["content_type"] != "explanation" || retriever.lastFilter["difficulty"] != "beginner" {
		t.Errorf("unexpected filter: %v", retriever.lastFilter)
	}
	if retriever.lastN != 3 {
		t.Errorf("expected default of 3 results, got %d", retriever.lastN)
	}
	if retriever.lastQuery != "neural_networks explanation beginner" {
		t.Errorf("unexpected query text: %q", retriever.lastQuery)
	}
}

func TestRetrieveContentToolNoMatches(t *testing.T) {
	tool := NewRetrieveContentTool(&fakeRetriever{})

	out, err := tool.Call(context.Background(), `{"topic":"quantum chromodynamics","content_type":"practice","difficulty":"advanced"}`)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	want := "No content found for topic='quantum chromodynamics', type='practice', difficulty='advanced'."
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestRetrieveContentToolRejectsInvalidEnums(t *testing.T) {
	tool := NewRetrieveContentTool(&fakeRetriever{})

	tests := []struct {
		name  string
		input string
	}{
		{"bad content type", `{"topic":"algebra","content_type":"video","difficulty":"beginner"}`},
		{"bad difficulty", `{"topic":"algebra","content_type":"practice","difficulty":"expert"}`},
		{"malformed json", `{"topic":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tool.Call(context.Background(), tt.input); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestGetStudentProgressToolNewTopic(t *testing.T) {
	tool := NewGetStudentProgressTool(&fakeTracker{record: nil})

	out, err := tool.Call(context.Background(), `{"student_id":"student_123","topic":"calculus"}`)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !strings.Contains(out, "No progress record found") {
		t.Errorf("missing new-topic notice: %q", out)
	}
	if !strings.Contains(out, "Mastery: 0.0, Attempts: 0.") {
		t.Errorf("missing zeroed summary: %q", out)
	}
}

func TestGetStudentProgressToolExistingRecord(t *testing.T) {
	studied := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		mastery    float64
		wantStatus string
	}{
		{"below threshold", 0.55, "needs review"},
		{"at threshold", 0.70, "proficient"},
		{"above threshold", 0.92, "proficient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := NewGetStudentProgressTool(&fakeTracker{record: &models.ProgressRecord{
				StudentID:    "student_123",
				Topic:        "calculus",
				MasteryScore: tt.mastery,
				Attempts:     4,
				LastStudied:  &studied,
			}})

			out, err := tool.Call(context.Background(), `{"student_id":"student_123","topic":"calculus"}`)
			if err != nil {
				t.Fatalf("Call failed: %v", err)
			}
			if !strings.Contains(out, tt.wantStatus) {
				t.Errorf("expected status %q in %q", tt.wantStatus, out)
			}
			if !strings.Contains(out, "2024-03-15") {
				t.Errorf("expected last-studied date in %q", out)
			}
		})
	}
}

func TestUpdateStudentProgressTool(t *testing.T) {
	tracker := &fakeTracker{record: &models.ProgressRecord{
		StudentID:    "student_123",
		Topic:        "calculus",
		MasteryScore: 0.80,
		Attempts:     2,
	}}
	tool := NewUpdateStudentProgressTool(tracker)

	out, err := tool.Call(context.Background(), `{"student_id":"student_123","topic":"calculus","score":1.0}`)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if tracker.lastScore != 1.0 {
		t.Errorf("score not forwarded, got %v", tracker.lastScore)
	}
	if !strings.Contains(out, "New Mastery   : 0.80") {
		t.Errorf("missing mastery in %q", out)
	}
	if !strings.Contains(out, "Mastery achieved!") {
		t.Errorf("expected mastery status in %q", out)
	}
}

func TestUpdateStudentProgressToolBelowThreshold(t *testing.T) {
	tracker := &fakeTracker{record: &models.ProgressRecord{
		StudentID:    "student_123",
		Topic:        "calculus",
		MasteryScore: 0.40,
		Attempts:     1,
	}}
	tool := NewUpdateStudentProgressTool(tracker)

	out, err := tool.Call(context.Background(), `{"student_id":"student_123","topic":"calculus","score":0.4}`)
	if err != nil {
		t.Fatalf("Call failed: %v", err)
	}
	if !strings.Contains(out, "Needs more practice.") {
		t.Errorf("expected needs-practice status in %q", out)
	}
}
