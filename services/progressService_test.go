package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"
)

// fakeProgressRepo mirrors the repository's running-average semantics in
// memory so the service layer can be tested without a database.
type fakeProgressRepo struct {
	records  map[string]*models.ProgressRecord
	sessions []*models.StudySession
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: make(map[string]*models.ProgressRecord)}
}

func (f *fakeProgressRepo) key(studentID, topic string) string {
	return studentID + "|" + models.NormalizeTopic(topic)
}

func (f *fakeProgressRepo) GetProgress(_ context.Context, studentID, topic string) (*models.ProgressRecord, error) {
	record, ok := f.records[f.key(studentID, topic)]
	if !ok {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (f *fakeProgressRepo) ListProgress(_ context.Context, studentID string) ([]*models.ProgressRecord, error) {
	var out []*models.ProgressRecord
	for _, record := range f.records {
		if record.StudentID == studentID {
			copied := *record
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) ListSessions(_ context.Context, studentID string) ([]*models.StudySession, error) {
	var out []*models.StudySession
	for _, session := range f.sessions {
		if session.StudentID == studentID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) RecordScore(_ context.Context, studentID, topic string, score float64, now time.Time) (*models.ProgressRecord, error) {
	topicKey := models.NormalizeTopic(topic)
	key := f.key(studentID, topic)

	record, ok := f.records[key]
	if !ok {
		record = &models.ProgressRecord{StudentID: studentID, Topic: topicKey}
		f.records[key] = record
	}
	record.MasteryScore = (record.MasteryScore*float64(record.Attempts) + score) / float64(record.Attempts+1)
	record.Attempts++
	record.LastStudied = &now

	f.sessions = append(f.sessions, &models.StudySession{
		SessionID: models.SessionID(studentID, topicKey, now),
		StudentID: studentID,
		Topic:     topicKey,
		Score:     score,
		Timestamp: now,
	})

	copied := *record
	return &copied, nil
}

func (f *fakeProgressRepo) Close() error { return nil }

func TestRecordScoreValidation(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		expectErr bool
	}{
		{name: "lower boundary", score: 0.0, expectErr: false},
		{name: "upper boundary", score: 1.0, expectErr: false},
		{name: "mid range", score: 0.65, expectErr: false},
		{name: "above range", score: 1.5, expectErr: true},
		{name: "below range", score: -0.1, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewProgressService(newFakeProgressRepo())

			_, err := service.RecordScore(context.Background(), "s1", "algebra", tt.score)
			if tt.expectErr {
				if !errors.Is(err, ErrScoreOutOfRange) {
					t.Errorf("expected ErrScoreOutOfRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRecordScoreScenario(t *testing.T) {
	service := NewProgressService(newFakeProgressRepo())
	ctx := context.Background()

	first, err := service.RecordScore(ctx, "s1", "algebra", 0.6)
	if err != nil {
		t.Fatalf("first submission failed: %v", err)
	}
	if math.Abs(first.MasteryScore-0.60) > 1e-9 || first.Attempts != 1 {
		t.Errorf("first submission: mastery=%v attempts=%d, expected 0.60/1", first.MasteryScore, first.Attempts)
	}
	if MasteryStatus(first.MasteryScore) != "needs review" {
		t.Errorf("expected needs review after first submission, got %q", MasteryStatus(first.MasteryScore))
	}

	second, err := service.RecordScore(ctx, "s1", "algebra", 1.0)
	if err != nil {
		t.Fatalf("second submission failed: %v", err)
	}
	if math.Abs(second.MasteryScore-0.80) > 1e-9 || second.Attempts != 2 {
		t.Errorf("second submission: mastery=%v attempts=%d, expected 0.80/2", second.MasteryScore, second.Attempts)
	}
	if MasteryStatus(second.MasteryScore) != "proficient" {
		t.Errorf("expected proficient after second submission, got %q", MasteryStatus(second.MasteryScore))
	}
}

func TestCheckProgressUnseenTopic(t *testing.T) {
	service := NewProgressService(newFakeProgressRepo())

	record, err := service.CheckProgress(context.Background(), "s1", "unseen_topic")
	if err != nil {
		t.Fatalf("CheckProgress failed: %v", err)
	}
	if record != nil {
		t.Errorf("expected nil record, got %+v", record)
	}
}

func TestMasteryStatus(t *testing.T) {
	tests := []struct {
		mastery  float64
		expected string
	}{
		{0.0, "needs review"},
		{0.69, "needs review"},
		{0.7, "proficient"},
		{1.0, "proficient"},
	}

	for _, tt := range tests {
		if got := MasteryStatus(tt.mastery); got != tt.expected {
			t.Errorf("MasteryStatus(%v) = %q, expected %q", tt.mastery, got, tt.expected)
		}
	}
}

func TestSearchTopics(t *testing.T) {
	repo := newFakeProgressRepo()
	service := NewProgressService(repo)
	ctx := context.Background()

	topics := []string{"neural networks", "linear algebra", "photosynthesis"}
	for i, topic := range topics {
		if _, err := repo.RecordScore(ctx, "s1", topic, 0.5, time.Now().Add(time.Duration(i)*time.Millisecond)); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		query    string
		expected []string
	}{
		{
			name:     "exact normalized match",
			query:    "Neural Networks",
			expected: []string{"neural_networks"},
		},
		{
			name:     "partial match",
			query:    "neural",
			expected: []string{"neural_networks"},
		},
		{
			name:     "no match",
			query:    "chemistry",
			expected: nil,
		},
		{
			name:     "empty query returns all",
			query:    "",
			expected: []string{"neural_networks", "linear_algebra", "photosynthesis"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := service.SearchTopics(ctx, "s1", tt.query)
			if err != nil {
				t.Fatalf("SearchTopics failed: %v", err)
			}
			if len(records) != len(tt.expected) {
				t.Fatalf("got %d records, expected %d", len(records), len(tt.expected))
			}
			for _, expected := range tt.expected {
				found := false
				for _, record := range records {
					if record.Topic == expected {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("expected topic %q in results", expected)
				}
			}
		})
	}
}
