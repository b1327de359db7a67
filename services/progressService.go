package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/db"
	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

// MasteryThreshold separates "needs review" from "proficient".
const MasteryThreshold = 0.7

// ErrScoreOutOfRange is returned when a submitted score falls outside
// [0,1]. This is a contract violation at the tool boundary and never
// reaches the store.
var ErrScoreOutOfRange = errors.New("score must be between 0.0 and 1.0")

type ProgressService struct {
	repo db.ProgressRepository
}

func NewProgressService(repo db.ProgressRepository) *ProgressService {
	return &ProgressService{repo: repo}
}

// CheckProgress returns the mastery record for the normalized topic, or
// nil when the student has never studied it. Absence is an expected
// state, not an error.
func (s *ProgressService) CheckProgress(ctx context.Context, studentID, topic string) (*models.ProgressRecord, error) {
	return s.repo.GetProgress(ctx, studentID, topic)
}

// RecordScore validates the score and folds it into the running average.
// The upsert and the session log row are written atomically by the
// repository.
func (s *ProgressService) RecordScore(ctx context.Context, studentID, topic string, score float64) (*models.ProgressRecord, error) {
	if score < 0.0 || score > 1.0 {
		return nil, fmt.Errorf("%w: got %v", ErrScoreOutOfRange, score)
	}

	record, err := s.repo.RecordScore(ctx, studentID, topic, score, time.Now())
	if err != nil {
		return nil, err
	}

	log.Printf("[INFO] Recorded score %.2f for student %s on topic %s (mastery %.2f after %d attempts)",
		score, studentID, record.Topic, record.MasteryScore, record.Attempts)
	return record, nil
}

func (s *ProgressService) ListProgress(ctx context.Context, studentID string) ([]*models.ProgressRecord, error) {
	return s.repo.ListProgress(ctx, studentID)
}

func (s *ProgressService) ListSessions(ctx context.Context, studentID string) ([]*models.StudySession, error) {
	return s.repo.ListSessions(ctx, studentID)
}

// SearchTopics filters a student's studied topics by fuzzy match, so
// "neural nets" still finds "neural_networks".
func (s *ProgressService) SearchTopics(ctx context.Context, studentID, query string) ([]*models.ProgressRecord, error) {
	records, err := s.repo.ListProgress(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return records, nil
	}

	normalized := models.NormalizeTopic(query)
	return lo.Filter(records, func(record *models.ProgressRecord, _ int) bool {
		return topicMatchesQuery(record.Topic, normalized)
	}), nil
}

func topicMatchesQuery(topic, query string) bool {
	if topic == query {
		return true
	}
	if fuzzy.MatchFold(query, topic) {
		return true
	}
	// Tolerate small typos on longer queries.
	return len(query) > 3 && fuzzy.LevenshteinDistance(query, topic) <= 2
}

// MasteryStatus classifies a mastery score against the review threshold.
func MasteryStatus(mastery float64) string {
	if mastery < MasteryThreshold {
		return "needs review"
	}
	return "proficient"
}
