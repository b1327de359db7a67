package models

import (
	"strings"
	"time"
)

// ProgressRecord tracks a student's mastery of one topic. MasteryScore is
// the running mean of all submitted scores, so it stays in [0,1] as long
// as submissions are validated at the tool boundary. Attempts counts the
// submissions folded into the mean.
type ProgressRecord struct {
	StudentID    string     `json:"student_id"`
	Topic        string     `json:"topic"`
	MasteryScore float64    `json:"mastery_score"`
	Attempts     int        `json:"attempts"`
	LastStudied  *time.Time `json:"last_studied,omitempty"`
}

// StudySession is an immutable log entry recording one score submission.
// For any (student, topic) pair the session count must equal the
// progress record's attempt count.
type StudySession struct {
	SessionID string    `json:"session_id"`
	StudentID string    `json:"student_id"`
	Topic     string    `json:"topic"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

// NormalizeTopic converts a free-form topic into the canonical key used
// by both the mastery store and the knowledge index metadata.
func NormalizeTopic(topic string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "_")
}

// SessionID derives the study session identifier from its components.
func SessionID(studentID, topic string, ts time.Time) string {
	return studentID + "_" + topic + "_" + ts.Format(time.RFC3339Nano)
}
