package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"

	_ "github.com/lib/pq"
)

// ProgressRepository is the durable mastery store. RecordScore folds one
// score into the running average and appends a study session row as a
// single atomic unit: either both writes land or neither does.
type ProgressRepository interface {
	GetProgress(ctx context.Context, studentID, topic string) (*models.ProgressRecord, error)
	ListProgress(ctx context.Context, studentID string) ([]*models.ProgressRecord, error)
	ListSessions(ctx context.Context, studentID string) ([]*models.StudySession, error)
	RecordScore(ctx context.Context, studentID, topic string, score float64, now time.Time) (*models.ProgressRecord, error)
	Close() error
}

type PostgresProgressRepository struct {
	db *sql.DB
}

func NewPostgresProgressRepository(databaseURL string) (*PostgresProgressRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &PostgresProgressRepository{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

func (r *PostgresProgressRepository) initSchema() error {
	query := `
		CREATE TABLE IF NOT EXISTS student_progress (
			student_id    TEXT NOT NULL,
			topic         TEXT NOT NULL,
			mastery_score DOUBLE PRECISION NOT NULL DEFAULT 0.0,
			attempts      INTEGER NOT NULL DEFAULT 0,
			last_studied  TIMESTAMPTZ,
			PRIMARY KEY (student_id, topic)
		);
		CREATE TABLE IF NOT EXISTS study_sessions (
			session_id TEXT PRIMARY KEY,
			student_id TEXT NOT NULL,
			topic      TEXT NOT NULL,
			score      DOUBLE PRECISION NOT NULL,
			timestamp  TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_study_sessions_student ON study_sessions(student_id, topic)`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (r *PostgresProgressRepository) GetProgress(ctx context.Context, studentID, topic string) (*models.ProgressRecord, error) {
	query := `
		SELECT student_id, topic, mastery_score, attempts, last_studied
		FROM student_progress
		WHERE student_id = $1 AND topic = $2`

	record := &models.ProgressRecord{}
	var lastStudied sql.NullTime

	row := r.db.QueryRowContext(ctx, query, studentID, models.NormalizeTopic(topic))
	err := row.Scan(&record.StudentID, &record.Topic, &record.MasteryScore, &record.Attempts, &lastStudied)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	if lastStudied.Valid {
		record.LastStudied = &lastStudied.Time
	}
	return record, nil
}

func (r *PostgresProgressRepository) ListProgress(ctx context.Context, studentID string) ([]*models.ProgressRecord, error) {
	query := `
		SELECT student_id, topic, mastery_score, attempts, last_studied
		FROM student_progress
		WHERE student_id = $1
		ORDER BY topic`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var records []*models.ProgressRecord
	for rows.Next() {
		record := &models.ProgressRecord{}
		var lastStudied sql.NullTime
		if err := rows.Scan(&record.StudentID, &record.Topic, &record.MasteryScore, &record.Attempts, &lastStudied); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		if lastStudied.Valid {
			record.LastStudied = &lastStudied.Time
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *PostgresProgressRepository) ListSessions(ctx context.Context, studentID string) ([]*models.StudySession, error) {
	query := `
		SELECT session_id, student_id, topic, score, timestamp
		FROM study_sessions
		WHERE student_id = $1
		ORDER BY timestamp`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.StudySession
	for rows.Next() {
		session := &models.StudySession{}
		if err := rows.Scan(&session.SessionID, &session.StudentID, &session.Topic, &session.Score, &session.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// RecordScore computes new_mastery = (old_mastery*attempts + score) /
// (attempts+1) under a row lock so concurrent submissions for the same
// (student, topic) cannot interleave.
func (r *PostgresProgressRepository) RecordScore(ctx context.Context, studentID, topic string, score float64, now time.Time) (*models.ProgressRecord, error) {
	topicKey := models.NormalizeTopic(topic)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var oldMastery float64
	var attempts int
	exists := true

	row := tx.QueryRowContext(ctx,
		`SELECT mastery_score, attempts FROM student_progress WHERE student_id = $1 AND topic = $2 FOR UPDATE`,
		studentID, topicKey)
	if err := row.Scan(&oldMastery, &attempts); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to read progress: %w", err)
		}
		exists = false
	}

	newAttempts := attempts + 1
	newMastery := score
	if exists {
		newMastery = (oldMastery*float64(attempts) + score) / float64(newAttempts)
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE student_progress SET mastery_score = $1, attempts = $2, last_studied = $3 WHERE student_id = $4 AND topic = $5`,
			newMastery, newAttempts, now, studentID, topicKey)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO student_progress (student_id, topic, mastery_score, attempts, last_studied) VALUES ($1, $2, $3, $4, $5)`,
			studentID, topicKey, newMastery, newAttempts, now)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert progress: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO study_sessions (session_id, student_id, topic, score, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		models.SessionID(studentID, topicKey, now), studentID, topicKey, score, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert study session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit progress update: %w", err)
	}

	return &models.ProgressRecord{
		StudentID:    studentID,
		Topic:        topicKey,
		MasteryScore: newMastery,
		Attempts:     newAttempts,
		LastStudied:  &now,
	}, nil
}

func (r *PostgresProgressRepository) Close() error {
	return r.db.Close()
}
