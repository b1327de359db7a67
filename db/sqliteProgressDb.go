package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alishbaaramzan/Adaptive-Learning-Companion/models"

	_ "modernc.org/sqlite"
)

// SQLiteProgressRepository is the embedded alternative to the Postgres
// store, used when no DB_URL is configured. SQLite has no row-level
// locks, so a mutex serializes RecordScore to keep the running-average
// update atomic and to avoid SQLITE_BUSY under concurrent writes.
type SQLiteProgressRepository struct {
	db      *sql.DB
	writeMu sync.Mutex
}

func NewSQLiteProgressRepository(dbPath string) (*SQLiteProgressRepository, error) {
	// modernc driver: pragmas go in the DSN as _pragma=name(value) and
	// apply to every pooled connection.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := &SQLiteProgressRepository{db: db}
	if err := repo.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return repo, nil
}

func (r *SQLiteProgressRepository) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS student_progress (
		student_id    TEXT NOT NULL,
		topic         TEXT NOT NULL,
		mastery_score REAL NOT NULL DEFAULT 0.0,
		attempts      INTEGER NOT NULL DEFAULT 0,
		last_studied  TEXT,
		PRIMARY KEY (student_id, topic)
	);
	CREATE TABLE IF NOT EXISTS study_sessions (
		session_id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL,
		topic      TEXT NOT NULL,
		score      REAL NOT NULL,
		timestamp  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_study_sessions_student ON study_sessions(student_id, topic);
	`
	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func (r *SQLiteProgressRepository) GetProgress(ctx context.Context, studentID, topic string) (*models.ProgressRecord, error) {
	query := `
		SELECT student_id, topic, mastery_score, attempts, last_studied
		FROM student_progress
		WHERE student_id = ? AND topic = ?`

	record := &models.ProgressRecord{}
	var lastStudied sql.NullString

	row := r.db.QueryRowContext(ctx, query, studentID, models.NormalizeTopic(topic))
	err := row.Scan(&record.StudentID, &record.Topic, &record.MasteryScore, &record.Attempts, &lastStudied)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	if lastStudied.Valid {
		if ts, err := time.Parse(time.RFC3339Nano, lastStudied.String); err == nil {
			record.LastStudied = &ts
		}
	}
	return record, nil
}

func (r *SQLiteProgressRepository) ListProgress(ctx context.Context, studentID string) ([]*models.ProgressRecord, error) {
	query := `
		SELECT student_id, topic, mastery_score, attempts, last_studied
		FROM student_progress
		WHERE student_id = ?
		ORDER BY topic`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	var records []*models.ProgressRecord
	for rows.Next() {
		record := &models.ProgressRecord{}
		var lastStudied sql.NullString
		if err := rows.Scan(&record.StudentID, &record.Topic, &record.MasteryScore, &record.Attempts, &lastStudied); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		if lastStudied.Valid {
			if ts, err := time.Parse(time.RFC3339Nano, lastStudied.String); err == nil {
				record.LastStudied = &ts
			}
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func (r *SQLiteProgressRepository) ListSessions(ctx context.Context, studentID string) ([]*models.StudySession, error) {
	query := `
		SELECT session_id, student_id, topic, score, timestamp
		FROM study_sessions
		WHERE student_id = ?
		ORDER BY timestamp`

	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.StudySession
	for rows.Next() {
		session := &models.StudySession{}
		var ts string
		if err := rows.Scan(&session.SessionID, &session.StudentID, &session.Topic, &session.Score, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse session timestamp: %w", err)
		}
		session.Timestamp = parsed
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *SQLiteProgressRepository) RecordScore(ctx context.Context, studentID, topic string, score float64, now time.Time) (*models.ProgressRecord, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

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
		`SELECT mastery_score, attempts FROM student_progress WHERE student_id = ? AND topic = ?`,
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

	nowStr := now.Format(time.RFC3339Nano)

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE student_progress SET mastery_score = ?, attempts = ?, last_studied = ? WHERE student_id = ? AND topic = ?`,
			newMastery, newAttempts, nowStr, studentID, topicKey)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO student_progress (student_id, topic, mastery_score, attempts, last_studied) VALUES (?, ?, ?, ?, ?)`,
			studentID, topicKey, newMastery, newAttempts, nowStr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to upsert progress: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO study_sessions (session_id, student_id, topic, score, timestamp) VALUES (?, ?, ?, ?, ?)`,
		models.SessionID(studentID, topicKey, now), studentID, topicKey, score, nowStr)
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

func (r *SQLiteProgressRepository) Close() error {
	return r.db.Close()
}
