package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/kotae/internal/models"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("answer not found")

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db   *sql.DB
	path string
}

// NewSQLiteJournal opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteJournal{db: db, path: dbPath}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		top_score REAL NOT NULL,
		contexts INTEGER NOT NULL,
		emb_model TEXT,
		gen_model TEXT,
		index_fingerprint TEXT,
		duration_ns INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_answers_created_at ON answers(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteJournal) Path() string {
	return s.path
}

// Record inserts ev. A missing ID or CreatedAt is filled in.
func (s *SQLiteJournal) Record(ctx context.Context, ev *models.AnswerEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO answers (id, question, answer, top_score, contexts, emb_model, gen_model, index_fingerprint, duration_ns, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Question, ev.Answer, ev.TopScore, ev.Contexts, ev.EmbModel, ev.GenModel,
		ev.IndexFingerprint, int64(ev.Duration), ev.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	return nil
}

// Notify records ev; it lets the journal subscribe to the answer pipeline.
func (s *SQLiteJournal) Notify(ctx context.Context, ev models.AnswerEvent) error {
	return s.Record(ctx, &ev)
}

const selectAnswers = `SELECT id, question, answer, top_score, contexts, emb_model, gen_model, index_fingerprint, duration_ns, created_at FROM answers`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (*models.AnswerEvent, error) {
	var ev models.AnswerEvent
	var durationNS int64
	var embModel, genModel, fingerprint sql.NullString
	if err := row.Scan(&ev.ID, &ev.Question, &ev.Answer, &ev.TopScore, &ev.Contexts,
		&embModel, &genModel, &fingerprint, &durationNS, &ev.CreatedAt); err != nil {
		return nil, err
	}
	ev.EmbModel = embModel.String
	ev.GenModel = genModel.String
	ev.IndexFingerprint = fingerprint.String
	ev.Duration = time.Duration(durationNS)
	return &ev, nil
}

// Get returns an answer by ID.
func (s *SQLiteJournal) Get(ctx context.Context, id string) (*models.AnswerEvent, error) {
	ev, err := scanAnswer(s.db.QueryRowContext(ctx, selectAnswers+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// ListRecent returns up to limit answers, newest first. limit <= 0 returns none.
func (s *SQLiteJournal) ListRecent(ctx context.Context, limit int) ([]*models.AnswerEvent, error) {
	if limit <= 0 {
		return []*models.AnswerEvent{}, nil
	}
	rows, err := s.db.QueryContext(ctx, selectAnswers+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*models.AnswerEvent, 0, limit)
	for rows.Next() {
		ev, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Count returns the number of recorded answers.
func (s *SQLiteJournal) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM answers`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteJournal) Close() error {
	return s.db.Close()
}
