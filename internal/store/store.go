package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/karne/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no stored analysis has the requested id.
var ErrNotFound = errors.New("analysis not found")

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS analyses (
		id TEXT PRIMARY KEY,
		saved_at INTEGER NOT NULL,
		student TEXT NOT NULL DEFAULT '',
		document TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS analyses_saved_at ON analyses (saved_at);

	CREATE TABLE IF NOT EXISTS preferences (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save stores an analysis, assigning an id and save time when missing.
// Saving an existing id replaces the stored document.
func (s *Store) Save(r model.AnalysisResult) (model.AnalysisResult, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.SavedAt <= 0 {
		r.SavedAt = s.now().UnixMilli()
	}
	doc, err := json.Marshal(r)
	if err != nil {
		return r, fmt.Errorf("encode analysis: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO analyses (id, saved_at, student, document) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at, student = excluded.student, document = excluded.document`,
		r.ID, r.SavedAt, r.StudentInfo.Name, string(doc),
	)
	if err != nil {
		return r, fmt.Errorf("save analysis %s: %w", r.ID, err)
	}
	return r, nil
}

// List returns all stored analyses, newest first.
func (s *Store) List() ([]model.AnalysisResult, error) {
	rows, err := s.db.Query(`SELECT id, saved_at, document FROM analyses ORDER BY saved_at DESC, rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.AnalysisResult
	for rows.Next() {
		r, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Get returns the analysis with the given id.
func (s *Store) Get(id string) (model.AnalysisResult, error) {
	r, err := scanAnalysis(s.db.QueryRow(`SELECT id, saved_at, document FROM analyses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return r, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return r, err
}

// Exists reports whether an analysis with the given id is stored.
func (s *Store) Exists(id string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM analyses WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// Delete removes the analysis with the given id.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM analyses WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of stored analyses.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM analyses`).Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scanner) (model.AnalysisResult, error) {
	var (
		r       model.AnalysisResult
		id      string
		savedAt int64
		doc     string
	)
	if err := row.Scan(&id, &savedAt, &doc); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(doc), &r); err != nil {
		return r, fmt.Errorf("decode analysis %s: %w", id, err)
	}
	r.ID = id
	r.SavedAt = savedAt
	return r, nil
}
