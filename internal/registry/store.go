package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create registry dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// one connection keeps :memory: databases shared and serialises writers
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	lines := strings.Split(schemaSQL, "\n")
	var cleanLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "--") && trimmed != "" {
			cleanLines = append(cleanLines, line)
		}
	}

	if _, err := s.db.Exec(strings.Join(cleanLines, "\n")); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, SchemaVersion)
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UpsertDocument(doc *Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	processedAt := doc.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO documents (path, content_hash, encoding, kind, status, error_message, letter_path, processed_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			content_hash = excluded.content_hash,
			encoding = excluded.encoding,
			kind = excluded.kind,
			status = excluded.status,
			error_message = excluded.error_message,
			letter_path = excluded.letter_path,
			processed_at = excluded.processed_at,
			updated_at = excluded.updated_at
	`, doc.Path, doc.ContentHash, doc.Encoding, doc.Kind, doc.Status, doc.ErrorMessage, doc.LetterPath,
		processedAt.UTC(), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("upsert document: %w", err)
	}

	var id int64
	if err := s.db.QueryRow("SELECT id FROM documents WHERE path = ?", doc.Path).Scan(&id); err != nil {
		return 0, fmt.Errorf("get document id: %w", err)
	}
	doc.ID = id

	return id, nil
}

const documentColumns = `id, path, content_hash, encoding, kind, status, error_message, letter_path, processed_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	doc := &Document{}
	var encoding, kind, errorMsg, letterPath sql.NullString
	var processedAt, updatedAt sql.NullTime

	if err := row.Scan(
		&doc.ID, &doc.Path, &doc.ContentHash, &encoding, &kind,
		&doc.Status, &errorMsg, &letterPath, &processedAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	doc.Encoding = encoding.String
	doc.Kind = kind.String
	doc.ErrorMessage = errorMsg.String
	doc.LetterPath = letterPath.String
	if processedAt.Valid {
		doc.ProcessedAt = processedAt.Time
	}
	if updatedAt.Valid {
		doc.UpdatedAt = updatedAt.Time
	}

	return doc, nil
}

// GetDocument returns nil, nil when path has never been processed.
func (s *Store) GetDocument(path string) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, err := scanDocument(s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// ListByStatus returns the most recently processed documents first.
func (s *Store) ListByStatus(status Status, limit int) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT `+documentColumns+`
		FROM documents WHERE status = ? ORDER BY processed_at DESC, id DESC LIMIT ?
	`, status, limit)
	if err != nil {
		return nil, fmt.Errorf("list documents by status: %w", err)
	}
	defer rows.Close()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (s *Store) DeleteDocument(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM documents WHERE path = ?", path); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) Stats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats Stats
	var generated, failed, skipped sql.NullInt64
	err := s.db.QueryRow(`
		SELECT
			COUNT(*),
			SUM(CASE WHEN status = 'generated' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'skipped' THEN 1 ELSE 0 END)
		FROM documents
	`).Scan(&stats.TotalDocuments, &generated, &failed, &skipped)
	if err != nil {
		return Stats{}, fmt.Errorf("count documents: %w", err)
	}
	stats.Generated = int(generated.Int64)
	stats.Failed = int(failed.Int64)
	stats.Skipped = int(skipped.Int64)

	var last sql.NullTime
	err = s.db.QueryRow(`SELECT processed_at FROM documents ORDER BY processed_at DESC LIMIT 1`).Scan(&last)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("last processed: %w", err)
	}
	if last.Valid {
		stats.LastProcessedAt = last.Time
	}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&stats.Runs); err != nil {
		return Stats{}, fmt.Errorf("count runs: %w", err)
	}

	run, err := scanRun(s.db.QueryRow(`SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC LIMIT 1`))
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Stats{}, fmt.Errorf("last run: %w", err)
	default:
		stats.LastRun = run
	}

	return stats, nil
}

const runColumns = `id, root, started_at, finished_at, processed, failed, skipped`

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var root sql.NullString
	var startedAt, finishedAt sql.NullTime

	if err := row.Scan(&run.ID, &root, &startedAt, &finishedAt, &run.Processed, &run.Failed, &run.Skipped); err != nil {
		return nil, err
	}

	run.Root = root.String
	if startedAt.Valid {
		run.StartedAt = startedAt.Time
	}
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}

	return run, nil
}

func (s *Store) StartRun(root string) (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run := &Run{
		ID:        uuid.NewString(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}

	if _, err := s.db.Exec(`INSERT INTO runs (id, root, started_at) VALUES (?, ?, ?)`, run.ID, run.Root, run.StartedAt); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}

	return run, nil
}

func (s *Store) FinishRun(run *Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	result, err := s.db.Exec(`
		UPDATE runs SET finished_at = ?, processed = ?, failed = ?, skipped = ? WHERE id = ?
	`, run.FinishedAt, run.Processed, run.Failed, run.Skipped, run.ID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", run.ID, ErrUnknownRun)
	}

	return nil
}

func (s *Store) GetRun(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

var ErrUnknownRun = errors.New("unknown run")
