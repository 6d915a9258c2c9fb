package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName     = "sqlite"
	maxAttempts    = 5
	defaultProject = "default"

	kindClass    = "class"
	kindFunction = "function"
	kindConstant = "constant"
)

// Store keeps declarations per project key in an SQLite database.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// Run summarises one analysis run.
type Run struct {
	ID          string
	Project     string
	Timestamp   time.Time
	Files       int
	Nodes       int
	Diagnostics int
	Failures    int
	Duration    time.Duration
}

func Open(path string, busyTimeout time.Duration) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("store path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("store path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %q: %w", dir, err)
		}
	}

	if busyTimeout <= 0 {
		busyTimeout = 2 * time.Second
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)",
		cleanPath, busyTimeout.Milliseconds())
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite store %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func projectKey(project string) string {
	project = strings.TrimSpace(project)
	if project == "" {
		return defaultProject
	}
	return project
}

type row struct {
	kind    string
	fqsen   string
	file    string
	line    int
	payload any
}

func rows(d Declarations) []row {
	out := make([]row, 0, d.Len())
	for _, c := range d.Classes {
		out = append(out, row{kindClass, c.Name, c.File, c.Line, c})
	}
	for _, f := range d.Functions {
		out = append(out, row{kindFunction, f.Name, f.File, f.Line, f})
	}
	for _, k := range d.Constants {
		out = append(out, row{kindConstant, k.Name, k.File, k.Line, k})
	}
	return out
}

// canonicalKey mirrors the code base lookup rules: class and function names
// are case-insensitive, constant names only in their namespace part.
func canonicalKey(kind, name string) (string, error) {
	fqsen, err := parseName(kind, name)
	if err != nil {
		return "", err
	}
	if kind != kindConstant {
		return fqsen.Canonical().String(), nil
	}
	fqsen.Namespace = strings.ToLower(fqsen.Namespace)
	return fqsen.String(), nil
}

// Save replaces the declarations stored for project.
func (s *Store) Save(ctx context.Context, project string, d Declarations) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := projectKey(project)
	records := rows(d)
	keys := make([]string, len(records))
	payloads := make([]string, len(records))
	for i, r := range records {
		k, err := canonicalKey(r.kind, r.fqsen)
		if err != nil {
			return err
		}
		body, err := json.Marshal(r.payload)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.kind, r.fqsen, err)
		}
		keys[i], payloads[i] = k, string(body)
	}

	return s.withRetry("save declarations", func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM declarations WHERE project_key = ?`, key); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO declarations (project_key, kind, canonical_key, fqsen, file_path, line, payload)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(project_key, kind, canonical_key) DO UPDATE SET
  fqsen=excluded.fqsen,
  file_path=excluded.file_path,
  line=excluded.line,
  payload=excluded.payload,
  updated_at_utc=CURRENT_TIMESTAMP
`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, r := range records {
			if _, err := stmt.ExecContext(ctx, key, r.kind, keys[i], r.fqsen, r.file, r.line, payloads[i]); err != nil {
				return err
			}
		}
		return tx.Commit()
	})
}

// Load returns the declarations stored for project, ordered by kind and
// name.
func (s *Store) Load(ctx context.Context, project string) (Declarations, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rs *sql.Rows
	err := s.withRetry("load declarations", func() error {
		var qErr error
		rs, qErr = s.db.QueryContext(ctx, `
SELECT kind, fqsen, payload FROM declarations
WHERE project_key = ?
ORDER BY kind, canonical_key
`, projectKey(project))
		return qErr
	})
	if err != nil {
		return Declarations{}, err
	}
	defer rs.Close()

	var d Declarations
	for rs.Next() {
		var kind, fqsen, payload string
		if err := rs.Scan(&kind, &fqsen, &payload); err != nil {
			return Declarations{}, fmt.Errorf("scan declaration row: %w", err)
		}
		if err := d.decode(kind, payload); err != nil {
			return Declarations{}, fmt.Errorf("decode %s %s: %w", kind, fqsen, err)
		}
	}
	if err := rs.Err(); err != nil {
		return Declarations{}, fmt.Errorf("iterate declaration rows: %w", err)
	}
	return d, nil
}

func (d *Declarations) decode(kind, payload string) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	switch kind {
	case kindClass:
		var rec ClassRecord
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		d.Classes = append(d.Classes, rec)
	case kindFunction:
		var rec FunctionRecord
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		d.Functions = append(d.Functions, rec)
	case kindConstant:
		var rec ConstantRecord
		if err := dec.Decode(&rec); err != nil {
			return err
		}
		d.Constants = append(d.Constants, rec)
	default:
		return fmt.Errorf("unknown declaration kind %q", kind)
	}
	return nil
}

// Count reports how many declarations are stored for project.
func (s *Store) Count(ctx context.Context, project string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	err := s.withRetry("count declarations", func() error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM declarations WHERE project_key = ?`, projectKey(project)).Scan(&n)
	})
	return n, err
}

// Projects lists the project keys holding declarations.
func (s *Store) Projects(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rs *sql.Rows
	err := s.withRetry("list projects", func() error {
		var qErr error
		rs, qErr = s.db.QueryContext(ctx, `SELECT DISTINCT project_key FROM declarations ORDER BY project_key`)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []string
	for rs.Next() {
		var p string
		if err := rs.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan project row: %w", err)
		}
		out = append(out, p)
	}
	return out, rs.Err()
}

func (s *Store) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id must not be empty")
	}
	if run.Timestamp.IsZero() {
		run.Timestamp = time.Now().UTC()
	}
	return s.withRetry("record run", func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO runs (run_id, project_key, ts_utc, file_count, node_count, diagnostic_count, failure_count, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
			run.ID,
			projectKey(run.Project),
			run.Timestamp.UTC().Format(time.RFC3339Nano),
			run.Files,
			run.Nodes,
			run.Diagnostics,
			run.Failures,
			run.Duration.Milliseconds(),
		)
		return err
	})
}

// Runs returns the latest runs of project, newest first.
func (s *Store) Runs(ctx context.Context, project string, limit int) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	var rs *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rs, qErr = s.db.QueryContext(ctx, `
SELECT run_id, project_key, ts_utc, file_count, node_count, diagnostic_count, failure_count, duration_ms
FROM runs WHERE project_key = ?
ORDER BY ts_utc DESC, run_id
LIMIT ?
`, projectKey(project), limit)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []Run
	for rs.Next() {
		var (
			run   Run
			tsRaw string
			ms    int64
		)
		if err := rs.Scan(&run.ID, &run.Project, &tsRaw, &run.Files, &run.Nodes, &run.Diagnostics, &run.Failures, &ms); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
		}
		run.Timestamp = ts.UTC()
		run.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, run)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return out, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
