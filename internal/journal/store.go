// Package journal archives completed task plans across process restarts.
//
// It uses SQLite with FTS5 so earlier plans can be searched by task or
// plan text. The journal is write-mostly: the session store stays the only
// source of the cached tech stack and the in-process history.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// ErrNotFound is returned by Get for an unknown plan ID.
var ErrNotFound = errors.New("journal: plan not found")

// ─── Types ───────────────────────────────────────────────────────────────────

// Plan is one archived plan.
type Plan struct {
	ID        string          `json:"id"`
	Project   string          `json:"project"`
	Task      string          `json:"task"`
	Response  string          `json:"response"`
	Stack     stack.TechStack `json:"stack"`
	CreatedAt string          `json:"created_at"`
}

// SearchResult is a Plan with its FTS5 rank. Lower ranks match better.
type SearchResult struct {
	Plan
	Rank float64 `json:"rank"`
}

// Stats holds aggregate journal statistics.
type Stats struct {
	TotalPlans int      `json:"total_plans"`
	Projects   []string `json:"projects"`
	LastPlanAt string   `json:"last_plan_at,omitempty"`
}

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds journal configuration.
type Config struct {
	DataDir           string
	MaxResponseLength int
	MaxResults        int
}

// DefaultConfig returns the default configuration for the journal.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:           filepath.Join(home, ".taskplanner"),
		MaxResponseLength: 20000,
		MaxResults:        20,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the plan archive backed by SQLite + FTS5.
type Store struct {
	db  *sql.DB
	cfg Config
	now func() time.Time
}

// New opens (creating if needed) plans.db under cfg.DataDir and runs
// migrations.
func New(cfg Config) (*Store, error) {
	def := DefaultConfig()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.MaxResponseLength <= 0 {
		cfg.MaxResponseLength = def.MaxResponseLength
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("journal: create data dir: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, "plans.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS plans (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT    NOT NULL UNIQUE,
			project    TEXT    NOT NULL DEFAULT '',
			task       TEXT    NOT NULL,
			response   TEXT    NOT NULL,
			stack_json TEXT    NOT NULL DEFAULT '{}',
			created_at TEXT    NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_plans_project ON plans(project);
		CREATE INDEX IF NOT EXISTS idx_plans_created ON plans(created_at DESC);

		CREATE VIRTUAL TABLE IF NOT EXISTS plans_fts USING fts5(
			task,
			response,
			project,
			content='plans',
			content_rowid='seq'
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='trigger' AND name='plans_fts_insert'",
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		triggers := `
			CREATE TRIGGER plans_fts_insert AFTER INSERT ON plans BEGIN
				INSERT INTO plans_fts(rowid, task, response, project)
				VALUES (new.seq, new.task, new.response, new.project);
			END;

			CREATE TRIGGER plans_fts_delete AFTER DELETE ON plans BEGIN
				INSERT INTO plans_fts(plans_fts, rowid, task, response, project)
				VALUES ('delete', old.seq, old.task, old.response, old.project);
			END;
		`
		if _, err := s.db.Exec(triggers); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}
	return nil
}

// ─── Plans ───────────────────────────────────────────────────────────────────

// Save archives p and returns its ID. A missing ID is generated; an
// overlong response is truncated to MaxResponseLength.
func (s *Store) Save(ctx context.Context, p Plan) (string, error) {
	if strings.TrimSpace(p.Task) == "" {
		return "", fmt.Errorf("journal: save: task is required")
	}
	if p.ID == "" {
		p.ID = uuid.Must(uuid.NewV7()).String()
	}
	if p.CreatedAt == "" {
		p.CreatedAt = s.timestamp()
	}
	stackJSON, err := json.Marshal(p.Stack.Normalize())
	if err != nil {
		return "", fmt.Errorf("journal: encode stack: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO plans (id, project, task, response, stack_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Project, p.Task, Truncate(p.Response, s.cfg.MaxResponseLength), string(stackJSON), p.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("journal: save: %w", err)
	}
	return p.ID, nil
}

// Get returns one plan by ID.
func (s *Store) Get(ctx context.Context, id string) (*Plan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project, task, response, stack_json, created_at FROM plans WHERE id = ?`, id)
	p, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("journal: get %s: %w", id, err)
	}
	return p, nil
}

// Recent returns the newest plans first. An empty project matches all.
func (s *Store) Recent(ctx context.Context, project string, limit int) ([]Plan, error) {
	sqlStr := `SELECT id, project, task, response, stack_json, created_at FROM plans`
	var args []any
	if project != "" {
		sqlStr += " WHERE project = ?"
		args = append(args, project)
	}
	sqlStr += " ORDER BY created_at DESC, seq DESC LIMIT ?"
	args = append(args, s.clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// Search runs a full-text query over task, response and project. An
// empty query falls back to Recent.
func (s *Store) Search(ctx context.Context, query, project string, limit int) ([]SearchResult, error) {
	ftsQuery := sanitizeFTS(query)
	if ftsQuery == "" {
		plans, err := s.Recent(ctx, project, limit)
		if err != nil {
			return nil, err
		}
		results := make([]SearchResult, len(plans))
		for i, p := range plans {
			results[i] = SearchResult{Plan: p}
		}
		return results, nil
	}

	sqlStr := `
		SELECT p.id, p.project, p.task, p.response, p.stack_json, p.created_at, fts.rank
		FROM plans_fts fts
		JOIN plans p ON p.seq = fts.rowid
		WHERE plans_fts MATCH ?
	`
	args := []any{ftsQuery}
	if project != "" {
		sqlStr += " AND p.project = ?"
		args = append(args, project)
	}
	sqlStr += " ORDER BY fts.rank LIMIT ?"
	args = append(args, s.clampLimit(limit))

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("journal: search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []SearchResult
	for rows.Next() {
		var (
			sr        SearchResult
			stackJSON string
		)
		if err := rows.Scan(&sr.ID, &sr.Project, &sr.Task, &sr.Response, &stackJSON, &sr.CreatedAt, &sr.Rank); err != nil {
			return nil, err
		}
		sr.Stack = decodeStack(stackJSON)
		results = append(results, sr)
	}
	return results, rows.Err()
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats returns aggregate journal statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var last sql.NullString
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), MAX(created_at) FROM plans").Scan(&stats.TotalPlans, &last); err != nil {
		return nil, fmt.Errorf("journal: stats: %w", err)
	}
	stats.LastPlanAt = last.String

	rows, err := s.db.QueryContext(ctx,
		"SELECT project FROM plans WHERE project != '' GROUP BY project ORDER BY MAX(created_at) DESC")
	if err != nil {
		return nil, fmt.Errorf("journal: stats projects: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("journal: stats projects: %w", err)
		}
		stats.Projects = append(stats.Projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: stats projects: %w", err)
	}
	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

type scanner interface {
	Scan(dest ...any) error
}

func scanPlan(row scanner) (*Plan, error) {
	var (
		p         Plan
		stackJSON string
	)
	if err := row.Scan(&p.ID, &p.Project, &p.Task, &p.Response, &stackJSON, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Stack = decodeStack(stackJSON)
	return &p, nil
}

// decodeStack tolerates rows written by hand or by older versions.
func decodeStack(raw string) stack.TechStack {
	var ts stack.TechStack
	_ = json.Unmarshal([]byte(raw), &ts)
	return ts
}

func (s *Store) clampLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	}
	if limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}
	return limit
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format("2006-01-02 15:04:05")
}

// Truncate shortens s to max runes, appending "..." when cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}

// sanitizeFTS wraps each word in quotes for safe FTS5 queries.
// "add login page" → `"add" "login" "page"`
func sanitizeFTS(query string) string {
	words := strings.Fields(query)
	out := words[:0]
	for _, w := range words {
		w = strings.ReplaceAll(w, `"`, "")
		if w == "" {
			continue
		}
		out = append(out, `"`+w+`"`)
	}
	return strings.Join(out, " ")
}
