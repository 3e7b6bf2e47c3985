package journal_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *journal.Store {
	t.Helper()
	s, err := journal.New(journal.Config{
		DataDir:           t.TempDir(),
		MaxResponseLength: 2000,
		MaxResults:        20,
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	base := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func mustSave(t *testing.T, s *journal.Store, p journal.Plan) string {
	t.Helper()
	id, err := s.Save(context.Background(), p)
	if err != nil {
		t.Fatalf("Save(%q): %v", p.Task, err)
	}
	return id
}

// ─── New / Initialization ───────────────────────────────────────────────────

func TestNew_CreatesDBFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := journal.New(journal.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer func() { _ = s.Close() }()

	if _, err := os.Stat(filepath.Join(dir, "plans.db")); err != nil {
		t.Errorf("plans.db not created: %v", err)
	}
}

func TestNew_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	s, err := journal.New(journal.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	id := mustSave(t, s, journal.Plan{Task: "persist me", Response: "ok"})
	_ = s.Close()

	s2, err := journal.New(journal.Config{DataDir: dir})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = s2.Close() }()

	p, err := s2.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if p.Task != "persist me" {
		t.Errorf("Task = %q", p.Task)
	}
}

func TestNew_WALMode(t *testing.T) {
	s := newTestStore(t)
	var mode string
	if err := s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}
}

// ─── Save / Get ─────────────────────────────────────────────────────────────

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ts := stack.TechStack{
		Frameworks: []string{"React.js", "React.js"},
		Databases:  []string{"PostgreSQL"},
	}
	id := mustSave(t, s, journal.Plan{
		Project:  "/work/shop",
		Task:     "Add checkout",
		Response: "1. Create cart model",
		Stack:    ts,
	})
	if id == "" {
		t.Fatal("Save returned empty ID")
	}

	p, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Project != "/work/shop" || p.Task != "Add checkout" || p.Response != "1. Create cart model" {
		t.Errorf("unexpected plan: %+v", p)
	}
	if len(p.Stack.Frameworks) != 1 || p.Stack.Databases[0] != "PostgreSQL" {
		t.Errorf("stack not round-tripped normalized: %+v", p.Stack)
	}
	if p.CreatedAt == "" {
		t.Error("CreatedAt should be set")
	}
}

func TestSave_RequiresTask(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Save(context.Background(), journal.Plan{Task: "  "}); err == nil {
		t.Fatal("expected error for blank task")
	}
}

func TestSave_TruncatesResponse(t *testing.T) {
	s := newTestStore(t)
	id := mustSave(t, s, journal.Plan{Task: "long", Response: strings.Repeat("x", 5000)})

	p, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(p.Response) != 2003 || !strings.HasSuffix(p.Response, "...") {
		t.Errorf("response length = %d", len(p.Response))
	}
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, journal.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ─── Recent ─────────────────────────────────────────────────────────────────

func TestRecent_NewestFirstAndProjectFilter(t *testing.T) {
	s := newTestStore(t)
	s.SetNow(tick())
	mustSave(t, s, journal.Plan{Project: "a", Task: "first"})
	mustSave(t, s, journal.Plan{Project: "b", Task: "second"})
	mustSave(t, s, journal.Plan{Project: "a", Task: "third"})

	all, err := s.Recent(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 3 || all[0].Task != "third" || all[2].Task != "first" {
		t.Errorf("unexpected order: %+v", all)
	}

	onlyA, err := s.Recent(context.Background(), "a", 10)
	if err != nil {
		t.Fatalf("Recent(a): %v", err)
	}
	if len(onlyA) != 2 {
		t.Errorf("expected 2 plans for project a, got %d", len(onlyA))
	}

	limited, err := s.Recent(context.Background(), "", 1)
	if err != nil {
		t.Fatalf("Recent limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}
}

// ─── Search ─────────────────────────────────────────────────────────────────

func TestSearch_FTS(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.Plan{Task: "Add login page", Response: "Use JWT authentication"})
	mustSave(t, s, journal.Plan{Task: "Export CSV report", Response: "Stream rows"})

	results, err := s.Search(context.Background(), "authentication", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Task != "Add login page" {
		t.Errorf("unexpected results: %+v", results)
	}
}

func TestSearch_QuotesAreSanitized(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.Plan{Task: "Add login page", Response: "form"})

	results, err := s.Search(context.Background(), `"login page`, "", 10)
	if err != nil {
		t.Fatalf("Search with stray quotes should not error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result, got %d", len(results))
	}
}

func TestSearch_EmptyQueryFallsBackToRecent(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.Plan{Task: "one"})
	mustSave(t, s, journal.Plan{Task: "two"})

	results, err := s.Search(context.Background(), "   ", "", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 results, got %d", len(results))
	}
}

func TestSearch_ProjectFilter(t *testing.T) {
	s := newTestStore(t)
	mustSave(t, s, journal.Plan{Project: "a", Task: "cache layer"})
	mustSave(t, s, journal.Plan{Project: "b", Task: "cache warmup"})

	results, err := s.Search(context.Background(), "cache", "b", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Project != "b" {
		t.Errorf("unexpected results: %+v", results)
	}
}

// ─── Stats ──────────────────────────────────────────────────────────────────

func TestStats_ProjectsQueryError(t *testing.T) {
	s := newTestStore(t)
	// COUNT and MAX still work on this table; the projects query does not.
	if _, err := s.DB().Exec(`DROP TABLE plans`); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := s.DB().Exec(`CREATE TABLE plans (seq INTEGER, created_at TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}

	stats, err := s.Stats(context.Background())
	if err == nil {
		t.Fatalf("expected error, got stats %+v", stats)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	s.SetNow(tick())

	empty, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if empty.TotalPlans != 0 || len(empty.Projects) != 0 {
		t.Errorf("empty stats = %+v", empty)
	}

	mustSave(t, s, journal.Plan{Project: "a", Task: "x"})
	mustSave(t, s, journal.Plan{Project: "b", Task: "y"})
	mustSave(t, s, journal.Plan{Task: "no project"})

	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalPlans != 3 {
		t.Errorf("TotalPlans = %d", stats.TotalPlans)
	}
	if len(stats.Projects) != 2 || stats.Projects[0] != "b" {
		t.Errorf("Projects = %v", stats.Projects)
	}
	if stats.LastPlanAt == "" {
		t.Error("LastPlanAt should be set")
	}
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func TestTruncate(t *testing.T) {
	if got := journal.Truncate("short", 10); got != "short" {
		t.Errorf("Truncate short = %q", got)
	}
	if got := journal.Truncate("abcdef", 3); got != "abc..." {
		t.Errorf("Truncate = %q", got)
	}
}

func TestTruncate_KeepsRunesWhole(t *testing.T) {
	got := journal.Truncate("añadir índice 日本語", 9)
	if got != "añadir ín..." {
		t.Errorf("Truncate = %q", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("Truncate produced invalid UTF-8: %q", got)
	}
	if got := journal.Truncate("日本語", 3); got != "日本語" {
		t.Errorf("Truncate at rune count = %q", got)
	}
}

func TestSave_TruncatesMultibyteResponse(t *testing.T) {
	s := newTestStore(t)
	id := mustSave(t, s, journal.Plan{Task: "emoji", Response: strings.Repeat("é", 3000)})

	p, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !utf8.ValidString(p.Response) {
		t.Fatal("stored response is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(p.Response); n != 2003 {
		t.Errorf("rune count = %d, want 2003", n)
	}
}

func TestParseDetailLevel(t *testing.T) {
	tests := map[string]string{
		"summary":  journal.DetailSummary,
		"full":     journal.DetailFull,
		"standard": journal.DetailStandard,
		"":         journal.DetailStandard,
		"verbose":  journal.DetailStandard,
	}
	for in, want := range tests {
		if got := journal.ParseDetailLevel(in); got != want {
			t.Errorf("ParseDetailLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNavigationHint(t *testing.T) {
	if got := journal.NavigationHint(5, 5, ""); got != "" {
		t.Errorf("all shown should be empty, got %q", got)
	}
	if got := journal.NavigationHint(2, 5, "Use plan_search."); !strings.Contains(got, "Showing 2 of 5. Use plan_search.") {
		t.Errorf("hint = %q", got)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcdefgh", 2},
	}
	for _, tt := range tests {
		if got := journal.EstimateTokens(tt.in); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
