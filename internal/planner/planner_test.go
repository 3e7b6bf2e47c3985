package planner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/session"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/templates"
)

// --- Fakes ---

type fakeDetector struct {
	stack   stack.TechStack
	err     error
	calls   int
	refresh []bool
}

func (d *fakeDetector) Detect(_ context.Context, _ string, force bool) (stack.TechStack, error) {
	d.calls++
	d.refresh = append(d.refresh, force)
	return d.stack, d.err
}

type fakeGenerator struct {
	replies []string
	err     error
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.replies) == 0 {
		return "plan body", nil
	}
	r := g.replies[0]
	g.replies = g.replies[1:]
	return r, nil
}

type fakeArchive struct {
	saved []journal.Plan
	err   error
}

func (a *fakeArchive) Save(_ context.Context, p journal.Plan) (string, error) {
	a.saved = append(a.saved, p)
	return "id", a.err
}

// failingRenderer fails on one template name.
type failingRenderer struct {
	templates.Renderer
	failOn string
}

func (r failingRenderer) Render(name string, data any) (string, error) {
	if name == r.failOn {
		return "", fmt.Errorf("render %s: boom", name)
	}
	return r.Renderer.Render(name, data)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRenderer(t *testing.T) templates.Renderer {
	t.Helper()
	r, err := templates.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

var reactStack = stack.TechStack{
	Frameworks: []string{"React.js", "Express.js"},
	Databases:  []string{"MongoDB (Mongoose)"},
}

// --- Plan ---

func TestPlan_EmptyTask(t *testing.T) {
	store := session.New()
	det := &fakeDetector{}
	gen := &fakeGenerator{}
	p := New(store, det, gen, newRenderer(t), WithLogger(quietLogger()))

	for _, task := range []string{"", "   ", "\n\t"} {
		_, err := p.Plan(context.Background(), Request{Task: task})
		if !errors.Is(err, ErrEmptyTask) {
			t.Errorf("Plan(%q) err = %v, want ErrEmptyTask", task, err)
		}
	}
	if det.calls != 0 || len(gen.prompts) != 0 || len(store.Tasks()) != 0 {
		t.Error("blank tasks must have no side effects")
	}
}

func TestPlan_Success(t *testing.T) {
	store := session.New()
	det := &fakeDetector{stack: reactStack}
	gen := &fakeGenerator{replies: []string{"1. Create the schema."}}
	archive := &fakeArchive{}
	p := New(store, det, gen, newRenderer(t),
		WithRoot("/work/app"),
		WithArchive(archive),
		WithLogger(quietLogger()),
	)

	res, err := p.Plan(context.Background(), Request{Task: "  add comments  "})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Failed || res.NoProject {
		t.Errorf("unexpected flags: %+v", res)
	}
	if !strings.HasPrefix(res.Plan, "### Task Plan for: add comments") {
		t.Errorf("plan heading:\n%s", res.Plan)
	}
	if !strings.Contains(res.Plan, "1. Create the schema.") {
		t.Errorf("plan body missing:\n%s", res.Plan)
	}
	if !strings.Contains(res.Plan, "_Planned against:_") {
		t.Errorf("stack footer missing:\n%s", res.Plan)
	}
	if !strings.Contains(gen.prompts[0], `"add comments"`) {
		t.Errorf("prompt should quote the trimmed task:\n%s", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[0], "React.js, Express.js") {
		t.Errorf("prompt should list frameworks:\n%s", gen.prompts[0])
	}

	tasks := store.Tasks()
	if len(tasks) != 1 || tasks[0].ID != res.TaskID {
		t.Fatalf("tasks = %+v", tasks)
	}
	if tasks[0].Response != "1. Create the schema." {
		t.Errorf("response = %q", tasks[0].Response)
	}

	if len(archive.saved) != 1 {
		t.Fatalf("archived %d plans, want 1", len(archive.saved))
	}
	if got := archive.saved[0]; got.Project != "/work/app" || got.Task != "add comments" {
		t.Errorf("archived = %+v", got)
	}
}

func TestPlan_RefreshPassedToDetector(t *testing.T) {
	det := &fakeDetector{stack: reactStack}
	p := New(session.New(), det, &fakeGenerator{}, newRenderer(t), WithLogger(quietLogger()))

	if _, err := p.Plan(context.Background(), Request{Task: "a"}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Plan(context.Background(), Request{Task: "b", Refresh: true}); err != nil {
		t.Fatal(err)
	}
	if len(det.refresh) != 2 || det.refresh[0] || !det.refresh[1] {
		t.Errorf("refresh flags = %v, want [false true]", det.refresh)
	}
}

func TestPlan_NoProjectUsesEmptyStack(t *testing.T) {
	det := &fakeDetector{err: fmt.Errorf("scan: %w", stack.ErrNoProject)}
	gen := &fakeGenerator{}
	p := New(session.New(), det, gen, newRenderer(t), WithLogger(quietLogger()))

	res, err := p.Plan(context.Background(), Request{Task: "build a blog"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !res.NoProject {
		t.Error("NoProject should be set")
	}
	if res.Failed {
		t.Error("planning should continue without a project")
	}
	if !strings.Contains(gen.prompts[0], "Frameworks:** Unknown") {
		t.Errorf("prompt should show the unknown stack:\n%s", gen.prompts[0])
	}
	if !strings.Contains(gen.prompts[0], "No technologies were detected") {
		t.Errorf("prompt should carry the fallback instruction:\n%s", gen.prompts[0])
	}
	if strings.Contains(res.Plan, "_Planned against:_") {
		t.Error("empty stack should not produce a footer")
	}
}

func TestPlan_DetectionErrorIsNotFatal(t *testing.T) {
	det := &fakeDetector{err: errors.New("permission denied")}
	p := New(session.New(), det, &fakeGenerator{}, newRenderer(t), WithLogger(quietLogger()))

	res, err := p.Plan(context.Background(), Request{Task: "x"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Failed || res.NoProject {
		t.Errorf("unexpected flags: %+v", res)
	}
	if !res.Stack.IsEmpty() {
		t.Errorf("stack = %+v, want empty", res.Stack)
	}
}

func TestPlan_GeneratorFailure(t *testing.T) {
	store := session.New()
	gen := &fakeGenerator{err: errors.New("503 from upstream")}
	archive := &fakeArchive{}
	p := New(store, &fakeDetector{stack: reactStack}, gen, newRenderer(t),
		WithArchive(archive), WithLogger(quietLogger()))

	res, err := p.Plan(context.Background(), Request{Task: "add search"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if !res.Failed || res.Plan != FailureMessage {
		t.Errorf("res = %+v", res)
	}
	// The task stays recorded with an empty response.
	last, ok := store.LastTask()
	if !ok || last.Input != "add search" || last.Response != "" {
		t.Errorf("LastTask = %+v, %v", last, ok)
	}
	if len(archive.saved) != 0 {
		t.Error("failed plans must not be archived")
	}
}

func TestPlan_RenderFailure(t *testing.T) {
	for _, name := range []string{templates.Prompt, templates.Plan} {
		t.Run(name, func(t *testing.T) {
			r := failingRenderer{Renderer: newRenderer(t), failOn: name}
			p := New(session.New(), &fakeDetector{}, &fakeGenerator{}, r, WithLogger(quietLogger()))

			res, err := p.Plan(context.Background(), Request{Task: "x"})
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if !res.Failed || res.Plan != FailureMessage {
				t.Errorf("res = %+v", res)
			}
		})
	}
}

func TestPlan_HistoryFeedsPrompt(t *testing.T) {
	gen := &fakeGenerator{replies: []string{"first plan", "second plan", "third plan"}}
	p := New(session.New(), &fakeDetector{stack: reactStack}, gen, newRenderer(t), WithLogger(quietLogger()))

	for _, task := range []string{"create users table", "add auth", "add profile page"} {
		if _, err := p.Plan(context.Background(), Request{Task: task}); err != nil {
			t.Fatal(err)
		}
	}

	if strings.Contains(gen.prompts[0], "Earlier requests") {
		t.Error("first prompt should have no history")
	}
	third := gen.prompts[2]
	for _, want := range []string{"create users table", "first plan", "add auth", "second plan"} {
		if !strings.Contains(third, want) {
			t.Errorf("third prompt missing %q:\n%s", want, third)
		}
	}
}

func TestPlan_HistoryWindow(t *testing.T) {
	gen := &fakeGenerator{}
	p := New(session.New(), &fakeDetector{}, gen, newRenderer(t),
		WithHistoryWindow(1), WithLogger(quietLogger()))

	for _, task := range []string{"alpha task", "beta task", "gamma task"} {
		if _, err := p.Plan(context.Background(), Request{Task: task}); err != nil {
			t.Fatal(err)
		}
	}
	third := gen.prompts[2]
	if strings.Contains(third, "alpha task") {
		t.Error("window of 1 should drop the oldest task")
	}
	if !strings.Contains(third, "beta task") {
		t.Error("window of 1 should keep the previous task")
	}
}

func TestPlan_ArchiveFailureIsNotFatal(t *testing.T) {
	archive := &fakeArchive{err: errors.New("disk full")}
	p := New(session.New(), &fakeDetector{stack: reactStack}, &fakeGenerator{}, newRenderer(t),
		WithArchive(archive), WithLogger(quietLogger()))

	res, err := p.Plan(context.Background(), Request{Task: "x"})
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if res.Failed {
		t.Error("archive failure should not fail the plan")
	}
}
