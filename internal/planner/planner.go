// Package planner runs one task-planning request end to end: it resolves
// the tech stack through the session cache, records the task, renders the
// prompt, calls the generator and formats the plan.
package planner

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/gemini"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/session"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/templates"
)

// FailureMessage is the only text shown when plan generation fails.
const FailureMessage = "Unable to generate task plan."

// defaultHistoryWindow is how many earlier tasks are shown to the model.
const defaultHistoryWindow = 3

// ErrEmptyTask is returned for a blank task description.
var ErrEmptyTask = errors.New("task description is required")

// StackDetector resolves the tech stack for a project root.
type StackDetector interface {
	Detect(ctx context.Context, root string, forceRefresh bool) (stack.TechStack, error)
}

// Archive stores completed plans.
type Archive interface {
	Save(ctx context.Context, p journal.Plan) (string, error)
}

// Request is one planning request.
type Request struct {
	Task string
	// Refresh forces a new scan even when a stack is cached.
	Refresh bool
}

// Result is the outcome of Plan. When Failed is set, Plan holds only
// FailureMessage.
type Result struct {
	TaskID string
	Plan   string
	Stack  stack.TechStack
	// NoProject is set when no project root was available and an empty
	// stack was used instead.
	NoProject bool
	Failed    bool
}

// Planner is safe for concurrent use as long as its collaborators are.
type Planner struct {
	store     *session.Store
	detector  StackDetector
	generator gemini.Generator
	renderer  templates.Renderer

	root    string
	archive Archive
	window  int
	logger  *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithRoot sets the project root passed to the detector.
func WithRoot(root string) Option {
	return func(p *Planner) { p.root = root }
}

// WithArchive archives every successful plan.
func WithArchive(a Archive) Option {
	return func(p *Planner) { p.archive = a }
}

// WithHistoryWindow sets how many earlier tasks feed the prompt.
func WithHistoryWindow(n int) Option {
	return func(p *Planner) {
		if n >= 0 {
			p.window = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Planner.
func New(store *session.Store, detector StackDetector, generator gemini.Generator, renderer templates.Renderer, opts ...Option) *Planner {
	p := &Planner{
		store:     store,
		detector:  detector,
		generator: generator,
		renderer:  renderer,
		window:    defaultHistoryWindow,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the configured project root.
func (p *Planner) Root() string {
	return p.root
}

// Plan runs one request. Validation problems are returned as errors;
// detection and generation failures are logged and reported through
// Result so the caller always has something to show.
func (p *Planner) Plan(ctx context.Context, req Request) (Result, error) {
	task := strings.TrimSpace(req.Task)
	if task == "" {
		return Result{}, ErrEmptyTask
	}

	var res Result
	ts, err := p.detector.Detect(ctx, p.root, req.Refresh)
	switch {
	case errors.Is(err, stack.ErrNoProject):
		p.logger.Warn("planning without project context", "root", p.root, "error", err)
		ts = stack.TechStack{}
		res.NoProject = true
	case err != nil:
		p.logger.Error("stack detection failed", "root", p.root, "error", err)
		ts = stack.TechStack{}
	}
	res.Stack = ts

	// Earlier tasks are read before the new record is appended.
	history := p.recentHistory()
	rec := p.store.AddTask(task, "")
	res.TaskID = rec.ID

	prompt, err := p.renderer.Render(templates.Prompt, templates.PromptData{
		Task:    task,
		Stack:   ts,
		History: history,
	})
	if err != nil {
		return p.fail(res, "rendering prompt", err), nil
	}

	body, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return p.fail(res, "generating plan", err), nil
	}

	var footer *stack.TechStack
	if !ts.IsEmpty() {
		footer = &ts
	}
	plan, err := p.renderer.Render(templates.Plan, templates.PlanData{
		Task:  task,
		Body:  body,
		Stack: footer,
	})
	if err != nil {
		return p.fail(res, "rendering plan", err), nil
	}

	p.store.UpdateResponse(rec.ID, body)
	res.Plan = plan

	if p.archive != nil {
		if _, err := p.archive.Save(ctx, journal.Plan{
			Project:  p.root,
			Task:     task,
			Response: body,
			Stack:    ts,
		}); err != nil {
			p.logger.Warn("archiving plan failed", "task_id", rec.ID, "error", err)
		}
	}
	return res, nil
}

func (p *Planner) fail(res Result, stage string, err error) Result {
	p.logger.Error("plan generation failed", "stage", stage, "task_id", res.TaskID, "error", err)
	res.Failed = true
	res.Plan = FailureMessage
	return res
}

func (p *Planner) recentHistory() []templates.HistoryEntry {
	if p.window == 0 {
		return nil
	}
	tasks := p.store.Tasks()
	if len(tasks) > p.window {
		tasks = tasks[len(tasks)-p.window:]
	}
	out := make([]templates.HistoryEntry, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, templates.HistoryEntry{Input: t.Input, Response: t.Response})
	}
	return out
}
