// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the tools, prompts and resources that depend on them.
// No business logic lives here, only wiring.
package server

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/config"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/gemini"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/historytools"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/planner"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/prompts"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/resources"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/session"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/templates"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// App holds the shared dependencies built from a Config. Journal is nil
// when the journal is disabled or failed to open.
type App struct {
	Root      string
	Store     *session.Store
	Detector  *stack.Detector
	Generator gemini.Generator
	Planner   *planner.Planner
	Journal   *journal.Store
}

// Build resolves every dependency for a project root. An empty root means
// no project is open; planning still works against an empty stack.
//
// The returned cleanup function closes the journal and must be called on
// shutdown. It is always non-nil.
func Build(cfg config.Config, root string, logger *slog.Logger) (*App, func(), error) {
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := templates.NewRenderer()
	if err != nil {
		return nil, noop, fmt.Errorf("creating template renderer: %w", err)
	}

	store := session.New(
		session.WithCapacity(cfg.HistoryLimit),
		session.OnStackChange(func(ts stack.TechStack) {
			logger.Info("tech stack updated",
				"frameworks", ts.Frameworks,
				"databases", ts.Databases,
				"other_tools", ts.OtherTools,
			)
		}),
	)
	detector := stack.NewDetector(store, stack.WithLogger(logger))

	if cfg.APIKey == "" {
		logger.Warn("no API key configured; plan generation will fail until " + config.EnvAPIKey + " is set")
	}
	generator := gemini.New(gemini.Config{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.Endpoint,
		Timeout: cfg.Timeout,
	})

	app := &App{
		Root:      root,
		Store:     store,
		Detector:  detector,
		Generator: generator,
	}

	// The journal is an independent subsystem: if it fails to open,
	// planning keeps working without the archive.
	cleanup := noop
	opts := []planner.Option{
		planner.WithRoot(root),
		planner.WithLogger(logger),
	}
	if cfg.JournalEnabled {
		jcfg := journal.DefaultConfig()
		jcfg.DataDir = cfg.DataDir
		js, err := journal.New(jcfg)
		if err != nil {
			logger.Warn("plan journal disabled", "error", err)
		} else {
			app.Journal = js
			opts = append(opts, planner.WithArchive(js))
			cleanup = func() {
				if err := js.Close(); err != nil {
					logger.Warn("plan journal close", "error", err)
				}
			}
		}
	}

	app.Planner = planner.New(store, detector, generator, renderer, opts...)
	return app, cleanup, nil
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
func New(cfg config.Config, root string, logger *slog.Logger) (*server.MCPServer, func(), error) {
	app, cleanup, err := Build(cfg, root, logger)
	if err != nil {
		return nil, cleanup, err
	}

	s := server.NewMCPServer(
		"taskplanner",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Planning tools ---

	detectTool := tools.NewDetectTool(app.Detector, app.Root)
	s.AddTool(detectTool.Definition(), detectTool.Handle)

	planTool := tools.NewPlanTool(app.Planner)
	s.AddTool(planTool.Definition(), planTool.Handle)

	// --- Session tools ---

	historyTool := historytools.NewHistoryTool(app.Store)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	clearTool := historytools.NewClearTool(app.Store)
	s.AddTool(clearTool.Definition(), clearTool.Handle)

	// --- Journal tools ---

	if app.Journal != nil {
		registerJournalTools(s, app.Journal)
	}

	// --- Prompts ---

	planPrompt := prompts.NewPlanPrompt()
	s.AddPrompt(planPrompt.Definition(), planPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(app.Store, app.Root)
	s.AddResource(resourceHandler.StateResource(), resourceHandler.HandleState)
	s.AddResource(resourceHandler.StackResource(), resourceHandler.HandleStack)

	return s, cleanup, nil
}

// noop is the default cleanup when the journal is not open.
func noop() {}

func registerJournalTools(s *server.MCPServer, js *journal.Store) {
	searchTool := historytools.NewSearchTool(js)
	s.AddTool(searchTool.Definition(), searchTool.Handle)

	recentTool := historytools.NewRecentTool(js)
	s.AddTool(recentTool.Definition(), recentTool.Handle)

	getTool := historytools.NewGetTool(js)
	s.AddTool(getTool.Definition(), getTool.Handle)

	statsTool := historytools.NewStatsTool(js)
	s.AddTool(statsTool.Definition(), statsTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to use the task planner.
func serverInstructions() string {
	return `You have access to Task Planner, an MCP server that turns a development
task into a step-by-step implementation plan grounded on the project's tech stack.

## WHEN TO USE IT

Suggest plan_task when the user:
- Asks how to build a feature, page, endpoint or integration
- Says things like "how do I add...", "plan out...", "what are the steps to..."
- Starts a new piece of work and wants a roadmap before coding

You do NOT need it for one-line fixes, explanations or questions about
existing code.

## TOOLS

- detect_stack: reports the frameworks, databases and tools found in the
  project's manifests and source files. The result is cached for the
  session. Pass refresh=true after the user changes dependencies.
- plan_task: generates the plan. It reuses the cached stack and feeds the
  last few tasks of the session to the model so follow-up plans stay
  consistent. Show the returned plan to the user as-is.
- session_history: lists the tasks planned in this session.
- session_clear: scope=tasks forgets the history; scope=all also forgets
  the stack so the next call re-scans.
- plan_search / plan_recent / plan_get / plan_stats: browse plans archived
  in earlier sessions (only when the journal is enabled).

## RULES

- If detect_stack finds nothing, ask the user which frontend and backend
  they want before planning, or let plan_task fall back to its defaults.
- If plan_task reports "Unable to generate task plan.", tell the user and
  suggest checking the API key. Do not invent a plan in its place.
- Prefer detail_level=summary when you only need labels or titles.`
}
