package historytools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/session"
)

// HistoryTool handles the session_history MCP tool.
type HistoryTool struct {
	store *session.Store
}

// NewHistoryTool creates a HistoryTool.
func NewHistoryTool(store *session.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for session_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("session_history",
		mcp.WithDescription(
			"List the task requests made in this session, oldest first, with excerpts of their plans.",
		),
		mcp.WithNumber("limit",
			mcp.Description("Show only the most recent N tasks (default: all)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary: tasks only. standard (default): plan excerpts. full: complete plans"),
			mcp.Enum(journal.DetailLevelValues()...),
		),
	)
}

// Handle processes the session_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks := t.store.Tasks()
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No tasks planned in this session yet."), nil
	}

	total := len(tasks)
	if limit := intArg(req, "limit", 0); limit > 0 && limit < total {
		tasks = tasks[total-limit:]
	}
	detail := journal.ParseDetailLevel(req.GetString("detail_level", ""))

	var b strings.Builder
	fmt.Fprintf(&b, "## Session History (%d of %d kept)\n\n", total, t.store.Capacity())
	for i, rec := range tasks {
		fmt.Fprintf(&b, "%d. %s (%s)\n", total-len(tasks)+i+1, rec.Input, rec.CreatedAt.Format("15:04:05"))
		switch {
		case detail == journal.DetailSummary:
		case rec.Response == "":
			b.WriteString("   _no plan generated_\n")
		case detail == journal.DetailFull:
			fmt.Fprintf(&b, "\n%s\n\n", rec.Response)
		default:
			fmt.Fprintf(&b, "   %s\n", journal.Truncate(rec.Response, journal.SnippetLength))
		}
	}
	b.WriteString(journal.NavigationHint(len(tasks), total, "Raise 'limit' to see older tasks."))
	return mcp.NewToolResultText(b.String()), nil
}

// ClearTool handles the session_clear MCP tool.
type ClearTool struct {
	store *session.Store
}

// NewClearTool creates a ClearTool.
func NewClearTool(store *session.Store) *ClearTool {
	return &ClearTool{store: store}
}

// Definition returns the MCP tool definition for session_clear.
func (t *ClearTool) Definition() mcp.Tool {
	return mcp.NewTool("session_clear",
		mcp.WithDescription(
			"Clear session state. scope=tasks drops the task history and keeps the detected stack; "+
				"scope=all also forgets the stack so the next plan re-scans the project.",
		),
		mcp.WithString("scope",
			mcp.Description("What to clear: tasks (default) or all"),
			mcp.Enum("tasks", "all"),
		),
	)
}

// Handle processes the session_clear tool call.
func (t *ClearTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	switch scope := req.GetString("scope", "tasks"); scope {
	case "", "tasks":
		n := len(t.store.Tasks())
		t.store.ClearTasks()
		return mcp.NewToolResultText(fmt.Sprintf("Cleared %d task(s). The detected stack is kept.", n)), nil
	case "all":
		t.store.Reset()
		return mcp.NewToolResultText("Session reset. The next request will re-scan the project."), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown scope %q: use 'tasks' or 'all'", scope)), nil
	}
}
