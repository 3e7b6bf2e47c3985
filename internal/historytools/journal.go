package historytools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
)

const defaultLimit = 10

func detailParam() mcp.ToolOption {
	return mcp.WithString("detail_level",
		mcp.Description("summary: tasks only. standard (default): plan excerpts. full: complete plans"),
		mcp.Enum(journal.DetailLevelValues()...),
	)
}

// SearchTool handles the plan_search MCP tool.
type SearchTool struct {
	store *journal.Store
}

// NewSearchTool creates a SearchTool.
func NewSearchTool(store *journal.Store) *SearchTool {
	return &SearchTool{store: store}
}

// Definition returns the MCP tool definition for plan_search.
func (t *SearchTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_search",
		mcp.WithDescription(
			"Full-text search over plans generated in earlier sessions. "+
				"Use this to reuse a previous plan or keep a new one consistent with it.",
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Keywords matched against task, plan text and project"),
		),
		mcp.WithString("project",
			mcp.Description("Filter by project root"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 20)"),
		),
		detailParam(),
	)
}

// Handle processes the plan_search tool call.
func (t *SearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := strings.TrimSpace(req.GetString("query", ""))
	if query == "" {
		return mcp.NewToolResultError("'query' is required"), nil
	}
	detail := journal.ParseDetailLevel(req.GetString("detail_level", ""))

	results, err := t.store.Search(ctx, query, req.GetString("project", ""), intArg(req, "limit", defaultLimit))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No archived plans match your query."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d plans:\n\n", len(results))
	for i, r := range results {
		writePlan(&b, i+1, r.Plan, detail)
	}
	b.WriteString(journal.TokenFooter(b.String()))
	return mcp.NewToolResultText(b.String()), nil
}

// RecentTool handles the plan_recent MCP tool.
type RecentTool struct {
	store *journal.Store
}

// NewRecentTool creates a RecentTool.
func NewRecentTool(store *journal.Store) *RecentTool {
	return &RecentTool{store: store}
}

// Definition returns the MCP tool definition for plan_recent.
func (t *RecentTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_recent",
		mcp.WithDescription("List the most recently archived plans, newest first."),
		mcp.WithString("project",
			mcp.Description("Filter by project root"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10, max: 20)"),
		),
		detailParam(),
	)
}

// Handle processes the plan_recent tool call.
func (t *RecentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	detail := journal.ParseDetailLevel(req.GetString("detail_level", ""))
	limit := intArg(req, "limit", defaultLimit)

	plans, err := t.store.Recent(ctx, req.GetString("project", ""), limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing plans failed: %v", err)), nil
	}
	if len(plans) == 0 {
		return mcp.NewToolResultText("No plans archived yet."), nil
	}

	var b strings.Builder
	b.WriteString("## Recent Plans\n\n")
	for i, p := range plans {
		writePlan(&b, i+1, p, detail)
	}
	if stats, err := t.store.Stats(ctx); err == nil {
		b.WriteString(journal.NavigationHint(len(plans), stats.TotalPlans, "Use plan_search to find older plans."))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// GetTool handles the plan_get MCP tool.
type GetTool struct {
	store *journal.Store
}

// NewGetTool creates a GetTool.
func NewGetTool(store *journal.Store) *GetTool {
	return &GetTool{store: store}
}

// Definition returns the MCP tool definition for plan_get.
func (t *GetTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_get",
		mcp.WithDescription("Fetch one archived plan in full by its ID."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Plan ID as shown by plan_search or plan_recent"),
		),
	)
}

// Handle processes the plan_get tool call.
func (t *GetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	p, err := t.store.Get(ctx, id)
	if errors.Is(err, journal.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("no plan with id %q", id)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting plan: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", p.Task)
	fmt.Fprintf(&b, "_%s", p.CreatedAt)
	if p.Project != "" {
		fmt.Fprintf(&b, " in %s", p.Project)
	}
	b.WriteString("_\n\n")
	b.WriteString(p.Stack.Summary())
	b.WriteString("\n")
	b.WriteString(p.Response)
	return mcp.NewToolResultText(b.String()), nil
}

// StatsTool handles the plan_stats MCP tool.
type StatsTool struct {
	store *journal.Store
}

// NewStatsTool creates a StatsTool.
func NewStatsTool(store *journal.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for plan_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_stats",
		mcp.WithDescription("Show plan journal statistics: total plans and projects planned for."),
	)
}

// Handle processes the plan_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Plan Journal\n\n")
	fmt.Fprintf(&sb, "- **Plans**: %d\n", stats.TotalPlans)
	if stats.LastPlanAt != "" {
		fmt.Fprintf(&sb, "- **Last plan**: %s\n", stats.LastPlanAt)
	}
	if len(stats.Projects) > 0 {
		fmt.Fprintf(&sb, "- **Projects** (%d): %s\n", len(stats.Projects), strings.Join(stats.Projects, ", "))
	} else {
		sb.WriteString("- **Projects**: none\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
