package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/planner"
)

// PlanTool handles the plan_task MCP tool.
type PlanTool struct {
	planner *planner.Planner
}

// NewPlanTool creates a PlanTool.
func NewPlanTool(p *planner.Planner) *PlanTool {
	return &PlanTool{planner: p}
}

// Definition returns the MCP tool definition for registration.
func (t *PlanTool) Definition() mcp.Tool {
	return mcp.NewTool("plan_task",
		mcp.WithDescription(
			"Generate a structured, step-by-step implementation plan for a development task. "+
				"The plan is grounded on the project's detected tech stack and the earlier "+
				"tasks of this session.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("What to build or change, in plain language"),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Re-scan the project stack before planning (default: false)"),
		),
	)
}

// Handle processes the plan_task tool call.
func (t *PlanTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	task := strings.TrimSpace(req.GetString("task", ""))
	if task == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}

	res, err := t.planner.Plan(ctx, planner.Request{
		Task:    task,
		Refresh: boolArg(req, "refresh", false),
	})
	if errors.Is(err, planner.ErrEmptyTask) {
		return mcp.NewToolResultError("'task' is required"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("planning task: %w", err)
	}
	if res.Failed {
		return mcp.NewToolResultError(res.Plan), nil
	}

	var b strings.Builder
	if res.NoProject {
		b.WriteString("> No project context available; planned without a detected stack.\n\n")
	}
	b.WriteString(res.Plan)
	return mcp.NewToolResultText(b.String()), nil
}
