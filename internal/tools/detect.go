package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
)

// DetectTool handles the detect_stack MCP tool.
type DetectTool struct {
	detector *stack.Detector
	root     string
}

// NewDetectTool creates a DetectTool scanning root.
func NewDetectTool(detector *stack.Detector, root string) *DetectTool {
	return &DetectTool{detector: detector, root: root}
}

// Definition returns the MCP tool definition for registration.
func (t *DetectTool) Definition() mcp.Tool {
	return mcp.NewTool("detect_stack",
		mcp.WithDescription(
			"Detect the project's technology stack (frameworks, databases, tools) from "+
				"dependency manifests, build files and the first lines of source files. "+
				"The result is cached for the session; pass refresh=true after changing dependencies.",
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Re-scan the project even if a stack is cached (default: false)"),
		),
		mcp.WithString("detail_level",
			mcp.Description("summary: labels only. standard (default) and full add scan diagnostics"),
			mcp.Enum(journal.DetailLevelValues()...),
		),
	)
}

// Handle processes the detect_stack tool call.
func (t *DetectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refresh := boolArg(req, "refresh", false)
	detail := journal.ParseDetailLevel(req.GetString("detail_level", ""))

	report, err := t.detector.Resolve(ctx, t.root, refresh)
	if errors.Is(err, stack.ErrNoProject) {
		return mcp.NewToolResultError("No project context available. Open a project folder and try again."), nil
	}
	if err != nil {
		return nil, fmt.Errorf("detecting stack: %w", err)
	}

	var b strings.Builder
	writeStack(&b, report.Stack)
	if detail == journal.DetailSummary {
		return mcp.NewToolResultText(b.String()), nil
	}

	b.WriteString("\n")
	if report.Cached {
		b.WriteString("_Served from the session cache. Use refresh=true to re-scan._\n")
	} else {
		fmt.Fprintf(&b, "_Scanned %s: %d files read in %s._\n",
			report.Root, report.FilesRead, report.Duration.Round(time.Millisecond))
	}
	writeWarnings(&b, report.Warnings)
	return mcp.NewToolResultText(b.String()), nil
}
