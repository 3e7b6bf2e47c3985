// Package tools implements the MCP tool handlers for stack detection and
// task planning.
//
// Each tool receives its dependencies through its struct and exposes
// Definition() for registration and Handle() for mcp-go's
// CallToolRequest signature. One file per tool.
package tools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
)

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// writeStack renders a stack as the markdown block shared by the tools.
func writeStack(b *strings.Builder, ts stack.TechStack) {
	b.WriteString("## Detected Tech Stack\n\n")
	b.WriteString(ts.Summary())
}

// writeWarnings appends scan warnings, if any.
func writeWarnings(b *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(b, "\n### Warnings (%d)\n\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(b, "- %s\n", w)
	}
}
