// Package historytools provides MCP tool handlers over the planning
// history: the in-memory session store and the on-disk plan journal.
//
// Handlers follow the same pattern as internal/tools:
// - A struct with its store injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
package historytools

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/journal"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// writePlan renders one archived plan at the requested detail level.
func writePlan(b *strings.Builder, i int, p journal.Plan, detail string) {
	fmt.Fprintf(b, "[%d] %s (%s)\n", i, p.Task, p.CreatedAt)
	if p.Project != "" {
		fmt.Fprintf(b, "    project: %s\n", p.Project)
	}
	switch detail {
	case journal.DetailSummary:
	case journal.DetailFull:
		fmt.Fprintf(b, "    id: %s\n\n%s\n", p.ID, p.Response)
	default:
		fmt.Fprintf(b, "    id: %s\n    %s\n", p.ID, journal.Truncate(p.Response, journal.SnippetLength))
	}
	b.WriteString("\n")
}
