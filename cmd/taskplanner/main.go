// Task Planner: stack-aware task planning MCP server
//
// Detects a project's tech stack from its manifests and source files and
// turns plain-language development tasks into step-by-step implementation
// plans with a Gemini model.
//
// Usage:
//
//	taskplanner serve               # Start MCP server (stdio transport)
//	taskplanner plan "add login"    # Plan one task and print it
//	taskplanner detect              # Print the detected tech stack
//	taskplanner recent              # List archived plans
//	taskplanner version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
