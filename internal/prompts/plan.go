// Package prompts implements MCP prompt handlers.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// PlanPrompt handles the task-plan MCP prompt.
type PlanPrompt struct{}

// NewPlanPrompt creates a PlanPrompt.
func NewPlanPrompt() *PlanPrompt {
	return &PlanPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *PlanPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("task-plan",
		mcp.WithPromptDescription(
			"Plan a development task against this project's tech stack. "+
				"Detects the stack, then produces a step-by-step implementation plan.",
		),
		mcp.WithArgument("task",
			mcp.ArgumentDescription("What you want to build or change"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the task-plan prompt request.
func (p *PlanPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	task := strings.TrimSpace(req.Params.Arguments["task"])

	var text string
	if task == "" {
		text = "I want a step-by-step plan for a development task.\n\n" +
			"Please:\n" +
			"1. Ask me to describe the task\n" +
			"2. Run `detect_stack` and tell me which frameworks, databases and tools you found\n" +
			"3. Run `plan_task` with my description\n" +
			"4. Show me the plan as returned"
	} else {
		text = fmt.Sprintf(
			"I want a step-by-step plan for this task: %q\n\n"+
				"Please:\n"+
				"1. Run `detect_stack` and tell me which frameworks, databases and tools you found\n"+
				"2. If nothing was detected, ask me which frontend and backend I want before continuing\n"+
				"3. Run `plan_task` with task=%q\n"+
				"4. Show me the plan as returned",
			task, task,
		)
	}

	return &mcp.GetPromptResult{
		Description: "Plan a development task",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(text),
			},
		},
	}, nil
}
