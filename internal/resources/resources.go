// Package resources implements MCP resource handlers for the planning
// session.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (taskplanner://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/session"
	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
)

// Resource URIs.
const (
	SessionStateURI = "taskplanner://session/state"
	TechStackURI    = "taskplanner://session/stack"
)

// Handler serves the session resources.
type Handler struct {
	store *session.Store
	root  string
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *session.Store, root string) *Handler {
	return &Handler{store: store, root: root}
}

// StateResource returns the MCP resource definition for the session state.
func (h *Handler) StateResource() mcp.Resource {
	return mcp.NewResource(
		SessionStateURI,
		"Task Planner Session State",
		mcp.WithResourceDescription("Cached tech stack and recent task history of this session"),
		mcp.WithMIMEType("application/json"),
	)
}

// StackResource returns the MCP resource definition for the cached stack.
func (h *Handler) StackResource() mcp.Resource {
	return mcp.NewResource(
		TechStackURI,
		"Detected Tech Stack",
		mcp.WithResourceDescription("The tech stack cached for this session, as markdown"),
		mcp.WithMIMEType("text/markdown"),
	)
}

type stateView struct {
	ProjectRoot string `json:"project_root"`
	session.Snapshot
}

// HandleState returns the session snapshot as JSON.
func (h *Handler) HandleState(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(stateView{ProjectRoot: h.root, Snapshot: h.store.Snapshot()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling session state: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// HandleStack returns the cached stack, or a hint when nothing is cached.
func (h *Handler) HandleStack(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ts, ok := h.store.TechStack()
	if !ok {
		return textResource(req.Params.URI,
			"No tech stack detected yet. Run `detect_stack` or `plan_task` first."), nil
	}
	return textResource(req.Params.URI, "## Detected Tech Stack\n\n"+ts.Summary()+labelCount(ts)), nil
}

func labelCount(ts stack.TechStack) string {
	n := len(ts.Frameworks) + len(ts.Databases) + len(ts.OtherTools)
	return fmt.Sprintf("\n_%d technologies detected._\n", n)
}

func textResource(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}
}
