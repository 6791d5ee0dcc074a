package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ycho/linear-mcp-server/internal/tools"
)

// ToolHandlers adapts the Linear tool operations to MCP.
type ToolHandlers struct {
	handlers *tools.Handlers
	apiKey   string
}

// NewToolHandlers creates MCP tool handlers that inject apiKey into every call.
func NewToolHandlers(handlers *tools.Handlers, apiKey string) *ToolHandlers {
	return &ToolHandlers{
		handlers: handlers,
		apiKey:   apiKey,
	}
}

type apiKeyContextKey struct{}

// apiKeyFromRequest stores the caller's X-Linear-API-Key header, if any, in ctx.
func apiKeyFromRequest(ctx context.Context, r *http.Request) context.Context {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return context.WithValue(ctx, apiKeyContextKey{}, key)
	}
	return ctx
}

// apiKeyFromContext returns the per-request key, falling back to the process key.
func apiKeyFromContext(ctx context.Context, fallback string) string {
	if key, ok := ctx.Value(apiKeyContextKey{}).(string); ok && key != "" {
		return key
	}
	return fallback
}

// McpServer interface for registering tools
type McpServer interface {
	AddTool(tool mcp.Tool, handler server.ToolHandlerFunc)
}

// Tools returns the tool catalog advertised to callers.
func Tools() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(string(tools.GetTickets),
			mcp.WithDescription("Get tickets from Linear API for the authenticated user"),
			mcp.WithString("status",
				mcp.Description("Optional specific status to filter tickets (e.g. 'Todo', 'In Progress')"),
			),
			mcp.WithArray("excludeStatuses",
				mcp.Description("Optional list of statuses to exclude (e.g. ['Implemented', 'Verified', 'Canceled'])"),
				mcp.Items(map[string]any{"type": "string"}),
			),
			mcp.WithNumber("maxPriority",
				mcp.Description("Optional maximum priority level to include (0=No priority, 1=Urgent, 2=High, 3=Medium, 4=Low)"),
				mcp.Min(0),
				mcp.Max(4),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of tickets to return (default: 10)"),
				mcp.Min(1),
				mcp.Max(50),
			),
		),

		mcp.NewTool(string(tools.GetTeams),
			mcp.WithDescription("Get all teams from Linear to use when creating tickets"),
		),

		mcp.NewTool(string(tools.GetUsers),
			mcp.WithDescription("Get all users in the Linear organization, e.g. to find an assignee"),
		),

		mcp.NewTool(string(tools.CreateTicket),
			mcp.WithDescription("Create a new Linear ticket/issue"),
			mcp.WithString("teamId",
				mcp.Required(),
				mcp.Description("ID of the team to create the ticket in (required)"),
			),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Title of the ticket (required)"),
			),
			mcp.WithString("description",
				mcp.Description("Description of the ticket (optional)"),
			),
			mcp.WithNumber("priority",
				mcp.Description("Priority level (0=No priority, 1=Urgent, 2=High, 3=Medium, 4=Low)"),
				mcp.Min(0),
				mcp.Max(4),
			),
			mcp.WithString("assigneeId",
				mcp.Description("ID of the user to assign the ticket to (optional)"),
			),
			mcp.WithArray("labelIds",
				mcp.Description("Array of label IDs to add to the ticket (optional)"),
				mcp.Items(map[string]any{"type": "string"}),
			),
			mcp.WithString("stateId",
				mcp.Description("ID of the workflow state to set (optional)"),
			),
		),
	}
}

// RegisterTools registers all MCP tools on the server
func (h *ToolHandlers) RegisterTools(s McpServer) {
	for _, tool := range Tools() {
		s.AddTool(tool, h.handle(tools.Name(tool.Name)))
	}
}

// handle returns the MCP handler for one tool. Tool failures are reported as
// error results carrying {code, message} so callers can tell validation
// problems from upstream failures.
func (h *ToolHandlers) handle(name tools.Name) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := h.handlers.Dispatch(ctx, name, apiKeyFromContext(ctx, h.apiKey), req.GetArguments())
		if err != nil {
			slog.Error("tool call failed", "tool", name, "code", tools.CodeOf(err), "error", err)
			return errorResult(err), nil
		}
		return toCallToolResult(result), nil
	}
}

func toCallToolResult(r *tools.Result) *mcp.CallToolResult {
	content := make([]mcp.Content, len(r.Content))
	for i, c := range r.Content {
		content[i] = mcp.NewTextContent(c.Text)
	}
	return &mcp.CallToolResult{Content: content}
}

func errorResult(err error) *mcp.CallToolResult {
	result := mcp.NewToolResultError(err.Error())
	result.StructuredContent = map[string]any{
		"code":    tools.CodeOf(err),
		"message": err.Error(),
	}
	return result
}
