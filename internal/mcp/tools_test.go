package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	gomcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/ycho/linear-mcp-server/internal/tools"
)

// recordingServer captures registered tools.
type recordingServer struct {
	tools    []gomcp.Tool
	handlers map[string]server.ToolHandlerFunc
}

func (r *recordingServer) AddTool(tool gomcp.Tool, handler server.ToolHandlerFunc) {
	if r.handlers == nil {
		r.handlers = make(map[string]server.ToolHandlerFunc)
	}
	r.tools = append(r.tools, tool)
	r.handlers[tool.Name] = handler
}

// newLinearStub serves a fixed GraphQL response and counts requests.
func newLinearStub(t *testing.T, response string) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(ts.Close)
	return ts, &hits
}

func registerWith(t *testing.T, linearURL, apiKey string) *recordingServer {
	t.Helper()
	rec := &recordingServer{}
	handlers := tools.NewHandlers(ClientFactory(linearURL, 0))
	NewToolHandlers(handlers, apiKey).RegisterTools(rec)
	return rec
}

func callTool(t *testing.T, rec *recordingServer, ctx context.Context, name string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()
	handler, ok := rec.handlers[name]
	if !ok {
		t.Fatalf("tool %q not registered", name)
	}
	req := gomcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := handler(ctx, req)
	if err != nil {
		t.Fatalf("handler should not return error: %v", err)
	}
	return result
}

func resultText(t *testing.T, result *gomcp.CallToolResult) string {
	t.Helper()
	for _, content := range result.Content {
		if textContent, ok := content.(gomcp.TextContent); ok {
			return textContent.Text
		}
	}
	t.Fatal("expected text content")
	return ""
}

func TestRegisterTools_Catalog(t *testing.T) {
	rec := registerWith(t, "http://localhost", "test-key")

	names := make([]string, len(rec.tools))
	for i, tool := range rec.tools {
		names[i] = tool.Name
	}
	want := []string{"get-linear-tickets", "get-linear-teams", "get-linear-users", "create-linear-ticket"}
	if !slices.Equal(names, want) {
		t.Errorf("expected tools %v, got %v", want, names)
	}

	for _, tool := range rec.tools {
		switch tool.Name {
		case "create-linear-ticket":
			if !slices.Equal(tool.InputSchema.Required, []string{"teamId", "title"}) {
				t.Errorf("expected required [teamId title], got %v", tool.InputSchema.Required)
			}
		case "get-linear-tickets":
			for _, prop := range []string{"status", "excludeStatuses", "maxPriority", "limit"} {
				if _, ok := tool.InputSchema.Properties[prop]; !ok {
					t.Errorf("expected property %q on get-linear-tickets", prop)
				}
			}
			if len(tool.InputSchema.Required) != 0 {
				t.Errorf("expected no required properties, got %v", tool.InputSchema.Required)
			}
		default:
			if len(tool.InputSchema.Properties) != 0 {
				t.Errorf("expected %s to take no arguments, got %v", tool.Name, tool.InputSchema.Properties)
			}
		}
	}
}

func TestToolHandlers_TeamsSuccess(t *testing.T) {
	ts, _ := newLinearStub(t, `{"data":{"teams":{"nodes":[{"id":"team-1","name":"Engineering","key":"ENG","description":null}]}}}`)
	rec := registerWith(t, ts.URL, "test-key")

	result := callTool(t, rec, context.Background(), "get-linear-teams", nil)
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	want := `[
  {
    "id": "team-1",
    "name": "Engineering",
    "key": "ENG",
    "description": null
  }
]`
	if got := resultText(t, result); got != want {
		t.Errorf("unexpected text:\n%s\nwant:\n%s", got, want)
	}
}

func TestToolHandlers_UpstreamErrorIsStructured(t *testing.T) {
	ts, _ := newLinearStub(t, `{"data":null,"errors":[{"message":"Unexpected API error"}]}`)
	rec := registerWith(t, ts.URL, "test-key")

	result := callTool(t, rec, context.Background(), "get-linear-users", nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != "Failed to fetch Linear users: Unexpected API error" {
		t.Errorf("unexpected error text: %q", got)
	}

	structured, ok := result.StructuredContent.(map[string]any)
	if !ok {
		t.Fatalf("expected structured content, got %T", result.StructuredContent)
	}
	if structured["code"] != tools.InternalError {
		t.Errorf("expected code %d, got %v", tools.InternalError, structured["code"])
	}
}

func TestToolHandlers_RejectedRequestKeepsUpstreamMessage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"message":"Authentication required, not authenticated"}]}`))
	}))
	t.Cleanup(ts.Close)
	rec := registerWith(t, ts.URL, "bad-key")

	result := callTool(t, rec, context.Background(), "get-linear-teams", nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	want := "Failed to fetch Linear teams: Authentication required, not authenticated"
	if got := resultText(t, result); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestToolHandlers_MissingKeyMakesNoUpstreamCall(t *testing.T) {
	ts, hits := newLinearStub(t, `{"data":{}}`)
	rec := registerWith(t, ts.URL, "")

	result := callTool(t, rec, context.Background(), "get-linear-tickets", nil)
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); !strings.Contains(got, "API key is required") {
		t.Errorf("unexpected error text: %q", got)
	}
	if structured := result.StructuredContent.(map[string]any); structured["code"] != tools.InvalidParams {
		t.Errorf("expected InvalidParams code, got %v", structured["code"])
	}
	if *hits != 0 {
		t.Errorf("expected no upstream requests, got %d", *hits)
	}
}

func TestToolHandlers_CreateTicketValidation(t *testing.T) {
	ts, hits := newLinearStub(t, `{"data":{}}`)
	rec := registerWith(t, ts.URL, "test-key")

	result := callTool(t, rec, context.Background(), "create-linear-ticket", map[string]any{"title": "x"})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if got := resultText(t, result); got != "Team ID is required" {
		t.Errorf("unexpected error text: %q", got)
	}
	if *hits != 0 {
		t.Errorf("expected no upstream requests, got %d", *hits)
	}
}

func TestMCPServer_UnknownToolRejectedByLibrary(t *testing.T) {
	handlers := tools.NewHandlers(ClientFactory("http://localhost", 0))
	s := newMCPServer(NewToolHandlers(handlers, "test-key"))

	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"delete-everything","arguments":{}}}`)
	resp := s.HandleMessage(context.Background(), msg)

	rpcErr, ok := resp.(gomcp.JSONRPCError)
	if !ok {
		t.Fatalf("expected JSON-RPC error, got %T", resp)
	}
	if rpcErr.Error.Code != gomcp.INVALID_PARAMS {
		t.Errorf("expected code %d, got %d", gomcp.INVALID_PARAMS, rpcErr.Error.Code)
	}
	if !strings.Contains(rpcErr.Error.Message, "delete-everything") {
		t.Errorf("expected tool name in message, got %q", rpcErr.Error.Message)
	}
}

func TestAPIKeyFromContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/message", nil)
	if got := apiKeyFromContext(apiKeyFromRequest(context.Background(), req), "process-key"); got != "process-key" {
		t.Errorf("expected fallback key, got %q", got)
	}

	req.Header.Set(APIKeyHeader, "session-key")
	if got := apiKeyFromContext(apiKeyFromRequest(context.Background(), req), "process-key"); got != "session-key" {
		t.Errorf("expected header key, got %q", got)
	}
}

func TestSSEMux_Health(t *testing.T) {
	s := NewServer(Config{LinearURL: "http://localhost", LinearAPIKey: "test-key", Port: 8080, SSEMode: true})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.sseMux().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if w.Body.String() != "OK" {
		t.Errorf("expected body 'OK', got '%s'", w.Body.String())
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("expected security headers to be set")
	}
}
