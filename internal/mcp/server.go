package mcp

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ycho/linear-mcp-server/internal/linear"
	"github.com/ycho/linear-mcp-server/internal/tools"
)

const (
	ServerName    = "linear-mcp-server"
	ServerVersion = "0.1.0"
)

// APIKeyHeader lets an SSE client use its own Linear API key. It is read
// from each POST /message request, not from the GET /sse stream.
const APIKeyHeader = "X-Linear-API-Key"

// Config holds MCP server configuration
type Config struct {
	LinearURL     string
	LinearAPIKey  string
	LinearTimeout time.Duration
	Port          int
	SSEMode       bool
}

// Server wraps the MCP server
type Server struct {
	config Config
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server
func NewServer(config Config) *Server {
	return &Server{
		config: config,
	}
}

// ClientFactory returns a factory building a fresh Linear client per call.
func ClientFactory(linearURL string, timeout time.Duration) tools.ClientFactory {
	return func(apiKey string) tools.Client {
		return linear.NewClient(linearURL, apiKey, timeout)
	}
}

func newMCPServer(handler *ToolHandlers) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	handler.RegisterTools(s)
	return s
}

// Run starts the MCP server
func (s *Server) Run() error {
	if s.config.SSEMode {
		return s.runSSE()
	}

	handlers := tools.NewHandlers(ClientFactory(s.config.LinearURL, s.config.LinearTimeout))
	s.mcp = newMCPServer(NewToolHandlers(handlers, s.config.LinearAPIKey))

	slog.Info("Linear MCP Server running on stdio",
		"linear_url", s.config.LinearURL,
	)

	return server.ServeStdio(s.mcp)
}

// runSSE starts the server in SSE mode
func (s *Server) runSSE() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	slog.Info("Starting MCP server in SSE mode",
		"address", addr,
		"linear_url", s.config.LinearURL,
	)

	return http.ListenAndServe(addr, s.sseMux())
}

func (s *Server) sseMux() http.Handler {
	handlers := tools.NewHandlers(ClientFactory(s.config.LinearURL, s.config.LinearTimeout))
	sseServer := server.NewSSEServer(
		newMCPServer(NewToolHandlers(handlers, s.config.LinearAPIKey)),
		server.WithSSEContextFunc(apiKeyFromRequest),
	)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer)
	mux.Handle("/message", sseServer)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return securityHeadersMiddleware(mux)
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}
