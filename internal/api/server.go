package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/ycho/linear-mcp-server/internal/linear"
	"github.com/ycho/linear-mcp-server/internal/tools"

	_ "github.com/ycho/linear-mcp-server/docs" // swagger docs
)

// APIKeyHeader carries a per-request Linear API key.
const APIKeyHeader = "X-Linear-API-Key"

// Config holds API server configuration
type Config struct {
	LinearURL     string
	LinearAPIKey  string
	LinearTimeout time.Duration
	Port          int
}

// Server is the REST API server
type Server struct {
	config   Config
	router   *chi.Mux
	handlers *tools.Handlers
}

// NewServer creates a new API server
func NewServer(config Config) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		handlers: tools.NewHandlers(func(apiKey string) tools.Client {
			return linear.NewClient(config.LinearURL, apiKey, config.LinearTimeout)
		}),
	}

	s.setupRoutes()

	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	r := s.router

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Swagger UI - uses swaggo generated docs
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// OpenAPI spec (static inline)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write([]byte(openAPISpec))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Tickets
		r.Get("/tickets", s.handleListTickets)
		r.Get("/tickets/export", s.handleExportTickets)
		r.Post("/tickets", s.handleCreateTicket)

		// Reference
		r.Get("/teams", s.handleListTeams)
		r.Get("/users", s.handleListUsers)

		// Raw tool calls
		r.Post("/tools/{name}", s.handleCallTool)
	})
}

// authMiddleware resolves the Linear API key for the request. The header
// wins over the key the server was started with.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get(APIKeyHeader)
		if apiKey == "" {
			apiKey = s.config.LinearAPIKey
		}
		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+APIKeyHeader+" header")
			return
		}

		ctx := withAPIKey(r.Context(), apiKey)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Run starts the API server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	slog.Info("Starting REST API server",
		"address", addr,
		"linear_url", s.config.LinearURL,
		"docs", fmt.Sprintf("http://localhost:%d/docs/index.html", s.config.Port),
	)

	return http.ListenAndServe(addr, s.router)
}

const openAPISpec = `openapi: 3.0.3
info:
  title: Linear MCP Server API
  description: REST API for Linear integration with AI assistants
  version: 0.1.0
servers:
  - url: /api/v1
security:
  - ApiKeyAuth: []
components:
  securitySchemes:
    ApiKeyAuth:
      type: apiKey
      in: header
      name: X-Linear-API-Key
  schemas:
    Error:
      type: object
      properties:
        error:
          type: string
        code:
          type: integer
paths:
  /tickets:
    get:
      summary: List tickets assigned to the authenticated user
      tags: [Tickets]
      parameters:
        - name: status
          in: query
          schema:
            type: string
          description: Only include tickets in this workflow state
        - name: excludeStatuses
          in: query
          schema:
            type: string
          description: Comma-separated workflow states to exclude
        - name: maxPriority
          in: query
          schema:
            type: integer
            minimum: 0
            maximum: 4
        - name: limit
          in: query
          schema:
            type: integer
            minimum: 1
            maximum: 50
            default: 10
      responses:
        '200':
          description: List of tickets
    post:
      summary: Create a ticket tagged agent-created
      tags: [Tickets]
      requestBody:
        content:
          application/json:
            schema:
              type: object
              required: [teamId, title]
              properties:
                teamId:
                  type: string
                title:
                  type: string
                description:
                  type: string
                priority:
                  type: integer
                  minimum: 0
                  maximum: 4
                assigneeId:
                  type: string
                labelIds:
                  type: array
                  items:
                    type: string
                stateId:
                  type: string
      responses:
        '201':
          description: Created ticket
  /tickets/export:
    get:
      summary: Export assigned tickets as an Excel workbook
      tags: [Tickets]
      responses:
        '200':
          description: xlsx workbook
          content:
            application/vnd.openxmlformats-officedocument.spreadsheetml.sheet: {}
  /teams:
    get:
      summary: List teams
      tags: [Reference]
      responses:
        '200':
          description: List of teams
  /users:
    get:
      summary: List users in the organization
      tags: [Reference]
      responses:
        '200':
          description: List of users
  /tools/{name}:
    post:
      summary: Call an MCP tool by name
      tags: [Tools]
      parameters:
        - name: name
          in: path
          required: true
          schema:
            type: string
            enum: [get-linear-tickets, get-linear-teams, get-linear-users, create-linear-ticket]
      requestBody:
        content:
          application/json:
            schema:
              type: object
      responses:
        '200':
          description: Tool result envelope
        '404':
          description: Unknown tool
`
