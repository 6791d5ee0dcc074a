package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ycho/linear-mcp-server/internal/tools"
)

// @title Linear MCP Server API
// @version 0.1.0
// @description REST API for Linear integration with AI assistants
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-Linear-API-Key

type contextKey string

const apiKeyContextKey contextKey = "linearAPIKey"

func withAPIKey(ctx context.Context, apiKey string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey, apiKey)
}

func apiKeyFrom(ctx context.Context) string {
	key, _ := ctx.Value(apiKeyContextKey).(string)
	return key
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeToolError maps a tool error code onto an HTTP status.
func writeToolError(w http.ResponseWriter, err error) {
	code := tools.CodeOf(err)

	status := http.StatusBadGateway
	switch code {
	case tools.InvalidParams:
		status = http.StatusBadRequest
	case tools.MethodNotFound:
		status = http.StatusNotFound
	}

	writeJSON(w, status, map[string]any{
		"error": err.Error(),
		"code":  code,
	})
}

// readArguments decodes an optional JSON object body.
func readArguments(r *http.Request) (map[string]any, error) {
	var args map[string]any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return args, nil
}

// ticketsInput turns query parameters into tool arguments. Numbers that do
// not parse are passed through as strings so argument validation rejects them.
func ticketsInput(q url.Values) map[string]any {
	input := make(map[string]any)

	if status := q.Get("status"); status != "" {
		input["status"] = status
	}

	var excluded []any
	for _, v := range q["excludeStatuses"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				excluded = append(excluded, name)
			}
		}
	}
	if len(excluded) > 0 {
		input["excludeStatuses"] = excluded
	}

	for _, name := range []string{"maxPriority", "limit"} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			input[name] = n
		} else {
			input[name] = v
		}
	}

	return input
}

func (s *Server) tickets(r *http.Request) ([]tools.Ticket, error) {
	args, err := tools.ParseTicketsArgs(apiKeyFrom(r.Context()), ticketsInput(r.URL.Query()))
	if err != nil {
		return nil, err
	}
	return s.handlers.Tickets(r.Context(), args)
}

// @Summary List tickets
// @Description Returns tickets assigned to the authenticated user
// @Tags Tickets
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Workflow state name to include"
// @Param excludeStatuses query string false "Comma-separated workflow state names to exclude"
// @Param maxPriority query int false "Highest priority value to include (0-4)"
// @Param limit query int false "Number of tickets to return (1-50)" default(10)
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]any
// @Router /tickets [get]
func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.tickets(r)
	if err != nil {
		writeToolError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tickets": tickets,
		"count":   len(tickets),
	})
}

// @Summary Export tickets
// @Description Returns tickets assigned to the authenticated user as an Excel workbook
// @Tags Tickets
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Param status query string false "Workflow state name to include"
// @Param excludeStatuses query string false "Comma-separated workflow state names to exclude"
// @Param maxPriority query int false "Highest priority value to include (0-4)"
// @Param limit query int false "Number of tickets to return (1-50)" default(10)
// @Success 200 {file} file
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]any
// @Router /tickets/export [get]
func (s *Server) handleExportTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := s.tickets(r)
	if err != nil {
		writeToolError(w, err)
		return
	}

	workbook, err := ticketsWorkbook(tickets)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFileName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = workbook.WriteTo(w)
}

// @Summary Create ticket
// @Description Create a new ticket tagged with the agent-created label
// @Tags Tickets
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body object true "Ticket data (teamId and title required)"
// @Success 201 {object} tools.CreatedTicket
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]any
// @Router /tickets [post]
func (s *Server) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	input, err := readArguments(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	args, err := tools.ParseCreateTicketArgs(apiKeyFrom(r.Context()), input)
	if err != nil {
		writeToolError(w, err)
		return
	}

	ticket, err := s.handlers.Create(r.Context(), args)
	if err != nil {
		writeToolError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ticket)
}

// @Summary List teams
// @Description Returns all teams, e.g. to pick a teamId for a new ticket
// @Tags Reference
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]any
// @Router /teams [get]
func (s *Server) handleListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.handlers.Teams(r.Context(), tools.KeyArgs{APIKey: apiKeyFrom(r.Context())})
	if err != nil {
		writeToolError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"teams": teams,
		"count": len(teams),
	})
}

// @Summary List users
// @Description Returns all users in the organization, e.g. to pick an assignee
// @Tags Reference
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 502 {object} map[string]any
// @Router /users [get]
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.handlers.Users(r.Context(), tools.KeyArgs{APIKey: apiKeyFrom(r.Context())})
	if err != nil {
		writeToolError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"count": len(users),
	})
}

// @Summary Call tool
// @Description Runs an MCP tool by name and returns its result envelope
// @Tags Tools
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param name path string true "Tool name"
// @Param request body object false "Tool arguments"
// @Success 200 {object} tools.Result
// @Failure 400 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]any
// @Failure 502 {object} map[string]any
// @Router /tools/{name} [post]
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	args, err := readArguments(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	name := tools.Name(chi.URLParam(r, "name"))
	result, err := s.handlers.Dispatch(r.Context(), name, apiKeyFrom(r.Context()), args)
	if err != nil {
		writeToolError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
