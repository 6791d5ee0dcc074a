package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ycho/linear-mcp-server/internal/linear"
)

// Literal texts returned when a listing is empty.
const (
	NoTicketsText = "No tickets found matching the criteria."
	NoTeamsText   = "No teams found."
	NoUsersText   = "No users found."
)

// Agent label attached to every ticket created through this server.
const (
	AgentLabelName        = "agent-created"
	agentLabelDescription = "Automatically created by Linear MCP agent"
	agentLabelColor       = "#6366f1"
)

const createdTicketHeader = "Successfully created Linear ticket with agent-created label!"

const unknownStatus = "Unknown"

// Client is the subset of the Linear API used by the handlers.
type Client interface {
	AssignedIssues(ctx context.Context, params linear.IssueQuery) ([]linear.Issue, error)
	Teams(ctx context.Context) ([]linear.Team, error)
	Users(ctx context.Context) ([]linear.User, error)
	IssueLabelsByName(ctx context.Context, name string) ([]linear.IssueLabel, error)
	CreateIssueLabel(ctx context.Context, input linear.IssueLabelCreateInput) (*linear.IssueLabelPayload, error)
	CreateIssue(ctx context.Context, input linear.IssueCreateInput) (*linear.IssuePayload, error)
}

// ClientFactory builds a fresh upstream client for one call.
type ClientFactory func(apiKey string) Client

// Handlers implements the tool operations.
type Handlers struct {
	newClient ClientFactory
}

// NewHandlers creates handlers that construct upstream clients with newClient.
func NewHandlers(newClient ClientFactory) *Handlers {
	return &Handlers{newClient: newClient}
}

var errMissingAPIKey = invalidParams("API key is required")

// Tickets fetches the caller's assigned tickets as views. Errors are already
// wrapped for the caller.
func (h *Handlers) Tickets(ctx context.Context, args TicketsArgs) ([]Ticket, error) {
	if args.APIKey == "" {
		return nil, errMissingAPIKey
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	filter := linear.IssueFilter{}
	if args.Status != "" {
		filter = filter.WithStateName(args.Status)
	}
	if len(args.ExcludeStatuses) > 0 {
		filter = filter.WithoutStateNames(args.ExcludeStatuses)
	}
	if args.MaxPriority != nil {
		filter = filter.WithMaxPriority(*args.MaxPriority)
	}

	client := h.newClient(args.APIKey)
	issues, err := client.AssignedIssues(ctx, linear.IssueQuery{First: limit, Filter: filter})
	if err != nil {
		return nil, wrapErr("fetch Linear tickets", err)
	}

	tickets := make([]Ticket, len(issues))
	for i, issue := range issues {
		status := unknownStatus
		if issue.State != nil && issue.State.Name != "" {
			status = issue.State.Name
		}
		tickets[i] = Ticket{
			ID:        issue.ID,
			Title:     issue.Title,
			Status:    status,
			Priority:  issue.Priority,
			URL:       issue.URL,
			CreatedAt: issue.CreatedAt,
		}
	}
	return tickets, nil
}

// GetTickets lists the tickets assigned to the authenticated user.
func (h *Handlers) GetTickets(ctx context.Context, args TicketsArgs) (*Result, error) {
	tickets, err := h.Tickets(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return textResult(NoTicketsText), nil
	}
	return listResult("fetch Linear tickets", tickets)
}

// Teams fetches all teams as views.
func (h *Handlers) Teams(ctx context.Context, args KeyArgs) ([]Team, error) {
	if args.APIKey == "" {
		return nil, errMissingAPIKey
	}

	teams, err := h.newClient(args.APIKey).Teams(ctx)
	if err != nil {
		return nil, wrapErr("fetch Linear teams", err)
	}

	views := make([]Team, len(teams))
	for i, t := range teams {
		views[i] = Team{
			ID:          t.ID,
			Name:        t.Name,
			Key:         t.Key,
			Description: t.Description,
		}
	}
	return views, nil
}

// GetTeams lists all teams.
func (h *Handlers) GetTeams(ctx context.Context, args KeyArgs) (*Result, error) {
	teams, err := h.Teams(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return textResult(NoTeamsText), nil
	}
	return listResult("fetch Linear teams", teams)
}

// Users fetches all users in the organization as views.
func (h *Handlers) Users(ctx context.Context, args KeyArgs) ([]User, error) {
	if args.APIKey == "" {
		return nil, errMissingAPIKey
	}

	users, err := h.newClient(args.APIKey).Users(ctx)
	if err != nil {
		return nil, wrapErr("fetch Linear users", err)
	}

	views := make([]User, len(users))
	for i, u := range users {
		views[i] = User{
			ID:          u.ID,
			Name:        u.Name,
			Email:       u.Email,
			DisplayName: u.DisplayName,
			IsActive:    u.Active,
		}
	}
	return views, nil
}

// GetUsers lists all users in the organization.
func (h *Handlers) GetUsers(ctx context.Context, args KeyArgs) (*Result, error) {
	users, err := h.Users(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return textResult(NoUsersText), nil
	}
	return listResult("fetch Linear users", users)
}

func listResult(action string, v any) (*Result, error) {
	text, err := prettyJSON(v)
	if err != nil {
		return nil, wrapErr(action, err)
	}
	return textResult(text), nil
}

// labelOutcome is the result of ensuring the agent label exists. A non-nil
// Err never fails ticket creation.
type labelOutcome struct {
	ID  string
	Err error
}

func ensureAgentLabel(ctx context.Context, client Client) labelOutcome {
	labels, err := client.IssueLabelsByName(ctx, AgentLabelName)
	if err != nil {
		return labelOutcome{Err: fmt.Errorf("failed to look up label: %w", err)}
	}
	if len(labels) > 0 {
		return labelOutcome{ID: labels[0].ID}
	}

	payload, err := client.CreateIssueLabel(ctx, linear.IssueLabelCreateInput{
		Name:        AgentLabelName,
		Description: agentLabelDescription,
		Color:       agentLabelColor,
	})
	if err != nil {
		return labelOutcome{Err: fmt.Errorf("failed to create label: %w", err)}
	}
	if !payload.Success || payload.IssueLabel == nil {
		return labelOutcome{Err: errors.New("label creation returned no label")}
	}
	return labelOutcome{ID: payload.IssueLabel.ID}
}

// Create creates an issue and tags it with the agent label when possible.
func (h *Handlers) Create(ctx context.Context, args CreateTicketArgs) (*CreatedTicket, error) {
	if args.APIKey == "" {
		return nil, errMissingAPIKey
	}
	if args.TeamID == "" {
		return nil, invalidParams("Team ID is required")
	}
	if args.Title == "" {
		return nil, invalidParams("Title is required")
	}

	client := h.newClient(args.APIKey)

	label := ensureAgentLabel(ctx, client)
	if label.Err != nil {
		slog.Warn("could not ensure agent-created label", "error", label.Err)
	}

	labelIDs := append([]string(nil), args.LabelIDs...)
	if label.ID != "" {
		labelIDs = append(labelIDs, label.ID)
	}

	payload, err := client.CreateIssue(ctx, linear.IssueCreateInput{
		TeamID:      args.TeamID,
		Title:       args.Title,
		Description: args.Description,
		Priority:    args.Priority,
		AssigneeID:  args.AssigneeID,
		LabelIDs:    labelIDs,
		StateID:     args.StateID,
	})
	if err != nil {
		return nil, wrapErr("create Linear ticket", err)
	}
	if !payload.Success {
		return nil, internalError("Failed to create Linear ticket: Unknown error")
	}
	if payload.Issue == nil {
		return nil, internalError("Issue was not returned after creation")
	}

	issue := payload.Issue
	view := CreatedTicket{
		ID:        issue.ID,
		Title:     issue.Title,
		URL:       issue.URL,
		Labels:    issue.LabelNames(),
		CreatedAt: issue.CreatedAt,
	}

	slog.Info("created Linear ticket", "id", issue.ID, "team_id", args.TeamID, "agent_label", label.ID != "")

	return &view, nil
}

// CreateTicket creates a ticket and reports it with the success header.
func (h *Handlers) CreateTicket(ctx context.Context, args CreateTicketArgs) (*Result, error) {
	view, err := h.Create(ctx, args)
	if err != nil {
		return nil, err
	}

	text, err := prettyJSON(view)
	if err != nil {
		return nil, wrapErr("create Linear ticket", err)
	}
	return textResult(createdTicketHeader + "\n\n" + text), nil
}
