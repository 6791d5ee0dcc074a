package tools

import (
	"context"
	"fmt"
)

// Name identifies a tool exposed to callers.
type Name string

const (
	GetTickets   Name = "get-linear-tickets"
	GetTeams     Name = "get-linear-teams"
	GetUsers     Name = "get-linear-users"
	CreateTicket Name = "create-linear-ticket"
)

// Names lists every tool in catalog order.
var Names = []Name{GetTickets, GetTeams, GetUsers, CreateTicket}

type toolFunc func(ctx context.Context, apiKey string, args map[string]any) (*Result, error)

func (h *Handlers) routes() map[Name]toolFunc {
	return map[Name]toolFunc{
		GetTickets: func(ctx context.Context, apiKey string, args map[string]any) (*Result, error) {
			parsed, err := ParseTicketsArgs(apiKey, args)
			if err != nil {
				return nil, err
			}
			return h.GetTickets(ctx, parsed)
		},
		GetTeams: func(ctx context.Context, apiKey string, _ map[string]any) (*Result, error) {
			return h.GetTeams(ctx, KeyArgs{APIKey: apiKey})
		},
		GetUsers: func(ctx context.Context, apiKey string, _ map[string]any) (*Result, error) {
			return h.GetUsers(ctx, KeyArgs{APIKey: apiKey})
		},
		CreateTicket: func(ctx context.Context, apiKey string, args map[string]any) (*Result, error) {
			parsed, err := ParseCreateTicketArgs(apiKey, args)
			if err != nil {
				return nil, err
			}
			return h.CreateTicket(ctx, parsed)
		},
	}
}

// Dispatch runs the named tool with the injected API key and raw arguments.
// The key is checked before the arguments are decoded.
func (h *Handlers) Dispatch(ctx context.Context, name Name, apiKey string, args map[string]any) (*Result, error) {
	fn, ok := h.routes()[name]
	if !ok {
		return nil, &Error{Code: MethodNotFound, Message: fmt.Sprintf("Unknown tool: %s", name)}
	}
	if apiKey == "" {
		return nil, errMissingAPIKey
	}
	return fn(ctx, apiKey, args)
}
