package tools

import (
	"fmt"
	"math"

	"github.com/go-viper/mapstructure/v2"
)

// TicketsArgs are the arguments of get-linear-tickets.
type TicketsArgs struct {
	APIKey          string   `json:"apiKey"`
	Status          string   `json:"status"`
	ExcludeStatuses []string `json:"excludeStatuses"`
	MaxPriority     *int     `json:"maxPriority"`
	Limit           int      `json:"limit"`
}

// KeyArgs are the arguments of tools that take nothing but the API key.
type KeyArgs struct {
	APIKey string `json:"apiKey"`
}

// CreateTicketArgs are the arguments of create-linear-ticket.
type CreateTicketArgs struct {
	APIKey      string   `json:"apiKey"`
	TeamID      string   `json:"teamId"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Priority    *int     `json:"priority"`
	AssigneeID  *string  `json:"assigneeId"`
	LabelIDs    []string `json:"labelIds"`
	StateID     *string  `json:"stateId"`
}

const (
	defaultLimit = 10
	maxLimit     = 50
	minPriority  = 0
	maxPriority  = 4
)

// rawTicketsArgs and rawCreateTicketArgs receive numbers as float64, the way
// JSON decodes them, so range and integrality can be checked explicitly.
type rawTicketsArgs struct {
	Status          *string  `mapstructure:"status"`
	ExcludeStatuses []string `mapstructure:"excludeStatuses"`
	MaxPriority     *float64 `mapstructure:"maxPriority"`
	Limit           *float64 `mapstructure:"limit"`
}

type rawCreateTicketArgs struct {
	TeamID      *string  `mapstructure:"teamId"`
	Title       *string  `mapstructure:"title"`
	Description *string  `mapstructure:"description"`
	Priority    *float64 `mapstructure:"priority"`
	AssigneeID  *string  `mapstructure:"assigneeId"`
	LabelIDs    []string `mapstructure:"labelIds"`
	StateID     *string  `mapstructure:"stateId"`
}

func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return invalidParams(fmt.Sprintf("Invalid arguments: %v", err))
	}
	return nil
}

// intInRange converts a JSON number to an int in [lo, hi].
func intInRange(name string, v float64, lo, hi int) (int, error) {
	if v != math.Trunc(v) || v < float64(lo) || v > float64(hi) {
		return 0, invalidParams(fmt.Sprintf("%s must be an integer between %d and %d", name, lo, hi))
	}
	return int(v), nil
}

// ParseTicketsArgs validates raw tool arguments for get-linear-tickets.
func ParseTicketsArgs(apiKey string, input map[string]any) (TicketsArgs, error) {
	args := TicketsArgs{APIKey: apiKey, Limit: defaultLimit}

	var raw rawTicketsArgs
	if err := decode(input, &raw); err != nil {
		return args, err
	}

	if raw.Status != nil {
		args.Status = *raw.Status
	}
	args.ExcludeStatuses = raw.ExcludeStatuses

	if raw.MaxPriority != nil {
		p, err := intInRange("maxPriority", *raw.MaxPriority, minPriority, maxPriority)
		if err != nil {
			return args, err
		}
		args.MaxPriority = &p
	}

	if raw.Limit != nil {
		l, err := intInRange("limit", *raw.Limit, 1, maxLimit)
		if err != nil {
			return args, err
		}
		args.Limit = l
	}

	return args, nil
}

// ParseCreateTicketArgs validates raw tool arguments for create-linear-ticket.
// Presence of teamId and title is checked by the handler so the first
// missing field is reported in a fixed order.
func ParseCreateTicketArgs(apiKey string, input map[string]any) (CreateTicketArgs, error) {
	args := CreateTicketArgs{APIKey: apiKey}

	var raw rawCreateTicketArgs
	if err := decode(input, &raw); err != nil {
		return args, err
	}

	if raw.TeamID != nil {
		args.TeamID = *raw.TeamID
	}
	if raw.Title != nil {
		args.Title = *raw.Title
	}
	args.Description = raw.Description
	args.AssigneeID = raw.AssigneeID
	args.LabelIDs = raw.LabelIDs
	args.StateID = raw.StateID

	if raw.Priority != nil {
		p, err := intInRange("priority", *raw.Priority, minPriority, maxPriority)
		if err != nil {
			return args, err
		}
		args.Priority = &p
	}

	return args, nil
}
