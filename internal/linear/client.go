package linear

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	graphql "github.com/hasura/go-graphql-client"
)

// DefaultURL is the Linear GraphQL endpoint.
const DefaultURL = "https://api.linear.app/graphql"

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 30 * time.Second

// Client is a Linear GraphQL API client
type Client struct {
	gql *graphql.Client
}

// NewClient creates a new Linear client for the given endpoint and API key.
// Personal API keys are sent as-is in the Authorization header.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	gql := graphql.NewClient(endpoint, httpClient).
		WithRequestModifier(func(r *http.Request) {
			r.Header.Set("Authorization", apiKey)
		})

	return &Client{gql: gql}
}

// exec runs a raw GraphQL document and decodes the data object into out.
func (c *Client) exec(ctx context.Context, query string, variables map[string]any, out any) error {
	data, err := c.gql.ExecRaw(ctx, query, variables)
	if err != nil {
		return apiError(err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// apiError flattens GraphQL error lists into their messages so callers can
// surface them verbatim. Non-200 responses carry the same errors body, so
// it is read from the network error before falling back to the status text.
func apiError(err error) error {
	var netErr graphql.NetworkError
	if errors.As(err, &netErr) {
		var body struct {
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if json.Unmarshal([]byte(netErr.Body()), &body) == nil && len(body.Errors) > 0 {
			msgs := make([]string, len(body.Errors))
			for i, e := range body.Errors {
				msgs[i] = e.Message
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return netErr
	}

	var gqlErrs graphql.Errors
	if !errors.As(err, &gqlErrs) || len(gqlErrs) == 0 {
		return err
	}
	msgs := make([]string, len(gqlErrs))
	for i, e := range gqlErrs {
		msgs[i] = e.Message
	}
	return errors.New(strings.Join(msgs, "; "))
}

// WorkflowState is the named status bucket an issue sits in.
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Issue represents a Linear issue
type Issue struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Priority  int            `json:"priority"`
	URL       string         `json:"url"`
	CreatedAt string         `json:"createdAt"`
	State     *WorkflowState `json:"state"`
	Labels    struct {
		Nodes []IssueLabel `json:"nodes"`
	} `json:"labels"`
}

// LabelNames returns the display names of the labels attached to the issue.
func (i Issue) LabelNames() []string {
	names := make([]string, len(i.Labels.Nodes))
	for n, l := range i.Labels.Nodes {
		names[n] = l.Name
	}
	return names
}

// Team represents a Linear team
type Team struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Key         string  `json:"key"`
	Description *string `json:"description"`
}

// User represents a Linear user
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Active      bool   `json:"active"`
}

// IssueLabel represents a workspace or team issue label
type IssueLabel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

const assignedIssuesQuery = `query AssignedIssues($first: Int, $filter: IssueFilter) {
  viewer {
    assignedIssues(first: $first, filter: $filter) {
      nodes {
        id
        title
        priority
        url
        createdAt
        state { id name type }
      }
    }
  }
}`

// AssignedIssues returns one page of issues assigned to the authenticated user.
func (c *Client) AssignedIssues(ctx context.Context, params IssueQuery) ([]Issue, error) {
	variables := map[string]any{
		"first": params.First,
	}
	if f := params.Filter; !f.Empty() {
		variables["filter"] = f
	}

	var resp struct {
		Viewer struct {
			AssignedIssues struct {
				Nodes []Issue `json:"nodes"`
			} `json:"assignedIssues"`
		} `json:"viewer"`
	}
	if err := c.exec(ctx, assignedIssuesQuery, variables, &resp); err != nil {
		return nil, err
	}

	return resp.Viewer.AssignedIssues.Nodes, nil
}

const teamsQuery = `query Teams {
  teams {
    nodes { id name key description }
  }
}`

// Teams returns the teams visible to the authenticated user.
func (c *Client) Teams(ctx context.Context) ([]Team, error) {
	var resp struct {
		Teams struct {
			Nodes []Team `json:"nodes"`
		} `json:"teams"`
	}
	if err := c.exec(ctx, teamsQuery, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Teams.Nodes, nil
}

const usersQuery = `query Users {
  users {
    nodes { id name email displayName active }
  }
}`

// Users returns the users of the organization.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var resp struct {
		Users struct {
			Nodes []User `json:"nodes"`
		} `json:"users"`
	}
	if err := c.exec(ctx, usersQuery, nil, &resp); err != nil {
		return nil, err
	}

	return resp.Users.Nodes, nil
}

const issueLabelsQuery = `query IssueLabels($filter: IssueLabelFilter) {
  issueLabels(filter: $filter) {
    nodes { id name }
  }
}`

// IssueLabelsByName returns labels whose name matches exactly.
func (c *Client) IssueLabelsByName(ctx context.Context, name string) ([]IssueLabel, error) {
	variables := map[string]any{
		"filter": map[string]any{
			"name": map[string]any{"eq": name},
		},
	}

	var resp struct {
		IssueLabels struct {
			Nodes []IssueLabel `json:"nodes"`
		} `json:"issueLabels"`
	}
	if err := c.exec(ctx, issueLabelsQuery, variables, &resp); err != nil {
		return nil, err
	}

	return resp.IssueLabels.Nodes, nil
}

// IssueLabelCreateInput is the input for the issueLabelCreate mutation
type IssueLabelCreateInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	TeamID      string `json:"teamId,omitempty"`
}

// IssueLabelPayload is the result of the issueLabelCreate mutation
type IssueLabelPayload struct {
	Success    bool        `json:"success"`
	IssueLabel *IssueLabel `json:"issueLabel"`
}

const createIssueLabelMutation = `mutation CreateIssueLabel($input: IssueLabelCreateInput!) {
  issueLabelCreate(input: $input) {
    success
    issueLabel { id name }
  }
}`

// CreateIssueLabel creates a new issue label
func (c *Client) CreateIssueLabel(ctx context.Context, input IssueLabelCreateInput) (*IssueLabelPayload, error) {
	var resp struct {
		IssueLabelCreate IssueLabelPayload `json:"issueLabelCreate"`
	}
	if err := c.exec(ctx, createIssueLabelMutation, map[string]any{"input": input}, &resp); err != nil {
		return nil, err
	}

	return &resp.IssueLabelCreate, nil
}

// IssueCreateInput is the input for the issueCreate mutation. Unset optional
// fields are omitted from the request rather than sent as null.
type IssueCreateInput struct {
	TeamID      string   `json:"teamId"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	AssigneeID  *string  `json:"assigneeId,omitempty"`
	LabelIDs    []string `json:"labelIds,omitempty"`
	StateID     *string  `json:"stateId,omitempty"`
}

// IssuePayload is the result of the issueCreate mutation
type IssuePayload struct {
	Success bool   `json:"success"`
	Issue   *Issue `json:"issue"`
}

const createIssueMutation = `mutation CreateIssue($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue {
      id
      title
      url
      createdAt
      labels { nodes { id name } }
    }
  }
}`

// CreateIssue creates a new issue
func (c *Client) CreateIssue(ctx context.Context, input IssueCreateInput) (*IssuePayload, error) {
	var resp struct {
		IssueCreate IssuePayload `json:"issueCreate"`
	}
	if err := c.exec(ctx, createIssueMutation, map[string]any{"input": input}, &resp); err != nil {
		return nil, err
	}

	return &resp.IssueCreate, nil
}
