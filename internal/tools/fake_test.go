package tools

import (
	"context"

	"github.com/ycho/linear-mcp-server/internal/linear"
)

// fakeClient is a programmable Client. Unset funcs return zero values.
type fakeClient struct {
	calls int

	assignedIssues    func(linear.IssueQuery) ([]linear.Issue, error)
	teams             func() ([]linear.Team, error)
	users             func() ([]linear.User, error)
	issueLabelsByName func(string) ([]linear.IssueLabel, error)
	createIssueLabel  func(linear.IssueLabelCreateInput) (*linear.IssueLabelPayload, error)
	createIssue       func(linear.IssueCreateInput) (*linear.IssuePayload, error)
}

func (f *fakeClient) AssignedIssues(_ context.Context, q linear.IssueQuery) ([]linear.Issue, error) {
	f.calls++
	if f.assignedIssues == nil {
		return nil, nil
	}
	return f.assignedIssues(q)
}

func (f *fakeClient) Teams(context.Context) ([]linear.Team, error) {
	f.calls++
	if f.teams == nil {
		return nil, nil
	}
	return f.teams()
}

func (f *fakeClient) Users(context.Context) ([]linear.User, error) {
	f.calls++
	if f.users == nil {
		return nil, nil
	}
	return f.users()
}

func (f *fakeClient) IssueLabelsByName(_ context.Context, name string) ([]linear.IssueLabel, error) {
	f.calls++
	if f.issueLabelsByName == nil {
		return nil, nil
	}
	return f.issueLabelsByName(name)
}

func (f *fakeClient) CreateIssueLabel(_ context.Context, in linear.IssueLabelCreateInput) (*linear.IssueLabelPayload, error) {
	f.calls++
	if f.createIssueLabel == nil {
		return &linear.IssueLabelPayload{}, nil
	}
	return f.createIssueLabel(in)
}

func (f *fakeClient) CreateIssue(_ context.Context, in linear.IssueCreateInput) (*linear.IssuePayload, error) {
	f.calls++
	if f.createIssue == nil {
		return &linear.IssuePayload{}, nil
	}
	return f.createIssue(in)
}

// newTestHandlers returns handlers that always hand out fc, and a pointer to
// the number of clients constructed.
func newTestHandlers(fc *fakeClient) (*Handlers, *int) {
	built := 0
	return NewHandlers(func(apiKey string) Client {
		built++
		return fc
	}), &built
}
