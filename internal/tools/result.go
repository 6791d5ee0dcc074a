package tools

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Content is a single block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the envelope every tool returns.
type Result struct {
	Content []Content `json:"content"`
}

// Text returns the text of the first content block.
func (r *Result) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

func textResult(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}}
}

// prettyJSON encodes v with two-space indentation and without HTML escaping.
func prettyJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Ticket is the listing view of an issue.
type Ticket struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Priority  int    `json:"priority"`
	URL       string `json:"url"`
	CreatedAt string `json:"createdAt"`
}

// Team is the listing view of a team.
type Team struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Key         string  `json:"key"`
	Description *string `json:"description"`
}

// User is the listing view of a user.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IsActive    bool   `json:"isActive"`
}

// CreatedTicket is the view of a newly created issue.
type CreatedTicket struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	URL       string   `json:"url"`
	Labels    []string `json:"labels"`
	CreatedAt string   `json:"createdAt"`
}
