package report

import (
	"context"
	"fmt"
	"strings"

	"sprint-mcp/internal/issue"
	"sprint-mcp/internal/jira"
)

// ResolveFieldID maps a friendly field name to its custom field id.
// Anything else is passed through as an explicit id.
func ResolveFieldID(fields issue.Fields, name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "":
		return "", fmt.Errorf("field is required")
	case "show_in_dashboard", "dashboard":
		return fields.ShowInDashboard, nil
	case "popup":
		return fields.Popup, nil
	case "steve_estimate":
		return fields.SteveEstimate, nil
	case "customer":
		return fields.Customer, nil
	case "feature":
		return fields.Feature, nil
	case "tester":
		return fields.Tester, nil
	case "story_points":
		return fields.StoryPoints, nil
	}
	if !strings.HasPrefix(name, "customfield_") {
		return "", fmt.Errorf("unknown field %q", name)
	}
	return name, nil
}

// SetIssueField writes a single field on an issue and drops cached results.
// It returns the payload shape Jira accepted.
func (a *Assembler) SetIssueField(ctx context.Context, key, field, value string) (string, any, error) {
	if a.client == nil {
		return "", nil, ErrNoJira
	}
	if key == "" {
		return "", nil, fmt.Errorf("issue key is required")
	}
	fieldID, err := ResolveFieldID(a.processor.Fields(), field)
	if err != nil {
		return "", nil, err
	}
	shape, err := jira.SetField(ctx, a.client, key, fieldID, value)
	if err != nil {
		return fieldID, nil, err
	}
	a.cache.Clear()
	return fieldID, shape, nil
}
