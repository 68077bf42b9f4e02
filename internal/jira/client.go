package jira

import (
	"context"
	"time"
)

// Client is the interface for interacting with Jira.
type Client interface {
	SearchIssues(ctx context.Context, jql string, fields []string) ([]IssueDTO, error)
	GetIssueWorklogs(ctx context.Context, key string) ([]WorklogDTO, error)
	GetIssueChangelog(ctx context.Context, key string) ([]HistoryDTO, error)
	GetSprints(ctx context.Context, projectKey string) ([]SprintDTO, error)
	GetSprint(ctx context.Context, id int) (*SprintDTO, error)
	GetSprintIssues(ctx context.Context, sprintID int, fields []string) ([]IssueDTO, error)
	UpdateIssueField(ctx context.Context, key string, fieldID string, value any) error
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string `validate:"required,url"`

	// Jira Cloud basic auth (account email + API token)
	Email    string `validate:"required_without=Token"`
	APIToken string `validate:"required_without=Token"`

	// Personal Access Token, takes precedence over basic auth
	Token string

	RequestDelay time.Duration
	Timeout      time.Duration
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewCloudClient(cfg)
}

// BrowseURL returns the web URL of an issue.
func BrowseURL(baseURL, key string) string {
	return trimSlash(baseURL) + "/browse/" + key
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
