package snapshot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sprint-mcp/internal/jira"
)

// Snapshot is the latest stored state of one sprint.
type Snapshot struct {
	ID          string          `json:"_id" db:"id"`
	SprintID    int             `json:"sprint_id" db:"sprint_id"`
	SprintName  string          `json:"sprint_name" db:"sprint_name"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	TotalIssues int             `json:"total_issues" db:"total_issues"`
	Issues      []jira.Issue    `json:"issues,omitempty" db:"-"`
	Details     *jira.SprintDTO `json:"details,omitempty" db:"-"`
}

// Store persists sprint snapshots. Saving replaces any previous snapshot of the same sprint.
type Store interface {
	SaveSprintSnapshot(ctx context.Context, sprintID int, sprintName string, issues []jira.Issue, sprintInfo *jira.SprintDTO) error
	// GetSprintSnapshot returns nil, nil when the sprint was never synced.
	GetSprintSnapshot(ctx context.Context, sprintID int) (*Snapshot, error)
	// ListSprintSnapshots returns metadata only, most recently updated first.
	ListSprintSnapshots(ctx context.Context) ([]Snapshot, error)
	Close() error
}

// DocumentID is the identifier a sprint snapshot is stored under.
func DocumentID(sprintID int) string {
	return fmt.Sprintf("sprint_%d", sprintID)
}

func newSnapshot(sprintID int, sprintName string, issues []jira.Issue, sprintInfo *jira.SprintDTO, now time.Time) Snapshot {
	if issues == nil {
		issues = []jira.Issue{}
	}
	return Snapshot{
		ID:          DocumentID(sprintID),
		SprintID:    sprintID,
		SprintName:  sprintName,
		UpdatedAt:   now.UTC(),
		TotalIssues: len(issues),
		Issues:      issues,
		Details:     sprintInfo,
	}
}

// Open selects a backend from the DSN scheme:
//
//	file:<dir>            one JSON document per sprint
//	sqlite:<path>         embedded database (":memory:" for tests)
//	postgres://...        PostgreSQL
func Open(ctx context.Context, dsn string) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "file:"):
		return NewFileStore(strings.TrimPrefix(dsn, "file:"))
	case strings.HasPrefix(dsn, "sqlite:"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported snapshot store %q (use file:, sqlite: or postgres://)", dsn)
	}
}
