package report

import (
	"context"
	"fmt"
	"slices"
	"time"

	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/snapshot"
	"sprint-mcp/internal/stats"

	"github.com/rs/zerolog/log"
)

// SprintQuery selects a sprint and the shape of its report.
type SprintQuery struct {
	SprintID int
	Refresh  bool

	Burndown     stats.BurndownMetric
	Completion   stats.CompletionField
	Distribution stats.DistributionMetric

	IncludeOtherDone bool
	TargetPerUser    float64

	// DashboardOnly keeps issues that pass the dashboard rule.
	DashboardOnly bool
	// Members restricts the report to these assignees when non-empty.
	Members  []string
	Inactive []string

	WithIssues bool
}

// SprintInfo describes the sprint a report was built from.
type SprintInfo struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	State     string       `json:"state,omitempty"`
	Goal      string       `json:"goal,omitempty"`
	StartDate string       `json:"start_date,omitempty"`
	EndDate   string       `json:"end_date,omitempty"`
	Window    stats.Window `json:"window"`
}

// SprintReport is everything shown for one sprint.
type SprintReport struct {
	Sprint        SprintInfo                  `json:"sprint"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	Stats         stats.SprintStats           `json:"stats"`
	Performance   []stats.AssigneePerformance `json:"performance"`
	Burndown      *stats.Burndown             `json:"burndown,omitempty"`
	ElapsedDays   int                         `json:"elapsed_days"`
	Distribution  stats.StatusDistribution    `json:"distribution"`
	TimeByUser    []stats.UserTime            `json:"time_by_user"`
	Plan          stats.SprintPlan            `json:"plan"`
	Progress      *float64                    `json:"progress,omitempty"`
	DaysRemaining *int                        `json:"days_remaining,omitempty"`
	Issues        []jira.Issue                `json:"issues,omitempty"`
}

// SelectIssues applies the dashboard and team filters of q.
func SelectIssues(issues []jira.Issue, q SprintQuery) []jira.Issue {
	out := make([]jira.Issue, 0, len(issues))
	for _, is := range issues {
		if q.DashboardOnly && !is.ShowInDashboardFinal {
			continue
		}
		if len(q.Members) > 0 && !slices.Contains(q.Members, is.Assignee) {
			continue
		}
		if slices.Contains(q.Inactive, is.Assignee) {
			continue
		}
		out = append(out, is)
	}
	return out
}

// SprintReport builds the sprint report from the stored snapshot, syncing
// it first when q.Refresh is set or nothing is stored.
func (a *Assembler) SprintReport(ctx context.Context, q SprintQuery) (*SprintReport, error) {
	snap, err := a.LoadSprint(ctx, q.SprintID, q.Refresh)
	if err != nil {
		return nil, err
	}
	return a.BuildSprintReport(snap, q), nil
}

// BuildSprintReport computes every sprint metric from a snapshot.
func (a *Assembler) BuildSprintReport(snap *snapshot.Snapshot, q SprintQuery) *SprintReport {
	if q.Burndown == "" {
		q.Burndown = stats.MetricIssues
	}
	if q.Completion == "" {
		q.Completion = stats.CompletionDevDone
	}
	if q.Distribution == "" {
		q.Distribution = stats.DistributeIssues
	}

	loc := a.opts.Location
	now := a.now()
	issues := SelectIssues(snap.Issues, q)

	rep := &SprintReport{
		Sprint: SprintInfo{
			ID:     snap.SprintID,
			Name:   snap.SprintName,
			Window: SprintWindow(snap.Details),
		},
		UpdatedAt:    snap.UpdatedAt,
		Stats:        stats.CalculateSprintStats(issues),
		Performance:  stats.CalculatePerformance(issues, stats.PerformanceOptions{IncludeOtherDone: q.IncludeOtherDone}),
		Distribution: stats.DistributeByStatus(issues, q.Distribution),
		TimeByUser:   stats.TimeByUser(issues),
	}

	kept, otherProjects, excluded := stats.PlanCandidates(issues, a.opts.Project)
	rep.Plan = stats.BuildSprintPlan(snap.SprintName, kept, q.TargetPerUser)
	rep.Plan.OtherProjects = otherProjects
	rep.Plan.Excluded = excluded

	if d := snap.Details; d != nil {
		rep.Sprint.State = d.State
		rep.Sprint.Goal = d.Goal
		rep.Sprint.StartDate = stats.FormatDateIn(d.StartDate, loc)
		rep.Sprint.EndDate = stats.FormatDateIn(d.EndDate, loc)

		start, okStart := stats.ParseTimestamp(d.StartDate)
		end, okEnd := stats.ParseTimestamp(d.EndDate)
		if okStart && okEnd {
			b := stats.GenerateBurndown(issues, start.In(loc), end.In(loc), q.Burndown, q.Completion)
			rep.Burndown = &b
			rep.ElapsedDays = stats.ElapsedDays(b, now.In(loc))

			if p, ok := stats.SprintProgress(start, end, now); ok {
				rep.Progress = &p
			}
		}
		if okEnd {
			if days, ok := stats.DaysRemaining(end, now, loc); ok {
				rep.DaysRemaining = &days
			}
		}
	}

	if q.WithIssues {
		rep.Issues = issues
	}

	log.Debug().
		Int("sprint", snap.SprintID).
		Int("issues", len(issues)).
		Str("burndown", string(q.Burndown)).
		Msg("Sprint report built")
	return rep
}

// SprintSummaries lists the stored sprints, newest first.
func (a *Assembler) SprintSummaries(ctx context.Context) ([]snapshot.Snapshot, error) {
	list, err := a.store.ListSprintSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored sprints: %w", err)
	}
	return list, nil
}
