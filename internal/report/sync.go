package report

import (
	"context"
	"fmt"
	"time"

	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/stats"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// baseIssueFields are requested for every synced sprint issue in addition to
// the configured custom fields.
var baseIssueFields = []string{
	"summary", "status", "assignee", "issuetype", "priority", "created", "updated",
	"subtasks", "parent", "duedate", "resolutiondate",
	"timeoriginalestimate", "timeestimate", "timespent",
	"worklog", "comment", "development",
}

// SyncFields is the field list requested when syncing a sprint.
func SyncFields(custom []string) []string {
	fields := make([]string, 0, len(baseIssueFields)+len(custom))
	fields = append(fields, baseIssueFields...)
	return append(fields, custom...)
}

// SyncResult summarises one sprint sync.
type SyncResult struct {
	RunID      string        `json:"run_id"`
	SprintID   int           `json:"sprint_id"`
	SprintName string        `json:"sprint_name"`
	Issues     int           `json:"issues"`
	Skipped    int           `json:"skipped"`
	Window     stats.Window  `json:"window"`
	Duration   time.Duration `json:"duration_ns"`
}

// SprintWindow is the filtering window of a sprint, disabled when a date is missing.
func SprintWindow(s *jira.SprintDTO) stats.Window {
	if s == nil {
		return stats.Window{}
	}
	start, okStart := stats.ParseTimestamp(s.StartDate)
	end, okEnd := stats.ParseTimestamp(s.EndDate)
	if !okStart || !okEnd {
		return stats.Window{}
	}
	return stats.NewSprintWindow(start, end)
}

// SyncSprint fetches a sprint and its issues, processes every issue against
// the sprint window and replaces the stored snapshot.
func (a *Assembler) SyncSprint(ctx context.Context, sprintID int) (*SyncResult, error) {
	if a.client == nil {
		return nil, ErrNoJira
	}
	started := a.now()
	runID := uuid.New().String()
	logger := log.With().Str("run", runID).Int("sprint", sprintID).Logger()

	info, err := a.client.GetSprint(ctx, sprintID)
	if err != nil {
		return nil, fmt.Errorf("sprint %d: %w", sprintID, err)
	}
	name := info.Name
	if name == "" {
		name = fmt.Sprintf("Sprint %d", sprintID)
	}
	window := SprintWindow(info)
	if !window.Enabled() {
		logger.Warn().Msg("Sprint has no start or end date, values will not be scoped to the sprint")
	}

	raw, err := a.client.GetSprintIssues(ctx, sprintID, SyncFields(a.processor.Fields().List()))
	if err != nil {
		return nil, fmt.Errorf("issues of sprint %d: %w", sprintID, err)
	}

	// issues we cannot read come back without a key or fields
	valid := raw[:0:0]
	skipped := 0
	for _, is := range raw {
		if is.Key == "" {
			skipped++
			continue
		}
		valid = append(valid, is)
	}
	if skipped > 0 {
		logger.Warn().Int("skipped", skipped).Msg("Skipping issues without access")
	}

	if err := a.completeIssues(ctx, valid); err != nil {
		return nil, err
	}

	processed := make([]jira.Issue, 0, len(valid))
	for _, is := range valid {
		processed = append(processed, a.processor.Process(is, nil, window))
	}

	if err := a.store.SaveSprintSnapshot(ctx, sprintID, name, processed, info); err != nil {
		return nil, fmt.Errorf("save sprint %d: %w", sprintID, err)
	}
	a.cache.Clear()

	res := &SyncResult{
		RunID:      runID,
		SprintID:   sprintID,
		SprintName: name,
		Issues:     len(processed),
		Skipped:    skipped,
		Window:     window,
		Duration:   a.now().Sub(started),
	}
	logger.Info().Str("name", name).Int("issues", res.Issues).Dur("took", res.Duration).Msg("Sprint synced")
	return res, nil
}

// completeIssues replaces truncated embedded worklogs and changelogs with
// the full lists, fetching at most WorklogConcurrency issues at a time.
func (a *Assembler) completeIssues(ctx context.Context, issues []jira.IssueDTO) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.WorklogConcurrency)

	for i := range issues {
		is := &issues[i]
		if wl := is.Fields.Worklog; wl != nil && wl.Total > len(wl.Worklogs) {
			g.Go(func() error {
				all, err := a.client.GetIssueWorklogs(gctx, is.Key)
				if err != nil {
					return fmt.Errorf("worklogs of %s: %w", is.Key, err)
				}
				is.Fields.Worklog = &jira.WorklogPage{Total: len(all), MaxResults: len(all), Worklogs: all}
				return nil
			})
		}
		if cl := is.Changelog; cl != nil && cl.Total > len(cl.Histories) {
			g.Go(func() error {
				all, err := a.client.GetIssueChangelog(gctx, is.Key)
				if err != nil {
					return fmt.Errorf("changelog of %s: %w", is.Key, err)
				}
				is.Changelog = &jira.ChangelogDTO{Total: len(all), MaxResults: len(all), Histories: all}
				return nil
			})
		}
	}
	return g.Wait()
}

// SyncProject syncs every sprint of project that is active or, with
// includeClosed, already closed. Future sprints are skipped.
func (a *Assembler) SyncProject(ctx context.Context, project string, includeClosed bool) ([]SyncResult, error) {
	sprints, err := a.ListSprints(ctx, project)
	if err != nil {
		return nil, err
	}

	var results []SyncResult
	for _, s := range sprints {
		switch s.State {
		case "active":
		case "closed":
			if !includeClosed {
				continue
			}
		default:
			continue
		}
		res, err := a.SyncSprint(ctx, s.ID)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}
