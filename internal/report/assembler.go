package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sprint-mcp/internal/issue"
	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/snapshot"
	"sprint-mcp/internal/stats"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrNoJira is returned by operations that need Jira when no client is configured.
var ErrNoJira = errors.New("jira is not configured")

// ErrNotSynced is returned when a sprint has no snapshot and cannot be fetched live.
var ErrNotSynced = errors.New("sprint has not been synced")

// Options configures an Assembler.
type Options struct {
	Project            string
	Location           *time.Location
	WorklogConcurrency int
	CacheTTL           time.Duration
	// Now overrides the clock, mostly for tests.
	Now                func() time.Time
}

// Assembler turns Jira data and stored snapshots into reports.
type Assembler struct {
	client    jira.Client
	store     snapshot.Store
	processor *issue.Processor
	cache     *Cache
	opts      Options
	now       func() time.Time
}

// NewAssembler wires the report pipeline. client may be nil when only stored
// snapshots are read.
func NewAssembler(client jira.Client, store snapshot.Store, processor *issue.Processor, opts Options) *Assembler {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.WorklogConcurrency <= 0 {
		opts.WorklogConcurrency = 4
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Assembler{
		client:    client,
		store:     store,
		processor: processor,
		cache:     NewCache(opts.CacheTTL),
		opts:      opts,
		now:       now,
	}
}

// Cache exposes the result cache so callers can clear it.
func (a *Assembler) Cache() *Cache { return a.cache }

// Project is the default project key.
func (a *Assembler) Project() string { return a.opts.Project }

// Location is the timezone reports are rendered in.
func (a *Assembler) Location() *time.Location { return a.opts.Location }

// Store returns the snapshot store.
func (a *Assembler) Store() snapshot.Store { return a.store }

// Processor returns the issue processor.
func (a *Assembler) Processor() *issue.Processor { return a.processor }

// Client returns the Jira client, nil when not configured.
func (a *Assembler) Client() jira.Client { return a.client }

// Today is the current calendar date in the configured timezone.
func (a *Assembler) Today() string {
	return a.now().In(a.opts.Location).Format("2006-01-02")
}

// WorklogQuery selects the worklogs of a project over a date range.
type WorklogQuery struct {
	Project string
	From    string
	To      string
	Filter  stats.ReportFilter
	Refresh bool
}

// ClampRange validates a YYYY-MM-DD range: an empty From means today, an
// empty To means From, and dates after today are pulled back to today.
func ClampRange(from, to, today string) (stats.DateRange, error) {
	if from == "" {
		from = today
	}
	if to == "" {
		to = from
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return stats.DateRange{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", d)
		}
	}
	if from > today {
		log.Warn().Str("from", from).Str("today", today).Msg("Start date is in the future, using today")
		from = today
	}
	if to > today {
		log.Warn().Str("to", to).Str("today", today).Msg("End date is in the future, using today")
		to = today
	}
	if from > to {
		return stats.DateRange{}, fmt.Errorf("start date %s is after end date %s", from, to)
	}
	return stats.DateRange{From: from, To: to}, nil
}

var jqlEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// WorklogJQL is the search used to find issues with worklogs in r.
// The project is quoted, so a key from a request cannot extend the query.
func WorklogJQL(project string, r stats.DateRange) string {
	jql := fmt.Sprintf(`project = "%s" AND worklogDate >= "%s"`, jqlEscaper.Replace(project), r.From)
	if r.To != "" {
		jql += fmt.Sprintf(` AND worklogDate <= "%s"`, r.To)
	}
	return jql
}

// WorklogReport aggregates the worklogs logged on a project between q.From and q.To.
func (a *Assembler) WorklogReport(ctx context.Context, q WorklogQuery) (*stats.WorklogReport, error) {
	if a.client == nil {
		return nil, ErrNoJira
	}
	project := q.Project
	if project == "" {
		project = a.opts.Project
	}
	r, err := ClampRange(q.From, q.To, a.Today())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("worklogs:%s:%s:%s", project, r.From, r.To)
	if !q.Refresh {
		if v, ok := a.cache.Get(cacheKey); ok {
			log.Debug().Str("key", cacheKey).Msg("Worklog report served from cache")
			filtered := q.Filter.Apply(v.(stats.WorklogReport))
			return &filtered, nil
		}
	}

	issues, err := a.client.SearchIssues(ctx, WorklogJQL(project, r), []string{"worklog", "summary", "assignee"})
	if err != nil {
		return nil, fmt.Errorf("search issues with worklogs: %w", err)
	}

	entries, err := a.fetchWorklogs(ctx, issues)
	if err != nil {
		return nil, err
	}

	full := stats.Aggregate(entries, r)
	a.cache.Put(cacheKey, full)

	log.Info().
		Str("project", project).
		Str("from", r.From).
		Str("to", r.To).
		Int("issues", len(issues)).
		Float64("hours", full.TotalHours).
		Msg("Worklog report assembled")

	filtered := q.Filter.Apply(full)
	return &filtered, nil
}

// fetchWorklogs loads every worklog of issues with bounded concurrency,
// preserving issue order in the result.
func (a *Assembler) fetchWorklogs(ctx context.Context, issues []jira.IssueDTO) ([]stats.WorklogEntry, error) {
	perIssue := make([][]jira.WorklogDTO, len(issues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.WorklogConcurrency)
	for i, is := range issues {
		g.Go(func() error {
			wl, err := a.client.GetIssueWorklogs(gctx, is.Key)
			if err != nil {
				return fmt.Errorf("worklogs of %s: %w", is.Key, err)
			}
			perIssue[i] = wl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var entries []stats.WorklogEntry
	for i, is := range issues {
		for _, w := range perIssue[i] {
			entries = append(entries, stats.NewWorklogEntry(is.Key, is.Fields.Summary, w))
		}
	}
	return entries, nil
}

// ListSprints returns the sprints of every board of project.
func (a *Assembler) ListSprints(ctx context.Context, project string) ([]jira.SprintDTO, error) {
	if a.client == nil {
		return nil, ErrNoJira
	}
	if project == "" {
		project = a.opts.Project
	}
	sprints, err := a.client.GetSprints(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("list sprints of %s: %w", project, err)
	}
	return sprints, nil
}

// LoadSprint returns the stored snapshot of a sprint. With refresh, or when
// nothing is stored yet, the sprint is synced from Jira first.
func (a *Assembler) LoadSprint(ctx context.Context, sprintID int, refresh bool) (*snapshot.Snapshot, error) {
	if !refresh {
		snap, err := a.store.GetSprintSnapshot(ctx, sprintID)
		if err != nil {
			return nil, err
		}
		if snap != nil {
			return snap, nil
		}
		if a.client == nil {
			return nil, fmt.Errorf("sprint %d: %w", sprintID, ErrNotSynced)
		}
	}

	if _, err := a.SyncSprint(ctx, sprintID); err != nil {
		return nil, err
	}
	snap, err := a.store.GetSprintSnapshot(ctx, sprintID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("sprint %d: %w", sprintID, ErrNotSynced)
	}
	return snap, nil
}
