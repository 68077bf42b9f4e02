package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sprint-mcp/internal/report"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type syncer interface {
	SyncProject(ctx context.Context, project string, includeClosed bool) ([]report.SyncResult, error)
}

// LastRun records the outcome of the most recent scheduled sync.
type LastRun struct {
	StartedAt time.Time           `json:"started_at"`
	Duration  time.Duration       `json:"duration_ns"`
	Sprints   []report.SyncResult `json:"sprints"`
	Error     string              `json:"error,omitempty"`
}

// Cron syncs the active sprints of a project on a schedule.
type Cron struct {
	svc     syncer
	project string
	timeout time.Duration
	c       *cron.Cron

	running sync.Mutex
	mu      sync.RWMutex
	last    *LastRun
}

// NewCron parses spec as a five-field cron expression evaluated in loc.
func NewCron(spec string, loc *time.Location, svc syncer, project string) (*Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(cron.WithLocation(loc), cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)))
	cr := &Cron{svc: svc, project: project, timeout: 15 * time.Minute, c: c}
	if _, err := c.AddFunc(spec, cr.sync); err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
	}
	return cr, nil
}

func (cr *Cron) Start() {
	cr.c.Start()
	for _, e := range cr.c.Entries() {
		log.Info().Time("next", e.Next).Str("project", cr.project).Msg("cron: sync scheduled")
	}
}

// Stop halts the scheduler and waits for a running sync to finish.
func (cr *Cron) Stop() {
	<-cr.c.Stop().Done()
}

// RunNow performs a sync immediately, outside the schedule.
func (cr *Cron) RunNow() { cr.sync() }

// LastRun returns the last recorded run, nil before the first one.
func (cr *Cron) LastRun() *LastRun {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.last
}

func (cr *Cron) sync() {
	if !cr.running.TryLock() {
		log.Info().Msg("cron: sync already running")
		return
	}
	defer cr.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cr.timeout)
	defer cancel()

	run := &LastRun{StartedAt: time.Now()}
	log.Info().Str("project", cr.project).Msg("cron: syncing active sprints")
	results, err := cr.svc.SyncProject(ctx, cr.project, false)
	run.Sprints = results
	run.Duration = time.Since(run.StartedAt)
	if err != nil {
		run.Error = err.Error()
		log.Error().Err(err).Msg("cron: sync failed")
	} else {
		log.Info().Int("sprints", len(results)).Dur("took", run.Duration).Msg("cron: sync done")
	}

	cr.mu.Lock()
	cr.last = run
	cr.mu.Unlock()
}
