package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"sprint-mcp/internal/config"
	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/report"
	"sprint-mcp/internal/stats"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Handlers struct {
	assembler *report.Assembler
	team      *config.Team
	sched     scheduler
}

func NewHandlers(assembler *report.Assembler, team *config.Team, sched scheduler) *Handlers {
	if team == nil {
		team = config.DefaultTeam()
	}
	return &Handlers{assembler: assembler, team: team, sched: sched}
}

// badRequest marks errors caused by the request itself.
type badRequest struct{ err error }

func (e badRequest) Error() string { return e.err.Error() }
func (e badRequest) Unwrap() error { return e.err }

func invalid(format string, args ...any) error {
	return badRequest{fmt.Errorf(format, args...)}
}

// fail maps an error to a status code: request errors are 400, a sprint that
// was never synced is 404, missing Jira settings 503 and anything from
// upstream 502.
func fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	var br badRequest
	switch {
	case errors.As(err, &br):
		status = http.StatusBadRequest
	case errors.Is(err, report.ErrNotSynced):
		status = http.StatusNotFound
	case errors.Is(err, report.ErrNoJira):
		status = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		log.Warn().Err(err).Str("p", c.FullPath()).Msg("Request failed")
	}
	c.JSON(status, gin.H{"error": err.Error(), "data": nil})
}

func (h *Handlers) members(team string) ([]string, error) {
	members, ok := h.team.Members(team)
	if !ok {
		return nil, invalid("unknown team %q", team)
	}
	return members, nil
}

func sprintID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, invalid("invalid sprint id %q", c.Param("id"))
	}
	return id, nil
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"jira":    h.assembler.Client() != nil,
		"project": h.assembler.Project(),
		"today":   h.assembler.Today(),
	})
}

type worklogParams struct {
	Project      string `form:"project"`
	From         string `form:"from"`
	To           string `form:"to"`
	Team         string `form:"team"`
	HideInactive bool   `form:"hide_inactive"`
	Refresh      bool   `form:"refresh"`
}

func (h *Handlers) Worklogs(c *gin.Context) {
	var p worklogParams
	if err := c.ShouldBindQuery(&p); err != nil {
		fail(c, badRequest{err})
		return
	}
	if _, err := report.ClampRange(p.From, p.To, h.assembler.Today()); err != nil {
		fail(c, badRequest{err})
		return
	}
	members, err := h.members(p.Team)
	if err != nil {
		fail(c, err)
		return
	}

	rep, err := h.assembler.WorklogReport(c.Request.Context(), report.WorklogQuery{
		Project: p.Project,
		From:    p.From,
		To:      p.To,
		Filter:  stats.ReportFilter{Members: members, Hidden: h.team.Inactive, HideInactive: p.HideInactive},
		Refresh: p.Refresh,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": rep, "users": rep.RankUsers()})
}

func (h *Handlers) Teams(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"teams": h.team.Teams, "inactive": h.team.Inactive})
}

func (h *Handlers) Sprints(c *gin.Context) {
	sprints, err := h.assembler.ListSprints(c.Request.Context(), c.Query("project"))
	if err != nil {
		fail(c, err)
		return
	}
	if sprints == nil {
		sprints = []jira.SprintDTO{}
	}
	c.JSON(http.StatusOK, sprints)
}

func (h *Handlers) SyncedSprints(c *gin.Context) {
	list, err := h.assembler.SprintSummaries(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type sprintParams struct {
	Refresh            bool    `form:"refresh"`
	BurndownMetric     string  `form:"burndown_metric" binding:"omitempty,oneof=issues time"`
	CompletionField    string  `form:"completion_field" binding:"omitempty,oneof=dev_done_date test_done_date resolution_date"`
	DistributionMetric string  `form:"distribution_metric" binding:"omitempty,oneof=issues time sprint_time"`
	IncludeOtherDone   bool    `form:"include_other_done"`
	TargetHoursPerUser float64 `form:"target_hours_per_user" binding:"gte=0"`
	DashboardOnly      bool    `form:"dashboard_only"`
	Team               string  `form:"team"`
	IncludeIssues      bool    `form:"include_issues"`
}

func (h *Handlers) SprintReport(c *gin.Context) {
	id, err := sprintID(c)
	if err != nil {
		fail(c, err)
		return
	}
	var p sprintParams
	if err := c.ShouldBindQuery(&p); err != nil {
		fail(c, badRequest{err})
		return
	}
	members, err := h.members(p.Team)
	if err != nil {
		fail(c, err)
		return
	}

	rep, err := h.assembler.SprintReport(c.Request.Context(), report.SprintQuery{
		SprintID:         id,
		Refresh:          p.Refresh,
		Burndown:         stats.BurndownMetric(p.BurndownMetric),
		Completion:       stats.CompletionField(p.CompletionField),
		Distribution:     stats.DistributionMetric(p.DistributionMetric),
		IncludeOtherDone: p.IncludeOtherDone,
		TargetPerUser:    p.TargetHoursPerUser,
		DashboardOnly:    p.DashboardOnly,
		Members:          members,
		Inactive:         h.team.Inactive,
		WithIssues:       p.IncludeIssues,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *Handlers) SprintIssues(c *gin.Context) {
	id, err := sprintID(c)
	if err != nil {
		fail(c, err)
		return
	}
	snap, err := h.assembler.LoadSprint(c.Request.Context(), id, false)
	if err != nil {
		fail(c, err)
		return
	}
	issues := report.SelectIssues(snap.Issues, report.SprintQuery{DashboardOnly: c.Query("dashboard_only") == "true"})
	c.JSON(http.StatusOK, gin.H{"sprint_id": snap.SprintID, "count": len(issues), "issues": issues})
}

func (h *Handlers) SyncSprint(c *gin.Context) {
	id, err := sprintID(c)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := h.assembler.SyncSprint(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type fieldUpdate struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

func (h *Handlers) SetIssueField(c *gin.Context) {
	var req fieldUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, badRequest{err})
		return
	}
	if _, err := report.ResolveFieldID(h.assembler.Processor().Fields(), req.Field); err != nil {
		fail(c, badRequest{err})
		return
	}

	key := c.Param("key")
	fieldID, shape, err := h.assembler.SetIssueField(c.Request.Context(), key, req.Field, req.Value)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issue_key": key, "field_id": fieldID, "payload": shape})
}

func (h *Handlers) ClearCache(c *gin.Context) {
	n := h.assembler.Cache().Len()
	h.assembler.Cache().Clear()
	c.JSON(http.StatusOK, gin.H{"cleared": n})
}

func (h *Handlers) LastRun(c *gin.Context) {
	if h.sched == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync schedule configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"last_run": h.sched.LastRun()})
}

func (h *Handlers) RunNow(c *gin.Context) {
	if h.sched == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no sync schedule configured"})
		return
	}
	go h.sched.RunNow()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
