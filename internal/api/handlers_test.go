package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sprint-mcp/internal/config"
	"sprint-mcp/internal/issue"
	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/jobs"
	"sprint-mcp/internal/report"
	"sprint-mcp/internal/snapshot"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubJira fails every read with err and accepts the second field shape.
type stubJira struct {
	err     error
	updates []any
}

func (s *stubJira) SearchIssues(context.Context, string, []string) ([]jira.IssueDTO, error) {
	return nil, s.err
}
func (s *stubJira) GetIssueWorklogs(context.Context, string) ([]jira.WorklogDTO, error) {
	return nil, s.err
}
func (s *stubJira) GetIssueChangelog(context.Context, string) ([]jira.HistoryDTO, error) {
	return nil, s.err
}
func (s *stubJira) GetSprints(context.Context, string) ([]jira.SprintDTO, error) {
	return nil, s.err
}
func (s *stubJira) GetSprint(context.Context, int) (*jira.SprintDTO, error) {
	return nil, s.err
}
func (s *stubJira) GetSprintIssues(context.Context, int, []string) ([]jira.IssueDTO, error) {
	return nil, s.err
}
func (s *stubJira) UpdateIssueField(_ context.Context, _ string, _ string, value any) error {
	s.updates = append(s.updates, value)
	if len(s.updates) < 2 {
		return errors.New("400 bad shape")
	}
	return nil
}

type stubScheduler struct {
	last *jobs.LastRun
	runs chan struct{}
}

func (s *stubScheduler) LastRun() *jobs.LastRun { return s.last }
func (s *stubScheduler) RunNow()                { s.runs <- struct{}{} }

func newTestRouter(t *testing.T, client jira.Client, sched scheduler) (http.Handler, *report.Assembler) {
	t.Helper()
	ctx := context.Background()

	store, err := snapshot.NewSQLiteStore(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.SaveSprintSnapshot(ctx, 42, "Sprint 7", []jira.Issue{
		{Key: "CLD-1", Status: "In Progress", Assignee: "Mai", ShowInDashboardFinal: true, OriginalEstimate: 8},
		{Key: "CLD-2", Status: "Done", Assignee: "Lan", OriginalEstimate: 4},
	}, &jira.SprintDTO{ID: 42, Name: "Sprint 7", State: "active", StartDate: "2024-05-06T01:00:00.000Z", EndDate: "2024-05-17T10:00:00.000Z"}))

	a := report.NewAssembler(client, store, issue.NewProcessor(issue.Options{}), report.Options{
		Project:  "CLD",
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) },
	})
	team := config.DefaultTeam()
	team.Teams = map[string][]string{"Backend": {"Mai"}}
	return NewRouter(a, team, sched, false), a
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	h, _ := newTestRouter(t, nil, nil)
	w := do(h, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, false, body["jira"])
	assert.Equal(t, "2024-05-10", body["today"])
}

func TestSprintReportRoute(t *testing.T) {
	h, _ := newTestRouter(t, nil, nil)

	w := do(h, http.MethodGet, "/sprints/42/report?team=Backend&include_issues=true", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rep report.SprintReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, "Sprint 7", rep.Sprint.Name)
	assert.Equal(t, 1, rep.Stats.TotalIssues)
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, "CLD-1", rep.Issues[0].Key)

	tests := []struct {
		target string
		want   int
	}{
		{"/sprints/abc/report", http.StatusBadRequest},
		{"/sprints/42/report?burndown_metric=points", http.StatusBadRequest},
		{"/sprints/42/report?completion_field=closed", http.StatusBadRequest},
		{"/sprints/42/report?target_hours_per_user=-1", http.StatusBadRequest},
		{"/sprints/42/report?team=Nobody", http.StatusBadRequest},
		{"/sprints/99/report", http.StatusNotFound},
		{"/sprints/42/report?burndown_metric=time&distribution_metric=sprint_time", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			if w := do(h, http.MethodGet, tt.target, ""); w.Code != tt.want {
				t.Errorf("GET %s = %d, want %d (%s)", tt.target, w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestSprintIssuesAndSyncedRoutes(t *testing.T) {
	h, _ := newTestRouter(t, nil, nil)

	w := do(h, http.MethodGet, "/sprints/42/issues?dashboard_only=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = do(h, http.MethodGet, "/sprints/synced", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []snapshot.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "sprint_42", list[0].ID)
}

func TestWorklogsRoute(t *testing.T) {
	h, _ := newTestRouter(t, nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/worklogs", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/worklogs?from=10/05/2024", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/worklogs?from=2024-05-09&to=2024-05-01", "").Code)

	down, _ := newTestRouter(t, &stubJira{err: errors.New("connection refused")}, nil)
	w := do(down, http.MethodGet, "/worklogs?from=2024-05-01", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = do(down, http.MethodPost, "/sprints/42/sync", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestSetIssueFieldRoute(t *testing.T) {
	stub := &stubJira{}
	h, a := newTestRouter(t, stub, nil)
	a.Cache().Put("worklogs:CLD:2024-05-01:2024-05-01", 1)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/issues/CLD-1/fields", `{"value":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/issues/CLD-1/fields", `{"field":"colour","value":"x"}`).Code)
	assert.Empty(t, stub.updates)

	w := do(h, http.MethodPost, "/issues/CLD-1/fields", `{"field":"customer","value":"ACME"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"field_id":"customfield_10092"`)
	assert.Contains(t, w.Body.String(), `"payload":{"value":"ACME"}`)
	assert.Len(t, stub.updates, 2)
	assert.Equal(t, 0, a.Cache().Len())
}

func TestCacheAndAdminRoutes(t *testing.T) {
	h, a := newTestRouter(t, nil, nil)
	a.Cache().Put("k", 1)
	w := do(h, http.MethodPost, "/cache/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"cleared":1}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/admin/last-run", "").Code)

	sched := &stubScheduler{last: &jobs.LastRun{Error: "jira down"}, runs: make(chan struct{}, 1)}
	h, _ = newTestRouter(t, nil, sched)
	w = do(h, http.MethodGet, "/admin/last-run", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jira down")

	w = do(h, http.MethodPost, "/admin/run", "")
	assert.Equal(t, http.StatusAccepted, w.Code)
	select {
	case <-sched.runs:
	case <-time.After(time.Second):
		t.Error("RunNow was not triggered")
	}
}

func TestCORS(t *testing.T) {
	h, _ := newTestRouter(t, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "http://dashboard.local")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
