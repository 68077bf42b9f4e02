package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewCloudClient(Config{BaseURL: srv.URL + "/", Email: "bot@example.com", APIToken: "secret"})
}

func TestSearchIssues_Paginates(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/rest/api/3/search" {
			t.Errorf("path = %q, want /rest/api/3/search", r.URL.Path)
		}
		if got := r.URL.Query().Get("fields"); got != "summary,worklog" {
			t.Errorf("fields = %q, want summary,worklog", got)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "bot@example.com" || pass != "secret" {
			t.Errorf("basic auth = %q/%q (%v)", user, pass, ok)
		}

		startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
		var issues []map[string]any
		for i := startAt; i < startAt+pageSize && i < 150; i++ {
			issues = append(issues, map[string]any{"key": fmt.Sprintf("CLD-%d", i)})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"total": 150, "issues": issues})
	})

	got, err := c.SearchIssues(context.Background(), "project = CLD", []string{"summary", "worklog"})
	if err != nil {
		t.Fatalf("SearchIssues() error = %v", err)
	}
	if len(got) != 150 {
		t.Errorf("len(issues) = %d, want 150", len(got))
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		status int
		header string
		want   string
	}{
		{http.StatusUnauthorized, "", "authentication failed"},
		{http.StatusForbidden, "", "authentication failed"},
		{http.StatusNotFound, "", "sprint 7 not found"},
		{http.StatusTooManyRequests, "30", "Retry after 30 seconds"},
		{http.StatusBadGateway, "", "status 502"},
	}

	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if tt.header != "" {
					w.Header().Set("Retry-After", tt.header)
				}
				w.WriteHeader(tt.status)
			})
			_, err := c.GetSprint(context.Background(), 7)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("GetSprint() error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestBearerTokenWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer pat" {
			t.Errorf("Authorization = %q, want Bearer pat", got)
		}
		_ = json.NewEncoder(w).Encode(SprintDTO{ID: 3, Name: "CLD Sprint 3"})
	}))
	defer srv.Close()

	c := NewCloudClient(Config{BaseURL: srv.URL, Email: "x", APIToken: "y", Token: "pat"})
	s, err := c.GetSprint(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetSprint() error = %v", err)
	}
	if s.Name != "CLD Sprint 3" {
		t.Errorf("Name = %q, want CLD Sprint 3", s.Name)
	}
}

func TestGetSprints_DedupesAcrossBoards(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/agile/1.0/board":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"isLast": true,
				"values": []BoardDTO{{ID: 1, Name: "Scrum"}, {ID: 2, Name: "Kanban"}, {ID: 3, Name: "Shared"}},
			})
		case "/rest/agile/1.0/board/1/sprint":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"isLast": true,
				"values": []SprintDTO{{ID: 10, Name: "S10"}, {ID: 11, Name: "S11"}},
			})
		case "/rest/agile/1.0/board/2/sprint":
			w.WriteHeader(http.StatusBadRequest)
		case "/rest/agile/1.0/board/3/sprint":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"isLast": true,
				"values": []SprintDTO{{ID: 11, Name: "S11"}, {ID: 12, Name: "S12"}},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	sprints, err := c.GetSprints(context.Background(), "CLD")
	if err != nil {
		t.Fatalf("GetSprints() error = %v", err)
	}
	var ids []int
	for _, s := range sprints {
		ids = append(ids, s.ID)
	}
	if fmt.Sprint(ids) != "[10 11 12]" {
		t.Errorf("sprint ids = %v, want [10 11 12]", ids)
	}
}

func TestSprintReadsAreNotCached(t *testing.T) {
	var boardCalls, sprintListCalls, sprintCalls atomic.Int32
	var state atomic.Value
	state.Store("active")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/agile/1.0/board":
			boardCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"isLast": true, "values": []BoardDTO{{ID: 1}}})
		case "/rest/agile/1.0/board/1/sprint":
			sprintListCalls.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]any{"isLast": true, "values": []SprintDTO{{ID: 10, State: state.Load().(string)}}})
		case "/rest/agile/1.0/sprint/10":
			sprintCalls.Add(1)
			_ = json.NewEncoder(w).Encode(SprintDTO{ID: 10, State: state.Load().(string)})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	if _, err := c.GetSprints(ctx, "CLD"); err != nil {
		t.Fatalf("GetSprints() error = %v", err)
	}
	if _, err := c.GetSprint(ctx, 10); err != nil {
		t.Fatalf("GetSprint() error = %v", err)
	}
	state.Store("closed")

	sprints, err := c.GetSprints(ctx, "CLD")
	if err != nil || len(sprints) != 1 || sprints[0].State != "closed" {
		t.Errorf("GetSprints() = %v, %v; want the closed sprint", sprints, err)
	}
	s, err := c.GetSprint(ctx, 10)
	if err != nil || s.State != "closed" {
		t.Errorf("GetSprint() = %v, %v; want state closed", s, err)
	}

	if boardCalls.Load() != 1 || sprintListCalls.Load() != 2 || sprintCalls.Load() != 2 {
		t.Errorf("calls boards=%d sprint lists=%d sprint=%d, want 1/2/2",
			boardCalls.Load(), sprintListCalls.Load(), sprintCalls.Load())
	}
}

func TestFieldsDTO_CustomFields(t *testing.T) {
	raw := `{
		"summary": "Login page",
		"issuetype": {"name": "Task", "subtask": false},
		"timeoriginalestimate": 7200,
		"customfield_10160": {"value": "YES"},
		"customfield_10031": [{"displayName": "Lan"}, {"displayName": "Minh"}],
		"customfield_10016": 3
	}`

	var f FieldsDTO
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if f.Summary != "Login page" {
		t.Errorf("Summary = %q", f.Summary)
	}
	if f.TimeOriginalEstimate == nil || *f.TimeOriginalEstimate != 7200 {
		t.Errorf("TimeOriginalEstimate = %v, want 7200", f.TimeOriginalEstimate)
	}
	if len(f.Custom) != 3 {
		t.Fatalf("len(Custom) = %d, want 3", len(f.Custom))
	}
	if opt, ok := f.Custom["customfield_10160"].(map[string]any); !ok || opt["value"] != "YES" {
		t.Errorf("customfield_10160 = %v", f.Custom["customfield_10160"])
	}

	out, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), `"customfield_10016":3`) {
		t.Errorf("Marshal() lost custom fields: %s", out)
	}
}

type recordingClient struct {
	Client
	accept int
	shapes []any
}

func (r *recordingClient) UpdateIssueField(ctx context.Context, key, fieldID string, value any) error {
	r.shapes = append(r.shapes, value)
	if len(r.shapes)-1 == r.accept {
		return nil
	}
	return fmt.Errorf("400 bad shape")
}

func TestSetField_FallsBackThroughShapes(t *testing.T) {
	rc := &recordingClient{accept: 1}
	shape, err := SetField(context.Background(), rc, "CLD-388", "customfield_10160", "YES")
	if err != nil {
		t.Fatalf("SetField() error = %v", err)
	}
	if m, ok := shape.(map[string]any); !ok || m["value"] != "YES" {
		t.Errorf("accepted shape = %v, want option object", shape)
	}
	if len(rc.shapes) != 2 {
		t.Errorf("attempts = %d, want 2", len(rc.shapes))
	}

	rc = &recordingClient{accept: 99}
	if _, err := SetField(context.Background(), rc, "CLD-388", "customfield_10160", "YES"); err == nil {
		t.Error("SetField() should fail when every shape is rejected")
	}
	if len(rc.shapes) != 3 {
		t.Errorf("attempts = %d, want 3", len(rc.shapes))
	}
}

func TestBrowseURL(t *testing.T) {
	if got := BrowseURL("https://acme.atlassian.net/", "CLD-1"); got != "https://acme.atlassian.net/browse/CLD-1" {
		t.Errorf("BrowseURL() = %q", got)
	}
}
