package stats

import (
	"encoding/json"
	"math"
	"testing"

	"sprint-mcp/internal/jira"
)

func entry(key, author, date string, seconds int64) WorklogEntry {
	return WorklogEntry{IssueKey: key, IssueSummary: "Summary " + key, Author: author, Date: date, Seconds: seconds}
}

func TestAggregate_TwoAuthors(t *testing.T) {
	entries := []WorklogEntry{
		entry("CLD-1", "A", "2024-01-02", 3600),
		entry("CLD-1", "B", "2024-01-02", 1800),
	}

	r := Aggregate(entries, DateRange{From: "2024-01-01", To: "2024-01-03"})

	if r.TotalHours != 1.5 {
		t.Errorf("TotalHours = %v, want 1.5", r.TotalHours)
	}
	if r.ByUser["A"] != 1.0 || r.ByUser["B"] != 0.5 {
		t.Errorf("ByUser = %v, want A:1 B:0.5", r.ByUser)
	}
	if got := r.DailySummary["2024-01-02"]["B"]; got != 0.5 {
		t.Errorf("DailySummary[2024-01-02][B] = %v, want 0.5", got)
	}
	if n := len(r.ByIssue["CLD-1"].Worklogs); n != 2 {
		t.Errorf("expected 2 worklog lines for CLD-1, got %d", n)
	}
}

func TestAggregate_RangeBoundaries(t *testing.T) {
	entries := []WorklogEntry{
		entry("CLD-1", "A", "2023-12-31", 3600),
		entry("CLD-1", "A", "2024-01-01", 3600),
		entry("CLD-2", "A", "2024-01-03", 7200),
		entry("CLD-3", "B", "2024-01-04", 3600),
		entry("CLD-3", "B", "", 3600),
	}

	r := Aggregate(entries, DateRange{From: "2024-01-01", To: "2024-01-03"})

	if r.TotalHours != 3 {
		t.Errorf("TotalHours = %v, want 3", r.TotalHours)
	}
	if _, ok := r.ByUser["B"]; ok {
		t.Errorf("B logged outside the range and should not appear: %v", r.ByUser)
	}
	group, ok := r.ByIssue["CLD-3"]
	if !ok {
		t.Fatal("issues with worklogs keep a ByIssue entry even when nothing falls in range")
	}
	if len(group.Worklogs) != 0 {
		t.Errorf("CLD-3 should have no lines in range, got %d", len(group.Worklogs))
	}
}

func TestAggregate_NoRange(t *testing.T) {
	entries := []WorklogEntry{
		entry("CLD-1", "A", "2023-12-31", 3600),
		entry("CLD-2", "A", "2030-01-01", 3600),
	}
	if r := Aggregate(entries, DateRange{}); r.TotalHours != 2 {
		t.Errorf("TotalHours without range = %v, want 2", r.TotalHours)
	}
}

func TestAggregate_Empty(t *testing.T) {
	r := Aggregate(nil, DateRange{From: "2024-01-01", To: "2024-01-31"})
	if r.TotalHours != 0 || len(r.ByUser) != 0 || len(r.ByIssue) != 0 || len(r.DailySummary) != 0 {
		t.Errorf("expected zeroed report, got %+v", r)
	}
	if r.ByUser == nil || r.ByIssue == nil || r.DailySummary == nil {
		t.Error("maps should be initialized so the JSON shows {} rather than null")
	}
}

func TestAggregate_TotalsAgree(t *testing.T) {
	var entries []WorklogEntry
	authors := []string{"A", "B", "C"}
	for i := 0; i < 60; i++ {
		date := "2024-01-0" + string(rune('1'+i%9))
		entries = append(entries, entry("CLD-"+string(rune('A'+i%5)), authors[i%3], date, int64(600+i*37)))
	}

	r := Aggregate(entries, DateRange{From: "2024-01-02", To: "2024-01-07"})

	var byUser, byIssue, daily float64
	for _, h := range r.ByUser {
		byUser += h
	}
	for _, g := range r.ByIssue {
		for _, l := range g.Worklogs {
			byIssue += l.Hours
		}
	}
	for _, users := range r.DailySummary {
		for _, h := range users {
			daily += h
		}
	}

	const eps = 1e-9
	if math.Abs(byUser-r.TotalHours) > eps || math.Abs(byIssue-r.TotalHours) > eps || math.Abs(daily-r.TotalHours) > eps {
		t.Errorf("totals disagree: total=%v byUser=%v byIssue=%v daily=%v", r.TotalHours, byUser, byIssue, daily)
	}
}

func TestAggregate_SkipsNonPositiveDurations(t *testing.T) {
	r := Aggregate([]WorklogEntry{entry("CLD-1", "A", "2024-01-02", 0), entry("CLD-1", "A", "2024-01-02", -60)}, DateRange{})
	if r.TotalHours != 0 || len(r.ByUser) != 0 {
		t.Errorf("zero or negative durations must not count: %+v", r)
	}
}

func TestNewWorklogEntry(t *testing.T) {
	w := jira.WorklogDTO{
		Author: jira.UserDTO{
			DisplayName: "Lan Pham",
			AvatarURLs:  map[string]string{"24x24": "https://avatar/24", "48x48": "https://avatar/48"},
		},
		Started:          "2024-01-02T23:30:00.000+0700",
		TimeSpentSeconds: 5400,
		Comment:          "fixed login",
	}

	e := NewWorklogEntry("CLD-9", "Login", w)

	if e.Date != "2024-01-02" {
		t.Errorf("Date = %q, want the date as written by Jira", e.Date)
	}
	if e.AvatarURL != "https://avatar/24" {
		t.Errorf("AvatarURL = %q", e.AvatarURL)
	}
	if e.Comment != "fixed login" || e.Author != "Lan Pham" || e.Seconds != 5400 {
		t.Errorf("unexpected entry %+v", e)
	}
	if _, ok := e.EventTime(); !ok {
		t.Error("started timestamp should parse")
	}
}

func TestNormalizeComment(t *testing.T) {
	var doc any
	raw := `{
		"type": "doc",
		"version": 1,
		"content": [
			{"type": "paragraph", "content": [
				{"type": "text", "text": "Fixed "},
				{"type": "text", "text": "login", "marks": [{"type": "strong"}]}
			]},
			{"type": "paragraph", "content": [
				{"type": "mention", "attrs": {"id": "1", "text": "@Lan"}},
				{"type": "text", "text": " please review"}
			]}
		]
	}`
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"Nil", nil, ""},
		{"String", "  plain text ", "plain text"},
		{"Document", doc, "Fixed login\n@Lan please review"},
		{"EmptyDocument", map[string]any{"type": "doc", "content": []any{}}, ""},
		{"TextNode", map[string]any{"type": "text", "text": "hi"}, "hi"},
		{"List", []any{"one", nil, map[string]any{"type": "text", "text": "two"}}, "one\ntwo"},
		{"UnknownMap", map[string]any{"foo": "bar"}, UnreadableComment},
		{"Number", 42.0, UnreadableComment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeComment(tt.in); got != tt.want {
				t.Errorf("NormalizeComment() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReportFilter(t *testing.T) {
	entries := []WorklogEntry{
		entry("CLD-1", "A", "2024-01-02", 3600),
		entry("CLD-1", "B", "2024-01-02", 1800),
		entry("CLD-2", "C", "2024-01-03", 7200),
	}
	r := Aggregate(entries, DateRange{})
	r.ByUser["Idle"] = 0

	tests := []struct {
		name   string
		filter ReportFilter
		users  []string
		total  float64
	}{
		{"NoFilter", ReportFilter{}, []string{"A", "B", "C", "Idle"}, 3.5},
		{"HideInactive", ReportFilter{HideInactive: true}, []string{"A", "B", "C"}, 3.5},
		{"Team", ReportFilter{Members: []string{"A", "C"}}, []string{"A", "C"}, 3},
		{"Hidden", ReportFilter{Hidden: []string{"C"}, HideInactive: true}, []string{"A", "B"}, 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(r)
			if len(got.ByUser) != len(tt.users) {
				t.Fatalf("ByUser = %v, want users %v", got.ByUser, tt.users)
			}
			for _, u := range tt.users {
				if _, ok := got.ByUser[u]; !ok {
					t.Errorf("missing user %s", u)
				}
			}
			if got.TotalHours != tt.total {
				t.Errorf("TotalHours = %v, want %v", got.TotalHours, tt.total)
			}
		})
	}
}

func TestRankUsers(t *testing.T) {
	r := WorklogReport{ByUser: map[string]float64{"B": 2, "A": 2, "C": 5}}
	got := r.RankUsers()
	want := []string{"C", "A", "B"}
	for i, row := range got {
		if row.Author != want[i] {
			t.Errorf("RankUsers()[%d] = %s, want %s", i, row.Author, want[i])
		}
	}
}
