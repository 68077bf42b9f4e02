package stats

import (
	"testing"
	"time"

	"sprint-mcp/internal/jira"
)

func TestOrderStatuses(t *testing.T) {
	got := OrderStatuses([]string{"Done", "Blocked", "To Do", "Archived", "Dev Done"})
	want := []string{"To Do", "Dev Done", "Done", "Archived", "Blocked"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("OrderStatuses() = %v, want %v", got, want)
		}
	}
}

func TestDistributeByStatus(t *testing.T) {
	issues := []jira.Issue{
		{Assignee: "A", Status: "Done", OriginalEstimate: 3, SprintTimeSpent: 2},
		{Assignee: "A", Status: "To Do", OriginalEstimate: 5},
		{Assignee: "B", Status: "Done", OriginalEstimate: 1, SprintTimeSpent: 4},
		{Assignee: "B", Status: "null"},
	}

	tests := []struct {
		metric DistributionMetric
		done   float64
	}{
		{DistributeIssues, 2},
		{DistributeEstimate, 4},
		{DistributeSprintTime, 6},
	}
	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			d := DistributeByStatus(issues, tt.metric)
			if d.Statuses[0] != "To Do" || d.Statuses[len(d.Statuses)-1] != UnknownStatus {
				t.Errorf("Statuses = %v", d.Statuses)
			}
			var done float64
			for _, v := range d.Totals {
				if v.Status == "Done" {
					done = v.Value
				}
			}
			if done != tt.done {
				t.Errorf("Done total = %v, want %v", done, tt.done)
			}
			if len(d.ByAssignee["B"]) != 2 {
				t.Errorf("B row = %v", d.ByAssignee["B"])
			}
		})
	}
}

func TestTimeByUser(t *testing.T) {
	issues := []jira.Issue{
		{Key: "CLD-1", Assignee: "A", SprintTimeSpent: 2, ShowInDashboard: jira.DashboardYes},
		{Key: "CLD-2", Assignee: "A", SprintTimeSpent: 1, ShowInDashboard: jira.DashboardYes, IsPopup: true},
		{Key: "CLD-3", Assignee: "A", SprintTimeSpent: 1, ShowInDashboard: jira.DashboardUnset},
		{Key: "CLD-4", Assignee: "B", SprintTimeSpent: 0, ShowInDashboard: jira.DashboardYes},
		{Key: "CLD-5", Assignee: NoAssignee, SprintTimeSpent: 3},
	}

	got := TimeByUser(issues)
	if len(got) != 1 {
		t.Fatalf("expected only A, got %+v", got)
	}
	a := got[0]
	if a.Development != 2 || a.Popup != 1 || a.NonDev != 1 || a.Total != 4 {
		t.Errorf("A = %+v", a)
	}
	if a.Percent(a.Development) != 50 {
		t.Errorf("development share = %v, want 50", a.Percent(a.Development))
	}
}

func TestSprintProgress(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"Before", start.Add(-time.Hour), 0},
		{"Middle", time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), 50},
		{"After", end.Add(time.Hour), 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SprintProgress(start, end, tt.now)
			if !ok || got != tt.want {
				t.Errorf("SprintProgress() = %v, %v; want %v", got, ok, tt.want)
			}
		})
	}

	if _, ok := SprintProgress(time.Time{}, end, start); ok {
		t.Error("missing start should report ok=false")
	}
}

func TestDaysRemaining(t *testing.T) {
	loc := time.FixedZone("ICT", 7*3600)
	end := time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC) // Jan 11 00:00 in ICT

	got, ok := DaysRemaining(end, time.Date(2024, 1, 8, 20, 0, 0, 0, time.UTC), loc)
	if !ok || got != 2 {
		t.Errorf("DaysRemaining() = %d, want 2", got)
	}
	if got, _ := DaysRemaining(end, end.AddDate(0, 0, 5), loc); got != 0 {
		t.Errorf("finished sprint should have 0 days left, got %d", got)
	}
}
