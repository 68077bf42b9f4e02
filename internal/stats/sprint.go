package stats

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"sprint-mcp/internal/jira"
)

// UnassignedBucket groups sprint issues nobody is assigned to.
const UnassignedBucket = "Chưa gán"

// UnknownStatusBucket groups issues with a missing status in SprintStats.
const UnknownStatusBucket = "Unknown"

// AssigneeHours holds the per-assignee sums of a sprint.
type AssigneeHours struct {
	Issues         int     `json:"issues"`
	HoursOriginal  float64 `json:"hours_original"`
	HoursRemaining float64 `json:"hours_remaining"`
	HoursSpent     float64 `json:"hours_spent"`
}

// SprintStats summarizes the issues of a sprint.
type SprintStats struct {
	TotalIssues         int                       `json:"total_issues"`
	ByStatus            map[string]int            `json:"by_status"`
	ByAssignee          map[string]*AssigneeHours `json:"by_assignee"`
	TotalHoursOriginal  float64                   `json:"total_hours_original"`
	TotalHoursRemaining float64                   `json:"total_hours_remaining"`
	TotalHoursSpent     float64                   `json:"total_hours_spent"`
}

// CalculateSprintStats counts issues by status and sums hours by assignee.
func CalculateSprintStats(issues []jira.Issue) SprintStats {
	s := SprintStats{
		TotalIssues: len(issues),
		ByStatus:    make(map[string]int),
		ByAssignee:  make(map[string]*AssigneeHours),
	}

	for _, issue := range issues {
		status := strings.TrimSpace(issue.Status)
		if status == "" {
			status = UnknownStatusBucket
		}
		s.ByStatus[status]++

		assignee := issue.Assignee
		if assignee == "" || assignee == "Unassigned" {
			assignee = UnassignedBucket
		}
		a, ok := s.ByAssignee[assignee]
		if !ok {
			a = &AssigneeHours{}
			s.ByAssignee[assignee] = a
		}

		original, remaining := PlannedHours(issue)
		a.Issues++
		a.HoursOriginal += original
		a.HoursRemaining += remaining
		a.HoursSpent += issue.TimeSpent

		s.TotalHoursOriginal += original
		s.TotalHoursRemaining += remaining
		s.TotalHoursSpent += issue.TimeSpent
	}

	return s
}

// PlannedHours returns the planning estimate of an issue and the part of it
// still to be done. Story points count one hour each when no time estimate
// exists; remaining falls back to the estimate while nothing was logged.
func PlannedHours(issue jira.Issue) (original, remaining float64) {
	original = issue.OriginalEstimate
	if original <= 0 {
		original = issue.StoryPoints
	}

	remaining = issue.RemainingEstimate
	if remaining <= 0 && original > 0 && issue.TimeSpent == 0 {
		remaining = original
	}
	return original, remaining
}

// Capacity is the working-time budget implied by a sprint name.
type Capacity struct {
	SprintNumber int `json:"sprint_number,omitempty"`
	WorkDays     int `json:"work_days"`
	HoursPerDay  int `json:"hours_per_day"`
}

// PerPerson is the target hours of one team member.
func (c Capacity) PerPerson() float64 {
	return float64(c.WorkDays * c.HoursPerDay)
}

var sprintNumberRe = regexp.MustCompile(`\d+`)

// CapacityFromSprintName reads the first number in the sprint name.
// Even sprints have 5 work days and odd sprints 6; without a number 5 is assumed.
func CapacityFromSprintName(name string) Capacity {
	c := Capacity{WorkDays: 5, HoursPerDay: 8}
	m := sprintNumberRe.FindString(name)
	if m == "" {
		return c
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return c
	}
	c.SprintNumber = n
	if n%2 != 0 {
		c.WorkDays = 6
	}
	return c
}

// AssigneePlan compares one assignee's planned hours with the target.
type AssigneePlan struct {
	Assignee       string  `json:"assignee"`
	Issues         int     `json:"issues"`
	HoursOriginal  float64 `json:"hours_original"`
	HoursSpent     float64 `json:"hours_spent"`
	HoursRemaining float64 `json:"hours_remaining"`
	FreeHours      float64 `json:"free_hours"`
	TargetPercent  float64 `json:"target_percent"`
}

// SprintPlan is the capacity view of a sprint.
type SprintPlan struct {
	Capacity      Capacity       `json:"capacity"`
	TargetPerUser float64        `json:"target_per_user"`
	TeamTarget    float64        `json:"team_target"`
	Stats         SprintStats    `json:"stats"`
	Assignees     []AssigneePlan `json:"assignees"`
	Excluded      int            `json:"excluded"`
	OtherProjects int            `json:"other_projects"`
}

// PlanCandidates keeps the issues of projectKey that still need work:
// epics, parents with subtasks and finished issues are dropped.
func PlanCandidates(issues []jira.Issue, projectKey string) (kept []jira.Issue, otherProjects, excluded int) {
	for _, issue := range issues {
		if projectKey != "" && !EqualFold(ExtractProjectKey(issue.Key), projectKey) {
			otherProjects++
			continue
		}
		if issue.IsEpic || issue.HasSubtasks || matchesAny(issue.CurrentStatus, planFinishedStatuses) {
			excluded++
			continue
		}
		kept = append(kept, issue)
	}
	return kept, otherProjects, excluded
}

var planFinishedStatuses = []string{"Dev Done", "Test Done", "Deployed", "Done"}

// BuildSprintPlan computes the per-assignee free hours against targetPerUser.
// A non-positive targetPerUser uses the capacity derived from the sprint name.
func BuildSprintPlan(sprintName string, issues []jira.Issue, targetPerUser float64) SprintPlan {
	capacity := CapacityFromSprintName(sprintName)
	if targetPerUser <= 0 {
		targetPerUser = capacity.PerPerson()
	}

	st := CalculateSprintStats(issues)
	plan := SprintPlan{
		Capacity:      capacity,
		TargetPerUser: targetPerUser,
		TeamTarget:    capacity.PerPerson() * float64(len(st.ByAssignee)),
		Stats:         st,
	}

	for name, a := range st.ByAssignee {
		plan.Assignees = append(plan.Assignees, AssigneePlan{
			Assignee:       name,
			Issues:         a.Issues,
			HoursOriginal:  a.HoursOriginal,
			HoursSpent:     a.HoursSpent,
			HoursRemaining: a.HoursRemaining,
			FreeHours:      targetPerUser - a.HoursRemaining,
			TargetPercent:  SafeDiv(a.HoursRemaining, targetPerUser) * 100,
		})
	}
	sort.Slice(plan.Assignees, func(i, j int) bool {
		if plan.Assignees[i].Issues != plan.Assignees[j].Issues {
			return plan.Assignees[i].Issues > plan.Assignees[j].Issues
		}
		return plan.Assignees[i].Assignee < plan.Assignees[j].Assignee
	})
	return plan
}
