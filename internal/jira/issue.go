package jira

// DashboardFlag is the tri-state "show in dashboard" custom field.
type DashboardFlag string

const (
	DashboardYes   DashboardFlag = "yes"
	DashboardNo    DashboardFlag = "no"
	DashboardUnset DashboardFlag = "unset"
)

// Issue is a post-processed issue as stored in sprint snapshots and consumed
// by the report calculators. Hour fields are normalized from seconds.
type Issue struct {
	Key           string `json:"key"`
	Summary       string `json:"summary"`
	IssueType     string `json:"issue_type"`
	Status        string `json:"status"`         // status resolved within the sprint window
	CurrentStatus string `json:"current_status"` // status at fetch time
	Priority      string `json:"priority"`
	Assignee      string `json:"assignee"`
	AssigneeID    string `json:"assignee_id,omitempty"`
	DevGroup      string `json:"dev_group"`
	Tester        string `json:"tester"`
	Customer      string `json:"customer"`
	Feature       string `json:"feature"`
	URL           string `json:"url"`

	IsEpic      bool   `json:"is_epic"`
	IsSubtask   bool   `json:"is_subtask"`
	HasSubtasks bool   `json:"has_subtasks"`
	ParentKey   string `json:"parent_key,omitempty"`

	ShowInDashboard      DashboardFlag `json:"show_in_dashboard"`
	IsPopup              bool          `json:"is_popup"`
	ShowInDashboardFinal bool          `json:"show_in_dashboard_final"`

	OriginalEstimate  float64 `json:"time_estimate"`
	RemainingEstimate float64 `json:"remaining_time"`
	TimeSpent         float64 `json:"time_spent"`
	SprintTimeSpent   float64 `json:"sprint_time_spent"`
	SteveEstimate     float64 `json:"steve_estimate"`
	StoryPoints       float64 `json:"story_points"`

	OriginalEstimateDisplay string `json:"time_estimate_display"`
	TimeSpentDisplay        string `json:"time_spent_display"`
	SprintTimeSpentDisplay  string `json:"sprint_time_spent_display"`
	SteveEstimateDisplay    string `json:"steve_estimate_display"`

	Created        string `json:"created"`
	Updated        string `json:"updated"`
	DueDate        string `json:"due_date"`
	ResolutionDate string `json:"resolution_date"`
	DevDoneDate    string `json:"dev_done_date"`
	TestDoneDate   string `json:"test_done_date"`

	Commits []string `json:"commits"`
}
