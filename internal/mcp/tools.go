package mcp

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// WorklogReportArgs are the arguments of get_worklog_report.
type WorklogReportArgs struct {
	Project      string `json:"project,omitempty" jsonschema:"Jira project key. Defaults to the configured project."`
	From         string `json:"from,omitempty" jsonschema:"First day (YYYY-MM-DD). Defaults to today."`
	To           string `json:"to,omitempty" jsonschema:"Last day (YYYY-MM-DD). Defaults to from."`
	Team         string `json:"team,omitempty" jsonschema:"Named team from the roster. Empty or 'All Teams' keeps everyone."`
	HideInactive bool   `json:"hide_inactive,omitempty" jsonschema:"Drop people with no logged hours."`
	Refresh      bool   `json:"refresh,omitempty" jsonschema:"Bypass the session cache and query Jira again."`
}

// ListSprintsArgs are the arguments of list_sprints.
type ListSprintsArgs struct {
	Project string `json:"project,omitempty" jsonschema:"Jira project key. Defaults to the configured project."`
}

// SprintArgs identify a sprint.
type SprintArgs struct {
	SprintID int `json:"sprint_id" jsonschema:"The Jira sprint ID."`
}

// SyncProjectArgs are the arguments of sync_project.
type SyncProjectArgs struct {
	Project       string `json:"project,omitempty" jsonschema:"Jira project key. Defaults to the configured project."`
	IncludeClosed bool   `json:"include_closed,omitempty" jsonschema:"Also sync closed sprints."`
}

// SprintReportArgs are the arguments of get_sprint_report.
type SprintReportArgs struct {
	SprintID           int     `json:"sprint_id" jsonschema:"The Jira sprint ID."`
	Refresh            bool    `json:"refresh,omitempty" jsonschema:"Sync the sprint from Jira before reporting."`
	BurndownMetric     string  `json:"burndown_metric,omitempty" jsonschema:"What the burndown counts. Default: issues."`
	CompletionField    string  `json:"completion_field,omitempty" jsonschema:"Date that marks an issue as finished in the burndown. Default: dev_done_date."`
	DistributionMetric string  `json:"distribution_metric,omitempty" jsonschema:"What the status distribution sums. Default: issues."`
	IncludeOtherDone   bool    `json:"include_other_done,omitempty" jsonschema:"Count Dev Done, Test Done and Deployed as done in the performance table."`
	TargetHoursPerUser float64 `json:"target_hours_per_user,omitempty" jsonschema:"Planned hours per person. Defaults to the capacity derived from the sprint name."`
	DashboardOnly      bool    `json:"dashboard_only,omitempty" jsonschema:"Only issues shown in the dashboard."`
	Team               string  `json:"team,omitempty" jsonschema:"Named team from the roster."`
	IncludeIssues      bool    `json:"include_issues,omitempty" jsonschema:"Return the processed issues as well."`
}

// SprintIssuesArgs are the arguments of get_sprint_issues.
type SprintIssuesArgs struct {
	SprintID      int    `json:"sprint_id" jsonschema:"The Jira sprint ID."`
	Status        string `json:"status,omitempty" jsonschema:"Only issues in this status (case-insensitive)."`
	Assignee      string `json:"assignee,omitempty" jsonschema:"Only issues assigned to this person."`
	DashboardOnly bool   `json:"dashboard_only,omitempty" jsonschema:"Only issues shown in the dashboard."`
}

// SetIssueFieldArgs are the arguments of set_issue_field.
type SetIssueFieldArgs struct {
	IssueKey string `json:"issue_key" jsonschema:"Issue key, e.g. CLD-123."`
	Field    string `json:"field" jsonschema:"Custom field id (customfield_NNNNN) or alias: show_in_dashboard, popup, steve_estimate, customer, feature, tester, story_points."`
	Value    string `json:"value" jsonschema:"New value. Numbers and option names are accepted as text."`
}

// NoArgs is the input of tools without parameters.
type NoArgs struct{}

func (s *Server) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name: "get_worklog_report",
		Description: "Aggregate the hours logged on a project between two dates: total, per person, per day and per issue. " +
			"Future dates are pulled back to today in the configured timezone. " +
			"Guidance: Results are cached for the session; pass refresh=true after people logged more time.",
		InputSchema: inputSchema[WorklogReportArgs](nil),
	}, handle("get_worklog_report", s.handleWorklogReport))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_sprints",
		Description: "List the sprints of every board of a project, live from Jira. Guidance: Use the returned sprint id with 'sync_sprint' or 'get_sprint_report'.",
		InputSchema: inputSchema[ListSprintsArgs](nil),
	}, handle("list_sprints", s.handleListSprints))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_synced_sprints",
		Description: "List the sprints that have a stored snapshot, newest sync first. Works without Jira access.",
		InputSchema: inputSchema[NoArgs](nil),
	}, handle("list_synced_sprints", s.handleListSyncedSprints))

	mcp.AddTool(server, &mcp.Tool{
		Name: "sync_sprint",
		Description: "Fetch a sprint, its issues, worklogs and changelogs from Jira, process them against the sprint window and store the snapshot. " +
			"Guidance: Reports read the snapshot, so sync again when the sprint has moved on.",
		InputSchema: inputSchema[SprintArgs](nil),
	}, handle("sync_sprint", s.handleSyncSprint))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "sync_project",
		Description: "Sync every active sprint of a project (and closed ones when include_closed is set).",
		InputSchema: inputSchema[SyncProjectArgs](nil),
	}, handle("sync_project", s.handleSyncProject))

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_sprint_report",
		Description: "Build the sprint dashboard from the stored snapshot: totals, per-assignee hours, performance scores, burndown, status distribution, time by user, capacity plan, progress and days remaining. " +
			"A sprint that was never synced is synced first. " +
			"Guidance: 'burndown_metric=time' burns down estimated hours instead of issue counts; 'completion_field' picks which date closes an issue.",
		InputSchema: inputSchema[SprintReportArgs](map[string][]any{
			"burndown_metric":     burndownMetrics,
			"completion_field":    completionFields,
			"distribution_metric": distributionMetrics,
		}),
	}, handle("get_sprint_report", s.handleSprintReport))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_sprint_issues",
		Description: "List the processed issues of a stored sprint, optionally filtered by status or assignee.",
		InputSchema: inputSchema[SprintIssuesArgs](nil),
	}, handle("get_sprint_issues", s.handleSprintIssues))

	mcp.AddTool(server, &mcp.Tool{
		Name: "set_issue_field",
		Description: "Write a single custom field of a Jira issue. The value is sent as is, then as {\"value\": v}, then as [{\"value\": v}] until Jira accepts one. " +
			"Guidance: Sync the sprint again to see the change in reports.",
		InputSchema: inputSchema[SetIssueFieldArgs](nil),
	}, handle("set_issue_field", s.handleSetIssueField))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_teams",
		Description: "List the named teams of the roster with their members.",
		InputSchema: inputSchema[NoArgs](nil),
	}, handle("list_teams", s.handleListTeams))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear_cache",
		Description: "Drop every cached worklog report of this session.",
		InputSchema: inputSchema[NoArgs](nil),
	}, handle("clear_cache", s.handleClearCache))
}
