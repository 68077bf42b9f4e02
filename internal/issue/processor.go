package issue

import (
	"math"
	"strings"
	"time"

	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/stats"
)

const (
	DevFull = "DEV FULL"
	DevFE   = "DEV FE"
	NonDev  = "NON DEV"

	// UnassignedName is stored when an issue has no assignee.
	UnassignedName = "Unassigned"
	// NoTester is stored when the tester field is empty.
	NoTester = "Không có"
	// NotAvailable is the default for select-style custom fields.
	NotAvailable = "N/A"
)

// Fields maps the custom field ids read by the processor.
type Fields struct {
	ShowInDashboard string
	Popup           string
	SteveEstimate   string
	Customer        string
	Feature         string
	Tester          string
	StoryPoints     string
}

// DefaultFields returns the custom field ids of the CLD Jira site.
func DefaultFields() Fields {
	return Fields{
		ShowInDashboard: "customfield_10160",
		Popup:           "customfield_10130",
		SteveEstimate:   "customfield_10159",
		Customer:        "customfield_10092",
		Feature:         "customfield_10132",
		Tester:          "customfield_10031",
		StoryPoints:     "customfield_10016",
	}
}

// List returns the ids in a stable order for search field lists.
func (f Fields) List() []string {
	var out []string
	for _, id := range []string{f.ShowInDashboard, f.Popup, f.SteveEstimate, f.Customer, f.Feature, f.Tester, f.StoryPoints} {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}

// Options configures a Processor.
type Options struct {
	BaseURL  string
	Fields   Fields
	Location *time.Location

	FullStack []string
	Frontend  []string
	Excluded  []string

	DevDoneStatuses  []string
	TestDoneStatuses []string
}

// Processor turns raw Jira issues into report-ready issues.
type Processor struct {
	opts      Options
	fullStack map[string]bool
	frontend  map[string]bool
	excluded  map[string]bool
}

func NewProcessor(opts Options) *Processor {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Fields == (Fields{}) {
		opts.Fields = DefaultFields()
	}
	if len(opts.DevDoneStatuses) == 0 {
		opts.DevDoneStatuses = []string{"Dev Done", "Resolved"}
	}
	if len(opts.TestDoneStatuses) == 0 {
		opts.TestDoneStatuses = []string{"Test Done", "Closed"}
	}
	return &Processor{
		opts:      opts,
		fullStack: toSet(opts.FullStack),
		frontend:  toSet(opts.Frontend),
		excluded:  toSet(opts.Excluded),
	}
}

// Fields returns the custom field ids the processor reads.
func (p *Processor) Fields() Fields { return p.opts.Fields }

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// DevGroup classifies an assignee by the configured developer lists.
func (p *Processor) DevGroup(assignee string) string {
	switch {
	case p.fullStack[assignee]:
		return DevFull
	case p.frontend[assignee]:
		return DevFE
	default:
		return NonDev
	}
}

// Process builds the report view of raw. worklogs may be nil, in which case
// the worklogs embedded in the issue fields are used. A disabled window leaves
// status and sprint time unscoped. Missing or malformed fields fall back to
// their defaults.
func (p *Processor) Process(raw jira.IssueDTO, worklogs []jira.WorklogDTO, w stats.Window) jira.Issue {
	f := raw.Fields
	loc := p.opts.Location

	var histories []jira.HistoryDTO
	if raw.Changelog != nil {
		histories = raw.Changelog.Histories
	}
	if worklogs == nil && f.Worklog != nil {
		worklogs = f.Worklog.Worklogs
	}

	out := jira.Issue{
		Key:         raw.Key,
		Summary:     f.Summary,
		IssueType:   f.IssueType.Name,
		IsEpic:      strings.EqualFold(f.IssueType.Name, "Epic"),
		IsSubtask:   f.IssueType.Subtask,
		HasSubtasks: len(f.Subtasks) > 0,
		Assignee:    UnassignedName,
		URL:         jira.BrowseURL(p.opts.BaseURL, raw.Key),
	}

	if f.Status != nil {
		out.CurrentStatus = f.Status.Name
	}
	out.CurrentStatus = stats.SanitizeStatus(out.CurrentStatus)
	out.Status = stats.SanitizeStatus(stats.ResolveStatusInWindow(histories, w, out.CurrentStatus))

	if f.Priority != nil {
		out.Priority = f.Priority.Name
	}
	if f.Assignee != nil && f.Assignee.DisplayName != "" {
		out.Assignee = f.Assignee.DisplayName
		out.AssigneeID = f.Assignee.AccountID
	}
	out.DevGroup = p.DevGroup(out.Assignee)

	if out.IsSubtask && f.Parent != nil {
		out.ParentKey = f.Parent.Key
	}

	p.applyCustomFields(&out, f.Custom)
	p.applyTimes(&out, f, worklogs, w)

	out.Created = stats.FormatDateIn(f.Created, loc)
	out.Updated = stats.FormatDateIn(f.Updated, loc)
	out.DueDate = stats.FormatDateIn(f.DueDate, loc)
	out.ResolutionDate = stats.FormatDateIn(f.Resolved, loc)
	if t, ok := stats.LatestTransitionInto(histories, w, p.opts.DevDoneStatuses...); ok {
		out.DevDoneDate = t.In(loc).Format(stats.DisplayLayout)
	}
	if t, ok := stats.LatestTransitionInto(histories, w, p.opts.TestDoneStatuses...); ok {
		out.TestDoneDate = t.In(loc).Format(stats.DisplayLayout)
	}

	var comments []jira.CommentDTO
	if f.Comment != nil {
		comments = f.Comment.Comments
	}
	out.Commits = ExtractCommits(comments, f.Development)
	if out.Commits == nil {
		out.Commits = []string{}
	}

	out.ShowInDashboardFinal = p.ShowInDashboardFinal(out)
	return out
}

func (p *Processor) applyCustomFields(out *jira.Issue, custom map[string]any) {
	ids := p.opts.Fields

	out.ShowInDashboard = dashboardFlag(NormalizeField(custom[ids.ShowInDashboard]))
	out.IsPopup = dashboardFlag(NormalizeField(custom[ids.Popup])) == jira.DashboardYes
	out.Customer = NormalizeField(custom[ids.Customer]).FirstOrDefault(NotAvailable)
	out.Feature = NormalizeField(custom[ids.Feature]).FirstOrDefault(NotAvailable)
	out.Tester = NormalizeField(custom[ids.Tester]).FirstOrDefault(NoTester)
	out.SteveEstimate = math.Max(0, Number(custom[ids.SteveEstimate]))
	out.StoryPoints = math.Max(0, Number(custom[ids.StoryPoints]))
	out.SteveEstimateDisplay = stats.FormatHours(out.SteveEstimate)
}

func dashboardFlag(v FieldValue) jira.DashboardFlag {
	switch strings.ToUpper(v.FirstOrDefault("")) {
	case "YES":
		return jira.DashboardYes
	case "NO":
		return jira.DashboardNo
	default:
		return jira.DashboardUnset
	}
}

func (p *Processor) applyTimes(out *jira.Issue, f jira.FieldsDTO, worklogs []jira.WorklogDTO, w stats.Window) {
	original := seconds(f.TimeOriginalEstimate)
	remaining := seconds(f.TimeEstimate)
	spent := seconds(f.TimeSpent)

	if remaining == 0 && spent == 0 {
		remaining = original
	}

	entries := make([]stats.WorklogEntry, 0, len(worklogs))
	for _, wl := range worklogs {
		entries = append(entries, stats.NewWorklogEntry(out.Key, out.Summary, wl))
	}
	var sprintSeconds float64
	for _, e := range stats.FilterInWindow(entries, w) {
		if e.Seconds > 0 {
			sprintSeconds += float64(e.Seconds)
		}
	}

	out.OriginalEstimate = original / 3600
	out.RemainingEstimate = remaining / 3600
	out.TimeSpent = spent / 3600
	out.SprintTimeSpent = sprintSeconds / 3600

	out.OriginalEstimateDisplay = stats.FormatSeconds(original)
	out.TimeSpentDisplay = stats.FormatSeconds(spent)
	out.SprintTimeSpentDisplay = stats.FormatSeconds(sprintSeconds)
}

func seconds(v *float64) float64 {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

// ShowInDashboardFinal reports whether an issue counts toward the headline
// sprint view: not an epic, no subtasks, sprint time logged, flagged for the
// dashboard and not assigned to an excluded person.
func (p *Processor) ShowInDashboardFinal(i jira.Issue) bool {
	return !(i.IsEpic ||
		i.HasSubtasks ||
		i.SprintTimeSpent == 0 ||
		i.ShowInDashboard != jira.DashboardYes ||
		p.excluded[i.Assignee])
}
