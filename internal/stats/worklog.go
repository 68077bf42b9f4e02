package stats

import (
	"sort"
	"strings"
	"time"

	"sprint-mcp/internal/jira"
)

// UnreadableComment replaces worklog comments whose structure is not recognized.
const UnreadableComment = "Unreadable comment"

const dateLayout = "2006-01-02"

// WorklogEntry is one time record attached to its issue.
type WorklogEntry struct {
	IssueKey     string
	IssueSummary string
	Author       string
	AvatarURL    string
	StartedAt    time.Time
	Date         string // calendar date as written by Jira (YYYY-MM-DD)
	Seconds      int64
	Comment      string
}

// EventTime implements Timestamped.
func (e WorklogEntry) EventTime() (time.Time, bool) {
	return e.StartedAt, !e.StartedAt.IsZero()
}

// NewWorklogEntry converts a Jira worklog of the given issue.
func NewWorklogEntry(issueKey, summary string, w jira.WorklogDTO) WorklogEntry {
	started, _ := ParseTimestamp(w.Started)
	return WorklogEntry{
		IssueKey:     issueKey,
		IssueSummary: summary,
		Author:       w.Author.DisplayName,
		AvatarURL:    w.Author.Avatar(),
		StartedAt:    started,
		Date:         worklogDate(w.Started, started),
		Seconds:      w.TimeSpentSeconds,
		Comment:      NormalizeComment(w.Comment),
	}
}

// The date prefix of the raw value keeps the author's own offset, matching
// what Jira shows for the worklog.
func worklogDate(raw string, started time.Time) string {
	if len(raw) >= len(dateLayout) {
		if _, err := time.Parse(dateLayout, raw[:len(dateLayout)]); err == nil {
			return raw[:len(dateLayout)]
		}
	}
	if started.IsZero() {
		return ""
	}
	return started.Format(dateLayout)
}

// DateRange bounds a worklog report by calendar date (YYYY-MM-DD), inclusive.
// An empty bound disables filtering.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Enabled reports whether both bounds are set.
func (r DateRange) Enabled() bool {
	return r.From != "" && r.To != ""
}

// Contains reports whether date lies within the range. ISO dates compare lexically.
func (r DateRange) Contains(date string) bool {
	if !r.Enabled() {
		return true
	}
	return date != "" && date >= r.From && date <= r.To
}

// WorklogLine is a single worklog as shown under its issue.
type WorklogLine struct {
	Author    string  `json:"author"`
	AvatarURL string  `json:"avatar_url,omitempty"`
	Date      string  `json:"date"`
	Hours     float64 `json:"hours"`
	Comment   string  `json:"comment"`
}

// IssueWorklogs groups the worklog lines of one issue.
type IssueWorklogs struct {
	Summary  string        `json:"summary"`
	Worklogs []WorklogLine `json:"worklogs"`
}

// WorklogReport is the aggregate of worklogs in a date range.
type WorklogReport struct {
	Range        DateRange                     `json:"range"`
	TotalHours   float64                       `json:"total_hours"`
	ByUser       map[string]float64            `json:"by_user"`
	ByIssue      map[string]*IssueWorklogs     `json:"by_issue"`
	DailySummary map[string]map[string]float64 `json:"daily_summary"`
}

// Aggregate sums worklog hours by user, by day and by issue.
// Every issue seen in entries gets a ByIssue entry, even when none of its
// worklogs fall in the range. Hours are not rounded.
func Aggregate(entries []WorklogEntry, r DateRange) WorklogReport {
	report := WorklogReport{
		Range:        r,
		ByUser:       make(map[string]float64),
		ByIssue:      make(map[string]*IssueWorklogs),
		DailySummary: make(map[string]map[string]float64),
	}

	for _, e := range entries {
		group, ok := report.ByIssue[e.IssueKey]
		if !ok {
			group = &IssueWorklogs{Summary: e.IssueSummary, Worklogs: []WorklogLine{}}
			report.ByIssue[e.IssueKey] = group
		}

		if e.Seconds <= 0 || !r.Contains(e.Date) {
			continue
		}

		hours := float64(e.Seconds) / 3600
		report.TotalHours += hours
		report.ByUser[e.Author] += hours

		day, ok := report.DailySummary[e.Date]
		if !ok {
			day = make(map[string]float64)
			report.DailySummary[e.Date] = day
		}
		day[e.Author] += hours

		group.Worklogs = append(group.Worklogs, WorklogLine{
			Author:    e.Author,
			AvatarURL: e.AvatarURL,
			Date:      e.Date,
			Hours:     hours,
			Comment:   e.Comment,
		})
	}

	return report
}

// UserHours is one row of a per-user ranking.
type UserHours struct {
	Author string  `json:"author"`
	Hours  float64 `json:"hours"`
}

// RankUsers returns ByUser ordered by hours descending, then by name.
func (r WorklogReport) RankUsers() []UserHours {
	rows := make([]UserHours, 0, len(r.ByUser))
	for author, hours := range r.ByUser {
		rows = append(rows, UserHours{Author: author, Hours: hours})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Hours != rows[j].Hours {
			return rows[i].Hours > rows[j].Hours
		}
		return rows[i].Author < rows[j].Author
	})
	return rows
}

// Dates returns the days present in DailySummary in ascending order.
func (r WorklogReport) Dates() []string {
	dates := make([]string, 0, len(r.DailySummary))
	for d := range r.DailySummary {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// NormalizeComment flattens a worklog or issue comment into plain text.
// It accepts a string, an Atlassian document (nested "content" nodes), a
// list of either, or nil. Other shapes give UnreadableComment.
func NormalizeComment(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case []any:
		var parts []string
		for _, item := range c {
			if s := NormalizeComment(item); s != "" && s != UnreadableComment {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		if text, ok := c["text"].(string); ok {
			return strings.TrimSpace(text)
		}
		if _, ok := c["content"].([]any); !ok {
			return UnreadableComment
		}
		var sb strings.Builder
		writeDocNode(&sb, c)
		return strings.TrimSpace(sb.String())
	default:
		return UnreadableComment
	}
}

var docBlockNodes = map[string]bool{
	"paragraph":  true,
	"heading":    true,
	"blockquote": true,
	"codeBlock":  true,
	"listItem":   true,
	"panel":      true,
	"tableRow":   true,
}

func writeDocNode(sb *strings.Builder, node map[string]any) {
	nodeType, _ := node["type"].(string)
	switch nodeType {
	case "text":
		text, _ := node["text"].(string)
		sb.WriteString(text)
		return
	case "hardBreak":
		sb.WriteByte('\n')
		return
	case "mention", "emoji":
		if attrs, ok := node["attrs"].(map[string]any); ok {
			if text, ok := attrs["text"].(string); ok {
				sb.WriteString(text)
			}
		}
		return
	}

	children, _ := node["content"].([]any)
	for _, child := range children {
		if m, ok := child.(map[string]any); ok {
			writeDocNode(sb, m)
		}
	}
	if docBlockNodes[nodeType] {
		sb.WriteByte('\n')
	}
}
