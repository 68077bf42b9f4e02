package jira

import (
	"encoding/json"
	"strings"
)

// SearchResponse is the top-level container for Jira search results.
type SearchResponse struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []IssueDTO `json:"issues"`
}

// IssueDTO represents a single issue in a Jira search or sprint response.
type IssueDTO struct {
	ID        string        `json:"id"`
	Key       string        `json:"key"`
	Fields    FieldsDTO     `json:"fields"`
	Changelog *ChangelogDTO `json:"changelog,omitempty"`
}

// FieldsDTO contains the standard fields we read plus every customfield_* value.
// Custom field values keep their decoded JSON shape (string, number, object, array, nil).
type FieldsDTO struct {
	Summary   string     `json:"summary"`
	IssueType IssueType  `json:"issuetype"`
	Status    *NamedDTO  `json:"status"`
	Priority  *NamedDTO  `json:"priority"`
	Assignee  *UserDTO   `json:"assignee"`
	Created   string     `json:"created"`
	Updated   string     `json:"updated"`
	DueDate   string     `json:"duedate"`
	Resolved  string     `json:"resolutiondate"`
	Subtasks  []IssueRef `json:"subtasks"`
	Parent    *IssueRef  `json:"parent"`

	TimeOriginalEstimate *float64 `json:"timeoriginalestimate"`
	TimeEstimate         *float64 `json:"timeestimate"`
	TimeSpent            *float64 `json:"timespent"`

	Worklog     *WorklogPage `json:"worklog"`
	Comment     *CommentPage `json:"comment"`
	Development any          `json:"development"`

	Custom map[string]any `json:"-"`
}

// UnmarshalJSON decodes the typed fields and collects customfield_* entries into Custom.
func (f *FieldsDTO) UnmarshalJSON(data []byte) error {
	type plain FieldsDTO
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, v := range all {
		if strings.HasPrefix(k, "customfield_") {
			if p.Custom == nil {
				p.Custom = make(map[string]any)
			}
			p.Custom[k] = v
		}
	}

	*f = FieldsDTO(p)
	return nil
}

// MarshalJSON writes the typed fields and the custom fields back into one object.
func (f FieldsDTO) MarshalJSON() ([]byte, error) {
	type plain FieldsDTO
	base, err := json.Marshal(plain(f))
	if err != nil || len(f.Custom) == 0 {
		return base, err
	}

	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range f.Custom {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// IssueType is the issuetype field.
type IssueType struct {
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// NamedDTO is any Jira object identified by a display name (status, priority).
type NamedDTO struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// UserDTO is a Jira user reference.
type UserDTO struct {
	AccountID    string            `json:"accountId,omitempty"`
	DisplayName  string            `json:"displayName"`
	EmailAddress string            `json:"emailAddress,omitempty"`
	AvatarURLs   map[string]string `json:"avatarUrls,omitempty"`
}

// Avatar returns the 24x24 avatar URL, or "" if absent.
func (u UserDTO) Avatar() string {
	return u.AvatarURLs["24x24"]
}

// IssueRef is a lightweight pointer to another issue (parent or subtask).
type IssueRef struct {
	ID  string `json:"id,omitempty"`
	Key string `json:"key"`
}

// WorklogPage is the paginated worklog container (embedded field or /worklog endpoint).
type WorklogPage struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Worklogs   []WorklogDTO `json:"worklogs"`
}

// WorklogDTO is a single time-logging record.
// Comment is a plain string (API v2) or an Atlassian document (API v3).
type WorklogDTO struct {
	ID               string  `json:"id,omitempty"`
	IssueID          string  `json:"issueId,omitempty"`
	Author           UserDTO `json:"author"`
	Started          string  `json:"started"`
	TimeSpentSeconds int64   `json:"timeSpentSeconds"`
	Comment          any     `json:"comment,omitempty"`
}

// CommentPage is the comment field container.
type CommentPage struct {
	Comments []CommentDTO `json:"comments"`
}

// CommentDTO is a single issue comment.
type CommentDTO struct {
	ID      string   `json:"id,omitempty"`
	Author  *UserDTO `json:"author,omitempty"`
	Body    any      `json:"body"`
	Created string   `json:"created,omitempty"`
}

// ChangelogDTO contains historical transitions.
// Total exceeds len(Histories) when Jira truncated the embedded changelog.
type ChangelogDTO struct {
	StartAt    int          `json:"startAt"`
	MaxResults int          `json:"maxResults"`
	Total      int          `json:"total"`
	Histories  []HistoryDTO `json:"histories"`
}

// HistoryDTO is a single entry in the changelog.
type HistoryDTO struct {
	ID      string    `json:"id,omitempty"`
	Created string    `json:"created"`
	Items   []ItemDTO `json:"items"`
}

// ItemDTO is a single field change within a history entry.
type ItemDTO struct {
	Field      string `json:"field"`
	FromString string `json:"fromString"`
	ToString   string `json:"toString"`
}

// SprintDTO is an agile sprint.
type SprintDTO struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	CompleteDate  string `json:"completeDate,omitempty"`
	Goal          string `json:"goal,omitempty"`
	OriginBoardID int    `json:"originBoardId,omitempty"`
}

// BoardDTO is an agile board.
type BoardDTO struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// pagedValues is the agile API and changelog pagination envelope.
type pagedValues[T any] struct {
	StartAt    int  `json:"startAt"`
	MaxResults int  `json:"maxResults"`
	Total      int  `json:"total"`
	IsLast     bool `json:"isLast"`
	Values     []T  `json:"values"`
}
