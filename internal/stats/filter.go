package stats

// ReportFilter narrows a worklog report to a set of people.
type ReportFilter struct {
	// Members restricts the report to these authors when non-empty.
	Members []string
	// Hidden authors are removed regardless of Members.
	Hidden []string
	// HideInactive drops authors with no logged hours.
	HideInactive bool
}

func (f ReportFilter) keep(author string, hours float64) bool {
	if f.HideInactive && hours <= 0 {
		return false
	}
	for _, h := range f.Hidden {
		if h == author {
			return false
		}
	}
	if len(f.Members) == 0 {
		return true
	}
	for _, m := range f.Members {
		if m == author {
			return true
		}
	}
	return false
}

// Apply returns a copy of r restricted to the kept authors. TotalHours and
// issue worklogs are recomputed so they still add up to ByUser.
func (f ReportFilter) Apply(r WorklogReport) WorklogReport {
	out := WorklogReport{
		Range:        r.Range,
		ByUser:       make(map[string]float64),
		ByIssue:      make(map[string]*IssueWorklogs, len(r.ByIssue)),
		DailySummary: make(map[string]map[string]float64),
	}

	kept := make(map[string]bool)
	for author, hours := range r.ByUser {
		if f.keep(author, hours) {
			kept[author] = true
			out.ByUser[author] = hours
			out.TotalHours += hours
		}
	}

	for date, users := range r.DailySummary {
		day := make(map[string]float64)
		for author, hours := range users {
			if kept[author] {
				day[author] = hours
			}
		}
		if len(day) > 0 {
			out.DailySummary[date] = day
		}
	}

	for key, group := range r.ByIssue {
		lines := []WorklogLine{}
		for _, l := range group.Worklogs {
			if kept[l.Author] {
				lines = append(lines, l)
			}
		}
		out.ByIssue[key] = &IssueWorklogs{Summary: group.Summary, Worklogs: lines}
	}
	return out
}
