package stats

import (
	"slices"
	"time"

	"sprint-mcp/internal/jira"
)

// StatusChange is one status transition taken from a changelog.
type StatusChange struct {
	At       time.Time
	HasTime  bool
	ToStatus string
}

// EventTime implements Timestamped.
func (c StatusChange) EventTime() (time.Time, bool) {
	return c.At, c.HasTime
}

// StatusChanges flattens a changelog into its status transitions, in input order.
// Items with an empty target status are skipped.
func StatusChanges(histories []jira.HistoryDTO) []StatusChange {
	var changes []StatusChange
	for _, h := range histories {
		at, ok := ParseTimestamp(h.Created)
		for _, item := range h.Items {
			if item.Field != "status" || item.ToString == "" {
				continue
			}
			changes = append(changes, StatusChange{At: at, HasTime: ok, ToStatus: item.ToString})
		}
	}
	return changes
}

// ResolveStatusInWindow returns the status an issue was moved to last within w.
// Without in-window transitions, or when w is disabled, it returns fallback.
func ResolveStatusInWindow(histories []jira.HistoryDTO, w Window, fallback string) string {
	if !w.Enabled() {
		return fallback
	}

	inWindow := FilterInWindow(StatusChanges(histories), w)
	if len(inWindow) == 0 {
		return fallback
	}

	slices.SortStableFunc(inWindow, func(a, b StatusChange) int {
		return a.At.Compare(b.At)
	})
	return inWindow[len(inWindow)-1].ToStatus
}

// LatestTransitionInto returns the time of the most recent transition into any
// of targets (case-insensitive) within w. A disabled window searches the whole changelog.
func LatestTransitionInto(histories []jira.HistoryDTO, w Window, targets ...string) (time.Time, bool) {
	var latest time.Time
	found := false
	for _, c := range FilterInWindow(StatusChanges(histories), w) {
		if !c.HasTime || !matchesAny(c.ToStatus, targets) {
			continue
		}
		if !found || c.At.After(latest) {
			latest = c.At
			found = true
		}
	}
	return latest, found
}

func matchesAny(status string, targets []string) bool {
	for _, t := range targets {
		if EqualFold(status, t) {
			return true
		}
	}
	return false
}
