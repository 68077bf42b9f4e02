package stats

import (
	"time"
)

// Timestamped is implemented by anything that can be placed on a timeline.
// ok is false when the event carries no usable timestamp.
type Timestamped interface {
	EventTime() (t time.Time, ok bool)
}

// Window is an inclusive [Start, End] interval.
// A zero bound means the window is not configured and filtering is disabled.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewSprintWindow builds the filtering window of a sprint, extending its end
// with AdjustSprintWindowEnd.
func NewSprintWindow(start, end time.Time) Window {
	return Window{Start: start, End: AdjustSprintWindowEnd(end)}
}

// Enabled reports whether both bounds are set.
func (w Window) Enabled() bool {
	return !w.Start.IsZero() && !w.End.IsZero()
}

// Contains reports whether t lies in [Start, End].
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// FilterInWindow returns the events inside w, preserving input order.
// A disabled window returns events unchanged. Events without a timestamp are
// dropped when filtering.
func FilterInWindow[T Timestamped](events []T, w Window) []T {
	if !w.Enabled() {
		return events
	}

	out := make([]T, 0, len(events))
	for _, e := range events {
		if t, ok := e.EventTime(); ok && w.Contains(t) {
			out = append(out, e)
		}
	}
	return out
}

// AdjustSprintWindowEnd extends a sprint end to 23:59:59 of the following
// Sunday (or the same Sunday) so weekend worklogs count toward the sprint.
func AdjustSprintWindowEnd(end time.Time) time.Time {
	return SnapToEnd(end, "week")
}

// SnapToStart normalizes a timestamp to the beginning of its bucket (0:00:00).
func SnapToStart(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case "month":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	case "week":
		// Monday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, t.Location())
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

// SnapToEnd normalizes a timestamp to the very end of its bucket (23:59:59.999...).
func SnapToEnd(t time.Time, bucket string) time.Time {
	if t.IsZero() {
		return t
	}
	switch bucket {
	case "month":
		nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
		return nextMonth.Add(-time.Nanosecond)
	case "week":
		// Last nanosecond of Sunday
		weekday := int(t.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()+(7-weekday), 23, 59, 59, 999999999, t.Location())
	default: // day
		return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
	}
}

// DayRange returns the start of every calendar day from start to end inclusive.
func DayRange(start, end time.Time) []time.Time {
	if start.IsZero() || end.IsZero() {
		return nil
	}
	first := SnapToStart(start, "day")
	last := SnapToStart(end.In(start.Location()), "day")

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}
