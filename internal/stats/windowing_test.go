package stats

import (
	"testing"
	"time"
)

type event struct {
	id string
	at time.Time
}

func (e event) EventTime() (time.Time, bool) {
	return e.at, !e.at.IsZero()
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 12, 0, 0, 0, time.UTC)
}

func ids(events []event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.id)
	}
	return out
}

func TestFilterInWindow(t *testing.T) {
	events := []event{
		{"late", day(20)},
		{"start", day(1)},
		{"mid", day(5)},
		{"none", time.Time{}},
		{"end", day(10)},
		{"early", day(1).Add(-time.Second)},
	}

	tests := []struct {
		name   string
		window Window
		want   []string
	}{
		{"Disabled", Window{}, []string{"late", "start", "mid", "none", "end", "early"}},
		{"MissingEnd", Window{Start: day(1)}, []string{"late", "start", "mid", "none", "end", "early"}},
		{"MissingStart", Window{End: day(10)}, []string{"late", "start", "mid", "none", "end", "early"}},
		{"InclusiveBounds", Window{Start: day(1), End: day(10)}, []string{"start", "mid", "end"}},
		{"Empty", Window{Start: day(11), End: day(12)}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(FilterInWindow(events, tt.window))
			if len(got) != len(tt.want) {
				t.Fatalf("FilterInWindow() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("FilterInWindow()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFilterInWindow_Subset(t *testing.T) {
	var events []event
	for d := 1; d <= 28; d++ {
		events = append(events, event{id: "e", at: day(d)})
	}
	w := Window{Start: day(7), End: day(14)}

	got := FilterInWindow(events, w)
	if len(got) != 8 {
		t.Errorf("expected 8 events in window, got %d", len(got))
	}
	for _, e := range got {
		if e.at.Before(w.Start) || e.at.After(w.End) {
			t.Errorf("event at %v lies outside %v..%v", e.at, w.Start, w.End)
		}
	}
}

func TestAdjustSprintWindowEnd(t *testing.T) {
	tests := []struct {
		name string
		end  time.Time
		want time.Time
	}{
		{
			"Wednesday",
			time.Date(2024, 1, 10, 17, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 14, 23, 59, 59, 999999999, time.UTC),
		},
		{
			"Saturday",
			time.Date(2024, 1, 13, 9, 0, 0, 0, time.UTC),
			time.Date(2024, 1, 14, 23, 59, 59, 999999999, time.UTC),
		},
		{
			"SundayItself",
			time.Date(2024, 1, 14, 8, 30, 0, 0, time.UTC),
			time.Date(2024, 1, 14, 23, 59, 59, 999999999, time.UTC),
		},
		{"Zero", time.Time{}, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdjustSprintWindowEnd(tt.end); !got.Equal(tt.want) {
				t.Errorf("AdjustSprintWindowEnd() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewSprintWindow_Enabled(t *testing.T) {
	if NewSprintWindow(time.Time{}, day(10)).Enabled() {
		t.Error("window without start should be disabled")
	}
	w := NewSprintWindow(day(1), day(10))
	if !w.Enabled() {
		t.Fatal("window with both bounds should be enabled")
	}
	if !w.Contains(time.Date(2024, 1, 14, 22, 0, 0, 0, time.UTC)) {
		t.Error("sprint window should absorb weekend work up to Sunday night")
	}
}

func TestDayRange(t *testing.T) {
	days := DayRange(day(1), day(5))
	if len(days) != 5 {
		t.Fatalf("DayRange() returned %d days, want 5", len(days))
	}
	if days[0].Hour() != 0 || days[0].Day() != 1 || days[4].Day() != 5 {
		t.Errorf("unexpected range %v..%v", days[0], days[4])
	}
	if DayRange(time.Time{}, day(5)) != nil {
		t.Error("DayRange() with zero start should be nil")
	}
}
