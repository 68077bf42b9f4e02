package issue

import (
	"reflect"
	"testing"

	"sprint-mcp/internal/jira"
)

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		name  string
		in    any
		kind  Kind
		first string
	}{
		{"Nil", nil, Empty, "-"},
		{"EmptyString", " ", Empty, "-"},
		{"String", "Payments", Scalar, "Payments"},
		{"Number", 3.0, Scalar, "3"},
		{"User", map[string]any{"displayName": "Mai", "accountId": "x"}, SingleRef, "Mai"},
		{"Option", map[string]any{"id": "1", "value": "YES"}, SingleRef, "YES"},
		{"UnknownObject", map[string]any{"id": "1"}, Empty, "-"},
		{"UserList", []any{map[string]any{"displayName": "Mai"}, map[string]any{"displayName": "Lan"}}, MultiRef, "Mai"},
		{"MixedList", []any{"raw", map[string]any{"value": "opt"}}, MultiRef, "raw"},
		{"EmptyList", []any{}, Empty, "-"},
		{"UnreadableFirstUser", []any{map[string]any{"accountId": "x"}, map[string]any{"displayName": "Bob"}}, MultiRef, "-"},
		{"BlankFirstItem", []any{"", "Bob"}, MultiRef, "-"},
		{"NothingReadable", []any{map[string]any{"accountId": "x"}, nil}, Empty, "-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NormalizeField(tt.in)
			if f.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", f.Kind, tt.kind)
			}
			if got := f.FirstOrDefault("-"); got != tt.first {
				t.Errorf("FirstOrDefault() = %q, want %q", got, tt.first)
			}
		})
	}
}

func TestNormalizeField_KeepsListPositions(t *testing.T) {
	f := NormalizeField([]any{map[string]any{"accountId": "x"}, map[string]any{"displayName": "Bob"}})
	want := []Ref{{}, {Name: "Bob"}}
	if !reflect.DeepEqual(f.Refs, want) {
		t.Errorf("Refs = %v, want %v", f.Refs, want)
	}
	if got := f.FirstOrDefault(NoTester); got != NoTester {
		t.Errorf("FirstOrDefault(NoTester) = %q, want %q", got, NoTester)
	}
}

func TestNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{4.5, 4.5},
		{"2.25", 2.25},
		{"n/a", 0},
		{nil, 0},
		{map[string]any{}, 0},
	}
	for _, tt := range tests {
		if got := Number(tt.in); got != tt.want {
			t.Errorf("Number(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestExtractCommits(t *testing.T) {
	comments := []jira.CommentDTO{
		{Body: "commit:abcdef1 and commit 1234567890abcdef"},
		{Body: "no hashes here, commit: xyz"},
		{Body: nil},
	}
	development := []any{
		map[string]any{"commits": []any{map[string]any{"id": "abcdef1"}, map[string]any{"id": "beef000"}}},
		"ignored",
	}

	got := ExtractCommits(comments, development)
	want := []string{"abcdef1", "1234567890abcdef", "beef000"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractCommits() = %v, want %v", got, want)
	}

	if got := ExtractCommits(nil, nil); len(got) != 0 {
		t.Errorf("ExtractCommits(nil, nil) = %v", got)
	}
}

func TestFieldsList(t *testing.T) {
	got := DefaultFields().List()
	if len(got) != 7 || got[0] != "customfield_10160" || got[6] != "customfield_10016" {
		t.Errorf("List() = %v", got)
	}
}
