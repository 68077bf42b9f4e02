package issue

import (
	"regexp"

	"sprint-mcp/internal/jira"
	"sprint-mcp/internal/stats"
)

var commitRe = regexp.MustCompile(`commit[:\s]+([a-fA-F0-9]{7,40})`)

// ExtractCommits collects commit hashes mentioned in comments ("commit: abc1234")
// and listed in the development field, without duplicates, in discovery order.
// The development field is either {"commits": [...]} or a list of such objects.
func ExtractCommits(comments []jira.CommentDTO, development any) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	for _, c := range comments {
		for _, m := range commitRe.FindAllStringSubmatch(stats.NormalizeComment(c.Body), -1) {
			add(m[1])
		}
	}

	switch dev := development.(type) {
	case map[string]any:
		for _, id := range commitIDs(dev) {
			add(id)
		}
	case []any:
		for _, item := range dev {
			if m, ok := item.(map[string]any); ok {
				for _, id := range commitIDs(m) {
					add(id)
				}
			}
		}
	}
	return out
}

func commitIDs(m map[string]any) []string {
	list, _ := m["commits"].([]any)
	var ids []string
	for _, c := range list {
		if cm, ok := c.(map[string]any); ok {
			if id, ok := cm["id"].(string); ok {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
