package stats

import "strings"

// UnknownStatus replaces empty or null-like status values.
const UnknownStatus = "Không xác định"

// EqualFold returns true if s1 and s2 are equal under Unicode case-folding.
func EqualFold(s1, s2 string) bool {
	return strings.EqualFold(strings.TrimSpace(s1), strings.TrimSpace(s2))
}

// SanitizeStatus maps "", "None" and "null" to UnknownStatus.
func SanitizeStatus(s string) string {
	switch strings.TrimSpace(s) {
	case "", "None", "null":
		return UnknownStatus
	}
	return s
}

// ExtractProjectKey extracts the project key portion from a Jira issue key (e.g., "PROJ" from "PROJ-123").
func ExtractProjectKey(key string) string {
	if i := strings.IndexByte(key, '-'); i > 0 {
		return key[:i]
	}
	return key
}
