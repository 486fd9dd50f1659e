// Package strings holds small string slice helpers.
package strings

import (
	"strings"
)

// DedupeAndTrim trims every element, drops empty ones and keeps the first
// occurrence of each value. Order is preserved.
func DedupeAndTrim(values []string) []string {
	return DedupeFold(values, nil)
}

// DedupeFold is DedupeAndTrim with fold applied to each trimmed element
// before comparison; the folded value is what is kept. A nil fold keeps
// values as trimmed.
func DedupeFold(values []string, fold func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if fold != nil {
			v = fold(v)
		}
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}
	return result
}
