// Package strings provides string manipulation utilities.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  lib-a ", "lib-b", "lib-a", "", "  "})
//	// Returns: []string{"lib-a", "lib-b"}
func DedupeAndTrim(values ...[]string) []string {
	seen := make(map[string]struct{})
	var result []string
	for _, group := range values {
		for _, v := range group {
			trimmed := strings.TrimSpace(v)
			if trimmed == "" {
				continue
			}
			if _, ok := seen[trimmed]; ok {
				continue
			}
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}
	return result
}

// LogicalID strips a "Type/" prefix and any "/_history/..." suffix from a
// reference, returning the bare identifier.
//
// Example:
//
//	LogicalID("Organization/org-1/_history/2") // "org-1"
func LogicalID(ref string) string {
	if i := strings.Index(ref, "/"); i >= 0 {
		ref = ref[i+1:]
	}
	if i := strings.Index(ref, "/"); i >= 0 {
		ref = ref[:i]
	}
	return ref
}
