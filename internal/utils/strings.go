// Package utils holds small helpers shared by configuration and jobs.
package utils

import "strings"

// ParseCSV splits a comma-separated list and returns the trimmed non-empty values.
// Returns nil for empty or whitespace-only input.
func ParseCSV(s string) []string {
	var result []string
	for _, v := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
