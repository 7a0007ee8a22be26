package services

import "strings"

// matchesLocation compares cities case-insensitively. An empty wanted location matches everything.
func matchesLocation(want, got string) bool {
	want = strings.TrimSpace(want)
	if want == "" {
		return true
	}
	return strings.EqualFold(want, strings.TrimSpace(got))
}

// meetsThreshold keeps scores at or above minScore. A nil minScore keeps everything.
func meetsThreshold(score float32, minScore *float64) bool {
	if minScore == nil {
		return true
	}
	return float64(score) >= *minScore
}
