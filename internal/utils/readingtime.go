package utils

import "strings"

// WordsPerMinute is the reading speed used for reading-time estimates.
const WordsPerMinute = 200

// ReadingTime estimates how many minutes it takes to read the given text,
// counting whitespace-delimited words at WordsPerMinute and rounding up.
// Any non-empty text yields at least 1 minute, whitespace-only included.
func ReadingTime(text string) int {
	if text == "" {
		return 0
	}

	words := len(strings.Fields(text))
	minutes := (words + WordsPerMinute - 1) / WordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}
