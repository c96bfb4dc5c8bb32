// Package strings holds string helpers for terminal output.
package strings

import (
	"strings"
)

// MinTruncateLen is the smallest width Truncate honours; anything lower
// would leave no room for content next to the ellipsis.
const MinTruncateLen = 4

// Truncate collapses whitespace in s to single spaces and shortens it to at
// most maxLen runes, ending in "..." when shortened. Counting runes keeps
// Hangul addresses and names intact.
func Truncate(s string, maxLen int) string {
	if maxLen < MinTruncateLen {
		maxLen = MinTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
