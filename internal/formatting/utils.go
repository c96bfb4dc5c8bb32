package formatting

import (
	"time"
)

// Placeholder is shown for values the server did not provide.
const Placeholder = "-"

// ValueOrPlaceholder dereferences s, substituting Placeholder for nil or
// empty values.
func ValueOrPlaceholder(s *string) string {
	if s == nil || *s == "" {
		return Placeholder
	}
	return *s
}

// Timestamp formats t for display in the local zone, or Placeholder when t
// is zero.
func Timestamp(t time.Time) string {
	if t.IsZero() {
		return Placeholder
	}
	return t.Local().Format("2006-01-02 15:04:05 MST")
}
