package formatting

import (
	"testing"
	"time"
)

func TestValueOrPlaceholder(t *testing.T) {
	empty := ""
	name := "Kim"
	tests := []struct {
		name     string
		input    *string
		expected string
	}{
		{name: "nil", input: nil, expected: "-"},
		{name: "empty", input: &empty, expected: "-"},
		{name: "value", input: &name, expected: "Kim"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValueOrPlaceholder(tt.input); got != tt.expected {
				t.Errorf("ValueOrPlaceholder() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestTimestamp(t *testing.T) {
	if got := Timestamp(time.Time{}); got != Placeholder {
		t.Errorf("Timestamp(zero) = %q, want %q", got, Placeholder)
	}
	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.Local)
	if got := Timestamp(ts); got[:16] != "2026-03-01 09:30" {
		t.Errorf("Timestamp() = %q", got)
	}
}
