package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{-time.Second, "expired"},
		{30 * time.Second, "< 1 minute"},
		{time.Minute, "1 minute"},
		{45 * time.Minute, "45 minutes"},
		{time.Hour, "1 hour"},
		{5 * time.Hour, "5 hours"},
		{24 * time.Hour, "1 day"},
		{72 * time.Hour, "3 days"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.d), tt.d.String())
	}
}

func TestFormatExpiryWithDirection(t *testing.T) {
	assert.Equal(t, "in 2 hours", formatExpiryWithDirection(time.Now().Add(2*time.Hour+time.Minute)))

	expired := formatExpiryWithDirection(time.Now().Add(-10*time.Minute - time.Second))
	assert.True(t, strings.Contains(expired, "expired 10 minutes ago"), expired)
}

func TestDescribeUser(t *testing.T) {
	assert.Equal(t, "Kim <kim@everp.co.kr>", describeUser("Kim", "kim@everp.co.kr"))
	assert.Equal(t, "Kim", describeUser("Kim", ""))
	assert.Equal(t, "kim@everp.co.kr", describeUser("", "kim@everp.co.kr"))
	assert.Equal(t, "unknown user", describeUser("", ""))
}
