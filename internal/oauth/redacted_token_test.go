package oauth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactedToken_Value(t *testing.T) {
	token := NewRedactedToken("eyJ-secret")

	assert.Equal(t, "eyJ-secret", token.Value())
	assert.False(t, token.IsEmpty())
	assert.True(t, NewRedactedToken("").IsEmpty())
}

func TestRedactedToken_Formatting(t *testing.T) {
	token := NewRedactedToken("eyJ-secret")

	tests := []struct {
		format string
		want   string
	}{
		{format: "%s", want: "[REDACTED]"},
		{format: "%v", want: "[REDACTED]"},
		{format: "%#v", want: "oauth.RedactedToken{[REDACTED]}"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, fmt.Sprintf(tt.format, token))
		})
	}

	err := fmt.Errorf("gateway rejected %s", token)
	assert.Equal(t, "gateway rejected [REDACTED]", err.Error())
}

func TestRedactedToken_Encoding(t *testing.T) {
	type snapshot struct {
		Token RedactedToken `json:"token"`
		User  string        `json:"user"`
	}

	data, err := json.Marshal(snapshot{Token: NewRedactedToken("eyJ-secret"), User: "kim"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"[REDACTED]","user":"kim"}`, string(data))

	text, err := NewRedactedToken("eyJ-secret").MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]", string(text))
}

func TestRedactedToken_Slog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	logger.Info("calling gateway", "bearer", NewRedactedToken("eyJ-secret"))

	assert.NotContains(t, buf.String(), "eyJ-secret")
	assert.Contains(t, buf.String(), `"bearer":"[REDACTED]"`)
}
