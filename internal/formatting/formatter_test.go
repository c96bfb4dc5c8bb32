package formatting

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleUser struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

func sampleRecord() *Record {
	r := &Record{Title: "User", Data: sampleUser{UserID: "u-1", UserName: "Kim"}}
	r.Add("User ID", "u-1").Add("Name", "Kim")
	return r
}

func render(t *testing.T, format OutputFormat, noHeaders bool, r *Record) string {
	t.Helper()
	var buf bytes.Buffer
	f, err := New(Options{Format: format, NoHeaders: noHeaders, Output: &buf})
	require.NoError(t, err)
	require.NoError(t, f.FormatRecord(r))
	return buf.String()
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatTable, "JSON": FormatJSON, " yaml ": FormatYAML, "plain": FormatPlain} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestTableFormatter(t *testing.T) {
	out := render(t, FormatTable, false, sampleRecord())

	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "User ID")
	assert.Contains(t, out, "Kim")
	assert.Contains(t, out, "╭")
}

func TestTableFormatter_Empty(t *testing.T) {
	out := render(t, FormatTable, false, &Record{})
	assert.Contains(t, out, "Nothing to show")
}

func TestPlainFormatter(t *testing.T) {
	out := render(t, FormatPlain, false, sampleRecord())
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	require.Len(t, lines, 3)
	assert.Equal(t, "FIELD     VALUE", lines[0])
	assert.Equal(t, "user_id   u-1", lines[1])
	assert.Equal(t, "name      Kim", lines[2])
}

func TestPlainFormatter_NoHeaders(t *testing.T) {
	out := render(t, FormatPlain, true, sampleRecord())
	assert.NotContains(t, out, "FIELD")
	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		assert.Equal(t, strings.TrimRight(line, " "), line)
	}
}

func TestJSONFormatter_UsesData(t *testing.T) {
	out := render(t, FormatJSON, false, sampleRecord())
	assert.JSONEq(t, `{"userId":"u-1","userName":"Kim"}`, out)
}

func TestJSONFormatter_FallsBackToFields(t *testing.T) {
	r := &Record{}
	r.Add("state", "authenticated")
	out := render(t, FormatJSON, false, r)
	assert.JSONEq(t, `{"state":"authenticated"}`, out)
}

func TestYAMLFormatter_KeepsJSONNames(t *testing.T) {
	out := render(t, FormatYAML, false, sampleRecord())
	assert.Contains(t, out, "userId: u-1")
	assert.Contains(t, out, "userName: Kim")
}
