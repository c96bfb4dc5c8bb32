package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"everp/internal/gateway"
	"everp/internal/testing/mock"
)

func TestProfile_Employee(t *testing.T) {
	env := newTestEnv(t, mock.ServerConfig{})
	_, err := env.execute(t, "auth", "login")
	require.NoError(t, err)

	out, err := env.execute(t, "profile", "-o", "plain", "--no-headers")

	require.NoError(t, err)
	assert.Contains(t, out, "department")
	assert.Contains(t, out, "Finance")
	assert.Contains(t, out, "employee_no.")
	assert.Contains(t, out, "E-2041")
	assert.Contains(t, out, "hire_date       -")
}

func TestProfile_RequiresLogin(t *testing.T) {
	env := newTestEnv(t, mock.ServerConfig{})

	_, err := env.execute(t, "profile")

	require.Error(t, err)
	assert.Equal(t, ExitCodeAuthRequired, getExitCode(err))
}

func TestProfileRecord_Customer(t *testing.T) {
	r := profileRecord(&gateway.Profile{
		Kind: gateway.ProfileCustomer,
		Customer: &gateway.CustomerProfile{
			CustomerName: "Lee",
			CompanyName:  "Hanbit Trading",
			BaseAddress:  "Seoul",
		},
	})

	assert.Equal(t, "Customer profile", r.Title)
	fields := map[string]string{}
	for _, f := range r.Fields {
		fields[f.Key] = f.Value
	}
	assert.Equal(t, "Lee", fields["Name"])
	assert.Equal(t, "Hanbit Trading", fields["Company"])
	assert.Equal(t, "Seoul", fields["Address"])
}

func TestJoinAddress(t *testing.T) {
	assert.Equal(t, "Seoul 3F", joinAddress("Seoul", "3F"))
	assert.Equal(t, "3F", joinAddress("", "3F"))
	assert.Equal(t, "Seoul", joinAddress("Seoul", ""))
}
