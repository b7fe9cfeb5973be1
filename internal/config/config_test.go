package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.Addr)
	assert.Equal(t, "info", c.LogLevel)
	assert.Empty(t, c.DatabaseURL)
	assert.Equal(t, 30*time.Second, c.TeardownGrace())

	r := c.Rules(9)
	assert.Equal(t, 9, r.PlayerCount)
	assert.Equal(t, 120*time.Second, r.RoleAssignment)
	assert.Equal(t, 180*time.Second, r.TraitorMeeting)
	assert.Equal(t, 300*time.Second, r.GroupDiscussion)
	assert.Equal(t, 180*time.Second, r.Voting)
	assert.Equal(t, 60*time.Second, r.Recruitment)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ADDR", ":9999")
	t.Setenv("VOTING_SECONDS", "5")
	t.Setenv("ALLOWED_ORIGINS", "example.com, localhost:*")

	c, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", c.Addr)
	assert.Equal(t, 5*time.Second, c.Rules(6).Voting)
	assert.Equal(t, []string{"example.com", "localhost:*"}, c.Origins())
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("RECRUITMENT_SECONDS=7\nLOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("RECRUITMENT_SECONDS")
		os.Unsetenv("LOG_LEVEL")
	})

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, c.Rules(6).Recruitment)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoad_RejectsNegativeDurations(t *testing.T) {
	t.Setenv("VOTING_SECONDS", "-1")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
