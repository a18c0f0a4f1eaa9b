package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
tag_database = "/var/lib/ncts/snapshot.json"
nextcloud_instance = "https://cloud.example.com"
user = "alice"
token = "s3cr3t-token"

[[prefixes]]
local = "/home/alice/Photos"
remote = "/remote.php/dav/files/alice/Photos"
`

func TestLoadFromExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, 10, cfg.MaxConcurrentRequests)
	assert.Equal(t, "Both", cfg.KeepSideOnConflict)
	assert.Equal(t, "user.xdg.tags", cfg.LocalTagPropertyName)
	require.Len(t, cfg.Prefixes, 1)
	assert.Equal(t, "/home/alice/Photos", cfg.Prefixes[0].Local)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTOML), 0o644))

	t.Setenv("NCTS_DRY_RUN", "true")
	t.Setenv("NCTS_MAX_CONCURRENT_REQUESTS", "4")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.Equal(t, 4, cfg.MaxConcurrentRequests)
}

func TestLoadMissingRequiredFieldFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`user = "alice"`), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoadRejectsInvalidConflictPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "keep_side_on_conflict = \"Sideways\"\n" + sampleTOML
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := Load(path)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestConfigStringRedactsToken(t *testing.T) {
	cfg := &Config{Token: "s3cr3t-token", User: "alice"}
	rendered := cfg.String()
	assert.NotContains(t, rendered, "s3cr3t-token")
	assert.Contains(t, rendered, "ken")
}
