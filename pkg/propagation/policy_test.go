package propagation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicy(t *testing.T) {
	policy := DefaultPolicy()

	assert.Equal(t, "Cargo.toml", policy.Workspace.ConfigFile)
	assert.Equal(t, "Cargo.lock", policy.Workspace.LockFile)
	assert.Equal(t, []string{"cargo", "update", "--workspace", "--verbose"}, policy.Workspace.LockCommand)

	require.Len(t, policy.Packages, 9)
	assert.Equal(t, ".", policy.Packages[0])
	assert.Contains(t, policy.Packages, "npm/win32-arm64-msvc")
}

func TestLoadPolicy_MissingFileUsesDefaults(t *testing.T) {
	loader := NewPolicyLoader()

	policy, err := loader.LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), policy)
}

func TestLoadPolicy_FromFile(t *testing.T) {
	content := `workspace:
  config_file: gleam.toml
  lock_file: manifest.toml
  lock_command: ["gleam", "deps", "update"]
packages:
  - "."
  - "bindings/js"
messages:
  commit: "release {{version}}"
guards:
  disallow_dirty_worktree: true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "release-policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	policy, err := NewPolicyLoader().LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, "gleam.toml", policy.Workspace.ConfigFile)
	assert.Equal(t, []string{"gleam", "deps", "update"}, policy.Workspace.LockCommand)
	assert.Equal(t, []string{".", "bindings/js"}, policy.Packages)
	assert.Equal(t, "release {{version}}", policy.Messages.Commit)
	assert.True(t, policy.Guards.DisallowDirtyWorktree)
}

func TestLoadPolicy_DefaultsFillUnsetFields(t *testing.T) {
	content := `packages:
  - "."
`
	dir := t.TempDir()
	path := filepath.Join(dir, "release-policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	policy, err := NewPolicyLoader().LoadPolicy(path)
	require.NoError(t, err)

	assert.Equal(t, "Cargo.toml", policy.Workspace.ConfigFile)
	assert.Equal(t, []string{"."}, policy.Packages)
}

func TestLoadPolicy_SchemaRejectsUnknownKeys(t *testing.T) {
	content := `workspace:
  config_file: Cargo.toml
bogus_key: true
`
	dir := t.TempDir()
	path := filepath.Join(dir, "release-policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := NewPolicyLoader().LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed validation")
}

func TestLoadPolicy_RejectsEscapingLocation(t *testing.T) {
	content := `packages:
  - "../outside"
`
	dir := t.TempDir()
	path := filepath.Join(dir, "release-policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := NewPolicyLoader().LoadPolicy(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the workspace")
}

func TestLocations_ExcludePatterns(t *testing.T) {
	policy := DefaultPolicy()
	policy.Exclude = []string{"npm/win32-*"}

	locations := policy.Locations()

	assert.Len(t, locations, 7)
	assert.NotContains(t, locations, "npm/win32-x64-msvc")
	assert.NotContains(t, locations, "npm/win32-arm64-msvc")
	assert.Equal(t, ".", locations[0], "order must be preserved")
}

func TestGeneratePolicyFile_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".versync", "release-policy.yaml")

	require.NoError(t, NewPolicyLoader().GeneratePolicyFile(path))

	policy, err := NewPolicyLoader().LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPolicy().Packages, policy.Packages)
	assert.Equal(t, "Cargo.toml", policy.Workspace.ConfigFile)
}
