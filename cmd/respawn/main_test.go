package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, signature string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"),
		[]byte("menu: start_launch FAQ Contacts"), 0o600))
	path := filepath.Join(dir, "respawn.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
workdir = "`+dir+`"

[worker]
command = "python3 main.py"
signature = "`+signature+`"
artifact = "main.py"

[timing]
settle_delay = "1ms"
warmup_delay = "1ms"
max_kill_attempts = 2
tail_lines = 15
`), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestBuildRootHasSubcommands(t *testing.T) {
	root := buildRoot()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"restart", "check", "status", "history", "serve", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "respawn")
}

func TestCheckCommandPasses(t *testing.T) {
	cfgPath := writeTestConfig(t, "main.py")
	_, err := execute(t, "check", "--config", cfgPath)
	assert.NoError(t, err)
}

func TestCheckCommandMissingMarker(t *testing.T) {
	cfgPath := writeTestConfig(t, "main.py")
	artifact := filepath.Join(filepath.Dir(cfgPath), "main.py")
	require.NoError(t, os.WriteFile(artifact, []byte("FAQ only"), 0o600))

	_, err := execute(t, "check", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required markers")
}

func TestRestartDryRun(t *testing.T) {
	// signature that matches nothing in the real process table
	cfgPath := writeTestConfig(t, "zz-no-such-worker-zz")
	_, err := execute(t, "restart", "--dry-run", "--config", cfgPath)
	assert.NoError(t, err)
}

func TestHistoryDisabled(t *testing.T) {
	cfgPath := writeTestConfig(t, "main.py")
	_, err := execute(t, "history", "--config", cfgPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history is disabled")
}

func TestBadConfigPath(t *testing.T) {
	_, err := execute(t, "check", "--config", filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}
