package respawn

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "main.py", cfg.Worker.Signature)
	assert.True(t, filepath.IsAbs(cfg.Worker.LogPath))
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "respawn.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
workdir = "`+dir+`"

[worker]
signature = "bot.py"
command = "python3 bot.py"
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bot.py", cfg.Worker.Signature)
	assert.Equal(t, dir, cfg.WorkDir)
}

func TestNewWithSQLiteHistory(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.History.Type = "sqlite"
	cfg.History.DSN = filepath.Join(t.TempDir(), "respawn.db")

	sup, err := New(cfg, nil)
	require.NoError(t, err)
	assert.NotNil(t, sup.History())
	assert.NoError(t, sup.Close())
}

func TestNewWithBadHistoryType(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.History.Type = "redis"
	_, err = New(cfg, nil)
	require.Error(t, err)
}
