package launcher

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestBuildCommandDirectExec(t *testing.T) {
	s := Spec{Command: "python3 main.py"}
	c := s.BuildCommand()
	require.NotEmpty(t, c.Args)
	assert.Equal(t, "python3", c.Args[0])
	assert.Equal(t, []string{"python3", "main.py"}, c.Args)
}

func TestBuildCommandShellMeta(t *testing.T) {
	requireUnix(t)
	s := Spec{Command: "echo hi > out.txt"}
	c := s.BuildCommand()
	require.GreaterOrEqual(t, len(c.Args), 2)
	assert.Equal(t, "/bin/sh", c.Args[0])
	assert.Equal(t, "-c", c.Args[1])
}

func TestBuildCommandExplicitShellNotDoubleWrapped(t *testing.T) {
	requireUnix(t)
	s := Spec{Command: `sh -c 'echo hi'`}
	c := s.BuildCommand()
	require.Len(t, c.Args, 3)
	assert.Equal(t, "/bin/sh", c.Args[0])
	assert.Equal(t, "echo hi", c.Args[2])
}

func TestBuildCommandEmpty(t *testing.T) {
	requireUnix(t)
	s := Spec{}
	c := s.BuildCommand()
	assert.Contains(t, c.String(), "/bin/true")
}

func TestLaunchRedirectsAndTruncatesSink(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	sink := filepath.Join(dir, "bot.log")
	require.NoError(t, os.WriteFile(sink, []byte("stale line from previous session\n"), 0o640))

	pid, err := Launch(Spec{
		Command: "sh -c 'echo fresh-out; echo fresh-err 1>&2'",
		WorkDir: dir,
		LogPath: sink,
	})
	require.NoError(t, err)
	assert.Greater(t, pid, int32(0))

	// short-lived child; give it a moment to run and be reaped
	deadline := time.Now().Add(2 * time.Second)
	var content string
	for time.Now().Before(deadline) {
		b, err := os.ReadFile(sink)
		require.NoError(t, err)
		content = string(b)
		if strings.Contains(content, "fresh-out") && strings.Contains(content, "fresh-err") {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	assert.Contains(t, content, "fresh-out")
	assert.Contains(t, content, "fresh-err")
	assert.NotContains(t, content, "stale line", "sink must be truncated, not appended")
}

func TestLaunchMissingExecutable(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	_, err := Launch(Spec{
		Command: "__definitely_not_an_executable__",
		LogPath: filepath.Join(dir, "bot.log"),
	})
	require.Error(t, err)
}

func TestLaunchBadSinkPath(t *testing.T) {
	dir := t.TempDir()
	_, err := Launch(Spec{
		Command: "true",
		LogPath: filepath.Join(dir, "no-such-dir", "bot.log"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log sink")
}
