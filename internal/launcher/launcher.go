// Package launcher spawns a fresh worker instance detached from the
// supervisor, with both output streams redirected into a truncated log
// sink. Launch is non-blocking: readiness is the health verifier's job.
package launcher

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Spec describes the worker to launch.
type Spec struct {
	Command string   // command line to start the worker (shell-aware)
	WorkDir string   // working directory; resolved by config, never hard-coded
	Env     []string // optional extra environment, KEY=VALUE
	LogPath string   // sink for combined stdout+stderr; truncated on launch
}

// BuildCommand constructs an *exec.Cmd for spec.Command. It avoids
// invoking a shell unless metacharacters require one, and honors an
// explicit "sh -c" prefix without double-wrapping.
func (s *Spec) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(s.Command)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	if afterC, ok := parseExplicitShell(cmdStr); ok {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", afterC)
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.Command(name, args...)
}

// parseExplicitShell detects "sh -c <ARG>" style prefixes at the start of
// cmdStr and returns the script after -c, with one layer of quotes
// stripped so redirections inside it still parse.
func parseExplicitShell(cmdStr string) (string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	for _, p := range []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "} {
		if strings.HasPrefix(trim, p) {
			after := trim[len(p):]
			if n := len(after); n >= 2 {
				if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
					after = after[1 : n-1]
				}
			}
			return after, true
		}
	}
	return "", false
}

// Launch truncates/creates the log sink, starts the worker detached in
// its own session, and returns the new PID without waiting for
// readiness. The supervisor's exit must not take the worker with it.
func Launch(spec Spec) (int32, error) {
	sink, err := os.OpenFile(spec.LogPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return 0, fmt.Errorf("open log sink: %w", err)
	}
	cmd := spec.BuildCommand()
	if spec.WorkDir != "" {
		cmd.Dir = spec.WorkDir
	}
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stdout = sink
	cmd.Stderr = sink
	configureSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		_ = sink.Close()
		return 0, fmt.Errorf("spawn worker: %w", err)
	}
	pid := int32(cmd.Process.Pid)
	// The child holds its own copy of the sink descriptor.
	_ = sink.Close()
	// Reap the child if it dies while the supervisor is still running,
	// so a dead worker does not linger as a zombie and fool the
	// liveness check. Once the supervisor exits, init adopts the child.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}
