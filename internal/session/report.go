package session

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Report writes the operator-facing summary: what happened, the worker
// log tail, and what to do next. It complements the structured log,
// which carries the same facts for machines.
func Report(w io.Writer, s *Session, logPath string) {
	dur := s.FinishedAt.Sub(s.StartedAt).Round(10 * time.Millisecond)
	fmt.Fprintf(w, "session outcome: %s (took %s)\n", s.Outcome, dur)
	if s.DryRun {
		fmt.Fprintln(w, "dry run: no process was killed, reset, or launched")
	}
	if s.LaunchedPID > 0 {
		fmt.Fprintf(w, "worker pid: %d\n", s.LaunchedPID)
	}
	if s.KillCycles > 0 {
		fmt.Fprintf(w, "termination: %d process(es) signaled over %d cycle(s)\n", s.KilledProcesses, s.KillCycles)
	}
	if s.Err != nil {
		fmt.Fprintf(w, "error: %v\n", s.Err)
	}
	if len(s.LogTail) > 0 {
		fmt.Fprintf(w, "--- last %d line(s) of %s ---\n", len(s.LogTail), logPath)
		fmt.Fprintln(w, strings.Join(s.LogTail, "\n"))
		fmt.Fprintln(w, "---")
	}
	if g := guidance(s); g != "" {
		fmt.Fprintf(w, "next step: %s\n", g)
	}
}

func guidance(s *Session) string {
	switch s.Outcome {
	case OutcomeOK:
		return ""
	case OutcomePreflightFailed:
		return "fix the deployable artifact; the previously running worker was left untouched"
	case OutcomeResidual:
		var re *ResidualError
		if errors.As(s.Err, &re) {
			return fmt.Sprintf("inspect pids %v by hand (ps/kill -9); no new instance was launched", re.PIDs)
		}
		return "inspect the surviving processes by hand; no new instance was launched"
	case OutcomeLaunchFailed:
		return "check that the worker command and its interpreter exist on this host"
	case OutcomeDead:
		return "the worker exited during warm-up; read the log tail above for the startup failure"
	case OutcomeFatalMarker:
		return "the worker logged a fatal marker; check its token/config before restarting again"
	}
	return ""
}
