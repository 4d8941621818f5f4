package session

import (
	"fmt"

	"github.com/teleops/respawn/internal/health"
)

// ResidualError: worker processes survived every termination cycle.
// Launching beside a survivor would put two instances in the table, so
// this aborts the session.
type ResidualError struct {
	PIDs   []int32
	Cycles int
}

func (e *ResidualError) Error() string {
	return fmt.Sprintf("%d process(es) still running after %d kill cycle(s): %v", len(e.PIDs), e.Cycles, e.PIDs)
}

// LaunchError: the spawn itself failed, e.g. the executable is missing.
type LaunchError struct {
	Err error
}

func (e *LaunchError) Error() string { return "launch failed: " + e.Err.Error() }
func (e *LaunchError) Unwrap() error { return e.Err }

// VerifyError: the launched worker did not pass health verification.
type VerifyError struct {
	State health.State // Dead or FatalMarker
	Line  string       // offending log line for FatalMarker
}

func (e *VerifyError) Error() string {
	if e.State == health.FatalMarker {
		return fmt.Sprintf("fatal marker in worker log: %s", e.Line)
	}
	return "worker died before the warm-up window elapsed"
}
