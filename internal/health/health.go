// Package health decides whether a freshly launched worker is usable.
// The worker exposes no readiness API, so the verdict combines two
// heuristics: the PID is still in the process table after a warm-up
// window, and the log sink carries no fatal marker.
package health

import (
	"os"
	"strings"
	"time"

	"github.com/teleops/respawn/internal/proctable"
)

// State is the verification verdict.
type State int

const (
	Healthy State = iota
	Dead
	FatalMarker
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Dead:
		return "dead"
	case FatalMarker:
		return "fatal-marker"
	}
	return "unknown"
}

// Result carries the verdict plus, for FatalMarker, the offending line.
type Result struct {
	State State
	Line  string
}

// Verifier checks a launched worker after a warm-up delay.
type Verifier struct {
	Table       proctable.Table
	FatalMarker []string
	Warmup      time.Duration // time the worker gets to initialize
	TailLines   int           // how much of the sink to scan
}

// Verify sleeps the warm-up window, then checks liveness and scans the
// log tail. A dead process wins over a fatal marker: the marker scan
// only runs when the process is still present.
func (v Verifier) Verify(pid int32, logPath string) (Result, error) {
	if v.Warmup > 0 {
		time.Sleep(v.Warmup)
	}
	alive, err := v.Table.Alive(pid)
	if err != nil {
		return Result{}, err
	}
	if !alive {
		return Result{State: Dead}, nil
	}
	tail, err := Tail(logPath, v.TailLines)
	if err != nil {
		// A missing sink is not fatal; the worker may simply not have
		// written yet.
		if os.IsNotExist(err) {
			return Result{State: Healthy}, nil
		}
		return Result{}, err
	}
	for _, line := range tail {
		for _, m := range v.FatalMarker {
			if m != "" && strings.Contains(line, m) {
				return Result{State: FatalMarker, Line: line}, nil
			}
		}
	}
	return Result{State: Healthy}, nil
}

// Tail returns up to n trailing lines of the file at path. The bot log
// is small, so a full read is fine.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil, nil
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines, nil
}
