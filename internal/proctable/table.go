package proctable

// Proc is one OS process as observed in the process table.
// Snapshots are re-derived on every query and never cached.
type Proc struct {
	PID     int32  `json:"pid"`
	Cmdline string `json:"cmdline"`
}

// Table is the supervisor's only view of other processes. The worker
// exposes no query API, so both location and liveness go through here.
// Implementations must be safe for concurrent use.
type Table interface {
	// Snapshot enumerates the current process table.
	Snapshot() ([]Proc, error)
	// Alive returns true if a process with pid exists.
	Alive(pid int32) (bool, error)
	// Kill sends a non-catchable termination signal to pid.
	// Killing a pid that no longer exists is not an error.
	Kill(pid int32) error
}
