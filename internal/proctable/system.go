package proctable

import (
	"errors"

	"github.com/shirou/gopsutil/v4/process"
)

// SystemTable implements Table against the real OS process table.
type SystemTable struct{}

func (SystemTable) Snapshot() ([]Proc, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}
	out := make([]Proc, 0, len(procs))
	for _, p := range procs {
		cl, err := p.Cmdline()
		if err != nil || cl == "" {
			// kernel threads and processes that exited mid-scan
			continue
		}
		out = append(out, Proc{PID: p.Pid, Cmdline: cl})
	}
	return out, nil
}

func (SystemTable) Alive(pid int32) (bool, error) {
	return process.PidExists(pid)
}

func (SystemTable) Kill(pid int32) error {
	p, err := process.NewProcess(pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return nil
		}
		return err
	}
	return p.Kill()
}
