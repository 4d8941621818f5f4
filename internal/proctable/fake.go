package proctable

import "sync"

// Fake is an in-memory Table for deterministic tests. Kill removes the
// process unless its pid has been marked immortal, which simulates a
// worker that ignores termination.
type Fake struct {
	mu       sync.Mutex
	procs    map[int32]Proc
	immortal map[int32]bool
	Kills    []int32
}

func NewFake(procs ...Proc) *Fake {
	f := &Fake{procs: make(map[int32]Proc), immortal: make(map[int32]bool)}
	for _, p := range procs {
		f.procs[p.PID] = p
	}
	return f
}

// Add inserts or replaces a process in the fake table.
func (f *Fake) Add(p Proc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs[p.PID] = p
}

// Remove simulates a process exiting on its own.
func (f *Fake) Remove(pid int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.procs, pid)
}

// MarkImmortal makes pid survive Kill.
func (f *Fake) MarkImmortal(pid int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.immortal[pid] = true
}

func (f *Fake) Snapshot() ([]Proc, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Proc, 0, len(f.procs))
	for _, p := range f.procs {
		out = append(out, p)
	}
	return out, nil
}

func (f *Fake) Alive(pid int32) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.procs[pid]
	return ok, nil
}

func (f *Fake) Kill(pid int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Kills = append(f.Kills, pid)
	if f.immortal[pid] {
		return nil
	}
	delete(f.procs, pid)
	return nil
}
