package proctable

import (
	"os"
	"path/filepath"
	"strings"
)

// Locator finds worker processes by command-line signature.
// It is a pure query over a Table; no side effects.
type Locator struct {
	table   Table
	selfPID int32
	selfExe string
}

func NewLocator(t Table) *Locator {
	return &Locator{
		table:   t,
		selfPID: int32(os.Getpid()),
		selfExe: filepath.Base(os.Args[0]),
	}
}

// Locate returns every process whose command line contains signature.
// The supervisor's own process and anything that looks like an
// inspection command carrying the signature as an argument (pgrep, grep,
// another copy of this binary) are excluded so the search never matches
// itself. An empty result is not an error.
func (l *Locator) Locate(signature string) ([]Proc, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, nil
	}
	snap, err := l.table.Snapshot()
	if err != nil {
		return nil, err
	}
	var out []Proc
	for _, p := range snap {
		if !strings.Contains(p.Cmdline, signature) {
			continue
		}
		if p.PID == l.selfPID || l.isSearchCommand(p.Cmdline) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (l *Locator) isSearchCommand(cmdline string) bool {
	fields := strings.Fields(cmdline)
	if len(fields) == 0 {
		return false
	}
	head := filepath.Base(fields[0])
	switch head {
	case "grep", "egrep", "pgrep", "pkill":
		return true
	}
	return l.selfExe != "" && head == l.selfExe
}
