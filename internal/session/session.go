// Package session runs one end-to-end restart of the worker: preflight
// validation, forced termination with bounded escalation, state reset,
// detached relaunch, and post-launch health verification.
//
// Ordering is deliberate and load-bearing: preflight runs before any
// termination so a bad replacement artifact never costs a healthy
// running instance. Two concurrent supervisor invocations are a known
// race (both may observe an empty table and both launch); nothing here
// takes a supervisor-level mutex.
package session

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/teleops/respawn/internal/config"
	"github.com/teleops/respawn/internal/health"
	"github.com/teleops/respawn/internal/history"
	"github.com/teleops/respawn/internal/launcher"
	"github.com/teleops/respawn/internal/metrics"
	"github.com/teleops/respawn/internal/preflight"
	"github.com/teleops/respawn/internal/proctable"
)

// Outcome is the terminal state of a session.
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomePreflightFailed Outcome = "preflight-failed"
	OutcomeResidual        Outcome = "residual-processes"
	OutcomeLaunchFailed    Outcome = "launch-failed"
	OutcomeDead            Outcome = "dead"
	OutcomeFatalMarker     Outcome = "fatal-marker"
)

// Session is the record of one supervisor invocation. It is owned by
// that invocation and never persisted except through the history store.
type Session struct {
	StartedAt       time.Time
	FinishedAt      time.Time
	KillCycles      int
	KilledProcesses int
	LaunchedPID     int32
	Outcome         Outcome
	Err             error
	LogTail         []string
	DryRun          bool
}

// ExitCode maps the outcome to the process exit code: 0 only for a
// fully healthy session.
func (s *Session) ExitCode() int {
	if s.Outcome == OutcomeOK {
		return 0
	}
	return 1
}

// Runner executes restart sessions against an injected process table.
type Runner struct {
	cfg     config.Config
	table   proctable.Table
	locator *proctable.Locator
	log     *slog.Logger
	hist    history.Store
	launch  func(launcher.Spec) (int32, error)
	DryRun  bool
}

func NewRunner(cfg config.Config, table proctable.Table, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		cfg:     cfg,
		table:   table,
		locator: proctable.NewLocator(table),
		log:     log,
		launch:  launcher.Launch,
	}
}

// SetHistory attaches a session-history store. Writes are best-effort.
func (r *Runner) SetHistory(st history.Store) { r.hist = st }

// Run executes the full sequence and always returns a Session; the
// session's Outcome and Err describe any failure. Every failure is
// terminal for the session, nothing is retried beyond the bounded
// kill escalation.
func (r *Runner) Run(ctx context.Context) *Session {
	s := &Session{StartedAt: time.Now(), DryRun: r.DryRun}
	defer func() {
		s.FinishedAt = time.Now()
		s.LogTail = r.tail()
		r.record(ctx, s)
	}()

	w := r.cfg.Worker
	r.log.Info("restart session starting",
		"signature", w.Signature, "workdir", r.cfg.WorkDir, "dry_run", r.DryRun)

	if err := preflight.Validate(w.Artifact, r.cfg.Markers.Required); err != nil {
		// The previously running instance stays untouched.
		r.log.Error("preflight failed, leaving running instance undisturbed", "error", err)
		s.Outcome, s.Err = OutcomePreflightFailed, err
		return s
	}
	r.log.Info("preflight passed", "artifact", w.Artifact, "markers", len(r.cfg.Markers.Required))

	if r.DryRun {
		return r.dryRun(s)
	}

	if err := r.terminate(s); err != nil {
		r.log.Error("termination incomplete, refusing to launch a duplicate", "error", err)
		s.Outcome, s.Err = OutcomeResidual, err
		return s
	}

	r.reset()

	pid, err := r.launch(launcher.Spec{
		Command: w.Command,
		WorkDir: r.cfg.WorkDir,
		Env:     w.Env,
		LogPath: w.LogPath,
	})
	if err != nil {
		s.Outcome, s.Err = OutcomeLaunchFailed, &LaunchError{Err: err}
		return s
	}
	s.LaunchedPID = pid
	r.log.Info("worker launched", "pid", pid, "log", w.LogPath)

	v := health.Verifier{
		Table:       r.table,
		FatalMarker: r.cfg.Markers.Fatal,
		Warmup:      r.cfg.Timing.WarmupDelay,
		TailLines:   r.cfg.Timing.TailLines,
	}
	res, err := v.Verify(pid, w.LogPath)
	if err != nil {
		// Treat a broken liveness probe the same as a dead worker: we
		// cannot claim health we did not observe.
		r.log.Error("health verification errored", "error", err)
		s.Outcome, s.Err = OutcomeDead, &VerifyError{State: health.Dead}
		return s
	}
	switch res.State {
	case health.Dead:
		s.Outcome, s.Err = OutcomeDead, &VerifyError{State: health.Dead}
	case health.FatalMarker:
		s.Outcome, s.Err = OutcomeFatalMarker, &VerifyError{State: health.FatalMarker, Line: res.Line}
	default:
		s.Outcome = OutcomeOK
		r.log.Info("worker healthy", "pid", pid)
	}
	return s
}

// terminate kills every process matching the signature and verifies
// none remain, escalating up to MaxKillAttempts cycles with a settle
// delay between kill and re-query. Residual survivors are fatal.
func (r *Runner) terminate(s *Session) error {
	procs, err := r.locator.Locate(r.cfg.Worker.Signature)
	if err != nil {
		return err
	}
	if len(procs) == 0 {
		r.log.Info("no running worker found")
		return nil
	}
	for cycle := 1; cycle <= r.cfg.Timing.MaxKillAttempts; cycle++ {
		s.KillCycles++
		for _, p := range procs {
			r.log.Info("killing worker process", "pid", p.PID, "cycle", cycle)
			if err := r.table.Kill(p.PID); err != nil {
				r.log.Warn("kill failed", "pid", p.PID, "error", err)
			}
			s.KilledProcesses++
		}
		time.Sleep(r.cfg.Timing.SettleDelay)
		procs, err = r.locator.Locate(r.cfg.Worker.Signature)
		if err != nil {
			return err
		}
		if len(procs) == 0 {
			return nil
		}
	}
	pids := make([]int32, 0, len(procs))
	for _, p := range procs {
		pids = append(pids, p.PID)
	}
	return &ResidualError{PIDs: pids, Cycles: s.KillCycles}
}

// reset clears the lock file and cache trees left by the previous run.
// Absence is the expected steady state, not an error; other failures
// are logged and ignored since a stale cache is harmless.
func (r *Runner) reset() {
	w := r.cfg.Worker
	if w.LockFile != "" {
		if err := os.Remove(w.LockFile); err == nil {
			r.log.Info("removed stale lock file", "path", w.LockFile)
		} else if !os.IsNotExist(err) {
			r.log.Warn("could not remove lock file", "path", w.LockFile, "error", err)
		}
	}
	for _, d := range w.CacheDirs {
		if d == "" {
			continue
		}
		if err := os.RemoveAll(d); err != nil {
			r.log.Warn("could not remove cache dir", "path", d, "error", err)
		}
	}
}

func (r *Runner) dryRun(s *Session) *Session {
	procs, err := r.locator.Locate(r.cfg.Worker.Signature)
	if err != nil {
		s.Outcome, s.Err = OutcomeResidual, err
		return s
	}
	for _, p := range procs {
		r.log.Info("would kill", "pid", p.PID, "cmdline", p.Cmdline)
	}
	if _, err := os.Stat(r.cfg.Worker.LockFile); err == nil {
		r.log.Info("would remove lock file", "path", r.cfg.Worker.LockFile)
	}
	r.log.Info("would launch", "command", r.cfg.Worker.Command, "log", r.cfg.Worker.LogPath)
	s.Outcome = OutcomeOK
	return s
}

func (r *Runner) tail() []string {
	lines, err := health.Tail(r.cfg.Worker.LogPath, r.cfg.Timing.TailLines)
	if err != nil {
		return nil
	}
	return lines
}

// record publishes session metrics and persists the history record.
func (r *Runner) record(ctx context.Context, s *Session) {
	if s.DryRun {
		return
	}
	metrics.IncSession(string(s.Outcome))
	metrics.AddKillCycles(s.KillCycles)
	metrics.AddKilledProcesses(s.KilledProcesses)
	metrics.ObserveDuration(s.FinishedAt.Sub(s.StartedAt))

	if r.hist == nil {
		return
	}
	detail := ""
	if s.Err != nil {
		detail = s.Err.Error()
	}
	err := r.hist.RecordSession(ctx, history.Record{
		StartedAt:    s.StartedAt,
		FinishedAt:   s.FinishedAt,
		Outcome:      string(s.Outcome),
		KillAttempts: s.KillCycles,
		PID:          int(s.LaunchedPID),
		Detail:       detail,
	})
	if err != nil {
		r.log.Warn("history write failed", "error", err)
	}
}
