package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teleops/respawn"
	"github.com/teleops/respawn/internal/config"
	"github.com/teleops/respawn/internal/metrics"
	"github.com/teleops/respawn/internal/preflight"
	"github.com/teleops/respawn/internal/proctable"
	"github.com/teleops/respawn/internal/server"
	"github.com/teleops/respawn/internal/session"
)

// version is injected at build time via -ldflags.
var version = "dev"

type command struct {
	flags *GlobalFlags
}

func (c command) loadConfig() (respawn.Config, error) {
	cfg, err := config.Load(c.flags.ConfigPath)
	if err != nil {
		return cfg, err
	}
	if c.flags.WorkDir != "" {
		cfg.WorkDir = c.flags.WorkDir
	}
	if err := cfg.Normalize(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Restart runs one full session and reports to the operator.
func (c command) Restart(f RestartFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	log := cfg.Log.New()
	if err := metrics.RegisterDefault(); err != nil {
		return err
	}
	sup, err := respawn.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = sup.Close() }()
	sup.SetDryRun(f.DryRun)

	s := sup.Run(context.Background())
	session.Report(os.Stdout, s, cfg.Worker.LogPath)
	if s.ExitCode() != 0 {
		return fmt.Errorf("restart failed: %s", s.Outcome)
	}
	return nil
}

// Check runs preflight validation alone.
func (c command) Check() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if err := preflight.Validate(cfg.Worker.Artifact, cfg.Markers.Required); err != nil {
		return err
	}
	fmt.Printf("artifact %s carries all %d required marker(s)\n",
		cfg.Worker.Artifact, len(cfg.Markers.Required))
	return nil
}

// Status prints the current process-table matches and lock-file state
// as JSON. Read-only.
func (c command) Status() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	locator := proctable.NewLocator(proctable.SystemTable{})
	procs, err := locator.Locate(cfg.Worker.Signature)
	if err != nil {
		return err
	}
	lockExists := false
	if _, err := os.Stat(cfg.Worker.LockFile); err == nil {
		lockExists = true
	}
	out := struct {
		Signature  string           `json:"signature"`
		Processes  []proctable.Proc `json:"processes"`
		LockExists bool             `json:"lock_exists"`
	}{cfg.Worker.Signature, procs, lockExists}
	if out.Processes == nil {
		out.Processes = []proctable.Proc{}
	}
	return printJSON(out)
}

// History lists recent restart sessions from the configured store.
func (c command) History(f HistoryFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cfg.History.Type == "" {
		return fmt.Errorf("history is disabled; set [history] type/dsn in the config")
	}
	sup, err := respawn.New(cfg, cfg.Log.New())
	if err != nil {
		return err
	}
	defer func() { _ = sup.Close() }()

	recs, err := sup.History().Recent(context.Background(), f.Limit)
	if err != nil {
		return err
	}
	if recs == nil {
		recs = []respawn.SessionRecord{}
	}
	return printJSON(recs)
}

// Serve exposes status, sessions, and metrics over HTTP until
// interrupted.
func (c command) Serve(f ServeFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if f.Listen != "" {
		cfg.Server.Listen = f.Listen
	}
	if f.BasePath != "" {
		cfg.Server.BasePath = f.BasePath
	}
	log := cfg.Log.New()
	if err := metrics.RegisterDefault(); err != nil {
		return err
	}
	sup, err := respawn.New(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = sup.Close() }()

	router := server.NewRouter(cfg, proctable.SystemTable{}, sup.History(), cfg.Server.BasePath)
	srv, errCh := server.NewServer(cfg.Server.Listen, router)
	log.Info("serving", "addr", cfg.Server.Listen, "base_path", cfg.Server.BasePath)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		// The listener died on its own (occupied port, bad address).
		return err
	case <-sig:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
