package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/teleops/respawn/internal/logger"
)

// Worker describes the managed process. The supervisor treats it as an
// opaque executable: no shutdown hook, may create a lock file, appends
// lines to its log sink.
type Worker struct {
	Command   string   `toml:"command" mapstructure:"command"`       // launch command line
	Signature string   `toml:"signature" mapstructure:"signature"`   // substring identifying it in the process table
	Artifact  string   `toml:"artifact" mapstructure:"artifact"`     // deployable source checked by preflight
	LockFile  string   `toml:"lockfile" mapstructure:"lockfile"`     // created by the worker on startup
	CacheDirs []string `toml:"cache_dirs" mapstructure:"cache_dirs"` // compiled-artifact trees to clear
	LogPath   string   `toml:"log" mapstructure:"log"`               // sink, truncated per session
	Env       []string `toml:"env" mapstructure:"env"`               // extra KEY=VALUE pairs
}

// Markers are the literal substrings used as deployment and health
// heuristics. Required gates preflight; Fatal fails verification.
type Markers struct {
	Required []string `toml:"required" mapstructure:"required"`
	Fatal    []string `toml:"fatal" mapstructure:"fatal"`
}

// Timing bounds every wait in a session. The reference operation used
// hard-coded 2–15s sleeps; these make them explicit so a test harness
// can inject near-zero values.
type Timing struct {
	SettleDelay     time.Duration `toml:"settle_delay" mapstructure:"settle_delay"`         // after each kill cycle
	WarmupDelay     time.Duration `toml:"warmup_delay" mapstructure:"warmup_delay"`         // before health verification
	MaxKillAttempts int           `toml:"max_kill_attempts" mapstructure:"max_kill_attempts"`
	TailLines       int           `toml:"tail_lines" mapstructure:"tail_lines"`
}

// History selects the optional session-history store.
type History struct {
	Type string `toml:"type" mapstructure:"type"` // "sqlite" or "postgres"; empty disables
	DSN  string `toml:"dsn" mapstructure:"dsn"`   // file path for sqlite, conninfo for postgres
}

// Server configures the read-only status/metrics endpoint.
type Server struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type Config struct {
	WorkDir string        `toml:"workdir" mapstructure:"workdir"`
	Worker  Worker        `toml:"worker" mapstructure:"worker"`
	Markers Markers       `toml:"markers" mapstructure:"markers"`
	Timing  Timing        `toml:"timing" mapstructure:"timing"`
	Log     logger.Config `toml:"log" mapstructure:"log"`
	History History       `toml:"history" mapstructure:"history"`
	Server  Server        `toml:"server" mapstructure:"server"`
}

// Default returns the configuration for the reference worker, an
// aiogram Telegram bot launched as "python3 main.py". Every value can
// be overridden from file or flags.
func Default() Config {
	return Config{
		WorkDir: ".",
		Worker: Worker{
			Command:   "python3 main.py",
			Signature: "main.py",
			Artifact:  "main.py",
			LockFile:  "bot.lock",
			CacheDirs: []string{"__pycache__"},
			LogPath:   "bot.log",
		},
		Markers: Markers{
			Required: []string{"start_launch", "FAQ", "Contacts"},
			Fatal:    []string{"ОШИБКА", "Ошибка при polling", "Traceback"},
		},
		Timing: Timing{
			SettleDelay:     2 * time.Second,
			WarmupDelay:     15 * time.Second,
			MaxKillAttempts: 2,
			TailLines:       15,
		},
		Server: Server{Listen: "127.0.0.1:8391"},
	}
}

// Load reads a TOML config file over the defaults. An empty path
// returns the defaults untouched.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Normalize resolves every worker path against WorkDir and validates
// the values a session cannot run without.
func (c *Config) Normalize() error {
	if strings.TrimSpace(c.Worker.Command) == "" {
		return errors.New("worker.command must not be empty")
	}
	if strings.TrimSpace(c.Worker.Signature) == "" {
		return errors.New("worker.signature must not be empty")
	}
	if c.Timing.MaxKillAttempts <= 0 {
		return fmt.Errorf("timing.max_kill_attempts must be positive, got %d", c.Timing.MaxKillAttempts)
	}
	if c.Timing.TailLines <= 0 {
		return fmt.Errorf("timing.tail_lines must be positive, got %d", c.Timing.TailLines)
	}
	if c.Timing.SettleDelay < 0 || c.Timing.WarmupDelay < 0 {
		return errors.New("timing delays must not be negative")
	}
	abs, err := filepath.Abs(c.WorkDir)
	if err != nil {
		return fmt.Errorf("resolve workdir: %w", err)
	}
	c.WorkDir = abs
	c.Worker.Artifact = c.resolve(c.Worker.Artifact)
	c.Worker.LockFile = c.resolve(c.Worker.LockFile)
	c.Worker.LogPath = c.resolve(c.Worker.LogPath)
	for i, d := range c.Worker.CacheDirs {
		c.Worker.CacheDirs[i] = c.resolve(d)
	}
	if c.Log.Path != "" {
		c.Log.Path = c.resolve(c.Log.Path)
	}
	if c.History.Type == "sqlite" && c.History.DSN != "" && c.History.DSN != ":memory:" {
		c.History.DSN = c.resolve(c.History.DSN)
	}
	return nil
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.WorkDir, p)
}
