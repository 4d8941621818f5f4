package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by every command.
type GlobalFlags struct {
	ConfigPath string
	WorkDir    string
}

// RestartFlags holds flags for the restart (root) command.
type RestartFlags struct {
	DryRun bool
}

// HistoryFlags holds flags for the history command.
type HistoryFlags struct {
	Limit int
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Listen   string
	BasePath string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	restartFlags := &RestartFlags{}
	historyFlags := &HistoryFlags{}
	serveFlags := &ServeFlags{}

	c := command{flags: globalFlags}

	root := &cobra.Command{
		Use:   "respawn",
		Short: "Restart the chat-bot worker into exactly one healthy instance",
		Long: "respawn validates the worker's deployable artifact, force-kills every\n" +
			"stale instance, clears lock and cache state, relaunches the worker\n" +
			"detached, and verifies it survives warm-up with a clean log.\n\n" +
			"Running two respawn invocations concurrently is a known race: both can\n" +
			"observe an empty process table and both launch. Serialize restarts.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.Restart(*restartFlags)
		},
	}
	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to respawn.toml (optional)")
	root.PersistentFlags().StringVar(&globalFlags.WorkDir, "workdir", "", "worker working directory (overrides config)")
	root.Flags().BoolVar(&restartFlags.DryRun, "dry-run", false, "report what would happen without killing, resetting, or launching")

	root.AddCommand(
		createRestartCommand(c, restartFlags),
		createCheckCommand(c),
		createStatusCommand(c),
		createHistoryCommand(c, historyFlags),
		createServeCommand(c, serveFlags),
		createVersionCommand(),
	)
	return root
}

func createRestartCommand(c command, flags *RestartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Run one restart session (same as the bare root command)",
		RunE: func(*cobra.Command, []string) error {
			return c.Restart(*flags)
		},
	}
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "report what would happen without killing, resetting, or launching")
	return cmd
}

func createCheckCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the deployable artifact without disrupting anything",
		RunE: func(*cobra.Command, []string) error {
			return c.Check()
		},
	}
}

func createStatusCommand(c command) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current worker processes and lock-file state",
		RunE: func(*cobra.Command, []string) error {
			return c.Status()
		},
	}
}

func createHistoryCommand(c command, flags *HistoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent restart sessions",
		RunE: func(*cobra.Command, []string) error {
			return c.History(*flags)
		},
	}
	cmd.Flags().IntVarP(&flags.Limit, "limit", "n", 20, "number of sessions to show")
	return cmd
}

func createServeCommand(c command, flags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only status, session history, and metrics over HTTP",
		RunE: func(*cobra.Command, []string) error {
			return c.Serve(*flags)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().StringVar(&flags.BasePath, "base-path", "", "URL base path, e.g. /api")
	return cmd
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the respawn version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("respawn %s\n", version)
		},
	}
}
