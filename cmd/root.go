/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"errors"
	"os"

	"github.com/fulmenhq/versync/pkg/buildinfo"
	"github.com/fulmenhq/versync/pkg/config"
	"github.com/fulmenhq/versync/pkg/exitcode"
	"github.com/fulmenhq/versync/pkg/logger"
	"github.com/fulmenhq/versync/pkg/propagation"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "versync <version>",
		Short: "Synchronize a release version across the workspace",
		Long: `Versync pushes one new version string through the whole workspace:
the workspace config (targeted text substitution, formatting preserved),
every package manifest and lockfile, the regenerated workspace lock, and
finally a git commit plus annotated tag.

Examples:
   versync 1.3.0              # Release version 1.3.0
   versync 1.3.0 --dry-run    # Preview without touching anything
   versync check              # Report version consistency
   versync init               # Generate a sample release policy`,
		Args: cobra.ExactArgs(1),
		RunE: runSync,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	// Add global flags
	cmd.PersistentFlags().String("log-level", "info", "Set log level (debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().String("policy", "", "Path to the release policy file")

	bindSyncFlags(cmd.PersistentFlags())

	// Wire Cobra's built-in --version using the binary version
	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("versync {{.Version}}\n")

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
// This is called from init() for production and can be called explicitly in tests.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(checkCmd)
	cmd.AddCommand(initCmd)
	cmd.AddCommand(versionCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command. The exit code distinguishes the fatal
// preconditions (missing workspace config, failed guard) from everything
// else; partial per-location failures never reach here and exit zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("Command execution failed", logger.Err(err))
		os.Exit(exitCodeFor(err))
	}
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return exitcode.FileSystemError
	case errors.Is(err, propagation.ErrGuardFailed):
		return exitcode.GuardError
	default:
		return exitcode.GeneralError
	}
}

func init() {
	// Register all subcommands with the production rootCmd
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger from the tool config and command
// flags. Tool config (versync.yaml, VERSYNC_LOG_*) overrides the built-in
// defaults; a flag the user explicitly set overrides the tool config.
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	useColor := !noColor

	if cfg, err := config.LoadConfig(); err == nil {
		if !cmd.Flags().Changed("log-level") {
			logLevelStr = cfg.Log.Level
		}
		if !cmd.Flags().Changed("json") {
			jsonLogs = cfg.Log.JSON
		}
		if !cmd.Flags().Changed("no-color") {
			useColor = cfg.Log.Color
		}
	}

	logConfig := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  useColor,
		JSON:      jsonLogs,
		Component: "versync",
		DryRun:    dryRun,
	}

	if err := logger.Initialize(logConfig); err != nil {
		if _, writeErr := os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n"); writeErr != nil {
			// Best effort: nothing else we can do here
			_ = writeErr
		}
		os.Exit(exitcode.ConfigError)
	}
}
