/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/versync/pkg/ascii"
	"github.com/fulmenhq/versync/pkg/config"
	"github.com/fulmenhq/versync/pkg/logger"
	"github.com/fulmenhq/versync/pkg/propagation"
	"github.com/fulmenhq/versync/pkg/safeio"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func bindSyncFlags(fs *pflag.FlagSet) {
	fs.Bool("dry-run", false, "Preview changes without making them")
	fs.String("workspace", ".", "Workspace root directory")
}

// runSync is the primary operation: propagate the positional version through
// the workspace and record the release.
func runSync(cmd *cobra.Command, args []string) error {
	version := args[0]
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	workspace, err := workspaceRoot(cmd)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	policy, err := loadPolicy(cmd, cfg)
	if err != nil {
		return err
	}

	runner := &propagation.ExecRunner{
		Dir:    workspace,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}

	result, err := propagation.NewPropagator(workspace, policy, runner).Run(version, propagation.Options{DryRun: dryRun})
	if err != nil {
		return err
	}

	// Per-location failures, a failed lock regeneration, and a failed
	// release record are all reported but deliberately leave the exit code
	// at zero: downstream automation depends on partial progress not
	// failing the run. Only the fatal preconditions above return an error.
	ok, failed := result.Counts()
	if failed > 0 {
		logger.Warn("Some package locations were not updated",
			logger.Int("ok", ok), logger.Int("failed", failed))
	}

	if cfg.Summary.Box && !dryRun {
		printSummary(cmd, result)
	}
	return nil
}

func loadPolicy(cmd *cobra.Command, cfg *config.Config) (*propagation.ReleasePolicy, error) {
	policyPath, err := resolvePolicyPath(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return propagation.NewPolicyLoader().LoadPolicy(policyPath)
}

// workspaceRoot returns the cleaned workspace root from --workspace.
// Relative paths that climb out of the current directory are rejected.
func workspaceRoot(cmd *cobra.Command) (string, error) {
	workspace, _ := cmd.Flags().GetString("workspace")
	if workspace == "" {
		workspace = "."
	}
	cleaned, err := safeio.CleanUserPath(workspace)
	if err != nil {
		return "", fmt.Errorf("invalid workspace path %q: %w", workspace, err)
	}
	return cleaned, nil
}

// resolvePolicyPath picks the policy file for this invocation. An explicit
// --policy wins and stays relative to the current directory; the configured
// default path resolves against the workspace root, so versync finds the
// policy of the workspace it is operating on rather than the one it happens
// to be invoked from.
func resolvePolicyPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if policyPath, _ := cmd.Flags().GetString("policy"); policyPath != "" {
		cleaned, err := safeio.CleanUserPath(policyPath)
		if err != nil {
			return "", fmt.Errorf("invalid policy path %q: %w", policyPath, err)
		}
		return cleaned, nil
	}
	workspace, err := workspaceRoot(cmd)
	if err != nil {
		return "", err
	}
	return filepath.Join(workspace, cfg.Policy.Path), nil
}

func printSummary(cmd *cobra.Command, result *propagation.Result) {
	ok, failed := result.Counts()

	width := 0
	for _, loc := range result.Locations {
		if len(loc.Location) > width {
			width = len(loc.Location)
		}
	}

	lines := []string{
		fmt.Sprintf("Release %s", result.Version),
		"",
	}
	for _, loc := range result.Locations {
		status := "updated"
		if !loc.OK {
			status = "failed"
		}
		lines = append(lines, fmt.Sprintf("%s  %s", ascii.Pad(loc.Location, width), status))
	}
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("locations: %d updated, %d failed", ok, failed))
	lines = append(lines, fmt.Sprintf("lock: %s  record: %s", yesNo(result.LockRegenerated), yesNo(result.Recorded)))

	fmt.Fprint(cmd.OutOrStdout(), ascii.Box(lines))
}

func yesNo(b bool) string {
	if b {
		return "ok"
	}
	return "failed"
}
