/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/versync/pkg/config"
	"github.com/fulmenhq/versync/pkg/propagation"
	"github.com/spf13/cobra"
)

// checkCmd reports version consistency across the workspace without writing
// anything. The workspace config is parsed structurally here; the release
// path keeps its targeted text substitution.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check version consistency across the workspace",
	Long: `Check that every package manifest carries the same version as the
workspace config. Reports each location; exits non-zero when any location
disagrees or cannot be read.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, _ []string) error {
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

	out := cmd.OutOrStdout()

	authoritative, err := propagation.ReadWorkspaceVersion(filepath.Join(workspace, policy.Workspace.ConfigFile))
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %s\n", policy.Workspace.ConfigFile, authoritative)

	var mismatched []string
	for _, loc := range policy.Locations() {
		version, err := propagation.ReadManifestVersion(filepath.Join(workspace, loc))
		switch {
		case err != nil:
			fmt.Fprintf(out, "%s: unreadable (%v)\n", loc, err)
			mismatched = append(mismatched, loc)
		case version != authoritative:
			fmt.Fprintf(out, "%s: %s (mismatch)\n", loc, version)
			mismatched = append(mismatched, loc)
		default:
			fmt.Fprintf(out, "%s: %s\n", loc, version)
		}
	}

	if len(mismatched) > 0 {
		return fmt.Errorf("version mismatch at %d location(s): %s", len(mismatched), strings.Join(mismatched, ", "))
	}
	return nil
}
