/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/fulmenhq/versync/pkg/config"
	"github.com/fulmenhq/versync/pkg/propagation"
	"github.com/spf13/cobra"
)

// initCmd generates a commented sample release policy.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate a sample release policy file",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "Overwrite an existing policy file")
}

func runInit(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	path, err := resolvePolicyPath(cmd, cfg)
	if err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("policy file %s already exists (use --force to overwrite)", path)
	}

	if err := propagation.NewPolicyLoader().GeneratePolicyFile(path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
