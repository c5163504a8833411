// Package propagation implements release-version propagation: one new version
// string is pushed into the workspace config, every package manifest and
// lockfile, the regenerated workspace lock, and a git commit plus tag.
package propagation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/versync/pkg/logger"
)

// Propagator runs a release across a workspace. The package location list and
// every external collaborator are injected at construction so tests can run a
// full release against a synthetic workspace and a fake runner.
type Propagator struct {
	root   string
	policy *ReleasePolicy
	runner Runner
}

// Options configures a single release run
type Options struct {
	DryRun bool // report would-be changes, write nothing, skip lock/record phases
}

// LocationResult records the outcome for one package location
type LocationResult struct {
	Location string
	OK       bool
}

// Result reports a release run. It carries outcomes only; diagnostics live
// in the log and the streamed output of the external commands.
type Result struct {
	Version         string
	Locations       []LocationResult
	LockRegenerated bool
	Recorded        bool
}

// Counts returns how many locations succeeded and failed.
func (r *Result) Counts() (ok, failed int) {
	for _, loc := range r.Locations {
		if loc.OK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}

// NewPropagator creates a propagator rooted at the workspace directory.
func NewPropagator(root string, policy *ReleasePolicy, runner Runner) *Propagator {
	return &Propagator{root: root, policy: policy, runner: runner}
}

// Run executes the four release phases in order. Only phase 1 can fail the
// run: a missing workspace config, or one without an extractable current
// version, returns an error and nothing further happens. Every later failure
// is recorded in the Result and the remaining phases still execute, so a
// partially failing release makes as much progress as it can.
func (p *Propagator) Run(version string, opts Options) (*Result, error) {
	if err := CheckGuards(p.root, p.policy.Guards); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGuardFailed, err)
	}

	result := &Result{Version: version}

	// Phase 1: workspace config rewrite (fatal on failure)
	configPath := filepath.Join(p.root, p.policy.Workspace.ConfigFile)
	if opts.DryRun {
		data, err := os.ReadFile(configPath) // #nosec G304 - path comes from the release policy
		if err != nil {
			return nil, fmt.Errorf("failed to read workspace config %s: %w", configPath, err)
		}
		current, err := ExtractWorkspaceVersion(string(data))
		if err != nil {
			return nil, fmt.Errorf("workspace config %s: %w", configPath, err)
		}
		logger.Info("Would update workspace config",
			logger.String("file", configPath),
			logger.String("from", current),
			logger.String("to", version))
	} else {
		if err := RewriteWorkspaceConfig(configPath, version); err != nil {
			return nil, err
		}
	}

	// Phase 2: package locations, fixed order, never halts early
	for _, loc := range p.policy.Locations() {
		dir := filepath.Join(p.root, loc)
		var err error
		if opts.DryRun {
			_, err = os.Stat(filepath.Join(dir, manifestName))
			if err == nil {
				logger.Info("Would update package", logger.String("location", loc), logger.String("version", version))
			}
		} else {
			err = UpdatePackage(dir, version)
		}
		if err != nil {
			logger.Warn("Package update failed", logger.String("location", loc), logger.Err(err))
		}
		result.Locations = append(result.Locations, LocationResult{Location: loc, OK: err == nil})
	}

	if opts.DryRun {
		logger.Info("Dry run: skipping lock regeneration and release record")
		return result, nil
	}

	// Phase 3: lock regeneration (reported, never blocks phase 4)
	result.LockRegenerated = p.regenerateLock()

	// Phase 4: release record
	msgs, err := RenderMessages(p.policy.Messages, version)
	if err != nil {
		logger.Error("Failed to render release messages", logger.Err(err))
	} else {
		result.Recorded = NewRecorder(p.root, p.runner).Record(p.policy, msgs)
	}

	logger.Info("Release run complete",
		logger.String("version", version),
		logger.Bool("lock_regenerated", result.LockRegenerated),
		logger.Bool("recorded", result.Recorded))
	return result, nil
}

func (p *Propagator) regenerateLock() bool {
	cmd := p.policy.Workspace.LockCommand
	if len(cmd) == 0 {
		return true
	}
	logger.Info("Regenerating workspace lock", logger.String("command", cmd[0]))
	if err := p.runner.Run(cmd[0], cmd[1:]...); err != nil {
		logger.Error("Lock regeneration failed", logger.Err(err))
		return false
	}
	return true
}
