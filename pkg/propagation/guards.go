package propagation

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	git "github.com/go-git/go-git/v5"
)

// ErrGuardFailed marks a run aborted by an execution guard.
var ErrGuardFailed = errors.New("guard precondition failed")

// CheckGuards validates execution preconditions defined in the policy. Guards
// default to off; when enabled, a failed guard aborts the run before any file
// is touched.
func CheckGuards(root string, guards GuardsConfig) error {
	if len(guards.RequiredBranches) == 0 && !guards.DisallowDirtyWorktree {
		return nil
	}

	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("failed to open git repository: %w", err)
	}

	if len(guards.RequiredBranches) > 0 {
		head, err := repo.Head()
		if err != nil {
			return fmt.Errorf("failed to get HEAD reference: %w", err)
		}
		branch := head.Name().Short()

		allowed := false
		for _, pattern := range guards.RequiredBranches {
			if ok, err := doublestar.Match(pattern, branch); err == nil && ok {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("current branch %q not in required branches: %v", branch, guards.RequiredBranches)
		}
	}

	if guards.DisallowDirtyWorktree {
		wt, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree: %w", err)
		}
		st, err := wt.Status()
		if err != nil {
			return fmt.Errorf("failed to get worktree status: %w", err)
		}
		if !st.IsClean() {
			return fmt.Errorf("worktree has uncommitted changes (dirty worktree not allowed)")
		}
	}

	return nil
}
