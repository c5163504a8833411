package propagation

import (
	"os"
	"path/filepath"

	"github.com/fulmenhq/versync/pkg/logger"
)

// Recorder stages the files a release touched and records the release as a
// git commit plus annotated tag.
type Recorder struct {
	root   string
	runner Runner
}

// NewRecorder creates a recorder rooted at the workspace directory.
func NewRecorder(root string, runner Runner) *Recorder {
	return &Recorder{root: root, runner: runner}
}

// Record stages every candidate file that exists on disk, then creates the
// commit and annotated tag described by msgs. Candidates are re-probed here
// rather than reusing earlier per-location results because lock regeneration
// may have created or modified files in the meantime.
//
// A file that fails to stage is a warning and staging continues. A failed
// commit or tag makes the whole record a failure, but files already rewritten
// or staged are left as they are: the operator inspects and finishes by hand.
func (r *Recorder) Record(policy *ReleasePolicy, msgs *ReleaseMessages) bool {
	for _, file := range r.candidateFiles(policy) {
		if err := r.runner.Run("git", "add", file); err != nil {
			logger.Warn("Could not stage file", logger.String("file", file), logger.Err(err))
		}
	}

	if err := r.runner.Run("git", "commit", "-m", msgs.Commit); err != nil {
		logger.Error("Failed to create release commit", logger.Err(err))
		return false
	}

	if err := r.runner.Run("git", "tag", "-a", msgs.Tag, "-m", msgs.Annotation); err != nil {
		logger.Error("Failed to create release tag", logger.String("tag", msgs.Tag), logger.Err(err))
		return false
	}

	logger.Info("Recorded release", logger.String("tag", msgs.Tag))
	return true
}

// candidateFiles lists the workspace config, its lockfile, and each package
// location's manifest and lockfile, filtered to files present on disk.
func (r *Recorder) candidateFiles(policy *ReleasePolicy) []string {
	candidates := []string{policy.Workspace.ConfigFile}
	if policy.Workspace.LockFile != "" {
		candidates = append(candidates, policy.Workspace.LockFile)
	}
	for _, loc := range policy.Locations() {
		candidates = append(candidates,
			filepath.Join(loc, manifestName),
			filepath.Join(loc, lockName),
		)
	}

	present := make([]string, 0, len(candidates))
	for _, file := range candidates {
		if _, err := os.Stat(filepath.Join(r.root, file)); err == nil {
			present = append(present, filepath.ToSlash(file))
		}
	}
	return present
}
