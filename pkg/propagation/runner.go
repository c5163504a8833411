package propagation

import (
	"io"
	"os"
	"os/exec"
)

// Runner abstracts external command execution (git, lock regeneration) so the
// propagation flow can be exercised without a real repository or toolchain.
// Implementations must block until the command completes.
type Runner interface {
	Run(name string, args ...string) error
}

// ExecRunner runs commands through os/exec with output streamed to the
// caller's writers. The zero value runs in the current directory and streams
// to stdout/stderr.
type ExecRunner struct {
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes the named command and waits for it to finish.
func (r *ExecRunner) Run(name string, args ...string) error {
	cmd := exec.Command(name, args...) // #nosec G204 - command names come from the release policy, not remote input
	cmd.Dir = r.Dir
	cmd.Stdout = r.Stdout
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}
