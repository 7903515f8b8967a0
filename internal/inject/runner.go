package inject

import (
	"context"
	"os/exec"
	"strings"
)

// ExecRunner implements CommandRunner using os/exec against the real tmux
// binary. It is the production CommandRunner; tests use FakeRunner instead.
type ExecRunner struct{}

// Run executes name with args and returns its combined, trimmed output.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(out)), err
}
