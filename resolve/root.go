package resolve

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const rootTimeout = 5 * time.Second

// ProjectRoot returns the top-level directory of the git repository containing
// dir, or "" when dir is not inside a repository or git is unavailable.
func ProjectRoot(ctx context.Context, dir string) string {
	ctx, cancel := context.WithTimeout(ctx, rootTimeout)
	defer cancel()
	return strings.TrimSpace(runCmd(ctx, dir, "git", "rev-parse", "--show-toplevel"))
}

func runCmd(ctx context.Context, dir string, name string, args ...string) string {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return string(out)
}
