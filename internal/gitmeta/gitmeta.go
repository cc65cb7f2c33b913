// Package gitmeta captures the current commit hash for run metadata.
// Grounded on the teacher's os/exec shell-out idiom in internal/status.
package gitmeta

import (
	"os/exec"
	"strings"
)

// CommitHash returns the first 12 characters of `git rev-parse HEAD` run in
// dir, or "" if the repo isn't a git checkout or the command fails — this
// is metadata capture, never a fatal error (spec.md §5/§7).
func CommitHash(dir string) string {
	cmd := exec.Command("git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	hash := strings.TrimSpace(string(out))
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return hash
}
