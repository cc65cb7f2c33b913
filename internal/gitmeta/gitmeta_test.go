package gitmeta_test

import (
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/gitmeta"
)

func TestCommitHash_NonGitDirectory_ReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "", gitmeta.CommitHash(dir))
}

func TestCommitHash_GitRepo_ReturnsTruncatedHash(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run())
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	run("commit", "--allow-empty", "-q", "-m", "init")

	hash := gitmeta.CommitHash(dir)
	assert.Len(t, hash, 12)
}
