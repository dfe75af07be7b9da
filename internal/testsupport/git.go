package testsupport

import (
	"os/exec"
	"testing"
)

// RequireGit skips the test when git is not on PATH.
func RequireGit(t testing.TB) string {
	t.Helper()
	path, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not available")
	}
	return path
}
