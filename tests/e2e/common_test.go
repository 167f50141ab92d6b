package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildVellumBinary builds the vellum binary into dir and returns its path.
func buildVellumBinary(t *testing.T, dir string) string {
	t.Helper()
	bin := filepath.Join(dir, "vellum.exe")
	buildCmd := exec.Command("go", "build", "-o", bin, "../../cmd/vellum")
	out, err := buildCmd.CombinedOutput()
	require.NoError(t, err, "failed to build vellum:\n%s", out)
	return bin
}

// runCmd executes a command in dir and fails the test on a non-zero exit.
// It returns stdout only, so log lines on stderr cannot leak into
// assertions.
func runCmd(t *testing.T, dir string, stdin string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	require.NoError(t, err, "command %s %v failed in %s:\nstdout: %s\nstderr: %s",
		name, args, dir, stdout.String(), stderr.String())
	return stdout.String()
}

// runCmdExpectFail executes a command expecting a non-zero exit and
// returns its stdout.
func runCmdExpectFail(t *testing.T, dir string, name string, args ...string) string {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	require.Error(t, err, "command %s %v should have failed, output:\n%s", name, args, stdout.String())
	return stdout.String()
}

// configureGitUser gives the repository in dir a commit identity.
func configureGitUser(t *testing.T, dir string) {
	t.Helper()
	runCmd(t, dir, "", "git", "config", "user.email", "vellum@test.local")
	runCmd(t, dir, "", "git", "config", "user.name", "Vellum Tests")
}

// writePostFile drops a raw post file into dir, bypassing the CLI.
func writePostFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
