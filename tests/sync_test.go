package tests

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vellumkit/vellum"
	"github.com/vellumkit/vellum/pkg/core"
)

// TestSyncLibrary drives vellum.Sync against a local bare remote:
// remote changes are pulled in, local commits are pushed out.
func TestSyncLibrary(t *testing.T) {
	tempDir := t.TempDir()

	// "Remote": a bare repository.
	remotePath := filepath.Join(tempDir, "remote.git")
	require.NoError(t, os.Mkdir(remotePath, 0755))
	runGit(t, tempDir, "init", "--bare", remotePath)

	// "Origin": a writer used to seed and later mutate the remote.
	originPath := filepath.Join(tempDir, "origin")
	require.NoError(t, os.Mkdir(originPath, 0755))
	runGit(t, originPath, "init")
	configureGitUser(t, originPath)
	runGit(t, originPath, "remote", "add", "origin", remotePath)

	require.NoError(t, os.WriteFile(filepath.Join(originPath, "README.md"), []byte("Initial"), 0644))
	runGit(t, originPath, "add", ".")
	runGit(t, originPath, "commit", "-m", "Initial commit")
	runGit(t, originPath, "branch", "-M", "main")
	runGit(t, originPath, "push", "-u", "origin", "main")

	// A bare init leaves HEAD on master; point it at main.
	runGit(t, remotePath, "symbolic-ref", "HEAD", "refs/heads/main")

	// "Local": the site under test.
	localPath := filepath.Join(tempDir, "local")
	runGit(t, tempDir, "clone", remotePath, localPath)
	configureGitUser(t, localPath)

	// 1. Sync with nothing to do should succeed.
	require.NoError(t, vellum.Sync(localPath))

	// 2. Remote change.
	require.NoError(t, os.WriteFile(filepath.Join(originPath, "remote-post.md"), []byte("---\ntitle: Remote\n---\nremote change\n"), 0644))
	runGit(t, originPath, "add", ".")
	runGit(t, originPath, "commit", "-m", "Remote change")
	runGit(t, originPath, "push")

	// 3. Local change through the service (commits on save).
	service, err := vellum.New(localPath, vellum.WithMustExist(true))
	require.NoError(t, err)
	require.NoError(t, service.SavePost(context.Background(), "local-post", "local content\n", core.Metadata{"title": "Local"}))

	// 4. Sync: pulls remote-post, pushes local-post.
	require.NoError(t, vellum.Sync(localPath))

	require.FileExists(t, filepath.Join(localPath, "remote-post.md"))

	runGit(t, originPath, "pull")
	require.FileExists(t, filepath.Join(originPath, "local-post.md"))
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed:\n%s", args, out)
}

func configureGitUser(t *testing.T, dir string) {
	t.Helper()
	runGit(t, dir, "config", "user.email", "vellum@test.local")
	runGit(t, dir, "config", "user.name", "Vellum Tests")
}
