// Package git wraps the git CLI for versioning a content directory.
package git

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// LockFileName is the process-safety lock created next to the content.
const LockFileName = ".vellum.lock"

// IsInstalled reports whether a git binary is available on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Client wraps git command execution with a global file-based lock for
// process safety.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	lockPath string
}

// NewClient creates a new git client for the given working directory.
func NewClient(workDir string, logger *slog.Logger) *Client {
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		lockPath: LockFileName,
	}
}

// Lock acquires a file-based lock. It blocks until the lock is acquired.
func (c *Client) Lock() (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}

		if os.IsExist(err) {
			// Held by another process. Spin with a small backoff.
			// TODO: add a timeout so a crashed holder cannot deadlock us.
			time.Sleep(10 * time.Millisecond)
			continue
		}

		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
}

// Run executes a raw git command in the working directory.
// It does NOT acquire the lock; callers manage safety via Lock().
func (c *Client) Run(args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// Init initializes a repository. Safe to re-run on an existing one.
func (c *Client) Init() error {
	_, err := c.Run("init")
	return err
}

// Add stages files.
func (c *Client) Add(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add"}, files...)
	_, err := c.Run(args...)
	return err
}

// Rm removes files from the working tree and the index.
func (c *Client) Rm(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"rm", "-f"}, files...)
	_, err := c.Run(args...)
	return err
}

// Commit records staged changes.
func (c *Client) Commit(msg string) error {
	_, err := c.Run("commit", "-m", msg)
	return err
}

// Status returns the porcelain status of the repo.
func (c *Client) Status() (string, error) {
	return c.Run("status", "--porcelain")
}

// IsRepo reports whether the working directory is inside a git work tree.
func (c *Client) IsRepo() bool {
	out, err := c.Run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// HasRemote reports whether any remote is configured.
func (c *Client) HasRemote() bool {
	out, err := c.Run("remote")
	return err == nil && strings.TrimSpace(out) != ""
}

// Pull rebases local commits on top of the remote branch.
func (c *Client) Pull() error {
	_, err := c.Run("pull", "--rebase", "--autostash")
	return err
}

// Push publishes local commits.
func (c *Client) Push() error {
	_, err := c.Run("push")
	return err
}

// Sync pulls with rebase and pushes. Requires a configured remote.
func (c *Client) Sync() error {
	if !c.HasRemote() {
		return fmt.Errorf("no remote configured")
	}
	if err := c.Pull(); err != nil {
		return err
	}
	return c.Push()
}
