// Package gitsource fetches blog content from a git repository into an
// ephemeral workspace, so a build can run against a remote content source.
package gitsource

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

// Workspace is an ephemeral checkout directory for a remote content source.
type Workspace struct {
	dir string
}

// NewWorkspace creates a timestamped workspace directory under the system
// temp dir.
func NewWorkspace() (*Workspace, error) {
	dir := filepath.Join(os.TempDir(), fmt.Sprintf("blogbuilder-%s", time.Now().Format("20060102-150405")))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace directory: %w", err)
	}
	slog.Debug("Created workspace", logfields.Path(dir))
	return &Workspace{dir: dir}, nil
}

// Path returns the workspace directory.
func (w *Workspace) Path() string { return w.dir }

// Cleanup removes the workspace directory and everything in it.
func (w *Workspace) Cleanup() error {
	slog.Debug("Cleaning up workspace", logfields.Path(w.dir))
	return os.RemoveAll(w.dir)
}

// Clone clones the content repository into the workspace and returns the
// checkout path. A non-empty branch selects a single branch.
func (w *Workspace) Clone(url, branch string) (string, error) {
	repoPath := filepath.Join(w.dir, "content-repo")
	slog.Info("Cloning content repository", logfields.URL(url), logfields.Path(repoPath))

	if err := os.RemoveAll(repoPath); err != nil {
		return "", fmt.Errorf("remove existing checkout: %w", err)
	}

	opts := &git.CloneOptions{URL: url}
	if branch != "" {
		opts.ReferenceName = plumbing.ReferenceName("refs/heads/" + branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainClone(repoPath, false, opts); err != nil {
		return "", fmt.Errorf("clone %s: %w", url, err)
	}

	slog.Info("Content repository cloned", logfields.URL(url))
	return repoPath, nil
}
