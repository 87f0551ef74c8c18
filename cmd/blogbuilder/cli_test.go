package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func resetCLI() {
	CLI.Config = "config.yaml"
	CLI.Build.Source = ""
	CLI.Build.Output = ""
	CLI.Build.FromGit = ""
	CLI.Build.Branch = ""
	CLI.Build.State = ""
}

func TestRunBuild_AllDocumentsValid_NoError(t *testing.T) {
	resetCLI()
	src, out := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "2015-11-14-nothing.md"),
		[]byte("---\ntitle: Nothing\n---\nBody.\n"), 0o644))

	CLI.Config = filepath.Join(t.TempDir(), "absent.yaml")
	CLI.Build.Source = src
	CLI.Build.Output = out
	CLI.Build.State = filepath.Join(t.TempDir(), "state.db")

	require.NoError(t, runBuild())
	require.FileExists(t, filepath.Join(out, "index.html"))
	require.FileExists(t, filepath.Join(out, "nothing", "index.html"))
}

func TestRunBuild_FailingDocument_ReturnsErrorButPublishesRest(t *testing.T) {
	resetCLI()
	src, out := t.TempDir(), t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "2015-11-14-good.md"),
		[]byte("---\ntitle: Good\n---\nFine.\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "2015-11-13-untitled.md"),
		[]byte("---\nlayout: post\n---\nNo title.\n"), 0o644))

	CLI.Config = filepath.Join(t.TempDir(), "absent.yaml")
	CLI.Build.Source = src
	CLI.Build.Output = out
	CLI.Build.State = filepath.Join(t.TempDir(), "state.db")

	err := runBuild()
	require.Error(t, err, "a failed document must make the build exit non-zero")
	require.FileExists(t, filepath.Join(out, "good", "index.html"))
}

func TestLoadConfigOrDefault_MissingFile_UsesDefaults(t *testing.T) {
	cfg, err := loadConfigOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, "content", cfg.Source)
	require.Equal(t, "site", cfg.Output)
}
