package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{Site: config.SiteConfig{Title: "Test Blog"}}
	cfg.Normalize()
	return cfg
}

func writeDoc(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestRun_AllValid_PublishesEverything(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeDoc(t, src, "2015-11-14-nothing.md", "---\ntitle: Nothing\n---\nBody one.\n")
	writeDoc(t, src, "2015-11-13-something.md", "---\ntitle: Something\n---\nBody two.\n")

	result, err := Run(context.Background(), testConfig(), Options{Source: src, Output: out})
	require.NoError(t, err)
	require.NoError(t, result.Err())
	require.Equal(t, 2, result.Published)
	require.False(t, result.Skipped)

	require.FileExists(t, filepath.Join(out, "index.html"))
	require.FileExists(t, filepath.Join(out, "nothing", "index.html"))
	require.FileExists(t, filepath.Join(out, "something", "index.html"))
}

func TestRun_ParseAndRenderFailures_PartialPublish(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeDoc(t, src, "2015-11-14-good.md", "---\ntitle: Good\n---\nFine.\n")
	writeDoc(t, src, "2015-11-13-untitled.md", "---\nlayout: post\n---\nNo title.\n")
	writeDoc(t, src, "2015-11-12-broken.md", "---\ntitle: Broken\n---\n```swift\nunterminated\n")

	result, err := Run(context.Background(), testConfig(), Options{Source: src, Output: out})
	require.NoError(t, err)
	require.Error(t, result.Err())
	require.Equal(t, 1, result.Published)
	require.Len(t, result.Failures, 2)

	require.FileExists(t, filepath.Join(out, "good", "index.html"))
	require.NoFileExists(t, filepath.Join(out, "broken", "index.html"))
}

func TestRun_RecordsRunInStore(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeDoc(t, src, "2015-11-14-nothing.md", "---\ntitle: Nothing\n---\nBody.\n")

	store, err := buildstore.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	result, err := Run(context.Background(), testConfig(), Options{Source: src, Output: out, Store: store})
	require.NoError(t, err)

	runs, err := store.Runs(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, result.RunID, runs[0].ID)
	require.Equal(t, 1, runs[0].Published)

	outcomes, err := store.Outcomes(context.Background(), result.RunID)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.Equal(t, buildstore.StatusPublished, outcomes[0].Status)
	require.NotEmpty(t, outcomes[0].Fingerprint)
}

func TestRun_SkipUnchanged_SecondPassSkips(t *testing.T) {
	src, out := t.TempDir(), t.TempDir()
	writeDoc(t, src, "2015-11-14-nothing.md", "---\ntitle: Nothing\n---\nBody.\n")

	store, err := buildstore.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	opts := Options{Source: src, Output: out, Store: store, SkipUnchanged: true}

	first, err := Run(context.Background(), testConfig(), opts)
	require.NoError(t, err)
	require.False(t, first.Skipped)
	require.Equal(t, 1, first.Published)

	second, err := Run(context.Background(), testConfig(), opts)
	require.NoError(t, err)
	require.True(t, second.Skipped)

	// Changing the content invalidates the skip.
	writeDoc(t, src, "2015-11-14-nothing.md", "---\ntitle: Nothing\n---\nChanged body.\n")
	third, err := Run(context.Background(), testConfig(), opts)
	require.NoError(t, err)
	require.False(t, third.Skipped)
	require.Equal(t, 1, third.Published)
}
