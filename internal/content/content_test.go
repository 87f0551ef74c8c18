package content

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeDoc(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_ValidDocument_PopulatesPost(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "2015-11-14-nothing.md", "---\ntitle: Nothing\nlayout: post\n---\nHello.\n")

	posts, failures, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Len(t, posts, 1)

	p := posts[0]
	require.Equal(t, "nothing", p.Slug)
	require.Equal(t, "Nothing", p.Title)
	require.Equal(t, "post", p.Layout)
	require.Equal(t, time.Date(2015, 11, 14, 0, 0, 0, 0, time.UTC), p.Date.UTC())
	require.Equal(t, []byte("Hello.\n"), p.Body)
	require.NotEmpty(t, p.UID)
	require.NotEmpty(t, p.Fingerprint)
}

func TestLoad_MissingTitle_ReportsParseFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "2015-11-14-untitled.md", "---\nlayout: post\n---\nBody.\n")

	posts, failures, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, posts)
	require.Len(t, failures, 1)
	require.True(t, errors.Is(failures[0].Err, ErrMissingTitle))
}

func TestLoad_UnclosedFrontmatter_ReportsParseFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "broken.md", "---\ntitle: Broken\nBody without closing delimiter.\n")

	posts, failures, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, posts)
	require.Len(t, failures, 1)
}

func TestLoad_DateFromFrontmatterString_Parses(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "nothing.md", "---\ntitle: Nothing\ndate: \"2015-11-14\"\n---\nBody.\n")

	posts, failures, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Len(t, posts, 1)
	require.Equal(t, 2015, posts[0].Date.Year())
}

func TestLoad_NoDateAnywhere_ReportsParseFailure(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "undated.md", "---\ntitle: Undated\n---\nBody.\n")

	posts, failures, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, posts)
	require.Len(t, failures, 1)
	require.True(t, errors.Is(failures[0].Err, ErrBadDate))
}

func TestLoad_DuplicateSlug_FirstWins(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "2015-11-13-same.md", "---\ntitle: First\n---\nA.\n")
	writeDoc(t, dir, "2015-11-14-same.md", "---\ntitle: Second\n---\nB.\n")

	posts, failures, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Len(t, failures, 1)
	require.True(t, errors.Is(failures[0].Err, ErrDuplicateSlug))
	require.Equal(t, "First", posts[0].Title)
}

func TestLoad_SkipsHiddenAndNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, ".draft.md", "---\ntitle: Draft\n---\nX.\n")
	writeDoc(t, dir, "notes.txt", "not markdown")
	writeDoc(t, dir, "2015-11-14-real.md", "---\ntitle: Real\n---\nY.\n")

	posts, failures, err := Load(dir)
	require.NoError(t, err)
	require.Empty(t, failures)
	require.Len(t, posts, 1)
	require.Equal(t, "real", posts[0].Slug)
}

func TestLoad_ExplicitUIDPreserved(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "2015-11-14-n.md", "---\ntitle: N\nuid: abc-123\n---\nZ.\n")

	posts, _, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	require.Equal(t, "abc-123", posts[0].UID)
}

func TestLoad_IdenticalContent_IdenticalFingerprint(t *testing.T) {
	dir := t.TempDir()
	doc := "---\ntitle: Same\n---\nBody text.\n"
	writeDoc(t, dir, "2015-11-14-a.md", doc)
	writeDoc(t, dir, "2015-11-14-b.md", "---\ntitle: Same\n---\nOther body.\n")

	posts, _, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	require.NotEqual(t, posts[0].Fingerprint, posts[1].Fingerprint)

	// Re-loading the same file yields a stable fingerprint.
	again, _, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, posts[0].Fingerprint, again[0].Fingerprint)
}

func TestSlugify_FoldsUnicodeAndCollapsesSeparators(t *testing.T) {
	cases := map[string]string{
		"Hello, World!":        "hello-world",
		"Café au lait":         "cafe-au-lait",
		"  spaces   around  ":  "spaces-around",
		"Objective-C & Swift":  "objective-c-swift",
		"nil/Optional":         "nil-optional",
		"UPPER_case--mixed":    "upper-case-mixed",
	}
	for in, want := range cases {
		require.Equal(t, want, Slugify(in), "input %q", in)
	}
}

func TestResolveSlug_FrontmatterOverridesFilename(t *testing.T) {
	slug := resolveSlug(map[string]any{"slug": "Custom Slug"}, "2015-11-14-other.md")
	require.Equal(t, "custom-slug", slug)
}
