// Package content implements the post store: it walks a source directory,
// parses YAML frontmatter, and produces validated Post documents ready for
// rendering. Documents that fail validation are reported individually so a
// build can publish the healthy remainder.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/blogbuilder/internal/frontmatter"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
)

var (
	// ErrMissingTitle indicates the required title field is absent from frontmatter.
	ErrMissingTitle = errors.New("frontmatter is missing required field: title")

	// ErrBadDate indicates no usable publication date could be resolved.
	ErrBadDate = errors.New("no usable publication date in frontmatter or file name")

	// ErrDuplicateSlug indicates two documents resolve to the same slug.
	ErrDuplicateSlug = errors.New("duplicate slug")

	// ErrSourceWalkFailed indicates filesystem traversal of the source directory failed.
	ErrSourceWalkFailed = errors.New("source directory walk failed")
)

// Post is a loaded, validated blog document.
type Post struct {
	Slug        string
	Title       string
	Date        time.Time
	Layout      string
	UID         string
	Fields      map[string]any
	Body        []byte
	SourcePath  string
	Fingerprint string
}

// Failure records a single document that could not be loaded.
type Failure struct {
	Path string
	Slug string
	Err  error
}

// Load walks dir and loads every markdown document in it.
//
// Per-document parse problems are returned as Failures, not as an error;
// the error return is reserved for traversal failures that make the whole
// source unreadable.
func Load(dir string) ([]Post, []Failure, error) {
	var (
		posts    []Post
		failures []Failure
	)
	seen := map[string]string{} // slug -> source path

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !isMarkdownFile(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			failures = append(failures, Failure{Path: path, Err: err})
			return nil
		}

		post, err := parsePost(path, data)
		if err != nil {
			slog.Warn("Skipping document", logfields.Path(path), logfields.Error(err))
			failures = append(failures, Failure{Path: path, Slug: post.Slug, Err: err})
			return nil
		}

		if prev, dup := seen[post.Slug]; dup {
			err := fmt.Errorf("%w: %s already used by %s", ErrDuplicateSlug, post.Slug, prev)
			slog.Warn("Skipping document", logfields.Path(path), logfields.Error(err))
			failures = append(failures, Failure{Path: path, Slug: post.Slug, Err: err})
			return nil
		}
		seen[post.Slug] = path

		posts = append(posts, post)
		slog.Debug("Loaded document", logfields.Slug(post.Slug), logfields.File(filepath.Base(path)))
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrSourceWalkFailed, err)
	}

	slog.Info("Content loaded", logfields.Source(dir), logfields.Count(len(posts)), slog.Int("failed", len(failures)))
	return posts, failures, nil
}

// parsePost parses a single document into a Post.
func parsePost(path string, data []byte) (Post, error) {
	fm, body, _, err := frontmatter.Split(data)
	if err != nil {
		return Post{}, err
	}

	fields, err := frontmatter.Parse(fm)
	if err != nil {
		return Post{}, fmt.Errorf("invalid frontmatter yaml: %w", err)
	}

	title := stringField(fields, "title")
	if title == "" {
		return Post{}, ErrMissingTitle
	}

	slug := resolveSlug(fields, filepath.Base(path))

	date, err := resolveDate(fields, filepath.Base(path))
	if err != nil {
		return Post{Slug: slug}, err
	}

	layout := stringField(fields, "layout")
	if layout == "" {
		layout = "post"
	}

	uid := stringField(fields, "uid")
	if uid == "" {
		uid = uuid.NewString()
	}

	return Post{
		Slug:        slug,
		Title:       title,
		Date:        date,
		Layout:      layout,
		UID:         uid,
		Fields:      fields,
		Body:        body,
		SourcePath:  path,
		Fingerprint: mdfp.CalculateFingerprintFromParts(string(fm), string(body)),
	}, nil
}

// resolveDate resolves the publication date from frontmatter, falling back to
// a YYYY-MM-DD file name prefix.
func resolveDate(fields map[string]any, filename string) (time.Time, error) {
	switch v := fields["date"].(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339} {
			if d, err := time.Parse(layout, v); err == nil {
				return d, nil
			}
		}
		return time.Time{}, fmt.Errorf("%w: %q", ErrBadDate, v)
	}

	if d, ok := dateFromFilename(filename); ok {
		return d, nil
	}
	return time.Time{}, ErrBadDate
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}
