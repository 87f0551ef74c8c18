// Package site implements the publisher: it renders loaded posts and writes
// the final site directory (one page per post plus a reverse-chronological
// index). A post that fails to render is skipped and recorded so the rest of
// the site still publishes.
package site

import (
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/markdown"
)

// Page is a successfully published post as it appears in the index.
type Page struct {
	Slug      string
	Title     string
	Date      time.Time
	Permalink string
	Excerpt   string
}

// Failure records a post that could not be rendered or written.
type Failure struct {
	Slug string
	Err  error
}

// Report summarizes a publish run.
type Report struct {
	Pages    []Page
	Failures []Failure
}

// Err returns a non-nil error when any post failed, per the partial-failure
// contract: the site still publishes but the build must exit non-zero.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d documents failed to publish", len(r.Failures), len(r.Failures)+len(r.Pages))
}

// Order sorts posts into index order: publication date descending, ties
// broken by slug ascending. This is a total order, so output is deterministic.
func Order(posts []content.Post) []content.Post {
	ordered := make([]content.Post, len(posts))
	copy(ordered, posts)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date) {
			return ordered[i].Date.After(ordered[j].Date)
		}
		return ordered[i].Slug < ordered[j].Slug
	})
	return ordered
}

// Publish renders every post and writes the site into outDir.
//
// Each post becomes <slug>/index.html; the site index becomes index.html.
// Render failures are recorded on the report and do not abort the run.
func Publish(cfg *config.Config, posts []content.Post, outDir string) (*Report, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	report := &Report{}
	for _, post := range Order(posts) {
		page, err := publishPost(cfg, post, outDir)
		if err != nil {
			slog.Warn("Skipping document", logfields.Slug(post.Slug), logfields.Error(err))
			report.Failures = append(report.Failures, Failure{Slug: post.Slug, Err: err})
			continue
		}
		report.Pages = append(report.Pages, page)
		slog.Debug("Published page", logfields.Slug(post.Slug), logfields.Path(page.Permalink))
	}

	if err := writeIndex(cfg, report.Pages, outDir); err != nil {
		return nil, err
	}

	slog.Info("Site published",
		logfields.Output(outDir),
		logfields.Count(len(report.Pages)),
		slog.Int("failed", len(report.Failures)))
	return report, nil
}

func publishPost(cfg *config.Config, post content.Post, outDir string) (Page, error) {
	body, err := markdown.Render(post.Body)
	if err != nil {
		return Page{}, err
	}

	permalink := "/" + post.Slug + "/"
	page := Page{
		Slug:      post.Slug,
		Title:     post.Title,
		Date:      post.Date,
		Permalink: permalink,
		Excerpt:   extractExcerpt(body),
	}

	pageDir := filepath.Join(outDir, post.Slug)
	if err := os.MkdirAll(pageDir, 0o755); err != nil {
		return Page{}, fmt.Errorf("create page directory: %w", err)
	}

	data := postPageData{
		SiteTitle: cfg.Site.Title,
		Title:     post.Title,
		Date:      post.Date,
		Layout:    post.Layout,
		Permalink: permalink,
		Body:      template.HTML(body),
	}

	out, err := os.Create(filepath.Join(pageDir, "index.html"))
	if err != nil {
		return Page{}, fmt.Errorf("create page file: %w", err)
	}
	defer out.Close()

	if err := postTemplate.Execute(out, data); err != nil {
		return Page{}, fmt.Errorf("execute page template: %w", err)
	}
	return page, nil
}

func writeIndex(cfg *config.Config, pages []Page, outDir string) error {
	out, err := os.Create(filepath.Join(outDir, "index.html"))
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer out.Close()

	data := indexPageData{
		SiteTitle: cfg.Site.Title,
		BaseURL:   cfg.Site.BaseURL,
		Pages:     pages,
	}
	if err := indexTemplate.Execute(out, data); err != nil {
		return fmt.Errorf("execute index template: %w", err)
	}
	return nil
}
