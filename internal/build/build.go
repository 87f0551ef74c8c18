// Package build orchestrates one load-render-publish pass and records its
// outcome. Both the one-shot CLI build and the daemon rebuild path run
// through here.
package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/blogbuilder/internal/buildstore"
	"git.home.luguber.info/inful/blogbuilder/internal/config"
	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/logfields"
	"git.home.luguber.info/inful/blogbuilder/internal/site"
)

// Options configures one build pass.
type Options struct {
	Source string
	Output string

	// Store records the run when non-nil and drives SkipUnchanged.
	Store *buildstore.Store

	// SkipUnchanged skips the publish entirely when every document's
	// fingerprint matches the last successful publish. Used by the daemon
	// rebuild path; one-shot builds always publish.
	SkipUnchanged bool
}

// Failure is a per-document failure surfaced in the result.
type Failure struct {
	Slug   string
	Path   string
	Reason string
}

// Result summarizes a completed (or skipped) build pass.
type Result struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Skipped   bool
	Published int
	Failures  []Failure
}

// Err returns non-nil when any document failed, so callers can exit non-zero
// while the rest of the site still published.
func (r *Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("build completed with %d failed document(s)", len(r.Failures))
}

// Run executes one build pass.
func Run(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	result := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	slog.Info("Starting build", logfields.RunID(result.RunID), logfields.Source(opts.Source), logfields.Output(opts.Output))

	posts, parseFailures, err := content.Load(opts.Source)
	if err != nil {
		return nil, err
	}
	for _, f := range parseFailures {
		result.Failures = append(result.Failures, Failure{Slug: f.Slug, Path: f.Path, Reason: f.Err.Error()})
	}

	if opts.SkipUnchanged && opts.Store != nil && len(result.Failures) == 0 && allUnchanged(ctx, opts.Store, posts) {
		result.Skipped = true
		result.Duration = time.Since(result.StartedAt)
		slog.Info("Build skipped, content unchanged", logfields.RunID(result.RunID))
		return result, nil
	}

	report, err := site.Publish(cfg, posts, opts.Output)
	if err != nil {
		return nil, err
	}
	result.Published = len(report.Pages)
	for _, f := range report.Failures {
		result.Failures = append(result.Failures, Failure{Slug: f.Slug, Reason: f.Err.Error()})
	}
	result.Duration = time.Since(result.StartedAt)

	if opts.Store != nil {
		if err := record(ctx, opts.Store, result, posts, report); err != nil {
			slog.Warn("Failed to record build run", logfields.RunID(result.RunID), logfields.Error(err))
		}
	}

	slog.Info("Build finished",
		logfields.RunID(result.RunID),
		slog.Int("published", result.Published),
		slog.Int("failed", len(result.Failures)),
		logfields.DurationMS(float64(result.Duration.Milliseconds())))
	return result, nil
}

// allUnchanged reports whether every post's fingerprint matches its last
// successful publish.
func allUnchanged(ctx context.Context, store *buildstore.Store, posts []content.Post) bool {
	for _, p := range posts {
		last, err := store.LastFingerprint(ctx, p.Slug)
		if errors.Is(err, buildstore.ErrNoFingerprint) {
			return false
		}
		if err != nil {
			slog.Warn("Fingerprint lookup failed", logfields.Slug(p.Slug), logfields.Error(err))
			return false
		}
		if last != p.Fingerprint {
			return false
		}
	}
	return true
}

func record(ctx context.Context, store *buildstore.Store, result *Result, posts []content.Post, report *site.Report) error {
	fingerprints := make(map[string]string, len(posts))
	for _, p := range posts {
		fingerprints[p.Slug] = p.Fingerprint
	}

	var outcomes []buildstore.Outcome
	for _, page := range report.Pages {
		outcomes = append(outcomes, buildstore.Outcome{
			Slug:        page.Slug,
			Status:      buildstore.StatusPublished,
			Fingerprint: fingerprints[page.Slug],
		})
	}
	for _, f := range result.Failures {
		outcomes = append(outcomes, buildstore.Outcome{
			Slug:   f.Slug,
			Status: buildstore.StatusFailed,
			Reason: f.Reason,
		})
	}

	run := buildstore.Run{
		ID:        result.RunID,
		StartedAt: result.StartedAt,
		Duration:  result.Duration,
		Published: result.Published,
		Failed:    len(result.Failures),
	}
	return store.RecordRun(ctx, run, outcomes)
}
