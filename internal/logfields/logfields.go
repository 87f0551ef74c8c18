package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySlug       = "slug"
	KeyPath       = "path"
	KeyFile       = "file"
	KeySource     = "source"
	KeyOutput     = "output"
	KeyURL        = "url"
	KeyRunID      = "run_id"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyReason     = "reason"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Slug(s string) slog.Attr         { return slog.String(KeySlug, s) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Source(s string) slog.Attr       { return slog.String(KeySource, s) }
func Output(o string) slog.Attr       { return slog.String(KeyOutput, o) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Reason(r string) slog.Attr       { return slog.String(KeyReason, r) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
