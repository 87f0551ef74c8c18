package content

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var datePrefixRE = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})-`)

// resolveSlug picks the slug from frontmatter when present, otherwise derives
// it from the file name (minus extension and a leading YYYY-MM-DD- prefix).
func resolveSlug(fields map[string]any, filename string) string {
	if s := stringField(fields, "slug"); s != "" {
		return Slugify(s)
	}

	base := strings.TrimSuffix(filename, filepath.Ext(filename))
	base = datePrefixRE.ReplaceAllString(base, "")
	return Slugify(base)
}

// dateFromFilename extracts a date from the classic YYYY-MM-DD-slug.md layout.
func dateFromFilename(filename string) (time.Time, bool) {
	m := datePrefixRE.FindStringSubmatch(filepath.Base(filename))
	if m == nil {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// slugFold strips diacritics: decompose, drop combining marks, recompose.
var slugFold = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify normalizes a string into a URL-safe slug: unicode-folded,
// lowercased, with non-alphanumeric runs collapsed to single hyphens.
func Slugify(s string) string {
	folded, _, err := transform.String(slugFold, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
