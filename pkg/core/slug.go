package core

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks decomposes accented characters and strips the combining marks,
// so "Café" slugifies to "cafe".
var foldMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives a URL-safe slug from a post title: accents folded,
// lowercased, and every run of other characters collapsed to one hyphen.
func Slugify(title string) string {
	folded, _, err := transform.String(foldMarks, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	b.Grow(len(folded))
	hyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			hyphen = false
		default:
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// DatedSlug prefixes the slugified title with the date in the
// YYYY-MM-DD-title convention used by most static site generators.
func DatedSlug(t time.Time, title string) string {
	return t.Format("2006-01-02") + "-" + Slugify(title)
}
