package postservice

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	tagRX       = regexp.MustCompile(`<[^>]*>`)
	parenRX     = regexp.MustCompile(`\([^)]*\)`)
	separatorRX = regexp.MustCompile(`[^a-z0-9]+`)
)

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify derives the base slug for a title: markup and parenthesized asides
// are stripped, accents folded away, and runs of anything non-alphanumeric
// collapse into a single underscore. Uniqueness is the allocator's job, not
// this function's.
func Slugify(title string) string {
	s := tagRX.ReplaceAllString(title, "")
	s = parenRX.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}

	s = strings.ToLower(s)
	s = separatorRX.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")

	return s
}

func slugOrFallback(title, fallback string) string {
	if s := Slugify(title); s != "" {
		return s
	}
	return fallback
}
