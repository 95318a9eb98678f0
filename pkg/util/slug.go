package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that NFD does not decompose into base + mark.
var slugReplacer = strings.NewReplacer(
	"ß", "ss",
	"æ", "ae",
	"ø", "o",
	"œ", "oe",
	"ł", "l",
	"đ", "d",
	"&", " and ",
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const MaxSlugLength = 60

// Slugify lower-cases s, strips diacritics and collapses every run of
// non-alphanumerics into a single hyphen. "Gasthaus Zur Post" -> "gasthaus-zur-post".
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, slugReplacer.Replace(strings.ToLower(s)))
	if err != nil {
		folded = strings.ToLower(s)
	}

	var b strings.Builder
	pendingHyphen := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}

	slug := b.String()
	if len(slug) > MaxSlugLength {
		slug = strings.TrimRight(slug[:MaxSlugLength], "-")
	}
	return slug
}

// IsValidSlug reports whether s is already in canonical slug form.
func IsValidSlug(s string) bool {
	return len(s) <= MaxSlugLength && slugPattern.MatchString(s)
}
