package catalog

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slugify turns a product name into a URL slug: accents are stripped, letters
// lowercased, and every other run of characters becomes a single dash.
// "Café Crème 2.0" becomes "cafe-creme-2-0".
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(plain) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// slugSet hands out unique slugs, suffixing repeats with -2, -3, ...
type slugSet map[string]int

func (s slugSet) unique(slug string) string {
	n := s[slug]
	s[slug] = n + 1
	if n == 0 {
		return slug
	}
	candidate := slug + "-" + strconv.Itoa(n+1)
	for s[candidate] > 0 {
		n++
		candidate = slug + "-" + strconv.Itoa(n+1)
	}
	s[candidate] = 1
	return candidate
}
