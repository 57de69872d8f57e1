package slug

import (
	"regexp"
	"strings"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// Spanish and Turkish letters seen in product names, folded to ASCII.
	transliterator = strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
		"à", "a", "è", "e", "ì", "i", "ò", "o", "ù", "u",
		"ç", "c", "ğ", "g", "ı", "i", "ö", "o", "ş", "s",
	)
)

// Generate derives a URL-friendly slug from a product name.
//
//   - "Zapatillas Running Niño" → "zapatillas-running-nino"
//   - "  Café  & Té!! " → "cafe-te"
func Generate(name string) string {
	s := transliterator.Replace(strings.ToLower(strings.TrimSpace(name)))
	return strings.Trim(nonAlnum.ReplaceAllString(s, "-"), "-")
}
