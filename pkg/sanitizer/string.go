package sanitizer

import (
	"net/url"
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else if unicode.IsControl(r) {
			continue
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeCategory collapses whitespace and upper-cases the first letter.
func NormalizeCategory(category string) string {
	category = TrimAndNormalize(category)
	if category == "" {
		return ""
	}
	runes := []rune(category)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// NormalizeSKU upper-cases a stock keeping unit and drops inner whitespace.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.Join(strings.Fields(sku), ""))
}

// NormalizeRef trims an opaque external reference such as a customer id.
func NormalizeRef(ref string) string {
	return strings.TrimFunc(ref, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
}

// NormalizeURL lower-cases the host of an absolute http(s) URL and forces
// https. Anything else yields "".
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	u.Scheme = "https"
	u.Host = strings.ToLower(u.Host)
	return strings.TrimSuffix(u.String(), "/")
}
