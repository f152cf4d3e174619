package eurlex

import (
	"regexp"
	"strings"
)

// CELEX numbers follow a fixed structure: sector digit, four-digit year, one
// letter for the document type, four-digit sequence (e.g. 32016R0679).
var (
	celexStrict   = regexp.MustCompile(`^[0-9]{5}[A-Z][0-9]{4}$`)
	celexInURL    = regexp.MustCompile(`(?i)CELEX:?([0-9]{5}[A-Z][0-9]{4})`)
	celexURLParam = regexp.MustCompile(`(?i)celex[=:]([^&/]+)`)
	celexInText   = regexp.MustCompile(`\b([0-9]{5}[A-Z][0-9]{4})\b`)
)

// CelexFromURL extracts a CELEX number from a document URL. It first looks
// for the canonical CELEX: form, then falls back to a celex query parameter.
// Fallback matches are only accepted when they satisfy the strict pattern,
// so pagination artifacts and malformed parameters never become identifiers.
// Returns "" when nothing usable is found.
func CelexFromURL(raw string) string {
	if m := celexInURL.FindStringSubmatch(raw); m != nil {
		return normalizeCelex(m[1])
	}
	if m := celexURLParam.FindStringSubmatch(raw); m != nil {
		if id := normalizeCelex(m[1]); id != "" {
			return id
		}
	}
	return ""
}

// CelexFromText extracts a CELEX number from visible text, e.g. a reference
// column on a listing page. Returns "" when no match is found.
func CelexFromText(text string) string {
	if m := celexInText.FindStringSubmatch(text); m != nil {
		return normalizeCelex(m[1])
	}
	return ""
}

// normalizeCelex upper-cases the candidate and validates it against the
// strict structural pattern, returning "" for anything else. Registry keys
// and sink keys must agree, so all accepted identifiers share one casing.
func normalizeCelex(candidate string) string {
	id := strings.ToUpper(strings.TrimSpace(candidate))
	if !celexStrict.MatchString(id) {
		return ""
	}
	return id
}
