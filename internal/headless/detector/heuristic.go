// Package detector decides when a fetched detail page needs a headless
// render.
package detector

import (
	"bytes"
	"strings"

	"github.com/JakeFAU/eurlex-harvester/internal/eurlex"
)

// Heuristic implements a handful of rule-based promotions. EUR-Lex serves
// documents server-side, so promotion is the exception: it fires on empty
// bodies and on short script shells that carry no document text.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a new detector.
func NewHeuristic(threshold int) *Heuristic {
	if threshold == 0 {
		threshold = 2048
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

// wallMarkers identify script shells in bodies already below the length
// threshold. Full documents with a noscript banner must not promote.
var wallMarkers = [][]byte{
	[]byte("enable javascript"),
	[]byte("javascript is disabled"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
	[]byte("data-reactroot"),
}

// ShouldPromote decides whether a headless render is required.
func (h *Heuristic) ShouldPromote(res eurlex.FetchResult) bool {
	if res.StatusCode != 200 {
		return false
	}
	body := res.Body
	if len(body) == 0 {
		return true
	}
	if len(body) >= h.BodyLengthThreshold {
		return false
	}
	if scriptDensityHigh(body) {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range wallMarkers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	scriptCoverage := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			// Treat the rest of the document as part of the malformed script.
			scriptCoverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		relativeEnd := strings.Index(lower[contentStart:], closeTag)
		var nextSearch int
		if relativeEnd == -1 {
			// Script tag never closes; count the rest.
			nextSearch = total
		} else {
			nextSearch = contentStart + relativeEnd + len(closeTag)
		}

		scriptCoverage += nextSearch - start
		searchPos = nextSearch
	}

	if scriptCoverage == 0 {
		return false
	}
	return scriptCoverage*100/total >= 25
}
