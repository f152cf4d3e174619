package eurlex

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EUR-Lex has shipped several listing markups over the years and none of
// them is contractually stable, so every field is resolved through an
// ordered selector chain. The first selector that matches wins; a field no
// selector matches stays empty.
var (
	resultContainerSelectors = []string{"div.SearchResult", "li.result", "div.result-item"}
	titleLinkSelectors       = []string{"a.title", "a.result-title", ".title a", "h3 a", ".document-title a"}
	docTypeSelectors         = []string{".documentType", ".doc-type", ".type", `[class*="type"]`}
	dateSelectors            = []string{".date", ".document-date", ".pub-date", `[class*="date"]`}
	summarySelectors         = []string{".summary", ".description", ".abstract", ".excerpt"}
	celexTextSelectors       = []string{".celex", ".document-number", ".reference"}
)

// ListingParser extracts candidate stubs from search listing pages.
type ListingParser struct {
	base *url.URL
}

// NewListingParser creates a parser that resolves relative hrefs against
// baseURL.
func NewListingParser(baseURL string) (*ListingParser, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	return &ListingParser{base: base}, nil
}

// Parse extracts stubs from one listing page, in document order. Items whose
// CELEX number cannot be resolved from either the link URL or the visible
// text are dropped; the second return value counts them.
func (p *ListingParser) Parse(doc *goquery.Document) ([]CandidateStub, int) {
	items := p.resultItems(doc)
	stubs := make([]CandidateStub, 0, items.Length())
	dropped := 0
	items.Each(func(_ int, item *goquery.Selection) {
		stub, ok := p.parseItem(item)
		if !ok {
			dropped++
			return
		}
		stubs = append(stubs, stub)
	})
	return stubs, dropped
}

// ParseRecent extracts stubs from the recent-legislation feed, which links
// acts directly instead of rendering search-result items.
func (p *ListingParser) ParseRecent(doc *goquery.Document) []CandidateStub {
	var stubs []CandidateStub
	doc.Find(`a[href*="legal-content"]`).Each(func(_ int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		celex := CelexFromURL(href)
		if celex == "" {
			return
		}
		stubs = append(stubs, CandidateStub{
			Celex: celex,
			URL:   p.resolve(href),
			Title: cleanText(link.Text()),
		})
	})
	return stubs
}

func (p *ListingParser) resultItems(doc *goquery.Document) *goquery.Selection {
	for _, sel := range resultContainerSelectors {
		if items := doc.Find(sel); items.Length() > 0 {
			return items
		}
	}
	return doc.Find(resultContainerSelectors[0])
}

func (p *ListingParser) parseItem(item *goquery.Selection) (CandidateStub, bool) {
	var stub CandidateStub

	if link := firstSelection(item, titleLinkSelectors); link != nil {
		stub.Title = cleanText(link.Text())
		if href, ok := link.Attr("href"); ok {
			stub.URL = p.resolve(href)
			stub.Celex = CelexFromURL(href)
		}
	}

	stub.DocumentType = firstText(item, docTypeSelectors)
	stub.DateDocument = firstText(item, dateSelectors)
	stub.Summary = firstText(item, summarySelectors)

	if stub.Celex == "" {
		for _, sel := range celexTextSelectors {
			text := cleanText(item.Find(sel).First().Text())
			if text == "" {
				continue
			}
			if id := CelexFromText(text); id != "" {
				stub.Celex = id
				break
			}
		}
	}

	if stub.Celex == "" {
		return CandidateStub{}, false
	}
	return stub, true
}

func (p *ListingParser) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return p.base.ResolveReference(ref).String()
}

// firstSelection returns the first node matched by the ordered selector
// chain, or nil when none match.
func firstSelection(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		if found := root.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	return nil
}

// firstText returns the cleaned text of the first node matched by the
// ordered selector chain, or "" when none match.
func firstText(root *goquery.Selection, selectors []string) string {
	if found := firstSelection(root, selectors); found != nil {
		return cleanText(found.Text())
	}
	return ""
}

// cleanText collapses runs of whitespace to single spaces and trims the
// result, matching how rendered text reads on the page.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
