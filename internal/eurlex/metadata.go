package eurlex

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// metadataField wires one LegalAct field to the places it may appear on a
// detail page: data-testid aliases in the modern markup, and a key-cell
// predicate for the legacy metadata table and definition lists.
type metadataField struct {
	testIDs  []string
	keyMatch func(key string) bool
	get      func(*LegalAct) string
	set      func(*LegalAct, string)
}

var metadataFields = []metadataField{
	{
		testIDs:  []string{"subject-matter", "subject", "subjects"},
		keyMatch: func(k string) bool { return strings.Contains(k, "subject") },
		get:      func(a *LegalAct) string { return a.SubjectMatter },
		set:      func(a *LegalAct, v string) { a.SubjectMatter = v },
	},
	{
		testIDs: []string{"directory-code", "directory", "classification"},
		keyMatch: func(k string) bool {
			return strings.Contains(k, "directory") || strings.Contains(k, "classification")
		},
		get: func(a *LegalAct) string { return a.DirectoryCode },
		set: func(a *LegalAct, v string) { a.DirectoryCode = v },
	},
	{
		testIDs: []string{"date-force", "entry-into-force", "force-date"},
		keyMatch: func(k string) bool {
			return strings.Contains(k, "force") && strings.Contains(k, "date")
		},
		get: func(a *LegalAct) string { return a.DateForce },
		set: func(a *LegalAct, v string) { a.DateForce = v },
	},
	{
		testIDs:  []string{"date-end-validity", "end-validity", "validity-end"},
		keyMatch: func(k string) bool { return strings.Contains(k, "validity") },
		get:      func(a *LegalAct) string { return a.DateEndValidity },
		set:      func(a *LegalAct, v string) { a.DateEndValidity = v },
	},
	{
		testIDs: []string{"keywords", "descriptors", "terms"},
		keyMatch: func(k string) bool {
			return strings.Contains(k, "keyword") || strings.Contains(k, "descriptor")
		},
		get: func(a *LegalAct) string { return a.Keywords },
		set: func(a *LegalAct, v string) { a.Keywords = v },
	},
	{
		testIDs:  []string{"legal-basis", "basis", "legal-base"},
		keyMatch: func(k string) bool { return strings.Contains(k, "basis") },
		get:      func(a *LegalAct) string { return a.LegalBasis },
		set:      func(a *LegalAct, v string) { a.LegalBasis = v },
	},
	{
		testIDs:  []string{"procedure", "legislative-procedure"},
		keyMatch: func(k string) bool { return strings.Contains(k, "procedure") },
		get:      func(a *LegalAct) string { return a.Procedure },
		set:      func(a *LegalAct, v string) { a.Procedure = v },
	},
	{
		testIDs: []string{"addressee", "addressed-to"},
		keyMatch: func(k string) bool {
			return strings.Contains(k, "addressee") || strings.Contains(k, "addressed")
		},
		get: func(a *LegalAct) string { return a.Addressee },
		set: func(a *LegalAct, v string) { a.Addressee = v },
	},
}

// ExtractMetadata fills act's metadata fields from a detail page. Three
// markup generations are scanned in order: data-testid attributes, the
// metadata table, and dt/dd definition lists. Extraction for a field stops
// at its first non-empty hit, so an older layout further down the page
// never overwrites a value the current layout already provided.
func ExtractMetadata(doc *goquery.Document, act *LegalAct) {
	for i := range metadataFields {
		f := &metadataFields[i]
		if f.get(act) != "" {
			continue
		}
		if v := metadataByTestID(doc, f.testIDs); v != "" {
			f.set(act, v)
		}
	}

	doc.Find("table.metadata tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() != 2 {
			return
		}
		applyMetadataPair(act, cleanText(cells.Eq(0).Text()), cleanText(cells.Eq(1).Text()))
	})

	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		dd := dt.NextAllFiltered("dd").First()
		if dd.Length() == 0 {
			return
		}
		applyMetadataPair(act, cleanText(dt.Text()), cleanText(dd.Text()))
	})
}

func metadataByTestID(doc *goquery.Document, testIDs []string) string {
	for _, id := range testIDs {
		sel := fmt.Sprintf(`dd[data-testid=%q], span[data-testid=%q], div[data-testid=%q]`, id, id, id)
		if text := cleanText(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// applyMetadataPair assigns a key/value pair from a table row or definition
// list to the first still-empty field whose predicate matches the key.
func applyMetadataPair(act *LegalAct, key, value string) {
	if value == "" {
		return
	}
	key = strings.ToLower(key)
	for i := range metadataFields {
		f := &metadataFields[i]
		if f.get(act) != "" {
			continue
		}
		if f.keyMatch(key) {
			f.set(act, value)
			return
		}
	}
}
