package eurlex

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func extractFrom(t *testing.T, html string) LegalAct {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	act := LegalAct{Celex: "32016R0679"}
	ExtractMetadata(doc, &act)
	return act
}

func TestExtractMetadataFromTestIDs(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<dd data-testid="subject-matter">Data protection</dd>
<span data-testid="directory-code">13.30.99.00</span>
<div data-testid="date-force">25/05/2018</div>
<dd data-testid="date-end-validity">No end date</dd>
<span data-testid="keywords">personal data, processing</span>
<dd data-testid="legal-basis">TFEU Article 16</dd>
<dd data-testid="procedure">2012/0011/COD</dd>
<dd data-testid="addressee">Member States</dd>
</body></html>`
	act := extractFrom(t, html)

	assert.Equal(t, "Data protection", act.SubjectMatter)
	assert.Equal(t, "13.30.99.00", act.DirectoryCode)
	assert.Equal(t, "25/05/2018", act.DateForce)
	assert.Equal(t, "No end date", act.DateEndValidity)
	assert.Equal(t, "personal data, processing", act.Keywords)
	assert.Equal(t, "TFEU Article 16", act.LegalBasis)
	assert.Equal(t, "2012/0011/COD", act.Procedure)
	assert.Equal(t, "Member States", act.Addressee)
}

func TestExtractMetadataTestIDAliases(t *testing.T) {
	t.Parallel()

	// Older markup uses the short alias forms.
	html := `<html><body>
<span data-testid="subjects">Data protection</span>
<span data-testid="classification">13.30.99.00</span>
<span data-testid="entry-into-force">25/05/2018</span>
<span data-testid="descriptors">personal data</span>
<span data-testid="basis">TFEU Article 16</span>
</body></html>`
	act := extractFrom(t, html)

	assert.Equal(t, "Data protection", act.SubjectMatter)
	assert.Equal(t, "13.30.99.00", act.DirectoryCode)
	assert.Equal(t, "25/05/2018", act.DateForce)
	assert.Equal(t, "personal data", act.Keywords)
	assert.Equal(t, "TFEU Article 16", act.LegalBasis)
}

func TestExtractMetadataFromTable(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<table class="metadata">
<tr><th>Subject matter</th><td>Data protection</td></tr>
<tr><th>Directory code</th><td>13.30.99.00</td></tr>
<tr><th>Date of entry into force</th><td>25/05/2018</td></tr>
<tr><th>Date of end of validity</th><td>No end date</td></tr>
<tr><th>Keywords</th><td>personal data</td></tr>
<tr><th>Legal basis</th><td>TFEU Article 16</td></tr>
<tr><th>Procedure number</th><td>2012/0011/COD</td></tr>
<tr><th>Addressed to</th><td>Member States</td></tr>
<tr><th>Unrelated row spanning</th></tr>
</table>
</body></html>`
	act := extractFrom(t, html)

	assert.Equal(t, "Data protection", act.SubjectMatter)
	assert.Equal(t, "13.30.99.00", act.DirectoryCode)
	assert.Equal(t, "25/05/2018", act.DateForce)
	assert.Equal(t, "No end date", act.DateEndValidity)
	assert.Equal(t, "personal data", act.Keywords)
	assert.Equal(t, "TFEU Article 16", act.LegalBasis)
	assert.Equal(t, "2012/0011/COD", act.Procedure)
	assert.Equal(t, "Member States", act.Addressee)
}

func TestExtractMetadataFromDefinitionList(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<dl>
<dt>Subject matter</dt><dd>Data protection</dd>
<dt>Legal basis</dt><dd>TFEU Article 16</dd>
<dt>Procedure</dt><dd>2012/0011/COD</dd>
</dl>
</body></html>`
	act := extractFrom(t, html)

	assert.Equal(t, "Data protection", act.SubjectMatter)
	assert.Equal(t, "TFEU Article 16", act.LegalBasis)
	assert.Equal(t, "2012/0011/COD", act.Procedure)
	assert.Empty(t, act.Keywords)
}

// TestExtractMetadataFirstHitWins pins the layer precedence: a value from the
// modern markup must never be overwritten by the legacy table further down
// the page.
func TestExtractMetadataFirstHitWins(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<dd data-testid="subject-matter">Data protection</dd>
<table class="metadata">
<tr><th>Subject matter</th><td>Stale table value</td></tr>
<tr><th>Legal basis</th><td>TFEU Article 16</td></tr>
</table>
<dl>
<dt>Subject matter</dt><dd>Even staler value</dd>
<dt>Keywords</dt><dd>personal data</dd>
</dl>
</body></html>`
	act := extractFrom(t, html)

	assert.Equal(t, "Data protection", act.SubjectMatter)
	assert.Equal(t, "TFEU Article 16", act.LegalBasis)
	assert.Equal(t, "personal data", act.Keywords)
}

func TestExtractMetadataKeepsFirstTableMatch(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<table class="metadata">
<tr><th>Subject matter</th><td>Data protection</td></tr>
<tr><th>Subject matter</th><td>Duplicate row</td></tr>
</table>
</body></html>`
	act := extractFrom(t, html)
	assert.Equal(t, "Data protection", act.SubjectMatter)
}

func TestExtractMetadataIgnoresEmptyValues(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<dd data-testid="subject-matter">   </dd>
<table class="metadata">
<tr><th>Subject matter</th><td>Data protection</td></tr>
</table>
</body></html>`
	act := extractFrom(t, html)
	assert.Equal(t, "Data protection", act.SubjectMatter)
}
