package seo

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func perfectPage() string {
	return fmt.Sprintf(`<!doctype html>
<html><head>
<meta charset="utf-8">
<title>%s</title>
<meta name="description" content="%s">
<meta name="viewport" content="width=device-width">
<meta property="og:title" content="Acme">
<link rel="canonical" href="https://acme.example/">
<script type="application/ld+json">{"@context":"https://schema.org","@type":"Organization"}</script>
</head><body>
<h1>Acme Industrial Supplies</h1>
<h2>Products</h2>
<img src="/hero.jpg" alt="Warehouse">
<p>%s</p>
</body></html>`, strings.Repeat("t", 55), strings.Repeat("d", 155), strings.Repeat("word ", 320))
}

func TestAnalyze_PerfectPage(t *testing.T) {
	res := Analyze(perfectPage(), "https://acme.example/")

	assert.Equal(t, 100, res.Score)
	assert.Empty(t, res.Issues)
	assert.Empty(t, res.Recommendations)
	assert.True(t, res.Title.Optimal)
	assert.True(t, res.MetaDescription.Optimal)
	assert.True(t, res.Headings.HasProperHierarchy)
	assert.Equal(t, []string{"Organization"}, res.Technical.StructuredDataTypes)
	assert.Equal(t, ReadabilityGood, res.Content.ReadabilityScore)
	assert.Equal(t, "https://acme.example/", res.Technical.CanonicalURL)
	assert.True(t, res.Technical.HasCharset)
}

func TestAnalyze_EmptyDocument(t *testing.T) {
	res := Analyze("", "")

	assert.Equal(t, 24, res.Score)
	assert.Len(t, res.Issues, 9)
	assert.Equal(t, []string{
		"Füge einen aussagekräftigen Title-Tag mit 50-60 Zeichen hinzu",
		"Erstelle eine Meta-Description mit 150-160 Zeichen",
		"Verwende genau eine H1-Überschrift pro Seite",
		"Implementiere strukturierte Daten (Schema.org) für Rich Snippets",
		"Füge Open Graph Tags für besseres Social Media Sharing hinzu",
	}, res.Recommendations)
	assert.Equal(t, ReadabilityPoor, res.Content.ReadabilityScore)
	assert.NotNil(t, res.Headings.HeadingStructure)
}

func TestAnalyze_ScoreClampedAtZero(t *testing.T) {
	var b strings.Builder
	for range 30 {
		b.WriteString(`<h1>x</h1>`)
	}
	res := Analyze(b.String(), "")
	assert.GreaterOrEqual(t, res.Score, 0)
	assert.LessOrEqual(t, res.Score, 100)
}

func TestAnalyze_TitleAndMetaLengths(t *testing.T) {
	html := `<title>Kurz &amp; gut</title><meta content="short" name="description">`

	res := Analyze(html, "")

	assert.Equal(t, "Kurz & gut", res.Title.Content)
	assert.Equal(t, 10, res.Title.Length)
	assert.False(t, res.Title.HasKeywords)
	assert.True(t, res.MetaDescription.Exists)
	assert.Equal(t, "short", res.MetaDescription.Content)

	var msgs []string
	for _, is := range res.Issues {
		msgs = append(msgs, is.Message)
	}
	assert.Contains(t, msgs, "Title zu kurz (10 Zeichen)")
	assert.Contains(t, msgs, "Meta-Description zu kurz (5 Zeichen)")
}

func TestAnalyze_TitleTooLong(t *testing.T) {
	res := Analyze("<title>"+strings.Repeat("ü", 71)+"</title>", "")

	assert.Equal(t, 71, res.Title.Length)
	assert.Equal(t, Issue{Severity: Warning, Category: "Title", Message: "Title zu lang (71 Zeichen)"}, res.Issues[0])
}

func TestAnalyze_Links(t *testing.T) {
	html := `<a href="/about">About</a>
<a href="#top">Top</a>
<a href="https://example.com/x">Self</a>
<a href="https://other.org" rel="nofollow">Other</a>
<a href="">Empty</a>
<a href="javascript:void(0)">JS</a>`

	res := Analyze(html, "https://example.com/page")
	assert.Equal(t, 3, res.Links.Internal)
	assert.Equal(t, 1, res.Links.External)
	assert.Equal(t, 1, res.Links.Nofollow)
	assert.Equal(t, []string{"empty", "javascript:void(0)"}, res.Links.BrokenSuspects)

	noHost := Analyze(html, "")
	assert.Equal(t, 2, noHost.Links.Internal)
	assert.Equal(t, 2, noHost.Links.External)
}

func TestAnalyze_HeadingOutline(t *testing.T) {
	html := "<h1>Short</h1><h2>" + strings.Repeat("a", 60) + "</h2><h3>Hi <em>there</em></h3>"

	res := Analyze(html, "")

	require.Len(t, res.Headings.HeadingStructure, 3)
	assert.Equal(t, "H1: Short", res.Headings.HeadingStructure[0])
	assert.Equal(t, "H2: "+strings.Repeat("a", 50)+"...", res.Headings.HeadingStructure[1])
	assert.Equal(t, "H3: Hi there", res.Headings.HeadingStructure[2])
	assert.Equal(t, []string{"Short"}, res.Headings.H1Content)
}

func TestAnalyze_HeadingOutlineDecodesEntities(t *testing.T) {
	html := `<h2>Don't "quote" Tom &amp; Jerry</h2><h3>Preise &amp; Konditionen f&uuml;r H&auml;ndler und Gro&szlig;kunden im &Uuml;berblick</h3>`

	res := Analyze(html, "")

	require.Len(t, res.Headings.HeadingStructure, 2)
	assert.Equal(t, `H2: Don't "quote" Tom & Jerry`, res.Headings.HeadingStructure[0])
	assert.Equal(t, "H3: Preise & Konditionen für Händler und Großkunden im...", res.Headings.HeadingStructure[1])
}

func TestAnalyze_HeadingOutlineLimit(t *testing.T) {
	html := strings.Repeat("<h2>Section</h2>", 20)
	res := Analyze(html, "")
	assert.Len(t, res.Headings.HeadingStructure, 15)
	assert.Equal(t, 20, res.Headings.H2Count)
}

func TestAnalyze_Images(t *testing.T) {
	html := `<img src="a.png" alt="A"><img src="b.png"><img data-src="c.png" alt=""><img src="d.png" loading="lazy">`

	res := Analyze(html, "")

	assert.Equal(t, 4, res.Images.Total)
	assert.Equal(t, 1, res.Images.WithAlt)
	assert.Equal(t, 3, res.Images.WithoutAlt)
	assert.Equal(t, []string{"b.png", "c.png", "d.png"}, res.Images.MissingAltURLs)
	assert.Equal(t, 2, res.Images.LazyLoaded)
	assert.Contains(t, res.Recommendations, "Füge Alt-Texte zu 3 Bildern hinzu")
}

func TestAnalyze_StructuredDataTypes(t *testing.T) {
	html := `<script type="application/ld+json">{"@context":"https://schema.org","@type":"Organization"}</script>
<script type="application/LD+JSON">{"@type": "Product"}</script>
<script type="application/ld+json">{"name":"untyped"}</script>`

	res := Analyze(html, "")

	assert.True(t, res.Technical.HasStructuredData)
	assert.Equal(t, []string{"Organization", "Product"}, res.Technical.StructuredDataTypes)
}

func TestAnalyze_Content(t *testing.T) {
	res := Analyze(`<p>an apple a day</p><script>var ignored = "long words here";</script><iframe src="https://youtube.com/embed/x"></iframe>`, "")

	assert.Equal(t, 2, res.Content.WordCount)
	assert.Equal(t, 1, res.Content.ParagraphCount)
	assert.True(t, res.Content.HasVideo)
}

func TestFormat(t *testing.T) {
	out := Format(Analyze(perfectPage(), ""))

	assert.Contains(t, out, "**Score: 100/100**")
	assert.Contains(t, out, "   Länge: 55 Zeichen (optimal)")
	assert.Contains(t, out, "- H1: 1 (✅)")
	assert.Contains(t, out, "- Schema.org: ✅")
	assert.NotContains(t, out, "### Empfehlungen")
}

func TestFormat_Missing(t *testing.T) {
	out := Format(Analyze("", ""))

	assert.Contains(t, out, "### Title\n❌ Nicht vorhanden")
	assert.Contains(t, out, "- Canonical: ❌")
	assert.Contains(t, out, "### Empfehlungen\n- Füge einen aussagekräftigen")
}
