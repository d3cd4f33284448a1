// Package seo runs a quick on-page SEO check over raw HTML.
package seo

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/scout/internal/htmltext"
)

// Severity ranks an issue. Each severity carries a fixed score penalty.
type Severity string

// Severity values.
const (
	Critical Severity = "critical"
	Warning  Severity = "warning"
	Info     Severity = "info"
)

// Penalty returns the points subtracted from the score for one issue.
func (s Severity) Penalty() int {
	switch s {
	case Critical:
		return 15
	case Warning:
		return 5
	default:
		return 2
	}
}

// Issue is a single finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Category string   `json:"category"`
	Message  string   `json:"message"`
}

// Title describes the <title> element.
type Title struct {
	Exists      bool   `json:"exists"`
	Content     string `json:"content"`
	Length      int    `json:"length"`
	Optimal     bool   `json:"optimal"`
	HasKeywords bool   `json:"hasKeywords"`
}

// MetaDescription describes the description meta tag.
type MetaDescription struct {
	Exists  bool   `json:"exists"`
	Content string `json:"content"`
	Length  int    `json:"length"`
	Optimal bool   `json:"optimal"`
}

// Headings summarises the heading outline.
type Headings struct {
	H1Count            int      `json:"h1Count"`
	H1Content          []string `json:"h1Content"`
	H2Count            int      `json:"h2Count"`
	H3Count            int      `json:"h3Count"`
	HasProperHierarchy bool     `json:"hasProperHierarchy"`
	HeadingStructure   []string `json:"headingStructure"`
}

// Images summarises <img> usage.
type Images struct {
	Total          int      `json:"total"`
	WithAlt        int      `json:"withAlt"`
	WithoutAlt     int      `json:"withoutAlt"`
	MissingAltURLs []string `json:"missingAltUrls"`
	LazyLoaded     int      `json:"lazyLoaded"`
}

// Links classifies anchors.
type Links struct {
	Internal       int      `json:"internal"`
	External       int      `json:"external"`
	Nofollow       int      `json:"nofollow"`
	BrokenSuspects []string `json:"brokenSuspects"`
}

// Technical holds the technical SEO flags.
type Technical struct {
	HasCanonical        bool     `json:"hasCanonical"`
	CanonicalURL        string   `json:"canonicalUrl"`
	HasRobotsMeta       bool     `json:"hasRobotsMeta"`
	RobotsContent       string   `json:"robotsContent"`
	HasViewport         bool     `json:"hasViewport"`
	HasCharset          bool     `json:"hasCharset"`
	HasOpenGraph        bool     `json:"hasOpenGraph"`
	HasTwitterCards     bool     `json:"hasTwitterCards"`
	HasStructuredData   bool     `json:"hasStructuredData"`
	StructuredDataTypes []string `json:"structuredDataTypes"`
	HasFavicon          bool     `json:"hasFavicon"`
	HasHreflang         bool     `json:"hasHreflang"`
}

// Readability is a coarse label derived from word count.
type Readability string

// Readability values.
const (
	ReadabilityGood    Readability = "good"
	ReadabilityAverage Readability = "average"
	ReadabilityPoor    Readability = "poor"
)

// Content holds text statistics.
type Content struct {
	WordCount        int         `json:"wordCount"`
	ParagraphCount   int         `json:"paragraphCount"`
	HasVideo         bool        `json:"hasVideo"`
	ReadabilityScore Readability `json:"readabilityScore"`
}

// Result is the full SEO report for one page.
type Result struct {
	Score           int             `json:"score"`
	Title           Title           `json:"title"`
	MetaDescription MetaDescription `json:"metaDescription"`
	Headings        Headings        `json:"headings"`
	Images          Images          `json:"images"`
	Links           Links           `json:"links"`
	Technical       Technical       `json:"technical"`
	Content         Content         `json:"content"`
	Issues          []Issue         `json:"issues"`
	Recommendations []string        `json:"recommendations"`
}

var (
	titleRe     = regexp.MustCompile(`(?i)<title[^>]*>([\s\S]*?)</title>`)
	metaDescRe  = regexp.MustCompile(`(?i)<meta[^>]*name=["']description["'][^>]*content=["']([^"']*)["']`)
	metaDescRev = regexp.MustCompile(`(?i)<meta[^>]*content=["']([^"']*)["'][^>]*name=["']description["']`)
	h1Re        = regexp.MustCompile(`(?i)<h1[^>]*>([\s\S]*?)</h1>`)
	h2Re        = regexp.MustCompile(`(?i)<h2[^>]*>`)
	h3Re        = regexp.MustCompile(`(?i)<h3[^>]*>`)
	imgRe       = regexp.MustCompile(`(?i)<img[^>]*>`)
	altRe       = regexp.MustCompile(`(?i)alt=["'][^"']+["']`)
	srcRe       = regexp.MustCompile(`(?i)src=["']([^"']*)["']`)
	lazyRe      = regexp.MustCompile(`(?i)loading=["']lazy["']|data-src`)
	anchorRe    = regexp.MustCompile(`(?i)<a[^>]*href=["']([^"']*)["'][^>]*>`)
	nofollowRe  = regexp.MustCompile(`(?i)rel=["'][^"']*nofollow[^"']*["']`)
	canonicalRe = regexp.MustCompile(`(?i)<link[^>]*rel=["']canonical["'][^>]*href=["']([^"']*)["']`)
	robotsRe    = regexp.MustCompile(`(?i)<meta[^>]*name=["']robots["'][^>]*content=["']([^"']*)["']`)
	viewportRe  = regexp.MustCompile(`(?i)<meta[^>]*name=["']viewport["']`)
	charsetRe   = regexp.MustCompile(`(?i)<meta[^>]*charset=`)
	ogRe        = regexp.MustCompile(`(?i)<meta[^>]*property=["']og:`)
	twitterRe   = regexp.MustCompile(`(?i)<meta[^>]*name=["']twitter:`)
	faviconRe   = regexp.MustCompile(`(?i)<link[^>]*rel=["'](icon|shortcut icon)["']`)
	hreflangRe  = regexp.MustCompile(`(?i)<link[^>]*hreflang=`)
	paragraphRe = regexp.MustCompile(`(?i)<p[^>]*>`)
	videoRe     = regexp.MustCompile(`(?i)<video|youtube|vimeo`)
	scriptRe    = regexp.MustCompile(`(?i)<script[^>]*>[\s\S]*?</script>`)
	styleRe     = regexp.MustCompile(`(?i)<style[^>]*>[\s\S]*?</style>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	wsRe        = regexp.MustCompile(`\s+`)
)

// Analyze inspects html. pageURL, when it parses, decides which absolute
// links count as internal.
func Analyze(html, pageURL string) Result {
	var issues []Issue
	issue := func(sev Severity, cat, msg string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Category: cat, Message: fmt.Sprintf(msg, args...)})
	}

	title := analyzeTitle(html)
	switch {
	case !title.Exists:
		issue(Critical, "Title", "Kein Title-Tag gefunden")
	case title.Length < 30:
		issue(Warning, "Title", "Title zu kurz (%d Zeichen)", title.Length)
	case title.Length > 70:
		issue(Warning, "Title", "Title zu lang (%d Zeichen)", title.Length)
	}

	meta := analyzeMeta(html)
	switch {
	case !meta.Exists:
		issue(Critical, "Meta", "Keine Meta-Description gefunden")
	case meta.Length < 120:
		issue(Warning, "Meta", "Meta-Description zu kurz (%d Zeichen)", meta.Length)
	case meta.Length > 170:
		issue(Warning, "Meta", "Meta-Description zu lang (%d Zeichen)", meta.Length)
	}

	doc := parse(html)

	headings := analyzeHeadings(html, doc)
	switch {
	case headings.H1Count == 0:
		issue(Critical, "Headings", "Keine H1-Überschrift gefunden")
	case headings.H1Count > 1:
		issue(Warning, "Headings", "Mehrere H1-Überschriften (%d)", headings.H1Count)
	}
	if headings.H2Count == 0 {
		issue(Info, "Headings", "Keine H2-Überschriften für Struktur")
	}

	images := analyzeImages(html)
	if images.WithoutAlt > 0 {
		issue(Warning, "Images", "%d Bilder ohne Alt-Text", images.WithoutAlt)
	}

	links := analyzeLinks(html, hostname(pageURL))

	tech := analyzeTechnical(html, doc)
	if !tech.HasCanonical {
		issue(Warning, "Technical", "Kein Canonical-Tag gefunden")
	}
	if !tech.HasViewport {
		issue(Critical, "Technical", "Kein Viewport-Meta-Tag (Mobile!)")
	}
	if !tech.HasOpenGraph {
		issue(Info, "Social", "Keine Open Graph Tags für Social Sharing")
	}
	if !tech.HasStructuredData {
		issue(Info, "Technical", "Keine strukturierten Daten (Schema.org)")
	}

	content := analyzeContent(html)
	if content.WordCount < 300 {
		issue(Warning, "Content", "Wenig Text-Inhalt (%d Wörter)", content.WordCount)
	}

	score := 100
	for _, is := range issues {
		score -= is.Severity.Penalty()
	}
	score = max(0, min(100, score))

	var recs []string
	if !title.Exists || title.Length < 30 {
		recs = append(recs, "Füge einen aussagekräftigen Title-Tag mit 50-60 Zeichen hinzu")
	}
	if !meta.Exists || meta.Length < 120 {
		recs = append(recs, "Erstelle eine Meta-Description mit 150-160 Zeichen")
	}
	if headings.H1Count != 1 {
		recs = append(recs, "Verwende genau eine H1-Überschrift pro Seite")
	}
	if images.WithoutAlt > 0 {
		recs = append(recs, fmt.Sprintf("Füge Alt-Texte zu %d Bildern hinzu", images.WithoutAlt))
	}
	if !tech.HasStructuredData {
		recs = append(recs, "Implementiere strukturierte Daten (Schema.org) für Rich Snippets")
	}
	if !tech.HasOpenGraph {
		recs = append(recs, "Füge Open Graph Tags für besseres Social Media Sharing hinzu")
	}

	if issues == nil {
		issues = []Issue{}
	}
	if recs == nil {
		recs = []string{}
	}

	return Result{
		Score:           score,
		Title:           title,
		MetaDescription: meta,
		Headings:        headings,
		Images:          images,
		Links:           links,
		Technical:       tech,
		Content:         content,
		Issues:          issues,
		Recommendations: recs,
	}
}

func analyzeTitle(html string) Title {
	m := titleRe.FindStringSubmatch(html)
	if m == nil {
		return Title{}
	}
	content := htmltext.DecodeEntities(strings.TrimSpace(m[1]))
	n := utf8.RuneCountInString(content)
	return Title{
		Exists:      true,
		Content:     content,
		Length:      n,
		Optimal:     n >= 50 && n <= 60,
		HasKeywords: n > 10,
	}
}

func analyzeMeta(html string) MetaDescription {
	m := metaDescRe.FindStringSubmatch(html)
	if m == nil {
		m = metaDescRev.FindStringSubmatch(html)
	}
	if m == nil {
		return MetaDescription{}
	}
	content := htmltext.DecodeEntities(strings.TrimSpace(m[1]))
	n := utf8.RuneCountInString(content)
	return MetaDescription{
		Exists:  true,
		Content: content,
		Length:  n,
		Optimal: n >= 150 && n <= 160,
	}
}

func analyzeHeadings(html string, doc *document) Headings {
	h1 := h1Re.FindAllString(html, -1)
	contents := make([]string, 0, len(h1))
	for _, h := range h1 {
		contents = append(contents, stripHTML(h))
	}
	h2 := len(h2Re.FindAllStringIndex(html, -1))
	return Headings{
		H1Count:            len(h1),
		H1Content:          contents,
		H2Count:            h2,
		H3Count:            len(h3Re.FindAllStringIndex(html, -1)),
		HasProperHierarchy: len(h1) == 1 && h2 > 0,
		HeadingStructure:   doc.outline(maxOutline, maxHeadingRunes),
	}
}

func analyzeImages(html string) Images {
	imgs := imgRe.FindAllString(html, -1)
	res := Images{Total: len(imgs), MissingAltURLs: []string{}}
	for _, img := range imgs {
		if altRe.MatchString(img) {
			res.WithAlt++
		} else {
			res.WithoutAlt++
			if m := srcRe.FindStringSubmatch(img); m != nil && m[1] != "" && len(res.MissingAltURLs) < 5 {
				res.MissingAltURLs = append(res.MissingAltURLs, m[1])
			}
		}
		if lazyRe.MatchString(img) {
			res.LazyLoaded++
		}
	}
	return res
}

func analyzeLinks(html, host string) Links {
	res := Links{BrokenSuspects: []string{}}
	for _, m := range anchorRe.FindAllStringSubmatch(html, -1) {
		tag, href := m[0], m[1]
		ownHost := host != "" && strings.Contains(href, host)
		if strings.HasPrefix(href, "/") || strings.HasPrefix(href, "#") || ownHost {
			res.Internal++
		}
		if strings.HasPrefix(href, "http") && !ownHost {
			res.External++
		}
		if nofollowRe.MatchString(tag) {
			res.Nofollow++
		}
		if (href == "" || href == "#" || strings.HasPrefix(href, "javascript:")) && len(res.BrokenSuspects) < 5 {
			if href == "" {
				href = "empty"
			}
			res.BrokenSuspects = append(res.BrokenSuspects, href)
		}
	}
	return res
}

func analyzeTechnical(html string, doc *document) Technical {
	t := Technical{
		HasViewport:     viewportRe.MatchString(html),
		HasCharset:      charsetRe.MatchString(html),
		HasOpenGraph:    ogRe.MatchString(html),
		HasTwitterCards: twitterRe.MatchString(html),
		HasFavicon:      faviconRe.MatchString(html),
		HasHreflang:     hreflangRe.MatchString(html),
	}
	if m := canonicalRe.FindStringSubmatch(html); m != nil {
		t.HasCanonical = true
		t.CanonicalURL = m[1]
	}
	if m := robotsRe.FindStringSubmatch(html); m != nil {
		t.HasRobotsMeta = true
		t.RobotsContent = m[1]
	}
	blocks, types := doc.structuredData()
	t.HasStructuredData = blocks > 0
	t.StructuredDataTypes = types
	return t
}

func analyzeContent(html string) Content {
	words := 0
	for _, w := range wsRe.Split(stripHTML(html), -1) {
		if utf8.RuneCountInString(w) > 2 {
			words++
		}
	}
	c := Content{
		WordCount:        words,
		ParagraphCount:   len(paragraphRe.FindAllStringIndex(html, -1)),
		HasVideo:         videoRe.MatchString(html),
		ReadabilityScore: ReadabilityPoor,
	}
	switch {
	case words > 300:
		c.ReadabilityScore = ReadabilityGood
	case words > 100:
		c.ReadabilityScore = ReadabilityAverage
	}
	return c
}

// stripHTML drops scripts and styles, replaces tags with spaces and collapses
// whitespace.
func stripHTML(html string) string {
	s := scriptRe.ReplaceAllString(html, "")
	s = styleRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, " ")
	s = wsRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func hostname(pageURL string) string {
	if pageURL == "" {
		return ""
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
