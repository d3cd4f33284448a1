package seo

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxOutline      = 15
	maxHeadingRunes = 50
)

var ldTypeRe = regexp.MustCompile(`"@type"\s*:\s*"([^"]+)"`)

// document wraps the parsed DOM used for the structural parts of the check.
// A nil document behaves like an empty page.
type document struct {
	doc *goquery.Document
}

func parse(html string) *document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return &document{}
	}
	return &document{doc: doc}
}

// outline lists headings in document order as "H2: text" with entities
// decoded, truncating the text and marking truncation with "...".
func (d *document) outline(limit, width int) []string {
	out := []string{}
	if d.doc == nil {
		return out
	}
	d.doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := []rune(strings.Join(strings.Fields(s.Text()), " "))
		line := strings.ToUpper(goquery.NodeName(s)) + ": "
		if len(text) >= width {
			line += string(text[:width]) + "..."
		} else {
			line += string(text)
		}
		out = append(out, line)
		return len(out) < limit
	})
	return out
}

// structuredData counts JSON-LD blocks and collects the first @type of each.
func (d *document) structuredData() (int, []string) {
	types := []string{}
	if d.doc == nil {
		return 0, types
	}
	blocks := 0
	d.doc.Find("script[type]").Each(func(_ int, s *goquery.Selection) {
		if !strings.EqualFold(strings.TrimSpace(s.AttrOr("type", "")), "application/ld+json") {
			return
		}
		blocks++
		if m := ldTypeRe.FindStringSubmatch(s.Text()); m != nil {
			types = append(types, m[1])
		}
	})
	return blocks, types
}
