// Package htmltext converts raw HTML into readable Markdown-flavoured text.
//
// Conversion is regex driven and order sensitive: structural tags are
// rewritten before the generic tag strip, and entities are decoded last so
// decoded angle brackets cannot be mistaken for markup.
package htmltext

import (
	"regexp"
	"strconv"
	"strings"
)

// Rules selects which parts of the conversion pipeline run.
type Rules struct {
	// ExtractMain restricts conversion to the first <main>, <article> or
	// content-class <div> when one exists.
	ExtractMain bool
	// StripExtended also removes <aside>, <noscript> and HTML comments.
	StripExtended bool
	// Multiline lets inline conversions span line breaks.
	Multiline bool
	// AltFirstImages converts <img> tags that declare alt before src.
	AltFirstImages bool
	// Divs treats <div> like a paragraph.
	Divs bool
	// Blockquotes converts <blockquote> to "> " lines.
	Blockquotes bool
	// Tables converts <table> rows to "| a | b |" lines.
	Tables bool
	// ExtendedEntities decodes &euro;, &copy;, &reg; and numeric references.
	ExtendedEntities bool
	// TidyLines collapses horizontal whitespace and trims every line.
	TidyLines bool
}

// Full is the canonical rule set.
var Full = Rules{
	ExtractMain:      true,
	StripExtended:    true,
	Multiline:        true,
	AltFirstImages:   true,
	Divs:             true,
	Blockquotes:      true,
	Tables:           true,
	ExtendedEntities: true,
	TidyLines:        true,
}

// Basic is the reduced rule set used for scrape-service payloads.
var Basic = Rules{}

// Convert converts html with the Full rule set.
func Convert(html string) string {
	return ConvertWith(html, Full)
}

var (
	mainRe    = regexp.MustCompile(`(?i)<main(?:\s[^>]*)?>([\s\S]*?)</main>`)
	articleRe = regexp.MustCompile(`(?i)<article(?:\s[^>]*)?>([\s\S]*?)</article>`)
	contentRe = regexp.MustCompile(`(?i)<div[^>]*class="[^"]*content[^"]*"[^>]*>([\s\S]*?)</div>`)

	commentRe = regexp.MustCompile(`<!--[\s\S]*?-->`)
	listRe    = regexp.MustCompile(`(?i)</?[ou]l(?:\s[^>]*)?>`)
	brRe      = regexp.MustCompile(`(?i)<br\s*/?>`)
	hrRe      = regexp.MustCompile(`(?i)<hr\s*/?>`)
	preRe     = regexp.MustCompile(`(?i)<pre(?:\s[^>]*)?>([\s\S]*?)</pre>`)
	divRe     = regexp.MustCompile(`(?i)<div(?:\s[^>]*)?>([\s\S]*?)</div>`)
	quoteRe   = regexp.MustCompile(`(?i)<blockquote(?:\s[^>]*)?>([\s\S]*?)</blockquote>`)
	tableRe   = regexp.MustCompile(`(?i)<table(?:\s[^>]*)?>([\s\S]*?)</table>`)
	rowRe     = regexp.MustCompile(`(?i)<tr(?:\s[^>]*)?>([\s\S]*?)</tr>`)
	cellRe    = regexp.MustCompile(`(?i)<t[dh](?:\s[^>]*)?>([\s\S]*?)</t[dh]>`)
	tagRe     = regexp.MustCompile(`<[^>]+>`)
	numericRe = regexp.MustCompile(`&#(\d+);`)
	spaceRe   = regexp.MustCompile(`[ \t]+`)
	newlineRe = regexp.MustCompile(`\n{3,}`)

	basicStrip    = []string{"script", "style", "nav", "footer", "header"}
	extendedStrip = []string{"aside", "noscript"}
	blockRes      = map[string]*regexp.Regexp{}
)

func init() {
	for _, tag := range append(append([]string{}, basicStrip...), extendedStrip...) {
		blockRes[tag] = regexp.MustCompile(`(?i)<` + tag + `(?:\s[^>]*)?>[\s\S]*?</` + tag + `>`)
	}
}

// inline holds the tag conversions whose body pattern depends on Multiline.
type inline struct {
	headings  [6]*regexp.Regexp
	link      *regexp.Regexp
	imgSrcAlt *regexp.Regexp
	imgAltSrc *regexp.Regexp
	imgSrc    *regexp.Regexp
	item      *regexp.Regexp
	para      *regexp.Regexp
	strong    *regexp.Regexp
	bold      *regexp.Regexp
	em        *regexp.Regexp
	italic    *regexp.Regexp
	code      *regexp.Regexp
}

func newInline(body string) *inline {
	pair := func(tag string) *regexp.Regexp {
		return regexp.MustCompile(`(?i)<` + tag + `(?:\s[^>]*)?>(` + body + `)</` + tag + `>`)
	}
	in := &inline{
		link:      regexp.MustCompile(`(?i)<a\s[^>]*href="([^"]*)"[^>]*>(` + body + `)</a>`),
		imgSrcAlt: regexp.MustCompile(`(?i)<img[^>]*src="([^"]*)"[^>]*alt="([^"]*)"[^>]*/?>`),
		imgAltSrc: regexp.MustCompile(`(?i)<img[^>]*alt="([^"]*)"[^>]*src="([^"]*)"[^>]*/?>`),
		imgSrc:    regexp.MustCompile(`(?i)<img[^>]*src="([^"]*)"[^>]*/?>`),
		item:      pair("li"),
		para:      pair("p"),
		strong:    pair("strong"),
		bold:      pair("b"),
		em:        pair("em"),
		italic:    pair("i"),
		code:      pair("code"),
	}
	for level := 1; level <= 6; level++ {
		in.headings[level-1] = pair("h" + strconv.Itoa(level))
	}
	return in
}

var (
	multiline  = newInline(`[\s\S]*?`)
	singleLine = newInline(`.*?`)
)

// ConvertWith converts html using the given rules. It never fails: markup it
// does not recognise is stripped and the text is kept.
func ConvertWith(html string, rules Rules) string {
	if html == "" {
		return ""
	}
	text := html

	extracted := false
	if rules.ExtractMain {
		for _, re := range []*regexp.Regexp{mainRe, articleRe, contentRe} {
			if m := re.FindStringSubmatch(text); m != nil {
				text = m[1]
				extracted = true
				break
			}
		}
	}
	if !extracted {
		for _, tag := range basicStrip {
			text = blockRes[tag].ReplaceAllString(text, "")
		}
		if rules.StripExtended {
			for _, tag := range extendedStrip {
				text = blockRes[tag].ReplaceAllString(text, "")
			}
			text = commentRe.ReplaceAllString(text, "")
		}
	}

	in := singleLine
	if rules.Multiline {
		in = multiline
	}

	for level, re := range in.headings {
		text = re.ReplaceAllString(text, "\n"+strings.Repeat("#", level+1)+" ${1}\n")
	}

	text = in.link.ReplaceAllString(text, "[${2}](${1})")

	text = in.imgSrcAlt.ReplaceAllString(text, "![${2}](${1})")
	if rules.AltFirstImages {
		text = in.imgAltSrc.ReplaceAllString(text, "![${1}](${2})")
	}
	text = in.imgSrc.ReplaceAllString(text, "![](${1})")

	text = in.item.ReplaceAllString(text, "- ${1}\n")
	text = listRe.ReplaceAllString(text, "\n")

	text = in.para.ReplaceAllString(text, "\n${1}\n")
	if rules.Divs {
		text = divRe.ReplaceAllString(text, "\n${1}\n")
	}
	text = brRe.ReplaceAllString(text, "\n")
	text = hrRe.ReplaceAllString(text, "\n---\n")

	text = in.strong.ReplaceAllString(text, "**${1}**")
	text = in.bold.ReplaceAllString(text, "**${1}**")
	text = in.em.ReplaceAllString(text, "*${1}*")
	text = in.italic.ReplaceAllString(text, "*${1}*")

	text = in.code.ReplaceAllString(text, "`${1}`")
	text = preRe.ReplaceAllString(text, "\n```\n${1}\n```\n")

	if rules.Blockquotes {
		text = quoteRe.ReplaceAllString(text, "\n> ${1}\n")
	}
	if rules.Tables {
		text = tableRe.ReplaceAllStringFunc(text, convertTable)
	}

	text = tagRe.ReplaceAllString(text, "")

	if rules.ExtendedEntities {
		text = DecodeEntities(text)
	} else {
		text = decodeBasic(text)
	}

	if rules.TidyLines {
		text = spaceRe.ReplaceAllString(text, " ")
	}
	text = newlineRe.ReplaceAllString(text, "\n\n")
	if rules.TidyLines {
		lines := strings.Split(text, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimSpace(line)
		}
		text = strings.Join(lines, "\n")
	}
	return strings.TrimSpace(text)
}

func convertTable(table string) string {
	body := tableRe.FindStringSubmatch(table)[1]
	rows := rowRe.FindAllStringSubmatch(body, -1)
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := cellRe.FindAllStringSubmatch(row[1], -1)
		vals := make([]string, 0, len(cells))
		for _, c := range cells {
			vals = append(vals, strings.TrimSpace(c[1]))
		}
		out = append(out, "| "+strings.Join(vals, " | ")+" |")
	}
	return "\n" + strings.Join(out, "\n") + "\n"
}

var basicEntities = [][2]string{
	{"&nbsp;", " "},
	{"&amp;", "&"},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&quot;", `"`},
	{"&#39;", "'"},
}

var extendedEntities = [][2]string{
	{"&euro;", "€"},
	{"&copy;", "©"},
	{"&reg;", "®"},
}

// Entities are replaced one after another, so "&amp;lt;" ends up as "<".
func decodeBasic(s string) string {
	for _, e := range basicEntities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return s
}

// DecodeEntities decodes the named entities the converter understands plus
// decimal character references.
func DecodeEntities(s string) string {
	s = decodeBasic(s)
	for _, e := range extendedEntities {
		s = strings.ReplaceAll(s, e[0], e[1])
	}
	return numericRe.ReplaceAllStringFunc(s, func(ref string) string {
		n, err := strconv.Atoi(ref[2 : len(ref)-1])
		if err != nil {
			return ref
		}
		return string(rune(n))
	})
}

var titleRe = regexp.MustCompile(`(?i)<title[^>]*>(.*?)</title>`)

// ExtractTitle returns the decoded contents of the first single-line <title>
// element and whether one was found.
func ExtractTitle(html string) (string, bool) {
	m := titleRe.FindStringSubmatch(html)
	if m == nil {
		return "", false
	}
	title := m[1]
	for _, e := range basicEntities[:5] {
		title = strings.ReplaceAll(title, e[0], e[1])
	}
	return strings.TrimSpace(title), true
}
