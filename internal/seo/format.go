package seo

import (
	"fmt"
	"strings"
)

func mark(ok bool) string {
	if ok {
		return "✅"
	}
	return "❌"
}

func optimal(ok bool) string {
	if ok {
		return "(optimal)"
	}
	return ""
}

// Format renders a Markdown report of res.
func Format(res Result) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("## SEO Quick-Check\n")
	line("**Score: %d/100**\n", res.Score)

	line("### Title")
	if res.Title.Exists {
		line("✅ \"%s\"", res.Title.Content)
		line("   Länge: %d Zeichen %s\n", res.Title.Length, optimal(res.Title.Optimal))
	} else {
		line("❌ Nicht vorhanden\n")
	}

	line("### Meta-Description")
	if res.MetaDescription.Exists {
		desc := []rune(res.MetaDescription.Content)
		if len(desc) > 100 {
			desc = desc[:100]
		}
		line("✅ \"%s...\"", string(desc))
		line("   Länge: %d Zeichen %s\n", res.MetaDescription.Length, optimal(res.MetaDescription.Optimal))
	} else {
		line("❌ Nicht vorhanden\n")
	}

	h1 := "⚠️"
	if res.Headings.H1Count == 1 {
		h1 = "✅"
	}
	line("### Überschriften-Struktur")
	line("- H1: %d (%s)", res.Headings.H1Count, h1)
	line("- H2: %d", res.Headings.H2Count)
	line("- H3: %d\n", res.Headings.H3Count)

	missing := ""
	if res.Images.WithoutAlt > 0 {
		missing = "⚠️"
	}
	line("### Bilder")
	line("- Gesamt: %d", res.Images.Total)
	line("- Mit Alt-Text: %d ✅", res.Images.WithAlt)
	line("- Ohne Alt-Text: %d %s\n", res.Images.WithoutAlt, missing)

	line("### Technisches SEO")
	line("- Canonical: %s", mark(res.Technical.HasCanonical))
	line("- Viewport: %s", mark(res.Technical.HasViewport))
	line("- Open Graph: %s", mark(res.Technical.HasOpenGraph))
	line("- Schema.org: %s\n", mark(res.Technical.HasStructuredData))

	if len(res.Recommendations) > 0 {
		line("### Empfehlungen")
		for _, rec := range res.Recommendations {
			line("- %s", rec)
		}
	}

	return strings.TrimSuffix(b.String(), "\n")
}
