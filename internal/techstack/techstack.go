// Package techstack fingerprints shop systems, CMS, PIM and frontend tooling
// from raw HTML.
package techstack

import (
	"fmt"
	"strings"

	"github.com/sells-group/scout/internal/detect"
)

// Thresholds for selecting a primary system and listing multi-valued tools.
const (
	PrimaryThreshold = 50
	ListThreshold    = 40
	HighThreshold    = 80
)

// Tier is the overall confidence of a detection, driven by the shop system.
type Tier string

// Tier values.
const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// Result is a tech-stack fingerprint. Single-valued categories are nil when
// nothing reached PrimaryThreshold.
type Result struct {
	ShopSystem *detect.Match  `json:"shopSystem"`
	PIM        *detect.Match  `json:"pim"`
	CMS        *detect.Match  `json:"cms"`
	Frontend   []detect.Match `json:"frontend"`
	Analytics  []detect.Match `json:"analytics"`
	Marketing  []detect.Match `json:"marketing"`
	Payment    []detect.Match `json:"payment"`
	Other      []detect.Match `json:"other"`
	Confidence Tier           `json:"confidence"`
}

// Detect runs every taxonomy against html.
func Detect(html string) Result {
	res := Result{
		ShopSystem: detect.First(detect.Rank(html, shopSystems), PrimaryThreshold),
		PIM:        detect.First(detect.Rank(html, pimSystems), PrimaryThreshold),
		CMS:        detect.First(detect.Rank(html, cmsSystems), PrimaryThreshold),
		Frontend:   detect.AtLeast(detect.Rank(html, frontendTech), ListThreshold),
		Analytics:  detect.AtLeast(detect.Rank(html, analyticsTools), ListThreshold),
		Marketing:  detect.AtLeast(detect.Rank(html, marketingTools), ListThreshold),
		Payment:    detect.AtLeast(detect.Rank(html, paymentProviders), ListThreshold),
		Other:      []detect.Match{},
		Confidence: TierLow,
	}

	if res.ShopSystem != nil {
		switch {
		case res.ShopSystem.Confidence >= HighThreshold:
			res.Confidence = TierHigh
		case res.ShopSystem.Confidence >= PrimaryThreshold:
			res.Confidence = TierMedium
		}
	}
	return res
}

// Format renders a Markdown report of res.
func Format(res Result) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("## Tech-Stack Analyse\n")

	if res.ShopSystem != nil {
		add("### Shop-System: %s", res.ShopSystem.Name)
		add("Konfidenz: %d%%", res.ShopSystem.Confidence)
		add("Erkannt durch: %s\n", strings.Join(res.ShopSystem.Evidence, ", "))
	} else {
		add("### Shop-System: Nicht erkannt\n")
	}

	if res.PIM != nil {
		add("### PIM-System: %s", res.PIM.Name)
		add("Konfidenz: %d%%\n", res.PIM.Confidence)
	}
	if res.CMS != nil {
		add("### CMS: %s", res.CMS.Name)
		add("Konfidenz: %d%%\n", res.CMS.Confidence)
	}

	section := func(title string, items []detect.Match, withConfidence bool) {
		if len(items) == 0 {
			return
		}
		add("### %s", title)
		for _, m := range items {
			if withConfidence {
				add("- %s (%d%%)", m.Name, m.Confidence)
			} else {
				add("- %s", m.Name)
			}
		}
		add("")
	}
	section("Frontend-Technologien", res.Frontend, true)
	section("Analytics & Tracking", res.Analytics, true)
	section("Marketing & CRM", res.Marketing, false)
	section("Zahlungsanbieter", res.Payment, false)

	add("---\n*Analyse-Konfidenz: %s*", res.Confidence)

	return strings.Join(lines, "\n")
}
