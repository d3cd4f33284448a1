// Package procurement scores how ready a shop is for B2B e-procurement:
// punch-out catalogs, catalog exchange formats, ERP hooks and B2B features.
package procurement

import (
	"fmt"
	"strings"

	"github.com/sells-group/scout/internal/detect"
)

// DetectedThreshold is the confidence at which the portal and individual
// features count as present.
const DetectedThreshold = 50

// Portal describes a dedicated business-customer area.
type Portal struct {
	detect.Outcome
	LoginType string `json:"loginType,omitempty"`
}

// Punchout groups punch-out protocol support.
type Punchout struct {
	OCI   detect.Outcome `json:"ociSupport"`
	CXML  detect.Outcome `json:"cxmlSupport"`
	Ariba detect.Outcome `json:"aribaSupport"`
	Coupa detect.Outcome `json:"coupaSupport"`
}

// Catalog groups catalog exchange formats.
type Catalog struct {
	BMEcat   detect.Outcome `json:"bmecatSupport"`
	DATANORM detect.Outcome `json:"datanormSupport"`
	ETIM     detect.Outcome `json:"etimSupport"`
	CSV      detect.Outcome `json:"csvExport"`
}

// ERP groups ERP integrations.
type ERP struct {
	SAP      detect.Outcome `json:"sapSupport"`
	Dynamics detect.Outcome `json:"microsoftDynamics"`
	Oracle   detect.Outcome `json:"oracleSupport"`
	API      detect.Outcome `json:"apiAvailable"`
}

// Feature is a B2B feature that reached DetectedThreshold.
type Feature struct {
	Name       string   `json:"name"`
	Detected   bool     `json:"detected"`
	Confidence int      `json:"confidence"`
	Evidence   []string `json:"evidence"`
	Category   Category `json:"category"`
}

// Result is the B2B readiness report.
type Result struct {
	Portal         Portal    `json:"b2bPortal"`
	Punchout       Punchout  `json:"punchout"`
	Catalog        Catalog   `json:"catalog"`
	ERP            ERP       `json:"erpIntegration"`
	Features       []Feature `json:"b2bFeatures"`
	Score          int       `json:"score"`
	Recommendation string    `json:"recommendation"`
}

// Detect analyzes html.
func Detect(html string) Result {
	portal := detect.Detect(html, portalRules)
	res := Result{
		Portal: Portal{Outcome: portal},
		Punchout: Punchout{
			OCI:   detect.Detect(html, ociRules),
			CXML:  detect.Detect(html, cxmlRules),
			Ariba: detect.Detect(html, aribaRules),
			Coupa: detect.Detect(html, coupaRules),
		},
		Catalog: Catalog{
			BMEcat:   detect.Detect(html, bmecatRules),
			DATANORM: detect.Detect(html, datanormRules),
			ETIM:     detect.Detect(html, etimRules),
			CSV:      detect.Detect(html, csvRules),
		},
		ERP: ERP{
			SAP:      detect.Detect(html, sapRules),
			Dynamics: detect.Detect(html, dynamicsRules),
			Oracle:   detect.Detect(html, oracleRules),
			API:      detect.Detect(html, apiRules),
		},
		Features: []Feature{},
	}
	if portal.Detected {
		res.Portal.LoginType = "unknown"
	}
	res.Portal.Detected = portal.Confidence >= DetectedThreshold

	for _, f := range features {
		o := detect.Detect(html, f.Rules)
		if o.Confidence < DetectedThreshold {
			continue
		}
		res.Features = append(res.Features, Feature{
			Name:       f.Name,
			Detected:   true,
			Confidence: o.Confidence,
			Evidence:   o.Evidence,
			Category:   f.category,
		})
	}

	res.Score = score(res)
	res.Recommendation = recommend(res.Score)
	return res
}

// score adds independent capability bands. The punch-out and network bands
// may both fire for the same vendor.
func score(res Result) int {
	s := 0
	if res.Portal.Detected {
		s += 20
	}
	if res.Punchout.OCI.Detected || res.Punchout.CXML.Detected {
		s += 25
	}
	if res.Punchout.Ariba.Detected || res.Punchout.Coupa.Detected {
		s += 10
	}
	if res.Catalog.BMEcat.Detected {
		s += 10
	}
	if res.ERP.SAP.Detected || res.ERP.API.Detected {
		s += 15
	}
	s += min(20, 3*len(res.Features))
	return s
}

func recommend(score int) string {
	switch {
	case score >= 80:
		return "Exzellente B2B-Fähigkeiten. Der Shop ist sehr gut für E-Procurement geeignet."
	case score >= 60:
		return "Gute B2B-Grundausstattung. Punchout-Kataloge und weitere Integrationen könnten ergänzt werden."
	case score >= 40:
		return "Grundlegende B2B-Features vorhanden. Empfehlung: OCI/cXML-Schnittstellen und Katalogformate implementieren."
	case score >= 20:
		return "Wenige B2B-Features erkannt. Der Shop ist primär auf B2C ausgerichtet."
	default:
		return "Keine B2B-Features erkannt. Der Shop scheint ausschließlich B2C zu sein."
	}
}

type namedOutcome struct {
	name string
	detect.Outcome
}

// Format renders a Markdown report of res.
func Format(res Result) string {
	var lines []string
	add := func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("## E-Procurement Analyse\n")
	add("**B2B Readiness Score: %d/100**\n", res.Score)
	add("*%s*\n", res.Recommendation)

	add("### B2B-Portal")
	if res.Portal.Detected {
		add("✅ Erkannt (Konfidenz: %d%%)", res.Portal.Confidence)
		add("   - %s\n", strings.Join(res.Portal.Evidence, ", "))
	} else {
		add("❌ Nicht erkannt\n")
	}

	group := func(title, none string, withConfidence bool, items []namedOutcome) {
		add("### %s", title)
		found := false
		for _, it := range items {
			if !it.Detected {
				continue
			}
			found = true
			if withConfidence {
				add("✅ %s: Erkannt (%d%%)", it.name, it.Confidence)
			} else {
				add("✅ %s: Erkannt", it.name)
			}
		}
		if !found {
			add("❌ %s", none)
		}
		add("")
	}

	group("Punchout-Schnittstellen", "Keine Punchout-Schnittstellen erkannt", true, []namedOutcome{
		{"OCI", res.Punchout.OCI},
		{"cXML", res.Punchout.CXML},
		{"SAP Ariba", res.Punchout.Ariba},
		{"Coupa", res.Punchout.Coupa},
	})
	group("Katalogformate", "Keine Katalogformate erkannt", false, []namedOutcome{
		{"BMEcat", res.Catalog.BMEcat},
		{"DATANORM", res.Catalog.DATANORM},
		{"ETIM", res.Catalog.ETIM},
		{"CSV-Export", res.Catalog.CSV},
	})
	group("ERP-Integration", "Keine ERP-Integrationen erkannt", false, []namedOutcome{
		{"SAP", res.ERP.SAP},
		{"Microsoft Dynamics", res.ERP.Dynamics},
		{"Oracle/NetSuite", res.ERP.Oracle},
		{"API verfügbar", res.ERP.API},
	})

	if len(res.Features) > 0 {
		add("### B2B-Features")
		var order []Category
		byCategory := map[Category][]Feature{}
		for _, f := range res.Features {
			if _, ok := byCategory[f.Category]; !ok {
				order = append(order, f.Category)
			}
			byCategory[f.Category] = append(byCategory[f.Category], f)
		}
		for _, cat := range order {
			label, ok := categoryLabels[cat]
			if !ok {
				label = string(cat)
			}
			add("\n**%s:**", label)
			for _, f := range byCategory[cat] {
				add("- ✅ %s", f.Name)
			}
		}
	}

	return strings.Join(lines, "\n")
}
