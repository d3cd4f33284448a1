package procurement

import (
	"regexp"

	"github.com/sells-group/scout/internal/detect"
)

var r = detect.R

var portalRules = []detect.Rule{
	r(`geschäftskund`, 80, "Geschäftskunden-Bereich"),
	r(`b2b(-|\s)?portal`, 90, "B2B-Portal"),
	r(`business(-|\s)?kund`, 75, "Business-Kunden"),
	r(`firmen(-|\s)?kund`, 80, "Firmenkunden"),
	r(`gewerblich`, 70, "Gewerbliche Kunden"),
	r(`für\s+unternehmen`, 75, "Für Unternehmen"),
	r(`b2b(-|\s)?shop`, 85, "B2B-Shop"),
	r(`großhandel`, 80, "Großhandel"),
	r(`händler(-|\s)?(portal|login|bereich)`, 85, "Händler-Portal"),
	r(`netto(-|\s)?preis`, 70, "Nettopreise"),
	r(`preis\s+exkl\.|preis\s+netto`, 65, "Exkl. Preise"),
}

var (
	ociRules = []detect.Rule{
		r(`\boci\b`, 60, "OCI erwähnt"),
		r(`open\s*catalog\s*interface`, 90, "Open Catalog Interface"),
		r(`oci(-|\s)?anbindung`, 85, "OCI-Anbindung"),
		r(`oci(-|\s)?schnittstelle`, 85, "OCI-Schnittstelle"),
		r(`oci(-|\s)?punchout`, 90, "OCI-Punchout"),
		r(`hook_url|return_url.*oci`, 80, "OCI Parameter"),
	}
	cxmlRules = []detect.Rule{
		r(`cxml`, 70, "cXML erwähnt"),
		r(`cxml(-|\s)?punchout`, 90, "cXML-Punchout"),
		r(`cxml(-|\s)?order`, 85, "cXML-Order"),
		r(`punchoutsetupre(quest|sponse)`, 95, "PunchOutSetup"),
	}
	aribaRules = []detect.Rule{
		r(`ariba`, 75, "Ariba erwähnt"),
		r(`sap\s*ariba`, 90, "SAP Ariba"),
		r(`ariba\s*network`, 85, "Ariba Network"),
		r(`ariba(-|\s)?punchout`, 90, "Ariba-Punchout"),
	}
	coupaRules = []detect.Rule{
		r(`coupa`, 80, "Coupa erwähnt"),
		r(`coupa(-|\s)?punchout`, 90, "Coupa-Punchout"),
		r(`coupa(-|\s)?integration`, 85, "Coupa-Integration"),
	}
)

var (
	bmecatRules = []detect.Rule{
		r(`bmecat`, 85, "BMEcat erwähnt"),
		r(`bme\s*cat`, 80, "BME cat"),
		r(`katalog(-|\s)?export`, 50, "Katalog-Export"),
	}
	datanormRules = []detect.Rule{
		r(`datanorm`, 90, "DATANORM"),
		r(`datanorm\s*\d`, 95, "DATANORM Version"),
	}
	etimRules = []detect.Rule{
		r(`\betim\b`, 70, "ETIM erwähnt"),
		r(`etim(-|\s)?klassifizierung`, 90, "ETIM-Klassifizierung"),
		r(`etim(-|\s)?klasse`, 85, "ETIM-Klasse"),
	}
	csvRules = []detect.Rule{
		r(`csv(-|\s)?export`, 70, "CSV-Export"),
		r(`csv(-|\s)?download`, 70, "CSV-Download"),
		r(`excel(-|\s)?export`, 65, "Excel-Export"),
	}
)

var (
	sapRules = []detect.Rule{
		{Matcher: standaloneSAP{}, Weight: 60, Evidence: "SAP erwähnt"},
		r(`sap(-|\s)?integration`, 85, "SAP-Integration"),
		r(`sap(-|\s)?anbindung`, 85, "SAP-Anbindung"),
		r(`sap(-|\s)?schnittstelle`, 85, "SAP-Schnittstelle"),
		r(`idoc`, 80, "SAP IDoc"),
	}
	dynamicsRules = []detect.Rule{
		r(`microsoft\s*dynamics`, 85, "Microsoft Dynamics"),
		r(`dynamics\s*(365|nav|ax)`, 90, "Dynamics Version"),
		r(`navision`, 80, "Navision"),
	}
	oracleRules = []detect.Rule{
		r(`oracle\s*(erp|cloud)`, 85, "Oracle ERP"),
		r(`netsuite`, 80, "NetSuite"),
	}
	apiRules = []detect.Rule{
		r(`api(-|\s)?dokumentation`, 80, "API-Dokumentation"),
		r(`rest(-|\s)?api`, 75, "REST-API"),
		r(`api(-|\s)?schnittstelle`, 75, "API-Schnittstelle"),
		r(`entwickler(-|\s)?(portal|dokumentation)`, 85, "Entwickler-Portal"),
		r(`swagger|openapi`, 80, "OpenAPI/Swagger"),
	}
)

var (
	sapWordRe   = regexp.MustCompile(`(?i)\bsap\b`)
	aribaNextRe = regexp.MustCompile(`(?i)^\s*ariba`)
)

// standaloneSAP matches the word "sap" unless it is the start of "SAP Ariba",
// which is scored under punch-out instead.
type standaloneSAP struct{}

func (standaloneSAP) MatchString(s string) bool {
	for _, loc := range sapWordRe.FindAllStringIndex(s, -1) {
		if !aribaNextRe.MatchString(s[loc[1]:]) {
			return true
		}
	}
	return false
}

// Category groups B2B features in reports.
type Category string

// Feature categories.
const (
	CategoryOrdering    Category = "ordering"
	CategoryPricing     Category = "pricing"
	CategoryAccount     Category = "account"
	CategoryIntegration Category = "integration"
	CategoryPayment     Category = "payment"
)

var categoryLabels = map[Category]string{
	CategoryOrdering:    "Bestellung",
	CategoryPricing:     "Preise",
	CategoryAccount:     "Konto",
	CategoryIntegration: "Integration",
	CategoryPayment:     "Zahlung",
}

type feature struct {
	detect.Candidate
	category Category
}

var features = []feature{
	{category: CategoryOrdering, Candidate: detect.Candidate{Name: "Schnellbestellung", Rules: []detect.Rule{
		r(`schnell(-|\s)?bestellung`, 90, "Schnellbestellung"),
		r(`quick(-|\s)?order`, 85, "Quick Order"),
		r(`csv(-|\s)?upload`, 80, "CSV-Upload"),
		r(`artikelliste\s*hochladen`, 85, "Artikelliste hochladen"),
	}}},
	{category: CategoryOrdering, Candidate: detect.Candidate{Name: "Bestelllisten/Favoriten", Rules: []detect.Rule{
		r(`bestellliste`, 85, "Bestellliste"),
		r(`merkliste`, 70, "Merkliste"),
		r(`einkaufsliste`, 80, "Einkaufsliste"),
		r(`wunschliste`, 60, "Wunschliste"),
	}}},
	{category: CategoryOrdering, Candidate: detect.Candidate{Name: "Wiederbestellung", Rules: []detect.Rule{
		r(`wieder(-|\s)?bestell`, 85, "Wiederbestellung"),
		r(`erneut\s*bestell`, 80, "Erneut bestellen"),
		r(`nachbestellung`, 80, "Nachbestellung"),
	}}},
	{category: CategoryPricing, Candidate: detect.Candidate{Name: "Staffelpreise", Rules: []detect.Rule{
		r(`staffel(-|\s)?preis`, 90, "Staffelpreise"),
		r(`mengen(-|\s)?rabatt`, 85, "Mengenrabatt"),
		r(`ab\s+\d+\s*(stück|stk)`, 75, "Ab X Stück"),
		r(`preis\s*ab\s*menge`, 80, "Preis ab Menge"),
	}}},
	{category: CategoryPricing, Candidate: detect.Candidate{Name: "Individuelle Preise", Rules: []detect.Rule{
		r(`individuelle\s*preis`, 85, "Individuelle Preise"),
		r(`kunden(-|\s)?preis`, 80, "Kundenpreise"),
		r(`vereinbarte\s*preis`, 85, "Vereinbarte Preise"),
		r(`rahmen(-|\s)?vertrag`, 90, "Rahmenvertrag"),
	}}},
	{category: CategoryAccount, Candidate: detect.Candidate{Name: "Kostenstellen", Rules: []detect.Rule{
		r(`kostenstelle`, 90, "Kostenstelle"),
		r(`cost\s*center`, 85, "Cost Center"),
		r(`budget(-|\s)?verwaltung`, 80, "Budgetverwaltung"),
	}}},
	{category: CategoryAccount, Candidate: detect.Candidate{Name: "Freigabeworkflow", Rules: []detect.Rule{
		r(`freigabe(-|\s)?workflow`, 90, "Freigabeworkflow"),
		r(`bestell(-|\s)?freigabe`, 85, "Bestellfreigabe"),
		r(`genehmigung`, 70, "Genehmigung"),
		r(`approval`, 70, "Approval"),
	}}},
	{category: CategoryAccount, Candidate: detect.Candidate{Name: "Mehrere Benutzer", Rules: []detect.Rule{
		r(`benutzer(-|\s)?verwaltung`, 80, "Benutzerverwaltung"),
		r(`unter(-|\s)?konten`, 85, "Unterkonten"),
		r(`mitarbeiter(-|\s)?zugang`, 85, "Mitarbeiterzugang"),
	}}},
	{category: CategoryIntegration, Candidate: detect.Candidate{Name: "EDI-Anbindung", Rules: []detect.Rule{
		r(`\bedi\b`, 75, "EDI erwähnt"),
		r(`edi(-|\s)?anbindung`, 90, "EDI-Anbindung"),
		r(`edifact`, 90, "EDIFACT"),
		r(`elektronischer\s*datenaustausch`, 85, "Elektronischer Datenaustausch"),
	}}},
	{category: CategoryPayment, Candidate: detect.Candidate{Name: "Kauf auf Rechnung", Rules: []detect.Rule{
		r(`kauf\s*auf\s*rechnung`, 90, "Kauf auf Rechnung"),
		r(`rechnung(-|\s)?skauf`, 85, "Rechnungskauf"),
		r(`zahlungsziel`, 80, "Zahlungsziel"),
		r(`\d+\s*tage\s*zahlungsziel`, 90, "X Tage Zahlungsziel"),
	}}},
	{category: CategoryPayment, Candidate: detect.Candidate{Name: "SEPA-Lastschrift", Rules: []detect.Rule{
		r(`sepa(-|\s)?lastschrift`, 90, "SEPA-Lastschrift"),
		r(`bankeinzug`, 80, "Bankeinzug"),
		r(`lastschrift(-|\s)?mandat`, 85, "Lastschriftmandat"),
	}}},
	{category: CategoryPayment, Candidate: detect.Candidate{Name: "Sammelrechnung", Rules: []detect.Rule{
		r(`sammelrechnung`, 90, "Sammelrechnung"),
		r(`monatsrechnung`, 85, "Monatsrechnung"),
		r(`periodische\s*abrechnung`, 80, "Periodische Abrechnung"),
	}}},
}
