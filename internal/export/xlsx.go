// Package export writes history and comparison results to Excel workbooks
// and reads URL lists from them.
package export

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/scout/internal/analyze"
	"github.com/sells-group/scout/internal/store"
)

// Sheet names.
const (
	HistorySheet    = "Verlauf"
	ComparisonSheet = "Vergleich"
)

const timestampLayout = "02.01.2006 15:04:05"

var historyHeader = []string{"Zeitpunkt", "Typ", "URL", "Provider", "Titel", "Vorschau", "Tags"}

var comparisonHeader = []string{"URL", "Provider", "Shop-System", "Konfidenz", "CMS", "SEO-Score", "SEO-Probleme", "Procurement-Score", "Empfehlung", "Fehler"}

// WriteHistory writes entries as one sheet, one row per entry.
func WriteHistory(w io.Writer, entries []store.Entry) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(HistorySheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add history sheet")
	}
	addRow(sheet, historyHeader)
	for _, e := range entries {
		addRow(sheet, []string{
			e.Timestamp.Local().Format(timestampLayout),
			e.Type.Label(),
			e.URL,
			e.Provider,
			e.Title,
			e.Preview,
			strings.Join(e.Tags, ", "),
		})
	}
	return eris.Wrap(f.Write(w), "xlsx: write history")
}

// WriteComparison writes compare rows as one sheet. Scores are numeric
// cells.
func WriteComparison(w io.Writer, rows []analyze.Comparison) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(ComparisonSheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add comparison sheet")
	}
	addRow(sheet, comparisonHeader)
	for _, c := range rows {
		row := sheet.AddRow()
		row.AddCell().SetString(c.URL)
		row.AddCell().SetString(string(c.Provider))
		row.AddCell().SetString(c.ShopSystem)
		row.AddCell().SetString(string(c.TechConfidence))
		row.AddCell().SetString(c.CMS)
		if c.Error != "" {
			for range 4 {
				row.AddCell().SetString("")
			}
		} else {
			row.AddCell().SetInt(c.SEOScore)
			row.AddCell().SetInt(c.SEOIssues)
			row.AddCell().SetInt(c.ProcurementScore)
			row.AddCell().SetString(c.Recommendation)
		}
		row.AddCell().SetString(c.Error)
	}
	return eris.Wrap(f.Write(w), "xlsx: write comparison")
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, c := range cells {
		row.AddCell().SetString(c)
	}
}

// URLOptions configures ReadURLs.
type URLOptions struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	Column     int    // 0-based; negative scans every cell of a row
}

// ReadURLs returns the http(s) URLs found in a workbook, in row order and
// without duplicates. Header rows and other text are skipped.
func ReadURLs(path string, opts URLOptions) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open file")
	}
	return urlsFrom(f, opts)
}

// ReadURLsBinary is ReadURLs for an in-memory workbook.
func ReadURLsBinary(data []byte, opts URLOptions) ([]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "xlsx: open binary")
	}
	return urlsFrom(f, opts)
}

func urlsFrom(f *xlsx.File, opts URLOptions) ([]string, error) {
	sheet, err := getSheet(f, opts)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var urls []string
	for _, row := range sheet.Rows {
		if row == nil {
			continue
		}
		for j, cell := range row.Cells {
			if opts.Column >= 0 && j != opts.Column {
				continue
			}
			v := strings.TrimSpace(cell.String())
			if !isHTTPURL(v) || seen[v] {
				continue
			}
			seen[v] = true
			urls = append(urls, v)
			break
		}
	}
	return urls, nil
}

func getSheet(f *xlsx.File, opts URLOptions) (*xlsx.Sheet, error) {
	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found", opts.SheetName)
		}
		return sheet, nil
	}

	if opts.SheetIndex >= len(f.Sheets) {
		return nil, eris.Errorf("xlsx: sheet index %d out of range (file has %d sheets)", opts.SheetIndex, len(f.Sheets))
	}

	return f.Sheets[opts.SheetIndex], nil
}

func isHTTPURL(s string) bool {
	l := strings.ToLower(s)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// ParseColumn accepts "A".."ZZ" style labels or 1-based numbers.
func ParseColumn(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, eris.New("xlsx: empty column")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return 0, eris.Errorf("xlsx: column %d out of range", n)
		}
		return n - 1, nil
	}
	idx := 0
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return 0, eris.Errorf("xlsx: invalid column %q", s)
		}
		idx = idx*26 + int(r-'A'+1)
	}
	return idx - 1, nil
}
