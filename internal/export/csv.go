package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadURLsCSV returns the http(s) URLs of a CSV or plain-text list, with
// the same rules as ReadURLs. Delimiters are sniffed from the first line:
// semicolon, tab or comma.
func ReadURLsCSV(r io.Reader, column int) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "csv: read")
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = sniffDelimiter(string(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	seen := make(map[string]bool)
	var urls []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return urls, nil
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		for j, field := range record {
			if column >= 0 && j != column {
				continue
			}
			v := strings.TrimSpace(field)
			if !isHTTPURL(v) || seen[v] {
				continue
			}
			seen[v] = true
			urls = append(urls, v)
			break
		}
	}
}

func sniffDelimiter(data string) rune {
	first, _, _ := strings.Cut(data, "\n")
	switch {
	case strings.Contains(first, ";"):
		return ';'
	case strings.Contains(first, "\t"):
		return '\t'
	default:
		return ','
	}
}
