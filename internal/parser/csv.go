package parser

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/dgallion1/docredact/internal/document"
)

// CSVParser handles CSV files. Each data row becomes one block labelled
// with the header names.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*document.Content, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, parseErr("csv", err)
	}
	if len(records) == 0 {
		return document.NewStructured(nil), nil
	}

	// First row is headers.
	headers := records[0]
	blocks := []string{strings.Join(headers, ", ")}

	for _, row := range records[1:] {
		var line strings.Builder
		for j, cell := range row {
			if j > 0 {
				line.WriteString(", ")
			}
			if j < len(headers) && headers[j] != "" {
				line.WriteString(headers[j] + ": " + cell)
			} else {
				line.WriteString(cell)
			}
		}
		blocks = append(blocks, line.String())
	}

	return document.NewStructured(blocks), nil
}
