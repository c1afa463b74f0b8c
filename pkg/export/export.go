// Package export writes parsed ownership records. Every writer binds the
// record sequence to the name "table", the variable report templates
// iterate over.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/coolbeans/lvparse/pkg/record"
)

// TableName is the name the record sequence is bound to.
const TableName = "table"

// Format selects an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. Matching is case-insensitive.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv or json)", name)
	}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// Write encodes records in format f.
func Write(w io.Writer, f Format, records []record.Record) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records)
	case FormatJSON:
		return WriteJSON(w, records)
	default:
		return fmt.Errorf("unknown output format %q", f)
	}
}

// WriteCSV writes a header row of record.Fields followed by one row per
// record. Null values become empty cells.
func WriteCSV(w io.Writer, records []record.Record) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(record.Fields); err != nil {
		return err
	}

	row := make([]string, len(record.Fields))
	for _, r := range records {
		for i, v := range r.Values() {
			row[i] = v.OrEmpty()
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteJSON writes {"table": [...]} with one flat object per record. Null
// values are encoded as JSON null.
func WriteJSON(w io.Writer, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(map[string][]record.Record{TableName: records})
}
