// Package export renders list view rows as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/crm/backend/internal/domain/fieldkit"
	"github.com/crm/backend/internal/domain/listview"
)

// ContentType of the generated files
const ContentType = "text/csv; charset=utf-8"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options tune the output
type Options struct {
	// BOM prefixes the file with a UTF-8 byte order mark so spreadsheet apps
	// detect the encoding
	BOM bool
	// Comma overrides the field delimiter; zero means ','
	Comma rune
}

// Write emits a header row of column labels followed by one row per record,
// each cell rendered with fieldkit.Format. Quoting follows RFC 4180.
func Write[R listview.Record](w io.Writer, columns []listview.ColumnDef, records []R, opts Options) error {
	if len(columns) == 0 {
		return fmt.Errorf("export: no columns to write")
	}
	if opts.BOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("export: write bom: %w", err)
		}
	}

	cw := csv.NewWriter(w)
	if opts.Comma != 0 {
		cw.Comma = opts.Comma
	}

	row := make([]string, len(columns))
	for i, c := range columns {
		row[i] = c.Label
	}
	if err := cw.Write(row); err != nil {
		return fmt.Errorf("export: write header: %w", err)
	}

	for n, rec := range records {
		for i, c := range columns {
			v, _ := rec.Value(c.Key)
			row[i] = fieldkit.Format(c.FieldKind(), v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row %d: %w", n+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	return nil
}

// FileName builds the download name for a table export, e.g. leads-20261016-0930.csv
func FileName(table string, at time.Time) string {
	return fmt.Sprintf("%s-%s.csv", table, at.Format("20060102-1504"))
}
