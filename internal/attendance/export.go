package attendance

import (
	"io"
	"strings"
)

// ExportFilename is the suggested name of a downloaded export.
const ExportFilename = "attendance.csv"

const csvHeader = "Date,Time"

// ExportCSV renders the whole ledger as Date,Time rows in ledger order.
// Rows are joined by \n with no trailing newline. Fields are not quoted.
func ExportCSV(l Ledger) string {
	var b strings.Builder
	b.WriteString(csvHeader)
	for _, r := range l {
		b.WriteByte('\n')
		b.WriteString(r.Date.Format(DateLayout))
		b.WriteByte(',')
		b.WriteString(r.Time)
	}
	return b.String()
}

// WriteCSV writes ExportCSV(l) to w.
func WriteCSV(w io.Writer, l Ledger) error {
	_, err := io.WriteString(w, ExportCSV(l))
	return err
}
