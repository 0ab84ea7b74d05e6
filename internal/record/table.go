package record

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is how dates are rendered when the table is written out.
const DateLayout = "2006-01-02 15:04:05"

// Row is one normalized record. Nil fields are absent values.
type Row struct {
	RecordID string
	Date     *time.Time
	Category *string
	Amount   *decimal.Decimal
	Note     *string
}

// Table is an ordered, fixed-schema result of a fetch session. The column
// set is always date, category, amount, note, in that order.
type Table struct {
	fields FieldMap
	rows   []Row
}

// NewTable creates a table over rows. A nil rows slice yields an empty table.
func NewTable(fields FieldMap, rows []Row) *Table {
	if rows == nil {
		rows = []Row{}
	}
	return &Table{fields: fields, rows: rows}
}

// Columns returns the column headers in fixed order, named after the
// source fields.
func (t *Table) Columns() []string {
	return []string{t.fields.Date, t.fields.Category, t.fields.Amount, t.fields.Note}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Rows returns a copy of the rows.
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	copy(out, t.rows)
	return out
}

// Head returns at most n leading rows.
func (t *Table) Head(n int) []Row {
	if n < 0 {
		n = 0
	}
	if n > len(t.rows) {
		n = len(t.rows)
	}
	out := make([]Row, n)
	copy(out, t.rows[:n])
	return out
}

// Cells renders a row as strings in column order; absent values are empty.
func (r Row) Cells() []string {
	cells := make([]string, 4)
	if r.Date != nil {
		cells[0] = r.Date.Format(DateLayout)
	}
	if r.Category != nil {
		cells[1] = *r.Category
	}
	if r.Amount != nil {
		cells[2] = r.Amount.String()
	}
	if r.Note != nil {
		cells[3] = *r.Note
	}
	return cells
}

// WriteCSV writes the header and every row as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, r := range t.rows {
		if err := cw.Write(r.Cells()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Summary describes a table without exposing its rows.
type Summary struct {
	Rows       int
	From       *time.Time
	To         *time.Time
	Total      decimal.Decimal
	Categories []string
}

// Summary computes row count, date range, amount total and the sorted set
// of distinct categories.
func (t *Table) Summary() Summary {
	s := Summary{Rows: len(t.rows), Total: decimal.Zero}
	seen := make(map[string]bool)

	for _, r := range t.rows {
		if r.Date != nil {
			if s.From == nil || r.Date.Before(*s.From) {
				d := *r.Date
				s.From = &d
			}
			if s.To == nil || r.Date.After(*s.To) {
				d := *r.Date
				s.To = &d
			}
		}
		if r.Amount != nil {
			s.Total = s.Total.Add(*r.Amount)
		}
		if r.Category != nil && *r.Category != "" && !seen[*r.Category] {
			seen[*r.Category] = true
			s.Categories = append(s.Categories, *r.Category)
		}
	}

	sort.Strings(s.Categories)
	return s
}
