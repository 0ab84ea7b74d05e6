package record

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldMap names the source fields that feed the four table columns.
type FieldMap struct {
	Date     string `mapstructure:"date"`
	Category string `mapstructure:"category"`
	Amount   string `mapstructure:"amount"`
	Note     string `mapstructure:"note"`
}

// DefaultFieldMap is the layout of the expense table the tool was built for.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Date:     "日期",
		Category: "一级分类",
		Amount:   "金额",
		Note:     "备注",
	}
}

// Normalizer maps raw records onto fixed four-column rows.
type Normalizer struct {
	fields   FieldMap
	location *time.Location
}

// NewNormalizer creates a normalizer. Empty names in fields fall back to the
// defaults; timestamps are interpreted in time.Local.
func NewNormalizer(fields FieldMap) *Normalizer {
	def := DefaultFieldMap()
	if fields.Date == "" {
		fields.Date = def.Date
	}
	if fields.Category == "" {
		fields.Category = def.Category
	}
	if fields.Amount == "" {
		fields.Amount = def.Amount
	}
	if fields.Note == "" {
		fields.Note = def.Note
	}

	return &Normalizer{
		fields:   fields,
		location: time.Local,
	}
}

// Fields returns the source field names in use.
func (n *Normalizer) Fields() FieldMap {
	return n.fields
}

// Row normalizes a single record. It has no side effects and never fails:
// every malformed or missing value becomes an absent cell.
func (n *Normalizer) Row(r RawRecord) Row {
	row := Row{RecordID: r.ID}

	// Unix milliseconds
	if ms, ok := r.Number(n.fields.Date); ok && math.Abs(ms) <= maxDateMillis {
		t := time.UnixMicro(int64(ms * 1000)).In(n.location)
		row.Date = &t
	}

	if s, ok := r.Text(n.fields.Category); ok {
		row.Category = &s
	}

	if d, ok := amountOf(r, n.fields.Amount); ok {
		row.Amount = &d
	}

	if s, ok := r.Text(n.fields.Note); ok {
		row.Note = &s
	}

	return row
}

// maxDateMillis is the largest timestamp whose microsecond value fits in an int64
const maxDateMillis = math.MaxInt64 / 1000

// Table normalizes records in order into a result table with exactly
// len(records) rows.
func (n *Normalizer) Table(records []RawRecord) *Table {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, n.Row(r))
	}
	return NewTable(n.fields, rows)
}

func amountOf(r RawRecord, name string) (decimal.Decimal, bool) {
	v, ok := r.Get(name)
	if !ok {
		return decimal.Decimal{}, false
	}

	switch a := v.(type) {
	case float64:
		if math.IsNaN(a) || math.IsInf(a, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(a), true
	case int:
		return decimal.NewFromInt(int64(a)), true
	case int64:
		return decimal.NewFromInt(a), true
	case json.Number:
		d, err := decimal.NewFromString(a.String())
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	case string:
		s := strings.TrimSpace(a)
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}
