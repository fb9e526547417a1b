package dataset

import (
	"math"
	"strconv"
	"time"
)

// Cell is one raw value: a string, a number, a timestamp or missing.
type Cell struct {
	kind Kind
	s    string
	f    float64
	t    time.Time
}

// Str returns a string cell.
func Str(s string) Cell { return Cell{kind: KindString, s: s} }

// Num returns a numeric cell. NaN is treated as missing.
func Num(f float64) Cell {
	if math.IsNaN(f) {
		return Missing()
	}
	return Cell{kind: KindNumeric, f: f}
}

// Time returns a timestamp cell.
func Time(t time.Time) Cell { return Cell{kind: KindTime, t: t} }

// Missing returns the missing-value marker.
func Missing() Cell { return Cell{} }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.kind == KindUnknown }

// Kind returns the cell's value type, KindUnknown for missing.
func (c Cell) Kind() Kind { return c.kind }

// String formats the cell; missing cells format as "".
func (c Cell) String() string {
	switch c.kind {
	case KindString:
		return c.s
	case KindNumeric:
		return formatFloat(c.f)
	case KindTime:
		return c.t.Format(time.RFC3339Nano)
	default:
		return ""
	}
}

// RawColumn is a named sequence of heterogeneous cells. Hint forces the
// storage kind when it cannot be inferred (e.g. an all-missing text column).
type RawColumn struct {
	Name  string
	Hint  Kind
	Cells []Cell
}

// Raw is an uncleaned table: ordered columns, names not necessarily unique.
type Raw struct {
	Columns []RawColumn
}

// NewRaw builds a Raw from columns.
func NewRaw(cols ...RawColumn) *Raw {
	return &Raw{Columns: cols}
}

// Add appends a column and returns the receiver for chaining.
func (r *Raw) Add(name string, cells ...Cell) *Raw {
	r.Columns = append(r.Columns, RawColumn{Name: name, Cells: cells})
	return r
}

// Strings is a convenience constructor for a column of string cells where
// "" stands for missing.
func Strings(values ...string) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		if v == "" {
			cells[i] = Missing()
			continue
		}
		cells[i] = Str(v)
	}
	return cells
}

// Floats is a convenience constructor for a column of numeric cells where
// NaN stands for missing.
func Floats(values ...float64) []Cell {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = Num(v)
	}
	return cells
}

// storageKind infers how the column is stored: numeric when every present
// cell is a number (including the all-missing case), time when every present
// cell is a timestamp, string otherwise.
func (c RawColumn) storageKind() Kind {
	if c.Hint != KindUnknown {
		return c.Hint
	}
	seen := KindUnknown
	for _, cell := range c.Cells {
		if cell.IsMissing() {
			continue
		}
		if seen == KindUnknown {
			seen = cell.kind
			continue
		}
		if cell.kind != seen {
			return KindString
		}
	}
	if seen == KindUnknown {
		return KindNumeric
	}
	return seen
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
