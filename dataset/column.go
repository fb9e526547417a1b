package dataset

import (
	"math"
	"sort"
	"time"
)

// Column is a typed, cleaned column. Exactly one of the value slices is
// populated, matching Kind; null marks missing cells for every kind.
type Column struct {
	Name string
	Kind Kind

	str  []string
	num  []float64
	tm   []time.Time
	null []bool
}

// NewStringColumn builds a string column. A nil null slice means no missing cells.
func NewStringColumn(name string, values []string, null []bool) *Column {
	return &Column{Name: name, Kind: KindString, str: values, null: nullOrEmpty(null, len(values))}
}

// NewNumericColumn builds a numeric column; NaN values are missing.
func NewNumericColumn(name string, values []float64) *Column {
	null := make([]bool, len(values))
	for i, v := range values {
		null[i] = math.IsNaN(v)
	}
	return &Column{Name: name, Kind: KindNumeric, num: values, null: null}
}

// NewTimeColumn builds a timestamp column.
func NewTimeColumn(name string, values []time.Time, null []bool) *Column {
	return &Column{Name: name, Kind: KindTime, tm: values, null: nullOrEmpty(null, len(values))}
}

func nullOrEmpty(null []bool, n int) []bool {
	if null == nil {
		return make([]bool, n)
	}
	return null
}

// Len returns the number of rows.
func (c *Column) Len() int { return len(c.null) }

// IsNull reports whether row i is missing.
func (c *Column) IsNull(i int) bool { return c.null[i] }

// IsNumeric reports whether the column is stored as numbers.
func (c *Column) IsNumeric() bool { return c.Kind == KindNumeric }

// Float returns row i as a number, NaN when missing or not numeric.
func (c *Column) Float(i int) float64 {
	if c.Kind != KindNumeric || c.null[i] {
		return math.NaN()
	}
	return c.num[i]
}

// TimeAt returns row i as a timestamp; ok is false when missing or not temporal.
func (c *Column) TimeAt(i int) (t time.Time, ok bool) {
	if c.Kind != KindTime || c.null[i] {
		return time.Time{}, false
	}
	return c.tm[i], true
}

// String formats row i; missing rows format as "".
func (c *Column) String(i int) string {
	if c.null[i] {
		return ""
	}
	switch c.Kind {
	case KindNumeric:
		return formatFloat(c.num[i])
	case KindTime:
		return c.tm[i].Format(time.RFC3339Nano)
	default:
		return c.str[i]
	}
}

// Floats returns every row as a number, NaN for missing.
func (c *Column) Floats() []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.Float(i)
	}
	return out
}

// Present returns the non-missing numeric values in row order.
func (c *Column) Present() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, c.Len())
	for i, v := range c.num {
		if !c.null[i] {
			out = append(out, v)
		}
	}
	return out
}

// Times returns the non-missing timestamps in row order.
func (c *Column) Times() []time.Time {
	if c.Kind != KindTime {
		return nil
	}
	out := make([]time.Time, 0, c.Len())
	for i, t := range c.tm {
		if !c.null[i] {
			out = append(out, t)
		}
	}
	return out
}

// NullCount returns the number of missing rows.
func (c *Column) NullCount() int {
	n := 0
	for _, null := range c.null {
		if null {
			n++
		}
	}
	return n
}

// NUnique returns the number of distinct non-missing values.
func (c *Column) NUnique() int {
	seen := make(map[string]struct{})
	for i := range c.null {
		if !c.null[i] {
			seen[c.String(i)] = struct{}{}
		}
	}
	return len(seen)
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string
	Count int
}

// ValueCounts returns the frequency of each distinct non-missing value,
// most frequent first; equal counts keep first-occurrence order.
func (c *Column) ValueCounts() []ValueCount {
	pos := make(map[string]int)
	var counts []ValueCount
	for i := range c.null {
		if c.null[i] {
			continue
		}
		v := c.String(i)
		if p, ok := pos[v]; ok {
			counts[p].Count++
			continue
		}
		pos[v] = len(counts)
		counts = append(counts, ValueCount{Value: v, Count: 1})
	}
	sort.SliceStable(counts, func(a, b int) bool { return counts[a].Count > counts[b].Count })
	return counts
}

// Take returns a new column holding the given rows in order.
func (c *Column) Take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, null: make([]bool, len(rows))}
	switch c.Kind {
	case KindNumeric:
		out.num = make([]float64, len(rows))
	case KindTime:
		out.tm = make([]time.Time, len(rows))
	default:
		out.str = make([]string, len(rows))
	}
	for j, i := range rows {
		out.null[j] = c.null[i]
		switch c.Kind {
		case KindNumeric:
			out.num[j] = c.num[i]
		case KindTime:
			out.tm[j] = c.tm[i]
		default:
			out.str[j] = c.str[i]
		}
	}
	return out
}

// ParseTimes converts a string column to a time column using parse.
// Values parse fails on become missing. It returns the converted column
// and the number of values that parsed; the receiver is not modified.
func (c *Column) ParseTimes(parse func(string) (time.Time, bool)) (*Column, int) {
	out := &Column{Name: c.Name, Kind: KindTime, tm: make([]time.Time, c.Len()), null: make([]bool, c.Len())}
	parsed := 0
	for i := range c.null {
		if c.null[i] {
			out.null[i] = true
			continue
		}
		t, ok := parse(c.String(i))
		if !ok {
			out.null[i] = true
			continue
		}
		out.tm[i] = t
		parsed++
	}
	return out, parsed
}
