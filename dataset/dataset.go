// Package dataset holds the tabular model shared by the profiler and the
// training pipelines: raw heterogeneous input, the cleaned typed table, CSV
// ingestion and timestamp parsing.
package dataset

import (
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// Dataset is a cleaned table: ordered, uniquely named, equal-length columns.
type Dataset struct {
	cols  []*Column
	index map[string]int
}

// New builds a Dataset, checking that names are unique and lengths agree.
func New(cols ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := d.index[c.Name]; dup {
			return nil, errors.NewDataFormatError(c.Name, "duplicate column name")
		}
		if i > 0 && c.Len() != cols[0].Len() {
			return nil, errors.NewDataFormatError(c.Name, "column length differs from the first column")
		}
		d.index[c.Name] = i
	}
	d.cols = cols
	return d, nil
}

// MustNew is New for statically known tables; it panics on error.
func MustNew(cols ...*Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// NRows returns the number of rows.
func (d *Dataset) NRows() int {
	if len(d.cols) == 0 {
		return 0
	}
	return d.cols[0].Len()
}

// NCols returns the number of columns.
func (d *Dataset) NCols() int { return len(d.cols) }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order. The slice must not be modified.
func (d *Dataset) Columns() []*Column { return d.cols }

// Column returns column i.
func (d *Dataset) Column(i int) *Column { return d.cols[i] }

// Col looks a column up by name.
func (d *Dataset) Col(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.cols[i], true
}

// Replace swaps the column with the same name for c, in place.
func (d *Dataset) Replace(c *Column) error {
	i, ok := d.index[c.Name]
	if !ok {
		return errors.NewDataFormatError(c.Name, "no such column")
	}
	if c.Len() != d.NRows() {
		return errors.NewDataFormatError(c.Name, "replacement has a different length")
	}
	d.cols[i] = c
	return nil
}

// Select returns a dataset with the named columns, sharing column storage.
func (d *Dataset) Select(names ...string) (*Dataset, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := d.Col(n)
		if !ok {
			return nil, errors.NewDataFormatError(n, "no such column")
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Take returns a dataset holding the given rows in order.
func (d *Dataset) Take(rows []int) *Dataset {
	cols := make([]*Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.Take(rows)
	}
	out, _ := New(cols...)
	return out
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	rows := make([]int, d.NRows())
	for i := range rows {
		rows[i] = i
	}
	return d.Take(rows)
}
