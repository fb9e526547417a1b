package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// NormalizeName returns the canonical form of a column name: surrounding
// whitespace trimmed, lower-cased, inner spaces replaced by underscores.
// It is idempotent.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// Clean turns raw input into a Dataset:
//   - column names are normalized; a blank name becomes "unnamed:_<i>" and
//     later duplicates get ".1", ".2", ... suffixes;
//   - a text column becomes numeric only if every present value parses as a
//     number, otherwise it is left untouched;
//   - exact duplicate rows are dropped, keeping the first occurrence;
//   - remaining rows are renumbered from zero.
//
// It fails only when the input cannot be represented as a table.
func Clean(raw *Raw) (*Dataset, error) {
	if raw == nil {
		return nil, errors.NewDataFormatError("", "nil dataset")
	}

	nRows := -1
	names := make([]string, len(raw.Columns))
	used := make(map[string]int, len(raw.Columns))
	for i, rc := range raw.Columns {
		if nRows < 0 {
			nRows = len(rc.Cells)
		} else if len(rc.Cells) != nRows {
			return nil, errors.NewDataFormatError(rc.Name,
				fmt.Sprintf("ragged column: %d cells, want %d", len(rc.Cells), nRows))
		}

		name := NormalizeName(rc.Name)
		if name == "" {
			name = fmt.Sprintf("unnamed:_%d", i)
		}
		if n, dup := used[name]; dup {
			// 既存の列名 (例えば入力にある "a.1") とも衝突しない番号まで進める
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := used[name]; !taken {
					break
				}
			}
			used[base] = n
		}
		used[name] = 0
		names[i] = name
	}

	cols := make([]*Column, len(raw.Columns))
	for i, rc := range raw.Columns {
		c, err := materialize(names[i], rc)
		if err != nil {
			return nil, err
		}
		cols[i] = coerceNumeric(c)
	}

	ds, err := New(cols...)
	if err != nil {
		return nil, err
	}
	return dropDuplicateRows(ds), nil
}

// materialize converts raw cells into typed storage.
func materialize(name string, rc RawColumn) (*Column, error) {
	n := len(rc.Cells)
	null := make([]bool, n)

	switch kind := rc.storageKind(); kind {
	case KindNumeric:
		values := make([]float64, n)
		for i, cell := range rc.Cells {
			switch {
			case cell.IsMissing():
				null[i], values[i] = true, math.NaN()
			case cell.kind == KindNumeric:
				values[i] = cell.f
			default:
				f, ok := parseNumber(cell.String())
				if !ok {
					return nil, errors.NewDataFormatError(name,
						fmt.Sprintf("row %d: %q is not numeric", i, cell.String()))
				}
				values[i] = f
				null[i] = math.IsNaN(f)
			}
		}
		return &Column{Name: name, Kind: KindNumeric, num: values, null: null}, nil

	case KindTime:
		values := make([]time.Time, n)
		for i, cell := range rc.Cells {
			switch {
			case cell.IsMissing():
				null[i] = true
			case cell.kind == KindTime:
				values[i] = cell.t
			default:
				t, ok := ParseTime(cell.String())
				if !ok {
					return nil, errors.NewDataFormatError(name,
						fmt.Sprintf("row %d: %q is not a timestamp", i, cell.String()))
				}
				values[i] = t
			}
		}
		return &Column{Name: name, Kind: KindTime, tm: values, null: null}, nil

	default:
		values := make([]string, n)
		for i, cell := range rc.Cells {
			if cell.IsMissing() {
				null[i] = true
				continue
			}
			values[i] = cell.String()
		}
		return &Column{Name: name, Kind: KindString, str: values, null: null}, nil
	}
}

// coerceNumeric converts a string column to numeric when every present
// value parses; blank strings count as missing. Otherwise c is returned as is.
func coerceNumeric(c *Column) *Column {
	if c.Kind != KindString {
		return c
	}
	values := make([]float64, c.Len())
	null := make([]bool, c.Len())
	for i := range c.str {
		if c.null[i] {
			null[i], values[i] = true, math.NaN()
			continue
		}
		f, ok := parseNumber(c.str[i])
		if !ok {
			return c
		}
		values[i] = f
		null[i] = math.IsNaN(f)
	}
	return &Column{Name: c.Name, Kind: KindNumeric, num: values, null: null}
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// dropDuplicateRows keeps the first occurrence of every distinct row.
// Missing cells compare equal to each other.
func dropDuplicateRows(ds *Dataset) *Dataset {
	n := ds.NRows()
	if n == 0 || ds.NCols() == 0 {
		return ds
	}
	seen := make(map[string]struct{}, n)
	keep := make([]int, 0, n)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.Reset()
		for _, c := range ds.cols {
			if c.null[i] {
				b.WriteByte(0)
			} else {
				b.WriteByte(1)
				b.WriteString(c.String(i))
			}
			b.WriteByte(0x1f)
		}
		key := b.String()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keep = append(keep, i)
	}
	if len(keep) == n {
		return ds
	}
	return ds.Take(keep)
}
