package dataset

import (
	"io"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// MissingTokens are the CSV cell values read as missing.
var MissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None", "<nil>"}

// ReadCSV parses a headed CSV document into a Raw table. Column types are
// detected per column; undetectable columns are kept as text for Clean to
// coerce.
func ReadCSV(r io.Reader) (*Raw, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingTokens),
		dataframe.WithLazyQuotes(true),
	)
	if df.Err != nil {
		return nil, errors.WithStack(&errors.DataFormatError{Reason: df.Err.Error()})
	}
	return FromDataFrame(df)
}

// FromDataFrame converts a gota DataFrame into a Raw table.
func FromDataFrame(df dataframe.DataFrame) (*Raw, error) {
	if df.Err != nil {
		return nil, errors.WithStack(&errors.DataFormatError{Reason: df.Err.Error()})
	}

	raw := &Raw{Columns: make([]RawColumn, 0, df.Ncol())}
	for _, name := range df.Names() {
		s := df.Col(name)
		if s.Err != nil {
			return nil, errors.NewDataFormatError(name, s.Err.Error())
		}

		cells := make([]Cell, s.Len())
		numeric := s.Type() == series.Int || s.Type() == series.Float
		for i := 0; i < s.Len(); i++ {
			e := s.Elem(i)
			switch {
			case e.IsNA():
				cells[i] = Missing()
			case numeric:
				cells[i] = Num(e.Float())
			default:
				cells[i] = Str(e.String())
			}
		}

		col := RawColumn{Name: name, Cells: cells}
		if !numeric {
			col.Hint = KindString
		}
		raw.Columns = append(raw.Columns, col)
	}
	return raw, nil
}
