package mltask

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// RowFromFields builds a one-row dataset with the columns of features from
// request fields. Only fields carrying prefix are read, with the prefix
// stripped. Each value takes the kind of its training column; empty values
// are missing. A numeric feature that is not a number is a DataFormatError,
// a timestamp that does not parse stays text (an unknown category).
func RowFromFields(features *dataset.Dataset, fields map[string]string, prefix string) (*dataset.Dataset, error) {
	values := make(map[string]string, len(fields))
	for k, v := range fields {
		if name, ok := strings.CutPrefix(k, prefix); ok {
			values[name] = v
		}
	}

	cols := make([]*dataset.Column, 0, features.NCols())
	for _, c := range features.Columns() {
		raw, ok := values[c.Name]
		if !ok {
			return nil, errors.NewDataFormatError(c.Name, "feature is missing from the prediction request")
		}
		col, err := cellColumn(c, raw)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return dataset.New(cols...)
}

func cellColumn(train *dataset.Column, raw string) (*dataset.Column, error) {
	s := strings.TrimSpace(raw)
	missing := s == ""

	switch train.Kind {
	case dataset.KindNumeric:
		if missing {
			return dataset.NewNumericColumn(train.Name, []float64{math.NaN()}), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.NewDataFormatError(train.Name, "could not convert "+strconv.Quote(raw)+" to a number")
		}
		return dataset.NewNumericColumn(train.Name, []float64{f}), nil
	case dataset.KindTime:
		if missing {
			return dataset.NewTimeColumn(train.Name, []time.Time{{}}, []bool{true}), nil
		}
		if t, ok := dataset.ParseTime(s); ok {
			return dataset.NewTimeColumn(train.Name, []time.Time{t}, nil), nil
		}
	default:
		if missing {
			return dataset.NewStringColumn(train.Name, []string{""}, []bool{true}), nil
		}
	}
	return dataset.NewStringColumn(train.Name, []string{raw}, nil), nil
}

// predictRow scores newRow with the fitted pipeline. It returns the decoded
// label and the probability of that label.
func predictRow(b *Built, newRow map[string]string, prefix string) (string, float64, error) {
	row, err := RowFromFields(b.Features, newRow, prefix)
	if err != nil {
		return "", 0, err
	}

	pred, err := b.Pipeline.Predict(row)
	if err != nil {
		return "", 0, err
	}
	proba, err := b.Pipeline.PredictProba(row)
	if err != nil {
		return "", 0, err
	}
	labels, err := b.Labels.InverseTransform(pred[:1])
	if err != nil {
		return "", 0, err
	}

	score := 0.0
	for j, c := range b.Pipeline.Classes() {
		if c == pred[0] {
			score = proba.At(0, j)
			break
		}
	}
	return labels[0], score, nil
}
