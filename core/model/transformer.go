package model

import "gonum.org/v1/gonum/mat"

// Transformer is a preprocessing step that learns its state from the
// training split and replays it on test rows and prediction rows. T is the
// block it works on: a numeric matrix or rows of text cells.
type Transformer[T any] interface {
	Fit(X T) error
	Transform(X T) (T, error)
	FitTransform(X T) (T, error)
}

// MatrixTransformer works on the numeric feature block (NaN = missing).
type MatrixTransformer = Transformer[mat.Matrix]

// TextTransformer works on the categorical block ("" = missing).
type TextTransformer = Transformer[[][]string]

// FitTransformAll fits every step on the output of the previous one and
// returns the last output.
func FitTransformAll[T any](X T, steps ...Transformer[T]) (T, error) {
	for _, s := range steps {
		out, err := s.FitTransform(X)
		if err != nil {
			var zero T
			return zero, err
		}
		X = out
	}
	return X, nil
}

// TransformAll replays already fitted steps in order.
func TransformAll[T any](X T, steps ...Transformer[T]) (T, error) {
	for _, s := range steps {
		out, err := s.Transform(X)
		if err != nil {
			var zero T
			return zero, err
		}
		X = out
	}
	return X, nil
}
