package model

import (
	"fmt"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// addStep learns the column-0 mean on Fit and adds it on Transform.
type addStep struct {
	fitted bool
	shift  float64
	fail   bool
}

func (s *addStep) Fit(X mat.Matrix) error {
	if s.fail {
		return fmt.Errorf("fit failed")
	}
	r, _ := X.Dims()
	sum := 0.0
	for i := 0; i < r; i++ {
		sum += X.At(i, 0)
	}
	s.shift = sum / float64(r)
	s.fitted = true
	return nil
}

func (s *addStep) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.fitted {
		return nil, fmt.Errorf("not fitted")
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, v float64) float64 { return v + s.shift }, X)
	return out, nil
}

func (s *addStep) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

var _ MatrixTransformer = (*addStep)(nil)

func TestFitTransformAll(t *testing.T) {
	first, second := &addStep{}, &addStep{}
	X := mat.NewDense(2, 1, []float64{1, 3})

	out, err := FitTransformAll[mat.Matrix](X, first, second)
	if err != nil {
		t.Fatal(err)
	}
	// first: mean 2 -> [3 5]; second sees the output: mean 4 -> [7 9]
	if first.shift != 2 || second.shift != 4 {
		t.Errorf("steps should be fitted on the previous output, got shifts %v %v", first.shift, second.shift)
	}
	if got := mat.Col(nil, 0, out); got[0] != 7 || got[1] != 9 {
		t.Errorf("FitTransformAll = %v, want [7 9]", got)
	}

	// 学習済みの状態を新しい行に再適用する
	test, err := TransformAll[mat.Matrix](mat.NewDense(1, 1, []float64{0}), first, second)
	if err != nil {
		t.Fatal(err)
	}
	if v := test.At(0, 0); v != 6 {
		t.Errorf("TransformAll = %v, want 6", v)
	}
}

func TestFitTransformAllStopsOnError(t *testing.T) {
	later := &addStep{}
	_, err := FitTransformAll[mat.Matrix](mat.NewDense(1, 1, []float64{1}), &addStep{fail: true}, later)
	if err == nil {
		t.Fatal("expected the failing step's error")
	}
	if later.fitted {
		t.Error("steps after a failure must not be fitted")
	}
	if _, err := TransformAll[mat.Matrix](mat.NewDense(1, 1, nil), &addStep{}); err == nil {
		t.Error("TransformAll should surface an unfitted step")
	}
}
