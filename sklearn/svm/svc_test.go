package svm

import (
	"math"
	"testing"

	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func blobs() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(18, 2, []float64{
		0, 0, 0.2, 0.1, 0.1, 0.3, 0.3, 0.2, -0.1, 0.1, 0.2, -0.2,
		3, 3, 3.2, 2.9, 2.8, 3.1, 3.1, 3.3, 2.9, 2.8, 3.0, 3.2,
		6, 0, 6.1, 0.2, 5.9, 0.1, 6.2, 0.3, 6.0, -0.2, 5.8, 0.0,
	})
	y := mat.NewDense(18, 1, []float64{
		0, 0, 0, 0, 0, 0,
		1, 1, 1, 1, 1, 1,
		2, 2, 2, 2, 2, 2,
	})
	return X, y
}

func TestSVC_LinearBinary(t *testing.T) {
	X := mat.NewDense(8, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		1, 1,
		3, 3,
		3, 4,
		4, 3,
		4, 4,
	})
	y := mat.NewDense(8, 1, []float64{0, 0, 0, 0, 1, 1, 1, 1})

	svc := NewSVC(WithKernel(KernelLinear))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	score, err := svc.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if score != 1.0 {
		t.Errorf("expected perfect training accuracy, got %v", score)
	}

	// マージン上の点だけがサポートベクトルになる
	support := svc.Support()
	if len(support) == 0 || len(support) == 8 {
		t.Errorf("unexpected support set %v", support)
	}

	dec, err := svc.DecisionFunction(mat.NewDense(2, 2, []float64{0, 0, 4, 4}))
	if err != nil {
		t.Fatal(err)
	}
	if dec.At(0, 0) <= 0 || dec.At(1, 0) >= 0 {
		t.Errorf("class 0 should score positive: %v", mat.Formatted(dec))
	}
}

func TestSVC_RBFMulticlassProbability(t *testing.T) {
	X, y := blobs()
	svc := NewSVC(WithProbability(true), WithRandomState(42))
	if err := svc.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if score, err := svc.Score(X, y); err != nil || score != 1.0 {
		t.Errorf("Score = %v, %v", score, err)
	}

	centers := mat.NewDense(3, 2, []float64{0.1, 0.1, 3, 3, 6, 0.1})
	proba, err := svc.PredictProba(centers)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	r, c := proba.Dims()
	if r != 3 || c != 3 {
		t.Fatalf("proba dims = %dx%d", r, c)
	}
	for i := 0; i < r; i++ {
		sum, best := 0.0, 0
		for j := 0; j < c; j++ {
			p := proba.At(i, j)
			if p < 0 || p > 1 {
				t.Errorf("invalid probability %v at (%d, %d)", p, i, j)
			}
			if p > proba.At(i, best) {
				best = j
			}
			sum += p
		}
		if math.Abs(sum-1) > 1e-6 {
			t.Errorf("row %d sums to %v", i, sum)
		}
		if best != i {
			t.Errorf("center %d most likely class %d: %v", i, best, mat.Formatted(proba))
		}
	}
}

func TestSVC_Deterministic(t *testing.T) {
	X, y := blobs()
	fit := func() mat.Matrix {
		svc := NewSVC(WithProbability(true), WithRandomState(7))
		if err := svc.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		p, err := svc.PredictProba(X)
		if err != nil {
			t.Fatal(err)
		}
		return p
	}
	if a, b := fit(), fit(); !mat.Equal(a, b) {
		t.Error("same random_state produced different probabilities")
	}
}

func TestSVC_Errors(t *testing.T) {
	X, y := blobs()

	tests := []struct {
		name string
		opts []Option
	}{
		{"non-positive C", []Option{WithC(0)}},
		{"unknown kernel", []Option{WithKernel("cubic")}},
		{"negative gamma", []Option{WithGamma(-1)}},
		{"unknown gamma rule", []Option{WithGammaRule("median")}},
		{"zero max_iter", []Option{WithMaxIter(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := NewSVC(tt.opts...).Fit(X, y); err == nil {
				t.Error("expected a validation error")
			}
		})
	}

	t.Run("single class", func(t *testing.T) {
		if err := NewSVC().Fit(mat.NewDense(2, 1, []float64{0, 1}), mat.NewDense(2, 1, []float64{3, 3})); err == nil {
			t.Error("expected an error for a single class")
		}
	})

	t.Run("proba disabled", func(t *testing.T) {
		svc := NewSVC()
		if err := svc.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.PredictProba(X); err == nil {
			t.Error("expected an error when probability=false")
		}
	})

	t.Run("not fitted", func(t *testing.T) {
		_, err := NewSVC().Predict(X)
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("expected NotFittedError, got %v", err)
		}
	})
}

func TestSVC_MaxIterWarning(t *testing.T) {
	var warned []error
	errors.SetZerologWarnFunc(nil)
	errors.SetWarningHandler(func(w error) { warned = append(warned, w) })
	defer errors.SetWarningHandler(nil)

	X, y := blobs()
	if err := NewSVC(WithMaxIter(1)).Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if len(warned) == 0 {
		t.Error("expected a convergence warning")
	}
}

func TestSVC_SetParams(t *testing.T) {
	svc := NewSVC()
	err := svc.SetParams(map[string]interface{}{
		"C":           0.5,
		"kernel":      "poly",
		"degree":      2,
		"gamma":       "auto",
		"probability": "true",
	})
	if err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	params := svc.GetParams()
	if params["gamma"] != "auto" || params["kernel"] != "poly" || params["probability"] != true {
		t.Errorf("unexpected params %v", params)
	}

	if err := svc.SetParams(map[string]interface{}{"gamma": 0.25}); err != nil {
		t.Fatal(err)
	}
	if svc.GetParams()["gamma"] != 0.25 {
		t.Errorf("gamma = %v", svc.GetParams()["gamma"])
	}

	for _, bad := range []map[string]interface{}{
		{"kernel": "cubic"},
		{"C": "abc"},
		{"n_neighbors": 3},
	} {
		if err := NewSVC().SetParams(bad); err == nil {
			t.Errorf("SetParams(%v) should fail", bad)
		}
	}
}

func TestSigmoidTrain(t *testing.T) {
	dec := []float64{-2, -1.5, -1, 1, 1.5, 2}
	y := []float64{-1, -1, -1, 1, 1, 1}
	A, _ := sigmoidTrain(dec, y)
	if A >= 0 {
		t.Errorf("A = %v, positive decisions should map to high probability", A)
	}
	if p := sigmoidPredict(2, A, 0); p <= 0.5 {
		t.Errorf("P(+1 | f=2) = %v", p)
	}
}

func TestCoupleProbabilities(t *testing.T) {
	r := [][]float64{
		{0, 0.5, 0.5},
		{0.5, 0, 0.5},
		{0.5, 0.5, 0},
	}
	for _, p := range coupleProbabilities(r) {
		if math.Abs(p-1.0/3.0) > 1e-9 {
			t.Errorf("uniform pairwise estimates should couple to 1/3, got %v", p)
		}
	}

	r = [][]float64{
		{0, 0.9, 0.9},
		{0.1, 0, 0.5},
		{0.1, 0.5, 0},
	}
	p := coupleProbabilities(r)
	if p[0] <= p[1] || math.Abs(p[1]-p[2]) > 1e-6 {
		t.Errorf("unexpected coupling %v", p)
	}
}
