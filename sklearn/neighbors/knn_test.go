package neighbors

import (
	"math"
	"testing"

	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestKNeighborsClassifier_FitPredict(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0,
		0, 1,
		1, 0,
		5, 5,
		5, 6,
		6, 5,
	})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	knn := NewKNeighborsClassifier(WithNNeighbors(3))
	if err := knn.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	pred, err := knn.Predict(mat.NewDense(2, 2, []float64{0.5, 0.5, 5.5, 5.5}))
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.At(0, 0) != 0 || pred.At(1, 0) != 1 {
		t.Errorf("unexpected predictions %v", mat.Formatted(pred))
	}

	score, err := knn.Score(X, y)
	if err != nil || score != 1 {
		t.Errorf("Score = %v, %v; want 1", score, err)
	}
}

func TestKNeighborsClassifier_PredictProba(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{0, 1, 2, 10})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	tests := []struct {
		name    string
		weights string
		query   float64
		want0   float64
	}{
		// 近傍 {1, 2, 0}: クラス0が2票
		{"uniform", "uniform", 1.2, 2.0 / 3.0},
		// 距離 0.2, 0.8, 1.2 の逆数で重み付け
		{"distance", "distance", 1.2, (1/0.2 + 1/1.2) / (1/0.2 + 1/1.2 + 1/0.8)},
		// 完全一致の点だけが票を持つ
		{"exact match", "distance", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			knn := NewKNeighborsClassifier(WithNNeighbors(3), WithWeights(tt.weights))
			if err := knn.Fit(X, y); err != nil {
				t.Fatal(err)
			}
			p, err := knn.PredictProba(mat.NewDense(1, 1, []float64{tt.query}))
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(p.At(0, 0)-tt.want0) > 1e-9 {
				t.Errorf("P(class 0) = %v, want %v", p.At(0, 0), tt.want0)
			}
			if math.Abs(p.At(0, 0)+p.At(0, 1)-1) > 1e-9 {
				t.Error("probabilities do not sum to 1")
			}
		})
	}
}

func TestKNeighborsClassifier_ParallelRows(t *testing.T) {
	n := 300
	X := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		if i >= n/2 {
			y.Set(i, 0, 1)
		}
	}
	knn := NewKNeighborsClassifier(WithMetric("manhattan"))
	if err := knn.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	score, err := knn.Score(X, y)
	if err != nil {
		t.Fatal(err)
	}
	if score < 0.95 {
		t.Errorf("score = %v, want >= 0.95", score)
	}
}

func TestKNeighborsClassifier_Errors(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{0, 1, 2})
	y := mat.NewDense(3, 1, []float64{0, 1, 1})

	if err := NewKNeighborsClassifier().Fit(X, y); err == nil {
		t.Error("n_neighbors > n_samples should fail")
	}
	if _, err := NewKNeighborsClassifier().Predict(X); err == nil {
		t.Error("predicting before Fit should fail")
	}

	knn := NewKNeighborsClassifier()
	for _, bad := range []map[string]interface{}{
		{"n_neighbors": 0},
		{"n_neighbors": "three"},
		{"weights": "gaussian"},
		{"metric": "cosine"},
		{"radius": 1.0},
	} {
		if err := knn.SetParams(bad); err == nil {
			t.Errorf("SetParams(%v) should fail", bad)
		}
	}
	if err := knn.SetParams(map[string]interface{}{"n_neighbors": 2, "weights": "distance", "n_jobs": -1}); err != nil {
		t.Fatalf("SetParams failed: %v", err)
	}
	if err := knn.Fit(X, y); err != nil {
		t.Errorf("Fit after SetParams failed: %v", err)
	}
}
