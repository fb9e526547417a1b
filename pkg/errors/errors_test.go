package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		kind     string
		err      error
		wantMsg  string
		hasStack bool
	}{
		{
			name:     "with original error",
			op:       "Fit",
			kind:     "invalid input",
			err:      fmt.Errorf("test error"),
			wantMsg:  "edaml: Fit: invalid input: test error",
			hasStack: true,
		},
		{
			name:     "without original error",
			op:       "Predict",
			kind:     "not fitted",
			err:      nil,
			wantMsg:  "edaml: Predict: not fitted",
			hasStack: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			// 基本的なエラーメッセージの確認
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			if tt.hasStack {
				formatted := fmt.Sprintf("%+v", err)
				if !strings.Contains(formatted, "errors_test.go") {
					t.Error("Expected stack trace to contain test file name")
				}
			}

			// ModelError型にキャスト可能か確認
			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}

			// ModelError型へのキャストのみ確認
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 10, 0)

	// 基本的なエラーメッセージの確認
	want := "edaml: Predict: dimension mismatch on axis 0 (rows). Expected 10, got 10"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// DimensionError型にキャスト可能か確認
	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Error("Error should be castable to *DimensionError")
	}

	// DimensionError型へのキャストのみ確認
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("LogisticRegression", "Predict")

	// 基本的なエラーメッセージの確認
	want := "edaml: LogisticRegression: this model is not fitted yet. Call Fit() before using Predict()"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}

	// NotFittedError型にキャスト可能か確認
	var notFittedErr *NotFittedError
	if !As(err, &notFittedErr) {
		t.Error("Error should be castable to *NotFittedError")
	}
}

func TestNewValueError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		param   string
		value   interface{}
		message string
		wantMsg string
	}{
		{
			name:    "with message",
			op:      "SetParam",
			param:   "learning_rate",
			value:   -0.5,
			message: "must be positive",
			wantMsg: "edaml: SetParam: learning_rate: -0.5 (must be positive)",
		},
		{
			name:    "without message",
			op:      "SetParam",
			param:   "n_components",
			value:   0,
			message: "",
			wantMsg: "edaml: SetParam: n_components: 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			if tt.message != "" {
				err = NewValueError(tt.op, fmt.Sprintf("%s: %v (%s)", tt.param, tt.value, tt.message))
			} else {
				err = NewValueError(tt.op, fmt.Sprintf("%s: %v", tt.param, tt.value))
			}

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// ValueError型にキャスト可能か確認
			var valErr *ValueError
			if !As(err, &valErr) {
				t.Error("Error should be castable to *ValueError")
			}
		})
	}
}

func TestNewConvergenceWarning(t *testing.T) {
	warn := NewConvergenceWarning("GradientDescent", 1000, "loss did not decrease")

	// 基本的なエラーメッセージの確認
	want := "GradientDescent did not converge in 1000 iterations: loss did not decrease"
	if warn.Error() != want {
		t.Errorf("Error() = %v, want %v", warn.Error(), want)
	}

	// ConvergenceWarning型へのキャストのみ確認
	var convWarn *ConvergenceWarning
	if !As(warn, &convWarn) {
		t.Error("Warning should be castable to *ConvergenceWarning")
	}
}

func TestEmptyColumnWarning(t *testing.T) {
	w := NewEmptyColumnWarning("SimpleImputer.Fit", 2, "0")
	want := "SimpleImputer.Fit: feature column 2 has no observed values, filling with 0"
	if w.Error() != want {
		t.Errorf("Error() = %q, want %q", w.Error(), want)
	}
}

func TestNumericalInstabilityError(t *testing.T) {
	vals := []float64{math.NaN(), math.Inf(1), 1, 2, 3, 4, 5}
	err := NewNumericalInstabilityError("LogisticRegression.Fit", vals, 7)
	want := "edaml: numerical instability detected in LogisticRegression.Fit at iteration 7. Values: [NaN, +Inf, 1, 2, 3, ...]"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err := CheckNumericalStability("x", []float64{1, 2}, 0); err != nil {
		t.Errorf("finite values should pass, got %v", err)
	}
}

// 全ての型付きエラーが pkg/log に構造化フィールドを渡せること
func TestTypedErrorsMarshalZerolog(t *testing.T) {
	cause := fmt.Errorf("cause")
	tests := []struct {
		err      error
		wantType string
	}{
		{NewDataFormatError("age", "ragged"), "DataFormatError"},
		{NewInsufficientColumnsError(2, 1), "InsufficientColumnsError"},
		{NewNotFittedError("KNN", "Predict"), "NotFittedError"},
		{NewDimensionError("Predict", 3, 2, 1), "DimensionError"},
		{NewValidationError("C", "must be positive", -1.0), "ValidationError"},
		{NewValueError("TrainTestSplit", "one class"), "ValueError"},
		{NewModelError("SVC.Fit", "solver failed", cause), "ModelError"},
		{NewUnknownModelError("XGBoost", []string{"KNN"}), "UnknownModelError"},
		{NewModelConstructionError("SVM", cause), "ModelConstructionError"},
		{NewTrainingError("SVM", "fit", cause), "TrainingError"},
		{NewPredictionError("KNN", cause), "PredictionError"},
		{NewReportError("Advanced", "violin", "price", cause), "ReportError"},
		{NewNumericalInstabilityError("fit", []float64{math.NaN()}, 1), "NumericalInstabilityError"},
		{&PanicError{Operation: "chart", Value: "boom"}, "PanicError"},
	}
	for _, tt := range tests {
		t.Run(tt.wantType, func(t *testing.T) {
			var m zerolog.LogObjectMarshaler
			if !As(tt.err, &m) {
				t.Fatalf("%T does not implement zerolog.LogObjectMarshaler", tt.err)
			}
			var buf bytes.Buffer
			logger := zerolog.New(&buf)
			logger.Info().Object("detail", m).Send()
			var line struct {
				Detail map[string]any `json:"detail"`
			}
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("invalid JSON %q: %v", buf.String(), err)
			}
			if line.Detail["type"] != tt.wantType {
				t.Errorf("type = %v, want %s", line.Detail["type"], tt.wantType)
			}
		})
	}
}

func TestWrapAndIs(t *testing.T) {
	// 元のエラー
	baseErr := ErrNoFeatures

	// ラップ
	wrapped := Wrap(baseErr, "in ColumnTransformer.Fit")

	// Is関数でチェック
	if !Is(wrapped, ErrNoFeatures) {
		t.Error("Expected Is(wrapped, ErrNoFeatures) to be true")
	}

	// エラーメッセージの確認
	if !strings.Contains(wrapped.Error(), "in ColumnTransformer.Fit") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	// 元のエラー
	baseErr := ErrEmptyData

	// フォーマット付きラップ
	wrapped := Wrapf(baseErr, "in %s: expected %d, got %d", "Predict", 10, 5)

	// Is関数でチェック
	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	// エラーメッセージの確認
	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestErrorChaining(t *testing.T) {
	// エラーチェーンの作成
	err1 := fmt.Errorf("base error")
	err2 := Wrap(err1, "wrapped once")
	err3 := NewModelError("Operation", "failed", err2)

	// チェーン全体を確認
	if !strings.Contains(err3.Error(), "base error") {
		t.Error("Expected error chain to contain base error")
	}

	// スタックトレースの確認（詳細表示）
	formatted := fmt.Sprintf("%+v", err3)
	if !strings.Contains(formatted, "errors_test.go") {
		t.Error("Expected detailed error to contain stack trace")
	}
}

func TestDomainErrors(t *testing.T) {
	cause := fmt.Errorf("singular kernel")

	tests := []struct {
		name    string
		err     error
		wantMsg string
		check   func(error) bool
	}{
		{
			name:    "data format",
			err:     NewDataFormatError("age", "ragged column: 3 cells, want 4"),
			wantMsg: `edaml: malformed dataset: column "age": ragged column: 3 cells, want 4`,
			check:   func(err error) bool { var e *DataFormatError; return As(err, &e) },
		},
		{
			name:    "insufficient columns",
			err:     NewInsufficientColumnsError(2, 1),
			wantMsg: "edaml: the dataset needs at least 2 columns, got 1",
			check:   func(err error) bool { var e *InsufficientColumnsError; return As(err, &e) },
		},
		{
			name:    "unknown model",
			err:     NewUnknownModelError("XGBoost", []string{"KNN"}),
			wantMsg: `edaml: unknown model "XGBoost" (known: [KNN])`,
			check:   func(err error) bool { var e *UnknownModelError; return As(err, &e) },
		},
		{
			name:    "training wraps cause",
			err:     NewTrainingError("SVM", "fit", cause),
			wantMsg: "edaml: SVM: fit failed: singular kernel",
			check:   func(err error) bool { return Is(err, cause) },
		},
		{
			name:    "prediction wraps cause",
			err:     NewPredictionError("KNN", cause),
			wantMsg: "edaml: KNN: prediction failed: singular kernel",
			check:   func(err error) bool { var e *PredictionError; return As(err, &e) && Is(err, cause) },
		},
		{
			name:    "construction wraps cause",
			err:     NewModelConstructionError("DecisionTree", cause),
			wantMsg: "edaml: cannot construct DecisionTree with the given hyperparameters: singular kernel",
			check:   func(err error) bool { return Is(err, cause) },
		},
		{
			name:    "report item",
			err:     NewReportError("Numerical Analysis", "histogram", "age", cause),
			wantMsg: `edaml: Numerical Analysis: histogram for column "age": singular kernel`,
			check:   func(err error) bool { var e *ReportError; return As(err, &e) && e.Column == "age" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.wantMsg)
			}
			if !tt.check(tt.err) {
				t.Errorf("type check failed for %T", tt.err)
			}
		})
	}
}

func TestWarnUsesInstalledSink(t *testing.T) {
	var got []error
	SetZerologWarnFunc(func(w error) { got = append(got, w) })
	defer SetZerologWarnFunc(nil)

	Warn(NewConvergenceWarning("SVC", 10, ""))

	if len(got) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(got))
	}
	var cw *ConvergenceWarning
	if !As(got[0], &cw) || cw.Iterations != 10 {
		t.Errorf("unexpected warning %v", got[0])
	}
}
