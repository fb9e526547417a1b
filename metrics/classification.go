// Package metrics provides evaluation metrics for fitted classifiers.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// Accuracy は正解率を計算する
// ラベルは整数コードを float64 で表したもの
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	correct, n, err := countCorrect("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率 (1 - Accuracy) を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	correct, n, err := countCorrect("ClassificationError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return float64(n-correct) / float64(n), nil
}

// AccuracyMatrix は列ベクトル (n×1 行列) 形式の入力に対して正解率を計算する
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewValueError("AccuracyMatrix", "empty matrix")
	}
	if rTrue != rPred {
		return 0, errors.NewDimensionError("AccuracyMatrix", rTrue, rPred, 0)
	}
	if cTrue != 1 || cPred != 1 {
		return 0, errors.NewValueError("AccuracyMatrix", "must be a column vector (n×1 matrix)")
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yPredVec := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yPredVec.SetVec(i, yPred.At(i, 0))
	}
	return Accuracy(yTrueVec, yPredVec)
}

// AccuracyLabels computes accuracy over integer label codes.
func AccuracyLabels(yTrue, yPred []int) (float64, error) {
	if len(yTrue) == 0 {
		return 0, errors.NewValueError("AccuracyLabels", "empty labels")
	}
	if len(yPred) != len(yTrue) {
		return 0, errors.NewDimensionError("AccuracyLabels", len(yTrue), len(yPred), 0)
	}
	correct := 0
	for i, y := range yTrue {
		if y == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

func countCorrect(op string, yTrue, yPred *mat.VecDense) (correct, n int, err error) {
	if yTrue == nil || yTrue.Len() == 0 {
		return 0, 0, errors.NewValueError(op, "empty vector")
	}
	n = yTrue.Len()
	if yPred == nil || yPred.Len() != n {
		got := 0
		if yPred != nil {
			got = yPred.Len()
		}
		return 0, 0, errors.NewDimensionError(op, n, got, 0)
	}
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return correct, n, nil
}
