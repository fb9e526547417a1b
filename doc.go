// Package edaml profiles tabular datasets and trains classifiers on them.
//
// edaml is built for backend services that accept arbitrary CSV uploads: it
// cleans the data, decides which columns are numeric, categorical, temporal
// or geographic, renders an exploratory report, and trains one of a fixed
// catalog of scikit-learn-like classifiers on the last column.
//
// # Features
//
// - Automatic profiling: charts and tables per column class, rendered with gonum/plot
// - Dynamic pipelines: imputation, scaling and one-hot encoding wrapped around any catalog model
// - Loosely-typed hyperparameters: form values are coerced, bad ones fall back to defaults
// - Deterministic evaluation: stratified 80/20 split with a fixed seed
//
// # Quick Start
//
// Profiling a CSV file:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//	    "os"
//
//	    "github.com/YuminosukeSato/edaml/dataset"
//	    "github.com/YuminosukeSato/edaml/profiler"
//	)
//
//	func main() {
//	    f, err := os.Open("data.csv")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer f.Close()
//
//	    raw, err := dataset.ReadCSV(f)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    p, err := profiler.New(raw)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, sec := range p.Report().Sections {
//	        fmt.Println(sec.Name, len(sec.Items))
//	    }
//	}
//
// Training and predicting:
//
//	res := mltask.Run(p.Dataset(), mltask.RandomForest,
//	    map[string]string{"n_estimators": "50"},
//	    map[string]string{"X_age": "31", "X_city": "recife"},
//	    mltask.ActionPredict)
//	fmt.Println(res.Output, res.Metrics)
//
// # Packages
//
//   - dataset: raw tables, CSV ingestion and cleaning
//   - profiler: column classification and report generation
//   - plotting: chart and table artifacts
//   - preprocessing: imputers, scaler, encoders, column transformer
//   - sklearn/...: KNN, decision tree, random forest, logistic regression, SVC
//   - pipeline: preprocessing plus classifier as one estimator
//   - model_selection: stratified train/test split
//   - mltask: model catalog and the retrain/predict runner
//   - core/model, core/parallel: estimator contracts and parallel helpers
//   - pkg/errors, pkg/log, pkg/config: ambient error, logging and configuration
//
// The cmd/edaserver command serves all of the above over HTTP.
package edaml
