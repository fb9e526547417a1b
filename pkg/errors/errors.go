// Package errors holds the error taxonomy of edaml and the warning channel
// used by the estimators.
//
// Errors are grouped by where they surface: loading a dataset, fitting or
// applying an estimator, running a classifier task and rendering a report
// item. Every constructor attaches a cockroachdb stack trace, and every
// typed error implements zerolog.LogObjectMarshaler so pkg/log can attach
// its fields under "error.detail".
//
// Warnings (solver not converged, imputation fallback) are not returned:
// they go through Warn to the sink pkg/log installs.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ---------------------------------------------------------------------------
// 警告チャネル
// ---------------------------------------------------------------------------

var (
	warnMu sync.Mutex
	// sink は pkg/log が設定する。import cycle を避けるため関数で受け取る
	sink    func(w error)
	handler = func(w error) { log.Printf("edaml-warning: %v", w) }
)

// SetWarningHandler replaces the fallback used while no log sink is installed.
// A nil handler drops warnings.
func SetWarningHandler(h func(w error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	handler = h
}

// SetZerologWarnFunc installs the structured log sink; nil removes it.
func SetZerologWarnFunc(f func(w error)) {
	warnMu.Lock()
	defer warnMu.Unlock()
	sink = f
}

// Warn reports a non-fatal condition to the log sink, or to the fallback
// handler when no sink is installed.
func Warn(w error) {
	warnMu.Lock()
	defer warnMu.Unlock()
	switch {
	case sink != nil:
		sink(w)
	case handler != nil:
		handler(w)
	}
}

// ConvergenceWarning: a solver stopped at its iteration cap.
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	msg := w.Message
	if msg == "" {
		msg = "consider increasing max_iter or scaling the features"
	}
	return fmt.Sprintf("%s did not converge in %d iterations: %s", w.Algorithm, w.Iterations, msg)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// EmptyColumnWarning: an imputer saw a feature column without a single
// observed value in the training split and fell back to its fill value.
type EmptyColumnWarning struct {
	Step   string
	Column int
	Fill   string
}

func (w *EmptyColumnWarning) Error() string {
	return fmt.Sprintf("%s: feature column %d has no observed values, filling with %s", w.Step, w.Column, w.Fill)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (w *EmptyColumnWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("step", w.Step).
		Int("column", w.Column).
		Str("fill", w.Fill).
		Str("type", "EmptyColumnWarning")
}

func NewEmptyColumnWarning(step string, column int, fill string) *EmptyColumnWarning {
	return &EmptyColumnWarning{Step: step, Column: column, Fill: fill}
}

// ---------------------------------------------------------------------------
// データセット
// ---------------------------------------------------------------------------

// DataFormatError is returned when raw input cannot be represented as a table.
type DataFormatError struct {
	Column string
	Reason string
}

func (e *DataFormatError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("edaml: malformed dataset: column %q: %s", e.Column, e.Reason)
	}
	return fmt.Sprintf("edaml: malformed dataset: %s", e.Reason)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *DataFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "DataFormatError")
}

func NewDataFormatError(column, reason string) error {
	return errors.WithStack(&DataFormatError{Column: column, Reason: reason})
}

// InsufficientColumnsError reports a dataset too narrow to split into
// features and target.
type InsufficientColumnsError struct {
	Need int
	Got  int
}

func (e *InsufficientColumnsError) Error() string {
	return fmt.Sprintf("edaml: the dataset needs at least %d columns, got %d", e.Need, e.Got)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *InsufficientColumnsError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("need", e.Need).
		Int("got", e.Got).
		Str("type", "InsufficientColumnsError")
}

func NewInsufficientColumnsError(need, got int) error {
	return errors.WithStack(&InsufficientColumnsError{Need: need, Got: got})
}

var (
	// ErrEmptyData: a fit or transform received zero rows.
	ErrEmptyData = errors.New("empty data")
	// ErrNoFeatures: the column transformer was given no input columns.
	ErrNoFeatures = errors.New("no feature columns")
)

// ---------------------------------------------------------------------------
// 推定器 (前処理・分類器・プロット)
// ---------------------------------------------------------------------------

// NotFittedError: Predict or Transform before a successful Fit.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("edaml: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

func NewNotFittedError(modelName, method string) error {
	return errors.WithStack(&NotFittedError{ModelName: modelName, Method: method})
}

// DimensionError reports a row or feature count that disagrees with what the
// estimator was fitted on, or inputs of mismatched length.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0: rows, 1: features
}

func (e *DimensionError) axisName() string {
	if e.Axis == 0 {
		return "rows"
	}
	return "features"
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("edaml: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, e.axisName(), e.Expected, e.Got)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Str("axis_name", e.axisName()).
		Str("type", "DimensionError")
}

func NewDimensionError(op string, expected, got, axis int) error {
	return errors.WithStack(&DimensionError{Op: op, Expected: expected, Got: got, Axis: axis})
}

// ValidationError: a hyperparameter or option outside its domain. The task
// layer treats it as the signal to fall back to defaults.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("edaml: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

func NewValidationError(param, reason string, value any) error {
	return errors.WithStack(&ValidationError{ParamName: param, Reason: reason, Value: value})
}

// ValueError: data the estimator cannot use, e.g. a single target class or a
// chart input with no rows.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("edaml: %s: %s", e.Op, e.Message)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *ValueError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("message", e.Message).
		Str("type", "ValueError")
}

func NewValueError(op, message string) error {
	return errors.WithStack(&ValueError{Op: op, Message: message})
}

// ModelError wraps a failure inside an estimator's Fit or Transform.
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("edaml: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("edaml: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *ModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("kind", e.Kind).
		AnErr("cause", e.Err).
		Str("type", "ModelError")
}

func NewModelError(op, kind string, err error) error {
	return errors.WithStack(&ModelError{Op: op, Kind: kind, Err: err})
}

// ---------------------------------------------------------------------------
// 分類タスク
// ---------------------------------------------------------------------------

// UnknownModelError reports a model name outside the catalog.
type UnknownModelError struct {
	Name  string
	Known []string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("edaml: unknown model %q (known: %v)", e.Name, e.Known)
}

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *UnknownModelError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.Name).
		Strs("known", e.Known).
		Str("type", "UnknownModelError")
}

func NewUnknownModelError(name string, known []string) error {
	return errors.WithStack(&UnknownModelError{Name: name, Known: known})
}

// ModelConstructionError reports hyperparameters a model rejected.
// It is recoverable: callers fall back to the default configuration.
type ModelConstructionError struct {
	Model string
	Err   error
}

func (e *ModelConstructionError) Error() string {
	return fmt.Sprintf("edaml: cannot construct %s with the given hyperparameters: %v", e.Model, e.Err)
}

func (e *ModelConstructionError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *ModelConstructionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.Model).
		AnErr("cause", e.Err).
		Str("type", "ModelConstructionError")
}

func NewModelConstructionError(model string, err error) error {
	return errors.WithStack(&ModelConstructionError{Model: model, Err: err})
}

// TrainingError wraps a failure while splitting, fitting or evaluating a model.
type TrainingError struct {
	Model string
	Stage string
	Err   error
}

func (e *TrainingError) Error() string {
	return fmt.Sprintf("edaml: %s: %s failed: %v", e.Model, e.Stage, e.Err)
}

func (e *TrainingError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *TrainingError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.Model).
		Str("stage", e.Stage).
		AnErr("cause", e.Err).
		Str("type", "TrainingError")
}

func NewTrainingError(model, stage string, err error) error {
	return errors.WithStack(&TrainingError{Model: model, Stage: stage, Err: err})
}

// PredictionError wraps a failure while coercing or scoring a new row.
type PredictionError struct {
	Model string
	Err   error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("edaml: %s: prediction failed: %v", e.Model, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *PredictionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.Model).
		AnErr("cause", e.Err).
		Str("type", "PredictionError")
}

func NewPredictionError(model string, err error) error {
	return errors.WithStack(&PredictionError{Model: model, Err: err})
}

// ---------------------------------------------------------------------------
// レポート
// ---------------------------------------------------------------------------

// ReportError records a single report item that could not be produced.
type ReportError struct {
	Section string
	Item    string
	Column  string
	Err     error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("edaml: %s: %s for column %q: %v", e.Section, e.Item, e.Column, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }

// MarshalZerologObject adds structured fields to a zerolog event.
func (e *ReportError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("section", e.Section).
		Str("item", e.Item).
		Str("column", e.Column).
		AnErr("cause", e.Err).
		Str("type", "ReportError")
}

func NewReportError(section, item, column string, err error) error {
	return errors.WithStack(&ReportError{Section: section, Item: item, Column: column, Err: err})
}

// ---------------------------------------------------------------------------
// cockroachdb/errors の薄いラッパー
// ---------------------------------------------------------------------------

func Is(err, target error) bool                         { return errors.Is(err, target) }
func As(err error, target any) bool                     { return errors.As(err, target) }
func Wrap(err error, message string) error              { return errors.Wrap(err, message) }
func Wrapf(err error, format string, args ...any) error { return errors.Wrapf(err, format, args...) }
func New(message string) error                          { return errors.New(message) }
func WithStack(err error) error                         { return errors.WithStack(err) }
