// Package profiler builds exploratory reports for cleaned tabular datasets.
//
// A Profiler cleans a raw dataset, classifies its columns into numeric,
// categorical, temporal and geographic sets, and generates report items
// (charts and tables) per class. Generators are independent and stateless
// with respect to each other: a failing item is logged and skipped, it never
// aborts the report.
package profiler

import (
	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/pkg/errors"
	"github.com/YuminosukeSato/edaml/pkg/log"
	"github.com/YuminosukeSato/edaml/plotting"
)

// Section labels, in the order generators emit them.
const (
	SectionCategorical = "Categorical Analysis"
	SectionNumerical   = "Numerical Analysis"
	SectionUnivariate  = "Advanced Univariate Analysis"
	SectionBivariate   = "Advanced Bivariate Analysis"
	SectionGeographic  = "Geographic Analysis"
	SectionTemporal    = "Temporal Analysis"
)

// ReportItem is one rendered element of a report.
type ReportItem struct {
	Section  string
	Title    string
	Artifact plotting.Artifact
}

// Profiler holds a cleaned dataset and its column classification.
type Profiler struct {
	data   *dataset.Dataset
	cls    *Classification
	opts   Options
	logger log.Logger
}

// New cleans raw and classifies the result.
func New(raw *dataset.Raw, opts ...Option) (*Profiler, error) {
	ds, err := dataset.Clean(raw)
	if err != nil {
		return nil, err
	}
	return newProfiler(ds, opts), nil
}

// NewFromDataset classifies an already cleaned dataset. The dataset is copied
// first since classification may convert temporal columns.
func NewFromDataset(ds *dataset.Dataset, opts ...Option) *Profiler {
	return newProfiler(ds.Clone(), opts)
}

func newProfiler(ds *dataset.Dataset, opts []Option) *Profiler {
	p := &Profiler{opts: DefaultOptions()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.GetLoggerWithName("profiler")
	}

	p.cls = Classify(ds, p.opts)
	p.data = ds
	p.logger.Debug("dataset classified",
		log.PhaseKey, log.PhaseProfiling,
		log.SamplesKey, ds.NRows(),
		log.FeaturesKey, ds.NCols(),
		"numeric", len(p.cls.Numeric),
		"categorical", len(p.cls.Categorical),
		"temporal", len(p.cls.Temporal),
		"geographic", len(p.cls.Geographic),
	)
	return p
}

// Dataset returns the cleaned dataset, with temporal columns converted.
func (p *Profiler) Dataset() *dataset.Dataset { return p.data }

// Classification returns the column classification.
func (p *Profiler) Classification() *Classification { return p.cls }

// attempt runs one report item. Errors and panics are logged with the item's
// section and column, and reported as false.
func (p *Profiler) attempt(section, item, column string, fn func() error) bool {
	err := errors.SafeExecute(section+": "+item, fn)
	if err == nil {
		return true
	}
	p.logger.Warn("report item skipped",
		"error", errors.NewReportError(section, item, column, err),
		log.SectionKey, section,
		log.ItemKey, item,
		log.ColumnKey, column,
	)
	return false
}
