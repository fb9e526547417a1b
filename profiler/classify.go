package profiler

import (
	"strings"

	"github.com/YuminosukeSato/edaml/dataset"
)

// Category is the single class a column is profiled as.
type Category int

const (
	Unclassified Category = iota
	Numeric
	Categorical
	Temporal
	Geographic
)

func (c Category) String() string {
	switch c {
	case Numeric:
		return "numeric"
	case Categorical:
		return "categorical"
	case Temporal:
		return "temporal"
	case Geographic:
		return "geographic"
	default:
		return "unclassified"
	}
}

// Tag is the set of categories the cascade considered for a column before
// overlaps were resolved.
type Tag uint8

const (
	TagNumeric Tag = 1 << iota
	TagCategorical
	TagTemporal
	TagGeographic
)

// Has reports whether every bit of o is set in t.
func (t Tag) Has(o Tag) bool { return t&o == o }

// Classification partitions the columns of a dataset into four disjoint,
// ordered name lists.
type Classification struct {
	Numeric     []string
	Categorical []string
	Temporal    []string
	Geographic  []string

	category   map[string]Category
	candidates map[string]Tag
}

// Category returns the class the named column resolved to.
func (c *Classification) Category(name string) Category {
	return c.category[name]
}

// Candidates returns the tags the cascade assigned to the named column.
func (c *Classification) Candidates(name string) Tag {
	return c.candidates[name]
}

// Classify runs the classification cascade over every column of ds in order.
//
// String columns whose name carries a temporal keyword are parsed as
// timestamps; when at least one value parses the column is replaced in ds by
// its converted form, with unparsable values missing. Distinct counts are
// taken before that conversion.
//
// Overlaps resolve with precedence Temporal > Geographic > Categorical >
// Numeric.
func Classify(ds *dataset.Dataset, opts Options) *Classification {
	cls := &Classification{
		category:   make(map[string]Category, ds.NCols()),
		candidates: make(map[string]Tag, ds.NCols()),
	}

	for _, col := range ds.Columns() {
		name := col.Name
		nunique := col.NUnique()
		var tag Tag

		if col.Kind == dataset.KindString && containsAny(name, opts.TemporalKeywords) {
			if conv, parsed := col.ParseTimes(dataset.ParseTime); parsed > 0 {
				// 名前は一意なので Replace は失敗しない
				_ = ds.Replace(conv)
				col = conv
			}
		}

		if containsAny(name, opts.GeoKeywords) {
			tag |= TagGeographic
		}

		switch {
		case col.Kind == dataset.KindTime:
			tag |= TagTemporal
		case col.Kind == dataset.KindNumeric && (nunique >= opts.CategoricalThreshold || nunique == 0):
			tag |= TagNumeric
		case col.Kind == dataset.KindString || col.Kind == dataset.KindNumeric:
			tag |= TagCategorical
		}

		cls.candidates[name] = tag
		cls.assign(name, resolve(tag))
	}
	return cls
}

// resolve applies the overlap precedence to a candidate set.
func resolve(tag Tag) Category {
	switch {
	case tag.Has(TagTemporal):
		return Temporal
	case tag.Has(TagGeographic):
		return Geographic
	case tag.Has(TagCategorical):
		return Categorical
	case tag.Has(TagNumeric):
		return Numeric
	default:
		return Unclassified
	}
}

func (c *Classification) assign(name string, cat Category) {
	c.category[name] = cat
	switch cat {
	case Numeric:
		c.Numeric = append(c.Numeric, name)
	case Categorical:
		c.Categorical = append(c.Categorical, name)
	case Temporal:
		c.Temporal = append(c.Temporal, name)
	case Geographic:
		c.Geographic = append(c.Geographic, name)
	}
}

func containsAny(name string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
