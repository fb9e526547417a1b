package mltask

import (
	"sort"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/edaml/core/model"
	"github.com/YuminosukeSato/edaml/pkg/errors"
	"github.com/YuminosukeSato/edaml/sklearn/ensemble"
	"github.com/YuminosukeSato/edaml/sklearn/linear_model"
	"github.com/YuminosukeSato/edaml/sklearn/neighbors"
	"github.com/YuminosukeSato/edaml/sklearn/svm"
	"github.com/YuminosukeSato/edaml/sklearn/tree"
)

// ModelName identifies a classifier of the fixed catalog.
type ModelName string

// Catalog entries.
const (
	KNN                ModelName = "KNN"
	DecisionTree       ModelName = "DecisionTree"
	RandomForest       ModelName = "RandomForest"
	LogisticRegression ModelName = "LogisticRegression"
	SVM                ModelName = "SVM"
)

var (
	_ model.ConfigurableClassifier = (*neighbors.KNeighborsClassifier)(nil)
	_ model.ConfigurableClassifier = (*tree.DecisionTreeClassifier)(nil)
	_ model.ConfigurableClassifier = (*ensemble.RandomForestClassifier)(nil)
	_ model.ConfigurableClassifier = (*linear_model.LogisticRegression)(nil)
	_ model.ConfigurableClassifier = (*svm.SVC)(nil)
)

// constructors build a catalog model with its base configuration.
var constructors = map[ModelName]func(o Options) model.ConfigurableClassifier{
	KNN: func(Options) model.ConfigurableClassifier {
		return neighbors.NewKNeighborsClassifier()
	},
	DecisionTree: func(Options) model.ConfigurableClassifier {
		return tree.NewDecisionTreeClassifier()
	},
	RandomForest: func(Options) model.ConfigurableClassifier {
		return ensemble.NewRandomForestClassifier()
	},
	LogisticRegression: func(o Options) model.ConfigurableClassifier {
		return linear_model.NewLogisticRegression(linear_model.WithLRMaxIter(o.LogisticMaxIter))
	},
	SVM: func(Options) model.ConfigurableClassifier {
		return svm.NewSVC(svm.WithProbability(true))
	},
}

// Models returns the catalog names in sorted order.
func Models() []ModelName {
	names := make([]ModelName, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func knownNames() []string {
	var out []string
	for _, n := range Models() {
		out = append(out, string(n))
	}
	return out
}

// NewModel constructs a catalog model and applies params on top of its base
// configuration. A rejected parameter yields a ModelConstructionError; an
// unknown name an UnknownModelError.
func NewModel(name ModelName, params map[string]interface{}, o Options) (model.ConfigurableClassifier, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, errors.NewUnknownModelError(string(name), knownNames())
	}
	clf := ctor(o)
	if len(params) == 0 {
		return clf, nil
	}
	if err := clf.SetParams(params); err != nil {
		return nil, errors.NewModelConstructionError(string(name), err)
	}
	return clf, nil
}

// ParamValue coerces a raw hyperparameter: integer first, then float,
// otherwise the trimmed string.
func ParamValue(raw string) interface{} {
	s := strings.TrimSpace(raw)
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// CoerceParams applies ParamValue to every non-empty value.
func CoerceParams(raw map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		if strings.TrimSpace(v) == "" {
			continue
		}
		out[k] = ParamValue(v)
	}
	return out
}
