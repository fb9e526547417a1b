package profiler

import (
	"math"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/dataset"
	"github.com/YuminosukeSato/edaml/pkg/log"
	"github.com/YuminosukeSato/edaml/plotting"
)

var smallCharts = func() Options {
	o := DefaultOptions()
	o.ChartSize = plotting.SizeCm(6, 4)
	return o
}()

func newTestProfiler(t *testing.T, raw *dataset.Raw) (*Profiler, *log.TestLogger) {
	t.Helper()
	logger, _ := log.NewTestLogger(log.LevelDebug)
	p, err := New(raw, WithOptions(smallCharts), WithLogger(logger))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return p, logger
}

// customers returns n distinct rows: a high-cardinality numeric column, a
// low-cardinality numeric column, a city, a signup date and a plan.
func customers(n int) *dataset.Raw {
	age := make([]float64, n)
	score := make([]float64, n)
	city := make([]string, n)
	signup := make([]string, n)
	plan := make([]string, n)
	cities := []string{"Recife", "Natal", "Salvador"}
	for i := 0; i < n; i++ {
		age[i] = float64(18 + i)
		score[i] = float64(i%3 + 1)
		city[i] = cities[i%len(cities)]
		signup[i] = time.Date(2024, 3, 1+i%10, 9, 0, 0, 0, time.UTC).Format("2006-01-02")
		plan[i] = []string{"free", "pro"}[i%2]
	}
	return dataset.NewRaw().
		Add("Age", dataset.Floats(age...)...).
		Add("Score", dataset.Floats(score...)...).
		Add("City", dataset.Strings(city...)...).
		Add("Signup Date", dataset.Strings(signup...)...).
		Add("Plan", dataset.Strings(plan...)...)
}

func TestClassify(t *testing.T) {
	p, _ := newTestProfiler(t, customers(30))
	cls := p.Classification()

	tests := []struct {
		column string
		want   Category
	}{
		{"age", Numeric},
		{"score", Categorical},
		{"city", Geographic},
		{"signup_date", Temporal},
		{"plan", Categorical},
	}
	for _, tt := range tests {
		t.Run(tt.column, func(t *testing.T) {
			if got := cls.Category(tt.column); got != tt.want {
				t.Errorf("Category(%q) = %v, want %v", tt.column, got, tt.want)
			}
		})
	}

	if !cls.Candidates("city").Has(TagCategorical) {
		t.Error("city should have been categorical-eligible")
	}
	col, _ := p.Dataset().Col("signup_date")
	if col.Kind != dataset.KindTime {
		t.Errorf("signup_date storage = %v, want time", col.Kind)
	}
}

func TestClassifySetsAreDisjoint(t *testing.T) {
	raw := customers(25).
		Add("Latitude", dataset.Floats(seq(25, -8, 0.1)...)...).
		Add("Longitude", dataset.Floats(seq(25, -35, 0.1)...)...).
		Add("Event Time", dataset.Strings(repeat("2024-01-02T10:00:00Z", 25)...)...)
	p, _ := newTestProfiler(t, raw)
	cls := p.Classification()

	seen := make(map[string]string)
	for set, names := range map[string][]string{
		"numeric": cls.Numeric, "categorical": cls.Categorical,
		"temporal": cls.Temporal, "geographic": cls.Geographic,
	} {
		for _, n := range names {
			if prev, ok := seen[n]; ok {
				t.Errorf("column %q is in both %s and %s", n, prev, set)
			}
			seen[n] = set
		}
	}
	if cls.Category("latitude") != Geographic || cls.Category("event_time") != Temporal {
		t.Errorf("unexpected classes: latitude=%v event_time=%v", cls.Category("latitude"), cls.Category("event_time"))
	}
}

func TestClassifyTemporalFallThrough(t *testing.T) {
	t.Run("one malformed entry", func(t *testing.T) {
		raw := dataset.NewRaw().
			Add("signup_date", dataset.Strings("2024-01-01", "2024-01-02", "not a date")...).
			Add("id", dataset.Floats(1, 2, 3)...)
		p, _ := newTestProfiler(t, raw)
		if got := p.Classification().Category("signup_date"); got != Temporal {
			t.Fatalf("got %v, want temporal", got)
		}
		col, _ := p.Dataset().Col("signup_date")
		if !col.IsNull(2) {
			t.Error("malformed entry should become missing")
		}
	})

	t.Run("all malformed", func(t *testing.T) {
		raw := dataset.NewRaw().
			Add("signup_date", dataset.Strings("soon", "later", "never")...).
			Add("id", dataset.Floats(1, 2, 3)...)
		p, _ := newTestProfiler(t, raw)
		if got := p.Classification().Category("signup_date"); got != Categorical {
			t.Fatalf("got %v, want categorical", got)
		}
		col, _ := p.Dataset().Col("signup_date")
		if col.Kind != dataset.KindString {
			t.Errorf("storage = %v, want string", col.Kind)
		}
	})
}

func TestClassifyEmptyNumeric(t *testing.T) {
	t.Run("zero rows", func(t *testing.T) {
		raw := dataset.NewRaw(dataset.RawColumn{Name: "amount"}, dataset.RawColumn{Name: "label", Hint: dataset.KindString})
		p, _ := newTestProfiler(t, raw)
		if got := p.Classification().Category("amount"); got != Numeric {
			t.Errorf("got %v, want numeric", got)
		}
	})
	t.Run("all missing", func(t *testing.T) {
		raw := dataset.NewRaw().
			Add("amount", dataset.Floats(math.NaN(), math.NaN())...).
			Add("label", dataset.Strings("a", "b")...)
		p, _ := newTestProfiler(t, raw)
		if got := p.Classification().Category("amount"); got != Numeric {
			t.Errorf("got %v, want numeric", got)
		}
	})
}

func TestAllMissingNumericStillCharted(t *testing.T) {
	raw := dataset.NewRaw().
		Add("amount", dataset.Floats(math.NaN(), math.NaN(), math.NaN())...).
		Add("label", dataset.Strings("a", "b", "a")...)
	p, logger := newTestProfiler(t, raw)

	titles := map[string]bool{}
	for _, it := range append(p.Basic(), p.Advanced()...) {
		titles[it.Title] = true
		if it.Artifact.Kind == plotting.KindImage && len(it.Artifact.Data) == 0 {
			t.Errorf("%q has no image data", it.Title)
		}
	}
	for _, want := range []string{`Distribution of "amount"`, `Violin plot of "amount"`, `Descriptive statistics for "amount"`} {
		if !titles[want] {
			t.Errorf("missing %q in %v", want, titles)
		}
	}
	if logger.ContainsMessage("report item skipped") {
		t.Errorf("no item should be skipped: %s", logger.String())
	}
}

func TestNewFromDatasetDoesNotMutateInput(t *testing.T) {
	ds, err := dataset.Clean(customers(12))
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := log.NewTestLogger(log.LevelError)
	_ = NewFromDataset(ds, WithOptions(smallCharts), WithLogger(logger))
	col, _ := ds.Col("signup_date")
	if col.Kind != dataset.KindString {
		t.Errorf("input column converted to %v", col.Kind)
	}
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{4, 1, 3, 2})
	want := Summary{Count: 4, Mean: 2.5, Std: math.Sqrt(5.0 / 3.0), Min: 1, Q25: 1.75, Q50: 2.5, Q75: 3.25, Max: 4}
	got := []float64{s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max}
	exp := []float64{want.Count, want.Mean, want.Std, want.Min, want.Q25, want.Q50, want.Q75, want.Max}
	for i := range got {
		if math.Abs(got[i]-exp[i]) > 1e-12 {
			t.Errorf("statistic %d = %v, want %v", i, got[i], exp[i])
		}
	}

	empty := Describe(nil)
	if empty.Count != 0 || !math.IsNaN(empty.Mean) || !math.IsNaN(empty.Max) {
		t.Errorf("unexpected empty summary %+v", empty)
	}
	if one := Describe([]float64{7}); !math.IsNaN(one.Std) || one.Q75 != 7 {
		t.Errorf("unexpected single-value summary %+v", one)
	}
}

func TestTopCorrelatedPairs(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	corr := mat.NewSymDense(4, []float64{
		1, 1, 0.2, -0.9,
		1, 1, math.NaN(), 0.5,
		0.2, math.NaN(), 1, -0.5,
		-0.9, 0.5, -0.5, 1,
	})

	pairs := TopCorrelatedPairs(names, corr, 3)
	// 両方向の組が候補になるので最強の組は二度現れる
	want := []Pair{{"a", "d", -0.9}, {"d", "a", -0.9}, {"b", "d", 0.5}}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs, want %d: %+v", len(pairs), len(want), pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pair %d = %+v, want %+v", i, pairs[i], want[i])
		}
		if math.Abs(pairs[i].R) >= 1 {
			t.Errorf("pair %d has |r| >= 1", i)
		}
	}

	all := TopCorrelatedPairs(names, corr, 20)
	if len(all) != 8 {
		t.Fatalf("expected 8 eligible ordered pairs, got %d", len(all))
	}
	// 同じ |r| の中では行優先の順
	wantOrder := []string{"a-d", "d-a", "b-d", "c-d", "d-b", "d-c", "a-c", "c-a"}
	for i, pr := range all {
		if got := pr.X + "-" + pr.Y; got != wantOrder[i] {
			t.Errorf("pair %d = %s, want %s", i, got, wantOrder[i])
		}
	}
}

func TestCorrelationMatrix(t *testing.T) {
	x := []float64{1, 2, 3, 4, math.NaN()}
	y := []float64{2, 4, 6, 8, 1}
	z := []float64{5, 5, 5, 5, 5}
	corr := CorrelationMatrix([][]float64{x, y, z})

	if r := corr.At(0, 1); math.Abs(r-1) > 1e-12 {
		t.Errorf("corr(x, y) = %v, want 1 on complete rows", r)
	}
	if r := corr.At(0, 2); !math.IsNaN(r) {
		t.Errorf("corr(x, constant) = %v, want NaN", r)
	}
}

func TestDailyCountsAndMovingAverage(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2024, 5, d, h, 0, 0, 0, time.UTC) }
	days, counts := DailyCounts([]time.Time{day(3, 9), day(1, 8), day(3, 23), day(1, 0), day(1, 12)})
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2 (empty days dropped)", len(days))
	}
	if !days[0].Equal(day(1, 0)) || counts[0] != 3 || counts[1] != 2 {
		t.Errorf("unexpected buckets %v %v", days, counts)
	}

	ma := MovingAverage([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 7)
	for i := 0; i < 6; i++ {
		if !math.IsNaN(ma[i]) {
			t.Errorf("ma[%d] = %v, want NaN", i, ma[i])
		}
	}
	if ma[6] != 4 || ma[7] != 5 {
		t.Errorf("ma tail = %v, %v; want 4, 5", ma[6], ma[7])
	}
}

func TestReport(t *testing.T) {
	p, logger := newTestProfiler(t, customers(30))
	report := p.Report()

	var order []string
	for _, s := range report.Sections {
		order = append(order, s.Name)
	}
	want := []string{SectionCategorical, SectionNumerical, SectionUnivariate, SectionGeographic, SectionTemporal}
	if strings.Join(order, "|") != strings.Join(want, "|") {
		t.Fatalf("sections = %v, want %v", order, want)
	}

	// score: bar + pie, plan: bar + pie
	if n := len(report.Section(SectionCategorical).Items); n != 4 {
		t.Errorf("categorical items = %d, want 4", n)
	}
	// age: histogram + statistics
	if n := len(report.Section(SectionNumerical).Items); n != 2 {
		t.Errorf("numerical items = %d, want 2", n)
	}
	geo := report.Section(SectionGeographic).Items
	if len(geo) != 1 || geo[0].Title != `Count by "city"` {
		t.Errorf("unexpected geo items %+v", geo)
	}
	// 10 distinct days > 7: daily line + trend
	if n := len(report.Section(SectionTemporal).Items); n != 2 {
		t.Errorf("temporal items = %d, want 2", n)
	}
	if logger.ContainsMessage("report item skipped") {
		t.Errorf("unexpected skipped item:\n%s", logger.String())
	}
	if report.Len() != 10 {
		t.Errorf("report has %d items, want 10", report.Len())
	}
}

func TestAdvancedScatterPairs(t *testing.T) {
	n := 30
	raw := dataset.NewRaw().
		Add("a", dataset.Floats(seq(n, 0, 1)...)...).
		Add("b", dataset.Floats(noisy(seq(n, 0, 2), 0.5)...)...).
		Add("c", dataset.Floats(noisy(seq(n, 10, -1), 3)...)...).
		Add("d", dataset.Floats(seq(n, 5, 3)...)...)
	p, _ := newTestProfiler(t, raw)

	items := p.Advanced()
	var scatters []string
	for _, it := range items {
		if strings.HasPrefix(it.Title, "Scatter:") {
			scatters = append(scatters, it.Title)
		}
	}
	// a と d は完全相関なので除外される
	if len(scatters) != 3 {
		t.Fatalf("got %d scatter items, want 3: %v", len(scatters), scatters)
	}
	for _, s := range scatters {
		if s == "Scatter: a vs d" || s == "Scatter: d vs a" {
			t.Error("perfectly correlated pair should be excluded")
		}
	}
	// 最上位の組は両方向で続けて現れる
	x0, y0, _ := strings.Cut(strings.TrimPrefix(scatters[0], "Scatter: "), " vs ")
	x1, y1, _ := strings.Cut(strings.TrimPrefix(scatters[1], "Scatter: "), " vs ")
	if x0 != y1 || y0 != x1 {
		t.Errorf("first two scatters should be mirrored, got %q and %q", scatters[0], scatters[1])
	}
	if items[len(items)-4].Title != "Correlation heatmap" {
		t.Errorf("heatmap should precede the scatters, got %q", items[len(items)-4].Title)
	}
}

func TestGeoMap(t *testing.T) {
	raw := dataset.NewRaw().
		Add("lat", dataset.Floats(-8.05, -5.79, -12.97, -3.73)...).
		Add("lng", dataset.Floats(-34.9, -35.2, -38.5, -38.5)...).
		Add("region", dataset.Strings("NE", "NE", "NE", "N")...)
	p, _ := newTestProfiler(t, raw)
	item := p.Geo()
	if item == nil || item.Title != "Geographic scatter map" {
		t.Fatalf("expected geographic map, got %+v", item)
	}

	none, _ := newTestProfiler(t, dataset.NewRaw().Add("x", dataset.Floats(1, 2)...))
	if none.Geo() != nil {
		t.Error("expected no geographic item")
	}
}

func TestAttemptRecoversAndLogs(t *testing.T) {
	p, logger := newTestProfiler(t, customers(5))
	ok := p.attempt(SectionNumerical, "histogram", "age", func() error {
		panic("boom")
	})
	if ok {
		t.Fatal("attempt should report failure")
	}
	if !logger.ContainsMessage("report item skipped") {
		t.Fatal("failure was not logged")
	}
	if !logger.ContainsField(log.ColumnKey, "age") {
		t.Errorf("log entry lacks the column:\n%s", logger.String())
	}
}

func TestGroup(t *testing.T) {
	items := []ReportItem{
		{Section: "B", Title: "1"}, {Section: "A", Title: "2"}, {Section: "B", Title: "3"},
	}
	r := Group(items)
	if len(r.Sections) != 2 || r.Sections[0].Name != "B" || len(r.Sections[0].Items) != 2 {
		t.Fatalf("unexpected grouping %+v", r)
	}
	if r.Sections[0].Items[1].Title != "3" {
		t.Error("items lost their relative order")
	}
	if r.Section("missing") != nil {
		t.Error("expected nil for unknown section")
	}
}

func seq(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// noisy adds a deterministic zig-zag so correlations stay below 1.
func noisy(values []float64, amp float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v + amp*math.Sin(float64(i)*1.7)
	}
	return out
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}
