package plotting

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

var testSize = SizeCm(8, 5)

func assertPNG(t *testing.T, a Artifact, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if a.Kind != KindImage || a.MIME != "image/png" {
		t.Fatalf("unexpected artifact kind %q mime %q", a.Kind, a.MIME)
	}
	if !bytes.HasPrefix(a.Data, pngMagic) {
		t.Fatalf("artifact is not a PNG (%d bytes)", len(a.Data))
	}
}

func TestChartsRender(t *testing.T) {
	values := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5, 9}
	days := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
	}
	corr := mat.NewSymDense(2, []float64{1, -0.5, -0.5, 1})

	tests := []struct {
		name   string
		render func() (Artifact, error)
	}{
		{"horizontal bar", func() (Artifact, error) {
			return HorizontalBar("city", "count", []string{"b", "a"}, []float64{1, 3}, testSize)
		}},
		{"pie", func() (Artifact, error) {
			return Pie("city", []string{"a", "b", "c"}, []float64{3, 1, 1}, testSize)
		}},
		{"histogram with box", func() (Artifact, error) {
			return HistogramBox("age", "age", values, testSize)
		}},
		{"histogram of a constant", func() (Artifact, error) {
			return HistogramBox("age", "age", []float64{4, 4, 4}, testSize)
		}},
		{"violin", func() (Artifact, error) {
			return Violin("age", "age", values, testSize)
		}},
		{"violin of one value", func() (Artifact, error) {
			return Violin("age", "age", []float64{7}, testSize)
		}},
		// 観測値のない列は空の軸で描く
		{"histogram without values", func() (Artifact, error) {
			return HistogramBox("age", "age", nil, testSize)
		}},
		{"violin without values", func() (Artifact, error) {
			return Violin("age", "age", []float64{}, testSize)
		}},
		{"heatmap", func() (Artifact, error) {
			return CorrelationHeatmap("corr", []string{"x", "y"}, corr, testSize)
		}},
		{"scatter with trend", func() (Artifact, error) {
			return ScatterTrend("x vs y", "x", "y", []float64{1, 2, math.NaN(), 4}, []float64{2, 4, 5, 8}, testSize)
		}},
		{"geo scatter grouped", func() (Artifact, error) {
			return GeoScatter("map", []float64{-46.6, -43.2, -49.3}, []float64{-23.5, -22.9, -25.4}, []string{"SP", "RJ", ""}, testSize)
		}},
		{"geo scatter ungrouped", func() (Artifact, error) {
			return GeoScatter("map", []float64{-46.6, -43.2}, []float64{-23.5, -22.9}, nil, testSize)
		}},
		{"daily line", func() (Artifact, error) {
			return DailyLine("signup", "count", days, []float64{1, 4, 2}, testSize)
		}},
		{"trend line", func() (Artifact, error) {
			return TrendLine("signup", "count", days, []float64{1, 4, 2}, []float64{math.NaN(), 2.5, 3}, "2-day MA", testSize)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := tt.render()
			assertPNG(t, a, err)
		})
	}
}

func TestChartsRejectBadInput(t *testing.T) {
	tests := []struct {
		name   string
		render func() (Artifact, error)
	}{
		{"bar without labels", func() (Artifact, error) {
			return HorizontalBar("t", "x", nil, nil, testSize)
		}},
		{"bar length mismatch", func() (Artifact, error) {
			return HorizontalBar("t", "x", []string{"a"}, []float64{1, 2}, testSize)
		}},
		{"pie summing to zero", func() (Artifact, error) {
			return Pie("t", []string{"a", "b"}, []float64{0, 0}, testSize)
		}},
		{"pie with negative value", func() (Artifact, error) {
			return Pie("t", []string{"a", "b"}, []float64{1, -1}, testSize)
		}},
		{"histogram with NaN", func() (Artifact, error) {
			return HistogramBox("t", "x", []float64{1, math.NaN()}, testSize)
		}},
		{"non-square heatmap", func() (Artifact, error) {
			return CorrelationHeatmap("t", []string{"a"}, mat.NewDense(1, 2, nil), testSize)
		}},
		{"scatter without complete pairs", func() (Artifact, error) {
			return ScatterTrend("t", "x", "y", []float64{math.NaN()}, []float64{1}, testSize)
		}},
		{"geo without coordinates", func() (Artifact, error) {
			return GeoScatter("t", []float64{math.NaN()}, []float64{1}, nil, testSize)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.render(); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestHTMLTable(t *testing.T) {
	tbl := &Table{
		Columns: []string{"<age>"},
		Index:   []string{"count", "mean"},
		Rows:    [][]string{{"3"}, {"4.5"}},
	}
	a, err := HTMLTable(tbl)
	if err != nil {
		t.Fatalf("HTMLTable failed: %v", err)
	}
	if a.Kind != KindTable || a.Table != tbl {
		t.Fatalf("unexpected artifact: %+v", a)
	}
	html := string(a.Data)
	for _, want := range []string{"<table", "&lt;age&gt;", "<th>count</th><td>3</td>", "<th>mean</th><td>4.5</td>"} {
		if !strings.Contains(html, want) {
			t.Errorf("table html missing %q:\n%s", want, html)
		}
	}

	_, err = HTMLTable(&Table{Columns: []string{"a"}, Index: []string{"x"}, Rows: [][]string{{"1", "2"}}})
	var dimErr *errors.DimensionError
	if !errors.As(err, &dimErr) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestKDE(t *testing.T) {
	xs, density := KDE([]float64{0, 1, 2, 3, 4}, 50)
	if len(xs) != 50 || len(density) != 50 {
		t.Fatalf("unexpected lengths %d, %d", len(xs), len(density))
	}
	// 台形積分でおおよそ 1 になる
	area := 0.0
	for i := 1; i < len(xs); i++ {
		area += (xs[i] - xs[i-1]) * (density[i] + density[i-1]) / 2
	}
	if math.Abs(area-1) > 0.05 {
		t.Errorf("density integrates to %v, want about 1", area)
	}

	if xs, _ := KDE(nil, 10); xs != nil {
		t.Error("expected nil grid for empty input")
	}
}

func TestDataURL(t *testing.T) {
	a := Artifact{MIME: "image/png", Data: []byte("abc")}
	if got, want := a.DataURL(), "data:image/png;base64,YWJj"; got != want {
		t.Errorf("DataURL() = %q, want %q", got, want)
	}
}
