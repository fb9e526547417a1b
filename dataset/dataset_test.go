package dataset

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Signup Date ", "signup_date"},
		{"AGE", "age"},
		{"already_clean", "already_clean"},
		{"Two  Spaces", "two__spaces"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := NormalizeName(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := NormalizeName(got); again != got {
				t.Errorf("NormalizeName is not idempotent: %q -> %q", got, again)
			}
		})
	}
}

func TestCleanNumericCoercionIsAllOrNothing(t *testing.T) {
	raw := NewRaw().
		Add("Price", Strings("1.5", "2", " 3 ", "")...).
		Add("Code", Strings("10", "20", "x", "40")...)

	ds, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	price, ok := ds.Col("price")
	if !ok {
		t.Fatal("price column missing after normalization")
	}
	if price.Kind != KindNumeric {
		t.Fatalf("price kind = %v, want numeric", price.Kind)
	}
	if price.Float(2) != 3 || !price.IsNull(3) {
		t.Errorf("unexpected price values %v", price.Floats())
	}

	code, _ := ds.Col("code")
	if code.Kind != KindString {
		t.Fatalf("code kind = %v, want string (one value does not parse)", code.Kind)
	}
	if code.String(0) != "10" || code.String(2) != "x" {
		t.Errorf("string values must be left untouched, got %q %q", code.String(0), code.String(2))
	}
}

func TestCleanDropsDuplicateRows(t *testing.T) {
	raw := NewRaw().
		Add("a", Floats(1, 1, 2, math.NaN(), math.NaN())...).
		Add("b", Strings("x", "x", "y", "", "")...)

	ds, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if ds.NRows() != 3 {
		t.Fatalf("NRows() = %d, want 3 (duplicates and repeated missing rows dropped)", ds.NRows())
	}
	a, _ := ds.Col("a")
	if a.Float(0) != 1 || a.Float(1) != 2 || !a.IsNull(2) {
		t.Errorf("rows not kept in first-occurrence order: %v", a.Floats())
	}
}

func TestCleanNames(t *testing.T) {
	raw := NewRaw().
		Add("Age", Floats(1, 2)...).
		Add("age ", Floats(3, 4)...).
		Add("  ", Floats(5, 6)...)

	ds, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	want := []string{"age", "age.1", "unnamed:_2"}
	got := ds.Names()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCleanNamesAvoidExistingSuffix(t *testing.T) {
	raw := NewRaw().
		Add("a.1", Floats(1)...).
		Add("a", Floats(2)...).
		Add("a", Floats(3)...)

	ds, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	want := []string{"a.1", "a", "a.2"}
	got := ds.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if c, ok := ds.Col("a.2"); !ok || c.Float(0) != 3 {
		t.Error("the second \"a\" should be reachable as a.2")
	}
}

func TestCleanErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  *Raw
	}{
		{"nil", nil},
		{"ragged", NewRaw().Add("a", Floats(1, 2)...).Add("b", Floats(1)...)},
		{"bad hint", &Raw{Columns: []RawColumn{{Name: "n", Hint: KindNumeric, Cells: Strings("1", "two")}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Clean(tt.raw)
			var dfe *errors.DataFormatError
			if !errors.As(err, &dfe) {
				t.Fatalf("expected DataFormatError, got %v", err)
			}
		})
	}
}

func TestStorageKindInference(t *testing.T) {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		cells []Cell
		want  Kind
	}{
		{"numbers", []Cell{Num(1), Missing(), Num(2)}, KindNumeric},
		{"all missing", []Cell{Missing(), Missing()}, KindNumeric},
		{"no rows", nil, KindNumeric},
		{"times", []Cell{Time(day), Missing()}, KindTime},
		{"mixed", []Cell{Num(1), Str("a")}, KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RawColumn{Name: "c", Cells: tt.cells}.storageKind()
			if got != tt.want {
				t.Errorf("storageKind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValueCounts(t *testing.T) {
	c := NewStringColumn("city", []string{"b", "a", "b", "c", "a", ""}, []bool{false, false, false, false, false, true})

	got := c.ValueCounts()
	want := []ValueCount{{"b", 2}, {"a", 2}, {"c", 1}}
	if len(got) != len(want) {
		t.Fatalf("ValueCounts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ValueCounts()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if c.NUnique() != 3 {
		t.Errorf("NUnique() = %d, want 3", c.NUnique())
	}
	if c.NullCount() != 1 {
		t.Errorf("NullCount() = %d, want 1", c.NullCount())
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-03-05 10:30:00", time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC), true},
		{"03/05/2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"25/12/2024", time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC), true},
		{"March 5, 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"10:30:15", time.Date(0, 1, 1, 10, 30, 15, 0, time.UTC), true},
		{"08:05", time.Date(0, 1, 1, 8, 5, 0, 0, time.UTC), true},
		{"25:00", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTime(tt.in)
			if ok != tt.ok {
				t.Fatalf("ParseTime(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("ParseTime(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimesColumn(t *testing.T) {
	c := NewStringColumn("signup_date", []string{"2024-01-01", "garbage", "", "2024-01-03"}, []bool{false, false, true, false})

	converted, parsed := c.ParseTimes(ParseTime)
	if parsed != 2 {
		t.Fatalf("parsed = %d, want 2", parsed)
	}
	if converted.Kind != KindTime {
		t.Fatalf("Kind = %v, want time", converted.Kind)
	}
	if !converted.IsNull(1) || !converted.IsNull(2) {
		t.Error("unparsable and missing cells should be missing")
	}
	if c.Kind != KindString {
		t.Error("ParseTimes must not modify the receiver")
	}
}

func TestReadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Name,Age,City,Signup Date",
		"ana,31,Recife,2024-01-01",
		"bo,NA,Natal,2024-01-02",
		"ana,31,Recife,2024-01-01",
		"cy,45,,2024-01-05",
	}, "\n")

	raw, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if len(raw.Columns) != 4 {
		t.Fatalf("got %d columns, want 4", len(raw.Columns))
	}

	ds, err := Clean(raw)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if ds.NRows() != 3 {
		t.Errorf("NRows() = %d, want 3 after dropping the duplicate row", ds.NRows())
	}
	age, ok := ds.Col("age")
	if !ok || age.Kind != KindNumeric || !age.IsNull(1) {
		t.Errorf("age should be numeric with a missing second row")
	}
	city, _ := ds.Col("city")
	if city.Kind != KindString || !city.IsNull(2) {
		t.Errorf("city should be text with a missing third row")
	}
	if _, ok := ds.Col("signup_date"); !ok {
		t.Errorf("expected normalized signup_date column, got %v", ds.Names())
	}
}

func TestDatasetSelectTake(t *testing.T) {
	ds := MustNew(
		NewNumericColumn("x", []float64{1, 2, 3}),
		NewStringColumn("y", []string{"a", "b", "c"}, nil),
	)

	sub, err := ds.Select("y")
	if err != nil || sub.NCols() != 1 {
		t.Fatalf("Select(y) = %v, %v", sub, err)
	}
	if _, err := ds.Select("z"); err == nil {
		t.Error("Select of an unknown column should fail")
	}

	taken := ds.Take([]int{2, 0})
	y, _ := taken.Col("y")
	if y.String(0) != "c" || y.String(1) != "a" {
		t.Errorf("Take reordered rows incorrectly: %q %q", y.String(0), y.String(1))
	}

	if _, err := New(NewNumericColumn("x", []float64{1}), NewNumericColumn("x", []float64{2})); err == nil {
		t.Error("duplicate names should be rejected")
	}
}
