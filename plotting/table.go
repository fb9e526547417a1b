package plotting

import (
	"bytes"
	"html/template"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// Table is a labelled grid of preformatted cells. Index labels the rows,
// Columns labels the cells of each row.
type Table struct {
	Columns []string
	Index   []string
	Rows    [][]string
}

var tableTemplate = template.Must(template.New("table").Parse(
	`<table class="dataframe">
<thead><tr><th></th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{range $i, $row := .Rows}}<tr><th>{{index $.Index $i}}</th>{{range $row}}<td>{{.}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
`))

// HTMLTable renders t as an escaped HTML table fragment.
func HTMLTable(t *Table) (Artifact, error) {
	if t == nil || len(t.Rows) != len(t.Index) {
		return Artifact{}, errors.NewValueError("HTMLTable", "every row needs an index label")
	}
	for _, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return Artifact{}, errors.NewDimensionError("HTMLTable", len(t.Columns), len(row), 1)
		}
	}

	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, t); err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: render table")
	}
	return Artifact{Kind: KindTable, MIME: mimeHTML, Data: buf.Bytes(), Table: t}, nil
}
