// Package plotting renders report charts and tables into self-contained
// artifacts.
//
// Every renderer builds a gonum/plot *plot.Plot (or a grid of them) and
// encodes it to PNG in memory; nothing touches the filesystem. Tables are
// rendered to HTML fragments. Artifacts carry their bytes and MIME type so a
// host can embed them directly, for example as data URLs.
package plotting

import (
	"bytes"
	"encoding/base64"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/edaml/pkg/errors"
)

// Kind distinguishes chart artifacts from table artifacts.
type Kind string

const (
	KindImage Kind = "image"
	KindTable Kind = "table"
)

const (
	mimePNG  = "image/png"
	mimeHTML = "text/html; charset=utf-8"
)

// Artifact is a rendered report element.
type Artifact struct {
	Kind Kind
	MIME string
	Data []byte

	// Table holds the structured cells of a KindTable artifact.
	Table *Table
}

// DataURL returns the artifact encoded as an RFC 2397 data URL.
func (a Artifact) DataURL() string {
	return "data:" + a.MIME + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// Size is the canvas size of a chart.
type Size struct {
	Width, Height vg.Length
}

// DefaultSize is 16cm x 10cm.
var DefaultSize = SizeCm(16, 10)

// SizeCm returns a Size measured in centimetres.
func SizeCm(w, h float64) Size {
	return Size{Width: vg.Length(w) * vg.Centimeter, Height: vg.Length(h) * vg.Centimeter}
}

func (s Size) orDefault() Size {
	if s.Width <= 0 || s.Height <= 0 {
		return DefaultSize
	}
	return s
}

// encode は plot を PNG にエンコードする
func encode(p *plot.Plot, size Size) (Artifact, error) {
	size = size.orDefault()
	wt, err := p.WriterTo(size.Width, size.Height, "png")
	if err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: create png writer")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return Artifact{}, errors.Wrap(err, "plotting: encode png")
	}
	return Artifact{Kind: KindImage, MIME: mimePNG, Data: buf.Bytes()}, nil
}

func newPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel
	return p
}
