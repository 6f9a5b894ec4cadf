package svxml

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/danielvb/svsession/internal/types"
)

// Options control document encoding.
type Options struct {
	// Compress wraps the output in gzip, the application's native form.
	Compress bool

	// Indent is the per-level indent unit.
	Indent string
}

// DefaultOptions returns the encoding defaults: gzip output, two-space
// indentation.
func DefaultOptions() Options {
	return Options{Compress: true, Indent: "  "}
}

// Encode writes s to w as a session document.
//
// The session is validated first; on a ValidationError nothing is written.
// Datasets are streamed point by point rather than materialized as a
// document tree, so sessions with very large annotation layers encode in
// constant memory.
func Encode(w io.Writer, s *types.Session, o Options) error {
	if err := s.Validate(); err != nil {
		return err
	}

	var zw *gzip.Writer
	out := w
	if o.Compress {
		zw = gzip.NewWriter(w)
		out = zw
	}
	bw := bufio.NewWriter(out)

	e := &encoder{w: bw, indent: o.Indent}
	e.document(s)
	if e.err != nil {
		return fmt.Errorf("write session: %w", e.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("write session: %w", err)
		}
	}
	return nil
}

// encoder tracks the first write error so emit calls can be chained without
// per-line error checks.
type encoder struct {
	w      *bufio.Writer
	indent string
	err    error
}

func (e *encoder) emit(depth int, format string, args ...any) {
	if e.err != nil {
		return
	}
	for range depth {
		if _, e.err = e.w.WriteString(e.indent); e.err != nil {
			return
		}
	}
	if _, e.err = fmt.Fprintf(e.w, format, args...); e.err != nil {
		return
	}
	e.err = e.w.WriteByte('\n')
}

// attrs assembles an attribute string from name/value pairs plus preserved
// extras, XML-escaping every value.
func attrs(pairs []types.Attr, extra []types.Attr) string {
	var b bytes.Buffer
	for _, a := range pairs {
		writeAttr(&b, a.Name, a.Value)
	}
	for _, a := range extra {
		writeAttr(&b, a.Name, a.Value)
	}
	return b.String()
}

func writeAttr(b *bytes.Buffer, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	// EscapeText only fails on a failing writer; bytes.Buffer never does.
	xml.EscapeText(b, []byte(value)) //nolint:errcheck
	b.WriteByte('"')
}

func itoa(v int) string { return strconv.Itoa(v) }

func itoa64(v int64) string { return strconv.FormatInt(v, 10) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func btoa(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func (e *encoder) document(s *types.Session) {
	e.emit(0, `<?xml version="1.0" encoding="UTF-8"?>`)
	e.emit(0, `<!DOCTYPE sonic-visualiser>`)
	e.emit(0, `<sv>`)
	e.data(s)
	e.display(s)
	e.selections(s)
	e.emit(0, `</sv>`)
}

func (e *encoder) data(s *types.Session) {
	e.emit(1, `<data>`)
	for src := range s.Sources() {
		e.emit(2, `<model%s/>`, attrs([]types.Attr{
			{Name: "id", Value: itoa(src.ID)},
			{Name: "name", Value: src.Name},
			{Name: "sampleRate", Value: itoa(src.SampleRate)},
			{Name: "start", Value: itoa64(src.Start)},
			{Name: "end", Value: itoa64(src.End)},
			{Name: "type", Value: "wavefile"},
			{Name: "file", Value: src.File},
			{Name: "mainModel", Value: btoa(src.MainModel)},
		}, src.Extra))
		e.play(src.ID, src.Play)
	}
	for l := range s.Layers() {
		pairs := []types.Attr{
			{Name: "id", Value: itoa(l.ID)},
			{Name: "name", Value: l.Name},
			{Name: "sampleRate", Value: itoa(l.SampleRate)},
			{Name: "start", Value: itoa64(l.Start)},
			{Name: "end", Value: itoa64(l.End)},
			{Name: "type", Value: "sparse"},
			{Name: "dimensions", Value: itoa(l.Kind.Dimensions())},
			{Name: "resolution", Value: itoa(l.Resolution)},
			{Name: "dataset", Value: itoa(l.DatasetID)},
		}
		if l.HasExtents {
			pairs = append(pairs,
				types.Attr{Name: "minimum", Value: ftoa(l.Minimum)},
				types.Attr{Name: "maximum", Value: ftoa(l.Maximum)},
			)
		}
		if l.Units != "" {
			pairs = append(pairs, types.Attr{Name: "units", Value: l.Units})
		}
		e.emit(2, `<model%s/>`, attrs(pairs, l.Extra))
		e.play(l.ID, l.Play)
		if l.ExplicitDerivation {
			e.emit(2, `<derivation%s/>`, attrs([]types.Attr{
				{Name: "source", Value: itoa(l.Source.ID)},
				{Name: "model", Value: itoa(l.ID)},
				{Name: "channel", Value: itoa(l.SourceChannel)},
			}, nil))
		}
		e.dataset(l)
	}
	e.emit(1, `</data>`)
}

func (e *encoder) play(modelID int, p *types.PlayParameters) {
	if p == nil {
		return
	}
	e.emit(2, `<play%s/>`, attrs([]types.Attr{
		{Name: "model", Value: itoa(modelID)},
		{Name: "mute", Value: btoa(p.Mute)},
		{Name: "pan", Value: ftoa(p.Pan)},
		{Name: "gain", Value: ftoa(p.Gain)},
	}, p.Extra))
}

// dataset streams the layer's points using the attribute layout of the
// corresponding dimensionality: instants carry frame and label, curves add
// a value, regions add a duration.
func (e *encoder) dataset(l *types.Layer) {
	e.emit(2, `<dataset%s>`, attrs([]types.Attr{
		{Name: "id", Value: itoa(l.DatasetID)},
		{Name: "dimensions", Value: itoa(l.Kind.Dimensions())},
	}, l.DatasetExtra))

	switch l.Kind {
	case types.KindInstants:
		for _, p := range l.Points {
			e.emit(3, `<point%s/>`, attrs([]types.Attr{
				{Name: "frame", Value: itoa64(p.Frame)},
				{Name: "label", Value: p.Label},
			}, nil))
		}
	case types.KindValues:
		for _, p := range l.Points {
			e.emit(3, `<point%s/>`, attrs([]types.Attr{
				{Name: "label", Value: p.Label},
				{Name: "frame", Value: itoa64(p.Frame)},
				{Name: "value", Value: ftoa(p.Value)},
			}, nil))
		}
	case types.KindRegions:
		for _, p := range l.Points {
			e.emit(3, `<point%s/>`, attrs([]types.Attr{
				{Name: "label", Value: p.Label},
				{Name: "frame", Value: itoa64(p.Frame)},
				{Name: "value", Value: ftoa(p.Value)},
				{Name: "duration", Value: itoa64(p.Duration)},
			}, nil))
		}
	}

	e.emit(2, `</dataset>`)
}

func (e *encoder) display(s *types.Session) {
	e.emit(1, `<display>`)
	if s.Window != nil {
		e.emit(2, `<window%s/>`, attrs([]types.Attr{
			{Name: "width", Value: itoa(s.Window.Width)},
			{Name: "height", Value: itoa(s.Window.Height)},
		}, nil))
	}
	for p := range s.Panes() {
		pairs := []types.Attr{
			{Name: "centre", Value: itoa64(p.Centre)},
			{Name: "zoom", Value: itoa(p.Zoom)},
			{Name: "type", Value: "pane"},
		}
		if p.Height != 0 {
			pairs = append(pairs, types.Attr{Name: "height", Value: itoa(p.Height)})
		}
		e.emit(2, `<view%s>`, attrs(pairs, p.Extra))
		for _, pl := range p.Layers {
			e.emit(3, `<layer%s/>`, attrs([]types.Attr{
				{Name: "id", Value: itoa(pl.ID)},
				{Name: "type", Value: pl.Type},
				{Name: "name", Value: pl.Name},
				{Name: "model", Value: itoa(pl.ModelID())},
			}, pl.Extra))
		}
		e.emit(2, `</view>`)
	}
	e.emit(1, `</display>`)
}

func (e *encoder) selections(s *types.Session) {
	if len(s.Selections) == 0 {
		e.emit(1, `<selections/>`)
		return
	}
	e.emit(1, `<selections>`)
	for _, sel := range s.Selections {
		e.emit(2, `<selection%s/>`, attrs([]types.Attr{
			{Name: "start", Value: itoa64(sel.Start)},
			{Name: "end", Value: itoa64(sel.End)},
		}, nil))
	}
	e.emit(1, `</selections>`)
}
