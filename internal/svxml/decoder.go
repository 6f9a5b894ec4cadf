// Package svxml implements the codec between Sonic Visualiser environment
// documents and the session model.
//
// Decoding is a two-pass process: the token scan materializes every model,
// dataset, play-parameter and derivation element first, and cross-references
// are resolved afterwards, so entities may be declared in any order inside
// the document.
package svxml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/danielvb/svsession/internal/types"
)

// Decode parses a session document from r.
//
// Gzip-compressed input is detected and decompressed transparently. path is
// used only for error context and may be empty.
func Decode(r io.Reader, path string) (*types.Session, error) {
	xr, err := sniffReader(r)
	if err != nil {
		return nil, &types.FormatError{Path: path, Reason: "corrupt gzip stream", Err: err}
	}

	d := &decoder{
		x:        xml.NewDecoder(xr),
		path:     path,
		sess:     &types.Session{},
		datasets: make(map[int]*rawDataset),
	}
	if err := d.scan(); err != nil {
		return nil, err
	}
	if err := d.assemble(); err != nil {
		return nil, err
	}
	return d.sess, nil
}

type rawModel struct {
	offset int64
	bag    *attrBag
}

type rawDataset struct {
	offset     int64
	id         int
	dimensions int
	extra      []types.Attr
	points     []types.Point
}

type rawPlay struct {
	offset int64
	model  int
	params *types.PlayParameters
}

type rawDerivation struct {
	offset  int64
	source  int
	model   int
	channel int
}

type rawPaneLayer struct {
	offset int64
	bag    *attrBag
}

type rawView struct {
	offset int64
	bag    *attrBag
	layers []*rawPaneLayer
}

type decoder struct {
	x    *xml.Decoder
	path string
	sess *types.Session

	models       []*rawModel
	datasets     map[int]*rawDataset
	datasetOrder []int
	plays        []*rawPlay
	derivations  []*rawDerivation
	views        []*rawView
}

// fail builds a FormatError carrying document position context.
func (d *decoder) fail(offset int64, element, reason string, err error) error {
	return &types.FormatError{
		Path:    d.path,
		Offset:  offset,
		Element: element,
		Reason:  reason,
		Err:     err,
	}
}

func (d *decoder) warn(offset int64, element, format string, args ...any) {
	d.sess.Warnings = append(d.sess.Warnings, types.Warning{
		Element: element,
		Message: fmt.Sprintf(format, args...),
		Offset:  offset,
	})
}

// reqInt consumes a required integer attribute, failing when it is missing
// or unparseable.
func (d *decoder) reqInt(b *attrBag, offset int64, element, name string) (int, error) {
	v, ok, err := b.intAttr(name)
	if err != nil {
		return 0, d.fail(offset, element, fmt.Sprintf("invalid %q attribute", name), err)
	}
	if !ok {
		return 0, d.fail(offset, element, fmt.Sprintf("missing required attribute %q", name), nil)
	}
	return v, nil
}

func (d *decoder) reqStr(b *attrBag, offset int64, element, name string) (string, error) {
	v, ok := b.str(name)
	if !ok {
		return "", d.fail(offset, element, fmt.Sprintf("missing required attribute %q", name), nil)
	}
	return v, nil
}

// optInt consumes an optional integer attribute, downgrading a parse failure
// to a warning and the zero default.
func (d *decoder) optInt(b *attrBag, offset int64, element, name string, def int) int {
	v, ok, err := b.intAttr(name)
	if err != nil {
		d.warn(offset, element, "ignoring unparseable %q attribute: %v", name, err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

func (d *decoder) optInt64(b *attrBag, offset int64, element, name string, def int64) int64 {
	v, ok, err := b.int64Attr(name)
	if err != nil {
		d.warn(offset, element, "ignoring unparseable %q attribute: %v", name, err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

func (d *decoder) optFloat(b *attrBag, offset int64, element, name string, def float64) (float64, bool) {
	v, ok, err := b.floatAttr(name)
	if err != nil {
		d.warn(offset, element, "ignoring unparseable %q attribute: %v", name, err)
		return def, false
	}
	if !ok {
		return def, false
	}
	return v, true
}

func (d *decoder) optBool(b *attrBag, offset int64, element, name string, def bool) bool {
	v, ok, err := b.boolAttr(name)
	if err != nil {
		d.warn(offset, element, "ignoring unparseable %q attribute: %v", name, err)
		return def
	}
	if !ok {
		return def
	}
	return v
}

// scan runs the token pass, collecting raw entities.
func (d *decoder) scan() error {
	sawRoot := false
	for {
		tok, err := d.x.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return d.fail(d.x.InputOffset(), "", "malformed XML", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "sv" {
			return d.fail(d.x.InputOffset(), start.Name.Local, "root element must be <sv>", nil)
		}
		sawRoot = true
		if err := d.scanRoot(); err != nil {
			return err
		}
	}
	if !sawRoot {
		return d.fail(0, "", "document contains no <sv> element", nil)
	}
	return nil
}

// scanRoot consumes the children of <sv> until its end tag.
func (d *decoder) scanRoot() error {
	for {
		tok, err := d.x.Token()
		if err != nil {
			return d.fail(d.x.InputOffset(), "sv", "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			var err error
			switch t.Name.Local {
			case "data":
				err = d.scanData()
			case "display":
				err = d.scanDisplay()
			case "selections":
				err = d.scanSelections()
			default:
				d.warn(d.x.InputOffset(), t.Name.Local, "unknown element skipped")
				err = d.x.Skip()
			}
			if err != nil {
				return err
			}
		}
	}
}

func (d *decoder) scanData() error {
	for {
		tok, err := d.x.Token()
		if err != nil {
			return d.fail(d.x.InputOffset(), "data", "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			offset := d.x.InputOffset()
			switch t.Name.Local {
			case "model":
				d.models = append(d.models, &rawModel{offset: offset, bag: bagFor(t)})
				if err := d.x.Skip(); err != nil {
					return d.fail(offset, "model", "malformed XML", err)
				}
			case "dataset":
				if err := d.scanDataset(t, offset); err != nil {
					return err
				}
			case "play":
				if err := d.scanPlay(t, offset); err != nil {
					return err
				}
			case "derivation":
				if err := d.scanDerivation(t, offset); err != nil {
					return err
				}
			default:
				d.warn(offset, t.Name.Local, "unknown element skipped")
				if err := d.x.Skip(); err != nil {
					return d.fail(offset, t.Name.Local, "malformed XML", err)
				}
			}
		}
	}
}

func (d *decoder) scanDataset(start xml.StartElement, offset int64) error {
	b := bagFor(start)
	id, err := d.reqInt(b, offset, "dataset", "id")
	if err != nil {
		return err
	}
	dims, err := d.reqInt(b, offset, "dataset", "dimensions")
	if err != nil {
		return err
	}
	if types.KindFromDimensions(dims) == types.KindUnknown {
		return d.fail(offset, "dataset", fmt.Sprintf("unsupported dimensions %d", dims), nil)
	}
	if _, dup := d.datasets[id]; dup {
		return d.fail(offset, "dataset", fmt.Sprintf("duplicate dataset id %d", id), nil)
	}

	rd := &rawDataset{
		offset:     offset,
		id:         id,
		dimensions: dims,
		extra:      b.rest(),
	}

	for {
		tok, err := d.x.Token()
		if err != nil {
			return d.fail(d.x.InputOffset(), "dataset", "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			d.datasets[id] = rd
			d.datasetOrder = append(d.datasetOrder, id)
			return nil
		case xml.StartElement:
			pointOffset := d.x.InputOffset()
			if t.Name.Local != "point" {
				d.warn(pointOffset, t.Name.Local, "unknown element skipped")
				if err := d.x.Skip(); err != nil {
					return d.fail(pointOffset, t.Name.Local, "malformed XML", err)
				}
				continue
			}
			p, err := d.parsePoint(t, pointOffset, dims)
			if err != nil {
				return err
			}
			rd.points = append(rd.points, p)
			if err := d.x.Skip(); err != nil {
				return d.fail(pointOffset, "point", "malformed XML", err)
			}
		}
	}
}

func (d *decoder) parsePoint(start xml.StartElement, offset int64, dims int) (types.Point, error) {
	b := bagFor(start)

	var p types.Point
	frame, ok, err := b.int64Attr("frame")
	if err != nil {
		return p, d.fail(offset, "point", `invalid "frame" attribute`, err)
	}
	if !ok {
		return p, d.fail(offset, "point", `missing required attribute "frame"`, nil)
	}
	p.Frame = frame

	if dims >= 2 {
		value, ok, err := b.floatAttr("value")
		if err != nil {
			return p, d.fail(offset, "point", `invalid "value" attribute`, err)
		}
		if !ok {
			return p, d.fail(offset, "point", `missing required attribute "value"`, nil)
		}
		p.Value = value
	}
	if dims == 3 {
		// Durations are integral frame counts, but some producers have
		// written them with a decimal component.
		s, ok := b.str("duration")
		if !ok {
			return p, d.fail(offset, "point", `missing required attribute "duration"`, nil)
		}
		dur, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(s, 64)
			if ferr != nil {
				return p, d.fail(offset, "point", `invalid "duration" attribute`, err)
			}
			dur = int64(f)
		}
		p.Duration = dur
	}

	p.Label, _ = b.str("label")
	return p, nil
}

func (d *decoder) scanPlay(start xml.StartElement, offset int64) error {
	b := bagFor(start)
	model, err := d.reqInt(b, offset, "play", "model")
	if err != nil {
		return err
	}
	params := &types.PlayParameters{Gain: 1}
	params.Mute = d.optBool(b, offset, "play", "mute", false)
	params.Pan, _ = d.optFloat(b, offset, "play", "pan", 0)
	params.Gain, _ = d.optFloat(b, offset, "play", "gain", 1)
	params.Extra = b.rest()

	d.plays = append(d.plays, &rawPlay{offset: offset, model: model, params: params})
	return d.x.Skip()
}

func (d *decoder) scanDerivation(start xml.StartElement, offset int64) error {
	b := bagFor(start)
	model, err := d.reqInt(b, offset, "derivation", "model")
	if err != nil {
		return err
	}
	source, err := d.reqInt(b, offset, "derivation", "source")
	if err != nil {
		return err
	}
	channel := d.optInt(b, offset, "derivation", "channel", -1)

	d.derivations = append(d.derivations, &rawDerivation{
		offset:  offset,
		source:  source,
		model:   model,
		channel: channel,
	})

	// Derivations may nest transform parameters; those describe how the
	// data was produced, which this codec does not carry.
	depth := 0
	for {
		tok, err := d.x.Token()
		if err != nil {
			return d.fail(d.x.InputOffset(), "derivation", "malformed XML", err)
		}
		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				d.warn(offset, "derivation", "transform parameters not preserved")
			}
			depth++
		case xml.EndElement:
			if depth == 0 {
				return nil
			}
			depth--
		}
	}
}

func (d *decoder) scanDisplay() error {
	for {
		tok, err := d.x.Token()
		if err != nil {
			return d.fail(d.x.InputOffset(), "display", "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			offset := d.x.InputOffset()
			switch t.Name.Local {
			case "window":
				b := bagFor(t)
				d.sess.Window = &types.Window{
					Width:  d.optInt(b, offset, "window", "width", 0),
					Height: d.optInt(b, offset, "window", "height", 0),
				}
				if err := d.x.Skip(); err != nil {
					return d.fail(offset, "window", "malformed XML", err)
				}
			case "view":
				if err := d.scanView(t, offset); err != nil {
					return err
				}
			default:
				d.warn(offset, t.Name.Local, "unknown element skipped")
				if err := d.x.Skip(); err != nil {
					return d.fail(offset, t.Name.Local, "malformed XML", err)
				}
			}
		}
	}
}

func (d *decoder) scanView(start xml.StartElement, offset int64) error {
	rv := &rawView{offset: offset, bag: bagFor(start)}
	for {
		tok, err := d.x.Token()
		if err != nil {
			return d.fail(d.x.InputOffset(), "view", "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			d.views = append(d.views, rv)
			return nil
		case xml.StartElement:
			layerOffset := d.x.InputOffset()
			if t.Name.Local != "layer" {
				d.warn(layerOffset, t.Name.Local, "unknown element skipped")
				if err := d.x.Skip(); err != nil {
					return d.fail(layerOffset, t.Name.Local, "malformed XML", err)
				}
				continue
			}
			rv.layers = append(rv.layers, &rawPaneLayer{offset: layerOffset, bag: bagFor(t)})
			if err := d.x.Skip(); err != nil {
				return d.fail(layerOffset, "layer", "malformed XML", err)
			}
		}
	}
}

func (d *decoder) scanSelections() error {
	for {
		tok, err := d.x.Token()
		if err != nil {
			return d.fail(d.x.InputOffset(), "selections", "malformed XML", err)
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			offset := d.x.InputOffset()
			if t.Name.Local != "selection" {
				d.warn(offset, t.Name.Local, "unknown element skipped")
				if err := d.x.Skip(); err != nil {
					return d.fail(offset, t.Name.Local, "malformed XML", err)
				}
				continue
			}
			b := bagFor(t)
			startFrame, ok, err := b.int64Attr("start")
			if err != nil || !ok {
				return d.fail(offset, "selection", `missing or invalid "start" attribute`, err)
			}
			endFrame, ok, err := b.int64Attr("end")
			if err != nil || !ok {
				return d.fail(offset, "selection", `missing or invalid "end" attribute`, err)
			}
			d.sess.Selections = append(d.sess.Selections, types.Selection{Start: startFrame, End: endFrame})
			if err := d.x.Skip(); err != nil {
				return d.fail(offset, "selection", "malformed XML", err)
			}
		}
	}
}

// assemble resolves the raw entities into the session graph.
func (d *decoder) assemble() error {
	modelDims := make(map[int]int)

	// Pass 1: materialize sources and layers.
	for _, rm := range d.models {
		if err := d.assembleModel(rm, modelDims); err != nil {
			return err
		}
	}

	// Pass 2: attach datasets to layers.
	claimed := make(map[int]bool, len(d.datasets))
	for l := range d.sess.Layers() {
		rd := d.datasets[l.DatasetID]
		if rd == nil {
			return d.fail(0, "model", fmt.Sprintf("model %d references undeclared dataset %d", l.ID, l.DatasetID), nil)
		}
		if claimed[rd.id] {
			return d.fail(rd.offset, "dataset", fmt.Sprintf("dataset %d claimed by more than one model", rd.id), nil)
		}
		claimed[rd.id] = true

		if dims := modelDims[l.ID]; dims != 0 && dims != rd.dimensions {
			d.warn(rd.offset, "dataset", "model %d declares %d dimensions but dataset %d has %d; using the dataset's", l.ID, dims, rd.id, rd.dimensions)
		}
		l.Kind = types.KindFromDimensions(rd.dimensions)
		l.Points = rd.points
		l.DatasetExtra = rd.extra
	}
	for _, id := range d.datasetOrder {
		if !claimed[id] {
			d.warn(d.datasets[id].offset, "dataset", "dataset %d is not referenced by any model", id)
		}
	}

	// Pass 3: playback parameters.
	for _, rp := range d.plays {
		switch {
		case d.sess.SourceByID(rp.model) != nil:
			d.sess.SourceByID(rp.model).Play = rp.params
		case d.sess.LayerByID(rp.model) != nil:
			d.sess.LayerByID(rp.model).Play = rp.params
		default:
			d.warn(rp.offset, "play", "parameters for undeclared model %d skipped", rp.model)
		}
	}

	// Pass 4: derivations link layers to their sources.
	pending := make(map[int]*rawDerivation, len(d.derivations))
	for _, rd := range d.derivations {
		l := d.sess.LayerByID(rd.model)
		if l == nil {
			d.warn(rd.offset, "derivation", "derivation for undeclared model %d skipped", rd.model)
			continue
		}
		if _, dup := pending[l.ID]; dup {
			d.warn(rd.offset, "derivation", "model %d has more than one derivation; keeping the first", rd.model)
			continue
		}
		pending[l.ID] = rd
		l.SourceChannel = rd.channel
		l.ExplicitDerivation = true
	}
	for l := range d.sess.Layers() {
		rd, ok := pending[l.ID]
		if !ok {
			continue
		}
		src := d.resolveSource(rd.source, pending)
		if src == nil {
			return d.fail(rd.offset, "derivation", fmt.Sprintf("model %d derives from unresolvable source %d", l.ID, rd.source), nil)
		}
		l.Source = src
	}

	// Pass 5: layers with no derivation attach to the main source.
	main := d.sess.MainSource()
	for l := range d.sess.Layers() {
		if l.Source != nil {
			continue
		}
		if main == nil {
			return d.fail(0, "model", fmt.Sprintf("model %d has no audio source to associate", l.ID), nil)
		}
		l.Source = main
	}

	// Pass 6: panes resolve against the completed model table.
	for _, rv := range d.views {
		if err := d.assembleView(rv); err != nil {
			return err
		}
	}

	return nil
}

func (d *decoder) assembleModel(rm *rawModel, modelDims map[int]int) error {
	b := rm.bag
	id, err := d.reqInt(b, rm.offset, "model", "id")
	if err != nil {
		return err
	}
	modelType, err := d.reqStr(b, rm.offset, "model", "type")
	if err != nil {
		return err
	}
	name, _ := b.str("name")

	// Model ids share one namespace across wavefile and sparse models, so a
	// collision is rejected here regardless of class; otherwise a document
	// could parse into a session that fails its own validation.
	if d.sess.SourceByID(id) != nil || d.sess.LayerByID(id) != nil {
		return d.fail(rm.offset, "model", fmt.Sprintf("duplicate model id %d", id), nil)
	}

	switch {
	case modelType == "wavefile":
		file, err := d.reqStr(b, rm.offset, "model", "file")
		if err != nil {
			return err
		}
		src := &types.Source{
			ID:         id,
			Name:       name,
			File:       file,
			SampleRate: d.optInt(b, rm.offset, "model", "sampleRate", 0),
			Start:      d.optInt64(b, rm.offset, "model", "start", 0),
			End:        d.optInt64(b, rm.offset, "model", "end", 0),
			MainModel:  d.optBool(b, rm.offset, "model", "mainModel", false),
			Extra:      b.rest(),
		}
		if err := d.sess.AddSource(src); err != nil {
			return d.fail(rm.offset, "model", fmt.Sprintf("duplicate model id %d", id), nil)
		}

	case modelType == "sparse":
		dataset, err := d.reqInt(b, rm.offset, "model", "dataset")
		if err != nil {
			return err
		}
		l := &types.Layer{
			ID:            id,
			Name:          name,
			SampleRate:    d.optInt(b, rm.offset, "model", "sampleRate", 0),
			Start:         d.optInt64(b, rm.offset, "model", "start", 0),
			End:           d.optInt64(b, rm.offset, "model", "end", 0),
			Resolution:    d.optInt(b, rm.offset, "model", "resolution", 1),
			SourceChannel: -1,
			DatasetID:     dataset,
		}
		l.Units, _ = b.str("units")
		var minSet, maxSet bool
		l.Minimum, minSet = d.optFloat(b, rm.offset, "model", "minimum", 0)
		l.Maximum, maxSet = d.optFloat(b, rm.offset, "model", "maximum", 0)
		l.HasExtents = minSet || maxSet
		modelDims[id] = d.optInt(b, rm.offset, "model", "dimensions", 0)
		l.Extra = b.rest()
		if err := d.sess.AddLayer(l); err != nil {
			return d.fail(rm.offset, "model", fmt.Sprintf("duplicate model id %d", id), nil)
		}

	default:
		d.warn(rm.offset, "model", "model %d of type %q not understood; skipped", id, modelType)
	}
	return nil
}

// resolveSource follows derivation links until it reaches an audio source.
//
// A derivation may name another derived layer as its source; the chain is
// chased with cycle protection. A layer in the chain without its own
// derivation falls back to the main source.
func (d *decoder) resolveSource(id int, pending map[int]*rawDerivation) *types.Source {
	visited := make(map[int]bool)
	cur := id
	for !visited[cur] {
		visited[cur] = true
		if src := d.sess.SourceByID(cur); src != nil {
			return src
		}
		l := d.sess.LayerByID(cur)
		if l == nil {
			return nil
		}
		rd, ok := pending[l.ID]
		if !ok {
			return d.sess.MainSource()
		}
		cur = rd.source
	}
	return nil
}

func (d *decoder) assembleView(rv *rawView) error {
	b := rv.bag
	if vt, ok := b.str("type"); ok && vt != "pane" {
		d.warn(rv.offset, "view", "view of type %q treated as a pane", vt)
	}
	p := &types.Pane{
		Centre: d.optInt64(b, rv.offset, "view", "centre", 0),
		Zoom:   d.optInt(b, rv.offset, "view", "zoom", 0),
		Height: d.optInt(b, rv.offset, "view", "height", 0),
		Extra:  b.rest(),
	}

	for _, rl := range rv.layers {
		lb := rl.bag
		model, err := d.reqInt(lb, rl.offset, "layer", "model")
		if err != nil {
			return err
		}
		pl := &types.PaneLayer{
			ID: d.optInt(lb, rl.offset, "layer", "id", 0),
		}
		pl.Type, _ = lb.str("type")
		pl.Name, _ = lb.str("name")

		switch {
		case d.sess.LayerByID(model) != nil:
			pl.Layer = d.sess.LayerByID(model)
			if pl.Type == "" {
				pl.Type = pl.Layer.Kind.String()
			}
		case d.sess.SourceByID(model) != nil:
			pl.Source = d.sess.SourceByID(model)
			if pl.Type == "" {
				pl.Type = "waveform"
			}
		default:
			return d.fail(rl.offset, "layer", fmt.Sprintf("display layer references undeclared model %d", model), nil)
		}

		pl.Extra = lb.rest()
		p.Attach(pl)
	}

	d.sess.AddPane(p)
	return nil
}
