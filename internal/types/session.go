// Package types provides the core data structures for Sonic Visualiser
// session files.
//
// This package defines the Session, Source, Layer, Pane, and Point types
// that represent the contents of an environment (.sv) document, along with
// the error types shared by the codec.
package types

import "iter"

// Window holds the main window geometry stored in a session.
type Window struct {
	Width  int
	Height int
}

// Selection is a selected region of the timeline, in audio frames.
type Selection struct {
	Start int64
	End   int64
}

// Attr is a single preserved XML attribute.
//
// Attributes the model does not interpret are carried through parse and
// serialize unchanged, in document order, so that documents written by
// other producers round-trip without loss.
type Attr struct {
	Name  string
	Value string
}

// PlayParameters holds per-model playback settings.
type PlayParameters struct {
	Mute  bool
	Pan   float64
	Gain  float64
	Extra []Attr
}

// Session is the root object representing one environment file's contents.
//
// A Session owns its Sources and Layers. Panes reference Sources and Layers
// for display but do not own them. Collections preserve insertion order and
// support id-keyed lookup.
//
// A Session is not safe for concurrent mutation. Concurrent reads, and
// concurrent use of distinct Sessions, are safe.
type Session struct {
	// Window is the stored main-window geometry, or nil if absent.
	Window *Window

	// Selections are the selected timeline regions.
	Selections []Selection

	// Warnings collected while parsing (non-fatal issues).
	Warnings []Warning

	sources    []*Source
	layers     []*Layer
	panes      []*Pane
	sourceByID map[int]*Source
	layerByID  map[int]*Layer
}

// AddSource adds a Source to the session.
//
// Returns a ValidationError if the id is already taken by another Source.
func (s *Session) AddSource(src *Source) error {
	if s.sourceByID == nil {
		s.sourceByID = make(map[int]*Source)
	}
	if _, ok := s.sourceByID[src.ID]; ok {
		return &ValidationError{Element: "model", ID: src.ID, Reason: "duplicate source id"}
	}
	s.sourceByID[src.ID] = src
	s.sources = append(s.sources, src)
	return nil
}

// AddLayer adds a Layer to the session.
//
// Returns a ValidationError if the id is already taken by another Layer.
func (s *Session) AddLayer(l *Layer) error {
	if s.layerByID == nil {
		s.layerByID = make(map[int]*Layer)
	}
	if _, ok := s.layerByID[l.ID]; ok {
		return &ValidationError{Element: "model", ID: l.ID, Reason: "duplicate layer id"}
	}
	s.layerByID[l.ID] = l
	s.layers = append(s.layers, l)
	return nil
}

// AddPane appends a Pane to the session.
func (s *Session) AddPane(p *Pane) {
	s.panes = append(s.panes, p)
}

// SourceByID looks up a Source by model id.
// Returns nil if no Source has that id.
func (s *Session) SourceByID(id int) *Source {
	return s.sourceByID[id]
}

// LayerByID looks up a Layer by model id.
// Returns nil if no Layer has that id.
func (s *Session) LayerByID(id int) *Layer {
	return s.layerByID[id]
}

// MainSource returns the source flagged as the session's main model.
//
// Falls back to the first source if none carries the flag. Returns nil for
// a session with no sources.
func (s *Session) MainSource() *Source {
	for _, src := range s.sources {
		if src.MainModel {
			return src
		}
	}
	if len(s.sources) > 0 {
		return s.sources[0]
	}
	return nil
}

// Sources returns an iterator over the session's sources in insertion order.
//
// Example:
//
//	for src := range session.Sources() {
//		fmt.Println(src.File)
//	}
func (s *Session) Sources() iter.Seq[*Source] {
	return func(yield func(*Source) bool) {
		for _, src := range s.sources {
			if !yield(src) {
				return
			}
		}
	}
}

// Layers returns an iterator over the session's layers in insertion order.
func (s *Session) Layers() iter.Seq[*Layer] {
	return func(yield func(*Layer) bool) {
		for _, l := range s.layers {
			if !yield(l) {
				return
			}
		}
	}
}

// Panes returns an iterator over the session's panes in insertion order.
func (s *Session) Panes() iter.Seq[*Pane] {
	return func(yield func(*Pane) bool) {
		for _, p := range s.panes {
			if !yield(p) {
				return
			}
		}
	}
}

// NumSources returns the number of sources in the session.
func (s *Session) NumSources() int { return len(s.sources) }

// NumLayers returns the number of layers in the session.
func (s *Session) NumLayers() int { return len(s.layers) }

// NumPanes returns the number of panes in the session.
func (s *Session) NumPanes() int { return len(s.panes) }

// NextModelID returns the smallest id greater than every source and layer id.
//
// Model ids share one namespace in the document, so builders use this when
// assigning ids to new entities.
func (s *Session) NextModelID() int {
	next := 1
	for _, src := range s.sources {
		if src.ID >= next {
			next = src.ID + 1
		}
	}
	for _, l := range s.layers {
		if l.ID >= next {
			next = l.ID + 1
		}
	}
	return next
}

// NextDatasetID returns the smallest id greater than every dataset id in use.
func (s *Session) NextDatasetID() int {
	next := 1
	for _, l := range s.layers {
		if l.DatasetID >= next {
			next = l.DatasetID + 1
		}
	}
	return next
}

// NextPaneLayerID returns the smallest id greater than every display-layer id.
func (s *Session) NextPaneLayerID() int {
	next := 1
	for _, p := range s.panes {
		for _, pl := range p.Layers {
			if pl.ID >= next {
				next = pl.ID + 1
			}
		}
	}
	return next
}
