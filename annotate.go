package svsession

import "fmt"

// Default window geometry for sessions built programmatically.
const (
	defaultWindowWidth  = 900
	defaultWindowHeight = 856
)

// New constructs a session around a single audio source.
//
// The source becomes the session's main model, displayed in a waveform
// pane. frames is the length of the audio in samples at sampleRate.
//
// Example:
//
//	session := svsession.New(44100, 44100*60, "take1.wav")
//	session.AddLabelledInstants("Onsets", onsetFrames, nil)
//	err := session.SaveAs("take1.sv")
func New(sampleRate int, frames int64, wavPath string) *Session {
	s := &Session{}
	s.Session.Window = &Window{Width: defaultWindowWidth, Height: defaultWindowHeight}

	src := &Source{
		ID:         s.NextModelID(),
		File:       wavPath,
		SampleRate: sampleRate,
		End:        frames,
		MainModel:  true,
	}
	// A fresh session cannot have an id collision.
	_ = s.AddSource(src) //nolint:errcheck

	pane := &Pane{Centre: frames / 2, Zoom: defaultZoom(frames)}
	pane.Attach(&PaneLayer{
		ID:     s.NextPaneLayerID(),
		Type:   "waveform",
		Name:   "Waveform",
		Source: src,
	})
	s.AddPane(pane)

	return s
}

// defaultZoom picks a frames-per-pixel zoom that shows the whole file in
// the default window width.
func defaultZoom(frames int64) int {
	zoom := int(frames / defaultWindowWidth)
	if zoom < 1 {
		zoom = 1
	}
	return zoom
}

// AddLabelledInstants adds a one-dimensional annotation layer of labelled
// time instants, displayed in a new pane.
//
// labels may be nil, in which case every instant gets an empty label;
// otherwise it must have one entry per frame.
func (s *Session) AddLabelledInstants(name string, frames []int64, labels []string) (*Layer, error) {
	if labels != nil && len(labels) != len(frames) {
		return nil, fmt.Errorf("labelled instants %q: %d frames but %d labels", name, len(frames), len(labels))
	}

	points := make([]Point, len(frames))
	for i, f := range frames {
		points[i] = Point{Frame: f}
		if labels != nil {
			points[i].Label = labels[i]
		}
	}
	return s.addAnnotationLayer(name, KindInstants, points)
}

// AddContinuousAnnotations adds a two-dimensional annotation layer of
// time/value pairs (a curve), displayed in a new pane.
//
// frames and values must have the same length. labels may be nil or have
// one entry per frame. The layer's value extents are computed from the
// data.
func (s *Session) AddContinuousAnnotations(name string, frames []int64, values []float64, labels []string) (*Layer, error) {
	if len(values) != len(frames) {
		return nil, fmt.Errorf("continuous annotations %q: %d frames but %d values", name, len(frames), len(values))
	}
	if labels != nil && len(labels) != len(frames) {
		return nil, fmt.Errorf("continuous annotations %q: %d frames but %d labels", name, len(frames), len(labels))
	}

	points := make([]Point, len(frames))
	for i, f := range frames {
		points[i] = Point{Frame: f, Value: values[i]}
		if labels != nil {
			points[i].Label = labels[i]
		}
	}
	return s.addAnnotationLayer(name, KindValues, points)
}

// AddIntervalAnnotations adds a three-dimensional annotation layer of
// labelled regions (frame, value, duration), displayed in a new pane.
//
// frames, values and durations must have the same length. labels may be
// nil or have one entry per frame.
func (s *Session) AddIntervalAnnotations(name string, frames []int64, values []float64, durations []int64, labels []string) (*Layer, error) {
	if len(values) != len(frames) {
		return nil, fmt.Errorf("interval annotations %q: %d frames but %d values", name, len(frames), len(values))
	}
	if len(durations) != len(frames) {
		return nil, fmt.Errorf("interval annotations %q: %d frames but %d durations", name, len(frames), len(durations))
	}
	if labels != nil && len(labels) != len(frames) {
		return nil, fmt.Errorf("interval annotations %q: %d frames but %d labels", name, len(frames), len(labels))
	}

	points := make([]Point, len(frames))
	for i, f := range frames {
		points[i] = Point{Frame: f, Value: values[i], Duration: durations[i]}
		if labels != nil {
			points[i].Label = labels[i]
		}
	}
	return s.addAnnotationLayer(name, KindRegions, points)
}

// addAnnotationLayer wires a layer onto the session's main source and
// gives it a pane of its own.
func (s *Session) addAnnotationLayer(name string, kind LayerKind, points []Point) (*Layer, error) {
	src := s.MainSource()
	if src == nil {
		return nil, fmt.Errorf("layer %q: session has no audio source", name)
	}

	l := &Layer{
		ID:            s.NextModelID(),
		Name:          name,
		Kind:          kind,
		SampleRate:    src.SampleRate,
		Start:         src.Start,
		End:           src.End,
		Resolution:    1,
		Source:        src,
		SourceChannel: -1,
		DatasetID:     s.NextDatasetID(),
		Points:        points,
	}
	if kind != KindInstants && len(points) > 0 {
		l.Minimum, l.Maximum = points[0].Value, points[0].Value
		for _, p := range points[1:] {
			if p.Value < l.Minimum {
				l.Minimum = p.Value
			}
			if p.Value > l.Maximum {
				l.Maximum = p.Value
			}
		}
		l.HasExtents = true
	}
	if err := s.AddLayer(l); err != nil {
		return nil, err
	}

	pane := &Pane{Centre: (src.Start + src.End) / 2, Zoom: defaultZoom(src.Duration())}
	pane.Attach(&PaneLayer{
		ID:    s.NextPaneLayerID(),
		Type:  kind.String(),
		Name:  name,
		Layer: l,
	})
	s.AddPane(pane)

	return l, nil
}

// AddSpectrogramPane adds a pane displaying a spectrogram of the given
// source. The pane references the source directly; no dataset is involved.
//
// src must belong to this session.
func (s *Session) AddSpectrogramPane(src *Source) (*Pane, error) {
	if src == nil || s.SourceByID(src.ID) != src {
		return nil, fmt.Errorf("spectrogram: source is not part of this session")
	}

	pane := &Pane{Centre: (src.Start + src.End) / 2, Zoom: defaultZoom(src.Duration())}
	pane.Attach(&PaneLayer{
		ID:     s.NextPaneLayerID(),
		Type:   "spectrogram",
		Name:   "Spectrogram",
		Source: src,
	})
	s.AddPane(pane)

	return pane, nil
}
