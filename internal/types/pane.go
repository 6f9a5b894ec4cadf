package types

// PaneLayer is one display layer attached to a Pane.
//
// It references either a Source (waveform, spectrogram) or a Layer
// (annotation kinds), never both. The reference is non-owning: the entity
// must be present in the same Session.
type PaneLayer struct {
	// ID is the display-layer id. Display layers have their own id
	// namespace, separate from model ids.
	ID int

	// Type is the renderer type string ("waveform", "timevalues",
	// "timeinstants", "regions", "spectrogram", ...).
	Type string

	// Name is the display name shown for the layer.
	Name string

	// Source is set when the layer renders an audio source directly.
	Source *Source

	// Layer is set when the layer renders an annotation layer.
	Layer *Layer

	// Extra preserves display attributes that are not interpreted
	// (colours, scales, verticality and the rest).
	Extra []Attr
}

// ModelID returns the model id the display layer references.
// Returns -1 if the reference is unset.
func (pl *PaneLayer) ModelID() int {
	switch {
	case pl.Layer != nil:
		return pl.Layer.ID
	case pl.Source != nil:
		return pl.Source.ID
	}
	return -1
}

// Pane is one view of the session, referencing layers for rendering.
//
// A Pane carries no ownership of the entities it displays.
type Pane struct {
	// Centre is the centre frame of the visible range.
	Centre int64

	// Zoom is the zoom level in frames per pixel.
	Zoom int

	// Height is the pane height in pixels (0 if not stored).
	Height int

	// Layers are the display layers in stacking order.
	Layers []*PaneLayer

	// Extra preserves view attributes that are not interpreted
	// (followPan, followZoom, tracking and the rest).
	Extra []Attr
}

// Attach appends a display layer to the pane and returns it.
func (p *Pane) Attach(pl *PaneLayer) *PaneLayer {
	p.Layers = append(p.Layers, pl)
	return pl
}
