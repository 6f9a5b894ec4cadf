package types

import "iter"

// LayerKind identifies the dimensionality of a layer's dataset.
type LayerKind int

const (
	// KindUnknown is the zero value; it never appears in a valid session.
	KindUnknown LayerKind = iota

	// KindInstants is a one-dimensional dataset of labelled time instants.
	KindInstants

	// KindValues is a two-dimensional dataset of time/value pairs.
	KindValues

	// KindRegions is a three-dimensional dataset of time/value/duration
	// regions.
	KindRegions
)

// Dimensions returns the dataset dimensionality for the kind (1, 2 or 3).
// Returns 0 for KindUnknown.
func (k LayerKind) Dimensions() int {
	switch k {
	case KindInstants:
		return 1
	case KindValues:
		return 2
	case KindRegions:
		return 3
	}
	return 0
}

// KindFromDimensions maps a dataset dimensions attribute to a LayerKind.
// Returns KindUnknown for anything outside 1..3.
func KindFromDimensions(d int) LayerKind {
	switch d {
	case 1:
		return KindInstants
	case 2:
		return KindValues
	case 3:
		return KindRegions
	}
	return KindUnknown
}

// String returns the display-layer type string conventionally used for the
// kind ("timeinstants", "timevalues", "regions").
func (k LayerKind) String() string {
	switch k {
	case KindInstants:
		return "timeinstants"
	case KindValues:
		return "timevalues"
	case KindRegions:
		return "regions"
	}
	return "unknown"
}

// Point is one timestamped entry of a layer's dataset.
//
// Frame and Label are meaningful for every kind. Value is meaningful for
// KindValues and KindRegions; Duration only for KindRegions.
type Point struct {
	Frame    int64
	Value    float64
	Duration int64
	Label    string
}

// Layer is a named sequence of timestamped data points associated with
// exactly one Source.
//
// A Layer corresponds to a sparse model plus its dataset in the document.
// It is owned by the Session; Panes reference it for display only.
type Layer struct {
	// ID is the model id, unique among the session's sources and layers.
	ID int

	// Name is the layer's display name.
	Name string

	// Kind selects the dataset dimensionality.
	Kind LayerKind

	// SampleRate is the frame timebase in Hz, normally matching the
	// associated source.
	SampleRate int

	// Start and End bound the model in audio frames.
	Start int64
	End   int64

	// Resolution is the model's frame resolution (1 unless the producer
	// stored something coarser).
	Resolution int

	// Units is the unit string for point values (may be empty).
	Units string

	// Minimum and Maximum are the stored value extents. They are only
	// written out when HasExtents is set, so documents that omitted them
	// round-trip unchanged.
	Minimum    float64
	Maximum    float64
	HasExtents bool

	// Source is the audio source this layer annotates. Resolved by the
	// codec; must be non-nil and present in the same session.
	Source *Source

	// SourceChannel is the channel the layer was derived from (-1 for
	// all channels).
	SourceChannel int

	// ExplicitDerivation records whether the document carried a
	// derivation element for this layer. Serialization emits one only in
	// that case, so the source linkage survives a round trip without
	// inventing elements the producer never wrote.
	ExplicitDerivation bool

	// DatasetID is the id of the dataset element holding the points.
	DatasetID int

	// Points is the ordered dataset.
	Points []Point

	// Play holds playback parameters, or nil if the document carried none.
	Play *PlayParameters

	// Extra preserves model attributes that are not interpreted.
	Extra []Attr

	// DatasetExtra preserves dataset attributes that are not interpreted.
	DatasetExtra []Attr
}

// AllPoints returns an iterator over the layer's points in dataset order.
//
// Example:
//
//	for p := range layer.AllPoints() {
//		fmt.Println(p.Frame, p.Label)
//	}
func (l *Layer) AllPoints() iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for _, p := range l.Points {
			if !yield(p) {
				return
			}
		}
	}
}

// Instants returns the point times converted to seconds using the layer's
// sample rate.
//
// Returns nil if the layer has no sample rate.
func (l *Layer) Instants() []float64 {
	if l.SampleRate <= 0 {
		return nil
	}
	out := make([]float64, len(l.Points))
	for i, p := range l.Points {
		out[i] = float64(p.Frame) / float64(l.SampleRate)
	}
	return out
}

// Labels returns the point labels in dataset order.
func (l *Layer) Labels() []string {
	out := make([]string, len(l.Points))
	for i, p := range l.Points {
		out[i] = p.Label
	}
	return out
}
