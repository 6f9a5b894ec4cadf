package svsession

import (
	"github.com/danielvb/svsession/internal/types"
)

// Source is re-exported from internal/types. A Source references one audio
// asset declared by a session.
type Source = types.Source

// Layer is re-exported from internal/types. A Layer is a named sequence of
// timestamped points associated with exactly one Source.
type Layer = types.Layer

// Point is re-exported from internal/types. A Point is one timestamped
// dataset entry.
type Point = types.Point

// Pane is re-exported from internal/types. A Pane is one view of the
// session, holding non-owning references to the entities it displays.
type Pane = types.Pane

// PaneLayer is re-exported from internal/types. A PaneLayer is one display
// layer attached to a Pane.
type PaneLayer = types.PaneLayer

// Selection is re-exported from internal/types.
type Selection = types.Selection

// Window is re-exported from internal/types.
type Window = types.Window

// PlayParameters is re-exported from internal/types.
type PlayParameters = types.PlayParameters

// Attr is re-exported from internal/types. Attrs preserve attributes the
// model does not interpret so foreign documents round-trip without loss.
type Attr = types.Attr

// LayerKind is re-exported from internal/types.
type LayerKind = types.LayerKind

// Re-export the layer kinds.
const (
	KindInstants = types.KindInstants
	KindValues   = types.KindValues
	KindRegions  = types.KindRegions
)
