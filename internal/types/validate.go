package types

import "strconv"

// Validate checks the session's structural invariants.
//
// It verifies that model and dataset ids are unique, that every layer
// resolves to a source present in this session, that every pane layer
// references an entity present in this session, and that dataset shapes
// match their layer kinds. Returns a ValidationError describing the first
// violation, or nil.
//
// Serialization calls Validate before writing anything, so an invalid
// session never produces partial output.
func (s *Session) Validate() error {
	modelIDs := make(map[int]string, len(s.sources)+len(s.layers))
	for _, src := range s.sources {
		if prev, ok := modelIDs[src.ID]; ok {
			return &ValidationError{Element: "model", ID: src.ID, Reason: "id already used by " + prev}
		}
		modelIDs[src.ID] = "source"
		if src.SampleRate <= 0 {
			return &ValidationError{Element: "model", ID: src.ID, Reason: "source has no sample rate"}
		}
	}

	datasetIDs := make(map[int]int, len(s.layers))
	for _, l := range s.layers {
		if prev, ok := modelIDs[l.ID]; ok {
			return &ValidationError{Element: "model", ID: l.ID, Reason: "id already used by " + prev}
		}
		modelIDs[l.ID] = "layer"

		if l.Kind.Dimensions() == 0 {
			return &ValidationError{Element: "model", ID: l.ID, Reason: "layer has no kind"}
		}
		if l.Source == nil {
			return &ValidationError{Element: "model", ID: l.ID, Reason: "layer has no source"}
		}
		if s.SourceByID(l.Source.ID) != l.Source {
			return &ValidationError{Element: "model", ID: l.ID, Reason: "layer source is not part of this session"}
		}
		if other, ok := datasetIDs[l.DatasetID]; ok {
			return &ValidationError{Element: "dataset", ID: l.DatasetID, Reason: "dataset id already used by layer " + strconv.Itoa(other)}
		}
		datasetIDs[l.DatasetID] = l.ID
	}

	for _, p := range s.panes {
		for _, pl := range p.Layers {
			switch {
			case pl.Source != nil && pl.Layer != nil:
				return &ValidationError{Element: "layer", ID: pl.ID, Reason: "display layer references both a source and a layer"}
			case pl.Source != nil:
				if s.SourceByID(pl.Source.ID) != pl.Source {
					return &ValidationError{Element: "layer", ID: pl.ID, Reason: "display layer source is not part of this session"}
				}
			case pl.Layer != nil:
				if s.LayerByID(pl.Layer.ID) != pl.Layer {
					return &ValidationError{Element: "layer", ID: pl.ID, Reason: "display layer target is not part of this session"}
				}
			default:
				return &ValidationError{Element: "layer", ID: pl.ID, Reason: "display layer references nothing"}
			}
		}
	}

	for _, sel := range s.Selections {
		if sel.End < sel.Start {
			return &ValidationError{Element: "selection", ID: -1, Reason: "selection ends before it starts"}
		}
	}

	return nil
}
