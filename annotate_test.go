package svsession_test

import (
	"strings"
	"testing"

	"github.com/danielvb/svsession"
)

func TestNew(t *testing.T) {
	session := svsession.New(44100, 441000, "take1.wav")

	src := session.MainSource()
	if src == nil {
		t.Fatal("new session has no main source")
	}
	if src.File != "take1.wav" || src.SampleRate != 44100 || src.End != 441000 {
		t.Errorf("unexpected source: %+v", src)
	}
	if session.NumPanes() != 1 {
		t.Fatalf("expected a waveform pane, got %d panes", session.NumPanes())
	}
	for p := range session.Panes() {
		if len(p.Layers) != 1 || p.Layers[0].Type != "waveform" || p.Layers[0].Source != src {
			t.Errorf("unexpected waveform pane: %+v", p.Layers)
		}
	}
}

func TestAddLabelledInstants(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")

	layer, err := session.AddLabelledInstants("beats", []int64{0, 4000, 8000}, []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("AddLabelledInstants failed: %v", err)
	}
	if layer.Kind != svsession.KindInstants {
		t.Errorf("expected KindInstants, got %v", layer.Kind)
	}
	if layer.Source != session.MainSource() {
		t.Error("layer not attached to the main source")
	}
	if got := layer.Labels(); got[2] != "three" {
		t.Errorf("unexpected labels: %v", got)
	}
	if session.NumPanes() != 2 {
		t.Errorf("expected a new pane for the layer, got %d panes", session.NumPanes())
	}

	// Length mismatch is rejected.
	if _, err := session.AddLabelledInstants("bad", []int64{0, 1}, []string{"only"}); err == nil {
		t.Error("expected error for mismatched labels")
	}
}

func TestAddContinuousAnnotations(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")

	layer, err := session.AddContinuousAnnotations("pitch",
		[]int64{0, 4000, 8000}, []float64{220.5, 110, 440}, nil)
	if err != nil {
		t.Fatalf("AddContinuousAnnotations failed: %v", err)
	}
	if layer.Kind != svsession.KindValues {
		t.Errorf("expected KindValues, got %v", layer.Kind)
	}
	if !layer.HasExtents || layer.Minimum != 110 || layer.Maximum != 440 {
		t.Errorf("extents not computed: min=%v max=%v", layer.Minimum, layer.Maximum)
	}

	if _, err := session.AddContinuousAnnotations("bad", []int64{0}, nil, nil); err == nil {
		t.Error("expected error for mismatched values")
	}
}

func TestAddIntervalAnnotations(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")

	layer, err := session.AddIntervalAnnotations("phones",
		[]int64{0, 4000}, []float64{1, 2}, []int64{4000, 4000}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("AddIntervalAnnotations failed: %v", err)
	}
	if layer.Kind != svsession.KindRegions {
		t.Errorf("expected KindRegions, got %v", layer.Kind)
	}
	if layer.Points[1].Duration != 4000 {
		t.Errorf("unexpected points: %+v", layer.Points)
	}

	if _, err := session.AddIntervalAnnotations("bad", []int64{0}, []float64{1}, nil, nil); err == nil {
		t.Error("expected error for mismatched durations")
	}
}

func TestAddSpectrogramPane(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")

	pane, err := session.AddSpectrogramPane(session.MainSource())
	if err != nil {
		t.Fatalf("AddSpectrogramPane failed: %v", err)
	}
	if len(pane.Layers) != 1 || pane.Layers[0].Type != "spectrogram" {
		t.Errorf("unexpected pane layers: %+v", pane.Layers)
	}

	// A foreign source is rejected.
	if _, err := session.AddSpectrogramPane(&svsession.Source{ID: 99}); err == nil {
		t.Error("expected error for a source outside the session")
	}
}

// A built session serializes, parses back, and reproduces the data.
func TestBuilders_RoundTrip(t *testing.T) {
	session := svsession.New(16000, 160000, "speech.wav")
	if _, err := session.AddLabelledInstants("marks", []int64{0, 16000}, []string{"start", "end"}); err != nil {
		t.Fatal(err)
	}
	if _, err := session.AddContinuousAnnotations("energy", []int64{0, 8000}, []float64{0.1, 0.9}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := session.AddSpectrogramPane(session.MainSource()); err != nil {
		t.Fatal(err)
	}

	out, err := session.Serialize(svsession.WithPlainXML())
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if !strings.Contains(string(out), `<!DOCTYPE sonic-visualiser>`) {
		t.Error("missing document type declaration")
	}

	parsed, err := svsession.ParseBytes(out)
	if err != nil {
		t.Fatalf("parse built session: %v\n%s", err, out)
	}
	if parsed.NumSources() != 1 || parsed.NumLayers() != 2 || parsed.NumPanes() != 4 {
		t.Errorf("got %d sources, %d layers, %d panes; want 1, 2, 4",
			parsed.NumSources(), parsed.NumLayers(), parsed.NumPanes())
	}

	marks := parsed.LayerByID(2)
	if marks == nil {
		t.Fatal("instants layer not found after round trip")
	}
	if got := marks.Instants(); len(got) != 2 || got[1] != 1.0 {
		t.Errorf("unexpected instants: %v", got)
	}
	if d := diffSessions(session, parsed); d != "" {
		t.Errorf("round trip changed the built session:\n%s", d)
	}
}
