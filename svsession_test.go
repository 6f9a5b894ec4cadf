package svsession_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielvb/svsession"
)

// sampleDoc is a small but complete session document: one audio source,
// one derived time/value layer, one pane displaying both, one selection.
const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE sonic-visualiser>
<sv>
  <data>
    <model id="1" name="" sampleRate="44100" start="0" end="441000" type="wavefile" file="a.wav" mainModel="true"/>
    <play model="1" mute="false" pan="0" gain="1"/>
    <model id="2" name="Onsets" sampleRate="44100" start="0" end="441000" type="sparse" dimensions="2" resolution="1" dataset="3" subtype="timevalue" minimum="0.25" maximum="0.75" units="Hz"/>
    <derivation source="1" model="2" channel="-1"/>
    <dataset id="3" dimensions="2">
      <point label="x" frame="0" value="0.25"/>
      <point label="y" frame="22050" value="0.75"/>
    </dataset>
  </data>
  <display>
    <window width="900" height="856"/>
    <view centre="220500" zoom="490" followPan="1" type="pane" height="400">
      <layer id="1" type="waveform" name="Waveform" model="1"/>
      <layer id="2" type="timevalues" name="Onsets" model="2"/>
    </view>
  </display>
  <selections>
    <selection start="0" end="44100"/>
  </selections>
</sv>
`

func TestParse_SampleDocument(t *testing.T) {
	session, err := svsession.ParseBytes([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}

	if session.NumSources() != 1 || session.NumLayers() != 1 || session.NumPanes() != 1 {
		t.Fatalf("got %d sources, %d layers, %d panes; want 1 of each",
			session.NumSources(), session.NumLayers(), session.NumPanes())
	}

	src := session.SourceByID(1)
	if src == nil {
		t.Fatal("source 1 not found")
	}
	if src.File != "a.wav" || src.SampleRate != 44100 || !src.MainModel {
		t.Errorf("unexpected source: %+v", src)
	}
	if src.Play == nil || src.Play.Gain != 1 {
		t.Errorf("expected play parameters with gain 1, got %+v", src.Play)
	}

	layer := session.LayerByID(2)
	if layer == nil {
		t.Fatal("layer 2 not found")
	}
	if layer.Source != src {
		t.Error("layer source not resolved to source 1")
	}
	if layer.Kind != svsession.KindValues {
		t.Errorf("expected KindValues, got %v", layer.Kind)
	}
	if !layer.ExplicitDerivation || layer.SourceChannel != -1 {
		t.Errorf("derivation not captured: explicit=%v channel=%d", layer.ExplicitDerivation, layer.SourceChannel)
	}
	if len(layer.Points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(layer.Points))
	}
	if layer.Points[0] != (svsession.Point{Frame: 0, Value: 0.25, Label: "x"}) {
		t.Errorf("unexpected first point: %+v", layer.Points[0])
	}
	if !layer.HasExtents || layer.Minimum != 0.25 || layer.Maximum != 0.75 {
		t.Errorf("extents not captured: %+v", layer)
	}
	if layer.Units != "Hz" {
		t.Errorf("expected units Hz, got %q", layer.Units)
	}

	var panes []*svsession.Pane
	for p := range session.Panes() {
		panes = append(panes, p)
	}
	pane := panes[0]
	if len(pane.Layers) != 2 {
		t.Fatalf("expected 2 display layers, got %d", len(pane.Layers))
	}
	if pane.Layers[0].Source != src {
		t.Error("waveform display layer not resolved to the source")
	}
	if pane.Layers[1].Layer != layer {
		t.Error("annotation display layer not resolved to the layer")
	}

	if session.Window == nil || session.Window.Width != 900 {
		t.Errorf("window not captured: %+v", session.Window)
	}
	if len(session.Selections) != 1 || session.Selections[0] != (svsession.Selection{Start: 0, End: 44100}) {
		t.Errorf("selections not captured: %+v", session.Selections)
	}
	if len(session.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", session.Warnings)
	}
}

// Parsing the minimal one-source, one-layer scenario: the layer has no
// derivation, so it attaches to the main model.
func TestParse_ImplicitSourceAssociation(t *testing.T) {
	doc := `<sv>
  <data>
    <model id="1" sampleRate="8000" start="0" end="8000" type="wavefile" file="a.wav" mainModel="true"/>
    <model id="2" name="marks" sampleRate="8000" type="sparse" dimensions="1" dataset="4"/>
    <dataset id="4" dimensions="1">
      <point frame="0" label="x"/>
    </dataset>
  </data>
</sv>`

	session, err := svsession.ParseBytes([]byte(doc))
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	layer := session.LayerByID(2)
	if layer == nil {
		t.Fatal("layer 2 not found")
	}
	if layer.Source == nil || layer.Source.ID != 1 {
		t.Fatalf("layer not associated with main source: %+v", layer.Source)
	}
	if layer.ExplicitDerivation {
		t.Error("implicit association must not be marked as an explicit derivation")
	}
	if layer.Kind != svsession.KindInstants {
		t.Errorf("expected KindInstants, got %v", layer.Kind)
	}
	if got := layer.Labels(); len(got) != 1 || got[0] != "x" {
		t.Errorf("unexpected labels: %v", got)
	}
}

func TestParse_EmptySession(t *testing.T) {
	session, err := svsession.ParseBytes([]byte(`<sv><data/><display/><selections/></sv>`))
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if session.NumSources() != 0 || session.NumLayers() != 0 || session.NumPanes() != 0 {
		t.Errorf("expected empty collections, got %d/%d/%d",
			session.NumSources(), session.NumLayers(), session.NumPanes())
	}
}

func TestParse_GzipInput(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(sampleDoc)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	session, err := svsession.ParseBytes(buf.Bytes())
	if err != nil {
		t.Fatalf("ParseBytes on gzip input failed: %v", err)
	}
	if session.NumLayers() != 1 {
		t.Errorf("expected 1 layer, got %d", session.NumLayers())
	}
}

func TestParse_DanglingDerivationSource(t *testing.T) {
	doc := `<sv><data>
    <model id="1" sampleRate="8000" end="8000" type="wavefile" file="a.wav" mainModel="true"/>
    <model id="2" sampleRate="8000" type="sparse" dimensions="1" dataset="3"/>
    <derivation source="99" model="2"/>
    <dataset id="3" dimensions="1"/>
  </data></sv>`

	_, err := svsession.ParseBytes([]byte(doc))
	if err == nil {
		t.Fatal("expected error for dangling derivation source")
	}
	var ferr *svsession.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
	if !strings.Contains(ferr.Reason, "unresolvable source 99") {
		t.Errorf("unexpected reason: %q", ferr.Reason)
	}
}

func TestParse_DanglingPaneReference(t *testing.T) {
	doc := `<sv>
  <data>
    <model id="1" sampleRate="8000" end="8000" type="wavefile" file="a.wav" mainModel="true"/>
  </data>
  <display>
    <view centre="0" zoom="1" type="pane">
      <layer id="1" type="timevalues" model="42"/>
    </view>
  </display>
</sv>`

	_, err := svsession.ParseBytes([]byte(doc))
	var ferr *svsession.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
	if !strings.Contains(ferr.Reason, "undeclared model 42") {
		t.Errorf("unexpected reason: %q", ferr.Reason)
	}
}

func TestParse_UndeclaredDataset(t *testing.T) {
	doc := `<sv><data>
    <model id="1" sampleRate="8000" end="8000" type="wavefile" file="a.wav" mainModel="true"/>
    <model id="2" sampleRate="8000" type="sparse" dimensions="1" dataset="9"/>
  </data></sv>`

	_, err := svsession.ParseBytes([]byte(doc))
	var ferr *svsession.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
	if !strings.Contains(ferr.Reason, "undeclared dataset 9") {
		t.Errorf("unexpected reason: %q", ferr.Reason)
	}
}

func TestParse_MissingRequiredAttribute(t *testing.T) {
	// Wavefile model without a file attribute.
	doc := `<sv><data><model id="1" sampleRate="8000" type="wavefile"/></data></sv>`

	_, err := svsession.ParseBytes([]byte(doc))
	var ferr *svsession.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), `"file"`) {
		t.Errorf("error should name the missing attribute: %v", err)
	}
}

func TestParse_MalformedXML(t *testing.T) {
	_, err := svsession.ParseBytes([]byte(`<sv><data>`))
	var ferr *svsession.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
}

func TestParse_WrongRootElement(t *testing.T) {
	_, err := svsession.ParseBytes([]byte(`<bogus/>`))
	var ferr *svsession.FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected FormatError, got %T: %v", err, err)
	}
	if !strings.Contains(ferr.Reason, "<sv>") {
		t.Errorf("unexpected reason: %q", ferr.Reason)
	}
}

func TestParse_UnknownElementWarns(t *testing.T) {
	doc := `<sv><data><mystery attr="1"/></data></sv>`

	session, err := svsession.ParseBytes([]byte(doc))
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(session.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", session.Warnings)
	}
	if session.Warnings[0].Element != "mystery" {
		t.Errorf("unexpected warning: %v", session.Warnings[0])
	}

	// Strict parsing promotes the warning to an error.
	if _, err := svsession.ParseBytes([]byte(doc), svsession.WithStrictParsing()); err == nil {
		t.Error("expected strict parsing to fail")
	}

	// Ignoring warnings discards them.
	session, err = svsession.ParseBytes([]byte(doc), svsession.WithIgnoreWarnings())
	if err != nil {
		t.Fatalf("ParseBytes failed: %v", err)
	}
	if len(session.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", session.Warnings)
	}
}

func TestOpen_FileNotFound(t *testing.T) {
	_, err := svsession.Open(filepath.Join(t.TempDir(), "missing.sv"))
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestOpen_SetsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.sv")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	session, err := svsession.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if session.Path != path {
		t.Errorf("expected path %q, got %q", path, session.Path)
	}
}

func TestOpenContext_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svsession.OpenContext(ctx, "irrelevant.sv")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestOpenMany(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for _, name := range []string{"a.sv", "b.sv", "c.sv"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
			t.Fatal(err)
		}
		paths = append(paths, path)
	}

	sessions, err := svsession.OpenMany(context.Background(), paths...)
	if err != nil {
		t.Fatalf("OpenMany failed: %v", err)
	}
	if len(sessions) != len(paths) {
		t.Fatalf("expected %d sessions, got %d", len(paths), len(sessions))
	}
	for i, session := range sessions {
		if session.Path != paths[i] {
			t.Errorf("session %d out of order: %q", i, session.Path)
		}
	}

	// One bad path fails the whole batch.
	_, err = svsession.OpenMany(context.Background(), paths[0], filepath.Join(dir, "missing.sv"))
	if err == nil {
		t.Error("expected error for missing file in batch")
	}
}
