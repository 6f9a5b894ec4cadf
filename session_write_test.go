package svsession_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danielvb/svsession"
)

func TestSaveAs_AtomicWrite(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")
	path := filepath.Join(t.TempDir(), "out.sv")

	if err := session.SaveAs(path); err != nil {
		t.Fatalf("SaveAs failed: %v", err)
	}

	reparsed, err := svsession.Open(path)
	if err != nil {
		t.Fatalf("re-open failed: %v", err)
	}
	if reparsed.NumSources() != 1 {
		t.Errorf("expected 1 source, got %d", reparsed.NumSources())
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestSaveAs_Backup(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.sv")

	session := svsession.New(8000, 80000, "a.wav")
	if err := session.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	original, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := session.AddLabelledInstants("marks", []int64{0}, nil); err != nil {
		t.Fatal(err)
	}
	if err := session.SaveAs(path, svsession.WithBackup(".bak")); err != nil {
		t.Fatalf("SaveAs with backup failed: %v", err)
	}

	backup, err := os.ReadFile(path + ".bak")
	if err != nil {
		t.Fatalf("backup not created: %v", err)
	}
	if string(backup) != string(original) {
		t.Error("backup does not match the original file")
	}
}

func TestSaveAs_Validation(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")
	if _, err := session.AddContinuousAnnotations("pitch", []int64{0, 100}, []float64{1, 2}, nil); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "out.sv")
	if err := session.SaveAs(path, svsession.WithValidation()); err != nil {
		t.Fatalf("SaveAs with validation failed: %v", err)
	}
}

func TestSaveAs_PlainXML(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")
	path := filepath.Join(t.TempDir(), "out.sv")

	if err := session.SaveAs(path, svsession.WithPlainXML()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), `<?xml`) {
		t.Errorf("expected plain XML output, got %q...", data[:16])
	}
}

func TestSave_RequiresPath(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")
	if err := session.Save(); err == nil {
		t.Error("expected error saving a pathless session")
	}
}

func TestSave_WritesBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.sv")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	session, err := svsession.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	session.Selections = append(session.Selections, svsession.Selection{Start: 100, End: 200})
	if err := session.Save(svsession.WithValidation()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reparsed, err := svsession.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(reparsed.Selections) != 2 {
		t.Errorf("expected 2 selections after save, got %d", len(reparsed.Selections))
	}
}

// Serialization of an invalid session fails before producing any output.
func TestSerialize_InvalidSession(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")
	// Dangling reference: a layer whose source is not part of the session.
	if err := session.AddLayer(&svsession.Layer{
		ID:        99,
		Kind:      svsession.KindInstants,
		Source:    &svsession.Source{ID: 42},
		DatasetID: 50,
	}); err != nil {
		t.Fatal(err)
	}

	out, err := session.Serialize()
	var verr *svsession.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if out != nil {
		t.Error("invalid session produced output")
	}

	path := filepath.Join(t.TempDir(), "out.sv")
	if err := session.SaveAs(path); err == nil {
		t.Fatal("expected SaveAs to fail for an invalid session")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("invalid session left a file behind")
	}
}

func TestWrite_DisplayLayerReferencingNothing(t *testing.T) {
	session := svsession.New(8000, 80000, "a.wav")
	for p := range session.Panes() {
		p.Attach(&svsession.PaneLayer{ID: 9, Type: "timevalues"})
	}

	_, err := session.Serialize()
	var verr *svsession.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if !strings.Contains(verr.Reason, "references nothing") {
		t.Errorf("unexpected reason: %q", verr.Reason)
	}
}
