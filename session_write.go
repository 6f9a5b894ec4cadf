package svsession

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/danielvb/svsession/internal/svxml"
)

// Write serializes the session to w.
//
// The session is validated first and a *ValidationError is returned before
// anything is written if an invariant is violated (a dangling reference,
// a duplicate id). Output is gzip-compressed unless WithPlainXML is given.
//
// Only what the model carries is written. Constructs that produced a
// Warning during parsing (unknown elements, datasets not claimed by any
// model, derivation transform parameters) are not part of the model and do
// not survive a round trip; parse with WithStrictParsing to reject such
// documents instead.
//
// Only the encoding options (WithPlainXML, WithIndent) apply to Write; the
// file-handling options are honored by Save and SaveAs.
func (s *Session) Write(w io.Writer, opts ...SaveOption) error {
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}
	return svxml.Encode(w, &s.Session, svxml.Options{
		Compress: !options.plainXML,
		Indent:   options.indent,
	})
}

// Serialize returns the session as a document byte sequence.
//
// Parsing the result reproduces an equivalent session. Like Write, it
// validates first and produces no output for an invalid session.
func (s *Session) Serialize(opts ...SaveOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Write(&buf, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Save writes the session back to the file it was opened from.
//
// This is an atomic operation: the document is written to a temporary file
// first, then renamed over the original path. If any step fails, the
// original file remains unchanged.
//
// Returns an error if the session has no path; use SaveAs for sessions
// constructed in memory.
func (s *Session) Save(opts ...SaveOption) error {
	if s.Path == "" {
		return fmt.Errorf("session has no path: use SaveAs")
	}
	return s.SaveAs(s.Path, opts...)
}

// SaveAs writes the session to a new location.
//
// This is an atomic operation: the document is written to a temporary file
// first, then renamed to the output path. If any step fails, any partially
// written data is cleaned up.
//
// Options can be provided to customize save behavior:
//
//	err := session.SaveAs("analysis.sv",
//	    svsession.WithBackup(".bak"),
//	    svsession.WithValidation(),
//	)
func (s *Session) SaveAs(outputPath string, opts ...SaveOption) error {
	options := defaultSaveOptions()
	for _, opt := range opts {
		opt(options)
	}

	// Get original file's mod time if we need to preserve it
	var origInfo os.FileInfo
	if options.preserveModTime {
		info, err := os.Stat(outputPath)
		if err == nil {
			origInfo = info
		}
	}

	// Create temp file in same directory as output (for atomic rename)
	outputDir := filepath.Dir(outputPath)
	tempFile, err := os.CreateTemp(outputDir, ".svsession-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	// Ensure cleanup on any error
	success := false
	defer func() {
		if !success {
			_ = tempFile.Close()    //nolint:errcheck // Best effort cleanup
			_ = os.Remove(tempPath) //nolint:errcheck // Best effort cleanup
		}
	}()

	if err := svxml.Encode(tempFile, &s.Session, svxml.Options{
		Compress: !options.plainXML,
		Indent:   options.indent,
	}); err != nil {
		return err
	}

	// Sync temp file (fsync) to ensure data is on disk
	if err := tempFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	// Close temp file before rename
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Handle backup option (rename original before replace)
	if options.backupSuffix != "" {
		backupPath := outputPath + options.backupSuffix
		// Check if output file exists before trying to back it up
		if _, err := os.Stat(outputPath); err == nil {
			if err := os.Rename(outputPath, backupPath); err != nil {
				return fmt.Errorf("create backup: %w", err)
			}
		}
	}

	// Atomic rename temp -> output
	if err := os.Rename(tempPath, outputPath); err != nil {
		return fmt.Errorf("rename temp to output: %w", err)
	}

	// Mark success so defer doesn't clean up
	success = true

	// Handle preserveModTime option
	if options.preserveModTime && origInfo != nil {
		_ = os.Chtimes(outputPath, origInfo.ModTime(), origInfo.ModTime()) //nolint:errcheck // Non-fatal: file was written successfully
	}

	// Handle validate option (re-parse and compare)
	if options.validate {
		if err := s.validateWrittenFile(outputPath); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	return nil
}

// validateWrittenFile re-parses the written file and structurally compares
// it against the session that produced it, by comparing the canonical
// plain-XML serialization of both.
func (s *Session) validateWrittenFile(path string) error {
	written, err := Open(path)
	if err != nil {
		return fmt.Errorf("re-parse: %w", err)
	}

	want, err := s.Serialize(WithPlainXML())
	if err != nil {
		return fmt.Errorf("serialize original: %w", err)
	}
	got, err := written.Serialize(WithPlainXML())
	if err != nil {
		return fmt.Errorf("serialize written: %w", err)
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("written document does not reproduce the session")
	}
	return nil
}
