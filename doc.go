// Package svsession reads and writes Sonic Visualiser environment files.
//
// An environment (session, .sv) file stores everything one working session
// of the visualization application contains: the audio sources, the
// annotation and analysis layers derived from them, and the pane layout
// used to display them. svsession is the codec between that on-disk format
// and native Go data structures. It does no audio analysis and drives no
// GUI; it only moves data across the format boundary, faithfully.
//
// # Quick Start
//
// Reading a session file:
//
//	session, err := svsession.Open("analysis.sv")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	for layer := range session.Layers() {
//		fmt.Printf("%s (%s): %d points\n", layer.Name, layer.Kind, len(layer.Points))
//	}
//
// Building a session from scratch:
//
//	session := svsession.New(44100, 44100*60, "take1.wav")
//	session.AddLabelledInstants("Onsets", onsetFrames, nil)
//	session.AddContinuousAnnotations("Pitch", pitchFrames, pitchValues, nil)
//	if err := session.SaveAs("take1.sv"); err != nil {
//		log.Fatal(err)
//	}
//
// # Data Model
//
// A Session owns Sources (audio assets) and Layers (timestamped datasets:
// instants, time/value curves, or regions), and holds Panes that reference
// them for display without owning them:
//
//	[Session]
//	  ├─ [Source]  - audio asset + playback metadata (owned)
//	  ├─ [Layer]   - timestamped points tied to one Source (owned)
//	  └─ [Pane]    - view referencing Sources/Layers (non-owning)
//
// Collections preserve insertion order, iterate with iter.Seq, and support
// id-keyed lookup (SourceByID, LayerByID).
//
// # Round Trips
//
// Parsing a well-formed document and serializing the result produces a
// document that parses back to an equivalent session. Attributes the model
// does not interpret are preserved verbatim, so files written by the host
// application survive the trip. Serialization is deterministic:
// serializing an unchanged session twice yields identical output.
//
// Entities inside a document may be declared in any order; the decoder
// materializes everything before resolving cross-references.
//
// # Error Handling
//
// Two error kinds cover the format boundary:
//
//   - *FormatError: the input document is malformed or violates the schema
//     (unparseable syntax, missing required attribute, dangling reference).
//     Returned by Parse and Open with position context.
//   - *ValidationError: an in-memory session violates its structural
//     invariants. Returned by Write, Serialize and Save before any output
//     is produced, so an invalid document is never written.
//
// Non-fatal oddities (unknown elements, unparseable optional attributes)
// become Warnings on the session rather than errors; WithStrictParsing
// promotes them to errors.
//
// # Compression
//
// Session files are normally gzip-compressed XML. The reader detects
// compression from the stream, and the writer compresses by default;
// WithPlainXML writes uncompressed XML for inspection or version control.
//
// # Concurrency
//
// Parse and serialize are pure transformations with no shared state:
// concurrent calls on distinct values are safe, and OpenMany parses many
// files in parallel. Mutating one Session from multiple goroutines is not
// supported.
package svsession
