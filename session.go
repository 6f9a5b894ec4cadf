package svsession

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/danielvb/svsession/internal/svxml"
	"github.com/danielvb/svsession/internal/types"
)

// Session represents the contents of one environment file.
//
// Session embeds the model from internal/types: Sources, Layers and Panes
// are reached through the promoted iterators and lookups
// (Sources(), Layers(), Panes(), SourceByID(), LayerByID()).
//
// Sessions round-trip: a parsed session serialized again produces a
// document that parses back to an equivalent session. Attributes the model
// does not interpret are preserved, so documents written by the host
// application survive the trip.
//
// A Session is not safe for concurrent mutation. Parsing and serializing
// distinct Sessions concurrently is safe.
type Session struct {
	types.Session

	// Path is the file the session was opened from ("" when parsed from
	// memory or constructed programmatically). Save writes back here.
	Path string
}

// Parse reads a session document from r.
//
// Gzip-compressed and plain XML input are both accepted; compression is
// detected from the stream itself. Parse is a pure transformation: it
// fails with a *FormatError when the document is malformed, missing a
// required attribute, or contains a reference that cannot be resolved.
//
// Entities may be declared in any order: all models and datasets are
// materialized before cross-references are resolved.
func Parse(r io.Reader, opts ...Option) (*Session, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	ts, err := svxml.Decode(r, "")
	if err != nil {
		return nil, err
	}
	return finish(ts, "", options)
}

// ParseBytes parses a session document held in memory.
func ParseBytes(data []byte, opts ...Option) (*Session, error) {
	return Parse(bytes.NewReader(data), opts...)
}

// Open opens a session file and parses it.
//
// The file is read completely during Open; no handle is retained.
//
// Options can be provided to customize parsing behavior:
//
//	session, err := svsession.Open("analysis.sv",
//	    svsession.WithStrictParsing(),
//	)
//
// Example:
//
//	session, err := svsession.Open("analysis.sv")
//	if err != nil {
//		return err
//	}
//	for layer := range session.Layers() {
//		fmt.Printf("%s: %d points\n", layer.Name, len(layer.Points))
//	}
func Open(path string, opts ...Option) (*Session, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	ts, err := svxml.Decode(f, path)
	if err != nil {
		return nil, err
	}
	return finish(ts, path, options)
}

// finish applies parse options and wraps the decoded model.
func finish(ts *types.Session, path string, options *openOptions) (*Session, error) {
	if options.strictParsing && len(ts.Warnings) > 0 {
		return nil, fmt.Errorf("strict parsing failed: %s", ts.Warnings[0])
	}
	if options.ignoreWarnings {
		ts.Warnings = nil
	}
	return &Session{Session: *ts, Path: path}, nil
}

// OpenContext opens a session file with context support for cancellation.
//
// The context is checked before parsing starts; a session file parses in
// time proportional to its size, so finer-grained cancellation has not
// been needed.
//
// Options can be provided just like with Open().
func OpenContext(ctx context.Context, path string, opts ...Option) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// OpenMany opens multiple session files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths. If any file
// fails to parse, an error is returned and no sessions are returned.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//
//	sessions, err := svsession.OpenMany(ctx, paths...)
//	if err != nil {
//		log.Fatal(err)
//	}
func OpenMany(ctx context.Context, paths ...string) ([]*Session, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU()) // Limit concurrent operations

	results := make([]*Session, len(paths))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			session, err := Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			results[i] = session
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
