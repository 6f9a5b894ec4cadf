package types

import "fmt"

// FormatError is returned when a document is malformed or violates the
// session schema: unparseable syntax, a missing required attribute, or a
// reference that cannot be resolved.
type FormatError struct {
	// Path of the document, if known ("" for in-memory input).
	Path string

	// Offset is the byte offset of the offending construct, where the
	// decoder could determine one (0 otherwise).
	Offset int64

	// Element is the offending element name.
	Element string

	// Reason describes the problem.
	Reason string

	// Err is the underlying error, if any.
	Err error
}

func (e *FormatError) Error() string {
	prefix := e.Path
	if prefix == "" {
		prefix = "document"
	}
	if e.Offset > 0 {
		prefix = fmt.Sprintf("%s: offset %d", prefix, e.Offset)
	}
	if e.Element != "" {
		prefix = fmt.Sprintf("%s: <%s>", prefix, e.Element)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// ValidationError is returned when an in-memory Session violates its
// structural invariants, before any output is produced.
type ValidationError struct {
	// Element names the entity class ("model", "dataset", "layer", ...).
	Element string

	// ID is the offending entity's id (-1 when ids don't apply).
	ID int

	// Reason describes the violated invariant.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID >= 0 {
		return fmt.Sprintf("invalid session: %s %d: %s", e.Element, e.ID, e.Reason)
	}
	return fmt.Sprintf("invalid session: %s: %s", e.Element, e.Reason)
}

// Warning represents a non-fatal issue encountered while parsing.
//
// Warnings indicate constructs that were skipped or only partially
// understood, such as unknown elements or unparseable optional attributes.
// They are collected in Session.Warnings.
type Warning struct {
	// Element where the warning occurred.
	Element string

	// Message describes the issue.
	Message string

	// Offset is the byte offset in the document (0 if not applicable).
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("<%s> (at offset %d): %s", w.Element, w.Offset, w.Message)
	}
	return fmt.Sprintf("<%s>: %s", w.Element, w.Message)
}
