package svsession

import (
	"github.com/danielvb/svsession/internal/types"
)

// FormatError is re-exported from internal/types so callers can detect
// malformed-document failures from Parse and Open with errors.As.
type FormatError = types.FormatError

// ValidationError is re-exported from internal/types so callers can detect
// invariant violations reported by serialization before any output is
// written.
type ValidationError = types.ValidationError

// Warning is re-exported from internal/types. Warnings are the non-fatal
// issues collected in Session.Warnings during parsing.
type Warning = types.Warning
