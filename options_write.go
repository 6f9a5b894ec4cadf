package svsession

// SaveOption configures behavior when writing session documents.
//
// Options use the functional options pattern.
//
// Example:
//
//	err := session.Save(
//	    svsession.WithBackup(".bak"),
//	    svsession.WithValidation(),
//	)
type SaveOption func(*saveOptions)

// saveOptions holds configuration for writing.
type saveOptions struct {
	backupSuffix    string // Suffix for backup file (e.g., ".bak")
	validate        bool   // Re-parse after write to verify
	preserveModTime bool   // Keep original modification time
	plainXML        bool   // Write uncompressed XML
	indent          string // Indent unit
}

// defaultSaveOptions returns the default configuration for writing:
// gzip-compressed output with two-space indentation.
func defaultSaveOptions() *saveOptions {
	return &saveOptions{
		backupSuffix:    "",
		validate:        false,
		preserveModTime: false,
		plainXML:        false,
		indent:          "  ",
	}
}

// WithBackup creates a backup of the original file before saving.
//
// The backup file has the suffix appended to the original filename. For
// example, WithBackup(".bak") preserves "analysis.sv" as
// "analysis.sv.bak". An existing backup is overwritten.
//
// Only Save and SaveAs honor this option.
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-parses the file after writing to verify integrity.
//
// After saving, the written document is parsed back and structurally
// compared against the session that produced it. This adds overhead but
// guarantees the file reproduces an equivalent session.
//
// Only Save and SaveAs honor this option.
func WithValidation() SaveOption {
	return func(o *saveOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
//
// By default, saving updates the file's modification time. This option
// restores the original timestamp after a successful save, for workflows
// that treat the session file's mtime as meaningful.
//
// Only Save and SaveAs honor this option.
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) {
		o.preserveModTime = true
	}
}

// WithPlainXML writes uncompressed XML instead of the gzip-wrapped form.
//
// The application reads both; plain XML is convenient for inspection and
// version control.
func WithPlainXML() SaveOption {
	return func(o *saveOptions) {
		o.plainXML = true
	}
}

// WithIndent sets the indent unit for the written document.
//
// The default is two spaces. Indentation is insignificant to the format;
// this only affects readability of the output.
func WithIndent(indent string) SaveOption {
	return func(o *saveOptions) {
		o.indent = indent
	}
}
