package svsession

// Option configures behavior when parsing session documents.
//
// Options use the functional options pattern.
//
// Example:
//
//	session, err := svsession.Open("analysis.sv",
//	    svsession.WithStrictParsing(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for parsing.
type openOptions struct {
	strictParsing  bool // Fail on any warning
	ignoreWarnings bool // Suppress all warnings
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		strictParsing:  false,
		ignoreWarnings: false,
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default the codec skips constructs it does not understand (unknown
// elements, unparseable optional attributes) and records a warning for
// each. With strict parsing enabled, the first such issue fails the parse.
//
// Example:
//
//	session, err := svsession.Open("analysis.sv", svsession.WithStrictParsing())
//	// err != nil if ANY issue is encountered
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// By default warnings about skipped or partially understood constructs are
// collected in Session.Warnings. This option discards them.
func WithIgnoreWarnings() Option {
	return func(o *openOptions) {
		o.ignoreWarnings = true
	}
}
