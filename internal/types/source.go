package types

// Source is a reference to an audio asset declared by a session, together
// with its playback metadata.
//
// A Source corresponds to a wavefile model in the document. It is owned
// exclusively by the Session that declares it; Layers and Panes hold
// non-owning references to it.
type Source struct {
	// ID is the model id, unique among the session's sources and layers.
	ID int

	// Name is the stored display name (often empty).
	Name string

	// File is the path or identifier of the audio asset.
	File string

	// SampleRate is the asset's sample rate in Hz.
	SampleRate int

	// Start and End bound the model in audio frames.
	Start int64
	End   int64

	// MainModel marks the session's primary audio source.
	MainModel bool

	// Play holds playback parameters, or nil if the document carried none.
	Play *PlayParameters

	// Extra preserves attributes the model does not interpret.
	Extra []Attr
}

// Duration returns the source's extent in frames.
func (s *Source) Duration() int64 {
	return s.End - s.Start
}
