package convert

import "errors"

// Error kinds from spec §7. InvalidUrl and EmptyPayload have no sentinel
// here — they're handled inline as skip/passthrough decisions by
// Pass1/Pass2. ErrCollision is returned by an EntrySink implementation so
// the core can apply the documented policy. ErrUnsupportedMedia is
// available to sinks, but no sink in this repository returns it, and Pass2
// counts it as skipped like any other write failure.
var (
	// ErrCollision is returned by EntrySink.Put when canonicalPath was
	// already written by an earlier record. Policy: alias creation when the
	// target differs, else silent drop (spec §7); since Put is always
	// called with the same canonical path that's already present, this core
	// never has a "different target" case to alias, so every collision is a
	// silent drop.
	ErrCollision = errors.New("convert: canonical path already written")

	// ErrUnsupportedMedia signals a media class the sink declines to store.
	ErrUnsupportedMedia = errors.New("convert: unsupported media class")
)
