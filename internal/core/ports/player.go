package ports

import "context"

// DeckOutput is the playback primitive behind one deck. Implementations own
// the actual audio pipeline; the transport controller never touches audio
// state except through this interface.
//
// Load blocks until the source is decoded and ready (or fails). Play may be
// refused by the host audio layer and reports that as an error. Volume is
// linear in [0, 1]. Position and Duration are seconds.
type DeckOutput interface {
	Load(ctx context.Context, source string) error
	Play() error
	Pause()
	Seek(seconds float64) error
	Position() float64
	Duration() float64
	SetVolume(v float64)
	Volume() float64
}
