package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// defaultFadeSteps is the number of discrete volume steps in a crossfade.
const defaultFadeSteps = 60

// Transport owns the two decks' lifecycle state and executes the actual
// volume fades between them. It is the only component that touches the
// playback primitives.
type Transport struct {
	mu        sync.Mutex
	decks     map[domain.DeckID]*deck
	fading    atomic.Bool
	fadeSteps int
	sleep     func(time.Duration) // tests override to skip real fade delays
}

type deck struct {
	out   ports.DeckOutput
	state domain.DeckState
	track *domain.Track
}

// NewTransport wires the two playback primitives into a transport controller.
func NewTransport(outA, outB ports.DeckOutput) *Transport {
	return &Transport{
		decks: map[domain.DeckID]*deck{
			domain.DeckA: {out: outA},
			domain.DeckB: {out: outB},
		},
		fadeSteps: defaultFadeSteps,
		sleep:     time.Sleep,
	}
}

// LoadTrack assigns a track to a deck and blocks until the primitive reports
// it loaded. On load failure the deck reverts to idle and the error is
// returned; the deck keeps its output handle either way.
func (t *Transport) LoadTrack(ctx context.Context, id domain.DeckID, track domain.Track) error {
	d, err := t.deck(id)
	if err != nil {
		return err
	}

	t.mu.Lock()
	d.state = domain.DeckLoading
	d.track = nil
	t.mu.Unlock()

	if err := d.out.Load(ctx, track.Source); err != nil {
		t.mu.Lock()
		d.state = domain.DeckIdle
		t.mu.Unlock()
		return fmt.Errorf("transport: load deck %s: %w", id, err)
	}

	t.mu.Lock()
	d.state = domain.DeckReady
	d.track = &track
	t.mu.Unlock()
	return nil
}

// StartPlayback starts a ready deck. A refusal by the audio host (e.g. an
// autoplay policy) is propagated and the deck stays ready.
func (t *Transport) StartPlayback(id domain.DeckID) error {
	d, err := t.deck(id)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if d.state != domain.DeckReady {
		return fmt.Errorf("transport: deck %s not ready (state %s)", id, d.state)
	}
	if err := d.out.Play(); err != nil {
		return fmt.Errorf("transport: start deck %s: %w", id, err)
	}
	d.state = domain.DeckPlaying
	return nil
}

// PausePlayback pauses a playing deck.
func (t *Transport) PausePlayback(id domain.DeckID) error {
	d, err := t.deck(id)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if d.state != domain.DeckPlaying {
		return fmt.Errorf("transport: deck %s not playing (state %s)", id, d.state)
	}
	d.out.Pause()
	d.state = domain.DeckReady
	return nil
}

// SetPosition seeks within the loaded track. No state transition.
func (t *Transport) SetPosition(id domain.DeckID, seconds float64) error {
	d, err := t.deck(id)
	if err != nil {
		return err
	}
	if err := d.out.Seek(seconds); err != nil {
		return fmt.Errorf("transport: seek deck %s: %w", id, err)
	}
	return nil
}

// ExecuteCrossfade fades fromDeck out and toDeck in over the given duration,
// in fadeSteps evenly spaced volume steps shaped by the curve. The incoming
// deck is started (at volume zero) if it is not already playing. The
// outgoing deck ends paused in the complete state with its pre-fade volume
// restored; the incoming deck ends playing at its target volume.
//
// At most one crossfade may run at a time: a conflicting call is skipped
// with a warning and ErrCrossfadeActive, leaving both decks untouched.
func (t *Transport) ExecuteCrossfade(from, to domain.DeckID, durationSeconds float64, curve domain.Curve) error {
	if from == to {
		return fmt.Errorf("transport: crossfade requires two distinct decks")
	}
	src, err := t.deck(from)
	if err != nil {
		return err
	}
	dst, err := t.deck(to)
	if err != nil {
		return err
	}
	if durationSeconds <= 0 {
		return fmt.Errorf("transport: crossfade duration must be positive")
	}

	if !t.fading.CompareAndSwap(false, true) {
		log.Printf("WARN transport: crossfade %s->%s skipped, another crossfade is in progress", from, to)
		return domain.ErrCrossfadeActive
	}
	defer t.fading.Store(false)

	t.mu.Lock()
	startVolume := src.out.Volume()
	targetVolume := dst.out.Volume()
	if targetVolume <= 0 {
		targetVolume = 1
	}
	if dst.state != domain.DeckPlaying {
		dst.out.SetVolume(0)
		if err := dst.out.Play(); err != nil {
			dst.out.SetVolume(targetVolume)
			t.mu.Unlock()
			return fmt.Errorf("transport: crossfade start deck %s: %w", to, err)
		}
	} else {
		dst.out.SetVolume(0)
	}
	src.state = domain.DeckTransitioning
	dst.state = domain.DeckTransitioning
	t.mu.Unlock()

	steps := t.fadeSteps
	stepDelay := time.Duration(durationSeconds / float64(steps) * float64(time.Second))
	for i := 1; i <= steps; i++ {
		progress := float64(i) / float64(steps)
		fade := curve.Apply(progress)
		src.out.SetVolume(startVolume * (1 - fade))
		dst.out.SetVolume(targetVolume * fade)
		if i < steps {
			t.sleep(stepDelay)
		}
	}

	t.mu.Lock()
	src.out.Pause()
	src.out.SetVolume(startVolume)
	src.state = domain.DeckComplete
	dst.state = domain.DeckPlaying
	t.mu.Unlock()
	return nil
}

// Reset forces a deck back to idle: stopped, rewound, full volume, no track.
func (t *Transport) Reset(id domain.DeckID) error {
	d, err := t.deck(id)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	d.out.Pause()
	if err := d.out.Seek(0); err != nil {
		log.Printf("WARN transport: reset deck %s: rewind failed: %v", id, err)
	}
	d.out.SetVolume(1)
	d.state = domain.DeckIdle
	d.track = nil
	return nil
}

// State returns a deck's lifecycle state.
func (t *Transport) State(id domain.DeckID) domain.DeckState {
	d, err := t.deck(id)
	if err != nil {
		return domain.DeckIdle
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return d.state
}

// Track returns the track loaded on a deck, if any.
func (t *Transport) Track(id domain.DeckID) (domain.Track, bool) {
	d, err := t.deck(id)
	if err != nil {
		return domain.Track{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if d.track == nil {
		return domain.Track{}, false
	}
	return *d.track, true
}

// Position returns a deck's current playback position in seconds.
func (t *Transport) Position(id domain.DeckID) float64 {
	d, err := t.deck(id)
	if err != nil {
		return 0
	}
	return d.out.Position()
}

// Duration returns the loaded track's duration as reported by the primitive.
func (t *Transport) Duration(id domain.DeckID) float64 {
	d, err := t.deck(id)
	if err != nil {
		return 0
	}
	return d.out.Duration()
}

// PlayingDeck returns the deck currently in the playing state, if any.
func (t *Transport) PlayingDeck() (domain.DeckID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range []domain.DeckID{domain.DeckA, domain.DeckB} {
		if d := t.decks[id]; d != nil && d.state == domain.DeckPlaying {
			return id, true
		}
	}
	return "", false
}

// Fading reports whether a crossfade is currently executing.
func (t *Transport) Fading() bool {
	return t.fading.Load()
}

// DeckSnapshot is a read-only view of one deck for status reporting.
type DeckSnapshot struct {
	State    string        `json:"state"`
	Track    *domain.Track `json:"track,omitempty"`
	Position float64       `json:"position"`
	Volume   float64       `json:"volume"`
}

// Snapshot captures a deck's current state for the host UI.
func (t *Transport) Snapshot(id domain.DeckID) DeckSnapshot {
	d, err := t.deck(id)
	if err != nil {
		return DeckSnapshot{State: domain.DeckIdle.String()}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return DeckSnapshot{
		State:    d.state.String(),
		Track:    d.track,
		Position: d.out.Position(),
		Volume:   d.out.Volume(),
	}
}

func (t *Transport) deck(id domain.DeckID) (*deck, error) {
	d, ok := t.decks[id]
	if !ok {
		return nil, fmt.Errorf("transport: unknown deck %q", id)
	}
	return d, nil
}
