// Package simulated provides a wall-clock deck output for headless hosts.
// It mimics the timing behavior of a real audio pipeline without producing
// sound, which is what development and CI environments need.
package simulated

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/ports"
)

const defaultDurationSeconds = 240

// Player is a clock-driven implementation of the deck output port.
type Player struct {
	mu sync.Mutex

	// DurationFor resolves a source to its duration in seconds. Optional;
	// unresolved sources get a fixed default.
	DurationFor func(source string) float64

	now func() time.Time

	source    string
	loaded    bool
	playing   bool
	duration  float64
	volume    float64
	basePos   float64
	resumedAt time.Time
}

var _ ports.DeckOutput = (*Player)(nil)

// NewPlayer returns an unloaded simulated deck.
func NewPlayer() *Player {
	return &Player{volume: 1, now: time.Now}
}

func (p *Player) Load(ctx context.Context, source string) error {
	if source == "" {
		return fmt.Errorf("simulated deck: empty source")
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("simulated deck: load canceled: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.source = source
	p.loaded = true
	p.playing = false
	p.basePos = 0
	p.duration = defaultDurationSeconds
	if p.DurationFor != nil {
		if d := p.DurationFor(source); d > 0 {
			p.duration = d
		}
	}
	return nil
}

func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return fmt.Errorf("simulated deck: no source loaded")
	}
	if p.playing {
		return nil
	}
	p.playing = true
	p.resumedAt = p.now()
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.basePos = p.positionLocked()
	p.playing = false
}

func (p *Player) Seek(seconds float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.loaded {
		return fmt.Errorf("simulated deck: no source loaded")
	}
	if seconds < 0 {
		seconds = 0
	}
	p.basePos = seconds
	p.resumedAt = p.now()
	return nil
}

func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.positionLocked()
}

func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	p.volume = v
}

func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

func (p *Player) positionLocked() float64 {
	pos := p.basePos
	if p.playing {
		pos += p.now().Sub(p.resumedAt).Seconds()
	}
	if pos > p.duration {
		pos = p.duration
	}
	return pos
}
