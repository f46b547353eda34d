//go:build !((linux && cgo) || windows || darwin)

package beepout

import (
	"context"
	"fmt"

	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = false

// Deck is a placeholder for builds without audio support. Every operation
// that would touch audio fails; hosts should fall back to the simulated deck.
type Deck struct{}

var _ ports.DeckOutput = (*Deck)(nil)

func NewDeck() *Deck { return &Deck{} }

func (d *Deck) Load(ctx context.Context, source string) error {
	return fmt.Errorf("beep deck: audio playback not available in this build")
}

func (d *Deck) Play() error {
	return fmt.Errorf("beep deck: audio playback not available in this build")
}

func (d *Deck) Pause() {}

func (d *Deck) Seek(seconds float64) error {
	return fmt.Errorf("beep deck: audio playback not available in this build")
}

func (d *Deck) Position() float64 { return 0 }
func (d *Deck) Duration() float64 { return 0 }
func (d *Deck) SetVolume(float64) {}
func (d *Deck) Volume() float64   { return 0 }
func (d *Deck) Close() error      { return nil }
