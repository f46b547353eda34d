//go:build (linux && cgo) || windows || darwin

package beepout

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// AudioAvailable indicates whether audio playback is supported in this build.
const AudioAvailable = true

const mixerSampleRate = beep.SampleRate(44100)

var (
	speakerOnce sync.Once
	speakerErr  error
)

var fetchClient = &http.Client{Timeout: 60 * time.Second}

// Deck is a real audio implementation of the deck output port on top of
// beep's speaker. All decks share one speaker mixer, initialized lazily at
// 44.1kHz; sources at other rates are resampled.
type Deck struct {
	mu sync.Mutex

	streamer  beep.StreamSeekCloser
	format    beep.Format
	ctrl      *beep.Ctrl
	gain      *effects.Volume
	linearVol float64
	queued    bool
}

var _ ports.DeckOutput = (*Deck)(nil)

// NewDeck returns an unloaded deck.
func NewDeck() *Deck {
	return &Deck{linearVol: 1}
}

// Load fetches and decodes an MP3 source into memory and prepares the
// playback chain. Any previously loaded source is stopped and released.
func (d *Deck) Load(ctx context.Context, source string) error {
	data, err := readSource(ctx, source)
	if err != nil {
		return fmt.Errorf("beep deck: %w", err)
	}

	streamer, format, err := mp3.Decode(nopCloser{bytes.NewReader(data)})
	if err != nil {
		return fmt.Errorf("beep deck: decode %q: %w", source, err)
	}

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(mixerSampleRate, mixerSampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		streamer.Close()
		return fmt.Errorf("beep deck: speaker init: %w", speakerErr)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()

	resampled := beep.Resample(4, format.SampleRate, mixerSampleRate, streamer)
	ctrl := &beep.Ctrl{Streamer: resampled, Paused: true}
	gain := &effects.Volume{Streamer: ctrl, Base: 2}

	d.streamer = streamer
	d.format = format
	d.ctrl = ctrl
	d.gain = gain
	d.queued = false
	d.applyVolumeLocked(d.linearVol)
	return nil
}

// Play starts or resumes playback. The first Play after Load attaches the
// deck's chain to the shared mixer.
func (d *Deck) Play() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctrl == nil {
		return fmt.Errorf("beep deck: no source loaded")
	}

	speaker.Lock()
	d.ctrl.Paused = false
	speaker.Unlock()

	if !d.queued {
		speaker.Play(d.gain)
		d.queued = true
	}
	return nil
}

func (d *Deck) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctrl == nil {
		return
	}
	speaker.Lock()
	d.ctrl.Paused = true
	speaker.Unlock()
}

func (d *Deck) Seek(seconds float64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streamer == nil {
		return fmt.Errorf("beep deck: no source loaded")
	}
	if seconds < 0 {
		seconds = 0
	}

	speaker.Lock()
	defer speaker.Unlock()
	samples := d.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if max := d.streamer.Len(); samples > max {
		samples = max
	}
	if err := d.streamer.Seek(samples); err != nil {
		return fmt.Errorf("beep deck: seek: %w", err)
	}
	return nil
}

func (d *Deck) Position() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := d.streamer.Position()
	speaker.Unlock()
	return d.format.SampleRate.D(pos).Seconds()
}

func (d *Deck) Duration() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.streamer == nil {
		return 0
	}
	return d.format.SampleRate.D(d.streamer.Len()).Seconds()
}

// SetVolume takes a linear volume in [0, 1] and maps it onto beep's
// exponential gain. Zero mutes the chain outright.
func (d *Deck) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.linearVol = v
	d.applyVolumeLocked(v)
}

func (d *Deck) Volume() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.linearVol
}

// Close releases the loaded source.
func (d *Deck) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	return nil
}

func (d *Deck) applyVolumeLocked(v float64) {
	if d.gain == nil {
		return
	}
	speaker.Lock()
	if v <= 0 {
		d.gain.Silent = true
	} else {
		d.gain.Silent = false
		d.gain.Volume = math.Log2(v)
	}
	speaker.Unlock()
}

func (d *Deck) stopLocked() {
	if d.ctrl != nil {
		speaker.Lock()
		d.ctrl.Paused = true
		speaker.Unlock()
	}
	if d.streamer != nil {
		d.streamer.Close()
		d.streamer = nil
	}
	d.ctrl = nil
	d.gain = nil
	d.queued = false
}

func readSource(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("fetch %q: %w", source, err)
		}
		resp, err := fetchClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %q: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %q: status %d", source, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", source, err)
	}
	return data, nil
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
