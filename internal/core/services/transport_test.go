package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// fakeOutput is an in-memory playback primitive with scriptable failures.
type fakeOutput struct {
	mu      sync.Mutex
	loadErr error
	playErr error

	source  string
	playing bool
	pos     float64
	dur     float64
	vol     float64
	plays   int
	volumes []float64 // every SetVolume value, in order
}

func newFakeOutput(dur float64) *fakeOutput {
	return &fakeOutput{dur: dur, vol: 1}
}

func (o *fakeOutput) Load(ctx context.Context, source string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.loadErr != nil {
		return o.loadErr
	}
	o.source = source
	o.pos = 0
	o.playing = false
	return nil
}

func (o *fakeOutput) Play() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.playErr != nil {
		return o.playErr
	}
	o.playing = true
	o.plays++
	return nil
}

func (o *fakeOutput) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.playing = false
}

func (o *fakeOutput) Seek(seconds float64) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pos = seconds
	return nil
}

func (o *fakeOutput) Position() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pos
}

func (o *fakeOutput) Duration() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dur
}

func (o *fakeOutput) SetVolume(v float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.vol = v
	o.volumes = append(o.volumes, v)
}

func (o *fakeOutput) Volume() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vol
}

func (o *fakeOutput) setPos(seconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pos = seconds
}

func (o *fakeOutput) isPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playing
}

func newTestTransport(outA, outB *fakeOutput) *Transport {
	tr := NewTransport(outA, outB)
	tr.fadeSteps = 4
	tr.sleep = func(time.Duration) {}
	return tr
}

func TestTransport_LoadTrack(t *testing.T) {
	outA := newFakeOutput(200)
	tr := newTestTransport(outA, newFakeOutput(180))

	track := domain.Track{ID: "t1", Source: "file:///one.mp3"}
	if err := tr.LoadTrack(context.Background(), domain.DeckA, track); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tr.State(domain.DeckA); got != domain.DeckReady {
		t.Fatalf("state = %s, want ready", got)
	}
	if outA.source != track.Source {
		t.Fatalf("source = %q", outA.source)
	}
	if loaded, ok := tr.Track(domain.DeckA); !ok || loaded.ID != "t1" {
		t.Fatalf("loaded track = %+v %v", loaded, ok)
	}
}

func TestTransport_LoadTrack_FailureRevertsToIdle(t *testing.T) {
	outA := newFakeOutput(200)
	outA.loadErr = errors.New("decode failed")
	tr := newTestTransport(outA, newFakeOutput(180))

	err := tr.LoadTrack(context.Background(), domain.DeckA, domain.Track{Source: "broken"})
	if err == nil {
		t.Fatal("expected load error")
	}
	if got := tr.State(domain.DeckA); got != domain.DeckIdle {
		t.Fatalf("state after failed load = %s, want idle", got)
	}
	if _, ok := tr.Track(domain.DeckA); ok {
		t.Fatal("track set despite failed load")
	}
}

func TestTransport_StartPlayback(t *testing.T) {
	outA := newFakeOutput(200)
	tr := newTestTransport(outA, newFakeOutput(180))

	// Not loaded yet.
	if err := tr.StartPlayback(domain.DeckA); err == nil {
		t.Fatal("start on idle deck succeeded")
	}

	if err := tr.LoadTrack(context.Background(), domain.DeckA, domain.Track{Source: "a"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := tr.StartPlayback(domain.DeckA); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := tr.State(domain.DeckA); got != domain.DeckPlaying {
		t.Fatalf("state = %s, want playing", got)
	}

	if err := tr.PausePlayback(domain.DeckA); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if got := tr.State(domain.DeckA); got != domain.DeckReady {
		t.Fatalf("state after pause = %s, want ready", got)
	}
}

func TestTransport_StartPlayback_RefusalKeepsDeckReady(t *testing.T) {
	outA := newFakeOutput(200)
	outA.playErr = errors.New("autoplay blocked")
	tr := newTestTransport(outA, newFakeOutput(180))

	if err := tr.LoadTrack(context.Background(), domain.DeckA, domain.Track{Source: "a"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := tr.StartPlayback(domain.DeckA); err == nil {
		t.Fatal("expected play refusal")
	}
	if got := tr.State(domain.DeckA); got != domain.DeckReady {
		t.Fatalf("state after refusal = %s, want ready", got)
	}
}

func TestTransport_ExecuteCrossfade(t *testing.T) {
	outA := newFakeOutput(200)
	outB := newFakeOutput(180)
	tr := newTestTransport(outA, outB)

	ctx := context.Background()
	if err := tr.LoadTrack(ctx, domain.DeckA, domain.Track{ID: "t1", Source: "a"}); err != nil {
		t.Fatalf("load A: %v", err)
	}
	if err := tr.LoadTrack(ctx, domain.DeckB, domain.Track{ID: "t2", Source: "b"}); err != nil {
		t.Fatalf("load B: %v", err)
	}
	if err := tr.StartPlayback(domain.DeckA); err != nil {
		t.Fatalf("start A: %v", err)
	}

	if err := tr.ExecuteCrossfade(domain.DeckA, domain.DeckB, 2, domain.CurveLinear); err != nil {
		t.Fatalf("crossfade: %v", err)
	}

	if got := tr.State(domain.DeckA); got != domain.DeckComplete {
		t.Errorf("outgoing state = %s, want complete", got)
	}
	if got := tr.State(domain.DeckB); got != domain.DeckPlaying {
		t.Errorf("incoming state = %s, want playing", got)
	}
	if outA.isPlaying() {
		t.Error("outgoing deck still playing after fade")
	}
	if !outB.isPlaying() {
		t.Error("incoming deck not playing after fade")
	}
	if outB.plays != 1 {
		t.Errorf("incoming deck started %d times, want 1", outB.plays)
	}

	// Outgoing volume restored to its pre-fade level for later reuse.
	if outA.Volume() != 1 {
		t.Errorf("outgoing volume after fade = %v, want 1", outA.Volume())
	}
	if outB.Volume() != 1 {
		t.Errorf("incoming volume after fade = %v, want 1", outB.Volume())
	}

	// The outgoing fade must be monotonically non-increasing until the
	// final restore step.
	vols := outA.volumes
	if len(vols) < 2 {
		t.Fatalf("too few volume steps recorded: %v", vols)
	}
	faded := vols[:len(vols)-1]
	for i := 1; i < len(faded); i++ {
		if faded[i] > faded[i-1] {
			t.Fatalf("outgoing volume increased mid-fade: %v", faded)
		}
	}
	if faded[len(faded)-1] != 0 {
		t.Fatalf("outgoing volume did not reach 0: %v", faded)
	}
}

func TestTransport_ExecuteCrossfade_MutualExclusion(t *testing.T) {
	outA := newFakeOutput(200)
	outB := newFakeOutput(180)
	tr := NewTransport(outA, outB)
	tr.fadeSteps = 4

	release := make(chan struct{})
	stepped := make(chan struct{}, tr.fadeSteps)
	tr.sleep = func(time.Duration) {
		stepped <- struct{}{}
		<-release
	}

	ctx := context.Background()
	if err := tr.LoadTrack(ctx, domain.DeckA, domain.Track{Source: "a"}); err != nil {
		t.Fatalf("load A: %v", err)
	}
	if err := tr.LoadTrack(ctx, domain.DeckB, domain.Track{Source: "b"}); err != nil {
		t.Fatalf("load B: %v", err)
	}
	if err := tr.StartPlayback(domain.DeckA); err != nil {
		t.Fatalf("start A: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- tr.ExecuteCrossfade(domain.DeckA, domain.DeckB, 2, domain.CurveLinear) }()
	<-stepped // first fade is mid-flight

	if err := tr.ExecuteCrossfade(domain.DeckB, domain.DeckA, 2, domain.CurveLinear); !errors.Is(err, domain.ErrCrossfadeActive) {
		t.Fatalf("concurrent crossfade error = %v, want ErrCrossfadeActive", err)
	}
	// Both decks still belong to the first fade.
	if got := tr.State(domain.DeckA); got != domain.DeckTransitioning {
		t.Fatalf("deck A state = %s, want transitioning", got)
	}
	if got := tr.State(domain.DeckB); got != domain.DeckTransitioning {
		t.Fatalf("deck B state = %s, want transitioning", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first crossfade: %v", err)
	}
	if got := tr.State(domain.DeckB); got != domain.DeckPlaying {
		t.Fatalf("deck B state after fade = %s, want playing", got)
	}
}

func TestTransport_ExecuteCrossfade_IncomingPlayRefusal(t *testing.T) {
	outA := newFakeOutput(200)
	outB := newFakeOutput(180)
	outB.playErr = errors.New("autoplay blocked")
	tr := newTestTransport(outA, outB)

	ctx := context.Background()
	if err := tr.LoadTrack(ctx, domain.DeckA, domain.Track{Source: "a"}); err != nil {
		t.Fatalf("load A: %v", err)
	}
	if err := tr.LoadTrack(ctx, domain.DeckB, domain.Track{Source: "b"}); err != nil {
		t.Fatalf("load B: %v", err)
	}
	if err := tr.StartPlayback(domain.DeckA); err != nil {
		t.Fatalf("start A: %v", err)
	}

	if err := tr.ExecuteCrossfade(domain.DeckA, domain.DeckB, 2, domain.CurveLinear); err == nil {
		t.Fatal("expected crossfade failure")
	}
	if got := tr.State(domain.DeckA); got != domain.DeckPlaying {
		t.Fatalf("deck A state = %s, want playing", got)
	}
	if got := tr.State(domain.DeckB); got != domain.DeckReady {
		t.Fatalf("deck B state = %s, want ready", got)
	}
	if tr.Fading() {
		t.Fatal("fading flag stuck after failed crossfade")
	}
}

func TestTransport_Reset(t *testing.T) {
	outA := newFakeOutput(200)
	tr := newTestTransport(outA, newFakeOutput(180))

	ctx := context.Background()
	if err := tr.LoadTrack(ctx, domain.DeckA, domain.Track{Source: "a"}); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := tr.StartPlayback(domain.DeckA); err != nil {
		t.Fatalf("start: %v", err)
	}
	outA.setPos(42)

	if err := tr.Reset(domain.DeckA); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := tr.State(domain.DeckA); got != domain.DeckIdle {
		t.Fatalf("state = %s, want idle", got)
	}
	if outA.Position() != 0 || outA.isPlaying() {
		t.Fatalf("deck not rewound and stopped: pos=%v playing=%v", outA.Position(), outA.isPlaying())
	}
	if _, ok := tr.Track(domain.DeckA); ok {
		t.Fatal("track still set after reset")
	}
}
