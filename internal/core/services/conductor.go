package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

const (
	defaultPollInterval = 500 * time.Millisecond

	// triggerGraceSeconds is how far past the mix-out point a tick may land
	// and still fire the transition.
	triggerGraceSeconds = 1.0

	eventBuffer = 16
)

// Conductor orchestrates the transport, the transition engine, and the queue
// navigator on a polling loop. It is the only component with a running loop;
// one conductor drives one live session at a time.
//
// Session events are delivered on Events(). Emission never blocks: if the
// host stops draining, events are dropped with a warning.
type Conductor struct {
	transport *Transport
	engine    Engine
	navigator *Navigator

	pollInterval time.Duration
	events       chan domain.SessionEvent

	mu      sync.Mutex
	mode    domain.Mode
	active  bool
	cancel  context.CancelFunc
	stopped sync.WaitGroup

	// inFlight guards the transition trigger so a fade that outlives one
	// poll interval is not fired twice.
	inFlight atomic.Bool
}

// NewConductor wires a conductor over an existing transport and navigator.
func NewConductor(transport *Transport, navigator *Navigator) *Conductor {
	return &Conductor{
		transport:    transport,
		navigator:    navigator,
		pollInterval: defaultPollInterval,
		events:       make(chan domain.SessionEvent, eventBuffer),
		mode:         domain.DefaultMode,
	}
}

// Events returns the channel the host drains for session events.
func (c *Conductor) Events() <-chan domain.SessionEvent {
	return c.events
}

// Start loads the first two queue tracks onto decks A and B, begins playback
// on deck A, and starts the poll loop. The second track is loaded only when
// one exists. Starting an empty queue or a second concurrent session fails.
func (c *Conductor) Start(ctx context.Context, tracks []domain.Track, arcLabel string, mode domain.Mode) error {
	if len(tracks) == 0 {
		log.Printf("WARN conductor: start requested with empty queue")
		return domain.ErrEmptyQueue
	}
	if !mode.Valid() {
		mode = domain.DefaultMode
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return domain.ErrSessionActive
	}
	c.active = true
	c.mode = mode
	c.mu.Unlock()

	c.navigator.SetQueue(tracks, arcLabel)

	if err := c.transport.LoadTrack(ctx, domain.DeckA, tracks[0]); err != nil {
		c.deactivate()
		return fmt.Errorf("conductor: %w", err)
	}
	if err := c.transport.StartPlayback(domain.DeckA); err != nil {
		c.deactivate()
		return fmt.Errorf("conductor: %w", err)
	}
	c.emit(domain.SessionEvent{Type: domain.EventTrackChange, Track: &tracks[0], Deck: domain.DeckA})

	if len(tracks) > 1 {
		if err := c.transport.LoadTrack(ctx, domain.DeckB, tracks[1]); err != nil {
			// Deck B stays idle; the poll loop retries nothing here, the
			// transition for this track will simply never become ready.
			log.Printf("WARN conductor: preload deck B: %v", err)
		}
	}

	loopCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	c.stopped.Add(1)
	go c.run(loopCtx)
	return nil
}

// Stop cancels the poll loop. Idempotent. An in-flight crossfade is not
// aborted; it runs to completion so deck volumes are never left mid-fade.
func (c *Conductor) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.active = false
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsActive reports whether the poll loop is running.
func (c *Conductor) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Mode returns the session's performance mode.
func (c *Conductor) Mode() domain.Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SessionStatus is a point-in-time view of the live session for the host UI.
type SessionStatus struct {
	Active      bool               `json:"active"`
	Mode        domain.Mode        `json:"mode"`
	Cursor      int                `json:"cursor"`
	QueueLength int                `json:"queue_length"`
	ArcPosition domain.ArcPosition `json:"arc_position"`
	Fading      bool               `json:"fading"`
	DeckA       DeckSnapshot       `json:"deck_a"`
	DeckB       DeckSnapshot       `json:"deck_b"`
}

// Status snapshots the session.
func (c *Conductor) Status() SessionStatus {
	return SessionStatus{
		Active:      c.IsActive(),
		Mode:        c.Mode(),
		Cursor:      c.navigator.Cursor(),
		QueueLength: c.navigator.Len(),
		ArcPosition: c.navigator.ArcPosition(),
		Fading:      c.transport.Fading(),
		DeckA:       c.transport.Snapshot(domain.DeckA),
		DeckB:       c.transport.Snapshot(domain.DeckB),
	}
}

func (c *Conductor) run(ctx context.Context) {
	defer c.stopped.Done()
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

// tick is one pass of the poll loop: find the playing deck, plan the next
// transition, and trigger it when the mix-out point arrives. Errors are
// logged and the loop carries on; the queue only advances after a
// successful crossfade.
func (c *Conductor) tick(ctx context.Context) {
	if c.inFlight.Load() {
		return
	}

	playing, ok := c.transport.PlayingDeck()
	if !ok {
		return
	}

	current, ok := c.navigator.CurrentTrack()
	if !ok {
		return
	}

	next, hasNext := c.navigator.NextTrack()
	if !hasNext {
		if c.navigator.IsComplete() {
			c.finishWhenPlayedOut(playing)
		}
		return
	}

	incoming := otherDeck(playing)
	if c.transport.State(incoming) != domain.DeckReady {
		// still loading, or its load failed; nothing to fade into yet
		return
	}

	plan := c.engine.CalculateTransitionPoint(current, next, c.Mode())
	plan = c.navigator.AdjustForArc(plan, c.navigator.ArcPosition(), c.Mode())

	delta := plan.MixOutPoint - c.transport.Position(playing)
	if delta > 0 || delta <= -triggerGraceSeconds {
		return
	}

	if !c.inFlight.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.inFlight.Store(false)
		c.executeTransition(ctx, playing, incoming, next, plan)
	}()
}

func (c *Conductor) executeTransition(ctx context.Context, from, to domain.DeckID, next domain.Track, plan domain.TransitionPlan) {
	if err := c.transport.SetPosition(to, plan.MixInPoint); err != nil {
		log.Printf("WARN conductor: transition aborted: %v", err)
		c.emit(domain.SessionEvent{Type: domain.EventError, Message: err.Error()})
		return
	}

	if err := c.transport.ExecuteCrossfade(from, to, plan.CrossfadeSeconds, plan.Curve); err != nil {
		// Queue stays put so a failed fade never skips a track. Deck state
		// may need a manual Reset to recover; the loop keeps polling.
		log.Printf("WARN conductor: crossfade %s->%s failed: %v", from, to, err)
		c.emit(domain.SessionEvent{Type: domain.EventError, Message: err.Error()})
		return
	}

	c.emit(domain.SessionEvent{Type: domain.EventTransition, From: from, To: to})
	c.navigator.Advance()
	c.emit(domain.SessionEvent{Type: domain.EventTrackChange, Track: &next, Deck: to})

	upcoming, ok := c.navigator.NextTrack()
	if !ok {
		return
	}
	// Preload the deck that just faded out for the transition after this one.
	if err := c.transport.LoadTrack(ctx, from, upcoming); err != nil {
		log.Printf("WARN conductor: preload deck %s: %v", from, err)
		c.emit(domain.SessionEvent{Type: domain.EventError, Message: err.Error()})
	}
}

// finishWhenPlayedOut ends the session once the last track reaches its
// natural end of playback. Completion is tied to the audio actually running
// out, not to the cursor reaching the final index.
func (c *Conductor) finishWhenPlayedOut(playing domain.DeckID) {
	duration := c.transport.Duration(playing)
	if duration <= 0 {
		if track, ok := c.transport.Track(playing); ok {
			duration = track.DurationSeconds
		}
	}
	if duration <= 0 {
		return
	}
	if c.transport.Position(playing) < duration {
		return
	}

	if err := c.transport.PausePlayback(playing); err != nil {
		log.Printf("WARN conductor: pause at end of set: %v", err)
	}
	c.emit(domain.SessionEvent{Type: domain.EventComplete})
	c.Stop()
}

func (c *Conductor) deactivate() {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
}

func (c *Conductor) emit(ev domain.SessionEvent) {
	select {
	case c.events <- ev:
	default:
		log.Printf("WARN conductor: dropping %s event, channel full", ev.Type)
	}
}

func otherDeck(id domain.DeckID) domain.DeckID {
	if id == domain.DeckA {
		return domain.DeckB
	}
	return domain.DeckA
}
