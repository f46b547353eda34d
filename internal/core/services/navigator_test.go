package services

import (
	"fmt"
	"math"
	"testing"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

func makeQueue(n int) []domain.Track {
	tracks := make([]domain.Track, n)
	for i := range tracks {
		tracks[i] = domain.Track{ID: fmt.Sprintf("t%d", i), Title: fmt.Sprintf("Track %d", i)}
	}
	return tracks
}

func TestNavigator_AdvanceIsMonotonic(t *testing.T) {
	n := NewNavigator()
	n.SetQueue(makeQueue(3), "")

	if n.Cursor() != 0 {
		t.Fatalf("cursor after SetQueue = %d, want 0", n.Cursor())
	}
	if !n.Advance() || n.Cursor() != 1 {
		t.Fatalf("first advance failed, cursor = %d", n.Cursor())
	}
	if !n.Advance() || n.Cursor() != 2 {
		t.Fatalf("second advance failed, cursor = %d", n.Cursor())
	}

	// At the last index further advances refuse and hold position.
	for i := 0; i < 3; i++ {
		if n.Advance() {
			t.Fatal("advance past last index succeeded")
		}
		if n.Cursor() != 2 {
			t.Fatalf("cursor moved past last index: %d", n.Cursor())
		}
	}
	if !n.IsComplete() {
		t.Fatal("IsComplete false at last index")
	}
}

func TestNavigator_CurrentAndNext(t *testing.T) {
	n := NewNavigator()
	n.SetQueue(makeQueue(2), "")

	cur, ok := n.CurrentTrack()
	if !ok || cur.ID != "t0" {
		t.Fatalf("current = %v %v", cur.ID, ok)
	}
	next, ok := n.NextTrack()
	if !ok || next.ID != "t1" {
		t.Fatalf("next = %v %v", next.ID, ok)
	}

	n.Advance()
	if _, ok := n.NextTrack(); ok {
		t.Fatal("next track reported past end of queue")
	}
}

func TestNavigator_SingleTrackQueueIsImmediatelyComplete(t *testing.T) {
	n := NewNavigator()
	n.SetQueue(makeQueue(1), "")
	if !n.IsComplete() {
		t.Fatal("single-track queue should be complete from the start")
	}
	if n.Advance() {
		t.Fatal("advance succeeded on single-track queue")
	}
}

func TestNavigator_ArcPosition_DefaultBands(t *testing.T) {
	tests := []struct {
		cursor int
		want   domain.ArcPosition
	}{
		{0, domain.ArcOpener},   // progress 0.1
		{2, domain.ArcBuildup},  // progress 0.3
		{5, domain.ArcPeak},     // progress 0.6
		{7, domain.ArcCooldown}, // progress 0.8
		{8, domain.ArcCooldown}, // progress 0.9, inclusive boundary
		{9, domain.ArcCloser},   // progress 1.0
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("cursor %d", tt.cursor), func(t *testing.T) {
			n := NewNavigator()
			n.SetQueue(makeQueue(10), "")
			for i := 0; i < tt.cursor; i++ {
				n.Advance()
			}
			if got := n.ArcPosition(); got != tt.want {
				t.Fatalf("arc position = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNavigator_ArcPosition_LabelBias(t *testing.T) {
	// At 60% progress a default set is at its peak, but a closing set has
	// already moved into the cooldown.
	def := NewNavigator()
	def.SetQueue(makeQueue(10), "")
	closing := NewNavigator()
	closing.SetQueue(makeQueue(10), "Sunset Closer Set")
	for i := 0; i < 5; i++ {
		def.Advance()
		closing.Advance()
	}

	if got := def.ArcPosition(); got != domain.ArcPeak {
		t.Fatalf("default arc at 0.6 = %s, want peak", got)
	}
	if got := closing.ArcPosition(); got != domain.ArcCooldown {
		t.Fatalf("closer-labeled arc at 0.6 = %s, want cooldown", got)
	}

	opening := NewNavigator()
	opening.SetQueue(makeQueue(10), "warmup intro")
	opening.Advance() // progress 0.2
	if got := opening.ArcPosition(); got != domain.ArcOpener {
		t.Fatalf("intro-labeled arc at 0.2 = %s, want opener", got)
	}
}

func TestNavigator_AdjustForArc(t *testing.T) {
	base := domain.TransitionPlan{
		MixOutPoint:      100,
		MixInPoint:       5,
		CrossfadeSeconds: 12,
		Curve:            domain.CurveSmooth,
	}

	n := NewNavigator()

	// Non-arc-aware modes pass the plan through untouched.
	if got := n.AdjustForArc(base, domain.ArcPeak, domain.ModeHighEnergy); got != base {
		t.Fatalf("non-arc mode adjusted plan: %+v", got)
	}

	tests := []struct {
		arc         domain.ArcPosition
		wantSeconds float64
		wantCurve   domain.Curve
	}{
		{domain.ArcOpener, 12, domain.CurveSmooth},   // max(12, 10)
		{domain.ArcBuildup, 10.8, domain.CurveSmooth},
		{domain.ArcPeak, 8.4, domain.CurveExponential},
		{domain.ArcCooldown, 13.2, domain.CurveSmooth},
		{domain.ArcCloser, 12, domain.CurveSmooth}, // max(12, 12)
	}

	for _, tt := range tests {
		t.Run(string(tt.arc), func(t *testing.T) {
			got := n.AdjustForArc(base, tt.arc, domain.ModeCinematicAI)
			if math.Abs(got.CrossfadeSeconds-tt.wantSeconds) > 1e-9 {
				t.Errorf("crossfade seconds = %v, want %v", got.CrossfadeSeconds, tt.wantSeconds)
			}
			if got.Curve != tt.wantCurve {
				t.Errorf("curve = %s, want %s", got.Curve, tt.wantCurve)
			}
			if got.MixOutPoint != base.MixOutPoint || got.MixInPoint != base.MixInPoint {
				t.Errorf("mix points changed: %+v", got)
			}
		})
	}

	// Short base fades get lengthened for openers.
	short := base
	short.CrossfadeSeconds = 6
	if got := n.AdjustForArc(short, domain.ArcOpener, domain.ModeCinematicAI); got.CrossfadeSeconds != 10 {
		t.Errorf("opener floor: got %v, want 10", got.CrossfadeSeconds)
	}
}
