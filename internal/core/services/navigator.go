package services

import (
	"strings"
	"sync"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// Navigator owns setlist order, the current-position cursor, and the mapping
// from queue progress to a narrative arc position. The cursor is monotonic:
// it only moves forward, one track at a time, and never wraps.
type Navigator struct {
	mu       sync.Mutex
	tracks   []domain.Track
	cursor   int
	arcLabel string
}

// NewNavigator returns an empty navigator.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// SetQueue replaces the whole queue and resets the cursor to the first track.
// arcLabel is an optional free-text hint ("peak set", "closer") fuzzily
// matched when inferring arc positions.
func (n *Navigator) SetQueue(tracks []domain.Track, arcLabel string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tracks = append([]domain.Track(nil), tracks...)
	n.cursor = 0
	n.arcLabel = arcLabel
}

// CurrentTrack returns the track under the cursor.
func (n *Navigator) CurrentTrack() (domain.Track, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cursor >= len(n.tracks) {
		return domain.Track{}, false
	}
	return n.tracks[n.cursor], true
}

// NextTrack returns the track after the cursor, if one exists.
func (n *Navigator) NextTrack() (domain.Track, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cursor+1 >= len(n.tracks) {
		return domain.Track{}, false
	}
	return n.tracks[n.cursor+1], true
}

// Advance moves the cursor forward by one. It reports false and leaves the
// cursor unchanged when already at the last track.
func (n *Navigator) Advance() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cursor+1 >= len(n.tracks) {
		return false
	}
	n.cursor++
	return true
}

// IsComplete reports whether no further track exists past the cursor.
func (n *Navigator) IsComplete() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor+1 >= len(n.tracks)
}

// Len returns the queue length.
func (n *Navigator) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.tracks)
}

// Cursor returns the current queue index.
func (n *Navigator) Cursor() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cursor
}

// ArcPosition infers where the current track sits in the set's narrative arc
// from queue progress, biased by the arc label when one was supplied.
func (n *Navigator) ArcPosition() domain.ArcPosition {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.tracks) == 0 {
		return domain.ArcOpener
	}
	progress := float64(n.cursor+1) / float64(len(n.tracks))

	bands := defaultArcBands
	label := strings.ToLower(n.arcLabel)
	switch {
	case strings.Contains(label, "opener") || strings.Contains(label, "intro"):
		// an opening set lingers in the opener/buildup phases
		bands = arcBands{opener: 0.25, buildup: 0.5, peak: 0.75, cooldown: 0.9}
	case strings.Contains(label, "peak") || strings.Contains(label, "climax"):
		// a peak-time set reaches the peak sooner and holds it longer
		bands = arcBands{opener: 0.1, buildup: 0.3, peak: 0.8, cooldown: 0.9}
	case strings.Contains(label, "closer") || strings.Contains(label, "outro"):
		// a closing set starts winding down earlier
		bands = arcBands{opener: 0.1, buildup: 0.3, peak: 0.6, cooldown: 0.8}
	}

	switch {
	case progress < bands.opener:
		return domain.ArcOpener
	case progress < bands.buildup:
		return domain.ArcBuildup
	case progress < bands.peak:
		return domain.ArcPeak
	case progress <= bands.cooldown:
		return domain.ArcCooldown
	default:
		return domain.ArcCloser
	}
}

// AdjustForArc rescales a transition plan for the arc position. It is a
// no-op unless the mode's profile is arc-aware: openers and closers get long
// smooth fades, peaks get short sharp ones.
func (n *Navigator) AdjustForArc(plan domain.TransitionPlan, arc domain.ArcPosition, mode domain.Mode) domain.TransitionPlan {
	if !mode.Profile().ArcAware {
		return plan
	}

	switch arc {
	case domain.ArcOpener:
		if plan.CrossfadeSeconds < 10 {
			plan.CrossfadeSeconds = 10
		}
		plan.Curve = domain.CurveSmooth
	case domain.ArcBuildup:
		plan.CrossfadeSeconds *= 0.9
		plan.Curve = domain.CurveSmooth
	case domain.ArcPeak:
		plan.CrossfadeSeconds *= 0.7
		plan.Curve = domain.CurveExponential
	case domain.ArcCooldown:
		plan.CrossfadeSeconds *= 1.1
		plan.Curve = domain.CurveSmooth
	case domain.ArcCloser:
		if plan.CrossfadeSeconds < 12 {
			plan.CrossfadeSeconds = 12
		}
		plan.Curve = domain.CurveSmooth
	}
	return plan
}

// arcBands are exclusive upper thresholds on queue progress for each arc
// position; cooldown's threshold is inclusive so a set of ten lands its
// ninth track in the cooldown, not the close.
type arcBands struct {
	opener, buildup, peak, cooldown float64
}

var defaultArcBands = arcBands{opener: 0.15, buildup: 0.4, peak: 0.7, cooldown: 0.9}
