package services

import (
	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// fallbackDurationSeconds is assumed when a track has no known duration.
const fallbackDurationSeconds = 240

// Engine computes transition plans between two tracks. It is pure decision
// logic: no timers, no I/O, identical output for identical input.
type Engine struct{}

// CalculateTransitionPoint decides when and how to crossfade from track a
// into track b under the given performance mode.
//
// Mix-out resolution: explicit cue, then outro start, then the last 20% of
// the track. Mix-in resolution: explicit cue, then intro end, then track start.
func (Engine) CalculateTransitionPoint(a, b domain.Track, mode domain.Mode) domain.TransitionPlan {
	profile := mode.Profile()

	duration := a.DurationSeconds
	if duration <= 0 {
		duration = fallbackDurationSeconds
	}

	mixOut := 0.8 * duration
	if a.Cues != nil && a.Cues.MixOut != nil {
		mixOut = *a.Cues.MixOut
	} else if a.Structure != nil && a.Structure.Outro != nil {
		mixOut = a.Structure.Outro.Start
	}

	mixIn := 0.0
	if b.Cues != nil && b.Cues.MixIn != nil {
		mixIn = *b.Cues.MixIn
	} else if b.Structure != nil && b.Structure.Intro != nil {
		mixIn = b.Structure.Intro.End
	}

	return domain.TransitionPlan{
		MixOutPoint:      mixOut,
		MixInPoint:       mixIn,
		CrossfadeSeconds: profile.CrossfadeSeconds,
		Curve:            profile.Curve,
	}
}

// MatchEnergyCurves scores how well the end of track a flows into the start
// of track b, comparing the mean of a's last 20% of energy samples against
// the mean of b's first 20%. Returns a compatibility in [0, 1], or a neutral
// 0.5 when either curve is absent. Advisory only; it does not feed back into
// CalculateTransitionPoint.
func (Engine) MatchEnergyCurves(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0.5
	}

	tailA := a[len(a)-segmentLen(len(a)):]
	headB := b[:segmentLen(len(b))]

	diff := mean(tailA) - mean(headB)
	if diff < 0 {
		diff = -diff
	}
	score := 1 - diff/100
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// DetectPhraseBoundaries generates timestamps at every phrase boundary
// (phraseBars bars of 4 beats) from track start through its duration.
// Returns nil when BPM, duration, or the phrase length is missing.
func (Engine) DetectPhraseBoundaries(bpm, durationSeconds float64, phraseBars int) []float64 {
	if bpm <= 0 || durationSeconds <= 0 || phraseBars <= 0 {
		return nil
	}

	step := float64(phraseBars) * 4 * (60 / bpm)
	var boundaries []float64
	for t := 0.0; t <= durationSeconds; t += step {
		boundaries = append(boundaries, t)
	}
	return boundaries
}

// segmentLen is 20% of a curve's length, never less than one sample.
func segmentLen(n int) int {
	seg := n / 5
	if seg < 1 {
		seg = 1
	}
	return seg
}

func mean(samples []float64) float64 {
	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
