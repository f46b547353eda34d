package domain

// Curve selects the easing shape applied to crossfade progress.
type Curve string

const (
	CurveLinear      Curve = "linear"
	CurveSmooth      Curve = "smooth"
	CurveExponential Curve = "exponential"
)

// Apply maps raw progress (0-1) to fade progress (0-1) for the curve.
// All curves hit exactly 0 at progress 0 and exactly 1 at progress 1.
func (c Curve) Apply(progress float64) float64 {
	if progress <= 0 {
		return 0
	}
	if progress >= 1 {
		return 1
	}
	switch c {
	case CurveSmooth:
		// ease-in-out cubic-like, symmetric around 0.5
		if progress < 0.5 {
			return 2 * progress * progress
		}
		p := -2*progress + 2
		return 1 - (p*p)/2
	case CurveExponential:
		return progress * progress
	default:
		return progress
	}
}

// TransitionPlan is the ephemeral output of one decision cycle. All values
// are seconds, relative to each track's own timeline.
type TransitionPlan struct {
	MixOutPoint      float64 `json:"mix_out_point"`
	MixInPoint       float64 `json:"mix_in_point"`
	CrossfadeSeconds float64 `json:"crossfade_seconds"`
	Curve            Curve   `json:"curve"`
}

// Mode selects a fixed transition profile for a performance session.
type Mode string

const (
	ModeSmoothClub  Mode = "smooth_club"
	ModeHighEnergy  Mode = "high_energy"
	ModeLatinSalsa  Mode = "latin_salsa"
	ModeCinematicAI Mode = "cinematic_ai"
)

// DefaultMode is used when a session does not pick a mode explicitly.
const DefaultMode = ModeLatinSalsa

// Profile is the preset bundle of transition parameters behind a Mode.
type Profile struct {
	CrossfadeSeconds float64
	Curve            Curve
	PhraseBars       int
	ArcAware         bool
}

var profiles = map[Mode]Profile{
	ModeSmoothClub:  {CrossfadeSeconds: 8, Curve: CurveSmooth, PhraseBars: 16},
	ModeHighEnergy:  {CrossfadeSeconds: 4, Curve: CurveExponential, PhraseBars: 8},
	ModeLatinSalsa:  {CrossfadeSeconds: 6, Curve: CurveSmooth, PhraseBars: 8},
	ModeCinematicAI: {CrossfadeSeconds: 12, Curve: CurveSmooth, PhraseBars: 16, ArcAware: true},
}

// Profile returns the preset for the mode; unknown modes fall back to the default.
func (m Mode) Profile() Profile {
	if p, ok := profiles[m]; ok {
		return p
	}
	return profiles[DefaultMode]
}

// Valid reports whether the mode is one of the four known presets.
func (m Mode) Valid() bool {
	_, ok := profiles[m]
	return ok
}

// ArcPosition is a track's place within the narrative arc of a set.
type ArcPosition string

const (
	ArcOpener   ArcPosition = "opener"
	ArcBuildup  ArcPosition = "buildup"
	ArcPeak     ArcPosition = "peak"
	ArcCooldown ArcPosition = "cooldown"
	ArcCloser   ArcPosition = "closer"
)
