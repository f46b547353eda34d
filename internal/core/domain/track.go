package domain

// TimeRange is a named section of a track, in seconds from track start.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Structure holds the structural markers an analyzer found in a track.
// All fields are optional; a nil pointer means the marker was not detected.
type Structure struct {
	Intro      *TimeRange  `json:"intro,omitempty"`
	Outro      *TimeRange  `json:"outro,omitempty"`
	Drop       *float64    `json:"drop,omitempty"`
	Breakdowns []TimeRange `json:"breakdowns,omitempty"`
}

// CuePoints are explicit DJ cue timestamps that override structure-derived
// mix points when present.
type CuePoints struct {
	MixIn  *float64 `json:"mix_in,omitempty"`
	MixOut *float64 `json:"mix_out,omitempty"`
}

// Track represents a playable track in the domain layer. The descriptor is
// treated as immutable for the duration of a playback session; analysis
// fields arrive precomputed from an external analyzer.
type Track struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Artist string `json:"artist"`

	// Source is the playback source reference (URL or local path).
	Source string `json:"source"`

	BPM             float64 `json:"bpm,omitempty"`              // 0 = unknown
	DurationSeconds float64 `json:"duration_seconds,omitempty"` // 0 = unknown
	HarmonicKey     string  `json:"harmonic_key,omitempty"`

	// EnergyCurve is a fixed-length sequence of normalized energy samples
	// (0-100) spanning the track, used for trend comparison only.
	EnergyCurve []float64 `json:"energy_curve,omitempty"`

	Structure *Structure `json:"structure,omitempty"`
	Cues      *CuePoints `json:"cue_points,omitempty"`
}

// Analysis is the result of feature analysis for a single track, merged into
// the stored descriptor once an analyzer reports back.
type Analysis struct {
	BPM             float64
	DurationSeconds float64
	HarmonicKey     string
	EnergyCurve     []float64
	Structure       *Structure
	Cues            *CuePoints
}

// ArcPlan is an AI-arranged setlist ordering with its narrative arc label.
type ArcPlan struct {
	Order       []string `json:"order"`
	ArcLabel    string   `json:"arc_label"`
	Description string   `json:"description,omitempty"`
}
