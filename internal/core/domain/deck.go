package domain

// DeckID names one of the two virtual decks.
type DeckID string

const (
	DeckA DeckID = "A"
	DeckB DeckID = "B"
)

// DeckState is the lifecycle state of a single deck.
type DeckState int

const (
	DeckIdle DeckState = iota
	DeckLoading
	DeckReady
	DeckPlaying
	DeckTransitioning
	DeckComplete
)

func (s DeckState) String() string {
	switch s {
	case DeckIdle:
		return "idle"
	case DeckLoading:
		return "loading"
	case DeckReady:
		return "ready"
	case DeckPlaying:
		return "playing"
	case DeckTransitioning:
		return "transitioning"
	case DeckComplete:
		return "complete"
	default:
		return "unknown"
	}
}
