package domain

// EventType classifies a session event.
type EventType string

const (
	EventTransition  EventType = "transition"
	EventTrackChange EventType = "track_change"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
)

// SessionEvent is delivered to the host on the conductor's event channel.
// Which fields are set depends on Type: transition events carry From/To,
// track-change events carry Track/Deck, error events carry Message.
type SessionEvent struct {
	Type    EventType `json:"type"`
	From    DeckID    `json:"from,omitempty"`
	To      DeckID    `json:"to,omitempty"`
	Deck    DeckID    `json:"deck,omitempty"`
	Track   *Track    `json:"track,omitempty"`
	Message string    `json:"message,omitempty"`
}
