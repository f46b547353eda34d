package domain

import "errors"

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("domain: not found")

	// ErrCrossfadeActive indicates a crossfade was requested while another
	// one is still running. The requested fade is skipped, not queued.
	ErrCrossfadeActive = errors.New("domain: crossfade already in progress")

	// ErrEmptyQueue indicates a session was started with no tracks.
	ErrEmptyQueue = errors.New("domain: queue is empty")

	// ErrSessionActive indicates a session start while one is already running.
	ErrSessionActive = errors.New("domain: session already active")
)
