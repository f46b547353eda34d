package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ewilliams-labs/segue/internal/core/domain"
	"github.com/ewilliams-labs/segue/internal/core/ports"
)

// Library coordinates the track repository and the setlist arranger.
type Library struct {
	repo     ports.TrackRepository
	arranger ports.Arranger
}

// NewLibrary constructs a Library. The arranger may be nil; arrangement then
// reports it as unconfigured.
func NewLibrary(repo ports.TrackRepository, arranger ports.Arranger) *Library {
	return &Library{repo: repo, arranger: arranger}
}

// RegisterTrack stores a new track descriptor with a fresh ID. Feature
// analysis happens out of band; the descriptor starts without features.
func (l *Library) RegisterTrack(ctx context.Context, title, artist, source string) (domain.Track, error) {
	if title == "" || source == "" {
		return domain.Track{}, errors.New("library: title and source are required")
	}

	track := domain.Track{
		ID:     uuid.NewString(),
		Title:  title,
		Artist: artist,
		Source: source,
	}
	if err := l.repo.Save(ctx, track); err != nil {
		return domain.Track{}, fmt.Errorf("library: save track: %w", err)
	}
	return track, nil
}

// GetTrack loads one track by ID.
func (l *Library) GetTrack(ctx context.Context, id string) (domain.Track, error) {
	track, err := l.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Track{}, fmt.Errorf("library: load track: %w", err)
	}
	return track, nil
}

// ListTracks returns the whole library.
func (l *Library) ListTracks(ctx context.Context) ([]domain.Track, error) {
	tracks, err := l.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("library: list tracks: %w", err)
	}
	return tracks, nil
}

// ResolveTracks loads tracks by ID preserving the requested order.
func (l *Library) ResolveTracks(ctx context.Context, ids []string) ([]domain.Track, error) {
	tracks := make([]domain.Track, 0, len(ids))
	for _, id := range ids {
		track, err := l.repo.GetByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("library: resolve track %s: %w", id, err)
		}
		tracks = append(tracks, track)
	}
	return tracks, nil
}

// Arrange asks the AI arranger to order a setlist into a narrative arc and
// returns the reordered tracks plus the arc label. Track IDs missing from
// the arranger's answer keep their original relative order at the end.
func (l *Library) Arrange(ctx context.Context, ids []string, template string) ([]domain.Track, string, error) {
	if l.arranger == nil {
		return nil, "", errors.New("library: arranger not configured")
	}

	tracks, err := l.ResolveTracks(ctx, ids)
	if err != nil {
		return nil, "", err
	}
	if len(tracks) == 0 {
		return nil, "", errors.New("library: no tracks to arrange")
	}

	plan, err := l.arranger.ArrangeSetlist(ctx, tracks, template)
	if err != nil {
		return nil, "", fmt.Errorf("library: arrange setlist: %w", err)
	}

	byID := make(map[string]domain.Track, len(tracks))
	for _, t := range tracks {
		byID[t.ID] = t
	}

	ordered := make([]domain.Track, 0, len(tracks))
	seen := make(map[string]bool, len(tracks))
	for _, id := range plan.Order {
		t, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		ordered = append(ordered, t)
		seen[id] = true
	}
	for _, t := range tracks {
		if !seen[t.ID] {
			ordered = append(ordered, t)
		}
	}

	return ordered, plan.ArcLabel, nil
}
