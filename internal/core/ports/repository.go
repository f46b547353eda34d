package ports

import (
	"context"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// TrackRepository persists the track library.
type TrackRepository interface {
	Save(ctx context.Context, t domain.Track) error
	GetByID(ctx context.Context, id string) (domain.Track, error)
	List(ctx context.Context) ([]domain.Track, error)
	UpdateFeatures(ctx context.Context, id string, a domain.Analysis) error
}
