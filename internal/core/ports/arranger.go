package ports

import (
	"context"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// Arranger orders a setlist into a narrative arc. Implementations typically
// call an external AI service; the result is advisory and applied before a
// session starts, never during playback.
type Arranger interface {
	ArrangeSetlist(ctx context.Context, tracks []domain.Track, template string) (domain.ArcPlan, error)
}
