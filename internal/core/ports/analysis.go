package ports

import (
	"context"
	"errors"
	"fmt"

	"github.com/ewilliams-labs/segue/internal/core/domain"
)

// ErrAnalysisFailed indicates the analyzer could not produce features for a source.
var ErrAnalysisFailed = errors.New("analysis failed")

// AnalysisFailedError provides context for a failed analysis.
type AnalysisFailedError struct {
	Source string
	Reason string
}

func (e AnalysisFailedError) Error() string {
	if e.Source == "" {
		return ErrAnalysisFailed.Error()
	}
	return fmt.Sprintf("analysis failed for source %q: %s", e.Source, e.Reason)
}

func (e AnalysisFailedError) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// FeatureAnalyzer supplies precomputed audio features for a playback source.
// The engine never computes features itself; they arrive through this port.
type FeatureAnalyzer interface {
	Analyze(ctx context.Context, source string) (domain.Analysis, error)
}
