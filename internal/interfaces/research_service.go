package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/counsel/internal/models"
)

// ErrAllAnalystsFailed is returned when no configured analyst produced a
// usable analysis for the ticker
var ErrAllAnalystsFailed = errors.New("all analysts failed")

// ResearchService runs the full consensus pipeline for one ticker:
// analyst fan-out, agreement diagnostics, consensus fill, tier
// harmonization, metric debates and final scoring.
type ResearchService interface {
	// Research invokes the configured analysts concurrently and runs the
	// pipeline over their analyses. At least one analyst must succeed.
	Research(ctx context.Context, ticker string) (*models.ConsensusResult, error)

	// ResearchWithAnalyses runs the pipeline over already-collected analyses,
	// skipping the analyst fan-out. Used for replays and tests.
	ResearchWithAnalyses(ctx context.Context, ticker string, analyses []*models.Analysis) (*models.ConsensusResult, error)
}
