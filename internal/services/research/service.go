// -----------------------------------------------------------------------
// Research service - the full consensus pipeline for one ticker.
// Analyst fan-out, agreement diagnostics, consensus fill, tier
// harmonization, metric debates, scoring and archival.
// -----------------------------------------------------------------------

package research

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/counsel/internal/common"
	"github.com/ternarybob/counsel/internal/interfaces"
	"github.com/ternarybob/counsel/internal/models"
	"github.com/ternarybob/counsel/internal/services/consensus"
	"github.com/ternarybob/counsel/internal/services/debate"
)

// Service implements ResearchService over a set of analysts and a debate
// orchestrator. The event bus and the archive are optional; a nil archive
// means sessions are not persisted.
type Service struct {
	analysts     []interfaces.Analyst
	orchestrator *debate.Orchestrator
	events       interfaces.EventService
	archive      interfaces.ArchiveService
	logger       arbor.ILogger
}

var _ interfaces.ResearchService = (*Service)(nil)

// NewService creates a research service. At least one analyst and the
// debate orchestrator are required.
func NewService(
	analysts []interfaces.Analyst,
	orchestrator *debate.Orchestrator,
	events interfaces.EventService,
	archive interfaces.ArchiveService,
	logger arbor.ILogger,
) (*Service, error) {
	if len(analysts) == 0 {
		return nil, fmt.Errorf("at least one analyst is required")
	}
	if orchestrator == nil {
		return nil, fmt.Errorf("debate orchestrator is required")
	}
	return &Service{
		analysts:     analysts,
		orchestrator: orchestrator,
		events:       events,
		archive:      archive,
		logger:       logger,
	}, nil
}

// Research invokes every configured analyst concurrently, then runs the
// pipeline over whichever analyses came back. Individual analyst failures
// are logged and tolerated; only a total failure aborts the session.
func (s *Service) Research(ctx context.Context, ticker string) (*models.ConsensusResult, error) {
	parsed := common.ParseTicker(ticker)
	if parsed.Code == "" {
		return nil, fmt.Errorf("invalid ticker: %q", ticker)
	}
	qualified := parsed.String()

	s.publish(ctx, interfaces.Event{
		Type:    interfaces.EventResearchStarted,
		Message: fmt.Sprintf("Research started for %s", qualified),
		Payload: map[string]interface{}{"ticker": qualified},
	})

	analyses := s.collectAnalyses(ctx, qualified)
	if len(analyses) == 0 {
		return nil, interfaces.ErrAllAnalystsFailed
	}

	return s.runPipeline(ctx, parsed, analyses)
}

// ResearchWithAnalyses runs the pipeline over already-collected analyses,
// skipping the analyst fan-out.
func (s *Service) ResearchWithAnalyses(ctx context.Context, ticker string, analyses []*models.Analysis) (*models.ConsensusResult, error) {
	parsed := common.ParseTicker(ticker)
	if parsed.Code == "" {
		return nil, fmt.Errorf("invalid ticker: %q", ticker)
	}
	if len(analyses) == 0 {
		return nil, interfaces.ErrAllAnalystsFailed
	}
	return s.runPipeline(ctx, parsed, analyses)
}

// collectAnalyses fans out to all analysts in parallel and returns the
// successful analyses in analyst order.
func (s *Service) collectAnalyses(ctx context.Context, ticker string) []*models.Analysis {
	results := make([]*models.Analysis, len(s.analysts))

	var wg sync.WaitGroup
	for i, analyst := range s.analysts {
		wg.Add(1)
		go func(i int, analyst interfaces.Analyst) {
			defer wg.Done()

			analysis, err := analyst.Analyze(ctx, ticker, "")
			if err != nil {
				s.logger.Warn().
					Str("ticker", ticker).
					Str("analyst", analyst.Name()).
					Err(err).
					Msg("Analyst failed, continuing with remaining analysts")
				return
			}
			results[i] = analysis

			s.publish(ctx, interfaces.Event{
				Type:    interfaces.EventAnalystCompleted,
				Message: fmt.Sprintf("Analyst %s completed assessment of %s", analyst.Name(), ticker),
				Payload: map[string]interface{}{"ticker": ticker, "analyst": analyst.Name()},
			})
		}(i, analyst)
	}
	wg.Wait()

	analyses := make([]*models.Analysis, 0, len(results))
	for _, a := range results {
		if a != nil {
			analyses = append(analyses, a)
		}
	}
	return analyses
}

// runPipeline executes the consensus stages over the collected analyses
// and archives the session.
func (s *Service) runPipeline(ctx context.Context, ticker common.Ticker, analyses []*models.Analysis) (*models.ConsensusResult, error) {
	sessionID := common.NewSessionID()
	qualified := ticker.String()

	s.logger.Info().
		Str("session_id", sessionID).
		Str("ticker", qualified).
		Int("analysts", len(analyses)).
		Msg("Running consensus pipeline")

	agreement := consensus.CalculateAgreement(analyses)

	filled := consensus.FillMissingWithConsensus(analyses)

	harmonized := consensus.HarmonizeAndCheckDebates(filled)

	var outcome *models.DebateOutcome
	if len(harmonized.MetricsToDebate) > 0 {
		s.publish(ctx, interfaces.Event{
			Type:    interfaces.EventDebateTriggered,
			Message: fmt.Sprintf("Debate triggered on: %s", joinMetrics(harmonized.MetricsToDebate)),
			Payload: map[string]interface{}{"ticker": qualified, "metrics": harmonized.MetricsToDebate},
		})

		var err error
		outcome, err = s.orchestrator.Run(ctx, qualified, harmonized.MetricsToDebate, harmonized.Analyses)
		if err != nil {
			return nil, fmt.Errorf("debate failed for %s: %w", qualified, err)
		}

		s.publish(ctx, interfaces.Event{
			Type:    interfaces.EventDebateResolved,
			Message: fmt.Sprintf("Debates resolved for %s", qualified),
			Payload: map[string]interface{}{"ticker": qualified},
		})
	}

	result := s.assembleResult(sessionID, qualified, harmonized, outcome)

	s.archiveSession(ticker, sessionID, analyses, agreement, harmonized, outcome, result)

	s.publish(ctx, interfaces.Event{
		Type:    interfaces.EventResearchCompleted,
		Message: fmt.Sprintf("Research completed for %s: %s (score %+d)", qualified, result.Verdict, result.ExtendedScore),
		Payload: map[string]interface{}{"ticker": qualified, "session_id": sessionID},
	})

	return result, nil
}

// assembleResult merges harmonization records and debate outcomes into
// final per-metric ratings and computes the session scores.
func (s *Service) assembleResult(sessionID, ticker string, harmonized consensus.HarmonizeResult, outcome *models.DebateOutcome) *models.ConsensusResult {
	finalRatings := make(map[models.Metric]string)
	for _, record := range harmonized.Records {
		if record.Result != "" {
			finalRatings[record.Metric] = record.Result
		}
	}
	if outcome != nil {
		for metric, rating := range outcome.FinalRatings {
			finalRatings[metric] = rating
		}
	}

	// Debated resolutions feed back into the analyses so the recalculated
	// strength scores reflect the post-debate state. COMPLEX will not
	// parse as a rating and so never counts toward a score.
	if outcome != nil {
		for metric, rating := range outcome.FinalRatings {
			for _, a := range harmonized.Analyses {
				a.Ratings[metric] = rating
			}
		}
	}

	var complexMetrics []models.Metric
	for _, metric := range models.AllMetrics() {
		if finalRatings[metric] == models.RatingComplex {
			complexMetrics = append(complexMetrics, metric)
		}
	}

	extendedScore := consensus.ExtendedScore(finalRatings)

	return &models.ConsensusResult{
		SessionID:      sessionID,
		Ticker:         ticker,
		FinalRatings:   finalRatings,
		StrengthScores: consensus.RecalculateStrengthScores(harmonized.Analyses),
		ExtendedScore:  extendedScore,
		Verdict:        consensus.VerdictForScore(extendedScore),
		ComplexMetrics: complexMetrics,
		CreatedAt:      time.Now(),
	}
}

// archiveSession persists the full session record in the background. The
// research result is already final; an archive failure is logged, never
// surfaced.
func (s *Service) archiveSession(
	ticker common.Ticker,
	sessionID string,
	analyses []*models.Analysis,
	agreement models.AgreementInfo,
	harmonized consensus.HarmonizeResult,
	outcome *models.DebateOutcome,
	result *models.ConsensusResult,
) {
	if s.archive == nil {
		return
	}

	session := &models.ResearchSession{
		ID:            sessionID,
		Ticker:        ticker.SessionKey(),
		CreatedAt:     time.Now(),
		Analyses:      models.CloneAnalyses(analyses),
		Agreement:     agreement,
		Harmonization: harmonized.Records,
		Result:        result,
	}
	if outcome != nil {
		session.Transcript = outcome.Transcript
		session.PositionChanges = outcome.PositionChanges
	}

	common.SafeGo(s.logger, "archiveSession:"+sessionID, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.archive.SaveSession(ctx, session); err != nil {
			s.logger.Warn().
				Str("session_id", sessionID).
				Err(err).
				Msg("Failed to archive research session")
		}
	})
}

// publish sends an event if a bus is wired, logging delivery problems.
func (s *Service) publish(ctx context.Context, event interfaces.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn().Str("event", string(event.Type)).Err(err).Msg("Failed to publish event")
	}
}

func joinMetrics(metrics []models.Metric) string {
	names := make([]string, len(metrics))
	for i, m := range metrics {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}
