// -----------------------------------------------------------------------
// Debate orchestrator - multi-round negotiation over disputed metrics.
// Metrics are debated sequentially; within a round the participants are
// invoked in parallel with a join barrier before the next round.
// -----------------------------------------------------------------------

package debate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/counsel/internal/common"
	"github.com/ternarybob/counsel/internal/interfaces"
	"github.com/ternarybob/counsel/internal/models"
	"github.com/ternarybob/counsel/internal/services/consensus"
)

// Orchestrator runs fixed-round debates among the configured participants.
type Orchestrator struct {
	debaters    []interfaces.Debater
	rounds      int
	callTimeout time.Duration
	logger      arbor.ILogger
}

// NewOrchestrator builds a debate orchestrator. rounds is the total round
// count including the opening and final rounds; the protocol requires at
// least 2.
func NewOrchestrator(debaters []interfaces.Debater, rounds int, callTimeout time.Duration, logger arbor.ILogger) (*Orchestrator, error) {
	if len(debaters) == 0 {
		return nil, fmt.Errorf("at least one debate participant is required")
	}
	if rounds < 2 {
		return nil, fmt.Errorf("debate requires at least 2 rounds, got %d", rounds)
	}
	return &Orchestrator{
		debaters:    debaters,
		rounds:      rounds,
		callTimeout: callTimeout,
		logger:      logger,
	}, nil
}

// Run debates every flagged metric to completion, one metric at a time.
// Participant failures become error placeholder transcript entries and
// never abort a round; a metric whose final votes split three ways
// resolves to the COMPLEX sentinel.
func (o *Orchestrator) Run(ctx context.Context, ticker string, metrics []models.Metric, analyses []*models.Analysis) (*models.DebateOutcome, error) {
	outcome := &models.DebateOutcome{
		FinalRatings: make(map[models.Metric]string, len(metrics)),
	}

	for _, metric := range metrics {
		o.logger.Info().
			Str("ticker", ticker).
			Str("metric", string(metric)).
			Int("rounds", o.rounds).
			Msg("Starting metric debate")

		final := o.debateMetric(ctx, ticker, metric, analyses, outcome)
		outcome.FinalRatings[metric] = final

		o.logger.Info().
			Str("ticker", ticker).
			Str("metric", string(metric)).
			Str("result", final).
			Msg("Metric debate resolved")
	}

	// Threads are scoped to this run; release any conversational memory
	// the participants accumulated.
	for _, d := range o.debaters {
		if f, ok := d.(interface{ ForgetAll() }); ok {
			f.ForgetAll()
		}
	}

	return outcome, nil
}

// debateMetric runs the full round sequence for one metric and returns
// its final rating. Transcript entries and position changes are appended
// to the shared outcome.
func (o *Orchestrator) debateMetric(ctx context.Context, ticker string, metric models.Metric, analyses []*models.Analysis, outcome *models.DebateOutcome) string {
	positions := o.seedPositions(ticker, metric, analyses)

	for round := 1; round <= o.rounds; round++ {
		prompts := make([]string, len(positions))
		for i, pos := range positions {
			switch {
			case round == 1:
				prompts[i] = round1Prompt(ticker, metric, pos)
			case round == o.rounds:
				prompts[i] = finalPrompt(ticker, metric, pos)
			default:
				prompts[i] = reviewPrompt(ticker, metric, pos, otherPositions(positions, i))
			}
		}

		responses := o.runRound(ctx, positions, prompts)

		for i, resp := range responses {
			pos := positions[i]
			content := resp.content
			if resp.err != nil {
				content = fmt.Sprintf("[ERROR: participant %s failed: %v]", pos.Participant, resp.err)
				o.logger.Warn().
					Str("metric", string(metric)).
					Str("participant", pos.Participant).
					Int("round", round).
					Err(resp.err).
					Msg("Debate participant call failed, recording placeholder")
			}

			pos.History = append(pos.History, content)
			outcome.Transcript = append(outcome.Transcript, models.TranscriptEntry{
				Round:       round,
				Metric:      metric,
				Participant: pos.Participant,
				Content:     content,
			})

			if resp.err != nil {
				continue
			}

			if round > 1 && round < o.rounds {
				if updated, ok := ExtractUpdatedRating(content); ok && string(updated) != pos.Rating {
					outcome.PositionChanges = append(outcome.PositionChanges, models.PositionChange{
						Participant: pos.Participant,
						Metric:      metric,
						From:        pos.Rating,
						To:          string(updated),
					})
					pos.Rating = string(updated)
				}
			}

			if round == o.rounds {
				// A failed extraction falls back to the last known rating
				// rather than discarding the vote.
				if final, ok := ExtractFinalRating(content); ok {
					pos.Rating = string(final)
				}
			}
		}
	}

	finals := make([]string, len(positions))
	for i, pos := range positions {
		finals[i] = pos.Rating
	}
	return MajorityRating(finals)
}

// seedPositions initializes each participant's stance from the matching
// analyst's harmonized rating and rationale. Thread IDs are scoped to
// (ticker, metric, participant) so sequential metric debates never share
// conversational memory.
func (o *Orchestrator) seedPositions(ticker string, metric models.Metric, analyses []*models.Analysis) []*models.Position {
	debateID := common.NewDebateID(ticker, string(metric))

	positions := make([]*models.Position, len(o.debaters))
	for i, debater := range o.debaters {
		analysis := analysisForParticipant(analyses, debater.Name(), i)

		rating := ""
		reason := ""
		if analysis != nil {
			if parsed, ok := consensus.ParseMetricRating(analysis.Ratings[metric]); ok {
				rating = string(parsed)
			}
			reason = analysis.Reasons[metric]
			if reason == "" {
				reason = analysis.Ratings[metric]
			}
		}

		positions[i] = &models.Position{
			Participant: debater.Name(),
			Rating:      rating,
			Reason:      reason,
			ThreadID:    common.DebateThreadID(debateID, debater.Name()),
		}
	}
	return positions
}

// analysisForParticipant matches a debater to its analyst by name, falling
// back to positional order.
func analysisForParticipant(analyses []*models.Analysis, name string, idx int) *models.Analysis {
	for _, a := range analyses {
		if a.Analyst == name {
			return a
		}
	}
	if idx < len(analyses) {
		return analyses[idx]
	}
	return nil
}

func otherPositions(positions []*models.Position, idx int) []*models.Position {
	others := make([]*models.Position, 0, len(positions)-1)
	for i, pos := range positions {
		if i != idx {
			others = append(others, pos)
		}
	}
	return others
}

type roundResponse struct {
	content string
	err     error
}

// runRound fans the round prompts out to all participants concurrently
// and waits for every call to complete or fail before returning.
func (o *Orchestrator) runRound(ctx context.Context, positions []*models.Position, prompts []string) []roundResponse {
	responses := make([]roundResponse, len(positions))

	var wg sync.WaitGroup
	for i := range positions {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			callCtx := ctx
			if o.callTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, o.callTimeout)
				defer cancel()
			}

			content, err := o.debaters[i].Respond(callCtx, positions[i].ThreadID, prompts[i])
			responses[i] = roundResponse{content: content, err: err}
		}(i)
	}
	wg.Wait()

	return responses
}
