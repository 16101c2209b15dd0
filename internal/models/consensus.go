// -----------------------------------------------------------------------
// Consensus artifacts - agreement diagnostics, harmonization records and
// the final per-session consensus result
// -----------------------------------------------------------------------

package models

import "time"

// DebateLevel classifies the spread between analysts' composite scores.
// Diagnostic only - the harmonizer, not this level, decides whether a
// debate actually runs.
type DebateLevel string

const (
	DebateLevelNone  DebateLevel = "none"  // spread < 2
	DebateLevelSmall DebateLevel = "small" // spread == 2
	DebateLevelLarge DebateLevel = "large" // spread > 2
)

// AgreementInfo summarizes how closely the analysts agree before any
// harmonization runs.
type AgreementInfo struct {
	// DebateLevel is the diagnostic classification of the score spread
	DebateLevel DebateLevel `json:"debate_level"`

	// ScoreSpread is max-min over the parsed composite scores
	ScoreSpread int `json:"score_spread"`

	// Scores lists the composite scores that parsed, in analyst order
	Scores []int `json:"scores"`

	// MetricDisagreements lists metrics whose parsed ratings differ by 2+
	MetricDisagreements []Metric `json:"metric_disagreements"`

	// MissingData is true when any analyst's composite score failed to parse
	MissingData bool `json:"missing_data"`
}

// HarmonizationAction records what the tier harmonizer did with a metric.
type HarmonizationAction string

const (
	// ActionAlreadyAligned - all non-missing ratings were identical
	ActionAlreadyAligned HarmonizationAction = "already_aligned"

	// ActionHarmonized - same-tier disagreement collapsed to the majority label
	ActionHarmonized HarmonizationAction = "harmonized"

	// ActionDebate - the metric was flagged for multi-round debate
	ActionDebate HarmonizationAction = "debate"

	// ActionSkipped - fewer than two non-missing ratings
	ActionSkipped HarmonizationAction = "skipped"
)

// Debate reasons recorded on HarmonizationRecord.
const (
	ReasonInsufficientData  = "insufficient_data"
	ReasonNeutralPresent    = "neutral_present"
	ReasonCrossTierConflict = "cross_tier_conflict"
)

// HarmonizationRecord is one entry per metric per harmonization pass.
// Created once per research session and handed to the archive; never
// mutated afterwards.
type HarmonizationRecord struct {
	Metric Metric              `json:"metric"`
	Action HarmonizationAction `json:"action"`

	// Original maps analyst name to the rating word seen before harmonization
	Original map[string]string `json:"original,omitempty"`

	// Result is the majority label for harmonized metrics, or the shared
	// value for already-aligned ones
	Result string `json:"result,omitempty"`

	// Reason explains skipped/debate actions
	Reason string `json:"reason,omitempty"`
}

// Verdict is the human-facing label for the extended consensus score.
type Verdict string

const (
	VerdictExtremelyRisky Verdict = "Extremely Risky" // score <= -11
	VerdictRisky          Verdict = "Risky"           // score <= -4
	VerdictNeutral        Verdict = "Neutral"         // score <= 3
	VerdictSafe           Verdict = "Safe"            // score <= 10
	VerdictExtremelySafe  Verdict = "Extremely Safe"  // score > 10
)

// ConsensusResult is the final output of one ticker research session.
type ConsensusResult struct {
	// SessionID identifies the research session that produced this result
	SessionID string `json:"session_id"`

	// Ticker is the exchange-qualified ticker researched
	Ticker string `json:"ticker"`

	// FinalRatings holds the post-debate rating word per metric. A metric
	// the debate could not resolve carries RatingComplex.
	FinalRatings map[Metric]string `json:"final_ratings"`

	// StrengthScores holds each analyst's recalculated 0-8 composite score
	// after harmonization and debate
	StrengthScores []int `json:"strength_scores"`

	// ExtendedScore is the weighted sum over final ratings, range -16..+16
	ExtendedScore int `json:"extended_score"`

	// Verdict is the label mapped from ExtendedScore
	Verdict Verdict `json:"verdict"`

	// ComplexMetrics lists metrics that ended COMPLEX, surfaced distinctly
	// so they are never hidden from the report
	ComplexMetrics []Metric `json:"complex_metrics,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// ResearchSession is the archived record of one full research run:
// inputs, intermediate artifacts and the final result. Written once by
// the research service and read by reporting.
type ResearchSession struct {
	ID        string    `json:"id" badgerhold:"key"`
	Ticker    string    `json:"ticker" badgerholdIndex:"Ticker"`
	CreatedAt time.Time `json:"created_at"`

	// Analyses are the raw analyst assessments as received (pre-fill)
	Analyses []*Analysis `json:"analyses"`

	Agreement       AgreementInfo         `json:"agreement"`
	Harmonization   []HarmonizationRecord `json:"harmonization"`
	Transcript      []TranscriptEntry     `json:"transcript,omitempty"`
	PositionChanges []PositionChange      `json:"position_changes,omitempty"`
	Result          *ConsensusResult      `json:"result,omitempty"`
}
