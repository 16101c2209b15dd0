// -----------------------------------------------------------------------
// Debate artifacts - positions, transcripts and position-change events
// produced by the multi-round debate orchestrator
// -----------------------------------------------------------------------

package models

// Position is one debate participant's current stance on one metric.
// Ephemeral: lives only for the duration of that metric's debate.
type Position struct {
	// Participant is the debater's name
	Participant string `json:"participant"`

	// Rating is the participant's current rating word for the metric
	Rating string `json:"rating"`

	// Reason is the participant's current justification
	Reason string `json:"reason"`

	// History holds the participant's round responses in order, including
	// error placeholders for failed calls
	History []string `json:"history"`

	// ThreadID scopes the participant's conversational memory to
	// (ticker, metric, participant) so sequential metric debates never
	// share context
	ThreadID string `json:"thread_id"`
}

// LastHistory returns up to n most recent history entries, oldest first.
func (p *Position) LastHistory(n int) []string {
	if n <= 0 || len(p.History) == 0 {
		return nil
	}
	if len(p.History) <= n {
		return p.History
	}
	return p.History[len(p.History)-n:]
}

// TranscriptEntry is one participant response in one debate round.
// A failed call still produces an entry holding an error placeholder.
type TranscriptEntry struct {
	// Round is 1-based; the highest round of a metric's entries is the
	// final round
	Round int `json:"round"`

	Metric      Metric `json:"metric"`
	Participant string `json:"participant"`
	Content     string `json:"content"`
}

// PositionChange records a participant changing its stance during a
// review round.
type PositionChange struct {
	Participant string `json:"participant"`
	Metric      Metric `json:"metric"`
	From        string `json:"from"`
	To          string `json:"to"`
}

// DebateOutcome aggregates the results of debating every flagged metric
// in one research session.
type DebateOutcome struct {
	// FinalRatings maps each debated metric to its majority rating, or
	// RatingComplex on a three-way tie
	FinalRatings map[Metric]string `json:"final_ratings"`

	PositionChanges []PositionChange  `json:"position_changes"`
	Transcript      []TranscriptEntry `json:"transcript"`
}
