// -----------------------------------------------------------------------
// Debate prompt templates
// -----------------------------------------------------------------------

package debate

import (
	"fmt"
	"strings"

	"github.com/ternarybob/counsel/internal/models"
)

const (
	// excerptLimit bounds the "latest argument" shown from other
	// participants in review rounds
	excerptLimit = 300

	// historyLimit bounds each history entry shown in the final round
	historyLimit = 200
)

// truncate cuts text to at most limit characters.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}

// round1Prompt asks a participant to state its opening position.
func round1Prompt(ticker string, metric models.Metric, pos *models.Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are participating in a debate about the %s metric for %s.\n\n", metric, ticker)
	fmt.Fprintf(&b, "Your current rating: %s\n", pos.Rating)
	fmt.Fprintf(&b, "Your reasoning: %s\n\n", pos.Reason)
	b.WriteString("State your position on this metric and defend your rating. ")
	b.WriteString("Be specific about the financial evidence that supports it.")
	return b.String()
}

// reviewPrompt shows a participant the other positions and invites a
// rating change via the "UPDATED RATING:" marker.
func reviewPrompt(ticker string, metric models.Metric, pos *models.Position, others []*models.Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debate on the %s metric for %s continues.\n\n", metric, ticker)
	fmt.Fprintf(&b, "Your current rating: %s\n", pos.Rating)
	fmt.Fprintf(&b, "Your reasoning: %s\n\n", pos.Reason)
	b.WriteString("The other participants' positions:\n")
	for _, other := range others {
		fmt.Fprintf(&b, "\n%s rates it %s.\nReasoning: %s\n", other.Participant, other.Rating, other.Reason)
		if len(other.History) > 0 {
			latest := other.History[len(other.History)-1]
			fmt.Fprintf(&b, "Latest argument: %s\n", truncate(latest, excerptLimit))
		}
	}
	b.WriteString("\nConsider their arguments. If you are persuaded to change your rating, ")
	b.WriteString("reply with \"UPDATED RATING: <Excellent|Good|Neutral|Bad|Horrible>\" ")
	b.WriteString("followed by your reasoning. Otherwise defend your current rating.")
	return b.String()
}

// finalPrompt asks a participant to commit to a final stance via the
// "FINAL RATING:" marker.
func finalPrompt(ticker string, metric models.Metric, pos *models.Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The debate on the %s metric for %s is closing.\n\n", metric, ticker)
	fmt.Fprintf(&b, "Your current rating: %s\n", pos.Rating)

	if history := pos.LastHistory(2); len(history) > 0 {
		b.WriteString("\nYour recent statements:\n")
		for _, entry := range history {
			fmt.Fprintf(&b, "- %s\n", truncate(entry, historyLimit))
		}
	}

	b.WriteString("\nCommit to your final stance. Reply with ")
	b.WriteString("\"FINAL RATING: <Excellent|Good|Neutral|Bad|Horrible>\" ")
	b.WriteString("followed by a one-sentence justification.")
	return b.String()
}
