// -----------------------------------------------------------------------
// Consensus report builder - renders an archived research session as
// markdown, the input format for PDF generation
// -----------------------------------------------------------------------

package reports

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/counsel/internal/models"
)

// BuildMarkdown renders a research session as a markdown report. The
// report always shows original versus final ratings per metric, and
// COMPLEX metrics are surfaced in their own section so an unresolved
// debate is never hidden.
func BuildMarkdown(session *models.ResearchSession) string {
	var b strings.Builder

	result := session.Result

	fmt.Fprintf(&b, "# Consensus Report: %s\n\n", tickerLabel(session))
	fmt.Fprintf(&b, "Session `%s`, %s\n\n", session.ID, session.CreatedAt.Format("2 Jan 2006 15:04 MST"))

	if result != nil {
		fmt.Fprintf(&b, "## Verdict: %s\n\n", result.Verdict)
		fmt.Fprintf(&b, "Extended consensus score: **%+d** (range -16 to +16)\n\n", result.ExtendedScore)

		if len(result.StrengthScores) > 0 {
			scores := make([]string, len(result.StrengthScores))
			for i, s := range result.StrengthScores {
				scores[i] = fmt.Sprintf("%d/8", s)
			}
			fmt.Fprintf(&b, "Analyst strength scores after harmonization: %s\n\n", strings.Join(scores, ", "))
		}
	}

	writeMetricTable(&b, session)
	writeComplexSection(&b, result)
	writeDebateSection(&b, session)
	writeAgreementSection(&b, session)
	writeAnalystSummaries(&b, session)

	return b.String()
}

func tickerLabel(session *models.ResearchSession) string {
	if session.Result != nil && session.Result.Ticker != "" {
		return session.Result.Ticker
	}
	return session.Ticker
}

// writeMetricTable emits the per-metric original/final rating table. One
// column per analyst, in the order the analyses were collected.
func writeMetricTable(b *strings.Builder, session *models.ResearchSession) {
	fmt.Fprintf(b, "## Metric Ratings\n\n")

	analysts := make([]string, 0, len(session.Analyses))
	for _, a := range session.Analyses {
		analysts = append(analysts, a.Analyst)
	}

	originals := make(map[models.Metric]map[string]string, len(session.Harmonization))
	actions := make(map[models.Metric]models.HarmonizationAction, len(session.Harmonization))
	for _, record := range session.Harmonization {
		originals[record.Metric] = record.Original
		actions[record.Metric] = record.Action
	}

	fmt.Fprintf(b, "| Metric |")
	for _, name := range analysts {
		fmt.Fprintf(b, " %s |", name)
	}
	fmt.Fprintf(b, " Final | Resolution |\n")

	fmt.Fprintf(b, "| --- |")
	for range analysts {
		fmt.Fprintf(b, " --- |")
	}
	fmt.Fprintf(b, " --- | --- |\n")

	for _, metric := range models.AllMetrics() {
		fmt.Fprintf(b, "| %s |", metric)
		for _, name := range analysts {
			rating := ""
			if m, ok := originals[metric]; ok {
				rating = m[name]
			}
			if rating == "" {
				rating = "-"
			}
			fmt.Fprintf(b, " %s |", rating)
		}

		final := "-"
		if session.Result != nil {
			if r, ok := session.Result.FinalRatings[metric]; ok {
				final = r
			}
		}
		if final == models.RatingComplex {
			final = "**COMPLEX**"
		}
		fmt.Fprintf(b, " %s | %s |\n", final, resolutionLabel(actions[metric]))
	}
	fmt.Fprintf(b, "\n")
}

func resolutionLabel(action models.HarmonizationAction) string {
	switch action {
	case models.ActionAlreadyAligned:
		return "aligned"
	case models.ActionHarmonized:
		return "harmonized"
	case models.ActionDebate:
		return "debated"
	case models.ActionSkipped:
		return "insufficient data"
	default:
		return "-"
	}
}

func writeComplexSection(b *strings.Builder, result *models.ConsensusResult) {
	if result == nil || len(result.ComplexMetrics) == 0 {
		return
	}

	fmt.Fprintf(b, "## Unresolved Metrics\n\n")
	fmt.Fprintf(b, "The debate could not produce a majority on the following metrics. They require human review and contribute nothing to the extended score.\n\n")
	for _, metric := range result.ComplexMetrics {
		fmt.Fprintf(b, "- %s\n", metric)
	}
	fmt.Fprintf(b, "\n")
}

func writeDebateSection(b *strings.Builder, session *models.ResearchSession) {
	if len(session.Transcript) == 0 {
		return
	}

	fmt.Fprintf(b, "## Debate\n\n")

	if len(session.PositionChanges) > 0 {
		fmt.Fprintf(b, "Position changes during review rounds:\n\n")
		for _, change := range session.PositionChanges {
			fmt.Fprintf(b, "- %s on %s: %s to %s\n", change.Participant, change.Metric, change.From, change.To)
		}
		fmt.Fprintf(b, "\n")
	}

	byMetric := make(map[models.Metric][]models.TranscriptEntry)
	for _, entry := range session.Transcript {
		byMetric[entry.Metric] = append(byMetric[entry.Metric], entry)
	}

	metrics := make([]models.Metric, 0, len(byMetric))
	for metric := range byMetric {
		metrics = append(metrics, metric)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i] < metrics[j] })

	for _, metric := range metrics {
		fmt.Fprintf(b, "### %s\n\n", metric)
		for _, entry := range byMetric[metric] {
			fmt.Fprintf(b, "**Round %d, %s:** %s\n\n", entry.Round, entry.Participant, entry.Content)
		}
	}
}

func writeAgreementSection(b *strings.Builder, session *models.ResearchSession) {
	fmt.Fprintf(b, "## Initial Agreement\n\n")
	fmt.Fprintf(b, "Score spread: %d (%s)\n\n", session.Agreement.ScoreSpread, session.Agreement.DebateLevel)

	if session.Agreement.MissingData {
		fmt.Fprintf(b, "Some analysts did not report a parseable strength score.\n\n")
	}
	if len(session.Agreement.MetricDisagreements) > 0 {
		names := make([]string, len(session.Agreement.MetricDisagreements))
		for i, m := range session.Agreement.MetricDisagreements {
			names[i] = string(m)
		}
		fmt.Fprintf(b, "Metrics with a two-step or wider rating gap: %s\n\n", strings.Join(names, ", "))
	}
}

func writeAnalystSummaries(b *strings.Builder, session *models.ResearchSession) {
	wrote := false
	for _, a := range session.Analyses {
		if a.Summary == "" {
			continue
		}
		if !wrote {
			fmt.Fprintf(b, "## Analyst Summaries\n\n")
			wrote = true
		}
		fmt.Fprintf(b, "### %s\n\n%s\n\n", a.Analyst, a.Summary)
	}
}
