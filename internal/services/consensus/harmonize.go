// -----------------------------------------------------------------------
// Tier harmonizer - collapses same-tier disagreement to the majority
// label and flags cross-tier or Neutral-touched metrics for debate
// -----------------------------------------------------------------------

package consensus

import (
	"fmt"
	"strings"

	"github.com/ternarybob/counsel/internal/models"
)

// harmonizedMarker prefixes the rationale annotation appended when a
// rating is overwritten to the majority label. Checked before appending
// so a second harmonization pass never annotates twice.
const harmonizedMarker = "[Harmonized to majority rating:"

// HarmonizeResult carries the harmonizer's three outputs: the harmonized
// analysis copies, the metrics that need a debate (in canonical metric
// order) and the per-metric record log.
type HarmonizeResult struct {
	Analyses        []*models.Analysis
	MetricsToDebate []models.Metric
	Records         []models.HarmonizationRecord
}

// HarmonizeAndCheckDebates classifies every metric's ratings into tiers
// and resolves or escalates the disagreements:
//
//   - fewer than two non-missing ratings: skipped
//   - all non-missing ratings identical: already aligned
//   - any Neutral rating present: debate (Neutral is definitionally
//     ambiguous and can never be outvoted)
//   - Positive and Negative tiers both present: debate
//   - same tier, different labels: overwrite to the majority label
//
// Majority ties break deterministically by rating severity order
// (Excellent, Good, Neutral, Bad, Horrible). Input analyses are never
// mutated; the returned copies carry the harmonized ratings.
func HarmonizeAndCheckDebates(analyses []*models.Analysis) HarmonizeResult {
	result := HarmonizeResult{
		Analyses: models.CloneAnalyses(analyses),
	}

	for _, metric := range models.AllMetrics() {
		record := models.HarmonizationRecord{
			Metric:   metric,
			Original: make(map[string]string),
		}

		var present []models.Rating
		presentIdx := make([]int, 0, len(result.Analyses))
		for i, a := range result.Analyses {
			rating, ok := ParseMetricRating(a.Ratings[metric])
			if !ok {
				continue
			}
			record.Original[a.Analyst] = string(rating)
			present = append(present, rating)
			presentIdx = append(presentIdx, i)
		}

		if len(present) < 2 {
			record.Action = models.ActionSkipped
			record.Reason = models.ReasonInsufficientData
			result.Records = append(result.Records, record)
			continue
		}

		identical := true
		for _, r := range present[1:] {
			if r != present[0] {
				identical = false
				break
			}
		}
		if identical {
			record.Action = models.ActionAlreadyAligned
			record.Result = string(present[0])
			result.Records = append(result.Records, record)
			continue
		}

		tiers := make(map[models.Tier]bool)
		for _, r := range present {
			tiers[r.Tier()] = true
		}

		switch {
		case tiers[models.TierNeutral]:
			record.Action = models.ActionDebate
			record.Reason = models.ReasonNeutralPresent
			result.MetricsToDebate = append(result.MetricsToDebate, metric)

		case tiers[models.TierPositive] && tiers[models.TierNegative]:
			record.Action = models.ActionDebate
			record.Reason = models.ReasonCrossTierConflict
			result.MetricsToDebate = append(result.MetricsToDebate, metric)

		default:
			majority := MajorityLabel(present)
			for _, i := range presentIdx {
				a := result.Analyses[i]
				a.Ratings[metric] = string(majority)
				if !strings.Contains(a.Reasons[metric], harmonizedMarker) {
					annotation := fmt.Sprintf("%s %s]", harmonizedMarker, majority)
					if a.Reasons[metric] == "" {
						a.Reasons[metric] = annotation
					} else {
						a.Reasons[metric] = a.Reasons[metric] + " " + annotation
					}
				}
			}
			record.Action = models.ActionHarmonized
			record.Result = string(majority)
		}

		result.Records = append(result.Records, record)
	}

	return result
}

// MajorityLabel returns the most frequent rating. Equal counts break by
// canonical severity order, so the result is independent of input order.
func MajorityLabel(ratings []models.Rating) models.Rating {
	counts := make(map[models.Rating]int, len(ratings))
	for _, r := range ratings {
		counts[r]++
	}

	best := models.Rating("")
	bestCount := 0
	for _, candidate := range models.AllRatings() {
		if counts[candidate] > bestCount {
			best = candidate
			bestCount = counts[candidate]
		}
	}
	return best
}
