// -----------------------------------------------------------------------
// Score recalculator and verdict mapper
// -----------------------------------------------------------------------

package consensus

import (
	"github.com/ternarybob/counsel/internal/models"
)

// RecalculateStrengthScores recomputes each analyst's 0-8 composite score
// by counting metrics rated Good or Excellent after harmonization and
// debate. Returned in analyst order.
func RecalculateStrengthScores(analyses []*models.Analysis) []int {
	scores := make([]int, len(analyses))
	for i, a := range analyses {
		for _, metric := range models.AllMetrics() {
			rating, ok := ParseMetricRating(a.Ratings[metric])
			if !ok {
				continue
			}
			if rating == models.RatingGood || rating == models.RatingExcellent {
				scores[i]++
			}
		}
	}
	return scores
}

// extendedWeights maps each final rating to its contribution to the
// extended consensus score. COMPLEX and missing metrics contribute 0.
var extendedWeights = map[models.Rating]int{
	models.RatingExcellent: 2,
	models.RatingGood:      1,
	models.RatingNeutral:   0,
	models.RatingBad:       -1,
	models.RatingHorrible:  -2,
}

// ExtendedScore sums the weighted final ratings over the eight metrics,
// range -16..+16.
func ExtendedScore(finalRatings map[models.Metric]string) int {
	score := 0
	for _, metric := range models.AllMetrics() {
		text, ok := finalRatings[metric]
		if !ok || text == models.RatingComplex {
			continue
		}
		if rating, ok := ParseMetricRating(text); ok {
			score += extendedWeights[rating]
		}
	}
	return score
}

// VerdictForScore maps an extended score to its verdict label. Thresholds
// are inclusive upper bounds and fixed design constants.
func VerdictForScore(score int) models.Verdict {
	switch {
	case score <= -11:
		return models.VerdictExtremelyRisky
	case score <= -4:
		return models.VerdictRisky
	case score <= 3:
		return models.VerdictNeutral
	case score <= 10:
		return models.VerdictSafe
	default:
		return models.VerdictExtremelySafe
	}
}
