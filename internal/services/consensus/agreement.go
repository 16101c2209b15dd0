// -----------------------------------------------------------------------
// Agreement analyzer - composite score spread and per-metric divergence
// -----------------------------------------------------------------------

package consensus

import (
	"github.com/ternarybob/counsel/internal/models"
)

// CalculateAgreement computes the spread between the analysts' composite
// scores and flags metrics where parsed ratings diverge by two or more
// points. The returned DebateLevel is diagnostic only; whether a debate
// actually runs is decided by the tier harmonizer.
func CalculateAgreement(analyses []*models.Analysis) models.AgreementInfo {
	info := models.AgreementInfo{
		DebateLevel: models.DebateLevelNone,
	}

	for _, a := range analyses {
		score, ok := ParseStrengthScore(a.FinancialStrength)
		if !ok {
			info.MissingData = true
			continue
		}
		info.Scores = append(info.Scores, score)
	}

	if len(info.Scores) >= 2 {
		minScore, maxScore := info.Scores[0], info.Scores[0]
		for _, s := range info.Scores[1:] {
			if s < minScore {
				minScore = s
			}
			if s > maxScore {
				maxScore = s
			}
		}
		info.ScoreSpread = maxScore - minScore
	} else {
		info.MissingData = true
	}

	switch {
	case info.ScoreSpread > 2:
		info.DebateLevel = models.DebateLevelLarge
	case info.ScoreSpread == 2:
		info.DebateLevel = models.DebateLevelSmall
	default:
		info.DebateLevel = models.DebateLevelNone
	}

	for _, metric := range models.AllMetrics() {
		var values []int
		for _, a := range analyses {
			if rating, ok := ParseMetricRating(a.Ratings[metric]); ok {
				values = append(values, rating.Value())
			}
		}
		if len(values) < 2 {
			continue
		}
		minVal, maxVal := values[0], values[0]
		for _, v := range values[1:] {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
		if maxVal-minVal >= 2 {
			info.MetricDisagreements = append(info.MetricDisagreements, metric)
		}
	}

	return info
}
