// -----------------------------------------------------------------------
// Consensus filler - fills a single missing metric when the remaining
// analysts unanimously agree
// -----------------------------------------------------------------------

package consensus

import (
	"fmt"

	"github.com/ternarybob/counsel/internal/models"
)

// FillMissingWithConsensus returns a deep copy of the analyses with single
// missing metrics filled in. A metric is filled only when exactly one
// analyst is missing it and every other analyst's rating normalizes to
// the same canonical word. Two or more missing, or any disagreement among
// the present ratings, and the gap propagates untouched.
func FillMissingWithConsensus(analyses []*models.Analysis) []*models.Analysis {
	filled := models.CloneAnalyses(analyses)

	for _, metric := range models.AllMetrics() {
		missingIdx := -1
		missingCount := 0
		var present []models.Rating

		for i, a := range filled {
			rating, ok := ParseMetricRating(a.Ratings[metric])
			if !ok {
				missingCount++
				missingIdx = i
				continue
			}
			present = append(present, rating)
		}

		if missingCount != 1 || len(present) == 0 {
			continue
		}

		consensus := present[0]
		unanimous := true
		for _, r := range present[1:] {
			if r != consensus {
				unanimous = false
				break
			}
		}
		if !unanimous {
			continue
		}

		filled[missingIdx].Ratings[metric] = string(consensus)
		filled[missingIdx].Reasons[metric] = fmt.Sprintf(
			"Filled by consensus: other analysts unanimously rated %s", consensus)
	}

	return filled
}
