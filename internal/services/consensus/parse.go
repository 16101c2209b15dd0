// -----------------------------------------------------------------------
// Rating parser - canonical ratings and composite scores from analyst text
// -----------------------------------------------------------------------

package consensus

import (
	"regexp"
	"strings"

	"github.com/ternarybob/counsel/internal/models"
)

// notEnoughInfoMarker is the authoritative missing-data phrase. Its
// presence anywhere in a rating or score string makes the field missing,
// regardless of what the first token looks like.
const notEnoughInfoMarker = "not enough information"

var ratingTable = map[string]models.Rating{
	"excellent": models.RatingExcellent,
	"good":      models.RatingGood,
	"neutral":   models.RatingNeutral,
	"bad":       models.RatingBad,
	"horrible":  models.RatingHorrible,
}

// strengthScorePattern matches a single digit immediately followed by "/8".
// Any matched digit is accepted as-is, without range validation.
var strengthScorePattern = regexp.MustCompile(`(\d)/8`)

// firstToken returns the first whitespace-delimited token of text with
// trailing punctuation stripped, so "Excellent - revenue grew" and
// "Good, stable margins" both parse.
func firstToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimRight(fields[0], ".,:;!-")
}

// ParseMetricRating maps a free-text rating to its canonical value.
// Returns ok=false (the missing state) when the text is empty, contains
// the "not enough information" marker, or its first token is not one of
// the five rating words. Missing is a distinct state, never Neutral.
func ParseMetricRating(text string) (models.Rating, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if strings.Contains(strings.ToLower(text), notEnoughInfoMarker) {
		return "", false
	}
	rating, ok := ratingTable[strings.ToLower(firstToken(text))]
	if !ok {
		return "", false
	}
	return rating, true
}

// ParseStrengthScore extracts the composite score digit from "X/8" text.
// Returns ok=false when the pattern is absent or the missing-data marker
// is present.
func ParseStrengthScore(text string) (int, bool) {
	if strings.TrimSpace(text) == "" {
		return 0, false
	}
	if strings.Contains(strings.ToLower(text), notEnoughInfoMarker) {
		return 0, false
	}
	match := strengthScorePattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	return int(match[1][0] - '0'), true
}
