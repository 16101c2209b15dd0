// -----------------------------------------------------------------------
// Marker extraction - the pure parsing boundary between free-text debate
// responses and the orchestrator's state machine
// -----------------------------------------------------------------------

package debate

import (
	"regexp"
	"strings"

	"github.com/ternarybob/counsel/internal/models"
)

var (
	updatedRatingPattern = regexp.MustCompile(`(?i)UPDATED\s+RATING:\s*\**\s*([A-Za-z]+)`)
	finalRatingPattern   = regexp.MustCompile(`(?i)FINAL\s+RATING:\s*\**\s*([A-Za-z]+)`)
)

// canonicalRating validates a marker word against the five rating words,
// returning the canonically capitalized value.
func canonicalRating(word string) (models.Rating, bool) {
	for _, r := range models.AllRatings() {
		if strings.EqualFold(word, string(r)) {
			return r, true
		}
	}
	return "", false
}

// ExtractUpdatedRating finds an "UPDATED RATING: <word>" marker in a
// review-round response. ok=false when no marker is present or the word
// is not one of the five canonical ratings; the caller leaves the
// participant's rating unchanged in that case.
func ExtractUpdatedRating(text string) (models.Rating, bool) {
	match := updatedRatingPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return canonicalRating(match[1])
}

// ExtractFinalRating finds a "FINAL RATING: <word>" marker in a
// final-round response. ok=false means the caller falls back to the
// participant's last known rating rather than discarding the vote.
func ExtractFinalRating(text string) (models.Rating, bool) {
	match := finalRatingPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return canonicalRating(match[1])
}

// MajorityRating resolves the final votes of one metric's debate. Votes
// are counted case-insensitively, empty votes excluded. A rating that
// occurs more than once wins, capitalized canonically; otherwise the
// debate is irreconcilable and the COMPLEX sentinel is returned.
func MajorityRating(ratings []string) string {
	counts := make(map[string]int, len(ratings))
	for _, r := range ratings {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == "" {
			continue
		}
		counts[r]++
	}

	for word, count := range counts {
		if count > 1 {
			if canonical, ok := canonicalRating(word); ok {
				return string(canonical)
			}
			// Non-canonical but repeated: capitalize the first letter
			return strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return models.RatingComplex
}
