package consensus

import (
	"testing"

	"github.com/ternarybob/counsel/internal/models"
)

func TestRecalculateStrengthScores(t *testing.T) {
	analyses := []*models.Analysis{
		newAnalysis("a", "7/8", "Good", nil), // 8 positives
		newAnalysis("b", "7/8", "Neutral", map[models.Metric]string{
			models.MetricRevenue:   "Excellent",
			models.MetricNetIncome: "Good",
		}), // 2 positives
		newAnalysis("c", "6/8", "Bad", map[models.Metric]string{
			models.MetricCashFlow: "not enough information",
		}), // 0 positives
	}

	scores := RecalculateStrengthScores(analyses)

	want := []int{8, 2, 0}
	for i := range want {
		if scores[i] != want[i] {
			t.Errorf("scores[%d] = %d, want %d", i, scores[i], want[i])
		}
	}
}

func TestExtendedScore(t *testing.T) {
	ratings := map[models.Metric]string{
		models.MetricRevenue:          "Excellent",
		models.MetricNetIncome:        "Good",
		models.MetricGrossMargin:      "Neutral",
		models.MetricOperationalCosts: "Bad",
		models.MetricCashFlow:         "Horrible",
		models.MetricQuarterlyGrowth:  "Good",
		models.MetricTotalAssets:      "Excellent",
		models.MetricTotalDebt:        "Neutral",
	}

	// 2+1+0-1-2+1+2+0 = 3
	if got := ExtendedScore(ratings); got != 3 {
		t.Errorf("ExtendedScore = %d, want 3", got)
	}
}

func TestExtendedScore_ComplexContributesZero(t *testing.T) {
	ratings := map[models.Metric]string{
		models.MetricRevenue:   "Excellent",
		models.MetricNetIncome: models.RatingComplex,
		models.MetricCashFlow:  models.RatingComplex,
		models.MetricTotalDebt: "Horrible",
	}

	if got := ExtendedScore(ratings); got != 0 {
		t.Errorf("ExtendedScore = %d, want 0 (2-2, COMPLEX ignored)", got)
	}
}

func TestExtendedScore_Bounds(t *testing.T) {
	allExcellent := make(map[models.Metric]string)
	allHorrible := make(map[models.Metric]string)
	for _, m := range models.AllMetrics() {
		allExcellent[m] = "Excellent"
		allHorrible[m] = "Horrible"
	}

	if got := ExtendedScore(allExcellent); got != 16 {
		t.Errorf("all Excellent = %d, want 16", got)
	}
	if got := ExtendedScore(allHorrible); got != -16 {
		t.Errorf("all Horrible = %d, want -16", got)
	}
}

func TestVerdictForScore(t *testing.T) {
	tests := []struct {
		score int
		want  models.Verdict
	}{
		{-16, models.VerdictExtremelyRisky},
		{-11, models.VerdictExtremelyRisky},
		{-10, models.VerdictRisky},
		{-4, models.VerdictRisky},
		{-3, models.VerdictNeutral},
		{0, models.VerdictNeutral},
		{3, models.VerdictNeutral}, // inclusive upper bound
		{4, models.VerdictSafe},
		{10, models.VerdictSafe},
		{11, models.VerdictExtremelySafe},
		{16, models.VerdictExtremelySafe},
	}

	for _, tt := range tests {
		if got := VerdictForScore(tt.score); got != tt.want {
			t.Errorf("VerdictForScore(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}
