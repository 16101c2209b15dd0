package consensus

import (
	"strings"
	"testing"

	"github.com/ternarybob/counsel/internal/models"
)

func findRecord(records []models.HarmonizationRecord, metric models.Metric) *models.HarmonizationRecord {
	for i := range records {
		if records[i].Metric == metric {
			return &records[i]
		}
	}
	return nil
}

func TestHarmonize_AlreadyAligned(t *testing.T) {
	analyses := []*models.Analysis{
		newAnalysis("a", "7/8", "Good", nil),
		newAnalysis("b", "7/8", "good - steady", nil),
		newAnalysis("c", "6/8", "GOOD overall", nil),
	}

	result := HarmonizeAndCheckDebates(analyses)

	if len(result.MetricsToDebate) != 0 {
		t.Fatalf("MetricsToDebate = %v, want none", result.MetricsToDebate)
	}
	for _, m := range models.AllMetrics() {
		record := findRecord(result.Records, m)
		if record == nil {
			t.Fatalf("no record for %s", m)
		}
		if record.Action != models.ActionAlreadyAligned {
			t.Errorf("%s action = %q, want already_aligned", m, record.Action)
		}
		if record.Result != "Good" {
			t.Errorf("%s result = %q, want Good", m, record.Result)
		}
	}
}

func TestHarmonize_SameTierMajority(t *testing.T) {
	analyses := []*models.Analysis{
		newAnalysis("a", "7/8", "Good", map[models.Metric]string{
			models.MetricRevenue: "Excellent - breakout quarter",
		}),
		newAnalysis("b", "7/8", "Good", map[models.Metric]string{
			models.MetricRevenue: "Excellent momentum",
		}),
		newAnalysis("c", "6/8", "Good", map[models.Metric]string{
			models.MetricRevenue: "Good but decelerating",
		}),
	}

	result := HarmonizeAndCheckDebates(analyses)

	record := findRecord(result.Records, models.MetricRevenue)
	if record.Action != models.ActionHarmonized {
		t.Fatalf("action = %q, want harmonized", record.Action)
	}
	if record.Result != "Excellent" {
		t.Errorf("result = %q, want Excellent", record.Result)
	}
	for i, a := range result.Analyses {
		if a.Ratings[models.MetricRevenue] != "Excellent" {
			t.Errorf("analyses[%d] rating = %q, want Excellent", i, a.Ratings[models.MetricRevenue])
		}
		if !strings.Contains(a.Reasons[models.MetricRevenue], harmonizedMarker) {
			t.Errorf("analyses[%d] rationale missing harmonization annotation", i)
		}
	}

	// Input untouched
	if analyses[2].Ratings[models.MetricRevenue] != "Good but decelerating" {
		t.Errorf("input analysis was mutated")
	}
}

func TestHarmonize_NeutralAlwaysDebates(t *testing.T) {
	// Two identical ratings plus one Neutral still forces a debate.
	analyses := []*models.Analysis{
		newAnalysis("a", "7/8", "Good", map[models.Metric]string{
			models.MetricCashFlow: "Good",
		}),
		newAnalysis("b", "7/8", "Good", map[models.Metric]string{
			models.MetricCashFlow: "Good",
		}),
		newAnalysis("c", "6/8", "Good", map[models.Metric]string{
			models.MetricCashFlow: "Neutral - hard to call",
		}),
	}

	result := HarmonizeAndCheckDebates(analyses)

	record := findRecord(result.Records, models.MetricCashFlow)
	if record.Action != models.ActionDebate {
		t.Fatalf("action = %q, want debate", record.Action)
	}
	if record.Reason != models.ReasonNeutralPresent {
		t.Errorf("reason = %q, want neutral_present", record.Reason)
	}
	if len(result.MetricsToDebate) != 1 || result.MetricsToDebate[0] != models.MetricCashFlow {
		t.Errorf("MetricsToDebate = %v, want [cash_flow]", result.MetricsToDebate)
	}
}

func TestHarmonize_CrossTierDebates(t *testing.T) {
	analyses := []*models.Analysis{
		newAnalysis("a", "7/8", "Good", map[models.Metric]string{
			models.MetricTotalDebt: "Excellent - low leverage",
		}),
		newAnalysis("b", "7/8", "Good", map[models.Metric]string{
			models.MetricTotalDebt: "Bad - covenant pressure",
		}),
		newAnalysis("c", "6/8", "Good", map[models.Metric]string{
			models.MetricTotalDebt: "Good",
		}),
	}

	result := HarmonizeAndCheckDebates(analyses)

	record := findRecord(result.Records, models.MetricTotalDebt)
	if record.Action != models.ActionDebate {
		t.Fatalf("action = %q, want debate", record.Action)
	}
	if record.Reason != models.ReasonCrossTierConflict {
		t.Errorf("reason = %q, want cross_tier_conflict", record.Reason)
	}
}

func TestHarmonize_InsufficientDataSkips(t *testing.T) {
	analyses := []*models.Analysis{
		newAnalysis("a", "7/8", "Good", map[models.Metric]string{
			models.MetricGrossMargin: "not enough information",
		}),
		newAnalysis("b", "7/8", "Good", map[models.Metric]string{
			models.MetricGrossMargin: "",
		}),
		newAnalysis("c", "6/8", "Good", map[models.Metric]string{
			models.MetricGrossMargin: "Good",
		}),
	}

	result := HarmonizeAndCheckDebates(analyses)

	record := findRecord(result.Records, models.MetricGrossMargin)
	if record.Action != models.ActionSkipped {
		t.Fatalf("action = %q, want skipped", record.Action)
	}
	if record.Reason != models.ReasonInsufficientData {
		t.Errorf("reason = %q, want insufficient_data", record.Reason)
	}
	// Single rating left untouched
	if result.Analyses[2].Ratings[models.MetricGrossMargin] != "Good" {
		t.Errorf("skipped metric must not be mutated")
	}
}

func TestHarmonize_Idempotent(t *testing.T) {
	analyses := []*models.Analysis{
		newAnalysis("a", "7/8", "Good", map[models.Metric]string{
			models.MetricRevenue: "Excellent",
		}),
		newAnalysis("b", "7/8", "Good", map[models.Metric]string{
			models.MetricRevenue: "Excellent",
		}),
		newAnalysis("c", "6/8", "Good", map[models.Metric]string{
			models.MetricRevenue: "Good",
		}),
	}

	first := HarmonizeAndCheckDebates(analyses)
	second := HarmonizeAndCheckDebates(first.Analyses)

	record := findRecord(second.Records, models.MetricRevenue)
	if record.Action != models.ActionAlreadyAligned {
		t.Errorf("second pass action = %q, want already_aligned", record.Action)
	}
	if len(second.MetricsToDebate) != 0 {
		t.Errorf("second pass flagged %v for debate", second.MetricsToDebate)
	}
	for i, a := range second.Analyses {
		if n := strings.Count(a.Reasons[models.MetricRevenue], harmonizedMarker); n > 1 {
			t.Errorf("analyses[%d] annotated %d times, want at most once", i, n)
		}
	}
}

func TestMajorityLabel(t *testing.T) {
	tests := []struct {
		name    string
		ratings []models.Rating
		want    models.Rating
	}{
		{"two to one", []models.Rating{models.RatingGood, models.RatingGood, models.RatingExcellent}, models.RatingGood},
		{"reversed order same result", []models.Rating{models.RatingExcellent, models.RatingGood, models.RatingGood}, models.RatingGood},
		{"tie breaks by severity order", []models.Rating{models.RatingGood, models.RatingExcellent}, models.RatingExcellent},
		{"negative tie", []models.Rating{models.RatingHorrible, models.RatingBad}, models.RatingBad},
		{"unanimous", []models.Rating{models.RatingBad, models.RatingBad}, models.RatingBad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MajorityLabel(tt.ratings); got != tt.want {
				t.Errorf("MajorityLabel(%v) = %q, want %q", tt.ratings, got, tt.want)
			}
		})
	}
}
