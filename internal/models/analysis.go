// -----------------------------------------------------------------------
// Analysis - One analyst's full assessment of a ticker
// Eight fixed financial metrics rated on a five-point ordinal scale
// -----------------------------------------------------------------------

package models

// Metric identifies one of the eight financial dimensions every analyst
// rates. The set is closed and known at design time.
type Metric string

const (
	MetricRevenue          Metric = "revenue"
	MetricNetIncome        Metric = "net_income"
	MetricGrossMargin      Metric = "gross_margin"
	MetricOperationalCosts Metric = "operational_costs"
	MetricCashFlow         Metric = "cash_flow"
	MetricQuarterlyGrowth  Metric = "quarterly_growth"
	MetricTotalAssets      Metric = "total_assets"
	MetricTotalDebt        Metric = "total_debt"
)

// AllMetrics returns the fixed metric set in canonical enumeration order.
// Harmonization and scoring iterate in this order so records and debates
// are deterministic run to run.
func AllMetrics() []Metric {
	return []Metric{
		MetricRevenue,
		MetricNetIncome,
		MetricGrossMargin,
		MetricOperationalCosts,
		MetricCashFlow,
		MetricQuarterlyGrowth,
		MetricTotalAssets,
		MetricTotalDebt,
	}
}

// Rating is a canonical ordinal rating word.
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingNeutral   Rating = "Neutral"
	RatingBad       Rating = "Bad"
	RatingHorrible  Rating = "Horrible"
)

// RatingComplex is the sentinel final rating for a metric where debate
// ended in a three-way tie. It is a terminal classification requiring
// human review, not an error and never retried.
const RatingComplex = "COMPLEX"

// AllRatings returns the five canonical ratings in severity order,
// best first. This order is also the deterministic tie-break order used
// by the harmonizer.
func AllRatings() []Rating {
	return []Rating{RatingExcellent, RatingGood, RatingNeutral, RatingBad, RatingHorrible}
}

// Value returns the numeric ordinal for a rating (Excellent=5 .. Horrible=1),
// or 0 for an unrecognized value.
func (r Rating) Value() int {
	switch r {
	case RatingExcellent:
		return 5
	case RatingGood:
		return 4
	case RatingNeutral:
		return 3
	case RatingBad:
		return 2
	case RatingHorrible:
		return 1
	default:
		return 0
	}
}

// Tier groups ratings for harmonization purposes. Neutral is its own
// singleton tier and is always treated as ambiguous.
type Tier string

const (
	TierPositive Tier = "positive" // Excellent, Good
	TierNegative Tier = "negative" // Bad, Horrible
	TierNeutral  Tier = "neutral"  // Neutral only
)

// Tier returns the harmonization tier for a rating. Unrecognized ratings
// map to TierNeutral so they can never be silently outvoted.
func (r Rating) Tier() Tier {
	switch r {
	case RatingExcellent, RatingGood:
		return TierPositive
	case RatingBad, RatingHorrible:
		return TierNegative
	default:
		return TierNeutral
	}
}

// Analysis is one analyst's full assessment of a ticker. Ratings and
// Reasons are free-text as produced by the analyst; the consensus core
// parses them but never mutates an Analysis in place. Downstream stages
// operate on clones so the originals survive for audit.
type Analysis struct {
	// Analyst is the producing analyst's name (e.g. "socrates")
	Analyst string `json:"analyst"`

	// Ticker is the exchange-qualified ticker under research
	Ticker string `json:"ticker"`

	// Ratings holds the free-text rating per metric, e.g.
	// "Excellent - revenue grew 14% quarter over quarter"
	Ratings map[Metric]string `json:"ratings"`

	// Reasons holds the free-text justification per metric
	Reasons map[Metric]string `json:"reasons"`

	// FinancialStrength is the analyst's composite score in "X/8" form
	FinancialStrength string `json:"financial_strength"`

	// Summary is the analyst's overall free-text summary
	Summary string `json:"summary"`
}

// Clone returns a deep copy of the analysis. Every pipeline stage that
// transforms analyses works on clones, preserving its input for audit.
func (a *Analysis) Clone() *Analysis {
	if a == nil {
		return nil
	}
	clone := &Analysis{
		Analyst:           a.Analyst,
		Ticker:            a.Ticker,
		FinancialStrength: a.FinancialStrength,
		Summary:           a.Summary,
		Ratings:           make(map[Metric]string, len(a.Ratings)),
		Reasons:           make(map[Metric]string, len(a.Reasons)),
	}
	for m, v := range a.Ratings {
		clone.Ratings[m] = v
	}
	for m, v := range a.Reasons {
		clone.Reasons[m] = v
	}
	return clone
}

// CloneAnalyses deep-copies a slice of analyses.
func CloneAnalyses(analyses []*Analysis) []*Analysis {
	out := make([]*Analysis, len(analyses))
	for i, a := range analyses {
		out[i] = a.Clone()
	}
	return out
}
