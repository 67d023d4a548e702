package velocity

import "github.com/okian/hirepulse/internal/domain/model"

// DecayDataPoint is one bucket of a decay curve.
type DecayDataPoint struct {
	Bucket         string              `json:"bucket"`
	MinDay         int                 `json:"min_day"`
	MaxDay         model.Optional[int] `json:"max_day"`
	Count          int                 `json:"count"`
	Rate           float64             `json:"rate"`
	CumulativeRate float64             `json:"cumulative_rate"`
}

// CandidateDecayAnalysis describes how offer acceptance decays with time in process.
type CandidateDecayAnalysis struct {
	Buckets               []DecayDataPoint        `json:"buckets"`
	MedianDaysToDecision  model.Optional[float64] `json:"median_days_to_decision"`
	OverallAcceptanceRate model.Optional[float64] `json:"overall_acceptance_rate"`
	TotalOffers           int                     `json:"total_offers"`
	TotalAccepted         int                     `json:"total_accepted"`
	DecayRatePerDay       model.Optional[float64] `json:"decay_rate_per_day"`
	DecayStartDay         model.Optional[int]     `json:"decay_start_day"`
}

// ReqDecayAnalysis describes how fill probability decays with days open.
type ReqDecayAnalysis struct {
	Buckets          []DecayDataPoint        `json:"buckets"`
	MedianDaysToFill model.Optional[float64] `json:"median_days_to_fill"`
	OverallFillRate  model.Optional[float64] `json:"overall_fill_rate"`
	TotalReqs        int                     `json:"total_reqs"`
	TotalFilled      int                     `json:"total_filled"`
	DecayRatePerDay  model.Optional[float64] `json:"decay_rate_per_day"`
	DecayStartDay    model.Optional[int]     `json:"decay_start_day"`
}

// HireCohortStats aggregates one cohort of filled requisitions.
type HireCohortStats struct {
	Count                int                     `json:"count"`
	Candidates           int                     `json:"candidates"`
	Hires                int                     `json:"hires"`
	AvgTimeToFill        float64                 `json:"avg_time_to_fill"`
	MedianTimeToFill     float64                 `json:"median_time_to_fill"`
	AvgHMLatencyHours    model.Optional[float64] `json:"avg_hm_latency_hours"`
	ReferralPct          float64                 `json:"referral_pct"`
	AvgPipelineDepth     float64                 `json:"avg_pipeline_depth"`
	AvgInterviewsPerHire float64                 `json:"avg_interviews_per_hire"`
	AvgSubmittalsPerHire float64                 `json:"avg_submittals_per_hire"`
}

// Factor names an operational factor compared between cohorts.
type Factor string

// Compared factors.
const (
	FactorHMLatency         Factor = "hm_feedback_latency"
	FactorReferralRate      Factor = "referral_rate"
	FactorPipelineDepth     Factor = "pipeline_depth"
	FactorInterviewsPerHire Factor = "interviews_per_hire"
	FactorSubmittalsPerHire Factor = "submittals_per_hire"
	FactorTimeToFill        Factor = "time_to_fill"
)

// Impact classifies the size of a factor delta.
type Impact string

// Impact levels.
const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

func (i Impact) rank() int {
	switch i {
	case ImpactHigh:
		return 0
	case ImpactMedium:
		return 1
	default:
		return 2
	}
}

// SuccessFactorComparison reports one factor across the fast and slow cohorts.
type SuccessFactorComparison struct {
	Factor    Factor  `json:"factor"`
	Name      string  `json:"name"`
	FastValue float64 `json:"fast_value"`
	SlowValue float64 `json:"slow_value"`
	Delta     float64 `json:"delta"`
	Unit      string  `json:"unit"`
	Impact    Impact  `json:"impact"`
}

// CohortComparison contrasts the fastest and slowest quartiles of filled requisitions.
type CohortComparison struct {
	Fast    HireCohortStats           `json:"fast"`
	Slow    HireCohortStats           `json:"slow"`
	All     HireCohortStats           `json:"all"`
	Factors []SuccessFactorComparison `json:"factors"`
}

// InsightType categorizes an insight for display.
type InsightType string

// Insight types.
const (
	InsightWarning InsightType = "warning"
	InsightSuccess InsightType = "success"
	InsightInfo    InsightType = "info"
)

// VelocityInsight is a human-readable finding with an optional recommended action.
type VelocityInsight struct {
	Type        InsightType            `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Metric      model.Optional[string] `json:"metric"`
	Action      model.Optional[string] `json:"action"`
}
