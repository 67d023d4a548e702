package velocity

// Bucket is a fixed day range used to aggregate samples. MaxDay < 0 marks
// the open-ended final bucket.
type Bucket struct {
	Label  string
	MinDay int
	MaxDay int
}

// Contains reports whether days falls inside the bucket.
func (b Bucket) Contains(days int) bool {
	return days >= b.MinDay && (b.MaxDay < 0 || days <= b.MaxDay)
}

// Direction selects how a factor delta is signed.
type Direction int

// Delta directions. Lower-is-better factors use SlowMinusFast.
const (
	SlowMinusFast Direction = iota
	FastMinusSlow
)

// FactorRule classifies the absolute delta of one factor.
type FactorRule struct {
	Factor    Factor
	Name      string
	Unit      string
	Direction Direction
	High      float64
	Medium    float64
}

// Classify maps an absolute delta to an impact level. Both cutoffs are exclusive.
func (r FactorRule) Classify(delta float64) Impact {
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta > r.High:
		return ImpactHigh
	case delta > r.Medium:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

// Policy is the full table of buckets, thresholds and minimum sample sizes.
// The engine always runs with DefaultPolicy; the table exists so the values
// can be audited and tested in one place.
type Policy struct {
	CandidateBuckets   []Bucket
	RequisitionBuckets []Bucket

	// MinBucketSamples gates which buckets take part in decay estimation.
	MinBucketSamples int
	// Decay is significant once a bucket's rate drops below this share of the peak.
	CandidateDecayFraction   float64
	RequisitionDecayFraction float64
	// Open requisitions younger than this are too early to judge.
	MinOpenDays int

	MinCohortReqs           int
	CohortDivisor           int
	MaxFeedbackLatencyHours float64
	ReferralMarker          string
	HMStageMarkers          []string
	Factors                 []FactorRule

	// Insight gates.
	FastOfferLift          float64
	EarlyFillLift          float64
	EarlyFillBucket        int
	LateFillBucket         int
	ReferralGapPoints      float64
	MinOffersForConfidence int
}

// DefaultPolicy returns the production policy table.
func DefaultPolicy() Policy {
	return Policy{
		CandidateBuckets: []Bucket{
			{Label: "0-14", MinDay: 0, MaxDay: 14},
			{Label: "15-21", MinDay: 15, MaxDay: 21},
			{Label: "22-30", MinDay: 22, MaxDay: 30},
			{Label: "31-45", MinDay: 31, MaxDay: 45},
			{Label: "46-60", MinDay: 46, MaxDay: 60},
			{Label: "61+", MinDay: 61, MaxDay: -1},
		},
		RequisitionBuckets: []Bucket{
			{Label: "0-30", MinDay: 0, MaxDay: 30},
			{Label: "31-45", MinDay: 31, MaxDay: 45},
			{Label: "46-60", MinDay: 46, MaxDay: 60},
			{Label: "61-90", MinDay: 61, MaxDay: 90},
			{Label: "91-120", MinDay: 91, MaxDay: 120},
			{Label: "121+", MinDay: 121, MaxDay: -1},
		},
		MinBucketSamples:         3,
		CandidateDecayFraction:   0.95,
		RequisitionDecayFraction: 0.90,
		MinOpenDays:              30,

		MinCohortReqs:           6,
		CohortDivisor:           4,
		MaxFeedbackLatencyHours: 720,
		ReferralMarker:          "referral",
		HMStageMarkers:          []string{"hm", "hiring manager", "hiring_manager"},
		Factors: []FactorRule{
			{Factor: FactorHMLatency, Name: "HM Feedback Latency", Unit: "hours", Direction: SlowMinusFast, High: 24, Medium: 8},
			{Factor: FactorReferralRate, Name: "Referral Rate", Unit: "%", Direction: FastMinusSlow, High: 20, Medium: 10},
			{Factor: FactorPipelineDepth, Name: "Pipeline Depth", Unit: "candidates", Direction: FastMinusSlow, High: 5, Medium: 2},
			{Factor: FactorInterviewsPerHire, Name: "Interviews per Hire", Unit: "interviews", Direction: SlowMinusFast, High: 3, Medium: 1},
			{Factor: FactorSubmittalsPerHire, Name: "Submittals per Hire", Unit: "submittals", Direction: SlowMinusFast, High: 3, Medium: 1},
			{Factor: FactorTimeToFill, Name: "Time to Fill", Unit: "days", Direction: SlowMinusFast, High: 30, Medium: 14},
		},

		FastOfferLift:          1.2,
		EarlyFillLift:          1.5,
		EarlyFillBucket:        0,
		LateFillBucket:         4,
		ReferralGapPoints:      15,
		MinOffersForConfidence: 20,
	}
}

// bucketFor returns the index of the bucket holding days, or -1.
func bucketFor(buckets []Bucket, days int) int {
	for i, b := range buckets {
		if b.Contains(days) {
			return i
		}
	}
	return -1
}
