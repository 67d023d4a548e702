package velocity

import (
	"math"
	"slices"
	"time"

	"github.com/okian/hirepulse/internal/domain/filter"
	"github.com/okian/hirepulse/internal/domain/model"
)

// sample is one observation on a decay curve.
type sample struct {
	days    int
	success bool
}

// AnalyzeCandidateDecay buckets offered candidates on reqs by days from
// application (or first contact) to offer and measures acceptance per bucket.
// reqs must already be filtered; candidates on other requisitions are ignored.
func AnalyzeCandidateDecay(cands []model.Candidate, reqs []model.Requisition, p Policy) CandidateDecayAnalysis {
	eligible := filter.RequisitionIDs(reqs)

	samples := make([]sample, 0, len(cands))
	for _, c := range cands {
		if _, ok := eligible[c.RequisitionID]; !ok {
			continue
		}
		if c.OfferExtendedAt.IsZero() {
			continue
		}
		start := c.AppliedAt
		if start.IsZero() {
			start = c.FirstContactedAt
		}
		if start.IsZero() {
			continue
		}
		days := daysBetween(start, c.OfferExtendedAt)
		if days < 0 {
			continue
		}
		samples = append(samples, sample{days: days, success: !c.OfferAcceptedAt.IsZero()})
	}

	points, successes := buildCurve(p.CandidateBuckets, samples)
	rate, start := estimateDecay(points, p.MinBucketSamples, p.CandidateDecayFraction)

	return CandidateDecayAnalysis{
		Buckets:               points,
		MedianDaysToDecision:  medianSuccessDays(samples),
		OverallAcceptanceRate: ratio(successes, len(samples)),
		TotalOffers:           len(samples),
		TotalAccepted:         successes,
		DecayRatePerDay:       rate,
		DecayStartDay:         start,
	}
}

// AnalyzeRequisitionDecay buckets requisitions by days open and measures the
// fill rate per bucket. Open requisitions are aged against now and only count
// once they are at least MinOpenDays old; canceled requisitions never count.
func AnalyzeRequisitionDecay(reqs []model.Requisition, now time.Time, p Policy) ReqDecayAnalysis {
	samples := make([]sample, 0, len(reqs))
	for _, r := range reqs {
		if r.OpenedAt.IsZero() {
			continue
		}
		switch {
		case r.IsClosed():
		case r.IsOpen():
			if daysBetween(r.OpenedAt, now) < p.MinOpenDays {
				continue
			}
		default:
			continue
		}

		end := now
		if !r.ClosedAt.IsZero() {
			end = r.ClosedAt
		}
		days := daysBetween(r.OpenedAt, end)
		if days < 0 {
			continue
		}
		samples = append(samples, sample{days: days, success: r.Filled()})
	}

	points, successes := buildCurve(p.RequisitionBuckets, samples)
	rate, start := estimateDecay(points, p.MinBucketSamples, p.RequisitionDecayFraction)

	return ReqDecayAnalysis{
		Buckets:          points,
		MedianDaysToFill: medianSuccessDays(samples),
		OverallFillRate:  ratio(successes, len(samples)),
		TotalReqs:        len(samples),
		TotalFilled:      successes,
		DecayRatePerDay:  rate,
		DecayStartDay:    start,
	}
}

// buildCurve assigns samples to buckets and computes per-bucket and
// cumulative rates. It returns the points and the total success count.
func buildCurve(buckets []Bucket, samples []sample) ([]DecayDataPoint, int) {
	counts := make([]int, len(buckets))
	hits := make([]int, len(buckets))
	for _, s := range samples {
		i := bucketFor(buckets, s.days)
		if i < 0 {
			continue
		}
		counts[i]++
		if s.success {
			hits[i]++
		}
	}

	points := make([]DecayDataPoint, len(buckets))
	var runCount, runHits int
	for i, b := range buckets {
		runCount += counts[i]
		runHits += hits[i]

		maxDay := model.None[int]()
		if b.MaxDay >= 0 {
			maxDay = model.Some(b.MaxDay)
		}
		points[i] = DecayDataPoint{
			Bucket:         b.Label,
			MinDay:         b.MinDay,
			MaxDay:         maxDay,
			Count:          counts[i],
			Rate:           ratio(hits[i], counts[i]).OrElse(0),
			CumulativeRate: ratio(runHits, runCount).OrElse(0),
		}
	}
	return points, runHits
}

// estimateDecay derives the per-day decline and the day decay becomes
// significant. Both are absent unless at least two buckets hold minSamples.
// The rate is only reported when it is positive.
func estimateDecay(points []DecayDataPoint, minSamples int, fraction float64) (model.Optional[float64], model.Optional[int]) {
	var qualifying []DecayDataPoint
	for _, pt := range points {
		if pt.Count >= minSamples {
			qualifying = append(qualifying, pt)
		}
	}
	if len(qualifying) < 2 {
		return model.None[float64](), model.None[int]()
	}

	first, last := qualifying[0], qualifying[len(qualifying)-1]
	rate := model.None[float64]()
	if span := last.MinDay - first.MinDay; span > 0 {
		if r := (first.Rate - last.Rate) / float64(span); r > 0 {
			rate = model.Some(r)
		}
	}

	peak := 0.0
	for _, pt := range qualifying {
		peak = math.Max(peak, pt.Rate)
	}
	start := model.None[int]()
	for _, pt := range qualifying {
		if pt.Rate < peak*fraction {
			start = model.Some(pt.MinDay)
			break
		}
	}
	return rate, start
}

// daysBetween returns whole days from a to b, rounded down.
func daysBetween(a, b time.Time) int {
	return int(math.Floor(b.Sub(a).Hours() / 24))
}

func ratio(num, den int) model.Optional[float64] {
	if den == 0 {
		return model.None[float64]()
	}
	return model.Some(float64(num) / float64(den))
}

func medianSuccessDays(samples []sample) model.Optional[float64] {
	var days []float64
	for _, s := range samples {
		if s.success {
			days = append(days, float64(s.days))
		}
	}
	return median(days)
}

// median returns the middle value (mean of the two middle values for even
// lengths). It sorts a copy.
func median(values []float64) model.Optional[float64] {
	if len(values) == 0 {
		return model.None[float64]()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return model.Some(sorted[mid])
	}
	return model.Some((sorted[mid-1] + sorted[mid]) / 2)
}

func mean(values []float64) model.Optional[float64] {
	if len(values) == 0 {
		return model.None[float64]()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return model.Some(sum / float64(len(values)))
}
