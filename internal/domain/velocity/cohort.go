package velocity

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/okian/hirepulse/internal/domain/model"
)

type filledReq struct {
	id         string
	timeToFill float64
}

type candidateKey struct {
	reqID  string
	candID string
}

// CompareCohorts splits filled requisitions into fastest and slowest quartiles
// by time-to-fill and compares their operational factors. It returns None when
// fewer than MinCohortReqs requisitions qualify. With small counts the fast
// and slow cohorts may overlap.
func CompareCohorts(reqs []model.Requisition, cands []model.Candidate, events []model.Event, p Policy) model.Optional[CohortComparison] {
	filled := make([]filledReq, 0, len(reqs))
	for _, r := range reqs {
		if !r.IsClosed() || r.OpenedAt.IsZero() || r.ClosedAt.IsZero() {
			continue
		}
		ttf := r.ClosedAt.Sub(r.OpenedAt).Hours() / 24
		if ttf < 0 {
			continue
		}
		filled = append(filled, filledReq{id: r.ID, timeToFill: ttf})
	}
	if len(filled) < p.MinCohortReqs {
		return model.None[CohortComparison]()
	}

	slices.SortStableFunc(filled, func(a, b filledReq) int {
		if c := cmp.Compare(a.timeToFill, b.timeToFill); c != 0 {
			return c
		}
		return strings.Compare(a.id, b.id)
	})

	size := max(len(filled)/p.CohortDivisor, 1)
	fast := filled[:size]
	slow := filled[len(filled)-size:]

	idx := indexActivity(cands, events)
	fastStats := idx.stats(fast, p)
	slowStats := idx.stats(slow, p)

	return model.Some(CohortComparison{
		Fast:    fastStats,
		Slow:    slowStats,
		All:     idx.stats(filled, p),
		Factors: compareFactors(fastStats, slowStats, p.Factors),
	})
}

// activityIndex groups candidates and events by requisition.
type activityIndex struct {
	candidates map[string][]model.Candidate
	events     map[string][]model.Event
}

func indexActivity(cands []model.Candidate, events []model.Event) activityIndex {
	idx := activityIndex{
		candidates: make(map[string][]model.Candidate),
		events:     make(map[string][]model.Event),
	}
	for _, c := range cands {
		idx.candidates[c.RequisitionID] = append(idx.candidates[c.RequisitionID], c)
	}
	for _, e := range events {
		idx.events[e.RequisitionID] = append(idx.events[e.RequisitionID], e)
	}
	return idx
}

func (idx activityIndex) stats(cohort []filledReq, p Policy) HireCohortStats {
	var (
		ttfs          = make([]float64, 0, len(cohort))
		candidates    int
		hires         int
		referrals     int
		interviews    int
		latencies     []float64
		submittals    = make(map[candidateKey]struct{})
		lastInterview = make(map[candidateKey]time.Time)
		feedback      = make(map[candidateKey][]time.Time)
	)

	for _, r := range cohort {
		ttfs = append(ttfs, r.timeToFill)

		for _, c := range idx.candidates[r.id] {
			candidates++
			if !c.Hired() {
				continue
			}
			hires++
			if strings.Contains(strings.ToLower(c.Source), p.ReferralMarker) {
				referrals++
			}
		}

		for _, e := range idx.events[r.id] {
			key := candidateKey{reqID: r.id, candID: e.CandidateID}
			switch e.Type {
			case model.EventInterviewCompleted:
				interviews++
				if e.At.After(lastInterview[key]) {
					lastInterview[key] = e.At
				}
			case model.EventFeedbackSubmitted:
				feedback[key] = append(feedback[key], e.At)
			case model.EventStageChange:
				if hasMarker(e.ToStage, p.HMStageMarkers) {
					submittals[key] = struct{}{}
				}
			}
		}
	}

	// Keys are visited in a fixed order so float sums are reproducible.
	keys := make([]candidateKey, 0, len(lastInterview))
	for k := range lastInterview {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b candidateKey) int {
		if c := strings.Compare(a.reqID, b.reqID); c != 0 {
			return c
		}
		return strings.Compare(a.candID, b.candID)
	})
	for _, k := range keys {
		if h, ok := feedbackLatency(lastInterview[k], feedback[k]); ok && h > 0 && h <= p.MaxFeedbackLatencyHours {
			latencies = append(latencies, h)
		}
	}

	stats := HireCohortStats{
		Count:             len(cohort),
		Candidates:        candidates,
		Hires:             hires,
		AvgTimeToFill:     mean(ttfs).OrElse(0),
		MedianTimeToFill:  median(ttfs).OrElse(0),
		AvgHMLatencyHours: mean(latencies),
		AvgPipelineDepth:  ratio(candidates, len(cohort)).OrElse(0),
	}
	if hires > 0 {
		stats.ReferralPct = float64(referrals) / float64(hires) * 100
		stats.AvgInterviewsPerHire = float64(interviews) / float64(hires)
		stats.AvgSubmittalsPerHire = float64(len(submittals)) / float64(hires)
	}
	return stats
}

// feedbackLatency returns hours from the interview to the first feedback
// submitted after it.
func feedbackLatency(interview time.Time, feedback []time.Time) (float64, bool) {
	var first time.Time
	for _, f := range feedback {
		if !f.After(interview) {
			continue
		}
		if first.IsZero() || f.Before(first) {
			first = f
		}
	}
	if first.IsZero() {
		return 0, false
	}
	return first.Sub(interview).Hours(), true
}

func hasMarker(stage string, markers []string) bool {
	s := strings.ToLower(stage)
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// factorValue extracts a factor from cohort stats; false means undefined.
func factorValue(s HireCohortStats, f Factor) (float64, bool) {
	switch f {
	case FactorHMLatency:
		return s.AvgHMLatencyHours.Get()
	case FactorReferralRate:
		return s.ReferralPct, true
	case FactorPipelineDepth:
		return s.AvgPipelineDepth, true
	case FactorInterviewsPerHire:
		return s.AvgInterviewsPerHire, true
	case FactorSubmittalsPerHire:
		return s.AvgSubmittalsPerHire, true
	case FactorTimeToFill:
		return s.AvgTimeToFill, true
	default:
		return 0, false
	}
}

func compareFactors(fast, slow HireCohortStats, rules []FactorRule) []SuccessFactorComparison {
	out := make([]SuccessFactorComparison, 0, len(rules))
	for _, rule := range rules {
		fv, fok := factorValue(fast, rule.Factor)
		sv, sok := factorValue(slow, rule.Factor)
		if (!fok || fv == 0) && (!sok || sv == 0) {
			continue
		}

		delta := sv - fv
		if rule.Direction == FastMinusSlow {
			delta = fv - sv
		}
		out = append(out, SuccessFactorComparison{
			Factor:    rule.Factor,
			Name:      rule.Name,
			FastValue: fv,
			SlowValue: sv,
			Delta:     delta,
			Unit:      rule.Unit,
			Impact:    rule.Classify(delta),
		})
	}

	slices.SortStableFunc(out, func(a, b SuccessFactorComparison) int {
		return cmp.Compare(a.Impact.rank(), b.Impact.rank())
	})
	return out
}
