package velocity

import (
	"fmt"

	"github.com/okian/hirepulse/internal/domain/model"
)

// Recommended actions keyed by the factor that separates fast hires.
const (
	actionReferrals  = "Expand the referral program for similar roles and ask recent hires for introductions early in the search."
	actionHMCoach    = "Coach hiring managers to submit interview feedback within 24 hours and track turnaround weekly."
	actionStreamline = "Streamline the interview loop: trim redundant rounds and agree on the panel before sourcing starts."
)

// GenerateInsights turns the three analyses into insights. Rules are evaluated
// independently and emitted in a fixed order: candidate decay, fast-offer lift,
// requisition decay, early-fill momentum, cohort findings, limited data.
func GenerateInsights(cand CandidateDecayAnalysis, req ReqDecayAnalysis, cohorts model.Optional[CohortComparison], p Policy) []VelocityInsight {
	insights := make([]VelocityInsight, 0, 8)

	if rate, ok := cand.DecayRatePerDay.Get(); ok {
		if day, ok := cand.DecayStartDay.Get(); ok {
			insights = append(insights, VelocityInsight{
				Type:  InsightWarning,
				Title: fmt.Sprintf("Offer acceptance drops after day %d", day),
				Description: fmt.Sprintf("Candidates who reach an offer later are less likely to accept. "+
					"Acceptance falls by about %.1f%% per day in process, and the decline becomes significant from day %d.",
					rate*100, day),
				Metric: model.Some(fmt.Sprintf("-%.1f%%/day", rate*100)),
				Action: model.Some(fmt.Sprintf("Prioritize candidates approaching day %d and remove scheduling delays before the offer stage.", day)),
			})
		}
	}

	if overall, ok := cand.OverallAcceptanceRate.Get(); ok && len(cand.Buckets) > 0 {
		first := cand.Buckets[0]
		if first.Count > 0 && first.Rate > overall*p.FastOfferLift {
			insights = append(insights, VelocityInsight{
				Type:  InsightSuccess,
				Title: "Fast offers get accepted",
				Description: fmt.Sprintf("Offers extended within %s days of application are accepted %.0f%% of the time, compared with %.0f%% overall.",
					first.Bucket, first.Rate*100, overall*100),
				Metric: model.Some(fmt.Sprintf("%.0f%% vs %.0f%%", first.Rate*100, overall*100)),
				Action: model.Some(fmt.Sprintf("Aim to extend offers within %d days of first contact.", first.MaxDay.OrElse(first.MinDay))),
			})
		}
	}

	if rate, ok := req.DecayRatePerDay.Get(); ok {
		if day, ok := req.DecayStartDay.Get(); ok {
			insights = append(insights, VelocityInsight{
				Type:  InsightWarning,
				Title: fmt.Sprintf("Fill odds fall after day %d", day),
				Description: fmt.Sprintf("Requisitions that stay open longer are less likely to fill. "+
					"Fill probability falls by about %.1f%% per day open, with a significant drop from day %d.",
					rate*100, day),
				Metric: model.Some(fmt.Sprintf("-%.1f%%/day", rate*100)),
				Action: model.Some(fmt.Sprintf("Review requisitions open longer than %d days for scope, compensation or sourcing changes.", day)),
			})
		}
	}

	if early, late, ok := fillBuckets(req, p); ok && early.Rate > late.Rate*p.EarlyFillLift {
		desc := fmt.Sprintf("Requisitions resolved within %s days filled at %.0f%%, compared with %.0f%% for those open %s days.",
			early.Bucket, early.Rate*100, late.Rate*100, late.Bucket)
		metric := "n/a"
		if late.Rate > 0 {
			metric = fmt.Sprintf("%.1fx", early.Rate/late.Rate)
		}
		insights = append(insights, VelocityInsight{
			Type:        InsightInfo,
			Title:       "Early momentum predicts fills",
			Description: desc,
			Metric:      model.Some(metric),
		})
	}

	if cc, ok := cohorts.Get(); ok {
		insights = append(insights, cohortInsights(cc, p)...)
	}

	if cand.TotalOffers < p.MinOffersForConfidence {
		insights = append(insights, VelocityInsight{
			Type:  InsightInfo,
			Title: "Limited data",
			Description: fmt.Sprintf("Only %d offers are available for analysis. Treat these estimates as directional until at least %d offers are recorded.",
				cand.TotalOffers, p.MinOffersForConfidence),
			Metric: model.Some(fmt.Sprintf("%d offers", cand.TotalOffers)),
		})
	}

	return insights
}

// fillBuckets returns the early and late requisition buckets when both hold
// enough samples to compare.
func fillBuckets(req ReqDecayAnalysis, p Policy) (DecayDataPoint, DecayDataPoint, bool) {
	if p.EarlyFillBucket >= len(req.Buckets) || p.LateFillBucket >= len(req.Buckets) {
		return DecayDataPoint{}, DecayDataPoint{}, false
	}
	early, late := req.Buckets[p.EarlyFillBucket], req.Buckets[p.LateFillBucket]
	if early.Count < p.MinBucketSamples || late.Count < p.MinBucketSamples {
		return DecayDataPoint{}, DecayDataPoint{}, false
	}
	return early, late, true
}

func cohortInsights(cc CohortComparison, p Policy) []VelocityInsight {
	gap := cc.Slow.AvgTimeToFill - cc.Fast.AvgTimeToFill
	out := []VelocityInsight{{
		Type:  InsightInfo,
		Title: fmt.Sprintf("Fast and slow fills are %.0f days apart", gap),
		Description: fmt.Sprintf("The fastest quarter of filled requisitions closed in %.1f days on average; the slowest quarter took %.1f days.",
			cc.Fast.AvgTimeToFill, cc.Slow.AvgTimeToFill),
		Metric: model.Some(fmt.Sprintf("%.0f days", gap)),
	}}

	for _, f := range cc.Factors {
		if f.Factor == FactorTimeToFill || f.Impact != ImpactHigh {
			continue
		}
		out = append(out, VelocityInsight{
			Type:  InsightSuccess,
			Title: fmt.Sprintf("%s separates fast hires", f.Name),
			Description: fmt.Sprintf("Fast-filling requisitions average %.1f %s for %s versus %.1f %s on slow ones.",
				f.FastValue, f.Unit, f.Name, f.SlowValue, f.Unit),
			Metric: model.Some(fmt.Sprintf("%+.1f %s", f.Delta, f.Unit)),
			Action: model.Some(actionFor(f.Factor)),
		})
		break
	}

	if refGap := cc.Fast.ReferralPct - cc.Slow.ReferralPct; refGap > p.ReferralGapPoints {
		out = append(out, VelocityInsight{
			Type:  InsightSuccess,
			Title: "Referrals speed up hiring",
			Description: fmt.Sprintf("%.0f%% of hires on fast requisitions came from referrals, compared with %.0f%% on slow requisitions.",
				cc.Fast.ReferralPct, cc.Slow.ReferralPct),
			Metric: model.Some(fmt.Sprintf("+%.0f pts", refGap)),
			Action: model.Some(actionReferrals),
		})
	}
	return out
}

func actionFor(f Factor) string {
	switch f {
	case FactorReferralRate:
		return actionReferrals
	case FactorHMLatency:
		return actionHMCoach
	default:
		return actionStreamline
	}
}
