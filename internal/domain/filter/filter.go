// Package filter narrows raw recruiting collections to the analysis population.
package filter

import "github.com/okian/hirepulse/internal/domain/model"

// Requisitions returns the requisitions matching every restricted field of f.
// The input slice is not modified.
func Requisitions(reqs []model.Requisition, f model.Filter) []model.Requisition {
	out := make([]model.Requisition, 0, len(reqs))
	for _, r := range reqs {
		if Match(r, f) {
			out = append(out, r)
		}
	}
	return out
}

// Match reports whether a single requisition passes f.
func Match(r model.Requisition, f model.Filter) bool {
	return f.RecruiterIDs.Allows(r.RecruiterID) &&
		f.Functions.Allows(r.Function) &&
		f.JobFamilies.Allows(r.JobFamily) &&
		f.Levels.Allows(r.Level) &&
		f.Regions.Allows(r.Region) &&
		f.HiringManagerIDs.Allows(r.HiringManagerID)
}

// RequisitionIDs returns the id set of reqs.
func RequisitionIDs(reqs []model.Requisition) map[string]struct{} {
	ids := make(map[string]struct{}, len(reqs))
	for _, r := range reqs {
		ids[r.ID] = struct{}{}
	}
	return ids
}

// Candidates returns candidates whose requisition is in ids.
func Candidates(cands []model.Candidate, ids map[string]struct{}) []model.Candidate {
	out := make([]model.Candidate, 0, len(cands))
	for _, c := range cands {
		if _, ok := ids[c.RequisitionID]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Events returns events whose requisition is in ids.
func Events(events []model.Event, ids map[string]struct{}) []model.Event {
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if _, ok := ids[e.RequisitionID]; ok {
			out = append(out, e)
		}
	}
	return out
}
