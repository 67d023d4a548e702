// Package velocity estimates how hiring outcomes decay with elapsed time and
// which operational factors separate fast fills from slow ones.
//
// Every function in the package is pure: inputs are never mutated, nothing is
// fetched, and identical inputs with the same reference time produce
// identical results.
package velocity

import (
	"time"

	"github.com/okian/hirepulse/internal/domain/filter"
	"github.com/okian/hirepulse/internal/domain/model"
)

// Input is the raw population handed to the engine.
type Input struct {
	Candidates   []model.Candidate   `json:"candidates"`
	Requisitions []model.Requisition `json:"requisitions"`
	Events       []model.Event       `json:"events"`
	// Users are accepted for completeness; no analysis reads them.
	Users  []model.User `json:"users"`
	Filter model.Filter `json:"filter"`
}

// Result is the composite output of one analysis.
type Result struct {
	CandidateDecay   CandidateDecayAnalysis           `json:"candidate_decay"`
	RequisitionDecay ReqDecayAnalysis                 `json:"requisition_decay"`
	Cohorts          model.Optional[CohortComparison] `json:"cohorts"`
	Insights         []VelocityInsight                `json:"insights"`
}

// Analyze filters the population and runs every analyzer against it using
// DefaultPolicy. now ages requisitions that are still open.
func Analyze(in Input, now time.Time) Result {
	return analyze(in, now, DefaultPolicy())
}

func analyze(in Input, now time.Time, p Policy) Result {
	reqs := filter.Requisitions(in.Requisitions, in.Filter)
	ids := filter.RequisitionIDs(reqs)
	cands := filter.Candidates(in.Candidates, ids)
	events := filter.Events(in.Events, ids)

	cand := AnalyzeCandidateDecay(cands, reqs, p)
	req := AnalyzeRequisitionDecay(reqs, now, p)
	cohorts := CompareCohorts(reqs, cands, events, p)

	return Result{
		CandidateDecay:   cand,
		RequisitionDecay: req,
		Cohorts:          cohorts,
		Insights:         GenerateInsights(cand, req, cohorts, p),
	}
}

// Clock supplies the reference time for an analysis.
type Clock func() time.Time

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		if c != nil {
			e.now = c
		}
	}
}

// Engine binds Analyze to a clock so callers outside the domain do not have to
// choose a reference time. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	now    Clock
	policy Policy
}

// NewEngine creates an engine using the wall clock unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		now:    time.Now,
		policy: DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run analyzes in at the engine's current time.
func (e *Engine) Run(in Input) Result {
	return analyze(in, e.now(), e.policy)
}
