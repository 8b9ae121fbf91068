// Package feasibility fuses the demand, competition and financial results
// into a composite feasibility score and a GO / NO_GO verdict. Evaluation
// is deterministic: it never reads the clock and two calls over the same
// inputs and configuration produce bit-identical results.
package feasibility

import (
	"time"

	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/decision/competition"
	"github.com/dskanth86/ev-charger-analytics/decision/demand"
	"github.com/dskanth86/ev-charger-analytics/decision/finance"
	"github.com/dskanth86/ev-charger-analytics/geodata"
	"github.com/dskanth86/ev-charger-analytics/pkg/cserr"
	"github.com/dskanth86/ev-charger-analytics/pkg/scoring"
)

// Verdict is the binary build decision.
type Verdict string

const (
	VerdictGo   Verdict = "GO"
	VerdictNoGo Verdict = "NO_GO"
)

// Snapshot identifies the external-data pull a result was computed from.
// "Same inputs" for the determinism guarantee means same snapshot; the
// caller mints one per data fetch, never per evaluation.
type Snapshot struct {
	ID      string    `json:"id"`
	TakenAt time.Time `json:"taken_at"`
}

// Result is the immutable analysis artifact handed to the report assembler.
// Re-scoring a site produces a new Result; an existing one is never
// mutated, preserving the audit trail of past verdicts.
type Result struct {
	Site geodata.Site `json:"site"`

	CompositeScore float64 `json:"composite_score"`
	Verdict        Verdict `json:"verdict"`

	Demand      demand.SubScore      `json:"demand"`
	Competition competition.SubScore `json:"competition"`
	Financial   finance.Projection   `json:"financial"`
	// FinancialScore is the projection's ROI normalized to [0,100] against
	// the configured cap; 0 when payback is unreachable.
	FinancialScore float64 `json:"financial_score"`

	// The exact weighting used, recorded for auditability.
	Weights     config.Weights `json:"weights"`
	GoThreshold float64        `json:"go_threshold"`

	// Partial is true when any sub-score was computed from defaults rather
	// than measurements. A partial NO_GO is still a NO_GO; the report
	// layer must present it with the appropriate caveat, never hide it.
	Partial bool `json:"partial"`

	Snapshot Snapshot `json:"snapshot"`
	// Hash is a content digest over inputs and configuration; equal hashes
	// certify reproduced verdicts.
	Hash string `json:"hash"`
}

// Engine fuses sub-scores into verdicts. Stateless; safe for concurrent use.
type Engine struct {
	weights   config.Weights
	threshold float64
	roiCapPct float64
}

// NewEngine builds an engine from the scenario's weighting surface. The
// weights are validated on every Evaluate call too, so a hand-constructed
// engine cannot bypass the fail-fast contract.
func NewEngine(s config.Scenario) *Engine {
	return &Engine{
		weights:   s.Weights,
		threshold: s.GoThreshold,
		roiCapPct: s.Finance.ROICapPct,
	}
}

// Evaluate produces the feasibility result for one candidate site.
// Mismatched weights fail with a ConfigurationError before any fusion
// happens; no silent renormalization.
func (e *Engine) Evaluate(site geodata.Site, d demand.SubScore, c competition.SubScore, f finance.Projection, snap Snapshot) (Result, error) {
	if err := validateWeights(e.weights); err != nil {
		return Result{}, err
	}

	finScore := e.financialScore(f)
	composite := scoring.Clamp(
		e.weights.Demand*d.Score +
			e.weights.Competition*c.Score +
			e.weights.Financial*finScore)

	verdict := VerdictNoGo
	if composite >= e.threshold {
		verdict = VerdictGo
	}

	result := Result{
		Site:           site,
		CompositeScore: composite,
		Verdict:        verdict,
		Demand:         d,
		Competition:    c,
		Financial:      f,
		FinancialScore: finScore,
		Weights:        e.weights,
		GoThreshold:    e.threshold,
		Partial:        d.Partial || c.Partial,
		Snapshot:       snap,
	}

	hash, err := resultHash(result)
	if err != nil {
		return Result{}, err
	}
	result.Hash = hash
	return result, nil
}

// financialScore maps annual ROI onto [0,100]: the configured cap reads as
// 100, losses and unreachable payback read as 0.
func (e *Engine) financialScore(f finance.Projection) float64 {
	if f.PaybackUnreachable {
		return 0
	}
	roi := f.AnnualROIPct.InexactFloat64()
	if roi <= 0 {
		return 0
	}
	cap := e.roiCapPct
	if cap <= 0 {
		cap = 100
	}
	return scoring.Clamp01(roi/cap) * 100
}

func validateWeights(w config.Weights) error {
	for _, v := range []float64{w.Demand, w.Competition, w.Financial} {
		if v < 0 {
			return cserr.NewConfiguration(cserr.CodeNegativeWeight, "weights",
				"weights must be non-negative, got %v", v)
		}
	}
	sum := w.Demand + w.Competition + w.Financial
	if diff := sum - 1.0; diff > 1e-9 || diff < -1e-9 {
		return cserr.NewConfiguration(cserr.CodeWeightSum, "weights",
			"weights must sum to 1.0, got %v", sum)
	}
	return nil
}
