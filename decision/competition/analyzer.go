// Package competition derives the 0-100 competition sub-score from existing
// charging stations near a candidate site. Higher competitor pressure means
// a lower sub-score; an empty catchment is an uncontested market at 100.
package competition

import (
	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/geodata"
	"github.com/dskanth86/ev-charger-analytics/pkg/scoring"
)

// Pressure itemizes one competitor's contribution to market saturation,
// kept for report-level auditability.
type Pressure struct {
	DistanceKm float64 `json:"distance_km"`
	Ports      int     `json:"ports"`
	Overlaps   bool    `json:"overlaps"`
	Load       float64 `json:"load"`
}

// SubScore is the competition result.
type SubScore struct {
	Score float64 `json:"score"`
	// TotalPressure is the raw distance-decayed competitor load before
	// saturation normalization.
	TotalPressure float64    `json:"total_pressure"`
	Competitors   []Pressure `json:"competitors"`
	// Partial is true when the station registry was absent and the score
	// is the configured neutral stand-in rather than a measurement.
	Partial bool `json:"partial"`
}

// Analyzer computes competition sub-scores. Stateless; safe for concurrent
// use.
type Analyzer struct {
	cfg config.CompetitionConfig
}

func NewAnalyzer(cfg config.CompetitionConfig) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// absentRegistryScore is the neutral sub-score assumed when no competitor
// data source was available at all. Matches the demand-side neutral fill:
// neither an uncontested 100 nor a saturated 0.
const absentRegistryScore = 50

// Score accumulates distance-decayed competitor pressure and inverts it.
// A competitor whose connectors fully cover the target types is a direct
// substitute and presses at the overlap factor; others press at the
// (lower) non-overlap factor. Stations with more ports than the reference
// press proportionally harder. Monotone: adding a competitor can only
// lower or hold the score.
func (a *Analyzer) Score(competitors geodata.CompetitorSet, targets []geodata.Connector) SubScore {
	if !competitors.Present {
		return SubScore{Score: absentRegistryScore, Partial: true}
	}

	result := SubScore{Competitors: make([]Pressure, 0, len(competitors.Records))}
	refPorts := a.cfg.ReferencePorts
	if refPorts <= 0 {
		refPorts = 1
	}

	for _, comp := range competitors.Records {
		factor := a.cfg.NonOverlapFactor
		overlaps := comp.Matches(targets)
		if overlaps {
			factor = a.cfg.OverlapFactor
		}
		portFactor := float64(comp.Ports) / float64(refPorts)
		load := scoring.DistanceDecay(factor*portFactor, comp.DistanceKm)

		result.TotalPressure += load
		result.Competitors = append(result.Competitors, Pressure{
			DistanceKm: comp.DistanceKm,
			Ports:      comp.Ports,
			Overlaps:   overlaps,
			Load:       load,
		})
	}

	saturation := scoring.Saturate(result.TotalPressure, a.cfg.Saturation)
	result.Score = scoring.Clamp((1 - saturation) * 100)
	return result
}
