// Package demand derives the 0-100 demand sub-score from population,
// point-of-interest and traffic-proxy signals near a candidate site.
package demand

import (
	"sort"

	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/geodata"
	"github.com/dskanth86/ev-charger-analytics/pkg/scoring"
)

// Contribution is one category's audited share of the demand sub-score.
// Points = Weight x Normalized x 100, and the Points across all
// contributions sum to the total score.
type Contribution struct {
	Category   geodata.Category `json:"category"`
	Records    int              `json:"records"`
	RawDensity float64          `json:"raw_density"`
	Normalized float64          `json:"normalized"`
	Weight     float64          `json:"weight"`
	Points     float64          `json:"points"`
	// Present distinguishes a measured value from the absent-source fill.
	Present bool `json:"present"`
}

// SubScore is the demand result with its auditable breakdown.
type SubScore struct {
	Score     float64        `json:"score"`
	Breakdown []Contribution `json:"breakdown"`
	// Partial is true when any category was filled in for an absent source.
	Partial bool `json:"partial"`
}

// Scorer computes demand sub-scores. Stateless; safe for concurrent use.
type Scorer struct {
	cfg config.DemandConfig
}

func NewScorer(cfg config.DemandConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// scoredCategories is the fixed category order of the breakdown, so equal
// inputs serialize identically.
var scoredCategories = []geodata.Category{
	geodata.CategoryPopulation,
	geodata.CategoryPOI,
	geodata.CategoryTraffic,
}

// Score partitions POIs by category, accumulates distance-decayed density
// per category, normalizes against the category's saturation constant,
// weights and sums. Zero POIs within radius is a score of 0, not an error.
// present says which categories had a live data source; absent categories
// take the configured neutral fill and mark the result partial.
func (s *Scorer) Score(pois geodata.POISet, present map[geodata.Category]bool) SubScore {
	density := make(map[geodata.Category]float64, len(scoredCategories))
	counts := make(map[geodata.Category]int, len(scoredCategories))

	unknownSink := s.lowestWeightedCategory()
	for _, rec := range pois.Records {
		cat := rec.Category
		if cat == geodata.CategoryUnknown {
			// Unmapped categories pool into the lowest-weighted bucket so
			// they can never inflate the score.
			cat = unknownSink
		}
		density[cat] += scoring.DistanceDecay(rec.Weight, rec.DistanceKm)
		counts[cat]++
	}

	result := SubScore{Breakdown: make([]Contribution, 0, len(scoredCategories))}
	var total float64

	for _, cat := range scoredCategories {
		params := s.cfg.Params(cat)
		contrib := Contribution{
			Category: cat,
			Weight:   params.Weight,
			Present:  present[cat],
		}
		if contrib.Present {
			contrib.Records = counts[cat]
			contrib.RawDensity = density[cat]
			contrib.Normalized = scoring.Saturate(density[cat], params.Saturation)
		} else {
			contrib.Normalized = s.cfg.AbsentCategoryFill
			result.Partial = true
		}
		contrib.Points = contrib.Weight * contrib.Normalized * 100
		total += contrib.Points
		result.Breakdown = append(result.Breakdown, contrib)
	}

	result.Score = scoring.Clamp(total)
	return result
}

// lowestWeightedCategory returns the category with the smallest configured
// weight; ties resolve in fixed category order.
func (s *Scorer) lowestWeightedCategory() geodata.Category {
	cats := make([]geodata.Category, len(scoredCategories))
	copy(cats, scoredCategories)
	sort.SliceStable(cats, func(i, j int) bool {
		return s.cfg.Params(cats[i]).Weight < s.cfg.Params(cats[j]).Weight
	})
	return cats[0]
}
