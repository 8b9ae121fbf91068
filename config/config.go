// Package config holds the scenario configuration: every weighting
// coefficient, saturation constant and financial assumption the engines
// consume. Nothing in the scoring path is hard-coded; re-running a scenario
// with different assumptions is a config change, not a code change.
package config

import (
	"math"

	"github.com/dskanth86/ev-charger-analytics/geodata"
	"github.com/dskanth86/ev-charger-analytics/pkg/cserr"
)

// weightSumTolerance bounds float drift when checking that weights sum to 1.
const weightSumTolerance = 1e-9

// Weights fuse the three sub-scores into the composite feasibility score.
// They must be non-negative and sum to exactly 1.0; mismatches fail fast
// rather than silently renormalizing, so an audited verdict always reflects
// the weights the operator wrote down.
type Weights struct {
	Demand      float64 `yaml:"demand" json:"demand"`
	Competition float64 `yaml:"competition" json:"competition"`
	Financial   float64 `yaml:"financial" json:"financial"`
}

// CategoryParams configure one demand signal category.
type CategoryParams struct {
	// Weight is the category's share of the demand sub-score.
	Weight float64 `yaml:"weight" json:"weight"`
	// Saturation is the distance-decayed density at which the category
	// reads as fully saturated (normalized contribution 1.0).
	Saturation float64 `yaml:"saturation" json:"saturation"`
}

// DemandConfig configures the demand scorer.
type DemandConfig struct {
	Population CategoryParams `yaml:"population" json:"population"`
	POI        CategoryParams `yaml:"poi" json:"poi"`
	Traffic    CategoryParams `yaml:"traffic" json:"traffic"`
	// AbsentCategoryFill is the normalized value [0,1] assumed for a
	// category whose data source is entirely absent. The result is flagged
	// partial whenever this fill is used; a measured zero never is.
	AbsentCategoryFill float64 `yaml:"absent_category_fill" json:"absent_category_fill"`
}

// Params returns the configured parameters for a category.
func (d DemandConfig) Params(cat geodata.Category) CategoryParams {
	switch cat {
	case geodata.CategoryPopulation:
		return d.Population
	case geodata.CategoryTraffic:
		return d.Traffic
	default:
		return d.POI
	}
}

// CompetitionConfig configures the competition analyzer.
type CompetitionConfig struct {
	// Saturation is the distance-decayed competitor pressure at which the
	// market reads as fully saturated (sub-score 0).
	Saturation float64 `yaml:"saturation" json:"saturation"`
	// OverlapFactor weights competitors whose connectors fully cover the
	// target types; they are closer substitutes, so they press harder.
	OverlapFactor float64 `yaml:"overlap_factor" json:"overlap_factor"`
	// NonOverlapFactor weights competitors serving disjoint connector sets.
	NonOverlapFactor float64 `yaml:"non_overlap_factor" json:"non_overlap_factor"`
	// ReferencePorts is the port count a pressure weight of 1.0 assumes;
	// stations with more ports press proportionally harder.
	ReferencePorts int `yaml:"reference_ports" json:"reference_ports"`
}

// UtilizationBlend controls how demand and competition sub-scores combine
// into projected utilization. Higher demand and a higher (less contested)
// competition score both raise utilization; the blend weights must sum to 1.
type UtilizationBlend struct {
	Demand      float64 `yaml:"demand" json:"demand"`
	Competition float64 `yaml:"competition" json:"competition"`
}

// FinanceConfig holds every monetary and rate constant of the financial
// model. Currency values are plain floats here and converted to decimals at
// the model boundary.
type FinanceConfig struct {
	CapitalCost         float64 `yaml:"capital_cost" json:"capital_cost"`
	FixedMonthlyCost    float64 `yaml:"fixed_monthly_cost" json:"fixed_monthly_cost"`
	PricePerSession     float64 `yaml:"price_per_session" json:"price_per_session"`
	PricePerKWh         float64 `yaml:"price_per_kwh" json:"price_per_kwh"`
	KWhPerSession       float64 `yaml:"kwh_per_session" json:"kwh_per_session"`
	EnergyRatePerKWh    float64 `yaml:"energy_rate_per_kwh" json:"energy_rate_per_kwh"`
	MaxSessionsPerMonth float64 `yaml:"max_sessions_per_month" json:"max_sessions_per_month"`

	Blend UtilizationBlend `yaml:"utilization_blend" json:"utilization_blend"`

	// ROICapPct is the annual ROI percentage that maps to a financial
	// sub-score of 100.
	ROICapPct float64 `yaml:"roi_cap_pct" json:"roi_cap_pct"`

	// Forecast growth assumptions (fraction per year).
	SessionsGrowthRate float64 `yaml:"sessions_growth_rate" json:"sessions_growth_rate"`
	PriceGrowthRate    float64 `yaml:"price_growth_rate" json:"price_growth_rate"`
	CostGrowthRate     float64 `yaml:"cost_growth_rate" json:"cost_growth_rate"`
	ForecastYears      int     `yaml:"forecast_years" json:"forecast_years"`
}

// Scenario is the complete injectable configuration surface, enumerated at
// engine construction time.
type Scenario struct {
	Name string `yaml:"name" json:"name"`

	CatchmentRadiusKm float64  `yaml:"catchment_radius_km" json:"catchment_radius_km"`
	DefaultPOIWeight  float64  `yaml:"default_poi_weight" json:"default_poi_weight"`
	TargetConnectors  []string `yaml:"target_connectors" json:"target_connectors"`

	Weights     Weights           `yaml:"weights" json:"weights"`
	GoThreshold float64           `yaml:"go_threshold" json:"go_threshold"`
	Demand      DemandConfig      `yaml:"demand" json:"demand"`
	Competition CompetitionConfig `yaml:"competition" json:"competition"`
	Finance     FinanceConfig     `yaml:"finance" json:"finance"`
}

// DefaultScenario is the documented baseline: a Level 2 charger in a 5 km
// urban catchment. Financial defaults follow typical L2 economics
// ($0.35/kWh retail, $0.15/kWh utility, 25 kWh per session, $9,000 install).
func DefaultScenario() Scenario {
	return Scenario{
		Name:              "default-l2",
		CatchmentRadiusKm: 5,
		DefaultPOIWeight:  1,
		TargetConnectors:  []string{"J1772"},
		Weights:           Weights{Demand: 0.4, Competition: 0.3, Financial: 0.3},
		GoThreshold:       60,
		Demand: DemandConfig{
			Population:         CategoryParams{Weight: 0.4, Saturation: 40},
			POI:                CategoryParams{Weight: 0.35, Saturation: 25},
			Traffic:            CategoryParams{Weight: 0.25, Saturation: 15},
			AbsentCategoryFill: 0.5,
		},
		Competition: CompetitionConfig{
			Saturation:       6,
			OverlapFactor:    1.0,
			NonOverlapFactor: 0.5,
			ReferencePorts:   2,
		},
		Finance: FinanceConfig{
			CapitalCost:         9000,
			FixedMonthlyCost:    150,
			PricePerKWh:         0.35,
			KWhPerSession:       25,
			EnergyRatePerKWh:    0.15,
			MaxSessionsPerMonth: 300,
			Blend:               UtilizationBlend{Demand: 0.6, Competition: 0.4},
			ROICapPct:           100,
			SessionsGrowthRate:  0.08,
			PriceGrowthRate:     0.02,
			CostGrowthRate:      0.03,
			ForecastYears:       5,
		},
	}
}

// DCFCScenario is the fast-charging preset ($0.45/kWh retail, 35 kWh
// sessions, $60,000 install).
func DCFCScenario() Scenario {
	s := DefaultScenario()
	s.Name = "default-dcfc"
	s.TargetConnectors = []string{"CCS", "NACS"}
	s.Finance.CapitalCost = 60000
	s.Finance.FixedMonthlyCost = 600
	s.Finance.PricePerKWh = 0.45
	s.Finance.KWhPerSession = 35
	s.Finance.MaxSessionsPerMonth = 600
	return s
}

// Connectors resolves the configured target connector codes.
func (s Scenario) Connectors() []geodata.Connector {
	out := make([]geodata.Connector, 0, len(s.TargetConnectors))
	for _, raw := range s.TargetConnectors {
		out = append(out, geodata.ParseConnector(raw))
	}
	return out
}

// Validate fails fast on structurally invalid configuration. It runs before
// any scoring; a scenario that passes here cannot produce a configuration
// error mid-pipeline.
func (s Scenario) Validate() error {
	if err := validateWeightTriple("weights", s.Weights.Demand, s.Weights.Competition, s.Weights.Financial); err != nil {
		return err
	}
	if s.GoThreshold < 0 || s.GoThreshold > 100 {
		return cserr.NewConfiguration(cserr.CodeInvalidThreshold, "go_threshold",
			"go threshold must be in [0,100], got %v", s.GoThreshold)
	}
	if s.CatchmentRadiusKm <= 0 {
		return cserr.NewConfiguration(cserr.CodeNegativeRadius, "catchment_radius_km",
			"catchment radius must be positive, got %v", s.CatchmentRadiusKm)
	}

	for _, cat := range []struct {
		name   string
		params CategoryParams
	}{
		{"demand.population", s.Demand.Population},
		{"demand.poi", s.Demand.POI},
		{"demand.traffic", s.Demand.Traffic},
	} {
		if cat.params.Weight < 0 {
			return cserr.NewConfiguration(cserr.CodeNegativeWeight, cat.name,
				"category weight must be non-negative, got %v", cat.params.Weight)
		}
		if cat.params.Saturation <= 0 {
			return cserr.NewConfiguration(cserr.CodeInvalidConstant, cat.name,
				"saturation constant must be positive, got %v", cat.params.Saturation)
		}
	}
	catSum := s.Demand.Population.Weight + s.Demand.POI.Weight + s.Demand.Traffic.Weight
	if math.Abs(catSum-1.0) > weightSumTolerance {
		return cserr.NewConfiguration(cserr.CodeWeightSum, "demand",
			"demand category weights must sum to 1.0, got %v", catSum)
	}
	if s.Demand.AbsentCategoryFill < 0 || s.Demand.AbsentCategoryFill > 1 {
		return cserr.NewConfiguration(cserr.CodeInvalidConstant, "demand.absent_category_fill",
			"absent category fill must be in [0,1], got %v", s.Demand.AbsentCategoryFill)
	}

	if s.Competition.Saturation <= 0 {
		return cserr.NewConfiguration(cserr.CodeInvalidConstant, "competition.saturation",
			"competition saturation must be positive, got %v", s.Competition.Saturation)
	}
	if s.Competition.OverlapFactor < s.Competition.NonOverlapFactor {
		return cserr.NewConfiguration(cserr.CodeInvalidConstant, "competition.overlap_factor",
			"overlap factor (%v) must not be below non-overlap factor (%v): overlapping competitors are closer substitutes",
			s.Competition.OverlapFactor, s.Competition.NonOverlapFactor)
	}
	if s.Competition.NonOverlapFactor < 0 {
		return cserr.NewConfiguration(cserr.CodeInvalidConstant, "competition.non_overlap_factor",
			"non-overlap factor must be non-negative, got %v", s.Competition.NonOverlapFactor)
	}

	f := s.Finance
	if f.CapitalCost <= 0 {
		return cserr.NewConfiguration(cserr.CodeInvalidConstant, "finance.capital_cost",
			"capital cost must be positive, got %v", f.CapitalCost)
	}
	if f.PricePerSession <= 0 && (f.PricePerKWh <= 0 || f.KWhPerSession <= 0) {
		return cserr.NewConfiguration(cserr.CodeInvalidConstant, "finance",
			"either price_per_session or price_per_kwh with kwh_per_session must be set")
	}
	if f.MaxSessionsPerMonth <= 0 {
		return cserr.NewConfiguration(cserr.CodeInvalidConstant, "finance.max_sessions_per_month",
			"max sessions per month must be positive, got %v", f.MaxSessionsPerMonth)
	}
	if err := validateWeightPair("finance.utilization_blend", f.Blend.Demand, f.Blend.Competition); err != nil {
		return err
	}
	if f.ROICapPct <= 0 {
		return cserr.NewConfiguration(cserr.CodeInvalidConstant, "finance.roi_cap_pct",
			"ROI cap must be positive, got %v", f.ROICapPct)
	}
	return nil
}

func validateWeightTriple(field string, a, b, c float64) error {
	for _, w := range []float64{a, b, c} {
		if w < 0 {
			return cserr.NewConfiguration(cserr.CodeNegativeWeight, field,
				"weights must be non-negative, got %v", w)
		}
	}
	sum := a + b + c
	if math.Abs(sum-1.0) > weightSumTolerance {
		return cserr.NewConfiguration(cserr.CodeWeightSum, field,
			"weights must sum to 1.0, got %v", sum)
	}
	return nil
}

func validateWeightPair(field string, a, b float64) error {
	if a < 0 || b < 0 {
		return cserr.NewConfiguration(cserr.CodeNegativeWeight, field,
			"blend weights must be non-negative, got %v and %v", a, b)
	}
	if math.Abs(a+b-1.0) > weightSumTolerance {
		return cserr.NewConfiguration(cserr.CodeWeightSum, field,
			"blend weights must sum to 1.0, got %v", a+b)
	}
	return nil
}
