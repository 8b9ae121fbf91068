package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dskanth86/ev-charger-analytics/pkg/platform"
)

// Load reads a scenario from a YAML file, applies environment overrides and
// validates the result. An empty path yields the validated default scenario.
func Load(path string) (Scenario, error) {
	_ = godotenv.Load()

	s := DefaultScenario()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Scenario{}, fmt.Errorf("read scenario file: %w", err)
		}
		if err := yaml.Unmarshal(data, &s); err != nil {
			return Scenario{}, fmt.Errorf("parse scenario file %s: %w", path, err)
		}
	}
	applyEnvOverrides(&s)
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	return s, nil
}

// applyEnvOverrides lets deployments tune the most operational knobs without
// editing scenario files. Structural weights stay file-only: overriding one
// weight from the environment would break the sum-to-one contract invisibly.
func applyEnvOverrides(s *Scenario) {
	s.CatchmentRadiusKm = platform.GetEnvFloat("CHARGEMAP_CATCHMENT_KM", s.CatchmentRadiusKm)
	s.GoThreshold = platform.GetEnvFloat("CHARGEMAP_GO_THRESHOLD", s.GoThreshold)
	s.Finance.CapitalCost = platform.GetEnvFloat("CHARGEMAP_CAPITAL_COST", s.Finance.CapitalCost)
	s.Finance.EnergyRatePerKWh = platform.GetEnvFloat("CHARGEMAP_ENERGY_RATE", s.Finance.EnergyRatePerKWh)
	s.Finance.PricePerKWh = platform.GetEnvFloat("CHARGEMAP_PRICE_PER_KWH", s.Finance.PricePerKWh)
}

// Dump renders the scenario for `scenario show`.
func Dump(s Scenario) ([]byte, error) {
	return yaml.Marshal(s)
}
