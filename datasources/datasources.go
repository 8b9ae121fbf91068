// Package datasources converts materialized upstream payloads (map extracts,
// charging station registries, census tables) into the raw records the
// normalizer accepts. Adapters parse bytes that were fetched out of band;
// nothing in this package touches the network.
package datasources

import (
	"github.com/dskanth86/ev-charger-analytics/geodata"
)

// POISource yields raw point-of-interest records for one candidate site.
type POISource interface {
	POIs() ([]geodata.RawPOI, error)
}

// CompetitorSource yields raw existing-station records for one candidate site.
type CompetitorSource interface {
	Competitors() ([]geodata.RawCompetitor, error)
}

// DemographicsSource yields tract-level census figures for one candidate site.
type DemographicsSource interface {
	Demographics() (Demographics, error)
}

// Demographics is the tract-level ACS extract for a site. Zero values mean
// the variable was suppressed or absent for the tract.
type Demographics struct {
	Population   int `json:"population"`
	MedianIncome int `json:"median_income"`
}

// residentsPerWeightUnit scales tract population into demand weight units.
const residentsPerWeightUnit = 1000.0

// PopulationPOI folds the demographics into a single population-category
// record anchored at the site itself. Weight is residents in thousands,
// nudged by the same median-income bands the ACS calibration uses: affluent
// tracts adopt EVs faster, low-income tracts more slowly.
func (d Demographics) PopulationPOI(site geodata.RawSite) geodata.RawPOI {
	weight := float64(d.Population) / residentsPerWeightUnit
	switch {
	case d.MedianIncome > 120000:
		weight *= 1.25
	case d.MedianIncome > 80000:
		weight *= 1.1
	case d.MedianIncome > 0 && d.MedianIncome < 40000:
		weight *= 0.85
	}
	return geodata.RawPOI{
		Category: string(geodata.CategoryPopulation),
		Lat:      site.Lat,
		Lon:      site.Lon,
		Weight:   weight,
	}
}
