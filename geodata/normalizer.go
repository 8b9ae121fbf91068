package geodata

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/dskanth86/ev-charger-analytics/pkg/cserr"
)

// RawSite is the location input as supplied by the caller or a geocoder.
type RawSite struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

// RawPOI is a point-of-interest record as produced by a map data adapter.
// Category and Weight may be missing; the normalizer fills defaults.
type RawPOI struct {
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Weight   float64 `json:"weight,omitempty"`
}

// RawCompetitor is an existing-station record as produced by a charging
// station registry adapter. Connector types and port count may be missing.
type RawCompetitor struct {
	Lat        float64  `json:"lat"`
	Lon        float64  `json:"lon"`
	Connectors []string `json:"connectors,omitempty"`
	Ports      int      `json:"ports,omitempty"`
}

// Options bound the normalization. Values come from the scenario
// configuration; the normalizer itself hard-codes nothing.
type Options struct {
	CatchmentRadiusKm float64
	DefaultPOIWeight  float64 // applied when a raw POI carries no weight
	DefaultPorts      int     // applied when a competitor's port count is unknown
}

// Normalize converts raw location, POI and competitor records into the
// uniform internal representation. Records beyond the catchment radius are
// dropped, missing fields are filled with documented defaults, and the
// output sequences are ordered by distance for reproducibility. Pure: no
// side effects beyond the returned values.
func Normalize(raw RawSite, pois []RawPOI, poisPresent bool, competitors []RawCompetitor, competitorsPresent bool, opts Options) (Site, POISet, CompetitorSet, error) {
	if opts.CatchmentRadiusKm <= 0 {
		return Site{}, POISet{}, CompetitorSet{}, cserr.NewConfiguration(
			cserr.CodeNegativeRadius, "catchment_radius_km",
			"catchment radius must be positive, got %v", opts.CatchmentRadiusKm)
	}
	if opts.DefaultPOIWeight <= 0 {
		opts.DefaultPOIWeight = 1.0
	}
	if opts.DefaultPorts <= 0 {
		opts.DefaultPorts = 2
	}

	site := NewSite(raw.Lat, raw.Lon, raw.Address)

	poiSet := POISet{Records: make([]POIRecord, 0, len(pois)), Present: poisPresent}
	for _, p := range pois {
		dist, err := distanceKm(site.Point, orb.Point{p.Lon, p.Lat})
		if err != nil {
			return Site{}, POISet{}, CompetitorSet{}, err
		}
		if dist > opts.CatchmentRadiusKm {
			continue
		}
		weight := p.Weight
		if weight <= 0 {
			weight = opts.DefaultPOIWeight
		}
		poiSet.Records = append(poiSet.Records, POIRecord{
			Category:   parseCategory(p.Category),
			Point:      orb.Point{p.Lon, p.Lat},
			Weight:     weight,
			DistanceKm: dist,
		})
	}
	sortPOIs(poiSet.Records)

	compSet := CompetitorSet{Records: make([]CompetitorRecord, 0, len(competitors)), Present: competitorsPresent}
	for _, c := range competitors {
		dist, err := distanceKm(site.Point, orb.Point{c.Lon, c.Lat})
		if err != nil {
			return Site{}, POISet{}, CompetitorSet{}, err
		}
		if dist > opts.CatchmentRadiusKm {
			continue
		}
		ports := c.Ports
		if ports <= 0 {
			ports = opts.DefaultPorts
		}
		connectors := make([]Connector, 0, len(c.Connectors))
		for _, raw := range c.Connectors {
			connectors = append(connectors, ParseConnector(raw))
		}
		if len(connectors) == 0 {
			connectors = []Connector{ConnectorUnknown}
		}
		compSet.Records = append(compSet.Records, CompetitorRecord{
			Point:      orb.Point{c.Lon, c.Lat},
			Connectors: connectors,
			Ports:      ports,
			DistanceKm: dist,
		})
	}
	sortCompetitors(compSet.Records)

	return site, poiSet, compSet, nil
}

// distanceKm is the great-circle distance between two points. A negative
// distance cannot come out of the haversine formula; if it ever does the
// run is a defect and must stop.
func distanceKm(a, b orb.Point) (float64, error) {
	km := geo.DistanceHaversine(a, b) / 1000.0
	if km < 0 {
		return 0, cserr.NewComputation(cserr.CodeNegativeDistance,
			"negative great-circle distance %v between %v and %v", km, a, b)
	}
	return km, nil
}

func parseCategory(raw string) Category {
	switch Category(raw) {
	case CategoryPopulation, CategoryPOI, CategoryTraffic:
		return Category(raw)
	}
	// Secondary aliases from map sources.
	switch raw {
	case "residential", "census":
		return CategoryPopulation
	case "commercial", "amenity", "shop", "office", "leisure", "tourism":
		return CategoryPOI
	case "traffic", "highway", "fuel", "transit":
		return CategoryTraffic
	}
	return CategoryUnknown
}

// Ordering is distance, then lat, then lon: total and input-order
// independent, so two pulls of the same snapshot normalize identically.
func sortPOIs(records []POIRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].DistanceKm != records[j].DistanceKm {
			return records[i].DistanceKm < records[j].DistanceKm
		}
		if records[i].Point.Lat() != records[j].Point.Lat() {
			return records[i].Point.Lat() < records[j].Point.Lat()
		}
		return records[i].Point.Lon() < records[j].Point.Lon()
	})
}

func sortCompetitors(records []CompetitorRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].DistanceKm != records[j].DistanceKm {
			return records[i].DistanceKm < records[j].DistanceKm
		}
		if records[i].Point.Lat() != records[j].Point.Lat() {
			return records[i].Point.Lat() < records[j].Point.Lat()
		}
		return records[i].Point.Lon() < records[j].Point.Lon()
	})
}
