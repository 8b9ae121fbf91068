// Package geodata defines the normalized geospatial records consumed by the
// scoring engines and the normalizer that produces them from raw source data.
package geodata

import (
	"strings"

	"github.com/paulmach/orb"
)

// Category classifies a point of interest by the demand signal it carries.
type Category string

const (
	// CategoryPopulation covers residential-density proxies (census figures,
	// residential POIs).
	CategoryPopulation Category = "population"
	// CategoryPOI covers commercial and amenity destinations.
	CategoryPOI Category = "poi"
	// CategoryTraffic covers traffic-node proxies (junctions, fuel stations,
	// transit stops).
	CategoryTraffic Category = "traffic"
	// CategoryUnknown marks records whose source category could not be
	// mapped. The demand scorer pools these into its lowest-weighted
	// category so they can never inflate the score.
	CategoryUnknown Category = "unknown"
)

// Connector identifies an EV charging connector standard.
type Connector string

const (
	ConnectorJ1772   Connector = "J1772"
	ConnectorCCS     Connector = "CCS"
	ConnectorCHAdeMO Connector = "CHADEMO"
	ConnectorNACS    Connector = "NACS"
	// ConnectorUnknown is the wildcard default for competitors whose plugs
	// are not reported; it matches any queried connector set.
	ConnectorUnknown Connector = "UNKNOWN"
)

// ParseConnector maps raw registry connector codes onto the enum. AFDC-style
// aliases (TESLA, CHADEMO casing variants) are folded in here.
func ParseConnector(raw string) Connector {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "J1772", "TYPE1":
		return ConnectorJ1772
	case "CCS", "J1772COMBO", "CCS1", "CCS2":
		return ConnectorCCS
	case "CHADEMO":
		return ConnectorCHAdeMO
	case "NACS", "TESLA":
		return ConnectorNACS
	default:
		return ConnectorUnknown
	}
}

// Site is a candidate location under evaluation. Immutable for the duration
// of an analysis run.
type Site struct {
	Point   orb.Point `json:"point"` // lon, lat
	Address string    `json:"address,omitempty"`
}

func NewSite(lat, lon float64, address string) Site {
	return Site{Point: orb.Point{lon, lat}, Address: address}
}

func (s Site) Lat() float64 { return s.Point.Lat() }
func (s Site) Lon() float64 { return s.Point.Lon() }

// POIRecord is a normalized point of interest within the catchment radius.
type POIRecord struct {
	Category   Category  `json:"category"`
	Point      orb.Point `json:"point"`
	Weight     float64   `json:"weight"`
	DistanceKm float64   `json:"distance_km"`
}

// CompetitorRecord is a normalized existing charging station within the
// catchment radius.
type CompetitorRecord struct {
	Point      orb.Point   `json:"point"`
	Connectors []Connector `json:"connectors"`
	Ports      int         `json:"ports"`
	DistanceKm float64     `json:"distance_km"`
}

// Matches reports whether this competitor is a full substitute for the
// queried connector set: every target connector is served, or the
// competitor's plugs are unknown (wildcard).
func (c CompetitorRecord) Matches(targets []Connector) bool {
	if len(targets) == 0 {
		return true
	}
	for _, conn := range c.Connectors {
		if conn == ConnectorUnknown {
			return true
		}
	}
	for _, want := range targets {
		found := false
		for _, have := range c.Connectors {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// POISet is the ordered POI collection for one candidate site. Present is
// false when the upstream source was entirely absent, which is distinct
// from a source that was queried and returned nothing.
type POISet struct {
	Records []POIRecord `json:"records"`
	Present bool        `json:"present"`
}

// CompetitorSet is the ordered competitor collection for one candidate site.
type CompetitorSet struct {
	Records []CompetitorRecord `json:"records"`
	Present bool               `json:"present"`
}
