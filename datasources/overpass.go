package datasources

import (
	"encoding/json"
	"fmt"

	"github.com/dskanth86/ev-charger-analytics/geodata"
)

// OverpassDocument is the top-level shape of an Overpass API JSON extract.
type OverpassDocument struct {
	Elements []OverpassElement `json:"elements"`
}

// OverpassElement is a single OSM element. Nodes carry lat/lon directly;
// ways and relations exported with "out center" carry a Center instead.
type OverpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *OverpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type OverpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (e OverpassElement) coordinates() (lat, lon float64, ok bool) {
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	if e.Lat != 0 || e.Lon != 0 {
		return e.Lat, e.Lon, true
	}
	return 0, 0, false
}

// OverpassSource adapts a materialized Overpass extract into raw POI records.
type OverpassSource struct {
	Payload []byte
}

func (s OverpassSource) POIs() ([]geodata.RawPOI, error) {
	return ParseOverpass(s.Payload)
}

// ParseOverpass decodes an Overpass extract and maps tagged elements onto
// the demand categories. Elements without coordinates or without a mapped
// tag are skipped, never an error.
func ParseOverpass(payload []byte) ([]geodata.RawPOI, error) {
	var doc OverpassDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode overpass payload: %w", err)
	}

	pois := make([]geodata.RawPOI, 0, len(doc.Elements))
	for _, el := range doc.Elements {
		lat, lon, ok := el.coordinates()
		if !ok {
			continue
		}
		category, weight, ok := mapOverpassTags(el.Tags)
		if !ok {
			continue
		}
		pois = append(pois, geodata.RawPOI{
			Category: category,
			Lat:      lat,
			Lon:      lon,
			Weight:   weight,
		})
	}
	return pois, nil
}

// osmTagKeys is the tag vocabulary the extract query asks for, in match
// order. First mapped key wins.
var osmTagKeys = []string{"amenity", "shop", "office", "leisure", "tourism", "highway", "public_transport"}

func mapOverpassTags(tags map[string]string) (category string, weight float64, ok bool) {
	for _, key := range osmTagKeys {
		value, has := tags[key]
		if !has {
			continue
		}
		if cat, w, mapped := mapOverpassTag(key, value); mapped {
			return cat, w, true
		}
	}
	return "", 0, false
}

// mapOverpassTag implements the amenity/shop/office/leisure/tourism POI
// vocabulary plus traffic proxies. Weights favor large trip generators.
func mapOverpassTag(key, value string) (string, float64, bool) {
	switch key {
	case "amenity":
		switch value {
		case "fuel", "bus_station":
			return "traffic", 1.0, true
		case "restaurant", "cafe", "fast_food", "bar", "parking", "library",
			"bank", "cinema", "theatre", "place_of_worship", "clinic":
			return "amenity", 1.0, true
		case "hospital", "school", "university":
			return "amenity", 1.5, true
		}
	case "shop":
		switch value {
		case "supermarket", "department_store":
			return "shop", 2.0, true
		case "mall":
			return "shop", 2.5, true
		case "convenience", "retail":
			return "shop", 1.0, true
		}
	case "office":
		return "office", 1.2, true
	case "leisure":
		switch value {
		case "fitness_centre", "sports_centre", "gym":
			return "leisure", 1.0, true
		}
	case "tourism":
		if value == "hotel" {
			return "tourism", 1.5, true
		}
	case "highway":
		switch value {
		case "motorway_junction", "services":
			return "highway", 2.0, true
		}
	case "public_transport":
		switch value {
		case "station", "stop_position":
			return "transit", 1.0, true
		}
	}
	return "", 0, false
}
