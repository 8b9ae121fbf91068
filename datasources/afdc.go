package datasources

import (
	"encoding/json"
	"fmt"

	"github.com/dskanth86/ev-charger-analytics/geodata"
)

// AFDCDocument is the top-level shape of an Alternative Fuels Data Center
// station query response.
type AFDCDocument struct {
	FuelStations []AFDCStation `json:"fuel_stations"`
}

// AFDCStation is one registry entry. EVSE counts are nullable in the feed,
// hence pointers.
type AFDCStation struct {
	StationName      string   `json:"station_name"`
	FuelTypeCode     string   `json:"fuel_type_code"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	EVConnectorTypes []string `json:"ev_connector_types"`
	EVDCFastNum      *int     `json:"ev_dc_fast_num"`
	EVLevel2Num      *int     `json:"ev_level2_evse_num"`
	EVLevel1Num      *int     `json:"ev_level1_evse_num"`
}

// Ports sums the station's EVSE counts across charging levels. Zero when
// the feed reports none, which the normalizer later replaces with the
// configured default.
func (s AFDCStation) Ports() int {
	total := 0
	for _, n := range []*int{s.EVDCFastNum, s.EVLevel2Num, s.EVLevel1Num} {
		if n != nil && *n > 0 {
			total += *n
		}
	}
	return total
}

// AFDCSource adapts a materialized AFDC station payload into raw
// competitor records.
type AFDCSource struct {
	Payload []byte
}

func (s AFDCSource) Competitors() ([]geodata.RawCompetitor, error) {
	return ParseAFDC(s.Payload)
}

// ParseAFDC decodes an AFDC response. Non-electric stations are skipped.
// Connector codes pass through verbatim; geodata.ParseConnector folds the
// registry aliases (TESLA, J1772COMBO) during normalization.
func ParseAFDC(payload []byte) ([]geodata.RawCompetitor, error) {
	var doc AFDCDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode afdc payload: %w", err)
	}

	competitors := make([]geodata.RawCompetitor, 0, len(doc.FuelStations))
	for _, st := range doc.FuelStations {
		if st.FuelTypeCode != "" && st.FuelTypeCode != "ELEC" {
			continue
		}
		competitors = append(competitors, geodata.RawCompetitor{
			Lat:        st.Latitude,
			Lon:        st.Longitude,
			Connectors: st.EVConnectorTypes,
			Ports:      st.Ports(),
		})
	}
	return competitors, nil
}
