package datasources

import (
	"testing"

	"github.com/dskanth86/ev-charger-analytics/geodata"
)

func TestParseOverpassMapsTaggedNodes(t *testing.T) {
	payload := []byte(`{"elements":[
		{"type":"node","id":1,"lat":41.88,"lon":-87.63,"tags":{"amenity":"cafe","name":"Corner Cafe"}},
		{"type":"node","id":2,"lat":41.881,"lon":-87.631,"tags":{"shop":"mall"}},
		{"type":"node","id":3,"lat":41.882,"lon":-87.632,"tags":{"amenity":"fuel"}},
		{"type":"way","id":4,"center":{"lat":41.883,"lon":-87.633},"tags":{"tourism":"hotel"}},
		{"type":"node","id":5,"lat":41.884,"lon":-87.634,"tags":{"natural":"tree"}},
		{"type":"node","id":6,"lat":41.885,"lon":-87.635}
	]}`)

	pois, err := ParseOverpass(payload)
	if err != nil {
		t.Fatalf("ParseOverpass: %v", err)
	}
	if len(pois) != 4 {
		t.Fatalf("got %d POIs, want 4 (unmapped and untagged elements skipped)", len(pois))
	}

	if pois[0].Category != "amenity" || pois[0].Weight != 1.0 {
		t.Errorf("cafe mapped to %s/%v", pois[0].Category, pois[0].Weight)
	}
	if pois[1].Category != "shop" || pois[1].Weight != 2.5 {
		t.Errorf("mall mapped to %s/%v, want shop/2.5", pois[1].Category, pois[1].Weight)
	}
	if pois[2].Category != "traffic" {
		t.Errorf("fuel station mapped to %s, want traffic", pois[2].Category)
	}
	if pois[3].Lat != 41.883 || pois[3].Lon != -87.633 {
		t.Errorf("way must use its center coordinates, got %v,%v", pois[3].Lat, pois[3].Lon)
	}
}

func TestParseOverpassRejectsMalformedPayload(t *testing.T) {
	if _, err := ParseOverpass([]byte(`{"elements": "nope"`)); err == nil {
		t.Error("expected decode error")
	}
}

func TestOverpassCategoriesNormalize(t *testing.T) {
	// Every category the mapper emits must survive normalization instead
	// of falling into the unknown sink.
	payload := []byte(`{"elements":[
		{"type":"node","id":1,"lat":41.88,"lon":-87.63,"tags":{"office":"company"}},
		{"type":"node","id":2,"lat":41.88,"lon":-87.63,"tags":{"leisure":"gym"}},
		{"type":"node","id":3,"lat":41.88,"lon":-87.63,"tags":{"public_transport":"station"}},
		{"type":"node","id":4,"lat":41.88,"lon":-87.63,"tags":{"highway":"motorway_junction"}}
	]}`)
	pois, err := ParseOverpass(payload)
	if err != nil {
		t.Fatal(err)
	}

	_, poiSet, _, err := geodata.Normalize(
		geodata.RawSite{Lat: 41.88, Lon: -87.63}, pois, true, nil, true,
		geodata.Options{CatchmentRadiusKm: 5})
	if err != nil {
		t.Fatal(err)
	}
	for _, rec := range poiSet.Records {
		if rec.Category == geodata.CategoryUnknown {
			t.Errorf("record normalized to unknown category")
		}
	}
}

func TestParseAFDCStations(t *testing.T) {
	payload := []byte(`{"fuel_stations":[
		{"station_name":"Loop Garage","fuel_type_code":"ELEC","latitude":41.879,"longitude":-87.63,
		 "ev_connector_types":["J1772","TESLA"],"ev_level2_evse_num":2,"ev_dc_fast_num":null},
		{"station_name":"CNG Depot","fuel_type_code":"CNG","latitude":41.88,"longitude":-87.64},
		{"station_name":"Fast Hub","fuel_type_code":"ELEC","latitude":41.881,"longitude":-87.65,
		 "ev_connector_types":["CCS","CHADEMO"],"ev_dc_fast_num":4,"ev_level2_evse_num":2}
	]}`)

	comps, err := ParseAFDC(payload)
	if err != nil {
		t.Fatalf("ParseAFDC: %v", err)
	}
	if len(comps) != 2 {
		t.Fatalf("got %d competitors, want 2 (non-electric skipped)", len(comps))
	}
	if comps[0].Ports != 2 {
		t.Errorf("Loop Garage ports = %d, want 2", comps[0].Ports)
	}
	if comps[1].Ports != 6 {
		t.Errorf("Fast Hub ports = %d, want 6 (dc fast + level 2)", comps[1].Ports)
	}
	if got := geodata.ParseConnector(comps[0].Connectors[1]); got != geodata.ConnectorNACS {
		t.Errorf("TESLA connector parsed as %s, want NACS", got)
	}
}

func TestParseACS(t *testing.T) {
	payload := []byte(`[
		["B01003_001E","B19013_001E","state","county","tract"],
		["5403","91250","17","031","839100"]
	]`)
	d, err := ParseACS(payload)
	if err != nil {
		t.Fatalf("ParseACS: %v", err)
	}
	if d.Population != 5403 {
		t.Errorf("population = %d, want 5403", d.Population)
	}
	if d.MedianIncome != 91250 {
		t.Errorf("median income = %d, want 91250", d.MedianIncome)
	}
}

func TestParseACSSuppressedValues(t *testing.T) {
	payload := []byte(`[
		["B01003_001E","B19013_001E"],
		["1200","-666666666"]
	]`)
	d, err := ParseACS(payload)
	if err != nil {
		t.Fatal(err)
	}
	if d.MedianIncome != 0 {
		t.Errorf("suppressed income = %d, want 0", d.MedianIncome)
	}
}

func TestParseACSNoDataRow(t *testing.T) {
	if _, err := ParseACS([]byte(`[["B01003_001E"]]`)); err == nil {
		t.Error("expected error for header-only payload")
	}
}

func TestPopulationPOIIncomeBands(t *testing.T) {
	site := geodata.RawSite{Lat: 41.88, Lon: -87.63}

	cases := []struct {
		name   string
		demo   Demographics
		weight float64
	}{
		{"mid income unadjusted", Demographics{Population: 5000, MedianIncome: 60000}, 5.0},
		{"affluent boosted", Demographics{Population: 5000, MedianIncome: 125000}, 6.25},
		{"upper band boosted", Demographics{Population: 5000, MedianIncome: 90000}, 5.5},
		{"low income damped", Demographics{Population: 5000, MedianIncome: 30000}, 4.25},
		{"suppressed income unadjusted", Demographics{Population: 5000}, 5.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			poi := tc.demo.PopulationPOI(site)
			if poi.Category != string(geodata.CategoryPopulation) {
				t.Fatalf("category = %s", poi.Category)
			}
			if diff := poi.Weight - tc.weight; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("weight = %v, want %v", poi.Weight, tc.weight)
			}
			if poi.Lat != site.Lat || poi.Lon != site.Lon {
				t.Error("population record must sit at the site")
			}
		})
	}
}
