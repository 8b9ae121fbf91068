package analysis

import (
	"errors"
	"testing"
	"time"

	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/datasources"
	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
	"github.com/dskanth86/ev-charger-analytics/geodata"
	"github.com/dskanth86/ev-charger-analytics/pkg/cserr"
)

var testSite = geodata.RawSite{Lat: 41.8781, Lon: -87.6298, Address: "233 S Wacker Dr"}

func testSnapshot() feasibility.Snapshot {
	return feasibility.Snapshot{ID: "snap-pipeline", TakenAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
}

func fullRequest() Request {
	demo := datasources.Demographics{Population: 8000, MedianIncome: 85000}
	return Request{
		Site: testSite,
		POIs: []geodata.RawPOI{
			{Category: "shop", Lat: 41.879, Lon: -87.63, Weight: 2},
			{Category: "amenity", Lat: 41.877, Lon: -87.628, Weight: 1},
			{Category: "traffic", Lat: 41.876, Lon: -87.631, Weight: 1},
		},
		POIsPresent: true,
		Competitors: []geodata.RawCompetitor{
			{Lat: 41.875, Lon: -87.632, Connectors: []string{"J1772"}, Ports: 2},
		},
		CompetitorsPresent: true,
		Demographics:       &demo,
		Snapshot:           testSnapshot(),
	}
}

func TestRunFullRequest(t *testing.T) {
	p, err := NewPipeline(config.DefaultScenario())
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	result, err := p.Run(fullRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.CompositeScore < 0 || result.CompositeScore > 100 {
		t.Errorf("composite %v out of range", result.CompositeScore)
	}
	if result.Partial {
		t.Error("all sources present, result must not be partial")
	}
	if result.Snapshot.ID != "snap-pipeline" {
		t.Errorf("snapshot id = %s", result.Snapshot.ID)
	}
	if result.Hash == "" {
		t.Error("result hash missing")
	}
	if result.Site.Address != testSite.Address {
		t.Errorf("site address = %q", result.Site.Address)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	p, err := NewPipeline(config.DefaultScenario())
	if err != nil {
		t.Fatal(err)
	}
	a, err := p.Run(fullRequest())
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Run(fullRequest())
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash != b.Hash {
		t.Errorf("hashes differ across identical runs: %s vs %s", a.Hash, b.Hash)
	}
}

func TestRunDoesNotMutateRequest(t *testing.T) {
	p, err := NewPipeline(config.DefaultScenario())
	if err != nil {
		t.Fatal(err)
	}
	req := fullRequest()
	before := len(req.POIs)
	if _, err := p.Run(req); err != nil {
		t.Fatal(err)
	}
	// The demographics record is appended to a copy, not the caller's slice.
	if len(req.POIs) != before {
		t.Errorf("request POI slice grew from %d to %d", before, len(req.POIs))
	}
}

func TestMissingSourcesFlagPartial(t *testing.T) {
	p, err := NewPipeline(config.DefaultScenario())
	if err != nil {
		t.Fatal(err)
	}
	req := fullRequest()
	req.Demographics = nil
	req.CompetitorsPresent = false
	req.Competitors = nil

	result, err := p.Run(req)
	if err != nil {
		t.Fatalf("missing sources must degrade, not fail: %v", err)
	}
	if !result.Partial {
		t.Error("result must be flagged partial")
	}
}

func TestNewPipelineRejectsBadScenario(t *testing.T) {
	s := config.DefaultScenario()
	s.Weights.Demand = 0.9 // sum now exceeds 1

	_, err := NewPipeline(s)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, cserr.ErrConfiguration) {
		t.Errorf("error = %v, want configuration kind", err)
	}
}

func TestBuildRequestFromAdapters(t *testing.T) {
	poiPayload := []byte(`{"elements":[{"type":"node","id":1,"lat":41.879,"lon":-87.63,"tags":{"amenity":"cafe"}}]}`)
	compPayload := []byte(`{"fuel_stations":[{"fuel_type_code":"ELEC","latitude":41.88,"longitude":-87.64,"ev_connector_types":["CCS"],"ev_level2_evse_num":2}]}`)
	acsPayload := []byte(`[["B01003_001E","B19013_001E"],["5403","91250"]]`)

	req, err := BuildRequest(testSite,
		datasources.OverpassSource{Payload: poiPayload},
		datasources.AFDCSource{Payload: compPayload},
		datasources.ACSSource{Payload: acsPayload},
		testSnapshot())
	if err != nil {
		t.Fatalf("BuildRequest: %v", err)
	}
	if !req.POIsPresent || !req.CompetitorsPresent || req.Demographics == nil {
		t.Fatal("all sources supplied, all must be present")
	}
	if len(req.POIs) != 1 || len(req.Competitors) != 1 {
		t.Errorf("records = %d POIs, %d competitors", len(req.POIs), len(req.Competitors))
	}
	if req.Demographics.Population != 5403 {
		t.Errorf("population = %d", req.Demographics.Population)
	}
}

func TestBuildRequestNilSourcesAreAbsent(t *testing.T) {
	req, err := BuildRequest(testSite, nil, nil, nil, testSnapshot())
	if err != nil {
		t.Fatal(err)
	}
	if req.POIsPresent || req.CompetitorsPresent || req.Demographics != nil {
		t.Error("nil sources must be marked absent")
	}
}

func TestBuildRequestPropagatesParseErrors(t *testing.T) {
	_, err := BuildRequest(testSite, datasources.OverpassSource{Payload: []byte(`{`)}, nil, nil, testSnapshot())
	if err == nil {
		t.Error("malformed payload is an error, not a gap")
	}
}
