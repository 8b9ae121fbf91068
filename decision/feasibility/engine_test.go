package feasibility

import (
	"errors"
	"testing"
	"time"

	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/decision/competition"
	"github.com/dskanth86/ev-charger-analytics/decision/demand"
	"github.com/dskanth86/ev-charger-analytics/decision/finance"
	"github.com/dskanth86/ev-charger-analytics/geodata"
	"github.com/dskanth86/ev-charger-analytics/pkg/cserr"
)

// scenarioA is the reference case: 10 POIs (weight 1, 1 km), no
// competitors, $50,000 capital, $5/session, 200 sessions/month ceiling,
// weights {0.4, 0.3, 0.3}, threshold 60.
func scenarioA() config.Scenario {
	s := config.DefaultScenario()
	s.Weights = config.Weights{Demand: 0.4, Competition: 0.3, Financial: 0.3}
	s.GoThreshold = 60
	s.Demand.Population = config.CategoryParams{Weight: 0, Saturation: 40}
	s.Demand.POI = config.CategoryParams{Weight: 1, Saturation: 5}
	s.Demand.Traffic = config.CategoryParams{Weight: 0, Saturation: 15}
	s.Finance.CapitalCost = 50000
	s.Finance.PricePerSession = 5
	s.Finance.MaxSessionsPerMonth = 200
	s.Finance.FixedMonthlyCost = 0
	s.Finance.EnergyRatePerKWh = 0
	return s
}

func allPresent() map[geodata.Category]bool {
	return map[geodata.Category]bool{
		geodata.CategoryPopulation: true,
		geodata.CategoryPOI:        true,
		geodata.CategoryTraffic:    true,
	}
}

func tenPOIsAt1km() geodata.POISet {
	records := make([]geodata.POIRecord, 10)
	for i := range records {
		records[i] = geodata.POIRecord{Category: geodata.CategoryPOI, Weight: 1, DistanceKm: 1}
	}
	return geodata.POISet{Records: records, Present: true}
}

func fiveOverlappingCompetitors() geodata.CompetitorSet {
	records := make([]geodata.CompetitorRecord, 5)
	for i := range records {
		records[i] = geodata.CompetitorRecord{
			DistanceKm: 0.5,
			Ports:      2,
			Connectors: []geodata.Connector{geodata.ConnectorJ1772},
		}
	}
	return geodata.CompetitorSet{Records: records, Present: true}
}

func evaluate(t *testing.T, s config.Scenario, pois geodata.POISet, comps geodata.CompetitorSet) Result {
	t.Helper()
	d := demand.NewScorer(s.Demand).Score(pois, allPresent())
	c := competition.NewAnalyzer(s.Competition).Score(comps, s.Connectors())
	f := finance.NewModel(s.Finance).Project(d.Score, c.Score)

	snap := Snapshot{ID: "snap-test", TakenAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	result, err := NewEngine(s).Evaluate(geodata.NewSite(41.8781, -87.6298, ""), d, c, f, snap)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return result
}

func TestScenarioAIsGo(t *testing.T) {
	result := evaluate(t, scenarioA(), tenPOIsAt1km(), geodata.CompetitorSet{Present: true})

	if result.Competition.Score != 100 {
		t.Errorf("competition sub-score = %v, want 100 with no competitors", result.Competition.Score)
	}
	if result.CompositeScore < result.GoThreshold {
		t.Errorf("composite = %v, want >= threshold %v", result.CompositeScore, result.GoThreshold)
	}
	if result.Verdict != VerdictGo {
		t.Errorf("verdict = %v, want GO", result.Verdict)
	}
	if result.Partial {
		t.Error("fully measured analysis must not be partial")
	}
}

func TestScenarioBLowersCompetitionAndFlips(t *testing.T) {
	a := evaluate(t, scenarioA(), tenPOIsAt1km(), geodata.CompetitorSet{Present: true})
	b := evaluate(t, scenarioA(), tenPOIsAt1km(), fiveOverlappingCompetitors())

	if b.Competition.Score >= a.Competition.Score {
		t.Fatalf("competition sub-score must drop: A %v, B %v", a.Competition.Score, b.Competition.Score)
	}
	// Regression boundary: with these inputs the composite dips under the
	// threshold and the verdict flips.
	if b.Verdict != VerdictNoGo {
		t.Errorf("verdict = %v (composite %v), want NO_GO", b.Verdict, b.CompositeScore)
	}
}

func TestZeroDataBoundary(t *testing.T) {
	// Zero POIs and zero competitors, both sources live: demand 0,
	// competition 100, composite driven by those plus the financial term.
	result := evaluate(t, scenarioA(), geodata.POISet{Present: true}, geodata.CompetitorSet{Present: true})

	if result.Demand.Score != 0 {
		t.Errorf("demand = %v, want 0", result.Demand.Score)
	}
	if result.Competition.Score != 100 {
		t.Errorf("competition = %v, want 100", result.Competition.Score)
	}
	want := 0.3*100 + 0.3*result.FinancialScore
	if diff := result.CompositeScore - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("composite = %v, want %v", result.CompositeScore, want)
	}
}

func TestEvaluateIsDeterministic(t *testing.T) {
	a := evaluate(t, scenarioA(), tenPOIsAt1km(), fiveOverlappingCompetitors())
	b := evaluate(t, scenarioA(), tenPOIsAt1km(), fiveOverlappingCompetitors())

	if a.Hash == "" {
		t.Fatal("result hash missing")
	}
	if a.Hash != b.Hash {
		t.Errorf("hashes differ for identical inputs: %s vs %s", a.Hash, b.Hash)
	}
	if a.CompositeScore != b.CompositeScore || a.Verdict != b.Verdict {
		t.Error("repeated evaluation diverged")
	}
}

func TestHashChangesWithSnapshot(t *testing.T) {
	s := scenarioA()
	d := demand.NewScorer(s.Demand).Score(tenPOIsAt1km(), allPresent())
	c := competition.NewAnalyzer(s.Competition).Score(geodata.CompetitorSet{Present: true}, s.Connectors())
	f := finance.NewModel(s.Finance).Project(d.Score, c.Score)
	site := geodata.NewSite(41.8781, -87.6298, "")
	engine := NewEngine(s)

	r1, err := engine.Evaluate(site, d, c, f, Snapshot{ID: "snap-1", TakenAt: time.Unix(1000, 0).UTC()})
	if err != nil {
		t.Fatal(err)
	}
	r2, err := engine.Evaluate(site, d, c, f, Snapshot{ID: "snap-2", TakenAt: time.Unix(2000, 0).UTC()})
	if err != nil {
		t.Fatal(err)
	}
	if r1.Hash == r2.Hash {
		t.Error("different snapshots must produce different result hashes")
	}
}

func TestMismatchedWeightsFailBeforeScoring(t *testing.T) {
	s := scenarioA()
	s.Weights = config.Weights{Demand: 0.5, Competition: 0.3, Financial: 0.3} // 1.1

	_, err := NewEngine(s).Evaluate(geodata.Site{}, demand.SubScore{}, competition.SubScore{}, finance.Projection{}, Snapshot{})
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if !errors.Is(err, cserr.ErrConfiguration) {
		t.Errorf("error kind = %v, want configuration", err)
	}
}

func TestCompositeInRangeAcrossWeightings(t *testing.T) {
	weightings := []config.Weights{
		{Demand: 1, Competition: 0, Financial: 0},
		{Demand: 0, Competition: 1, Financial: 0},
		{Demand: 0, Competition: 0, Financial: 1},
		{Demand: 0.4, Competition: 0.3, Financial: 0.3},
		{Demand: 0.1, Competition: 0.1, Financial: 0.8},
	}
	for _, w := range weightings {
		s := scenarioA()
		s.Weights = w
		result := evaluate(t, s, tenPOIsAt1km(), fiveOverlappingCompetitors())
		if result.CompositeScore < 0 || result.CompositeScore > 100 {
			t.Errorf("weights %+v: composite %v out of [0,100]", w, result.CompositeScore)
		}
	}
}

func TestUnreachablePaybackZeroesFinancialScore(t *testing.T) {
	s := scenarioA()
	s.Finance.PricePerSession = 0.01
	s.Finance.FixedMonthlyCost = 10000

	result := evaluate(t, s, tenPOIsAt1km(), geodata.CompetitorSet{Present: true})
	if !result.Financial.PaybackUnreachable {
		t.Fatal("expected unreachable payback")
	}
	if result.FinancialScore != 0 {
		t.Errorf("financial score = %v, want 0", result.FinancialScore)
	}
}

func TestPartialPropagatesFromSubScores(t *testing.T) {
	s := scenarioA()
	d := demand.NewScorer(s.Demand).Score(tenPOIsAt1km(), allPresent())
	c := competition.NewAnalyzer(s.Competition).Score(geodata.CompetitorSet{Present: false}, s.Connectors())
	f := finance.NewModel(s.Finance).Project(d.Score, c.Score)

	result, err := NewEngine(s).Evaluate(geodata.Site{}, d, c, f, Snapshot{ID: "s"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Partial {
		t.Error("absent registry must mark the result partial")
	}
}
