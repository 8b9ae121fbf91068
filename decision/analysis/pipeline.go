// Package analysis wires the full feasibility pipeline: raw records are
// normalized, the three sub-scores computed, and the verdict assembled. The
// CLI, API server and batch runner all go through here so a site evaluates
// identically no matter the entry point.
package analysis

import (
	"log/slog"

	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/datasources"
	"github.com/dskanth86/ev-charger-analytics/decision/competition"
	"github.com/dskanth86/ev-charger-analytics/decision/demand"
	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
	"github.com/dskanth86/ev-charger-analytics/decision/finance"
	"github.com/dskanth86/ev-charger-analytics/geodata"
)

// Request carries one site's materialized inputs. The Present flags record
// whether a source was reachable at snapshot time; a reachable source with
// zero records is a measured zero, not a gap. A nil Demographics means the
// census source was absent.
type Request struct {
	Site               geodata.RawSite            `json:"site"`
	POIs               []geodata.RawPOI           `json:"pois"`
	POIsPresent        bool                       `json:"pois_present"`
	Competitors        []geodata.RawCompetitor    `json:"competitors"`
	CompetitorsPresent bool                       `json:"competitors_present"`
	Demographics       *datasources.Demographics  `json:"demographics,omitempty"`
	Snapshot           feasibility.Snapshot       `json:"snapshot"`
}

// Pipeline runs the normalize, score and fuse stages under one scenario.
// Stateless after construction, safe for concurrent use.
type Pipeline struct {
	scenario    config.Scenario
	demand      *demand.Scorer
	competition *competition.Analyzer
	finance     *finance.Model
	engine      *feasibility.Engine
	logger      *slog.Logger
}

// NewPipeline validates the scenario once up front so a misconfigured
// weighting fails before any site is scored.
func NewPipeline(s config.Scenario) (*Pipeline, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{
		scenario:    s,
		demand:      demand.NewScorer(s.Demand),
		competition: competition.NewAnalyzer(s.Competition),
		finance:     finance.NewModel(s.Finance),
		engine:      feasibility.NewEngine(s),
		logger:      slog.Default(),
	}, nil
}

func (p *Pipeline) WithLogger(logger *slog.Logger) *Pipeline {
	p.logger = logger
	return p
}

// Scenario returns the configuration the pipeline was built with.
func (p *Pipeline) Scenario() config.Scenario { return p.scenario }

// Run evaluates one site. Deterministic: no clock or randomness anywhere in
// the path, so identical requests produce bit-identical results.
func (p *Pipeline) Run(req Request) (feasibility.Result, error) {
	pois := req.POIs
	if req.Demographics != nil {
		pois = append(append([]geodata.RawPOI(nil), pois...), req.Demographics.PopulationPOI(req.Site))
	}

	site, poiSet, compSet, err := geodata.Normalize(
		req.Site, pois, req.POIsPresent,
		req.Competitors, req.CompetitorsPresent,
		geodata.Options{
			CatchmentRadiusKm: p.scenario.CatchmentRadiusKm,
			DefaultPOIWeight:  p.scenario.DefaultPOIWeight,
			DefaultPorts:      p.scenario.Competition.ReferencePorts,
		})
	if err != nil {
		return feasibility.Result{}, err
	}

	present := map[geodata.Category]bool{
		geodata.CategoryPopulation: req.Demographics != nil,
		geodata.CategoryPOI:        req.POIsPresent,
		geodata.CategoryTraffic:    req.POIsPresent,
	}

	d := p.demand.Score(poiSet, present)
	c := p.competition.Score(compSet, p.scenario.Connectors())
	f := p.finance.Project(d.Score, c.Score)

	result, err := p.engine.Evaluate(site, d, c, f, req.Snapshot)
	if err != nil {
		return feasibility.Result{}, err
	}

	p.logger.Info("site evaluated",
		"lat", req.Site.Lat, "lon", req.Site.Lon,
		"composite", result.CompositeScore,
		"verdict", string(result.Verdict),
		"partial", result.Partial,
		"snapshot_id", req.Snapshot.ID)
	return result, nil
}

// BuildRequest assembles a Request from adapters. A nil source marks that
// input as absent rather than empty; a source that fails to parse is an
// error, not a gap.
func BuildRequest(site geodata.RawSite, poiSrc datasources.POISource, compSrc datasources.CompetitorSource, demoSrc datasources.DemographicsSource, snap feasibility.Snapshot) (Request, error) {
	req := Request{Site: site, Snapshot: snap}

	if poiSrc != nil {
		pois, err := poiSrc.POIs()
		if err != nil {
			return Request{}, err
		}
		req.POIs = pois
		req.POIsPresent = true
	}
	if compSrc != nil {
		comps, err := compSrc.Competitors()
		if err != nil {
			return Request{}, err
		}
		req.Competitors = comps
		req.CompetitorsPresent = true
	}
	if demoSrc != nil {
		demo, err := demoSrc.Demographics()
		if err != nil {
			return Request{}, err
		}
		req.Demographics = &demo
	}
	return req, nil
}
