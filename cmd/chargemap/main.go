// chargemap CLI - EV charging site feasibility scoring
//
// Usage:
//   chargemap analyze --lat 41.8781 --lon -87.6298 [options]
//   chargemap batch --manifest sites.json [options]
//   chargemap serve [options]
//   chargemap scenario show|validate [options]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/dskanth86/ev-charger-analytics/api"
	"github.com/dskanth86/ev-charger-analytics/batch"
	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/datasources"
	"github.com/dskanth86/ev-charger-analytics/db/clickhouse"
	"github.com/dskanth86/ev-charger-analytics/decision/analysis"
	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
	"github.com/dskanth86/ev-charger-analytics/geodata"
	"github.com/dskanth86/ev-charger-analytics/pkg/platform"
	"github.com/dskanth86/ev-charger-analytics/report"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	app := &cli.App{
		Name:    "chargemap",
		Usage:   "EV charging site feasibility scoring",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"CHARGEMAP_LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "scenario",
				Aliases: []string{"s"},
				Usage:   "Path to a scenario YAML file",
				EnvVars: []string{"CHARGEMAP_SCENARIO"},
			},
			&cli.StringFlag{
				Name:    "preset",
				Value:   "l2",
				Usage:   "Scenario preset when no file is given (l2, dcfc)",
				EnvVars: []string{"CHARGEMAP_PRESET"},
			},
		},

		Commands: []*cli.Command{
			analyzeCommand(),
			batchCommand(),
			serveCommand(),
			scenarioCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadScenario(c *cli.Context) (config.Scenario, error) {
	if path := c.String("scenario"); path != "" {
		return config.Load(path)
	}
	switch c.String("preset") {
	case "dcfc":
		s := config.DCFCScenario()
		return s, s.Validate()
	case "l2", "":
		return config.Load("")
	}
	return config.Scenario{}, fmt.Errorf("unknown preset %q (expected l2 or dcfc)", c.String("preset"))
}

func initLogger(c *cli.Context) *slog.Logger {
	logger := platform.InitLogger(c.String("log-level"))
	slog.SetDefault(logger)
	return logger
}

// =============================================================================
// ANALYZE COMMAND
// =============================================================================

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Score one candidate site",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "lat", Required: true, Usage: "Site latitude"},
			&cli.Float64Flag{Name: "lon", Required: true, Usage: "Site longitude"},
			&cli.StringFlag{Name: "address", Usage: "Street address label"},
			&cli.StringFlag{Name: "pois", Usage: "Path to an Overpass JSON extract"},
			&cli.StringFlag{Name: "chargers", Usage: "Path to an AFDC station JSON payload"},
			&cli.StringFlag{Name: "census", Usage: "Path to an ACS tract JSON payload"},
			&cli.StringFlag{Name: "snapshot-id", Usage: "Data snapshot label (generated when empty)"},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json, markdown, pdf)",
			},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (defaults to stdout)"},
		},
		Action: runAnalyze,
	}
}

func fileSource(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func buildRequest(site geodata.RawSite, poisPath, chargersPath, censusPath, snapshotID string) (analysis.Request, error) {
	var poiSrc datasources.POISource
	var compSrc datasources.CompetitorSource
	var demoSrc datasources.DemographicsSource

	if data, err := fileSource(poisPath); err != nil {
		return analysis.Request{}, err
	} else if data != nil {
		poiSrc = datasources.OverpassSource{Payload: data}
	}
	if data, err := fileSource(chargersPath); err != nil {
		return analysis.Request{}, err
	} else if data != nil {
		compSrc = datasources.AFDCSource{Payload: data}
	}
	if data, err := fileSource(censusPath); err != nil {
		return analysis.Request{}, err
	} else if data != nil {
		demoSrc = datasources.ACSSource{Payload: data}
	}

	if snapshotID == "" {
		snapshotID = uuid.New().String()
	}
	snap := feasibility.Snapshot{ID: snapshotID, TakenAt: time.Now().UTC()}
	return analysis.BuildRequest(site, poiSrc, compSrc, demoSrc, snap)
}

func runAnalyze(c *cli.Context) error {
	logger := initLogger(c)

	scenario, err := loadScenario(c)
	if err != nil {
		return err
	}
	pipeline, err := analysis.NewPipeline(scenario)
	if err != nil {
		return err
	}
	pipeline.WithLogger(logger)

	site := geodata.RawSite{Lat: c.Float64("lat"), Lon: c.Float64("lon"), Address: c.String("address")}
	req, err := buildRequest(site, c.String("pois"), c.String("chargers"), c.String("census"), c.String("snapshot-id"))
	if err != nil {
		return err
	}

	result, err := pipeline.Run(req)
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(c.String("format"))
	if err != nil {
		return err
	}

	out := os.Stdout
	if path := c.String("out"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	if err := report.Write(out, format, result); err != nil {
		return err
	}

	// NO-GO is a successful analysis with a negative answer; scripts read
	// it off the exit code.
	if result.Verdict == feasibility.VerdictNoGo {
		return cli.Exit("", 2)
	}
	return nil
}

// =============================================================================
// BATCH COMMAND
// =============================================================================

// manifestEntry is one site in a batch manifest file. Payload paths are
// resolved as given.
type manifestEntry struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Address    string  `json:"address,omitempty"`
	POIs       string  `json:"pois,omitempty"`
	Chargers   string  `json:"chargers,omitempty"`
	Census     string  `json:"census,omitempty"`
	SnapshotID string  `json:"snapshot_id,omitempty"`
}

func batchCommand() *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Score many candidate sites from a manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "manifest",
				Aliases:  []string{"m"},
				Required: true,
				Usage:    "Path to a JSON manifest of candidate sites",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Value:   4,
				Usage:   "Concurrent scoring workers",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "table",
				Usage:   "Output format (table, json)",
			},
		},
		Action: runBatch,
	}
}

func runBatch(c *cli.Context) error {
	logger := initLogger(c)

	scenario, err := loadScenario(c)
	if err != nil {
		return err
	}
	pipeline, err := analysis.NewPipeline(scenario)
	if err != nil {
		return err
	}
	pipeline.WithLogger(logger)

	data, err := os.ReadFile(c.String("manifest"))
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	var entries []manifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("manifest has no sites")
	}

	jobs := make([]batch.Job, len(entries))
	for i, e := range entries {
		site := geodata.RawSite{Lat: e.Lat, Lon: e.Lon, Address: e.Address}
		req, err := buildRequest(site, e.POIs, e.Chargers, e.Census, e.SnapshotID)
		if err != nil {
			return fmt.Errorf("site %s: %w", e.Name, err)
		}
		name := e.Name
		if name == "" {
			name = fmt.Sprintf("site-%d", i+1)
		}
		jobs[i] = batch.Job{Name: name, Request: req}
	}

	runner := batch.NewRunner(pipeline, c.Int("workers")).WithLogger(logger)
	outcomes := runner.Run(context.Background(), jobs)

	if c.String("format") == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	}

	failed := 0
	fmt.Printf("%-20s %-10s %-9s %-8s\n", "SITE", "COMPOSITE", "VERDICT", "PARTIAL")
	for _, out := range outcomes {
		if out.Err != nil {
			failed++
			fmt.Printf("%-20s %-10s %-9s %-8s  (%v)\n", out.Name, "-", "ERROR", "-", out.Err)
			continue
		}
		fmt.Printf("%-20s %-10.1f %-9s %-8t\n", out.Name, out.Result.CompositeScore, out.Result.Verdict, out.Result.Partial)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sites failed", failed, len(outcomes))
	}
	return nil
}

// =============================================================================
// SERVE COMMAND
// =============================================================================

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the feasibility API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8080,
				Usage:   "HTTP port",
				EnvVars: []string{"CHARGEMAP_PORT"},
			},
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Disable ClickHouse run history",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	logger := initLogger(c)

	scenario, err := loadScenario(c)
	if err != nil {
		return err
	}
	pipeline, err := analysis.NewPipeline(scenario)
	if err != nil {
		return err
	}
	pipeline.WithLogger(logger)

	var store *clickhouse.Store
	if !c.Bool("no-history") {
		store, err = clickhouse.NewStore(clickhouse.ConfigFromEnv())
		if err != nil {
			return fmt.Errorf("connect run history store: %w", err)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("prepare run history schema: %w", err)
		}
	}

	cfg := api.DefaultConfig()
	cfg.Port = c.Int("port")
	return api.NewServer(pipeline, store, cfg, logger).StartWithGracefulShutdown()
}

// =============================================================================
// SCENARIO COMMAND
// =============================================================================

func scenarioCommand() *cli.Command {
	return &cli.Command{
		Name:  "scenario",
		Usage: "Inspect and validate scenario configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print the effective scenario as YAML",
				Action: func(c *cli.Context) error {
					s, err := loadScenario(c)
					if err != nil {
						return err
					}
					out, err := config.Dump(s)
					if err != nil {
						return err
					}
					fmt.Print(string(out))
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "Validate a scenario file and report problems",
				Action: func(c *cli.Context) error {
					s, err := loadScenario(c)
					if err != nil {
						return err
					}
					fmt.Printf("scenario %q is valid\n", s.Name)
					return nil
				},
			},
		},
	}
}
