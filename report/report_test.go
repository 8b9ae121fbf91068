package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/decision/competition"
	"github.com/dskanth86/ev-charger-analytics/decision/demand"
	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
	"github.com/dskanth86/ev-charger-analytics/decision/finance"
	"github.com/dskanth86/ev-charger-analytics/geodata"
)

func sampleResult(partial bool) feasibility.Result {
	return feasibility.Result{
		Site:           geodata.NewSite(41.8781, -87.6298, "233 S Wacker Dr, Chicago"),
		CompositeScore: 71.4,
		Verdict:        feasibility.VerdictGo,
		Demand: demand.SubScore{
			Score: 80,
			Breakdown: []demand.Contribution{
				{Category: geodata.CategoryPopulation, Records: 1, RawDensity: 8, Normalized: 0.2, Weight: 0.4, Points: 8, Present: true},
				{Category: geodata.CategoryPOI, Records: 12, RawDensity: 9.5, Normalized: 0.38, Weight: 0.35, Points: 13.3, Present: !partial},
			},
			Partial: partial,
		},
		Competition: competition.SubScore{Score: 65, TotalPressure: 2.1},
		Financial: finance.Projection{
			UtilizationIndex:   74,
			SessionsPerMonth:   148,
			SessionsPerDayLow:  3,
			SessionsPerDayHigh: 6,
			MonthlyRevenue:     decimal.NewFromFloat(740),
			MonthlyProfit:      decimal.NewFromFloat(510),
			AnnualROIPct:       decimal.NewFromFloat(12.2),
			PaybackMonths:      decimal.NewFromFloat(98.0),
			Forecast: []finance.ForecastYear{
				{Year: 1, SessionsPerMonth: 148, AnnualProfit: decimal.NewFromFloat(6120), CumulativeROIPct: decimal.NewFromFloat(12.2)},
			},
		},
		FinancialScore: 12.2,
		Weights:        config.Weights{Demand: 0.4, Competition: 0.3, Financial: 0.3},
		GoThreshold:    60,
		Partial:        partial,
		Snapshot:       feasibility.Snapshot{ID: "snap-report", TakenAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		Hash:           "deadbeef",
	}
}

func TestWriteJSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult(false)); err != nil {
		t.Fatal(err)
	}
	var decoded feasibility.Result
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Verdict != feasibility.VerdictGo || decoded.Hash != "deadbeef" {
		t.Errorf("round trip lost fields: %+v", decoded)
	}
}

func TestWriteTableShowsVerdictAndScores(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleResult(false)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"GO", "71.4", "snap-report", "deadbeef"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q", want)
		}
	}
	if strings.Contains(out, "PARTIAL DATA") {
		t.Error("complete result must not carry the partial warning")
	}
}

func TestWriteTablePartialWarning(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTable(&buf, sampleResult(true)); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "PARTIAL DATA") {
		t.Error("partial result must surface the warning")
	}
}

func TestWriteMarkdownSections(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMarkdown(&buf, sampleResult(true)); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Site Feasibility Report",
		"| Demand | 80.0 | 0.40 |",
		"Demand Breakdown",
		"no (default)",
		"### 📈 Forecast",
		"partial",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestWritePDFProducesDocument(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, sampleResult(false)); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("output does not start with a PDF header")
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatTable {
		t.Errorf("empty format = %v, %v; want table default", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("unknown format must error")
	}
	for _, raw := range []string{"table", "json", "markdown", "pdf"} {
		if _, err := ParseFormat(raw); err != nil {
			t.Errorf("ParseFormat(%q): %v", raw, err)
		}
	}
}
