// Package report renders a feasibility result for humans and machines. It
// consumes the result read-only; nothing here can change a verdict.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
)

// Format selects an output renderer.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
	FormatPDF      Format = "pdf"
)

// ParseFormat validates a format flag value.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatTable, FormatJSON, FormatMarkdown, FormatPDF:
		return Format(raw), nil
	case "":
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown report format %q", raw)
}

// Write renders the result in the requested format.
func Write(w io.Writer, format Format, result feasibility.Result) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, result)
	case FormatMarkdown:
		return WriteMarkdown(w, result)
	case FormatPDF:
		return WritePDF(w, result)
	default:
		return WriteTable(w, result)
	}
}

func WriteJSON(w io.Writer, result feasibility.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func verdictLabel(result feasibility.Result) string {
	if result.Verdict == feasibility.VerdictGo {
		return "✅ GO"
	}
	return "❌ NO-GO"
}

func paybackLabel(result feasibility.Result) string {
	if result.Financial.PaybackUnreachable {
		return "not reachable"
	}
	return result.Financial.PaybackMonths.StringFixed(1) + " months"
}

func WriteTable(w io.Writer, result feasibility.Result) error {
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	line("")
	line("╔══════════════════════════════════════════════════════════════╗")
	line("║                ⚡ SITE FEASIBILITY ASSESSMENT                 ║")
	line("╠══════════════════════════════════════════════════════════════╣")
	if result.Site.Address != "" {
		line("║  Site:                  %-37s ║", truncate(result.Site.Address, 37))
	}
	line("║  Coordinates:           %-37s ║", fmt.Sprintf("%.5f, %.5f", result.Site.Lat(), result.Site.Lon()))
	line("║  Composite Score:       %-37s ║", fmt.Sprintf("%.1f / 100 (threshold %.0f)", result.CompositeScore, result.GoThreshold))
	line("║  Verdict:               %-37s ║", verdictLabel(result))
	line("╠══════════════════════════════════════════════════════════════╣")
	line("║  SUB-SCORES                                                  ║")
	line("╠══════════════════════════════════════════════════════════════╣")
	line("║  Demand:                %-37s ║", fmt.Sprintf("%.1f (weight %.2f)", result.Demand.Score, result.Weights.Demand))
	line("║  Competition:           %-37s ║", fmt.Sprintf("%.1f (weight %.2f)", result.Competition.Score, result.Weights.Competition))
	line("║  Financial:             %-37s ║", fmt.Sprintf("%.1f (weight %.2f)", result.FinancialScore, result.Weights.Financial))
	line("╠══════════════════════════════════════════════════════════════╣")
	line("║  FINANCIAL PROJECTION                                        ║")
	line("╠══════════════════════════════════════════════════════════════╣")
	line("║  Utilization:           %-37s ║", fmt.Sprintf("%.1f%%", result.Financial.UtilizationIndex))
	line("║  Sessions / day:        %-37s ║", fmt.Sprintf("%d–%d (est. %.1f/mo)", result.Financial.SessionsPerDayLow, result.Financial.SessionsPerDayHigh, result.Financial.SessionsPerMonth))
	line("║  Monthly Revenue:       $%-36s ║", result.Financial.MonthlyRevenue.StringFixed(2))
	line("║  Monthly Profit:        $%-36s ║", result.Financial.MonthlyProfit.StringFixed(2))
	line("║  Annual ROI:            %-37s ║", result.Financial.AnnualROIPct.StringFixed(1)+"%")
	line("║  Payback:               %-37s ║", paybackLabel(result))

	if result.Partial {
		line("╠══════════════════════════════════════════════════════════════╣")
		line("║  ⚠️  PARTIAL DATA: one or more sources were unavailable and   ║")
		line("║  neutral defaults were substituted. Treat with caution.      ║")
	}

	line("╠══════════════════════════════════════════════════════════════╣")
	line("║  Snapshot:              %-37s ║", truncate(result.Snapshot.ID, 37))
	line("║  Result Hash:           %-37s ║", truncate(result.Hash, 37))
	line("╚══════════════════════════════════════════════════════════════╝")
	return nil
}

func WriteMarkdown(w io.Writer, result feasibility.Result) error {
	p := func(format string, args ...interface{}) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	p("## ⚡ Site Feasibility Report")
	p("")
	p("| Metric | Value |")
	p("|--------|-------|")
	if result.Site.Address != "" {
		p("| **Site** | %s |", result.Site.Address)
	}
	p("| **Coordinates** | %.5f, %.5f |", result.Site.Lat(), result.Site.Lon())
	p("| **Composite Score** | %.1f / 100 |", result.CompositeScore)
	p("| **Threshold** | %.0f |", result.GoThreshold)
	p("| **Verdict** | %s |", result.Verdict)
	if result.Partial {
		p("| **Data Coverage** | ⚠️ partial, defaults substituted |")
	}
	p("")
	p("### 📊 Sub-Scores")
	p("")
	p("| Factor | Score | Weight |")
	p("|--------|-------|--------|")
	p("| Demand | %.1f | %.2f |", result.Demand.Score, result.Weights.Demand)
	p("| Competition | %.1f | %.2f |", result.Competition.Score, result.Weights.Competition)
	p("| Financial | %.1f | %.2f |", result.FinancialScore, result.Weights.Financial)
	p("")
	p("### 🏷️ Demand Breakdown")
	p("")
	p("| Category | Records | Density | Points | Measured |")
	p("|----------|---------|---------|--------|----------|")
	for _, c := range result.Demand.Breakdown {
		measured := "yes"
		if !c.Present {
			measured = "no (default)"
		}
		p("| %s | %d | %.2f | %.1f | %s |", c.Category, c.Records, c.RawDensity, c.Points, measured)
	}
	p("")
	p("### 💰 Financial Projection")
	p("")
	p("| Metric | Value |")
	p("|--------|-------|")
	p("| Utilization | %.1f%% |", result.Financial.UtilizationIndex)
	p("| Sessions per day | %d–%d |", result.Financial.SessionsPerDayLow, result.Financial.SessionsPerDayHigh)
	p("| Monthly revenue | $%s |", result.Financial.MonthlyRevenue.StringFixed(2))
	p("| Monthly profit | $%s |", result.Financial.MonthlyProfit.StringFixed(2))
	p("| Annual ROI | %s%% |", result.Financial.AnnualROIPct.StringFixed(1))
	p("| Payback | %s |", paybackLabel(result))

	if len(result.Financial.Forecast) > 0 {
		p("")
		p("### 📈 Forecast")
		p("")
		p("| Year | Sessions/mo | Annual Profit | Cumulative ROI |")
		p("|------|-------------|---------------|----------------|")
		for _, y := range result.Financial.Forecast {
			p("| %d | %.0f | $%s | %s%% |", y.Year, y.SessionsPerMonth, y.AnnualProfit.StringFixed(2), y.CumulativeROIPct.StringFixed(1))
		}
	}

	p("")
	p("_Snapshot `%s`, result hash `%s`._", result.Snapshot.ID, result.Hash)
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
