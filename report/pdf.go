package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/dskanth86/ev-charger-analytics/decision/feasibility"
)

// WritePDF renders the investor-facing one-pager.
func WritePDF(w io.Writer, result feasibility.Result) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 16)
	pdf.AddPage()

	pdf.Cell(0, 10, "EV Charging Site Feasibility Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)
	if result.Site.Address != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Site: %s", result.Site.Address))
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("Coordinates: %.5f, %.5f", result.Site.Lat(), result.Site.Lon()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Snapshot: %s (%s)", result.Snapshot.ID, result.Snapshot.TakenAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(0, 8, fmt.Sprintf("Verdict: %s  (composite %.1f / threshold %.0f)", result.Verdict, result.CompositeScore, result.GoThreshold))
	pdf.Ln(10)

	if result.Partial {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "Warning: one or more data sources were unavailable; neutral defaults were substituted.")
		pdf.Ln(8)
	}

	// Sub-score table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Factor", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Score", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Weight", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	rows := []struct {
		name   string
		score  float64
		weight float64
	}{
		{"Demand", result.Demand.Score, result.Weights.Demand},
		{"Competition", result.Competition.Score, result.Weights.Competition},
		{"Financial", result.FinancialScore, result.Weights.Financial},
	}
	for _, r := range rows {
		pdf.CellFormat(60, 6, r.name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.1f", r.score), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.2f", r.weight), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}
	pdf.Ln(6)

	// Financial summary
	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 7, "Financial Projection")
	pdf.Ln(7)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 5, fmt.Sprintf("Utilization: %.1f%%   Sessions/day: %d-%d", result.Financial.UtilizationIndex, result.Financial.SessionsPerDayLow, result.Financial.SessionsPerDayHigh))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Monthly revenue: $%s   Monthly profit: $%s", result.Financial.MonthlyRevenue.StringFixed(2), result.Financial.MonthlyProfit.StringFixed(2)))
	pdf.Ln(5)
	pdf.Cell(0, 5, fmt.Sprintf("Annual ROI: %s%%   Payback: %s", result.Financial.AnnualROIPct.StringFixed(1), paybackLabel(result)))
	pdf.Ln(8)

	if len(result.Financial.Forecast) > 0 {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(25, 6, "Year", "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, "Sessions/mo", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "Annual Profit", "1", 0, "C", false, 0, "")
		pdf.CellFormat(45, 6, "Cumulative ROI", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, y := range result.Financial.Forecast {
			pdf.CellFormat(25, 6, fmt.Sprintf("%d", y.Year), "1", 0, "C", false, 0, "")
			pdf.CellFormat(40, 6, fmt.Sprintf("%.0f", y.SessionsPerMonth), "1", 0, "R", false, 0, "")
			pdf.CellFormat(45, 6, "$"+y.AnnualProfit.StringFixed(2), "1", 0, "R", false, 0, "")
			pdf.CellFormat(45, 6, y.CumulativeROIPct.StringFixed(1)+"%", "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Result hash %s", result.Hash))

	return pdf.Output(w)
}
