// Package finance computes the financial projection for a candidate site:
// utilization-driven revenue, operating cost, ROI and payback period. All
// monetary math is decimal; every constant comes from configuration.
package finance

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/dskanth86/ev-charger-analytics/config"
	"github.com/dskanth86/ev-charger-analytics/pkg/scoring"
)

const (
	monthsPerYear   = 12
	avgDaysPerMonth = 30.4
)

// Projection is the financial output for one candidate site.
type Projection struct {
	// UtilizationIndex is the monotone blend of demand and competition
	// sub-scores, 0-100.
	UtilizationIndex float64 `json:"utilization_index"`
	SessionsPerMonth float64 `json:"sessions_per_month"`
	// Daily session band for reporting; the point estimate sits inside it.
	SessionsPerDayLow  int `json:"sessions_per_day_low"`
	SessionsPerDayHigh int `json:"sessions_per_day_high"`

	CapitalCost          decimal.Decimal `json:"capital_cost"`
	MonthlyRevenue       decimal.Decimal `json:"monthly_revenue"`
	MonthlyEnergyCost    decimal.Decimal `json:"monthly_energy_cost"`
	MonthlyOperatingCost decimal.Decimal `json:"monthly_operating_cost"`
	MonthlyProfit        decimal.Decimal `json:"monthly_profit"`

	AnnualROIPct decimal.Decimal `json:"annual_roi_pct"`

	// PaybackMonths is meaningful only when PaybackUnreachable is false.
	// When monthly profit is non-positive the payback horizon does not
	// exist; that is a sentinel, never a division fault.
	PaybackMonths      decimal.Decimal `json:"payback_months"`
	PaybackUnreachable bool            `json:"payback_unreachable"`

	Forecast []ForecastYear `json:"forecast,omitempty"`
}

// ForecastYear is one year of the fixed-growth-rate outlook.
type ForecastYear struct {
	Year             int             `json:"year"`
	SessionsPerMonth float64         `json:"sessions_per_month"`
	AnnualProfit     decimal.Decimal `json:"annual_profit"`
	CumulativeProfit decimal.Decimal `json:"cumulative_profit"`
	CumulativeROIPct decimal.Decimal `json:"cumulative_roi_pct"`
}

// Model projects site economics. Stateless; safe for concurrent use.
type Model struct {
	cfg config.FinanceConfig
}

func NewModel(cfg config.FinanceConfig) *Model {
	return &Model{cfg: cfg}
}

// Project derives utilization from the demand and competition sub-scores
// and runs the revenue/cost model. Both inputs are 0-100; higher demand and
// a higher (less contested) competition score raise utilization, scaled by
// the configured maximum station throughput.
func (m *Model) Project(demandScore, competitionScore float64) Projection {
	index := scoring.Clamp(m.cfg.Blend.Demand*demandScore + m.cfg.Blend.Competition*competitionScore)
	sessions := m.cfg.MaxSessionsPerMonth * index / 100

	p := Projection{
		UtilizationIndex: index,
		SessionsPerMonth: sessions,
		CapitalCost:      decimal.NewFromFloat(m.cfg.CapitalCost),
	}
	p.SessionsPerDayLow, p.SessionsPerDayHigh = sessionBand(sessions)

	sessionsDec := decimal.NewFromFloat(sessions)
	p.MonthlyRevenue = sessionsDec.Mul(m.revenuePerSession()).Round(2)
	p.MonthlyEnergyCost = sessionsDec.Mul(m.energyCostPerSession()).Round(2)
	p.MonthlyOperatingCost = decimal.NewFromFloat(m.cfg.FixedMonthlyCost).Add(p.MonthlyEnergyCost).Round(2)
	p.MonthlyProfit = p.MonthlyRevenue.Sub(p.MonthlyOperatingCost)

	annualProfit := p.MonthlyProfit.Mul(decimal.NewFromInt(monthsPerYear))
	p.AnnualROIPct = annualProfit.Div(p.CapitalCost).Mul(decimal.NewFromInt(100)).Round(2)

	if p.MonthlyProfit.IsPositive() {
		p.PaybackMonths = p.CapitalCost.Div(p.MonthlyProfit).Round(1)
	} else {
		p.PaybackUnreachable = true
	}

	p.Forecast = m.forecast(sessions)
	return p
}

// revenuePerSession prefers the per-session price when configured and falls
// back to energy-based pricing (kWh per session x retail rate).
func (m *Model) revenuePerSession() decimal.Decimal {
	if m.cfg.PricePerSession > 0 {
		return decimal.NewFromFloat(m.cfg.PricePerSession)
	}
	return decimal.NewFromFloat(m.cfg.PricePerKWh).Mul(decimal.NewFromFloat(m.cfg.KWhPerSession))
}

func (m *Model) energyCostPerSession() decimal.Decimal {
	return decimal.NewFromFloat(m.cfg.EnergyRatePerKWh).Mul(decimal.NewFromFloat(m.cfg.KWhPerSession))
}

// sessionBand brackets the daily point estimate with a +/-25% reporting
// band. The band never collapses: high is at least low+1 once there is any
// traffic at all.
func sessionBand(sessionsPerMonth float64) (int, int) {
	perDay := sessionsPerMonth / avgDaysPerMonth
	if perDay <= 0 {
		return 0, 0
	}
	low := int(math.Floor(perDay * 0.75))
	high := int(math.Ceil(perDay * 1.25))
	if high <= low {
		high = low + 1
	}
	return low, high
}

// forecast projects profit over the configured horizon with fixed yearly
// growth in sessions, retail price and energy cost.
func (m *Model) forecast(baseSessions float64) []ForecastYear {
	years := m.cfg.ForecastYears
	if years <= 0 {
		return nil
	}

	out := make([]ForecastYear, 0, years)
	cumulative := decimal.Zero
	capital := decimal.NewFromFloat(m.cfg.CapitalCost)
	fixed := decimal.NewFromFloat(m.cfg.FixedMonthlyCost)

	for year := 1; year <= years; year++ {
		growth := math.Pow(1+m.cfg.SessionsGrowthRate, float64(year-1))
		priceGrowth := decimal.NewFromFloat(math.Pow(1+m.cfg.PriceGrowthRate, float64(year-1)))
		costGrowth := decimal.NewFromFloat(math.Pow(1+m.cfg.CostGrowthRate, float64(year-1)))

		sessions := baseSessions * growth
		sessionsDec := decimal.NewFromFloat(sessions)

		monthlyRevenue := sessionsDec.Mul(m.revenuePerSession().Mul(priceGrowth))
		monthlyCost := fixed.Add(sessionsDec.Mul(m.energyCostPerSession().Mul(costGrowth)))
		annual := monthlyRevenue.Sub(monthlyCost).Mul(decimal.NewFromInt(monthsPerYear)).Round(2)

		cumulative = cumulative.Add(annual)
		out = append(out, ForecastYear{
			Year:             year,
			SessionsPerMonth: sessions,
			AnnualProfit:     annual,
			CumulativeProfit: cumulative,
			CumulativeROIPct: cumulative.Div(capital).Mul(decimal.NewFromInt(100)).Round(2),
		})
	}
	return out
}
