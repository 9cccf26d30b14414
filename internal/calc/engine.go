// Package calc is the deterministic calculation engine: pure arithmetic
// over a normalized model, no heuristics and no mutation of the input.
// Every denominator is guarded; metrics are never NaN or infinite.
package calc

import (
	"strings"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/model"
)

// daysPerMonth converts a daily burn rate into months of runway.
const daysPerMonth = 30

// Engine computes summary metrics, variance analyses and scenario
// simulations from a normalized model.
type Engine struct {
	log *audit.Logger
}

func New(log *audit.Logger) *Engine {
	return &Engine{log: log}
}

// Calculate computes the full metric set for a model and records the run
// in the audit trail. The model's transactions are read, never written.
func (e *Engine) Calculate(m *model.NormalizedFinancialModel) model.CalculatedMetrics {
	metrics := computeMetrics(m.Transactions, m.TimeBuckets)

	e.log.Add(audit.EventCalculationsRun, "Calculated metrics",
		map[string]any{
			"total_inflows":  metrics.TotalInflows,
			"total_outflows": metrics.TotalOutflows,
			"net_cash_flow":  metrics.NetCashFlow,
			"runway":         metrics.Runway,
		})

	return metrics
}

func computeMetrics(transactions []model.Transaction, buckets []model.TimeBucket) model.CalculatedMetrics {
	var inflows, outflows float64

	for _, tx := range transactions {
		// "both" transactions are counted in neither sum.
		switch tx.Direction {
		case model.DirectionInflow:
			inflows += tx.Amount
		case model.DirectionOutflow:
			outflows += tx.Amount
		}
	}

	netCash := inflows - outflows
	span := daySpan(transactions)
	dailyBurn := outflows / span

	runway := 0.0
	if dailyBurn > 0 {
		runway = netCash / dailyBurn / daysPerMonth
	}

	perPeriod := 0.0
	if len(buckets) > 0 {
		perPeriod = inflows / float64(len(buckets))
	}

	return model.CalculatedMetrics{
		TotalInflows:            inflows,
		TotalOutflows:           outflows,
		NetCashFlow:             netCash,
		EndingCashBalance:       netCash,
		AverageDailyBurn:        dailyBurn,
		Runway:                  runway,
		TotalRevenue:            inflows,
		AverageRevenuePerPeriod: perPeriod,
		DaysSalesOutstanding:    daysSalesOutstanding(transactions, inflows, span),
		DaysPayableOutstanding:  daysPayableOutstanding(transactions, outflows, span),
	}
}

// daySpan is the inclusive day difference between the earliest and latest
// transaction dates, at least 1.
func daySpan(transactions []model.Transaction) float64 {
	if len(transactions) == 0 {
		return 1
	}

	earliest := transactions[0].Date
	latest := transactions[0].Date

	for _, tx := range transactions[1:] {
		if tx.Date.Before(earliest) {
			earliest = tx.Date
		}

		if tx.Date.After(latest) {
			latest = tx.Date
		}
	}

	span := latest.Sub(earliest).Hours()/24 + 1
	if span < 1 {
		return 1
	}

	return span
}

// daysSalesOutstanding estimates how long receivables stay open:
// outstanding (receivable-categorized or pending) amounts over total
// inflows, scaled to the observed day span.
func daysSalesOutstanding(transactions []model.Transaction, totalInflows, span float64) float64 {
	if totalInflows == 0 {
		return 0
	}

	var outstanding float64

	for _, tx := range transactions {
		if strings.Contains(strings.ToLower(tx.Category), "receivable") || tx.Status == model.StatusPending {
			outstanding += tx.Amount
		}
	}

	return outstanding / totalInflows * span
}

// daysPayableOutstanding is the payable-side analogue of DSO.
func daysPayableOutstanding(transactions []model.Transaction, totalOutflows, span float64) float64 {
	if totalOutflows == 0 {
		return 0
	}

	var outstanding float64

	for _, tx := range transactions {
		category := strings.ToLower(tx.Category)
		if strings.Contains(category, "payable") || strings.Contains(category, "expense") {
			outstanding += tx.Amount
		}
	}

	return outstanding / totalOutflows * span
}

// CashFlowSeries returns the per-bucket net cash series and its running
// cumulative sum.
func CashFlowSeries(buckets []model.TimeBucket) (periodic, cumulative []float64) {
	periodic = make([]float64, len(buckets))
	cumulative = make([]float64, len(buckets))

	running := 0.0

	for i, b := range buckets {
		periodic[i] = b.NetCash
		running += b.NetCash
		cumulative[i] = running
	}

	return periodic, cumulative
}
