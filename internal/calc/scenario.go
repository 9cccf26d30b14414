package calc

import (
	"fmt"
	"time"

	"github.com/cashlens-dev/cashlens/internal/model"
	"github.com/cashlens-dev/cashlens/internal/normalize"
)

// ScenarioParams are the named what-if levers. Zero-valued multipliers
// mean "unchanged"; day shifts move outflows later and inflows earlier.
type ScenarioParams struct {
	RevenueMultiplier       float64 `json:"revenue_multiplier,omitempty"`
	CostMultiplier          float64 `json:"cost_multiplier,omitempty"`
	PaymentDelayDays        int     `json:"payment_delay_days,omitempty"`
	PaymentAccelerationDays int     `json:"payment_acceleration_days,omitempty"`
}

// ScenarioSimulation is the outcome of one what-if run. The source model
// is untouched; metrics are recomputed on a cloned transaction set.
type ScenarioSimulation struct {
	ScenarioName     string                  `json:"scenario_name"`
	Description      string                  `json:"description"`
	Parameters       ScenarioParams          `json:"parameters"`
	ProjectedMetrics model.CalculatedMetrics `json:"projected_metrics"`
}

// SimulateScenario clones the model's transactions, applies the scenario
// parameters, and recomputes metrics on the clone.
func (e *Engine) SimulateScenario(m *model.NormalizedFinancialModel, name string, params ScenarioParams) ScenarioSimulation {
	cloned := make([]model.Transaction, len(m.Transactions))
	copy(cloned, m.Transactions)

	for i := range cloned {
		tx := &cloned[i]

		switch tx.Direction {
		case model.DirectionInflow:
			if params.RevenueMultiplier != 0 {
				tx.Amount *= params.RevenueMultiplier
			}

			if params.PaymentAccelerationDays != 0 {
				tx.Date = tx.Date.Add(-time.Duration(params.PaymentAccelerationDays) * 24 * time.Hour)
			}
		case model.DirectionOutflow:
			if params.CostMultiplier != 0 {
				tx.Amount *= params.CostMultiplier
			}

			if params.PaymentDelayDays != 0 {
				tx.Date = tx.Date.Add(time.Duration(params.PaymentDelayDays) * 24 * time.Hour)
			}
		}
	}

	buckets := normalize.Bucketize(cloned, m.ProcessDefinition.TimeGranularity)

	return ScenarioSimulation{
		ScenarioName:     name,
		Description:      fmt.Sprintf("Scenario: %s", name),
		Parameters:       params,
		ProjectedMetrics: computeMetrics(cloned, buckets),
	}
}

// ForecastCashFlow extends the model's last bucket into a deterministic
// monthly projection: inflows compound at growthRate, outflows stay flat.
func (e *Engine) ForecastCashFlow(m *model.NormalizedFinancialModel, months int, growthRate float64) []model.TimeBucket {
	if len(m.TimeBuckets) == 0 || months <= 0 {
		return nil
	}

	last := m.TimeBuckets[len(m.TimeBuckets)-1]
	inflow := last.Inflows * (1 + growthRate)
	outflow := last.Outflows
	cursor := last.EndDate

	forecast := make([]model.TimeBucket, 0, months)

	for i := 0; i < months; i++ {
		start := cursor
		cursor = cursor.AddDate(0, 1, 0)

		forecast = append(forecast, model.TimeBucket{
			Period:    fmt.Sprintf("FORECAST-%d", i+1),
			StartDate: start,
			EndDate:   cursor,
			Inflows:   inflow,
			Outflows:  outflow,
			NetCash:   inflow - outflow,
		})

		inflow *= 1 + growthRate
	}

	return forecast
}
