package calc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/calc"
	"github.com/cashlens-dev/cashlens/internal/model"
)

func TestSimulateScenario_ScalesAmounts(t *testing.T) {
	m := modelWith(
		tx(day(2024, 1, 1), 1000, model.DirectionInflow),
		tx(day(2024, 1, 15), 400, model.DirectionOutflow),
	)

	sim := calc.New(audit.NewLogger()).SimulateScenario(m, "growth", calc.ScenarioParams{
		RevenueMultiplier: 1.2,
		CostMultiplier:    0.9,
	})

	assert.InDelta(t, 1200.0, sim.ProjectedMetrics.TotalInflows, 1e-9)
	assert.InDelta(t, 360.0, sim.ProjectedMetrics.TotalOutflows, 1e-9)
	assert.Equal(t, "growth", sim.ScenarioName)
}

func TestSimulateScenario_ShiftsDates(t *testing.T) {
	m := modelWith(
		tx(day(2024, 1, 25), 1000, model.DirectionInflow),
		tx(day(2024, 1, 25), 400, model.DirectionOutflow),
	)

	// Delaying outflows by 10 days pushes them into February's bucket;
	// accelerating inflows by 30 days pulls them into December's.
	sim := calc.New(audit.NewLogger()).SimulateScenario(m, "shift", calc.ScenarioParams{
		PaymentDelayDays:        10,
		PaymentAccelerationDays: 30,
	})

	assert.InDelta(t, 1000.0, sim.ProjectedMetrics.TotalInflows, 1e-9)
	assert.InDelta(t, 400.0, sim.ProjectedMetrics.TotalOutflows, 1e-9)
}

func TestSimulateScenario_Purity(t *testing.T) {
	m := modelWith(
		tx(day(2024, 1, 1), 1000, model.DirectionInflow),
		tx(day(2024, 2, 1), 400, model.DirectionOutflow),
	)

	originalAmounts := []float64{m.Transactions[0].Amount, m.Transactions[1].Amount}
	originalDates := []string{m.Transactions[0].Date.String(), m.Transactions[1].Date.String()}

	engine := calc.New(audit.NewLogger())
	params := calc.ScenarioParams{RevenueMultiplier: 1.5, PaymentDelayDays: 7}

	first := engine.SimulateScenario(m, "repeat", params)
	second := engine.SimulateScenario(m, "repeat", params)

	assert.Equal(t, first.ProjectedMetrics, second.ProjectedMetrics)

	// The source model is untouched.
	assert.Equal(t, originalAmounts[0], m.Transactions[0].Amount)
	assert.Equal(t, originalAmounts[1], m.Transactions[1].Amount)
	assert.Equal(t, originalDates[0], m.Transactions[0].Date.String())
	assert.Equal(t, originalDates[1], m.Transactions[1].Date.String())
}

func TestSimulateScenario_ZeroParamsLeaveMetricsUnchanged(t *testing.T) {
	m := modelWith(
		tx(day(2024, 1, 1), 1000, model.DirectionInflow),
		tx(day(2024, 2, 1), 400, model.DirectionOutflow),
	)

	engine := calc.New(audit.NewLogger())
	baseline := engine.Calculate(m)
	sim := engine.SimulateScenario(m, "noop", calc.ScenarioParams{})

	assert.Equal(t, baseline.TotalInflows, sim.ProjectedMetrics.TotalInflows)
	assert.Equal(t, baseline.TotalOutflows, sim.ProjectedMetrics.TotalOutflows)
	assert.Equal(t, baseline.NetCashFlow, sim.ProjectedMetrics.NetCashFlow)
}

func TestForecastCashFlow_CompoundsInflows(t *testing.T) {
	m := modelWith(
		tx(day(2024, 1, 10), 1000, model.DirectionInflow),
		tx(day(2024, 1, 20), 400, model.DirectionOutflow),
	)

	forecast := calc.New(audit.NewLogger()).ForecastCashFlow(m, 3, 0.1)
	require.Len(t, forecast, 3)

	assert.Equal(t, "FORECAST-1", forecast[0].Period)
	assert.InDelta(t, 1100.0, forecast[0].Inflows, 1e-9)
	assert.InDelta(t, 1210.0, forecast[1].Inflows, 1e-9)
	assert.InDelta(t, 400.0, forecast[2].Outflows, 1e-9)
	assert.True(t, forecast[0].EndDate.After(forecast[0].StartDate))
}

func TestForecastCashFlow_NoBucketsNoForecast(t *testing.T) {
	assert.Nil(t, calc.New(audit.NewLogger()).ForecastCashFlow(modelWith(), 3, 0.1))
	assert.Nil(t, calc.New(audit.NewLogger()).ForecastCashFlow(modelWith(tx(day(2024, 1, 1), 1, model.DirectionInflow)), 0, 0.1))
}
