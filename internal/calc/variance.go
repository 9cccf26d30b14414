package calc

import "github.com/cashlens-dev/cashlens/internal/model"

// VarianceStatus classifies a budget-vs-actual deviation.
type VarianceStatus string

const (
	VarianceFavorable   VarianceStatus = "favorable"
	VarianceUnfavorable VarianceStatus = "unfavorable"
	VarianceNeutral     VarianceStatus = "neutral"
)

// neutralBandPercent is the +/- band within which a variance is noise.
const neutralBandPercent = 5

// VarianceAnalysis compares one metric between a budget model and an
// actual model.
type VarianceAnalysis struct {
	Metric          string         `json:"metric"`
	Budget          float64        `json:"budget"`
	Actual          float64        `json:"actual"`
	Variance        float64        `json:"variance"`
	VariancePercent float64        `json:"variance_percent"`
	Status          VarianceStatus `json:"status"`
}

// AnalyzeVariance compares the headline metrics of two models. For
// total_outflows a negative variance is favorable (spent less than
// budgeted); for every other metric a positive variance is favorable.
func AnalyzeVariance(budget, actual model.CalculatedMetrics) []VarianceAnalysis {
	compared := []struct {
		name           string
		budget, actual float64
	}{
		{"total_inflows", budget.TotalInflows, actual.TotalInflows},
		{"total_outflows", budget.TotalOutflows, actual.TotalOutflows},
		{"net_cash_flow", budget.NetCashFlow, actual.NetCashFlow},
		{"ending_cash_balance", budget.EndingCashBalance, actual.EndingCashBalance},
	}

	analyses := make([]VarianceAnalysis, 0, len(compared))

	for _, c := range compared {
		variance := c.actual - c.budget

		percent := 0.0
		if c.budget != 0 {
			percent = variance / c.budget * 100
		}

		analyses = append(analyses, VarianceAnalysis{
			Metric:          c.name,
			Budget:          c.budget,
			Actual:          c.actual,
			Variance:        variance,
			VariancePercent: percent,
			Status:          classifyVariance(c.name, variance, percent),
		})
	}

	return analyses
}

func classifyVariance(metric string, variance, percent float64) VarianceStatus {
	if percent < neutralBandPercent && percent > -neutralBandPercent {
		return VarianceNeutral
	}

	favorable := variance > 0
	if metric == "total_outflows" {
		favorable = variance < 0
	}

	if favorable {
		return VarianceFavorable
	}

	return VarianceUnfavorable
}
