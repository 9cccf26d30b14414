// Package export renders a normalized model for external consumption:
// delimited-text summaries, a multi-sheet workbook, and the plain-text
// audit trail. Exporters read the model and never mutate it.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/model"
)

// Service writes exports and records each one in the audit trail.
type Service struct {
	log *audit.Logger
}

func NewService(log *audit.Logger) *Service {
	return &Service{log: log}
}

// WriteSummaryCSV writes the one-file overview: every numeric metric
// plus transaction and bucket counts.
func (s *Service) WriteSummaryCSV(w io.Writer, m *model.NormalizedFinancialModel) error {
	cw := csv.NewWriter(w)

	records := [][]string{{"Type", "Name", "Value"}}

	for _, row := range metricRows(m.CalculatedMetrics) {
		records = append(records, []string{"Metric", row[0], row[1]})
	}

	records = append(records,
		[]string{"Transactions", "Count", strconv.Itoa(len(m.Transactions))},
		[]string{"Time Buckets", "Count", strconv.Itoa(len(m.TimeBuckets))},
	)

	if err := cw.WriteAll(records); err != nil {
		s.log.AddError("CSV export failed", nil, err)
		return fmt.Errorf("write summary csv: %w", err)
	}

	s.log.Add(audit.EventExportGenerated, "CSV summary export created",
		map[string]any{"metric_count": len(records) - 3})

	return nil
}

// WriteTransactionsCSV writes one row per transaction.
func (s *Service) WriteTransactionsCSV(w io.Writer, m *model.NormalizedFinancialModel) error {
	cw := csv.NewWriter(w)

	records := [][]string{{"id", "date", "entity", "amount", "direction", "category", "description", "reference", "status"}}

	for _, tx := range m.Transactions {
		records = append(records, []string{
			tx.ID.String(),
			tx.Date.Format(time.DateOnly),
			tx.Entity,
			formatAmount(tx.Amount),
			string(tx.Direction),
			tx.Category,
			tx.Description,
			tx.Reference,
			string(tx.Status),
		})
	}

	if err := cw.WriteAll(records); err != nil {
		s.log.AddError("CSV export failed", nil, err)
		return fmt.Errorf("write transactions csv: %w", err)
	}

	s.log.Add(audit.EventExportGenerated, "CSV transactions export created",
		map[string]any{"transaction_count": len(m.Transactions)})

	return nil
}

// WriteTimeBucketsCSV writes one row per time bucket.
func (s *Service) WriteTimeBucketsCSV(w io.Writer, m *model.NormalizedFinancialModel) error {
	cw := csv.NewWriter(w)

	records := [][]string{{"period", "start_date", "end_date", "inflows", "outflows", "net_cash", "transaction_count"}}

	for _, b := range m.TimeBuckets {
		records = append(records, []string{
			b.Period,
			b.StartDate.Format(time.DateOnly),
			b.EndDate.Format(time.DateOnly),
			formatAmount(b.Inflows),
			formatAmount(b.Outflows),
			formatAmount(b.NetCash),
			strconv.Itoa(len(b.Transactions)),
		})
	}

	if err := cw.WriteAll(records); err != nil {
		s.log.AddError("CSV export failed", nil, err)
		return fmt.Errorf("write time buckets csv: %w", err)
	}

	s.log.Add(audit.EventExportGenerated, "CSV time bucket export created",
		map[string]any{"bucket_count": len(m.TimeBuckets)})

	return nil
}

// WriteAuditTrail writes the model's audit trail as the plain-text
// document format.
func (s *Service) WriteAuditTrail(w io.Writer, m *model.NormalizedFinancialModel) error {
	if err := audit.WriteTrail(w, m.AuditTrail); err != nil {
		return fmt.Errorf("write audit trail: %w", err)
	}

	return nil
}

// metricRows flattens the metric struct to (name, value) pairs in a
// fixed order.
func metricRows(metrics model.CalculatedMetrics) [][2]string {
	rows := [][2]string{
		{"total_inflows", formatAmount(metrics.TotalInflows)},
		{"total_outflows", formatAmount(metrics.TotalOutflows)},
		{"net_cash_flow", formatAmount(metrics.NetCashFlow)},
		{"ending_cash_balance", formatAmount(metrics.EndingCashBalance)},
		{"average_daily_burn", formatAmount(metrics.AverageDailyBurn)},
		{"runway", formatAmount(metrics.Runway)},
		{"total_revenue", formatAmount(metrics.TotalRevenue)},
		{"average_revenue_per_period", formatAmount(metrics.AverageRevenuePerPeriod)},
		{"days_sales_outstanding", formatAmount(metrics.DaysSalesOutstanding)},
		{"days_payable_outstanding", formatAmount(metrics.DaysPayableOutstanding)},
	}

	if metrics.BudgetVariance != nil {
		rows = append(rows, [2]string{"budget_variance", formatAmount(*metrics.BudgetVariance)})
	}

	if metrics.BudgetVariancePercent != nil {
		rows = append(rows, [2]string{"budget_variance_percent", formatAmount(*metrics.BudgetVariancePercent)})
	}

	return rows
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
