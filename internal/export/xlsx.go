package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/model"
)

// workbook sheet names, in creation order.
const (
	sheetSummary      = "Summary"
	sheetTransactions = "Transactions"
	sheetTimeBuckets  = "Time Buckets"
	sheetCalculations = "Calculations"
	sheetAssumptions  = "Assumptions"
	sheetAuditTrail   = "Audit Trail"
)

// WriteWorkbook renders the full model as a multi-sheet workbook.
func (s *Service) WriteWorkbook(w io.Writer, m *model.NormalizedFinancialModel) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeWorkbookSheets(f, m); err != nil {
		s.log.AddError("Workbook export failed", nil, err)
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		s.log.AddError("Workbook export failed", nil, err)
		return fmt.Errorf("write workbook: %w", err)
	}

	s.log.Add(audit.EventExportGenerated, "Workbook export created",
		map[string]any{
			"transaction_count": len(m.Transactions),
			"bucket_count":      len(m.TimeBuckets),
		})

	return nil
}

func writeWorkbookSheets(f *excelize.File, m *model.NormalizedFinancialModel) error {
	writers := []struct {
		name  string
		write func(*excelize.File, string, *model.NormalizedFinancialModel) error
	}{
		{sheetSummary, writeSummarySheet},
		{sheetTransactions, writeTransactionsSheet},
		{sheetTimeBuckets, writeTimeBucketsSheet},
		{sheetCalculations, writeCalculationsSheet},
		{sheetAssumptions, writeAssumptionsSheet},
		{sheetAuditTrail, writeAuditTrailSheet},
	}

	for i, sw := range writers {
		if i == 0 {
			// The default sheet becomes the summary.
			if err := f.SetSheetName("Sheet1", sw.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sw.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", sw.name, err)
		}

		if err := sw.write(f, sw.name, m); err != nil {
			return fmt.Errorf("write sheet %s: %w", sw.name, err)
		}
	}

	return nil
}

func writeSummarySheet(f *excelize.File, name string, m *model.NormalizedFinancialModel) error {
	rows := [][]any{
		{"Process Type", string(m.ProcessDefinition.ProcessType)},
		{"Confidence", m.ProcessDefinition.Confidence},
		{"Reasoning", m.ProcessDefinition.InferenceReasoning},
		{"Time Granularity", string(m.ProcessDefinition.TimeGranularity)},
		{"Transactions", len(m.Transactions)},
		{"Time Buckets", len(m.TimeBuckets)},
		{"Entities", len(m.Entities)},
	}

	return writeRows(f, name, rows)
}

func writeTransactionsSheet(f *excelize.File, name string, m *model.NormalizedFinancialModel) error {
	rows := [][]any{{"ID", "Date", "Entity", "Amount", "Direction", "Category", "Description", "Reference", "Status"}}

	for _, tx := range m.Transactions {
		rows = append(rows, []any{
			tx.ID.String(), tx.Date.Format(time.DateOnly), tx.Entity, tx.Amount,
			string(tx.Direction), tx.Category, tx.Description, tx.Reference, string(tx.Status),
		})
	}

	return writeRows(f, name, rows)
}

func writeTimeBucketsSheet(f *excelize.File, name string, m *model.NormalizedFinancialModel) error {
	rows := [][]any{{"Period", "Start", "End", "Inflows", "Outflows", "Net Cash", "Transactions"}}

	for _, b := range m.TimeBuckets {
		rows = append(rows, []any{
			b.Period, b.StartDate.Format(time.DateOnly), b.EndDate.Format(time.DateOnly),
			b.Inflows, b.Outflows, b.NetCash, len(b.Transactions),
		})
	}

	return writeRows(f, name, rows)
}

// writeCalculationsSheet lists each metric with its value and its
// formula spelled out as text, so reviewers can audit the arithmetic.
func writeCalculationsSheet(f *excelize.File, name string, m *model.NormalizedFinancialModel) error {
	metrics := m.CalculatedMetrics

	rows := [][]any{
		{"Metric", "Value", "Formula"},
		{"Total Inflows", metrics.TotalInflows, "SUM(amount) WHERE direction = inflow"},
		{"Total Outflows", metrics.TotalOutflows, "SUM(amount) WHERE direction = outflow"},
		{"Net Cash Flow", metrics.NetCashFlow, "total_inflows - total_outflows"},
		{"Ending Cash Balance", metrics.EndingCashBalance, "net_cash_flow (no opening balance modeled)"},
		{"Average Daily Burn", metrics.AverageDailyBurn, "total_outflows / day_span"},
		{"Runway (months)", metrics.Runway, "ending_cash_balance / daily_burn / 30"},
		{"DSO", metrics.DaysSalesOutstanding, "outstanding_receivables / total_inflows * day_span"},
		{"DPO", metrics.DaysPayableOutstanding, "outstanding_payables / total_outflows * day_span"},
	}

	return writeRows(f, name, rows)
}

func writeAssumptionsSheet(f *excelize.File, name string, m *model.NormalizedFinancialModel) error {
	rows := [][]any{{"Assumption", "Value"}}

	for _, k := range sortedAssumptionKeys(m.ProcessDefinition.Assumptions) {
		rows = append(rows, []any{k, m.ProcessDefinition.Assumptions[k]})
	}

	return writeRows(f, name, rows)
}

func writeAuditTrailSheet(f *excelize.File, name string, m *model.NormalizedFinancialModel) error {
	rows := [][]any{{"Timestamp", "Event", "Description", "Error"}}

	for _, e := range m.AuditTrail {
		rows = append(rows, []any{
			e.Timestamp.UTC().Format(time.RFC3339), string(e.EventType), e.Description, e.ErrorMessage,
		})
	}

	return writeRows(f, name, rows)
}

func sortedAssumptionKeys(assumptions map[string]float64) []string {
	keys := make([]string, 0, len(assumptions))
	for k := range assumptions {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func writeRows(f *excelize.File, sheetName string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}

		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return fmt.Errorf("set row %d: %w", i+1, err)
		}
	}

	return nil
}
