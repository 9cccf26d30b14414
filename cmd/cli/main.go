package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/config"
	"github.com/cashlens-dev/cashlens/internal/export"
	"github.com/cashlens-dev/cashlens/internal/extraction"
	"github.com/cashlens-dev/cashlens/internal/model"
	"github.com/cashlens-dev/cashlens/internal/pipeline"
)

func main() {
	var (
		csvPath   = flag.String("csv", "", "write a summary CSV to this path")
		xlsxPath  = flag.String("xlsx", "", "write a full workbook to this path")
		auditPath = flag.String("audit", "", "write the audit trail to this path")
	)

	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: cashlens [flags] <file.csv|file.xlsx>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	extractor := extraction.New(cfg.Extraction.URL, cfg.Extraction.Token, cfg.Extraction.Timeout)

	result, err := pipeline.New(extractor).Run(context.Background(), flag.Arg(0), nil)
	if err != nil {
		slog.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	printSummary(result)

	exporter := export.NewService(audit.NewLogger())

	exports := []struct {
		path  string
		write func(*export.Service, *os.File, *model.NormalizedFinancialModel) error
	}{
		{*csvPath, func(s *export.Service, f *os.File, m *model.NormalizedFinancialModel) error {
			return s.WriteSummaryCSV(f, m)
		}},
		{*xlsxPath, func(s *export.Service, f *os.File, m *model.NormalizedFinancialModel) error {
			return s.WriteWorkbook(f, m)
		}},
		{*auditPath, func(s *export.Service, f *os.File, m *model.NormalizedFinancialModel) error {
			return s.WriteAuditTrail(f, m)
		}},
	}

	for _, e := range exports {
		if e.path == "" {
			continue
		}

		if err := writeExport(e.path, result.Model, exporter, e.write); err != nil {
			slog.Error("export failed", "path", e.path, "error", err)
			os.Exit(1)
		}
	}
}

func printSummary(result *pipeline.Result) {
	m := result.Model
	def := m.ProcessDefinition
	metrics := m.CalculatedMetrics

	fmt.Printf("Process type:       %s (confidence %.0f)\n", def.ProcessType, def.Confidence)
	fmt.Printf("Reasoning:          %s\n", def.InferenceReasoning)
	fmt.Printf("Schema confidence:  %.0f%%\n", result.Schema.OverallConfidence)
	fmt.Printf("Transactions:       %d\n", len(m.Transactions))
	fmt.Printf("Time buckets:       %d\n", len(m.TimeBuckets))
	fmt.Printf("Entities:           %d\n", len(m.Entities))
	fmt.Printf("Total inflows:      %.2f\n", metrics.TotalInflows)
	fmt.Printf("Total outflows:     %.2f\n", metrics.TotalOutflows)
	fmt.Printf("Net cash flow:      %.2f\n", metrics.NetCashFlow)
	fmt.Printf("Runway (months):    %.1f\n", metrics.Runway)

	if len(result.Validation.Warnings) > 0 {
		fmt.Println("Warnings:")

		for _, w := range result.Validation.Warnings {
			fmt.Printf("  - %s\n", w)
		}
	}
}

func writeExport(
	path string,
	m *model.NormalizedFinancialModel,
	exporter *export.Service,
	write func(*export.Service, *os.File, *model.NormalizedFinancialModel) error,
) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := write(exporter, f, m); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
