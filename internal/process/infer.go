// Package process infers the business workflow a financial file most
// likely represents, based on sheet-name and column-name indicators.
// The result is a confidence-scored best guess with a human-readable
// justification, never a certainty.
package process

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/model"
	"github.com/cashlens-dev/cashlens/internal/schema"
)

var (
	inflowIndicatorRe  = regexp.MustCompile(`revenue|sales|income|receipt|customer|ar|receivable`)
	outflowIndicatorRe = regexp.MustCompile(`expense|cost|payment|bill|vendor|ap|payable`)
	budgetIndicatorRe  = regexp.MustCompile(`budget|forecast|plan|projection|expected|planned`)
	fundIndicatorRe    = regexp.MustCompile(`fund|inflow|deployment|drawdown|allocation`)
)

// Engine picks exactly one process definition per file.
type Engine struct {
	log *audit.Logger
}

func New(log *audit.Logger) *Engine {
	return &Engine{log: log}
}

// Infer consumes the whole-file schema inference and returns the single
// most likely process definition.
func (e *Engine) Infer(inference schema.Inference) model.ProcessDefinition {
	inflow := countIndicators(inference, inflowIndicatorRe)
	outflow := countIndicators(inference, outflowIndicatorRe)
	budget := countIndicators(inference, budgetIndicatorRe)
	fund := countIndicators(inference, fundIndicatorRe)

	var (
		processType model.ProcessType
		reasoning   string
		confidence  float64
	)

	switch {
	case budget > 0:
		processType = model.ProcessBudgetActual
		reasoning = "Detected budget/actual variance analysis structure"
		confidence = 90
	case inflow > outflow:
		processType = model.ProcessRevenueAR
		reasoning = "Detected inflow-focused process with transaction patterns typical of revenue/AR"
		confidence = 85
	case outflow > inflow:
		processType = model.ProcessAPExpense
		reasoning = "Detected outflow-focused process with expense/AP patterns"
		confidence = 85
	case fund > 0:
		processType = model.ProcessFundOps
		reasoning = "Detected fund operations structure with inflows and outflows"
		confidence = 80
	default:
		processType = model.ProcessMixedOps
		reasoning = "Detected mixed operational finance with both inflows and outflows"
		confidence = 70
	}

	def := model.ProcessDefinition{
		ProcessType:        processType,
		TimeGranularity:    model.GranularityMonthly,
		InflowSources:      extractInflowSources(inference, processType),
		OutflowSources:     extractOutflowSources(inference, processType),
		EntityDimensions:   extractEntityDimensions(inference),
		Confidence:         confidence,
		InferenceReasoning: reasoning,
	}

	e.log.Add(audit.EventProcessDetected,
		fmt.Sprintf("Detected process type: %s", processType),
		map[string]any{
			"process_type": string(processType),
			"confidence":   confidence,
			"reasoning":    reasoning,
		})

	return def
}

// countIndicators counts sheets whose name matches the indicator set.
func countIndicators(inference schema.Inference, re *regexp.Regexp) int {
	count := 0

	for _, s := range inference.Sheets {
		if re.MatchString(strings.ToLower(s.SheetName)) {
			count++
		}
	}

	return count
}

// sourceRule maps a name pattern to the canonical source tags it implies.
type sourceRule struct {
	re   *regexp.Regexp
	tags []string
}

var inflowSourceRules = map[model.ProcessType][]sourceRule{
	model.ProcessRevenueAR: {
		{regexp.MustCompile(`revenue|sales|income`), []string{"revenue"}},
	},
	model.ProcessFundOps: {
		{regexp.MustCompile(`inflow|deployment|contribution|grant`), []string{"fundraising", "grants"}},
	},
	model.ProcessMixedOps: {
		{regexp.MustCompile(`revenue|sales|income|receipt`), []string{"revenue"}},
		{regexp.MustCompile(`interest|dividend|other`), []string{"other_income"}},
	},
}

var outflowSourceRules = map[model.ProcessType][]sourceRule{
	model.ProcessAPExpense: {
		{regexp.MustCompile(`expense|cost|bill`), []string{"operating_expenses"}},
	},
	model.ProcessFundOps: {
		{regexp.MustCompile(`operational|deployment|distribution`), []string{"operations", "distributions"}},
	},
	model.ProcessMixedOps: {
		{regexp.MustCompile(`expense|operational|payroll|rent`), []string{"operating_expenses"}},
		{regexp.MustCompile(`capital|capex|investment`), []string{"capital_expenditure"}},
	},
}

// extractInflowSources scans sheet and column names against the
// process-specific rules. The result is never empty: it is the
// sign-resolution vocabulary the normalizer consults.
func extractInflowSources(inference schema.Inference, t model.ProcessType) []string {
	return extractSources(inference, inflowSourceRules[t])
}

func extractOutflowSources(inference schema.Inference, t model.ProcessType) []string {
	return extractSources(inference, outflowSourceRules[t])
}

func extractSources(inference schema.Inference, rules []sourceRule) []string {
	var (
		sources []string
		seen    = map[string]bool{}
	)

	add := func(name string) {
		for _, rule := range rules {
			if !rule.re.MatchString(name) {
				continue
			}

			for _, tag := range rule.tags {
				if !seen[tag] {
					seen[tag] = true
					sources = append(sources, tag)
				}
			}
		}
	}

	for _, s := range inference.Sheets {
		add(strings.ToLower(s.SheetName))

		for _, c := range s.ColumnInferences {
			add(strings.ToLower(c.ColumnName))
		}
	}

	if len(sources) == 0 {
		return []string{"other"}
	}

	return sources
}

var entityDimensionRules = []sourceRule{
	{regexp.MustCompile(`department|division`), []string{"department"}},
	{regexp.MustCompile(`project|initiative`), []string{"project"}},
	{regexp.MustCompile(`fund|allocation`), []string{"fund"}},
	{regexp.MustCompile(`entity|company|account`), []string{"entity"}},
}

// extractEntityDimensions collects dimensions from columns classified as
// entities. May be empty; the normalizer then extracts no entities.
func extractEntityDimensions(inference schema.Inference) []string {
	var (
		dims []string
		seen = map[string]bool{}
	)

	for _, s := range inference.Sheets {
		for _, c := range s.ColumnInferences {
			if c.SemanticType != schema.TypeEntity {
				continue
			}

			for _, rule := range entityDimensionRules {
				if !rule.re.MatchString(strings.ToLower(c.ColumnName)) {
					continue
				}

				for _, tag := range rule.tags {
					if !seen[tag] {
						seen[tag] = true
						dims = append(dims, tag)
					}
				}
			}
		}
	}

	return dims
}
