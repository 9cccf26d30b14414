// Package pipeline runs the full ingestion sequence: parse, classify,
// infer process, normalize, calculate. Each run owns its audit logger
// and its model; concurrent runs over different files do not interact.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/calc"
	"github.com/cashlens-dev/cashlens/internal/extraction"
	"github.com/cashlens-dev/cashlens/internal/model"
	"github.com/cashlens-dev/cashlens/internal/normalize"
	"github.com/cashlens-dev/cashlens/internal/parser"
	"github.com/cashlens-dev/cashlens/internal/process"
	"github.com/cashlens-dev/cashlens/internal/schema"
	"github.com/cashlens-dev/cashlens/internal/validate"
)

// Pipeline wires the stages together. The extraction client is optional;
// when absent or failing, inference proceeds purely locally.
type Pipeline struct {
	extractor *extraction.Client
}

func New(extractor *extraction.Client) *Pipeline {
	return &Pipeline{extractor: extractor}
}

// Result bundles everything a run produces. The model carries the audit
// trail; schema and validation findings are surfaced for review.
type Result struct {
	Model      *model.NormalizedFinancialModel
	Schema     schema.Inference
	Validation validate.Result
}

// Run executes the pipeline on the file at path. A non-nil override
// bypasses process inference entirely and is recorded as a manual
// override in the audit trail.
func (p *Pipeline) Run(ctx context.Context, path string, override *model.ProcessDefinition) (*Result, error) {
	log := audit.NewLogger()

	parsed, err := parser.New(log).ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}

	inference := schema.Infer(parsed, log)

	var def model.ProcessDefinition
	if override != nil {
		def = *override
		log.Add(audit.EventManualOverride, "Process definition supplied by caller",
			map[string]any{"process_type": string(def.ProcessType)})
	} else {
		def = process.New(log).Infer(inference)
	}

	p.enrichAssumptions(ctx, path, &def, log)

	m, err := normalize.New(log).Normalize(parsed.Sheets, def)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", err)
	}

	m.CalculatedMetrics = calc.New(log).Calculate(m)

	validation := validate.Model(m)
	for _, w := range validation.Warnings {
		slog.Warn("model validation finding", "warning", w)
	}

	m.AuditTrail = log.Entries()

	return &Result{Model: m, Schema: inference, Validation: validation}, nil
}

// enrichAssumptions opportunistically asks the external extraction
// service for named assumptions. Every failure path falls back to the
// locally inferred definition.
func (p *Pipeline) enrichAssumptions(ctx context.Context, path string, def *model.ProcessDefinition, log *audit.Logger) {
	if !p.extractor.Enabled() {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		log.AddError("Cloud extraction skipped", map[string]any{"path": path}, err)
		return
	}
	defer f.Close()

	result, err := p.extractor.Extract(ctx, path, f)
	if err != nil {
		log.AddError("Cloud extraction failed, using local inference", nil, err)
		return
	}

	if def.Assumptions == nil {
		def.Assumptions = make(map[string]float64, len(result.Assumptions))
	}

	for k, v := range result.Assumptions {
		def.Assumptions[k] = v
	}

	log.Add(audit.EventSchemaInferred, "Cloud extraction enriched assumptions",
		map[string]any{
			"extracted_fields": len(result.ExtractedFields),
			"confidence":       result.Confidence,
		})
}
