// Package validate checks internal consistency of a normalized model.
// Findings are surfaced as data for review; validation never fails a
// pipeline run.
package validate

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/cashlens-dev/cashlens/internal/model"
)

// netCashEpsilon is the tolerated float drift between a bucket's netCash
// and the signed sum of its transactions.
const netCashEpsilon = 0.01

// Result collects validation findings. Errors mean the artifact violates
// an invariant; warnings flag suspicious but legal data.
type Result struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Result) finish() Result {
	r.Valid = len(r.Errors) == 0
	return *r
}

// Transaction checks a single transaction's invariants.
func Transaction(tx model.Transaction) Result {
	var r Result

	if tx.ID == uuid.Nil {
		r.errorf("transaction missing id")
	}

	if tx.Date.IsZero() {
		r.errorf("transaction %s missing date", tx.ID)
	}

	if math.IsNaN(tx.Amount) {
		r.errorf("transaction %s amount is not a number", tx.ID)
	}

	if tx.Amount < 0 {
		r.errorf("transaction %s has negative amount %v", tx.ID, tx.Amount)
	}

	if tx.Amount == 0 {
		r.warnf("transaction %s amount is zero", tx.ID)
	}

	switch tx.Direction {
	case model.DirectionInflow, model.DirectionOutflow, model.DirectionBoth:
	default:
		r.errorf("transaction %s has invalid direction %q", tx.ID, tx.Direction)
	}

	return r.finish()
}

// TimeBucket checks period fields and the netCash consistency invariant:
// inflows minus outflows must match netCash within epsilon. A mismatch is
// flagged as a warning, not an error.
func TimeBucket(b model.TimeBucket) Result {
	var r Result

	if b.Period == "" {
		r.errorf("time bucket missing period")
	}

	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		r.errorf("time bucket %s missing start or end date", b.Period)
	}

	if b.StartDate.After(b.EndDate) {
		r.errorf("time bucket %s start date after end date", b.Period)
	}

	if math.IsNaN(b.NetCash) {
		r.errorf("time bucket %s netCash is not a number", b.Period)
	}

	var signed float64

	for _, tx := range b.Transactions {
		switch tx.Direction {
		case model.DirectionInflow:
			signed += tx.Amount
		case model.DirectionOutflow:
			signed -= tx.Amount
		}
	}

	if math.Abs(signed-b.NetCash) > netCashEpsilon {
		r.warnf("time bucket %s transaction sum %v does not match netCash %v", b.Period, signed, b.NetCash)
	}

	return r.finish()
}

// ProcessDefinition checks the definition's enumerations and ranges.
func ProcessDefinition(def model.ProcessDefinition) Result {
	var r Result

	switch def.ProcessType {
	case model.ProcessRevenueAR, model.ProcessAPExpense, model.ProcessBudgetActual,
		model.ProcessFundOps, model.ProcessMixedOps:
	default:
		r.errorf("invalid process type %q", def.ProcessType)
	}

	if def.Confidence < 0 || def.Confidence > 100 {
		r.errorf("confidence %v outside 0-100", def.Confidence)
	}

	if len(def.InflowSources) == 0 {
		r.warnf("process definition has no inflow sources")
	}

	if len(def.OutflowSources) == 0 {
		r.warnf("process definition has no outflow sources")
	}

	return r.finish()
}

// Model validates every transaction and bucket of a model and aggregates
// the findings.
func Model(m *model.NormalizedFinancialModel) Result {
	var r Result

	if pd := ProcessDefinition(m.ProcessDefinition); !pd.Valid || len(pd.Warnings) > 0 {
		r.Errors = append(r.Errors, pd.Errors...)
		r.Warnings = append(r.Warnings, pd.Warnings...)
	}

	for _, tx := range m.Transactions {
		if res := Transaction(tx); !res.Valid || len(res.Warnings) > 0 {
			r.Errors = append(r.Errors, res.Errors...)
			r.Warnings = append(r.Warnings, res.Warnings...)
		}
	}

	for _, b := range m.TimeBuckets {
		if res := TimeBucket(b); !res.Valid || len(res.Warnings) > 0 {
			r.Errors = append(r.Errors, res.Errors...)
			r.Warnings = append(r.Warnings, res.Warnings...)
		}
	}

	return r.finish()
}
