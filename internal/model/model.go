// Package model holds the canonical financial model produced by the
// ingestion pipeline: the inferred process definition, normalized
// transactions, time buckets and calculated metrics.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/cashlens-dev/cashlens/internal/audit"
)

// Direction represents which way cash moves in a transaction.
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
	// DirectionBoth marks a transaction whose sign could not be resolved.
	// Such transactions are counted in neither inflow nor outflow sums.
	DirectionBoth Direction = "both"
)

// Status represents the lifecycle state of a transaction.
type Status string

const (
	StatusPosted    Status = "posted"
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
)

// ProcessType is the business workflow a file most likely represents.
type ProcessType string

const (
	ProcessRevenueAR    ProcessType = "revenue_ar"
	ProcessAPExpense    ProcessType = "ap_expense"
	ProcessBudgetActual ProcessType = "budget_actual"
	ProcessFundOps      ProcessType = "fund_ops"
	ProcessMixedOps     ProcessType = "mixed_ops"
)

// Granularity is the time-bucket period size.
type Granularity string

const (
	GranularityDaily     Granularity = "daily"
	GranularityWeekly    Granularity = "weekly"
	GranularityMonthly   Granularity = "monthly"
	GranularityQuarterly Granularity = "quarterly"
	GranularityAnnual    Granularity = "annual"
)

// ProcessDefinition describes the inferred (or caller-supplied) business
// process for a whole file. Exactly one is chosen per pipeline run.
type ProcessDefinition struct {
	ProcessType        ProcessType        `json:"process_type"`
	TimeGranularity    Granularity        `json:"time_granularity"`
	InflowSources      []string           `json:"inflow_sources"`
	OutflowSources     []string           `json:"outflow_sources"`
	EntityDimensions   []string           `json:"entity_dimensions"`
	Assumptions        map[string]float64 `json:"assumptions,omitempty"`
	Confidence         float64            `json:"confidence"`
	InferenceReasoning string             `json:"inference_reasoning"`
}

// Transaction is one normalized financial movement. Amount is always a
// non-negative magnitude; the sign lives in Direction.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	Date        time.Time         `json:"date"`
	Entity      string            `json:"entity"`
	Amount      float64           `json:"amount"`
	Direction   Direction         `json:"direction"`
	Category    string            `json:"category"`
	Description string            `json:"description"`
	Reference   string            `json:"reference"`
	IsAccrual   bool              `json:"is_accrual"`
	Status      Status            `json:"status"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// TimeBucket aggregates the transactions of one period. StartDate and
// EndDate are the first and last transaction dates in the bucket, not
// calendar boundaries.
type TimeBucket struct {
	Period       string        `json:"period"`
	StartDate    time.Time     `json:"start_date"`
	EndDate      time.Time     `json:"end_date"`
	Transactions []Transaction `json:"transactions"`
	Inflows      float64       `json:"inflows"`
	Outflows     float64       `json:"outflows"`
	NetCash      float64       `json:"net_cash"`
}

// EntityHierarchy is one distinct (dimension, value) pair observed in the
// input, e.g. ("department", "Engineering").
type EntityHierarchy struct {
	ID             uuid.UUID         `json:"id"`
	Name           string            `json:"name"`
	EntityType     string            `json:"entity_type"`
	ParentEntityID *uuid.UUID        `json:"parent_entity_id,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// CalculatedMetrics is the deterministic numeric summary of a model.
type CalculatedMetrics struct {
	TotalInflows      float64 `json:"total_inflows"`
	TotalOutflows     float64 `json:"total_outflows"`
	NetCashFlow       float64 `json:"net_cash_flow"`
	EndingCashBalance float64 `json:"ending_cash_balance"`
	AverageDailyBurn  float64 `json:"average_daily_burn"`
	// Runway is months of operation remaining at the current burn rate.
	// Zero burn is reported as 0, not infinity.
	Runway                  float64            `json:"runway"`
	TotalRevenue            float64            `json:"total_revenue"`
	AverageRevenuePerPeriod float64            `json:"average_revenue_per_period"`
	DaysSalesOutstanding    float64            `json:"days_sales_outstanding"`
	DaysPayableOutstanding  float64            `json:"days_payable_outstanding"`
	BudgetVariance          *float64           `json:"budget_variance,omitempty"`
	BudgetVariancePercent   *float64           `json:"budget_variance_percent,omitempty"`
	Custom                  map[string]float64 `json:"custom,omitempty"`
}

// NormalizedFinancialModel is the unit exchanged with exporters and the
// calculation engine. Read-only after the pipeline run that built it,
// except CalculatedMetrics which the calculation engine fills in.
type NormalizedFinancialModel struct {
	ProcessDefinition ProcessDefinition `json:"process_definition"`
	Entities          []EntityHierarchy `json:"entities"`
	Transactions      []Transaction     `json:"transactions"`
	TimeBuckets       []TimeBucket      `json:"time_buckets"`
	CalculatedMetrics CalculatedMetrics `json:"calculated_metrics"`
	AuditTrail        []audit.Entry     `json:"audit_trail"`
}
