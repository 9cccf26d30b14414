package pipeline_test

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/model"
	"github.com/cashlens-dev/cashlens/internal/pipeline"
	"github.com/cashlens-dev/cashlens/internal/schema"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestRun_RevenueSeries(t *testing.T) {
	path := writeFile(t, "revenue.csv", "date,revenue\n2024-01-01,100000\n2024-02-01,110000\n2024-03-01,121000\n")

	result, err := pipeline.New(nil).Run(context.Background(), path, nil)
	require.NoError(t, err)

	m := result.Model
	assert.Equal(t, model.ProcessMixedOps, m.ProcessDefinition.ProcessType)

	require.Len(t, m.Transactions, 3)
	for _, tx := range m.Transactions {
		assert.Equal(t, model.DirectionInflow, tx.Direction)
	}

	require.Len(t, m.TimeBuckets, 3)
	assert.Equal(t, 331000.0, m.CalculatedMetrics.TotalInflows)

	// The revenue column carries numeric values under an amount keyword.
	require.Len(t, result.Schema.Sheets, 1)

	var revenueColumn schema.ColumnInference
	for _, c := range result.Schema.Sheets[0].ColumnInferences {
		if c.ColumnName == "revenue" {
			revenueColumn = c
		}
	}

	assert.Equal(t, schema.TypeAmount, revenueColumn.SemanticType)
	assert.GreaterOrEqual(t, revenueColumn.Confidence, 90.0)
}

func TestRun_HeaderOnlyFile(t *testing.T) {
	path := writeFile(t, "empty.csv", "date,amount\n")

	result, err := pipeline.New(nil).Run(context.Background(), path, nil)
	require.NoError(t, err)

	m := result.Model
	assert.Empty(t, m.Transactions)
	assert.Empty(t, m.TimeBuckets)

	metrics := m.CalculatedMetrics
	assert.Equal(t, 0.0, metrics.TotalInflows)
	assert.Equal(t, 0.0, metrics.TotalOutflows)
	assert.Equal(t, 0.0, metrics.Runway)
	assert.False(t, math.IsNaN(metrics.Runway))
	assert.False(t, math.IsInf(metrics.Runway, 0))
}

func TestRun_AuditTrailCoversStages(t *testing.T) {
	path := writeFile(t, "flow.csv", "date,amount\n2024-01-15,100\n")

	result, err := pipeline.New(nil).Run(context.Background(), path, nil)
	require.NoError(t, err)

	var events []audit.EventType
	for _, e := range result.Model.AuditTrail {
		events = append(events, e.EventType)
	}

	assert.Equal(t, []audit.EventType{
		audit.EventFileIngested,
		audit.EventSchemaInferred,
		audit.EventProcessDetected,
		audit.EventDataNormalized,
		audit.EventCalculationsRun,
	}, events)
}

func TestRun_ManualOverride(t *testing.T) {
	path := writeFile(t, "flow.csv", "date,amount\n2024-01-15,100\n")

	override := &model.ProcessDefinition{
		ProcessType:        model.ProcessFundOps,
		TimeGranularity:    model.GranularityMonthly,
		InflowSources:      []string{"other"},
		OutflowSources:     []string{"other"},
		Confidence:         100,
		InferenceReasoning: "Process type supplied by caller",
	}

	result, err := pipeline.New(nil).Run(context.Background(), path, override)
	require.NoError(t, err)

	assert.Equal(t, model.ProcessFundOps, result.Model.ProcessDefinition.ProcessType)
	assert.Equal(t, 100.0, result.Model.ProcessDefinition.Confidence)

	var overridden bool
	for _, e := range result.Model.AuditTrail {
		if e.EventType == audit.EventManualOverride {
			overridden = true
		}
	}

	assert.True(t, overridden)
}

func TestRun_MissingFile(t *testing.T) {
	_, err := pipeline.New(nil).Run(context.Background(), filepath.Join(t.TempDir(), "absent.csv"), nil)
	assert.Error(t, err)
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	path := writeFile(t, "repeat.csv", "date,revenue,department\n2024-01-01,100,Ops\n2024-02-01,200,Ops\n")

	first, err := pipeline.New(nil).Run(context.Background(), path, nil)
	require.NoError(t, err)

	second, err := pipeline.New(nil).Run(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Model.CalculatedMetrics, second.Model.CalculatedMetrics)
	assert.Equal(t, first.Model.ProcessDefinition, second.Model.ProcessDefinition)
	require.Len(t, second.Model.Transactions, len(first.Model.Transactions))

	for i := range first.Model.Transactions {
		assert.Equal(t, first.Model.Transactions[i].Direction, second.Model.Transactions[i].Direction)
		assert.Equal(t, first.Model.Transactions[i].Amount, second.Model.Transactions[i].Amount)
	}
}
