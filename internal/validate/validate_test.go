package validate_test

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens-dev/cashlens/internal/model"
	"github.com/cashlens-dev/cashlens/internal/validate"
)

func validTx() model.Transaction {
	return model.Transaction{
		ID:        uuid.New(),
		Date:      time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:    100,
		Direction: model.DirectionInflow,
	}
}

func TestTransaction_Valid(t *testing.T) {
	r := validate.Transaction(validTx())
	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
	assert.Empty(t, r.Warnings)
}

func TestTransaction_MissingID(t *testing.T) {
	tx := validTx()
	tx.ID = uuid.Nil

	r := validate.Transaction(tx)
	assert.False(t, r.Valid)
}

func TestTransaction_NegativeAmount(t *testing.T) {
	tx := validTx()
	tx.Amount = -5

	r := validate.Transaction(tx)
	assert.False(t, r.Valid)
}

func TestTransaction_NaNAmount(t *testing.T) {
	tx := validTx()
	tx.Amount = math.NaN()

	r := validate.Transaction(tx)
	assert.False(t, r.Valid)
}

func TestTransaction_ZeroAmountWarns(t *testing.T) {
	tx := validTx()
	tx.Amount = 0

	r := validate.Transaction(tx)
	assert.True(t, r.Valid)
	assert.NotEmpty(t, r.Warnings)
}

func TestTransaction_InvalidDirection(t *testing.T) {
	tx := validTx()
	tx.Direction = "sideways"

	r := validate.Transaction(tx)
	assert.False(t, r.Valid)
}

func TestTimeBucket_NetCashConsistency(t *testing.T) {
	in := validTx()
	out := validTx()
	out.Amount = 40
	out.Direction = model.DirectionOutflow

	b := model.TimeBucket{
		Period:       "2024-01",
		StartDate:    in.Date,
		EndDate:      out.Date,
		Transactions: []model.Transaction{in, out},
		Inflows:      100,
		Outflows:     40,
		NetCash:      60,
	}

	r := validate.TimeBucket(b)
	assert.True(t, r.Valid)
	assert.Empty(t, r.Warnings)

	b.NetCash = 61
	r = validate.TimeBucket(b)
	assert.True(t, r.Valid)
	assert.NotEmpty(t, r.Warnings)
}

func TestTimeBucket_BothDirectionIgnoredInConsistencyCheck(t *testing.T) {
	both := validTx()
	both.Direction = model.DirectionBoth
	both.Amount = 999

	b := model.TimeBucket{
		Period:       "2024-01",
		StartDate:    both.Date,
		EndDate:      both.Date,
		Transactions: []model.Transaction{both},
		NetCash:      0,
	}

	r := validate.TimeBucket(b)
	assert.True(t, r.Valid)
	assert.Empty(t, r.Warnings)
}

func TestTimeBucket_MissingPeriod(t *testing.T) {
	r := validate.TimeBucket(model.TimeBucket{})
	assert.False(t, r.Valid)
}

func TestProcessDefinition(t *testing.T) {
	def := model.ProcessDefinition{
		ProcessType:    model.ProcessMixedOps,
		Confidence:     70,
		InflowSources:  []string{"other"},
		OutflowSources: []string{"other"},
	}

	r := validate.ProcessDefinition(def)
	assert.True(t, r.Valid)
	assert.Empty(t, r.Warnings)

	def.ProcessType = "unheard_of"
	def.Confidence = 120
	r = validate.ProcessDefinition(def)
	assert.False(t, r.Valid)
	require.Len(t, r.Errors, 2)
}

func TestModel_Aggregates(t *testing.T) {
	bad := validTx()
	bad.Amount = -1

	m := &model.NormalizedFinancialModel{
		ProcessDefinition: model.ProcessDefinition{
			ProcessType:    model.ProcessMixedOps,
			Confidence:     70,
			InflowSources:  []string{"other"},
			OutflowSources: []string{"other"},
		},
		Transactions: []model.Transaction{validTx(), bad},
	}

	r := validate.Model(m)
	assert.False(t, r.Valid)
	assert.NotEmpty(t, r.Errors)
}
