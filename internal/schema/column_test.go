package schema_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens-dev/cashlens/internal/schema"
	"github.com/cashlens-dev/cashlens/internal/sheet"
)

// rowsFor builds rows with a single column holding the given raw values.
func rowsFor(header string, values ...string) []sheet.Row {
	key := sheet.NormalizeHeader(header)
	rows := make([]sheet.Row, 0, len(values))

	for _, raw := range values {
		row := sheet.Row{}
		if v, ok := sheet.Coerce(raw); ok {
			row[key] = v
		}

		rows = append(rows, row)
	}

	return rows
}

func TestClassifyColumn_Date(t *testing.T) {
	c := schema.ClassifyColumn("Invoice Date", rowsFor("Invoice Date", "2024-01-15", "2024-02-03", "2024-03-20"))
	assert.Equal(t, schema.TypeDate, c.SemanticType)
	assert.Equal(t, 95.0, c.Confidence)
}

func TestClassifyColumn_Amount(t *testing.T) {
	c := schema.ClassifyColumn("amount", rowsFor("amount", "1200.50", "$880", "-45.10"))
	assert.Equal(t, schema.TypeAmount, c.SemanticType)
	assert.Equal(t, 90.0, c.Confidence)
}

func TestClassifyColumn_DateKeywordWithTextValues(t *testing.T) {
	// Header keyword alone is not enough; values must validate too.
	c := schema.ClassifyColumn("date", rowsFor("date", "next week", "soon", "whenever"))
	assert.Equal(t, schema.TypeUnknown, c.SemanticType)
	assert.Equal(t, 0.0, c.Confidence)
}

func TestClassifyColumn_Entity(t *testing.T) {
	c := schema.ClassifyColumn("Department", rowsFor("Department", "Engineering", "Sales"))
	assert.Equal(t, schema.TypeEntity, c.SemanticType)
	assert.Equal(t, 85.0, c.Confidence)
}

func TestClassifyColumn_Category(t *testing.T) {
	// "expense" is an amount keyword, but the text values fail the numeric
	// check, so the category keyword "type" wins.
	c := schema.ClassifyColumn("expense_type", rowsFor("expense_type", "travel", "software", "payroll"))
	assert.Equal(t, schema.TypeCategory, c.SemanticType)
	assert.Equal(t, 80.0, c.Confidence)
}

func TestClassifyColumn_Direction(t *testing.T) {
	c := schema.ClassifyColumn("Flow", rowsFor("Flow", "in", "out", "in", "OUT"))
	assert.Equal(t, schema.TypeDirection, c.SemanticType)
	assert.Equal(t, 85.0, c.Confidence)
}

func TestClassifyColumn_DirectionKeywordWithFreeText(t *testing.T) {
	c := schema.ClassifyColumn("Flow", rowsFor("Flow", "northbound", "southbound", "sideways"))
	assert.Equal(t, schema.TypeUnknown, c.SemanticType)
}

func TestClassifyColumn_Unknown(t *testing.T) {
	c := schema.ClassifyColumn("notes", rowsFor("notes", "call back", "paid late"))
	assert.Equal(t, schema.TypeUnknown, c.SemanticType)
	assert.Equal(t, 0.0, c.Confidence)
}

func TestClassifyColumn_EmptyColumnNeverValidates(t *testing.T) {
	// A date-named column with no values has nothing to validate against.
	c := schema.ClassifyColumn("date", nil)
	assert.Equal(t, schema.TypeUnknown, c.SemanticType)
}

func TestClassifyColumn_MonotonicInMatchingValues(t *testing.T) {
	// Swapping unparseable values for parseable ones never lowers the
	// resulting confidence.
	mixed := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		if i < 5 {
			mixed = append(mixed, "2024-01-15")
		} else {
			mixed = append(mixed, fmt.Sprintf("junk-%d", i))
		}
	}

	low := schema.ClassifyColumn("posted date", rowsFor("posted date", mixed...))

	for i := 5; i < 10; i++ {
		mixed[i] = "2024-02-01"
	}

	high := schema.ClassifyColumn("posted date", rowsFor("posted date", mixed...))

	assert.GreaterOrEqual(t, high.Confidence, low.Confidence)
	assert.Equal(t, schema.TypeDate, high.SemanticType)
}

func TestClassifyColumn_SeparatorNormalization(t *testing.T) {
	for _, header := range []string{"created_at", "created-at", "Created  At"} {
		c := schema.ClassifyColumn(header, rowsFor(header, "2024-01-15", "2024-02-01"))
		require.Equal(t, schema.TypeDate, c.SemanticType, header)
	}
}
