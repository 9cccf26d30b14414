package parser_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/parser"
)

func TestParse_CommaDelimited(t *testing.T) {
	csv := `Invoice Date,Amount,Customer
2024-01-15,1200.50,Acme Corp
2024-02-03,880,Globex
`

	p := parser.New(audit.NewLogger())
	f, err := p.Parse(strings.NewReader(csv), "invoices.csv", int64(len(csv)), parser.FormatCSV)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)

	s := f.Sheets[0]
	assert.Equal(t, []string{"Invoice Date", "Amount", "Customer"}, s.Headers)
	require.Len(t, s.Rows, 2)

	v, ok := s.Rows[0].Get("amount")
	require.True(t, ok)
	assert.True(t, v.IsNumber)
	assert.InDelta(t, 1200.50, v.Number, 1e-9)

	v, ok = s.Rows[0].Get("customer")
	require.True(t, ok)
	assert.Equal(t, "Acme Corp", v.Raw)
}

func TestParse_SemicolonDelimited(t *testing.T) {
	csv := `Date;Amount;Vendor
2024-01-15;-588,74;INSTITUTO GESTAO
`

	p := parser.New(audit.NewLogger())
	f, err := p.Parse(strings.NewReader(csv), "export.csv", int64(len(csv)), parser.FormatCSV)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	require.Len(t, f.Sheets[0].Rows, 1)

	v, ok := f.Sheets[0].Rows[0].Get("vendor")
	require.True(t, ok)
	assert.Equal(t, "INSTITUTO GESTAO", v.Raw)
}

func TestParse_EmptyCellsAreAbsent(t *testing.T) {
	csv := `date,amount,notes
2024-01-15,100,
2024-01-16,,paid late
`

	p := parser.New(audit.NewLogger())
	f, err := p.Parse(strings.NewReader(csv), "gaps.csv", int64(len(csv)), parser.FormatCSV)
	require.NoError(t, err)

	rows := f.Sheets[0].Rows
	require.Len(t, rows, 2)

	_, ok := rows[0].Get("notes")
	assert.False(t, ok)

	_, ok = rows[1].Get("amount")
	assert.False(t, ok)

	v, ok := rows[1].Get("notes")
	require.True(t, ok)
	assert.Equal(t, "paid late", v.Raw)
}

func TestParse_SkipsBlankLines(t *testing.T) {
	csv := "date,amount\n2024-01-15,100\n,\n\n2024-01-16,200\n"

	p := parser.New(audit.NewLogger())
	f, err := p.Parse(strings.NewReader(csv), "blank.csv", int64(len(csv)), parser.FormatCSV)
	require.NoError(t, err)
	assert.Len(t, f.Sheets[0].Rows, 2)
}

func TestParse_HeaderOnly(t *testing.T) {
	csv := "date,amount,entity\n"

	p := parser.New(audit.NewLogger())
	f, err := p.Parse(strings.NewReader(csv), "empty.csv", int64(len(csv)), parser.FormatCSV)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Empty(t, f.Sheets[0].Rows)
	assert.Equal(t, []string{"date", "amount", "entity"}, f.Sheets[0].Headers)
}

func TestParse_EmptyFile(t *testing.T) {
	p := parser.New(audit.NewLogger())
	_, err := p.Parse(strings.NewReader(""), "empty.csv", 0, parser.FormatCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no header line")
}

func TestParse_RecordsAuditEntry(t *testing.T) {
	csv := "date,amount\n2024-01-15,100\n"

	log := audit.NewLogger()
	_, err := parser.New(log).Parse(strings.NewReader(csv), "ok.csv", int64(len(csv)), parser.FormatCSV)
	require.NoError(t, err)

	entries := log.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.EventFileIngested, entries[len(entries)-1].EventType)
}

func TestParse_FailureRecordsErrorEntry(t *testing.T) {
	log := audit.NewLogger()
	_, err := parser.New(log).Parse(strings.NewReader(""), "bad.csv", 0, parser.FormatCSV)
	require.Error(t, err)

	entries := log.Entries()
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.EventErrorOccurred, entries[len(entries)-1].EventType)
}

func TestFormatForFilename(t *testing.T) {
	assert.Equal(t, parser.FormatCSV, parser.FormatForFilename("export.CSV"))
	assert.Equal(t, parser.FormatCSV, parser.FormatForFilename("data.tsv"))
	assert.Equal(t, parser.FormatXLSX, parser.FormatForFilename("book.xlsx"))
	assert.Equal(t, parser.FormatXLSX, parser.FormatForFilename("mystery.bin"))
}

func TestParse_RaggedRows(t *testing.T) {
	csv := "date,amount,entity\n2024-01-15,100\n2024-01-16,200,Ops,extra\n"

	p := parser.New(audit.NewLogger())
	f, err := p.Parse(strings.NewReader(csv), "ragged.csv", int64(len(csv)), parser.FormatCSV)
	require.NoError(t, err)

	rows := f.Sheets[0].Rows
	require.Len(t, rows, 2)

	_, ok := rows[0].Get("entity")
	assert.False(t, ok)

	v, ok := rows[1].Get("entity")
	require.True(t, ok)
	assert.Equal(t, "Ops", v.Raw)
}
