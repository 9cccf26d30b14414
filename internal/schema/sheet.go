package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/parser"
	"github.com/cashlens-dev/cashlens/internal/sheet"
)

// SheetType is the sheet-level category.
type SheetType string

const (
	SheetTransactions SheetType = "transactions"
	SheetMasterData   SheetType = "master_data"
	SheetBudget       SheetType = "budget"
	SheetForecast     SheetType = "forecast"
	SheetAssumptions  SheetType = "assumptions"
	SheetUnknown      SheetType = "unknown"
)

// SheetClassification aggregates the column inferences of one sheet.
// Confidence is the percentage of columns classified at >=70.
type SheetClassification struct {
	SheetName        string            `json:"sheet_name"`
	SheetType        SheetType         `json:"sheet_type"`
	Confidence       float64           `json:"confidence"`
	ColumnInferences []ColumnInference `json:"column_inferences"`
}

// Inference is the whole-file schema inference handed to process
// detection and surfaced for human review.
type Inference struct {
	FileMetadata                parser.Metadata       `json:"file_metadata"`
	Sheets                      []SheetClassification `json:"sheets"`
	OverallConfidence           float64               `json:"overall_confidence"`
	FlaggedLowConfidenceColumns []ColumnInference     `json:"flagged_low_confidence_columns,omitempty"`
}

// sheetTypeRules are checked in order against the sheet name and headers;
// the first match wins and overrides any column-derived signal.
var sheetTypeRules = []struct {
	re        *regexp.Regexp
	sheetType SheetType
}{
	{regexp.MustCompile(`budget|forecast|plan|projection`), SheetBudget},
	{regexp.MustCompile(`transaction|invoice|bill|payment|receipt`), SheetTransactions},
	{regexp.MustCompile(`master|chart.of.accounts|reference|lookup`), SheetMasterData},
	{regexp.MustCompile(`actual|realization|fact|recorded`), SheetForecast},
	{regexp.MustCompile(`assumption|parameter|config|setting`), SheetAssumptions},
}

// ClassifySheet classifies every column of a sheet and derives the
// sheet-level category and confidence.
func ClassifySheet(s sheet.RawSheet) SheetClassification {
	inferences := make([]ColumnInference, 0, len(s.Headers))
	for _, h := range s.Headers {
		inferences = append(inferences, ClassifyColumn(h, s.Rows))
	}

	confident := 0

	for _, c := range inferences {
		if c.Confidence >= 70 {
			confident++
		}
	}

	confidence := 0.0
	if len(inferences) > 0 {
		confidence = float64(confident) / float64(len(inferences)) * 100
	}

	return SheetClassification{
		SheetName:        s.Name,
		SheetType:        detectSheetType(s, inferences),
		Confidence:       confidence,
		ColumnInferences: inferences,
	}
}

func detectSheetType(s sheet.RawSheet, inferences []ColumnInference) SheetType {
	text := strings.ToLower(s.Name + " " + strings.Join(s.Headers, " "))

	for _, rule := range sheetTypeRules {
		if rule.re.MatchString(text) {
			return rule.sheetType
		}
	}

	hasAmount := hasType(inferences, TypeAmount)
	hasDate := hasType(inferences, TypeDate)

	switch {
	case hasAmount && hasDate:
		return SheetTransactions
	case hasAmount:
		return SheetMasterData
	}

	return SheetUnknown
}

func hasType(inferences []ColumnInference, t SemanticType) bool {
	for _, c := range inferences {
		if c.SemanticType == t {
			return true
		}
	}

	return false
}

// Infer classifies every sheet of a parsed file and aggregates the
// result. Columns below 70 confidence are flagged for optional human
// review; low confidence is data here, never an error.
func Infer(f *parser.File, log *audit.Logger) Inference {
	sheets := make([]SheetClassification, 0, len(f.Sheets))
	for _, s := range f.Sheets {
		sheets = append(sheets, ClassifySheet(s))
	}

	overall := 0.0

	var flagged []ColumnInference

	for _, s := range sheets {
		overall += s.Confidence

		for _, c := range s.ColumnInferences {
			if c.Confidence < 70 {
				flagged = append(flagged, c)
			}
		}
	}

	if len(sheets) > 0 {
		overall /= float64(len(sheets))
	}

	inference := Inference{
		FileMetadata:                f.Metadata,
		Sheets:                      sheets,
		OverallConfidence:           overall,
		FlaggedLowConfidenceColumns: flagged,
	}

	log.Add(audit.EventSchemaInferred,
		fmt.Sprintf("Inferred schema for %s", f.Metadata.Filename),
		map[string]any{
			"overall_confidence":          overall,
			"sheet_count":                 len(sheets),
			"low_confidence_column_count": len(flagged),
		})

	return inference
}
