// Package schema classifies columns and sheets by semantic role. The
// keyword sets here are a compatibility contract: they determine which
// real-world spreadsheets are recognized, so changing them changes
// behavior for every caller.
package schema

import (
	"regexp"
	"strings"

	"github.com/cashlens-dev/cashlens/internal/sheet"
)

// SemanticType is the business meaning assigned to a column, distinct
// from its raw data type.
type SemanticType string

const (
	TypeDate        SemanticType = "date"
	TypeAmount      SemanticType = "amount"
	TypeEntity      SemanticType = "entity"
	TypeCategory    SemanticType = "category"
	TypeDirection   SemanticType = "direction"
	TypeStatus      SemanticType = "status"
	TypeReference   SemanticType = "reference"
	TypeDescription SemanticType = "description"
	TypePeriod      SemanticType = "period"
	TypeUnknown     SemanticType = "unknown"
)

// ColumnInference is the classification of one column. Confidence is a
// 0-100 heuristic score, not a probability. UserOverride is the only
// mutation allowed after creation.
type ColumnInference struct {
	ColumnName       string        `json:"column_name"`
	SemanticType     SemanticType  `json:"semantic_type"`
	Confidence       float64       `json:"confidence"`
	SuggestedMapping string        `json:"suggested_mapping,omitempty"`
	UserOverride     *SemanticType `json:"user_override,omitempty"`
}

// maxSampleValues bounds how many cell values a column check inspects.
const maxSampleValues = 100

var (
	dateHeaderRe      = regexp.MustCompile(`date|time|created|posted|period`)
	amountHeaderRe    = regexp.MustCompile(`amount|value|balance|total|cost|revenue|expense|inflow|outflow`)
	entityHeaderRe    = regexp.MustCompile(`entity|department|project|fund|account|client|vendor|supplier`)
	categoryHeaderRe  = regexp.MustCompile(`category|type|class|kind|segment|region|location`)
	directionHeaderRe = regexp.MustCompile(`direction|flow|inflow|outflow|in|out`)

	headerSeparatorRe = regexp.MustCompile(`[\s_-]+`)
)

// directionTokens is the closed value set a direction column must contain.
var directionTokens = map[string]bool{
	"inflow":  true,
	"outflow": true,
	"in":      true,
	"out":     true,
	"+":       true,
	"-":       true,
}

// ClassifyColumn infers the semantic role of one column from its header
// and a bounded sample of its values. Checks run in a fixed order and the
// first match wins; header keywords gate every check so numeric-looking
// but unrelated columns (an ID column, say) are not classified as amounts.
func ClassifyColumn(header string, rows []sheet.Row) ColumnInference {
	normalized := normalizeHeader(header)
	samples := sampleValues(header, rows)

	switch {
	case dateHeaderRe.MatchString(normalized) && ratioMatching(samples, isDate) >= 0.8:
		return ColumnInference{ColumnName: header, SemanticType: TypeDate, Confidence: 95}
	case amountHeaderRe.MatchString(normalized) && ratioMatching(samples, isNumeric) >= 0.8:
		return ColumnInference{ColumnName: header, SemanticType: TypeAmount, Confidence: 90}
	case entityHeaderRe.MatchString(normalized):
		return ColumnInference{ColumnName: header, SemanticType: TypeEntity, Confidence: 85}
	case categoryHeaderRe.MatchString(normalized):
		return ColumnInference{ColumnName: header, SemanticType: TypeCategory, Confidence: 80}
	case directionHeaderRe.MatchString(normalized) && ratioMatching(samples, isDirectionToken) >= 0.7:
		return ColumnInference{ColumnName: header, SemanticType: TypeDirection, Confidence: 85}
	}

	return ColumnInference{ColumnName: header, SemanticType: TypeUnknown, Confidence: 0}
}

// normalizeHeader lower-cases the header and collapses whitespace,
// underscores and hyphens to single spaces.
func normalizeHeader(h string) string {
	return headerSeparatorRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(h)), " ")
}

// sampleValues collects the first non-empty values of a column.
func sampleValues(header string, rows []sheet.Row) []sheet.Value {
	key := sheet.NormalizeHeader(header)

	var samples []sheet.Value

	for _, row := range rows {
		if v, ok := row.Get(key); ok {
			samples = append(samples, v)
			if len(samples) == maxSampleValues {
				break
			}
		}
	}

	return samples
}

// ratioMatching reports the fraction of samples passing the check.
// No samples means nothing validated, so the ratio is zero.
func ratioMatching(samples []sheet.Value, check func(sheet.Value) bool) float64 {
	if len(samples) == 0 {
		return 0
	}

	matched := 0

	for _, v := range samples {
		if check(v) {
			matched++
		}
	}

	return float64(matched) / float64(len(samples))
}

func isDate(v sheet.Value) bool {
	_, ok := sheet.ParseDate(v.Raw)
	return ok
}

func isNumeric(v sheet.Value) bool {
	return v.IsNumber
}

func isDirectionToken(v sheet.Value) bool {
	return directionTokens[strings.ToLower(strings.TrimSpace(v.Raw))]
}
