// Package normalize walks parsed rows and extracts the canonical
// transaction model: one Transaction per row with a resolvable date and
// amount, entity records per observed dimension value, and time buckets
// per the process definition's granularity.
//
// Rows lacking a date or amount column are skipped silently; header,
// footer and subtotal rows routinely look like that, and logging each
// one would flood the audit trail.
package normalize

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cashlens-dev/cashlens/internal/audit"
	"github.com/cashlens-dev/cashlens/internal/model"
	"github.com/cashlens-dev/cashlens/internal/sheet"
)

// Header-slot matching rules. Each slot has a fixed pattern tried against
// the row's normalized headers; no match is a first-class miss, converted
// to a display default only when the Transaction is constructed.
var (
	dateSlotRe        = regexp.MustCompile(`date|time|created|posted|period`)
	amountSlotRe      = regexp.MustCompile(`amount|value|balance|total|cost|revenue|expense`)
	entitySlotRe      = regexp.MustCompile(`entity|department|project`)
	categorySlotRe    = regexp.MustCompile(`category|type|class`)
	descriptionSlotRe = regexp.MustCompile(`description|memo|note`)
	referenceSlotRe   = regexp.MustCompile(`reference|id|invoice|bill`)
	statusSlotRe      = regexp.MustCompile(`status|state|condition`)

	accrualRe = regexp.MustCompile(`accrual|accrued|accruing`)
)

// Normalizer builds the normalized financial model from raw sheets and
// an inferred (or caller-supplied) process definition.
type Normalizer struct {
	log *audit.Logger
}

func New(log *audit.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize produces the model minus calculated metrics, which the
// calculation engine fills in afterwards. Any failure here is fatal for
// the run; there is no partial model.
func (n *Normalizer) Normalize(sheets []sheet.RawSheet, def model.ProcessDefinition) (*model.NormalizedFinancialModel, error) {
	transactions, err := n.extractTransactions(sheets, def)
	if err != nil {
		n.log.AddError("Data normalization failed", nil, err)
		return nil, fmt.Errorf("extract transactions: %w", err)
	}

	entities := extractEntities(sheets, def)
	buckets := Bucketize(transactions, def.TimeGranularity)

	m := &model.NormalizedFinancialModel{
		ProcessDefinition: def,
		Entities:          entities,
		Transactions:      transactions,
		TimeBuckets:       buckets,
	}

	n.log.Add(audit.EventDataNormalized, "Data normalized into internal model",
		map[string]any{
			"transaction_count": len(transactions),
			"entity_count":      len(entities),
			"time_bucket_count": len(buckets),
		})

	return m, nil
}

func (n *Normalizer) extractTransactions(sheets []sheet.RawSheet, def model.ProcessDefinition) ([]model.Transaction, error) {
	var transactions []model.Transaction

	for _, s := range sheets {
		keys := headerKeys(s)

		for _, row := range s.Rows {
			tx, ok := extractTransaction(row, keys, def)
			if !ok {
				continue
			}

			transactions = append(transactions, tx)
		}
	}

	sort.SliceStable(transactions, func(i, j int) bool {
		return transactions[i].Date.Before(transactions[j].Date)
	})

	return transactions, nil
}

// extractTransaction resolves one row into a transaction. Returns false
// when the row has no resolvable date or amount. keys are the sheet's
// normalized headers in sheet order.
func extractTransaction(row sheet.Row, keys []string, def model.ProcessDefinition) (model.Transaction, bool) {
	date, ok := resolveDate(row, keys)
	if !ok {
		return model.Transaction{}, false
	}

	amountCell, ok := resolveAmount(row, keys)
	if !ok {
		return model.Transaction{}, false
	}

	amount := amountCell.Number
	if amount < 0 {
		amount = -amount
	}

	return model.Transaction{
		ID:          uuid.New(),
		Date:        date,
		Entity:      slotValueOr(row, keys, entitySlotRe, "unknown"),
		Amount:      amount,
		Direction:   resolveDirection(row, amountCell, def),
		Category:    slotValueOr(row, keys, categorySlotRe, "other"),
		Description: slotValueOr(row, keys, descriptionSlotRe, ""),
		Reference:   slotValueOr(row, keys, referenceSlotRe, ""),
		IsAccrual:   accrualRe.MatchString(serializeRow(row)),
		Status:      resolveStatus(row, keys),
		Metadata:    rowMetadata(row),
	}, true
}

func resolveDate(row sheet.Row, keys []string) (time.Time, bool) {
	v, ok := matchSlot(row, keys, dateSlotRe)
	if !ok {
		return time.Time{}, false
	}

	return sheet.ParseDate(v.Raw)
}

func resolveAmount(row sheet.Row, keys []string) (sheet.Value, bool) {
	v, ok := matchSlot(row, keys, amountSlotRe)
	if !ok || !v.IsNumber {
		return sheet.Value{}, false
	}

	return v, true
}

// resolveDirection applies the sign-resolution order: inflow-source tag
// containment, then outflow-source, then a negative raw amount, then
// "both" for undetermined.
func resolveDirection(row sheet.Row, amount sheet.Value, def model.ProcessDefinition) model.Direction {
	text := serializeRow(row)

	for _, tag := range def.InflowSources {
		if strings.Contains(text, tag) {
			return model.DirectionInflow
		}
	}

	for _, tag := range def.OutflowSources {
		if strings.Contains(text, tag) {
			return model.DirectionOutflow
		}
	}

	if amount.Number < 0 {
		return model.DirectionOutflow
	}

	return model.DirectionBoth
}

func resolveStatus(row sheet.Row, keys []string) model.Status {
	v, ok := matchSlot(row, keys, statusSlotRe)
	if !ok {
		return model.StatusPosted
	}

	s := strings.ToLower(v.Raw)

	switch {
	case strings.Contains(s, "pending") || strings.Contains(s, "draft"):
		return model.StatusPending
	case strings.Contains(s, "scheduled") || strings.Contains(s, "future"):
		return model.StatusScheduled
	}

	return model.StatusPosted
}

// matchSlot resolves a slot to the first header in sheet order matching
// its pattern that the row actually has a value for.
func matchSlot(row sheet.Row, keys []string, re *regexp.Regexp) (sheet.Value, bool) {
	for _, key := range keys {
		if !re.MatchString(key) {
			continue
		}

		if v, ok := row[key]; ok {
			return v, true
		}
	}

	return sheet.Value{}, false
}

func slotValueOr(row sheet.Row, keys []string, re *regexp.Regexp, fallback string) string {
	if v, ok := matchSlot(row, keys, re); ok {
		return v.Raw
	}

	return fallback
}

// headerKeys returns the sheet's row keys in original header order, so
// slot resolution picks the first matching column as it appears in the
// file rather than the alphabetically first.
func headerKeys(s sheet.RawSheet) []string {
	keys := make([]string, 0, len(s.Headers))

	for _, h := range s.Headers {
		if k := sheet.NormalizeHeader(h); k != "" {
			keys = append(keys, k)
		}
	}

	return keys
}

// serializeRow flattens a row to lowercase "key=value" text for tag and
// keyword containment checks.
func serializeRow(row sheet.Row) string {
	var sb strings.Builder

	for _, key := range sortedKeys(row) {
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(strings.ToLower(row[key].Raw))
		sb.WriteByte(' ')
	}

	return sb.String()
}

func sortedKeys(row sheet.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

func rowMetadata(row sheet.Row) map[string]string {
	meta := make(map[string]string, len(row))
	for k, v := range row {
		meta[k] = v.Raw
	}

	return meta
}

// extractEntities produces one record per distinct (dimension, value)
// pair observed across all sheets.
func extractEntities(sheets []sheet.RawSheet, def model.ProcessDefinition) []model.EntityHierarchy {
	var (
		entities []model.EntityHierarchy
		seen     = map[string]bool{}
	)

	for _, dimension := range def.EntityDimensions {
		for _, s := range sheets {
			for _, row := range s.Rows {
				v, ok := row.Get(dimension)
				if !ok {
					continue
				}

				key := dimension + "\x00" + v.Raw
				if seen[key] {
					continue
				}

				seen[key] = true
				entities = append(entities, model.EntityHierarchy{
					ID:         uuid.New(),
					Name:       v.Raw,
					EntityType: dimension,
				})
			}
		}
	}

	return entities
}

// Bucketize groups sorted transactions into periods. A bucket exists iff
// at least one transaction falls in it; start and end dates are the
// bucket's first and last transaction dates, not calendar boundaries.
func Bucketize(transactions []model.Transaction, granularity model.Granularity) []model.TimeBucket {
	var (
		order   []string
		grouped = map[string][]model.Transaction{}
	)

	for _, tx := range transactions {
		period := FormatPeriod(tx.Date, granularity)
		if _, ok := grouped[period]; !ok {
			order = append(order, period)
		}

		grouped[period] = append(grouped[period], tx)
	}

	buckets := make([]model.TimeBucket, 0, len(order))

	for _, period := range order {
		txs := grouped[period]

		var inflows, outflows float64

		for _, tx := range txs {
			switch tx.Direction {
			case model.DirectionInflow:
				inflows += tx.Amount
			case model.DirectionOutflow:
				outflows += tx.Amount
			}
		}

		buckets = append(buckets, model.TimeBucket{
			Period:       period,
			StartDate:    txs[0].Date,
			EndDate:      txs[len(txs)-1].Date,
			Transactions: txs,
			Inflows:      inflows,
			Outflows:     outflows,
			NetCash:      inflows - outflows,
		})
	}

	return buckets
}

// FormatPeriod renders the canonical period label for a date at the
// given granularity. Weekly labels use the ISO week number.
func FormatPeriod(date time.Time, granularity model.Granularity) string {
	switch granularity {
	case model.GranularityDaily:
		return date.Format("2006-01-02")
	case model.GranularityWeekly:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	case model.GranularityQuarterly:
		quarter := (int(date.Month()) + 2) / 3
		return fmt.Sprintf("%d-Q%d", date.Year(), quarter)
	case model.GranularityAnnual:
		return date.Format("2006")
	default:
		return date.Format("2006-01")
	}
}
