package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/llm"
	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

// fieldAliases maps field names the model commonly invents to their
// stored equivalents. A substitution happens only when the atom's field
// is not queryable and the alias target is queryable on the entity.
var fieldAliases = map[string]string{
	"lst_price":  "list_price",
	"price":      "list_price",
	"cost":       "standard_price",
	"partner":    "partner_id",
	"product":    "product_id",
	"customer":   "partner_id",
	"supplier":   "partner_id",
	"amount":     "amount_total",
	"total":      "amount_total",
	"date":       "invoice_date",
	"order_date": "date_order",
}

// ParseResult is a successfully resolved filter plus the audit trail of
// everything that changed the interpretation of the model output.
type ParseResult struct {
	Filter models.Filter

	// Lenient is true when the strict parse failed and the permissive
	// last-resort pass produced the filter.
	Lenient bool

	// Repairs lists every field alias substitution applied.
	Repairs []string
}

// Resolver post-processes raw model output into a validated filter:
// noise stripping, strict parse, fallbacks, field auto-repair, and
// whole-expression validation.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a filter resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("resolve")}
}

// Resolve parses and validates raw model output against the entity's
// queryable field set. Every stage is attempted only if the prior one
// did not yield a result; failure at the end is ErrUnparseableFilter.
// A valid empty expression ([]) means "no filter" and is distinct from
// a parse failure.
func (r *Resolver) Resolve(raw string, desc *models.EntityDescriptor) (*ParseResult, error) {
	cleaned := llm.StripNoise(raw)

	bracketed, ok := llm.ExtractBracketed(cleaned, '[', ']')
	if !ok {
		return nil, fmt.Errorf("%w: no bracketed expression in model output", ErrUnparseableFilter)
	}

	result := &ParseResult{}

	filter, err := parseTupleList(bracketed)
	if err != nil {
		filter, err = parseJSONFilter(bracketed)
	}
	if err != nil {
		strictErr := err
		filter, err = lenientParse(bracketed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparseableFilter, strictErr)
		}
		result.Lenient = true
		r.logger.Warn("lenient parse produced filter",
			zap.String("entity", desc.Name),
			zap.String("strict_error", strictErr.Error()))
	}

	filter = r.repairFields(filter, desc, result)

	if err := validateFilter(filter, desc); err != nil {
		return nil, err
	}

	result.Filter = filter
	return result, nil
}

// repairFields substitutes known aliases for non-queryable field names.
// Substitutions are recorded so the audit trail shows why a result set
// was produced.
func (r *Resolver) repairFields(filter models.Filter, desc *models.EntityDescriptor, result *ParseResult) models.Filter {
	for i, cond := range filter {
		if desc.IsQueryable(cond.Field) {
			continue
		}
		alias, ok := fieldAliases[strings.ToLower(cond.Field)]
		if !ok || !desc.IsQueryable(alias) {
			continue
		}
		filter[i].Field = alias
		result.Repairs = append(result.Repairs,
			fmt.Sprintf("substituted field %q with %q", cond.Field, alias))
	}
	return filter
}

// validateFilter checks every atom against the queryable field set and
// the fixed operator set. One invalid atom rejects the whole expression;
// a silently dropped condition would return misleadingly broad results.
func validateFilter(filter models.Filter, desc *models.EntityDescriptor) error {
	for _, cond := range filter {
		if !desc.IsQueryable(cond.Field) {
			return fmt.Errorf("%w: field %q is not queryable on %s",
				ErrUnparseableFilter, cond.Field, desc.Name)
		}
		if !models.ValidOperator(cond.Operator) {
			return fmt.Errorf("%w: operator %q is not allowed",
				ErrUnparseableFilter, cond.Operator)
		}
	}
	return nil
}

// parseJSONFilter accepts the JSON-array rendition of the same shape,
// e.g. [["state", "=", "posted"]], which some models emit instead of
// tuple notation.
func parseJSONFilter(s string) (models.Filter, error) {
	var rows [][]any
	if err := json.Unmarshal([]byte(s), &rows); err != nil {
		return nil, fmt.Errorf("not a JSON filter array: %w", err)
	}

	filter := models.Filter{}
	for _, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("JSON condition has %d elements, want 3", len(row))
		}
		field, ok := row[0].(string)
		if !ok {
			return nil, fmt.Errorf("JSON condition field is %T, want string", row[0])
		}
		op, ok := row[1].(string)
		if !ok {
			return nil, fmt.Errorf("JSON condition operator is %T, want string", row[1])
		}
		filter = append(filter, models.Condition{
			Field:    field,
			Operator: models.Operator(op),
			Value:    row[2],
		})
	}
	return filter, nil
}
