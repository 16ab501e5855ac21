package postgres

import (
	"fmt"
	"regexp"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

// identPattern is the only shape of identifier the builder will quote.
// Field and table names come from the catalog, never from model output,
// but the builder still refuses anything unexpected.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// buildWhere renders a validated filter as a parameterized WHERE clause.
// Returns the clause (without the WHERE keyword), the ordered arguments,
// and an error if a value fails the injection guard. An empty filter
// yields an empty clause.
func buildWhere(filter models.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	var (
		parts []string
		args  []any
	)

	for _, cond := range filter {
		if !identPattern.MatchString(cond.Field) {
			return "", nil, fmt.Errorf("invalid field identifier %q", cond.Field)
		}
		if err := checkValue(cond); err != nil {
			return "", nil, err
		}

		col := fmt.Sprintf("%q", cond.Field)
		argIdx := len(args) + 1

		switch cond.Operator {
		case models.OpEq, models.OpNeq, models.OpGt, models.OpGte, models.OpLt, models.OpLte:
			op := string(cond.Operator)
			if cond.Operator == models.OpNeq {
				op = "<>"
			}
			parts = append(parts, fmt.Sprintf("%s %s $%d", col, op, argIdx))
			args = append(args, cond.Value)
		case models.OpLike:
			parts = append(parts, fmt.Sprintf("%s LIKE $%d", col, argIdx))
			args = append(args, likePattern(cond.Value))
		case models.OpILike:
			parts = append(parts, fmt.Sprintf("%s ILIKE $%d", col, argIdx))
			args = append(args, likePattern(cond.Value))
		case models.OpIn:
			parts = append(parts, fmt.Sprintf("%s = ANY($%d)", col, argIdx))
			args = append(args, listArg(cond.Value))
		case models.OpNotIn:
			parts = append(parts, fmt.Sprintf("%s <> ALL($%d)", col, argIdx))
			args = append(args, listArg(cond.Value))
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", cond.Operator)
		}
	}

	return strings.Join(parts, " AND "), args, nil
}

// likePattern wraps a wildcard-free pattern in %...% so a bare term
// behaves as a substring search, matching the engine's contract.
func likePattern(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	if !strings.ContainsAny(s, "%_") {
		return "%" + s + "%"
	}
	return s
}

func listArg(v any) any {
	if items, ok := v.([]any); ok {
		return items
	}
	return []any{v}
}

// checkValue runs the injection guard over string condition values.
// Values are always bound as parameters, so this is a tripwire for
// hostile model output rather than a substitute for parameterization.
func checkValue(cond models.Condition) error {
	check := func(v any) error {
		s, ok := v.(string)
		if !ok {
			return nil
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(s); isSQLi {
			return fmt.Errorf("value for field %q failed injection check (fingerprint %s)", cond.Field, fingerprint)
		}
		return nil
	}

	if items, ok := cond.Value.([]any); ok {
		for _, item := range items {
			if err := check(item); err != nil {
				return err
			}
		}
		return nil
	}
	return check(cond.Value)
}
