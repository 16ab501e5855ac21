package models

import (
	"fmt"
	"strings"
)

// Operator is a comparison operator permitted in filter conditions.
type Operator string

const (
	OpEq    Operator = "="
	OpNeq   Operator = "!="
	OpGt    Operator = ">"
	OpGte   Operator = ">="
	OpLt    Operator = "<"
	OpLte   Operator = "<="
	OpLike  Operator = "like"
	OpILike Operator = "ilike"
	OpIn    Operator = "in"
	OpNotIn Operator = "not in"
)

// allowedOperators is the fixed operator set; anything else is rejected
// during filter validation.
var allowedOperators = map[Operator]bool{
	OpEq: true, OpNeq: true,
	OpGt: true, OpGte: true, OpLt: true, OpLte: true,
	OpLike: true, OpILike: true,
	OpIn: true, OpNotIn: true,
}

// ValidOperator reports whether op is in the fixed operator set.
func ValidOperator(op Operator) bool {
	return allowedOperators[op]
}

// Condition is a single atomic filter condition (field, operator, value).
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Filter is an ordered sequence of conditions combined with implicit AND.
// An empty filter is valid and matches all records; it is distinct from
// a filter that failed to parse.
type Filter []Condition

// String renders the filter in the tuple-list notation used in prompts,
// audit records and API responses, e.g. [('state', '=', 'posted')].
func (f Filter) String() string {
	if len(f) == 0 {
		return "[]"
	}
	parts := make([]string, len(f))
	for i, c := range f {
		parts[i] = fmt.Sprintf("('%s', '%s', %s)", c.Field, c.Operator, renderValue(c.Value))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "None"
	case string:
		return "'" + strings.ReplaceAll(val, "'", `\'`) + "'"
	case bool:
		if val {
			return "True"
		}
		return "False"
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case float64:
		// Render whole floats as integers to match the prompt examples.
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%g", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
