package query

import (
	"regexp"
	"strconv"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

// Pattern maps a class of two-entity natural-language questions to a
// deterministic correlation procedure. Expr should carry (?i) itself and
// may capture a numeric threshold in a group named "count".
type Pattern struct {
	// ID identifies the pattern in audit records and logs.
	ID string

	// Expr is the compiled text matcher. Keyword alternations for every
	// supported language live in the expression itself.
	Expr *regexp.Regexp

	// Primary is the entity whose records are returned.
	Primary string

	// Secondary is the entity that is aggregated or probed.
	Secondary string

	// Operation selects the correlation procedure.
	Operation models.OperationKind

	// LinkField is the relation field on the secondary entity that
	// references the primary entity.
	LinkField string

	// DefaultThreshold applies when the matched text carries no number.
	DefaultThreshold int
}

// Match is a successful pattern match with its extracted parameters.
type Match struct {
	Pattern    *Pattern
	Threshold  int
	Comparator models.ThresholdComparator
}

// strictComparatorPattern detects phrasings that exclude the threshold
// itself ("more than 10", "over 10", "più di 10"). Everything else,
// including "10+" and "at least 10", keeps the inclusive default.
var strictComparatorPattern = regexp.MustCompile(`(?i)\b(more than|over|above|greater than|più di|oltre)\b`)

// Matcher scans an immutable ordered pattern registry. Registry order is
// a priority order: the first expression that matches wins, so broader
// patterns must be declared after narrower ones.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher creates a matcher over the given registry. The slice is
// copied; the registry cannot change after construction.
func NewMatcher(patterns []Pattern) *Matcher {
	registry := make([]Pattern, len(patterns))
	copy(registry, patterns)
	return &Matcher{patterns: registry}
}

// Match returns the first pattern whose expression matches the text,
// with the threshold and comparator extracted from the matched groups.
// Pure function over the registry and input.
func (m *Matcher) Match(text string) (*Match, bool) {
	for i := range m.patterns {
		p := &m.patterns[i]
		groups := p.Expr.FindStringSubmatch(text)
		if groups == nil {
			continue
		}

		match := &Match{
			Pattern:    p,
			Threshold:  p.DefaultThreshold,
			Comparator: models.CmpGte,
		}

		if idx := p.Expr.SubexpIndex("count"); idx >= 0 && idx < len(groups) && groups[idx] != "" {
			if n, err := strconv.Atoi(groups[idx]); err == nil {
				match.Threshold = n
			}
		}
		if strictComparatorPattern.MatchString(text) {
			match.Comparator = models.CmpGt
		}

		return match, true
	}
	return nil, false
}

// DefaultPatterns returns the built-in registry, in priority order:
//
//  1. partners-by-invoice-count: "customers with 10+ invoices"
//  2. partners-by-order-count:   "customers with more than 5 orders"
//  3. products-never-ordered:    "products never ordered"
//  4. partners-never-invoiced:   "customers never invoiced"
//
// Count patterns precede exclusion patterns so that a numbered question
// is never swallowed by a broader keyword match.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			ID:        "partners-by-invoice-count",
			Expr:      regexp.MustCompile(`(?i)\b(clients?|customers?|partners?|clienti)\b.*?\b(?P<count>\d+)\+?\b.*?\b(invoices?|bills?|fatture)\b`),
			Primary:   "partners",
			Secondary: "invoices",
			Operation: models.OpCountAggregate,
			LinkField: "partner_id",

			DefaultThreshold: 1,
		},
		{
			ID:        "partners-by-order-count",
			Expr:      regexp.MustCompile(`(?i)\b(clients?|customers?|partners?|clienti)\b.*?\b(?P<count>\d+)\+?\b.*?\b(orders?|ordini)\b`),
			Primary:   "partners",
			Secondary: "orders",
			Operation: models.OpCountAggregate,
			LinkField: "partner_id",

			DefaultThreshold: 1,
		},
		{
			ID:        "products-never-ordered",
			Expr:      regexp.MustCompile(`(?i)\b(products?|articles?|prodotti|articoli)\b.*?\b(never|not|mai|senza)\b.*?\b(ordered|sold|bought|ordinat\w+|vendut\w+)\b`),
			Primary:   "products",
			Secondary: "orders",
			Operation: models.OpExclusion,
			LinkField: "product_id",
		},
		{
			ID:        "partners-never-invoiced",
			Expr:      regexp.MustCompile(`(?i)\b(clients?|customers?|partners?|clienti)\b.*?\b(never|without|mai|senza)\b.*?\b(invoiced?|invoices?|fatturat\w+|fatture)\b`),
			Primary:   "partners",
			Secondary: "invoices",
			Operation: models.OpExclusion,
			LinkField: "partner_id",
		},
	}
}
