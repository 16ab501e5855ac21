package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cercalo-ai/cercalo-engine/pkg/llm"
	"github.com/cercalo-ai/cercalo-engine/pkg/logging"
	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

const (
	// translateTemperature favors determinism: this is a translation
	// task, not a generation task.
	translateTemperature = 0.2

	// translateMaxTokens bounds the response; a filter expression is
	// never longer than a few conditions.
	translateMaxTokens = 500
)

const translateSystemMessage = `You translate natural language data questions into filter expressions.
Return ONLY a list of (field, operator, value) tuples in the exact format shown in the examples.
Never return prose, explanations, or code fences. If no condition applies, return [].`

// Translator builds the deterministic translation prompt and calls the
// model. It returns the raw response unmodified; parsing and validation
// belong to the Resolver.
type Translator struct {
	client llm.Client
	logger *zap.Logger
}

// NewTranslator creates a translator over the given model client.
func NewTranslator(client llm.Client, logger *zap.Logger) *Translator {
	return &Translator{
		client: client,
		logger: logger.Named("translate"),
	}
}

// Translate asks the model for a filter expression over the entity's
// queryable fields. Provider failures are classified and returned as
// *llm.Error; the caller decides retry policy.
func (t *Translator) Translate(ctx context.Context, text string, desc *models.EntityDescriptor) (string, error) {
	prompt := buildPrompt(text, desc)

	start := time.Now()
	response, err := t.client.Complete(ctx, prompt, translateSystemMessage, translateTemperature, translateMaxTokens)
	if err != nil {
		t.logger.Warn("translation call failed",
			zap.String("entity", desc.Name),
			zap.String("query", logging.SanitizeQueryText(text)),
			zap.Error(err))
		return "", err
	}

	t.logger.Debug("translation call complete",
		zap.String("entity", desc.Name),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("response_len", len(response)))
	return response, nil
}

// buildPrompt renders the full translation prompt: the entity's queryable
// fields with labels, worked examples for the entity family, the fixed
// operator set, and the literal user text. Deterministic for a given
// text/descriptor pair.
func buildPrompt(text string, desc *models.EntityDescriptor) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Entity: %s (%s)\n\n", desc.Name, desc.Label)
	b.WriteString("Available fields:\n")
	for _, f := range desc.QueryableFields() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", f.Name, f.Type, f.Label)
	}

	b.WriteString("\nAllowed operators: =, !=, >, >=, <, <=, like, ilike, in, not in\n")
	b.WriteString("Dates use ISO format: YYYY-MM-DD\n")
	b.WriteString("Text searches use ilike for case-insensitive matching\n")

	b.WriteString("\nExamples:\n")
	for _, ex := range examplesFor(desc) {
		fmt.Fprintf(&b, "Question: %s\nFilter: %s\n\n", ex.question, ex.filter)
	}

	fmt.Fprintf(&b, "Question: %s\nFilter:", text)
	return b.String()
}

type workedExample struct {
	question string
	filter   string
}

// entityExamples holds 2-4 worked examples per entity family. Examples
// reference only fields present in the default catalog; for a custom
// catalog the generic fallback applies.
var entityExamples = map[string][]workedExample{
	"partners": {
		{"customers from Milan", `[('city', 'ilike', 'Milan'), ('customer_rank', '>', 0)]`},
		{"all suppliers", `[('supplier_rank', '>', 0)]`},
		{"inactive contacts", `[('active', '=', False)]`},
	},
	"invoices": {
		{"unpaid invoices", `[('payment_state', '=', 'not_paid'), ('state', '=', 'posted')]`},
		{"invoices over 1000", `[('amount_total', '>', 1000)]`},
		{"draft invoices from 2024", `[('state', '=', 'draft'), ('invoice_date', '>=', '2024-01-01')]`},
	},
	"products": {
		{"products cheaper than 50", `[('list_price', '<', 50)]`},
		{"products in the furniture category", `[('category', 'ilike', 'furniture')]`},
		{"archived products", `[('active', '=', False)]`},
	},
	"orders": {
		{"confirmed orders", `[('state', '=', 'sale')]`},
		{"orders above 500", `[('amount_total', '>', 500)]`},
		{"orders placed since March 2024", `[('date_order', '>=', '2024-03-01')]`},
	},
}

// examplesFor returns the worked examples for the entity, falling back
// to generic examples over the entity's own first fields so the prompt
// always demonstrates the expected output shape.
func examplesFor(desc *models.EntityDescriptor) []workedExample {
	if examples, ok := entityExamples[desc.Name]; ok {
		return examples
	}

	generic := []workedExample{
		{"everything", "[]"},
	}
	for _, f := range desc.QueryableFields() {
		if f.Type == models.FieldTypeText {
			generic = append(generic, workedExample{
				question: fmt.Sprintf("records where %s contains acme", f.Label),
				filter:   fmt.Sprintf(`[('%s', 'ilike', 'acme')]`, f.Name),
			})
			break
		}
	}
	for _, f := range desc.QueryableFields() {
		if f.Type == models.FieldTypeNumber {
			generic = append(generic, workedExample{
				question: fmt.Sprintf("records with %s above 100", f.Label),
				filter:   fmt.Sprintf(`[('%s', '>', 100)]`, f.Name),
			})
			break
		}
	}
	return generic
}
