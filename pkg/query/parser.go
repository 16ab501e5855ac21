package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cercalo-ai/cercalo-engine/pkg/models"
)

// parseTupleList strictly parses a bracketed tuple-list expression such
// as [('state', '=', 'posted'), ('amount_total', '>', 100)] into filter
// conditions. The grammar is a closed literal subset: quoted strings,
// numbers, True/False/None, and nested value lists. No identifiers, no
// arithmetic, no calls; anything outside the grammar is an error.
func parseTupleList(s string) (models.Filter, error) {
	p := &tupleParser{input: s}
	filter, err := p.parseList()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.input) {
		return nil, fmt.Errorf("trailing content at offset %d", p.pos)
	}
	return filter, nil
}

type tupleParser struct {
	input string
	pos   int
}

func (p *tupleParser) skipSpace() {
	for p.pos < len(p.input) {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *tupleParser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *tupleParser) expect(c byte) error {
	p.skipSpace()
	got, ok := p.peek()
	if !ok {
		return fmt.Errorf("unexpected end of input, expected %q", string(c))
	}
	if got != c {
		return fmt.Errorf("expected %q at offset %d, got %q", string(c), p.pos, string(got))
	}
	p.pos++
	return nil
}

func (p *tupleParser) parseList() (models.Filter, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}

	filter := models.Filter{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated list")
		}
		if c == ']' {
			p.pos++
			return filter, nil
		}

		cond, err := p.parseTuple()
		if err != nil {
			return nil, err
		}
		filter = append(filter, cond)

		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated list")
		}
		switch c {
		case ',':
			p.pos++
		case ']':
			// closing bracket handled on next iteration
		default:
			return nil, fmt.Errorf("expected ',' or ']' at offset %d, got %q", p.pos, string(c))
		}
	}
}

// parseTuple parses one (field, operator, value) atom. Field and
// operator must be quoted strings; values may be any grammar literal.
func (p *tupleParser) parseTuple() (models.Condition, error) {
	var cond models.Condition

	if err := p.expect('('); err != nil {
		return cond, err
	}

	field, err := p.parseString()
	if err != nil {
		return cond, fmt.Errorf("tuple field: %w", err)
	}
	if err := p.expect(','); err != nil {
		return cond, err
	}

	op, err := p.parseString()
	if err != nil {
		return cond, fmt.Errorf("tuple operator: %w", err)
	}
	if err := p.expect(','); err != nil {
		return cond, err
	}

	value, err := p.parseValue()
	if err != nil {
		return cond, fmt.Errorf("tuple value: %w", err)
	}
	if err := p.expect(')'); err != nil {
		return cond, err
	}

	cond.Field = field
	cond.Operator = models.Operator(op)
	cond.Value = value
	return cond, nil
}

func (p *tupleParser) parseString() (string, error) {
	p.skipSpace()
	quote, ok := p.peek()
	if !ok || (quote != '\'' && quote != '"') {
		return "", fmt.Errorf("expected quoted string at offset %d", p.pos)
	}
	p.pos++

	var b strings.Builder
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '\\' && p.pos+1 < len(p.input) {
			next := p.input[p.pos+1]
			switch next {
			case '\'', '"', '\\':
				b.WriteByte(next)
				p.pos += 2
				continue
			case 'n':
				b.WriteByte('\n')
				p.pos += 2
				continue
			case 't':
				b.WriteByte('\t')
				p.pos += 2
				continue
			}
		}
		if c == quote {
			p.pos++
			return b.String(), nil
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *tupleParser) parseValue() (any, error) {
	p.skipSpace()
	c, ok := p.peek()
	if !ok {
		return nil, fmt.Errorf("unexpected end of input")
	}

	switch {
	case c == '\'' || c == '"':
		return p.parseString()
	case c == '[':
		return p.parseValueList()
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return p.parseKeyword()
	}
}

// parseValueList parses a nested list used with in / not in.
func (p *tupleParser) parseValueList() ([]any, error) {
	if err := p.expect('['); err != nil {
		return nil, err
	}

	items := []any{}
	for {
		p.skipSpace()
		c, ok := p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated value list")
		}
		if c == ']' {
			p.pos++
			return items, nil
		}

		item, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		items = append(items, item)

		p.skipSpace()
		c, ok = p.peek()
		if !ok {
			return nil, fmt.Errorf("unterminated value list")
		}
		switch c {
		case ',':
			p.pos++
		case ']':
		default:
			return nil, fmt.Errorf("expected ',' or ']' at offset %d, got %q", p.pos, string(c))
		}
	}
}

func (p *tupleParser) parseNumber() (any, error) {
	start := p.pos
	if c, ok := p.peek(); ok && c == '-' {
		p.pos++
	}
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= '0' && c <= '9') || c == '.' {
			p.pos++
			continue
		}
		break
	}

	token := p.input[start:p.pos]
	if strings.Contains(token, ".") {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", token)
		}
		return f, nil
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", token)
	}
	return n, nil
}

func (p *tupleParser) parseKeyword() (any, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			p.pos++
			continue
		}
		break
	}

	switch p.input[start:p.pos] {
	case "True", "true":
		return true, nil
	case "False", "false":
		return false, nil
	case "None", "null", "nil":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown token %q at offset %d", p.input[start:p.pos], start)
	}
}

// tupleSegmentPattern finds parenthesized segments for the lenient pass.
var tupleSegmentPattern = regexp.MustCompile(`\(([^()]*)\)`)

// lenientParse is the last-resort pass: it re-tokenizes parenthesized
// segments individually, tolerating unquoted strings and junk between
// tuples. It is a narrowly scoped re-tokenization of the same tuple
// shape, never an expression evaluator. Callers must record that the
// lenient pass produced the result.
func lenientParse(s string) (models.Filter, error) {
	segments := tupleSegmentPattern.FindAllStringSubmatch(s, -1)
	if len(segments) == 0 {
		return nil, fmt.Errorf("no tuple segments found")
	}

	filter := models.Filter{}
	for _, seg := range segments {
		parts := splitTopLevel(seg[1])
		if len(parts) != 3 {
			return nil, fmt.Errorf("segment %q does not have 3 elements", seg[1])
		}

		field, ok := lenientString(parts[0])
		if !ok {
			return nil, fmt.Errorf("segment %q has no field name", seg[1])
		}
		op, ok := lenientString(parts[1])
		if !ok {
			return nil, fmt.Errorf("segment %q has no operator", seg[1])
		}

		filter = append(filter, models.Condition{
			Field:    field,
			Operator: models.Operator(strings.ToLower(op)),
			Value:    lenientValue(parts[2]),
		})
	}
	return filter, nil
}

// splitTopLevel splits on commas outside quotes and brackets.
func splitTopLevel(s string) []string {
	var (
		parts   []string
		current strings.Builder
		quote   byte
		depth   int
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			current.WriteByte(c)
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			current.WriteByte(c)
		case '[':
			depth++
			current.WriteByte(c)
		case ']':
			depth--
			current.WriteByte(c)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteByte(c)
			}
		default:
			current.WriteByte(c)
		}
	}
	parts = append(parts, strings.TrimSpace(current.String()))
	return parts
}

// lenientString unwraps quotes if present, otherwise accepts a bare
// token as a string.
func lenientString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1], true
		}
	}
	if s == "" {
		return "", false
	}
	return s, true
}

func lenientValue(s string) any {
	s = strings.TrimSpace(s)

	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
		if s[0] == '[' && s[len(s)-1] == ']' {
			items := []any{}
			for _, part := range splitTopLevel(s[1 : len(s)-1]) {
				if part == "" {
					continue
				}
				items = append(items, lenientValue(part))
			}
			return items
		}
	}

	switch s {
	case "True", "true":
		return true
	case "False", "false":
		return false
	case "None", "null", "nil":
		return nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
