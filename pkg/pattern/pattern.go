// Package pattern compiles step templates such as "I give $money to $name"
// into anchored, case-insensitive regular expressions.
package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultPrefix marks a parameter in a template.
const DefaultPrefix = "$"

// ErrInvalidTemplate is returned for templates that cannot be compiled.
var ErrInvalidTemplate = errors.New("invalid step template")

var whitespace = regexp.MustCompile(`\s+`)

// Parser compiles templates using a parameter prefix.
type Parser struct {
	prefix string
}

// NewParser returns a parser for the given prefix, DefaultPrefix when empty.
func NewParser(prefix string) *Parser {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Parser{prefix: prefix}
}

// Prefix returns the parameter prefix.
func (p *Parser) Prefix() string {
	return p.prefix
}

// Matcher matches step text against a compiled template.
type Matcher struct {
	template string
	names    []string
	regex    *regexp.Regexp
}

// Match is a successful match.
type Match struct {
	values []string
}

// Parse compiles template. Literal text is escaped, whitespace runs match any
// whitespace and every parameter captures lazily across lines.
func (p *Parser) Parse(template string) (*Matcher, error) {
	trimmed := strings.TrimSpace(template)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty template", ErrInvalidTemplate)
	}

	var b strings.Builder
	b.WriteString(`(?is)^`)
	var names []string

	rest := trimmed
	for rest != "" {
		i := strings.Index(rest, p.prefix)
		if i < 0 {
			b.WriteString(literal(rest))
			break
		}
		b.WriteString(literal(rest[:i]))

		name := parameterName(rest[i+len(p.prefix):])
		if name == "" {
			b.WriteString(regexp.QuoteMeta(p.prefix))
			rest = rest[i+len(p.prefix):]
			continue
		}
		names = append(names, name)
		b.WriteString(`(.*?)`)
		rest = rest[i+len(p.prefix)+len(name):]
	}
	b.WriteString(`$`)

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, template, err)
	}
	return &Matcher{template: trimmed, names: names, regex: re}, nil
}

// MustParse is like Parse but panics on error.
func (p *Parser) MustParse(template string) *Matcher {
	m, err := p.Parse(template)
	if err != nil {
		panic(err)
	}
	return m
}

// parameterName reads the letters, digits and underscores that follow a prefix.
func parameterName(text string) string {
	for i, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return text[:i]
		}
	}
	return text
}

func literal(text string) string {
	parts := whitespace.Split(text, -1)
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return strings.Join(parts, `\s+`)
}

// Template returns the trimmed template.
func (m *Matcher) Template() string {
	return m.template
}

// ParameterNames returns the parameter names in template order.
func (m *Matcher) ParameterNames() []string {
	return append([]string(nil), m.names...)
}

// Regexp returns the compiled expression.
func (m *Matcher) Regexp() *regexp.Regexp {
	return m.regex
}

// Matches reports whether text matches the template.
func (m *Matcher) Matches(text string) bool {
	return m.regex.MatchString(strings.TrimSpace(text))
}

// Match returns the captured parameters, or false when text does not match.
func (m *Matcher) Match(text string) (*Match, bool) {
	groups := m.regex.FindStringSubmatch(strings.TrimSpace(text))
	if groups == nil {
		return nil, false
	}
	return &Match{values: groups[1:]}, true
}

// Parameter returns the i-th captured value, counting from 1.
func (m *Match) Parameter(i int) (string, error) {
	if i < 1 || i > len(m.values) {
		return "", fmt.Errorf("parameter %d out of range [1, %d]", i, len(m.values))
	}
	return m.values[i-1], nil
}

// Count returns the number of captured values.
func (m *Match) Count() int {
	return len(m.values)
}

// Values returns all captured values in template order.
func (m *Match) Values() []string {
	return append([]string(nil), m.values...)
}
