// Package filter decides which stories and scenarios run, by their meta.
package filter

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	tagexpressions "github.com/cucumber/tag-expressions/go/v6"

	"github.com/denizgursoy/behave/pkg/model"
)

// MetaFilter allows or denies by meta.
type MetaFilter interface {
	Allow(meta model.Meta) bool
	String() string
}

// New parses a filter. Text starting with "+" or "-" is a property filter
// such as "+author mauro -skip"; any other non-blank text is a tag
// expression such as "@smoke and not @slow". Blank text allows everything.
func New(text string) (MetaFilter, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return allowAll{}, nil
	case strings.HasPrefix(text, "+") || strings.HasPrefix(text, "-"):
		return parseProperties(text), nil
	default:
		f, err := parseExpression(text)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
}

// All combines filters; meta must pass every one of them.
func All(filters ...MetaFilter) MetaFilter {
	return all(filters)
}

type all []MetaFilter

func (a all) Allow(meta model.Meta) bool {
	for _, f := range a {
		if !f.Allow(meta) {
			return false
		}
	}
	return true
}

func (a all) String() string {
	parts := make([]string, len(a))
	for i, f := range a {
		parts[i] = f.String()
	}
	return strings.Join(parts, "; ")
}

type allowAll struct{}

func (allowAll) Allow(model.Meta) bool { return true }
func (allowAll) String() string        { return "" }

type criterion struct {
	name  string
	value *regexp.Regexp
}

func (c criterion) matches(meta model.Meta) bool {
	if !meta.Has(c.name) {
		return false
	}
	return c.value == nil || c.value.MatchString(meta.Property(c.name))
}

// propertyFilter requires every included property and rejects any
// excluded one. Values may use "*" as a wildcard.
type propertyFilter struct {
	text    string
	include []criterion
	exclude []criterion
}

func parseProperties(text string) *propertyFilter {
	f := &propertyFilter{text: text}
	var sign byte
	var name string
	var words []string

	flush := func() {
		if name == "" {
			return
		}
		c := criterion{name: name}
		if len(words) > 0 {
			c.value = wildcard(strings.Join(words, " "))
		}
		if sign == '+' {
			f.include = append(f.include, c)
		} else {
			f.exclude = append(f.exclude, c)
		}
		name, words = "", nil
	}

	for _, token := range strings.Fields(text) {
		if (token[0] == '+' || token[0] == '-') && len(token) > 1 {
			flush()
			sign, name = token[0], token[1:]
			continue
		}
		words = append(words, token)
	}
	flush()
	return f
}

func wildcard(value string) *regexp.Regexp {
	quoted := strings.ReplaceAll(regexp.QuoteMeta(value), `\*`, `.*`)
	return regexp.MustCompile(`^` + quoted + `$`)
}

func (f *propertyFilter) Allow(meta model.Meta) bool {
	for _, c := range f.include {
		if !c.matches(meta) {
			return false
		}
	}
	for _, c := range f.exclude {
		if c.matches(meta) {
			return false
		}
	}
	return true
}

func (f *propertyFilter) String() string {
	return f.text
}

type evaluator interface {
	Evaluate(tags []string) bool
}

type expressionFilter struct {
	text       string
	expression evaluator
}

func parseExpression(text string) (*expressionFilter, error) {
	expression, err := tagexpressions.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid meta filter %q: %w", text, err)
	}
	return &expressionFilter{text: text, expression: expression}, nil
}

// Allow evaluates the expression against the tags of meta: "@name" for
// every property plus "@name=value" for properties with a value.
func (f *expressionFilter) Allow(meta model.Meta) bool {
	return f.expression.Evaluate(Tags(meta))
}

func (f *expressionFilter) String() string {
	return f.text
}

// Tags lists the tag form of meta, sorted.
func Tags(meta model.Meta) []string {
	var tags []string
	for _, name := range meta.Names() {
		tags = append(tags, "@"+name)
		if v := meta.Property(name); v != "" {
			tags = append(tags, "@"+name+"="+v)
		}
	}
	sort.Strings(tags)
	return tags
}
