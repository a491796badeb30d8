package steps

import (
	"fmt"

	"github.com/denizgursoy/behave/pkg/convert"
	"github.com/denizgursoy/behave/pkg/executor"
	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/pattern"
)

// StepCandidate is a compiled step definition: one template variant of a
// registered function.
type StepCandidate struct {
	Type     keywords.StepType
	Template string
	Priority int
	Source   string

	matcher *pattern.Matcher
	fn      *executor.Function
	names   []string
}

func newCandidate(d *definition, template, source string, parser *pattern.Parser, fn *executor.Function) (*StepCandidate, error) {
	matcher, err := parser.Parse(template)
	if err != nil {
		return nil, err
	}
	if len(d.names) > len(fn.Parameters()) {
		return nil, fmt.Errorf("%w: %q names %d parameters but %s takes %d", ErrInvalidStep, template, len(d.names), fn.Name(), len(fn.Parameters()))
	}
	return &StepCandidate{
		Type:     d.stepType,
		Template: template,
		Priority: d.priority,
		Source:   source,
		matcher:  matcher,
		fn:       fn,
		names:    d.names,
	}, nil
}

// Matches reports whether the candidate matches a step of the given type,
// text without starting word. An And candidate takes the type of the step.
func (c *StepCandidate) Matches(stepType keywords.StepType, text string) bool {
	return c.acceptsType(stepType) && c.matcher.Matches(text)
}

func (c *StepCandidate) acceptsType(stepType keywords.StepType) bool {
	return c.Type == stepType || c.Type == keywords.AndStep
}

// Method returns the name of the step function.
func (c *StepCandidate) Method() string {
	return c.fn.Name()
}

// ParameterNames returns the names of the template parameters.
func (c *StepCandidate) ParameterNames() []string {
	return c.matcher.ParameterNames()
}

func (c *StepCandidate) String() string {
	return fmt.Sprintf("%s %q (%s)", c.Type, c.Template, c.Method())
}

// bind computes the function arguments for a match. Each parameter takes,
// in order of preference, the template parameter of its name, the named
// parameter of its name, or the next capture not taken by name.
func (c *StepCandidate) bind(match *pattern.Match, named map[string]string, converters *convert.ParameterConverters, monitor StepMonitor) ([]any, []string, error) {
	params := c.fn.Parameters()
	captures := match.Values()
	taken := make([]bool, len(captures))

	values := make([]string, len(params))
	resolved := make([]bool, len(params))
	for i := range params {
		if i >= len(c.names) || c.names[i] == "" {
			continue
		}
		name := c.names[i]
		if idx := indexOf(c.matcher.ParameterNames(), name); idx >= 0 && idx < len(captures) {
			values[i], resolved[i], taken[idx] = captures[idx], true, true
			continue
		}
		if v, ok := named[name]; ok {
			values[i], resolved[i] = v, true
		}
	}

	next := 0
	for i := range params {
		if resolved[i] {
			continue
		}
		for next < len(captures) && taken[next] {
			next++
		}
		if next >= len(captures) {
			return nil, nil, fmt.Errorf("%w: no value for parameter %d of %s", executor.ErrArgumentCount, i+1, c.Method())
		}
		values[i], taken[next] = captures[next], true
		next++
	}

	args := make([]any, len(params))
	for i, t := range params {
		v, err := converters.Convert(values[i], t)
		if err != nil {
			return nil, values, err
		}
		monitor.ConvertedValueOfType(values[i], t, v)
		args[i] = v
	}
	return args, values, nil
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return -1
}
