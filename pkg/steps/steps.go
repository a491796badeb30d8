// Package steps matches textual steps to registered step functions and
// performs them.
package steps

import (
	"fmt"

	"github.com/denizgursoy/behave/pkg/convert"
	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/model"
)

type (
	// Steps is the registry a step source fills with step functions,
	// lifecycle hooks and converters.
	Steps struct {
		name        string
		definitions []*definition
		hooks       []*hookDefinition
		converters  []convert.Converter
		errs        []error
	}

	definition struct {
		stepType  keywords.StepType
		templates []string
		fn        any
		priority  int
		names     []string
	}

	hookDefinition struct {
		stage          Stage
		scope          Scope
		fn             any
		order          int
		uponGivenStory bool
		outcome        model.Outcome
		scenarioType   ScenarioType
	}

	// StepOption configures a step definition.
	StepOption func(*definition)

	// HookOption configures a hook.
	HookOption func(*hookDefinition)
)

// New returns an empty registry. The name shows in logs and errors.
func New(name string) *Steps {
	return &Steps{name: name}
}

func (s *Steps) Name() string {
	return s.name
}

// Priority ranks the step among candidates matching the same text; the
// highest wins.
func Priority(n int) StepOption {
	return func(d *definition) {
		d.priority = n
	}
}

// Named binds function parameters, in order, to pattern parameters or
// example columns of these names. An empty name keeps the parameter
// positional.
func Named(names ...string) StepOption {
	return func(d *definition) {
		d.names = names
	}
}

// Alias registers further templates for the same function.
func Alias(templates ...string) StepOption {
	return func(d *definition) {
		d.templates = append(d.templates, templates...)
	}
}

func (s *Steps) Given(template string, fn any, opts ...StepOption) *Steps {
	return s.add(keywords.GivenStep, template, fn, opts)
}

func (s *Steps) When(template string, fn any, opts ...StepOption) *Steps {
	return s.add(keywords.WhenStep, template, fn, opts)
}

func (s *Steps) Then(template string, fn any, opts ...StepOption) *Steps {
	return s.add(keywords.ThenStep, template, fn, opts)
}

// And registers a step matching a step of any type: Given, When or Then,
// whichever the step resolved to.
func (s *Steps) And(template string, fn any, opts ...StepOption) *Steps {
	return s.add(keywords.AndStep, template, fn, opts)
}

// Step registers a step of an explicit type.
func (s *Steps) Step(stepType keywords.StepType, template string, fn any, opts ...StepOption) *Steps {
	if stepType == keywords.IgnorableStep {
		s.errs = append(s.errs, fmt.Errorf("%w: %q cannot be an ignorable step", ErrInvalidStep, template))
		return s
	}
	return s.add(stepType, template, fn, opts)
}

func (s *Steps) add(stepType keywords.StepType, template string, fn any, opts []StepOption) *Steps {
	d := &definition{stepType: stepType, templates: []string{template}, fn: fn}
	for _, opt := range opts {
		opt(d)
	}
	s.definitions = append(s.definitions, d)
	return s
}

// Order sorts hooks of the same stage and scope, lowest first.
func Order(n int) HookOption {
	return func(h *hookDefinition) {
		h.order = n
	}
}

// UponGivenStory makes a story hook run for given stories only. By default
// story hooks run for the stories that are not given stories.
func UponGivenStory(upon bool) HookOption {
	return func(h *hookDefinition) {
		h.uponGivenStory = upon
	}
}

// UponOutcome limits an After hook to successful or failed runs.
func UponOutcome(outcome model.Outcome) HookOption {
	return func(h *hookDefinition) {
		h.outcome = outcome
	}
}

// ForScenarioType picks whether a scenario hook runs around whole
// scenarios, around each examples row, or both.
func ForScenarioType(t ScenarioType) HookOption {
	return func(h *hookDefinition) {
		h.scenarioType = t
	}
}

func (s *Steps) BeforeStories(fn any, opts ...HookOption) *Steps {
	return s.hook(StageBefore, ScopeStories, fn, opts)
}

func (s *Steps) AfterStories(fn any, opts ...HookOption) *Steps {
	return s.hook(StageAfter, ScopeStories, fn, opts)
}

func (s *Steps) BeforeStory(fn any, opts ...HookOption) *Steps {
	return s.hook(StageBefore, ScopeStory, fn, opts)
}

func (s *Steps) AfterStory(fn any, opts ...HookOption) *Steps {
	return s.hook(StageAfter, ScopeStory, fn, opts)
}

func (s *Steps) BeforeScenario(fn any, opts ...HookOption) *Steps {
	return s.hook(StageBefore, ScopeScenario, fn, opts)
}

func (s *Steps) AfterScenario(fn any, opts ...HookOption) *Steps {
	return s.hook(StageAfter, ScopeScenario, fn, opts)
}

func (s *Steps) BeforeStep(fn any, opts ...HookOption) *Steps {
	return s.hook(StageBefore, ScopeStep, fn, opts)
}

func (s *Steps) AfterStep(fn any, opts ...HookOption) *Steps {
	return s.hook(StageAfter, ScopeStep, fn, opts)
}

func (s *Steps) hook(stage Stage, scope Scope, fn any, opts []HookOption) *Steps {
	h := &hookDefinition{stage: stage, scope: scope, fn: fn, scenarioType: NormalScenario}
	for _, opt := range opts {
		opt(h)
	}
	s.hooks = append(s.hooks, h)
	return s
}

// Converter registers a function converter, func(string) (T, error).
func (s *Steps) Converter(fn any) *Steps {
	c, err := convert.FunctionConverterOf(fn)
	if err != nil {
		s.errs = append(s.errs, fmt.Errorf("%w: converter of %s: %v", ErrInvalidStep, s.name, err))
		return s
	}
	s.converters = append(s.converters, c)
	return s
}

// AddConverters registers converters such as enum or JSON converters.
func (s *Steps) AddConverters(converters ...convert.Converter) *Steps {
	s.converters = append(s.converters, converters...)
	return s
}
