package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/denizgursoy/behave/pkg/behave"
	"github.com/denizgursoy/behave/pkg/convert"
	"github.com/denizgursoy/behave/pkg/executor"
	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/pattern"
)

// Collector holds the candidates and hooks of every step source and turns
// textual steps into executable ones. It is built once per run and read
// concurrently afterwards.
type Collector struct {
	keywords     *keywords.Keywords
	converters   *convert.ParameterConverters
	parser       *pattern.Parser
	prioritising PrioritisingStrategy
	monitor      StepMonitor
	candidates   []*StepCandidate
	hooks        []*Hook
}

type CollectorOption func(*Collector)

func WithPrioritising(strategy PrioritisingStrategy) CollectorOption {
	return func(c *Collector) {
		c.prioritising = strategy
	}
}

func WithStepMonitor(monitor StepMonitor) CollectorOption {
	return func(c *Collector) {
		c.monitor = monitor
	}
}

func WithPatternParser(parser *pattern.Parser) CollectorOption {
	return func(c *Collector) {
		c.parser = parser
	}
}

// NewCollector compiles the step sources. Steps convert with a clone of
// converters holding the converters the sources register too; converters
// itself is left unchanged. Every invalid definition is reported.
func NewCollector(kw *keywords.Keywords, converters *convert.ParameterConverters, sources []*Steps, opts ...CollectorOption) (*Collector, error) {
	if kw == nil {
		kw = keywords.Default()
	}
	if converters == nil {
		converters = convert.New(nil)
	}
	c := &Collector{
		keywords:     kw,
		converters:   converters.Clone(),
		parser:       pattern.NewParser(pattern.DefaultPrefix),
		prioritising: ByPriorityField{},
		monitor:      NullStepMonitor{},
	}
	for _, opt := range opts {
		opt(c)
	}

	var errs []error
	seen := make(map[string]*StepCandidate)
	for _, source := range sources {
		errs = append(errs, source.errs...)
		c.converters.Add(source.converters...)

		for _, d := range source.definitions {
			fn, err := executor.NewFunction(d.fn)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %q of %s: %w", ErrInvalidStep, d.templates[0], source.name, err))
				continue
			}
			for _, template := range d.templates {
				for _, variant := range pattern.Variants(template) {
					candidate, err := newCandidate(d, variant, source.name, c.parser, fn)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					key := candidate.Type.String() + " " + variant
					if previous, ok := seen[key]; ok {
						errs = append(errs, fmt.Errorf("%w: %s %q registered by %s and %s", ErrDuplicateStep, candidate.Type, variant, previous.Method(), candidate.Method()))
						continue
					}
					seen[key] = candidate
					c.candidates = append(c.candidates, candidate)
				}
			}
		}

		for _, h := range source.hooks {
			fn, err := executor.NewFunction(h.fn)
			if err != nil {
				errs = append(errs, fmt.Errorf("%w: %s %s of %s: %w", ErrInvalidHook, h.stage, h.scope, source.name, err))
				continue
			}
			if len(fn.Parameters()) > 0 {
				errs = append(errs, fmt.Errorf("%w: %s takes parameters that cannot be injected", ErrInvalidHook, fn.Name()))
				continue
			}
			c.hooks = append(c.hooks, &Hook{
				Stage:          h.stage,
				Scope:          h.scope,
				Order:          h.order,
				UponGivenStory: h.uponGivenStory,
				Outcome:        h.outcome,
				ScenarioType:   h.scenarioType,
				Source:         source.name,
				fn:             fn,
			})
		}
	}
	sortHooks(c.hooks)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Collector) Keywords() *keywords.Keywords {
	return c.keywords
}

func (c *Collector) Candidates() []*StepCandidate {
	return c.candidates
}

// Hooks returns the hooks of a stage and scope that apply to the run
// described by filter, sorted by order.
func (c *Collector) Hooks(stage Stage, scope Scope, filter HookFilter) []*Hook {
	var hooks []*Hook
	for _, h := range c.hooks {
		if h.Stage == stage && h.Scope == scope && h.appliesTo(filter) {
			hooks = append(hooks, h)
		}
	}
	return hooks
}

// CollectSteps resolves steps with the named parameters of an examples
// row or given story substituted into their text.
func (c *Collector) CollectSteps(steps []model.Step, named map[string]string) []*Step {
	collected := make([]*Step, len(steps))
	for i, s := range steps {
		collected[i] = c.CollectStep(s, named)
	}
	return collected
}

// CollectStep resolves one step. Ignorable steps, steps without candidate
// and ambiguous steps are resolved too; performing them reports the
// corresponding outcome.
func (c *Collector) CollectStep(step model.Step, named map[string]string) *Step {
	if len(named) > 0 {
		step = step.WithParameters(named)
	}
	s := &Step{text: step.Text, named: named, collector: c}
	if step.Type == keywords.IgnorableStep {
		s.kind = ignorableStep
		return s
	}

	raw, _ := c.keywords.StepTypeFor(step.Text)
	stripped := c.keywords.StepWithoutStartingWord(step.Text, raw)

	var matching []*StepCandidate
	for _, candidate := range c.candidates {
		matches := candidate.Matches(step.Type, stripped)
		if candidate.acceptsType(step.Type) {
			c.monitor.StepMatchesPattern(step.Text, matches, candidate)
		}
		if matches {
			matching = append(matching, candidate)
		}
	}

	best := prioritise(c.prioritising, stripped, matching)
	switch len(best) {
	case 0:
		s.kind = pendingStep
		s.stepType = step.Type
		s.stripped = stripped
	case 1:
		s.kind = performableStep
		s.candidate = best[0]
		s.match, _ = best[0].matcher.Match(stripped)
	default:
		names := make([]string, len(best))
		for i, candidate := range best {
			names[i] = candidate.String()
		}
		s.kind = failingStep
		s.err = &AmbiguousStepError{Step: step.Text, Candidates: names}
	}
	return s
}

type stepKind int

const (
	performableStep stepKind = iota
	pendingStep
	ignorableStep
	failingStep
)

// Step is an executable step.
type Step struct {
	text      string
	kind      stepKind
	stepType  keywords.StepType
	stripped  string
	candidate *StepCandidate
	match     *pattern.Match
	named     map[string]string
	err       error
	collector *Collector
}

func (s *Step) Text() string {
	return s.text
}

func (s *Step) IsPending() bool {
	return s.kind == pendingStep
}

// Candidate returns the matched candidate, nil unless the step is
// performable.
func (s *Step) Candidate() *StepCandidate {
	return s.candidate
}

// PendingMethod renders a stub function for a pending step.
func (s *Step) PendingMethod() string {
	if s.kind != pendingStep {
		return ""
	}
	return PendingMethod(s.stepType, s.stripped)
}

// Perform runs the step. The returned context carries what the step
// function returned.
func (s *Step) Perform(ctx context.Context) (context.Context, Result) {
	monitor := s.collector.monitor
	monitor.Performing(s.text, false)
	started := time.Now()
	result := Result{Step: s.text, StartedAt: started}

	switch s.kind {
	case ignorableStep:
		result.Outcome = Ignorable
		return ctx, result
	case pendingStep:
		result.Outcome = Pending
		return ctx, result
	case failingStep:
		result.Outcome = Failed
		result.Err = NewStepFailure(s.text, s.err)
		return ctx, result
	}

	result.Candidate = s.candidate.Template
	if bc := behave.FromContext(ctx); bc != nil {
		bc.SetStep(behave.Step{Text: s.text})
	}

	args, values, err := s.candidate.bind(s.match, s.named, s.collector.converters, monitor)
	result.Parameters = values
	if err == nil {
		ctx, err = s.candidate.fn.Call(ctx, args)
	}

	result.Duration = time.Since(started)
	if err != nil {
		result.Outcome = Failed
		result.Err = NewStepFailure(s.text, err)
	}
	if bc := behave.FromContext(ctx); bc != nil {
		bc.SetStep(behave.Step{Text: s.text, Err: result.Err})
	}
	monitor.Performed(s.text, result.Outcome, result.Duration)
	return ctx, result
}

// DryRun matches the step without invoking it. Performable steps are
// Skipped, the others report their outcome as Perform would.
func (s *Step) DryRun() Result {
	s.collector.monitor.Performing(s.text, true)
	switch s.kind {
	case performableStep:
		return Result{Step: s.text, Outcome: Skipped, Candidate: s.candidate.Template}
	case ignorableStep:
		return Result{Step: s.text, Outcome: Ignorable}
	case pendingStep:
		return Result{Step: s.text, Outcome: Pending}
	default:
		return Result{Step: s.text, Outcome: Failed, Err: NewStepFailure(s.text, s.err)}
	}
}

// DoNotPerform reports the step NotPerformed because of an earlier
// failure. Ignorable steps stay Ignorable.
func (s *Step) DoNotPerform(cause error) Result {
	if s.kind == ignorableStep {
		return Result{Step: s.text, Outcome: Ignorable}
	}
	return Result{Step: s.text, Outcome: NotPerformed, Err: cause}
}
