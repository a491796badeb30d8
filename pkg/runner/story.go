package runner

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/denizgursoy/behave/pkg/behave"
	"github.com/denizgursoy/behave/pkg/configuration"
	"github.com/denizgursoy/behave/pkg/filter"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/reporter"
	"github.com/denizgursoy/behave/pkg/steps"
)

// givenStoryRun describes how a story is run: on its own, or as the given
// story of another with the parameters and anchor of its declaration.
type givenStoryRun struct {
	given  bool
	chain  []string
	params map[string]string

	anchored    bool
	anchorName  string
	anchorValue string
}

func (g givenStoryRun) anchor() string {
	return g.anchorName + ":" + g.anchorValue
}

// scenarioState tracks the failure of a scenario, an examples row or a
// story level section. skip is a failure that happened before the steps
// started, so none of them runs whatever the step failure policy.
type scenarioState struct {
	err  error
	skip error
}

func (st *scenarioState) failed() bool {
	return st.err != nil || st.skip != nil
}

func (st *scenarioState) fail(err error) {
	if st.err == nil {
		st.err = err
	}
}

// blocking returns the failure that keeps the next step from being
// performed, nil when it may run. After steps are forced.
func (st *scenarioState) blocking(policy configuration.StepFailurePolicy, force bool) error {
	switch {
	case force:
		return nil
	case st.skip != nil:
		return st.skip
	case st.err != nil && policy == configuration.AbortScenario:
		return st.err
	default:
		return nil
	}
}

// storyRun holds what one top level story, given stories included, shares
// while it runs. It belongs to the goroutine running the story.
type storyRun struct {
	runner   *StoryRunner
	reporter reporter.StoryReporter
	filter   filter.MetaFilter
	controls configuration.StoryControls
	bc       *behave.Context

	failures       []error
	pendingMethods []string
	pending        map[string]bool
}

// allowed reports whether the story or any of its scenarios passes the
// meta filter.
func (s *storyRun) allowed(story *model.Story) bool {
	if s.filter.Allow(story.Meta) {
		return true
	}
	for _, scenario := range story.Scenarios {
		if s.filter.Allow(scenario.Meta.InheritFrom(story.Meta)) {
			return true
		}
	}
	return false
}

func (s *storyRun) scenarioAllowed(story *model.Story, scenario *model.Scenario, g givenStoryRun) (bool, string) {
	meta := scenario.Meta.InheritFrom(story.Meta)
	if g.anchored && (!meta.Has(g.anchorName) || meta.Property(g.anchorName) != g.anchorValue) {
		return false, g.anchor()
	}
	if g.given && s.controls.IgnoreMetaFiltersIfGivenStory {
		return true, ""
	}
	return s.filter.Allow(meta), s.filter.String()
}

func (s *storyRun) state(story *model.Story, state State) {
	s.runner.logger.Debug("story state", "story", story.Path, "state", state.String())
}

func (s *storyRun) record(st *scenarioState, err error) {
	st.fail(err)
	s.failures = append(s.failures, err)
}

// runStory runs a story and returns its first failure.
func (s *storyRun) runStory(ctx context.Context, story *model.Story, g givenStoryRun) error {
	g.chain = append(slices.Clone(g.chain), story.Path)
	rep := s.reporter

	rep.BeforeStory(story, g.given)
	if !g.given {
		s.bc.StartStory(behave.Story{Path: story.Path, Meta: story.Meta.Properties()})
	}
	rep.Narrative(story.Narrative)
	rep.Lifecycle(story.Lifecycle)

	s.state(story, RunningBeforeStory)
	storyState := &scenarioState{}
	ctx, _ = s.runHooks(ctx, steps.StageBefore, steps.ScopeStory, steps.HookFilter{GivenStory: g.given}, storyState)
	if !story.GivenStories.IsEmpty() {
		rep.GivenStories(story.GivenStories)
		ctx = s.runGivenStories(ctx, story.GivenStories, g, storyState)
	}
	ctx = s.performSteps(ctx, story.Lifecycle.BeforeSteps(model.ScopeStory), g.params, storyState, false)

	failure := storyState.err
	for _, scenario := range story.Scenarios {
		if ok, by := s.scenarioAllowed(story, scenario, g); !ok {
			rep.ScenarioNotAllowed(scenario, by)
			continue
		}
		skip := storyState.err
		if skip == nil && s.controls.SkipScenariosAfterFailure {
			skip = failure
		}
		if err := s.runScenario(ctx, story, scenario, g, skip); err != nil && failure == nil {
			failure = err
		}
	}

	s.state(story, RunningAfterStory)
	afterState := &scenarioState{}
	ctx = s.performSteps(ctx, story.Lifecycle.AfterSteps(model.ScopeStory, failure != nil), g.params, afterState, true)
	s.runHooks(ctx, steps.StageAfter, steps.ScopeStory, steps.HookFilter{GivenStory: g.given, Failed: failure != nil}, afterState)
	if failure == nil {
		failure = afterState.err
	}

	if !g.given && len(s.pendingMethods) > 0 {
		rep.PendingMethods(s.pendingMethods)
	}
	rep.AfterStory(g.given)
	return failure
}

// runScenario runs a scenario, once per examples row when it has examples,
// and returns its first failure. skip, when set, is the earlier failure
// that keeps the steps from running.
func (s *storyRun) runScenario(ctx context.Context, story *model.Story, scenario *model.Scenario, g givenStoryRun, skip error) error {
	rep := s.reporter
	meta := scenario.Meta.InheritFrom(story.Meta)

	s.state(story, RunningScenario)
	rep.BeforeScenario(scenario)
	s.bc.StartScenario(behave.Scenario{Title: scenario.Title, Meta: meta.Properties(), Parameters: g.params})
	st := &scenarioState{skip: skip}

	hooks := !(g.given && s.controls.SkipBeforeAndAfterScenarioStepsIfGivenStory)
	if hooks {
		s.state(story, RunningBeforeScenario)
		var err error
		if ctx, err = s.runHooks(ctx, steps.StageBefore, steps.ScopeScenario, steps.HookFilter{ScenarioType: steps.NormalScenario}, st); err != nil && st.skip == nil {
			st.skip = err
		}
	}
	if !scenario.GivenStories.IsEmpty() {
		givenStories := scenario.GivenStories
		if givenStories.RequireParameters() {
			givenStories = givenStories.WithExamples(scenario.Examples)
		}
		rep.GivenStories(givenStories)
		ctx = s.runGivenStories(ctx, givenStories, g, st)
	}

	s.state(story, RunningSteps)
	if scenario.HasExamples() {
		s.runExamples(ctx, story, scenario, meta, g, st, hooks)
	} else {
		ctx = s.runScenarioSteps(ctx, story.Lifecycle, scenario.Steps, g.params, st)
	}

	if hooks {
		s.state(story, RunningAfterScenario)
		s.runHooks(ctx, steps.StageAfter, steps.ScopeScenario, steps.HookFilter{Failed: st.failed(), ScenarioType: steps.NormalScenario}, st)
	}
	s.bc.EndScenario(st.err)
	rep.AfterScenario()

	if st.err != nil {
		return st.err
	}
	return skip
}

// runExamples runs the steps once per row. Rows start afresh: the failure
// of a row does not stop the next one.
func (s *storyRun) runExamples(ctx context.Context, story *model.Story, scenario *model.Scenario, meta model.Meta, g givenStoryRun, st *scenarioState, hooks bool) {
	rep := s.reporter
	rep.BeforeExamples(scenario.StepTexts(), scenario.Examples)
	skip := st.skip
	if skip == nil {
		skip = st.err
	}
	for i, row := range scenario.Examples.Rows() {
		if s.controls.MetaByRow && !s.filter.Allow(model.NewMeta(row).InheritFrom(meta)) {
			continue
		}
		named := maps.Clone(g.params)
		if named == nil {
			named = make(map[string]string, len(row))
		}
		maps.Copy(named, row)

		rep.Example(row, i)
		s.bc.StartScenario(behave.Scenario{Title: scenario.Title, Meta: meta.Properties(), Parameters: named})
		rowState := &scenarioState{skip: skip}

		rowCtx := ctx
		if hooks {
			var err error
			if rowCtx, err = s.runHooks(rowCtx, steps.StageBefore, steps.ScopeScenario, steps.HookFilter{ScenarioType: steps.ExampleScenario}, rowState); err != nil && rowState.skip == nil {
				rowState.skip = err
			}
		}
		rowCtx = s.runScenarioSteps(rowCtx, story.Lifecycle, scenario.Steps, named, rowState)
		if hooks {
			s.runHooks(rowCtx, steps.StageAfter, steps.ScopeScenario, steps.HookFilter{Failed: rowState.failed(), ScenarioType: steps.ExampleScenario}, rowState)
		}
		if rowState.err != nil {
			st.fail(rowState.err)
		}
	}
	rep.AfterExamples()
}

func (s *storyRun) runScenarioSteps(ctx context.Context, lifecycle model.Lifecycle, scenarioSteps []model.Step, named map[string]string, st *scenarioState) context.Context {
	ctx = s.performSteps(ctx, lifecycle.BeforeSteps(model.ScopeScenario), named, st, false)
	ctx = s.performSteps(ctx, scenarioSteps, named, st, false)
	return s.performSteps(ctx, lifecycle.AfterSteps(model.ScopeScenario, st.failed()), named, st, true)
}

// runGivenStories runs given stories in order. A failing given story fails
// st; once st failed, the remaining given stories are not run.
func (s *storyRun) runGivenStories(ctx context.Context, givenStories model.GivenStories, parent givenStoryRun, st *scenarioState) context.Context {
	for _, given := range givenStories.Stories {
		if st.failed() {
			return ctx
		}
		if err := s.runGivenStory(ctx, given, parent); err != nil {
			st.fail(err)
		}
	}
	return ctx
}

func (s *storyRun) runGivenStory(ctx context.Context, given model.GivenStory, parent givenStoryRun) error {
	if slices.Contains(parent.chain, given.Path) {
		chain := append(slices.Clone(parent.chain), given.Path)
		err := fmt.Errorf("%w: %s", ErrGivenStoryCycle, strings.Join(chain, " -> "))
		s.givenStoryFailed(given.Path, err)
		return err
	}
	story, err := s.runner.StoryOfPath(given.Path)
	if err != nil {
		s.givenStoryFailed(given.Path, err)
		return err
	}

	g := givenStoryRun{given: true, chain: parent.chain, params: maps.Clone(parent.params)}
	if len(given.Parameters) > 0 {
		if g.params == nil {
			g.params = make(map[string]string, len(given.Parameters))
		}
		maps.Copy(g.params, given.Parameters)
	}
	if name, value, ok := given.AnchorMeta(); ok {
		g.anchored, g.anchorName, g.anchorValue = true, name, value
	}
	return s.runStory(ctx, story, g)
}

func (s *storyRun) givenStoryFailed(path string, err error) {
	s.reporter.BeforeStory(&model.Story{Path: path}, true)
	s.reporter.Failed(path, err)
	s.reporter.AfterStory(true)
	s.failures = append(s.failures, err)
}

// runHooks runs the hooks applying to filter. Failures are reported with the
// hook name as step and fail st. Hooks do not run in a dry run.
func (s *storyRun) runHooks(ctx context.Context, stage steps.Stage, scope steps.Scope, hookFilter steps.HookFilter, st *scenarioState) (context.Context, error) {
	if s.controls.DryRun {
		return ctx, nil
	}
	var first error
	for _, hook := range s.runner.collector.Hooks(stage, scope, hookFilter) {
		var err error
		if ctx, err = hook.Run(ctx); err != nil {
			s.reporter.Failed(hook.Method(), err)
			s.record(st, err)
			if first == nil {
				first = err
			}
		}
	}
	return ctx, first
}

func (s *storyRun) performSteps(ctx context.Context, modelSteps []model.Step, named map[string]string, st *scenarioState, force bool) context.Context {
	if len(modelSteps) == 0 {
		return ctx
	}
	for _, step := range s.runner.collector.CollectSteps(modelSteps, named) {
		ctx = s.performStep(ctx, step, st, force)
	}
	return ctx
}

func (s *storyRun) performStep(ctx context.Context, step *steps.Step, st *scenarioState, force bool) context.Context {
	if cause := st.blocking(s.controls.StepFailurePolicy, force); cause != nil {
		s.handle(step, step.DoNotPerform(cause), st)
		return ctx
	}
	if err := ctx.Err(); err != nil {
		s.handle(step, step.DoNotPerform(err), st)
		return ctx
	}
	if s.controls.DryRun {
		s.handle(step, step.DryRun(), st)
		return ctx
	}

	ctx, hookErr := s.runHooks(ctx, steps.StageBefore, steps.ScopeStep, steps.HookFilter{}, st)
	s.reporter.BeforeStep(step.Text())
	var result steps.Result
	if hookErr != nil {
		result = step.DoNotPerform(hookErr)
	} else {
		ctx, result = step.Perform(ctx)
	}
	s.handle(step, result, st)
	ctx, _ = s.runHooks(ctx, steps.StageAfter, steps.ScopeStep, steps.HookFilter{Failed: result.Failed()}, st)
	return ctx
}

// handle reports a step result and applies the pending step strategy.
func (s *storyRun) handle(step *steps.Step, result steps.Result, st *scenarioState) {
	rep := s.reporter
	switch result.Outcome {
	case steps.Successful:
		rep.Successful(step.Text())
	case steps.Ignorable:
		rep.Ignorable(step.Text())
	case steps.Skipped:
		rep.Skipped(step.Text())
	case steps.NotPerformed:
		rep.NotPerformed(step.Text())
	case steps.Pending:
		rep.Pending(step.Text())
		if method := step.PendingMethod(); method != "" && !s.pending[method] {
			s.pending[method] = true
			s.pendingMethods = append(s.pendingMethods, method)
		}
		if err := s.runner.configuration.PendingStepStrategy().Handle(step.Text()); err != nil {
			s.record(st, err)
		}
	case steps.Failed:
		rep.Failed(step.Text(), result.Err)
		s.record(st, result.Err)
	}
}
