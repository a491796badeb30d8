// Package runner performs stories: hooks, given stories, lifecycle steps,
// scenarios and their examples, reporting every outcome.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/denizgursoy/behave/pkg/behave"
	"github.com/denizgursoy/behave/pkg/configuration"
	"github.com/denizgursoy/behave/pkg/filter"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/reporter"
	"github.com/denizgursoy/behave/pkg/steps"
)

var (
	// ErrGivenStoryCycle is returned for a given story already on the chain
	// of stories that led to it.
	ErrGivenStoryCycle = errors.New("given story cycle")

	// ErrStoryFailed wraps the failures of a story.
	ErrStoryFailed = errors.New("story failed")
)

// StoryRunner runs stories with a configuration and the candidates of a
// collector. One StoryRunner serves every story of a run, concurrently.
type StoryRunner struct {
	configuration *configuration.Configuration
	collector     *steps.Collector
	logger        *slog.Logger
	state         atomic.Int32
}

func New(cfg *configuration.Configuration, collector *steps.Collector) *StoryRunner {
	if cfg == nil {
		cfg = configuration.MostUseful()
	}
	return &StoryRunner{
		configuration: cfg,
		collector:     collector,
		logger:        cfg.Logger().With("component", "runner"),
	}
}

func (r *StoryRunner) Configuration() *configuration.Configuration {
	return r.configuration
}

// State returns the run level state.
func (r *StoryRunner) State() State {
	return State(r.state.Load())
}

func (r *StoryRunner) setState(s State) {
	r.state.Store(int32(s))
	r.logger.Debug("run state", "state", s.String())
}

// RunBeforeOrAfterStories runs the hooks of the stories scope, reported as
// a pseudo story. failed tells After hooks whether any story failed.
func (r *StoryRunner) RunBeforeOrAfterStories(ctx context.Context, stage steps.Stage, rep reporter.StoryReporter, failed bool) (context.Context, error) {
	if rep == nil {
		rep = r.configuration.Reporter()
	}
	path, state := reporter.BeforeStoriesPath, RunningBeforeStories
	if stage == steps.StageAfter {
		path, state = reporter.AfterStoriesPath, RunningAfterStories
	}
	r.setState(state)

	rep.BeforeStory(&model.Story{Path: path}, false)
	var errs []error
	if !r.configuration.StoryControls().DryRun {
		for _, hook := range r.collector.Hooks(stage, steps.ScopeStories, steps.HookFilter{Failed: failed}) {
			var err error
			if ctx, err = hook.Run(ctx); err != nil {
				rep.Failed(hook.Method(), err)
				errs = append(errs, err)
			}
		}
	}
	rep.AfterStory(false)

	if stage == steps.StageAfter {
		r.setState(Done)
	} else {
		r.setState(RunningStories)
	}
	return ctx, errors.Join(errs...)
}

// RunPath loads, parses and runs the story at path. Load and parse failures
// are reported as a failed story.
func (r *StoryRunner) RunPath(ctx context.Context, path string, rep reporter.StoryReporter, metaFilter filter.MetaFilter) error {
	story, err := r.StoryOfPath(path)
	if err != nil {
		if rep == nil {
			rep = r.configuration.Reporter()
		}
		rep.BeforeStory(&model.Story{Path: path}, false)
		rep.Failed(path, err)
		rep.AfterStory(false)
		return r.configuration.FailureStrategy().HandleFailure(err)
	}
	return r.Run(ctx, story, rep, metaFilter)
}

// StoryOfPath loads and parses the story at path.
func (r *StoryRunner) StoryOfPath(path string) (*model.Story, error) {
	text, err := r.configuration.StoryLoader().LoadStoryAsText(path)
	if err != nil {
		return nil, err
	}
	return r.configuration.StoryParser().ParseStory(text, path)
}

// Run runs a story. The returned error joins the failures of the story,
// filtered through the failure strategy; a pending step fails the story
// only under the failing pending step strategy.
func (r *StoryRunner) Run(ctx context.Context, story *model.Story, rep reporter.StoryReporter, metaFilter filter.MetaFilter) error {
	if rep == nil {
		rep = r.configuration.Reporter()
	}
	if metaFilter == nil {
		metaFilter = filter.All()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.State() == NotStarted {
		r.setState(RunningStories)
	}

	bc := behave.FromContext(ctx)
	if bc == nil {
		bc = behave.New(behave.WithLogger(r.configuration.Logger()))
		ctx = behave.NewContext(ctx, bc)
	}

	run := &storyRun{
		runner:   r,
		reporter: rep,
		filter:   metaFilter,
		controls: r.configuration.StoryControls(),
		bc:       bc,
		pending:  map[string]bool{},
	}
	if !run.allowed(story) {
		rep.StoryNotAllowed(story, metaFilter.String())
		return nil
	}
	if run.controls.DryRun {
		rep.DryRun()
	}

	run.runStory(ctx, story, givenStoryRun{})
	if len(run.failures) == 0 {
		return nil
	}
	err := fmt.Errorf("%w: %s: %w", ErrStoryFailed, story.Path, errors.Join(run.failures...))
	return r.configuration.FailureStrategy().HandleFailure(err)
}
