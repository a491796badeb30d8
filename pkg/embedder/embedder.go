// Package embedder runs many stories: before and after stories hooks, a
// pool of story workers, story timeouts and batch failures.
package embedder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/denizgursoy/behave/pkg/configuration"
	"github.com/denizgursoy/behave/pkg/filter"
	"github.com/denizgursoy/behave/pkg/loader"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/reporter"
	"github.com/denizgursoy/behave/pkg/runner"
	"github.com/denizgursoy/behave/pkg/steps"
)

var (
	ErrStoryTimeout = errors.New("story timed out")
	ErrNoFileSystem = errors.New("story loader has no file system to find stories in")
)

// StoryFailure is the failure of one story, or of the before or after
// stories hooks under their pseudo story path.
type StoryFailure struct {
	Path string
	Err  error
}

// RunStoriesError gathers the failures of a run.
type RunStoriesError struct {
	Failures []StoryFailure
	verbose  bool
}

func (e *RunStoriesError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failures in running stories: %d", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("\n  ")
		b.WriteString(f.Path)
		if e.verbose {
			b.WriteString(": ")
			b.WriteString(f.Err.Error())
		}
	}
	return b.String()
}

func (e *RunStoriesError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Embedder runs stories with a configuration, controls and the step
// sources of a factory.
type Embedder struct {
	configuration *configuration.Configuration
	controls      Controls
	factory       steps.Factory
	monitor       Monitor
}

type Option func(*Embedder)

func WithConfiguration(cfg *configuration.Configuration) Option {
	return func(e *Embedder) {
		e.configuration = cfg
	}
}

func WithControls(controls Controls) Option {
	return func(e *Embedder) {
		e.controls = controls
	}
}

func WithStepsFactory(factory steps.Factory) Option {
	return func(e *Embedder) {
		e.factory = factory
	}
}

// WithSteps adds step sources. It replaces a factory that is not a
// *steps.InstanceFactory.
func WithSteps(sources ...*steps.Steps) Option {
	return func(e *Embedder) {
		f, ok := e.factory.(*steps.InstanceFactory)
		if !ok {
			f = steps.NewInstanceFactory()
			e.factory = f
		}
		f.Add(sources...)
	}
}

func WithMonitor(monitor Monitor) Option {
	return func(e *Embedder) {
		e.monitor = monitor
	}
}

func New(opts ...Option) *Embedder {
	e := &Embedder{controls: DefaultControls()}
	for _, opt := range opts {
		opt(e)
	}
	if e.configuration == nil {
		e.configuration = configuration.MostUseful()
	}
	if e.factory == nil {
		e.factory = steps.NewInstanceFactory()
	}
	if e.monitor == nil {
		e.monitor = NewLoggingMonitor(e.configuration.Logger())
	}
	return e
}

func (e *Embedder) Configuration() *configuration.Configuration {
	return e.configuration
}

func (e *Embedder) Controls() Controls {
	return e.controls
}

// FindStoryPaths lists the stories under root in the file system of the
// story loader, filtered by the include and exclude globs of the controls.
func (e *Embedder) FindStoryPaths(root string) ([]string, error) {
	l, ok := e.configuration.StoryLoader().(interface{ FileSystem() fs.FS })
	if !ok {
		return nil, ErrNoFileSystem
	}
	finder := loader.Finder{Includes: e.controls.Includes, Excludes: e.controls.Excludes}
	return finder.FindPaths(l.FileSystem(), root)
}

// RunStories runs every story found under root.
func (e *Embedder) RunStories(ctx context.Context, root string) (*reporter.RunResult, error) {
	paths, err := e.FindStoryPaths(root)
	if err != nil {
		return nil, err
	}
	return e.RunStoriesAsPaths(ctx, paths)
}

// RunStoriesAsPaths runs the stories at paths. The result holds what every
// story reported; the error is a *RunStoriesError unless failures are
// ignored.
func (e *Embedder) RunStoriesAsPaths(ctx context.Context, paths []string) (*reporter.RunResult, error) {
	collector := reporter.NewResultCollector()
	if e.controls.Skip {
		e.monitor.StoriesSkipped()
		return collector.Result(), nil
	}
	if err := e.controls.Validate(); err != nil {
		return nil, err
	}
	timeouts, _ := ParseStoryTimeouts(e.controls.StoryTimeouts)
	metaFilter, err := e.metaFilter()
	if err != nil {
		return nil, err
	}

	cfg := e.configuration.With(configuration.WithStoryControls(
		mergeStoryControls(e.configuration.StoryControls(), e.controls.Story),
	))
	candidates, err := cfg.Collector(e.factory.CreateCandidateSteps()...)
	if err != nil {
		return nil, err
	}

	run := &storiesRun{
		controls:  e.controls,
		monitor:   e.monitor,
		runner:    runner.New(cfg, candidates),
		filter:    metaFilter,
		timeouts:  timeouts,
		reporter:  reporter.NewDelegating(cfg.Reporter(), collector),
		collector: collector,
	}
	if ctx == nil {
		ctx = context.Background()
	}
	threads := max(1, e.controls.Threads)
	e.monitor.RunningStories(paths, threads)

	ctx, err = run.beforeOrAfterStories(ctx, steps.StageBefore)
	if err != nil {
		run.fail(reporter.BeforeStoriesPath, err)
	}
	run.runAll(ctx, paths, threads)
	if _, err := run.beforeOrAfterStories(ctx, steps.StageAfter); err != nil {
		run.fail(reporter.AfterStoriesPath, err)
	}

	result := collector.Result()
	if len(run.failures) == 0 {
		return result, nil
	}
	runErr := &RunStoriesError{Failures: run.failures, verbose: e.controls.Verbose}
	e.monitor.RunFailed(runErr)
	if e.controls.IgnoreFailureInStories {
		return result, nil
	}
	return result, runErr
}

func (e *Embedder) metaFilter() (filter.MetaFilter, error) {
	filters := make([]filter.MetaFilter, 0, len(e.controls.MetaFilters))
	for _, text := range e.controls.MetaFilters {
		f, err := filter.New(text)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return filter.All(filters...), nil
}

// storiesRun is one run of stories. Stories report through their own
// reporter.Concurrent, flushed into the shared reporter once done.
type storiesRun struct {
	controls  Controls
	monitor   Monitor
	runner    *runner.StoryRunner
	filter    filter.MetaFilter
	timeouts  StoryTimeouts
	reporter  reporter.StoryReporter
	collector *reporter.ResultCollector

	shared  sync.Mutex
	stopped atomic.Bool

	mu       sync.Mutex
	failures []StoryFailure
	notRun   []string
}

func (r *storiesRun) fail(path string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, StoryFailure{Path: path, Err: err})
	if !r.controls.Batch {
		r.stopped.Store(true)
	}
}

func (r *storiesRun) skip(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notRun = append(r.notRun, path)
}

func (r *storiesRun) failed() bool {
	r.mu.Lock()
	failed := len(r.failures) > 0
	r.mu.Unlock()
	return failed || r.collector.Result().Failed()
}

func (r *storiesRun) beforeOrAfterStories(ctx context.Context, stage steps.Stage) (context.Context, error) {
	rep := reporter.NewConcurrent(r.reporter, &r.shared)
	defer rep.Flush()
	return r.runner.RunBeforeOrAfterStories(ctx, stage, rep, stage == steps.StageAfter && r.failed())
}

// runAll hands the paths to threads workers. Once stopped, the remaining
// stories are not run.
func (r *storiesRun) runAll(ctx context.Context, paths []string, threads int) {
	queue := make(chan string)
	var wg sync.WaitGroup
	wg.Add(threads)
	for range threads {
		go func() {
			defer wg.Done()
			for path := range queue {
				if r.stopped.Load() || ctx.Err() != nil {
					r.skip(path)
					continue
				}
				if err := r.runStory(ctx, path); err != nil {
					r.fail(path, err)
				}
			}
		}()
	}
	for _, path := range paths {
		queue <- path
	}
	close(queue)
	wg.Wait()

	if len(r.notRun) > 0 {
		r.monitor.StoriesNotRun(r.notRun)
	}
}

// runStory runs a story in its own goroutine. On timeout the goroutine is
// abandoned: its context is cancelled and its later events are dropped.
func (r *storiesRun) runStory(ctx context.Context, path string) error {
	r.monitor.RunningStory(path)
	started := time.Now()
	timeout := r.timeouts.For(path)
	rep := reporter.NewConcurrent(r.reporter, &r.shared)

	storyCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- r.runner.RunPath(storyCtx, path, rep, r.filter)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		rep.Flush()
		r.monitor.StoryFinished(path, time.Since(started), err)
		return err
	case <-timer.C:
		rep.Cancel(&model.Story{Path: path}, timeout)
		rep.Flush()
		r.monitor.StoryTimedOut(path, timeout)
		if r.controls.FailOnStoryTimeout {
			return fmt.Errorf("%w: %s after %s", ErrStoryTimeout, path, timeout)
		}
		return nil
	}
}
