package reporter

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/table"
)

type (
	// RunResult is what a run of stories produced.
	RunResult struct {
		ID        uuid.UUID
		StartedAt time.Time
		Duration  time.Duration
		Stories   []*StoryResult
		Failures  []Failure
		Totals    Totals
	}

	StoryResult struct {
		Path           string
		NotAllowed     bool
		Cancelled      bool
		Timeout        time.Duration
		Failed         bool
		Scenarios      []*ScenarioResult
		PendingMethods []string
	}

	ScenarioResult struct {
		Title        string
		Meta         map[string]string
		NotAllowed   bool
		Failed       bool
		Pending      bool
		Examples     int
		GivenStories []*StoryResult
		Steps        []StepResult
	}

	StepResult struct {
		Text    string
		Outcome string
		Err     error
	}

	// Failure locates a failed step. Scenario is empty for failures of
	// story level steps and hooks.
	Failure struct {
		Story    string
		Scenario string
		Step     string
		Err      error
	}
)

// Failed reports whether a step failed or a story was cancelled.
func (r *RunResult) Failed() bool {
	if len(r.Failures) > 0 {
		return true
	}
	for _, story := range r.Stories {
		if story.Cancelled {
			return true
		}
	}
	return false
}

// Err joins the failures, nil when there are none.
func (r *RunResult) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Story returns the result of a story by path.
func (r *RunResult) Story(path string) *StoryResult {
	for _, story := range r.Stories {
		if story.Path == path {
			return story
		}
	}
	return nil
}

func (f Failure) Error() string {
	location := []string{f.Story}
	if f.Scenario != "" {
		location = append(location, f.Scenario)
	}
	return fmt.Sprintf("%s: %s: %v", strings.Join(location, " > "), f.Step, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Scenario returns the result of a scenario by title.
func (s *StoryResult) Scenario(title string) *ScenarioResult {
	for _, scenario := range s.Scenarios {
		if scenario.Title == title {
			return scenario
		}
	}
	return nil
}

// ResultCollector builds a RunResult from the events it receives. Stories
// reported as given stories are attached to the scenario that runs them.
type ResultCollector struct {
	mu        sync.Mutex
	stats     *Statistics
	result    *RunResult
	stories   []*StoryResult
	scenarios [][]*ScenarioResult
}

func NewResultCollector() *ResultCollector {
	return &ResultCollector{
		stats: NewStatistics(),
		result: &RunResult{
			ID:        uuid.Must(uuid.NewV7()),
			StartedAt: time.Now(),
		},
	}
}

// Result returns the result collected so far.
func (c *ResultCollector) Result() *RunResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.result.Duration = time.Since(c.result.StartedAt)
	c.result.Totals = c.stats.Totals()
	return c.result
}

func (c *ResultCollector) update(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

func (c *ResultCollector) story() *StoryResult {
	if len(c.stories) == 0 {
		return nil
	}
	return c.stories[len(c.stories)-1]
}

func (c *ResultCollector) scenario() *ScenarioResult {
	if len(c.scenarios) == 0 {
		return nil
	}
	open := c.scenarios[len(c.scenarios)-1]
	if len(open) == 0 {
		return nil
	}
	return open[len(open)-1]
}

func (c *ResultCollector) step(text, outcome string, err error) {
	if scenario := c.scenario(); scenario != nil {
		scenario.Steps = append(scenario.Steps, StepResult{Text: text, Outcome: outcome, Err: err})
	}
}

func (c *ResultCollector) StoryNotAllowed(story *model.Story, filter string) {
	c.stats.StoryNotAllowed(story, filter)
	c.update(func() {
		if len(c.stories) == 0 {
			c.result.Stories = append(c.result.Stories, &StoryResult{Path: story.Path, NotAllowed: true})
		}
	})
}

func (c *ResultCollector) BeforeStory(story *model.Story, givenStory bool) {
	c.stats.BeforeStory(story, givenStory)
	c.update(func() {
		result := &StoryResult{Path: story.Path}
		if scenario := c.scenario(); givenStory && scenario != nil {
			scenario.GivenStories = append(scenario.GivenStories, result)
		} else if len(c.stories) == 0 {
			c.result.Stories = append(c.result.Stories, result)
		}
		c.stories = append(c.stories, result)
		c.scenarios = append(c.scenarios, nil)
	})
}

func (c *ResultCollector) Narrative(model.Narrative) {}

func (c *ResultCollector) Lifecycle(model.Lifecycle) {}

// StoryCancelled closes everything the top level story left open.
func (c *ResultCollector) StoryCancelled(story *model.Story, timeout time.Duration) {
	c.stats.StoryCancelled(story, timeout)
	c.update(func() {
		if len(c.stories) == 0 {
			return
		}
		c.stories = c.stories[:1]
		c.scenarios = c.scenarios[:1]
		c.scenarios[0] = nil
		c.stories[0].Cancelled = true
		c.stories[0].Timeout = timeout
	})
}

func (c *ResultCollector) AfterStory(givenStory bool) {
	c.stats.AfterStory(givenStory)
	c.update(func() {
		story := c.story()
		if story == nil {
			return
		}
		c.stories = c.stories[:len(c.stories)-1]
		c.scenarios = c.scenarios[:len(c.scenarios)-1]
		if !story.Failed {
			return
		}
		if scenario := c.scenario(); givenStory && scenario != nil {
			scenario.Failed = true
		}
		if parent := c.story(); parent != nil {
			parent.Failed = true
		}
	})
}

func (c *ResultCollector) ScenarioNotAllowed(scenario *model.Scenario, filter string) {
	c.stats.ScenarioNotAllowed(scenario, filter)
	c.update(func() {
		if story := c.story(); story != nil {
			story.Scenarios = append(story.Scenarios, &ScenarioResult{Title: scenario.Title, NotAllowed: true})
		}
	})
}

func (c *ResultCollector) BeforeScenario(scenario *model.Scenario) {
	c.stats.BeforeScenario(scenario)
	c.update(func() {
		story := c.story()
		if story == nil {
			return
		}
		result := &ScenarioResult{Title: scenario.Title, Meta: scenario.Meta.Properties()}
		story.Scenarios = append(story.Scenarios, result)
		c.scenarios[len(c.scenarios)-1] = append(c.scenarios[len(c.scenarios)-1], result)
	})
}

func (c *ResultCollector) GivenStories(model.GivenStories) {}

func (c *ResultCollector) BeforeExamples([]string, *table.ExamplesTable) {}

func (c *ResultCollector) Example(row map[string]string, index int) {
	c.stats.Example(row, index)
	c.update(func() {
		if scenario := c.scenario(); scenario != nil {
			scenario.Examples++
		}
	})
}

func (c *ResultCollector) AfterExamples() {}

func (c *ResultCollector) AfterScenario() {
	c.stats.AfterScenario()
	c.update(func() {
		if len(c.scenarios) == 0 {
			return
		}
		open := c.scenarios[len(c.scenarios)-1]
		if len(open) == 0 {
			return
		}
		scenario := open[len(open)-1]
		c.scenarios[len(c.scenarios)-1] = open[:len(open)-1]
		if scenario.Failed {
			c.story().Failed = true
		}
	})
}

func (c *ResultCollector) BeforeStep(string) {}

func (c *ResultCollector) Successful(step string) {
	c.stats.Successful(step)
	c.update(func() { c.step(step, "successful", nil) })
}

func (c *ResultCollector) Ignorable(step string) {
	c.stats.Ignorable(step)
	c.update(func() { c.step(step, "ignorable", nil) })
}

func (c *ResultCollector) Pending(step string) {
	c.stats.Pending(step)
	c.update(func() {
		c.step(step, "pending", nil)
		if scenario := c.scenario(); scenario != nil {
			scenario.Pending = true
		}
	})
}

func (c *ResultCollector) NotPerformed(step string) {
	c.stats.NotPerformed(step)
	c.update(func() { c.step(step, "notPerformed", nil) })
}

func (c *ResultCollector) Skipped(step string) {
	c.stats.Skipped(step)
	c.update(func() { c.step(step, "skipped", nil) })
}

func (c *ResultCollector) Failed(step string, err error) {
	c.stats.Failed(step, err)
	c.update(func() {
		c.step(step, "failed", err)
		failure := Failure{Step: step, Err: err}
		if story := c.story(); story != nil {
			story.Failed = true
			failure.Story = c.stories[0].Path
		}
		if scenario := c.scenario(); scenario != nil {
			scenario.Failed = true
			failure.Scenario = scenario.Title
		}
		c.result.Failures = append(c.result.Failures, failure)
	})
}

func (c *ResultCollector) PendingMethods(methods []string) {
	c.stats.PendingMethods(methods)
	c.update(func() {
		if story := c.story(); story != nil {
			story.PendingMethods = append(story.PendingMethods, methods...)
		}
	})
}

func (c *ResultCollector) DryRun() {}
