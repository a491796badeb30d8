package reporter

import (
	"sync"
	"time"

	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/table"
)

// Concurrent buffers the events of one story and replays them to the
// delegate on Flush. Stories running in parallel each get their own
// Concurrent sharing one lock, so their output never interleaves.
type Concurrent struct {
	delegate StoryReporter
	shared   sync.Locker

	mu     sync.Mutex
	events []func(StoryReporter)
	closed bool
}

// NewConcurrent returns a buffering reporter. shared guards the delegate
// and must be the same for every Concurrent writing to it.
func NewConcurrent(delegate StoryReporter, shared sync.Locker) *Concurrent {
	if shared == nil {
		shared = &sync.Mutex{}
	}
	return &Concurrent{delegate: delegate, shared: shared}
}

func (c *Concurrent) record(event func(StoryReporter)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.events = append(c.events, event)
}

// Flush replays the buffered events and empties the buffer.
func (c *Concurrent) Flush() {
	c.mu.Lock()
	events := c.events
	c.events = nil
	c.mu.Unlock()

	if len(events) == 0 {
		return
	}
	c.shared.Lock()
	defer c.shared.Unlock()
	for _, event := range events {
		event(c.delegate)
	}
}

// Cancel records the cancellation of the story and closes the buffer.
// Events arriving afterwards, from a story still running past its
// timeout, are dropped.
func (c *Concurrent) Cancel(story *model.Story, timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.events = append(c.events,
		func(r StoryReporter) { r.StoryCancelled(story, timeout) },
		func(r StoryReporter) { r.AfterStory(false) },
	)
	c.closed = true
}

func (c *Concurrent) StoryNotAllowed(story *model.Story, filter string) {
	c.record(func(r StoryReporter) { r.StoryNotAllowed(story, filter) })
}

func (c *Concurrent) BeforeStory(story *model.Story, givenStory bool) {
	c.record(func(r StoryReporter) { r.BeforeStory(story, givenStory) })
}

func (c *Concurrent) Narrative(narrative model.Narrative) {
	c.record(func(r StoryReporter) { r.Narrative(narrative) })
}

func (c *Concurrent) Lifecycle(lifecycle model.Lifecycle) {
	c.record(func(r StoryReporter) { r.Lifecycle(lifecycle) })
}

func (c *Concurrent) StoryCancelled(story *model.Story, timeout time.Duration) {
	c.record(func(r StoryReporter) { r.StoryCancelled(story, timeout) })
}

func (c *Concurrent) AfterStory(givenStory bool) {
	c.record(func(r StoryReporter) { r.AfterStory(givenStory) })
}

func (c *Concurrent) ScenarioNotAllowed(scenario *model.Scenario, filter string) {
	c.record(func(r StoryReporter) { r.ScenarioNotAllowed(scenario, filter) })
}

func (c *Concurrent) BeforeScenario(scenario *model.Scenario) {
	c.record(func(r StoryReporter) { r.BeforeScenario(scenario) })
}

func (c *Concurrent) GivenStories(givenStories model.GivenStories) {
	c.record(func(r StoryReporter) { r.GivenStories(givenStories) })
}

func (c *Concurrent) BeforeExamples(steps []string, examples *table.ExamplesTable) {
	c.record(func(r StoryReporter) { r.BeforeExamples(steps, examples) })
}

func (c *Concurrent) Example(row map[string]string, index int) {
	c.record(func(r StoryReporter) { r.Example(row, index) })
}

func (c *Concurrent) AfterExamples() {
	c.record(func(r StoryReporter) { r.AfterExamples() })
}

func (c *Concurrent) AfterScenario() {
	c.record(func(r StoryReporter) { r.AfterScenario() })
}

func (c *Concurrent) BeforeStep(step string) {
	c.record(func(r StoryReporter) { r.BeforeStep(step) })
}

func (c *Concurrent) Successful(step string) {
	c.record(func(r StoryReporter) { r.Successful(step) })
}

func (c *Concurrent) Ignorable(step string) {
	c.record(func(r StoryReporter) { r.Ignorable(step) })
}

func (c *Concurrent) Pending(step string) {
	c.record(func(r StoryReporter) { r.Pending(step) })
}

func (c *Concurrent) NotPerformed(step string) {
	c.record(func(r StoryReporter) { r.NotPerformed(step) })
}

func (c *Concurrent) Skipped(step string) {
	c.record(func(r StoryReporter) { r.Skipped(step) })
}

func (c *Concurrent) Failed(step string, err error) {
	c.record(func(r StoryReporter) { r.Failed(step, err) })
}

func (c *Concurrent) PendingMethods(methods []string) {
	c.record(func(r StoryReporter) { r.PendingMethods(methods) })
}

func (c *Concurrent) DryRun() {
	c.record(func(r StoryReporter) { r.DryRun() })
}
