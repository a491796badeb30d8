// Package reporter receives the events of story runs.
package reporter

import (
	"time"

	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/table"
)

// Paths of the pseudo stories that carry the BeforeStories and
// AfterStories hooks.
const (
	BeforeStoriesPath = "BeforeStories"
	AfterStoriesPath  = "AfterStories"
)

// StoryReporter handles story execution events. Events of one story come
// from one goroutine, in order. A given story is reported between the
// BeforeScenario of the scenario that runs it and that scenario's steps,
// or right after BeforeStory for story level given stories.
type StoryReporter interface {
	StoryNotAllowed(story *model.Story, filter string)
	BeforeStory(story *model.Story, givenStory bool)
	Narrative(narrative model.Narrative)
	Lifecycle(lifecycle model.Lifecycle)
	StoryCancelled(story *model.Story, timeout time.Duration)
	AfterStory(givenStory bool)

	ScenarioNotAllowed(scenario *model.Scenario, filter string)
	BeforeScenario(scenario *model.Scenario)
	GivenStories(givenStories model.GivenStories)
	BeforeExamples(steps []string, examples *table.ExamplesTable)
	Example(row map[string]string, index int)
	AfterExamples()
	AfterScenario()

	BeforeStep(step string)
	Successful(step string)
	Ignorable(step string)
	Pending(step string)
	NotPerformed(step string)
	Skipped(step string)
	Failed(step string, err error)
	PendingMethods(methods []string)
	DryRun()
}

var (
	_ StoryReporter = Null{}
	_ StoryReporter = (*Delegating)(nil)
	_ StoryReporter = (*Concurrent)(nil)
	_ StoryReporter = (*TxtOutput)(nil)
	_ StoryReporter = (*Statistics)(nil)
	_ StoryReporter = (*ResultCollector)(nil)
)

// Null discards every event. Embed it to implement only some events.
type Null struct{}

func (Null) StoryNotAllowed(*model.Story, string)          {}
func (Null) BeforeStory(*model.Story, bool)                {}
func (Null) Narrative(model.Narrative)                     {}
func (Null) Lifecycle(model.Lifecycle)                     {}
func (Null) StoryCancelled(*model.Story, time.Duration)    {}
func (Null) AfterStory(bool)                               {}
func (Null) ScenarioNotAllowed(*model.Scenario, string)    {}
func (Null) BeforeScenario(*model.Scenario)                {}
func (Null) GivenStories(model.GivenStories)               {}
func (Null) BeforeExamples([]string, *table.ExamplesTable) {}
func (Null) Example(map[string]string, int)                {}
func (Null) AfterExamples()                                {}
func (Null) AfterScenario()                                {}
func (Null) BeforeStep(string)                             {}
func (Null) Successful(string)                             {}
func (Null) Ignorable(string)                              {}
func (Null) Pending(string)                                {}
func (Null) NotPerformed(string)                           {}
func (Null) Skipped(string)                                {}
func (Null) Failed(string, error)                          {}
func (Null) PendingMethods([]string)                       {}
func (Null) DryRun()                                       {}

// Delegating fans every event out to its reporters, in order.
type Delegating struct {
	reporters []StoryReporter
}

func NewDelegating(reporters ...StoryReporter) *Delegating {
	return &Delegating{reporters: reporters}
}

func (d *Delegating) Reporters() []StoryReporter {
	return d.reporters
}

func (d *Delegating) each(fn func(StoryReporter)) {
	for _, r := range d.reporters {
		fn(r)
	}
}

func (d *Delegating) StoryNotAllowed(story *model.Story, filter string) {
	d.each(func(r StoryReporter) { r.StoryNotAllowed(story, filter) })
}

func (d *Delegating) BeforeStory(story *model.Story, givenStory bool) {
	d.each(func(r StoryReporter) { r.BeforeStory(story, givenStory) })
}

func (d *Delegating) Narrative(narrative model.Narrative) {
	d.each(func(r StoryReporter) { r.Narrative(narrative) })
}

func (d *Delegating) Lifecycle(lifecycle model.Lifecycle) {
	d.each(func(r StoryReporter) { r.Lifecycle(lifecycle) })
}

func (d *Delegating) StoryCancelled(story *model.Story, timeout time.Duration) {
	d.each(func(r StoryReporter) { r.StoryCancelled(story, timeout) })
}

func (d *Delegating) AfterStory(givenStory bool) {
	d.each(func(r StoryReporter) { r.AfterStory(givenStory) })
}

func (d *Delegating) ScenarioNotAllowed(scenario *model.Scenario, filter string) {
	d.each(func(r StoryReporter) { r.ScenarioNotAllowed(scenario, filter) })
}

func (d *Delegating) BeforeScenario(scenario *model.Scenario) {
	d.each(func(r StoryReporter) { r.BeforeScenario(scenario) })
}

func (d *Delegating) GivenStories(givenStories model.GivenStories) {
	d.each(func(r StoryReporter) { r.GivenStories(givenStories) })
}

func (d *Delegating) BeforeExamples(steps []string, examples *table.ExamplesTable) {
	d.each(func(r StoryReporter) { r.BeforeExamples(steps, examples) })
}

func (d *Delegating) Example(row map[string]string, index int) {
	d.each(func(r StoryReporter) { r.Example(row, index) })
}

func (d *Delegating) AfterExamples() {
	d.each(func(r StoryReporter) { r.AfterExamples() })
}

func (d *Delegating) AfterScenario() {
	d.each(func(r StoryReporter) { r.AfterScenario() })
}

func (d *Delegating) BeforeStep(step string) {
	d.each(func(r StoryReporter) { r.BeforeStep(step) })
}

func (d *Delegating) Successful(step string) {
	d.each(func(r StoryReporter) { r.Successful(step) })
}

func (d *Delegating) Ignorable(step string) {
	d.each(func(r StoryReporter) { r.Ignorable(step) })
}

func (d *Delegating) Pending(step string) {
	d.each(func(r StoryReporter) { r.Pending(step) })
}

func (d *Delegating) NotPerformed(step string) {
	d.each(func(r StoryReporter) { r.NotPerformed(step) })
}

func (d *Delegating) Skipped(step string) {
	d.each(func(r StoryReporter) { r.Skipped(step) })
}

func (d *Delegating) Failed(step string, err error) {
	d.each(func(r StoryReporter) { r.Failed(step, err) })
}

func (d *Delegating) PendingMethods(methods []string) {
	d.each(func(r StoryReporter) { r.PendingMethods(methods) })
}

func (d *Delegating) DryRun() {
	d.each(func(r StoryReporter) { r.DryRun() })
}
