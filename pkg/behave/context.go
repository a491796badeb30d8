// Package behave provides the execution context for step functions.
package behave

import (
	"context"
	"log/slog"
)

// Logger is the interface for structured logging within step functions.
// Compatible with *slog.Logger and other structured loggers.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Data is a key value store shared by the steps of a story or a scenario.
type Data struct {
	values map[string]any
}

func newData(values map[string]any) *Data {
	if values == nil {
		values = make(map[string]any)
	}
	return &Data{values: values}
}

// Set stores a value.
func (d *Data) Set(key string, value any) {
	d.values[key] = value
}

// Get returns the value stored under key and whether it was found.
func (d *Data) Get(key string) (any, bool) {
	v, ok := d.values[key]
	return v, ok
}

// MustGet returns the value stored under key and fails the step when the
// key is missing.
func (d *Data) MustGet(key string) any {
	v, ok := d.values[key]
	if !ok {
		fail("key %q not found in context data", key)
	}
	return v
}

// Delete removes key.
func (d *Data) Delete(key string) {
	delete(d.values, key)
}

// Len returns the number of stored keys.
func (d *Data) Len() int {
	return len(d.values)
}

// Value returns the value under key converted to T. The second result is
// false when the key is missing or holds another type.
func Value[T any](d *Data, key string) (T, bool) {
	v, ok := d.values[key]
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Context is the state handed to step and hook functions of one story run.
// Story data lives for the whole story, scenario data is replaced at the
// start of every scenario.
type Context struct {
	logger    Logger
	assert    *Assert
	storyData *Data
	data      *Data
	story     Story
	scenario  Scenario
	step      Step
}

// New creates a new Context with the given options.
func New(opts ...Option) *Context {
	c := &Context{
		assert:    &Assert{},
		storyData: newData(nil),
		data:      newData(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Logger returns the logger instance.
func (c *Context) Logger() Logger {
	return c.logger
}

// Assert returns the assertion helper. A failed assertion fails the step.
func (c *Context) Assert() *Assert {
	return c.assert
}

// Data returns the scenario scoped data store.
func (c *Context) Data() *Data {
	return c.data
}

// StoryData returns the story scoped data store.
func (c *Context) StoryData() *Data {
	return c.storyData
}

// Story describes the running story.
func (c *Context) Story() Story {
	return c.story
}

// Scenario describes the running scenario.
func (c *Context) Scenario() Scenario {
	return c.scenario
}

// Step describes the running step, or the last one that ran.
func (c *Context) Step() Step {
	return c.step
}

// StartStory resets both data stores for a new story.
func (c *Context) StartStory(story Story) {
	c.story = story
	c.storyData = newData(nil)
	c.data = newData(nil)
	c.scenario = Scenario{}
	c.step = Step{}
}

// StartScenario resets the scenario data store.
func (c *Context) StartScenario(scenario Scenario) {
	c.scenario = scenario
	c.data = newData(nil)
	c.step = Step{}
}

// EndScenario records the scenario outcome for After hooks.
func (c *Context) EndScenario(err error) {
	c.scenario.Err = err
}

// SetStep records the running step or its outcome.
func (c *Context) SetStep(step Step) {
	c.step = step
}

type contextKey struct{}

// NewContext returns a copy of parent carrying c.
func NewContext(parent context.Context, c *Context) context.Context {
	return context.WithValue(parent, contextKey{}, c)
}

// FromContext returns the Context carried by ctx, or nil.
func FromContext(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(contextKey{}).(*Context)
	return c
}
