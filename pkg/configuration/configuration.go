// Package configuration wires the collaborators of a story run.
package configuration

import (
	"log/slog"

	"github.com/denizgursoy/behave/pkg/convert"
	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/loader"
	"github.com/denizgursoy/behave/pkg/parser"
	"github.com/denizgursoy/behave/pkg/parser/gherkin"
	"github.com/denizgursoy/behave/pkg/reporter"
	"github.com/denizgursoy/behave/pkg/steps"
	"github.com/denizgursoy/behave/pkg/table"
)

// Configuration holds the collaborators shared by every story of a run.
// It is read only once built.
type Configuration struct {
	keywords     *keywords.Keywords
	loader       loader.StoryLoader
	parser       parser.StoryParser
	tables       *table.Factory
	converters   *convert.ParameterConverters
	extra        []convert.Converter
	pending      steps.PendingStepStrategy
	failure      steps.FailureStrategy
	prioritising steps.PrioritisingStrategy
	monitor      steps.StepMonitor
	reporter     reporter.StoryReporter
	controls     StoryControls
	logger       *slog.Logger
}

// Option configures a Configuration.
type Option func(*Configuration)

func WithKeywords(kw *keywords.Keywords) Option {
	return func(c *Configuration) {
		c.keywords = kw
	}
}

func WithStoryLoader(l loader.StoryLoader) Option {
	return func(c *Configuration) {
		c.loader = l
	}
}

func WithStoryParser(p parser.StoryParser) Option {
	return func(c *Configuration) {
		c.parser = p
	}
}

func WithTableFactory(f *table.Factory) Option {
	return func(c *Configuration) {
		c.tables = f
	}
}

func WithParameterConverters(p *convert.ParameterConverters) Option {
	return func(c *Configuration) {
		c.converters = p
	}
}

// WithConverters adds converters in front of the built-in ones.
func WithConverters(converters ...convert.Converter) Option {
	return func(c *Configuration) {
		c.extra = append(c.extra, converters...)
	}
}

func WithPendingStepStrategy(s steps.PendingStepStrategy) Option {
	return func(c *Configuration) {
		c.pending = s
	}
}

func WithFailureStrategy(s steps.FailureStrategy) Option {
	return func(c *Configuration) {
		c.failure = s
	}
}

func WithPrioritising(s steps.PrioritisingStrategy) Option {
	return func(c *Configuration) {
		c.prioritising = s
	}
}

func WithStepMonitor(m steps.StepMonitor) Option {
	return func(c *Configuration) {
		c.monitor = m
	}
}

func WithReporter(r reporter.StoryReporter) Option {
	return func(c *Configuration) {
		c.reporter = r
	}
}

func WithStoryControls(controls StoryControls) Option {
	return func(c *Configuration) {
		c.controls = controls
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Configuration) {
		c.logger = logger
	}
}

// MostUseful returns a configuration with every collaborator set: English
// keywords, stories loaded from the working directory, ".story" text and
// ".feature" Gherkin parsing, built-in converters, passing pending steps,
// rethrown failures and no reporting.
func MostUseful(opts ...Option) *Configuration {
	c := &Configuration{}
	for _, opt := range opts {
		opt(c)
	}

	if c.keywords == nil {
		c.keywords = keywords.Default()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.loader == nil {
		// Dir fails on invalid options only.
		c.loader, _ = loader.Dir(".")
	}
	if c.tables == nil {
		c.tables = table.NewFactory(
			table.WithSeparators(c.keywords.HeaderSeparator(), c.keywords.ValueSeparator()),
			table.WithIgnorableSeparator(c.keywords.IgnorableSeparator()),
		).WithLoader(c.loader)
	}
	if c.converters == nil {
		c.converters = convert.New(c.tables)
	}
	c.converters.Add(c.extra...)
	c.extra = nil
	if c.parser == nil {
		c.parser = parser.NewComposite(parser.New(c.keywords, c.converters.Tables())).
			Register(".feature", gherkin.New(c.keywords))
	}
	if c.failure == nil {
		c.failure = steps.RethrowingFailure{}
	}
	if c.prioritising == nil {
		c.prioritising = steps.ByPriorityField{}
	}
	if c.monitor == nil {
		c.monitor = steps.NewLoggingStepMonitor(c.logger)
	}
	if c.reporter == nil {
		c.reporter = reporter.Null{}
	}
	return c
}

// With returns a copy of the configuration with opts applied.
func (c *Configuration) With(opts ...Option) *Configuration {
	copied := *c
	for _, opt := range opts {
		opt(&copied)
	}
	return &copied
}

func (c *Configuration) Keywords() *keywords.Keywords {
	return c.keywords
}

func (c *Configuration) StoryLoader() loader.StoryLoader {
	return c.loader
}

func (c *Configuration) StoryParser() parser.StoryParser {
	return c.parser
}

func (c *Configuration) TableFactory() *table.Factory {
	return c.tables
}

func (c *Configuration) ParameterConverters() *convert.ParameterConverters {
	return c.converters
}

func (c *Configuration) PendingStepStrategy() steps.PendingStepStrategy {
	return c.pending
}

func (c *Configuration) FailureStrategy() steps.FailureStrategy {
	return c.failure
}

func (c *Configuration) Prioritising() steps.PrioritisingStrategy {
	return c.prioritising
}

func (c *Configuration) StepMonitor() steps.StepMonitor {
	return c.monitor
}

func (c *Configuration) Reporter() reporter.StoryReporter {
	return c.reporter
}

func (c *Configuration) StoryControls() StoryControls {
	return c.controls
}

func (c *Configuration) Logger() *slog.Logger {
	return c.logger
}

// Collector compiles the candidates of sources with the configured
// keywords, converters, prioritising and monitor.
func (c *Configuration) Collector(sources ...*steps.Steps) (*steps.Collector, error) {
	return steps.NewCollector(c.keywords, c.converters, sources,
		steps.WithPrioritising(c.prioritising),
		steps.WithStepMonitor(c.monitor),
	)
}
