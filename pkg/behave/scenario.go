package behave

// Story holds metadata about the running story.
type Story struct {
	// Path is the story path as handed to the runner.
	Path string

	// Meta holds the story meta properties.
	Meta map[string]string

	// GivenStory is true while the story runs as a given story of another.
	GivenStory bool
}

// Scenario holds metadata about the running scenario.
// Passed to BeforeScenario/AfterScenario hooks.
type Scenario struct {
	// Title is the scenario title as written in the story.
	Title string

	// Meta holds the scenario meta properties, story meta included.
	Meta map[string]string

	// Parameters holds the examples row of a parametrised run, nil otherwise.
	Parameters map[string]string

	// Err is nil while the scenario runs and when it passed.
	Err error
}

// Failed reports whether the scenario failed.
func (s Scenario) Failed() bool {
	return s.Err != nil
}

// Step holds metadata about the running step.
// Passed to BeforeStep/AfterStep hooks.
type Step struct {
	// Text is the step as written, starting word included.
	Text string

	// Err is nil when the step passed or has not run yet.
	Err error
}
