package embedder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/denizgursoy/behave/pkg/configuration"
)

var ErrInvalidControls = errors.New("invalid embedder controls")

// DefaultStoryTimeouts applies to every story when no timeout is given.
const DefaultStoryTimeouts = "300"

// Controls steer a run of many stories.
type Controls struct {
	// Batch runs every story even after failures. Otherwise the first
	// failed story stops the run.
	Batch bool `yaml:"batch"`

	// IgnoreFailureInStories reports failures without returning them.
	IgnoreFailureInStories bool `yaml:"ignoreFailureInStories"`

	// FailOnStoryTimeout makes a timed out story a failure.
	FailOnStoryTimeout bool `yaml:"failOnStoryTimeout"`

	// Threads is the number of stories run at the same time.
	Threads int `yaml:"threads"`

	// StoryTimeouts are comma separated "pattern:seconds" entries followed
	// by the default, as in "**/long/*.story:120,60".
	StoryTimeouts string `yaml:"storyTimeouts"`

	// MetaFilters must all allow a story or scenario for it to run.
	MetaFilters []string `yaml:"metaFilters"`

	// Verbose lists the cause of every failure in the returned error.
	Verbose bool `yaml:"verbose"`

	// Skip runs no story at all.
	Skip bool `yaml:"skip"`

	Includes []string `yaml:"includes"`
	Excludes []string `yaml:"excludes"`

	Story configuration.StoryControls `yaml:"story"`
}

// DefaultControls runs stories one at a time, stopping at the first
// failure, with a five minute timeout.
func DefaultControls() Controls {
	return Controls{Threads: 1, StoryTimeouts: DefaultStoryTimeouts}
}

// LoadControls reads controls from a YAML file. Keys left out keep their
// default value.
func LoadControls(path string) (Controls, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Controls{}, fmt.Errorf("%w: %w", ErrInvalidControls, err)
	}
	return DecodeControls(bytes.NewReader(data))
}

// DecodeControls reads controls from YAML. Unknown keys are rejected.
func DecodeControls(r io.Reader) (Controls, error) {
	controls := DefaultControls()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&controls); err != nil && !errors.Is(err, io.EOF) {
		return Controls{}, fmt.Errorf("%w: %w", ErrInvalidControls, err)
	}
	if err := controls.Validate(); err != nil {
		return Controls{}, err
	}
	return controls, nil
}

// Validate checks the thread count and the story timeouts.
func (c Controls) Validate() error {
	if c.Threads < 0 {
		return fmt.Errorf("%w: threads must not be negative, got %d", ErrInvalidControls, c.Threads)
	}
	if _, err := ParseStoryTimeouts(c.StoryTimeouts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidControls, err)
	}
	return nil
}

// MergeControls combines controls into one. Later controls override
// earlier ones (last wins); flags once set stay set.
func MergeControls(controls ...Controls) Controls {
	result := Controls{}

	for _, c := range controls {
		if c.Batch {
			result.Batch = true
		}
		if c.IgnoreFailureInStories {
			result.IgnoreFailureInStories = true
		}
		if c.FailOnStoryTimeout {
			result.FailOnStoryTimeout = true
		}
		if c.Threads > 0 {
			result.Threads = c.Threads
		}
		if c.StoryTimeouts != "" {
			result.StoryTimeouts = c.StoryTimeouts
		}
		if len(c.MetaFilters) > 0 {
			result.MetaFilters = c.MetaFilters
		}
		if c.Verbose {
			result.Verbose = true
		}
		if c.Skip {
			result.Skip = true
		}
		if len(c.Includes) > 0 {
			result.Includes = c.Includes
		}
		if len(c.Excludes) > 0 {
			result.Excludes = c.Excludes
		}
		result.Story = mergeStoryControls(result.Story, c.Story)
	}

	return result
}

func mergeStoryControls(base, over configuration.StoryControls) configuration.StoryControls {
	if over.DryRun {
		base.DryRun = true
	}
	if over.StepFailurePolicy != configuration.AbortScenario {
		base.StepFailurePolicy = over.StepFailurePolicy
	}
	if over.SkipScenariosAfterFailure {
		base.SkipScenariosAfterFailure = true
	}
	if over.SkipBeforeAndAfterScenarioStepsIfGivenStory {
		base.SkipBeforeAndAfterScenarioStepsIfGivenStory = true
	}
	if over.IgnoreMetaFiltersIfGivenStory {
		base.IgnoreMetaFiltersIfGivenStory = true
	}
	if over.MetaByRow {
		base.MetaByRow = true
	}
	return base
}
