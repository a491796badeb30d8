package configuration

import (
	"fmt"
	"strings"
)

// StepFailurePolicy decides what happens to the steps following a failed
// step of the same scenario.
type StepFailurePolicy int

const (
	// AbortScenario reports the remaining steps NotPerformed.
	AbortScenario StepFailurePolicy = iota
	// ContinueScenario performs the remaining steps.
	ContinueScenario
)

func (p StepFailurePolicy) String() string {
	if p == ContinueScenario {
		return "continue"
	}
	return "abort"
}

// ParseStepFailurePolicy reads "abort" or "continue".
func ParseStepFailurePolicy(text string) (StepFailurePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "abort":
		return AbortScenario, nil
	case "continue":
		return ContinueScenario, nil
	default:
		return AbortScenario, fmt.Errorf("unknown step failure policy %q", text)
	}
}

func (p StepFailurePolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *StepFailurePolicy) UnmarshalText(text []byte) error {
	policy, err := ParseStepFailurePolicy(string(text))
	if err != nil {
		return err
	}
	*p = policy
	return nil
}

// StoryControls steer the run of a single story.
type StoryControls struct {
	// DryRun matches and reports steps without invoking them.
	DryRun bool `yaml:"dryRun"`

	StepFailurePolicy StepFailurePolicy `yaml:"stepFailurePolicy"`

	// SkipScenariosAfterFailure reports the scenarios following a failed
	// one NotPerformed.
	SkipScenariosAfterFailure bool `yaml:"skipScenariosAfterFailure"`

	// SkipBeforeAndAfterScenarioStepsIfGivenStory leaves the scenario hooks
	// out of given stories.
	SkipBeforeAndAfterScenarioStepsIfGivenStory bool `yaml:"skipBeforeAndAfterScenarioStepsIfGivenStory"`

	// IgnoreMetaFiltersIfGivenStory runs every scenario of a given story
	// whatever the meta filter.
	IgnoreMetaFiltersIfGivenStory bool `yaml:"ignoreMetaFiltersIfGivenStory"`

	// MetaByRow adds the values of an examples row to the scenario meta
	// before filtering, so rows can be filtered one by one.
	MetaByRow bool `yaml:"metaByRow"`
}
