package model

import "strings"

// Scope tells whether lifecycle steps run around each scenario or around
// the story.
type Scope int

const (
	ScopeScenario Scope = iota
	ScopeStory
)

func (s Scope) String() string {
	if s == ScopeStory {
		return "STORY"
	}
	return "SCENARIO"
}

// ParseScope reads "SCENARIO" or "STORY", case-insensitive.
func ParseScope(text string) (Scope, bool) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "SCENARIO":
		return ScopeScenario, true
	case "STORY":
		return ScopeStory, true
	default:
		return ScopeScenario, false
	}
}

// Outcome restricts when After lifecycle steps run.
type Outcome int

const (
	OutcomeAny Outcome = iota
	OutcomeSuccess
	OutcomeFailure
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "SUCCESS"
	case OutcomeFailure:
		return "FAILURE"
	default:
		return "ANY"
	}
}

// ParseOutcome reads "ANY", "SUCCESS" or "FAILURE", case-insensitive.
func ParseOutcome(text string) (Outcome, bool) {
	switch strings.ToUpper(strings.TrimSpace(text)) {
	case "ANY":
		return OutcomeAny, true
	case "SUCCESS":
		return OutcomeSuccess, true
	case "FAILURE":
		return OutcomeFailure, true
	default:
		return OutcomeAny, false
	}
}

// Matches reports whether steps declared for o run after a run that failed
// or not.
func (o Outcome) Matches(failed bool) bool {
	switch o {
	case OutcomeSuccess:
		return !failed
	case OutcomeFailure:
		return failed
	default:
		return true
	}
}

type (
	// Lifecycle holds the steps a story declares to run before and after
	// its scenarios or the story itself.
	Lifecycle struct {
		Before []LifecycleSteps
		After  []LifecycleSteps
	}

	LifecycleSteps struct {
		Scope   Scope
		Outcome Outcome
		Steps   []Step
	}
)

// IsEmpty reports whether no lifecycle step is declared.
func (l Lifecycle) IsEmpty() bool {
	return len(l.Before) == 0 && len(l.After) == 0
}

// BeforeSteps returns the Before steps of a scope in declaration order.
func (l Lifecycle) BeforeSteps(scope Scope) []Step {
	var steps []Step
	for _, group := range l.Before {
		if group.Scope == scope {
			steps = append(steps, group.Steps...)
		}
	}
	return steps
}

// AfterSteps returns the After steps of a scope whose outcome matches.
func (l Lifecycle) AfterSteps(scope Scope, failed bool) []Step {
	var steps []Step
	for _, group := range l.After {
		if group.Scope == scope && group.Outcome.Matches(failed) {
			steps = append(steps, group.Steps...)
		}
	}
	return steps
}
