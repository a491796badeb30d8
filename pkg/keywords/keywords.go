// Package keywords holds the vocabulary used to write and parse stories.
package keywords

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Role identifies a keyword. The string value is the key used in bundles.
type Role string

const (
	Meta                            Role = "Meta"
	MetaProperty                    Role = "MetaProperty"
	Narrative                       Role = "Narrative"
	InOrderTo                       Role = "InOrderTo"
	AsA                             Role = "AsA"
	IWantTo                         Role = "IWantTo"
	SoThat                          Role = "SoThat"
	Scenario                        Role = "Scenario"
	GivenStories                    Role = "GivenStories"
	Lifecycle                       Role = "Lifecycle"
	Before                          Role = "Before"
	After                           Role = "After"
	Scope                           Role = "Scope"
	ScopeScenario                   Role = "ScopeScenario"
	ScopeStory                      Role = "ScopeStory"
	ExamplesTable                   Role = "ExamplesTable"
	ExamplesTableRow                Role = "ExamplesTableRow"
	ExamplesTableHeaderSeparator    Role = "ExamplesTableHeaderSeparator"
	ExamplesTableValueSeparator     Role = "ExamplesTableValueSeparator"
	ExamplesTableIgnorableSeparator Role = "ExamplesTableIgnorableSeparator"
	Given                           Role = "Given"
	When                            Role = "When"
	Then                            Role = "Then"
	And                             Role = "And"
	Ignorable                       Role = "Ignorable"
	Pending                         Role = "Pending"
	NotPerformed                    Role = "NotPerformed"
	Failed                          Role = "Failed"
	DryRun                          Role = "DryRun"
	StoryCancelled                  Role = "StoryCancelled"
	Duration                        Role = "Duration"
	Outcome                         Role = "Outcome"
	OutcomeAny                      Role = "OutcomeAny"
	OutcomeSuccess                  Role = "OutcomeSuccess"
	OutcomeFailure                  Role = "OutcomeFailure"
	Yes                             Role = "Yes"
	No                              Role = "No"
)

// Required lists every role a Keywords value must define.
var Required = []Role{
	Meta, MetaProperty, Narrative, InOrderTo, AsA, IWantTo, SoThat, Scenario,
	GivenStories, Lifecycle, Before, After, Scope, ScopeScenario, ScopeStory,
	ExamplesTable, ExamplesTableRow, ExamplesTableHeaderSeparator,
	ExamplesTableValueSeparator, ExamplesTableIgnorableSeparator,
	Given, When, Then, And, Ignorable, Pending, NotPerformed, Failed, DryRun,
	StoryCancelled, Duration, Outcome, OutcomeAny, OutcomeSuccess,
	OutcomeFailure, Yes, No,
}

// ErrKeywordNotFound is returned when a required keyword is missing.
var ErrKeywordNotFound = errors.New("keyword not found")

// StepType is the type of a textual step, derived from its starting word.
type StepType int

const (
	GivenStep StepType = iota
	WhenStep
	ThenStep
	AndStep
	IgnorableStep
)

// String returns the upper-case name of the step type.
func (t StepType) String() string {
	switch t {
	case GivenStep:
		return "GIVEN"
	case WhenStep:
		return "WHEN"
	case ThenStep:
		return "THEN"
	case AndStep:
		return "AND"
	case IgnorableStep:
		return "IGNORABLE"
	default:
		return "UNKNOWN"
	}
}

var stepRoles = map[StepType]Role{
	GivenStep:     Given,
	WhenStep:      When,
	ThenStep:      Then,
	AndStep:       And,
	IgnorableStep: Ignorable,
}

// Keywords is an immutable mapping from roles to literal strings.
// A step starting word may declare synonyms separated by "|", e.g. "And|But".
type Keywords struct {
	values map[Role]string
}

// New validates that every required role is present and returns the keywords.
func New(values map[Role]string) (*Keywords, error) {
	copied := make(map[Role]string, len(values))
	for _, role := range Required {
		v, ok := values[role]
		if !ok || v == "" {
			return nil, fmt.Errorf("%w: %s", ErrKeywordNotFound, role)
		}
		copied[role] = v
	}
	return &Keywords{values: copied}, nil
}

// English returns the default keyword values.
func English() map[Role]string {
	return map[Role]string{
		Meta:                            "Meta:",
		MetaProperty:                    "@",
		Narrative:                       "Narrative:",
		InOrderTo:                       "In order to",
		AsA:                             "As a",
		IWantTo:                         "I want to",
		SoThat:                          "So that",
		Scenario:                        "Scenario:",
		GivenStories:                    "GivenStories:",
		Lifecycle:                       "Lifecycle:",
		Before:                          "Before:",
		After:                           "After:",
		Scope:                           "Scope:",
		ScopeScenario:                   "SCENARIO",
		ScopeStory:                      "STORY",
		ExamplesTable:                   "Examples:",
		ExamplesTableRow:                "Example:",
		ExamplesTableHeaderSeparator:    "|",
		ExamplesTableValueSeparator:     "|",
		ExamplesTableIgnorableSeparator: "|--",
		Given:                           "Given",
		When:                            "When",
		Then:                            "Then",
		And:                             "And|But",
		Ignorable:                       "!--",
		Pending:                         "PENDING",
		NotPerformed:                    "NOT PERFORMED",
		Failed:                          "FAILED",
		DryRun:                          "DRY RUN",
		StoryCancelled:                  "STORY CANCELLED",
		Duration:                        "DURATION",
		Outcome:                         "Outcome:",
		OutcomeAny:                      "ANY",
		OutcomeSuccess:                  "SUCCESS",
		OutcomeFailure:                  "FAILURE",
		Yes:                             "Yes",
		No:                              "No",
	}
}

// Default returns the English keywords.
func Default() *Keywords {
	k, err := New(English())
	if err != nil {
		panic(err)
	}
	return k
}

// Get returns the literal for a role.
func (k *Keywords) Get(role Role) string {
	return k.values[role]
}

// Values returns a copy of all role values.
func (k *Keywords) Values() map[Role]string {
	copied := make(map[Role]string, len(k.values))
	for r, v := range k.values {
		copied[r] = v
	}
	return copied
}

func (k *Keywords) Given() string         { return k.values[Given] }
func (k *Keywords) When() string          { return k.values[When] }
func (k *Keywords) Then() string          { return k.values[Then] }
func (k *Keywords) And() string           { return k.values[And] }
func (k *Keywords) Scenario() string      { return k.values[Scenario] }
func (k *Keywords) ExamplesTable() string { return k.values[ExamplesTable] }
func (k *Keywords) HeaderSeparator() string {
	return k.values[ExamplesTableHeaderSeparator]
}
func (k *Keywords) ValueSeparator() string {
	return k.values[ExamplesTableValueSeparator]
}
func (k *Keywords) IgnorableSeparator() string {
	return k.values[ExamplesTableIgnorableSeparator]
}

// StartingWordsFor returns all synonyms of the starting word of a step type.
func (k *Keywords) StartingWordsFor(t StepType) []string {
	role, ok := stepRoles[t]
	if !ok {
		return nil
	}
	return strings.Split(k.values[role], "|")
}

// StartingWord returns the primary starting word of a step type.
func (k *Keywords) StartingWord(t StepType) string {
	return k.StartingWordsFor(t)[0]
}

// StartingWords returns every step starting word, longest first so that
// "Given that" is tried before "Given".
func (k *Keywords) StartingWords() []string {
	var words []string
	for _, t := range []StepType{GivenStep, WhenStep, ThenStep, AndStep, IgnorableStep} {
		words = append(words, k.StartingWordsFor(t)...)
	}
	sortByLengthDesc(words)
	return words
}

// StepTypeFor returns the step type denoted by the starting word of step.
func (k *Keywords) StepTypeFor(step string) (StepType, bool) {
	best, bestLen, found := GivenStep, -1, false
	for _, t := range []StepType{GivenStep, WhenStep, ThenStep, AndStep, IgnorableStep} {
		for _, word := range k.StartingWordsFor(t) {
			if len(word) > bestLen && k.startsWith(step, word, t == IgnorableStep) {
				best, bestLen, found = t, len(word), true
			}
		}
	}
	return best, found
}

// StepWithoutStartingWord strips the starting word of the given type.
// The step is returned trimmed but otherwise unchanged when it does not
// start with such a word.
func (k *Keywords) StepWithoutStartingWord(step string, t StepType) string {
	trimmed := strings.TrimLeft(step, " \t")
	words := k.StartingWordsFor(t)
	sortByLengthDesc(words)
	for _, word := range words {
		if k.startsWith(trimmed, word, t == IgnorableStep) {
			return strings.TrimSpace(trimmed[len(word):])
		}
	}
	return strings.TrimSpace(trimmed)
}

// StartsWithStartingWord reports whether a line begins a step.
func (k *Keywords) StartsWithStartingWord(line string) bool {
	_, ok := k.StepTypeFor(line)
	return ok
}

// IsAndStep reports whether the step starts with an And synonym.
func (k *Keywords) IsAndStep(step string) bool {
	t, ok := k.StepTypeFor(step)
	return ok && t == AndStep
}

// IsIgnorableStep reports whether the step is a comment step.
func (k *Keywords) IsIgnorableStep(step string) bool {
	t, ok := k.StepTypeFor(step)
	return ok && t == IgnorableStep
}

// startsWith checks that text begins with word followed by whitespace or the
// end of the text. Ignorable words need no trailing separator.
func (k *Keywords) startsWith(text, word string, loose bool) bool {
	text = strings.TrimLeft(text, " \t")
	if !strings.HasPrefix(text, word) {
		return false
	}
	if loose || len(text) == len(word) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(text[len(word):])
	return unicode.IsSpace(next)
}

func sortByLengthDesc(words []string) {
	sort.SliceStable(words, func(i, j int) bool {
		return len(words[i]) > len(words[j])
	})
}
