// Package model holds the parsed form of stories.
package model

import (
	"path"
	"strings"

	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/table"
)

type (
	// Story is the parsed form of a story resource. Parsers build it and
	// nothing changes it afterwards.
	Story struct {
		Path         string
		Description  string
		Meta         Meta
		Narrative    Narrative
		GivenStories GivenStories
		Lifecycle    Lifecycle
		Scenarios    []*Scenario
	}

	Narrative struct {
		InOrderTo string
		AsA       string
		IWantTo   string
		SoThat    string
	}

	Scenario struct {
		Title        string
		Meta         Meta
		GivenStories GivenStories
		Steps        []Step
		Examples     *table.ExamplesTable
	}

	// Step is a step as written, starting word included. Type is the
	// resolved type, so an "And" step carries the type it continues.
	Step struct {
		Text string
		Type keywords.StepType
	}
)

// Name returns the file name of the story path.
func (s *Story) Name() string {
	if s.Path == "" {
		return ""
	}
	return path.Base(s.Path)
}

// IsEmpty reports whether no clause is set.
func (n Narrative) IsEmpty() bool {
	return n == Narrative{}
}

// HasExamples reports whether the scenario runs once per examples row.
func (s *Scenario) HasExamples() bool {
	return s.Examples != nil && s.Examples.RowCount() > 0
}

// StepTexts returns the text of every step.
func (s *Scenario) StepTexts() []string {
	texts := make([]string, len(s.Steps))
	for i, step := range s.Steps {
		texts[i] = step.Text
	}
	return texts
}

// WithParameters returns the step with every "<name>" placeholder found in
// row replaced by its value.
func (s Step) WithParameters(row map[string]string) Step {
	s.Text = ReplaceParameters(s.Text, row)
	return s
}

// ReplaceParameters substitutes "<name>" placeholders. Unknown names are
// left as they are.
func ReplaceParameters(text string, row map[string]string) string {
	if len(row) == 0 || !strings.Contains(text, "<") {
		return text
	}
	pairs := make([]string, 0, len(row)*2)
	for name, value := range row {
		pairs = append(pairs, "<"+name+">", value)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
