package app

import "github.com/denizgursoy/behave/pkg/model"

// The YAML documents the parse command prints.
type (
	storyDocument struct {
		Path         string             `yaml:"path"`
		Description  string             `yaml:"description,omitempty"`
		Meta         map[string]string  `yaml:"meta,omitempty"`
		Narrative    *narrativeDocument `yaml:"narrative,omitempty"`
		GivenStories []string           `yaml:"givenStories,omitempty"`
		Lifecycle    *lifecycleDocument `yaml:"lifecycle,omitempty"`
		Scenarios    []scenarioDocument `yaml:"scenarios"`
	}

	narrativeDocument struct {
		InOrderTo string `yaml:"inOrderTo,omitempty"`
		AsA       string `yaml:"asA,omitempty"`
		IWantTo   string `yaml:"iWantTo,omitempty"`
		SoThat    string `yaml:"soThat,omitempty"`
	}

	lifecycleDocument struct {
		Before []lifecycleStepsDocument `yaml:"before,omitempty"`
		After  []lifecycleStepsDocument `yaml:"after,omitempty"`
	}

	lifecycleStepsDocument struct {
		Scope   string   `yaml:"scope"`
		Outcome string   `yaml:"outcome,omitempty"`
		Steps   []string `yaml:"steps"`
	}

	scenarioDocument struct {
		Title        string              `yaml:"title"`
		Meta         map[string]string   `yaml:"meta,omitempty"`
		GivenStories []string            `yaml:"givenStories,omitempty"`
		Steps        []string            `yaml:"steps"`
		Examples     []map[string]string `yaml:"examples,omitempty"`
	}
)

func newStoryDocument(story *model.Story) storyDocument {
	doc := storyDocument{
		Path:         story.Path,
		Description:  story.Description,
		Meta:         story.Meta.Properties(),
		GivenStories: givenStories(story.GivenStories),
		Scenarios:    make([]scenarioDocument, 0, len(story.Scenarios)),
	}
	if !story.Narrative.IsEmpty() {
		doc.Narrative = &narrativeDocument{
			InOrderTo: story.Narrative.InOrderTo,
			AsA:       story.Narrative.AsA,
			IWantTo:   story.Narrative.IWantTo,
			SoThat:    story.Narrative.SoThat,
		}
	}
	if !story.Lifecycle.IsEmpty() {
		doc.Lifecycle = &lifecycleDocument{
			Before: lifecycleSteps(story.Lifecycle.Before, false),
			After:  lifecycleSteps(story.Lifecycle.After, true),
		}
	}
	for _, scenario := range story.Scenarios {
		s := scenarioDocument{
			Title:        scenario.Title,
			Meta:         scenario.Meta.Properties(),
			GivenStories: givenStories(scenario.GivenStories),
			Steps:        scenario.StepTexts(),
		}
		if scenario.HasExamples() {
			s.Examples = scenario.Examples.Rows()
		}
		doc.Scenarios = append(doc.Scenarios, s)
	}
	return doc
}

func givenStories(g model.GivenStories) []string {
	entries := make([]string, 0, len(g.Stories))
	for _, s := range g.Stories {
		entries = append(entries, s.String())
	}
	return entries
}

func lifecycleSteps(all []model.LifecycleSteps, after bool) []lifecycleStepsDocument {
	docs := make([]lifecycleStepsDocument, 0, len(all))
	for _, ls := range all {
		doc := lifecycleStepsDocument{Scope: ls.Scope.String(), Steps: make([]string, len(ls.Steps))}
		if after && ls.Outcome != model.OutcomeAny {
			doc.Outcome = ls.Outcome.String()
		}
		for i, step := range ls.Steps {
			doc.Steps[i] = step.Text
		}
		docs = append(docs, doc)
	}
	return docs
}
