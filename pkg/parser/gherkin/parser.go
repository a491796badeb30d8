// Package gherkin maps Gherkin feature files onto the story model.
package gherkin

import (
	"strings"

	cucumber "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"

	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/parser"
	"github.com/denizgursoy/behave/pkg/table"
)

const FeatureExtension = ".feature"

// Parser reads .feature files. Steps are rewritten with the starting words
// of its keywords so that they match like any other story step.
type Parser struct {
	keywords *keywords.Keywords
}

func New(kw *keywords.Keywords) *Parser {
	if kw == nil {
		kw = keywords.Default()
	}
	return &Parser{keywords: kw}
}

func (p *Parser) ParseStory(text, path string) (*model.Story, error) {
	id := (&messages.Incrementing{}).NewId
	document, err := cucumber.ParseGherkinDocument(strings.NewReader(text), id)
	if err != nil {
		return nil, &parser.ParseError{Path: path, Section: "Feature", Cause: err}
	}

	story := &model.Story{Path: path}
	feature := document.Feature
	if feature == nil {
		return story, nil
	}

	story.Description = strings.TrimSpace(strings.Join([]string{feature.Name, strings.TrimSpace(feature.Description)}, "\n"))
	story.Meta = metaOf(feature.Tags)

	for _, child := range feature.Children {
		switch {
		case child.Background != nil:
			story.Lifecycle.Before = append(story.Lifecycle.Before, model.LifecycleSteps{
				Scope: model.ScopeScenario,
				Steps: p.steps(child.Background.Steps),
			})
		case child.Scenario != nil:
			scenario, err := p.scenario(path, child.Scenario, nil, model.Meta{})
			if err != nil {
				return nil, err
			}
			story.Scenarios = append(story.Scenarios, scenario)
		case child.Rule != nil:
			scenarios, err := p.rule(path, child.Rule)
			if err != nil {
				return nil, err
			}
			story.Scenarios = append(story.Scenarios, scenarios...)
		}
	}
	return story, nil
}

// rule flattens a rule: its background steps lead every scenario of the
// rule and its tags are inherited.
func (p *Parser) rule(path string, rule *messages.Rule) ([]*model.Scenario, error) {
	var background []model.Step
	for _, child := range rule.Children {
		if child.Background != nil {
			background = append(background, p.steps(child.Background.Steps)...)
		}
	}

	meta := metaOf(rule.Tags)
	var scenarios []*model.Scenario
	for _, child := range rule.Children {
		if child.Scenario == nil {
			continue
		}
		scenario, err := p.scenario(path, child.Scenario, background, meta)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

func (p *Parser) scenario(path string, s *messages.Scenario, background []model.Step, parent model.Meta) (*model.Scenario, error) {
	scenario := &model.Scenario{
		Title: s.Name,
		Meta:  metaOf(s.Tags).InheritFrom(parent),
		Steps: append(append([]model.Step(nil), background...), p.steps(s.Steps)...),
	}

	var headers []string
	var rows [][]string
	for _, examples := range s.Examples {
		if examples.TableHeader == nil {
			continue
		}
		current := cellValues(examples.TableHeader)
		if headers == nil {
			headers = current
		} else if strings.Join(headers, "\x00") != strings.Join(current, "\x00") {
			return nil, &parser.ParseError{Path: path, Section: "Scenario: " + s.Name, Cause: table.ErrMalformedTable}
		}
		for _, row := range examples.TableBody {
			rows = append(rows, cellValues(row))
		}
	}
	if headers != nil {
		examples, err := table.New(headers, rows,
			table.WithSeparators(p.keywords.HeaderSeparator(), p.keywords.ValueSeparator()))
		if err != nil {
			return nil, &parser.ParseError{Path: path, Section: "Scenario: " + s.Name, Cause: err}
		}
		scenario.Examples = examples
	}
	return scenario, nil
}

func (p *Parser) steps(steps []*messages.Step) []model.Step {
	out := make([]model.Step, 0, len(steps))
	previous := keywords.GivenStep
	for _, step := range steps {
		stepType, word := previous, p.keywords.StartingWord(keywords.AndStep)
		switch step.KeywordType {
		case messages.StepKeywordType_CONTEXT:
			stepType, word = keywords.GivenStep, p.keywords.StartingWord(keywords.GivenStep)
		case messages.StepKeywordType_ACTION:
			stepType, word = keywords.WhenStep, p.keywords.StartingWord(keywords.WhenStep)
		case messages.StepKeywordType_OUTCOME:
			stepType, word = keywords.ThenStep, p.keywords.StartingWord(keywords.ThenStep)
		}
		previous = stepType

		text := word + " " + step.Text
		if step.DocString != nil {
			text += "\n" + step.DocString.Content
		}
		if step.DataTable != nil {
			text += "\n" + p.dataTable(step.DataTable)
		}
		out = append(out, model.Step{Text: text, Type: stepType})
	}
	return out
}

func (p *Parser) dataTable(dt *messages.DataTable) string {
	lines := make([]string, len(dt.Rows))
	for i, row := range dt.Rows {
		sep := p.keywords.ValueSeparator()
		if i == 0 {
			sep = p.keywords.HeaderSeparator()
		}
		lines[i] = sep + strings.Join(cellValues(row), sep) + sep
	}
	return strings.Join(lines, "\n")
}

func cellValues(row *messages.TableRow) []string {
	values := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		values[i] = cell.Value
	}
	return values
}

// metaOf turns "@name" and "@name=value" tags into meta properties.
func metaOf(tags []*messages.Tag) model.Meta {
	props := make(map[string]string, len(tags))
	for _, tag := range tags {
		name := strings.TrimPrefix(tag.Name, "@")
		key, value, _ := strings.Cut(name, "=")
		props[key] = value
	}
	return model.NewMeta(props)
}
