// Package parser turns story text into model.Story values.
package parser

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/table"
)

// StoryParser parses story text loaded from path.
type StoryParser interface {
	ParseStory(text, path string) (*model.Story, error)
}

// Parser reads the keyword based story format.
type Parser struct {
	keywords *keywords.Keywords
	tables   *table.Factory
}

// New returns a parser for kw. Examples tables are created with tables, or
// with a factory using the separators of kw when tables is nil.
func New(kw *keywords.Keywords, tables *table.Factory) *Parser {
	if kw == nil {
		kw = keywords.Default()
	}
	if tables == nil {
		tables = table.NewFactory(
			table.WithSeparators(kw.HeaderSeparator(), kw.ValueSeparator()),
			table.WithIgnorableSeparator(kw.IgnorableSeparator()),
		)
	}
	return &Parser{keywords: kw, tables: tables}
}

// ParseStory parses text. Any error fails the whole story.
func (p *Parser) ParseStory(text, path string) (*model.Story, error) {
	lines := strings.Split(strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n"), "\n")
	story := &model.Story{Path: path}

	first := -1
	for i, line := range lines {
		if p.startsWithKeyword(line, keywords.Scenario) {
			first = i
			break
		}
	}

	preamble, rest := lines, []string(nil)
	if first >= 0 {
		preamble, rest = lines[:first], lines[first:]
	}

	untitled, err := p.parsePreamble(story, preamble, first >= 0)
	if err != nil {
		return nil, err
	}
	if untitled != nil {
		scenario, err := p.parseScenarioBody(path, "", untitled)
		if err != nil {
			return nil, err
		}
		story.Scenarios = append(story.Scenarios, scenario)
	}

	for _, block := range p.splitScenarios(rest) {
		title := strings.TrimSpace(p.afterKeyword(block[0], keywords.Scenario))
		scenario, err := p.parseScenarioBody(path, title, block[1:])
		if err != nil {
			return nil, err
		}
		story.Scenarios = append(story.Scenarios, scenario)
	}
	return story, nil
}

// parsePreamble fills the story sections found before the first scenario.
// Without scenario keywords, the lines from the first step onwards are
// returned as the body of an untitled scenario.
func (p *Parser) parsePreamble(story *model.Story, lines []string, hasScenarios bool) ([]string, error) {
	var description []string
	for i := 0; i < len(lines); {
		line := lines[i]
		switch {
		case p.startsWithKeyword(line, keywords.Meta):
			block, next := p.sectionBlock(lines, i, keywords.Meta)
			story.Meta = model.ParseMeta(block, p.keywords.Get(keywords.MetaProperty))
			i = next
		case p.startsWithKeyword(line, keywords.Narrative):
			block, next := p.sectionBlock(lines, i, keywords.Narrative)
			story.Narrative = p.parseNarrative(block)
			i = next
		case p.startsWithKeyword(line, keywords.GivenStories):
			block, next := p.sectionBlock(lines, i, keywords.GivenStories)
			story.GivenStories = model.ParseGivenStories(block)
			i = next
		case p.startsWithKeyword(line, keywords.Lifecycle):
			lifecycle, err := p.parseLifecycle(story.Path, lines[i+1:])
			if err != nil {
				return nil, err
			}
			story.Lifecycle = lifecycle
			i = len(lines)
		case p.keywords.StartsWithStartingWord(line):
			if hasScenarios {
				return nil, parseError(story.Path, "Story", "step %q outside of a scenario", strings.TrimSpace(line))
			}
			story.Description = strings.TrimSpace(strings.Join(description, "\n"))
			return lines[i:], nil
		default:
			if story.Meta.IsEmpty() && story.Narrative.IsEmpty() && story.GivenStories.IsEmpty() {
				description = append(description, line)
			} else if strings.TrimSpace(line) != "" {
				return nil, parseError(story.Path, "Story", "unexpected text %q", strings.TrimSpace(line))
			}
			i++
		}
	}
	story.Description = strings.TrimSpace(strings.Join(description, "\n"))
	return nil, nil
}

// sectionBlock returns the text after the keyword on line i and on every
// following line up to the next keyword or step.
func (p *Parser) sectionBlock(lines []string, i int, role keywords.Role) (string, int) {
	parts := []string{p.afterKeyword(lines[i], role)}
	j := i + 1
	for ; j < len(lines); j++ {
		if p.isBoundary(lines[j]) {
			break
		}
		parts = append(parts, lines[j])
	}
	return strings.TrimSpace(strings.Join(parts, "\n")), j
}

func (p *Parser) isBoundary(line string) bool {
	for _, role := range []keywords.Role{keywords.Meta, keywords.Narrative, keywords.GivenStories, keywords.Lifecycle, keywords.Scenario, keywords.ExamplesTable} {
		if p.startsWithKeyword(line, role) {
			return true
		}
	}
	return p.keywords.StartsWithStartingWord(line)
}

func (p *Parser) parseNarrative(text string) model.Narrative {
	clauses := map[keywords.Role]*[]string{}
	var narrative model.Narrative
	targets := map[keywords.Role]*string{
		keywords.InOrderTo: &narrative.InOrderTo,
		keywords.AsA:       &narrative.AsA,
		keywords.IWantTo:   &narrative.IWantTo,
		keywords.SoThat:    &narrative.SoThat,
	}

	var current *[]string
	for _, line := range strings.Split(text, "\n") {
		matched := false
		for _, role := range []keywords.Role{keywords.InOrderTo, keywords.AsA, keywords.IWantTo, keywords.SoThat} {
			if p.startsWithKeyword(line, role) {
				parts := []string{p.afterKeyword(line, role)}
				clauses[role] = &parts
				current = &parts
				matched = true
				break
			}
		}
		if !matched && current != nil {
			*current = append(*current, line)
		}
	}

	for role, parts := range clauses {
		*targets[role] = strings.Join(strings.Fields(strings.Join(*parts, " ")), " ")
	}
	return narrative
}

func (p *Parser) parseLifecycle(path string, lines []string) (model.Lifecycle, error) {
	var lifecycle model.Lifecycle
	var groups *[]model.LifecycleSteps
	var group *model.LifecycleSteps

	startGroup := func(target *[]model.LifecycleSteps, scope model.Scope, outcome model.Outcome) {
		*target = append(*target, model.LifecycleSteps{Scope: scope, Outcome: outcome})
		groups = target
		group = &(*target)[len(*target)-1]
	}

	err := p.groupSteps(lines, func(line string, _ bool) (bool, error) {
		switch {
		case p.startsWithKeyword(line, keywords.Before):
			startGroup(&lifecycle.Before, model.ScopeScenario, model.OutcomeAny)
		case p.startsWithKeyword(line, keywords.After):
			startGroup(&lifecycle.After, model.ScopeScenario, model.OutcomeAny)
		case p.startsWithKeyword(line, keywords.Scope):
			if group == nil {
				return false, errors.New("scope outside of Before or After")
			}
			scope, ok := p.parseScope(p.afterKeyword(line, keywords.Scope))
			if !ok {
				return false, errors.New("unknown scope in " + strings.TrimSpace(line))
			}
			if len(group.Steps) > 0 {
				startGroup(groups, scope, group.Outcome)
			}
			group.Scope = scope
		case p.startsWithKeyword(line, keywords.Outcome):
			if group == nil || groups != &lifecycle.After {
				return false, errors.New("outcome outside of After")
			}
			outcome, ok := p.parseOutcome(p.afterKeyword(line, keywords.Outcome))
			if !ok {
				return false, errors.New("unknown outcome in " + strings.TrimSpace(line))
			}
			if len(group.Steps) > 0 {
				startGroup(groups, group.Scope, outcome)
			}
			group.Outcome = outcome
		default:
			return false, nil
		}
		return true, nil
	}, func(step model.Step) error {
		if group == nil {
			return errors.New("step outside of Before or After: " + step.Text)
		}
		group.Steps = append(group.Steps, step)
		return nil
	})
	if err != nil {
		return model.Lifecycle{}, &ParseError{Path: path, Section: "Lifecycle", Cause: err}
	}
	return lifecycle, nil
}

func (p *Parser) parseScope(text string) (model.Scope, bool) {
	text = strings.TrimSpace(text)
	switch {
	case strings.EqualFold(text, p.keywords.Get(keywords.ScopeStory)):
		return model.ScopeStory, true
	case strings.EqualFold(text, p.keywords.Get(keywords.ScopeScenario)):
		return model.ScopeScenario, true
	default:
		return model.ParseScope(text)
	}
}

func (p *Parser) parseOutcome(text string) (model.Outcome, bool) {
	text = strings.TrimSpace(text)
	switch {
	case strings.EqualFold(text, p.keywords.Get(keywords.OutcomeAny)):
		return model.OutcomeAny, true
	case strings.EqualFold(text, p.keywords.Get(keywords.OutcomeSuccess)):
		return model.OutcomeSuccess, true
	case strings.EqualFold(text, p.keywords.Get(keywords.OutcomeFailure)):
		return model.OutcomeFailure, true
	default:
		return model.ParseOutcome(text)
	}
}

func (p *Parser) splitScenarios(lines []string) [][]string {
	var blocks [][]string
	for _, line := range lines {
		if p.startsWithKeyword(line, keywords.Scenario) {
			blocks = append(blocks, []string{line})
			continue
		}
		blocks[len(blocks)-1] = append(blocks[len(blocks)-1], line)
	}
	return blocks
}

func (p *Parser) parseScenarioBody(path, title string, lines []string) (*model.Scenario, error) {
	scenario := &model.Scenario{Title: title}
	section := "Scenario"
	if title != "" {
		section = "Scenario: " + title
	}

	examplesAt := -1
	for i, line := range lines {
		if p.startsWithKeyword(line, keywords.ExamplesTable) {
			examplesAt = i
			break
		}
	}
	if examplesAt >= 0 {
		text := strings.Join(append([]string{p.afterKeyword(lines[examplesAt], keywords.ExamplesTable)}, lines[examplesAt+1:]...), "\n")
		examples, err := p.tables.Create(text)
		if err != nil {
			return nil, &ParseError{Path: path, Section: section + " Examples", Cause: err}
		}
		scenario.Examples = examples
		lines = lines[:examplesAt]
	}

	metaPrefix := p.keywords.Get(keywords.MetaProperty)
	var meta, given []string
	collecting := &meta
	stepsStarted := false
	err := p.groupSteps(lines, func(line string, inStep bool) (bool, error) {
		if stepsStarted || inStep {
			stepsStarted = true
			return false, nil
		}
		switch {
		case p.startsWithKeyword(line, keywords.Meta):
			meta = append(meta, p.afterKeyword(line, keywords.Meta))
			collecting = &meta
		case p.startsWithKeyword(line, keywords.GivenStories):
			given = append(given, p.afterKeyword(line, keywords.GivenStories))
			collecting = &given
		case (len(meta) > 0 || len(given) > 0) && !p.isBoundary(line):
			*collecting = append(*collecting, line)
		default:
			return false, nil
		}
		scenario.Meta = model.ParseMeta(strings.Join(meta, "\n"), metaPrefix)
		scenario.GivenStories = model.ParseGivenStories(strings.Join(given, ","))
		return true, nil
	}, func(step model.Step) error {
		scenario.Steps = append(scenario.Steps, step)
		return nil
	})
	if err != nil {
		return nil, &ParseError{Path: path, Section: section, Cause: err}
	}
	return scenario, nil
}

// groupSteps walks lines, offering every non-blank line that is not a step
// start to directive first. A step runs from its starting word to the next
// step or directive line; its trailing whitespace is trimmed. Text that is
// neither a directive nor part of a step is an error.
func (p *Parser) groupSteps(lines []string, directive func(line string, inStep bool) (bool, error), emit func(model.Step) error) error {
	var current []string
	var currentType keywords.StepType
	previous := keywords.GivenStep

	flush := func() error {
		if current == nil {
			return nil
		}
		lines := current
		current = nil
		if err := p.checkStepTable(lines); err != nil {
			return err
		}
		text := strings.TrimRightFunc(strings.Join(lines, "\n"), isSpace)
		return emit(model.Step{Text: text, Type: currentType})
	}

	for _, line := range lines {
		stepType, isStep := p.keywords.StepTypeFor(line)
		if !isStep && strings.TrimSpace(line) == "" {
			if current != nil {
				current = append(current, line)
			}
			continue
		}
		if !isStep {
			handled, err := directive(line, current != nil)
			if err != nil {
				return err
			}
			if handled {
				if err := flush(); err != nil {
					return err
				}
				continue
			}
			if current != nil {
				current = append(current, line)
				continue
			}
			if strings.TrimSpace(line) != "" {
				return errors.New("text is not a step: " + strings.TrimSpace(line))
			}
			continue
		}

		if err := flush(); err != nil {
			return err
		}
		switch stepType {
		case keywords.AndStep:
			stepType = previous
		case keywords.IgnorableStep:
		default:
			previous = stepType
		}
		currentType = stepType
		current = []string{strings.TrimLeft(line, " \t")}
	}
	return flush()
}

// checkStepTable parses the table a step carries: the lines from the first
// one starting with the header separator, with a properties line right
// before it.
func (p *Parser) checkStepTable(lines []string) error {
	sep := p.keywords.HeaderSeparator()
	for i := 1; i < len(lines); i++ {
		if !strings.HasPrefix(strings.TrimSpace(lines[i]), sep) {
			continue
		}
		start := i
		if prev := strings.TrimSpace(lines[i-1]); i > 1 && strings.HasPrefix(prev, "{") && strings.HasSuffix(prev, "}") {
			start = i - 1
		}
		if _, err := p.tables.Create(strings.Join(lines[start:], "\n")); err != nil {
			return fmt.Errorf("table of step %q: %w", strings.TrimSpace(lines[0]), err)
		}
		return nil
	}
	return nil
}

// startsWithKeyword checks that the line begins with the keyword of role.
// A keyword ending in a letter or digit must be followed by whitespace or
// the end of the line, so "As a" does not start "As an".
func (p *Parser) startsWithKeyword(line string, role keywords.Role) bool {
	word := p.keywords.Get(role)
	text := strings.TrimLeft(line, " \t")
	if word == "" || !strings.HasPrefix(text, word) {
		return false
	}
	if len(text) == len(word) {
		return true
	}
	last, _ := utf8.DecodeLastRuneInString(word)
	if !unicode.IsLetter(last) && !unicode.IsDigit(last) {
		return true
	}
	next, _ := utf8.DecodeRuneInString(text[len(word):])
	return unicode.IsSpace(next)
}

func (p *Parser) afterKeyword(line string, role keywords.Role) string {
	return strings.TrimPrefix(strings.TrimLeft(line, " \t"), p.keywords.Get(role))
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
