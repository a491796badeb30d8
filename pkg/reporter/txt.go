package reporter

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/table"
)

var (
	successfulStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	pendingStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	notPerformedStyle = lipgloss.NewStyle().Faint(true)
	keywordStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

// TxtOutput writes a plain text transcript of the run, one line per step,
// using the keywords of the stories so that the transcript reads like them.
type TxtOutput struct {
	w        io.Writer
	keywords *keywords.Keywords
	colors   bool
	depth    int
	err      error
}

type TxtOption func(*TxtOutput)

// WithColors styles the output with terminal colors.
func WithColors(enabled bool) TxtOption {
	return func(t *TxtOutput) {
		t.colors = enabled
	}
}

func NewTxtOutput(w io.Writer, kw *keywords.Keywords, opts ...TxtOption) *TxtOutput {
	if kw == nil {
		kw = keywords.Default()
	}
	t := &TxtOutput{w: w, keywords: kw}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Err returns the first write error.
func (t *TxtOutput) Err() error {
	return t.err
}

func (t *TxtOutput) style(style lipgloss.Style, s string) string {
	if !t.colors {
		return s
	}
	return style.Render(s)
}

func (t *TxtOutput) keyword(role keywords.Role) string {
	return t.style(keywordStyle, t.keywords.Get(role))
}

func (t *TxtOutput) println(lines ...string) {
	if t.err != nil {
		return
	}
	indent := ""
	if t.depth > 1 {
		indent = strings.Repeat("  ", t.depth-1)
	}
	for _, line := range lines {
		if line != "" {
			line = indent + line
		}
		if _, err := io.WriteString(t.w, line+"\n"); err != nil {
			t.err = err
			return
		}
	}
}

func (t *TxtOutput) meta(meta model.Meta) {
	if meta.IsEmpty() {
		return
	}
	t.println(t.keyword(keywords.Meta))
	for _, name := range meta.Names() {
		line := t.keywords.Get(keywords.MetaProperty) + name
		if v := meta.Property(name); v != "" {
			line += " " + v
		}
		t.println(line)
	}
}

func storyTitle(story *model.Story) string {
	if story.Description == "" {
		return story.Path
	}
	return fmt.Sprintf("%s (%s)", story.Description, story.Path)
}

func (t *TxtOutput) StoryNotAllowed(story *model.Story, filter string) {
	t.println("", fmt.Sprintf("%s: not allowed by filter %s", storyTitle(story), filter))
}

func (t *TxtOutput) BeforeStory(story *model.Story, givenStory bool) {
	t.depth++
	t.println("", storyTitle(story))
	t.meta(story.Meta)
}

func (t *TxtOutput) Narrative(narrative model.Narrative) {
	if narrative.IsEmpty() {
		return
	}
	t.println(t.keyword(keywords.Narrative))
	for _, clause := range []struct {
		role  keywords.Role
		value string
	}{
		{keywords.InOrderTo, narrative.InOrderTo},
		{keywords.AsA, narrative.AsA},
		{keywords.IWantTo, narrative.IWantTo},
		{keywords.SoThat, narrative.SoThat},
	} {
		if clause.value != "" {
			t.println(t.keyword(clause.role) + " " + clause.value)
		}
	}
}

func (t *TxtOutput) Lifecycle(lifecycle model.Lifecycle) {
	if lifecycle.IsEmpty() {
		return
	}
	t.println(t.keyword(keywords.Lifecycle))
	write := func(role keywords.Role, groups []model.LifecycleSteps) {
		if len(groups) == 0 {
			return
		}
		t.println(t.keyword(role))
		for _, group := range groups {
			t.println(t.keyword(keywords.Scope) + " " + t.scope(group.Scope))
			if role == keywords.After && group.Outcome != model.OutcomeAny {
				t.println(t.keyword(keywords.Outcome) + " " + t.outcome(group.Outcome))
			}
			for _, step := range group.Steps {
				t.println(step.Text)
			}
		}
	}
	write(keywords.Before, lifecycle.Before)
	write(keywords.After, lifecycle.After)
}

func (t *TxtOutput) scope(scope model.Scope) string {
	if scope == model.ScopeStory {
		return t.keywords.Get(keywords.ScopeStory)
	}
	return t.keywords.Get(keywords.ScopeScenario)
}

func (t *TxtOutput) outcome(outcome model.Outcome) string {
	switch outcome {
	case model.OutcomeSuccess:
		return t.keywords.Get(keywords.OutcomeSuccess)
	case model.OutcomeFailure:
		return t.keywords.Get(keywords.OutcomeFailure)
	default:
		return t.keywords.Get(keywords.OutcomeAny)
	}
}

func (t *TxtOutput) StoryCancelled(story *model.Story, timeout time.Duration) {
	t.println(t.style(failedStyle, fmt.Sprintf("%s: %s (%s %s)",
		storyTitle(story), t.keywords.Get(keywords.StoryCancelled), t.keywords.Get(keywords.Duration), timeout)))
}

func (t *TxtOutput) AfterStory(bool) {
	if t.depth > 0 {
		t.depth--
	}
}

func (t *TxtOutput) ScenarioNotAllowed(scenario *model.Scenario, filter string) {
	t.println("", fmt.Sprintf("%s %s: not allowed by filter %s", t.keyword(keywords.Scenario), scenario.Title, filter))
}

func (t *TxtOutput) BeforeScenario(scenario *model.Scenario) {
	t.println("", t.keyword(keywords.Scenario)+" "+scenario.Title)
	t.meta(scenario.Meta)
}

func (t *TxtOutput) GivenStories(givenStories model.GivenStories) {
	if givenStories.IsEmpty() {
		return
	}
	t.println(t.keyword(keywords.GivenStories) + " " + givenStories.String())
}

func (t *TxtOutput) BeforeExamples(steps []string, examples *table.ExamplesTable) {
	t.println(t.keyword(keywords.ExamplesTable))
	t.println(steps...)
	t.println("")
	if examples != nil {
		t.println(strings.Split(strings.TrimRight(examples.String(), "\n"), "\n")...)
	}
}

func (t *TxtOutput) Example(row map[string]string, index int) {
	names := make([]string, 0, len(row))
	for name := range row {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + row[name]
	}
	t.println("", fmt.Sprintf("%s {%s}", t.keyword(keywords.ExamplesTableRow), strings.Join(pairs, ", ")))
}

func (t *TxtOutput) AfterExamples() {}

func (t *TxtOutput) AfterScenario() {}

func (t *TxtOutput) BeforeStep(string) {}

func (t *TxtOutput) Successful(step string) {
	t.println(t.style(successfulStyle, step))
}

func (t *TxtOutput) Ignorable(step string) {
	t.println(t.style(notPerformedStyle, step))
}

func (t *TxtOutput) Pending(step string) {
	t.println(t.style(pendingStyle, fmt.Sprintf("%s (%s)", step, t.keywords.Get(keywords.Pending))))
}

func (t *TxtOutput) NotPerformed(step string) {
	t.println(t.style(notPerformedStyle, fmt.Sprintf("%s (%s)", step, t.keywords.Get(keywords.NotPerformed))))
}

func (t *TxtOutput) Skipped(step string) {
	t.println(step)
}

func (t *TxtOutput) Failed(step string, err error) {
	t.println(t.style(failedStyle, fmt.Sprintf("%s (%s)", step, t.keywords.Get(keywords.Failed))))
	if err == nil {
		return
	}
	for _, line := range strings.Split(err.Error(), "\n") {
		t.println(t.style(failedStyle, "  "+line))
	}
}

func (t *TxtOutput) PendingMethods(methods []string) {
	for _, method := range methods {
		t.println("")
		t.println(strings.Split(method, "\n")...)
	}
}

func (t *TxtOutput) DryRun() {
	t.println(t.keyword(keywords.DryRun))
}
