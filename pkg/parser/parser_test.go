package parser

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/table"
)

func TestParseStory(t *testing.T) {
	p := New(nil, nil)

	t.Run("parses the game of life story", func(t *testing.T) {
		text, err := os.ReadFile("testdata/game_of_life.story")
		require.NoError(t, err)

		story, err := p.ParseStory(string(text), "game_of_life.story")
		require.NoError(t, err)

		require.Equal(t, "game_of_life.story", story.Path)
		require.Equal(t, "grid", story.Meta.Property("theme"))
		require.Equal(t, "Mauro", story.Meta.Property("author"))
		require.Equal(t, model.Narrative{
			InOrderTo: "see how cells evolve",
			AsA:       "player",
			IWantTo:   "watch the grid change",
		}, story.Narrative)
		require.Len(t, story.Scenarios, 2)

		first := story.Scenarios[0]
		require.Equal(t, "A cell with no neighbours dies", first.Title)
		require.Len(t, first.Steps, 5)
		require.Equal(t, model.Step{Text: "Given a 5 by 5 game", Type: keywords.GivenStep}, first.Steps[0])
		require.Equal(t, "Then the grid should look like\n.....\n.....\n.....\n..X..\n.....", first.Steps[2].Text)
		require.Equal(t, keywords.ThenStep, first.Steps[2].Type)
		require.Nil(t, first.Examples)

		second := story.Scenarios[1]
		require.Equal(t, []keywords.StepType{
			keywords.GivenStep, keywords.WhenStep, keywords.WhenStep,
			keywords.IgnorableStep, keywords.WhenStep, keywords.ThenStep,
		}, stepTypes(second.Steps))
		require.Equal(t, "But I toggle the cell at (<x>, 3)", second.Steps[4].Text)
		require.True(t, second.HasExamples())
		require.Equal(t, []string{"x", "alive"}, second.Examples.Headers())
		require.Equal(t, 2, second.Examples.RowCount())
	})

	t.Run("steps without a scenario keyword form one untitled scenario", func(t *testing.T) {
		story, err := p.ParseStory("A story about stocks\n\nGiven a stock\nWhen it trades\nThen the alert is off", "stocks.story")
		require.NoError(t, err)

		require.Equal(t, "A story about stocks", story.Description)
		require.Len(t, story.Scenarios, 1)
		require.Equal(t, "", story.Scenarios[0].Title)
		require.Len(t, story.Scenarios[0].Steps, 3)
	})

	t.Run("keeps tables and blank lines inside steps", func(t *testing.T) {
		text := "Scenario: traders\nGiven the traders:\n|name|rank|\n\n|Larry|Stooge 3|\n   \nThen they are ranked"
		story, err := p.ParseStory(text, "")
		require.NoError(t, err)

		steps := story.Scenarios[0].Steps
		require.Equal(t, "Given the traders:\n|name|rank|\n\n|Larry|Stooge 3|", steps[0].Text)
		require.Equal(t, "Then they are ranked", steps[1].Text)
	})

	t.Run("narrative with so that", func(t *testing.T) {
		text := "Narrative:\nAs a trader\nI want to sell\nSo that I profit\nScenario: s\nGiven x"
		story, err := p.ParseStory(text, "")
		require.NoError(t, err)
		require.Equal(t, model.Narrative{AsA: "trader", IWantTo: "sell", SoThat: "I profit"}, story.Narrative)
	})

	t.Run("narrative clauses need a word boundary", func(t *testing.T) {
		text := "Narrative:\nIn order to sell\nAs an administrator\nAs a trader\nI want tomatoes\nI want to profit\nScenario: s\nGiven x"
		story, err := p.ParseStory(text, "")
		require.NoError(t, err)
		require.Equal(t, model.Narrative{
			InOrderTo: "sell As an administrator",
			AsA:       "trader I want tomatoes",
			IWantTo:   "profit",
		}, story.Narrative)
	})

	t.Run("checks tables inside steps", func(t *testing.T) {
		text := "Scenario: s\nGiven the traders:\n{trim=false}\n|name|\n| Larry |\nThen they are ranked"
		story, err := p.ParseStory(text, "")
		require.NoError(t, err)
		require.Equal(t, "Given the traders:\n{trim=false}\n|name|\n| Larry |", story.Scenarios[0].Steps[0].Text)
	})

	t.Run("given stories and scenario meta", func(t *testing.T) {
		text := "GivenStories: setup/login.story,\n setup/data.story#{0}\n" +
			"Scenario: with meta\n" +
			"Meta:\n@id buy\n@skip\n" +
			"GivenStories: setup/cart.story#{id:empty}\n" +
			"Given a cart\n" +
			"Examples:\n|item|\n|book|"
		story, err := p.ParseStory(text, "shop.story")
		require.NoError(t, err)

		require.Equal(t, []string{"setup/login.story", "setup/data.story"}, story.GivenStories.Paths())
		require.Equal(t, "0", story.GivenStories.Stories[1].Anchor)

		scenario := story.Scenarios[0]
		require.Equal(t, "buy", scenario.Meta.Property("id"))
		require.True(t, scenario.Meta.Has("skip"))
		require.Equal(t, "id:empty", scenario.GivenStories.Stories[0].Anchor)
		require.Equal(t, []string{"Given a cart"}, scenario.StepTexts())
		require.Equal(t, "book", scenario.Examples.Row(0)["item"])
	})

	t.Run("lifecycle with scope and outcome", func(t *testing.T) {
		text := "Lifecycle:\n" +
			"Before:\nGiven a clean database\n" +
			"After:\nScope: SCENARIO\nOutcome: ANY\nThen close connections\nOutcome: FAILURE\nThen dump the logs\n" +
			"After:\nScope: STORY\nThen drop the database\n" +
			"Scenario: s\nGiven x"
		story, err := p.ParseStory(text, "")
		require.NoError(t, err)

		lifecycle := story.Lifecycle
		require.Equal(t, []string{"Given a clean database"}, texts(lifecycle.BeforeSteps(model.ScopeScenario)))
		require.Equal(t, []string{"Then close connections"}, texts(lifecycle.AfterSteps(model.ScopeScenario, false)))
		require.Equal(t, []string{"Then close connections", "Then dump the logs"}, texts(lifecycle.AfterSteps(model.ScopeScenario, true)))
		require.Equal(t, []string{"Then drop the database"}, texts(lifecycle.AfterSteps(model.ScopeStory, false)))
	})

	t.Run("localized keywords", func(t *testing.T) {
		kw, err := keywords.Localized(language.Italian)
		require.NoError(t, err)

		story, err := New(kw, nil).ParseStory("Scenario: uno\nDato che un titolo\nQuando lo vendo\nE lo compro", "")
		require.NoError(t, err)
		require.Equal(t, []keywords.StepType{keywords.GivenStep, keywords.WhenStep, keywords.WhenStep}, stepTypes(story.Scenarios[0].Steps))
	})
}

func TestParseErrors(t *testing.T) {
	p := New(nil, nil)

	tests := []struct {
		name    string
		text    string
		section string
		cause   error
	}{
		{"malformed examples", "Scenario: s\nGiven x\nExamples:\n|a|b|\n|1|", "Scenario: s Examples", table.ErrMalformedTable},
		{"text between steps", "Scenario: s\nsome prose\nGiven x", "Scenario: s", nil},
		{"lifecycle step outside before or after", "Lifecycle:\nGiven x\nScenario: s\nGiven y", "Lifecycle", nil},
		{"unknown outcome", "Lifecycle:\nAfter:\nOutcome: SOMETIMES\nThen x\nScenario: s\nGiven y", "Lifecycle", nil},
		{"step before the first scenario", "Given x\nScenario: s\nGiven y", "Story", nil},
		{"unterminated step table", "Scenario: s\nGiven a grid\n|1|2\nThen y", "Scenario: s", table.ErrMalformedTable},
		{"step table rows of another width", "Scenario: s\nGiven a grid\n|a|b|\n|1|\nThen y", "Scenario: s", table.ErrMalformedTable},
		{"unterminated lifecycle table", "Lifecycle:\nBefore:\nGiven a grid\n|a|b\nScenario: s\nGiven y", "Lifecycle", table.ErrMalformedTable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			story, err := p.ParseStory(tt.text, "bad.story")
			require.Nil(t, story)
			require.ErrorIs(t, err, ErrStoryParse)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			require.Equal(t, "bad.story", pe.Path)
			require.Equal(t, tt.section, pe.Section)
			if tt.cause != nil {
				require.ErrorIs(t, err, tt.cause)
			}
		})
	}
}

type fixedParser struct{ name string }

func (f fixedParser) ParseStory(_, path string) (*model.Story, error) {
	return &model.Story{Path: path, Description: f.name}, nil
}

func TestComposite(t *testing.T) {
	c := NewComposite(fixedParser{"default"}).Register(".feature", fixedParser{"gherkin"})

	story, err := c.ParseStory("", "a/b.FEATURE")
	require.NoError(t, err)
	require.Equal(t, "gherkin", story.Description)

	story, err = c.ParseStory("", "a/b.story")
	require.NoError(t, err)
	require.Equal(t, "default", story.Description)
}

func stepTypes(steps []model.Step) []keywords.StepType {
	types := make([]keywords.StepType, len(steps))
	for i, s := range steps {
		types[i] = s.Type
	}
	return types
}

func texts(steps []model.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Text
	}
	return out
}
