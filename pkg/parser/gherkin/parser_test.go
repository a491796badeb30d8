package gherkin

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/parser"
)

func TestParseStory(t *testing.T) {
	text, err := os.ReadFile("testdata/login.feature")
	require.NoError(t, err)

	story, err := New(nil).ParseStory(string(text), "testdata/login.feature")
	require.NoError(t, err)

	t.Run("maps the feature", func(t *testing.T) {
		require.Equal(t, "Login\nUsers sign in with a password.", story.Description)
		require.True(t, story.Meta.Has("web"))
		require.Equal(t, "alice", story.Meta.Property("owner"))
		require.Equal(t, []model.Step{{Text: "Given the login page is open", Type: keywords.GivenStep}},
			story.Lifecycle.BeforeSteps(model.ScopeScenario))
		require.Len(t, story.Scenarios, 3)
	})

	t.Run("maps steps and doc strings", func(t *testing.T) {
		scenario := story.Scenarios[0]
		require.Equal(t, "valid credentials", scenario.Title)
		require.True(t, scenario.Meta.Has("smoke"))
		require.Equal(t, []model.Step{
			{Text: `When the user signs in as "alice"`, Type: keywords.WhenStep},
			{Text: "And the password is\ns3cret", Type: keywords.WhenStep},
			{Text: "Then the dashboard is shown", Type: keywords.ThenStep},
		}, scenario.Steps)
	})

	t.Run("merges examples blocks", func(t *testing.T) {
		scenario := story.Scenarios[1]
		require.Equal(t, "failed attempts", scenario.Title)
		require.Equal(t, []string{"count", "status"}, scenario.Examples.Headers())
		require.Equal(t, []map[string]string{
			{"count": "1", "status": "active"},
			{"count": "3", "status": "locked"},
		}, scenario.Examples.Rows())
		require.Equal(t, "And the account is checked", scenario.Steps[1].Text)
		require.Equal(t, keywords.WhenStep, scenario.Steps[1].Type)
	})

	t.Run("flattens rules", func(t *testing.T) {
		scenario := story.Scenarios[2]
		require.True(t, scenario.Meta.Has("admin"))
		require.False(t, scenario.Meta.Has("owner"))
		require.Equal(t, "Given an administrator account", scenario.Steps[0].Text)
		require.Equal(t, "Given the users\n|name|role|\n|alice|admin|", scenario.Steps[1].Text)
	})

	t.Run("reports syntax errors", func(t *testing.T) {
		_, err := New(nil).ParseStory("Feature: broken\n  Scenario: x\n    | not | a step |\n  Nonsense here", "broken.feature")
		require.ErrorIs(t, err, parser.ErrStoryParse)
	})
}
