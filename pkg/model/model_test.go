package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/behave/pkg/keywords"
	"github.com/denizgursoy/behave/pkg/table"
)

func TestMeta(t *testing.T) {
	t.Run("parses properties", func(t *testing.T) {
		meta := ParseMeta("@author Mauro Talevi\n@theme parsing\n@skip", "@")

		require.Equal(t, "Mauro Talevi", meta.Property("author"))
		require.Equal(t, "parsing", meta.Property("theme"))
		require.True(t, meta.Has("skip"))
		require.Equal(t, "", meta.Property("skip"))
		require.Equal(t, []string{"author", "skip", "theme"}, meta.Names())
	})

	t.Run("inherits parent properties", func(t *testing.T) {
		story := NewMeta(map[string]string{"author": "mauro", "theme": "story"})
		scenario := NewMeta(map[string]string{"theme": "scenario"})

		merged := scenario.InheritFrom(story)
		require.Equal(t, "mauro", merged.Property("author"))
		require.Equal(t, "scenario", merged.Property("theme"))
		require.Equal(t, "story", story.Property("theme"))
	})

	t.Run("writes properties", func(t *testing.T) {
		meta := NewMeta(map[string]string{"b": "2", "a": ""})
		require.Equal(t, "@a\n@b 2", meta.String())
		require.True(t, Meta{}.IsEmpty())
	})
}

func TestGivenStories(t *testing.T) {
	t.Run("parses paths and anchors", func(t *testing.T) {
		given := ParseGivenStories("path/one.story, path/two.story#{1}, path/three.story#{id:login}")

		require.Equal(t, []string{"path/one.story", "path/two.story", "path/three.story"}, given.Paths())
		require.True(t, given.RequireParameters())

		row, ok := given.Stories[1].AnchorRow()
		require.True(t, ok)
		require.Equal(t, 1, row)

		name, value, ok := given.Stories[2].AnchorMeta()
		require.True(t, ok)
		require.Equal(t, "id", name)
		require.Equal(t, "login", value)

		require.Equal(t, "path/one.story,path/two.story#{1},path/three.story#{id:login}", given.String())
	})

	t.Run("binds examples rows", func(t *testing.T) {
		examples, err := table.Parse("|symbol|\n|STK1|\n|STK2|")
		require.NoError(t, err)

		given := ParseGivenStories("a.story#{1}, b.story#{5}").WithExamples(examples)
		require.Equal(t, map[string]string{"symbol": "STK2"}, given.Stories[0].Parameters)
		require.Nil(t, given.Stories[1].Parameters)
	})

	t.Run("empty text gives no stories", func(t *testing.T) {
		require.True(t, ParseGivenStories("  ").IsEmpty())
	})
}

func TestLifecycle(t *testing.T) {
	before := Step{Text: "Given a clean state", Type: keywords.GivenStep}
	always := Step{Text: "Then clean up", Type: keywords.ThenStep}
	onFailure := Step{Text: "Then dump state", Type: keywords.ThenStep}
	story := Step{Text: "Then close the story", Type: keywords.ThenStep}

	lifecycle := Lifecycle{
		Before: []LifecycleSteps{{Scope: ScopeScenario, Steps: []Step{before}}},
		After: []LifecycleSteps{
			{Scope: ScopeScenario, Outcome: OutcomeAny, Steps: []Step{always}},
			{Scope: ScopeScenario, Outcome: OutcomeFailure, Steps: []Step{onFailure}},
			{Scope: ScopeStory, Outcome: OutcomeAny, Steps: []Step{story}},
		},
	}

	require.Equal(t, []Step{before}, lifecycle.BeforeSteps(ScopeScenario))
	require.Empty(t, lifecycle.BeforeSteps(ScopeStory))
	require.Equal(t, []Step{always}, lifecycle.AfterSteps(ScopeScenario, false))
	require.Equal(t, []Step{always, onFailure}, lifecycle.AfterSteps(ScopeScenario, true))
	require.Equal(t, []Step{story}, lifecycle.AfterSteps(ScopeStory, true))

	scope, ok := ParseScope("story")
	require.True(t, ok)
	require.Equal(t, ScopeStory, scope)

	_, ok = ParseOutcome("sometimes")
	require.False(t, ok)
}

func TestReplaceParameters(t *testing.T) {
	step := Step{Text: "Given a stock of <symbol> at <price>", Type: keywords.GivenStep}

	replaced := step.WithParameters(map[string]string{"symbol": "STK1", "price": "5.0"})
	require.Equal(t, "Given a stock of STK1 at 5.0", replaced.Text)
	require.Equal(t, "Given a stock of STK1 at <price>", ReplaceParameters(step.Text, map[string]string{"symbol": "STK1"}))
	require.Equal(t, step.Text, ReplaceParameters(step.Text, nil))
}
