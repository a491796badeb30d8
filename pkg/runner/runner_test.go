package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/denizgursoy/behave/pkg/behave"
	"github.com/denizgursoy/behave/pkg/configuration"
	"github.com/denizgursoy/behave/pkg/filter"
	"github.com/denizgursoy/behave/pkg/loader"
	"github.com/denizgursoy/behave/pkg/model"
	"github.com/denizgursoy/behave/pkg/reporter"
	"github.com/denizgursoy/behave/pkg/steps"
)

func newRunner(t *testing.T, fsys fstest.MapFS, source *steps.Steps, opts ...configuration.Option) *StoryRunner {
	t.Helper()
	l, err := loader.NewFS(fsys)
	require.NoError(t, err)
	cfg := configuration.MostUseful(append([]configuration.Option{configuration.WithStoryLoader(l)}, opts...)...)
	collector, err := cfg.Collector(source)
	require.NoError(t, err)
	return New(cfg, collector)
}

func runPath(t *testing.T, r *StoryRunner, path string, metaFilter filter.MetaFilter) (*reporter.RunResult, error) {
	t.Helper()
	rc := reporter.NewResultCollector()
	err := r.RunPath(context.Background(), path, rc, metaFilter)
	return rc.Result(), err
}

func outcomes(scenario *reporter.ScenarioResult) []string {
	var out []string
	for _, step := range scenario.Steps {
		out = append(out, step.Outcome)
	}
	return out
}

func calculator() *steps.Steps {
	return steps.New("calculator").
		Given("a number $n", func(c *behave.Context, n int) {
			c.Data().Set("total", n)
		}).
		When("I add $n", func(c *behave.Context, n int) {
			total, _ := behave.Value[int](c.Data(), "total")
			c.Data().Set("total", total+n)
		}).
		Then("the total is $n", func(c *behave.Context, n int) error {
			total, _ := behave.Value[int](c.Data(), "total")
			if total != n {
				return fmt.Errorf("expected %d, got %d", n, total)
			}
			return nil
		})
}

const addition = "Scenario: adding\nGiven a number 2\nWhen I add 3\nThen the total is 5\n"

func TestStoryRunner_Run(t *testing.T) {
	t.Run("performs every step of a passing story", func(t *testing.T) {
		r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(addition)}}, calculator())

		result, err := runPath(t, r, "math.story", nil)

		require.NoError(t, err)
		story := result.Story("math.story")
		require.NotNil(t, story)
		require.False(t, story.Failed)
		require.Equal(t, []string{"successful", "successful", "successful"}, outcomes(story.Scenario("adding")))
		require.Equal(t, 1, result.Totals.ScenariosSuccessful)
	})

	t.Run("steps after a failure are not performed", func(t *testing.T) {
		text := "Scenario: adding\nGiven a number 2\nThen the total is 6\nWhen I add 3\nThen the total is 5\n"
		r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(text)}}, calculator())

		result, err := runPath(t, r, "math.story", nil)

		require.ErrorIs(t, err, ErrStoryFailed)
		var failure *steps.StepFailure
		require.ErrorAs(t, err, &failure)
		require.Equal(t, "Then the total is 6", failure.Step)
		require.Equal(t, []string{"successful", "failed", "notPerformed", "notPerformed"}, outcomes(result.Story("math.story").Scenario("adding")))
		require.Len(t, result.Failures, 1)
		require.Equal(t, "math.story", result.Failures[0].Story)
		require.Equal(t, "adding", result.Failures[0].Scenario)
	})

	t.Run("continue policy performs the steps after a failure", func(t *testing.T) {
		text := "Scenario: adding\nGiven a number 2\nThen the total is 6\nWhen I add 3\nThen the total is 5\n"
		r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(text)}}, calculator(),
			configuration.WithStoryControls(configuration.StoryControls{StepFailurePolicy: configuration.ContinueScenario}))

		result, err := runPath(t, r, "math.story", nil)

		require.ErrorIs(t, err, ErrStoryFailed)
		require.Equal(t, []string{"successful", "failed", "successful", "successful"}, outcomes(result.Story("math.story").Scenario("adding")))
	})

	t.Run("swallowed failures are still reported", func(t *testing.T) {
		text := "Scenario: adding\nGiven a number 2\nThen the total is 6\n"
		r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(text)}}, calculator(),
			configuration.WithFailureStrategy(steps.SilentlySwallowFailure{}))

		result, err := runPath(t, r, "math.story", nil)

		require.NoError(t, err)
		require.True(t, result.Failed())
	})

	t.Run("pending steps pass and suggest a method", func(t *testing.T) {
		text := "Scenario: adding\nGiven a number 2\nWhen I multiply by 4\nThen the total is 2\n"
		r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(text)}}, calculator())

		result, err := runPath(t, r, "math.story", nil)

		require.NoError(t, err)
		story := result.Story("math.story")
		require.Equal(t, []string{"successful", "pending", "successful"}, outcomes(story.Scenario("adding")))
		require.True(t, story.Scenario("adding").Pending)
		require.Len(t, story.PendingMethods, 1)
		require.Contains(t, story.PendingMethods[0], "func WhenIMultiplyBy4(")
		require.Contains(t, story.PendingMethods[0], "// @when `I multiply by 4`")
	})

	t.Run("pending steps fail under the failing strategy", func(t *testing.T) {
		text := "Scenario: adding\nGiven a number 2\nWhen I multiply by 4\nThen the total is 2\n"
		r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(text)}}, calculator(),
			configuration.WithPendingStepStrategy(steps.FailingUponPendingStep))

		result, err := runPath(t, r, "math.story", nil)

		require.ErrorIs(t, err, steps.ErrPendingStep)
		require.Equal(t, []string{"successful", "pending", "notPerformed"}, outcomes(result.Story("math.story").Scenario("adding")))
	})

	t.Run("dry run matches steps without performing them", func(t *testing.T) {
		var performed, hooks int
		source := steps.New("s").
			Given("a step", func() { performed++ }).
			BeforeScenario(func() { hooks++ })
		text := "Scenario: dry\nGiven a step\nWhen an unknown step\n"
		r := newRunner(t, fstest.MapFS{"dry.story": {Data: []byte(text)}}, source,
			configuration.WithStoryControls(configuration.StoryControls{DryRun: true}))

		result, err := runPath(t, r, "dry.story", nil)

		require.NoError(t, err)
		require.Zero(t, performed)
		require.Zero(t, hooks)
		require.Equal(t, []string{"skipped", "pending"}, outcomes(result.Story("dry.story").Scenario("dry")))
	})

	t.Run("examples run the steps once per row", func(t *testing.T) {
		var ages []int
		source := steps.New("s").Given("a person aged $age", func(age int) { ages = append(ages, age) })
		text := "Scenario: ages\nGiven a person aged <age>\nExamples:\n|age|\n|3|\n|40|\n"
		r := newRunner(t, fstest.MapFS{"ages.story": {Data: []byte(text)}}, source)

		result, err := runPath(t, r, "ages.story", nil)

		require.NoError(t, err)
		require.Equal(t, []int{3, 40}, ages)
		require.Equal(t, 2, result.Story("ages.story").Scenario("ages").Examples)
	})

	t.Run("a failing row does not stop the next one", func(t *testing.T) {
		text := "Scenario: sums\nGiven a number <a>\nThen the total is <total>\nExamples:\n|a|total|\n|1|2|\n|3|3|\n"
		r := newRunner(t, fstest.MapFS{"sums.story": {Data: []byte(text)}}, calculator())

		result, err := runPath(t, r, "sums.story", nil)

		require.ErrorIs(t, err, ErrStoryFailed)
		require.Equal(t, []string{"successful", "failed", "successful", "successful"}, outcomes(result.Story("sums.story").Scenario("sums")))
	})

	t.Run("rows are filtered by meta when asked to", func(t *testing.T) {
		var ages []int
		source := steps.New("s").Given("a person aged $age", func(age int) { ages = append(ages, age) })
		text := "Scenario: ages\nGiven a person aged <age>\nExamples:\n|age|skip|\n|3|yes|\n|40|no|\n"
		r := newRunner(t, fstest.MapFS{"ages.story": {Data: []byte(text)}}, source,
			configuration.WithStoryControls(configuration.StoryControls{MetaByRow: true}))
		metaFilter, err := filter.New("-skip yes")
		require.NoError(t, err)

		_, err = runPath(t, r, "ages.story", metaFilter)

		require.NoError(t, err)
		require.Equal(t, []int{40}, ages)
	})

	t.Run("cancelled context leaves steps not performed", func(t *testing.T) {
		r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(addition)}}, calculator())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		rc := reporter.NewResultCollector()

		err := r.RunPath(ctx, "math.story", rc, nil)

		require.NoError(t, err)
		require.Equal(t, []string{"notPerformed", "notPerformed", "notPerformed"}, outcomes(rc.Result().Story("math.story").Scenario("adding")))
	})

	t.Run("missing story is reported as failed", func(t *testing.T) {
		r := newRunner(t, fstest.MapFS{}, calculator())

		result, err := runPath(t, r, "missing.story", nil)

		require.ErrorIs(t, err, loader.ErrStoryNotFound)
		require.True(t, result.Story("missing.story").Failed)
	})
}

func TestStoryRunner_GivenStories(t *testing.T) {
	t.Run("row anchor passes the row values to the given story", func(t *testing.T) {
		var users []string
		source := steps.New("shop").
			Given("the user $user logs in", func(user string) { users = append(users, user) }).
			When("the cart is checked out", func() {})
		fsys := fstest.MapFS{
			"login.story": {Data: []byte("Scenario: login\nGiven the user <user> logs in\n")},
			"shop.story": {Data: []byte("Scenario: checkout\nGivenStories: login.story#{1}\n" +
				"When the cart is checked out\nExamples:\n|user|\n|ann|\n|bob|\n")},
		}
		r := newRunner(t, fsys, source)

		result, err := runPath(t, r, "shop.story", nil)

		require.NoError(t, err)
		require.Equal(t, []string{"bob"}, users)
		scenario := result.Story("shop.story").Scenario("checkout")
		require.Len(t, scenario.GivenStories, 1)
		require.Equal(t, "login.story", scenario.GivenStories[0].Path)
		require.Equal(t, 1, result.Totals.GivenStories)
	})

	t.Run("meta anchor keeps the matching scenarios only", func(t *testing.T) {
		var seeded []string
		source := steps.New("setup").
			Given("the $kind is seeded", func(kind string) { seeded = append(seeded, kind) }).
			Then("the report is ready", func() {})
		fsys := fstest.MapFS{
			"setup.story": {Data: []byte("Scenario: database\nMeta:\n@kind db\nGiven the database is seeded\n\n" +
				"Scenario: web\nMeta:\n@kind web\nGiven the cache is seeded\n")},
			"report.story": {Data: []byte("Scenario: report\nGivenStories: setup.story#{kind:db}\nThen the report is ready\n")},
		}
		r := newRunner(t, fsys, source)

		result, err := runPath(t, r, "report.story", nil)

		require.NoError(t, err)
		require.Equal(t, []string{"database"}, seeded)
		given := result.Story("report.story").Scenario("report").GivenStories[0]
		require.True(t, given.Scenario("web").NotAllowed)
	})

	t.Run("failing given story fails the scenario", func(t *testing.T) {
		fsys := fstest.MapFS{
			"broken.story": {Data: []byte("Scenario: broken\nGiven a number 1\nThen the total is 2\n")},
			"math.story":   {Data: []byte("Scenario: adding\nGivenStories: broken.story\nGiven a number 2\nThen the total is 2\n")},
		}
		r := newRunner(t, fsys, calculator())

		result, err := runPath(t, r, "math.story", nil)

		require.ErrorIs(t, err, ErrStoryFailed)
		scenario := result.Story("math.story").Scenario("adding")
		require.True(t, scenario.Failed)
		require.Equal(t, []string{"notPerformed", "notPerformed"}, outcomes(scenario))
	})

	t.Run("cycles are detected", func(t *testing.T) {
		fsys := fstest.MapFS{
			"a.story": {Data: []byte("GivenStories: b.story\n\nScenario: a\nGiven a number 1\n")},
			"b.story": {Data: []byte("GivenStories: a.story\n\nScenario: b\nGiven a number 2\n")},
		}
		r := newRunner(t, fsys, calculator())

		_, err := runPath(t, r, "a.story", nil)

		require.ErrorIs(t, err, ErrGivenStoryCycle)
		require.ErrorContains(t, err, "a.story -> b.story -> a.story")
	})

	t.Run("missing given story fails the story", func(t *testing.T) {
		fsys := fstest.MapFS{
			"math.story": {Data: []byte("GivenStories: nowhere.story\n\nScenario: adding\nGiven a number 2\n")},
		}
		r := newRunner(t, fsys, calculator())

		result, err := runPath(t, r, "math.story", nil)

		require.ErrorIs(t, err, loader.ErrStoryNotFound)
		require.Equal(t, []string{"notPerformed"}, outcomes(result.Story("math.story").Scenario("adding")))
	})
}

func TestStoryRunner_Hooks(t *testing.T) {
	t.Run("run around stories scenarios and steps in order", func(t *testing.T) {
		var calls []string
		call := func(name string) func() {
			return func() { calls = append(calls, name) }
		}
		source := steps.New("s").
			Given("a step", call("step")).
			AfterStory(call("after story")).
			BeforeStory(call("before story")).
			BeforeScenario(call("second before scenario"), steps.Order(2)).
			BeforeScenario(call("first before scenario"), steps.Order(1)).
			BeforeStep(call("before step")).
			AfterStep(call("after step")).
			AfterScenario(call("after scenario")).
			AfterScenario(call("after failed scenario"), steps.UponOutcome(model.OutcomeFailure))
		r := newRunner(t, fstest.MapFS{"s.story": {Data: []byte("Scenario: s\nGiven a step\n")}}, source)

		_, err := runPath(t, r, "s.story", nil)

		require.NoError(t, err)
		require.Equal(t, []string{
			"before story",
			"first before scenario",
			"second before scenario",
			"before step",
			"step",
			"after step",
			"after scenario",
			"after story",
		}, calls)
	})

	t.Run("failing before scenario hook skips the steps", func(t *testing.T) {
		boom := errors.New("no database")
		var afterFailed bool
		source := steps.New("s").
			Given("a step", func() {}).
			BeforeScenario(func() error { return boom }).
			AfterScenario(func() { afterFailed = true }, steps.UponOutcome(model.OutcomeFailure))
		r := newRunner(t, fstest.MapFS{"s.story": {Data: []byte("Scenario: s\nGiven a step\n")}}, source,
			configuration.WithStoryControls(configuration.StoryControls{StepFailurePolicy: configuration.ContinueScenario}))

		result, err := runPath(t, r, "s.story", nil)

		require.ErrorIs(t, err, boom)
		var hookErr *steps.BeforeOrAfterFailure
		require.ErrorAs(t, err, &hookErr)
		require.Equal(t, steps.ScopeScenario, hookErr.Scope)
		require.True(t, afterFailed)
		require.Equal(t, []string{"failed", "notPerformed"}, outcomes(result.Story("s.story").Scenario("s")))
	})

	t.Run("story hooks for given stories are told apart", func(t *testing.T) {
		var calls []string
		source := steps.New("s").
			Given("a step", func() {}).
			BeforeStory(func(story behave.Story) { calls = append(calls, "story "+story.Path) }).
			BeforeStory(func() { calls = append(calls, "given story") }, steps.UponGivenStory(true))
		fsys := fstest.MapFS{
			"given.story": {Data: []byte("Scenario: g\nGiven a step\n")},
			"main.story":  {Data: []byte("Scenario: m\nGivenStories: given.story\nGiven a step\n")},
		}
		r := newRunner(t, fsys, source)

		_, err := runPath(t, r, "main.story", nil)

		require.NoError(t, err)
		require.Equal(t, []string{"story main.story", "given story"}, calls)
	})

	t.Run("scenario hooks of given stories can be skipped", func(t *testing.T) {
		var scenarios int
		source := steps.New("s").
			Given("a step", func() {}).
			BeforeScenario(func() { scenarios++ })
		fsys := fstest.MapFS{
			"given.story": {Data: []byte("Scenario: g\nGiven a step\n")},
			"main.story":  {Data: []byte("Scenario: m\nGivenStories: given.story\nGiven a step\n")},
		}
		r := newRunner(t, fsys, source,
			configuration.WithStoryControls(configuration.StoryControls{SkipBeforeAndAfterScenarioStepsIfGivenStory: true}))

		_, err := runPath(t, r, "main.story", nil)

		require.NoError(t, err)
		require.Equal(t, 1, scenarios)
	})
}

func TestStoryRunner_Lifecycle(t *testing.T) {
	var calls []string
	record := func(name string) func() {
		return func() { calls = append(calls, name) }
	}
	source := steps.New("s").
		Given("a clean slate", record("clean")).
		Given("the story is set up", record("setup")).
		Then("the logs are dumped", record("dump")).
		Then("the story is torn down", record("teardown")).
		Given("a passing step", record("pass")).
		Given("a failing step", func() error { return errors.New("boom") })
	text := "Lifecycle:\n" +
		"Before:\nGiven a clean slate\n" +
		"Scope: STORY\nGiven the story is set up\n" +
		"After:\nOutcome: FAILURE\nThen the logs are dumped\n" +
		"After:\nScope: STORY\nThen the story is torn down\n\n" +
		"Scenario: passing\nGiven a passing step\n\n" +
		"Scenario: failing\nGiven a failing step\n"
	r := newRunner(t, fstest.MapFS{"l.story": {Data: []byte(text)}}, source)

	_, err := runPath(t, r, "l.story", nil)

	require.ErrorIs(t, err, ErrStoryFailed)
	require.Equal(t, []string{"setup", "clean", "pass", "clean", "dump", "teardown"}, calls)
}

func TestStoryRunner_Filtering(t *testing.T) {
	var performed []string
	source := steps.New("s").Given("step $name", func(name string) { performed = append(performed, name) })
	fsys := fstest.MapFS{
		"skipped.story": {Data: []byte("Meta:\n@skip\n\nScenario: one\nGiven step one\n")},
		"mixed.story": {Data: []byte("Scenario: kept\nGiven step kept\n\n" +
			"Scenario: dropped\nMeta:\n@skip\nGiven step dropped\n")},
	}
	metaFilter, err := filter.New("-skip")
	require.NoError(t, err)

	t.Run("story not allowed by its meta", func(t *testing.T) {
		performed = nil
		r := newRunner(t, fsys, source)

		result, err := runPath(t, r, "skipped.story", metaFilter)

		require.NoError(t, err)
		require.Empty(t, performed)
		require.True(t, result.Story("skipped.story").NotAllowed)
		require.Equal(t, 1, result.Totals.StoriesNotAllowed)
	})

	t.Run("scenarios not allowed by their meta", func(t *testing.T) {
		performed = nil
		r := newRunner(t, fsys, source)

		result, err := runPath(t, r, "mixed.story", metaFilter)

		require.NoError(t, err)
		require.Equal(t, []string{"kept"}, performed)
		require.True(t, result.Story("mixed.story").Scenario("dropped").NotAllowed)
	})

	t.Run("skip scenarios after a failure", func(t *testing.T) {
		text := "Scenario: first\nGiven a number 1\nThen the total is 2\n\nScenario: second\nGiven a number 2\n"
		r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(text)}}, calculator(),
			configuration.WithStoryControls(configuration.StoryControls{SkipScenariosAfterFailure: true}))

		result, err := runPath(t, r, "math.story", nil)

		require.ErrorIs(t, err, ErrStoryFailed)
		require.Equal(t, []string{"notPerformed"}, outcomes(result.Story("math.story").Scenario("second")))
	})
}

func TestStoryRunner_BeforeAndAfterStories(t *testing.T) {
	var calls []string
	source := steps.New("s").
		Given("a step", func() {}).
		BeforeStories(func() { calls = append(calls, "before") }).
		AfterStories(func() { calls = append(calls, "after") }).
		AfterStories(func() error { return errors.New("cleanup failed") }, steps.UponOutcome(model.OutcomeFailure))
	r := newRunner(t, fstest.MapFS{"s.story": {Data: []byte("Scenario: s\nGiven a step\n")}}, source)
	rc := reporter.NewResultCollector()
	ctx := context.Background()
	require.Equal(t, NotStarted, r.State())

	ctx, err := r.RunBeforeOrAfterStories(ctx, steps.StageBefore, rc, false)
	require.NoError(t, err)
	require.Equal(t, RunningStories, r.State())

	require.NoError(t, r.RunPath(ctx, "s.story", rc, nil))

	_, err = r.RunBeforeOrAfterStories(ctx, steps.StageAfter, rc, true)
	require.ErrorContains(t, err, "cleanup failed")
	require.Equal(t, Done, r.State())

	require.Equal(t, []string{"before", "after"}, calls)
	result := rc.Result()
	require.NotNil(t, result.Story(reporter.BeforeStoriesPath))
	require.True(t, result.Story(reporter.AfterStoriesPath).Failed)
	require.Equal(t, 1, result.Totals.Stories)
}

func TestStoryRunner_TxtOutput(t *testing.T) {
	var buf bytes.Buffer
	text := "Scenario: adding\nGiven a number 2\nThen the total is 6\nWhen I add 3\n"
	r := newRunner(t, fstest.MapFS{"math.story": {Data: []byte(text)}}, calculator(),
		configuration.WithReporter(reporter.NewTxtOutput(&buf, nil)))

	err := r.RunPath(context.Background(), "math.story", nil, nil)

	require.ErrorIs(t, err, ErrStoryFailed)
	require.Contains(t, buf.String(), "Scenario: adding")
	require.Contains(t, buf.String(), "Then the total is 6 (FAILED)")
	require.Contains(t, buf.String(), "When I add 3 (NOT PERFORMED)")
}

func TestState_String(t *testing.T) {
	require.Equal(t, "RunningBeforeStories", RunningBeforeStories.String())
	require.Equal(t, "RunningAfterScenario", RunningAfterScenario.String())
	require.Equal(t, "Unknown", State(99).String())
}
