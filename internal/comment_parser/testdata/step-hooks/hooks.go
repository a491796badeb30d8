package step_hooks

import (
	"context"

	"github.com/denizgursoy/behave/pkg/behave"
)

// OpenBank starts the bank before every story
// @beforeStories
func OpenBank(ctx context.Context) context.Context {
	return ctx
}

// DumpLedger runs after failed examples rows
// @afterScenario order=2 outcome=failure type=example
func DumpLedger(ctx *behave.Context, scenario behave.Scenario) {
	ctx.Logger().Warn("scenario failed", "scenario", scenario.Title)
}

// SeedAccounts runs for given stories
// @beforeStory givenStory order=-1
func SeedAccounts(ctx *behave.Context) {}

// LogStep runs around every step
// @beforeStep
// @afterStep
func LogStep(ctx *behave.Context, step behave.Step) {}
