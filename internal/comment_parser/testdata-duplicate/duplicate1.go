package step_duplicate

import "github.com/denizgursoy/behave/pkg/behave"

// FirstDuplicateStep is the first definition of a duplicate step
// @given `I have $count items`
func FirstDuplicateStep(ctx *behave.Context, count int) {
	ctx.Logger().Info("first duplicate step", "count", count)
}
