package step_duplicate

import "github.com/denizgursoy/behave/pkg/behave"

// SecondDuplicateStep is the second definition of the same step
// @given `I have $count items`
func SecondDuplicateStep(ctx *behave.Context, count int) {
	ctx.Logger().Info("second duplicate step", "count", count)
}
