package step_bank

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/denizgursoy/behave/pkg/behave"
)

// Money is an amount in cents
type Money int64

// ParseMoney reads amounts such as "12.50"
// @converter
func ParseMoney(value string) (Money, error) {
	whole, cents, _ := strings.Cut(value, ".")
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q: %w", value, err)
	}
	c, _ := strconv.ParseInt(cents, 10, 64)
	return Money(w*100 + c), nil
}

// GivenBalance opens an account
// @given `I have $amount in my account`
// @alias `my account holds $amount`
// @priority 2
// @named amount
func GivenBalance(ctx *behave.Context, amount Money) {
	ctx.Data().Set("balance", amount)
}

// WhenWithdraw withdraws money
// @when `I withdraw $amount`
func WhenWithdraw(ctx *behave.Context, amount Money) error {
	balance := ctx.Data().MustGet("balance").(Money)
	if amount > balance {
		return fmt.Errorf("insufficient funds")
	}
	ctx.Data().Set("balance", balance-amount)
	return nil
}

// ThenBalance checks the balance
// @then `my balance is $amount`
func ThenBalance(ctx *behave.Context, amount Money) {
	ctx.Assert().Equal(amount, ctx.Data().MustGet("balance"))
}

// AndReceipt prints a receipt
// @and `a receipt is printed`
//
//go:noinline
func AndReceipt(ctx *behave.Context) {
	ctx.Logger().Info("receipt printed")
}

// helper has no directive and is ignored
func helper() {}
