package step_enum

import "github.com/denizgursoy/behave/pkg/behave"

// Currency is an account currency
type Currency string

const (
	Euro   Currency = "EUR"
	Dollar Currency = `USD`
	pound  Currency = "GBP"
)

// Level is a risk level
type Level int

const (
	Low Level = iota + 1
	Medium
	_
	High
)

// Flags has no constants
type Flags uint8

// Alias is not a new type
type Alias = string

const untyped = "ignored"

// GivenCurrency sets the currency
// @given `the account currency is $currency`
func GivenCurrency(ctx *behave.Context, currency Currency) {}

// GivenLevel sets the risk level
// @given `the risk level is $level`
func GivenLevel(ctx *behave.Context, level Level) {}
