package step_invalid

// Untemplated has no backticks
// @when I forgot the backticks
func Untemplated() {}
