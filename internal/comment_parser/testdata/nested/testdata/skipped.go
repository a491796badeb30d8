package skipped

// Skipped lives in a nested testdata directory
// @given `a skipped step`
func Skipped() {}
